package moderation

import "errors"

// Kind classifies a workflow failure so callers can react without parsing
// messages.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindPersistence Kind = "persistence"
)

// Error is returned by every Engine operation. Message is safe to show to
// the caller; Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when the target carries no message,
// so errors.Is(err, ErrConflict) works for every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrPersistence = &Error{Kind: KindPersistence}
)

// ErrRecordNotFound is returned by Store implementations when a lookup
// matches nothing.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicatePending is returned by Store.CreateReport when the reporter
// already has a pending report on the same content.
var ErrDuplicatePending = errors.New("duplicate pending report")

// KindOf returns the kind of err, or KindPersistence for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

func invalid(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// persistence hides a store failure behind a retryable message.
func persistence(err error) error {
	return &Error{Kind: KindPersistence, Message: "operation failed, please try again", Err: err}
}

// lookupErr turns a store lookup failure into not-found or persistence.
func lookupErr(what string, err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return notFound(what)
	}
	return persistence(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
