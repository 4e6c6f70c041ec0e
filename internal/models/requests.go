package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field limits shared by the moderation request payloads.
const (
	MinReasonLength    = 10
	MaxReasonLength    = 1000
	MaxNotesLength     = 2000
	MaxBanDurationDays = 365
	MaxBatchSize       = 100
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names the way clients send them.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError is the first rule a request payload violated.
type FieldError struct {
	Field string
	Rule  string
	Param string
	Kind  reflect.Kind
}

func (e *FieldError) Error() string {
	switch e.Rule {
	case "required":
		return e.Field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field, strings.ReplaceAll(e.Param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s %s", e.Field, e.Param, e.unit())
	case "max":
		return fmt.Sprintf("%s must be at most %s %s", e.Field, e.Param, e.unit())
	default:
		return fmt.Sprintf("%s failed %s validation", e.Field, e.Rule)
	}
}

func (e *FieldError) unit() string {
	switch e.Kind {
	case reflect.String:
		return "characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "items"
	default:
		return ""
	}
}

// Validate checks a request payload against its `validate` tags and returns
// a *FieldError describing the first violation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param(), Kind: fe.Kind()}
	}
	return err
}

// CreateReportRequest is a user's complaint about a post or a comment.
type CreateReportRequest struct {
	Type      string  `json:"type" validate:"required,oneof=POST COMMENT"`
	Reason    string  `json:"reason" validate:"required,max=1000"`
	PostID    *string `json:"postId,omitempty"`
	CommentID *string `json:"commentId,omitempty"`
}

func (r *CreateReportRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return Validate(r)
}

// ResolveReportRequest closes a pending report.
type ResolveReportRequest struct {
	Action string `json:"action" validate:"required,oneof=ADDRESSED DISMISSED"`
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

func (r *ResolveReportRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	r.Notes = strings.TrimSpace(r.Notes)
	return Validate(r)
}

// TakeUserActionRequest applies a warning or ban to the author of reported content.
type TakeUserActionRequest struct {
	ActionType   string         `json:"actionType" validate:"required,oneof=WARNING TEMPORARY_BAN PERMANENT_BAN"`
	Reason       string         `json:"reason" validate:"required,min=10,max=1000"`
	DurationDays *int           `json:"durationDays,omitempty" validate:"omitempty,min=1,max=365"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (r *TakeUserActionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return Validate(r)
}

// RevokeUserActionRequest lifts an active user action.
type RevokeUserActionRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

func (r *RevokeUserActionRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return Validate(r)
}

// DeleteContentRequest soft-deletes the content behind a report.
type DeleteContentRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=1000"`
}

func (r *DeleteContentRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return Validate(r)
}

// BatchReportsRequest resolves or dismisses several reports at once.
type BatchReportsRequest struct {
	ReportIDs []string `json:"reportIds" validate:"required,min=1,max=100,dive,required"`
	Reason    string   `json:"reason" validate:"required,min=10,max=1000"`
}

func (r *BatchReportsRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	return Validate(r)
}
