package moderation

import (
	"context"
	"errors"
	"time"

	"mentorhub/internal/metrics"
	"mentorhub/internal/models"
	"mentorhub/internal/tracing"

	"github.com/bluesky-social/indigo/atproto/syntax"
)

// Listing page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ids hands out time-sortable record keys. Listings order by id, so the last
// id of a page doubles as the cursor for the next one.
var ids = syntax.NewTIDClock(0)

func newID() string {
	return ids.Next().String()
}

// Engine runs the moderation workflows against a Store. Every operation
// that needs moderator privilege passes the Guard before touching storage.
type Engine struct {
	store Store
	guard *Guard
	audit *AuditWriter
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for timestamps and ban expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithAuditSpool sets where audit entries go when the moderation log
// cannot be written.
func WithAuditSpool(spool AuditSpool) Option {
	return func(e *Engine) {
		e.audit.spool = spool
	}
}

func NewEngine(store Store, auth Authorizer, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		guard: NewGuard(auth),
		audit: &AuditWriter{store: store},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.audit.now = e.clock
	return e
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// run wraps one operation in a span and an outcome counter. When perm is
// set, the guard runs first and the operation body never sees an
// unauthorized caller. Errors that did not originate here are reported as
// persistence failures.
func (e *Engine) run(ctx context.Context, op, actorID string, perm Permission, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracing.WorkflowSpan(ctx, op, actorID)
	defer func() {
		var merr *Error
		if err != nil && !errors.As(err, &merr) {
			err = persistence(err)
		}
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.ModerationOperationsTotal.WithLabelValues(op, outcome).Inc()
		tracing.EndWithError(span, err)
		span.End()
	}()

	if perm != "" {
		if err := e.guard.Require(ctx, actorID, perm); err != nil {
			return err
		}
	}
	return fn(ctx)
}

// checkRequest applies a payload's structural rules and reports the first
// violation as a validation error.
func checkRequest(req interface{ Validate() error }) error {
	if err := req.Validate(); err != nil {
		var fe *models.FieldError
		if errors.As(err, &fe) {
			return invalid(fe.Error())
		}
		return invalid("invalid request: " + err.Error())
	}
	return nil
}

func pageLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultPageSize
	case limit > MaxPageSize:
		return MaxPageSize
	}
	return limit
}

// paginate trims a limit+1 result set to limit and derives the next cursor
// from the last kept item.
func paginate[T any](items []T, limit int, id func(T) string) *Page[T] {
	page := &Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = id(page.Items[limit-1])
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

// optionalUser loads a user for display context. A missing user is not an
// error.
func (e *Engine) optionalUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	user, err := e.store.GetUser(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence(err)
	}
	return user, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
