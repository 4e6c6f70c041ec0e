package moderation

import (
	"context"
	"time"

	"mentorhub/internal/metrics"

	"github.com/rs/zerolog/log"
)

// AuditSpool holds moderation log entries that could not be written to the
// Store so they can be replayed later.
type AuditSpool interface {
	Put(ctx context.Context, entry ModerationLog) error
	// Replay hands each spooled entry to fn in write order and removes the
	// ones fn accepted. It returns how many were removed and how many remain.
	Replay(ctx context.Context, fn func(ModerationLog) error) (replayed, remaining int, err error)
	Len() int
}

// AuditWriter appends moderation log entries on a best-effort basis. A
// failed write never fails the operation that produced it.
type AuditWriter struct {
	store Store
	spool AuditSpool
	now   func() time.Time
}

// Write persists entry. Failures are logged, counted and spooled.
func (w *AuditWriter) Write(ctx context.Context, entry ModerationLog) {
	// The primary operation has already committed; a cancelled request must
	// not drop its audit entry.
	ctx = context.WithoutCancel(ctx)

	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = w.now()
	}

	err := w.store.AppendLog(ctx, &entry)
	if err == nil {
		return
	}

	metrics.AuditWriteFailuresTotal.Inc()
	log.Error().
		Err(err).
		Str("log_id", entry.ID).
		Str("action", string(entry.ActionType)).
		Str("admin_id", entry.PerformedByID).
		Str("report_id", deref(entry.ReportID)).
		Msg("moderation: failed to write audit entry")

	if w.spool == nil {
		return
	}
	if err := w.spool.Put(ctx, entry); err != nil {
		log.Error().Err(err).Str("log_id", entry.ID).Msg("moderation: failed to spool audit entry")
		return
	}
	metrics.SpooledAuditEntries.Set(float64(w.spool.Len()))
}

// ReplayResult reports the outcome of draining the audit spool.
type ReplayResult struct {
	Replayed  int `json:"replayed"`
	Remaining int `json:"remaining"`
}

// ReplayAuditSpool writes spooled audit entries back into the moderation
// log. Entries that fail again stay in the spool.
func (e *Engine) ReplayAuditSpool(ctx context.Context, adminID string) (*ReplayResult, error) {
	var out *ReplayResult
	err := e.run(ctx, "ReplayAuditSpool", adminID, PermissionReplayAudit, func(ctx context.Context) error {
		spool := e.audit.spool
		if spool == nil {
			out = &ReplayResult{}
			return nil
		}

		replayed, remaining, err := spool.Replay(ctx, func(entry ModerationLog) error {
			return e.store.AppendLog(ctx, &entry)
		})
		if err != nil {
			return persistence(err)
		}

		metrics.AuditReplayedTotal.Add(float64(replayed))
		metrics.SpooledAuditEntries.Set(float64(remaining))
		log.Info().
			Str("admin_id", adminID).
			Int("replayed", replayed).
			Int("remaining", remaining).
			Msg("moderation: audit spool replayed")

		out = &ReplayResult{Replayed: replayed, Remaining: remaining}
		return nil
	})
	return out, err
}

// ListModerationLogs returns the moderation log newest-first.
func (e *Engine) ListModerationLogs(ctx context.Context, adminID string, filter LogFilter, cursor string, limit int) (*Page[ModerationLog], error) {
	var out *Page[ModerationLog]
	err := e.run(ctx, "ListModerationLogs", adminID, PermissionViewAuditLog, func(ctx context.Context) error {
		limit = pageLimit(limit)
		entries, err := e.store.ListLogs(ctx, filter, limit+1, cursor)
		if err != nil {
			return persistence(err)
		}
		out = paginate(entries, limit, func(l ModerationLog) string { return l.ID })
		return nil
	})
	return out, err
}
