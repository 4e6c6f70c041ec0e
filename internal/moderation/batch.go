package moderation

import (
	"context"

	"mentorhub/internal/metrics"
	"mentorhub/internal/models"

	"github.com/rs/zerolog/log"
)

// BatchResult reports which of the requested reports a batch operation
// changed.
type BatchResult struct {
	Count     int64    `json:"count"`
	ReportIDs []string `json:"reportIds"`
}

// BatchResolve marks every pending report in the request addressed. Ids
// that are unknown or already closed are skipped.
func (e *Engine) BatchResolve(ctx context.Context, adminID string, req models.BatchReportsRequest) (*BatchResult, error) {
	return e.batch(ctx, "BatchResolve", adminID, req, ReportStatusAddressed)
}

// BatchDismiss marks every pending report in the request dismissed.
func (e *Engine) BatchDismiss(ctx context.Context, adminID string, req models.BatchReportsRequest) (*BatchResult, error) {
	return e.batch(ctx, "BatchDismiss", adminID, req, ReportStatusDismissed)
}

func (e *Engine) batch(ctx context.Context, op, adminID string, req models.BatchReportsRequest, status ReportStatus) (*BatchResult, error) {
	var out *BatchResult
	err := e.run(ctx, op, adminID, PermissionBatchReports, func(ctx context.Context) error {
		if err := checkRequest(&req); err != nil {
			return err
		}

		pending, err := e.store.PendingReportIDs(ctx, req.ReportIDs)
		if err != nil {
			return persistence(err)
		}
		if len(pending) == 0 {
			return conflict("no pending reports found among the given ids")
		}

		count, err := e.store.ResolvePendingBatch(ctx, pending, status, adminID, e.clock())
		if err != nil {
			return persistence(err)
		}
		if count == 0 {
			return conflict("no pending reports found among the given ids")
		}

		operation := "resolve"
		if status == ReportStatusDismissed {
			operation = "dismiss"
		}
		metrics.ReportResolutionsTotal.WithLabelValues(string(status)).Add(float64(count))
		log.Info().
			Str("admin_id", adminID).
			Str("operation", operation).
			Int64("count", count).
			Int("requested", len(req.ReportIDs)).
			Msg("moderation: batch operation applied")

		e.audit.Write(ctx, ModerationLog{
			ActionType:    LogBatchOperation,
			PerformedByID: adminID,
			Details:       "Batch " + operation + ": " + req.Reason,
			Metadata: map[string]any{
				"count":     count,
				"reportIds": req.ReportIDs,
				"operation": operation,
				"reason":    req.Reason,
			},
		})

		out = &BatchResult{Count: count, ReportIDs: pending}
		return nil
	})
	return out, err
}
