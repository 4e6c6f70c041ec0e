package moderation

import (
	"context"

	"mentorhub/internal/metrics"
	"mentorhub/internal/models"

	"github.com/rs/zerolog/log"
)

// DeleteContent soft-deletes the post or comment behind a report and marks
// the report addressed. Reports already closed keep their status.
func (e *Engine) DeleteContent(ctx context.Context, adminID, reportID string, req models.DeleteContentRequest) (*ContentReport, error) {
	var out *ContentReport
	err := e.run(ctx, "DeleteContent", adminID, PermissionDeleteContent, func(ctx context.Context) error {
		if err := checkRequest(&req); err != nil {
			return err
		}

		report, err := e.store.GetReport(ctx, reportID)
		if err != nil {
			return lookupErr("report", err)
		}

		var (
			ownerID     string
			contentID   string
			isComment   bool
			alreadyGone bool
		)
		switch {
		case report.Type == ReportTypePost && report.PostID != nil:
			post, err := e.store.GetPost(ctx, *report.PostID)
			if err != nil {
				return lookupErr("post", err)
			}
			ownerID, contentID, alreadyGone = post.AuthorID, post.ID, post.IsDeleted
		case report.Type == ReportTypeComment && report.CommentID != nil:
			comment, err := e.store.GetComment(ctx, *report.CommentID)
			if err != nil {
				return lookupErr("comment", err)
			}
			ownerID, contentID, alreadyGone, isComment = comment.UserID, comment.ID, comment.IsDeleted, true
		default:
			return invalid("report does not reference a valid post or comment")
		}
		if alreadyGone {
			return conflict("content has already been deleted")
		}

		now := e.clock()
		deletion := models.Deletion{By: adminID, Reason: req.Reason, At: now}
		resolved := false
		err = e.store.WithTx(ctx, func(tx Store) error {
			var ok bool
			var err error
			if isComment {
				ok, err = tx.SoftDeleteComment(ctx, contentID, deletion)
			} else {
				ok, err = tx.SoftDeletePost(ctx, contentID, deletion)
			}
			if err != nil {
				return persistence(err)
			}
			if !ok {
				return conflict("content has already been deleted")
			}
			if !report.IsPending() {
				return nil
			}
			resolved, err = tx.ResolvePending(ctx, report.ID, ReportStatusAddressed, adminID, now)
			if err != nil {
				return persistence(err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if resolved {
			report.Status = ReportStatusAddressed
			report.HandlerID = &adminID
			report.UpdatedAt = now
			metrics.ReportResolutionsTotal.WithLabelValues(string(ReportStatusAddressed)).Inc()
		}

		contentType := "post"
		if isComment {
			contentType = "comment"
		}
		log.Info().
			Str("report_id", report.ID).
			Str("admin_id", adminID).
			Str("content_type", contentType).
			Str("content_id", contentID).
			Str("user_id", ownerID).
			Msg("moderation: content deleted")

		e.audit.Write(ctx, ModerationLog{
			ActionType:    LogContentDeleted,
			PerformedByID: adminID,
			TargetUserID:  strPtr(ownerID),
			ReportID:      &report.ID,
			PostID:        report.PostID,
			CommentID:     report.CommentID,
			Details:       "Deleted " + contentType + ": " + req.Reason,
			Metadata: map[string]any{
				"contentType":    contentType,
				"contentId":      contentID,
				"reportResolved": resolved,
			},
		})

		out = report
		return nil
	})
	return out, err
}
