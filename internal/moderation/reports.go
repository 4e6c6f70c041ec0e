package moderation

import (
	"context"
	"errors"
	"strings"

	"mentorhub/internal/metrics"
	"mentorhub/internal/models"

	"github.com/rs/zerolog/log"
)

// ViolationHistoryLimit caps the user actions shown on a report detail.
const ViolationHistoryLimit = 10

// reportedContent is the post or comment a report points at, resolved from
// storage.
type reportedContent struct {
	post    *models.Post
	comment *models.Comment
}

func (c reportedContent) ownerID() string {
	switch {
	case c.comment != nil:
		return c.comment.UserID
	case c.post != nil:
		return c.post.AuthorID
	}
	return ""
}

func (c reportedContent) deleted() bool {
	if c.comment != nil {
		return c.comment.IsDeleted
	}
	return c.post != nil && c.post.IsDeleted
}

// deriveAnchor computes the post and comment ids persisted on a report. A
// comment report always carries the parent post of the comment.
func deriveAnchor(typ ReportType, post *models.Post, comment *models.Comment) (postID string, commentID *string, err error) {
	switch typ {
	case ReportTypePost:
		if post == nil || post.ID == "" {
			return "", nil, invalid("post report requires a post")
		}
		return post.ID, nil, nil
	case ReportTypeComment:
		if comment == nil || comment.ID == "" {
			return "", nil, invalid("comment report requires a comment")
		}
		if comment.PostID == "" {
			return "", nil, invalid("comment is not attached to a post")
		}
		id := comment.ID
		return comment.PostID, &id, nil
	}
	return "", nil, invalid("unknown report type: " + string(typ))
}

// CreateReport files a report from reporterID against a post or comment.
// Checks run in order and stop at the first failure.
func (e *Engine) CreateReport(ctx context.Context, reporterID string, req models.CreateReportRequest) (*ContentReport, error) {
	var out *ContentReport
	err := e.run(ctx, "CreateReport", reporterID, "", func(ctx context.Context) error {
		if reporterID == "" {
			return forbidden("authentication required")
		}
		if err := checkRequest(&req); err != nil {
			return err
		}

		postID, commentID := deref(req.PostID), deref(req.CommentID)
		if (postID == "") == (commentID == "") {
			return invalid("exactly one of postId or commentId must be provided")
		}
		typ := ReportType(req.Type)
		if typ == ReportTypePost && postID == "" {
			return invalid("postId is required for POST reports")
		}
		if typ == ReportTypeComment && commentID == "" {
			return invalid("commentId is required for COMMENT reports")
		}

		var content reportedContent
		var err error
		if typ == ReportTypePost {
			if content.post, err = e.store.GetPost(ctx, postID); err != nil {
				return lookupErr("post", err)
			}
		} else {
			if content.comment, err = e.store.GetComment(ctx, commentID); err != nil {
				return lookupErr("comment", err)
			}
		}
		if content.deleted() {
			return invalid("cannot report deleted content")
		}
		if content.ownerID() == reporterID {
			return invalid("you cannot report your own content")
		}

		anchorPostID, anchorCommentID, err := deriveAnchor(typ, content.post, content.comment)
		if err != nil {
			return err
		}

		subCommunityID, err := e.subCommunityOf(ctx, content, anchorPostID)
		if err != nil {
			return err
		}

		_, err = e.store.FindPendingReport(ctx, reporterID, typ, anchorPostID, anchorCommentID)
		switch {
		case err == nil:
			return conflict("you already have a pending report for this content")
		case !errors.Is(err, ErrRecordNotFound):
			return persistence(err)
		}

		now := e.clock()
		report := &ContentReport{
			ID:             newID(),
			ReporterID:     reporterID,
			Reason:         req.Reason,
			Type:           typ,
			PostID:         &anchorPostID,
			CommentID:      anchorCommentID,
			SubCommunityID: subCommunityID,
			Status:         ReportStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.store.CreateReport(ctx, report); err != nil {
			if errors.Is(err, ErrDuplicatePending) {
				return conflict("you already have a pending report for this content")
			}
			return persistence(err)
		}

		metrics.ReportsTotal.WithLabelValues(string(typ)).Inc()
		log.Info().
			Str("report_id", report.ID).
			Str("type", string(typ)).
			Str("post_id", anchorPostID).
			Str("comment_id", deref(anchorCommentID)).
			Str("reporter_id", reporterID).
			Msg("moderation: report created")

		e.audit.Write(ctx, ModerationLog{
			ActionType:    LogReportCreated,
			PerformedByID: reporterID,
			TargetUserID:  strPtr(content.ownerID()),
			ReportID:      &report.ID,
			PostID:        report.PostID,
			CommentID:     report.CommentID,
			Details:       "Report created: " + report.Reason,
			Metadata:      map[string]any{"type": string(typ)},
		})

		out = report
		return nil
	})
	return out, err
}

// subCommunityOf walks the reported content up to its sub-community. Content
// outside any sub-community yields nil.
func (e *Engine) subCommunityOf(ctx context.Context, content reportedContent, postID string) (*string, error) {
	post := content.post
	if post == nil {
		var err error
		post, err = e.store.GetPost(ctx, postID)
		if errors.Is(err, ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, persistence(err)
		}
	}
	return post.SubCommunityID, nil
}

func validReportFilter(f ReportFilter) error {
	switch f.Type {
	case "", ReportTypePost, ReportTypeComment:
	default:
		return invalid("type must be one of: POST, COMMENT")
	}
	switch f.Status {
	case "", ReportStatusPending, ReportStatusAddressed, ReportStatusDismissed:
	default:
		return invalid("status must be one of: PENDING, ADDRESSED, DISMISSED")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return invalid("to must not be before from")
	}
	return nil
}

// ListReports returns reports newest-first, one page at a time.
func (e *Engine) ListReports(ctx context.Context, adminID string, filter ReportFilter, cursor string, limit int) (*Page[ContentReport], error) {
	var out *Page[ContentReport]
	err := e.run(ctx, "ListReports", adminID, PermissionViewReports, func(ctx context.Context) error {
		filter.Search = strings.TrimSpace(filter.Search)
		if err := validReportFilter(filter); err != nil {
			return err
		}
		limit = pageLimit(limit)
		reports, err := e.store.ListReports(ctx, filter, limit+1, cursor)
		if err != nil {
			return persistence(err)
		}
		out = paginate(reports, limit, func(r ContentReport) string { return r.ID })
		return nil
	})
	return out, err
}

// ReportDetail is a report with its content, the people involved and the
// most recent actions taken against the content's author.
type ReportDetail struct {
	Report           ContentReport   `json:"report"`
	Post             *models.Post    `json:"post,omitempty"`
	Comment          *models.Comment `json:"comment,omitempty"`
	Reporter         *models.User    `json:"reporter,omitempty"`
	ContentAuthor    *models.User    `json:"contentAuthor,omitempty"`
	ViolationHistory []UserAction    `json:"violationHistory"`
}

// GetReportDetail loads one report. Content or users that no longer exist
// are left empty rather than failing the lookup.
func (e *Engine) GetReportDetail(ctx context.Context, adminID, reportID string) (*ReportDetail, error) {
	var out *ReportDetail
	err := e.run(ctx, "GetReportDetail", adminID, PermissionViewReports, func(ctx context.Context) error {
		report, err := e.store.GetReport(ctx, reportID)
		if err != nil {
			return lookupErr("report", err)
		}

		content, err := e.loadContent(ctx, report)
		if err != nil {
			return err
		}

		detail := &ReportDetail{
			Report:           *report,
			Post:             content.post,
			Comment:          content.comment,
			ViolationHistory: []UserAction{},
		}
		if detail.Reporter, err = e.optionalUser(ctx, report.ReporterID); err != nil {
			return err
		}
		if owner := content.ownerID(); owner != "" {
			if detail.ContentAuthor, err = e.optionalUser(ctx, owner); err != nil {
				return err
			}
			history, err := e.store.ListUserActions(ctx, ActionFilter{UserID: owner}, ViolationHistoryLimit, "")
			if err != nil {
				return persistence(err)
			}
			detail.ViolationHistory = append(detail.ViolationHistory, history...)
		}

		out = detail
		return nil
	})
	return out, err
}

// loadContent fetches whatever the report points at. For comment reports
// both the comment and its parent post are loaded. Missing rows are skipped.
func (e *Engine) loadContent(ctx context.Context, report *ContentReport) (reportedContent, error) {
	var content reportedContent
	if report.PostID != nil {
		post, err := e.store.GetPost(ctx, *report.PostID)
		switch {
		case err == nil:
			content.post = post
		case !errors.Is(err, ErrRecordNotFound):
			return content, persistence(err)
		}
	}
	if report.Type == ReportTypeComment && report.CommentID != nil {
		comment, err := e.store.GetComment(ctx, *report.CommentID)
		switch {
		case err == nil:
			content.comment = comment
		case !errors.Is(err, ErrRecordNotFound):
			return content, persistence(err)
		}
	}
	return content, nil
}

// ResolveReport closes a pending report as addressed or dismissed.
func (e *Engine) ResolveReport(ctx context.Context, adminID, reportID string, req models.ResolveReportRequest) (*ContentReport, error) {
	var out *ContentReport
	err := e.run(ctx, "ResolveReport", adminID, PermissionResolveReport, func(ctx context.Context) error {
		if err := checkRequest(&req); err != nil {
			return err
		}

		report, err := e.store.GetReport(ctx, reportID)
		if err != nil {
			return lookupErr("report", err)
		}
		if !report.IsPending() {
			return conflict("report has already been processed")
		}

		status := ReportStatus(req.Action)
		now := e.clock()
		ok, err := e.store.ResolvePending(ctx, report.ID, status, adminID, now)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return conflict("report has already been processed")
		}
		report.Status = status
		report.HandlerID = &adminID
		report.UpdatedAt = now

		metrics.ReportResolutionsTotal.WithLabelValues(string(status)).Inc()
		log.Info().
			Str("report_id", report.ID).
			Str("admin_id", adminID).
			Str("status", string(status)).
			Msg("moderation: report resolved")

		action := LogReportResolved
		if status == ReportStatusDismissed {
			action = LogReportDismissed
		}
		metadata := map[string]any{"reason": req.Reason}
		if req.Notes != "" {
			metadata["notes"] = req.Notes
		}
		e.audit.Write(ctx, ModerationLog{
			ActionType:    action,
			PerformedByID: adminID,
			ReportID:      &report.ID,
			PostID:        report.PostID,
			CommentID:     report.CommentID,
			Details:       "Report " + strings.ToLower(string(status)) + ": " + req.Reason,
			Metadata:      metadata,
		})

		out = report
		return nil
	})
	return out, err
}
