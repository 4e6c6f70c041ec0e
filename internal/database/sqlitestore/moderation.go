package sqlitestore

import (
	"context"
	"fmt"
	"time"

	"mentorhub/internal/moderation"

	"gorm.io/gorm"
)

var banTypes = []moderation.UserActionType{
	moderation.UserActionTemporaryBan,
	moderation.UserActionPermanentBan,
}

// ========== Reports ==========

func (s *Store) CreateReport(ctx context.Context, report *moderation.ContentReport) error {
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		if isUniqueViolation(err) {
			return moderation.ErrDuplicatePending
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*moderation.ContentReport, error) {
	var r moderation.ContentReport
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) FindPendingReport(ctx context.Context, reporterID string, typ moderation.ReportType, postID string, commentID *string) (*moderation.ContentReport, error) {
	q := s.db.WithContext(ctx).
		Where("reporter_id = ? AND type = ? AND post_id = ? AND status = ?",
			reporterID, typ, postID, moderation.ReportStatusPending)
	if commentID != nil {
		q = q.Where("comment_id = ?", *commentID)
	} else {
		q = q.Where("comment_id IS NULL")
	}

	var r moderation.ContentReport
	if err := q.First(&r).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Store) ListReports(ctx context.Context, f moderation.ReportFilter, limit int, cursor string) ([]moderation.ContentReport, error) {
	q := s.db.WithContext(ctx).Model(&moderation.ContentReport{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	if f.ReporterID != "" {
		q = q.Where("reporter_id = ?", f.ReporterID)
	}
	if f.SubCommunityID != "" {
		q = q.Where("sub_community_id = ?", f.SubCommunityID)
	}
	if f.HandlerID != "" {
		q = q.Where("handler_id = ?", f.HandlerID)
	}
	if f.Search != "" {
		q = q.Where(`reason LIKE ? ESCAPE '\'`, likePattern(f.Search))
	}

	var reports []moderation.ContentReport
	if err := page(q, limit, cursor, "id").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListReportsByContentOwner returns reports against posts written by userID
// and against comments written by userID.
func (s *Store) ListReportsByContentOwner(ctx context.Context, userID string) ([]moderation.ContentReport, error) {
	var reports []moderation.ContentReport
	err := s.db.WithContext(ctx).
		Select("content_reports.*").
		Joins("LEFT JOIN posts ON posts.id = content_reports.post_id").
		Joins("LEFT JOIN comments ON comments.id = content_reports.comment_id").
		Where("(content_reports.type = ? AND posts.author_id = ?) OR (content_reports.type = ? AND comments.user_id = ?)",
			moderation.ReportTypePost, userID, moderation.ReportTypeComment, userID).
		Order("content_reports.id DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports by owner: %w", err)
	}
	return reports, nil
}

func (s *Store) ResolvePending(ctx context.Context, id string, status moderation.ReportStatus, handlerID string, at time.Time) (bool, error) {
	n, err := s.resolvePending(ctx, "id = ?", id, status, handlerID, at)
	if err != nil {
		return false, fmt.Errorf("resolve report %s: %w", id, err)
	}
	return n == 1, nil
}

func (s *Store) PendingReportIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []string
	err := s.db.WithContext(ctx).
		Model(&moderation.ContentReport{}).
		Where("id IN ? AND status = ?", ids, moderation.ReportStatusPending).
		Order("id DESC").
		Pluck("id", &out).Error
	if err != nil {
		return nil, fmt.Errorf("pending report ids: %w", err)
	}
	return out, nil
}

func (s *Store) ResolvePendingBatch(ctx context.Context, ids []string, status moderation.ReportStatus, handlerID string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.resolvePending(ctx, "id IN ?", ids, status, handlerID, at)
	if err != nil {
		return 0, fmt.Errorf("resolve reports: %w", err)
	}
	return n, nil
}

// resolvePending closes the reports matched by cond that are still pending.
// The status check is part of the UPDATE so concurrent resolutions cannot
// both succeed.
func (s *Store) resolvePending(ctx context.Context, cond string, arg any, status moderation.ReportStatus, handlerID string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&moderation.ContentReport{}).
		Where(cond, arg).
		Where("status = ?", moderation.ReportStatusPending).
		Updates(map[string]any{
			"status":     status,
			"handler_id": handlerID,
			"updated_at": at.UTC(),
		})
	return res.RowsAffected, res.Error
}

func (s *Store) CountReports(ctx context.Context, since time.Time, status moderation.ReportStatus) (int64, error) {
	q := s.db.WithContext(ctx).Model(&moderation.ContentReport{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func (s *Store) CountReportsByType(ctx context.Context, since time.Time) ([]moderation.CountEntry, error) {
	return s.groupCount(ctx, &moderation.ContentReport{}, "type", since, 0)
}

func (s *Store) TopReporters(ctx context.Context, since time.Time, limit int) ([]moderation.CountEntry, error) {
	return s.groupCount(ctx, &moderation.ContentReport{}, "reporter_id", since, limit)
}

// ========== User actions ==========

func (s *Store) CreateUserAction(ctx context.Context, action *moderation.UserAction) error {
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("create user action: %w", err)
	}
	return nil
}

func (s *Store) GetUserAction(ctx context.Context, id string) (*moderation.UserAction, error) {
	var a moderation.UserAction
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) RevokeUserAction(ctx context.Context, id, revokedBy, reason string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&moderation.UserAction{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":     false,
			"revoked_at":    at.UTC(),
			"revoked_by":    revokedBy,
			"revoke_reason": reason,
		})
	if res.Error != nil {
		return false, fmt.Errorf("revoke user action %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListUserActions(ctx context.Context, f moderation.ActionFilter, limit int, cursor string) ([]moderation.UserAction, error) {
	q := s.db.WithContext(ctx).Model(&moderation.UserAction{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var actions []moderation.UserAction
	if err := page(q, limit, cursor, "id").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("list user actions: %w", err)
	}
	return actions, nil
}

func (s *Store) CountActiveBans(ctx context.Context, userID, excludeID string) (int64, error) {
	q := s.db.WithContext(ctx).
		Model(&moderation.UserAction{}).
		Where("is_active = ? AND action_type IN ?", true, banTypes)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count active bans: %w", err)
	}
	return n, nil
}

func (s *Store) TopActionTargets(ctx context.Context, since time.Time, limit int) ([]moderation.CountEntry, error) {
	return s.groupCount(ctx, &moderation.UserAction{}, "user_id", since, limit)
}

// ========== Moderation log ==========

func (s *Store) AppendLog(ctx context.Context, entry *moderation.ModerationLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append moderation log: %w", err)
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, f moderation.LogFilter, limit int, cursor string) ([]moderation.ModerationLog, error) {
	q := s.db.WithContext(ctx).Model(&moderation.ModerationLog{})
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.PerformedByID != "" {
		q = q.Where("performed_by_id = ?", f.PerformedByID)
	}
	if f.TargetUserID != "" {
		q = q.Where("target_user_id = ?", f.TargetUserID)
	}
	if f.Since != nil {
		q = q.Where("created_at >= ?", f.Since.UTC())
	}

	var entries []moderation.ModerationLog
	if err := page(q, limit, cursor, "id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list moderation logs: %w", err)
	}
	return entries, nil
}

// ========== Helpers ==========

// page orders newest-first by the TID key column and applies the cursor and
// limit. A limit of zero or less returns every row.
func page(q *gorm.DB, limit int, cursor, key string) *gorm.DB {
	if cursor != "" {
		q = q.Where(key+" < ?", cursor)
	}
	q = q.Order(key + " DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

// groupCount counts rows of model created since the given time, grouped by
// column, largest groups first.
func (s *Store) groupCount(ctx context.Context, model any, column string, since time.Time, limit int) ([]moderation.CountEntry, error) {
	q := s.db.WithContext(ctx).
		Model(model).
		Select(column + " AS label, COUNT(*) AS total")
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	q = q.Group(column).Order("total DESC, label ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []moderation.CountEntry
	if err := q.Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("count by %s: %w", column, err)
	}
	return out, nil
}
