package moderation

import (
	"context"
	"time"

	"mentorhub/internal/models"
)

// Store defines the persistence interface for moderation data.
// Implementations must be safe for concurrent use. Lookups that match
// nothing return ErrRecordNotFound.
type Store interface {
	// WithTx runs fn inside a unit of work. Every write made through the
	// Store handed to fn commits or rolls back together.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Platform entities
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	SetAccountStatus(ctx context.Context, userID string, status models.AccountStatus, lockedUntil *time.Time) error
	// SoftDeletePost and SoftDeleteComment report false when the row was
	// already deleted.
	SoftDeletePost(ctx context.Context, id string, del models.Deletion) (bool, error)
	SoftDeleteComment(ctx context.Context, id string, del models.Deletion) (bool, error)

	// Reports
	CreateReport(ctx context.Context, report *ContentReport) error
	GetReport(ctx context.Context, id string) (*ContentReport, error)
	FindPendingReport(ctx context.Context, reporterID string, typ ReportType, postID string, commentID *string) (*ContentReport, error)
	ListReports(ctx context.Context, filter ReportFilter, limit int, cursor string) ([]ContentReport, error)
	ListReportsByContentOwner(ctx context.Context, userID string) ([]ContentReport, error)
	// ResolvePending moves one report out of PENDING. It reports false when
	// the report was no longer pending.
	ResolvePending(ctx context.Context, id string, status ReportStatus, handlerID string, at time.Time) (bool, error)
	PendingReportIDs(ctx context.Context, ids []string) ([]string, error)
	ResolvePendingBatch(ctx context.Context, ids []string, status ReportStatus, handlerID string, at time.Time) (int64, error)
	// CountReports counts reports created at or after since. An empty
	// status counts every status.
	CountReports(ctx context.Context, since time.Time, status ReportStatus) (int64, error)
	CountReportsByType(ctx context.Context, since time.Time) ([]CountEntry, error)
	TopReporters(ctx context.Context, since time.Time, limit int) ([]CountEntry, error)

	// User actions
	CreateUserAction(ctx context.Context, action *UserAction) error
	GetUserAction(ctx context.Context, id string) (*UserAction, error)
	// RevokeUserAction deactivates an action. It reports false when the
	// action was already inactive.
	RevokeUserAction(ctx context.Context, id, revokedBy, reason string, at time.Time) (bool, error)
	// ListUserActions returns actions newest-first. A limit of zero or less
	// returns every match.
	ListUserActions(ctx context.Context, filter ActionFilter, limit int, cursor string) ([]UserAction, error)
	// CountActiveBans counts active ban actions. Empty userID counts across
	// all users; excludeID skips one action.
	CountActiveBans(ctx context.Context, userID, excludeID string) (int64, error)
	TopActionTargets(ctx context.Context, since time.Time, limit int) ([]CountEntry, error)

	// Audit log
	AppendLog(ctx context.Context, entry *ModerationLog) error
	ListLogs(ctx context.Context, filter LogFilter, limit int, cursor string) ([]ModerationLog, error)
}
