package moderation

import "time"

// ReportType identifies what kind of content a report is anchored to.
type ReportType string

const (
	ReportTypePost    ReportType = "POST"
	ReportTypeComment ReportType = "COMMENT"
)

// ReportStatus represents the lifecycle state of a content report.
// PENDING is the only non-terminal state.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusAddressed ReportStatus = "ADDRESSED"
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

// ContentReport represents a user's complaint about a post or comment.
// PostID is always set: comment reports carry the parent post of the comment.
type ContentReport struct {
	ID             string       `json:"id" gorm:"primaryKey"`
	ReporterID     string       `json:"reporterId" gorm:"not null;index"`
	Reason         string       `json:"reason" gorm:"not null"`
	Type           ReportType   `json:"type" gorm:"not null;index"`
	PostID         *string      `json:"postId,omitempty" gorm:"index"`
	CommentID      *string      `json:"commentId,omitempty" gorm:"index"`
	SubCommunityID *string      `json:"subCommunityId,omitempty" gorm:"index"`
	Status         ReportStatus `json:"status" gorm:"not null;index"`
	HandlerID      *string      `json:"handlerId,omitempty" gorm:"index"`
	CreatedAt      time.Time    `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// IsPending reports whether the report can still be resolved or dismissed.
func (r *ContentReport) IsPending() bool {
	return r.Status == ReportStatusPending
}

// UserActionType is the kind of moderation action taken against a user.
type UserActionType string

const (
	UserActionWarning      UserActionType = "WARNING"
	UserActionTemporaryBan UserActionType = "TEMPORARY_BAN"
	UserActionPermanentBan UserActionType = "PERMANENT_BAN"
)

// IsBan reports whether the action suspends the target account.
func (t UserActionType) IsBan() bool {
	return t == UserActionTemporaryBan || t == UserActionPermanentBan
}

// UserAction is a warning or ban issued against a user. IsActive only turns
// false through revocation; ExpiresAt is advisory and never flips it.
type UserAction struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"userId" gorm:"not null;index"`
	ActionType   UserActionType `json:"actionType" gorm:"not null;index"`
	Reason       string         `json:"reason" gorm:"not null"`
	ReportID     *string        `json:"reportId,omitempty" gorm:"index"`
	AdminID      string         `json:"adminId" gorm:"not null;index"`
	ExpiresAt    *time.Time     `json:"expiresAt,omitempty"`
	IsActive     bool           `json:"isActive" gorm:"not null;index"`
	RevokedAt    *time.Time     `json:"revokedAt,omitempty"`
	RevokedBy    *string        `json:"revokedBy,omitempty"`
	RevokeReason *string        `json:"revokeReason,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"index"`
}

// LogAction is the type of a moderation log entry.
type LogAction string

const (
	LogReportCreated      LogAction = "REPORT_CREATED"
	LogReportResolved     LogAction = "REPORT_RESOLVED"
	LogReportDismissed    LogAction = "REPORT_DISMISSED"
	LogUserActionTaken    LogAction = "USER_ACTION_TAKEN"
	LogUserActionReverted LogAction = "USER_ACTION_REVERTED"
	LogContentDeleted     LogAction = "CONTENT_DELETED"
	LogBatchOperation     LogAction = "BATCH_OPERATION"
)

// ModerationLog is an append-only audit record of a moderation operation.
type ModerationLog struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	ActionType    LogAction      `json:"actionType" gorm:"not null;index"`
	PerformedByID string         `json:"performedById" gorm:"not null;index"`
	TargetUserID  *string        `json:"targetUserId,omitempty" gorm:"index"`
	ReportID      *string        `json:"reportId,omitempty" gorm:"index"`
	PostID        *string        `json:"postId,omitempty"`
	CommentID     *string        `json:"commentId,omitempty"`
	Details       string         `json:"details"`
	Metadata      map[string]any `json:"metadata,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"index"`
}

// CountEntry is one row of a grouped count.
type CountEntry struct {
	Key   string `json:"key" gorm:"column:label"`
	Count int64  `json:"count" gorm:"column:total"`
}

// Page is one cursor-paginated slice of a listing. NextCursor is empty on
// the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// ReportFilter narrows a report listing. Zero fields are ignored.
type ReportFilter struct {
	Type           ReportType   `url:"type,omitempty"`
	Status         ReportStatus `url:"status,omitempty"`
	From           *time.Time   `url:"from,omitempty"`
	To             *time.Time   `url:"to,omitempty"`
	ReporterID     string       `url:"reporterId,omitempty"`
	SubCommunityID string       `url:"subCommunityId,omitempty"`
	HandlerID      string       `url:"handlerId,omitempty"`
	Search         string       `url:"q,omitempty"`
}

// ActionFilter narrows a user action listing.
type ActionFilter struct {
	UserID     string         `url:"userId,omitempty"`
	ActionType UserActionType `url:"actionType,omitempty"`
	ActiveOnly bool           `url:"active,omitempty"`
}

// LogFilter narrows a moderation log listing.
type LogFilter struct {
	ActionType    LogAction  `url:"actionType,omitempty"`
	PerformedByID string     `url:"performedBy,omitempty"`
	TargetUserID  string     `url:"targetUserId,omitempty"`
	Since         *time.Time `url:"-"`
}
