// Package models defines the platform entities the moderation workflow acts
// upon and the request payloads accepted by its operations.
package models

import "time"

// Role is a platform-wide user role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AccountStatus is the login state of a user account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// User is a platform member. Only the fields moderation reads or writes are
// modelled here.
type User struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	Handle        string        `json:"handle" gorm:"uniqueIndex"`
	Role          Role          `json:"role" gorm:"not null;default:user"`
	AccountStatus AccountStatus `json:"accountStatus" gorm:"not null;default:ACTIVE;index"`
	LockedUntil   *time.Time    `json:"lockedUntil,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsAdmin reports whether the user carries the platform admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// EffectiveStatus interprets LockedUntil at read time. A suspension whose
// lock has passed reads as active; storage is never rewritten here.
func (u *User) EffectiveStatus(now time.Time) AccountStatus {
	if u.AccountStatus != AccountStatusSuspended {
		return u.AccountStatus
	}
	if u.LockedUntil != nil && !now.Before(*u.LockedUntil) {
		return AccountStatusActive
	}
	return AccountStatusSuspended
}

// SubCommunity groups posts under a topic.
type SubCommunity struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SoftDelete holds the flag and provenance of a soft deletion.
type SoftDelete struct {
	IsDeleted      bool       `json:"isDeleted" gorm:"not null;default:false;index"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
	DeletedBy      *string    `json:"deletedBy,omitempty"`
	DeletionReason *string    `json:"deletionReason,omitempty"`
}

// Post is a top-level piece of content, optionally inside a sub-community.
type Post struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	AuthorID       string  `json:"authorId" gorm:"not null;index"`
	SubCommunityID *string `json:"subCommunityId,omitempty" gorm:"index"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	SoftDelete     `gorm:"embedded"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Comment is a reply attached to a post.
type Comment struct {
	ID         string `json:"id" gorm:"primaryKey"`
	PostID     string `json:"postId" gorm:"not null;index"`
	UserID     string `json:"userId" gorm:"not null;index"`
	Content    string `json:"content"`
	SoftDelete `gorm:"embedded"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Deletion describes who removed a piece of content, when and why.
type Deletion struct {
	By     string
	Reason string
	At     time.Time
}
