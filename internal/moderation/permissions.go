package moderation

// Permission represents a moderation capability that can be granted to a role
type Permission string

const (
	PermissionViewReports      Permission = "view_reports"
	PermissionResolveReport    Permission = "resolve_report"
	PermissionTakeUserAction   Permission = "take_user_action"
	PermissionRevokeUserAction Permission = "revoke_user_action"
	PermissionDeleteContent    Permission = "delete_content"
	PermissionBatchReports     Permission = "batch_reports"
	PermissionViewAnalytics    Permission = "view_analytics"
	PermissionViewUserHistory  Permission = "view_user_history"
	PermissionViewAuditLog     Permission = "view_audit_log"
	PermissionReplayAudit      Permission = "replay_audit"
)

// AllPermissions returns all available permissions
func AllPermissions() []Permission {
	return []Permission{
		PermissionViewReports,
		PermissionResolveReport,
		PermissionTakeUserAction,
		PermissionRevokeUserAction,
		PermissionDeleteContent,
		PermissionBatchReports,
		PermissionViewAnalytics,
		PermissionViewUserHistory,
		PermissionViewAuditLog,
		PermissionReplayAudit,
	}
}

// IsKnown reports whether p is one of the permissions this service checks.
func (p Permission) IsKnown() bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

// RoleName represents the name of a moderation role
type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleModerator RoleName = "moderator"
)

// Role defines a set of permissions for moderators
type Role struct {
	Name        RoleName     `json:"-"` // Set from map key during loading
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

// HasPermission checks if this role has the given permission
func (r *Role) HasPermission(perm Permission) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// ModeratorUser binds a platform user id to a moderation role
type ModeratorUser struct {
	UserID string   `json:"userId"`
	Handle string   `json:"handle,omitempty"`
	Role   RoleName `json:"role"`
	Note   string   `json:"note,omitempty"`
}

// Config represents the moderation configuration loaded from JSON
type Config struct {
	Roles map[RoleName]*Role `json:"roles"`
	Users []ModeratorUser    `json:"users"`
}

// Validate checks that the config is valid
func (c *Config) Validate() error {
	if c.Roles == nil {
		c.Roles = make(map[RoleName]*Role)
	}

	for _, user := range c.Users {
		if user.UserID == "" {
			return &ConfigError{Field: "users", Message: "user entry is missing userId"}
		}
		if _, ok := c.Roles[user.Role]; !ok {
			return &ConfigError{
				Field:   "users",
				Message: "user " + user.UserID + " references unknown role: " + string(user.Role),
			}
		}
	}

	for name, role := range c.Roles {
		if role == nil {
			return &ConfigError{Field: "roles", Message: "role " + string(name) + " is empty"}
		}
		for _, p := range role.Permissions {
			if !p.IsKnown() {
				return &ConfigError{
					Field:   "roles",
					Message: "role " + string(name) + " grants unknown permission: " + string(p),
				}
			}
		}
		role.Name = name
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "moderation config error in " + e.Field + ": " + e.Message
}
