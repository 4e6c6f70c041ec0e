package moderation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

// Service grants moderation permissions from a JSON roles file. It satisfies
// Authorizer and can be reloaded at runtime.
type Service struct {
	mu         sync.RWMutex
	config     *Config
	configPath string

	// Quick lookup maps built from config
	userRoles map[string]*Role          // user id -> Role
	userInfos map[string]*ModeratorUser // user id -> ModeratorUser
}

// NewService creates a new moderation service.
// If configPath is empty, the service will be in "disabled" mode
// where all permission checks return false.
func NewService(configPath string) (*Service, error) {
	s := &Service{
		configPath: configPath,
		userRoles:  make(map[string]*Role),
		userInfos:  make(map[string]*ModeratorUser),
	}

	if configPath == "" {
		log.Info().Msg("moderation: no config path provided, role file disabled")
		return s, nil
	}

	if err := s.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load moderation config: %w", err)
	}

	return s, nil
}

func (s *Service) loadConfig() error {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", s.configPath).Msg("moderation: config file not found, role file disabled")
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = &config
	s.rebuildLookupMaps()

	log.Info().
		Int("roles", len(config.Roles)).
		Int("users", len(config.Users)).
		Str("path", s.configPath).
		Msg("moderation: config loaded")

	return nil
}

// rebuildLookupMaps rebuilds the quick lookup maps from config
// Caller must hold the write lock
func (s *Service) rebuildLookupMaps() {
	s.userRoles = make(map[string]*Role)
	s.userInfos = make(map[string]*ModeratorUser)

	if s.config == nil {
		return
	}

	for i := range s.config.Users {
		user := &s.config.Users[i]
		if role, ok := s.config.Roles[user.Role]; ok {
			s.userRoles[user.UserID] = role
			s.userInfos[user.UserID] = user
		}
	}
}

// Reload reloads the configuration from disk. A file that fails to parse
// leaves the previous configuration in place.
func (s *Service) Reload() error {
	if s.configPath == "" {
		return nil
	}
	return s.loadConfig()
}

// IsEnabled returns true if a role file is loaded and names at least one user
func (s *Service) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config != nil && len(s.config.Users) > 0
}

// IsAdmin returns true if the given user has the admin role
func (s *Service) IsAdmin(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.userRoles[userID]
	return ok && role.Name == RoleAdmin
}

// HasPermission implements Authorizer. It never fails; the error return
// exists for store-backed implementations.
func (s *Service) HasPermission(_ context.Context, userID string, perm Permission) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.userRoles[userID]
	if !ok {
		return false, nil
	}
	return role.HasPermission(perm), nil
}

// GetModeratorUser returns the moderator entry for the given user, if any
func (s *Service) GetModeratorUser(userID string) (*ModeratorUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.userInfos[userID]
	if !ok {
		return nil, false
	}
	userCopy := *user
	return &userCopy, true
}

// ListModerators returns all configured moderator users
func (s *Service) ListModerators() []ModeratorUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil
	}

	result := make([]ModeratorUser, len(s.config.Users))
	copy(result, s.config.Users)
	return result
}

// PermissionsFor returns a copy of every permission granted to userID
func (s *Service) PermissionsFor(userID string) []Permission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.userRoles[userID]
	if !ok {
		return nil
	}

	result := make([]Permission, len(role.Permissions))
	copy(result, role.Permissions)
	return result
}
