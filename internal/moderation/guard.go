package moderation

import (
	"context"
	"errors"
	"fmt"

	"mentorhub/internal/models"
)

// Authorizer decides whether a user holds a moderation permission.
type Authorizer interface {
	HasPermission(ctx context.Context, userID string, perm Permission) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, userID string, perm Permission) (bool, error)

func (f AuthorizerFunc) HasPermission(ctx context.Context, userID string, perm Permission) (bool, error) {
	return f(ctx, userID, perm)
}

// AnyOf grants a permission when any of the given authorizers grants it.
// Nil entries are skipped.
func AnyOf(authorizers ...Authorizer) Authorizer {
	return AuthorizerFunc(func(ctx context.Context, userID string, perm Permission) (bool, error) {
		for _, a := range authorizers {
			if a == nil {
				continue
			}
			ok, err := a.HasPermission(ctx, userID, perm)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	})
}

// UserLookup is the part of Store needed to resolve platform roles.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// StoreAuthorizer grants every permission to users whose platform role is
// admin.
type StoreAuthorizer struct {
	Users UserLookup
}

func (a StoreAuthorizer) HasPermission(ctx context.Context, userID string, _ Permission) (bool, error) {
	user, err := a.Users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup user %s: %w", userID, err)
	}
	return user.IsAdmin(), nil
}

// Guard is the capability check applied at the top of every admin-gated
// operation.
type Guard struct {
	auth Authorizer
}

func NewGuard(auth Authorizer) *Guard {
	return &Guard{auth: auth}
}

// Require returns a forbidden error unless userID holds perm. Authorizer
// failures surface as persistence errors.
func (g *Guard) Require(ctx context.Context, userID string, perm Permission) error {
	if userID == "" {
		return forbidden("authentication required")
	}
	if g == nil || g.auth == nil {
		return forbidden("admin access required")
	}
	ok, err := g.auth.HasPermission(ctx, userID, perm)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return forbidden("admin access required")
	}
	return nil
}
