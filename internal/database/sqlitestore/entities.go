package sqlitestore

import (
	"context"
	"fmt"
	"time"

	"mentorhub/internal/models"
	"mentorhub/internal/moderation"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Store) SetAccountStatus(ctx context.Context, userID string, status models.AccountStatus, lockedUntil *time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"account_status": status,
			"locked_until":   lockedUntil,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("set account status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set account status for %s: %w", userID, moderation.ErrRecordNotFound)
	}
	return nil
}

func (s *Store) SoftDeletePost(ctx context.Context, id string, del models.Deletion) (bool, error) {
	return s.softDelete(ctx, &models.Post{}, id, del)
}

func (s *Store) SoftDeleteComment(ctx context.Context, id string, del models.Deletion) (bool, error) {
	return s.softDelete(ctx, &models.Comment{}, id, del)
}

func (s *Store) softDelete(ctx context.Context, model any, id string, del models.Deletion) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]any{
			"is_deleted":      true,
			"deleted_at":      del.At.UTC(),
			"deleted_by":      del.By,
			"deletion_reason": del.Reason,
		})
	if res.Error != nil {
		return false, fmt.Errorf("soft delete %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CreateUser, CreateSubCommunity, CreatePost and CreateComment insert the
// platform rows moderation operates on. They back account sync and fixtures.

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) CreateSubCommunity(ctx context.Context, sc *models.SubCommunity) error {
	if err := s.db.WithContext(ctx).Create(sc).Error; err != nil {
		return fmt.Errorf("create sub-community: %w", err)
	}
	return nil
}

func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
