package repositories

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMFollowRepository implements FollowRepository using GORM.
type GORMFollowRepository struct {
	db *gorm.DB
}

// NewGORMFollowRepository creates a new GORM-backed follow repository.
func NewGORMFollowRepository(db *gorm.DB) *GORMFollowRepository {
	return &GORMFollowRepository{db: db}
}

// Follow creates a follow relationship. The schema rejects self-follows and
// repeated pairs; the latter surface as ErrDuplicate.
func (r *GORMFollowRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	follow := models.Follow{UserID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&follow).Error; err != nil {
		return fmt.Errorf("failed to follow user %d: %w", followingID, translate(err))
	}
	return nil
}

func (r *GORMFollowRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unfollow user %d: %w", followingID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("follow of user %d: %w", followingID, ErrNotFound)
	}
	return nil
}

func (r *GORMFollowRepository) BatchIsFollowing(ctx context.Context, followerID uint, targetIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(targetIDs))
	if len(targetIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", followerID, targetIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check follows: %w", err)
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *GORMFollowRepository) Following(ctx context.Context, followerID uint, page Pagination) ([]models.User, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", followerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count follows: %w", err)
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", followerID).
		Order("follows.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list follows: %w", err)
	}
	return users, total, nil
}

func (r *GORMFollowRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Order("id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followers of %d: %w", userID, err)
	}
	return ids, nil
}

var _ FollowRepository = (*GORMFollowRepository)(nil)
