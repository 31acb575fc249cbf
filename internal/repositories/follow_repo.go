package repositories

import (
	"context"

	"foodgram/internal/models"
)

// FollowRepository defines persistence operations for follow relationships.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	BatchIsFollowing(ctx context.Context, followerID uint, targetIDs []uint) (map[uint]bool, error)
	// Following returns one page of the users followerID follows, newest follow first.
	Following(ctx context.Context, followerID uint, page Pagination) ([]models.User, int64, error)
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}
