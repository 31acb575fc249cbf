package services

import (
	"context"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/storage"

	"github.com/rs/zerolog/log"
)

// UserService serves user profiles as seen by a viewer.
type UserService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
	images  storage.Storage
}

// NewUserService creates a new UserService. images receives the deletes of
// recipe images owned by removed users.
func NewUserService(users repositories.UserRepository, follows repositories.FollowRepository, images storage.Storage) *UserService {
	return &UserService{users: users, follows: follows, images: images}
}

// ListUsers returns one page of users with is_subscribed relative to viewer.
func (s *UserService) ListUsers(ctx context.Context, viewer *Identity, page repositories.Pagination) ([]models.UserView, int64, error) {
	users, total, err := s.users.List(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetUser returns a single user profile.
func (s *UserService) GetUser(ctx context.Context, viewer *Identity, id uint) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewer, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteUser removes an account together with everything it owns. Image
// cleanup runs after the commit and only logs failures.
func (s *UserService) DeleteUser(ctx context.Context, viewer *Identity, id uint) error {
	if !CanDeleteUser(viewer, id) {
		return ErrForbidden
	}
	images, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	for _, key := range images {
		if err := s.images.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Uint("user_id", id).Msg("failed to delete recipe image")
		}
	}
	return nil
}

func (s *UserService) views(ctx context.Context, viewer *Identity, users []models.User) ([]models.UserView, error) {
	subscribed := map[uint]bool{}
	if IsAuthenticated(viewer) && len(users) > 0 {
		ids := make([]uint, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		var err error
		if subscribed, err = s.follows.BatchIsFollowing(ctx, viewer.UserID, ids); err != nil {
			return nil, err
		}
	}

	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, models.NewUserView(u, subscribed[u.ID]))
	}
	return views, nil
}
