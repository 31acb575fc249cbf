package services

import (
	"context"
	"errors"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/storage"
)

// FollowService manages subscriptions between users.
type FollowService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
	recipes repositories.RecipeRepository
	images  storage.Storage
}

// NewFollowService creates a new FollowService.
func NewFollowService(users repositories.UserRepository, follows repositories.FollowRepository, recipes repositories.RecipeRepository, images storage.Storage) *FollowService {
	return &FollowService{users: users, follows: follows, recipes: recipes, images: images}
}

// Subscribe makes viewer follow authorID and returns the author with a
// preview of up to recipesLimit recipes (all when recipesLimit <= 0).
func (s *FollowService) Subscribe(ctx context.Context, viewer *Identity, authorID uint, recipesLimit int) (*models.SubscriptionView, error) {
	if !IsAuthenticated(viewer) {
		return nil, ErrUnauthorized
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author.ID == viewer.UserID {
		return nil, ErrSelfFollow
	}

	if err := s.follows.Follow(ctx, viewer.UserID, author.ID); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("author", "already subscribed to %s", author.Username)
		}
		return nil, err
	}

	views, err := s.subscriptionViews(ctx, []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the follow. A missing follow yields ErrNotFound.
func (s *FollowService) Unsubscribe(ctx context.Context, viewer *Identity, authorID uint) error {
	if !IsAuthenticated(viewer) {
		return ErrUnauthorized
	}
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return err
	}
	if err := s.follows.Unfollow(ctx, viewer.UserID, authorID); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// Subscriptions lists the authors viewer follows, newest subscription first.
func (s *FollowService) Subscriptions(ctx context.Context, viewer *Identity, page repositories.Pagination, recipesLimit int) ([]models.SubscriptionView, int64, error) {
	if !IsAuthenticated(viewer) {
		return nil, 0, ErrUnauthorized
	}
	authors, total, err := s.follows.Following(ctx, viewer.UserID, page)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.subscriptionViews(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *FollowService) subscriptionViews(ctx context.Context, authors []models.User, recipesLimit int) ([]models.SubscriptionView, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.SubscriptionView, 0, len(authors))
	for _, a := range authors {
		recipes, err := s.recipes.ListByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		short := make([]models.RecipeShortView, 0, len(recipes))
		for i := range recipes {
			short = append(short, shortView(&recipes[i], s.images))
		}
		views = append(views, models.SubscriptionView{
			UserView:     models.NewUserView(a, true),
			Recipes:      short,
			RecipesCount: counts[a.ID],
		})
	}
	return views, nil
}

func shortView(r *models.Recipe, images storage.Storage) models.RecipeShortView {
	return models.RecipeShortView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}
