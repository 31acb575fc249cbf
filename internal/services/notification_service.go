package services

import (
	"context"
	"fmt"

	"foodgram/internal/models"
	"foodgram/internal/repositories"

	"github.com/rs/zerolog/log"
)

// Notification tells a follower about a new recipe of an author they follow.
type Notification struct {
	FollowerID uint
	AuthorID   uint
	RecipeID   uint
	RecipeName string
}

// NotificationService turns recipe events into follower notifications.
type NotificationService struct {
	follows repositories.FollowRepository
	deliver func(Notification)
}

// NewNotificationService creates a NotificationService that logs each notification.
func NewNotificationService(follows repositories.FollowRepository) *NotificationService {
	return &NotificationService{follows: follows, deliver: logNotification}
}

// HandleRecipeEvent fans a published recipe out to the author's followers and
// returns how many notifications were produced. Other event types are ignored.
func (s *NotificationService) HandleRecipeEvent(ctx context.Context, event models.RecipeEvent) (int, error) {
	if event.Type != models.RecipeEventPublished {
		log.Debug().Str("type", event.Type).Msg("ignoring recipe event")
		return 0, nil
	}
	followers, err := s.follows.FollowerIDs(ctx, event.AuthorID)
	if err != nil {
		return 0, fmt.Errorf("failed to load followers of %d: %w", event.AuthorID, err)
	}
	for _, id := range followers {
		s.deliver(Notification{
			FollowerID: id,
			AuthorID:   event.AuthorID,
			RecipeID:   event.RecipeID,
			RecipeName: event.Name,
		})
	}
	return len(followers), nil
}

func logNotification(n Notification) {
	log.Info().
		Uint("follower_id", n.FollowerID).
		Uint("author_id", n.AuthorID).
		Uint("recipe_id", n.RecipeID).
		Str("recipe", n.RecipeName).
		Msg("new recipe from followed author")
}
