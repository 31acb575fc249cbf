package repositories

import "context"

// RecipeMarkRepository stores per-user (user, recipe) marks. Favorites and
// shopping cart entries share this contract.
type RecipeMarkRepository interface {
	Add(ctx context.Context, userID, recipeID uint) error
	Remove(ctx context.Context, userID, recipeID uint) error
	// Marked reports, for each of recipeIDs, whether the user marked it.
	Marked(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
	RecipeIDs(ctx context.Context, userID uint) ([]uint, error)
}
