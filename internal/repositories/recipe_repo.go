package repositories

import (
	"context"

	"foodgram/internal/models"
)

// RecipeFilter narrows a recipe listing. Nil pointers and empty slices
// disable the corresponding condition.
type RecipeFilter struct {
	Pagination
	AuthorID    *uint
	TagSlugs    []string
	FavoritedBy *uint
	InCartOf    *uint
}

// RecipeRepository defines the interface for recipe data access.
type RecipeRepository interface {
	List(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
	GetByID(ctx context.Context, id uint) (*models.Recipe, error)
	// Create inserts the recipe with its tag links and ingredient quantities.
	Create(ctx context.Context, recipe *models.Recipe) error
	// Update overwrites the scalar fields and replaces tags and quantities.
	Update(ctx context.Context, recipe *models.Recipe) error
	// Delete removes the recipe and every row that references it.
	Delete(ctx context.Context, id uint) error
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	// IngredientLines returns the quantities of the given recipes joined
	// with their ingredients.
	IngredientLines(ctx context.Context, recipeIDs []uint) ([]models.IngredientLine, error)
}
