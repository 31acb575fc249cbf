package repositories

import (
	"context"

	"foodgram/internal/models"
)

// TagRepository defines the interface for tag data access.
type TagRepository interface {
	GetAll(ctx context.Context) ([]models.Tag, error)
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
}

// IngredientRepository defines the interface for ingredient data access.
type IngredientRepository interface {
	Search(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetByID(ctx context.Context, id uint) (*models.Ingredient, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Ingredient, error)
	Create(ctx context.Context, ingredient *models.Ingredient) error
	// FirstOrCreate looks the ingredient up by (name, unit) and inserts it
	// when absent. created reports whether a row was inserted.
	FirstOrCreate(ctx context.Context, name, unit string) (ingredient *models.Ingredient, created bool, err error)
	// BulkCreate inserts ingredients, ignoring rows whose name already exists,
	// and returns the number of inserted rows.
	BulkCreate(ctx context.Context, ingredients []models.Ingredient) (int64, error)
}
