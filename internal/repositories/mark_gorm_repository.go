package repositories

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRecipeMarkRepository implements RecipeMarkRepository over one of the
// (user_id, recipe_id) tables.
type GORMRecipeMarkRepository struct {
	db     *gorm.DB
	kind   string
	model  func() any
	newRow func(userID, recipeID uint) any
}

// NewGORMFavoriteRepository stores marks in the favorites table.
func NewGORMFavoriteRepository(db *gorm.DB) *GORMRecipeMarkRepository {
	return &GORMRecipeMarkRepository{
		db:    db,
		kind:  "favorite",
		model: func() any { return &models.Favorite{} },
		newRow: func(userID, recipeID uint) any {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
	}
}

// NewGORMShoppingCartRepository stores marks in the shopping_carts table.
func NewGORMShoppingCartRepository(db *gorm.DB) *GORMRecipeMarkRepository {
	return &GORMRecipeMarkRepository{
		db:    db,
		kind:  "shopping cart entry",
		model: func() any { return &models.ShoppingCart{} },
		newRow: func(userID, recipeID uint) any {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
	}
}

// Add inserts the mark. A repeated (user, recipe) pair yields ErrDuplicate.
func (r *GORMRecipeMarkRepository) Add(ctx context.Context, userID, recipeID uint) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(r.newRow(userID, recipeID)).Error; err != nil {
		return fmt.Errorf("failed to add %s: %w", r.kind, translate(err))
	}
	return nil
}

func (r *GORMRecipeMarkRepository) Remove(ctx context.Context, userID, recipeID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(r.model())
	if res.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", r.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s for recipe %d: %w", r.kind, recipeID, ErrNotFound)
	}
	return nil
}

func (r *GORMRecipeMarkRepository) Marked(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(r.model()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s marks: %w", r.kind, err)
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *GORMRecipeMarkRepository) RecipeIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(r.model()).
		Where("user_id = ?", userID).
		Order("id").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s recipes: %w", r.kind, err)
	}
	return ids, nil
}

var _ RecipeMarkRepository = (*GORMRecipeMarkRepository)(nil)
