package repositories

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{
		db: db,
	}
}

func (r *GORMRecipeRepository) filtered(ctx context.Context, f RecipeFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})
	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("recipes.id IN (?)", sub)
	}
	if f.FavoritedBy != nil {
		q = q.Where("recipes.id IN (?)", r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *f.FavoritedBy))
	}
	if f.InCartOf != nil {
		q = q.Where("recipes.id IN (?)", r.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", *f.InCartOf))
	}
	return q
}

func preloadRecipe(q *gorm.DB) *gorm.DB {
	return q.Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_quantities.id") }).
		Preload("Ingredients.Ingredient")
}

// List retrieves one page of recipes matching the filter, newest first.
func (r *GORMRecipeRepository) List(ctx context.Context, f RecipeFilter) ([]models.Recipe, int64, error) {
	page := f.Pagination.Normalize()

	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := preloadRecipe(r.filtered(ctx, f)).
		Order("recipes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

// GetByID retrieves a single recipe with author, tags and ingredients.
func (r *GORMRecipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(r.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get recipe by ID %d: %w", id, translate(err))
	}
	return &recipe, nil
}

// Create inserts the recipe, its tag links and its ingredient quantities in one transaction.
func (r *GORMRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", translate(err))
		}
		return writeRecipeRelations(tx, recipe)
	})
	return err
}

// Update overwrites the recipe and replaces its tags and quantities.
func (r *GORMRecipeRepository) Update(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{ID: recipe.ID}).
			Select("name", "image", "text", "cooking_time").
			Updates(map[string]any{
				"name":         recipe.Name,
				"image":        recipe.Image,
				"text":         recipe.Text,
				"cooking_time": recipe.CookingTime,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update recipe: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("recipe with ID %d: %w", recipe.ID, ErrNotFound)
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipe.ID).Error; err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientQuantity{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		return writeRecipeRelations(tx, recipe)
	})
}

func writeRecipeRelations(tx *gorm.DB, recipe *models.Recipe) error {
	for _, tag := range recipe.Tags {
		if err := tx.Exec("INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)", recipe.ID, tag.ID).Error; err != nil {
			return fmt.Errorf("failed to link tag %d: %w", tag.ID, translate(err))
		}
	}
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].ID = 0
		recipe.Ingredients[i].RecipeID = recipe.ID
	}
	if len(recipe.Ingredients) > 0 {
		if err := tx.Omit(clause.Associations).Create(&recipe.Ingredients).Error; err != nil {
			return fmt.Errorf("failed to add recipe ingredients: %w", translate(err))
		}
	}
	return nil
}

// Delete deletes a recipe and cascades to its quantities, tags, favorites and cart rows.
func (r *GORMRecipeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteRecipesCounted(tx, []uint{id})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("recipe with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
}

func deleteRecipes(tx *gorm.DB, ids []uint) error {
	_, err := deleteRecipesCounted(tx, ids)
	return err
}

// deleteRecipesCounted removes the recipes and their dependents explicitly so the
// cascade holds even on connections without foreign key enforcement.
func deleteRecipesCounted(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	dependents := []any{&models.IngredientQuantity{}, &models.Favorite{}, &models.ShoppingCart{}}
	for _, m := range dependents {
		if err := tx.Where("recipe_id IN ?", ids).Delete(m).Error; err != nil {
			return 0, fmt.Errorf("failed to delete %T rows: %w", m, err)
		}
	}
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id IN ?", ids).Error; err != nil {
		return 0, fmt.Errorf("failed to delete recipe tags: %w", err)
	}
	res := tx.Where("id IN ?", ids).Delete(&models.Recipe{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete recipes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListByAuthor returns the newest recipes of an author. limit <= 0 means no limit.
func (r *GORMRecipeRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	q := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipes of author %d: %w", authorID, err)
	}
	return recipes, nil
}

// CountByAuthors returns the number of recipes per author.
func (r *GORMRecipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *GORMRecipeRepository) IngredientLines(ctx context.Context, recipeIDs []uint) ([]models.IngredientLine, error) {
	var lines []models.IngredientLine
	if len(recipeIDs) == 0 {
		return lines, nil
	}
	err := r.db.WithContext(ctx).
		Table("ingredient_quantities AS iq").
		Select("iq.recipe_id, iq.ingredient_id, i.name, i.measurement_unit, iq.amount").
		Joins("JOIN ingredients AS i ON i.id = iq.ingredient_id").
		Where("iq.recipe_id IN ?", recipeIDs).
		Order("iq.id").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient lines: %w", err)
	}
	return lines, nil
}

var _ RecipeRepository = (*GORMRecipeRepository)(nil)
