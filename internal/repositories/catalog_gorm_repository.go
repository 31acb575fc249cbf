package repositories

import (
	"context"
	"fmt"
	"strings"

	"foodgram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMTagRepository is a GORM implementation of TagRepository.
type GORMTagRepository struct {
	db *gorm.DB
}

// NewGORMTagRepository creates a new instance of GORMTagRepository.
func NewGORMTagRepository(db *gorm.DB) *GORMTagRepository {
	return &GORMTagRepository{db: db}
}

func (r *GORMTagRepository) GetAll(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to get all tags: %w", err)
	}
	return tags, nil
}

func (r *GORMTagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get tag by ID %d: %w", id, translate(err))
	}
	return &tag, nil
}

func (r *GORMTagRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

func (r *GORMTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("failed to create tag: %w", translate(err))
	}
	return nil
}

// GORMIngredientRepository is a GORM implementation of IngredientRepository.
type GORMIngredientRepository struct {
	db *gorm.DB
}

// NewGORMIngredientRepository creates a new instance of GORMIngredientRepository.
func NewGORMIngredientRepository(db *gorm.DB) *GORMIngredientRepository {
	return &GORMIngredientRepository{db: db}
}

// Search returns ingredients whose name starts with namePrefix, case-insensitively.
// An empty prefix returns the whole catalog ordered by name.
func (r *GORMIngredientRepository) Search(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name ASC")
	if namePrefix = strings.TrimSpace(namePrefix); namePrefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(namePrefix))+"%")
	}
	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return ingredients, nil
}

func (r *GORMIngredientRepository) GetByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get ingredient by ID %d: %w", id, translate(err))
	}
	return &ingredient, nil
}

func (r *GORMIngredientRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to get ingredients: %w", err)
	}
	return ingredients, nil
}

func (r *GORMIngredientRepository) Create(ctx context.Context, ingredient *models.Ingredient) error {
	if err := r.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return fmt.Errorf("failed to create ingredient: %w", translate(err))
	}
	return nil
}

func (r *GORMIngredientRepository) FirstOrCreate(ctx context.Context, name, unit string) (*models.Ingredient, bool, error) {
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	res := r.db.WithContext(ctx).
		Where(models.Ingredient{Name: name, MeasurementUnit: unit}).
		FirstOrCreate(&ingredient)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to get or create ingredient %q: %w", name, translate(res.Error))
	}
	return &ingredient, res.RowsAffected > 0, nil
}

func (r *GORMIngredientRepository) BulkCreate(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		CreateInBatches(ingredients, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to bulk create ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

var (
	_ TagRepository        = (*GORMTagRepository)(nil)
	_ IngredientRepository = (*GORMIngredientRepository)(nil)
)
