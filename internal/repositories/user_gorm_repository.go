package repositories

import (
	"context"
	"fmt"

	"foodgram/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, query, arg).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", query, translate(err))
	}
	return &user, nil
}

// List returns one page of users, newest first, and the total count.
func (r *GORMUserRepository) List(ctx context.Context, page Pagination) ([]models.User, int64, error) {
	page = page.Normalize()
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdatePassword stores a new password hash.
func (r *GORMUserRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a user together with their recipes, marks and follows.
func (r *GORMUserRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var images []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []struct {
			ID    uint
			Image string
		}
		if err := tx.Model(&models.Recipe{}).Select("id", "image").Where("author_id = ?", id).Order("id").Scan(&owned).Error; err != nil {
			return fmt.Errorf("failed to collect recipes of user %d: %w", id, err)
		}
		recipeIDs := make([]uint, 0, len(owned))
		for _, o := range owned {
			recipeIDs = append(recipeIDs, o.ID)
			if o.Image != "" {
				images = append(images, o.Image)
			}
		}
		if err := deleteRecipes(tx, recipeIDs); err != nil {
			return err
		}

		steps := []struct {
			model any
			query string
		}{
			{&models.Favorite{}, "user_id = ?"},
			{&models.ShoppingCart{}, "user_id = ?"},
			{&models.Follow{}, "user_id = ?"},
			{&models.Follow{}, "following_id = ?"},
		}
		for _, s := range steps {
			if err := tx.Where(s.query, id).Delete(s.model).Error; err != nil {
				return fmt.Errorf("failed to delete dependents of user %d: %w", id, err)
			}
		}

		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("user with ID %d: %w", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

var _ UserRepository = (*GORMUserRepository)(nil)
