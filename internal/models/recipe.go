package models

import "time"

// Recipe is owned by its author. Image holds the storage key, not the URL.
type Recipe struct {
	ID          uint                 `gorm:"primaryKey"`
	AuthorID    uint                 `gorm:"not null;index"`
	Author      User                 `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Name        string               `gorm:"size:200;not null"`
	Image       string               `gorm:"size:255;not null"`
	Text        string               `gorm:"type:text;not null"`
	CookingTime int                  `gorm:"not null;check:cooking_time >= 1"`
	Tags        []Tag                `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []IngredientQuantity `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngredientQuantity records how much of an ingredient a recipe requires.
type IngredientQuantity struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_ingredient_recipe"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_ingredient_recipe"`
	Ingredient   Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:amount >= 1"`
}

// Favorite is a per-user bookmark on a recipe.
type Favorite struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint   `gorm:"not null;index;uniqueIndex:idx_favorite_user_recipe"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// ShoppingCart marks a recipe for ingredient aggregation.
type ShoppingCart struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint   `gorm:"not null;index;uniqueIndex:idx_cart_user_recipe"`
	User      User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// IngredientLine is one IngredientQuantity row joined with its ingredient.
type IngredientLine struct {
	RecipeID        uint
	IngredientID    uint
	Name            string
	MeasurementUnit string
	Amount          int
}

// RecipeEvent is published to the message broker when recipes change.
type RecipeEvent struct {
	Type     string `json:"type"`
	RecipeID uint   `json:"recipe_id"`
	AuthorID uint   `json:"author_id"`
	Name     string `json:"name"`
}

// RecipeEventPublished is emitted after a recipe has been created.
const RecipeEventPublished = "recipe.published"

// AllModels lists every table in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Follow{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&IngredientQuantity{},
		&Favorite{},
		&ShoppingCart{},
	}
}
