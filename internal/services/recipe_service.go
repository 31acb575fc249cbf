package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/storage"

	"github.com/rs/zerolog/log"
)

const (
	maxRecipeName   = 200
	maxSmallInteger = 32767
)

// EventPublisher delivers recipe events to the message broker.
type EventPublisher interface {
	PublishRecipeEvent(ctx context.Context, event models.RecipeEvent) error
}

// RecipeDeps groups the collaborators of RecipeService.
type RecipeDeps struct {
	Recipes     repositories.RecipeRepository
	Tags        repositories.TagRepository
	Ingredients repositories.IngredientRepository
	Favorites   repositories.RecipeMarkRepository
	Cart        repositories.RecipeMarkRepository
	Follows     repositories.FollowRepository
	Images      storage.Storage
	Events      EventPublisher // optional
}

// RecipeService handles recipes, favorites and the shopping cart.
type RecipeService struct {
	recipes     repositories.RecipeRepository
	tags        repositories.TagRepository
	ingredients repositories.IngredientRepository
	favorites   repositories.RecipeMarkRepository
	cart        repositories.RecipeMarkRepository
	follows     repositories.FollowRepository
	images      storage.Storage
	events      EventPublisher
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(deps RecipeDeps) *RecipeService {
	return &RecipeService{
		recipes:     deps.Recipes,
		tags:        deps.Tags,
		ingredients: deps.Ingredients,
		favorites:   deps.Favorites,
		cart:        deps.Cart,
		follows:     deps.Follows,
		images:      deps.Images,
		events:      deps.Events,
	}
}

// IngredientAmount is a requested ingredient of a recipe.
type IngredientAmount struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the writable part of a recipe. Image is a base64 data URI.
// A nil CookingTime means the field was not sent.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime *int
	Image       string
	TagIDs      []uint
	Ingredients []IngredientAmount
}

// RecipeQuery selects recipes for listing. The two flags only apply to
// authenticated viewers.
type RecipeQuery struct {
	repositories.Pagination
	AuthorID         *uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// ListRecipes returns one page of recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer *Identity, q RecipeQuery) ([]models.RecipeView, int64, error) {
	filter := repositories.RecipeFilter{
		Pagination: q.Pagination,
		AuthorID:   q.AuthorID,
		TagSlugs:   q.TagSlugs,
	}
	if IsAuthenticated(viewer) {
		uid := viewer.UserID
		if q.IsFavorited {
			filter.FavoritedBy = &uid
		}
		if q.IsInShoppingCart {
			filter.InCartOf = &uid
		}
	}

	recipes, total, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetRecipe returns a single recipe as seen by viewer.
func (s *RecipeService) GetRecipe(ctx context.Context, viewer *Identity, id uint) (*models.RecipeView, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, viewer, []models.Recipe{*recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CreateRecipe validates in, stores the image and the recipe, and announces it.
func (s *RecipeService) CreateRecipe(ctx context.Context, viewer *Identity, in RecipeInput) (*models.RecipeView, error) {
	if !IsAuthenticated(viewer) {
		return nil, ErrUnauthorized
	}
	recipe, err := s.buildRecipe(ctx, in, true)
	if err != nil {
		return nil, err
	}
	recipe.AuthorID = viewer.UserID

	key, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}
	recipe.Image = key

	if err := s.recipes.Create(ctx, recipe); err != nil {
		s.discardImage(ctx, key)
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.publish(ctx, models.RecipeEvent{
		Type:     models.RecipeEventPublished,
		RecipeID: recipe.ID,
		AuthorID: recipe.AuthorID,
		Name:     recipe.Name,
	})
	return s.GetRecipe(ctx, viewer, recipe.ID)
}

// UpdateRecipe replaces the recipe. With partial set, empty fields of in keep
// their stored values. The image is kept whenever in.Image is empty.
func (s *RecipeService) UpdateRecipe(ctx context.Context, viewer *Identity, id uint, in RecipeInput, partial bool) (*models.RecipeView, error) {
	if !IsAuthenticated(viewer) {
		return nil, ErrUnauthorized
	}
	existing, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModifyRecipe(viewer, existing) {
		return nil, ErrForbidden
	}
	if partial {
		in = mergeRecipeInput(in, existing)
	}

	recipe, err := s.buildRecipe(ctx, in, false)
	if err != nil {
		return nil, err
	}
	recipe.ID = existing.ID
	recipe.AuthorID = existing.AuthorID
	recipe.Image = existing.Image

	var newKey string
	if in.Image != "" {
		if newKey, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
		recipe.Image = newKey
	}

	if err := s.recipes.Update(ctx, recipe); err != nil {
		s.discardImage(ctx, newKey)
		return nil, fmt.Errorf("failed to update recipe %d: %w", id, err)
	}
	if newKey != "" {
		s.discardImage(ctx, existing.Image)
	}
	return s.GetRecipe(ctx, viewer, recipe.ID)
}

// DeleteRecipe removes the recipe and its image.
func (s *RecipeService) DeleteRecipe(ctx context.Context, viewer *Identity, id uint) error {
	if !IsAuthenticated(viewer) {
		return ErrUnauthorized
	}
	existing, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanModifyRecipe(viewer, existing) {
		return ErrForbidden
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, err)
	}
	s.discardImage(ctx, existing.Image)
	return nil
}

// AddFavorite bookmarks a recipe for viewer.
func (s *RecipeService) AddFavorite(ctx context.Context, viewer *Identity, recipeID uint) (*models.RecipeShortView, error) {
	return s.mark(ctx, viewer, recipeID, s.favorites, "favorites")
}

// RemoveFavorite drops a bookmark.
func (s *RecipeService) RemoveFavorite(ctx context.Context, viewer *Identity, recipeID uint) error {
	return s.unmark(ctx, viewer, recipeID, s.favorites)
}

// AddToShoppingCart puts a recipe in viewer's cart.
func (s *RecipeService) AddToShoppingCart(ctx context.Context, viewer *Identity, recipeID uint) (*models.RecipeShortView, error) {
	return s.mark(ctx, viewer, recipeID, s.cart, "shopping cart")
}

// RemoveFromShoppingCart takes a recipe out of viewer's cart.
func (s *RecipeService) RemoveFromShoppingCart(ctx context.Context, viewer *Identity, recipeID uint) error {
	return s.unmark(ctx, viewer, recipeID, s.cart)
}

// ShoppingList aggregates the ingredients of every recipe in viewer's cart.
func (s *RecipeService) ShoppingList(ctx context.Context, viewer *Identity) (*ShoppingList, error) {
	if !IsAuthenticated(viewer) {
		return nil, ErrUnauthorized
	}
	recipeIDs, err := s.cart.RecipeIDs(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	lines, err := s.recipes.IngredientLines(ctx, recipeIDs)
	if err != nil {
		return nil, err
	}

	list := AggregateShoppingList(lines)
	for _, c := range list.Conflicts {
		log.Warn().
			Uint("user_id", viewer.UserID).
			Str("ingredient", c.Name).
			Strs("units", c.Units).
			Msg("shopping list has one ingredient name under several units")
	}
	return &list, nil
}

func (s *RecipeService) mark(ctx context.Context, viewer *Identity, recipeID uint, marks repositories.RecipeMarkRepository, list string) (*models.RecipeShortView, error) {
	if !IsAuthenticated(viewer) {
		return nil, ErrUnauthorized
	}
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := marks.Add(ctx, viewer.UserID, recipe.ID); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("recipe", "recipe is already in %s", list)
		}
		return nil, err
	}
	view := shortView(recipe, s.images)
	return &view, nil
}

func (s *RecipeService) unmark(ctx context.Context, viewer *Identity, recipeID uint, marks repositories.RecipeMarkRepository) error {
	if !IsAuthenticated(viewer) {
		return ErrUnauthorized
	}
	if _, err := s.recipes.GetByID(ctx, recipeID); err != nil {
		return err
	}
	return marks.Remove(ctx, viewer.UserID, recipeID)
}

func mergeRecipeInput(in RecipeInput, r *models.Recipe) RecipeInput {
	if in.Name == "" {
		in.Name = r.Name
	}
	if in.Text == "" {
		in.Text = r.Text
	}
	if in.CookingTime == nil {
		cookingTime := r.CookingTime
		in.CookingTime = &cookingTime
	}
	if in.TagIDs == nil {
		for _, t := range r.Tags {
			in.TagIDs = append(in.TagIDs, t.ID)
		}
	}
	if in.Ingredients == nil {
		for _, q := range r.Ingredients {
			in.Ingredients = append(in.Ingredients, IngredientAmount{ID: q.IngredientID, Amount: q.Amount})
		}
	}
	return in
}

// buildRecipe validates in and resolves its tags and ingredients.
func (s *RecipeService) buildRecipe(ctx context.Context, in RecipeInput, requireImage bool) (*models.Recipe, error) {
	verr := &ValidationError{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		verr.Add("name", "this field is required")
	case len([]rune(name)) > maxRecipeName:
		verr.Add("name", "ensure this field has no more than %d characters", maxRecipeName)
	}
	if strings.TrimSpace(in.Text) == "" {
		verr.Add("text", "this field is required")
	}
	if in.CookingTime == nil || *in.CookingTime < 1 || *in.CookingTime > maxSmallInteger {
		verr.Add("cooking_time", "cooking time must be between 1 and %d", maxSmallInteger)
	}
	if requireImage && in.Image == "" {
		verr.Add("image", "this field is required")
	}

	tagIDs := make([]uint, 0, len(in.TagIDs))
	seenTags := make(map[uint]bool, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if seenTags[id] {
			verr.Add("tags", "tag %d is listed twice", id)
			continue
		}
		seenTags[id] = true
		tagIDs = append(tagIDs, id)
	}
	if len(tagIDs) == 0 {
		verr.Add("tags", "at least one tag is required")
	}

	ingredientIDs := make([]uint, 0, len(in.Ingredients))
	seenIngredients := make(map[uint]bool, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		if seenIngredients[ing.ID] {
			verr.Add("ingredients", "ingredient %d is listed twice", ing.ID)
			continue
		}
		seenIngredients[ing.ID] = true
		if ing.Amount < 1 || ing.Amount > maxSmallInteger {
			verr.Add("ingredients", "amount of ingredient %d must be between 1 and %d", ing.ID, maxSmallInteger)
		}
		ingredientIDs = append(ingredientIDs, ing.ID)
	}
	if len(ingredientIDs) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	tags, err := s.tags.GetByIDs(ctx, tagIDs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(tagIDs) {
		verr.Add("tags", "unknown tag id")
	}
	ingredients, err := s.ingredients.GetByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		verr.Add("ingredients", "unknown ingredient id")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		Name:        name,
		Text:        in.Text,
		CookingTime: *in.CookingTime,
		Tags:        tags,
	}
	for _, ing := range in.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.IngredientQuantity{
			IngredientID: ing.ID,
			Amount:       ing.Amount,
		})
	}
	return recipe, nil
}

func (s *RecipeService) storeImage(ctx context.Context, dataURI string) (string, error) {
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", invalid("image", "%v", err)
	}
	key := storage.NewImageKey(img.Ext)
	if err := s.images.Write(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return key, nil
}

func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to delete recipe image")
	}
}

func (s *RecipeService) publish(ctx context.Context, event models.RecipeEvent) {
	if s.events == nil {
		log.Debug().Uint("recipe_id", event.RecipeID).Msg("no event publisher configured, skipping recipe event")
		return
	}
	if err := s.events.PublishRecipeEvent(ctx, event); err != nil {
		log.Warn().Err(err).Uint("recipe_id", event.RecipeID).Msg("failed to publish recipe event")
	}
}

// views renders recipes for viewer, loading the per-viewer flags in bulk.
func (s *RecipeService) views(ctx context.Context, viewer *Identity, recipes []models.Recipe) ([]models.RecipeView, error) {
	favorited := map[uint]bool{}
	inCart := map[uint]bool{}
	subscribed := map[uint]bool{}

	if IsAuthenticated(viewer) && len(recipes) > 0 {
		recipeIDs := make([]uint, 0, len(recipes))
		authorIDs := make([]uint, 0, len(recipes))
		for _, r := range recipes {
			recipeIDs = append(recipeIDs, r.ID)
			authorIDs = append(authorIDs, r.AuthorID)
		}
		var err error
		if favorited, err = s.favorites.Marked(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = s.cart.Marked(ctx, viewer.UserID, recipeIDs); err != nil {
			return nil, err
		}
		if subscribed, err = s.follows.BatchIsFollowing(ctx, viewer.UserID, authorIDs); err != nil {
			return nil, err
		}
	}

	views := make([]models.RecipeView, 0, len(recipes))
	for _, r := range recipes {
		ingredients := make([]models.IngredientAmountView, 0, len(r.Ingredients))
		for _, q := range r.Ingredients {
			ingredients = append(ingredients, models.IngredientAmountView{
				ID:              q.IngredientID,
				Name:            q.Ingredient.Name,
				MeasurementUnit: q.Ingredient.MeasurementUnit,
				Amount:          q.Amount,
			})
		}
		tags := r.Tags
		if tags == nil {
			tags = []models.Tag{}
		}
		views = append(views, models.RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           models.NewUserView(r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
			Name:             r.Name,
			Image:            s.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		})
	}
	return views, nil
}
