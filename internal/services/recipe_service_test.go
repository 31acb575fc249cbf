package services_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"foodgram/internal/models"
	"foodgram/internal/repositories"
	"foodgram/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// pngDataURI is a 1x1 transparent PNG.
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type recipeMocks struct {
	recipes     *MockRecipeRepository
	tags        *MockTagRepository
	ingredients *MockIngredientRepository
	favorites   *MockMarkRepository
	cart        *MockMarkRepository
	follows     *MockFollowRepository
	images      *MockStorage
	events      *MockPublisher
}

func newRecipeService() (*services.RecipeService, *recipeMocks) {
	m := &recipeMocks{
		recipes:     new(MockRecipeRepository),
		tags:        new(MockTagRepository),
		ingredients: new(MockIngredientRepository),
		favorites:   new(MockMarkRepository),
		cart:        new(MockMarkRepository),
		follows:     new(MockFollowRepository),
		images:      new(MockStorage),
		events:      new(MockPublisher),
	}
	svc := services.NewRecipeService(services.RecipeDeps{
		Recipes:     m.recipes,
		Tags:        m.tags,
		Ingredients: m.ingredients,
		Favorites:   m.favorites,
		Cart:        m.cart,
		Follows:     m.follows,
		Images:      m.images,
		Events:      m.events,
	})
	return svc, m
}

func minutes(n int) *int { return &n }

func validInput() services.RecipeInput {
	return services.RecipeInput{
		Name:        "Mashed potatoes",
		Text:        "Boil and mash.",
		CookingTime: minutes(30),
		Image:       pngDataURI,
		TagIDs:      []uint{1},
		Ingredients: []services.IngredientAmount{{ID: 10, Amount: 1}},
	}
}

func storedRecipe(id, authorID uint) *models.Recipe {
	return &models.Recipe{
		ID:          id,
		AuthorID:    authorID,
		Author:      models.User{ID: authorID, Username: "chef"},
		Name:        "Mashed potatoes",
		Image:       "recipes/old.png",
		Text:        "Boil and mash.",
		CookingTime: 30,
		Tags:        []models.Tag{{ID: 1, Name: "Lunch", Color: "#49B64E", Slug: "lunch"}},
		Ingredients: []models.IngredientQuantity{{
			IngredientID: 10,
			Ingredient:   models.Ingredient{ID: 10, Name: "Potato", MeasurementUnit: "g"},
			Amount:       1,
		}},
	}
}

func expectViewerFlags(m *recipeMocks, userID uint) {
	m.favorites.On("Marked", mock.Anything, userID, mock.Anything).Return(map[uint]bool{}, nil)
	m.cart.On("Marked", mock.Anything, userID, mock.Anything).Return(map[uint]bool{}, nil)
	m.follows.On("BatchIsFollowing", mock.Anything, userID, mock.Anything).Return(map[uint]bool{}, nil)
}

func TestRecipeService_CreateRecipe(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}
	ctx := context.Background()

	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Once()
	m.images.On("Write", mock.Anything, mock.AnythingOfType("string"), mock.Anything, mock.AnythingOfType("int64"), "image/png").Return(nil).Once()
	m.recipes.On("Create", mock.Anything, mock.AnythingOfType("*models.Recipe")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Recipe).ID = 42 }).
		Return(nil).Once()
	m.events.On("PublishRecipeEvent", mock.Anything, models.RecipeEvent{
		Type: models.RecipeEventPublished, RecipeID: 42, AuthorID: 2, Name: "Mashed potatoes",
	}).Return(nil).Once()
	m.recipes.On("GetByID", mock.Anything, uint(42)).Return(storedRecipe(42, 2), nil).Once()
	expectViewerFlags(m, 2)

	view, err := svc.CreateRecipe(ctx, viewer, validInput())
	require.NoError(t, err)
	assert.Equal(t, uint(42), view.ID)
	assert.Equal(t, "/media/recipes/old.png", view.Image)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, "Potato", view.Ingredients[0].Name)

	created := m.recipes.Calls[0].Arguments.Get(1).(*models.Recipe)
	assert.Equal(t, uint(2), created.AuthorID)
	assert.Regexp(t, `^recipes/.+\.png$`, created.Image)

	m.recipes.AssertExpectations(t)
	m.images.AssertExpectations(t)
	m.events.AssertExpectations(t)
}

func TestRecipeService_CreateRecipeValidation(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(in *services.RecipeInput)
		field  string
	}{
		"zero amount":          {func(in *services.RecipeInput) { in.Ingredients[0].Amount = 0 }, "ingredients"},
		"zero cooking time":    {func(in *services.RecipeInput) { in.CookingTime = minutes(0) }, "cooking_time"},
		"no ingredients":       {func(in *services.RecipeInput) { in.Ingredients = nil }, "ingredients"},
		"duplicate ingredient": {func(in *services.RecipeInput) { in.Ingredients = append(in.Ingredients, in.Ingredients[0]) }, "ingredients"},
		"no tags":              {func(in *services.RecipeInput) { in.TagIDs = nil }, "tags"},
		"duplicate tag":        {func(in *services.RecipeInput) { in.TagIDs = []uint{1, 1} }, "tags"},
		"blank name":           {func(in *services.RecipeInput) { in.Name = "  " }, "name"},
		"missing image":        {func(in *services.RecipeInput) { in.Image = "" }, "image"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.CreateRecipe(ctx, viewer, in)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
	m.recipes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.images.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecipeService_CreateRecipeUnknownIngredient(t *testing.T) {
	svc, m := newRecipeService()

	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{}, nil).Once()

	_, err := svc.CreateRecipe(context.Background(), &services.Identity{UserID: 2}, validInput())
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ingredients")
}

func TestRecipeService_CreateRecipeBadImage(t *testing.T) {
	svc, m := newRecipeService()
	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Once()

	in := validInput()
	in.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))
	_, err := svc.CreateRecipe(context.Background(), &services.Identity{UserID: 2}, in)

	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "image")
}

func TestRecipeService_CreateRecipeRemovesImageOnFailure(t *testing.T) {
	svc, m := newRecipeService()
	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Once()
	m.images.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	m.images.On("Delete", mock.Anything, mock.AnythingOfType("string")).Return(nil).Once()
	m.recipes.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	_, err := svc.CreateRecipe(context.Background(), &services.Identity{UserID: 2}, validInput())
	assert.Error(t, err)
	m.images.AssertExpectations(t)
	m.events.AssertNotCalled(t, "PublishRecipeEvent", mock.Anything, mock.Anything)
}

func TestRecipeService_CreateRecipeAnonymous(t *testing.T) {
	svc, _ := newRecipeService()
	_, err := svc.CreateRecipe(context.Background(), nil, validInput())
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestRecipeService_UpdateRecipeByNonAuthor(t *testing.T) {
	svc, m := newRecipeService()
	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil).Once()

	_, err := svc.UpdateRecipe(context.Background(), &services.Identity{UserID: 2}, 5, validInput(), false)
	assert.ErrorIs(t, err, services.ErrForbidden)
	m.recipes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecipeService_PartialUpdateKeepsImageAndFields(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 1}

	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil).Twice()
	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Once()
	m.recipes.On("Update", mock.Anything, mock.AnythingOfType("*models.Recipe")).Return(nil).Once()
	expectViewerFlags(m, 1)

	_, err := svc.UpdateRecipe(context.Background(), viewer, 5, services.RecipeInput{Name: "Renamed"}, true)
	require.NoError(t, err)

	updated := m.recipes.Calls[1].Arguments.Get(1).(*models.Recipe)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "recipes/old.png", updated.Image)
	assert.Equal(t, 30, updated.CookingTime)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, uint(10), updated.Ingredients[0].IngredientID)
	m.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRecipeService_PartialUpdateRejectsZeroCookingTime(t *testing.T) {
	svc, m := newRecipeService()
	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil).Once()
	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Maybe()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Maybe()

	_, err := svc.UpdateRecipe(context.Background(), &services.Identity{UserID: 1}, 5, services.RecipeInput{CookingTime: minutes(0)}, true)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "cooking_time")
	m.recipes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecipeService_UpdateRecipeReplacesImage(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 1}

	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil).Twice()
	m.tags.On("GetByIDs", mock.Anything, []uint{1}).Return([]models.Tag{{ID: 1}}, nil).Once()
	m.ingredients.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Ingredient{{ID: 10}}, nil).Once()
	m.images.On("Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "image/png").Return(nil).Once()
	m.images.On("Delete", mock.Anything, "recipes/old.png").Return(nil).Once()
	m.recipes.On("Update", mock.Anything, mock.AnythingOfType("*models.Recipe")).Return(nil).Once()
	expectViewerFlags(m, 1)

	_, err := svc.UpdateRecipe(context.Background(), viewer, 5, validInput(), false)
	require.NoError(t, err)
	m.images.AssertExpectations(t)
}

func TestRecipeService_DeleteRecipe(t *testing.T) {
	svc, m := newRecipeService()
	ctx := context.Background()

	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil).Twice()
	assert.ErrorIs(t, svc.DeleteRecipe(ctx, &services.Identity{UserID: 2}, 5), services.ErrForbidden)

	m.recipes.On("Delete", mock.Anything, uint(5)).Return(nil).Once()
	m.images.On("Delete", mock.Anything, "recipes/old.png").Return(nil).Once()
	require.NoError(t, svc.DeleteRecipe(ctx, &services.Identity{UserID: 1}, 5))

	m.recipes.On("GetByID", mock.Anything, uint(6)).Return(nil, repositories.ErrNotFound).Once()
	assert.ErrorIs(t, svc.DeleteRecipe(ctx, &services.Identity{UserID: 1}, 6), services.ErrNotFound)

	m.recipes.AssertExpectations(t)
	m.images.AssertExpectations(t)
}

func TestRecipeService_Favorites(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}
	ctx := context.Background()

	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil)
	m.favorites.On("Add", mock.Anything, uint(2), uint(5)).Return(nil).Once()

	short, err := svc.AddFavorite(ctx, viewer, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RecipeShortView{ID: 5, Name: "Mashed potatoes", Image: "/media/recipes/old.png", CookingTime: 30}, *short)

	m.favorites.On("Add", mock.Anything, uint(2), uint(5)).Return(repositories.ErrDuplicate).Once()
	_, err = svc.AddFavorite(ctx, viewer, 5)
	var verr *services.ValidationError
	assert.ErrorAs(t, err, &verr)

	m.favorites.On("Remove", mock.Anything, uint(2), uint(5)).Return(repositories.ErrNotFound).Once()
	assert.ErrorIs(t, svc.RemoveFavorite(ctx, viewer, 5), services.ErrNotFound)

	m.recipes.On("GetByID", mock.Anything, uint(99)).Return(nil, repositories.ErrNotFound).Once()
	_, err = svc.AddFavorite(ctx, viewer, 99)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.AddFavorite(ctx, nil, 5)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestRecipeService_ShoppingCart(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}
	ctx := context.Background()

	m.recipes.On("GetByID", mock.Anything, uint(5)).Return(storedRecipe(5, 1), nil)
	m.cart.On("Add", mock.Anything, uint(2), uint(5)).Return(nil).Once()
	m.cart.On("Remove", mock.Anything, uint(2), uint(5)).Return(nil).Once()

	_, err := svc.AddToShoppingCart(ctx, viewer, 5)
	require.NoError(t, err)
	require.NoError(t, svc.RemoveFromShoppingCart(ctx, viewer, 5))
	m.cart.AssertExpectations(t)
	m.favorites.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecipeService_ShoppingList(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}

	m.cart.On("RecipeIDs", mock.Anything, uint(2)).Return([]uint{1, 2}, nil).Once()
	m.recipes.On("IngredientLines", mock.Anything, []uint{1, 2}).Return([]models.IngredientLine{
		{RecipeID: 1, IngredientID: 10, Name: "Potato", MeasurementUnit: "g", Amount: 2},
		{RecipeID: 1, IngredientID: 11, Name: "Salt", MeasurementUnit: "g", Amount: 1},
		{RecipeID: 2, IngredientID: 10, Name: "Potato", MeasurementUnit: "g", Amount: 3},
	}, nil).Once()

	list, err := svc.ShoppingList(context.Background(), viewer)
	require.NoError(t, err)
	assert.Equal(t, []services.ShoppingItem{
		{Name: "Potato", Amount: 5, Unit: "g"},
		{Name: "Salt", Amount: 1, Unit: "g"},
	}, list.Items)
	m.cart.AssertExpectations(t)
	m.recipes.AssertExpectations(t)
}

func TestRecipeService_ListRecipesIgnoresFlagsForAnonymous(t *testing.T) {
	svc, m := newRecipeService()

	m.recipes.On("List", mock.Anything, repositories.RecipeFilter{Pagination: repositories.Pagination{Page: 1}}).
		Return([]models.Recipe{*storedRecipe(5, 1)}, int64(1), nil).Once()

	views, total, err := svc.ListRecipes(context.Background(), nil, services.RecipeQuery{
		Pagination:  repositories.Pagination{Page: 1},
		IsFavorited: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsFavorited)
	assert.False(t, views[0].Author.IsSubscribed)
	m.recipes.AssertExpectations(t)
}

func TestRecipeService_ListRecipesForViewer(t *testing.T) {
	svc, m := newRecipeService()
	viewer := &services.Identity{UserID: 2}
	uid := uint(2)

	m.recipes.On("List", mock.Anything, repositories.RecipeFilter{InCartOf: &uid}).
		Return([]models.Recipe{*storedRecipe(5, 1)}, int64(1), nil).Once()
	m.favorites.On("Marked", mock.Anything, uint(2), []uint{5}).Return(map[uint]bool{5: true}, nil).Once()
	m.cart.On("Marked", mock.Anything, uint(2), []uint{5}).Return(map[uint]bool{5: true}, nil).Once()
	m.follows.On("BatchIsFollowing", mock.Anything, uint(2), []uint{1}).Return(map[uint]bool{1: true}, nil).Once()

	views, _, err := svc.ListRecipes(context.Background(), viewer, services.RecipeQuery{IsInShoppingCart: true})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsFavorited)
	assert.True(t, views[0].IsInShoppingCart)
	assert.True(t, views[0].Author.IsSubscribed)
}
