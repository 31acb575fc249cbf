package handlers

import (
	"bytes"

	"foodgram/internal/middleware"
	"foodgram/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RecipeHandler handles recipes, favorites and the shopping cart.
type RecipeHandler struct {
	service     *services.RecipeService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service *services.RecipeService, authService *services.AuthService) *RecipeHandler {
	return &RecipeHandler{
		service:     service,
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the recipe routes. download_shopping_cart is
// registered before /:id so it is not captured as an id.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	authRequired := middleware.AuthRequired(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	recipeRoutes := router.Group("/recipes")
	recipeRoutes.Get("/", optionalAuth, h.HandleListRecipes)
	recipeRoutes.Post("/", authRequired, h.HandleCreateRecipe)
	recipeRoutes.Get("/download_shopping_cart", authRequired, h.HandleDownloadShoppingCart)
	recipeRoutes.Get("/:id", optionalAuth, h.HandleGetRecipe)
	recipeRoutes.Put("/:id", authRequired, h.HandleUpdateRecipe)
	recipeRoutes.Patch("/:id", authRequired, h.HandlePatchRecipe)
	recipeRoutes.Delete("/:id", authRequired, h.HandleDeleteRecipe)
	recipeRoutes.Post("/:id/favorite", authRequired, h.HandleAddFavorite)
	recipeRoutes.Delete("/:id/favorite", authRequired, h.HandleRemoveFavorite)
	recipeRoutes.Post("/:id/shopping_cart", authRequired, h.HandleAddToShoppingCart)
	recipeRoutes.Delete("/:id/shopping_cart", authRequired, h.HandleRemoveFromShoppingCart)
}

// IngredientAmountRequest is one ingredient line of a recipe request.
type IngredientAmountRequest struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1,max=32767"`
}

// RecipeRequest represents the request body for creating or replacing a recipe.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
	Tags        []uint                    `json:"tags" validate:"required,min=1"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" validate:"required,max=200"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime *int                      `json:"cooking_time" validate:"required,min=1,max=32767"`
}

func (r RecipeRequest) input() services.RecipeInput {
	in := services.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		CookingTime: r.CookingTime,
		Image:       r.Image,
		TagIDs:      r.Tags,
	}
	if r.Ingredients != nil {
		in.Ingredients = make([]services.IngredientAmount, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			in.Ingredients = append(in.Ingredients, services.IngredientAmount{ID: ing.ID, Amount: ing.Amount})
		}
	}
	return in
}

// HandleListRecipes returns one page of recipes, newest first.
func (h *RecipeHandler) HandleListRecipes(c *fiber.Ctx) error {
	page := pagination(c)
	q := services.RecipeQuery{
		Pagination:       page,
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.QueryInt("author", 0); author > 0 {
		id := uint(author)
		q.AuthorID = &id
	}
	for _, slug := range c.Context().QueryArgs().PeekMulti("tags") {
		q.TagSlugs = append(q.TagSlugs, string(slug))
	}

	recipes, total, err := h.service.ListRecipes(c.UserContext(), middleware.Identity(c), q)
	if err != nil {
		return respondError(c, err, "Could not retrieve recipes")
	}
	return c.JSON(newPage(c, recipes, total, page))
}

// HandleGetRecipe returns a single recipe.
func (h *RecipeHandler) HandleGetRecipe(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	recipe, err := h.service.GetRecipe(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err, "Recipe not found")
	}
	return c.JSON(recipe)
}

// HandleCreateRecipe creates a recipe authored by the caller.
func (h *RecipeHandler) HandleCreateRecipe(c *fiber.Ctx) error {
	var req RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	recipe, err := h.service.CreateRecipe(c.UserContext(), middleware.Identity(c), req.input())
	if err != nil {
		return respondError(c, err, "Could not create recipe")
	}
	return c.Status(fiber.StatusCreated).JSON(recipe)
}

// HandleUpdateRecipe replaces a recipe. The image may be omitted.
func (h *RecipeHandler) HandleUpdateRecipe(c *fiber.Ctx) error {
	return h.update(c, false)
}

// HandlePatchRecipe updates only the fields present in the body.
func (h *RecipeHandler) HandlePatchRecipe(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *RecipeHandler) update(c *fiber.Ctx, partial bool) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	var req RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	// A partial body is validated by the service after merging.
	if !partial {
		if err := validateStruct(h.validate, req); err != nil {
			return respondError(c, err, "Validation failed")
		}
	}

	recipe, err := h.service.UpdateRecipe(c.UserContext(), middleware.Identity(c), id, req.input(), partial)
	if err != nil {
		return respondError(c, err, "Could not update recipe")
	}
	return c.JSON(recipe)
}

// HandleDeleteRecipe deletes a recipe.
func (h *RecipeHandler) HandleDeleteRecipe(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	if err := h.service.DeleteRecipe(c.UserContext(), middleware.Identity(c), id); err != nil {
		return respondError(c, err, "Could not delete recipe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddFavorite bookmarks a recipe.
func (h *RecipeHandler) HandleAddFavorite(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	short, err := h.service.AddFavorite(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err, "Could not add favorite")
	}
	return c.Status(fiber.StatusCreated).JSON(short)
}

// HandleRemoveFavorite drops a bookmark.
func (h *RecipeHandler) HandleRemoveFavorite(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	if err := h.service.RemoveFavorite(c.UserContext(), middleware.Identity(c), id); err != nil {
		return respondError(c, err, "Could not remove favorite")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddToShoppingCart puts a recipe in the cart.
func (h *RecipeHandler) HandleAddToShoppingCart(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	short, err := h.service.AddToShoppingCart(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err, "Could not add to shopping cart")
	}
	return c.Status(fiber.StatusCreated).JSON(short)
}

// HandleRemoveFromShoppingCart takes a recipe out of the cart.
func (h *RecipeHandler) HandleRemoveFromShoppingCart(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid recipe ID", err)
	}
	if err := h.service.RemoveFromShoppingCart(c.UserContext(), middleware.Identity(c), id); err != nil {
		return respondError(c, err, "Could not remove from shopping cart")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDownloadShoppingCart sends the aggregated cart as a CSV attachment.
func (h *RecipeHandler) HandleDownloadShoppingCart(c *fiber.Ctx) error {
	list, err := h.service.ShoppingList(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err, "Could not build shopping list")
	}

	var buf bytes.Buffer
	if err := list.WriteCSV(&buf); err != nil {
		return respondError(c, err, "Could not build shopping list")
	}
	c.Attachment("cart.txt")
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.Send(buf.Bytes())
}

func queryFlag(c *fiber.Ctx, key string) bool {
	switch c.Query(key) {
	case "1", "true", "True":
		return true
	}
	return false
}
