package handlers

import (
	"strings"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves tags and ingredients.
type CatalogHandler struct {
	tags        *services.TagService
	ingredients *services.IngredientService
	authService *services.AuthService
	csvPath     string
	validate    *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler. csvPath is the file read by /add_csv.
func NewCatalogHandler(tags *services.TagService, ingredients *services.IngredientService, authService *services.AuthService, csvPath string) *CatalogHandler {
	return &CatalogHandler{
		tags:        tags,
		ingredients: ingredients,
		authService: authService,
		csvPath:     csvPath,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the tag, ingredient and import routes.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	staffOnly := []fiber.Handler{middleware.AuthRequired(h.authService), middleware.StaffRequired()}

	tagRoutes := router.Group("/tags")
	tagRoutes.Get("/", h.HandleGetTags)
	tagRoutes.Get("/:id", h.HandleGetTag)
	tagRoutes.Post("/", append(staffOnly, h.HandleCreateTag)...)

	ingredientRoutes := router.Group("/ingredients")
	ingredientRoutes.Get("/", h.HandleSearchIngredients)
	ingredientRoutes.Get("/:id", h.HandleGetIngredient)
	ingredientRoutes.Post("/", append(staffOnly, h.HandleCreateIngredient)...)

	router.Get("/add_csv", middleware.AuthRequired(h.authService), h.HandleImportCSV)
}

// HandleGetTags lists every tag.
func (h *CatalogHandler) HandleGetTags(c *fiber.Ctx) error {
	tags, err := h.tags.GetAllTags(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve tags")
	}
	return c.JSON(tags)
}

// HandleGetTag returns a single tag.
func (h *CatalogHandler) HandleGetTag(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid tag ID", err)
	}
	tag, err := h.tags.GetTagByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "Tag not found")
	}
	return c.JSON(tag)
}

// TagRequest represents the request body for a new tag.
type TagRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=100,slug"`
}

// HandleCreateTag stores a new tag.
func (h *CatalogHandler) HandleCreateTag(c *fiber.Ctx) error {
	var req TagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	tag := models.Tag{Name: req.Name, Color: strings.ToUpper(req.Color), Slug: req.Slug}
	if err := h.tags.CreateTag(c.UserContext(), middleware.Identity(c), &tag); err != nil {
		return respondError(c, err, "Could not create tag")
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// HandleSearchIngredients lists ingredients, optionally by name prefix.
func (h *CatalogHandler) HandleSearchIngredients(c *fiber.Ctx) error {
	ingredients, err := h.ingredients.SearchIngredients(c.UserContext(), c.Query("name"))
	if err != nil {
		return respondError(c, err, "Could not retrieve ingredients")
	}
	return c.JSON(ingredients)
}

// HandleGetIngredient returns a single ingredient.
func (h *CatalogHandler) HandleGetIngredient(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid ingredient ID", err)
	}
	ingredient, err := h.ingredients.GetIngredientByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "Ingredient not found")
	}
	return c.JSON(ingredient)
}

// IngredientRequest represents the request body for a new ingredient.
type IngredientRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=100"`
}

// HandleCreateIngredient stores a new ingredient.
func (h *CatalogHandler) HandleCreateIngredient(c *fiber.Ctx) error {
	var req IngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	ingredient := models.Ingredient{Name: req.Name, MeasurementUnit: req.MeasurementUnit}
	if err := h.ingredients.CreateIngredient(c.UserContext(), middleware.Identity(c), &ingredient); err != nil {
		return respondError(c, err, "Could not create ingredient")
	}
	return c.Status(fiber.StatusCreated).JSON(ingredient)
}

// HandleImportCSV loads the configured ingredient file. The service rejects
// non-staff callers before touching the file.
func (h *CatalogHandler) HandleImportCSV(c *fiber.Ctx) error {
	result, err := h.ingredients.ImportFile(c.UserContext(), middleware.Identity(c), h.csvPath)
	if err != nil {
		return respondError(c, err, "Could not import ingredients")
	}
	return c.JSON(fiber.Map{
		"message": "Ingredients imported",
		"result":  result,
	})
}
