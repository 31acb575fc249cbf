package handlers

import (
	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user profiles and subscriptions.
type UserHandler struct {
	users       *services.UserService
	follows     *services.FollowService
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, follows *services.FollowService, authService *services.AuthService) *UserHandler {
	return &UserHandler{users: users, follows: follows, authService: authService}
}

// RegisterRoutes registers the user routes. Fixed paths come before /:id.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	authRequired := middleware.AuthRequired(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	userRoutes := router.Group("/users")
	userRoutes.Get("/", optionalAuth, h.HandleListUsers)
	userRoutes.Get("/me", authRequired, h.HandleMe)
	userRoutes.Get("/subscriptions", authRequired, h.HandleSubscriptions)
	userRoutes.Get("/:id", optionalAuth, h.HandleGetUser)
	userRoutes.Delete("/:id", authRequired, middleware.StaffRequired(), h.HandleDeleteUser)
	userRoutes.Post("/:id/subscribe", authRequired, h.HandleSubscribe)
	userRoutes.Delete("/:id/subscribe", authRequired, h.HandleUnsubscribe)
}

// HandleListUsers returns one page of users.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	page := pagination(c)
	users, total, err := h.users.ListUsers(c.UserContext(), middleware.Identity(c), page)
	if err != nil {
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(newPage(c, users, total, page))
}

// HandleMe returns the caller's own profile.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	user, err := h.users.GetUser(c.UserContext(), identity, identity.UserID)
	if err != nil {
		return respondError(c, err, "Could not retrieve user")
	}
	return c.JSON(user)
}

// HandleGetUser returns a single profile.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	user, err := h.users.GetUser(c.UserContext(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err, "User not found")
	}
	return c.JSON(user)
}

// HandleDeleteUser removes an account. Staff only.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	if err := h.users.DeleteUser(c.UserContext(), middleware.Identity(c), id); err != nil {
		return respondError(c, err, "Could not delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSubscribe follows the author in :id.
func (h *UserHandler) HandleSubscribe(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	view, err := h.follows.Subscribe(c.UserContext(), middleware.Identity(c), id, c.QueryInt("recipes_limit", 0))
	if err != nil {
		return respondError(c, err, "Could not subscribe")
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// HandleUnsubscribe stops following the author in :id.
func (h *UserHandler) HandleUnsubscribe(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user ID", err)
	}
	if err := h.follows.Unsubscribe(c.UserContext(), middleware.Identity(c), id); err != nil {
		return respondError(c, err, "Could not unsubscribe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSubscriptions lists the authors the caller follows.
func (h *UserHandler) HandleSubscriptions(c *fiber.Ctx) error {
	page := pagination(c)
	views, total, err := h.follows.Subscriptions(c.UserContext(), middleware.Identity(c), page, c.QueryInt("recipes_limit", 0))
	if err != nil {
		return respondError(c, err, "Could not retrieve subscriptions")
	}
	return c.JSON(newPage[models.SubscriptionView](c, views, total, page))
}
