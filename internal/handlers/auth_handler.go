package handlers

import (
	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles HTTP requests for registration and tokens.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRequired := middleware.AuthRequired(h.authService)

	router.Post("/users", h.HandleRegister)
	router.Post("/users/set_password", authRequired, h.HandleSetPassword)

	tokenRoutes := router.Group("/auth/token")
	tokenRoutes.Post("/login", h.HandleLogin)
	tokenRoutes.Post("/logout", authRequired, h.HandleLogout)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	user := models.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	if err := h.authService.RegisterUser(c.UserContext(), &user); err != nil {
		return respondError(c, err, "Could not register user")
	}

	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(models.NewUserView(user, false))
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin issues a token for valid credentials.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	token, err := h.authService.LoginUser(c.UserContext(), req.Email, req.Password)
	if err != nil {
		log.Debug().Err(err).Str("email", req.Email).Msg("login failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"auth_token": token})
}

// HandleLogout revokes the presented token.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.Token(c)); err != nil {
		return respondError(c, err, "Could not log out")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPasswordRequest represents the request body for a password change.
type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// HandleSetPassword changes the caller's password.
func (h *AuthHandler) HandleSetPassword(c *fiber.Ctx) error {
	var req SetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := validateStruct(h.validate, req); err != nil {
		return respondError(c, err, "Validation failed")
	}

	identity := middleware.Identity(c)
	if err := h.authService.ChangePassword(c.UserContext(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err, "Could not change password")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
