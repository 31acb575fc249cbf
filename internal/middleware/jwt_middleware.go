package middleware

import (
	"strings"

	"foodgram/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

// AuthRequired is a Fiber middleware that rejects requests without a valid token.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		token, ok := parseAuthHeader(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>' or 'Token <token>'",
			})
		}

		identity, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			log.Debug().Err(err).Msg("token validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		setIdentity(c, identity)
		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through. A malformed or rejected token is still a 401.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		return AuthRequired(authService)(c)
	}
}

// StaffRequired must run after AuthRequired.
func StaffRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !services.CanManageCatalog(Identity(c)) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": services.ErrForbidden.Error(),
			})
		}
		return c.Next()
	}
}

// Identity returns the caller attached by AuthRequired or OptionalAuth, or
// nil for an anonymous request.
func Identity(c *fiber.Ctx) *services.Identity {
	identity, _ := c.Locals(identityKey).(*services.Identity)
	return identity
}

// Token returns the raw token of the request, if any.
func Token(c *fiber.Ctx) string {
	token, _ := parseAuthHeader(c.Get(fiber.HeaderAuthorization))
	return token
}

func setIdentity(c *fiber.Ctx, identity *services.Identity) {
	c.Locals(identityKey, identity)
}

func parseAuthHeader(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	switch parts[0] {
	case "Bearer", "Token":
	default:
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
