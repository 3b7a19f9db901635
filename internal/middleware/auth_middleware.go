package middleware

import (
	"strings"

	"study-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserSessionKey      = "userSession" // Key for storing *service.UserSession in fiber.Ctx locals
)

// Protected requires a bearer token and attaches the session created for that
// exact token. The token is not verified here; the study service rejects bad
// tokens on use.
func Protected(registry *service.SessionRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "missing_auth_header",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "invalid_auth_scheme",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "empty_token",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		us := registry.Acquire(tokenString)
		if !us.Provider.IsAuthenticated() {
			registry.Drop(us.Key)
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "token_expired",
				Message: "Your session has expired. Please sign in again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals(UserSessionKey, us)
		return c.Next()
	}
}

// SessionFrom returns the session attached by Protected, or nil.
func SessionFrom(c *fiber.Ctx) *service.UserSession {
	us, _ := c.Locals(UserSessionKey).(*service.UserSession)
	return us
}
