package middleware

import (
	"backend/lib/authentication"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNoAuthHeader      = errors.New("no authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// extractBearerToken gets the token from Authorization header
func extractBearerToken(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		return "", ErrNoAuthHeader
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

// Protected is the main authentication middleware
func Protected(auth **authentication.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		access_token, err := extractBearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		claims, err := (*auth).Tokens.ValidateToken(access_token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userID", claims.UserID)

		return c.Next()
	}
}

// GetUserID helper to get userID from context
func GetUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return "", errors.New("user ID not found in context")
	}
	return userID, nil
}
