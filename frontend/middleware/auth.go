package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

// APIAuth validates the token cookie, or a bearer header, for API requests
func APIAuth(logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("auth")

	return func(c *fiber.Ctx) error {
		token := c.Cookies("token")
		if token == "" {
			token = shared.BearerToken(c.Get("Authorization"))
		}
		if token == "" {
			logger.Debug("No token found", zap.String("path", c.Path()))
			return c.Status(401).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized",
			})
		}

		claims, err := shared.ValidateToken(token)
		if err != nil {
			logger.Info("Token validation failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(401).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized",
			})
		}

		// Store username and token in context
		c.Locals("username", claims.Username)
		c.Locals("token", token)

		return c.Next()
	}
}
