package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fx-tuner/backend/shared"
)

// LoginRequest carries an API token issued by `fxtune token`
type LoginRequest struct {
	Token string `json:"token"`
}

// LoginHandler checks the token and stores it in the session cookies
func (h *Handlers) LoginHandler(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request",
		})
	}

	claims, err := shared.ValidateToken(req.Token)
	if err != nil {
		h.logger.Warn("Login rejected", zap.Error(err))
		return c.Status(401).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid token",
		})
	}

	expires := time.Now().Add(shared.TokenLifetime)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    req.Token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})

	c.Cookie(&fiber.Cookie{
		Name:     "username",
		Value:    claims.Username,
		Expires:  expires,
		HTTPOnly: false,
	})

	h.logger.Info("User logged in", zap.String("user", claims.Username))
	return c.JSON(fiber.Map{
		"success":  true,
		"redirect": "/",
	})
}

func (h *Handlers) LogoutHandler(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "username",
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: false,
	})

	return c.Redirect("/")
}
