// Package auth implements API key validation for the HTTP surface.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Header carries the API key on requests.
const Header = "X-Api-Key"

// Config holds the middleware settings.
type Config struct {
	// ApiKey is the expected key. Empty disables the check entirely.
	ApiKey string
}

// New returns middleware rejecting requests without the configured key.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		given := c.Get(Header)
		if subtle.ConstantTimeCompare([]byte(given), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid api key",
			})
		}
		return c.Next()
	}
}
