// Package middleware holds fiber middleware shared by the API routes.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"pagelens/internal/config"
)

// PropertyAPIKeyAuth validates the API key for property-scoped endpoints.
// Expects: Authorization: Bearer <api_key>, checked against the property's
// configured bcrypt hash. The resolved property is stored in locals under
// "property" for handlers.
func PropertyAPIKeyAuth(properties *config.Properties, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		propertyID := c.Params("property")

		prop, err := properties.Get(propertyID)
		if err != nil {
			logger.Warn("Request for unconfigured property", slog.String("property", propertyID))
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown property",
			})
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <api_key>",
			})
		}

		providedKey := strings.TrimPrefix(authHeader, "Bearer ")
		if providedKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key is empty",
			})
		}

		if prop.APIKeyHash == "" {
			logger.Warn("Property has no API key configured", slog.String("property", propertyID))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API key not configured for this property. Generate one with lensctl.",
			})
		}

		// bcrypt comparison is constant-time with respect to the key material.
		if err := bcrypt.CompareHashAndPassword([]byte(prop.APIKeyHash), []byte(providedKey)); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
			})
		}

		c.Locals("property", prop)
		return c.Next()
	}
}

// PropertyFromLocals returns the property resolved by PropertyAPIKeyAuth.
func PropertyFromLocals(c *fiber.Ctx) (config.Property, bool) {
	prop, ok := c.Locals("property").(config.Property)
	return prop, ok
}
