package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"pagelens/internal/analytics"
	"pagelens/internal/config"
	"pagelens/internal/http"
	"pagelens/internal/http/middleware"
)

// publicCORSConfig is the CORS configuration for the public ingest endpoints.
// Trackers post cross-origin from the tracked sites, so this stays permissive.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts the public API on the fiber app.
func MountAppRoutes(app *fiber.App, db *gorm.DB, logger *slog.Logger, cfg *config.Config, properties *config.Properties, service *analytics.Service) {
	// Rate limiting only in production; in development and test it would
	// interfere with local traffic generation.
	conditionalRateLimiter := func(max int) fiber.Handler {
		limit := limiter.New(limiter.Config{
			Max:        max,
			Expiration: time.Minute,
		})
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limit(c)
			}
			return c.Next()
		}
	}

	// 70/min per IP handles legitimate tracker traffic while capping abuse.
	ingestRateLimiter := conditionalRateLimiter(70)

	healthHandler := http.NewHealthHandler(db, logger)
	app.Get("/health", healthHandler.GetHealth)

	sessionTimeout := time.Duration(cfg.GetSessionTimeout()) * time.Second
	eventsHandler := http.NewEventsHandler(db, logger, sessionTimeout)
	dashboardHandler := http.NewDashboardHandler(db, logger, service)
	countriesHandler := http.NewCountriesHandler(db, logger)

	apiKeyAuth := middleware.PropertyAPIKeyAuth(properties, logger)

	api := app.Group("/api/v1", cors.New(publicCORSConfig))

	property := api.Group("/properties/:property", apiKeyAuth)
	property.Post("/pageviews", ingestRateLimiter, eventsHandler.CreatePageView)
	property.Post("/conversions", ingestRateLimiter, eventsHandler.CreateConversion)
	property.Get("/pages", dashboardHandler.GetPages)
	property.Get("/countries", countriesHandler.GetCountries)
}
