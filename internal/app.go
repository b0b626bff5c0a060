// Package internal contains core application wiring.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"pagelens/internal/analytics"
	"pagelens/internal/config"
	"pagelens/internal/database"
	"pagelens/internal/logging"
	"pagelens/internal/pkg/geoip"
	"pagelens/internal/reporting"
	"pagelens/internal/sitemap"
)

// Application owns the long-lived components of the server process.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Fiber     *fiber.App
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	properties, err := config.LoadProperties(cfg.PropertiesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	geoip.InitLogger(logger)
	geoip.Init(cfg.GeoDBPath)

	source := reporting.NewHTTPSource(reporting.HTTPSourceConfig{
		BaseURL:        cfg.ReportingBaseURL,
		APIKey:         cfg.ReportingAPIKey,
		RequestTimeout: time.Duration(cfg.ReportingTimeoutSeconds) * time.Second,
		MaxRetries:     cfg.ReportingMaxRetries,
	}, logger)
	sitemaps := sitemap.NewHTTPFetcher(time.Duration(cfg.ReportingTimeoutSeconds)*time.Second, logger)
	service := analytics.NewService(source, sitemaps, properties, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: cfg.IsProduction(),
	})
	MountAppRoutes(app, dbManager.GetConnection(), logger, cfg, properties, service)

	return &Application{
		Config:    cfg,
		Logger:    logger,
		DBManager: dbManager,
		Fiber:     app,
	}, nil
}

// StartAsync starts the HTTP listener in a background goroutine.
func (a *Application) StartAsync() error {
	go func() {
		addr := ":" + a.Config.AppPort
		a.Logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := a.Fiber.Listen(addr); err != nil {
			a.Logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown stops the HTTP server and closes shared resources.
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	geoip.Close()
	if err := a.DBManager.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
