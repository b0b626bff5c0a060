// Package http contains the fiber request handlers for the public API.
package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelens/internal/events"
	"pagelens/internal/http/middleware"
	"pagelens/internal/journeys"
	"pagelens/internal/pkg/botfilter"
	"pagelens/internal/pkg/geoip"
)

const (
	msgEventAdded     = "Event added successfully"
	errInvalidRequest = "Invalid request"
)

// CreatePageViewParams is the body of a page view ingest request.
type CreatePageViewParams struct {
	VisitorID string    `json:"visitorId"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent"`
}

// CreateConversionParams is the body of a conversion ingest request.
type CreateConversionParams struct {
	VisitorID string    `json:"visitorId"`
	EventName string    `json:"eventName"`
	Timestamp time.Time `json:"timestamp"`
	UserAgent string    `json:"userAgent"`
}

// EventsHandler ingests page views and conversion events.
type EventsHandler struct {
	db             *gorm.DB
	logger         *slog.Logger
	sessionTimeout time.Duration
}

// NewEventsHandler creates the ingest handler.
func NewEventsHandler(db *gorm.DB, logger *slog.Logger, sessionTimeout time.Duration) *EventsHandler {
	return &EventsHandler{db: db, logger: logger, sessionTimeout: sessionTimeout}
}

// CreatePageView handles POST page view requests. Bot traffic is accepted and
// discarded so trackers never retry it.
func (h *EventsHandler) CreatePageView(c *fiber.Ctx) error {
	prop, ok := middleware.PropertyFromLocals(c)
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Property not resolved"})
	}

	var params CreatePageViewParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}
	if params.VisitorID == "" || params.Path == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "visitorId and path are required"})
	}

	userAgent := c.Get("User-Agent")
	if params.UserAgent != "" {
		userAgent = params.UserAgent
	}
	if botfilter.IsBot(userAgent) {
		h.logger.Debug("Dropping bot page view",
			slog.String("property", prop.ID),
			slog.String("userAgent", userAgent))
		return accepted(c)
	}

	input := events.PageViewInput{
		Property:   prop.ID,
		VisitorID:  params.VisitorID,
		Path:       params.Path,
		Title:      params.Title,
		IPAddress:  getClientIP(c),
		OccurredAt: eventTime(params.Timestamp),
	}

	if err := events.RecordPageView(h.db, input, h.sessionTimeout, geoip.CountryFromIP); err != nil {
		h.logger.Error("Failed to record page view",
			slog.String("property", prop.ID),
			slog.Any("error", err))
		if isBusyError(err) {
			return c.Status(599).JSON(fiber.Map{})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect event",
			"code":  "COLLECTION_ERROR",
		})
	}

	return accepted(c)
}

// CreateConversion handles POST conversion requests. A stored conversion
// triggers journey derivation for the visitor; derivations rejected on data
// integrity grounds do not fail the ingest, the conversion itself stands.
func (h *EventsHandler) CreateConversion(c *fiber.Ctx) error {
	prop, ok := middleware.PropertyFromLocals(c)
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Property not resolved"})
	}

	var params CreateConversionParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": errInvalidRequest})
	}
	if params.VisitorID == "" || params.EventName == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "visitorId and eventName are required"})
	}

	userAgent := c.Get("User-Agent")
	if params.UserAgent != "" {
		userAgent = params.UserAgent
	}
	if botfilter.IsBot(userAgent) {
		h.logger.Debug("Dropping bot conversion",
			slog.String("property", prop.ID),
			slog.String("userAgent", userAgent))
		return accepted(c)
	}

	input := events.ConversionInput{
		Property:   prop.ID,
		VisitorID:  params.VisitorID,
		EventName:  params.EventName,
		OccurredAt: eventTime(params.Timestamp),
	}

	if err := events.RecordConversion(h.db, input); err != nil {
		h.logger.Error("Failed to record conversion",
			slog.String("property", prop.ID),
			slog.Any("error", err))
		if isBusyError(err) {
			return c.Status(599).JSON(fiber.Map{})
		}
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to collect event",
			"code":  "COLLECTION_ERROR",
		})
	}

	err := journeys.DeriveAndStore(h.db, h.logger, params.VisitorID, prop.ID, params.EventName)
	if err != nil && !journeys.IsIntegrityError(err) {
		h.logger.Error("Failed to store derived journey",
			slog.String("property", prop.ID),
			slog.String("visitor_id", params.VisitorID),
			slog.Any("error", err))
	}

	return accepted(c)
}

func accepted(c *fiber.Ctx) error {
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"status":  http.StatusAccepted,
	})
}

// eventTime defaults a missing client timestamp to now.
func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

// getClientIP prefers the forwarding header set by the reverse proxy.
func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.IP()
}

func isBusyError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy")
}
