package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelens/internal/analytics"
	"pagelens/internal/config"
	"pagelens/internal/http/middleware"
	"pagelens/internal/journeys"
	"pagelens/internal/timeframe"
)

// DashboardResponse is the per-property page performance payload: the
// trend-annotated page table plus the synthesized conversion journeys for
// the same period.
type DashboardResponse struct {
	Property string                           `json:"property"`
	From     string                           `json:"from"`
	To       string                           `json:"to"`
	Range    string                           `json:"range"`
	Pages    []analytics.TrendedPageAggregate `json:"pages"`
	Journeys journeys.Synthesis               `json:"journeys"`
}

// DashboardHandler serves the page table and journey views.
type DashboardHandler struct {
	db      *gorm.DB
	logger  *slog.Logger
	service *analytics.Service
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(db *gorm.DB, logger *slog.Logger, service *analytics.Service) *DashboardHandler {
	return &DashboardHandler{db: db, logger: logger, service: service}
}

const dateParamLayout = "2006-01-02"

// GetPages handles GET requests for a property's page performance table.
//
// Query parameters: range (timeframe label, default last_7_days), or
// from/to dates for a custom range.
func (h *DashboardHandler) GetPages(c *fiber.Ctx) error {
	prop, ok := middleware.PropertyFromLocals(c)
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Property not resolved"})
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	pageTable, err := h.service.ComputePageTable(c.UserContext(), prop.ID, dateRange, nil)
	if err != nil {
		if errors.Is(err, config.ErrUnknownProperty) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Unknown property"})
		}
		h.logger.Error("Failed to compute page table",
			slog.String("property", prop.ID),
			slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute page table"})
	}

	synthesis, err := journeys.SynthesizeForProperty(h.db, prop, pageTable)
	if err != nil {
		h.logger.Error("Failed to synthesize journeys",
			slog.String("property", prop.ID),
			slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to synthesize journeys"})
	}

	return c.JSON(DashboardResponse{
		Property: prop.ID,
		From:     dateRange.From.Format(dateParamLayout),
		To:       dateRange.To.Format(dateParamLayout),
		Range:    string(dateRange.Label),
		Pages:    pageTable,
		Journeys: synthesis,
	})
}

// parseDateRange resolves the requested timeframe: explicit from/to wins,
// otherwise the range label.
func parseDateRange(c *fiber.Ctx) (timeframe.DateRange, error) {
	fromParam := c.Query("from")
	toParam := c.Query("to")

	if fromParam != "" || toParam != "" {
		from, err := time.Parse(dateParamLayout, fromParam)
		if err != nil {
			return timeframe.DateRange{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		to, err := time.Parse(dateParamLayout, toParam)
		if err != nil {
			return timeframe.DateRange{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		return timeframe.NewDateRange(from, to.AddDate(0, 0, 1))
	}

	label := timeframe.RangeLabel(c.Query("range", string(timeframe.RangeLabelLast7Days)))
	return timeframe.FromLabel(label, time.Now().UTC())
}
