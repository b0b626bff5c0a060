package http

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"pagelens/internal/events"
	"pagelens/internal/http/middleware"
	"pagelens/internal/pkg/geoip"
)

// CountryStat is one row of the audience country breakdown.
type CountryStat struct {
	Country  string `json:"country"`
	Sessions int64  `json:"sessions"`
}

// CountriesHandler serves the per-country session breakdown.
type CountriesHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewCountriesHandler creates the countries handler.
func NewCountriesHandler(db *gorm.DB, logger *slog.Logger) *CountriesHandler {
	return &CountriesHandler{db: db, logger: logger}
}

// GetCountries handles GET requests for session counts by country. Stored
// ISO codes are resolved to display names.
func (h *CountriesHandler) GetCountries(c *fiber.Ctx) error {
	prop, ok := middleware.PropertyFromLocals(c)
	if !ok {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Property not resolved"})
	}

	dateRange, err := parseDateRange(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	counts, err := events.SessionsByCountry(h.db, prop.ID, dateRange.From, dateRange.To)
	if err != nil {
		h.logger.Error("Failed to fetch country breakdown",
			slog.String("property", prop.ID),
			slog.Any("error", err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch country breakdown"})
	}

	return c.JSON(fiber.Map{
		"property":  prop.ID,
		"from":      dateRange.From.Format(dateParamLayout),
		"to":        dateRange.To.Format(dateParamLayout),
		"countries": displayNames(counts),
	})
}

// displayNames converts stored ISO country codes into display names, keeping
// the upper-cased code when lookup fails.
func displayNames(counts []events.CountryCount) []CountryStat {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]CountryStat, len(counts))
	for i, item := range counts {
		name := item.Country
		if item.Country == geoip.UnknownCountry {
			name = "Unknown"
		} else if country, err := countries.FindCountryByAlpha(item.Country); err == nil {
			name = country.Name.Common
		} else {
			name = caser.String(item.Country)
		}
		result[i] = CountryStat{Country: name, Sessions: item.Sessions}
	}
	return result
}
