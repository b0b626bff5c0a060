package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"pagelens/internal/timeframe"
)

const dateFormat = "2006-01-02"

// HTTPSourceConfig configures the reporting API client.
type HTTPSourceConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	MaxRetries     int
}

// HTTPSource fetches per-page rows from the external reporting API over
// HTTP/JSON. Transient failures are retried with backoff.
type HTTPSource struct {
	cfg    HTTPSourceConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSource creates a reporting API client.
func NewHTTPSource(cfg HTTPSourceConfig, logger *slog.Logger) *HTTPSource {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// FetchPageRows retrieves per-page traffic rows for a date range and filter.
func (s *HTTPSource) FetchPageRows(ctx context.Context, dateRange timeframe.DateRange, filter FilterSet) ([]RawPageRow, error) {
	query := url.Values{
		"from":   {dateRange.From.UTC().Format(dateFormat)},
		"to":     {dateRange.To.UTC().Format(dateFormat)},
		"domain": {filter.Domain},
	}

	var payload struct {
		Rows []RawPageRow `json:"rows"`
	}
	if err := s.getJSON(ctx, "/v1/pages", query, &payload); err != nil {
		return nil, fmt.Errorf("reporting: fetch page rows: %w", err)
	}
	return payload.Rows, nil
}

// FetchConversionRows retrieves per-page counts for one conversion event.
func (s *HTTPSource) FetchConversionRows(ctx context.Context, eventName string, dateRange timeframe.DateRange, filter FilterSet) ([]ConversionRow, error) {
	query := url.Values{
		"from":   {dateRange.From.UTC().Format(dateFormat)},
		"to":     {dateRange.To.UTC().Format(dateFormat)},
		"domain": {filter.Domain},
		"event":  {eventName},
	}

	var payload struct {
		Rows []ConversionRow `json:"rows"`
	}
	if err := s.getJSON(ctx, "/v1/conversions", query, &payload); err != nil {
		return nil, fmt.Errorf("reporting: fetch conversion rows for %q: %w", eventName, err)
	}
	return payload.Rows, nil
}

// getJSON performs a GET with retry/backoff and decodes the JSON response.
// 4xx responses are not retried; they indicate a request problem, not a
// transient upstream failure.
func (s *HTTPSource) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := s.cfg.BaseURL + path + "?" + query.Encode()

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if s.cfg.APIKey != "" {
				req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
			}

			resp, err := s.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return retry.Unrecoverable(fmt.Errorf("upstream rejected request: %s: %s", resp.Status, body))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("upstream returned %s", resp.Status)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decoding response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.MaxRetries)),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("Retrying reporting API request",
				slog.String("path", path),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err))
		}),
	)
}
