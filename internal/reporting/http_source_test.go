package reporting_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelens/internal/reporting"
	"pagelens/internal/testsupport"
	"pagelens/internal/timeframe"
)

func testRange(t *testing.T) timeframe.DateRange {
	r, err := timeframe.NewDateRange(
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func TestFetchPageRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("from"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"rows":[{"path":"/pricing","title":"Pricing","sessions":50,"users":40,"bounce_rate":35.5,"avg_duration":92}]}`))
	}))
	defer server.Close()

	source := reporting.NewHTTPSource(reporting.HTTPSourceConfig{
		BaseURL: server.URL,
		APIKey:  "secret",
	}, testsupport.NewTestLogger())

	rows, err := source.FetchPageRows(context.Background(), testRange(t), reporting.FilterSet{Domain: "example.com"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/pricing", rows[0].Path)
	assert.Equal(t, int64(50), rows[0].Sessions)
	assert.Equal(t, 35.5, rows[0].BounceRate)
}

func TestFetchConversionRowsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"rows":[{"path":"/request-demo","event_count":7}]}`))
	}))
	defer server.Close()

	source := reporting.NewHTTPSource(reporting.HTTPSourceConfig{
		BaseURL:    server.URL,
		MaxRetries: 5,
	}, testsupport.NewTestLogger())

	rows, err := source.FetchConversionRows(context.Background(), "demo_request", testRange(t), reporting.FilterSet{Domain: "example.com"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(7), rows[0].EventCount)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchPageRowsDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	source := reporting.NewHTTPSource(reporting.HTTPSourceConfig{
		BaseURL:    server.URL,
		MaxRetries: 5,
	}, testsupport.NewTestLogger())

	_, err := source.FetchPageRows(context.Background(), testRange(t), reporting.FilterSet{Domain: "example.com"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
