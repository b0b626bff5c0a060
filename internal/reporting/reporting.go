// Package reporting defines the contract for the external per-page metrics
// source and ships an HTTP implementation of it. The core never retries; all
// retry/backoff policy for the upstream API lives here.
package reporting

import (
	"context"

	"pagelens/internal/timeframe"
)

// RawPageRow is one per-page measurement row as returned by the reporting
// API. Multiple rows may share a path after normalization (title variants)
// and are merged downstream.
type RawPageRow struct {
	Path        string  `json:"path"`
	Title       string  `json:"title"`
	Sessions    int64   `json:"sessions"`
	Users       int64   `json:"users"`
	BounceRate  float64 `json:"bounce_rate"`
	AvgDuration float64 `json:"avg_duration"`
}

// ConversionRow is the count of one conversion event per page path.
type ConversionRow struct {
	Path       string `json:"path"`
	EventCount int64  `json:"event_count"`
}

// FilterSet scopes a query to one domain/property on the reporting side.
type FilterSet struct {
	Domain string
}

// Source is the abstract reporting collaborator.
type Source interface {
	FetchPageRows(ctx context.Context, dateRange timeframe.DateRange, filter FilterSet) ([]RawPageRow, error)
	FetchConversionRows(ctx context.Context, eventName string, dateRange timeframe.DateRange, filter FilterSet) ([]ConversionRow, error)
}
