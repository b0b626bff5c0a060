// Package analytics builds the normalized, categorized, trend-annotated
// per-page performance table from raw reporting rows.
//
// The package is organized into focused modules:
//   - analytics.go: aggregate model definitions
//   - aggregate.go: raw row merging and derived metric computation
//   - trends.go: period-over-period trend calculation
//   - service.go: orchestration of the concurrent input fetches
package analytics

import "pagelens/internal/pages"

// PageAggregate is one merged record per normalized path within a snapshot.
// Sessions, users and conversions are monotonically accumulated during the
// merge, never decremented.
type PageAggregate struct {
	Path            string         `json:"path"`
	Title           string         `json:"title"`
	Category        pages.Category `json:"category"`
	Sessions        int64          `json:"sessions"`
	Users           int64          `json:"users"`
	BounceRate      float64        `json:"bounce_rate"`
	AvgDuration     float64        `json:"avg_duration"`
	Conversions     int64          `json:"conversions"`
	ConversionRate  float64        `json:"conversion_rate"`
	ConversionValue float64        `json:"conversion_value"`
	EngagementScore float64        `json:"engagement_score"`
}

// TrendedPageAggregate is a PageAggregate annotated with percentage deltas
// against the comparison period. Created once per dashboard query and
// immutable after construction; never persisted.
type TrendedPageAggregate struct {
	PageAggregate

	Trend            float64        `json:"trend"`
	SessionsTrend    float64        `json:"sessions_trend"`
	ConversionsTrend float64        `json:"conversions_trend"`
	Previous         *PageAggregate `json:"previous,omitempty"`
}

// SnapshotConfig carries the per-property inputs the aggregator needs.
type SnapshotConfig struct {
	Rules               pages.CategorizerRules
	KnownContent        pages.ContentSet
	ConversionUnitValue float64
}
