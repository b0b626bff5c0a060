package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelens/internal/analytics"
	"pagelens/internal/pages"
	"pagelens/internal/reporting"
)

func snapshotConfig() analytics.SnapshotConfig {
	return analytics.SnapshotConfig{
		Rules:               pages.CategorizerRules{ProductKeywords: []string{"/software"}},
		KnownContent:        pages.ContentSet{},
		ConversionUnitValue: 150,
	}
}

func TestBuildSnapshotMergesRowsByNormalizedPath(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/pricing/", Title: "Pricing", Sessions: 50, Users: 40, BounceRate: 30, AvgDuration: 60},
		{Path: "/pricing", Title: "Pricing | Example", Sessions: 30, Users: 20, BounceRate: 40, AvgDuration: 90},
	}

	result := analytics.BuildSnapshot(rows, nil, snapshotConfig())
	require.Len(t, result, 1)

	agg := result[0]
	assert.Equal(t, "/pricing", agg.Path)
	assert.Equal(t, int64(80), agg.Sessions)
	assert.Equal(t, int64(60), agg.Users)
	// Quality metrics take the last-merged row's value.
	assert.Equal(t, 40.0, agg.BounceRate)
	assert.Equal(t, 90.0, agg.AvgDuration)
	assert.Equal(t, pages.CategoryPricing, agg.Category)
}

func TestBuildSnapshotMergesSessions(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/blog/a", Sessions: 10},
		{Path: "/blog/a?utm=x", Sessions: 15},
	}

	result := analytics.BuildSnapshot(rows, nil, snapshotConfig())
	require.Len(t, result, 1)
	assert.Equal(t, int64(25), result[0].Sessions)
}

func TestBuildSnapshotDerivedMetrics(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/request-demo", Sessions: 40, BounceRate: 25, AvgDuration: 120},
	}
	conversions := []reporting.ConversionRow{
		{Path: "/request-demo/", EventCount: 6},
	}

	result := analytics.BuildSnapshot(rows, conversions, snapshotConfig())
	require.Len(t, result, 1)

	agg := result[0]
	assert.Equal(t, int64(6), agg.Conversions)
	assert.Equal(t, 15.0, agg.ConversionRate)
	assert.Equal(t, 900.0, agg.ConversionValue)
	// (1 - 25/100) * (120/60) * 100 = 150.0
	assert.Equal(t, 150.0, agg.EngagementScore)
}

func TestBuildSnapshotZeroSessionsNeverDivides(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/empty", Sessions: 0, BounceRate: 50, AvgDuration: 30},
	}
	conversions := []reporting.ConversionRow{
		{Path: "/empty", EventCount: 3},
	}

	result := analytics.BuildSnapshot(rows, conversions, snapshotConfig())
	require.Len(t, result, 1)
	assert.Equal(t, 0.0, result[0].ConversionRate)
	assert.Equal(t, 0.0, result[0].EngagementScore)
	// Conversion value still accrues.
	assert.Equal(t, 450.0, result[0].ConversionValue)
}

func TestBuildSnapshotUnmatchedConversionRowIgnored(t *testing.T) {
	rows := []reporting.RawPageRow{{Path: "/present", Sessions: 10}}
	conversions := []reporting.ConversionRow{{Path: "/absent", EventCount: 5}}

	result := analytics.BuildSnapshot(rows, conversions, snapshotConfig())
	require.Len(t, result, 1)
	assert.Equal(t, int64(0), result[0].Conversions)
}

func TestBuildSnapshotOrderedByConversionRate(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/low", Sessions: 100},
		{Path: "/high", Sessions: 10},
		{Path: "/mid", Sessions: 50},
	}
	conversions := []reporting.ConversionRow{
		{Path: "/low", EventCount: 1},
		{Path: "/high", EventCount: 5},
		{Path: "/mid", EventCount: 10},
	}

	result := analytics.BuildSnapshot(rows, conversions, snapshotConfig())
	require.Len(t, result, 3)
	assert.Equal(t, "/high", result[0].Path)
	assert.Equal(t, "/mid", result[1].Path)
	assert.Equal(t, "/low", result[2].Path)
}

func TestBuildSnapshotStableTieBreakByInputOrder(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/first", Sessions: 10},
		{Path: "/second", Sessions: 20},
		{Path: "/third", Sessions: 30},
	}

	result := analytics.BuildSnapshot(rows, nil, snapshotConfig())
	require.Len(t, result, 3)
	assert.Equal(t, "/first", result[0].Path)
	assert.Equal(t, "/second", result[1].Path)
	assert.Equal(t, "/third", result[2].Path)
}

func TestBuildSnapshotTitleResolution(t *testing.T) {
	rows := []reporting.RawPageRow{
		{Path: "/blog/scaling-postgres", Title: "(not set)", Sessions: 5},
	}

	result := analytics.BuildSnapshot(rows, nil, snapshotConfig())
	require.Len(t, result, 1)
	assert.Equal(t, "Scaling Postgres", result[0].Title)
}

func TestBuildSnapshotKeepsSuppliedTitleAcrossMergedRows(t *testing.T) {
	tests := []struct {
		name  string
		rows  []reporting.RawPageRow
		title string
	}{
		{
			name: "sentinel row after a real title",
			rows: []reporting.RawPageRow{
				{Path: "/blog/scaling-postgres", Title: "Scaling Postgres to 1M Rows", Sessions: 5},
				{Path: "/blog/scaling-postgres/", Title: "(not set)", Sessions: 3},
			},
			title: "Scaling Postgres to 1M Rows",
		},
		{
			name: "real title after a sentinel row",
			rows: []reporting.RawPageRow{
				{Path: "/blog/scaling-postgres", Title: "(not set)", Sessions: 5},
				{Path: "/blog/scaling-postgres", Title: "Scaling Postgres to 1M Rows", Sessions: 3},
			},
			title: "Scaling Postgres to 1M Rows",
		},
		{
			name: "first supplied title wins over later variants",
			rows: []reporting.RawPageRow{
				{Path: "/pricing", Title: "Pricing", Sessions: 5},
				{Path: "/pricing/", Title: "Pricing | Example", Sessions: 3},
			},
			title: "Pricing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analytics.BuildSnapshot(tt.rows, nil, snapshotConfig())
			require.Len(t, result, 1)
			assert.Equal(t, tt.title, result[0].Title)
		})
	}
}
