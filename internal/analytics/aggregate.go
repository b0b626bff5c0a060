package analytics

import (
	"math"
	"sort"

	"pagelens/internal/pages"
	"pagelens/internal/reporting"
)

// BuildSnapshot merges raw reporting rows into one PageAggregate per
// normalized path and derives conversion rate, conversion value and
// engagement score. Sessions and users are summed across merged rows;
// bounce rate and average duration take the last-merged row's value,
// matching the reporting source's precedence; the first supplied title
// wins over later sentinel or variant rows. Output is sorted descending
// by conversion rate with ties kept in input order.
func BuildSnapshot(rows []reporting.RawPageRow, conversions []reporting.ConversionRow, cfg SnapshotConfig) []PageAggregate {
	byPath := make(map[string]*PageAggregate, len(rows))
	order := make([]string, 0, len(rows))
	titled := make(map[string]bool, len(rows))

	for _, row := range rows {
		path := pages.NormalizePath(row.Path)
		agg, ok := byPath[path]
		if !ok {
			agg = &PageAggregate{
				Path:     path,
				Category: pages.Categorize(path, cfg.Rules, cfg.KnownContent),
			}
			byPath[path] = agg
			order = append(order, path)
		}

		agg.Sessions += row.Sessions
		agg.Users += row.Users
		agg.BounceRate = row.BounceRate
		agg.AvgDuration = row.AvgDuration

		// The first supplied title sticks; sentinel rows never demote it
		// to the slug-derived fallback.
		if !titled[path] {
			agg.Title = pages.ResolveTitle(row.Title, path)
			titled[path] = pages.HasSuppliedTitle(row.Title)
		}
	}

	for _, conv := range conversions {
		path := pages.NormalizePath(conv.Path)
		if agg, ok := byPath[path]; ok {
			agg.Conversions += conv.EventCount
		}
	}

	result := make([]PageAggregate, 0, len(order))
	for _, path := range order {
		agg := byPath[path]
		finalizeAggregate(agg, cfg.ConversionUnitValue)
		result = append(result, *agg)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ConversionRate > result[j].ConversionRate
	})

	return result
}

// finalizeAggregate computes the derived fields once merging is complete.
func finalizeAggregate(agg *PageAggregate, unitValue float64) {
	if agg.Sessions > 0 {
		agg.ConversionRate = round2(float64(agg.Conversions) / float64(agg.Sessions) * 100)
		agg.EngagementScore = round1((1 - agg.BounceRate/100) * (agg.AvgDuration / 60) * 100)
	}
	agg.ConversionValue = float64(agg.Conversions) * unitValue
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
