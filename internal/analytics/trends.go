package analytics

// newPageTrend is the sentinel delta for a metric that was zero in the
// comparison period but nonzero now.
const newPageTrend = 100.0

// ApplyTrends annotates each current aggregate with percentage deltas
// against the comparison snapshot. Pages absent from the previous snapshot
// are treated as having all-zero previous values, so every delta comes out
// as either 0 or the "new" sentinel. The same policy applies to all three
// metrics.
func ApplyTrends(current, previous []PageAggregate) []TrendedPageAggregate {
	prevByPath := make(map[string]PageAggregate, len(previous))
	for _, p := range previous {
		prevByPath[p.Path] = p
	}

	result := make([]TrendedPageAggregate, 0, len(current))
	for _, cur := range current {
		trended := TrendedPageAggregate{PageAggregate: cur}

		prev, existed := prevByPath[cur.Path]
		trended.Trend = trendBetween(cur.ConversionRate, prev.ConversionRate)
		trended.SessionsTrend = trendBetween(float64(cur.Sessions), float64(prev.Sessions))
		trended.ConversionsTrend = trendBetween(float64(cur.Conversions), float64(prev.Conversions))
		if existed {
			prevCopy := prev
			trended.Previous = &prevCopy
		}

		result = append(result, trended)
	}

	return result
}

// trendBetween computes the percentage delta under the zero-denominator
// policy: previous > 0 gives the usual relative change rounded to one
// decimal, previous == 0 with current > 0 is reported as the fixed "new"
// sentinel, and both zero is 0.
func trendBetween(current, previous float64) float64 {
	switch {
	case previous > 0:
		return round1((current - previous) / previous * 100)
	case current > 0:
		return newPageTrend
	default:
		return 0
	}
}
