package journeys

import (
	"math"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"pagelens/internal/analytics"
	"pagelens/internal/config"
	"pagelens/internal/pages"
)

// Source tags which synthesis mode produced a result. The two modes have
// different semantics (measured journeys vs. illustrative estimate) and must
// never be mixed downstream.
type Source string

const (
	// SourceReal marks journeys replayed from stored journey records.
	SourceReal Source = "real"
	// SourceHeuristic marks journeys estimated from the page table alone.
	SourceHeuristic Source = "heuristic"
)

// Step is one page in a synthesized conversion path.
type Step struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Sessions int64  `json:"sessions"`
}

// ConversionPath is one ranked journey. Ephemeral: recomputed per query and
// never persisted.
type ConversionPath struct {
	Steps                []Step   `json:"steps"`
	Conversions          int64    `json:"conversions"`
	Users                int64    `json:"users"`
	Sessions             int64    `json:"sessions"`
	Percentage           int      `json:"percentage"`
	ConversionRate       float64  `json:"conversion_rate"`
	AvgTimeToConvertDays *float64 `json:"avg_time_to_convert_days,omitempty"`
	AvgTouchpoints       *float64 `json:"avg_touchpoints,omitempty"`
	IsRealData           bool     `json:"is_real_data"`
}

// Synthesis is the tagged result of journey synthesis. The aggregate
// averages are only present in real-data mode.
type Synthesis struct {
	Source               Source           `json:"source"`
	Paths                []ConversionPath `json:"paths"`
	AvgTimeToConvertDays *float64         `json:"avg_time_to_convert_days,omitempty"`
	AvgTouchpoints       *float64         `json:"avg_touchpoints,omitempty"`
}

// IsRealData reports whether the synthesis replayed recorded journeys.
func (s Synthesis) IsRealData() bool {
	return s.Source == SourceReal
}

// realRankShares is the fixed decreasing percentage assigned per journey
// rank in real-data mode; ranks beyond the table get the tail share.
var realRankShares = []int{40, 25, 15, 10, 5}

// SynthesizeForProperty loads the property's stored journey records and
// synthesizes conversion paths against the current page table.
func SynthesizeForProperty(db *gorm.DB, prop config.Property, pageTable []analytics.TrendedPageAggregate) (Synthesis, error) {
	records, err := ListRecords(db, prop.ID)
	if err != nil {
		return Synthesis{}, err
	}
	return Synthesize(prop.Endpoints, pageTable, records), nil
}

// Synthesize produces ranked conversion paths. With at least one stored
// journey record the real-data mode replays them; otherwise the heuristic
// mode estimates funnels from the page table using the property's
// configured endpoint policy.
func Synthesize(endpoints []config.Endpoint, pageTable []analytics.TrendedPageAggregate, records []JourneyRecord) Synthesis {
	if len(records) > 0 {
		return synthesizeReal(pageTable, records)
	}
	return synthesizeHeuristic(endpoints, pageTable)
}

func synthesizeReal(pageTable []analytics.TrendedPageAggregate, records []JourneyRecord) Synthesis {
	sessionsByPath := indexSessions(pageTable)
	totalConversions := lo.SumBy(pageTable, func(p analytics.TrendedPageAggregate) int64 { return p.Conversions })
	totalSessions := lo.SumBy(pageTable, func(p analytics.TrendedPageAggregate) int64 { return p.Sessions })

	paths := make([]ConversionPath, 0, len(records))
	for rank, record := range records {
		share := realRankShares[len(realRankShares)-1]
		if rank < len(realRankShares) {
			share = realRankShares[rank]
		}
		fraction := float64(share) / 100

		steps := lo.Map(record.Path, func(tp Touchpoint, _ int) Step {
			return Step{
				Label:    pages.StepLabel(tp.Path),
				URL:      tp.Path,
				Sessions: sessionsByPath[pages.NormalizePath(tp.Path)],
			}
		})

		// Allocated as a fixed fraction of the property totals; individual
		// journeys are not otherwise weighted against each other.
		conversions := roundToInt(float64(totalConversions) * fraction)
		sessions := roundToInt(float64(totalSessions) * fraction)

		ttc := record.TimeToConvertDays
		touchpoints := float64(record.TouchpointCount)

		paths = append(paths, ConversionPath{
			Steps:                steps,
			Conversions:          conversions,
			Users:                sessions,
			Sessions:             sessions,
			Percentage:           share,
			ConversionRate:       rate(conversions, sessions),
			AvgTimeToConvertDays: &ttc,
			AvgTouchpoints:       &touchpoints,
			IsRealData:           true,
		})
	}

	avgTTC := lo.SumBy(records, func(r JourneyRecord) float64 { return r.TimeToConvertDays }) / float64(len(records))
	avgTouch := lo.SumBy(records, func(r JourneyRecord) float64 { return float64(r.TouchpointCount) }) / float64(len(records))

	return Synthesis{
		Source:               SourceReal,
		Paths:                paths,
		AvgTimeToConvertDays: &avgTTC,
		AvgTouchpoints:       &avgTouch,
	}
}

// maxHeuristicEndpoints bounds how many conversion endpoints the heuristic
// mode considers.
const maxHeuristicEndpoints = 3

type matchedEndpoint struct {
	cfg  config.Endpoint
	page analytics.TrendedPageAggregate
}

func synthesizeHeuristic(endpoints []config.Endpoint, pageTable []analytics.TrendedPageAggregate) Synthesis {
	sessionsByPath := indexSessions(pageTable)

	var matched []matchedEndpoint
	for _, ep := range endpoints {
		if len(matched) == maxHeuristicEndpoints {
			break
		}
		for _, page := range pageTable {
			if strings.Contains(page.Path, ep.PathContains) && page.Conversions > 0 {
				matched = append(matched, matchedEndpoint{cfg: ep, page: page})
				break
			}
		}
	}

	totalConversions := lo.SumBy(matched, func(m matchedEndpoint) int64 { return m.page.Conversions })
	if totalConversions == 0 {
		return Synthesis{Source: SourceHeuristic, Paths: []ConversionPath{}}
	}

	var paths []ConversionPath
	for _, m := range matched {
		if m.cfg.DirectOnly {
			// Product pages converting on-page keep all of their own
			// conversions as a single-step path.
			paths = append(paths, heuristicPath(m.page, nil, m.page.Conversions, 1.0, totalConversions, sessionsByPath))
			continue
		}

		// Rounding each candidate independently can hand out more than the
		// endpoint has; the remainder caps every allocation.
		remaining := m.page.Conversions
		for _, funnel := range m.cfg.Funnels {
			if remaining == 0 {
				break
			}
			allocated := roundToInt(float64(m.page.Conversions) * funnel.Fraction)
			if allocated > remaining {
				allocated = remaining
			}
			if allocated == 0 {
				continue
			}
			remaining -= allocated
			paths = append(paths, heuristicPath(m.page, funnel.Steps, allocated, funnel.Fraction, totalConversions, sessionsByPath))
		}
	}

	// Percentages are rounded per path, so their sum gets the same cap.
	percentLeft := 100
	for i := range paths {
		if paths[i].Percentage > percentLeft {
			paths[i].Percentage = percentLeft
		}
		percentLeft -= paths[i].Percentage
	}

	return Synthesis{Source: SourceHeuristic, Paths: paths}
}

// heuristicPath builds one candidate path ending at the endpoint page.
func heuristicPath(endpoint analytics.TrendedPageAggregate, prefixPaths []string, allocated int64, fraction float64, totalConversions int64, sessionsByPath map[string]int64) ConversionPath {
	stepPaths := append(append([]string{}, prefixPaths...), endpoint.Path)

	steps := lo.Map(stepPaths, func(p string, _ int) Step {
		normalized := pages.NormalizePath(p)
		return Step{
			Label:    pages.StepLabel(normalized),
			URL:      normalized,
			Sessions: sessionsByPath[normalized],
		}
	})

	return ConversionPath{
		Steps:          steps,
		Conversions:    allocated,
		Users:          roundToInt(float64(endpoint.Users) * fraction),
		Sessions:       roundToInt(float64(endpoint.Sessions) * fraction),
		Percentage:     int(math.Round(float64(allocated) / float64(totalConversions) * 100)),
		ConversionRate: endpoint.ConversionRate,
		IsRealData:     false,
	}
}

func indexSessions(pageTable []analytics.TrendedPageAggregate) map[string]int64 {
	index := make(map[string]int64, len(pageTable))
	for _, p := range pageTable {
		index[p.Path] = p.Sessions
	}
	return index
}

func rate(conversions, sessions int64) float64 {
	if sessions == 0 {
		return 0
	}
	return math.Round(float64(conversions)/float64(sessions)*100*100) / 100
}

func roundToInt(v float64) int64 {
	return int64(math.Round(v))
}
