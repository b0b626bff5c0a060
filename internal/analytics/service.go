package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"pagelens/internal/config"
	"pagelens/internal/pages"
	"pagelens/internal/pkg/async"
	"pagelens/internal/reporting"
	"pagelens/internal/sitemap"
	"pagelens/internal/timeframe"
)

// Service orchestrates the page table computation: it resolves the property,
// fetches all snapshot inputs concurrently and runs aggregation once every
// input has returned.
type Service struct {
	source     reporting.Source
	sitemaps   sitemap.Fetcher
	properties *config.Properties
	logger     *slog.Logger
}

// NewService creates the analytics service.
func NewService(source reporting.Source, sitemaps sitemap.Fetcher, properties *config.Properties, logger *slog.Logger) *Service {
	return &Service{
		source:     source,
		sitemaps:   sitemaps,
		properties: properties,
		logger:     logger,
	}
}

const fetchWorkers = 6

// snapshotInputs holds the raw inputs for one period's snapshot.
type snapshotInputs struct {
	rows        []reporting.RawPageRow
	conversions []reporting.ConversionRow
}

// ComputePageTable builds the trend-annotated per-page table for a property.
// compareRange may be nil, in which case the period immediately preceding
// currentRange is used. An unknown property fails fast; a failed collaborator
// fetch contributes an empty result set and is logged as a warning so data
// completeness can be audited.
func (s *Service) ComputePageTable(ctx context.Context, propertyID string, currentRange timeframe.DateRange, compareRange *timeframe.DateRange) ([]TrendedPageAggregate, error) {
	prop, err := s.properties.Get(propertyID)
	if err != nil {
		return nil, err
	}

	previousRange := currentRange.Previous()
	if compareRange != nil {
		previousRange = *compareRange
	}

	filter := reporting.FilterSet{Domain: prop.Domain}

	tasks := []async.Task{
		{
			Name: "currentPages",
			Execute: func() (any, error) {
				return s.source.FetchPageRows(ctx, currentRange, filter)
			},
		},
		{
			Name: "previousPages",
			Execute: func() (any, error) {
				return s.source.FetchPageRows(ctx, previousRange, filter)
			},
		},
		{
			Name: "knownContent",
			Execute: func() (any, error) {
				if prop.SitemapURL == "" {
					return pages.ContentSet{}, nil
				}
				return s.sitemaps.KnownContentPaths(ctx, prop.SitemapURL)
			},
		},
	}

	for _, event := range prop.ConversionEvents {
		event := event
		tasks = append(tasks,
			async.Task{
				Name: "currentConversions:" + event,
				Execute: func() (any, error) {
					return s.source.FetchConversionRows(ctx, event, currentRange, filter)
				},
			},
			async.Task{
				Name: "previousConversions:" + event,
				Execute: func() (any, error) {
					return s.source.FetchConversionRows(ctx, event, previousRange, filter)
				},
			},
		)
	}

	results := async.NewPool(fetchWorkers).Execute(ctx, tasks)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("page table computation cancelled: %w", err)
	}

	current := snapshotInputs{
		rows: resultAs[[]reporting.RawPageRow](s.logger, results, "currentPages"),
	}
	previous := snapshotInputs{
		rows: resultAs[[]reporting.RawPageRow](s.logger, results, "previousPages"),
	}
	for _, event := range prop.ConversionEvents {
		current.conversions = append(current.conversions,
			resultAs[[]reporting.ConversionRow](s.logger, results, "currentConversions:"+event)...)
		previous.conversions = append(previous.conversions,
			resultAs[[]reporting.ConversionRow](s.logger, results, "previousConversions:"+event)...)
	}
	knownContent := resultAs[pages.ContentSet](s.logger, results, "knownContent")

	cfg := SnapshotConfig{
		Rules:               pages.CategorizerRules{ProductKeywords: prop.ProductKeywords},
		KnownContent:        knownContent,
		ConversionUnitValue: prop.ConversionUnitValue,
	}

	currentSnapshot := BuildSnapshot(current.rows, current.conversions, cfg)
	previousSnapshot := BuildSnapshot(previous.rows, previous.conversions, cfg)

	return ApplyTrends(currentSnapshot, previousSnapshot), nil
}

// resultAs extracts one task result, converting a failed or missing fetch
// into the zero value. Partial dashboards are preferable to none, so
// collaborator errors degrade to an empty contribution with a warning.
func resultAs[T any](logger *slog.Logger, results map[string]async.Result, name string) T {
	var zero T

	res, ok := results[name]
	if !ok {
		logger.Warn("Snapshot input missing", slog.String("input", name))
		return zero
	}
	if res.Err != nil {
		logger.Warn("Snapshot input unavailable, proceeding with empty contribution",
			slog.String("input", name),
			slog.Any("error", res.Err))
		return zero
	}

	data, ok := res.Data.(T)
	if !ok {
		logger.Warn("Snapshot input has unexpected type", slog.String("input", name))
		return zero
	}
	return data
}
