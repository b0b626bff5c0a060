// Package sitemap fetches a property's sitemap.xml and extracts the set of
// known content paths used to seed page categorization.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"pagelens/internal/pages"
)

// Fetcher is the abstract known-content-path collaborator.
type Fetcher interface {
	KnownContentPaths(ctx context.Context, sitemapURL string) (pages.ContentSet, error)
}

// HTTPFetcher downloads and parses sitemap.xml documents.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher creates a sitemap fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// KnownContentPaths fetches the sitemap and returns the normalized paths of
// every listed URL.
func (f *HTTPFetcher) KnownContentPaths(ctx context.Context, sitemapURL string) (pages.ContentSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("sitemap: building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sitemap: fetching %s: %w", sitemapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sitemap: %s returned %s", sitemapURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("sitemap: reading response: %w", err)
	}

	set, err := ParseContentPaths(body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched sitemap",
		slog.String("url", sitemapURL),
		slog.Int("paths", len(set)))
	return set, nil
}

// ParseContentPaths extracts normalized paths from sitemap XML bytes.
func ParseContentPaths(data []byte) (pages.ContentSet, error) {
	var doc urlSet
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("sitemap: invalid XML: %w", err)
	}

	set := make(pages.ContentSet, len(doc.URLs))
	for _, entry := range doc.URLs {
		parsed, err := url.Parse(entry.Loc)
		if err != nil || parsed.Path == "" {
			continue
		}
		set[pages.NormalizePath(parsed.Path)] = struct{}{}
	}
	return set, nil
}
