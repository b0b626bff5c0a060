package sitemap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelens/internal/sitemap"
	"pagelens/internal/testsupport"
)

const sampleSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc>https://example.com/blog/first-post/</loc></url>
  <url><loc>https://example.com/guides/getting-started?ref=sitemap</loc></url>
</urlset>`

func TestParseContentPaths(t *testing.T) {
	set, err := sitemap.ParseContentPaths([]byte(sampleSitemap))
	require.NoError(t, err)

	assert.True(t, set.Contains("/"))
	assert.True(t, set.Contains("/blog/first-post"), "trailing slash should be normalized")
	assert.True(t, set.Contains("/guides/getting-started"), "query string should be stripped")
	assert.False(t, set.Contains("/missing"))
}

func TestParseContentPathsRejectsInvalidXML(t *testing.T) {
	_, err := sitemap.ParseContentPaths([]byte("not xml at all <"))
	assert.Error(t, err)
}

func TestKnownContentPaths(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(sampleSitemap))
	}))
	defer server.Close()

	fetcher := sitemap.NewHTTPFetcher(5*time.Second, testsupport.NewTestLogger())
	set, err := fetcher.KnownContentPaths(context.Background(), server.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.Len(t, set, 3)
}

func TestKnownContentPathsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := sitemap.NewHTTPFetcher(5*time.Second, testsupport.NewTestLogger())
	_, err := fetcher.KnownContentPaths(context.Background(), server.URL+"/sitemap.xml")
	assert.Error(t, err)
}
