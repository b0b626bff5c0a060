package pages_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagelens/internal/pages"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path collapses to root", "", "/"},
		{"root stays root", "/", "/"},
		{"index collapses to root", "/index", "/"},
		{"home collapses to root", "/home", "/"},
		{"query string stripped", "/blog/post?utm=x", "/blog/post"},
		{"trailing slash stripped", "/blog/post/", "/blog/post"},
		{"already normalized unchanged", "/blog/post", "/blog/post"},
		{"trailing slash with query", "/pricing/?ref=nav", "/pricing"},
		{"bare query string", "?utm=x", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pages.NormalizePath(tt.input))
		})
	}
}

func TestNormalizePathIsIdempotent(t *testing.T) {
	inputs := []string{"", "/", "/index", "/home/", "/blog/post?utm=x", "/pricing/", "/a/b/c"}
	for _, input := range inputs {
		once := pages.NormalizePath(input)
		assert.Equal(t, once, pages.NormalizePath(once), "input %q", input)
	}
}

func TestCategorize(t *testing.T) {
	rules := pages.CategorizerRules{ProductKeywords: []string{"/software", "/product"}}
	known := pages.NewContentSet("/blog/a", "/guides/getting-started")

	tests := []struct {
		name     string
		path     string
		expected pages.Category
	}{
		{"root is homepage", "/", pages.CategoryHomepage},
		{"blog segment", "/blog/some-post", pages.CategoryBlog},
		{"known content without blog segment", "/guides/getting-started", pages.CategoryBlog},
		{"pricing keyword", "/pricing", pages.CategoryPricing},
		{"plans keyword", "/plans/enterprise", pages.CategoryPricing},
		{"product keyword", "/software/scheduler", pages.CategoryProduct},
		{"company keyword", "/about", pages.CategoryCompany},
		{"fallback", "/random-page", pages.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pages.Categorize(tt.path, rules, known))
		})
	}
}

func TestCategorizeHomepageWinsOverKnownContent(t *testing.T) {
	// Root in the known-content set must still classify as Homepage: earlier
	// rules win on conflict.
	known := pages.NewContentSet("/")
	got := pages.Categorize("/", pages.CategorizerRules{}, known)
	assert.Equal(t, pages.CategoryHomepage, got)
}

func TestCategorizeKnownContentBeatsProduct(t *testing.T) {
	rules := pages.CategorizerRules{ProductKeywords: []string{"/software"}}
	known := pages.NewContentSet("/software/announcement")
	got := pages.Categorize("/software/announcement", rules, known)
	assert.Equal(t, pages.CategoryBlog, got)
}

func TestResolveTitle(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		path     string
		expected string
	}{
		{"supplied title wins", "My Post", "/blog/my-post", "My Post"},
		{"not-set sentinel ignored", "(not set)", "/blog/my-post", "My Post"},
		{"empty title derives from slug", "", "/blog/getting-started", "Getting Started"},
		{"underscores become spaces", "", "/docs/api_reference", "Api Reference"},
		{"root is home page", "", "/", pages.HomeTitle},
		{"never empty", "", "///", pages.UntitledTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pages.ResolveTitle(tt.title, tt.path))
		})
	}
}

func TestStepLabel(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/", "Homepage"},
		{"/pricing", "Pricing"},
		{"/pricing/", "Pricing"},
		{"/contact", "Contact"},
		{"/about", "About"},
		{"/features", "Features"},
		{"/blog/how-to-scale", "Blog: How To Scale"},
		{"/blog", "Blog"},
		{"/software/scheduler", "Scheduler"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, pages.StepLabel(tt.path))
		})
	}
}
