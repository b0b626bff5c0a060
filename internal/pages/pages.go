// Package pages provides path normalization, page categorization and title
// resolution for building per-page aggregates. All functions are pure and
// deterministic so aggregation results never depend on row order.
package pages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category classifies a page by its content role on the site.
type Category string

const (
	CategoryHomepage Category = "Homepage"
	CategoryBlog     Category = "Blog"
	CategoryPricing  Category = "Pricing"
	CategoryProduct  Category = "Product"
	CategoryCompany  Category = "Company"
	CategoryOther    Category = "Other"
)

const (
	// HomeTitle is the fixed label for the root path.
	HomeTitle = "Home Page"
	// UntitledTitle is the fallback when no title can be derived.
	UntitledTitle = "Untitled Page"
	// unsetTitleSentinel is the reporting API's marker for a missing title.
	unsetTitleSentinel = "(not set)"
)

var titleCaser = cases.Title(language.English)

// NormalizePath canonicalizes a raw path into a stable grouping key.
// Query strings are stripped, "/index" and "/home" collapse to "/", and a
// single trailing slash is removed unless the result would be empty.
// Idempotent: NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(raw string) string {
	path := raw
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}

	if path == "" || path == "/" || path == "/index" || path == "/home" {
		return "/"
	}

	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}

	return path
}

// ContentSet is a set of known content paths (normalized), typically sourced
// from the property's sitemap.
type ContentSet map[string]struct{}

// NewContentSet builds a ContentSet, normalizing each entry.
func NewContentSet(paths ...string) ContentSet {
	set := make(ContentSet, len(paths))
	for _, p := range paths {
		set[NormalizePath(p)] = struct{}{}
	}
	return set
}

// Contains reports whether the normalized path is in the set.
func (s ContentSet) Contains(path string) bool {
	_, ok := s[path]
	return ok
}

// CategorizerRules carries the per-property keyword lists consulted during
// categorization. Shared keywords (blog, pricing, company) are fixed; product
// keywords vary per property.
type CategorizerRules struct {
	ProductKeywords []string
}

var (
	pricingKeywords = []string{"/pricing", "/plans"}
	companyKeywords = []string{"/about", "/team", "/contact", "/careers", "/company"}
)

// Categorize classifies a normalized path into a content category. Rule order
// is significant: earlier rules win on conflict, so the root path is always
// Homepage even when listed in the known-content set.
func Categorize(path string, rules CategorizerRules, known ContentSet) Category {
	if path == "/" {
		return CategoryHomepage
	}

	if strings.Contains(path, "/blog") || known.Contains(path) {
		return CategoryBlog
	}

	for _, kw := range pricingKeywords {
		if strings.Contains(path, kw) {
			return CategoryPricing
		}
	}

	for _, kw := range rules.ProductKeywords {
		if kw != "" && strings.Contains(path, kw) {
			return CategoryProduct
		}
	}

	for _, kw := range companyKeywords {
		if strings.Contains(path, kw) {
			return CategoryCompany
		}
	}

	return CategoryOther
}

// ResolveTitle returns a human-readable label for a page. A supplied title
// wins unless it is empty or the reporting API's "(not set)" sentinel; the
// fallback derives a title from the final path segment.
func ResolveTitle(title, path string) string {
	if HasSuppliedTitle(title) {
		return title
	}

	if path == "/" {
		return HomeTitle
	}

	segment := lastSegment(path)
	if segment == "" {
		return UntitledTitle
	}

	return TitleFromSlug(segment)
}

// HasSuppliedTitle reports whether title is a real page title rather than
// empty or the reporting API's "(not set)" sentinel.
func HasSuppliedTitle(title string) bool {
	return title != "" && title != unsetTitleSentinel
}

// TitleFromSlug converts a URL slug into a title-cased label, replacing
// separator characters with spaces.
func TitleFromSlug(slug string) string {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	replaced = strings.TrimSpace(replaced)
	if replaced == "" {
		return UntitledTitle
	}
	return titleCaser.String(replaced)
}

func lastSegment(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}
