package pages

import "strings"

// landmarkLabels maps well-known site paths to fixed journey step labels.
var landmarkLabels = map[string]string{
	"/":         "Homepage",
	"/pricing":  "Pricing",
	"/contact":  "Contact",
	"/about":    "About",
	"/features": "Features",
}

// StepLabel derives a journey step label for a path. Landmark paths get a
// fixed name, blog paths a label derived from the post slug, and anything
// else a title-cased form of its last segment.
func StepLabel(path string) string {
	normalized := NormalizePath(path)

	if label, ok := landmarkLabels[normalized]; ok {
		return label
	}

	if strings.Contains(normalized, "/blog") {
		slug := lastSegment(normalized)
		if slug == "" || slug == "blog" {
			return "Blog"
		}
		return "Blog: " + TitleFromSlug(slug)
	}

	segment := lastSegment(normalized)
	if segment == "" {
		return UntitledTitle
	}
	return TitleFromSlug(segment)
}
