// Package botfilter detects crawler and bot user agents so their traffic is
// excluded at ingest time.
package botfilter

import (
	"strings"
	"sync"

	"go.elara.ws/pcre"
)

// botPattern matches the common crawler/bot signatures. PCRE is used for
// compatibility with the upstream device-detector pattern syntax.
const botPattern = `(?i)(bot|crawler|spider|crawling|scraper|slurp|facebookexternalhit|whatsapp|telegram|headlesschrome|phantomjs|lighthouse|pingdom|uptimerobot|googlebot|bingbot|yandex|baiduspider|duckduckbot|applebot|semrush|ahrefs|mj12bot|dotbot|petalbot)`

var (
	compileOnce sync.Once
	botRegex    *pcre.Regexp
)

// IsBot reports whether a User-Agent string belongs to a known bot. Empty
// user agents are treated as bots: real browsers always send one.
func IsBot(userAgent string) bool {
	if strings.TrimSpace(userAgent) == "" {
		return true
	}

	compileOnce.Do(func() {
		botRegex = pcre.MustCompile(botPattern)
	})

	return botRegex.MatchString(userAgent)
}
