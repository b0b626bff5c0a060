// Package geoip wraps the optional GeoLite2 country database used to enrich
// recorded sessions. When the database file is absent, lookups degrade to the
// unknown country rather than failing ingestion.
package geoip

import (
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// UnknownCountry is returned when no country can be resolved.
const UnknownCountry = "unknown"

var (
	geoDB  *geoip2.Reader
	mu     sync.RWMutex
	logger *slog.Logger
)

// InitLogger sets the logger for the geoip package.
func InitLogger(l *slog.Logger) {
	logger = l
}

// Init opens the GeoLite2 database at the given path. GeoIP is optional:
// a missing file disables lookups without error.
func Init(path string) {
	if path == "" {
		if logger != nil {
			logger.Debug("GeoIP database path not configured - country enrichment disabled")
		}
		return
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if logger != nil {
			logger.Info("GeoLite2 database not found - country enrichment disabled",
				slog.String("path", path),
				slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		}
		return
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		if logger != nil {
			logger.Warn("Failed to open GeoLite2 database",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return
	}

	mu.Lock()
	geoDB = reader
	mu.Unlock()

	if logger != nil {
		logger.Info("GeoLite2 database loaded", slog.String("path", path))
	}
}

// Close releases the database handle.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if geoDB != nil {
		geoDB.Close()
		geoDB = nil
	}
}

// CountryFromIP resolves an IP address to a lowercase ISO country code or
// UnknownCountry. The IP is never stored, only resolved.
func CountryFromIP(ipAddress string) string {
	mu.RLock()
	reader := geoDB
	mu.RUnlock()

	if reader == nil {
		return UnknownCountry
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return UnknownCountry
	}

	record, err := reader.Country(ip)
	if err != nil {
		if logger != nil {
			logger.Debug("Country lookup failed",
				slog.String("ip_address", ipAddress),
				slog.Any("error", err))
		}
		return UnknownCountry
	}

	code := record.Country.IsoCode
	if code == "" || code == "--" {
		return UnknownCountry
	}
	return strings.ToLower(code)
}
