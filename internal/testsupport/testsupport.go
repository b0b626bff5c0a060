// Package testsupport provides shared helpers for package tests: an
// in-memory database with the full schema and factories for recorded events.
package testsupport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pagelens/internal/events"
	"pagelens/internal/journeys"
)

// NewTestLogger returns a logger that discards output. Tests assert on
// behavior, not log lines.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// allModels returns every model migrated into test databases.
func allModels() []any {
	return []any{
		&events.Session{},
		&events.PageView{},
		&events.Conversion{},
		&journeys.JourneyRecord{},
	}
}

// SetupTestDB creates an isolated in-memory database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One shared-cache memory database per test so concurrent connections in
	// the same test see the same data.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(allModels()...))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateSession inserts a session with page views spaced a minute apart
// starting at startedAt, and returns the session.
func CreateSession(t *testing.T, db *gorm.DB, property, visitorID string, startedAt time.Time, paths ...string) events.Session {
	t.Helper()

	session := events.Session{
		Property:       property,
		VisitorID:      visitorID,
		StartedAt:      startedAt.UTC(),
		LastActivityAt: startedAt.UTC().Add(time.Duration(len(paths)) * time.Minute),
	}
	require.NoError(t, db.Create(&session).Error)

	for i, path := range paths {
		view := events.PageView{
			SessionID:  session.ID,
			Property:   property,
			VisitorID:  visitorID,
			Path:       path,
			OccurredAt: startedAt.UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&view).Error)
	}

	return session
}

// CreateConversion inserts a conversion event for a visitor.
func CreateConversion(t *testing.T, db *gorm.DB, property, visitorID, eventName string, occurredAt time.Time) events.Conversion {
	t.Helper()

	conversion := events.Conversion{
		Property:   property,
		VisitorID:  visitorID,
		EventName:  eventName,
		OccurredAt: occurredAt.UTC(),
	}
	require.NoError(t, db.Create(&conversion).Error)
	return conversion
}
