package journeys

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pagelens/internal/events"
)

// UpsertRecord stores a journey record, fully replacing any existing record
// for the same (visitor, property, conversion type). A visitor's journey
// reflects the latest known state, not a history of conversions, and since
// each derivation recomputes from the full timeline last-writer-wins is
// safe for concurrent derivations of the same key.
func UpsertRecord(db *gorm.DB, record *JourneyRecord) error {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "visitor_id"},
			{Name: "property"},
			{Name: "conversion_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"first_touch_at",
			"conversion_at",
			"time_to_convert_days",
			"touchpoint_count",
			"path",
			"updated_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("journeys: upserting record: %w", err)
	}
	return nil
}

// ListRecords returns all journey records for a property ranked most recent
// conversion first, ties broken by insertion order.
func ListRecords(db *gorm.DB, property string) ([]JourneyRecord, error) {
	var records []JourneyRecord
	err := db.Where("property = ?", property).
		Order("conversion_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("journeys: listing records: %w", err)
	}
	return records, nil
}

// DeriveAndStore loads the visitor's timeline, derives the journey for the
// recorded conversion and upserts it. Data-integrity conditions are returned
// to the caller and excluded from the store.
func DeriveAndStore(db *gorm.DB, logger *slog.Logger, visitorID, property, conversionType string) error {
	timeline, err := events.LoadVisitorTimeline(db, visitorID, property)
	if err != nil {
		return err
	}

	record, err := Derive(timeline, conversionType)
	if err != nil {
		logger.Warn("Journey derivation rejected",
			slog.String("visitor_id", visitorID),
			slog.String("property", property),
			slog.String("conversion_type", conversionType),
			slog.Any("error", err))
		return err
	}

	if err := UpsertRecord(db, &record); err != nil {
		return err
	}

	logger.Debug("Journey derived",
		slog.String("visitor_id", visitorID),
		slog.String("property", property),
		slog.String("conversion_type", conversionType),
		slog.Int("touchpoints", record.TouchpointCount))
	return nil
}
