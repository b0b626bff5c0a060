// Package journeys derives per-visitor conversion journeys from recorded
// event timelines and synthesizes ranked multi-touch conversion paths for
// the dashboard.
package journeys

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Touchpoint is one recorded visit to a page within a journey.
type Touchpoint struct {
	Path             string    `json:"path"`
	Title            string    `json:"title"`
	OccurredAt       time.Time `json:"occurred_at"`
	DwellTimeSeconds *float64  `json:"dwell_time_seconds,omitempty"`
}

// TouchpointList is stored as a JSON column.
type TouchpointList []Touchpoint

// Scan implements sql.Scanner.
func (l *TouchpointList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("journeys: cannot scan %T into TouchpointList", value)
	}

	return json.Unmarshal(bytes, l)
}

// Value implements driver.Valuer.
func (l TouchpointList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// JourneyRecord summarizes one visitor's path to a conversion. At most one
// record exists per (visitor, property, conversion type); re-derivation
// replaces the stored record in place.
type JourneyRecord struct {
	ID                uint           `gorm:"primaryKey;autoIncrement"`
	VisitorID         string         `gorm:"uniqueIndex:idx_journey_unique;size:64;not null"`
	Property          string         `gorm:"uniqueIndex:idx_journey_unique;not null"`
	ConversionType    string         `gorm:"uniqueIndex:idx_journey_unique;not null"`
	FirstTouchAt      time.Time      `gorm:"not null"`
	ConversionAt      time.Time      `gorm:"index;not null"`
	TimeToConvertDays float64        `gorm:"not null"`
	TouchpointCount   int            `gorm:"not null"`
	Path              TouchpointList `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
