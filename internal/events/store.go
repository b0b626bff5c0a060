// Package events persists visitor sessions, page views and conversion
// events, and reconstructs per-visitor timelines for journey derivation.
package events

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pagelens/internal/pages"
)

// PageViewInput is one incoming page view from the tracking endpoint.
type PageViewInput struct {
	Property   string
	VisitorID  string
	Path       string
	Title      string
	IPAddress  string
	OccurredAt time.Time
}

// ConversionInput is one incoming conversion event.
type ConversionInput struct {
	Property   string
	VisitorID  string
	EventName  string
	OccurredAt time.Time
}

// CountryResolver maps a client IP to a country code at ingest time.
type CountryResolver func(ipAddress string) string

// RecordPageView stores a page view, reusing the visitor's current session
// when the gap since its last activity is within sessionTimeout, otherwise
// starting a new session. The previous page view's dwell time is set from
// the gap to this one.
func RecordPageView(db *gorm.DB, input PageViewInput, sessionTimeout time.Duration, resolveCountry CountryResolver) error {
	if input.VisitorID == "" {
		return fmt.Errorf("events: page view without visitor id")
	}

	occurredAt := input.OccurredAt.UTC()

	return db.Transaction(func(tx *gorm.DB) error {
		session, err := currentSession(tx, input.Property, input.VisitorID, occurredAt, sessionTimeout)
		if err != nil {
			return err
		}

		if session == nil {
			country := ""
			if resolveCountry != nil {
				country = resolveCountry(input.IPAddress)
			}
			session = &Session{
				Property:       input.Property,
				VisitorID:      input.VisitorID,
				Country:        country,
				StartedAt:      occurredAt,
				LastActivityAt: occurredAt,
			}
			if err := tx.Create(session).Error; err != nil {
				return fmt.Errorf("events: creating session: %w", err)
			}
		} else {
			if err := setPreviousDwellTime(tx, session.ID, occurredAt); err != nil {
				return err
			}
			if err := tx.Model(session).Update("last_activity_at", occurredAt).Error; err != nil {
				return fmt.Errorf("events: updating session activity: %w", err)
			}
		}

		view := PageView{
			SessionID:  session.ID,
			Property:   input.Property,
			VisitorID:  input.VisitorID,
			Path:       pages.NormalizePath(input.Path),
			Title:      input.Title,
			OccurredAt: occurredAt,
		}
		if err := tx.Create(&view).Error; err != nil {
			return fmt.Errorf("events: creating page view: %w", err)
		}
		return nil
	})
}

// RecordConversion stores a conversion event, attached to the visitor's most
// recent session when one exists.
func RecordConversion(db *gorm.DB, input ConversionInput) error {
	if input.VisitorID == "" {
		return fmt.Errorf("events: conversion without visitor id")
	}
	if input.EventName == "" {
		return fmt.Errorf("events: conversion without event name")
	}

	occurredAt := input.OccurredAt.UTC()

	var sessionID uint
	var latest Session
	err := db.Where("property = ? AND visitor_id = ?", input.Property, input.VisitorID).
		Order("started_at DESC, id DESC").
		First(&latest).Error
	if err == nil {
		sessionID = latest.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("events: finding session for conversion: %w", err)
	}

	conversion := Conversion{
		Property:   input.Property,
		VisitorID:  input.VisitorID,
		SessionID:  sessionID,
		EventName:  input.EventName,
		OccurredAt: occurredAt,
	}
	if err := db.Create(&conversion).Error; err != nil {
		return fmt.Errorf("events: creating conversion: %w", err)
	}
	return nil
}

// LoadVisitorTimeline reconstructs a visitor's full history on a property:
// sessions oldest-first with page views in visit order, plus conversions.
func LoadVisitorTimeline(db *gorm.DB, visitorID, property string) (VisitorTimeline, error) {
	timeline := VisitorTimeline{VisitorID: visitorID, Property: property}

	var sessions []Session
	err := db.Where("property = ? AND visitor_id = ?", property, visitorID).
		Order("started_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return timeline, fmt.Errorf("events: loading sessions: %w", err)
	}

	for _, session := range sessions {
		var views []PageView
		err := db.Where("session_id = ?", session.ID).
			Order("occurred_at ASC, id ASC").
			Find(&views).Error
		if err != nil {
			return timeline, fmt.Errorf("events: loading page views for session %d: %w", session.ID, err)
		}
		timeline.Sessions = append(timeline.Sessions, SessionTimeline{Session: session, PageViews: views})
	}

	err = db.Where("property = ? AND visitor_id = ?", property, visitorID).
		Order("occurred_at ASC, id ASC").
		Find(&timeline.Conversions).Error
	if err != nil {
		return timeline, fmt.Errorf("events: loading conversions: %w", err)
	}

	return timeline, nil
}

// currentSession returns the visitor's session to continue, or nil when the
// last one has expired or none exists.
func currentSession(tx *gorm.DB, property, visitorID string, at time.Time, timeout time.Duration) (*Session, error) {
	var latest Session
	err := tx.Where("property = ? AND visitor_id = ?", property, visitorID).
		Order("started_at DESC, id DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("events: finding current session: %w", err)
	}

	if at.Sub(latest.LastActivityAt) > timeout {
		return nil, nil
	}
	return &latest, nil
}

// setPreviousDwellTime fills in the dwell time of the session's most recent
// page view now that the next one has arrived.
func setPreviousDwellTime(tx *gorm.DB, sessionID uint, next time.Time) error {
	var prev PageView
	err := tx.Where("session_id = ?", sessionID).
		Order("occurred_at DESC, id DESC").
		First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("events: finding previous page view: %w", err)
	}

	dwell := next.Sub(prev.OccurredAt).Seconds()
	if dwell < 0 {
		return nil
	}
	return tx.Model(&prev).Update("dwell_time_seconds", dwell).Error
}

// CountryCount is one row of the per-country session breakdown.
type CountryCount struct {
	Country  string `json:"country"`
	Sessions int64  `json:"sessions"`
}

// SessionsByCountry aggregates session counts per country for a property
// within a time range, most sessions first.
func SessionsByCountry(db *gorm.DB, property string, from, to time.Time) ([]CountryCount, error) {
	var results []CountryCount

	query := `
	SELECT
		COALESCE(NULLIF(country, ''), 'unknown') AS country,
		COUNT(*) AS sessions
	FROM sessions
	WHERE property = ?
		AND started_at >= ? AND started_at < ?
	GROUP BY COALESCE(NULLIF(country, ''), 'unknown')
	ORDER BY sessions DESC
	`

	err := db.Raw(query, property, from.UTC(), to.UTC()).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("events: fetching sessions by country: %w", err)
	}
	return results, nil
}
