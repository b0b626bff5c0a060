package journeys

import (
	"errors"
	"fmt"
	"sort"

	"pagelens/internal/events"
)

// Data-integrity conditions. These are surfaced to the caller, never
// silently fixed, and derived records carrying them are never stored.
var (
	// ErrNoTimeline flags a conversion for a visitor with no recorded
	// sessions.
	ErrNoTimeline = fmt.Errorf("journeys: conversion with no matching timeline")
	// ErrNoMatchingConversion flags a derivation request for a conversion
	// type the timeline never recorded.
	ErrNoMatchingConversion = fmt.Errorf("journeys: no conversion of requested type in timeline")
	// ErrNegativeTimeToConvert flags a conversion timestamped before the
	// visitor's first touch (clock skew or inconsistent data).
	ErrNegativeTimeToConvert = fmt.Errorf("journeys: negative time to convert")
)

// IsIntegrityError reports whether err is one of the data-integrity
// conditions above, as opposed to a storage failure.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrNoTimeline) ||
		errors.Is(err, ErrNoMatchingConversion) ||
		errors.Is(err, ErrNegativeTimeToConvert)
}

// Derive computes a journey record from a visitor's full timeline.
//
// First touch is the earliest session start. Among all conversions of the
// matching type the most recent wins, which guards against out-of-order
// delivery and duplicates; equal timestamps are broken by record ID, i.e.
// insertion order. The touchpoint count is the number of sessions, not page
// loads: touchpoints represent visits.
func Derive(timeline events.VisitorTimeline, conversionType string) (JourneyRecord, error) {
	if len(timeline.Sessions) == 0 {
		return JourneyRecord{}, fmt.Errorf("%w: visitor %s on %s", ErrNoTimeline, timeline.VisitorID, timeline.Property)
	}

	firstTouch := timeline.Sessions[0].Session.StartedAt
	for _, st := range timeline.Sessions[1:] {
		if st.Session.StartedAt.Before(firstTouch) {
			firstTouch = st.Session.StartedAt
		}
	}

	var conversion *events.Conversion
	for i := range timeline.Conversions {
		c := &timeline.Conversions[i]
		if c.EventName != conversionType {
			continue
		}
		if conversion == nil ||
			c.OccurredAt.After(conversion.OccurredAt) ||
			(c.OccurredAt.Equal(conversion.OccurredAt) && c.ID > conversion.ID) {
			conversion = c
		}
	}
	if conversion == nil {
		return JourneyRecord{}, fmt.Errorf("%w: %q for visitor %s", ErrNoMatchingConversion, conversionType, timeline.VisitorID)
	}

	days := conversion.OccurredAt.Sub(firstTouch).Hours() / 24
	if days < 0 {
		return JourneyRecord{}, fmt.Errorf("%w: conversion at %s precedes first touch at %s",
			ErrNegativeTimeToConvert, conversion.OccurredAt.Format("2006-01-02T15:04:05Z"), firstTouch.Format("2006-01-02T15:04:05Z"))
	}

	var path TouchpointList
	for _, st := range timeline.Sessions {
		for _, view := range st.PageViews {
			path = append(path, Touchpoint{
				Path:             view.Path,
				Title:            view.Title,
				OccurredAt:       view.OccurredAt,
				DwellTimeSeconds: view.DwellTimeSeconds,
			})
		}
	}
	sort.SliceStable(path, func(i, j int) bool {
		return path[i].OccurredAt.Before(path[j].OccurredAt)
	})

	return JourneyRecord{
		VisitorID:         timeline.VisitorID,
		Property:          timeline.Property,
		ConversionType:    conversionType,
		FirstTouchAt:      firstTouch,
		ConversionAt:      conversion.OccurredAt,
		TimeToConvertDays: days,
		TouchpointCount:   len(timeline.Sessions),
		Path:              path,
	}, nil
}
