// Package timeframe provides date range handling for dashboard queries.
package timeframe

import (
	"fmt"
	"time"
)

// RangeLabel represents the available time range options
type RangeLabel string

const (
	RangeLabelToday      RangeLabel = "today"
	RangeLabelYesterday  RangeLabel = "yesterday"
	RangeLabelLast7Days  RangeLabel = "last_7_days"
	RangeLabelLast30Days RangeLabel = "last_30_days"
	RangeLabelLast90Days RangeLabel = "last_90_days"
	RangeLabelCustom     RangeLabel = "custom"
)

// DateRange represents a period between two points in time.
type DateRange struct {
	From  time.Time
	To    time.Time
	Label RangeLabel
}

// NewDateRange builds a custom date range.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.After(to) {
		return DateRange{}, fmt.Errorf("from must be before to")
	}
	return DateRange{From: from, To: to, Label: RangeLabelCustom}, nil
}

// FromLabel resolves a range label to a concrete date range anchored at now.
func FromLabel(label RangeLabel, now time.Time) (DateRange, error) {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch label {
	case RangeLabelToday:
		return DateRange{From: startOfDay, To: now, Label: label}, nil
	case RangeLabelYesterday:
		return DateRange{From: startOfDay.AddDate(0, 0, -1), To: startOfDay, Label: label}, nil
	case RangeLabelLast7Days:
		return DateRange{From: startOfDay.AddDate(0, 0, -7), To: now, Label: label}, nil
	case RangeLabelLast30Days:
		return DateRange{From: startOfDay.AddDate(0, 0, -30), To: now, Label: label}, nil
	case RangeLabelLast90Days:
		return DateRange{From: startOfDay.AddDate(0, 0, -90), To: now, Label: label}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown range label: %s", label)
	}
}

// Previous returns the comparison period immediately preceding this range,
// with the same duration.
func (r DateRange) Previous() DateRange {
	duration := r.To.Sub(r.From)
	return DateRange{
		From:  r.From.Add(-duration),
		To:    r.From,
		Label: RangeLabelCustom,
	}
}

// Days returns the range length in fractional days.
func (r DateRange) Days() float64 {
	return r.To.Sub(r.From).Hours() / 24
}
