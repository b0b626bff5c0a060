package events

import "time"

// Session represents one visit: a group of page views by a visitor within
// the session timeout window.
type Session struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	Property       string    `gorm:"index:idx_session_visitor;not null"`
	VisitorID      string    `gorm:"index:idx_session_visitor;size:64;not null"`
	Country        string    `gorm:"size:8"`
	StartedAt      time.Time `gorm:"index;not null"`
	LastActivityAt time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

// PageView is one recorded page load within a session. Path is stored in
// normalized form so it groups with reporting rows.
type PageView struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	SessionID        uint   `gorm:"index;not null"`
	Property         string `gorm:"index:idx_view_visitor;not null"`
	VisitorID        string `gorm:"index:idx_view_visitor;size:64;not null"`
	Path             string `gorm:"not null"`
	Title            string
	OccurredAt       time.Time `gorm:"index;not null"`
	DwellTimeSeconds *float64
	CreatedAt        time.Time
}

// Conversion is one recorded conversion event for a visitor.
type Conversion struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Property   string `gorm:"index:idx_conversion_visitor;not null"`
	VisitorID  string `gorm:"index:idx_conversion_visitor;size:64;not null"`
	SessionID  uint
	EventName  string    `gorm:"index;not null"`
	OccurredAt time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
}

// SessionTimeline is a session with its ordered page views.
type SessionTimeline struct {
	Session   Session
	PageViews []PageView
}

// VisitorTimeline is the full recorded history of one visitor on one
// property: all sessions oldest-first, each with its page views in visit
// order, plus all conversion events.
type VisitorTimeline struct {
	VisitorID   string
	Property    string
	Sessions    []SessionTimeline
	Conversions []Conversion
}
