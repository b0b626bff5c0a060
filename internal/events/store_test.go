package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelens/internal/events"
	"pagelens/internal/testsupport"
)

const sessionTimeout = 30 * time.Minute

func at(minute int) time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func TestRecordPageViewGroupsIntoSessions(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	views := []struct {
		path   string
		minute int
	}{
		{"/", 0},
		{"/pricing", 5},
		// 90 minutes later: past the timeout, new session.
		{"/request-demo", 95},
	}
	for _, v := range views {
		err := events.RecordPageView(db, events.PageViewInput{
			Property:   "example",
			VisitorID:  "visitor1",
			Path:       v.path,
			OccurredAt: at(v.minute),
		}, sessionTimeout, nil)
		require.NoError(t, err)
	}

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)

	require.Len(t, timeline.Sessions, 2)
	assert.Len(t, timeline.Sessions[0].PageViews, 2)
	assert.Len(t, timeline.Sessions[1].PageViews, 1)
	assert.WithinDuration(t, at(0), timeline.Sessions[0].Session.StartedAt, time.Second)
	assert.WithinDuration(t, at(95), timeline.Sessions[1].Session.StartedAt, time.Second)
}

func TestRecordPageViewNormalizesPath(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	err := events.RecordPageView(db, events.PageViewInput{
		Property:   "example",
		VisitorID:  "visitor1",
		Path:       "/pricing/?utm_source=x",
		OccurredAt: at(0),
	}, sessionTimeout, nil)
	require.NoError(t, err)

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)
	require.Len(t, timeline.Sessions, 1)
	assert.Equal(t, "/pricing", timeline.Sessions[0].PageViews[0].Path)
}

func TestRecordPageViewSetsPreviousDwellTime(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	for _, v := range []struct {
		path   string
		minute int
	}{{"/", 0}, {"/pricing", 2}} {
		err := events.RecordPageView(db, events.PageViewInput{
			Property:   "example",
			VisitorID:  "visitor1",
			Path:       v.path,
			OccurredAt: at(v.minute),
		}, sessionTimeout, nil)
		require.NoError(t, err)
	}

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)
	views := timeline.Sessions[0].PageViews
	require.Len(t, views, 2)
	require.NotNil(t, views[0].DwellTimeSeconds)
	assert.InDelta(t, 120, *views[0].DwellTimeSeconds, 0.01)
	assert.Nil(t, views[1].DwellTimeSeconds, "last view has no dwell time yet")
}

func TestRecordPageViewResolvesCountryOncePerSession(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	calls := 0
	resolver := func(string) string {
		calls++
		return "de"
	}

	for _, minute := range []int{0, 5} {
		err := events.RecordPageView(db, events.PageViewInput{
			Property:   "example",
			VisitorID:  "visitor1",
			Path:       "/",
			IPAddress:  "203.0.113.7",
			OccurredAt: at(minute),
		}, sessionTimeout, resolver)
		require.NoError(t, err)
	}

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)
	require.Len(t, timeline.Sessions, 1)
	assert.Equal(t, "de", timeline.Sessions[0].Session.Country)
	assert.Equal(t, 1, calls, "country resolved only when a session is created")
}

func TestRecordConversionAttachesToLatestSession(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	session := testsupport.CreateSession(t, db, "example", "visitor1", at(0), "/")

	err := events.RecordConversion(db, events.ConversionInput{
		Property:   "example",
		VisitorID:  "visitor1",
		EventName:  "demo_request",
		OccurredAt: at(10),
	})
	require.NoError(t, err)

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)
	require.Len(t, timeline.Conversions, 1)
	assert.Equal(t, session.ID, timeline.Conversions[0].SessionID)
	assert.Equal(t, "demo_request", timeline.Conversions[0].EventName)
}

func TestRecordConversionValidation(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	err := events.RecordConversion(db, events.ConversionInput{Property: "example", EventName: "demo_request", OccurredAt: at(0)})
	assert.Error(t, err, "visitor id required")

	err = events.RecordConversion(db, events.ConversionInput{Property: "example", VisitorID: "v", OccurredAt: at(0)})
	assert.Error(t, err, "event name required")
}

func TestLoadVisitorTimelineScopedToProperty(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	testsupport.CreateSession(t, db, "example", "visitor1", at(0), "/")
	testsupport.CreateSession(t, db, "other", "visitor1", at(5), "/pricing")

	timeline, err := events.LoadVisitorTimeline(db, "visitor1", "example")
	require.NoError(t, err)
	require.Len(t, timeline.Sessions, 1)
	assert.Equal(t, "example", timeline.Sessions[0].Session.Property)
}

func TestSessionsByCountry(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	for i, country := range []string{"de", "de", "us", ""} {
		session := testsupport.CreateSession(t, db, "example", "visitor", at(i), "/")
		require.NoError(t, db.Model(&events.Session{}).Where("id = ?", session.ID).Update("country", country).Error)
	}

	counts, err := events.SessionsByCountry(db, "example", at(0), at(60))
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, events.CountryCount{Country: "de", Sessions: 2}, counts[0])
}
