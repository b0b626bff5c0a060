package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelens/internal/timeframe"
)

func TestFromLabel(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		label        timeframe.RangeLabel
		expectedFrom time.Time
		expectedTo   time.Time
	}{
		{timeframe.RangeLabelToday, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), now},
		{timeframe.RangeLabelYesterday, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{timeframe.RangeLabelLast7Days, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), now},
		{timeframe.RangeLabelLast30Days, time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC), now},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			r, err := timeframe.FromLabel(tt.label, now)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFrom, r.From)
			assert.Equal(t, tt.expectedTo, r.To)
		})
	}
}

func TestFromLabelUnknown(t *testing.T) {
	_, err := timeframe.FromLabel("last_century", time.Now())
	assert.Error(t, err)
}

func TestPrevious(t *testing.T) {
	r, err := timeframe.NewDateRange(
		time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	prev := r.Previous()
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), prev.From)
	assert.Equal(t, r.From, prev.To)
}

func TestNewDateRangeRejectsInverted(t *testing.T) {
	_, err := timeframe.NewDateRange(time.Now(), time.Now().Add(-time.Hour))
	assert.Error(t, err)
}
