package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgencyLocation(t *testing.T) {
	agency := &Agency{Timezone: "Australia/Sydney"}
	loc, err := agency.Location()
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", loc.String())

	// Empty timezone falls back to the default
	agency = &Agency{}
	loc, err = agency.Location()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())

	agency = &Agency{Timezone: "Not/AZone"}
	_, err = agency.Location()
	assert.Error(t, err)
}

func TestAgencyCutoffClock(t *testing.T) {
	tests := []struct {
		name     string
		cutoff   string
		expected int
		wantErr  bool
	}{
		{"full form", "17:00:00", 17 * 3600, false},
		{"short form", "09:30", 9*3600 + 30*60, false},
		{"with seconds", "17:15:30", 17*3600 + 15*60 + 30, false},
		{"empty falls back to default", "", 17 * 3600, false},
		{"midnight", "00:00:00", 0, false},
		{"garbage", "5pm", 0, true},
		{"out of range", "25:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agency := &Agency{OverdueCutoffTime: tt.cutoff}
			secs, err := agency.CutoffClock()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, secs)
		})
	}
}

func TestAgencyDueSoonDays(t *testing.T) {
	assert.Equal(t, 7, (&Agency{DueSoonThresholdDays: 7}).DueSoonDays())
	assert.Equal(t, DefaultDueSoonDays, (&Agency{}).DueSoonDays())
	assert.Equal(t, DefaultDueSoonDays, (&Agency{DueSoonThresholdDays: -1}).DueSoonDays())
}
