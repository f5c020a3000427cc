package models

import (
	"fmt"
	"time"
)

// Agency defaults applied when a row has no explicit configuration
const (
	DefaultTimezone          = "Australia/Brisbane"
	DefaultOverdueCutoffTime = "17:00:00"
	DefaultDueSoonDays       = 4
)

// Agency represents a tenant: an education agency with its own students,
// payment plans and status-sweep configuration.
type Agency struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Name                string    `gorm:"not null" json:"name"`
	Timezone            string    `gorm:"size:64;not null;default:'Australia/Brisbane'" json:"timezone"`
	OverdueCutoffTime   string    `gorm:"size:8;not null;default:'17:00:00'" json:"overdue_cutoff_time"`
	DueSoonThresholdDays int      `gorm:"not null;default:4" json:"due_soon_threshold_days"`
	Currency            string    `gorm:"size:3;not null;default:'AUD'" json:"currency"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName specifies the table name for Agency
func (Agency) TableName() string {
	return "agencies"
}

// Location resolves the agency's IANA timezone
func (a *Agency) Location() (*time.Location, error) {
	tz := a.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// CutoffClock parses the agency's overdue cutoff as seconds since midnight
func (a *Agency) CutoffClock() (int, error) {
	cutoff := a.OverdueCutoffTime
	if cutoff == "" {
		cutoff = DefaultOverdueCutoffTime
	}
	t, err := time.Parse("15:04:05", cutoff)
	if err != nil {
		// Accept HH:MM as well
		t, err = time.Parse("15:04", cutoff)
		if err != nil {
			return 0, fmt.Errorf("invalid overdue_cutoff_time %q: %w", cutoff, err)
		}
	}
	return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
}

// DueSoonDays returns the configured due-soon window, falling back to the default
func (a *Agency) DueSoonDays() int {
	if a.DueSoonThresholdDays <= 0 {
		return DefaultDueSoonDays
	}
	return a.DueSoonThresholdDays
}
