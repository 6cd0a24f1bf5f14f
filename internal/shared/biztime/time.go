// Package biztime provides utilities for business timezone calculations.
// All storage and transport use UTC. The business timezone is only used where
// calendar boundaries matter, such as monthly billing cycles.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultTimezone is the default business timezone.
	DefaultTimezone = "UTC"
)

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init initializes the business timezone. Should be called once at startup.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// Location returns the business timezone location, initializing it with the default when needed.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize with default timezone: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// AddMonthsClamped adds n calendar months in the business timezone. When the
// target month is shorter, the day is clamped to its last day (Jan 31 + 1 = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	local := t.In(Location())
	year, month, day := local.Date()

	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	hour, minute, sec := local.Clock()
	result := time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, local.Nanosecond(), Location())
	return result.UTC()
}

// StartOfMonthUTC returns the first instant of t's month in business timezone, converted to UTC.
func StartOfMonthUTC(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, Location()).UTC()
}
