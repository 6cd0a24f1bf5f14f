package valueobjects

import (
	"fmt"
	"time"

	"github.com/cryptbill/cryptbill/internal/shared/biztime"
)

type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	return f == FrequencyWeekly || f == FrequencyMonthly
}

// NextDue returns the start of the period following from.
func (f Frequency) NextDue(from time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return from.Add(7 * 24 * time.Hour)
	case FrequencyMonthly:
		return biztime.AddMonthsClamped(from, 1)
	default:
		return time.Time{}
	}
}

func (f Frequency) String() string {
	return string(f)
}

// Recurrence is the auto-generation policy copied onto every invoice of a series.
type Recurrence struct {
	enabled   bool
	frequency Frequency
}

func NewRecurrence(frequency Frequency) (Recurrence, error) {
	if !frequency.IsValid() {
		return Recurrence{}, fmt.Errorf("invalid recurrence frequency: %q", frequency)
	}
	return Recurrence{enabled: true, frequency: frequency}, nil
}

// ReconstructRecurrence rebuilds a stored policy without validation of disabled rows.
func ReconstructRecurrence(enabled bool, frequency Frequency) Recurrence {
	return Recurrence{enabled: enabled, frequency: frequency}
}

func (r Recurrence) Enabled() bool {
	return r.enabled && r.frequency.IsValid()
}

func (r Recurrence) Frequency() Frequency {
	return r.frequency
}

// IsDue reports whether a successor of an invoice created at lastSpawn is due at now.
func (r Recurrence) IsDue(lastSpawn, now time.Time) bool {
	if !r.Enabled() {
		return false
	}
	return !now.Before(r.frequency.NextDue(lastSpawn))
}
