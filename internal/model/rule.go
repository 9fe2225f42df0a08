package model

import (
	"fmt"
	"time"
)

// AvailabilityRule is a recurring weekly window in which a doctor accepts
// bookings. Weekday follows time.Weekday (0=Sunday..6=Saturday). The window
// is half-open [Start, End) in minutes since midnight; End may be
// MinutesPerDay (24:00) for windows that run to the end of the day.
//
// Overlapping rules for the same doctor and weekday are allowed; slot
// generation deduplicates. Overnight windows (End <= Start) are rejected at
// creation since their semantics are undefined.
type AvailabilityRule struct {
	ID       string
	DoctorID string
	Weekday  time.Weekday
	Start    ClockMinute
	End      ClockMinute
	Active   bool
}

func (r AvailabilityRule) Validate() error {
	if r.DoctorID == "" {
		return fmt.Errorf("%w: doctor id is required", ErrValidation)
	}
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday out of range", ErrValidation)
	}
	if !r.Start.Valid() || r.End < 0 || r.End > MinutesPerDay {
		return fmt.Errorf("%w: clock time out of range", ErrValidation)
	}
	if r.End <= r.Start {
		return fmt.Errorf("%w: end must be after start (overnight rules are not supported)", ErrValidation)
	}
	return nil
}
