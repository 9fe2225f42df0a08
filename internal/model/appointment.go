package model

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Appointment occupies the half-open interval [StartsAt, EndsAt). Per doctor,
// no two appointments in a blocking status may overlap; the appointments
// table enforces this with a range exclusion constraint.
type Appointment struct {
	ID        string
	DoctorID  string
	PatientID string
	StartsAt  time.Time
	EndsAt    time.Time
	Status    AppointmentStatus
	Notes     string
	CreatedBy string
	CreatedAt time.Time
}

// Blocks reports whether an appointment in this status occupies its interval
// for conflict purposes. Cancelled and no-show appointments free the slot.
func (s AppointmentStatus) Blocks() bool {
	return s == AppointmentScheduled || s == AppointmentCompleted
}

// Overlaps is the standard half-open interval test.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.StartsAt.Before(end) && start.Before(a.EndsAt)
}
