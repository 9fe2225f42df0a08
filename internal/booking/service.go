package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arefin-anik/docmarket/internal/availability"
	"github.com/arefin-anik/docmarket/internal/model"
)

// RuleStore supplies the active recurring rules slot generation runs over.
type RuleStore interface {
	ActiveRules(ctx context.Context, doctorID string, weekday time.Weekday) ([]model.AvailabilityRule, error)
}

// AppointmentStore is the booking persistence surface. CreateScheduled must
// return model.ErrConcurrentBooking when a concurrent insert for an
// overlapping interval commits first.
type AppointmentStore interface {
	ListOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error)
	CreateScheduled(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (model.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error)
}

// Bookability is the entitlement gate consulted before any slot is offered or
// booked.
type Bookability interface {
	IsBookable(ctx context.Context, doctorID string, now time.Time) (bool, error)
}

type Config struct {
	// SlotDuration is the length of every offered slot.
	SlotDuration time.Duration
	// Horizon is how far into the future bookings are accepted.
	Horizon time.Duration
}

// Service orchestrates slot queries and bookings. Conflict safety is layered:
// an advisory overlap check gives fast feedback, and the database exclusion
// constraint decides races.
type Service struct {
	rules        RuleStore
	appointments AppointmentStore
	entitlements Bookability
	logger       *slog.Logger
	slotDuration time.Duration
	horizon      time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewService(rules RuleStore, appointments AppointmentStore, entitlements Bookability, logger *slog.Logger, cfg Config) *Service {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = time.Hour
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 30 * 24 * time.Hour
	}
	return &Service{
		rules:        rules,
		appointments: appointments,
		entitlements: entitlements,
		logger:       logger,
		slotDuration: cfg.SlotDuration,
		horizon:      cfg.Horizon,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SlotListing is the response for a slot query. AsOf records when the
// availability snapshot was taken; it can be stale by the time a booking
// arrives, which the booking path handles.
type SlotListing struct {
	DoctorID string
	Date     time.Time
	AsOf     time.Time
	Slots    []model.ClockMinute
}

// Slots returns the open slots for a doctor on a date. Unverified or lapsed
// doctors get an empty listing rather than an error so the public endpoint
// does not leak entitlement state.
func (s *Service) Slots(ctx context.Context, doctorID string, date time.Time) (SlotListing, error) {
	if doctorID == "" {
		return SlotListing{}, fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}
	now := s.now()
	listing := SlotListing{DoctorID: doctorID, Date: date, AsOf: now}

	bookable, err := s.entitlements.IsBookable(ctx, doctorID, now)
	if err != nil {
		return SlotListing{}, err
	}
	if !bookable {
		return listing, nil
	}

	rules, err := s.rules.ActiveRules(ctx, doctorID, date.Weekday())
	if err != nil {
		return SlotListing{}, err
	}
	candidates := availability.GenerateSlots(rules, date, s.slotDuration)
	if len(candidates) == 0 {
		return listing, nil
	}

	dayStart, _ := availability.SlotInterval(date, 0, s.slotDuration)
	dayEnd := dayStart.Add(24 * time.Hour)
	taken, err := s.appointments.ListOverlapping(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return SlotListing{}, err
	}

	for _, slot := range candidates {
		startsAt, endsAt := availability.SlotInterval(date, slot, s.slotDuration)
		if !startsAt.After(now) {
			continue
		}
		open := true
		for _, appt := range taken {
			if appt.Overlaps(startsAt, endsAt) {
				open = false
				break
			}
		}
		if open {
			listing.Slots = append(listing.Slots, slot)
		}
	}
	return listing, nil
}

// Book schedules an appointment at an offered slot. The requested start must
// be a member of the generated candidate set for that date; arbitrary times
// are rejected even when the interval happens to be free.
func (s *Service) Book(ctx context.Context, actor model.Actor, doctorID string, date time.Time, slot model.ClockMinute, notes string) (model.Appointment, error) {
	if doctorID == "" {
		return model.Appointment{}, fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}
	if actor.UserID == "" {
		return model.Appointment{}, fmt.Errorf("%w: booking requires an authenticated patient", model.ErrNotAuthorized)
	}
	if !slot.Valid() {
		return model.Appointment{}, fmt.Errorf("%w: slot out of range", model.ErrValidation)
	}

	now := s.now()
	startsAt, endsAt := availability.SlotInterval(date, slot, s.slotDuration)
	if !startsAt.After(now) {
		return model.Appointment{}, fmt.Errorf("%w: cannot book a past slot", model.ErrValidation)
	}
	if startsAt.After(now.Add(s.horizon)) {
		return model.Appointment{}, fmt.Errorf("%w: slot is beyond the booking horizon", model.ErrValidation)
	}

	bookable, err := s.entitlements.IsBookable(ctx, doctorID, now)
	if err != nil {
		return model.Appointment{}, err
	}
	if !bookable {
		return model.Appointment{}, model.ErrNotBookable
	}

	rules, err := s.rules.ActiveRules(ctx, doctorID, date.Weekday())
	if err != nil {
		return model.Appointment{}, err
	}
	if !slotOffered(availability.GenerateSlots(rules, date, s.slotDuration), slot) {
		return model.Appointment{}, model.ErrInvalidSlot
	}

	// Advisory fast path. A miss here is not proof of availability; the
	// exclusion constraint below is.
	overlapping, err := s.appointments.ListOverlapping(ctx, doctorID, startsAt, endsAt)
	if err != nil {
		return model.Appointment{}, err
	}
	if len(overlapping) > 0 {
		return model.Appointment{}, model.ErrSlotTaken
	}

	appt, err := s.appointments.CreateScheduled(ctx, model.Appointment{
		DoctorID:  doctorID,
		PatientID: actor.UserID,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Notes:     notes,
		CreatedBy: actor.UserID,
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", doctorID,
		"patient_id", actor.UserID,
		"starts_at", startsAt.Format(time.RFC3339),
	)
	return appt, nil
}

func slotOffered(slots []model.ClockMinute, want model.ClockMinute) bool {
	for _, s := range slots {
		if s == want {
			return true
		}
	}
	return false
}

// Cancel releases the slot. Patients may cancel their own appointments;
// doctors, their assistants, and admins may cancel any appointment of the
// doctor.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, appointmentID string) (model.Appointment, error) {
	return s.transition(ctx, actor, appointmentID, model.AppointmentCancelled, true)
}

// Complete marks the appointment as held. Doctor side only.
func (s *Service) Complete(ctx context.Context, actor model.Actor, appointmentID string) (model.Appointment, error) {
	return s.transition(ctx, actor, appointmentID, model.AppointmentCompleted, false)
}

// NoShow marks the patient as absent and releases the slot for conflict
// purposes. Doctor side only.
func (s *Service) NoShow(ctx context.Context, actor model.Actor, appointmentID string) (model.Appointment, error) {
	return s.transition(ctx, actor, appointmentID, model.AppointmentNoShow, false)
}

func (s *Service) transition(ctx context.Context, actor model.Actor, appointmentID string, to model.AppointmentStatus, patientAllowed bool) (model.Appointment, error) {
	if appointmentID == "" {
		return model.Appointment{}, fmt.Errorf("%w: appointment id is required", model.ErrValidation)
	}
	appt, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}

	allowed := actor.ActsForDoctor(appt.DoctorID)
	if !allowed && patientAllowed {
		allowed = actor.UserID != "" && actor.UserID == appt.PatientID
	}
	if !allowed {
		return model.Appointment{}, model.ErrNotAuthorized
	}

	if appt.Status != model.AppointmentScheduled {
		return model.Appointment{}, fmt.Errorf("%w: appointment is %s, only scheduled appointments can move to %s", model.ErrValidation, appt.Status, to)
	}

	updated, err := s.appointments.UpdateStatus(ctx, appointmentID, to)
	if err != nil {
		return model.Appointment{}, err
	}
	s.logger.Info("appointment status changed",
		"appointment_id", appointmentID,
		"from", string(appt.Status),
		"to", string(to),
		"actor_id", actor.UserID,
	)
	return updated, nil
}

// Schedule lists a doctor's appointments for the doctor-side calendar.
func (s *Service) Schedule(ctx context.Context, actor model.Actor, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	if !actor.ActsForDoctor(doctorID) {
		return nil, model.ErrNotAuthorized
	}
	return s.appointments.ListByDoctor(ctx, doctorID, from, to)
}
