package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/outbox"
	"github.com/arefin-anik/docmarket/libs/db"
)

type AppointmentRepo struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepo(pool *db.Pool, ob *outbox.Repository) *AppointmentRepo {
	return &AppointmentRepo{pool: pool, outbox: ob}
}

const appointmentColumns = `id, doctor_id, patient_id, starts_at, ends_at, status, notes, created_by, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.PatientID, &a.StartsAt, &a.EndsAt, &a.Status, &a.Notes, &a.CreatedBy, &a.CreatedAt)
	return a, err
}

// ListOverlapping returns blocking appointments for the doctor that overlap
// the half-open interval [start, end). This is the advisory fast path; the
// exclusion constraint on the table remains the authority.
func (r *AppointmentRepo) ListOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('scheduled', 'completed')
		  AND starts_at < $3
		  AND ends_at > $2
		ORDER BY starts_at
	`, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateScheduled inserts the appointment and its scheduled event in one
// transaction. If the range exclusion constraint fires the insert lost a race
// against a concurrent booking and model.ErrConcurrentBooking is returned.
func (r *AppointmentRepo) CreateScheduled(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	appt.Status = model.AppointmentScheduled

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, starts_at, ends_at, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.DoctorID, appt.PatientID, appt.StartsAt, appt.EndsAt, appt.Status, appt.Notes, appt.CreatedBy)

	created, err := scanAppointment(row)
	if err != nil {
		if IsExclusionViolation(err) {
			return model.Appointment{}, model.ErrConcurrentBooking
		}
		return model.Appointment{}, err
	}

	payload, err := json.Marshal(map[string]any{
		"appointment_id": created.ID,
		"doctor_id":      created.DoctorID,
		"patient_id":     created.PatientID,
		"starts_at":      created.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":        created.EndsAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return model.Appointment{}, err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   created.ID,
		EventType:     outbox.EventAppointmentScheduled,
		Payload:       payload,
	}); err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		if IsExclusionViolation(err) {
			return model.Appointment{}, model.ErrConcurrentBooking
		}
		return model.Appointment{}, err
	}
	return created, nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	a, err := scanAppointment(row)
	if err != nil {
		if isNoRows(err) {
			return model.Appointment{}, model.ErrNotFound
		}
		return model.Appointment{}, err
	}
	return a, nil
}

// UpdateStatus transitions the appointment and, for cancellations, records
// the cancelled event so the slot can be re-indexed as free.
func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus) (model.Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status)
	a, err := scanAppointment(row)
	if err != nil {
		if isNoRows(err) {
			return model.Appointment{}, model.ErrNotFound
		}
		return model.Appointment{}, err
	}

	if status == model.AppointmentCancelled {
		payload, err := json.Marshal(map[string]any{
			"appointment_id": a.ID,
			"doctor_id":      a.DoctorID,
			"starts_at":      a.StartsAt.UTC().Format(time.RFC3339),
			"ends_at":        a.EndsAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return model.Appointment{}, err
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   a.ID,
			EventType:     outbox.EventAppointmentCancelled,
			Payload:       payload,
		}); err != nil {
			return model.Appointment{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// ListByDoctor returns the doctor's appointments inside [from, to) ordered by
// start time.
func (r *AppointmentRepo) ListByDoctor(ctx context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	if !to.After(from) {
		return nil, fmt.Errorf("%w: range end must be after start", model.ErrValidation)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND starts_at >= $2
		  AND starts_at < $3
		ORDER BY starts_at
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
