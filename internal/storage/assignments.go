package storage

import (
	"context"

	"github.com/arefin-anik/docmarket/libs/db"
)

// AssignmentRepo answers the three assistant-to-doctor lookups. Each query
// targets a different legacy table; none of them is authoritative on its own.
type AssignmentRepo struct {
	pool *db.Pool
}

func NewAssignmentRepo(pool *db.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

func (r *AssignmentRepo) ClinicDoctor(ctx context.Context, assistantID string) (string, bool, error) {
	return r.lookup(ctx, `
		SELECT c.doctor_id
		FROM clinic_members m
		JOIN clinics c ON c.id = m.clinic_id
		WHERE m.assistant_id = $1 AND c.doctor_id IS NOT NULL AND c.doctor_id <> ''
		ORDER BY m.created_at
		LIMIT 1
	`, assistantID)
}

func (r *AssignmentRepo) LegacyAssignedDoctor(ctx context.Context, assistantID string) (string, bool, error) {
	return r.lookup(ctx, `
		SELECT assigned_doctor_id
		FROM assistant_profiles
		WHERE assistant_id = $1 AND assigned_doctor_id IS NOT NULL AND assigned_doctor_id <> ''
	`, assistantID)
}

func (r *AssignmentRepo) JoinTableDoctor(ctx context.Context, assistantID string) (string, bool, error) {
	return r.lookup(ctx, `
		SELECT doctor_id
		FROM assistant_doctors
		WHERE assistant_id = $1
		ORDER BY created_at
		LIMIT 1
	`, assistantID)
}

func (r *AssignmentRepo) lookup(ctx context.Context, query, assistantID string) (string, bool, error) {
	var doctorID string
	err := r.pool.QueryRow(ctx, query, assistantID).Scan(&doctorID)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return doctorID, doctorID != "", nil
}
