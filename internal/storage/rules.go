package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/libs/db"
)

type RuleRepo struct {
	pool *db.Pool
}

func NewRuleRepo(pool *db.Pool) *RuleRepo {
	return &RuleRepo{pool: pool}
}

func (r *RuleRepo) Create(ctx context.Context, rule model.AvailabilityRule) (model.AvailabilityRule, error) {
	if err := rule.Validate(); err != nil {
		return model.AvailabilityRule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_rules (id, doctor_id, weekday, start_minute, end_minute, active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rule.ID, rule.DoctorID, int(rule.Weekday), int(rule.Start), int(rule.End), rule.Active)
	if err != nil {
		return model.AvailabilityRule{}, err
	}
	return rule, nil
}

func (r *RuleRepo) SetActive(ctx context.Context, ruleID, doctorID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE availability_rules
		SET active = $3
		WHERE id = $1 AND doctor_id = $2
	`, ruleID, doctorID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *RuleRepo) Delete(ctx context.Context, ruleID, doctorID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1 AND doctor_id = $2
	`, ruleID, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListByDoctor returns all of a doctor's rules, active or not, in a stable
// order for display.
func (r *RuleRepo) ListByDoctor(ctx context.Context, doctorID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_minute, end_minute, active
		FROM availability_rules
		WHERE doctor_id = $1
		ORDER BY weekday, start_minute, id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

// ActiveRules returns the doctor's active rules for one weekday. Slot
// generation only ever needs a single weekday at a time.
func (r *RuleRepo) ActiveRules(ctx context.Context, doctorID string, weekday time.Weekday) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_minute, end_minute, active
		FROM availability_rules
		WHERE doctor_id = $1 AND weekday = $2 AND active
		ORDER BY start_minute, id
	`, doctorID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRules(rows)
}

type ruleRows interface {
	Next() bool
	Scan(...any) error
	Err() error
}

func collectRules(rows ruleRows) ([]model.AvailabilityRule, error) {
	var out []model.AvailabilityRule
	for rows.Next() {
		var rule model.AvailabilityRule
		var weekday, start, end int
		if err := rows.Scan(&rule.ID, &rule.DoctorID, &weekday, &start, &end, &rule.Active); err != nil {
			return nil, err
		}
		rule.Weekday = time.Weekday(weekday)
		rule.Start = model.ClockMinute(start)
		rule.End = model.ClockMinute(end)
		out = append(out, rule)
	}
	return out, rows.Err()
}
