package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arefin-anik/docmarket/internal/entitlement"
	"github.com/arefin-anik/docmarket/internal/model"
	"github.com/arefin-anik/docmarket/internal/outbox"
	"github.com/arefin-anik/docmarket/libs/db"
)

// EntitlementRepo persists verification and subscription records. Every save
// also records the corresponding domain event in the same transaction so the
// search indexer sees exactly the committed state changes.
type EntitlementRepo struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewEntitlementRepo(pool *db.Pool, ob *outbox.Repository) *EntitlementRepo {
	return &EntitlementRepo{pool: pool, outbox: ob}
}

func (r *EntitlementRepo) Verification(ctx context.Context, doctorID string) (model.VerificationRecord, error) {
	var rec model.VerificationRecord
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id, status, verified_by, verified_at, updated_at
		FROM verification_records
		WHERE doctor_id = $1
	`, doctorID).Scan(&rec.DoctorID, &rec.Status, &rec.VerifiedBy, &rec.VerifiedAt, &rec.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.VerificationRecord{}, model.ErrNotFound
		}
		return model.VerificationRecord{}, err
	}
	return rec, nil
}

func (r *EntitlementRepo) SaveVerification(ctx context.Context, rec model.VerificationRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO verification_records (doctor_id, status, verified_by, verified_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (doctor_id) DO UPDATE
		SET status = EXCLUDED.status,
		    verified_by = EXCLUDED.verified_by,
		    verified_at = EXCLUDED.verified_at,
		    updated_at = now()
	`, rec.DoctorID, rec.Status, rec.VerifiedBy, rec.VerifiedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: doctor %s has no profile", model.ErrNotFound, rec.DoctorID)
		}
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"doctor_id": rec.DoctorID,
		"status":    string(rec.Status),
	})
	if err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "doctor",
		AggregateID:   rec.DoctorID,
		EventType:     outbox.EventVerificationDecided,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *EntitlementRepo) Subscription(ctx context.Context, doctorID string) (model.SubscriptionRecord, error) {
	var rec model.SubscriptionRecord
	var graceEndsAt, expiresAt *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id, status, plan, expires_at, grace_ends_at, amount_cents, updated_at
		FROM subscription_records
		WHERE doctor_id = $1
	`, doctorID).Scan(&rec.DoctorID, &rec.Status, &rec.Plan, &expiresAt, &graceEndsAt, &rec.AmountCents, &rec.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.SubscriptionRecord{}, model.ErrNotFound
		}
		return model.SubscriptionRecord{}, err
	}
	if expiresAt != nil {
		rec.ExpiresAt = *expiresAt
	}
	if graceEndsAt != nil {
		rec.GraceEndsAt = *graceEndsAt
	}
	return rec, nil
}

func (r *EntitlementRepo) SaveSubscription(ctx context.Context, rec model.SubscriptionRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := upsertSubscription(ctx, tx, rec); err != nil {
		return err
	}
	if err := r.insertSubscriptionEvent(ctx, tx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertSubscription(ctx context.Context, tx pgx.Tx, rec model.SubscriptionRecord) error {
	var expiresAt, graceEndsAt *time.Time
	if !rec.ExpiresAt.IsZero() {
		expiresAt = &rec.ExpiresAt
	}
	if !rec.GraceEndsAt.IsZero() {
		graceEndsAt = &rec.GraceEndsAt
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO subscription_records (doctor_id, status, plan, expires_at, grace_ends_at, amount_cents, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (doctor_id) DO UPDATE
		SET status = EXCLUDED.status,
		    plan = EXCLUDED.plan,
		    expires_at = EXCLUDED.expires_at,
		    grace_ends_at = EXCLUDED.grace_ends_at,
		    amount_cents = EXCLUDED.amount_cents,
		    updated_at = now()
	`, rec.DoctorID, rec.Status, rec.Plan, expiresAt, graceEndsAt, rec.AmountCents)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: doctor %s has no profile", model.ErrNotFound, rec.DoctorID)
		}
		return err
	}
	return nil
}

func (r *EntitlementRepo) insertSubscriptionEvent(ctx context.Context, tx pgx.Tx, rec model.SubscriptionRecord) error {
	payload, err := json.Marshal(map[string]any{
		"doctor_id":  rec.DoctorID,
		"status":     string(rec.Status),
		"plan":       string(rec.Plan),
		"expires_at": formatNullableTime(rec.ExpiresAt),
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "doctor",
		AggregateID:   rec.DoctorID,
		EventType:     outbox.EventSubscriptionChanged,
		Payload:       payload,
	})
}

// ApplyProviderPayment claims the provider event id and applies the payment
// it carries in one transaction. When the apply fails nothing commits, so the
// provider's retry of the same event id gets a fresh attempt; once committed,
// retries surface ErrDuplicateProviderEvent.
func (r *EntitlementRepo) ApplyProviderPayment(ctx context.Context, provider, eventID, eventType, doctorID string, plan model.Plan, amountCents int64) (model.SubscriptionRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.SubscriptionRecord{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := claimProviderEvent(ctx, tx, provider, eventID, eventType); err != nil {
		return model.SubscriptionRecord{}, err
	}

	var cur model.SubscriptionRecord
	var expiresAt, graceEndsAt *time.Time
	err = tx.QueryRow(ctx, `
		SELECT doctor_id, status, plan, expires_at, grace_ends_at, amount_cents, updated_at
		FROM subscription_records
		WHERE doctor_id = $1
		FOR UPDATE
	`, doctorID).Scan(&cur.DoctorID, &cur.Status, &cur.Plan, &expiresAt, &graceEndsAt, &cur.AmountCents, &cur.UpdatedAt)
	if err != nil && !isNoRows(err) {
		return model.SubscriptionRecord{}, err
	}
	if expiresAt != nil {
		cur.ExpiresAt = *expiresAt
	}
	if graceEndsAt != nil {
		cur.GraceEndsAt = *graceEndsAt
	}

	next, err := entitlement.NextOnPayment(cur, doctorID, plan, amountCents, time.Now().UTC())
	if err != nil {
		return model.SubscriptionRecord{}, err
	}
	if err := upsertSubscription(ctx, tx, next); err != nil {
		return model.SubscriptionRecord{}, err
	}
	if err := r.insertSubscriptionEvent(ctx, tx, next); err != nil {
		return model.SubscriptionRecord{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.SubscriptionRecord{}, err
	}
	return next, nil
}

func formatNullableTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// SweepDue returns subscriptions the expiry sweep must look at.
func (r *EntitlementRepo) SweepDue(ctx context.Context, now time.Time) ([]model.SubscriptionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doctor_id, status, plan, expires_at, grace_ends_at, amount_cents, updated_at
		FROM subscription_records
		WHERE (status = 'active' AND expires_at <= $1)
		   OR (status = 'grace' AND grace_ends_at <= $1)
		ORDER BY doctor_id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubscriptionRecord
	for rows.Next() {
		var rec model.SubscriptionRecord
		var expiresAt, graceEndsAt *time.Time
		if err := rows.Scan(&rec.DoctorID, &rec.Status, &rec.Plan, &expiresAt, &graceEndsAt, &rec.AmountCents, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if expiresAt != nil {
			rec.ExpiresAt = *expiresAt
		}
		if graceEndsAt != nil {
			rec.GraceEndsAt = *graceEndsAt
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateDoctorProfile registers the directory row alongside a pending
// verification record in a single transaction.
func (r *EntitlementRepo) CreateDoctorProfile(ctx context.Context, p model.DoctorProfile) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO doctor_profiles (doctor_id, name, specialty, email)
		VALUES ($1, $2, $3, $4)
	`, p.DoctorID, p.Name, p.Specialty, p.Email)
	if err != nil {
		if IsUniqueViolation(err) {
			return model.ErrValidation
		}
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO verification_records (doctor_id, status, updated_at)
		VALUES ($1, 'pending', now())
		ON CONFLICT (doctor_id) DO NOTHING
	`, p.DoctorID)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *EntitlementRepo) DoctorProfile(ctx context.Context, doctorID string) (model.DoctorProfile, error) {
	var p model.DoctorProfile
	err := r.pool.QueryRow(ctx, `
		SELECT doctor_id, name, specialty, email, created_at
		FROM doctor_profiles
		WHERE doctor_id = $1
	`, doctorID).Scan(&p.DoctorID, &p.Name, &p.Specialty, &p.Email, &p.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.DoctorProfile{}, model.ErrNotFound
		}
		return model.DoctorProfile{}, err
	}
	return p, nil
}

// ListBookable returns the directory entries patients may see: verified and
// on an unexpired active subscription as of the given instant. The asOf
// parameter is echoed back to callers so list freshness is explicit.
func (r *EntitlementRepo) ListBookable(ctx context.Context, asOf time.Time) ([]model.DoctorProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.doctor_id, p.name, p.specialty, p.email, p.created_at
		FROM doctor_profiles p
		JOIN verification_records v ON v.doctor_id = p.doctor_id AND v.status = 'verified'
		JOIN subscription_records s ON s.doctor_id = p.doctor_id AND s.status = 'active' AND s.expires_at > $1
		ORDER BY p.name, p.doctor_id
	`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DoctorProfile
	for rows.Next() {
		var p model.DoctorProfile
		if err := rows.Scan(&p.DoctorID, &p.Name, &p.Specialty, &p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
