package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
)

// Store is the persistence surface the engine needs. The Postgres
// implementation lives in internal/storage; tests use an in-memory fake.
// Lookups return model.ErrNotFound when no record exists.
type Store interface {
	Verification(ctx context.Context, doctorID string) (model.VerificationRecord, error)
	SaveVerification(ctx context.Context, rec model.VerificationRecord) error
	Subscription(ctx context.Context, doctorID string) (model.SubscriptionRecord, error)
	SaveSubscription(ctx context.Context, rec model.SubscriptionRecord) error
	// SweepDue returns subscriptions whose status must be re-evaluated:
	// active with expires_at <= now, or grace with grace_ends_at <= now.
	SweepDue(ctx context.Context, now time.Time) ([]model.SubscriptionRecord, error)
}

type Config struct {
	// GraceWindow is how long after expiry an active subscription stays in
	// grace before moving to expired.
	GraceWindow time.Duration
}

// Engine owns the verification and subscription state machines and the
// derived bookability predicate. It holds no state of its own; every call
// reads the current records.
type Engine struct {
	store  Store
	logger *slog.Logger
	grace  time.Duration

	// now is swappable in tests.
	now func() time.Time
}

func NewEngine(store Store, logger *slog.Logger, cfg Config) *Engine {
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = 7 * 24 * time.Hour
	}
	return &Engine{
		store:  store,
		logger: logger,
		grace:  cfg.GraceWindow,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Approve moves the doctor's verification to verified. Admin only.
func (e *Engine) Approve(ctx context.Context, actor model.Actor, doctorID string) (model.VerificationRecord, error) {
	return e.decide(ctx, actor, doctorID, model.VerificationVerified)
}

// Reject moves the doctor's verification to rejected. Admin only.
func (e *Engine) Reject(ctx context.Context, actor model.Actor, doctorID string) (model.VerificationRecord, error) {
	return e.decide(ctx, actor, doctorID, model.VerificationRejected)
}

func (e *Engine) decide(ctx context.Context, actor model.Actor, doctorID string, status model.VerificationStatus) (model.VerificationRecord, error) {
	if !actor.IsAdmin() {
		return model.VerificationRecord{}, fmt.Errorf("%w: verification decisions require the admin role", model.ErrNotAuthorized)
	}
	if doctorID == "" {
		return model.VerificationRecord{}, fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}

	rec, err := e.store.Verification(ctx, doctorID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.VerificationRecord{}, err
	}

	now := e.now()
	rec.DoctorID = doctorID
	rec.Status = status
	rec.VerifiedBy = actor.UserID
	rec.VerifiedAt = &now
	if err := e.store.SaveVerification(ctx, rec); err != nil {
		return model.VerificationRecord{}, err
	}

	e.logger.Info("verification decision",
		"doctor_id", doctorID,
		"status", string(status),
		"admin_id", actor.UserID,
	)
	return rec, nil
}

// NextOnPayment validates a payment against the plan price and returns the
// subscription record as it stands after the payment applies. The new expiry
// extends from the later of now and the current expiry so early renewals
// never lose paid time. Callers pass the zero record when the doctor has no
// subscription yet.
func NextOnPayment(current model.SubscriptionRecord, doctorID string, plan model.Plan, amountCents int64, now time.Time) (model.SubscriptionRecord, error) {
	if doctorID == "" {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: doctor id is required", model.ErrValidation)
	}
	price, ok := plan.PriceCents()
	if !ok {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: unknown plan %q", model.ErrValidation, plan)
	}
	if amountCents != price {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: amount %d does not match %s plan price %d", model.ErrValidation, amountCents, plan, price)
	}

	base := now
	if current.ExpiresAt.After(now) {
		base = current.ExpiresAt
	}
	current.DoctorID = doctorID
	current.Status = model.SubscriptionActive
	current.Plan = plan
	current.ExpiresAt = base.Add(plan.Duration())
	current.GraceEndsAt = time.Time{}
	current.AmountCents = amountCents
	return current, nil
}

// RecordPayment reads the current subscription, applies NextOnPayment, and
// saves the result. The webhook path uses storage.ApplyProviderPayment
// instead, which runs the same transition inside the idempotency-claim
// transaction.
func (e *Engine) RecordPayment(ctx context.Context, doctorID string, plan model.Plan, amountCents int64) (model.SubscriptionRecord, error) {
	cur, err := e.store.Subscription(ctx, doctorID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.SubscriptionRecord{}, err
	}

	rec, err := NextOnPayment(cur, doctorID, plan, amountCents, e.now())
	if err != nil {
		return model.SubscriptionRecord{}, err
	}
	if err := e.store.SaveSubscription(ctx, rec); err != nil {
		return model.SubscriptionRecord{}, err
	}

	e.logger.Info("subscription payment recorded",
		"doctor_id", doctorID,
		"plan", string(plan),
		"amount_cents", amountCents,
		"expires_at", rec.ExpiresAt.Format(time.RFC3339),
	)
	return rec, nil
}

// Extend pushes the expiry forward by an admin-chosen amount without touching
// the plan. Admin only.
func (e *Engine) Extend(ctx context.Context, actor model.Actor, doctorID string, amount int, unit string) (model.SubscriptionRecord, error) {
	if !actor.IsAdmin() {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: subscription extension requires the admin role", model.ErrNotAuthorized)
	}
	if doctorID == "" || amount <= 0 {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: doctor id and a positive amount are required", model.ErrValidation)
	}

	var per time.Duration
	switch unit {
	case "day":
		per = 24 * time.Hour
	case "week":
		per = 7 * 24 * time.Hour
	case "month":
		per = 30 * 24 * time.Hour
	case "year":
		per = 365 * 24 * time.Hour
	default:
		return model.SubscriptionRecord{}, fmt.Errorf("%w: unknown unit %q", model.ErrValidation, unit)
	}

	rec, err := e.store.Subscription(ctx, doctorID)
	if err != nil {
		return model.SubscriptionRecord{}, err
	}

	now := e.now()
	base := now
	if rec.ExpiresAt.After(now) {
		base = rec.ExpiresAt
	}
	rec.Status = model.SubscriptionActive
	rec.ExpiresAt = base.Add(time.Duration(amount) * per)
	rec.GraceEndsAt = time.Time{}
	if err := e.store.SaveSubscription(ctx, rec); err != nil {
		return model.SubscriptionRecord{}, err
	}

	e.logger.Info("subscription extended",
		"doctor_id", doctorID,
		"amount", amount,
		"unit", unit,
		"admin_id", actor.UserID,
		"expires_at", rec.ExpiresAt.Format(time.RFC3339),
	)
	return rec, nil
}

// AdminOverride sets the subscription status (and optionally expiry)
// unconditionally, bypassing the normal transitions. Last write wins.
func (e *Engine) AdminOverride(ctx context.Context, actor model.Actor, doctorID string, status model.SubscriptionStatus, expiresAt *time.Time) (model.SubscriptionRecord, error) {
	if !actor.IsAdmin() {
		return model.SubscriptionRecord{}, fmt.Errorf("%w: subscription override requires the admin role", model.ErrNotAuthorized)
	}
	switch status {
	case model.SubscriptionInactive, model.SubscriptionActive, model.SubscriptionGrace,
		model.SubscriptionPastDue, model.SubscriptionExpired, model.SubscriptionCanceled:
	default:
		return model.SubscriptionRecord{}, fmt.Errorf("%w: unknown subscription status %q", model.ErrValidation, status)
	}

	rec, err := e.store.Subscription(ctx, doctorID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.SubscriptionRecord{}, err
	}

	rec.DoctorID = doctorID
	rec.Status = status
	if expiresAt != nil {
		rec.ExpiresAt = expiresAt.UTC()
	}
	if err := e.store.SaveSubscription(ctx, rec); err != nil {
		return model.SubscriptionRecord{}, err
	}

	e.logger.Info("subscription override",
		"doctor_id", doctorID,
		"status", string(status),
		"admin_id", actor.UserID,
	)
	return rec, nil
}

// SweepExpirations demotes lapsed subscriptions: active past expiry moves to
// grace while still inside the grace window, otherwise to expired; grace past
// its window moves to expired. Terminal states are never touched, and running
// the sweep twice with the same clock is a no-op. Returns how many records
// changed.
func (e *Engine) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	due, err := e.store.SweepDue(ctx, now)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, rec := range due {
		if rec.Status.Terminal() {
			continue
		}
		next, ok := e.sweepTransition(rec, now)
		if !ok {
			continue
		}
		if err := e.store.SaveSubscription(ctx, next); err != nil {
			return changed, err
		}
		changed++
		e.logger.Info("subscription swept",
			"doctor_id", rec.DoctorID,
			"from", string(rec.Status),
			"to", string(next.Status),
		)
	}
	return changed, nil
}

func (e *Engine) sweepTransition(rec model.SubscriptionRecord, now time.Time) (model.SubscriptionRecord, bool) {
	switch rec.Status {
	case model.SubscriptionActive:
		if rec.ExpiresAt.After(now) {
			return rec, false
		}
		graceEnds := rec.ExpiresAt.Add(e.grace)
		if graceEnds.After(now) {
			rec.Status = model.SubscriptionGrace
			rec.GraceEndsAt = graceEnds
			return rec, true
		}
		rec.Status = model.SubscriptionExpired
		return rec, true
	case model.SubscriptionGrace:
		if rec.GraceEndsAt.After(now) {
			return rec, false
		}
		rec.Status = model.SubscriptionExpired
		return rec, true
	default:
		return rec, false
	}
}

// IsBookable is the single visibility/bookability gate: verified, active, and
// unexpired. It is recomputed on every call, never cached.
func (e *Engine) IsBookable(ctx context.Context, doctorID string, now time.Time) (bool, error) {
	ver, err := e.store.Verification(ctx, doctorID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if ver.Status != model.VerificationVerified {
		return false, nil
	}

	sub, err := e.store.Subscription(ctx, doctorID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.VisibilityEligible(now), nil
}
