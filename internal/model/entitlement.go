package model

import "time"

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationRecord tracks the admin decision on a doctor's identity.
// Created in pending when the doctor completes their profile; only admin
// actions move it afterwards.
type VerificationRecord struct {
	DoctorID   string
	Status     VerificationStatus
	VerifiedBy string
	VerifiedAt *time.Time
	UpdatedAt  time.Time
}

type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionGrace    SubscriptionStatus = "grace"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionExpired  SubscriptionStatus = "expired"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Terminal reports whether the expiry sweep must leave this status alone.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionExpired || s == SubscriptionCanceled
}

type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
)

// PriceCents is the exact amount a payment for this plan must carry.
func (p Plan) PriceCents() (int64, bool) {
	switch p {
	case PlanMonthly:
		return 4900, true
	case PlanAnnual:
		return 49900, true
	default:
		return 0, false
	}
}

func (p Plan) Duration() time.Duration {
	if p == PlanAnnual {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// SubscriptionRecord tracks a doctor's paid listing. ExpiresAt is zero until
// the first payment. GraceEndsAt is set when the sweep moves an expired
// active subscription into grace.
type SubscriptionRecord struct {
	DoctorID    string
	Status      SubscriptionStatus
	Plan        Plan
	ExpiresAt   time.Time
	GraceEndsAt time.Time
	AmountCents int64
	UpdatedAt   time.Time
}

// VisibilityEligible is the subscription half of the bookability predicate.
func (s SubscriptionRecord) VisibilityEligible(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiresAt.After(now)
}
