package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
)

type memStore struct {
	vers map[string]model.VerificationRecord
	subs map[string]model.SubscriptionRecord

	// knownDoctors, when non-nil, emulates the doctor profile foreign key:
	// saves for doctors outside the set fail with model.ErrNotFound, the way
	// the Postgres store maps the constraint violation. Nil means every
	// doctor exists.
	knownDoctors map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		vers: map[string]model.VerificationRecord{},
		subs: map[string]model.SubscriptionRecord{},
	}
}

func (s *memStore) Verification(_ context.Context, doctorID string) (model.VerificationRecord, error) {
	rec, ok := s.vers[doctorID]
	if !ok {
		return model.VerificationRecord{}, model.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) SaveVerification(_ context.Context, rec model.VerificationRecord) error {
	if s.knownDoctors != nil && !s.knownDoctors[rec.DoctorID] {
		return model.ErrNotFound
	}
	s.vers[rec.DoctorID] = rec
	return nil
}

func (s *memStore) Subscription(_ context.Context, doctorID string) (model.SubscriptionRecord, error) {
	rec, ok := s.subs[doctorID]
	if !ok {
		return model.SubscriptionRecord{}, model.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) SaveSubscription(_ context.Context, rec model.SubscriptionRecord) error {
	if s.knownDoctors != nil && !s.knownDoctors[rec.DoctorID] {
		return model.ErrNotFound
	}
	s.subs[rec.DoctorID] = rec
	return nil
}

func (s *memStore) SweepDue(_ context.Context, now time.Time) ([]model.SubscriptionRecord, error) {
	var due []model.SubscriptionRecord
	for _, rec := range s.subs {
		switch rec.Status {
		case model.SubscriptionActive:
			if !rec.ExpiresAt.After(now) {
				due = append(due, rec)
			}
		case model.SubscriptionGrace:
			if !rec.GraceEndsAt.After(now) {
				due = append(due, rec)
			}
		}
	}
	return due, nil
}

var testClock = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(store Store) *Engine {
	logger := slog.New(slog.DiscardHandler)
	e := NewEngine(store, logger, Config{GraceWindow: 7 * 24 * time.Hour})
	e.now = func() time.Time { return testClock }
	return e
}

var admin = model.Actor{UserID: "admin-1", Role: model.RoleAdmin}

func TestApproveRequiresAdmin(t *testing.T) {
	e := newTestEngine(newMemStore())
	for _, role := range []string{model.RolePatient, model.RoleDoctor, model.RoleAssistant} {
		_, err := e.Approve(context.Background(), model.Actor{UserID: "u", Role: role}, "doc-1")
		if !errors.Is(err, model.ErrNotAuthorized) {
			t.Fatalf("role %s: expected ErrNotAuthorized, got %v", role, err)
		}
	}
}

func TestApproveAndReject(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	ctx := context.Background()

	rec, err := e.Approve(ctx, admin, "doc-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if rec.Status != model.VerificationVerified || rec.VerifiedBy != "admin-1" || rec.VerifiedAt == nil {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// An admin can move between any two states; reject after approve sticks.
	rec, err = e.Reject(ctx, admin, "doc-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rec.Status != model.VerificationRejected {
		t.Fatalf("expected rejected, got %s", rec.Status)
	}
	if store.vers["doc-1"].Status != model.VerificationRejected {
		t.Fatal("reject not persisted")
	}
}

// Admin operations on a doctor with no profile must surface ErrNotFound so
// the HTTP layer can answer 404 instead of a generic failure.
func TestApproveUnknownDoctor(t *testing.T) {
	store := newMemStore()
	store.knownDoctors = map[string]bool{}
	e := newTestEngine(store)

	if _, err := e.Approve(context.Background(), admin, "ghost"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordPaymentFirstPayment(t *testing.T) {
	e := newTestEngine(newMemStore())

	rec, err := e.RecordPayment(context.Background(), "doc-1", model.PlanMonthly, 4900)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if rec.Status != model.SubscriptionActive {
		t.Fatalf("expected active, got %s", rec.Status)
	}
	want := testClock.Add(30 * 24 * time.Hour)
	if !rec.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", rec.ExpiresAt, want)
	}
}

func TestRecordPaymentRejectsWrongAmount(t *testing.T) {
	e := newTestEngine(newMemStore())
	_, err := e.RecordPayment(context.Background(), "doc-1", model.PlanMonthly, 100)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	_, err = e.RecordPayment(context.Background(), "doc-1", model.Plan("weekly"), 4900)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown plan, got %v", err)
	}
}

func TestRecordPaymentEarlyRenewalExtendsFromExpiry(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	currentExpiry := testClock.Add(10 * 24 * time.Hour)
	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		Plan:      model.PlanMonthly,
		ExpiresAt: currentExpiry,
	}

	rec, err := e.RecordPayment(context.Background(), "doc-1", model.PlanMonthly, 4900)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	want := currentExpiry.Add(30 * 24 * time.Hour)
	if !rec.ExpiresAt.Equal(want) {
		t.Fatalf("early renewal lost paid time: expires_at = %s, want %s", rec.ExpiresAt, want)
	}
}

func TestRecordPaymentLapsedRenewalExtendsFromNow(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionExpired,
		Plan:      model.PlanMonthly,
		ExpiresAt: testClock.Add(-5 * 24 * time.Hour),
	}

	rec, err := e.RecordPayment(context.Background(), "doc-1", model.PlanAnnual, 49900)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	want := testClock.Add(365 * 24 * time.Hour)
	if !rec.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", rec.ExpiresAt, want)
	}
	if rec.Status != model.SubscriptionActive {
		t.Fatalf("expected active, got %s", rec.Status)
	}
}

func TestExtend(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		ExpiresAt: testClock.Add(24 * time.Hour),
	}

	rec, err := e.Extend(context.Background(), admin, "doc-1", 2, "week")
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	want := testClock.Add(24 * time.Hour).Add(14 * 24 * time.Hour)
	if !rec.ExpiresAt.Equal(want) {
		t.Fatalf("expires_at = %s, want %s", rec.ExpiresAt, want)
	}

	if _, err := e.Extend(context.Background(), admin, "doc-1", 1, "fortnight"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown unit, got %v", err)
	}
	nonAdmin := model.Actor{UserID: "u", Role: model.RoleDoctor, DoctorID: "doc-1"}
	if _, err := e.Extend(context.Background(), nonAdmin, "doc-1", 1, "day"); !errors.Is(err, model.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestAdminOverride(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	newExpiry := testClock.Add(90 * 24 * time.Hour)
	rec, err := e.AdminOverride(context.Background(), admin, "doc-1", model.SubscriptionActive, &newExpiry)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if rec.Status != model.SubscriptionActive || !rec.ExpiresAt.Equal(newExpiry) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := e.AdminOverride(context.Background(), admin, "doc-1", model.SubscriptionStatus("bogus"), nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdminOverrideUnknownDoctor(t *testing.T) {
	store := newMemStore()
	store.knownDoctors = map[string]bool{}
	e := newTestEngine(store)

	if _, err := e.AdminOverride(context.Background(), admin, "ghost", model.SubscriptionActive, nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("override: expected ErrNotFound, got %v", err)
	}
	if _, err := e.RecordPayment(context.Background(), "ghost", model.PlanMonthly, 4900); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("record payment: expected ErrNotFound, got %v", err)
	}
	if _, err := e.Extend(context.Background(), admin, "ghost", 1, "month"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("extend: expected ErrNotFound, got %v", err)
	}
}

func TestSweepActiveToGrace(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	expiry := testClock.Add(-24 * time.Hour)
	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		ExpiresAt: expiry,
	}

	changed, err := e.SweepExpirations(context.Background(), testClock)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
	got := store.subs["doc-1"]
	if got.Status != model.SubscriptionGrace {
		t.Fatalf("expected grace, got %s", got.Status)
	}
	if !got.GraceEndsAt.Equal(expiry.Add(7 * 24 * time.Hour)) {
		t.Fatalf("grace_ends_at = %s", got.GraceEndsAt)
	}
}

func TestSweepActivePastGraceWindowToExpired(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		ExpiresAt: testClock.Add(-30 * 24 * time.Hour),
	}

	if _, err := e.SweepExpirations(context.Background(), testClock); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := store.subs["doc-1"].Status; got != model.SubscriptionExpired {
		t.Fatalf("expected expired, got %s", got)
	}
}

func TestSweepGraceToExpired(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:    "doc-1",
		Status:      model.SubscriptionGrace,
		ExpiresAt:   testClock.Add(-10 * 24 * time.Hour),
		GraceEndsAt: testClock.Add(-3 * 24 * time.Hour),
	}

	if _, err := e.SweepExpirations(context.Background(), testClock); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := store.subs["doc-1"].Status; got != model.SubscriptionExpired {
		t.Fatalf("expected expired, got %s", got)
	}
}

func TestSweepIsIdempotentAndSkipsTerminal(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)

	store.subs["doc-1"] = model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		ExpiresAt: testClock.Add(-1 * time.Hour),
	}
	store.subs["doc-2"] = model.SubscriptionRecord{
		DoctorID:  "doc-2",
		Status:    model.SubscriptionCanceled,
		ExpiresAt: testClock.Add(-90 * 24 * time.Hour),
	}

	first, err := e.SweepExpirations(context.Background(), testClock)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if first != 1 {
		t.Fatalf("first sweep changed = %d, want 1", first)
	}
	second, err := e.SweepExpirations(context.Background(), testClock)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if second != 0 {
		t.Fatalf("second sweep changed = %d, want 0 (not idempotent)", second)
	}
	if got := store.subs["doc-2"].Status; got != model.SubscriptionCanceled {
		t.Fatalf("terminal state reordered to %s", got)
	}
}

func TestIsBookable(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(store)
	ctx := context.Background()

	activeSub := model.SubscriptionRecord{
		DoctorID:  "doc-1",
		Status:    model.SubscriptionActive,
		ExpiresAt: testClock.Add(24 * time.Hour),
	}

	cases := []struct {
		name string
		ver  *model.VerificationRecord
		sub  *model.SubscriptionRecord
		want bool
	}{
		{"no records", nil, nil, false},
		{"pending with active sub", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationPending}, &activeSub, false},
		{"rejected with active sub", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationRejected}, &activeSub, false},
		{"verified without sub", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationVerified}, nil, false},
		{"verified active but expired", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationVerified},
			&model.SubscriptionRecord{DoctorID: "doc-1", Status: model.SubscriptionActive, ExpiresAt: testClock.Add(-time.Minute)}, false},
		{"verified in grace", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationVerified},
			&model.SubscriptionRecord{DoctorID: "doc-1", Status: model.SubscriptionGrace, ExpiresAt: testClock.Add(-time.Minute), GraceEndsAt: testClock.Add(24 * time.Hour)}, false},
		{"verified and active", &model.VerificationRecord{DoctorID: "doc-1", Status: model.VerificationVerified}, &activeSub, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			delete(store.vers, "doc-1")
			delete(store.subs, "doc-1")
			if tc.ver != nil {
				store.vers["doc-1"] = *tc.ver
			}
			if tc.sub != nil {
				store.subs["doc-1"] = *tc.sub
			}
			got, err := e.IsBookable(ctx, "doc-1", testClock)
			if err != nil {
				t.Fatalf("IsBookable: %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsBookable = %v, want %v", got, tc.want)
			}
		})
	}
}
