package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
)

var testClock = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// monday is the next Monday after testClock.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

type fakeRules struct {
	rules []model.AvailabilityRule
}

func (f *fakeRules) ActiveRules(_ context.Context, doctorID string, weekday time.Weekday) ([]model.AvailabilityRule, error) {
	var out []model.AvailabilityRule
	for _, r := range f.rules {
		if r.DoctorID == doctorID && r.Weekday == weekday && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeAppointments mirrors the database contract: CreateScheduled is atomic
// and rejects overlapping blocking appointments the way the exclusion
// constraint does.
type fakeAppointments struct {
	mu    sync.Mutex
	appts map[string]model.Appointment
	seq   int
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: make(map[string]model.Appointment)}
}

func (f *fakeAppointments) ListOverlapping(_ context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.Status.Blocks() && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) CreateScheduled(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.DoctorID == appt.DoctorID && a.Status.Blocks() && a.Overlaps(appt.StartsAt, appt.EndsAt) {
			return model.Appointment{}, model.ErrConcurrentBooking
		}
	}
	f.seq++
	appt.ID = fmt.Sprintf("appt-%d", f.seq)
	appt.Status = model.AppointmentScheduled
	appt.CreatedAt = testClock
	f.appts[appt.ID] = appt
	return appt, nil
}

func (f *fakeAppointments) Get(_ context.Context, id string) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id string, status model.AppointmentStatus) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, model.ErrNotFound
	}
	a.Status = status
	f.appts[id] = a
	return a, nil
}

func (f *fakeAppointments) ListByDoctor(_ context.Context, doctorID string, from, to time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && !a.StartsAt.Before(from) && a.StartsAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEntitlements struct {
	bookable map[string]bool
}

func (f *fakeEntitlements) IsBookable(_ context.Context, doctorID string, _ time.Time) (bool, error) {
	return f.bookable[doctorID], nil
}

func newTestService(t *testing.T) (*Service, *fakeAppointments, *fakeEntitlements) {
	t.Helper()
	rules := &fakeRules{rules: []model.AvailabilityRule{
		{ID: "r1", DoctorID: "doc-1", Weekday: time.Monday, Start: 9 * 60, End: 12 * 60, Active: true},
		{ID: "r2", DoctorID: "doc-2", Weekday: time.Monday, Start: 9 * 60, End: 12 * 60, Active: true},
	}}
	appts := newFakeAppointments()
	ents := &fakeEntitlements{bookable: map[string]bool{"doc-1": true, "doc-2": true}}
	svc := NewService(rules, appts, ents, slog.New(slog.DiscardHandler), Config{})
	svc.now = func() time.Time { return testClock }
	return svc, appts, ents
}

func patient(id string) model.Actor {
	return model.Actor{UserID: id, Role: model.RolePatient}
}

func TestBookOfferedSlot(t *testing.T) {
	svc, _, _ := newTestService(t)

	appt, err := svc.Book(context.Background(), patient("pat-1"), "doc-1", monday, 9*60, "first visit")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.Status != model.AppointmentScheduled {
		t.Errorf("status = %s, want scheduled", appt.Status)
	}
	wantStart := time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC)
	if !appt.StartsAt.Equal(wantStart) {
		t.Errorf("StartsAt = %v, want %v", appt.StartsAt, wantStart)
	}
	if !appt.EndsAt.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("EndsAt = %v, want %v", appt.EndsAt, wantStart.Add(time.Hour))
	}
	if appt.PatientID != "pat-1" || appt.CreatedBy != "pat-1" {
		t.Errorf("patient/creator = %s/%s, want pat-1", appt.PatientID, appt.CreatedBy)
	}
}

func TestBookTakenSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 9*60, ""); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := svc.Book(ctx, patient("pat-2"), "doc-1", monday, 9*60, "")
	if !errors.Is(err, model.ErrSlotTaken) {
		t.Fatalf("second booking err = %v, want ErrSlotTaken", err)
	}
}

func TestBookSameSlotDifferentDoctors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 10*60, ""); err != nil {
		t.Fatalf("doc-1 booking: %v", err)
	}
	if _, err := svc.Book(ctx, patient("pat-2"), "doc-2", monday, 10*60, ""); err != nil {
		t.Fatalf("doc-2 booking should be independent: %v", err)
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	svc, appts, _ := newTestService(t)
	ctx := context.Background()

	const n = 8
	errs := make(chan error, n)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < n; i++ {
		go func(i int) {
			start.Wait()
			_, err := svc.Book(ctx, patient(fmt.Sprintf("pat-%d", i)), "doc-1", monday, 11*60, "")
			errs <- err
		}(i)
	}
	start.Done()

	var wins, conflicts int
	for i := 0; i < n; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		case errors.Is(err, model.ErrSlotTaken) || errors.Is(err, model.ErrConcurrentBooking):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1 (conflicts = %d)", wins, conflicts)
	}

	count := 0
	for _, a := range appts.appts {
		if a.Status.Blocks() {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("stored blocking appointments = %d, want 1", count)
	}
}

func TestBookNotOfferedSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		date time.Time
		slot model.ClockMinute
	}{
		{"unaligned start", monday, 9*60 + 30},
		{"outside window", monday, 13 * 60},
		{"wrong weekday", monday.AddDate(0, 0, 1), 9 * 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(ctx, patient("pat-1"), "doc-1", tc.date, tc.slot, "")
			if !errors.Is(err, model.ErrInvalidSlot) {
				t.Fatalf("err = %v, want ErrInvalidSlot", err)
			}
		})
	}
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Past slot: testClock is noon, so a 9:00 slot on the same day already
	// passed even though the rule would offer it on a Monday.
	past := monday.AddDate(0, 0, -7)
	if _, err := svc.Book(ctx, patient("pat-1"), "doc-1", past, 9*60, ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("past date err = %v, want ErrValidation", err)
	}

	beyond := monday.AddDate(0, 0, 35)
	if _, err := svc.Book(ctx, patient("pat-1"), "doc-1", beyond, 9*60, ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("beyond horizon err = %v, want ErrValidation", err)
	}

	if _, err := svc.Book(ctx, patient("pat-1"), "", monday, 9*60, ""); !errors.Is(err, model.ErrValidation) {
		t.Errorf("missing doctor err = %v, want ErrValidation", err)
	}

	if _, err := svc.Book(ctx, model.Actor{}, "doc-1", monday, 9*60, ""); !errors.Is(err, model.ErrNotAuthorized) {
		t.Errorf("anonymous err = %v, want ErrNotAuthorized", err)
	}
}

func TestBookUnbookableDoctor(t *testing.T) {
	svc, _, ents := newTestService(t)
	ents.bookable["doc-1"] = false

	_, err := svc.Book(context.Background(), patient("pat-1"), "doc-1", monday, 9*60, "")
	if !errors.Is(err, model.ErrNotBookable) {
		t.Fatalf("err = %v, want ErrNotBookable", err)
	}
}

func TestSlotsListing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	listing, err := svc.Slots(ctx, "doc-1", monday)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	want := []model.ClockMinute{9 * 60, 10 * 60, 11 * 60}
	assertSlots(t, listing.Slots, want)
	if !listing.AsOf.Equal(testClock) {
		t.Errorf("AsOf = %v, want %v", listing.AsOf, testClock)
	}

	// Booking removes only the booked slot.
	if _, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 10*60, ""); err != nil {
		t.Fatalf("Book: %v", err)
	}
	listing, err = svc.Slots(ctx, "doc-1", monday)
	if err != nil {
		t.Fatalf("Slots after booking: %v", err)
	}
	assertSlots(t, listing.Slots, []model.ClockMinute{9 * 60, 11 * 60})
}

func TestSlotsUnbookableDoctorEmpty(t *testing.T) {
	svc, _, ents := newTestService(t)
	ents.bookable["doc-1"] = false

	listing, err := svc.Slots(context.Background(), "doc-1", monday)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if len(listing.Slots) != 0 {
		t.Fatalf("slots = %v, want empty for unbookable doctor", listing.Slots)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 9*60, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	cancelled, err := svc.Cancel(ctx, patient("pat-1"), appt.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.AppointmentCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	// Slot is offered and bookable again.
	listing, err := svc.Slots(ctx, "doc-1", monday)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	assertSlots(t, listing.Slots, []model.ClockMinute{9 * 60, 10 * 60, 11 * 60})
	if _, err := svc.Book(ctx, patient("pat-2"), "doc-1", monday, 9*60, ""); err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
}

func TestTransitionAuthorization(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 9*60, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := svc.Cancel(ctx, patient("pat-2"), appt.ID); !errors.Is(err, model.ErrNotAuthorized) {
		t.Errorf("other patient cancel err = %v, want ErrNotAuthorized", err)
	}
	if _, err := svc.Complete(ctx, patient("pat-1"), appt.ID); !errors.Is(err, model.ErrNotAuthorized) {
		t.Errorf("patient complete err = %v, want ErrNotAuthorized", err)
	}
	assistant := model.Actor{UserID: "asst-1", Role: model.RoleAssistant, DoctorID: "doc-2"}
	if _, err := svc.Complete(ctx, assistant, appt.ID); !errors.Is(err, model.ErrNotAuthorized) {
		t.Errorf("wrong-doctor assistant err = %v, want ErrNotAuthorized", err)
	}

	doctor := model.Actor{UserID: "doc-1", Role: model.RoleDoctor, DoctorID: "doc-1"}
	if _, err := svc.Complete(ctx, doctor, appt.ID); err != nil {
		t.Fatalf("doctor complete: %v", err)
	}
	// Completed appointments cannot transition again.
	if _, err := svc.Cancel(ctx, doctor, appt.ID); !errors.Is(err, model.ErrValidation) {
		t.Errorf("cancel completed err = %v, want ErrValidation", err)
	}
}

func TestNoShowReleasesSlot(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Book(ctx, patient("pat-1"), "doc-1", monday, 11*60, "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	doctor := model.Actor{UserID: "doc-1", Role: model.RoleDoctor, DoctorID: "doc-1"}
	if _, err := svc.NoShow(ctx, doctor, appt.ID); err != nil {
		t.Fatalf("NoShow: %v", err)
	}
	if _, err := svc.Book(ctx, patient("pat-2"), "doc-1", monday, 11*60, ""); err != nil {
		t.Fatalf("rebooking no-show slot: %v", err)
	}
}

func assertSlots(t *testing.T, got, want []model.ClockMinute) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slots = %v, want %v", got, want)
		}
	}
}
