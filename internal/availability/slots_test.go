package availability

import (
	"reflect"
	"testing"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
)

func mustClock(t *testing.T, s string) model.ClockMinute {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return c
}

func rule(t *testing.T, weekday time.Weekday, start, end string, active bool) model.AvailabilityRule {
	t.Helper()
	return model.AvailabilityRule{
		ID:       "r-" + start,
		DoctorID: "doc-1",
		Weekday:  weekday,
		Start:    mustClock(t, start),
		End:      mustClock(t, end),
		Active:   active,
	}
}

// 2026-09-07 is a Monday.
var monday = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

func TestGenerateSlots_MondayMorning(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "09:00", "12:00", true),
	}
	got := GenerateSlots(rules, monday, time.Hour)
	want := []model.ClockMinute{
		mustClock(t, "09:00"),
		mustClock(t, "10:00"),
		mustClock(t, "11:00"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSlots_WindowEndingAtMidnight(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "23:00", "24:00", true),
	}
	got := GenerateSlots(rules, monday, time.Hour)
	want := []model.ClockMinute{mustClock(t, "23:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "13:00", "17:00", true),
		rule(t, time.Monday, "09:00", "12:30", true),
	}
	first := GenerateSlots(rules, monday, 30*time.Minute)
	for i := 0; i < 10; i++ {
		again := GenerateSlots(rules, monday, 30*time.Minute)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed: %v vs %v", i, again, first)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] {
			t.Fatalf("slots not strictly ascending: %v", first)
		}
	}
}

func TestGenerateSlots_OverlappingRulesDeduplicate(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "09:00", "12:00", true),
		rule(t, time.Monday, "10:00", "13:00", true),
	}
	got := GenerateSlots(rules, monday, time.Hour)
	want := []model.ClockMinute{
		mustClock(t, "09:00"),
		mustClock(t, "10:00"),
		mustClock(t, "11:00"),
		mustClock(t, "12:00"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSlots_FiltersInactiveAndOtherWeekdays(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "09:00", "12:00", false),
		rule(t, time.Tuesday, "09:00", "12:00", true),
	}
	if got := GenerateSlots(rules, monday, time.Hour); len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestGenerateSlots_PartialTrailingWindowExcluded(t *testing.T) {
	// 09:00-10:30 with 60-minute slots: only 09:00 fits entirely.
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "09:00", "10:30", true),
	}
	got := GenerateSlots(rules, monday, time.Hour)
	want := []model.ClockMinute{mustClock(t, "09:00")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateSlots_RejectsNonPositiveOrSubMinuteDuration(t *testing.T) {
	rules := []model.AvailabilityRule{
		rule(t, time.Monday, "09:00", "12:00", true),
	}
	if got := GenerateSlots(rules, monday, 0); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := GenerateSlots(rules, monday, 90*time.Second); got != nil {
		t.Fatalf("expected nil for sub-minute duration, got %v", got)
	}
}

func TestSlotInterval(t *testing.T) {
	start, end := SlotInterval(monday, mustClock(t, "10:00"), time.Hour)
	wantStart := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) || !end.Equal(wantStart.Add(time.Hour)) {
		t.Fatalf("got [%s, %s)", start, end)
	}
}
