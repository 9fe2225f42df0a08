package availability

import (
	"sort"
	"time"

	"github.com/arefin-anik/docmarket/internal/model"
)

// GenerateSlots returns every bookable start time derived from the doctor's
// recurring rules for the given calendar date. It is a pure function of its
// inputs: identical input yields an identical, ascending, duplicate-free
// slice. Horizon filtering ("no past dates", +30 days) is the caller's job.
//
// A rule contributes every aligned start t with rule.Start <= t and
// t+duration <= rule.End, stepping by duration. Rules that are inactive or
// fall on a different weekday are skipped; overlapping rules may emit the
// same start, which is deduplicated.
func GenerateSlots(rules []model.AvailabilityRule, date time.Time, slotDuration time.Duration) []model.ClockMinute {
	if slotDuration <= 0 {
		return nil
	}
	step := int(slotDuration / time.Minute)
	if step <= 0 || time.Duration(step)*time.Minute != slotDuration {
		// Sub-minute precision has no representation in clock-minute slots.
		return nil
	}

	weekday := date.Weekday()
	seen := make(map[model.ClockMinute]struct{})
	var slots []model.ClockMinute

	for _, rule := range rules {
		if !rule.Active || rule.Weekday != weekday {
			continue
		}
		if rule.End <= rule.Start {
			continue
		}
		for t := rule.Start; t+model.ClockMinute(step) <= rule.End; t += model.ClockMinute(step) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			slots = append(slots, t)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// SlotInterval anchors a clock-minute slot onto a concrete date in UTC,
// returning the half-open [start, end) the appointment would occupy.
func SlotInterval(date time.Time, start model.ClockMinute, duration time.Duration) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	startsAt := day.Add(time.Duration(start) * time.Minute)
	return startsAt, startsAt.Add(duration)
}
