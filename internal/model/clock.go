package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockMinute is a time of day expressed as minutes since midnight.
// Availability rules and generated slots use it so that a slot means the same
// wall-clock time on every date it applies to.
type ClockMinute int

const MinutesPerDay = 24 * 60

// ParseClock parses "HH:MM" (24h). "24:00" parses to MinutesPerDay so rule
// windows can end at midnight; it is never a valid slot start.
func ParseClock(s string) (ClockMinute, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockMinute(h*60 + m), nil
}

func (c ClockMinute) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

func (c ClockMinute) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
