package domain

import (
	"errors"
	"strings"
)

// ErrInvalidMode is returned when a view mode is not recognised.
var ErrInvalidMode = errors.New("invalid timeline mode")

// Mode is the granularity of a timeline.
type Mode string

const (
	ModeDay      Mode = "day"
	ModeWeek     Mode = "week"
	ModeMonth    Mode = "month"
	ModeQuarter  Mode = "quarter"
	ModeHalfYear Mode = "halfyear"
)

// AllModes lists the supported modes from finest to coarsest.
var AllModes = []Mode{ModeDay, ModeWeek, ModeMonth, ModeQuarter, ModeHalfYear}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// IsValid returns true if the mode is supported.
func (m Mode) IsValid() bool {
	for _, v := range AllModes {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMode parses a mode name. An empty string selects week mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ModeWeek, nil
	case "day", "daily":
		return ModeDay, nil
	case "week", "weekly":
		return ModeWeek, nil
	case "month", "monthly":
		return ModeMonth, nil
	case "quarter", "quarterly":
		return ModeQuarter, nil
	case "halfyear", "half-year", "half_year":
		return ModeHalfYear, nil
	}
	return "", ErrInvalidMode
}

// Policy holds the number of buckets generated per mode. For day mode the
// value is a count of calendar days walked, not of buckets emitted.
type Policy struct {
	DayCalendarDays int `json:"dayCalendarDays"`
	Weeks           int `json:"weeks"`
	Months          int `json:"months"`
	Quarters        int `json:"quarters"`
	HalfYears       int `json:"halfYears"`
}

// DefaultPolicy returns the standard bucket counts.
func DefaultPolicy() Policy {
	return Policy{
		DayCalendarDays: 60,
		Weeks:           20,
		Months:          6,
		Quarters:        4,
		HalfYears:       2,
	}
}

// Count returns the configured count for mode. Non-positive values fall
// back to the default.
func (p Policy) Count(mode Mode) int {
	def := DefaultPolicy()
	pick := func(v, fallback int) int {
		if v > 0 {
			return v
		}
		return fallback
	}
	switch mode {
	case ModeDay:
		return pick(p.DayCalendarDays, def.DayCalendarDays)
	case ModeWeek:
		return pick(p.Weeks, def.Weeks)
	case ModeMonth:
		return pick(p.Months, def.Months)
	case ModeQuarter:
		return pick(p.Quarters, def.Quarters)
	case ModeHalfYear:
		return pick(p.HalfYears, def.HalfYears)
	}
	return 0
}
