package domain

import (
	"fmt"
	"time"
)

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDays counts the weekdays in the inclusive range [start, end].
// It returns 0 when end is before start.
func BusinessDays(start, end time.Time) int {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return 0
	}

	span := int(e.Sub(s)/(24*time.Hour)) + 1
	fullWeeks := span / 7
	count := fullWeeks * 5

	// Walk the partial week left over after the full ones.
	cursor := s.AddDate(0, 0, fullWeeks*7)
	for i := 0; i < span%7; i++ {
		if IsWeekday(cursor) {
			count++
		}
		cursor = cursor.AddDate(0, 0, 1)
	}
	return count
}

// BusinessDaysBetween parses both bounds and counts the weekdays between them.
// A missing or malformed bound yields ErrInvalidInput; the caller picks the fallback.
func BusinessDaysBetween(start, end string) (int, error) {
	s, err := ParseDate(start)
	if err != nil {
		return 0, fmt.Errorf("%w: start date %q", ErrInvalidInput, start)
	}
	e, err := ParseDate(end)
	if err != nil {
		return 0, fmt.Errorf("%w: end date %q", ErrInvalidInput, end)
	}
	return BusinessDays(s, e), nil
}

// OptionalBusinessDays counts weekdays between two optional dates.
func OptionalBusinessDays(start, end *time.Time) (int, error) {
	if start == nil || end == nil {
		return 0, ErrInvalidInput
	}
	return BusinessDays(*start, *end), nil
}
