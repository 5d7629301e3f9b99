package domain

import (
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format used across the API and storage.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t, as observed in t's own location,
// normalized to midnight UTC. All date arithmetic in this package operates
// on values produced by DateOf so that DST transitions never shift a day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a calendar date. Full timestamps such as
// "2025-06-01T00:00:00.000Z" are accepted and truncated to their date part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == 'T' || s[len(DateLayout)] == ' ') {
		s = s[:len(DateLayout)]
	}
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// OptionalDate parses s and returns nil when it is empty or malformed.
func OptionalDate(s string) *time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// FormatDate formats an optional date, returning "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}
