package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISOWeek identifies an ISO-8601 week by its week-numbering year and number.
type ISOWeek struct {
	Year int
	Week int
}

// ISOWeekOf returns the ISO week containing the calendar date of t.
func ISOWeekOf(t time.Time) ISOWeek {
	y, w := DateOf(t).ISOWeek()
	return ISOWeek{Year: y, Week: w}
}

// WeeksInYear returns 52 or 53, the number of ISO weeks in the given year.
func WeeksInYear(year int) int {
	// December 28th always lies in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// String returns the week as "YYYY-Www".
func (w ISOWeek) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// Label returns the year-less display label "Www".
func (w ISOWeek) Label() string {
	return fmt.Sprintf("W%02d", w.Week)
}

// IsValid reports whether the week number exists in its year.
func (w ISOWeek) IsValid() bool {
	return w.Year > 0 && w.Week >= 1 && w.Week <= WeeksInYear(w.Year)
}

// Monday returns the first day of the week.
func (w ISOWeek) Monday() time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(w.Week-1)*7)
}

// ParseISOWeek parses the strict "YYYY-Www" form.
func ParseISOWeek(s string) (ISOWeek, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	year, week, ok := strings.Cut(s, "-W")
	if !ok || len(year) != 4 || len(week) != 2 {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	n, err := strconv.Atoi(week)
	if err != nil {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	w := ISOWeek{Year: y, Week: n}
	if !w.IsValid() {
		return ISOWeek{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	return w, nil
}

// ParseWeekLabel parses either "YYYY-Www" or a year-less "Www" label.
// A label without a year is assumed to belong to defaultYear.
func ParseWeekLabel(s string, defaultYear int) (ISOWeek, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ISOWeek{}, false
	}
	if strings.Contains(s, "-") {
		w, err := ParseISOWeek(s)
		return w, err == nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "W"))
	if err != nil || !strings.HasPrefix(s, "W") {
		return ISOWeek{}, false
	}
	w := ISOWeek{Year: defaultYear, Week: n}
	return w, w.IsValid()
}
