package domain

import (
	"fmt"
	"time"

	layoutDomain "github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

// Bucket is one column of a timeline.
type Bucket struct {
	Mode  Mode      `json:"mode"`
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
	End   time.Time `json:"end"`

	// Mode-specific metadata. Zero when not applicable.
	ISOYear int `json:"isoYear,omitempty"`
	ISOWeek int `json:"isoWeek,omitempty"`
	Quarter int `json:"quarter,omitempty"`
	Half    int `json:"half,omitempty"`
	Year    int `json:"year,omitempty"`
}

// Week returns the ISO week used to match weekly weights. Week buckets carry
// their own week; every other mode maps its anchor date.
func (b Bucket) Week() layoutDomain.ISOWeek {
	if b.Mode == ModeWeek && b.ISOWeek > 0 {
		return layoutDomain.ISOWeek{Year: b.ISOYear, Week: b.ISOWeek}
	}
	return layoutDomain.ISOWeekOf(b.Date)
}

// Contains reports whether d falls inside the bucket span.
func (b Bucket) Contains(d time.Time) bool {
	d = layoutDomain.DateOf(d)
	return !d.Before(b.Date) && !d.After(b.End)
}

// BucketEnd returns the last calendar day covered by a bucket anchored at start.
func BucketEnd(mode Mode, start time.Time) time.Time {
	start = layoutDomain.DateOf(start)
	switch mode {
	case ModeWeek:
		return start.AddDate(0, 0, 6)
	case ModeMonth:
		return start.AddDate(0, 1, -1)
	case ModeQuarter:
		return start.AddDate(0, 3, -1)
	case ModeHalfYear:
		return start.AddDate(0, 6, -1)
	}
	return start
}

// GenerateBuckets returns the ordered bucket sequence for mode starting at
// start. The result depends only on its arguments.
func GenerateBuckets(mode Mode, start time.Time, policy Policy) ([]Bucket, error) {
	if !mode.IsValid() {
		return nil, ErrInvalidMode
	}
	start = layoutDomain.DateOf(start)
	n := policy.Count(mode)

	switch mode {
	case ModeDay:
		return dayBuckets(start, n), nil
	case ModeWeek:
		return weekBuckets(start, n), nil
	case ModeMonth:
		return monthBuckets(start, n), nil
	case ModeQuarter:
		return quarterBuckets(start, n), nil
	default:
		return halfYearBuckets(start, n), nil
	}
}

func dayBuckets(start time.Time, calendarDays int) []Bucket {
	buckets := make([]Bucket, 0, calendarDays)
	for i := 0; i < calendarDays; i++ {
		d := start.AddDate(0, 0, i)
		if !layoutDomain.IsWeekday(d) {
			continue
		}
		buckets = append(buckets, Bucket{
			Mode:  ModeDay,
			Label: d.Format("01/02"),
			Date:  d,
			End:   d,
			Year:  d.Year(),
		})
	}
	return buckets
}

func weekBuckets(start time.Time, n int) []Bucket {
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		d := start.AddDate(0, 0, 7*i)
		w := layoutDomain.ISOWeekOf(d)
		buckets = append(buckets, Bucket{
			Mode:    ModeWeek,
			Label:   w.Label(),
			Date:    d,
			End:     BucketEnd(ModeWeek, d),
			ISOYear: w.Year,
			ISOWeek: w.Week,
			Year:    d.Year(),
		})
	}
	return buckets
}

func monthBuckets(start time.Time, n int) []Bucket {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		d := first.AddDate(0, i, 0)
		buckets = append(buckets, Bucket{
			Mode:  ModeMonth,
			Label: d.Format("Jan 2006"),
			Date:  d,
			End:   BucketEnd(ModeMonth, d),
			Year:  d.Year(),
		})
	}
	return buckets
}

func quarterBuckets(start time.Time, n int) []Bucket {
	q := (int(start.Month())-1)/3 + 1
	first := time.Date(start.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 3*i, 0)
		quarter := (int(d.Month())-1)/3 + 1
		buckets = append(buckets, Bucket{
			Mode:    ModeQuarter,
			Label:   fmt.Sprintf("Q%d %d", quarter, d.Year()),
			Date:    d,
			End:     BucketEnd(ModeQuarter, d),
			Quarter: quarter,
			Year:    d.Year(),
		})
	}
	return buckets
}

func halfYearBuckets(start time.Time, n int) []Bucket {
	h := 1
	if start.Month() >= time.July {
		h = 2
	}
	first := time.Date(start.Year(), time.Month((h-1)*6+1), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]Bucket, 0, n)
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 6*i, 0)
		half := 1
		if d.Month() >= time.July {
			half = 2
		}
		buckets = append(buckets, Bucket{
			Mode:  ModeHalfYear,
			Label: fmt.Sprintf("H%d %d", half, d.Year()),
			Date:  d,
			End:   BucketEnd(ModeHalfYear, d),
			Half:  half,
			Year:  d.Year(),
		})
	}
	return buckets
}
