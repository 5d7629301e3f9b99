package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	layoutDomain "github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

func TestGenerateBuckets_Day(t *testing.T) {
	buckets, err := GenerateBuckets(ModeDay, date("2025-06-02"), DefaultPolicy())
	require.NoError(t, err)

	// 60 calendar days from a Monday: 8 full weeks plus Mon to Thu.
	assert.Len(t, buckets, 44)
	for _, b := range buckets {
		assert.True(t, layoutDomain.IsWeekday(b.Date), b.Label)
		assert.Equal(t, b.Date, b.End)
	}
	assert.Equal(t, "06/02", buckets[0].Label)
	assert.Equal(t, "06/09", buckets[5].Label)
}

func TestGenerateBuckets_DayFromWeekend(t *testing.T) {
	buckets, err := GenerateBuckets(ModeDay, date("2025-06-07"), DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, date("2025-06-09"), buckets[0].Date)
	assert.Len(t, buckets, 42)
}

func TestGenerateBuckets_Week(t *testing.T) {
	buckets, err := GenerateBuckets(ModeWeek, date("2025-06-02"), DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, buckets, 20)

	assert.Equal(t, "W23", buckets[0].Label)
	assert.Equal(t, 23, buckets[0].ISOWeek)
	assert.Equal(t, 2025, buckets[0].ISOYear)
	assert.Equal(t, date("2025-06-08"), buckets[0].End)
	assert.Equal(t, "W27", buckets[4].Label)
	assert.Equal(t, date("2025-06-30"), buckets[4].Date)
}

func TestGenerateBuckets_WeekLabelsRepeatAcrossYears(t *testing.T) {
	buckets, err := GenerateBuckets(ModeWeek, date("2024-12-23"), Policy{Weeks: 60})
	require.NoError(t, err)

	assert.Equal(t, "W52", buckets[0].Label)
	assert.Equal(t, 2024, buckets[0].ISOYear)
	assert.Equal(t, "W01", buckets[1].Label)
	assert.Equal(t, 2025, buckets[1].ISOYear)
	assert.Equal(t, "W52", buckets[52].Label)
	assert.Equal(t, 2025, buckets[52].ISOYear)
}

func TestGenerateBuckets_Month(t *testing.T) {
	buckets, err := GenerateBuckets(ModeMonth, date("2025-11-17"), DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, buckets, 6)

	assert.Equal(t, "Nov 2025", buckets[0].Label)
	assert.Equal(t, date("2025-11-01"), buckets[0].Date)
	assert.Equal(t, date("2025-11-30"), buckets[0].End)
	assert.Equal(t, "Feb 2026", buckets[3].Label)
	assert.Equal(t, date("2026-02-28"), buckets[3].End)
}

func TestGenerateBuckets_Quarter(t *testing.T) {
	buckets, err := GenerateBuckets(ModeQuarter, date("2025-08-15"), DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	assert.Equal(t, "Q3 2025", buckets[0].Label)
	assert.Equal(t, date("2025-07-01"), buckets[0].Date)
	assert.Equal(t, date("2025-09-30"), buckets[0].End)
	assert.Equal(t, 1, buckets[2].Quarter)
	assert.Equal(t, 2026, buckets[2].Year)
}

func TestGenerateBuckets_HalfYear(t *testing.T) {
	buckets, err := GenerateBuckets(ModeHalfYear, date("2025-08-15"), DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, "H2 2025", buckets[0].Label)
	assert.Equal(t, date("2025-12-31"), buckets[0].End)
	assert.Equal(t, "H1 2026", buckets[1].Label)
	assert.Equal(t, 1, buckets[1].Half)
	assert.Equal(t, date("2026-06-30"), buckets[1].End)
}

func TestGenerateBuckets_Deterministic(t *testing.T) {
	start := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)
	for _, mode := range AllModes {
		a, err := GenerateBuckets(mode, start, DefaultPolicy())
		require.NoError(t, err)
		b, err := GenerateBuckets(mode, start, DefaultPolicy())
		require.NoError(t, err)
		assert.Equal(t, a, b, mode)

		for i := 1; i < len(a); i++ {
			assert.True(t, a[i].Date.After(a[i-1].Date), "%s buckets must be chronological", mode)
		}
	}
}

func TestGenerateBuckets_InvalidMode(t *testing.T) {
	_, err := GenerateBuckets(Mode("decade"), date("2025-06-02"), DefaultPolicy())
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestBucket_Week(t *testing.T) {
	b := Bucket{Mode: ModeMonth, Date: date("2025-06-01")}
	assert.Equal(t, layoutDomain.ISOWeek{Year: 2025, Week: 22}, b.Week())

	wb := Bucket{Mode: ModeWeek, Date: date("2024-12-30"), ISOYear: 2025, ISOWeek: 1}
	assert.Equal(t, layoutDomain.ISOWeek{Year: 2025, Week: 1}, wb.Week())
}
