package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISOWeekOf(t *testing.T) {
	tests := []struct {
		date string
		want ISOWeek
	}{
		{"2025-06-02", ISOWeek{2025, 23}},
		{"2025-06-08", ISOWeek{2025, 23}},
		{"2025-06-30", ISOWeek{2025, 27}},
		{"2024-12-30", ISOWeek{2025, 1}},
		{"2021-01-03", ISOWeek{2020, 53}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, ISOWeekOf(date(tt.date)))
		})
	}
}

func TestISOWeek_Formatting(t *testing.T) {
	w := ISOWeek{Year: 2025, Week: 3}
	assert.Equal(t, "2025-W03", w.String())
	assert.Equal(t, "W03", w.Label())
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2020))
	assert.Equal(t, 52, WeeksInYear(2025))
	assert.Equal(t, 53, WeeksInYear(2026))
}

func TestISOWeek_Monday(t *testing.T) {
	assert.Equal(t, "2025-06-02", ISOWeek{2025, 23}.Monday().Format(DateLayout))
	assert.Equal(t, "2024-12-30", ISOWeek{2025, 1}.Monday().Format(DateLayout))
	assert.Equal(t, "2020-12-28", ISOWeek{2020, 53}.Monday().Format(DateLayout))
}

func TestParseISOWeek(t *testing.T) {
	w, err := ParseISOWeek("2025-W23")
	require.NoError(t, err)
	assert.Equal(t, ISOWeek{2025, 23}, w)

	w, err = ParseISOWeek("2025-w07")
	require.NoError(t, err)
	assert.Equal(t, ISOWeek{2025, 7}, w)

	for _, bad := range []string{"", "2025-23", "W23", "2025-W7", "2025-W53", "2025-W00", "abcd-W01"} {
		_, err := ParseISOWeek(bad)
		assert.ErrorIs(t, err, ErrInvalidWeek, bad)
	}
}

func TestParseWeekLabel(t *testing.T) {
	w, ok := ParseWeekLabel("2025-W23", 1999)
	require.True(t, ok)
	assert.Equal(t, ISOWeek{2025, 23}, w)

	w, ok = ParseWeekLabel("W23", 2026)
	require.True(t, ok)
	assert.Equal(t, ISOWeek{2026, 23}, w, "year-less labels take the evaluated year")

	_, ok = ParseWeekLabel("W53", 2025)
	assert.False(t, ok)

	_, ok = ParseWeekLabel("23", 2025)
	assert.False(t, ok)

	_, ok = ParseWeekLabel("", 2025)
	assert.False(t, ok)
}
