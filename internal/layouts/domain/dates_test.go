package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2025-06-01", "2025-06-01", true},
		{" 2025-06-01 ", "2025-06-01", true},
		{"2025-06-01T00:00:00.000Z", "2025-06-01", true},
		{"2025-06-01 08:30:00", "2025-06-01", true},
		{"", "", false},
		{"06/01/2025", "", false},
		{"2025-13-01", "", false},
		{"garbage", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(DateLayout))
		})
	}
}

func TestOptionalDate(t *testing.T) {
	assert.Nil(t, OptionalDate("bad"))
	assert.Nil(t, OptionalDate(""))
	d := OptionalDate("2025-07-15")
	require.NotNil(t, d)
	assert.Equal(t, "2025-07-15", FormatDate(d))
	assert.Equal(t, "", FormatDate(nil))
}

func TestDateOf_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	late := time.Date(2025, 6, 1, 23, 0, 0, 0, loc)
	assert.Equal(t, "2025-06-01", DateOf(late).Format(DateLayout))
	assert.Equal(t, time.UTC, DateOf(late).Location())
}
