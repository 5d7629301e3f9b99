package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentWeight_HighestVersionWins(t *testing.T) {
	weights := []WeeklyWeight{
		{Week: "2025-W23", Value: 0.2, Version: 1},
		{Week: "2025-W23", Value: 0.8, Version: 3},
		{Week: "2025-W23", Value: 0.5, Version: 2},
		{Week: "2025-W24", Value: 1.0, Version: 7},
	}

	w, ok := CurrentWeight(weights, ISOWeek{2025, 23})
	require.True(t, ok)
	assert.Equal(t, 0.8, w.Value)
	assert.Equal(t, 80, w.Percent())

	_, ok = CurrentWeight(weights, ISOWeek{2025, 25})
	assert.False(t, ok)
}

func TestCurrentWeight_SkipsMalformed(t *testing.T) {
	weights := []WeeklyWeight{
		{Week: "2025-W23", Value: 0.4, Version: 1},
		{Week: "2025-W23", Value: math.NaN(), Version: 5},
		{Week: "", Value: 1.2, Version: 9},
		{Week: "2025-W23", Value: math.Inf(1), Version: 6},
	}

	w, ok := CurrentWeight(weights, ISOWeek{2025, 23})
	require.True(t, ok)
	assert.Equal(t, 0.4, w.Value)
}

func TestCurrentWeight_YearlessLabelUsesEvaluatedYear(t *testing.T) {
	weights := []WeeklyWeight{{Week: "W23", Value: 0.6, Version: 1}}

	w, ok := CurrentWeight(weights, ISOWeek{2025, 23})
	require.True(t, ok)
	assert.Equal(t, 0.6, w.Value)

	_, ok = CurrentWeight(weights, ISOWeek{2025, 24})
	assert.False(t, ok)
}

func TestNextWeightVersion(t *testing.T) {
	weights := []WeeklyWeight{
		{Week: "2025-W23", Version: 1},
		{Week: "2025-W23", Version: 4},
		{Week: "2025-W24", Version: 9},
	}
	assert.Equal(t, 5, NextWeightVersion(weights, ISOWeek{2025, 23}))
	assert.Equal(t, 1, NextWeightVersion(weights, ISOWeek{2025, 30}))
}

func TestValidateWeightValue(t *testing.T) {
	assert.NoError(t, ValidateWeightValue(0))
	assert.NoError(t, ValidateWeightValue(1.5))
	assert.ErrorIs(t, ValidateWeightValue(-0.1), ErrWeightOutOfRange)
	assert.ErrorIs(t, ValidateWeightValue(1.51), ErrWeightOutOfRange)
	assert.ErrorIs(t, ValidateWeightValue(math.NaN()), ErrMalformedWeight)
}

func TestEnsureWeekEntry_DoesNotMutate(t *testing.T) {
	orig := Task{ProjectID: "p", IPName: "ip"}
	now := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	updated := EnsureWeekEntry(orig, ISOWeek{2025, 23}, now, "olivia")

	assert.Empty(t, orig.WeeklyWeights)
	require.Len(t, updated.WeeklyWeights, 1)
	assert.Equal(t, "2025-W23", updated.WeeklyWeights[0].Week)
	assert.Equal(t, 0.0, updated.WeeklyWeights[0].Value)
	assert.Equal(t, 1, updated.WeeklyWeights[0].Version)
	assert.Equal(t, "olivia", updated.WeeklyWeights[0].UpdatedBy)

	again := EnsureWeekEntry(updated, ISOWeek{2025, 23}, now, "olivia")
	assert.Len(t, again.WeeklyWeights, 1)
}

func TestWithWeight(t *testing.T) {
	orig := Task{WeeklyWeights: []WeeklyWeight{{Week: "2025-W23", Value: 0.2, Version: 1}}}
	now := time.Now()

	updated, entry, err := WithWeight(orig, ISOWeek{2025, 23}, 0.8, now, "olivia", "")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Version)
	assert.Equal(t, RoleLayoutOwner, entry.Role)
	assert.Len(t, orig.WeeklyWeights, 1)
	assert.Len(t, updated.WeeklyWeights, 2)

	current, _ := updated.CurrentWeight(ISOWeek{2025, 23})
	assert.Equal(t, 0.8, current.Value)

	_, _, err = WithWeight(orig, ISOWeek{2025, 23}, 2, now, "olivia", "")
	assert.ErrorIs(t, err, ErrWeightOutOfRange)

	_, _, err = WithWeight(orig, ISOWeek{2025, 60}, 1, now, "olivia", "")
	assert.ErrorIs(t, err, ErrInvalidWeek)
}

func TestWeightHistory(t *testing.T) {
	weights := []WeeklyWeight{
		{Week: "2025-W23", Value: 0.5, Version: 2},
		{Week: "2025-W24", Value: 0.1, Version: 1},
		{Week: "2025-W23", Value: 0.2, Version: 1},
	}

	history := WeightHistory(weights, ISOWeek{2025, 23})
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 2, history[1].Version)

	SortWeights(weights)
	assert.Equal(t, "2025-W23", weights[0].Week)
	assert.Equal(t, 1, weights[0].Version)
	assert.Equal(t, "2025-W24", weights[2].Week)
}
