package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// MaxWeightValue is the largest fraction of a week a layout owner may allocate to one task.
const MaxWeightValue = 1.5

// RoleLayoutOwner is the role recorded on weight entries written by layout owners.
const RoleLayoutOwner = "layout_owner"

// WeeklyWeight is one history entry of a layout owner's allocation for an ISO week.
type WeeklyWeight struct {
	Week      string
	Value     float64
	UpdatedAt time.Time
	UpdatedBy string
	Role      string
	Version   int
}

// IsValid reports whether the entry has a week label and a finite value.
func (w WeeklyWeight) IsValid() bool {
	if strings.TrimSpace(w.Week) == "" {
		return false
	}
	return !math.IsNaN(w.Value) && !math.IsInf(w.Value, 0)
}

// Percent returns the value as a rounded percentage.
func (w WeeklyWeight) Percent() int {
	return int(math.Round(w.Value * 100))
}

// ValidateWeightValue checks v against [0, MaxWeightValue].
func ValidateWeightValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrMalformedWeight
	}
	if v < 0 || v > MaxWeightValue {
		return ErrWeightOutOfRange
	}
	return nil
}

// matchesWeek reports whether the entry's week label refers to week. Labels
// without a year are assumed to be in week's year.
func (w WeeklyWeight) matchesWeek(week ISOWeek) bool {
	parsed, ok := ParseWeekLabel(w.Week, week.Year)
	return ok && parsed == week
}

// CurrentWeight returns the active entry for week: the highest-version valid
// entry, with later positions winning ties. Malformed entries are skipped.
func CurrentWeight(weights []WeeklyWeight, week ISOWeek) (WeeklyWeight, bool) {
	var (
		current WeeklyWeight
		found   bool
	)
	for _, w := range weights {
		if !w.IsValid() || !w.matchesWeek(week) {
			continue
		}
		if !found || w.Version >= current.Version {
			current = w
			found = true
		}
	}
	return current, found
}

// CurrentWeight returns the task's active weight entry for week.
func (t Task) CurrentWeight(week ISOWeek) (WeeklyWeight, bool) {
	return CurrentWeight(t.WeeklyWeights, week)
}

// NextWeightVersion returns the version a new entry for week should carry.
func NextWeightVersion(weights []WeeklyWeight, week ISOWeek) int {
	next := 1
	for _, w := range weights {
		if w.matchesWeek(week) && w.Version >= next {
			next = w.Version + 1
		}
	}
	return next
}

// WeightHistory returns the valid entries for week in version order.
func WeightHistory(weights []WeeklyWeight, week ISOWeek) []WeeklyWeight {
	var history []WeeklyWeight
	for _, w := range weights {
		if w.IsValid() && w.matchesWeek(week) {
			history = append(history, w)
		}
	}
	SortWeights(history)
	return history
}

// EnsureWeekEntry returns a copy of t that has an entry for week. If one
// already exists the copy is returned unchanged; otherwise a zero-value
// entry at version 1 is appended.
func EnsureWeekEntry(t Task, week ISOWeek, now time.Time, by string) Task {
	c := t.Clone()
	if _, ok := CurrentWeight(c.WeeklyWeights, week); ok {
		return c
	}
	c.WeeklyWeights = append(c.WeeklyWeights, WeeklyWeight{
		Week:      week.String(),
		Value:     0,
		UpdatedAt: now.UTC(),
		UpdatedBy: by,
		Role:      RoleLayoutOwner,
		Version:   NextWeightVersion(c.WeeklyWeights, week),
	})
	return c
}

// WithWeight returns a copy of t with a new entry for week appended at the next version.
func WithWeight(t Task, week ISOWeek, value float64, now time.Time, by, role string) (Task, WeeklyWeight, error) {
	if err := ValidateWeightValue(value); err != nil {
		return Task{}, WeeklyWeight{}, err
	}
	if !week.IsValid() {
		return Task{}, WeeklyWeight{}, ErrInvalidWeek
	}
	if role == "" {
		role = RoleLayoutOwner
	}
	entry := WeeklyWeight{
		Week:      week.String(),
		Value:     value,
		UpdatedAt: now.UTC(),
		UpdatedBy: by,
		Role:      role,
		Version:   NextWeightVersion(t.WeeklyWeights, week),
	}
	c := t.Clone()
	c.WeeklyWeights = append(c.WeeklyWeights, entry)
	return c, entry, nil
}

// SortWeights orders a weight history by week label then version, keeping
// input order for equal pairs.
func SortWeights(weights []WeeklyWeight) {
	sort.SliceStable(weights, func(i, j int) bool {
		if weights[i].Week != weights[j].Week {
			return weights[i].Week < weights[j].Week
		}
		return weights[i].Version < weights[j].Version
	})
}
