package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWeightUpdated(t *testing.T) {
	key := Key{ProjectID: "P1", IPName: "ADC"}
	e := NewWeightUpdated(key, WeeklyWeight{Week: "2025-W23", Value: 0.8, Version: 2, UpdatedBy: "olivia"})

	assert.Equal(t, RoutingKeyWeightUpdated, e.RoutingKey())
	assert.Equal(t, "P1/ADC", e.AggregateID())
	assert.Equal(t, AggregateType, e.AggregateType())
	assert.Equal(t, 0.8, e.Value)
	assert.Equal(t, 2, e.Version)
}

func TestNewLayoutClosedChanged(t *testing.T) {
	key := Key{ProjectID: "P1", IPName: "ADC"}
	assert.Equal(t, RoutingKeyLayoutClosed, NewLayoutClosedChanged(key, true).RoutingKey())
	assert.Equal(t, RoutingKeyLayoutReopened, NewLayoutClosedChanged(key, false).RoutingKey())
}

func TestNewLayoutsSubmitted(t *testing.T) {
	e := NewLayoutsSubmitted("P1", []string{"ADC", "PLL"}, "alice")
	assert.Equal(t, RoutingKeyLayoutsSubmitted, e.RoutingKey())
	assert.Equal(t, "P1", e.AggregateID())
	assert.Len(t, e.IPNames, 2)
}
