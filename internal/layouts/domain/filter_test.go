package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Apply(t *testing.T) {
	today := date("2025-06-10")
	tasks := []Task{
		{ProjectID: "P1", IPName: "ADC", Designer: "alice", LayoutOwner: "olivia", SchematicFreeze: datePtr("2025-06-01")},
		{ProjectID: "P1", IPName: "PLL", Designer: "bob", LayoutOwner: "oscar"},
		{ProjectID: "P2", IPName: "LDO", LayoutOwner: "olivia", ReworkNote: "ESD rework"},
		{ProjectID: "P2", IPName: "BGR", Designer: "alice", LayoutClosed: true},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero matches all", Filter{}, []string{"ADC", "PLL", "LDO", "BGR"}},
		{"project", Filter{ProjectID: "P2"}, []string{"LDO", "BGR"}},
		{"owner case-insensitive", Filter{Owner: "OLIVIA"}, []string{"ADC", "LDO"}},
		{"designer", Filter{Designer: "alice"}, []string{"ADC", "BGR"}},
		{"status", Filter{Status: StatusUnassigned}, []string{"LDO"}},
		{"status closed", Filter{Status: StatusClosed}, []string{"BGR"}},
		{"keyword in note", Filter{Keyword: "esd"}, []string{"LDO"}},
		{"keyword in ip", Filter{Keyword: "pl"}, []string{"PLL"}},
		{"combined", Filter{ProjectID: "P1", Designer: "alice"}, []string{"ADC"}},
		{"no match", Filter{ProjectID: "P9"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(tasks, today)
			names := make([]string, 0, len(got))
			for _, task := range got {
				names = append(names, task.IPName)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{Keyword: "x"}.IsZero())
}
