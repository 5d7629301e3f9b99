package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"layouts.closed", "layouts.closed", true},
		{"layouts.closed", "layouts.reopened", false},
		{"layouts.*", "layouts.closed", true},
		{"layouts.*", "layouts.weight.updated", false},
		{"layouts.#", "layouts.weight.updated", true},
		{"layouts.#", "layouts", true},
		{"#", "anything.at.all", true},
		{"*.weight.*", "layouts.weight.updated", true},
		{"layouts.#.updated", "layouts.weight.updated", true},
		{"layouts.#.updated", "layouts.updated", true},
		{"layouts.#.updated", "layouts.weight.deleted", false},
		{"projects.#", "layouts.closed", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"="+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchTopic(tt.pattern, tt.key))
		})
	}
}

type stubConsumer struct {
	types []string
}

func (c *stubConsumer) EventTypes() []string { return c.types }

func (c *stubConsumer) Handle(context.Context, *Envelope) error { return nil }

func TestConsumerRegistry_ConsumersForDeduplicates(t *testing.T) {
	r := NewConsumerRegistry(nil)
	c := &stubConsumer{types: []string{"layouts.#", "layouts.closed"}}
	r.Register(c)
	r.Register(&stubConsumer{types: []string{"projects.created"}})

	assert.Len(t, r.ConsumersFor("layouts.closed"), 1)
	assert.Empty(t, r.ConsumersFor("billing.paid"))
	assert.ElementsMatch(t, []string{"layouts.#", "layouts.closed", "projects.created"}, r.Patterns())
}
