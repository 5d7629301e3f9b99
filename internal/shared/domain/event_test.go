package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	domain.BaseEvent
	Data string
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()

	event := domain.NewBaseEvent("proj-a/ip-1", "layout", "layouts.weight.updated")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "proj-a/ip-1", event.AggregateID())
	assert.Equal(t, "layout", event.AggregateType())
	assert.Equal(t, "layouts.weight.updated", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	event := domain.NewBaseEvent("proj-a", "layout", "layouts.submitted")
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: "corr-1",
		Actor:         "alice",
	})

	metadata := event.Metadata()
	assert.Equal(t, "corr-1", metadata.CorrelationID)
	assert.Equal(t, "alice", metadata.Actor)
}

func TestEmbeddedBaseEvent(t *testing.T) {
	e := testEvent{
		BaseEvent: domain.NewBaseEvent("proj-b", "layout", "layouts.closed"),
		Data:      "payload",
	}

	var de domain.DomainEvent = e
	assert.Equal(t, "layouts.closed", de.RoutingKey())
	assert.Equal(t, "payload", e.Data)
}
