package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/layoutrack/internal/shared/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/eventbus"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.Envelope
	err        error
}

func (m *mockConsumer) EventTypes() []string { return m.eventTypes }

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.Envelope) error {
	m.events = append(m.events, event)
	return m.err
}

type testEvent struct {
	domain.BaseEvent
	Week string `json:"week"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"layouts.weight.updated"}}
	bus.RegisterConsumer(consumer)

	env := &eventbus.Envelope{
		EventID:       uuid.New(),
		AggregateID:   "P1/ADC",
		AggregateType: "layout",
		RoutingKey:    "layouts.weight.updated",
		OccurredAt:    time.Now(),
	}
	payload, err := json.Marshal(env)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), env.RoutingKey, payload))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, env.EventID, consumer.events[0].EventID)
	assert.Equal(t, "P1/ADC", consumer.events[0].AggregateID)
}

func TestInProcessEventBus_WildcardConsumer(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	all := &mockConsumer{eventTypes: []string{"layouts.#"}}
	closedOnly := &mockConsumer{eventTypes: []string{"layouts.closed"}}
	bus.RegisterConsumer(all)
	bus.RegisterConsumer(closedOnly)

	ctx := context.Background()
	events := []domain.DomainEvent{
		&testEvent{BaseEvent: domain.NewBaseEvent("P1/ADC", "layout", "layouts.weight.updated"), Week: "2025-W23"},
		&testEvent{BaseEvent: domain.NewBaseEvent("P1/ADC", "layout", "layouts.closed")},
	}
	for _, e := range events {
		env, err := eventbus.NewEnvelope(e)
		require.NoError(t, err)
		body, err := json.Marshal(env)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, env.RoutingKey, body))
	}

	assert.Len(t, all.events, 2)
	assert.Len(t, closedOnly.events, 1)
}

func TestInProcessEventBus_NoConsumers(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())

	payload, err := json.Marshal(&eventbus.Envelope{EventID: uuid.New(), RoutingKey: "layouts.submitted"})
	require.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), "layouts.submitted", payload))
}

func TestInProcessEventBus_ConsumerErrorIsSwallowed(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	failing := &mockConsumer{eventTypes: []string{"layouts.submitted"}, err: errors.New("boom")}
	healthy := &mockConsumer{eventTypes: []string{"layouts.*"}}
	bus.RegisterConsumer(failing)
	bus.RegisterConsumer(healthy)

	payload, err := json.Marshal(&eventbus.Envelope{EventID: uuid.New(), RoutingKey: "layouts.submitted"})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "layouts.submitted", payload))
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestInProcessEventBus_InvalidPayload(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"layouts.submitted"}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), "layouts.submitted", []byte("not json")))
	assert.Empty(t, consumer.events)
}

func TestInProcessEventBus_RoutingKeyFallback(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"layouts.reopened"}}
	bus.RegisterConsumer(consumer)

	payload, err := json.Marshal(&eventbus.Envelope{EventID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "layouts.reopened", payload))
	require.Len(t, consumer.events, 1)
	assert.Equal(t, "layouts.reopened", consumer.events[0].RoutingKey)
}

func TestInProcessEventBus_StartStopsOnCancel(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, bus.Start(ctx), context.Canceled)
	assert.NoError(t, bus.Close())
}
