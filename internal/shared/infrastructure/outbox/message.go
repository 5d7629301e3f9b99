package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/layoutrack/internal/shared/domain"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/eventbus"
)

// Message represents an outbox message ready for publishing.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         eventbus.EventMetadata
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from a domain event.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	env, err := eventbus.NewEnvelope(event)
	if err != nil {
		return nil, err
	}
	return &Message{
		EventID:       env.EventID,
		AggregateType: env.AggregateType,
		AggregateID:   env.AggregateID,
		RoutingKey:    env.RoutingKey,
		Payload:       env.Payload,
		Metadata:      env.Metadata,
		CreatedAt:     env.OccurredAt,
	}, nil
}

// NewMessages converts a batch of events.
func NewMessages(events []domain.DomainEvent) ([]*Message, error) {
	msgs := make([]*Message, 0, len(events))
	for _, event := range events {
		msg, err := NewMessage(event)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Envelope rebuilds the wire form published to the broker.
func (m *Message) Envelope() eventbus.Envelope {
	return eventbus.Envelope{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
		Metadata:      m.Metadata,
	}
}

// Body marshals the envelope.
func (m *Message) Body() ([]byte, error) {
	body, err := json.Marshal(m.Envelope())
	if err != nil {
		return nil, fmt.Errorf("marshal envelope %s: %w", m.EventID, err)
	}
	return body, nil
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry returns true if the message can be retried.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}
