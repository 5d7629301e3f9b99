package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQPublisher sends outbox envelopes to a topic exchange as
// persistent JSON messages.
type RabbitMQPublisher struct {
	session *amqpSession
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewRabbitMQPublisher connects to url and declares exchange. An empty
// exchange selects ExchangeName.
func NewRabbitMQPublisher(url, exchange string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	session, err := dialExchange(url, exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", session.exchange)
	return &RabbitMQPublisher{session: session, logger: logger}, nil
}

// Check reports an error once the broker connection is gone.
func (p *RabbitMQPublisher) Check(_ context.Context) error {
	if p.session.closed() {
		return fmt.Errorf("rabbitmq connection closed")
	}
	return nil
}

// Publish sends payload with routingKey. The channel is not safe for
// concurrent publishes, so calls are serialized.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}
	if err := p.session.channel.PublishWithContext(ctx, p.session.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.Debug("event published", "routing_key", routingKey, "bytes", len(payload))
	return nil
}

// Close closes the channel and connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.session.close(); err != nil {
		return err
	}
	p.logger.Info("RabbitMQ publisher closed")
	return nil
}

// NoopPublisher drops every message.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.logger.Debug("event dropped", "routing_key", routingKey, "bytes", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
