package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConsumerRunning is returned by Start when the consumer is already consuming.
var ErrConsumerRunning = errors.New("consumer already running")

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL      string
	Exchange string
	// QueueName names a durable queue shared by every instance. Empty declares
	// an exclusive server-named queue, so each instance sees every event.
	QueueName string
	Logger    *slog.Logger
}

// RabbitMQConsumer binds a queue to the layout exchange and dispatches
// deliveries through a ConsumerRegistry. Timeline caches of other instances
// are invalidated this way.
type RabbitMQConsumer struct {
	session  *amqpSession
	queue    string
	registry *ConsumerRegistry
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	closeOnce sync.Once
	closed    chan struct{}
}

// NewRabbitMQConsumer connects and declares the queue. Routing keys are bound
// as consumers register.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if registry == nil {
		registry = NewConsumerRegistry(cfg.Logger)
	}

	session, err := dialExchange(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}

	shared := cfg.QueueName != ""
	// durable when shared; exclusive and auto-deleted otherwise
	q, err := session.channel.QueueDeclare(cfg.QueueName, shared, !shared, !shared, false, nil)
	if err != nil {
		_ = session.close()
		return nil, fmt.Errorf("declare queue %q: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", q.Name,
		"exchange", session.exchange,
		"shared", shared,
	)
	return &RabbitMQConsumer{
		session:  session,
		queue:    q.Name,
		registry: registry,
		logger:   cfg.Logger,
		closed:   make(chan struct{}),
	}, nil
}

// Queue returns the declared queue name.
func (c *RabbitMQConsumer) Queue() string {
	return c.queue
}

// RegisterConsumer adds consumer to the registry and binds its patterns.
// AMQP topic patterns share the registry's syntax, so they bind as-is.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, pattern := range consumer.EventTypes() {
		if err := c.session.channel.QueueBind(c.queue, pattern, c.session.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "pattern", pattern, "error", err)
			continue
		}
		c.logger.Debug("queue bound", "queue", c.queue, "pattern", pattern)
	}
}

// Start consumes until ctx is done or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrConsumerRunning
	}
	c.running = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	// one unacked delivery at a time
	if err := c.session.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := c.session.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.closed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(d, c.handle(ctx, d))
		}
	}
}

// handle dispatches one delivery. An undecodable body is reported as nil:
// redelivering it cannot help.
func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	event, err := decodeEnvelope(d.Body, d.RoutingKey)
	if err != nil {
		c.logger.Error("dropping undecodable event", "routing_key", d.RoutingKey, "error", err)
		return nil
	}

	start := time.Now()
	if err := c.registry.Dispatch(ctx, event); err != nil {
		return err
	}
	c.logger.Debug("event consumed",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"correlation_id", event.Metadata.CorrelationID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// settle acks a handled delivery. A failed one is requeued once, then dropped.
func (c *RabbitMQConsumer) settle(d amqp.Delivery, handleErr error) {
	var err error
	switch {
	case handleErr == nil:
		err = d.Ack(false)
	case d.Redelivered:
		c.logger.Error("dropping event after redelivery", "routing_key", d.RoutingKey, "error", handleErr)
		err = d.Nack(false, false)
	default:
		c.logger.Warn("requeueing event", "routing_key", d.RoutingKey, "error", handleErr)
		err = d.Nack(false, true)
	}
	if err != nil {
		c.logger.Error("failed to settle delivery", "routing_key", d.RoutingKey, "error", err)
	}
}

// Close stops Start and closes the broker connection. It is safe to call twice.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		defer c.mu.Unlock()
		err = c.session.close()
		c.logger.Info("RabbitMQ consumer closed", "queue", c.queue)
	})
	return err
}
