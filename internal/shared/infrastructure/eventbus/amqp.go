package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the default topic exchange for layout events.
const ExchangeName = "layoutrack.domain.events"

// amqpSession is a connection plus one channel with the topic exchange declared.
type amqpSession struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func dialExchange(url, exchange string) (*amqpSession, error) {
	if exchange == "" {
		exchange = ExchangeName
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// durable topic exchange, not auto-deleted
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &amqpSession{conn: conn, channel: ch, exchange: exchange}, nil
}

func (s *amqpSession) closed() bool {
	return s == nil || s.conn == nil || s.conn.IsClosed()
}

func (s *amqpSession) close() error {
	if s == nil {
		return nil
	}
	var chErr error
	if s.channel != nil {
		chErr = s.channel.Close()
	}
	if s.conn != nil && !s.conn.IsClosed() {
		if err := s.conn.Close(); err != nil {
			return err
		}
	}
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	return nil
}

// decodeEnvelope parses a published body. A missing routing key in the body
// falls back to the key the message was delivered with.
func decodeEnvelope(body []byte, routingKey string) (*Envelope, error) {
	event := &Envelope{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", routingKey, err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}
