package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

const DEFAULT_EXCHANGE = "lending-bridge.events"

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher forwards bus envelopes to a topic exchange. The routing key is
// "<routing_key>.<event name>".
type Publisher struct {
	mu         sync.Mutex
	conn       *amqp.Connection
	channel    Channel
	exchange   string
	routingKey string
}

type message struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Component string      `json:"component"`
	EmittedAt int64       `json:"emitted_at"`
	Data      types.Event `json:"data"`
}

func ConnectionString(cfg *config.RabbitMQConfig) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.User,
		cfg.Password,
		cfg.Host,
		strconv.Itoa(cfg.Port))
}

func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(ConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	publisher, err := NewPublisherWithChannel(ch, cfg.Exchange, cfg.RoutingKey)
	if err != nil {
		conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

func NewPublisherWithChannel(ch Channel, exchange string, routingKey string) (*Publisher, error) {
	if exchange == "" {
		exchange = DEFAULT_EXCHANGE
	}
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

func (p *Publisher) Name() string {
	return "rabbitmq-publisher"
}

func (p *Publisher) RoutingKey(eventName string) string {
	if p.routingKey == "" {
		return eventName
	}
	return p.routingKey + "." + eventName
}

func (p *Publisher) Handle(ctx context.Context, envelope *types.EventEnvelope) error {
	body, err := json.Marshal(message{
		ID:        envelope.ID.String(),
		Name:      envelope.Name,
		Component: envelope.Component,
		EmittedAt: envelope.EmittedAt.UnixMilli(),
		Data:      envelope.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", envelope.Name, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		p.RoutingKey(envelope.Name),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    envelope.ID.String(),
			Type:         envelope.Name,
			Body:         body,
		})
	if err != nil {
		log.Error().Err(err).Str("event", envelope.Name).Msg("[RabbitMQ] [Handle] failed to publish event")
		return fmt.Errorf("failed to publish event %s: %w", envelope.Name, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("[RabbitMQ] failed to close channel")
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
