package rabbitmq

import (
	"fmt"

	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const ExchangeKind = "topic"

type ConsumerConfig struct {
	URL         string
	Exchange    string
	Queue       string
	BindingKeys []string
	// Prefetch bounds unacknowledged deliveries in flight.
	Prefetch int
}

// DefaultSyncConsumerConfig is the admin console's change feed.
func DefaultSyncConsumerConfig(url string) ConsumerConfig {
	return ConsumerConfig{
		URL:         url,
		Exchange:    "club.admin",
		Queue:       "application-service.sync",
		BindingKeys: []string{"event.*", "member.*", "admin.*"},
		Prefetch:    20,
	}
}

type Consumer struct {
	cfg     ConsumerConfig
	conn    *amqp.Connection
	channel *amqp.Channel
	log     *logger.Logger
}

func NewConsumer(cfg ConsumerConfig, log *logger.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	closeAll := func() {
		ch.Close()
		conn.Close()
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, ExchangeKind, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	for _, key := range cfg.BindingKeys {
		if err := ch.QueueBind(q.Name, key, cfg.Exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("rabbitmq queue bind %s: %w", key, err)
		}
	}

	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			closeAll()
			return nil, fmt.Errorf("rabbitmq qos: %w", err)
		}
	}

	return &Consumer{cfg: cfg, conn: conn, channel: ch, log: log}, nil
}

func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		c.cfg.Queue,
		"",    // consumer tag
		false, // auto-ack = false, we ack manually after processing
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.log.Info("consuming", zap.String("queue", c.cfg.Queue), zap.Strings("bindings", c.cfg.BindingKeys))
	return msgs, nil
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
