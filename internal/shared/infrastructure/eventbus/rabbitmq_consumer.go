package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/domicare/rota/pkg/observability"
)

// DefaultConsumerQueueName is the queue the worker consumes from.
const DefaultConsumerQueueName = "rota.worker"

// RabbitMQConsumer reads events from a durable queue and dispatches
// them through a ConsumerRegistry. Each registered consumer's routing
// keys are bound to the queue, so the worker only receives events it
// has a subscriber for.
type RabbitMQConsumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	exchange string
	registry *ConsumerRegistry
	metrics  observability.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	done    chan struct{}
}

// RabbitMQConsumerConfig configures the RabbitMQ consumer. QueueName
// and Exchange default to the rota worker queue and topic exchange; a
// nil Metrics disables recording.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	Exchange  string
	Metrics   observability.Metrics
	Logger    *slog.Logger
}

// NewRabbitMQConsumer connects to the broker, declares the exchange and
// the worker queue, and returns a consumer ready for registrations.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Publisher and consumer both declare the exchange, so either side
	// can start first.
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected",
		"queue", cfg.QueueName,
		"exchange", cfg.Exchange,
	)

	return &RabbitMQConsumer{
		conn:     conn,
		channel:  ch,
		queue:    cfg.QueueName,
		exchange: cfg.Exchange,
		registry: registry,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer subscribes the consumer and binds its routing keys
// to the worker queue.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.registry.Register(consumer)

	for _, key := range consumer.EventTypes() {
		if err := c.bindQueue(key); err != nil {
			c.logger.Error("queue bind failed", "routing_key", key, "error", err)
		}
	}
}

func (c *RabbitMQConsumer) bindQueue(routingKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.channel.QueueBind(c.queue, routingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	c.logger.Debug("queue bound", "queue", c.queue, "routing_key", routingKey)
	return nil
}

// Start consumes deliveries until the context is cancelled or Close is
// called. Blocking; run it on its own goroutine.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	// One unacked delivery at a time: the revalidation passes the
	// subscribers run must not race each other.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "reason", "context cancelled")
			return ctx.Err()

		case <-c.done:
			c.logger.Info("consumer stopping", "reason", "closed")
			return nil

		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed unexpectedly")
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery dispatches one delivery and settles it. A failed
// dispatch is requeued once; if the redelivery fails too the message is
// dropped, since the next upstream event triggers the same work again.
func (c *RabbitMQConsumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	event := &ConsumedEvent{
		RoutingKey: msg.RoutingKey,
		Payload:    msg.Body,
		ReceivedAt: time.Now(),
	}

	start := time.Now()
	err := c.registry.Dispatch(ctx, event)
	if err == nil {
		c.metrics.Counter(observability.MetricEventsConsumed, 1)
		c.logger.Debug("event processed",
			"routing_key", event.RoutingKey,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if ackErr := msg.Ack(false); ackErr != nil {
			c.logger.Error("ack failed", "error", ackErr)
		}
		return
	}

	requeue := !msg.Redelivered
	c.logger.Error("event dispatch failed",
		"routing_key", event.RoutingKey,
		"requeue", requeue,
		"error", err,
	)
	if !requeue {
		c.metrics.Counter(observability.MetricEventsDropped, 1)
	}
	if nackErr := msg.Nack(false, requeue); nackErr != nil {
		c.logger.Error("nack failed", "error", nackErr)
	}
}

// Close stops the consume loop and closes the channel and connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.running = false
	close(c.done)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return err
		}
	}

	c.logger.Info("RabbitMQ consumer closed")
	return nil
}
