package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InProcessBus dispatches published events synchronously to registered
// consumers. It stands in for RabbitMQ in local mode, so events drained
// from the outbox still reach subscribers without a broker.
type InProcessBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessBus creates a new in-process event bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish dispatches the event to all registered consumers. Implements
// the Publisher interface so the outbox processor can drain into the
// bus. Consumer errors are logged, not returned: local dispatch is
// best-effort and a failed pass is retried by the next triggering event.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	event := &ConsumedEvent{
		RoutingKey: routingKey,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", routingKey,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil
	}

	b.logger.Debug("event dispatched",
		"routing_key", routingKey,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Close is a no-op for the in-process bus.
func (b *InProcessBus) Close() error {
	return nil
}
