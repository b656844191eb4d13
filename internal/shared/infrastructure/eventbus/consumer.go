package eventbus

import (
	"context"
	"encoding/json"
	"time"
)

// EventConsumer handles events for the routing keys it declares.
type EventConsumer interface {
	// EventTypes returns the routing keys this consumer handles,
	// e.g. ["rota.availability.version_created"].
	EventTypes() []string

	// Handle processes the event.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is an event received from the bus. Payload is the
// marshaled domain event; the routing key travels as broker metadata.
type ConsumedEvent struct {
	RoutingKey string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// Consumer receives events from a message broker and dispatches them to
// registered consumers.
type Consumer interface {
	// Start begins consuming messages. This is a blocking call.
	Start(ctx context.Context) error

	// RegisterConsumer registers an event consumer.
	RegisterConsumer(consumer EventConsumer)

	// Close closes the consumer connection.
	Close() error
}
