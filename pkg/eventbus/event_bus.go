// Package eventbus provides best-effort event delivery for validation
// lifecycle notifications. Delivery failures are logged by callers and never
// roll back persisted cycle state.
package eventbus

import (
	"context"

	"github.com/reqarchitect/validation/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
