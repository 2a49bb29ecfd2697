package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	redis "github.com/redis/go-redis/v9"
	"github.com/reqarchitect/validation/pkg/events"
)

type redisEnvelope struct {
	ID        string           `json:"id"`
	Key       string           `json:"key"`
	EventType events.EventType `json:"event_type"`
	Payload   json.RawMessage  `json:"payload"`
}

// RedisEventBus publishes validation events on a Redis pub/sub channel. This
// matches the platform's Redis event emission consumed by the monitoring
// dashboard and audit subscribers.
type RedisEventBus struct {
	client        redis.UniversalClient
	logger        *slog.Logger
	subscriptions map[events.EventType]EventHandler
}

func NewRedisEventBus(redisURL string, logger *slog.Logger) (*RedisEventBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	return &RedisEventBus{
		client:        redis.NewClient(opts),
		logger:        logger.With("module", "redis_event_bus"),
		subscriptions: make(map[events.EventType]EventHandler),
	}, nil
}

func (eb *RedisEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *RedisEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	envelope, err := json.Marshal(redisEnvelope{
		ID:        "msg-" + eb.GenerateID(),
		Key:       key,
		EventType: event.GetType(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return eb.client.Publish(ctx, events.Topic, envelope).Err()
}

func (eb *RedisEventBus) Subscribe(ctx context.Context) error {
	sub := eb.client.Subscribe(ctx, events.Topic)

	go func() {
		for msg := range sub.Channel() {
			var envelope redisEnvelope

			err := json.Unmarshal([]byte(msg.Payload), &envelope)
			if err != nil {
				eb.logger.ErrorContext(ctx, "Failed to decode event envelope", "error", err)

				continue
			}

			handler, exists := eb.subscriptions[envelope.EventType]
			if !exists {
				continue
			}

			var event any

			switch envelope.EventType {
			case events.ValidationCompletedEvent:
				event = &events.ValidationCompleted{}
			case events.ValidationFailedEvent:
				event = &events.ValidationFailed{}
			case events.ValidationIssueDetectedEvent:
				event = &events.ValidationIssueDetected{}
			default:
				continue
			}

			err = json.Unmarshal(envelope.Payload, event)
			if err != nil {
				eb.logger.ErrorContext(ctx, "Failed to decode event payload", "error", err, "event_type", envelope.EventType)

				continue
			}

			err = handler(ctx, event)
			if err != nil {
				eb.logger.ErrorContext(ctx, "Event handler failed", "error", err, "event_type", envelope.EventType)
			}
		}
	}()

	return nil
}

func (eb *RedisEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *RedisEventBus) Close() error {
	return eb.client.Close()
}
