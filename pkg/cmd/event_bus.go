package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/reqarchitect/validation/pkg/channels/gochannel"
	"github.com/reqarchitect/validation/pkg/channels/kafka"
	"github.com/reqarchitect/validation/pkg/eventbus"
)

// NewEventBus creates the event bus matching the provider name. Kafka
// reads KAFKA_BROKERS, redis reads REDIS_URL; gochannel is in-process and
// mainly useful for local development.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "validation")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "redis":
		bus, err := eventbus.NewRedisEventBus(os.Getenv("REDIS_URL"), logger)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis event bus: %w", err))
		}

		return bus
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create gochannel pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
