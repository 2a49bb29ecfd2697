package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqarchitect/validation/pkg/channels/gochannel"
	"github.com/reqarchitect/validation/pkg/eventbus"
	"github.com/reqarchitect/validation/pkg/events"
	"github.com/reqarchitect/validation/pkg/models"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestWatermillEventBus_PublishSubscribeRoundtrip(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ValidationCompleted, 1)

	require.NoError(t, bus.Handle(events.ValidationCompletedEvent, func(_ context.Context, event any) error {
		completed, ok := event.(*events.ValidationCompleted)
		if ok {
			received <- completed
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	maturity := 87.5

	require.NoError(t, bus.Publish(ctx, "cycle-1", events.ValidationCompleted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.ValidationCompletedEvent,
			Timestamp: time.Now().UTC(),
			TenantID:  "tenant-1",
		},
		CycleID:       "cycle-1",
		TriggeredBy:   "user-1",
		TotalIssues:   3,
		MaturityScore: &maturity,
	}))

	select {
	case completed := <-received:
		assert.Equal(t, "cycle-1", completed.CycleID)
		assert.Equal(t, "tenant-1", completed.TenantID)
		assert.Equal(t, 3, completed.TotalIssues)
		require.NotNil(t, completed.MaturityScore)
		assert.InDelta(t, 87.5, *completed.MaturityScore, 0.001)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreAcked(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ValidationIssueDetected, 1)

	require.NoError(t, bus.Handle(events.ValidationIssueDetectedEvent, func(_ context.Context, event any) error {
		detected, ok := event.(*events.ValidationIssueDetected)
		if ok {
			received <- detected
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	// no handler for failed events; the bus must keep draining past them
	require.NoError(t, bus.Publish(ctx, "cycle-1", events.ValidationFailed{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.ValidationFailedEvent, TenantID: "tenant-1"},
		CycleID:   "cycle-1",
		Error:     "all rules failed",
	}))
	require.NoError(t, bus.Publish(ctx, "cycle-1", events.ValidationIssueDetected{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.ValidationIssueDetectedEvent, TenantID: "tenant-1"},
		CycleID:   "cycle-1",
		Issue:     models.ValidationIssue{ID: "i1", IssueType: models.IssueTypeMissingLink},
	}))

	select {
	case detected := <-received:
		assert.Equal(t, "i1", detected.Issue.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("issue event was not delivered")
	}
}
