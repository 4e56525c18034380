package drift

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventBusPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.publish(Event{EntityID: "e1", Type: Tensor, Score: 0.6})

	eventA := <-a
	eventB := <-b
	require.Equal(t, "e1", eventA.EntityID)
	require.Equal(t, "e1", eventB.EntityID)
	require.Equal(t, uint64(1), eventA.Sequence)
}

func TestEventBusPublishAssignsIncreasingSequencePerEntity(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()

	bus.publish(Event{EntityID: "e1", Type: Tensor, Score: 0.6})
	bus.publish(Event{EntityID: "e1", Type: Schema, Score: 0.2})

	first := <-ch
	second := <-ch
	require.Less(t, first.Sequence, second.Sequence)
}

func TestEventBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	bus.publish(Event{EntityID: "e1", Type: Tensor, Score: 0.6})

	_, ok := <-ch
	require.False(t, ok)
}

func TestEventBusPublishDefaultsTimestamp(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	bus.publish(Event{EntityID: "e1", Type: Tensor, Score: 0.6})
	event := <-ch
	require.False(t, event.Timestamp.IsZero())
}
