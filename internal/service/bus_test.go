package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	ev := Event{Resource: ResourcePresets, Action: "deleted", ID: "3"}
	bus.Publish(ev)
	assert.Equal(t, ev, <-a)
	assert.Equal(t, ev, <-b)

	bus.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)

	bus.Publish(ev)
	assert.Equal(t, ev, <-b)
	bus.Unsubscribe(b)
}

func TestEventBus_SlowSubscriberSkipped(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for i := 0; i < cap(ch)+4; i++ {
		bus.Publish(Event{Resource: ResourceSelection, Action: "set"})
	}
	assert.Len(t, ch, cap(ch))
}

func TestEventBus_Nil(t *testing.T) {
	var bus *EventBus

	require.NotPanics(t, func() {
		ch := bus.Subscribe()
		assert.Nil(t, ch)
		bus.Publish(Event{Resource: ResourceSelection, Action: "cleared"})
		bus.Unsubscribe(ch)
	})
}
