package service

import "sync"

// Event resources.
const (
	ResourceSelection = "selection"
	ResourcePresets   = "presets"
)

// Event represents a state change clients may want to react to.
type Event struct {
	Resource string `json:"resource"`     // "selection" or "presets"
	Action   string `json:"action"`       // "set", "cleared", "created", "updated", "deleted"
	ID       string `json:"id,omitempty"` // preset ID
}

// EventBus is a simple fan-out pub/sub for change events. A nil *EventBus
// is usable: it drops published events and its subscriptions never fire.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	if b == nil {
		return nil
	}
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	if b == nil || ch == nil {
		return
	}
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}
