package store

import (
	"sync"

	"github.com/vonnieda/dimple/core/model"
)

// Event describes one persisted save, for consumers that want to react
// to library changes (UI refresh, cache invalidation).
type Event struct {
	// Kind is the entity type that changed.
	Kind model.Kind
	// Key is the store key of the changed entity.
	Key string
	// Fields lists the field names the save actually changed.
	Fields []string
}

// Notifier fans out save events over a bounded channel. Delivery is
// best-effort: when the buffer is full the event is dropped. A save is
// durable independent of whether its event was delivered.
type Notifier struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int
}

// NewNotifier creates a notifier with the given buffer size. A non-positive
// size disables buffering entirely, dropping every event without a reader.
func NewNotifier(buffer int) *Notifier {
	if buffer < 0 {
		buffer = 0
	}
	return &Notifier{ch: make(chan Event, buffer)}
}

// Publish offers an event without blocking.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	select {
	case n.ch <- e:
	default:
		n.dropped++
	}
}

// Events returns the receive side of the notifier.
func (n *Notifier) Events() <-chan Event {
	return n.ch
}

// Dropped returns the number of events discarded because no consumer kept
// up.
func (n *Notifier) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Close shuts the notifier. Publishing after Close is a no-op.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.ch)
	}
}
