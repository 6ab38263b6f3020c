package events

import (
	"log"
	"sync"
	"time"
)

// Kind identifies an auth relay event variant.
type Kind string

const (
	KindTokenExpired            Kind = "auth:token_expired"
	KindTokenRefreshed          Kind = "auth:token_refreshed"
	KindRefreshFailed           Kind = "auth:refresh_failed"
	KindNotificationsAuthFailed Kind = "notifications:auth_failed"
)

// ActionReconnectRequired marks events that should prompt the client to
// re-authenticate.
const ActionReconnectRequired = "reconnect_required"

// Event is a relay event delivered to subscribers.
type Event struct {
	Kind   Kind      `json:"kind"`
	Action string    `json:"action,omitempty"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event for the given kind, attaching the
// reconnect_required marker to the negative variants.
func NewEvent(kind Kind) Event {
	e := Event{Kind: kind, At: time.Now()}
	switch kind {
	case KindTokenExpired, KindRefreshFailed, KindNotificationsAuthFailed:
		e.Action = ActionReconnectRequired
	}
	return e
}

// Bus is an in-process publish/subscribe channel for relay events. Delivery
// to a single subscriber preserves publish order; a subscriber that stops
// draining its channel loses events rather than blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			log.Printf("[Events] Subscriber %d is not draining, dropping %s", id, e.Kind)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
