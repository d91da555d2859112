package relations

import (
	"log"
	"sync"
)

type EventKind string

const (
	EventEdgeCreated  EventKind = "edge_created"
	EventEdgeUpdated  EventKind = "edge_updated"
	EventEdgeDeleted  EventKind = "edge_deleted"
	EventBlockCreated EventKind = "block_created"
	EventBlockDeleted EventKind = "block_deleted"
)

// Event announces that something changed between two accounts. It is a
// trigger, not a value carrier: consumers re-read current edge state instead
// of trusting the payload.
type Event struct {
	FollowerID  int64     `json:"follower_id"`
	FollowingID int64     `json:"following_id"`
	Kind        EventKind `json:"kind"`
}

// Touches reports whether the event concerns the given account.
func (e Event) Touches(accountID int64) bool {
	return e.FollowerID == accountID || e.FollowingID == accountID
}

type busSubscriber struct {
	accountID int64
	ch        chan Event
}

// EventBus is the in-process optimistic propagation path: a command applied
// in one view is reflected in every other open view of the same relationship
// without waiting for the durable round trip.
type EventBus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]*busSubscriber
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[int64]*busSubscriber),
	}
}

// Subscribe registers for events touching accountID. Account 0 subscribes
// to every event (used by the aggregation engine). The returned cancel
// function must be called to release the subscription.
func (b *EventBus) Subscribe(accountID int64) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	sub := &busSubscriber{
		accountID: accountID,
		ch:        make(chan Event, 16),
	}
	b.subs[id] = sub

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Publish delivers the event to every subscriber watching either account.
// Delivery is non-blocking: a full subscriber drops the event and will catch
// up on the next durable reconciliation.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if sub.accountID != 0 && !event.Touches(sub.accountID) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			log.Printf("event bus: dropping %s event for slow subscriber of account %d", event.Kind, sub.accountID)
		}
	}
}
