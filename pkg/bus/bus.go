// Package bus implements the push-based invalidation channel that keeps the
// graph view eventually consistent with storage.
//
// Repositories and the link store publish an Event after every successful
// write; subscribers (the graph synchronizer, the HTTP server's live feed)
// receive the events and re-derive whatever they cache. There is no polling
// and no hidden reactivity: recompute ordering is exactly the order in which
// events were published.
//
// Publish never blocks. When a subscriber's buffer is full the event being
// published is dropped for that subscriber; since every consumer does a full
// re-derivation on any event, a dropped event at most delays a recompute
// until the next write.
package bus

import (
	"sync"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// Op describes what happened to a record.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Topic names a change stream. Each entity type has its own topic named
// after the type; link writes go to TopicLinks.
type Topic string

// TopicLinks is the change stream for the relationship store.
const TopicLinks Topic = "links"

// TopicFor returns the topic carrying changes for an entity type.
func TopicFor(t entity.Type) Topic { return Topic(t) }

// Event is a single change notification.
type Event struct {
	Topic Topic
	Op    Op
	// ID identifies the changed record within its topic. For link events
	// this is the link id; for entity events the entity id.
	ID int64
}

// subscriber is one registered channel with its topic filter.
// An empty topics map means "all topics".
type subscriber struct {
	ch     chan Event
	topics map[Topic]bool
}

// Bus fans out change events to subscribers.
// The zero value is not usable; create with New.
type Bus struct {
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextID  int
	dropped int
	closed  bool
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Subscribe registers a listener for the given topics (all topics when none
// are given) and returns the event channel plus a cancel function. Cancel is
// idempotent and closes the channel.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, DefaultBuffer)}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]bool, len(topics))
		for _, t := range topics {
			sub.topics[t] = true
		}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
		})
	}
	return sub.ch, cancel
}

// Publish delivers the event to every matching subscriber without blocking.
// If a subscriber's buffer is full the event is dropped for that subscriber
// and counted; see Dropped.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.topics != nil && !sub.topics[ev.Topic] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped++
		}
	}
}

// Dropped returns the number of events discarded because a subscriber's
// buffer was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close shuts the bus down. All subscriber channels are closed and further
// publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
