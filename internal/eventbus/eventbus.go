// Package eventbus provides in-process publish/subscribe for analysis
// lifecycle notifications.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/inquesthq/inquest/internal/logging"
)

// Wildcard subscribes to every event name.
const Wildcard = "*"

// Event is one published notification.
type Event struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Stats reports bus activity counters.
type Stats struct {
	Published   int64 // events emitted
	Delivered   int64 // per-subscriber deliveries
	Dropped     int64 // deliveries skipped because a subscriber buffer was full
	Subscribers int   // current subscriber count
}

type subscriber struct {
	id   string
	name string // event name, or Wildcard
	ch   chan Event
}

// Bus fans published events out to subscribers over buffered channels.
// Publishing never blocks: a subscriber that cannot keep up misses events
// rather than stalling the publisher. Implements analysis.EventBus and
// lifecycle.Component.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	bufferSize  int
	closed      bool
	logger      *logging.Logger

	// Statistics (atomic)
	published int64
	delivered int64
	dropped   int64
}

// New creates a bus whose subscriber channels buffer bufferSize events.
// Non-positive sizes fall back to 64.
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[string]*subscriber),
		bufferSize:  bufferSize,
		logger:      logging.GetLogger("eventbus"),
	}
}

// Emit publishes an event to every subscriber of name and every wildcard
// subscriber. Never blocks; full subscriber buffers drop the event for that
// subscriber only.
func (b *Bus) Emit(name string, payload map[string]interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	ev := Event{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	atomic.AddInt64(&b.published, 1)

	for _, sub := range b.subscribers {
		if sub.name != name && sub.name != Wildcard {
			continue
		}
		select {
		case sub.ch <- ev:
			atomic.AddInt64(&b.delivered, 1)
		default:
			atomic.AddInt64(&b.dropped, 1)
			b.logger.Warn("Subscriber buffer full, dropping event %s for %q", ev.ID, name)
		}
	}
}

// Subscribe registers interest in one event name (or Wildcard for all) and
// returns the delivery channel plus an unsubscribe function. Unsubscribing
// closes the channel; both are safe to call after Close.
func (b *Bus) Subscribe(name string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{
		id:   uuid.New().String(),
		name: name,
		ch:   make(chan Event, b.bufferSize),
	}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subscribers[sub.id] = sub
	b.logger.Debug("Subscriber %s registered for %q", sub.id, name)

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subscribers[sub.id]; ok {
			delete(b.subscribers, sub.id)
			close(sub.ch)
		}
	}
	return sub.ch, unsubscribe
}

// Close shuts the bus down: all subscriber channels are closed and later
// Emit calls are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
	b.logger.Debug("Event bus closed")
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	count := len(b.subscribers)
	b.mu.RUnlock()
	return Stats{
		Published:   atomic.LoadInt64(&b.published),
		Delivered:   atomic.LoadInt64(&b.delivered),
		Dropped:     atomic.LoadInt64(&b.dropped),
		Subscribers: count,
	}
}

// Name implements lifecycle.Component.
func (b *Bus) Name() string { return "eventbus" }

// Start implements lifecycle.Component.
func (b *Bus) Start(context.Context) error { return nil }

// Stop implements lifecycle.Component.
func (b *Bus) Stop(context.Context) error {
	b.Close()
	return nil
}
