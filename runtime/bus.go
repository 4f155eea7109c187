// Package runtime handles session state, event propagation, and the shared
// connection registry. It orchestrates the relay without containing wire or
// domain rules.
package runtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// DefaultCapacity is the bounded replay window of the bus.
const DefaultCapacity = 100

// Posting pairs an envelope with the session that published it. Carrying the
// origin id keeps echo suppression per-connection: two sessions sharing a
// username never suppress each other's messages.
type Posting struct {
	Origin uuid.UUID
	Env    domain.Envelope
}

// Bus is the single broadcast channel distributing postings to all current
// subscribers in one global publish order. It is backed by a bounded ring:
// a subscriber that falls more than the capacity behind observes a Lagged
// fault rather than a silent gap in the transcript.
//
// Bus is safe for concurrent use by multiple goroutines.
type Bus struct {
	mu       sync.Mutex
	capacity uint64
	ring     []Posting
	next     uint64 // sequence assigned to the next publish
	notify   chan struct{}
	closed   bool
}

func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: uint64(capacity),
		ring:     make([]Posting, capacity),
		notify:   make(chan struct{}),
	}
}

// Publish appends a posting to the bus. Fire-and-forget: it succeeds even
// with zero subscribers.
func (b *Bus) Publish(p Posting) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ring[b.next%b.capacity] = p
	b.next++
	close(b.notify)
	b.notify = make(chan struct{})
}

// Subscribe returns a new per-consumer cursor starting at "now". History
// published before the call is never replayed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscription{bus: b, cursor: b.next}
}

// Published reports how many postings the bus has seen. Diagnostics only.
func (b *Bus) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

// Close wakes every blocked subscriber with ErrBusClosed once the ring is
// drained. Publishing after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// Subscription is a single-consumer cursor over the bus. It must not be
// shared between goroutines.
type Subscription struct {
	bus    *Bus
	cursor uint64
	lagged bool
}

// Receive yields the next posting in publish order. When the cursor fell
// more than the ring capacity behind, it fails with errs.Lagged carrying the
// number of dropped postings; a lagged subscription is terminal and yields
// nothing afterwards. Partial or out-of-order delivery is never exposed.
func (s *Subscription) Receive(ctx context.Context) (Posting, error) {
	if s.lagged {
		return Posting{}, errs.ErrBusClosed
	}
	for {
		s.bus.mu.Lock()
		var oldest uint64
		if s.bus.next > s.bus.capacity {
			oldest = s.bus.next - s.bus.capacity
		}
		if s.cursor < oldest {
			missed := oldest - s.cursor
			s.lagged = true
			s.bus.mu.Unlock()
			return Posting{}, errs.Lagged{Missed: missed}
		}
		if s.cursor < s.bus.next {
			p := s.bus.ring[s.cursor%s.bus.capacity]
			s.cursor++
			s.bus.mu.Unlock()
			return p, nil
		}
		if s.bus.closed {
			s.bus.mu.Unlock()
			return Posting{}, errs.ErrBusClosed
		}
		wait := s.bus.notify
		s.bus.mu.Unlock()

		select {
		case <-ctx.Done():
			return Posting{}, ctx.Err()
		case <-wait:
		}
	}
}
