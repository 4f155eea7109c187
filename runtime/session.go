package runtime

import (
	"context"
	"sync"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// Session is the server-side record of one live connection. The id is
// generated fresh per accepted connection and never derived from the
// username, so duplicate usernames stay distinguishable internally.
type Session struct {
	ID       uuid.UUID
	Username string
	outbox   *Outbox
}

func NewSession(username string) *Session {
	return &Session{ID: uuid.New(), Username: username, outbox: NewOutbox()}
}

// Unicast targets this session directly, bypassing the broadcast bus.
// The welcome notice uses it: the new connection has not consumed its
// subscription yet, so a broadcast could not reach only this recipient.
func (s *Session) Unicast(env domain.Envelope) {
	s.outbox.Push(env)
}

func (s *Session) Outbox() *Outbox {
	return s.outbox
}

// Outbox is the unbounded outbound queue of one session. Closing it is the
// cancellation mechanism for the session's write path.
type Outbox struct {
	mu     sync.Mutex
	q      *queue.Queue
	notify chan struct{}
	closed bool
}

func NewOutbox() *Outbox {
	return &Outbox{q: queue.New(), notify: make(chan struct{})}
}

func (o *Outbox) Push(env domain.Envelope) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.q.Add(env)
	close(o.notify)
	o.notify = make(chan struct{})
}

// Pop blocks until an envelope is queued, the outbox closes, or ctx ends.
// Queued envelopes are still drained after Close.
func (o *Outbox) Pop(ctx context.Context) (domain.Envelope, error) {
	for {
		o.mu.Lock()
		if o.q.Length() > 0 {
			env := o.q.Remove().(domain.Envelope)
			o.mu.Unlock()
			return env, nil
		}
		if o.closed {
			o.mu.Unlock()
			return nil, errs.ErrOutboxClosed
		}
		wait := o.notify
		o.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

func (o *Outbox) Length() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.q.Length()
}

// Close unblocks any pending Pop. Safe to call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	close(o.notify)
}
