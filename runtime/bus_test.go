package runtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

func TestBus_Delivers_In_Publish_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	bus := NewBus(DefaultCapacity)
	origin := uuid.New()
	sub := bus.Subscribe()

	// When ten postings are published
	for i := 0; i < 10; i++ {
		bus.Publish(Posting{Origin: origin, Env: domain.NewText("alice", fmt.Sprintf("msg-%d", i))})
	}

	// Then the subscriber observes them in exactly the call order
	for i := 0; i < 10; i++ {
		p, err := sub.Receive(ctx)
		req.NoError(err)
		req.Equal(fmt.Sprintf("msg-%d", i), p.Env.(domain.Text).Body)
	}
}

func TestBus_Publish_With_Zero_Subscribers_Succeeds(t *testing.T) {
	req := require.New(t)
	bus := NewBus(4)

	bus.Publish(Posting{Origin: uuid.New(), Env: domain.NewText("alice", "into the void")})

	req.Equal(uint64(1), bus.Published())
}

func TestBus_Subscribe_Does_Not_Replay_History(t *testing.T) {
	req := require.New(t)
	bus := NewBus(DefaultCapacity)
	origin := uuid.New()

	// Given a posting published before subscription
	bus.Publish(Posting{Origin: origin, Env: domain.NewText("alice", "before")})

	sub := bus.Subscribe()
	bus.Publish(Posting{Origin: origin, Env: domain.NewText("alice", "after")})

	// Then the cursor starts at "now"
	p, err := sub.Receive(context.Background())
	req.NoError(err)
	req.Equal("after", p.Env.(domain.Text).Body)
}

func TestBus_Slow_Subscriber_Observes_Lagged_Exactly_Once(t *testing.T) {
	req := require.New(t)
	capacity := 8
	bus := NewBus(capacity)
	origin := uuid.New()
	sub := bus.Subscribe()

	// Given the subscriber fell more than the capacity behind
	published := capacity + 5
	for i := 0; i < published; i++ {
		bus.Publish(Posting{Origin: origin, Env: domain.NewText("alice", fmt.Sprintf("msg-%d", i))})
	}

	// Then Receive fails with Lagged carrying the number of dropped postings
	_, err := sub.Receive(context.Background())
	var lagged errs.Lagged
	req.ErrorAs(err, &lagged)
	req.Equal(uint64(5), lagged.Missed)

	// And the subscription is terminal: no partial delivery past the gap
	_, err = sub.Receive(context.Background())
	req.ErrorIs(err, errs.ErrBusClosed)
}

func TestBus_Subscriber_Within_Capacity_Never_Lags(t *testing.T) {
	req := require.New(t)
	capacity := 8
	bus := NewBus(capacity)
	origin := uuid.New()
	sub := bus.Subscribe()

	for i := 0; i < capacity; i++ {
		bus.Publish(Posting{Origin: origin, Env: domain.NewText("alice", fmt.Sprintf("msg-%d", i))})
	}

	for i := 0; i < capacity; i++ {
		p, err := sub.Receive(context.Background())
		req.NoError(err)
		req.Equal(fmt.Sprintf("msg-%d", i), p.Env.(domain.Text).Body)
	}
}

func TestBus_Receive_Blocks_Until_Publish(t *testing.T) {
	req := require.New(t)
	bus := NewBus(4)
	sub := bus.Subscribe()
	got := make(chan Posting, 1)

	go func() {
		p, err := sub.Receive(context.Background())
		if err == nil {
			got <- p
		}
	}()

	// Give the receiver a chance to block first
	time.Sleep(50 * time.Millisecond)
	bus.Publish(Posting{Origin: uuid.New(), Env: domain.NewText("alice", "wake up")})

	select {
	case p := <-got:
		req.Equal("wake up", p.Env.(domain.Text).Body)
	case <-time.After(time.Second):
		req.Fail("Receiver did not wake up on publish")
	}
}

func TestBus_Receive_Honours_Context_Cancellation(t *testing.T) {
	req := require.New(t)
	bus := NewBus(4)
	sub := bus.Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := sub.Receive(ctx)

	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestBus_Close_Unblocks_Subscribers(t *testing.T) {
	req := require.New(t)
	bus := NewBus(4)
	sub := bus.Subscribe()
	done := make(chan error, 1)

	go func() {
		_, err := sub.Receive(context.Background())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	bus.Close()

	select {
	case err := <-done:
		req.ErrorIs(err, errs.ErrBusClosed)
	case <-time.After(time.Second):
		req.Fail("Receiver did not observe bus closure")
	}
}
