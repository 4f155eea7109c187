package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

func TestOutbox_Push_Then_Pop_Preserves_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	outbox := NewOutbox()

	outbox.Push(domain.NewText("alice", "first"))
	outbox.Push(domain.NewText("alice", "second"))

	env, err := outbox.Pop(ctx)
	req.NoError(err)
	req.Equal("first", env.(domain.Text).Body)

	env, err = outbox.Pop(ctx)
	req.NoError(err)
	req.Equal("second", env.(domain.Text).Body)
}

func TestOutbox_Pop_Blocks_Until_Push(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()
	got := make(chan domain.Envelope, 1)

	go func() {
		env, err := outbox.Pop(context.Background())
		if err == nil {
			got <- env
		}
	}()

	time.Sleep(50 * time.Millisecond)
	outbox.Push(domain.NewSystemNotice("wake up"))

	select {
	case env := <-got:
		req.Equal("wake up", env.(domain.SystemNotice).Body)
	case <-time.After(time.Second):
		req.Fail("Pop did not wake up on Push")
	}
}

func TestOutbox_Close_Drains_Queued_Envelopes_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	outbox := NewOutbox()
	outbox.Push(domain.NewText("alice", "pending"))

	outbox.Close()

	// Queued work still drains after Close
	env, err := outbox.Pop(ctx)
	req.NoError(err)
	req.Equal("pending", env.(domain.Text).Body)

	// Then the closed state surfaces
	_, err = outbox.Pop(ctx)
	req.ErrorIs(err, errs.ErrOutboxClosed)
}

func TestOutbox_Close_Is_Idempotent_And_Rejects_New_Pushes(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox()

	outbox.Close()
	outbox.Close()
	outbox.Push(domain.NewText("alice", "too late"))

	_, err := outbox.Pop(context.Background())
	req.ErrorIs(err, errs.ErrOutboxClosed)
}

func TestSession_Unicast_Reaches_The_Outbox(t *testing.T) {
	req := require.New(t)
	session := NewSession("alice")

	session.Unicast(domain.NewSystemNotice("Welcome to the chat, alice!"))

	env, err := session.Outbox().Pop(context.Background())
	req.NoError(err)
	req.Equal("Welcome to the chat, alice!", env.(domain.SystemNotice).Body)
}

func TestSession_Empty_Username_Is_Legal(t *testing.T) {
	req := require.New(t)
	session := NewSession("")

	req.Empty(session.Username)
	req.NotEqual(session.ID.String(), "")
}
