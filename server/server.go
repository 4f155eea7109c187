// Package server implements the TCP accept loop and the per-connection
// session state machine of the relay.
package server

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"unicode/utf8"

	"chat-relay/domain"
	errs "chat-relay/errors"
	"chat-relay/runtime"
	"chat-relay/wire"
)

// Server accepts TCP connections and runs one handling unit per client.
// It implements contract.Worker so the supervisor owns its lifecycle.
type Server struct {
	log      *slog.Logger
	registry *runtime.Registry
	bus      *runtime.Bus
	port     int
	lis      net.Listener
}

func New(log *slog.Logger, registry *runtime.Registry, bus *runtime.Bus, port int) *Server {
	return &Server{log: log, registry: registry, bus: bus, port: port}
}

// Listen binds the relay on all interfaces. Split from Run so callers can
// learn the bound address before accepting (port 0 picks a free one).
func (s *Server) Listen() error {
	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	s.lis = lis
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.lis == nil {
		return nil
	}
	return s.lis.Addr()
}

// Run accepts connections until the context ends. Closing the listener is
// what unblocks Accept; there is no other cancellation path.
func (s *Server) Run(ctx context.Context) error {
	if s.lis == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.log.Info("Server listening", "addr", s.lis.Addr().String())

	go func() {
		<-ctx.Done()
		_ = s.lis.Close()
	}()

	for {
		conn, err := s.lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.log.Info("New connection", "remote", conn.RemoteAddr().String())
		go s.handle(ctx, conn)
	}
}

// handle drives one connection through Connecting, Active, Draining, Closed.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)

	// Connecting: the very first line is the raw username, taken verbatim
	// after trimming. Never decoded as an envelope, never validated — an
	// empty username is legal.
	line, err := reader.ReadString('\n')
	if err != nil {
		s.log.Warn("Connection dropped before handshake",
			"remote", conn.RemoteAddr().String(), "error", err)
		_ = conn.Close()
		return
	}
	username := strings.TrimSpace(line)

	sess := runtime.NewSession(username)

	// Subscribe before announcing the join so this session observes its own
	// UserJoined (only Text is suppressed for the sender).
	sub := s.bus.Subscribe()

	if err := s.registry.Register(sess); err != nil {
		// Unreachable with fresh ids; a collision is a programming fault,
		// not a runtime condition to recover from.
		s.log.Error("Session id collision", "id", sess.ID, "error", err)
		_ = conn.Close()
		return
	}

	// Active.
	s.bus.Publish(runtime.Posting{Origin: sess.ID, Env: domain.NewUserJoined(username)})

	// The welcome goes straight to the outbox, not through the bus: the new
	// session has not consumed its subscription yet and a broadcast cannot
	// target a single recipient.
	sess.Unicast(domain.NewSystemNotice(fmt.Sprintf("Welcome to the chat, %s!", username)))

	connCtx, cancel := context.WithCancel(ctx)

	// Draining must run exactly once no matter which loop exits first.
	var once sync.Once
	drain := func() {
		once.Do(func() {
			s.bus.Publish(runtime.Posting{Origin: sess.ID, Env: domain.NewUserLeft(username)})
			s.registry.Unregister(sess.ID)
			sess.Outbox().Close()
			cancel()
			_ = conn.Close()
			s.log.Info("Session closed", "id", sess.ID, "username", username)
		})
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		defer drain()
		s.readLoop(reader, sess)
	}()

	go func() {
		defer wg.Done()
		defer drain()
		s.forwardLoop(connCtx, sub, sess)
	}()

	go func() {
		defer wg.Done()
		defer drain()
		s.writeLoop(connCtx, sess, conn)
	}()

	wg.Wait()
	// Closed: drain already ran; the cancel here only satisfies the contract
	// when handle exits through an early return path.
	cancel()
}

// readLoop relays inbound lines to the bus. A line that decodes as an
// envelope is published with the author forced to the session's username;
// anything else that is valid UTF-8 is relayed as plain chat text. Decode
// failures never kill the connection.
func (s *Server) readLoop(reader *bufio.Reader, sess *runtime.Session) {
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF or read fault: terminal for this session.
			return
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !utf8.ValidString(trimmed) {
			s.log.Warn("Skipping non-UTF-8 line", "id", sess.ID)
			continue
		}
		if strings.HasPrefix(trimmed, "{") {
			env, decodeErr := wire.Decode(trimmed)
			if decodeErr != nil {
				s.log.Warn("Skipping malformed envelope", "id", sess.ID, "error", decodeErr)
				continue
			}
			forced, ok := withAuthor(env, sess.Username)
			if !ok {
				// Join, leave and system frames are server-minted; a client
				// sending one is dropped like any malformed line.
				s.log.Warn("Skipping client-minted control envelope",
					"id", sess.ID, "kind", env.EnvelopeKind())
				continue
			}
			s.bus.Publish(runtime.Posting{Origin: sess.ID, Env: forced})
			continue
		}
		s.bus.Publish(runtime.Posting{Origin: sess.ID, Env: domain.NewText(sess.Username, trimmed)})
	}
}

// withAuthor forces the author to the username captured at connection time.
// A session cannot speak for anyone else.
func withAuthor(env domain.Envelope, username string) (domain.Envelope, bool) {
	switch e := env.(type) {
	case domain.Text:
		e.Author = username
		return e, true
	case domain.FilePayload:
		e.Author = username
		return e, true
	default:
		return nil, false
	}
}

// forwardLoop moves bus postings into the session outbox, applying
// sender-echo suppression. Suppression covers Text only: the client never
// locally echoes its own text, but files and join/leave notices round-trip
// through the relay to reach the sender's own transcript.
func (s *Server) forwardLoop(ctx context.Context, sub *runtime.Subscription, sess *runtime.Session) {
	for {
		p, err := sub.Receive(ctx)
		if err != nil {
			var lagged errs.Lagged
			if stderrors.As(err, &lagged) {
				// A lagged consumer is disconnected rather than skipped
				// ahead: a silent gap would corrupt the visible transcript.
				s.log.Warn("Session lagged behind the bus, disconnecting",
					"id", sess.ID, "username", sess.Username, "missed", lagged.Missed)
			}
			return
		}
		if p.Env.EnvelopeKind() == domain.KindText && p.Origin == sess.ID {
			continue
		}
		sess.Outbox().Push(p.Env)
	}
}

// writeLoop encodes outbox envelopes onto the socket. A write fault is
// terminal; there are no retries anywhere in the relay.
func (s *Server) writeLoop(ctx context.Context, sess *runtime.Session, conn net.Conn) {
	for {
		env, err := sess.Outbox().Pop(ctx)
		if err != nil {
			return
		}
		line, err := wire.Encode(env)
		if err != nil {
			s.log.Error("Failed to encode envelope", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			return
		}
	}
}
