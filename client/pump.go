// Package client implements the duplex pump: one task decoding inbound
// lines from the socket, one task draining outbound send intents, joined to
// the presentation layer only through queues.
package client

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/storage"
	"chat-relay/wire"
)

// Pump owns one connection to the relay. Its two tasks share no mutable
// state: a read fault in one does not directly stop the other. Overall
// teardown is the caller's job, observed as both queues closing.
type Pump struct {
	log      *slog.Logger
	conn     net.Conn
	username string
	incoming chan domain.Envelope
	outgoing chan domain.Outbound
}

func NewPump(log *slog.Logger, conn net.Conn, username string, bufferSize int) *Pump {
	return &Pump{
		log:      log,
		conn:     conn,
		username: username,
		incoming: make(chan domain.Envelope, bufferSize),
		outgoing: make(chan domain.Outbound, bufferSize),
	}
}

// Incoming exposes the decoded envelope stream consumed by the presentation
// layer. It closes when the inbound path terminates.
func (p *Pump) Incoming() <-chan domain.Envelope {
	return p.incoming
}

// Send queues an outbound intent for the write task.
func (p *Pump) Send(ctx context.Context, out domain.Outbound) error {
	select {
	case p.outgoing <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start performs the username handshake (the raw first line, no envelope
// wrapping, no server acknowledgement) and launches both tasks.
func (p *Pump) Start(ctx context.Context) error {
	if _, err := fmt.Fprintf(p.conn, "%s\n", p.username); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	go p.readLoop()
	go p.writeLoop(ctx)
	return nil
}

func (p *Pump) readLoop() {
	defer close(p.incoming)
	reader := bufio.NewReader(p.conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		env, err := wire.Decode(trimmed)
		if err != nil {
			// Non-fatal: skip the line and keep reading.
			p.log.Warn("Skipping malformed line from server", "error", err)
			continue
		}
		p.incoming <- env
	}
}

func (p *Pump) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-p.outgoing:
			env, err := p.wrap(out)
			if err != nil {
				p.log.Warn("Dropping outbound request", "error", err)
				continue
			}
			line, err := wire.Encode(env)
			if err != nil {
				p.log.Error("Failed to encode outbound envelope", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(p.conn, "%s\n", line); err != nil {
				// Terminal write fault; teardown belongs to the caller.
				p.log.Warn("Write fault, stopping outbound pump", "error", err)
				return
			}
		}
	}
}

// wrap turns a send intent into an envelope authored by this client,
// stamped at send time.
func (p *Pump) wrap(out domain.Outbound) (domain.Envelope, error) {
	if out.File != nil {
		filename, data, err := storage.LoadFile(*out.File)
		if err != nil {
			return nil, err
		}
		return domain.NewFilePayload(p.username, filename, data), nil
	}
	return domain.NewText(p.username, out.Text), nil
}

// Fanout drains the incoming stream into the given sinks until the stream
// closes or ctx ends. One sink for each envelope; a sink failure is logged,
// never fatal to the pump.
func Fanout(ctx context.Context, log *slog.Logger, in <-chan domain.Envelope, sinks ...contract.EnvelopeSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-in:
			if !ok {
				return
			}
			for _, sink := range sinks {
				if err := sink.Consume(ctx, env); err != nil {
					log.Error("Sink failure", "kind", env.EnvelopeKind(), "error", err)
				}
			}
		}
	}
}
