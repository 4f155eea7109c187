// Package ui renders incoming envelopes as coloured terminal lines.
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"chat-relay/domain"
)

var (
	textStyle   = color.New(color.FgCyan)
	fileStyle   = color.New(color.FgMagenta, color.OpBold)
	joinStyle   = color.New(color.FgGreen)
	leaveStyle  = color.New(color.FgYellow)
	systemStyle = color.New(color.FgWhite, color.OpBold)
)

// Renderer writes one line per envelope. It implements
// contract.EnvelopeSink so it can sit directly behind the client pump.
type Renderer struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
}

func NewRenderer(out io.Writer, colours bool) *Renderer {
	return &Renderer{out: out, colours: colours}
}

// Consume renders the envelope to the underlying writer.
func (r *Renderer) Consume(_ context.Context, e domain.Envelope) error {
	var line string
	var style color.Style
	switch env := e.(type) {
	case domain.Text:
		line = fmt.Sprintf("[%s] %s", env.Author, env.Body)
		style = textStyle
	case domain.FilePayload:
		line = fmt.Sprintf("[%s] sent a file: %s (%d bytes)", env.Author, env.Filename, env.ByteLength)
		style = fileStyle
	case domain.UserJoined:
		line = fmt.Sprintf("* %s joined the chat", env.Author)
		style = joinStyle
	case domain.UserLeft:
		line = fmt.Sprintf("* %s left the chat", env.Author)
		style = leaveStyle
	case domain.SystemNotice:
		line = fmt.Sprintf("-- %s", env.Body)
		style = systemStyle
	default:
		return nil
	}
	if r.colours {
		line = style.Render(line)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, line)
	return err
}
