// Package wire implements the newline-delimited JSON framing of Envelopes.
//
// One logical message per line. encoding/json never emits raw newlines, so
// an encoded frame is always safe to terminate with '\n'. Binary payloads
// travel base64-encoded inside the frame.
package wire

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

// frame is the on-wire shape: a discriminated object with a kind field and
// kind-specific fields.
type frame struct {
	Kind       domain.Kind `json:"kind"`
	Author     string      `json:"author,omitempty"`
	Body       string      `json:"body,omitempty"`
	Filename   string      `json:"filename,omitempty"`
	ByteLength int64       `json:"byte_length,omitempty"`
	Bytes      []byte      `json:"bytes,omitempty"`
	SentAt     time.Time   `json:"sent_at"`
}

// Encode serializes an Envelope to a single newline-free line.
// The caller appends the line terminator when writing to a stream.
func Encode(e domain.Envelope) (string, error) {
	var f frame
	switch env := e.(type) {
	case domain.Text:
		f = frame{Kind: domain.KindText, Author: env.Author, Body: env.Body, SentAt: env.SentAt}
	case domain.FilePayload:
		f = frame{
			Kind:       domain.KindFile,
			Author:     env.Author,
			Filename:   env.Filename,
			ByteLength: env.ByteLength,
			Bytes:      env.Bytes,
			SentAt:     env.SentAt,
		}
	case domain.UserJoined:
		f = frame{Kind: domain.KindJoined, Author: env.Author, SentAt: env.SentAt}
	case domain.UserLeft:
		f = frame{Kind: domain.KindLeft, Author: env.Author, SentAt: env.SentAt}
	case domain.SystemNotice:
		f = frame{Kind: domain.KindSystem, Body: env.Body, SentAt: env.SentAt}
	default:
		return "", fmt.Errorf("unsupported envelope type %T", e)
	}
	bytes, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Decode is the inverse of Encode. It fails with ErrMalformedEnvelope on
// non-UTF-8, truncated, or schema-mismatched input. Decode failures are
// non-fatal to a connection: callers log and move on to the next line.
func Decode(line string) (domain.Envelope, error) {
	if !utf8.ValidString(line) {
		return nil, fmt.Errorf("%w: invalid UTF-8", errs.ErrMalformedEnvelope)
	}
	var f frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedEnvelope, err)
	}
	switch f.Kind {
	case domain.KindText:
		return domain.Text{Author: f.Author, Body: f.Body, SentAt: f.SentAt}, nil
	case domain.KindFile:
		if f.ByteLength != int64(len(f.Bytes)) {
			return nil, fmt.Errorf("%w: byte_length %d does not match payload size %d",
				errs.ErrMalformedEnvelope, f.ByteLength, len(f.Bytes))
		}
		return domain.FilePayload{
			Author:     f.Author,
			Filename:   f.Filename,
			ByteLength: f.ByteLength,
			Bytes:      f.Bytes,
			SentAt:     f.SentAt,
		}, nil
	case domain.KindJoined:
		return domain.UserJoined{Author: f.Author, SentAt: f.SentAt}, nil
	case domain.KindLeft:
		return domain.UserLeft{Author: f.Author, SentAt: f.SentAt}, nil
	case domain.KindSystem:
		return domain.SystemNotice{Body: f.Body, SentAt: f.SentAt}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", errs.ErrMalformedEnvelope, f.Kind)
	}
}
