// Package domain contains core concepts of the chat relay.
// This file defines the Envelope kinds exchanged over the wire.
// Envelopes are immutable once created.
package domain

import "time"

type Kind string

const (
	KindText   Kind = "text"
	KindFile   Kind = "file"
	KindJoined Kind = "joined"
	KindLeft   Kind = "left"
	KindSystem Kind = "system"
)

// Envelope is the tagged message unit relayed between clients.
type Envelope interface {
	EnvelopeKind() Kind
	CreatedAt() time.Time
}

type Text struct {
	Author string
	Body   string
	SentAt time.Time
}

type FilePayload struct {
	Author     string
	Filename   string
	ByteLength int64
	Bytes      []byte
	SentAt     time.Time
}

type UserJoined struct {
	Author string
	SentAt time.Time
}

type UserLeft struct {
	Author string
	SentAt time.Time
}

type SystemNotice struct {
	Body   string
	SentAt time.Time
}

func (t Text) EnvelopeKind() Kind        { return KindText }
func (f FilePayload) EnvelopeKind() Kind { return KindFile }
func (u UserJoined) EnvelopeKind() Kind  { return KindJoined }
func (u UserLeft) EnvelopeKind() Kind    { return KindLeft }
func (s SystemNotice) EnvelopeKind() Kind { return KindSystem }

func (t Text) CreatedAt() time.Time         { return t.SentAt }
func (f FilePayload) CreatedAt() time.Time  { return f.SentAt }
func (u UserJoined) CreatedAt() time.Time   { return u.SentAt }
func (u UserLeft) CreatedAt() time.Time     { return u.SentAt }
func (s SystemNotice) CreatedAt() time.Time { return s.SentAt }

// Constructors stamp SentAt once. UTC keeps equality stable across a
// serialization round trip (no monotonic clock reading).

func NewText(author, body string) Text {
	return Text{Author: author, Body: body, SentAt: time.Now().UTC()}
}

// NewFilePayload derives ByteLength from the data so the two can never drift.
func NewFilePayload(author, filename string, data []byte) FilePayload {
	return FilePayload{
		Author:     author,
		Filename:   filename,
		ByteLength: int64(len(data)),
		Bytes:      data,
		SentAt:     time.Now().UTC(),
	}
}

func NewUserJoined(author string) UserJoined {
	return UserJoined{Author: author, SentAt: time.Now().UTC()}
}

func NewUserLeft(author string) UserLeft {
	return UserLeft{Author: author, SentAt: time.Now().UTC()}
}

func NewSystemNotice(body string) SystemNotice {
	return SystemNotice{Body: body, SentAt: time.Now().UTC()}
}
