package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

func TestCodec_RoundTrip_Text(t *testing.T) {
	req := require.New(t)
	env := domain.NewText("alice", "hello")

	line, err := Encode(env)
	req.NoError(err)
	req.NotContains(line, "\n")

	decoded, err := Decode(line)
	req.NoError(err)
	req.Equal(env, decoded)
}

func TestCodec_RoundTrip_FilePayload(t *testing.T) {
	req := require.New(t)
	payload := []byte{0x00, 0x01, 0xFF, '\n', 0x7F, 0xDE, 0xAD, 0xBE, 0xEF, 'a', 'b', 'c'}
	env := domain.NewFilePayload("alice", "notes.txt", payload)
	req.Equal(int64(12), env.ByteLength)

	line, err := Encode(env)
	req.NoError(err)
	// Raw bytes must never leak into the frame unescaped
	req.NotContains(line, "\n")

	decoded, err := Decode(line)
	req.NoError(err)
	req.Equal(env, decoded)
	req.Equal(payload, decoded.(domain.FilePayload).Bytes)
}

func TestCodec_RoundTrip_AllKinds(t *testing.T) {
	req := require.New(t)
	envelopes := []domain.Envelope{
		domain.NewText("alice", "hi bob"),
		domain.NewFilePayload("bob", "img.png", []byte("binary-ish")),
		domain.NewUserJoined("carol"),
		domain.NewUserLeft("carol"),
		domain.NewSystemNotice("Welcome to the chat, alice!"),
	}
	for _, env := range envelopes {
		line, err := Encode(env)
		req.NoError(err)
		decoded, err := Decode(line)
		req.NoError(err)
		req.Equal(env, decoded)
	}
}

func TestCodec_Decode_MalformedJSON(t *testing.T) {
	req := require.New(t)
	_, err := Decode("{not json at all")
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
}

func TestCodec_Decode_UnknownKind(t *testing.T) {
	req := require.New(t)
	_, err := Decode(`{"kind":"teleport","sent_at":"2026-01-01T00:00:00Z"}`)
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
}

func TestCodec_Decode_TruncatedFrame(t *testing.T) {
	req := require.New(t)
	line, err := Encode(domain.NewText("alice", "hello"))
	req.NoError(err)
	_, err = Decode(line[:len(line)/2])
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
}

func TestCodec_Decode_NonUTF8(t *testing.T) {
	req := require.New(t)
	_, err := Decode(string([]byte{0xFF, 0xFE, '{', '}'}))
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
}

func TestCodec_Decode_ByteLengthMismatch(t *testing.T) {
	req := require.New(t)
	// byte_length claims 99 but the payload is 3 bytes ("YWJj" = "abc")
	_, err := Decode(`{"kind":"file","author":"alice","filename":"a.bin","byte_length":99,"bytes":"YWJj","sent_at":"2026-01-01T00:00:00Z"}`)
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
}

func TestCodec_Decode_PlainTextLineIsNotAnEnvelope(t *testing.T) {
	req := require.New(t)
	_, err := Decode("hello")
	req.ErrorIs(err, errs.ErrMalformedEnvelope)
	req.True(strings.Contains(err.Error(), "malformed"))
}
