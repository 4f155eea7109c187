// Package storage handles file payloads at the edges of the relay: reading
// local files to send, saving received payloads to the downloads directory,
// and journaling received files in BadgerDB.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

var validate = validator.New()

// LoadFile reads a local file for sending. Only the base name travels on
// the wire; the local path never leaves the machine.
func LoadFile(req domain.FileSendRequest) (string, []byte, error) {
	if err := validate.Struct(req); err != nil {
		return "", nil, err
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%w: %s", errs.ErrNotAFile, req.Path)
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(req.Path), data, nil
}

// FileStore persists received file payloads into a fixed downloads
// directory. It implements contract.EnvelopeSink: wired behind the client
// pump, every incoming FilePayload lands on disk.
type FileStore struct {
	dir   string
	log   *slog.Logger
	index *ReceivedIndex // optional journal, may be nil
}

func NewFileStore(log *slog.Logger, dir string, index *ReceivedIndex) *FileStore {
	return &FileStore{dir: dir, log: log, index: index}
}

// Save writes the payload under the downloads directory, creating it if
// absent. Filename collisions are overwritten silently; that is the
// accepted behavior, not an oversight.
func (f *FileStore) Save(env domain.FilePayload) (string, error) {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, filepath.Base(env.Filename))
	if err := os.WriteFile(path, env.Bytes, 0o644); err != nil {
		return "", err
	}
	if f.index != nil {
		entry := NewReceivedFile(env, path, mimetype.Detect(env.Bytes).String())
		if err := f.index.Store(entry); err != nil {
			f.log.Error("Failed to journal received file",
				"filename", env.Filename, "error", err)
		}
	}
	return path, nil
}

// Consume saves FilePayload envelopes and ignores every other kind.
func (f *FileStore) Consume(_ context.Context, e domain.Envelope) error {
	switch env := e.(type) {
	case domain.FilePayload:
		path, err := f.Save(env)
		if err != nil {
			return err
		}
		f.log.Info("File saved", "author", env.Author, "path", path, "bytes", env.ByteLength)
		return nil
	default:
		return nil
	}
}
