package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	errs "chat-relay/errors"
)

func TestLoadFile_Reads_Name_And_Bytes(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	req.NoError(os.WriteFile(path, []byte("twelve bytes"), 0o644))

	filename, data, err := LoadFile(domain.FileSendRequest{Path: path})

	req.NoError(err)
	req.Equal("notes.txt", filename)
	req.Equal([]byte("twelve bytes"), data)
}

func TestLoadFile_Rejects_Empty_Path(t *testing.T) {
	req := require.New(t)
	_, _, err := LoadFile(domain.FileSendRequest{})
	req.Error(err)
}

func TestLoadFile_Rejects_Directories(t *testing.T) {
	req := require.New(t)
	_, _, err := LoadFile(domain.FileSendRequest{Path: t.TempDir()})
	req.ErrorIs(err, errs.ErrNotAFile)
}

func TestFileStore_Save_Creates_The_Downloads_Dir(t *testing.T) {
	req := require.New(t)
	dir := filepath.Join(t.TempDir(), "downloads")
	store := NewFileStore(slog.Default(), dir, nil)

	path, err := store.Save(domain.NewFilePayload("alice", "notes.txt", []byte("hello")))

	req.NoError(err)
	req.Equal(filepath.Join(dir, "notes.txt"), path)
	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal([]byte("hello"), data)
}

func TestFileStore_Save_Overwrites_Colliding_Filenames(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	store := NewFileStore(slog.Default(), dir, nil)

	_, err := store.Save(domain.NewFilePayload("alice", "notes.txt", []byte("first")))
	req.NoError(err)
	path, err := store.Save(domain.NewFilePayload("bob", "notes.txt", []byte("second")))
	req.NoError(err)

	// Collisions are overwritten silently, by design
	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal([]byte("second"), data)
}

func TestFileStore_Save_Strips_Path_Components_From_Filenames(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	store := NewFileStore(slog.Default(), dir, nil)

	path, err := store.Save(domain.NewFilePayload("mallory", "../../etc/evil", []byte("x")))

	req.NoError(err)
	req.Equal(filepath.Join(dir, "evil"), path)
}

func TestFileStore_Consume_Saves_Only_FilePayloads(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(slog.Default(), dir, nil)

	req.NoError(store.Consume(ctx, domain.NewText("alice", "not a file")))
	req.NoError(store.Consume(ctx, domain.NewFilePayload("alice", "a.bin", []byte{1, 2, 3})))

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal("a.bin", entries[0].Name())
}
