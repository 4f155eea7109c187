package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chat-relay/domain"
)

const receivedPrefix = "file:"

// ReceivedFile is one entry of the local download journal.
type ReceivedFile struct {
	ID       uuid.UUID `json:"id"`
	Author   string    `json:"author"`
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	MimeType string    `json:"mime_type"`
	Size     int64     `json:"size"`
	At       time.Time `json:"at"`
}

func NewReceivedFile(env domain.FilePayload, path, mimeType string) ReceivedFile {
	return ReceivedFile{
		ID:       uuid.New(),
		Author:   env.Author,
		Filename: env.Filename,
		Path:     path,
		MimeType: mimeType,
		Size:     env.ByteLength,
		At:       time.Now().UTC(),
	}
}

// ReceivedIndex journals received files in BadgerDB on the receiving client.
type ReceivedIndex struct {
	db  *badger.DB
	log *slog.Logger
}

func NewReceivedIndex(db *badger.DB, log *slog.Logger) *ReceivedIndex {
	return &ReceivedIndex{db: db, log: log}
}

// Store persists one entry. The key is "file:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps keys chronological under Badger's
//     lexicographic iteration.
//  2. The UUID disambiguates two files received at the same nanosecond.
func (r *ReceivedIndex) Store(file ReceivedFile) error {
	key := fmt.Sprintf("%s%019d:%s", receivedPrefix, file.At.UnixNano(), file.ID)
	bytes, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// List returns the most recent entries, newest first, via a reverse prefix
// scan. A limit of zero means no limit.
func (r *ReceivedIndex) List(limit int) ([]ReceivedFile, error) {
	var files []ReceivedFile
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(receivedPrefix)
		// Seek past the newest possible timestamp, then walk backwards
		seekKey := []byte(receivedPrefix + "9999999999999999999")
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(files) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d entries reached", limit))
				break
			}
			item := it.Item()
			err := item.Value(func(value []byte) error {
				var f ReceivedFile
				if err := json.Unmarshal(value, &f); err != nil {
					return err
				}
				files = append(files, f)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return files, err
}
