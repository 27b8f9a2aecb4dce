// Package audit keeps an append-only log of vault operations. Entries
// record the action, the credential name and the scope, never the
// value: the log exists to answer "what touched this credential and
// when", not to become a second place secrets live.
package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketEntries = []byte("entries")

// Entry is one logged vault operation.
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"` // store, delete
	Name      string    `json:"name"`
	Scope     string    `json:"scope"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is a bbolt-backed operation log.
type Log struct {
	db *bolt.DB
}

// Open opens (or creates) the audit database at the given path. The
// file is created with 0600 permissions.
func Open(path string) (*Log, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit bucket: %w", err)
	}

	return &Log{db: db}, nil
}

// Append records one operation.
func (l *Log) Append(action, name, scope string) error {
	entry := Entry{
		ID:        uuid.New().String(),
		Action:    action,
		Name:      name,
		Scope:     scope,
		Timestamp: time.Now().UTC(),
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		// Timestamp-prefixed keys keep the bucket cursor in
		// chronological order.
		key := fmt.Sprintf("%s_%s", entry.Timestamp.Format(time.RFC3339Nano), entry.ID)
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal audit entry: %w", err)
		}
		return tx.Bucket(bucketEntries).Put([]byte(key), data)
	})
}

// List returns the most recent entries, newest first, up to limit
// (0 means all).
func (l *Log) List(limit int) ([]*Entry, error) {
	var entries []*Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
