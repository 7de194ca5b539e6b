package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const uploadBucketName = "uploads"

// Entry records one processed upload: the terminal stage it reached, how
// many records it produced and any error. Entries are audit data; they are
// written after the fact and never influence processing.
type Entry struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Profile     string    `json:"profile"`
	Filename    string    `json:"filename"`
	Stage       Stage     `json:"stage"`
	FailedAt    Stage     `json:"failed_at,omitempty"`
	RecordCount int       `json:"record_count"`
	TokenCount  int       `json:"token_count"`
	Warning     string    `json:"warning,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Journal defines the interface for the upload history store.
type Journal interface {
	// SaveEntry persists an upload entry
	SaveEntry(entry *Entry) error

	// ListEntries returns all entries for a user
	ListEntries(username string) ([]*Entry, error)

	// Close closes the journal
	Close() error
}

// BoltJournal implements the Journal interface using BoltDB.
type BoltJournal struct {
	db *bbolt.DB
}

// NewBoltJournal creates a new BoltJournal instance
func NewBoltJournal(path string) (*BoltJournal, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(uploadBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltJournal{db: db}, nil
}

// SaveEntry persists an upload entry. Keys are prefixed with the username
// so a user's history is contiguous in bucket order.
func (b *BoltJournal) SaveEntry(entry *Entry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(uploadBucketName))
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		key := fmt.Sprintf("%s/%d/%s", entry.Username, entry.CreatedAt.UnixNano(), entry.ID)
		return bucket.Put([]byte(key), data)
	})
}

// ListEntries returns all entries for a user, oldest first
func (b *BoltJournal) ListEntries(username string) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	prefix := []byte(username + "/")
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(uploadBucketName)).Cursor()
		for k, v := c.Seek(prefix); k != nil && len(k) >= len(prefix) && string(k[:len(prefix)]) == string(prefix); k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database connection
func (b *BoltJournal) Close() error {
	return b.db.Close()
}
