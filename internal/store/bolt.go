//go:build !sqlite

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const (
	boltFileName      = "context.bolt"
	boltBucketContext = "context" // key: property name -> Entry JSON
)

// Bolt is the BoltDB backed store.
type Bolt struct {
	db      *bbolt.DB
	session string
}

// Open opens the default backend under dir.
func Open(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return NewBolt(filepath.Join(dir, boltFileName))
}

// NewBolt opens or creates a bolt database at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketContext))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Bolt{db: db, session: uuid.New().String()}, nil
}

func (b *Bolt) SetContext(_ context.Context, key string, value bool) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		Session:   b.session,
		UpdatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketContext)).Put([]byte(key), data)
	})
}

func (b *Bolt) GetContext(_ context.Context, key string) (*Entry, error) {
	var entry *Entry

	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketContext)).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		entry = &Entry{}

		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
