//go:build sqlite

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	sqliteFileName = "context.sqlite"

	sqliteSchema = `CREATE TABLE IF NOT EXISTS context (
	key        TEXT PRIMARY KEY,
	value      INTEGER NOT NULL,
	session    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
)

type sqliteStore struct {
	db      *sql.DB
	session string
}

// Open opens the SQLite backend under dir.
func Open(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to migrate context table: %w", err)
	}

	s := &sqliteStore{db: db, session: uuid.New().String()}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, err
	}

	return s, nil
}

func (s *sqliteStore) SetContext(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO context (key, value, session, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, session = excluded.session, updated_at = excluded.updated_at`,
		key, value, s.session, time.Now().UTC())

	return err
}

func (s *sqliteStore) GetContext(ctx context.Context, key string) (*Entry, error) {
	var e Entry

	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, session, updated_at FROM context WHERE key = ?`, key).
		Scan(&e.Key, &e.Value, &e.Session, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
