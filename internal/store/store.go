package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a context property has never been written.
var ErrNotFound = errors.New("context property not found")

// Entry is a persisted context property.
type Entry struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	Session   string    `json:"session"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the context property operations used by the app.
type Store interface {
	SetContext(ctx context.Context, key string, value bool) error
	GetContext(ctx context.Context, key string) (*Entry, error)
	Close() error
}
