// internal/storage/storage.go
// Package storage persists named string blobs for the state store and keeps
// an optional archive of every submitted attempt.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "kochtrainer.db"

// ErrUnknownBackend is returned for an unrecognized backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// ErrInvalidKey is returned when a blob key is empty or contains a path separator
var ErrInvalidKey = errors.New("invalid storage key")

// Sink stores named string blobs. Get reports false for a key that was never
// written.
type Sink interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// Backend is a Sink that holds resources until closed.
type Backend interface {
	Sink
	Close() error
}

// Attempt is one archived submission.
type Attempt struct {
	SessionID string
	At        time.Time
	Challenge string
	Input     string
	Correct   bool
	Level     int
}

// Archive records every submission for later reporting.
type Archive interface {
	AppendAttempt(ctx context.Context, a Attempt) error
	RecentAttempts(ctx context.Context, limit int) ([]Attempt, error)
	ClearAttempts(ctx context.Context) error
}

// Open creates the named backend rooted at dir.
func Open(backend, dir string) (Backend, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(filepath.Join(dir, DatabaseFile))
	case BackendFile:
		return NewFile(dir)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func validKey(key string) error {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
