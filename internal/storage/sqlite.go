// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// SQLite keeps blobs in a key/value table and archives attempts.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blobs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			at TEXT NOT NULL,
			challenge TEXT NOT NULL,
			input TEXT NOT NULL,
			correct INTEGER NOT NULL,
			level INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the blob stored under key.
func (s *SQLite) Get(key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// Put replaces the blob stored under key.
func (s *SQLite) Put(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// AppendAttempt archives one submission.
func (s *SQLite) AppendAttempt(ctx context.Context, a Attempt) error {
	correct := 0
	if a.Correct {
		correct = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (session_id, at, challenge, input, correct, level)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.SessionID,
		a.At.UTC().Format(time.RFC3339Nano),
		a.Challenge,
		a.Input,
		correct,
		a.Level,
	)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns up to limit attempts, most recent first.
func (s *SQLite) RecentAttempts(ctx context.Context, limit int) (attempts []Attempt, err error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, at, challenge, input, correct, level
		 FROM attempts ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		var (
			a       Attempt
			at      string
			correct int
		)
		if err := rows.Scan(&a.SessionID, &at, &a.Challenge, &a.Input, &correct, &a.Level); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse attempt time: %w", err)
		}
		a.Correct = correct != 0
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}

// ClearAttempts deletes the archive.
func (s *SQLite) ClearAttempts(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempts`); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}
