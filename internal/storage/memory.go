// internal/storage/memory.go
package storage

import (
	"context"
	"sync"
)

// Memory is an in-process sink and archive. GetErr and PutErr, when set,
// are returned by every Get and Put.
type Memory struct {
	mu       sync.Mutex
	blobs    map[string]string
	attempts []Attempt
	puts     int

	GetErr error
	PutErr error
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]string)}
}

// Get returns the blob stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	v, ok := m.blobs[key]
	return v, ok, nil
}

// Put replaces the blob stored under key.
func (m *Memory) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.blobs[key] = value
	m.puts++
	return nil
}

// Puts returns the number of successful writes.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// AppendAttempt archives one submission.
func (m *Memory) AppendAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

// RecentAttempts returns up to limit attempts, most recent first.
func (m *Memory) RecentAttempts(_ context.Context, limit int) ([]Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Attempt
	for i := len(m.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.attempts[i])
	}
	return out, nil
}

// ClearAttempts deletes the archive.
func (m *Memory) ClearAttempts(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = nil
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
