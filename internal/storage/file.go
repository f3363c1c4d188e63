// internal/storage/file.go
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// File stores each blob as <dir>/<key>.json.
type File struct {
	dir string
}

// NewFile creates dir if needed and returns a file-backed sink.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory holding the blobs.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get reads the blob stored under key.
func (f *File) Get(key string) (string, bool, error) {
	if err := validKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Put writes the blob through a temporary file so a crash never leaves a
// truncated blob behind.
func (f *File) Put(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(name, f.path(key)); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}
