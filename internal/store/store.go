// Package store persists named collections as whole-file JSON documents.
// The model is deliberately simple: Read returns the full collection, Write
// replaces it. Callers own the read-modify-write cycle and its serialization.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Collection names used by the application.
const (
	Users        = "users"
	Portfolios   = "portfolios"
	Assets       = "assets"
	Transactions = "transactions"
)

// ErrCorrupt marks a collection file that exists but cannot be parsed.
// A missing file is not an error; it reads as an empty collection.
var ErrCorrupt = errors.New("corrupt collection")

type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Read unmarshals the collection into out. If the collection file does not
// exist or is empty, out is left untouched and Read returns nil.
func (s *FileStore) Read(name string, out any) error {
	raw, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read collection %q: %w", name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCorrupt, name, err)
	}
	return nil
}

// Write replaces the collection's persisted contents. The file is written
// pretty-printed through a temp file and renamed into place so readers never
// observe a half-written collection.
func (s *FileStore) Write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection %q: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, name+"-*.json.tmp")
	if err != nil {
		return fmt.Errorf("write collection %q: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write collection %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write collection %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace collection %q: %w", name, err)
	}
	return nil
}
