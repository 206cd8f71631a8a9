package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Storage persists a flat string document between runs.
// Save replaces the whole document in one write.
type Storage interface {
	Load() (map[string]string, error)
	Save(doc map[string]string) error
}

// MemoryStorage keeps the document in memory.
type MemoryStorage struct {
	mu  sync.Mutex
	doc map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{doc: make(map[string]string)}
}

func (m *MemoryStorage) Load() (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyDoc(m.doc), nil
}

func (m *MemoryStorage) Save(doc map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = copyDoc(doc)
	return nil
}

// FileStorage keeps the document as a JSON file readable only by its owner.
// Writes go to a temp file that is renamed into place, so a crash never
// leaves a half-written session behind.
type FileStorage struct {
	Path string
}

func (f FileStorage) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	doc := map[string]string{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return doc, nil
}

func (f FileStorage) Save(doc map[string]string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func copyDoc(doc map[string]string) map[string]string {
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
