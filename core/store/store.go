// Package store persists the small set of boolean flags a tray session
// remembers across launches.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FlagStore is a durable key/value store of booleans. Unknown keys read as
// false.
type FlagStore interface {
	Bool(key string) bool
	SetBool(key string, value bool) error
}

// MemoryStore keeps flags for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (s *MemoryStore) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key]
}

func (s *MemoryStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = value
	return nil
}

// JSONFileStore persists flags to a JSON file, rewriting it on every change.
type JSONFileStore struct {
	path  string
	mu    sync.RWMutex
	flags map[string]bool
}

type fileData struct {
	Version   int             `json:"version"`
	UpdatedAt string          `json:"updated_at"`
	Flags     map[string]bool `json:"flags"`
}

const currentVersion = 1

// NewJSONFileStore opens the store at path. The file is created on the first
// write.
func NewJSONFileStore(path string) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path, flags: make(map[string]bool)}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return s, nil
}

func (s *JSONFileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored fileData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	if stored.Flags != nil {
		s.flags = stored.Flags
	}
	return nil
}

func (s *JSONFileStore) Bool(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key]
}

func (s *JSONFileStore) SetBool(key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, existed := s.flags[key]
	s.flags[key] = value
	if err := s.save(); err != nil {
		if existed {
			s.flags[key] = previous
		} else {
			delete(s.flags, key)
		}
		return err
	}
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *JSONFileStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.flags))
	for key := range s.flags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// save must be called with mu held.
func (s *JSONFileStore) save() error {
	data, err := json.MarshalIndent(fileData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Flags:     s.flags,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
