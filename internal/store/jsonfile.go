package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rcliao/agent-chat/internal/model"
)

// JSONStore keeps entries in a single JSON document on disk, rewritten on
// every append. The document shape is {"memories": [...]}, oldest first.
type JSONStore struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  []model.MemoryEntry
}

type jsonDoc struct {
	Memories []model.MemoryEntry `json:"memories"`
}

// NewJSONStore loads path, treating a missing file as an empty store.
func NewJSONStore(path string, capacity int) (*JSONStore, error) {
	s := &JSONStore{path: path, capacity: capacityOr(capacity)}

	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read store file: %w", err)
	}
	if len(b) > 0 {
		var doc jsonDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("parse store file: %w", err)
		}
		s.entries = evict(doc.Memories, s.capacity)
	}
	return s, nil
}

func (s *JSONStore) Capacity() int { return s.capacity }

func (s *JSONStore) Append(_ context.Context, e model.MemoryEntry) (*model.MemoryEntry, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := evict(append(s.entries, e), s.capacity)
	if err := s.save(next); err != nil {
		return nil, err
	}
	s.entries = next
	return &e, nil
}

func (s *JSONStore) ListRecent(_ context.Context, limit int) ([]model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.entries, limit), nil
}

func (s *JSONStore) Close() error { return nil }

// save writes to a temp file and renames it over the store file.
func (s *JSONStore) save(entries []model.MemoryEntry) error {
	if entries == nil {
		entries = []model.MemoryEntry{}
	}
	b, err := json.MarshalIndent(jsonDoc{Memories: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
