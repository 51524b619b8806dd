package store

import (
	"context"
	"sync"

	"github.com/rcliao/agent-chat/internal/model"
)

// MemoryStore keeps entries in process memory with FIFO eviction.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  []model.MemoryEntry // oldest first
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{capacity: capacityOr(capacity)}
}

func (s *MemoryStore) Capacity() int { return s.capacity }

func (s *MemoryStore) Append(_ context.Context, e model.MemoryEntry) (*model.MemoryEntry, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	s.entries = evict(s.entries, s.capacity)
	return &e, nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]model.MemoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.entries, limit), nil
}

func (s *MemoryStore) Close() error { return nil }

// evict drops entries from the front once the slice exceeds capacity.
func evict(entries []model.MemoryEntry, capacity int) []model.MemoryEntry {
	if len(entries) <= capacity {
		return entries
	}
	kept := make([]model.MemoryEntry, capacity)
	copy(kept, entries[len(entries)-capacity:])
	return kept
}

// newestFirst returns a reversed copy of up to limit trailing entries.
func newestFirst(entries []model.MemoryEntry, limit int) []model.MemoryEntry {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.MemoryEntry, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}
