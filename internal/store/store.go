// Package store provides the memory store interface and its SQLite,
// Postgres, JSON file and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/agent-chat/internal/model"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 2000

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

// Store is an append-only, capacity-bounded log of memory entries. When an
// append pushes the log past Capacity, the oldest entries are evicted.
type Store interface {
	// Append stores e, assigning an ID when empty. Returns the stored entry.
	Append(ctx context.Context, e model.MemoryEntry) (*model.MemoryEntry, error)

	// ListRecent returns up to limit entries, newest first. A non-positive
	// limit returns every entry.
	ListRecent(ctx context.Context, limit int) ([]model.MemoryEntry, error)

	// Capacity returns the maximum number of retained entries.
	Capacity() int

	// Close releases the store.
	Close() error
}

// ListParams filters a memory listing.
type ListParams struct {
	Role    model.Role
	OwnerID string
	Limit   int
}

// List returns entries newest first that match p. Filtering happens after
// the read, so it works with any Store.
func List(ctx context.Context, s Store, p ListParams) ([]model.MemoryEntry, error) {
	all, err := s.ListRecent(ctx, 0)
	if err != nil {
		return nil, err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 200
	}
	out := []model.MemoryEntry{}
	for _, e := range all {
		if p.Role != "" && e.Role != p.Role {
			continue
		}
		if p.OwnerID != "" && e.OwnerID != p.OwnerID {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func newID() string {
	return ulid.Make().String()
}

func capacityOr(n int) int {
	if n <= 0 {
		return DefaultCapacity
	}
	return n
}
