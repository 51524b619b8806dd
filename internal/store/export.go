package store

import (
	"context"
	"slices"

	"github.com/rcliao/agent-chat/internal/model"
)

// ExportAll returns every retained entry, oldest first.
func ExportAll(ctx context.Context, s Store) ([]model.MemoryEntry, error) {
	entries, err := s.ListRecent(ctx, 0)
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	if entries == nil {
		entries = []model.MemoryEntry{}
	}
	return entries, nil
}

// Import appends entries in order. Summary and keywords are re-derived and
// IDs reassigned; timestamps are preserved. Capacity eviction applies as
// for any append.
func Import(ctx context.Context, s Store, entries []model.MemoryEntry) (int, error) {
	imported := 0
	for _, e := range entries {
		if !model.ValidRoles[e.Role] {
			continue
		}
		e = e.Derive()
		e.ID = ""
		if _, err := s.Append(ctx, e); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
