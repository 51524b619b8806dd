package store

import (
	"context"
	"os"
)

// Stats holds store statistics.
type Stats struct {
	Driver      string         `json:"driver"`
	Path        string         `json:"path,omitempty"`
	SizeBytes   int64          `json:"size_bytes,omitempty"`
	Capacity    int            `json:"capacity"`
	Total       int            `json:"total"`
	ByRole      map[string]int `json:"by_role"`
	Owners      int            `json:"owners"`
	OldestTS    int64          `json:"oldest_ts,omitempty"`
	NewestTS    int64          `json:"newest_ts,omitempty"`
	UsersBanned int            `json:"users_banned,omitempty"`
}

// Statser is implemented by stores that compute statistics natively.
type Statser interface {
	Stats(ctx context.Context) (*Stats, error)
}

// StatsOf returns statistics for s, scanning its entries when s does not
// implement Statser.
func StatsOf(ctx context.Context, s Store) (*Stats, error) {
	if st, ok := s.(Statser); ok {
		return st.Stats(ctx)
	}
	entries, err := s.ListRecent(ctx, 0)
	if err != nil {
		return nil, err
	}
	st := &Stats{Driver: driverName(s), Capacity: s.Capacity(), Total: len(entries), ByRole: map[string]int{}}
	owners := map[string]bool{}
	for _, e := range entries {
		st.ByRole[string(e.Role)]++
		if e.OwnerID != "" {
			owners[e.OwnerID] = true
		}
	}
	st.Owners = len(owners)
	if n := len(entries); n > 0 {
		st.NewestTS = entries[0].Timestamp
		st.OldestTS = entries[n-1].Timestamp
	}
	if js, ok := s.(*JSONStore); ok {
		st.Path = js.path
		if info, err := os.Stat(js.path); err == nil {
			st.SizeBytes = info.Size()
		}
	}
	return st, nil
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Driver: DriverSQLite, Path: s.path, Capacity: s.capacity, ByRole: map[string]int{}}

	if info, err := os.Stat(s.path); err == nil {
		st.SizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.Total)
	s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT owner_id) FROM memories WHERE owner_id IS NOT NULL`).Scan(&st.Owners)
	s.db.QueryRowContext(ctx, `SELECT COALESCE(MIN(ts), 0), COALESCE(MAX(ts), 0) FROM memories`).Scan(&st.OldestTS, &st.NewestTS)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE banned = 1`).Scan(&st.UsersBanned)

	rows, err := s.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM memories GROUP BY role`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var n int
		rows.Scan(&role, &n)
		st.ByRole[role] = n
	}

	return st, rows.Err()
}

func driverName(s Store) string {
	switch s.(type) {
	case *SQLiteStore:
		return DriverSQLite
	case *PostgresStore:
		return DriverPostgres
	case *JSONStore:
		return DriverJSON
	case *MemoryStore:
		return DriverMemory
	}
	return "unknown"
}
