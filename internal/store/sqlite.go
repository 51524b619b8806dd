package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-chat/internal/model"
)

// SQLiteStore implements Store using SQLite. It also holds the users table
// for admin and ban flags.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	capacity int
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, capacity int) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		path:     dbPath,
		capacity: capacityOr(capacity),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT NOT NULL UNIQUE,
		role      TEXT NOT NULL,
		text      TEXT NOT NULL,
		summary   TEXT NOT NULL,
		keywords  TEXT,
		ts        INTEGER NOT NULL,
		owner_id  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
	CREATE INDEX IF NOT EXISTS idx_memories_role ON memories(role);

	CREATE TABLE IF NOT EXISTS users (
		uid            TEXT PRIMARY KEY,
		email          TEXT,
		admin          INTEGER NOT NULL DEFAULT 0,
		banned         INTEGER NOT NULL DEFAULT 0,
		bans           TEXT,
		reactivated_at TEXT,
		updated_at     TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Capacity() int { return s.capacity }

func (s *SQLiteStore) Append(ctx context.Context, e model.MemoryEntry) (*model.MemoryEntry, error) {
	if e.ID == "" {
		e.ID = newID()
	}

	var kwJSON *string
	if len(e.Keywords) > 0 {
		b, _ := json.Marshal(e.Keywords)
		s := string(b)
		kwJSON = &s
	}
	var owner *string
	if e.OwnerID != "" {
		owner = &e.OwnerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories (id, role, text, summary, keywords, ts, owner_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Role), e.Text, e.Summary, kwJSON, e.Timestamp, owner)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}
	if excess := count - s.capacity; excess > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM memories WHERE seq IN (SELECT seq FROM memories ORDER BY seq ASC LIMIT ?)`, excess)
		if err != nil {
			return nil, fmt.Errorf("evict memories: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		limit = s.capacity
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, summary, keywords, ts, owner_id
		 FROM memories ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (model.MemoryEntry, error) {
	var e model.MemoryEntry
	var role string
	var kwJSON, owner sql.NullString

	err := row.Scan(&e.ID, &role, &e.Text, &e.Summary, &kwJSON, &e.Timestamp, &owner)
	if err != nil {
		return e, err
	}

	e.Role = model.Role(role)
	if kwJSON.Valid {
		json.Unmarshal([]byte(kwJSON.String), &e.Keywords)
	}
	if owner.Valid {
		e.OwnerID = owner.String
	}
	return e, nil
}
