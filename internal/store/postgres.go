package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcliao/agent-chat/internal/model"
)

// PostgresStore implements Store on a Postgres table, for deployments that
// share one memory log between several processes.
type PostgresStore struct {
	pool     *pgxpool.Pool
	capacity int
}

// NewPostgresStore connects to dsn and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string, capacity int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &PostgresStore{pool: pool, capacity: capacityOr(capacity)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS memories (
		seq       BIGSERIAL PRIMARY KEY,
		id        TEXT NOT NULL UNIQUE,
		role      TEXT NOT NULL,
		text      TEXT NOT NULL,
		summary   TEXT NOT NULL,
		keywords  TEXT[] NOT NULL DEFAULT '{}',
		ts        BIGINT NOT NULL,
		owner_id  TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner_id);
	`)
	return err
}

func (s *PostgresStore) Capacity() int { return s.capacity }

func (s *PostgresStore) Append(ctx context.Context, e model.MemoryEntry) (*model.MemoryEntry, error) {
	if e.ID == "" {
		e.ID = newID()
	}
	kw := e.Keywords
	if kw == nil {
		kw = []string{}
	}
	var owner *string
	if e.OwnerID != "" {
		owner = &e.OwnerID
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO memories (id, role, text, summary, keywords, ts, owner_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, string(e.Role), e.Text, e.Summary, kw, e.Timestamp, owner)
		if err != nil {
			return fmt.Errorf("insert memory: %w", err)
		}
		_, err = tx.Exec(ctx,
			`DELETE FROM memories WHERE seq IN (
			   SELECT seq FROM memories ORDER BY seq DESC OFFSET $1)`, s.capacity)
		if err != nil {
			return fmt.Errorf("evict memories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		limit = s.capacity
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, role, text, summary, keywords, ts, owner_id
		 FROM memories ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MemoryEntry
	for rows.Next() {
		var e model.MemoryEntry
		var role string
		var owner *string
		if err := rows.Scan(&e.ID, &role, &e.Text, &e.Summary, &e.Keywords, &e.Timestamp, &owner); err != nil {
			return nil, err
		}
		e.Role = model.Role(role)
		if owner != nil {
			e.OwnerID = *owner
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
