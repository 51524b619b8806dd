package store

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/rcliao/agent-chat/internal/model"
)

// Runs only against a disposable database named by AGENT_CHAT_TEST_PG_DSN.
func newTestPostgres(t *testing.T, capacity int) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("AGENT_CHAT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("AGENT_CHAT_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, capacity)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `TRUNCATE memories`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgresAppendAndEvict(t *testing.T) {
	ctx := context.Background()
	s := newTestPostgres(t, 5)

	for i := 0; i < 7; i++ {
		if _, err := s.Append(ctx, entryAt(model.RoleUser, fmt.Sprintf("pg entry %d", i), int64(i))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5, got %d", len(all))
	}
	if all[0].Text != "pg entry 6" || all[4].Text != "pg entry 2" {
		t.Errorf("unexpected order: %q .. %q", all[0].Text, all[4].Text)
	}
	if len(all[0].Keywords) == 0 {
		t.Error("expected keywords round trip")
	}
}
