package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/agent-chat/internal/guard"
	"github.com/rcliao/agent-chat/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), 0)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func entryAt(role model.Role, text string, ms int64) model.MemoryEntry {
	return model.NewEntry(role, text, "", time.UnixMilli(ms))
}

func TestAppendAndListRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Append(ctx, entryAt(model.RoleUser, "I love hiking in the mountains", 1))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID == "" {
		t.Error("expected non-empty ID")
	}
	s.Append(ctx, entryAt(model.RoleAssistant, "Noted your hiking plans", 2))

	got, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Role != model.RoleAssistant || got[1].Role != model.RoleUser {
		t.Errorf("expected newest first, got %s then %s", got[0].Role, got[1].Role)
	}
	if got[1].Text != "I love hiking in the mountains" {
		t.Errorf("text not preserved: %q", got[1].Text)
	}
	if len(got[1].Keywords) != 3 || got[1].Keywords[0] != "mountains" {
		t.Errorf("keywords not preserved: %v", got[1].Keywords)
	}
	if got[1].Timestamp != 1 {
		t.Errorf("expected ts 1, got %d", got[1].Timestamp)
	}
}

func TestListRecentLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		s.Append(ctx, entryAt(model.RoleUser, fmt.Sprintf("message number %d", i), int64(i)))
	}

	got, _ := s.ListRecent(ctx, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}
	if got[0].Text != "message number 4" {
		t.Errorf("expected newest entry first, got %q", got[0].Text)
	}

	all, _ := s.ListRecent(ctx, 0)
	if len(all) != 5 {
		t.Errorf("expected all 5 for limit 0, got %d", len(all))
	}
}

func TestOwnerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := model.NewEntry(model.RoleUser, "hello there", "uid-1", time.Now())
	s.Append(ctx, e)
	s.Append(ctx, entryAt(model.RoleUser, "anonymous", 2))

	got, _ := List(ctx, s, ListParams{OwnerID: "uid-1"})
	if len(got) != 1 || got[0].OwnerID != "uid-1" {
		t.Fatalf("expected one entry owned by uid-1, got %+v", got)
	}
}

func TestEmptyKeywordsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Append(ctx, entryAt(model.RoleUser, "the and of", 1))
	got, _ := s.ListRecent(ctx, 1)
	if len(got[0].Keywords) != 0 {
		t.Errorf("expected no keywords, got %v", got[0].Keywords)
	}
}

func TestCapacityEviction(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	stores := map[string]func() Store{
		"memory": func() Store { return NewMemoryStore(500) },
		"json": func() Store {
			s, err := NewJSONStore(filepath.Join(dir, "memories.json"), 500)
			if err != nil {
				t.Fatalf("json store: %v", err)
			}
			return s
		},
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(dir, "evict.db"), 500)
			if err != nil {
				t.Fatalf("sqlite store: %v", err)
			}
			return s
		},
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			for i := 0; i < 501; i++ {
				if _, err := s.Append(ctx, entryAt(model.RoleUser, fmt.Sprintf("entry %d", i), int64(i))); err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}

			all, err := s.ListRecent(ctx, 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(all) != 500 {
				t.Fatalf("expected 500 entries, got %d", len(all))
			}
			if all[0].Text != "entry 500" {
				t.Errorf("expected newest 'entry 500', got %q", all[0].Text)
			}
			if all[len(all)-1].Text != "entry 1" {
				t.Errorf("expected oldest surviving 'entry 1', got %q", all[len(all)-1].Text)
			}
		})
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Append(ctx, entryAt(model.RoleUser, "question one", 1))
	s.Append(ctx, entryAt(model.RoleAssistant, "answer one", 2))
	s.Append(ctx, entryAt(model.RoleMeta, "keywords:question - from: question one", 3))
	s.Append(ctx, entryAt(model.RoleUser, "question two", 4))

	users, _ := List(ctx, s, ListParams{Role: model.RoleUser})
	if len(users) != 2 {
		t.Fatalf("expected 2 user entries, got %d", len(users))
	}
	if users[0].Text != "question two" {
		t.Errorf("expected newest first, got %q", users[0].Text)
	}

	one, _ := List(ctx, s, ListParams{Limit: 1})
	if len(one) != 1 {
		t.Errorf("expected limit 1, got %d", len(one))
	}

	none, _ := List(ctx, s, ListParams{OwnerID: "nobody"})
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Append(ctx, entryAt(model.RoleUser, "first message", 10))
	s.Append(ctx, entryAt(model.RoleAssistant, "first reply", 20))
	s.Append(ctx, model.NewEntry(model.RoleUser, "owned", "uid-1", time.UnixMilli(30)))

	st, err := StatsOf(ctx, s)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", st.Driver)
	}
	if st.Total != 3 {
		t.Errorf("expected 3 total, got %d", st.Total)
	}
	if st.ByRole["user"] != 2 || st.ByRole["assistant"] != 1 {
		t.Errorf("unexpected role counts: %v", st.ByRole)
	}
	if st.Owners != 1 {
		t.Errorf("expected 1 owner, got %d", st.Owners)
	}
	if st.OldestTS != 10 || st.NewestTS != 30 {
		t.Errorf("unexpected ts range %d..%d", st.OldestTS, st.NewestTS)
	}
	if st.SizeBytes <= 0 {
		t.Error("expected positive db size")
	}
	if st.Capacity != DefaultCapacity {
		t.Errorf("expected default capacity, got %d", st.Capacity)
	}
}

func TestDBFileCreated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(path, 0)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	end := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := s.UpdateUser(ctx, "uid-1", func(u *guard.User) {
		u.Email = "a@example.com"
		u.Banned = true
		u.Bans = append(u.Bans, guard.Ban{End: &end, Reason: "spam"})
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if !u.Banned {
		t.Error("expected banned")
	}

	got, err := s.GetUser(ctx, "uid-1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != "a@example.com" || !got.Banned {
		t.Errorf("unexpected user: %+v", got)
	}
	if len(got.Bans) != 1 || got.Bans[0].Reason != "spam" || !got.Bans[0].End.Equal(end) {
		t.Errorf("bans not preserved: %+v", got.Bans)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.UpdateUser(ctx, "uid-1", func(u *guard.User) { *u = guard.Reactivate(*u, now) })

	got, _ = s.GetUser(ctx, "uid-1")
	if got.Banned || len(got.Bans) != 0 {
		t.Errorf("expected cleared bans, got %+v", got)
	}
	if got.ReactivatedAt == nil || !got.ReactivatedAt.Equal(now) {
		t.Errorf("expected reactivated_at %v, got %v", now, got.ReactivatedAt)
	}
	if got.Email != "a@example.com" {
		t.Error("email lost on update")
	}

	st, _ := s.Stats(ctx)
	if st.UsersBanned != 0 {
		t.Errorf("expected 0 banned users, got %d", st.UsersBanned)
	}
}

func TestGetUserRejectsCorruptReactivation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	if err := s.PutUser(ctx, guard.User{UID: "uid-2", ReactivatedAt: &now}); err != nil {
		t.Fatalf("put user: %v", err)
	}
	got, err := s.GetUser(ctx, "uid-2")
	if err != nil || got.ReactivatedAt == nil || !got.ReactivatedAt.Equal(now) {
		t.Fatalf("expected reactivation round trip, got %+v, %v", got, err)
	}

	if _, err := s.db.ExecContext(ctx, "UPDATE users SET reactivated_at = 'not a time' WHERE uid = ?", "uid-2"); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}
	if _, err := s.GetUser(ctx, "uid-2"); err == nil || !strings.Contains(err.Error(), "reactivated_at") {
		t.Errorf("expected decode error, got %v", err)
	}
}
