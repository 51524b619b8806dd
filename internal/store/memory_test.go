package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rcliao/agent-chat/internal/model"
)

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(50)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(ctx, entryAt(model.RoleUser, fmt.Sprintf("msg %d", i), int64(i)))
		}(i)
	}
	wg.Wait()

	all, _ := s.ListRecent(ctx, 0)
	if len(all) != 50 {
		t.Errorf("expected 50 entries, got %d", len(all))
	}
}

func TestMemoryStoreListIsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)
	s.Append(ctx, entryAt(model.RoleUser, "original", 1))

	got, _ := s.ListRecent(ctx, 0)
	got[0].Text = "mutated"

	again, _ := s.ListRecent(ctx, 0)
	if again[0].Text != "original" {
		t.Error("ListRecent must not expose internal storage")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		opts    Options
		driver  string
		wantErr bool
	}{
		{Options{Path: dir + "/a.db"}, DriverSQLite, false},
		{Options{Driver: DriverMemory}, DriverMemory, false},
		{Options{Driver: DriverJSON, Path: dir + "/a.json"}, DriverJSON, false},
		{Options{Driver: DriverPostgres}, "", true},
		{Options{Driver: "redis"}, "", true},
	}
	for _, tt := range tests {
		s, err := Open(ctx, tt.opts)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Open(%+v): expected error", tt.opts)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Open(%+v): %v", tt.opts, err)
		}
		if got := driverName(s); got != tt.driver {
			t.Errorf("Open(%+v) driver = %s, want %s", tt.opts, got, tt.driver)
		}
		s.Close()
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore(0)
	src.Append(ctx, entryAt(model.RoleUser, "planning a hiking trip", 100))
	src.Append(ctx, entryAt(model.RoleAssistant, "great idea", 200))

	exported, err := ExportAll(ctx, src)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported) != 2 || exported[0].Timestamp != 100 {
		t.Fatalf("expected oldest first, got %+v", exported)
	}

	exported[0].Keywords = []string{"bogus"}
	exported = append(exported, model.MemoryEntry{Role: "system", Text: "skipped"})

	dst := newTestStore(t)
	n, err := Import(ctx, dst, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}

	got, _ := dst.ListRecent(ctx, 0)
	if got[1].Timestamp != 100 {
		t.Errorf("expected preserved ts, got %d", got[1].Timestamp)
	}
	for _, kw := range got[1].Keywords {
		if kw == "bogus" {
			t.Error("expected keywords to be re-derived")
		}
	}
	if got[1].ID == exported[0].ID {
		t.Error("expected new ID on import")
	}
}

func TestExportEmpty(t *testing.T) {
	got, err := ExportAll(context.Background(), NewMemoryStore(0))
	if err != nil || got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil export, got %v %v", got, err)
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Append(context.Context, model.MemoryEntry) (*model.MemoryEntry, error) {
	return nil, errors.New("disk full")
}

func TestImportStopsOnError(t *testing.T) {
	n, err := Import(context.Background(), &failingStore{}, []model.MemoryEntry{{Role: model.RoleUser, Text: "x"}})
	if err == nil || n != 0 {
		t.Errorf("expected error and 0 imported, got %d %v", n, err)
	}
}
