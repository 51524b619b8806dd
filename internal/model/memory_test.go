package model

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewEntryDerivesFields(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	text := strings.Repeat("hiking ", 30) + "colorado"

	e := NewEntry(RoleUser, text, "uid-1", at)
	if e.Timestamp != 1700000000000 {
		t.Errorf("expected ts 1700000000000, got %d", e.Timestamp)
	}
	if got := len([]rune(e.Summary)); got != SummaryLen {
		t.Errorf("expected summary of %d runes, got %d", SummaryLen, got)
	}
	if !reflect.DeepEqual(e.Keywords, []string{"hiking", "colorado"}) {
		t.Errorf("unexpected keywords %v", e.Keywords)
	}
	if e.OwnerID != "uid-1" {
		t.Errorf("expected owner uid-1, got %q", e.OwnerID)
	}
}

func TestDeriveOverwritesTamperedFields(t *testing.T) {
	e := MemoryEntry{Role: RoleUser, Text: "I love hiking", Summary: "bogus", Keywords: []string{"x"}}
	d := e.Derive()
	if d.Summary != "I love hiking" {
		t.Errorf("expected summary recomputed, got %q", d.Summary)
	}
	if !reflect.DeepEqual(d.Keywords, []string{"hiking", "love"}) {
		t.Errorf("expected keywords recomputed, got %v", d.Keywords)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, ""},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestLastUserText(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "  second  "},
		{Role: "assistant", Content: "another"},
	}
	if got := LastUserText(msgs); got != "second" {
		t.Errorf("expected 'second', got %q", got)
	}
	if got := LastUserText(nil); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestFindModel(t *testing.T) {
	if _, ok := FindModel(DefaultModels, DefaultModelID); !ok {
		t.Errorf("default model %q missing from registry", DefaultModelID)
	}
	if _, ok := FindModel(DefaultModels, "nope"); ok {
		t.Error("expected unknown model to be missing")
	}
}
