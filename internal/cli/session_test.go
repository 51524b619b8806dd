package cli

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/rcliao/agent-chat/internal/engine"
	"github.com/rcliao/agent-chat/internal/store"
)

func newTestSession(t *testing.T) (*chatSession, store.Store) {
	t.Helper()
	s := store.NewMemoryStore(0)
	eng, err := engine.New(s, engine.Options{}, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &chatSession{
		eng:   eng,
		log:   slog.Default(),
		rand:  rand.New(rand.NewSource(1)),
		owner: "sess-1",
	}, s
}

func TestSessionRun(t *testing.T) {
	ctx := context.Background()
	sess, s := newTestSession(t)

	in := strings.NewReader("I love hiking in Colorado\n\nTell me about hiking\n/quit\nnever read\n")
	var out strings.Builder
	if err := sess.run(ctx, in, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := strings.Count(out.String(), "\n\n> "); got != 2 {
		t.Errorf("expected 2 replies, got %d:\n%s", got, out.String())
	}
	if !strings.Contains(out.String(), "- (user) I love hiking in Colorado") {
		t.Errorf("expected second reply to recall the first message:\n%s", out.String())
	}
	if len(sess.history) != 4 {
		t.Errorf("expected 4 history messages, got %d", len(sess.history))
	}

	all, _ := s.ListRecent(ctx, 0)
	for _, e := range all {
		if e.OwnerID != "sess-1" {
			t.Errorf("expected session owner on %s entry", e.Role)
		}
	}
}

func TestSessionStopsOnEOF(t *testing.T) {
	sess, _ := newTestSession(t)
	var out strings.Builder
	if err := sess.run(context.Background(), strings.NewReader(""), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "> " {
		t.Errorf("expected only the prompt, got %q", out.String())
	}
}

func TestSessionUnknownModel(t *testing.T) {
	sess, _ := newTestSession(t)
	sess.model = "nope"
	err := sess.run(context.Background(), strings.NewReader("hello\n"), &strings.Builder{})
	if err == nil {
		t.Error("expected error for unknown model")
	}
}
