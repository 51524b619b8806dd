// Package compose renders assistant replies from a user message, retrieved
// memories and request parameters. Rendering is a pure function of its
// inputs; the clock and the random source are both supplied by the caller.
package compose

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rcliao/agent-chat/internal/keywords"
	"github.com/rcliao/agent-chat/internal/model"
	"github.com/rcliao/agent-chat/internal/retrieval"
)

const (
	DefaultAssistant = "Gomega"
	DefaultBackend   = "local assistant"

	// DateLayout formats the current time in replies.
	DateLayout = "Monday, January 2, 2006 15:04:05 MST"

	echoLen        = 200
	maxTags        = 5
	maxQueryTags   = 5
	memoriesHeader = "Relevant memories I found:"
)

// Context carries everything besides the user text that shapes a reply.
type Context struct {
	Assistant string
	Backend   string
	ModelID   string
	System    string
	Now       time.Time
	Location  *time.Location

	// Keywords extracted from the user text; extracted on demand when nil.
	Keywords []string
	// Floor is the minimum score for a memory to be shown as context.
	Floor float64
	// Markov enables the extra synthesized sentence.
	Markov bool
	Rand   *rand.Rand
}

// Compose builds the reply text.
func Compose(userText string, memories []retrieval.Scored, c Context) string {
	userText = strings.TrimSpace(userText)
	intent := Classify(userText)

	kw := c.Keywords
	if kw == nil {
		kw = keywords.Extract(userText)
	}
	now := c.now()

	parts := []string{
		fmt.Sprintf("%s (%s) - %s.", or(c.Assistant, DefaultAssistant), or(c.ModelID, model.DefaultModelID), or(c.Backend, DefaultBackend)),
		"Date: " + now,
	}
	if s := strings.TrimSpace(c.System); s != "" {
		parts = append(parts, "System: "+s)
	}

	if intent == IntentDate {
		parts = append(parts, "", fmt.Sprintf("You asked about today's date/time. Right now it is: %s.", now))
		return strings.Join(parts, "\n")
	}

	trusted := retrieval.AboveFloor(memories, c.Floor)
	if len(trusted) > 0 {
		parts = append(parts, "", memoriesHeader)
		for _, m := range trusted {
			parts = append(parts, Bullet(m.Entry))
		}
	}

	parts = append(parts, "", answer(intent, userText, kw))

	if c.Markov && len(trusted) >= 2 {
		texts := make([]string, len(trusted))
		for i, m := range trusted {
			texts[i] = m.Entry.Text
		}
		if s := NewChain(texts).Generate(c.rng(), DefaultMarkovWords); s != "" {
			parts = append(parts, "", "Related thought: "+s)
		}
	}

	return strings.Join(parts, "\n")
}

// Bullet formats one memory as a context line.
func Bullet(e model.MemoryEntry) string {
	line := fmt.Sprintf("- (%s) %s", e.Role, e.Summary)
	if len(e.Keywords) > 0 {
		tags := e.Keywords
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		line += " [tags: " + strings.Join(tags, ", ") + "]"
	}
	return line
}

func answer(intent Intent, userText string, kw []string) string {
	switch intent {
	case IntentQuestion:
		q := kw
		if len(q) > maxQueryTags {
			q = q[:maxQueryTags]
		}
		search := strings.Join(q, ", ")
		if search == "" {
			search = "..."
		}
		return fmt.Sprintf("Approach for %q:\n1) Clarify the goal.\n2) Quick idea: search keywords: %s.\n3) Ask for \"step\" for step-by-step guidance.", userText, search)
	case IntentEmpty:
		userText = "(no input)"
	default:
		userText = model.Truncate(userText, echoLen)
	}
	return fmt.Sprintf("I received: %q. I can save memories and reference them later. Say \"remember: ...\" to store a specific note.", userText)
}

func (c Context) now() string {
	t := c.Now
	if t.IsZero() {
		t = time.Now()
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

func (c Context) rng() *rand.Rand {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.New(rand.NewSource(1))
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
