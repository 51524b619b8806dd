// Package model defines the core memory data types.
package model

import (
	"strings"
	"time"

	"github.com/rcliao/agent-chat/internal/keywords"
)

// Role identifies who produced a memory entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleMeta      Role = "meta"
)

// ValidRoles are the allowed memory roles.
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleMeta:      true,
}

// SummaryLen is the number of runes of text kept as an entry summary.
const SummaryLen = 120

// MemoryEntry is one immutable record of conversation text plus the
// metadata derived from it at write time.
type MemoryEntry struct {
	ID        string   `json:"id,omitempty"`
	Role      Role     `json:"role"`
	Text      string   `json:"text"`
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
	Timestamp int64    `json:"ts"`
	OwnerID   string   `json:"owner_id,omitempty"`
}

// NewEntry builds an entry, deriving its summary and keywords from text.
func NewEntry(role Role, text, ownerID string, at time.Time) MemoryEntry {
	return MemoryEntry{
		Role:      role,
		Text:      text,
		Summary:   Truncate(text, SummaryLen),
		Keywords:  keywords.Extract(text),
		Timestamp: at.UnixMilli(),
		OwnerID:   ownerID,
	}
}

// Derive recomputes summary and keywords from Text. Used when entries arrive
// from an external source (import) whose derived fields cannot be trusted.
func (e MemoryEntry) Derive() MemoryEntry {
	e.Summary = Truncate(e.Text, SummaryLen)
	e.Keywords = keywords.Extract(e.Text)
	return e
}

// Time returns the entry timestamp as a time.Time.
func (e MemoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Message is one turn of the caller-supplied chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LastUserText returns the trimmed content of the most recent user message,
// or "" when there is none.
func LastUserText(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if strings.EqualFold(msgs[i].Role, string(RoleUser)) {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}
