package compose

import "strings"

// Intent is the classification of a user message that selects a reply
// template.
type Intent string

const (
	IntentEmpty     Intent = "empty"
	IntentDate      Intent = "date"
	IntentQuestion  Intent = "question"
	IntentStatement Intent = "statement"
)

// Both lists match anywhere in the lowercased text, so "show" counts as a
// question and "overtime" as a date request.
var (
	dateWords     = []string{"date", "time", "today"}
	questionWords = []string{"how", "what", "why", "where", "when", "help", "suggest", "advise", "fix", "who", "which"}
)

// Classify assigns an intent to text. Date checks run before question checks.
func Classify(text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return IntentEmpty
	}
	lower := strings.ToLower(text)
	if containsAny(lower, dateWords) {
		return IntentDate
	}
	if strings.HasSuffix(text, "?") || containsAny(lower, questionWords) {
		return IntentQuestion
	}
	return IntentStatement
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// NeedsRetrieval reports whether replies for this intent use stored memories.
func (i Intent) NeedsRetrieval() bool {
	return i == IntentQuestion || i == IntentStatement
}
