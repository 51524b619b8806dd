package retrieval

import (
	"slices"
	"strings"

	"github.com/rcliao/agent-chat/internal/model"
)

// Overlap scores entries by literal keyword matches: SubstringWeight for
// each query keyword found in the entry text, KeywordWeight for each found
// in the entry's keyword list. Zero-score entries are dropped.
type Overlap struct {
	SubstringWeight float64
	KeywordWeight   float64
}

func (o Overlap) Score(q Query, entries []model.MemoryEntry, limit int) []Scored {
	if len(q.Keywords) == 0 {
		return nil
	}

	var results []Scored
	for _, e := range entries {
		text := strings.ToLower(e.Text)
		score := 0.0
		for _, k := range q.Keywords {
			if strings.Contains(text, k) {
				score += o.SubstringWeight
			}
			if slices.Contains(e.Keywords, k) {
				score += o.KeywordWeight
			}
		}
		if score > 0 {
			results = append(results, Scored{Entry: e, Score: score})
		}
	}
	return rank(results, limit)
}
