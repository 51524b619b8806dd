// Package retrieval ranks stored memory entries against a query.
//
// Two scoring policies are available: keyword overlap, which rewards literal
// keyword matches, and TF-IDF cosine similarity over content tokens. Both
// return results ordered by descending score with ties kept in input order.
package retrieval

import (
	"fmt"
	"sort"

	"github.com/rcliao/agent-chat/internal/model"
)

// Strategy names a scoring policy.
type Strategy string

const (
	StrategyOverlap Strategy = "overlap"
	StrategyTFIDF   Strategy = "tfidf"
)

// Defaults for Policy fields left at zero.
const (
	DefaultLimit           = 6
	DefaultSubstringWeight = 2
	DefaultKeywordWeight   = 1
	DefaultOverlapFloor    = 1
	DefaultTFIDFFloor      = 0.1
	// UnknownTermWeight scales query terms that never occur in the collection.
	UnknownTermWeight = 0.1
)

// Query is what a scorer matches entries against.
type Query struct {
	Text     string
	Keywords []string
}

// Scored pairs an entry with its relevance score.
type Scored struct {
	Entry model.MemoryEntry `json:"entry"`
	Score float64           `json:"score"`
}

// Scorer ranks entries against a query. Implementations are pure and safe
// for concurrent use.
type Scorer interface {
	Score(q Query, entries []model.MemoryEntry, limit int) []Scored
}

// Policy configures scoring. The float fields are pointers so an explicit
// zero in the config is kept; nil means the strategy default.
type Policy struct {
	Strategy        Strategy `yaml:"strategy"`
	Limit           int      `yaml:"limit"`
	Floor           *float64 `yaml:"floor"`
	SubstringWeight *float64 `yaml:"substring_weight"`
	KeywordWeight   *float64 `yaml:"keyword_weight"`
}

// Float returns a pointer to v, for setting Policy fields.
func Float(v float64) *float64 { return &v }

// WithDefaults fills unset fields. After it returns, the float fields are
// non-nil.
func (p Policy) WithDefaults() Policy {
	if p.Strategy == "" {
		p.Strategy = StrategyOverlap
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.SubstringWeight == nil {
		p.SubstringWeight = Float(DefaultSubstringWeight)
	}
	if p.KeywordWeight == nil {
		p.KeywordWeight = Float(DefaultKeywordWeight)
	}
	if p.Floor == nil {
		if p.Strategy == StrategyTFIDF {
			p.Floor = Float(DefaultTFIDFFloor)
		} else {
			p.Floor = Float(DefaultOverlapFloor)
		}
	}
	return p
}

// FloorValue returns the floor, or the strategy default when unset.
func (p Policy) FloorValue() float64 {
	return *p.WithDefaults().Floor
}

// ParseStrategy validates a strategy name. Empty means overlap.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyOverlap:
		return StrategyOverlap, nil
	case StrategyTFIDF:
		return StrategyTFIDF, nil
	}
	return "", fmt.Errorf("unknown strategy %q (valid: overlap, tfidf)", s)
}

// New returns the Scorer for the policy's strategy.
func New(p Policy) (Scorer, error) {
	p = p.WithDefaults()
	switch p.Strategy {
	case StrategyOverlap:
		return Overlap{SubstringWeight: *p.SubstringWeight, KeywordWeight: *p.KeywordWeight}, nil
	case StrategyTFIDF:
		return TFIDF{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", p.Strategy)
}

// AboveFloor returns the leading results whose score is at least floor.
// Input must already be sorted descending.
func AboveFloor(results []Scored, floor float64) []Scored {
	for i, r := range results {
		if r.Score < floor {
			return results[:i]
		}
	}
	return results
}

// rank sorts by score descending, keeping input order for ties, and trims
// to limit.
func rank(results []Scored, limit int) []Scored {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
