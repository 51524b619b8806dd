package retrieval

import (
	"math"

	"github.com/rcliao/agent-chat/internal/keywords"
	"github.com/rcliao/agent-chat/internal/model"
)

// Vector is a sparse term-weight vector.
type Vector map[string]float64

// TFIDF scores entries by cosine similarity of TF-IDF vectors built over
// the given collection. Entries with zero similarity are dropped.
type TFIDF struct{}

func (TFIDF) Score(q Query, entries []model.MemoryEntry, limit int) []Scored {
	qTokens := keywords.ContentTokens(q.Text)
	if len(qTokens) == 0 {
		qTokens = q.Keywords
	}
	if len(qTokens) == 0 || len(entries) == 0 {
		return nil
	}

	docs := make([][]string, len(entries))
	for i, e := range entries {
		docs[i] = keywords.ContentTokens(e.Text)
	}
	idf := InverseDocFreq(docs)
	qv := Weigh(qTokens, idf)

	var results []Scored
	for i, e := range entries {
		sim := CosineSimilarity(qv, Weigh(docs[i], idf))
		if sim > 0 {
			results = append(results, Scored{Entry: e, Score: sim})
		}
	}
	return rank(results, limit)
}

// TermFreq returns each token's count divided by the total token count.
func TermFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	for _, t := range tokens {
		tf[t]++
	}
	n := float64(len(tokens))
	for t := range tf {
		tf[t] /= n
	}
	return tf
}

// InverseDocFreq computes ln((N+1)/(df+1)) + 1 for every token in docs.
func InverseDocFreq(docs [][]string) map[string]float64 {
	df := map[string]int{}
	for _, d := range docs {
		seen := map[string]bool{}
		for _, t := range d {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for t, c := range df {
		idf[t] = math.Log((n+1)/(float64(c)+1)) + 1
	}
	return idf
}

// Weigh builds a TF-IDF vector. Tokens missing from idf get
// UnknownTermWeight in place of an idf factor.
func Weigh(tokens []string, idf map[string]float64) Vector {
	v := Vector{}
	for t, f := range TermFreq(tokens) {
		if w, ok := idf[t]; ok {
			v[t] = f * w
		} else {
			v[t] = f * UnknownTermWeight
		}
	}
	return v
}

// CosineSimilarity computes cosine similarity between two sparse vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for t, x := range a {
		normA += x * x
		if y, ok := b[t]; ok {
			dot += x * y
		}
	}
	for _, y := range b {
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
