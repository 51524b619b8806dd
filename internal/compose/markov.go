package compose

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/agent-chat/internal/keywords"
)

// DefaultMarkovWords bounds the length of a generated sentence.
const DefaultMarkovWords = 20

type bigram [2]string

// Chain is an order-2 Markov chain over word tokens.
type Chain struct {
	next   map[bigram][]string
	starts []bigram
}

// NewChain builds a chain from the token sequences of texts. Texts with
// fewer than three tokens contribute nothing.
func NewChain(texts []string) *Chain {
	c := &Chain{next: map[bigram][]string{}}
	for _, t := range texts {
		toks := keywords.Tokenize(t)
		if len(toks) < 3 {
			continue
		}
		c.starts = append(c.starts, bigram{toks[0], toks[1]})
		for i := 0; i+2 < len(toks); i++ {
			k := bigram{toks[i], toks[i+1]}
			c.next[k] = append(c.next[k], toks[i+2])
		}
	}
	return c
}

// Generate walks the chain from a random start for at most maxWords words.
// It returns "" when the chain is empty.
func (c *Chain) Generate(r *rand.Rand, maxWords int) string {
	if len(c.starts) == 0 || maxWords < 2 {
		return ""
	}
	cur := c.starts[r.Intn(len(c.starts))]
	words := []string{cur[0], cur[1]}
	for len(words) < maxWords {
		succ := c.next[cur]
		if len(succ) == 0 {
			break
		}
		w := succ[r.Intn(len(succ))]
		words = append(words, w)
		cur = bigram{cur[1], w}
	}
	return sentence(words)
}

func sentence(words []string) string {
	s := strings.Join(words, " ")
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + "."
}
