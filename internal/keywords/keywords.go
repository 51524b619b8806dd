// Package keywords extracts frequency-ranked content tokens from free text.
package keywords

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxKeywords caps the number of keywords returned by Extract.
	MaxKeywords = 8
	// MinTokenLen is the shortest token (in runes) kept as content.
	MinTokenLen = 3
)

const punctuation = "`~!@#$%^&*()_-+=[]{};:'\"\\|,<.>/?"

var stopwords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(`
		the and for with that this from have has was were are you your but not
		all they their them then when what how why where who which will can
		could would should a an in on at to of is it i me my we us our
		about tell just into there here than also some been does please`) {
		stopwords[w] = true
	}
}

// IsStopword reports whether w (already lowercased) is in the stopword set.
func IsStopword(w string) bool {
	return stopwords[w]
}

// Tokenize lowercases text, blanks out punctuation and splits on whitespace.
// No filtering is applied.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	t := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, strings.ToLower(text))
	return strings.Fields(t)
}

// ContentTokens returns the tokens of text that survive the length and
// stopword filters, in order and with repeats.
func ContentTokens(text string) []string {
	var out []string
	for _, w := range Tokenize(text) {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func keep(w string) bool {
	return utf8.RuneCountInString(w) >= MinTokenLen && !stopwords[w]
}

// Extract returns up to MaxKeywords content tokens ordered by frequency,
// then by length (longer first), then by first appearance.
func Extract(text string) []string {
	tokens := ContentTokens(text)
	if len(tokens) == 0 {
		return nil
	}

	freq := make(map[string]int, len(tokens))
	var order []string
	for _, w := range tokens {
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		return utf8.RuneCountInString(a) > utf8.RuneCountInString(b)
	})

	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}
	return order
}
