// Package tokenizer turns raw extracted text into the canonical token
// sequence shared by job descriptions, resumes and the skill taxonomy. It
// folds case, splits on non-alphanumeric boundaries, removes stop-words, and
// optionally applies a simple suffix-based stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopwords is the English stop-word list used when Options.Stopwords
// is nil.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at",
	"be", "by", "for", "from", "has", "he",
	"in", "is", "it", "its", "of", "on",
	"or", "that", "the", "to", "was", "were",
	"will", "with", "this", "but", "they",
	"have", "had", "what", "when", "where",
	"who", "which", "their", "if", "each",
	"do", "not", "no", "so", "can",
	"we", "our", "you", "your", "i", "my",
	"am", "been", "being", "into", "than", "then",
}

// Options configures a Normalizer. The zero value uses DefaultStopwords with
// stemming disabled.
type Options struct {
	Stemming bool
	// Stopwords replaces DefaultStopwords when non-nil. An empty non-nil
	// slice disables stop-word removal.
	Stopwords      []string
	ExtraStopwords []string
}

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stemming  bool
	stopwords map[string]struct{}
}

func New(opts Options) *Normalizer {
	words := opts.Stopwords
	if words == nil {
		words = DefaultStopwords
	}
	n := &Normalizer{
		stemming:  opts.Stemming,
		stopwords: make(map[string]struct{}, len(words)+len(opts.ExtraStopwords)),
	}
	for _, list := range [][]string{words, opts.ExtraStopwords} {
		for _, w := range list {
			for _, part := range split(fold(w)) {
				n.stopwords[part] = struct{}{}
			}
		}
	}
	return n
}

var defaultNormalizer = New(Options{})

// Tokenize normalizes text with the default options.
func Tokenize(text string) []string {
	return defaultNormalizer.Normalize(text)
}

// Normalize returns the token sequence for raw. Identical input always
// yields an identical sequence; empty or whitespace-only input yields an
// empty, non-nil slice.
func (n *Normalizer) Normalize(raw string) []string {
	words := split(fold(raw))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if _, isStop := n.stopwords[word]; isStop {
			continue
		}
		if n.stemming {
			word = stem(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Stemming reports whether the normalizer stems tokens.
func (n *Normalizer) Stemming() bool {
	return n.stemming
}

// fold applies compatibility normalization and full Unicode case folding. A
// Caser keeps state, so one is built per call.
func fold(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// split breaks folded text into words of letters and digits. A run of '+' or
// '#' directly after a word stays attached to it so that names like "c++"
// and "c#" survive.
func split(text string) []string {
	var words []string
	var word strings.Builder
	trailing := false
	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
		trailing = false
	}
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			if trailing {
				flush()
			}
			word.WriteRune(r)
		case (r == '+' || r == '#') && word.Len() > 0:
			word.WriteRune(r)
			trailing = true
		default:
			flush()
		}
	}
	flush()
	return words
}

// stem applies a simple suffix-stripping stemmer to the given word.
func stem(word string) string {
	if strings.ContainsAny(word, "+#") {
		return word
	}
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}
