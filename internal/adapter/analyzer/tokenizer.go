package analyzer

import (
	"strings"
	"unicode"

	"vsm/config"
)

// Tokenizer splits text into terms with optional lowercasing and stopword
// removal. Duplicates and order are kept, since repetition drives query
// term frequency.
type Tokenizer struct {
	lowercase bool
	stopwords map[string]struct{}
	minLen    int
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(cfg config.AnalyzerConfig) *Tokenizer {
	t := &Tokenizer{
		lowercase: cfg.Lowercase,
		minLen:    cfg.MinTokenLen,
	}
	if cfg.Stopwords {
		t.stopwords = defaultStopwords()
	}
	return t
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if t.lowercase {
			word = strings.ToLower(word)
		}
		if len([]rune(word)) < t.minLen {
			continue
		}
		if _, isStop := t.stopwords[strings.ToLower(word)]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "or", "if", "so", "no", "do",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
