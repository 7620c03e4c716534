package analyzer

import (
	"reflect"
	"testing"

	"vsm/config"
)

func TestTokenizer_KeepsOrderAndDuplicates(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: true, MinTokenLen: 1})

	got := tok.Tokenize("Cat dog, CAT!")
	want := []string{"cat", "dog", "cat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizer_CaseSensitive(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: false, MinTokenLen: 1})

	got := tok.Tokenize("Cat cat")
	want := []string{"Cat", "cat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: true, Stopwords: true, MinTokenLen: 1})

	tokens := tok.Tokenize("The quick brown fox")
	for _, token := range tokens {
		if token == "the" {
			t.Errorf("stopword 'the' should be removed, got %v", tokens)
		}
	}
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestTokenizer_StopwordsDisabled(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: true, MinTokenLen: 1})

	tokens := tok.Tokenize("the fox")
	if len(tokens) != 2 {
		t.Errorf("expected stopwords to be kept, got %v", tokens)
	}
}

func TestTokenizer_MinTokenLen(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: true, MinTokenLen: 2})

	tokens := tok.Tokenize("a I go to é été")
	want := []string{"go", "to", "été"}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("Tokenize = %v, want %v", tokens, want)
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(config.AnalyzerConfig{Lowercase: true})

	tokens := tok.Tokenize("")
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"func(x, y)", 3},
		{"CamelCase", 1},
		{"123numbers456", 1},
		{"  ", 0},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
