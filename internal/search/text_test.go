package search

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"simple words", "hello world", []string{"hello", "world"}},
		{"with punctuation", "hello, world! test.", []string{"hello", "world", "test"}},
		{"with numbers", "test123 456hello", []string{"test123", "456hello"}},
		{"mixed case", "Hello WORLD Test", []string{"hello", "world", "test"}},
		{"single characters filtered", "a b test c d word", []string{"test", "word"}},
		{"empty string", "", nil},
		{"special characters", "test@email.com hello-world", []string{"test", "email", "com", "hello", "world"}},
		{"non-latin", "Землетрясение в Японии", []string{"землетрясение", "японии"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tokenize(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{"text shorter than limit", "short", 10, "short"},
		{"text exactly at limit", "exactlyten", 10, "exactlyten"},
		{"text longer than limit", "this is a very long text", 10, "this is a…"},
		{"empty text", "", 10, ""},
		{"multibyte", "地震地震地震", 3, "地震…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.text, tt.maxLen))
		})
	}
}

func TestFindBestSnippet(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		terms     []string
		maxLength int
		contains  string
	}{
		{"find term in text", "This is a long text with the word hello in the middle and more text after", []string{"hello"}, 50, "hello"},
		{"empty text", "", []string{"hello"}, 50, ""},
		{"text shorter than max", "short text", []string{"short"}, 100, "short text"},
		{"multiple terms", "The quick brown fox jumps over the lazy dog", []string{"quick", "dog"}, 50, "quick"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snippet := findBestSnippet(tt.text, tt.terms, tt.maxLength)
			if tt.contains != "" {
				assert.Contains(t, snippet, tt.contains)
			} else {
				assert.Equal(t, "", snippet)
			}
			assert.LessOrEqual(t, utf8.RuneCountInString(snippet), tt.maxLength)
		})
	}
}
