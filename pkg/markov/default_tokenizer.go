package markov

import (
	"strings"
)

// WhitespaceTokenizer is the default implementation of the Tokenizer interface.
// It splits a line on runs of Unicode whitespace and keeps every word exactly
// as written: no case folding and no punctuation handling.
type WhitespaceTokenizer struct {
	separator string
}

// Option Is a function that configures a WhitespaceTokenizer.
type Option func(*WhitespaceTokenizer)

// WithSeparator Sets the string used for joining tokens during generation.
// Default: " "
func WithSeparator(sep string) Option {
	return func(t *WhitespaceTokenizer) {
		t.separator = sep
	}
}

// NewWhitespaceTokenizer creates a new tokenizer with default settings, which can be
// overridden by providing one or more Option functions.
func NewWhitespaceTokenizer(opts ...Option) *WhitespaceTokenizer {
	t := &WhitespaceTokenizer{
		separator: " ",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Split returns the whitespace separated words of line.
func (t *WhitespaceTokenizer) Split(line string) []string {
	return strings.Fields(line)
}

// Separator Returns the configured separator string.
func (t *WhitespaceTokenizer) Separator(_, _ string) string {
	return t.separator
}

// LineTokenizer treats a whole line as one atomic token, so the chain only
// learns which complete messages were seen. Generation then reproduces
// whole input lines, weighted by how often they occurred.
type LineTokenizer struct{}

// NewLineTokenizer returns a LineTokenizer.
func NewLineTokenizer() *LineTokenizer {
	return &LineTokenizer{}
}

// Split returns line as a single token, or nothing for an empty line.
func (t *LineTokenizer) Split(line string) []string {
	if line == "" {
		return nil
	}
	return []string{line}
}

// Separator Returns a single space; a LineTokenizer chain emits one token per generation.
func (t *LineTokenizer) Separator(_, _ string) string {
	return " "
}
