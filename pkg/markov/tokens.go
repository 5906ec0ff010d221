package markov

import (
	"fmt"
)

// Token represents a single generated unit of text, as delivered by
// GenerateStream. EOC marks the end of a chain and carries no text.
type Token struct {
	Text string
	EOC  bool
}

// Tokenizer is an interface that defines the contract for splitting input text
// into tokens. This allows the core model logic to be independent of the
// specific tokenization strategy.
type Tokenizer interface {
	// Split turns one line of input into an ordered sequence of tokens.
	// An empty line yields an empty sequence.
	Split(line string) []string
	// Separator returns the string that should be used to join tokens
	// when building a final generated string, using the previous and current
	// tokens.
	Separator(prev, current string) string
}

// VocabStr looks up a token string in the vocabulary and returns its corresponding ID.
// It returns an error wrapping ErrUnknownToken if the token is not found.
func (m *Model) VocabStr(token string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.ids[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return id, nil
}

// VocabInt looks up a token ID in the vocabulary and returns its corresponding text.
func (m *Model) VocabInt(id int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || id >= len(m.vocab) {
		return "", fmt.Errorf("markov: token id %d out of range", id)
	}
	return m.vocab[id], nil
}

// joinTokens builds the output string for a generated sequence.
func joinTokens(tokenizer Tokenizer, tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	size := 0
	for _, t := range tokens {
		size += len(t) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, tokens[0]...)
	for i := 1; i < len(tokens); i++ {
		buf = append(buf, tokenizer.Separator(tokens[i-1], tokens[i])...)
		buf = append(buf, tokens[i]...)
	}
	return string(buf)
}
