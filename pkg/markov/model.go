package markov

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

const (
	// SOCTokenID is the reserved ID for the Start-Of-Chain token.
	SOCTokenID = 0
	// EOCTokenID is the reserved ID for the End-Of-Chain token.
	EOCTokenID = 1
	// SOCTokenText is the reserved text for the Start-Of-Chain token.
	SOCTokenText = "<SOC>"
	// EOCTokenText is the reserved text for the End-Of-Chain token.
	EOCTokenText = "<EOC>"
)

var (
	// ErrEmptyModel is returned when generating from a model that was never fed.
	ErrEmptyModel = errors.New("markov: model has no transitions")
	// ErrInvalidOrder is returned when a model is created with an order below 1.
	ErrInvalidOrder = errors.New("markov: order must be at least 1")
	// ErrOrderMismatch is returned when merging tables built with different orders.
	ErrOrderMismatch = errors.New("markov: model orders do not match")
	// ErrUnknownToken is returned when a seed token is not in the vocabulary.
	ErrUnknownToken = errors.New("markov: token not found in model vocabulary")
	// ErrInvalidOptions is returned for generation options that could never terminate.
	ErrInvalidOptions = errors.New("markov: invalid generation options")
)

// Model is an in-memory Markov chain. It owns a transition table mapping
// each context (the last Order tokens) to the multiset of tokens observed
// after it. The table only ever grows: feeding adds counts, nothing removes
// them. A Model is safe for concurrent use; generation only takes a read lock.
type Model struct {
	mu        sync.RWMutex
	order     int
	tokenizer Tokenizer
	vocab     []string       // token_id -> token_text
	ids       map[string]int // token_text -> token_id, user tokens only
	links     map[string]*successors
	logger    *slog.Logger
}

// NewModel creates an empty model of the given order. A nil tokenizer
// falls back to NewWhitespaceTokenizer.
func NewModel(order int, tokenizer Tokenizer) (*Model, error) {
	if order < 1 {
		return nil, ErrInvalidOrder
	}
	if tokenizer == nil {
		tokenizer = NewWhitespaceTokenizer()
	}
	return &Model{
		order:     order,
		tokenizer: tokenizer,
		vocab:     []string{SOCTokenText, EOCTokenText},
		ids:       make(map[string]int),
		links:     make(map[string]*successors),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Model. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Order returns the number of preceding tokens used as context.
func (m *Model) Order() int {
	return m.order
}

// Tokenizer returns the tokenizer used by FeedLine, Train and GenerateString.
func (m *Model) Tokenizer() Tokenizer {
	return m.tokenizer
}

// Feed records one sequence of tokens. For [t1 ... tn] it counts
// START->t1, t1->t2, ..., tn->END, and START->END for an empty sequence.
// With an order above 1 every context is the window of the last Order
// tokens, padded on the left with START.
func (m *Model) Feed(tokens []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedLocked(tokens)
}

// FeedLine splits a line with the model's tokenizer and feeds the result.
func (m *Model) FeedLine(line string) {
	m.Feed(m.tokenizer.Split(line))
}

func (m *Model) feedLocked(tokens []string) {
	fullSlice := make([]int, len(tokens)+m.order+1)
	for i, text := range tokens {
		fullSlice[m.order+i] = m.internLocked(text)
	}
	fullSlice[len(fullSlice)-1] = EOCTokenID

	var keyBuf []byte
	for i := 0; i < len(tokens)+1; i++ { // len+1 to include the final EOC token
		keyBuf = appendPrefixKey(keyBuf[:0], fullSlice[i:i+m.order])
		m.addLinkLocked(string(keyBuf), fullSlice[i+m.order], 1)
	}
}

// internLocked returns the ID for a token, adding it to the vocabulary if new.
func (m *Model) internLocked(text string) int {
	if id, ok := m.ids[text]; ok {
		return id
	}
	id := len(m.vocab)
	m.vocab = append(m.vocab, text)
	m.ids[text] = id
	return id
}

func (m *Model) addLinkLocked(prefixKey string, next, freq int) {
	s, ok := m.links[prefixKey]
	if !ok {
		s = newSuccessors()
		m.links[prefixKey] = s
	}
	s.add(next, freq)
}

// appendPrefixKey encodes a context as space separated token IDs.
func appendPrefixKey(buf []byte, prefix []int) []byte {
	for j, tokenID := range prefix {
		if j > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(tokenID), 10)
	}
	return buf
}

// parsePrefixKey is the inverse of appendPrefixKey.
func parsePrefixKey(key string) ([]int, error) {
	parts := strings.Split(key, " ")
	ids := make([]int, len(parts))
	for i, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Merge adds every count recorded in other to m. Both models must share
// the same order. other is only read.
func (m *Model) Merge(other *Model) error {
	if other == m {
		return errors.New("markov: cannot merge a model into itself")
	}
	return m.MergeExported(other.Snapshot(""))
}

// Successor is one entry of a context's multiset as seen from outside.
type Successor struct {
	Text string
	EOC  bool
	Freq int
}

// Successors lists the tokens observed after the given context, in the
// order they were first seen. A context shorter than the model order is
// padded on the left with START, so Successors() describes which tokens
// may begin a sequence. It returns nil for unknown contexts.
func (m *Model) Successors(context ...string) []Successor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(context) > m.order {
		context = context[len(context)-m.order:]
	}
	prefix := make([]int, m.order)
	offset := m.order - len(context)
	for i, text := range context {
		id, ok := m.ids[text]
		if !ok {
			return nil
		}
		prefix[offset+i] = id
	}

	s, ok := m.links[string(appendPrefixKey(nil, prefix))]
	if !ok {
		return nil
	}
	out := make([]Successor, 0, len(s.tokens))
	for _, ct := range s.tokens {
		out = append(out, Successor{Text: m.vocab[ct.Id], EOC: ct.Id == EOCTokenID, Freq: ct.Freq})
	}
	return out
}

// Table returns every recorded transition as context text -> next text ->
// count. Context tokens are joined with a single space and the boundary
// markers appear as SOCTokenText and EOCTokenText. It is meant for
// inspection and tests; the vocabulary IDs are not part of it. Keys are not
// always unambiguous: a token containing a space (LineTokenizer) can look
// like several tokens once joined, and a literal "<SOC>" or "<EOC>" word
// prints the same as the marker. Successors and Snapshot do not share
// these limits.
func (m *Model) Table() map[string]map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table := make(map[string]map[string]int, len(m.links))
	for key, s := range m.links {
		row := make(map[string]int, len(s.tokens))
		for _, ct := range s.tokens {
			row[m.vocab[ct.Id]] = ct.Freq
		}
		table[m.prefixText(key)] = row
	}
	return table
}

// prefixText renders a prefix key with token texts.
func (m *Model) prefixText(key string) string {
	ids, err := parsePrefixKey(key)
	if err != nil {
		return key
	}
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = m.vocab[id]
	}
	return strings.Join(words, " ")
}
