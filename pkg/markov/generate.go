package markov

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	maxLength   int
	canEndEarly bool
	temperature float64
	topK        int
	rng         randSource
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in generation functions like Generate and GenerateStream.
type GenerateOption func(*generateOptions)

// WithMaxLength sets the maximum number of tokens to generate. The default of 0
// means no limit: generation runs until an End-Of-Chain (EOC) token is drawn.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithEarlyTermination specifies whether drawing an End-Of-Chain (EOC) token
// ends generation. When disabled, an EOC restarts the chain from the start
// context and generation continues until maxLength, which must then be set.
func WithEarlyTermination(canEnd bool) GenerateOption {
	return func(o *generateOptions) { o.canEndEarly = canEnd }
}

// WithTemperature adjusts the randomness of the token selection.
// A value of 1.0 is standard weighted random selection.
// Values > 1.0 increase randomness (making less frequent tokens more likely).
// Values < 1.0 decrease randomness (making more frequent tokens even more likely).
// A value of 0 or less results in deterministic selection (always choosing the most frequent token).
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts the token selection pool to the top `k` most frequent tokens
// at each step. A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithRand makes generation draw from r instead of the shared top-level
// source. A *rand.Rand is not safe for concurrent use, so r must not be
// shared between concurrent generations.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) {
		if r != nil {
			o.rng = r
		}
	}
}

func newGenerateOptions(opts []GenerateOption) (*generateOptions, error) {
	options := &generateOptions{
		maxLength:   0,
		canEndEarly: true,
		temperature: 1.0,
		topK:        0,
		rng:         globalRand{},
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxLength < 0 {
		return nil, fmt.Errorf("%w: negative max length %d", ErrInvalidOptions, options.maxLength)
	}
	if !options.canEndEarly && options.maxLength == 0 {
		return nil, fmt.Errorf("%w: early termination disabled without a max length", ErrInvalidOptions)
	}
	return options, nil
}

// Generate samples a new sequence from the model. Starting at the start
// context it repeatedly draws the next token weighted by how often it was
// seen after the current context, until an End-Of-Chain token is drawn.
// The EOC marker is never part of the result. The table is not modified,
// so Generate may be called any number of times, concurrently.
// It returns ErrEmptyModel if nothing was ever fed.
func (m *Model) Generate(ctx context.Context, opts ...GenerateOption) ([]string, error) {
	options, err := newGenerateOptions(opts)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.links) == 0 {
		return nil, ErrEmptyModel
	}
	return m.generateLocked(ctx, make([]int, m.order), nil, options)
}

// GenerateString is Generate with the tokens joined by the tokenizer's separator.
func (m *Model) GenerateString(ctx context.Context, opts ...GenerateOption) (string, error) {
	tokens, err := m.Generate(ctx, opts...)
	if err != nil {
		return "", err
	}
	return joinTokens(m.tokenizer, tokens), nil
}

// GenerateFrom continues a chain from the given seed tokens. The seed is
// the beginning of the result and its last tokens form the initial context.
// An error wrapping ErrUnknownToken is returned if a seed token is not in
// the model's vocabulary.
func (m *Model) GenerateFrom(ctx context.Context, seed []string, opts ...GenerateOption) ([]string, error) {
	options, err := newGenerateOptions(opts)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.links) == 0 {
		return nil, ErrEmptyModel
	}

	prefix := make([]int, m.order)
	out := make([]string, 0, len(seed))
	for _, text := range seed {
		id, ok := m.ids[text]
		if !ok {
			return nil, fmt.Errorf("seed token %q: %w", text, ErrUnknownToken)
		}
		if options.maxLength > 0 && len(out) >= options.maxLength {
			break
		}
		out = append(out, text)
		prefix = append(prefix[1:], id)
	}
	return m.generateLocked(ctx, prefix, out, options)
}

// GenerateFromString is a convenience wrapper around GenerateFrom that tokenizes
// the seed text and joins the result. If the string is empty, it behaves
// identically to GenerateString.
func (m *Model) GenerateFromString(ctx context.Context, startText string, opts ...GenerateOption) (string, error) {
	if startText == "" {
		return m.GenerateString(ctx, opts...)
	}
	tokens, err := m.GenerateFrom(ctx, m.tokenizer.Split(startText), opts...)
	if err != nil {
		return "", err
	}
	return joinTokens(m.tokenizer, tokens), nil
}

// generateLocked contains the main loop for generating a markov chain. The
// caller holds at least a read lock.
func (m *Model) generateLocked(ctx context.Context, prefix []int, out []string, options *generateOptions) ([]string, error) {
	var keyBuf []byte
	steps := len(out)

	for options.maxLength == 0 || steps < options.maxLength {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		keyBuf = appendPrefixKey(keyBuf[:0], prefix)
		choices, ok := m.links[string(keyBuf)]
		if !ok { // Dead end in chain, only reachable from a seed
			m.logger.DebugContext(ctx, "Generation terminated due to dead-end",
				slog.String("last_prefix", string(keyBuf)),
				slog.Int("generated_length", len(out)),
			)
			return out, nil
		}

		nextToken := chooseNextToken(choices, options)
		steps++

		if nextToken == EOCTokenID {
			if options.canEndEarly {
				m.logger.DebugContext(ctx, "Generation terminated by EOC token",
					slog.Int("generated_length", len(out)),
				)
				return out, nil
			}
			clear(prefix)
			continue
		}

		out = append(out, m.vocab[nextToken])
		prefix = append(prefix[1:], nextToken)
	}

	m.logger.DebugContext(ctx, "Generation terminated by reaching maxLength",
		slog.Int("max_length", options.maxLength),
		slog.Int("generated_length", len(out)),
	)
	return out, nil
}
