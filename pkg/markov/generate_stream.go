package markov

import (
	"context"
	"log/slog"
)

// GenerateStream creates a new Markov chain and returns a read-only channel of Tokens.
// This allows for processing the generated text token-by-token, which is useful for
// real-time applications or when generating very long sequences. The last value
// sent has EOC set when the chain ended on an End-Of-Chain token. The channel is
// closed once generation is complete or the context is cancelled.
func (m *Model) GenerateStream(ctx context.Context, opts ...GenerateOption) (<-chan Token, error) {
	options, err := newGenerateOptions(opts)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	empty := len(m.links) == 0
	m.mu.RUnlock()
	if empty {
		return nil, ErrEmptyModel
	}

	tokenChan := make(chan Token)

	go func() {
		defer close(tokenChan)

		prefix := make([]int, m.order)
		var keyBuf []byte

		for generatedCount := 0; options.maxLength == 0 || generatedCount < options.maxLength; generatedCount++ {
			select {
			case <-ctx.Done():
				m.logger.DebugContext(ctx, "Generation stream cancelled by context")
				return
			default:
				// continue
			}

			keyBuf = appendPrefixKey(keyBuf[:0], prefix)

			// The lock is held per step only, so a slow reader never blocks feeding.
			m.mu.RLock()
			nextToken := EOCTokenID
			if choices, ok := m.links[string(keyBuf)]; ok {
				nextToken = chooseNextToken(choices, options)
			}
			var text string
			if nextToken != EOCTokenID {
				text = m.vocab[nextToken]
			}
			m.mu.RUnlock()

			if nextToken == EOCTokenID {
				select {
				case <-ctx.Done():
					return
				case tokenChan <- Token{EOC: true}:
				}
				if options.canEndEarly {
					return
				}
				clear(prefix)
				continue
			}

			select {
			case <-ctx.Done():
				return
			case tokenChan <- Token{Text: text}:
			}
			// Update the state by shifting the prefix window and adding the new token.
			prefix = append(prefix[1:], nextToken)
		}

		m.logger.DebugContext(ctx, "Generation stream reached maxLength",
			slog.Int("max_length", options.maxLength),
		)
	}()

	return tokenChan, nil
}
