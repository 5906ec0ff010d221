package markov

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateStream(t *testing.T) {
	ctx, m := setupTestModelWithTraining(t, 2)

	t.Run("Successful stream", func(t *testing.T) {
		stream, err := m.GenerateStream(ctx, WithTemperature(0))
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}

		var tokens []string
		var sawEOC bool
		for token := range stream {
			if token.EOC {
				sawEOC = true
				continue
			}
			if sawEOC {
				t.Errorf("received token %q after EOC", token.Text)
			}
			tokens = append(tokens, token.Text)
		}

		got := strings.Join(tokens, " ")
		if got != "one fish two fish" && got != "red fish blue fish" {
			t.Errorf("expected stream to generate a valid sequence, but got %q", got)
		}
		if !sawEOC {
			t.Error("expected the stream to end with an EOC token")
		}
	})

	t.Run("Max length", func(t *testing.T) {
		stream, err := m.GenerateStream(ctx, WithMaxLength(2))
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}
		count := 0
		for token := range stream {
			if !token.EOC {
				count++
			}
		}
		if count != 2 {
			t.Errorf("expected exactly 2 tokens, got %d", count)
		}
	})

	t.Run("Invalid options", func(t *testing.T) {
		if _, err := m.GenerateStream(ctx, WithEarlyTermination(false)); !errors.Is(err, ErrInvalidOptions) {
			t.Errorf("expected ErrInvalidOptions, got %v", err)
		}
	})

	t.Run("Stream cancellation", func(t *testing.T) {
		ctxCancel, cancel := context.WithCancel(ctx)
		defer cancel()

		streamCancel, err := m.GenerateStream(ctxCancel, WithMaxLength(100), WithEarlyTermination(false))
		if err != nil {
			t.Fatalf("GenerateStream failed: %v", err)
		}

		// Read one token, then cancel
		<-streamCancel
		cancel()

		// The channel should now close quickly
		timeout := time.After(time.Second)
		for {
			select {
			case _, ok := <-streamCancel:
				if !ok {
					return // Success, channel is closed.
				}
			case <-timeout:
				t.Fatal("timed out waiting for stream channel to close after cancellation")
			}
		}
	})
}

func BenchmarkGenerateStream(b *testing.B) {
	corpus := createBenchmarkCorpus()
	ctx := context.Background()
	m := setupTestModel(b, 2)
	if _, err := m.Train(ctx, strings.NewReader(corpus)); err != nil {
		b.Fatalf("Train() setup for benchmark failed: %v", err)
	}

	genOpts := map[string][]GenerateOption{
		"Simple":   {WithMaxLength(50), WithEarlyTermination(false)},
		"WithTemp": {WithMaxLength(50), WithTemperature(0.7), WithEarlyTermination(false)},
		"WithTopK": {WithMaxLength(50), WithTopK(10), WithEarlyTermination(false)},
	}

	for name, opts := range genOpts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				stream, err := m.GenerateStream(ctx, opts...)
				if err != nil {
					b.Fatalf("GenerateStream() failed: %v", err)
				}
				// We must drain the channel to measure the full lifecycle
				var bytes int64
				for t := range stream {
					bytes = bytes + int64(len(t.Text))
				}
				b.SetBytes(bytes)
			}
		})
	}
}
