package markov

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Train reads r line by line, tokenizes every line and feeds it into the
// model. Every line, including an empty one, counts as one sequence. It
// returns the number of lines read.
func (m *Model) Train(ctx context.Context, data io.Reader) (int, error) {
	reader := newLineReader(data)

	lines := 0
	for reader.Scan() {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		m.FeedLine(reader.Text())
		lines++
	}
	if err := reader.Err(); err != nil {
		return lines, fmt.Errorf("failed reading training data: %w", err)
	}

	m.logger.InfoContext(ctx, "Training completed",
		slog.Int("order", m.order),
		slog.Int("lines_processed", lines),
	)
	return lines, nil
}

// TrainParallel is Train spread over several goroutines. Lines are handed
// out to workers, each of which fills a private model; the private tables
// are merged into m once reading is done. The resulting counts are
// identical to those of Train.
func (m *Model) TrainParallel(ctx context.Context, data io.Reader, workers int) (int, error) {
	if workers <= 1 {
		return m.Train(ctx, data)
	}

	// lineBatchSize determines how many lines are handed to a worker at once.
	const lineBatchSize = 256

	partials := make([]*Model, workers)
	for i := range partials {
		p, err := NewModel(m.order, m.tokenizer)
		if err != nil {
			return 0, err
		}
		partials[i] = p
	}

	eg, egCtx := errgroup.WithContext(ctx)
	batches := make(chan []string, workers)

	for _, p := range partials {
		eg.Go(func() error {
			for batch := range batches {
				for _, line := range batch {
					p.FeedLine(line)
				}
			}
			return nil
		})
	}

	lines := 0
	eg.Go(func() error {
		defer close(batches)
		reader := newLineReader(data)
		batch := make([]string, 0, lineBatchSize)
		for reader.Scan() {
			batch = append(batch, reader.Text())
			lines++
			if len(batch) == lineBatchSize {
				select {
				case batches <- batch:
				case <-egCtx.Done():
					return egCtx.Err()
				}
				batch = make([]string, 0, lineBatchSize)
			}
		}
		if err := reader.Err(); err != nil {
			return fmt.Errorf("failed reading training data: %w", err)
		}
		if len(batch) > 0 {
			select {
			case batches <- batch:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return lines, err
	}

	for _, p := range partials {
		if err := m.Merge(p); err != nil {
			return lines, fmt.Errorf("failed to merge partial model: %w", err)
		}
	}

	m.logger.InfoContext(ctx, "Parallel training completed",
		slog.Int("order", m.order),
		slog.Int("workers", workers),
		slog.Int("lines_processed", lines),
	)
	return lines, nil
}

// lineReader splits input into lines like bufio.Scanner, but without a
// limit on line length: chat exports occasionally hold pasted logs of
// several megabytes on one line. Lines end in LF or CRLF; the terminator is
// not part of the text.
type lineReader struct {
	r    *bufio.Reader
	line string
	err  error
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Scan advances to the next line and reports whether there was one.
func (lr *lineReader) Scan() bool {
	if lr.err != nil {
		return false
	}
	line, err := lr.r.ReadString('\n')
	if err != nil {
		lr.err = err
		// A final line without a trailing newline still counts.
		if err != io.EOF || line == "" {
			return false
		}
	}
	line = strings.TrimSuffix(line, "\n")
	lr.line = strings.TrimSuffix(line, "\r")
	return true
}

// Text returns the line read by the last successful Scan.
func (lr *lineReader) Text() string {
	return lr.line
}

// Err returns the first read error other than io.EOF.
func (lr *lineReader) Err() error {
	if errors.Is(lr.err, io.EOF) {
		return nil
	}
	return lr.err
}
