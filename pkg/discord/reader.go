package discord

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Message is one row of a messages.csv file.
type Message struct {
	ID          uint64
	Timestamp   string
	Contents    string
	Attachments string
}

// Reader loads messages.csv files through an in-process DuckDB database,
// which copes with the quoted multi-line fields Discord exports contain.
type Reader struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	readerInstance *Reader
	readerOnce     sync.Once
	readerErr      error
)

// GetReader returns the process-wide Reader, opening DuckDB on first use.
func GetReader() (*Reader, error) {
	readerOnce.Do(func() {
		readerInstance, readerErr = NewReader()
	})
	return readerInstance, readerErr
}

// NewReader opens a private in-memory DuckDB database. Callers that do not
// need isolation should prefer GetReader.
func NewReader() (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Reader{
		db:     db,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Reader. By default, all logs are discarded.
func (r *Reader) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Close closes the underlying database.
func (r *Reader) Close() error {
	return r.db.Close()
}

// ReadMessages returns every row of the CSV file at path, in file order.
// Every column is read as text; an ID that is not an unsigned integer is an
// error.
func (r *Reader) ReadMessages(ctx context.Context, path string) ([]Message, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE("ID", '') AS id,
			COALESCE("Timestamp", '') AS ts,
			COALESCE("Contents", '') AS contents,
			COALESCE("Attachments", '') AS attachments
		FROM read_csv('%s',
			header = true,
			all_varchar = true,
			quote = '"',
			escape = '"'
		)
	`, quoteLiteral(path))

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var id string
		var m Message
		if err := rows.Scan(&id, &m.Timestamp, &m.Contents, &m.Attachments); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		m.ID, err = strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't extract messages from %s: bad ID %q: %w", path, id, err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	r.logger.DebugContext(ctx, "Messages read", slog.String("path", path), slog.Int("count", len(messages)))
	return messages, nil
}

// quoteLiteral escapes s for use inside a single-quoted SQL string.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
