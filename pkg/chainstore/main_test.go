package chainstore

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Mockingbird/pkg/markov"
)

// setupTestStore creates a new SQLite database in a temp dir and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := openTestDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// trainedModel builds an in-memory model from newline separated text.
func trainedModel(t *testing.T, order int, text string) *markov.Model {
	t.Helper()
	m, err := markov.NewModel(order, markov.NewWhitespaceTokenizer())
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	if _, err := m.Train(context.Background(), strings.NewReader(text)); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return m
}
