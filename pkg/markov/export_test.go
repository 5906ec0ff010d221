package markov

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportImport(t *testing.T) {
	_, m := setupTestModelWithTraining(t, 2)
	m.FeedLine("")

	var buf bytes.Buffer
	if err := m.Export(&buf, "fish"); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported := setupTestModel(t, 2)
	// Pre-existing vocabulary forces the importer to remap IDs.
	imported.FeedLine("blue whale")
	expected := setupTestModel(t, 2)
	for _, line := range []string{"blue whale", "one fish two fish", "red fish blue fish", ""} {
		expected.FeedLine(line)
	}

	name, err := imported.Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if name != "fish" {
		t.Errorf("Import name = %q, want %q", name, "fish")
	}
	if diff := cmp.Diff(expected.Table(), imported.Table()); diff != "" {
		t.Errorf("imported table mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsStable(t *testing.T) {
	_, m := setupTestModelWithTraining(t, 1)
	if diff := cmp.Diff(m.Snapshot("a"), m.Snapshot("a")); diff != "" {
		t.Errorf("two snapshots of the same model differ:\n%s", diff)
	}
	for text, id := range m.Snapshot("a").Vocabulary {
		if id == SOCTokenID || id == EOCTokenID {
			t.Errorf("snapshot vocabulary exposes reserved id %d for %q", id, text)
		}
	}
}

func TestImportErrors(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		wantErr error
		errText string
	}{
		{
			name:    "Malformed JSON",
			input:   `{"name": "x", "order": `,
			errText: "failed to decode json model",
		},
		{
			name:    "Order mismatch",
			input:   `{"name":"x","order":3,"vocabulary":{},"prefixes":{},"chains":[]}`,
			wantErr: ErrOrderMismatch,
		},
		{
			name:    "Reserved vocabulary id",
			input:   `{"name":"x","order":1,"vocabulary":{"a":1},"prefixes":{"0":0},"chains":[]}`,
			errText: "reserved id",
		},
		{
			name:    "Unknown prefix id",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2},"prefixes":{"0":0},"chains":[{"prefix_id":5,"next_token_id":2,"frequency":1}]}`,
			errText: "prefix id 5 not found",
		},
		{
			name:    "Unknown next token",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2},"prefixes":{"0":0},"chains":[{"prefix_id":0,"next_token_id":9,"frequency":1}]}`,
			errText: "token id 9 not found",
		},
		{
			name:    "Prefix with wrong length",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2},"prefixes":{"0 2":0},"chains":[]}`,
			errText: "does not have 1 tokens",
		},
		{
			name:    "Duplicate vocabulary id",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2,"b":2},"prefixes":{"0":0},"chains":[{"prefix_id":0,"next_token_id":2,"frequency":1}]}`,
			errText: "share id 2",
		},
		{
			name:    "Duplicate prefix id",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2},"prefixes":{"0":0,"2":0},"chains":[{"prefix_id":0,"next_token_id":2,"frequency":1}]}`,
			errText: "prefix id 0 is used by more than one prefix",
		},
		{
			name:    "Non-positive frequency",
			input:   `{"name":"x","order":1,"vocabulary":{"a":2},"prefixes":{"0":0},"chains":[{"prefix_id":0,"next_token_id":2,"frequency":0}]}`,
			errText: "non-positive frequency",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := setupTestModel(t, 1)
			m.FeedLine("keep me")
			before := m.Table()

			_, err := m.Import(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.errText != "" && !strings.Contains(err.Error(), tc.errText) {
				t.Errorf("expected error containing %q, got %v", tc.errText, err)
			}
			if diff := cmp.Diff(before, m.Table()); diff != "" {
				t.Errorf("failed import modified the model:\n%s", diff)
			}
		})
	}
}
