package markov

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWhitespaceTokenizer(t *testing.T) {
	tok := NewWhitespaceTokenizer()

	testCases := []struct {
		name string
		line string
		want []string
	}{
		{name: "Simple words", line: "a b c", want: []string{"a", "b", "c"}},
		{name: "Runs of whitespace", line: "  hello \t world again  ", want: []string{"hello", "world", "again"}},
		{name: "Punctuation and case kept", line: "Hi, THERE! :)", want: []string{"Hi,", "THERE!", ":)"}},
		{name: "Empty line", line: "", want: []string{}},
		{name: "Blank line", line: " \t ", want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tok.Split(tc.line)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tc.line, diff)
			}
		})
	}

	if sep := tok.Separator("a", "b"); sep != " " {
		t.Errorf("default separator = %q, want a single space", sep)
	}
	if sep := NewWhitespaceTokenizer(WithSeparator("_")).Separator("a", "b"); sep != "_" {
		t.Errorf("WithSeparator: got %q, want %q", sep, "_")
	}
}

func TestLineTokenizer(t *testing.T) {
	tok := NewLineTokenizer()
	if diff := cmp.Diff([]string{"keep  this line"}, tok.Split("keep  this line")); diff != "" {
		t.Errorf("Split mismatch (-want +got):\n%s", diff)
	}
	if got := tok.Split(""); len(got) != 0 {
		t.Errorf("expected no tokens for an empty line, got %q", got)
	}
}

func TestVocabLookup(t *testing.T) {
	_, m := setupTestModelWithTraining(t, 1)

	id, err := m.VocabStr("fish")
	if err != nil {
		t.Fatalf("VocabStr('fish') failed: %v", err)
	}
	if id == SOCTokenID || id == EOCTokenID {
		t.Errorf("expected a non-reserved ID for 'fish', got %d", id)
	}

	text, err := m.VocabInt(id)
	if err != nil {
		t.Fatalf("VocabInt(%d) failed: %v", id, err)
	}
	if text != "fish" {
		t.Errorf("expected 'fish', got '%s'", text)
	}

	if _, err = m.VocabStr("green"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("expected ErrUnknownToken for 'green', got %v", err)
	}
	if _, err = m.VocabInt(9999); err == nil {
		t.Error("expected an error for an out of range id")
	}
}
