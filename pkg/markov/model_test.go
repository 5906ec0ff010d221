package markov

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewModel(t *testing.T) {
	if _, err := NewModel(0, nil); !errors.Is(err, ErrInvalidOrder) {
		t.Errorf("NewModel(0) error = %v, want ErrInvalidOrder", err)
	}

	m, err := NewModel(2, nil)
	if err != nil {
		t.Fatalf("NewModel(2) failed: %v", err)
	}
	if m.Order() != 2 {
		t.Errorf("Order() = %d, want 2", m.Order())
	}
	if _, ok := m.Tokenizer().(*WhitespaceTokenizer); !ok {
		t.Errorf("nil tokenizer should default to *WhitespaceTokenizer, got %T", m.Tokenizer())
	}
}

func TestFeedCountsTransitions(t *testing.T) {
	m := setupTestModel(t, 1)
	m.Feed([]string{"a", "b", "a", "b"})
	m.Feed([]string{"b", "a"})

	want := map[string]map[string]int{
		SOCTokenText: {"a": 1, "b": 1},
		"a":          {"b": 2, EOCTokenText: 1},
		"b":          {"a": 2, EOCTokenText: 1},
	}
	if diff := cmp.Diff(want, m.Table()); diff != "" {
		t.Errorf("Table() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedHigherOrder(t *testing.T) {
	m := setupTestModel(t, 2)
	m.Feed([]string{"a", "b", "c"})

	want := map[string]map[string]int{
		SOCTokenText + " " + SOCTokenText: {"a": 1},
		SOCTokenText + " a":               {"b": 1},
		"a b":                             {"c": 1},
		"b c":                             {EOCTokenText: 1},
	}
	if diff := cmp.Diff(want, m.Table()); diff != "" {
		t.Errorf("Table() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedEmptySequence(t *testing.T) {
	m := setupTestModel(t, 1)
	m.Feed([]string{"x", "y"})
	before := m.Table()

	m.FeedLine("")

	after := m.Table()
	if got := after[SOCTokenText][EOCTokenText]; got != 1 {
		t.Errorf("expected START->END count of 1 after empty line, got %d", got)
	}
	delete(after[SOCTokenText], EOCTokenText)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("empty line altered other counts (-before +after):\n%s", diff)
	}
}

func TestFeedOrderDoesNotMatter(t *testing.T) {
	lines := []string{"the cat sat", "the dog sat down", "", "a cat"}

	forward := setupTestModel(t, 2)
	for _, line := range lines {
		forward.FeedLine(line)
	}
	backward := setupTestModel(t, 2)
	for i := len(lines) - 1; i >= 0; i-- {
		backward.FeedLine(lines[i])
	}

	if diff := cmp.Diff(forward.Table(), backward.Table()); diff != "" {
		t.Errorf("feeding order changed the table (-forward +backward):\n%s", diff)
	}
}

func TestFeedMatchesPairCounts(t *testing.T) {
	lines := [][]string{
		{"x", "y", "x", "y", "z"},
		{"y", "x"},
		{},
		{"z"},
		{"x", "x", "x"},
	}
	m := setupTestModel(t, 1)
	want := make(map[string]map[string]int)
	for _, line := range lines {
		m.Feed(line)
		seq := append(append([]string{SOCTokenText}, line...), EOCTokenText)
		for i := 0; i+1 < len(seq); i++ {
			if want[seq[i]] == nil {
				want[seq[i]] = make(map[string]int)
			}
			want[seq[i]][seq[i+1]]++
		}
	}
	if diff := cmp.Diff(want, m.Table()); diff != "" {
		t.Errorf("Table() mismatch (-want +got):\n%s", diff)
	}
}

func TestSuccessors(t *testing.T) {
	m := setupTestModel(t, 2)
	m.FeedLine("one fish two fish")
	m.FeedLine("one fish red fish")

	got := m.Successors("one", "fish")
	want := []Successor{{Text: "two", Freq: 1}, {Text: "red", Freq: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Successors(one fish) mismatch (-want +got):\n%s", diff)
	}

	starters := m.Successors()
	if len(starters) != 1 || starters[0].Text != "one" || starters[0].Freq != 2 {
		t.Errorf("Successors() = %+v, want one entry for 'one' with freq 2", starters)
	}

	ends := m.Successors("two", "fish")
	if len(ends) != 1 || !ends[0].EOC {
		t.Errorf("Successors(two fish) = %+v, want a single EOC", ends)
	}

	if got := m.Successors("green", "fish"); got != nil {
		t.Errorf("expected nil for unknown context, got %+v", got)
	}
}

func TestReservedTextIsOrdinaryToken(t *testing.T) {
	m := setupTestModel(t, 1)
	m.FeedLine(SOCTokenText + " " + EOCTokenText)

	id, err := m.VocabStr(EOCTokenText)
	if err != nil {
		t.Fatalf("VocabStr(%q) failed: %v", EOCTokenText, err)
	}
	if id == EOCTokenID || id == SOCTokenID {
		t.Errorf("user token %q got reserved id %d", EOCTokenText, id)
	}
	succ := m.Successors(SOCTokenText)
	if len(succ) != 1 || succ[0].EOC || succ[0].Text != EOCTokenText {
		t.Errorf("Successors(%q) = %+v, want the word %q", SOCTokenText, succ, EOCTokenText)
	}
}

func TestMerge(t *testing.T) {
	a := setupTestModel(t, 1)
	a.FeedLine("hello there")
	b := setupTestModel(t, 1)
	b.FeedLine("hello world")
	b.FeedLine("")

	combined := setupTestModel(t, 1)
	for _, line := range []string{"hello there", "hello world", ""} {
		combined.FeedLine(line)
	}

	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if diff := cmp.Diff(combined.Table(), a.Table()); diff != "" {
		t.Errorf("merged table mismatch (-want +got):\n%s", diff)
	}

	other := setupTestModel(t, 2)
	other.FeedLine("x y")
	if err := a.Merge(other); !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("expected ErrOrderMismatch, got %v", err)
	}
	if err := a.Merge(a); err == nil {
		t.Error("expected an error when merging a model into itself")
	}
}

func TestLineTokenizerModel(t *testing.T) {
	m, err := NewModel(1, NewLineTokenizer())
	if err != nil {
		t.Fatal(err)
	}
	m.FeedLine("hello there friend")
	m.FeedLine("hello there friend")
	m.FeedLine("bye")

	want := map[string]map[string]int{
		SOCTokenText:         {"hello there friend": 2, "bye": 1},
		"hello there friend": {EOCTokenText: 2},
		"bye":                {EOCTokenText: 1},
	}
	if diff := cmp.Diff(want, m.Table()); diff != "" {
		t.Errorf("Table() mismatch (-want +got):\n%s", diff)
	}
}
