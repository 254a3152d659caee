package syntax

import (
	"fmt"
	"testing"
)

// editEqualsReparse applies the edit both ways and requires identical
// shapes after span erasure, plus intact span ordering and lengths.
func editEqualsReparse(t *testing.T, text string, start, end int, repl string) {
	t.Helper()

	incr := NewSource(text)
	incr.Edit(start, end, repl)

	want := text[:start] + repl + text[end:]
	if incr.Text() != want {
		t.Fatalf("edited text = %q, want %q", incr.Text(), want)
	}
	if incr.Root().Len() != len(want) {
		t.Fatalf("tree length %d != text length %d", incr.Root().Len(), len(want))
	}

	checkOrdered(t, incr.Root(), incr.Root().Span().Number(), MaxNumber)

	scratch := Parse(want)
	a := scratch.Clone()
	b := incr.Root().Clone()
	a.Synthesize(Detached)
	b.Synthesize(Detached)
	if diffs := Compare(a, b); len(diffs) > 0 {
		t.Fatalf("incremental differs from scratch for edit %d..%d %q on %q:\n%v\nscratch:\n%s\nincremental:\n%s",
			start, end, repl, text, diffs, Dump(a), Dump(b))
	}
}

func TestEditEquivalence(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		start, end int
		repl       string
	}{
		{name: "insert fragment mid-word", text: "Hello World", start: 3, end: 3, repl: "#rect()"},
		{name: "insert at start", text: "Hello World", start: 0, end: 0, repl: "* hello *"},
		{name: "insert at end", text: "Hello World", start: 11, end: 11, repl: " trees"},
		{name: "replace range", text: "Hello World", start: 2, end: 8, repl: "10.0"},
		{name: "delete range", text: "one two three", start: 3, end: 8, repl: ""},
		{name: "replace newline merges lines", text: "a\nb\nc", start: 1, end: 2, repl: " "},
		{name: "insert newline splits line", text: "abcdef", start: 3, end: 3, repl: "\n"},
		{name: "edit inside multiline", text: "first\nsecond\nthird", start: 7, end: 11, repl: "{x}"},
		{name: "break a call open", text: "#rect(width: 1pt)", start: 6, end: 7, repl: ""},
		{name: "insert comment marker", text: "a b c", start: 2, end: 2, repl: "//"},
		{name: "replace everything", text: "a\nb", start: 0, end: 3, repl: "$ x $"},
		{name: "empty source insert", text: "", start: 0, end: 0, repl: "word"},
		{name: "insert after trailing newline", text: "line\n", start: 5, end: 5, repl: "more"},
		{name: "multiline replacement", text: "a b", start: 1, end: 2, repl: "\n\n"},
		{name: "unbalance brackets", text: "[a] b", start: 2, end: 3, repl: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editEqualsReparse(t, tt.text, tt.start, tt.end, tt.repl)
		})
	}
}

func TestEditSequence(t *testing.T) {
	s := NewSource("Hello World")
	edits := []struct {
		start, end int
		repl       string
	}{
		{5, 5, ","},
		{0, 0, "// "},
		{len("// Hello, World"), len("// Hello, World"), "\n#rect()"},
		{4, 9, ""},
	}

	for i, e := range edits {
		s.Edit(e.start, e.end, e.repl)
		if s.Root().Len() != len(s.Text()) {
			t.Fatalf("after edit %d: tree length %d != text length %d", i, s.Root().Len(), len(s.Text()))
		}
		checkOrdered(t, s.Root(), s.Root().Span().Number(), MaxNumber)

		scratch := Parse(s.Text())
		a := scratch.Clone()
		b := s.Root().Clone()
		a.Synthesize(Detached)
		b.Synthesize(Detached)
		if diffs := Compare(a, b); len(diffs) > 0 {
			t.Fatalf("after edit %d trees diverge: %v", i, diffs)
		}
	}
}

func TestEditReusesNeighborSpans(t *testing.T) {
	s := NewSource("aaa\nbbb\nccc")
	root := s.Root()
	firstSpan := root.Children()[0].Span()
	lastSpan := root.Children()[len(root.Children())-1].Span()

	// Editing the middle line must not renumber the untouched lines.
	s.Edit(4, 7, "#rect()")

	got := s.Root().Children()
	if got[0].Span() != firstSpan {
		t.Errorf("first child span changed: %d -> %d", firstSpan.Number(), got[0].Span().Number())
	}
	if got[len(got)-1].Span() != lastSpan {
		t.Errorf("last child span changed: %d -> %d", lastSpan.Number(), got[len(got)-1].Span().Number())
	}
}

func TestEditDerivesRootLength(t *testing.T) {
	s := NewSource("alpha\nbeta\ngamma")
	children := s.Root().children
	// Corrupt a child beyond the edit window. The root length after the
	// edit must come from the spliced children, exposing the mismatch
	// instead of masking it with the buffer length.
	children[len(children)-1].length++

	s.Edit(0, 0, "x")

	if got, want := s.Root().Len(), len(s.Text())+1; got != want {
		t.Fatalf("tree length = %d, want %d (text length %d)", got, want, len(s.Text()))
	}
}

func TestRangeOf(t *testing.T) {
	s := NewSource("ab cd")
	root := s.Root()
	// Children: Text "ab", Space, Text "cd".
	second := root.Children()[2]
	start, end, ok := s.RangeOf(second.Span())
	if !ok || start != 3 || end != 5 {
		t.Errorf("RangeOf = %d..%d, %v, want 3..5", start, end, ok)
	}

	if _, _, ok := s.RangeOf(Span(1 << 60)); ok {
		t.Error("RangeOf reported a range for an unknown span")
	}
}

func TestCompareReportsMismatch(t *testing.T) {
	a := Parse("a b")
	b := Parse("a c")
	a.Synthesize(Detached)
	b.Synthesize(Detached)

	diffs := Compare(a, b)
	if len(diffs) == 0 {
		t.Fatal("expected mismatches")
	}
	found := false
	for _, d := range diffs {
		if d.What == fmt.Sprintf("text %q != %q", "b", "c") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing text mismatch, got %v", diffs)
	}
}
