package fuzz

import (
	"strings"
	"testing"

	"vellum/internal/syntax"
)

func TestReparseCleanSources(t *testing.T) {
	texts := []string{
		"",
		"Hello World",
		"#set page(width: 10pt)\nHello",
		strings.Repeat("lorem ipsum dolor sit amet\n", 40), // forces several bulk trials
		"*strong* and $math$ and {code}\n#link(\"url\")[text]",
		"héllo wörld\nmultiዤbyte",
	}

	for _, text := range texts {
		rng := NewLinearShift()
		res := Reparse(text, rng)
		if !res.OK() {
			t.Errorf("Reparse(%.30q) failed:\n%s", text, res.Report())
		}
		if res.Trials == 0 {
			t.Errorf("Reparse(%.30q) ran no trials", text)
		}
	}
}

func TestReparseTrialCountScalesWithLength(t *testing.T) {
	// K bulk trials = ceil(len/400), plus one targeted trial, minus skips.
	text := strings.Repeat("word ", 200) // 1000 bytes -> 3 bulk trials
	res := Reparse(text, NewLinearShift())
	if got := res.Trials + res.Skipped; got != 4 {
		t.Errorf("trials+skipped = %d, want 4", got)
	}
}

func TestReparseDeterministic(t *testing.T) {
	text := strings.Repeat("alpha beta #rect() *g* \n", 30)
	a := Reparse(text, NewLinearShift())
	b := Reparse(text, NewLinearShift())

	if a.Trials != b.Trials || a.Skipped != b.Skipped || len(a.Failures) != len(b.Failures) {
		t.Errorf("identical seeds produced different runs: %+v vs %+v", a, b)
	}
}

func TestReparseConcreteInsertion(t *testing.T) {
	// Inserting "#rect()" anywhere inside "Hello World" must keep the
	// incremental and from-scratch trees identical after span erasure,
	// with total length len(text)+len(fragment).
	text := "Hello World"
	for off := 0; off <= len(text); off++ {
		incr := syntax.NewSource(text)
		incr.Edit(off, off, "#rect()")

		if got, want := incr.Root().Len(), len(text)+len("#rect()"); got != want {
			t.Fatalf("offset %d: tree length %d, want %d", off, got, want)
		}

		ref := syntax.Parse(incr.Text())
		a := ref.Clone()
		b := incr.Root().Clone()
		a.Synthesize(syntax.Detached)
		b.Synthesize(syntax.Detached)
		if diffs := syntax.Compare(a, b); len(diffs) > 0 {
			t.Fatalf("offset %d: trees diverge: %v", off, diffs)
		}
	}
}

func TestReparseReportsDivergence(t *testing.T) {
	res := &Result{}
	// Force a divergence report through the failure path directly: a
	// length failure must skip comparison, a divergence must carry dumps.
	applyTrial(res, "Hello", 2, 2, "#rect()")
	if !res.OK() {
		t.Fatalf("healthy trial reported failures: %s", res.Report())
	}

	f := &Failure{
		Kind:       FailDivergence,
		Start:      1,
		End:        3,
		Fragment:   "[",
		RefTree:    "ref",
		IncrTree:   "incr",
		EditedText: "h[i",
	}
	res.Failures = append(res.Failures, f)
	report := res.Report()
	for _, want := range []string{"1-3", `"["`, "ref", "incr", `"h[i"`} {
		if !strings.Contains(report, want) {
			t.Errorf("report %q missing %q", report, want)
		}
	}
}

func TestBoundary(t *testing.T) {
	text := "aéb" // é is two bytes at offsets 1-2

	tests := []struct {
		off  int
		want bool
	}{
		{0, true},
		{1, true},
		{2, false},
		{3, true},
		{4, true}, // end of text
	}
	for _, tt := range tests {
		if got := boundary(text, tt.off); got != tt.want {
			t.Errorf("boundary(%d) = %v, want %v", tt.off, got, tt.want)
		}
	}
}
