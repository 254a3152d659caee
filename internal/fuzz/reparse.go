package fuzz

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"vellum/internal/syntax"
	"vellum/internal/testkit"
)

// FailureKind classifies reparse-fuzzing failures.
type FailureKind uint8

const (
	// FailLength means the tree-reported total length disagrees with the
	// actual text length. This is the hard failure: comparison for the
	// trial is skipped because offsets can no longer be trusted.
	FailLength FailureKind = iota
	// FailSpanOrder means the span numbering invariant broke.
	FailSpanOrder
	// FailDivergence means the incremental tree's shape differs from the
	// from-scratch parse after span erasure.
	FailDivergence
)

func (k FailureKind) String() string {
	switch k {
	case FailLength:
		return "tree length mismatch"
	case FailSpanOrder:
		return "span order violation"
	case FailDivergence:
		return "reparse divergence"
	}
	return "unknown"
}

// Failure captures everything needed to diagnose one failed trial: the
// edited byte range, the injected fragment, both normalized trees, and
// the full edited text.
type Failure struct {
	Kind       FailureKind
	Start, End int
	Fragment   string

	TreeLen, TextLen int                    // FailLength
	Violation        *testkit.SpanViolation // FailSpanOrder
	Incremental      bool                   // FailSpanOrder: which tree broke

	Mismatches []syntax.Mismatch // FailDivergence
	RefTree    string
	IncrTree   string
	EditedText string
}

func (f *Failure) Format(w *strings.Builder) {
	switch f.Kind {
	case FailLength:
		fmt.Fprintf(w, "    tree length %d does not match text length %d\n", f.TreeLen, f.TextLen)
	case FailSpanOrder:
		side := "clean"
		if f.Incremental {
			side = "incremental"
		}
		fmt.Fprintf(w, "    %s tree after inserting %q at %d-%d: %s\n", side, f.Fragment, f.Start, f.End, f.Violation)
	case FailDivergence:
		fmt.Fprintf(w, "    reparse differs from clean parse when inserting %q at %d-%d\n", f.Fragment, f.Start, f.End)
		fmt.Fprintf(w, "    expected reference tree:\n%s\n", f.RefTree)
		fmt.Fprintf(w, "    found incremental tree:\n%s\n", f.IncrTree)
		fmt.Fprintf(w, "    full source (%d): %q\n", len(f.EditedText), f.EditedText)
	}
}

// Result aggregates all failures of one subtest's fuzzing pass.
type Result struct {
	Trials   int
	Skipped  int // trials dropped for non-boundary offsets
	Failures []*Failure
}

func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Report renders the accumulated failures for the harness output.
func (r *Result) Report() string {
	var b strings.Builder
	for _, f := range r.Failures {
		f.Format(&b)
	}
	return b.String()
}

// Reparse pseudo-randomly edits the text and verifies that an incremental
// reparse produces the same result as a clean parse. It first performs one
// bulk replacement per 400 source bytes (rounded up) at random ranges, and
// then injects one additional fragment exactly at the start of a randomly
// chosen leaf node, targeting boundary conditions at the finest syntactic
// units. All failures accumulate; no failure stops the remaining trials.
func Reparse(text string, rng *LinearShift) *Result {
	res := &Result{}

	insertions := int(math.Ceil(float64(len(text)) / 400.0))
	for range insertions {
		fragment := supplements[rng.PickIndex(0, len(supplements))]
		start := rng.PickIndex(0, len(text))
		end := rng.PickIndex(start, len(text))

		// A trial landing inside a multi-byte code point is skipped, not
		// retried. Retrying would consume extra generator draws and change
		// the sequence for every later trial, breaking reproducibility.
		if !boundary(text, start) || !boundary(text, end) {
			res.Skipped++
			continue
		}

		applyTrial(res, text, start, end, fragment)
	}

	src := syntax.NewSource(text)
	leaves := syntax.Leaves(src.Root())
	leaf := leaves[rng.PickIndex(0, len(leaves))]
	fragment := supplements[rng.PickIndex(0, len(supplements))]
	start := 0
	if s, _, ok := src.RangeOf(leaf.Span()); ok {
		start = s
	}
	applyTrial(res, text, start, start, fragment)

	return res
}

// applyTrial runs one differential trial: edit incrementally, reparse from
// scratch, check span ordering on both trees, then compare shapes with
// span identity erased.
func applyTrial(res *Result, text string, start, end int, fragment string) {
	res.Trials++

	incr := syntax.NewSource(text)
	if incr.Root().Len() != len(text) {
		res.Failures = append(res.Failures, &Failure{
			Kind:    FailLength,
			Start:   start,
			End:     end,
			TreeLen: incr.Root().Len(),
			TextLen: len(text),
		})
		return
	}

	incr.Edit(start, end, fragment)
	edited := incr.Text()
	ref := syntax.NewSource(edited)

	if incr.Root().Len() != len(edited) {
		res.Failures = append(res.Failures, &Failure{
			Kind:     FailLength,
			Start:    start,
			End:      end,
			Fragment: fragment,
			TreeLen:  incr.Root().Len(),
			TextLen:  len(edited),
		})
		return
	}

	if v := testkit.CheckSpanOrder(ref.Root()); v != nil {
		res.Failures = append(res.Failures, &Failure{
			Kind: FailSpanOrder, Start: start, End: end, Fragment: fragment, Violation: v,
		})
	}
	if v := testkit.CheckSpanOrder(incr.Root()); v != nil {
		res.Failures = append(res.Failures, &Failure{
			Kind: FailSpanOrder, Start: start, End: end, Fragment: fragment, Violation: v, Incremental: true,
		})
	}

	// Erase span identity on clones so the comparison sees pure shape.
	refRoot := ref.Root().Clone()
	incrRoot := incr.Root().Clone()
	refRoot.Synthesize(syntax.Detached)
	incrRoot.Synthesize(syntax.Detached)

	if mismatches := syntax.Compare(refRoot, incrRoot); len(mismatches) > 0 {
		res.Failures = append(res.Failures, &Failure{
			Kind:       FailDivergence,
			Start:      start,
			End:        end,
			Fragment:   fragment,
			Mismatches: mismatches,
			RefTree:    syntax.Dump(refRoot),
			IncrTree:   syntax.Dump(incrRoot),
			EditedText: edited,
		})
	}
}

// boundary reports whether offset i is on a UTF-8 code point boundary.
func boundary(text string, i int) bool {
	if i == 0 || i == len(text) {
		return true
	}
	return utf8.RuneStart(text[i])
}
