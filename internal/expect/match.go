package expect

import (
	"fmt"
	"sort"

	"vellum/internal/diag"
	"vellum/internal/source"
)

// MismatchKind says which side of the comparison an entry was missing
// from.
type MismatchKind uint8

const (
	// NotEmitted marks an annotated error the compiler never reported.
	NotEmitted MismatchKind = iota
	// NotAnnotated marks a reported error no annotation expected.
	NotAnnotated
)

// Mismatch is one asymmetric difference between expected and actual
// diagnostics.
type Mismatch struct {
	Kind       MismatchKind
	Annotation Annotation
}

func (m Mismatch) String() string {
	switch m.Kind {
	case NotEmitted:
		return fmt.Sprintf("Not emitted: %s", m.Annotation)
	default:
		return fmt.Sprintf("Not annotated: %s", m.Annotation)
	}
}

// FromDiagnostics maps the compiler's diagnostics for one unit into the
// annotation shape. Diagnostics from other files are discarded and
// messages are normalized for cross-platform stability.
func FromDiagnostics(bag *diag.Bag, unit source.FileID) []Annotation {
	var out []Annotation
	for _, d := range bag.ForFile(uint32(unit)) {
		out = append(out, Annotation{
			Start:   int(d.Primary.Start),
			End:     int(d.Primary.End),
			Message: diag.NormalizeMessage(d.Message),
		})
	}
	return out
}

// Match compares expected annotations against actual diagnostics. Both
// sides are sorted by range start, then compared for exact equality.
// Every asymmetric entry is reported; nothing is silently ignored.
func Match(expected, actual []Annotation) []Mismatch {
	expected = sorted(expected)
	actual = sorted(actual)

	var out []Mismatch
	i, j := 0, 0
	for i < len(expected) && j < len(actual) {
		switch {
		case expected[i] == actual[j]:
			i++
			j++
		case less(expected[i], actual[j]):
			out = append(out, Mismatch{NotEmitted, expected[i]})
			i++
		default:
			out = append(out, Mismatch{NotAnnotated, actual[j]})
			j++
		}
	}
	for ; i < len(expected); i++ {
		out = append(out, Mismatch{NotEmitted, expected[i]})
	}
	for ; j < len(actual); j++ {
		out = append(out, Mismatch{NotAnnotated, actual[j]})
	}
	return out
}

func sorted(list []Annotation) []Annotation {
	out := make([]Annotation, len(list))
	copy(out, list)
	sort.Slice(out, func(a, b int) bool { return less(out[a], out[b]) })
	return out
}

func less(a, b Annotation) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.Message < b.Message
}
