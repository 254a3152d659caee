package diag

import (
	"fmt"
	"sort"

	"vellum/internal/source"
)

// Bag accumulates diagnostics for one compilation.
type Bag struct {
	items []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf records an error diagnostic at the given span.
func (b *Bag) Errorf(span source.Span, format string, args ...any) {
	b.Add(Diagnostic{
		Severity: SevError,
		Primary:  span,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether at least one diagnostic has Severity >= Error.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items returns a read-only view of the collected diagnostics.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// ForFile returns the diagnostics whose primary span belongs to the given
// file, in collection order. Diagnostics originating in other units (for
// example included files) are dropped.
func (b *Bag) ForFile(id uint32) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if uint32(d.Primary.File) == id {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by file, start, end, then descending severity,
// for a stable and deterministic output order.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		return di.Severity > dj.Severity
	})
}
