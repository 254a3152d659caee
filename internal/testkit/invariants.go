// Package testkit holds the structural oracles the harness runs against
// parse trees. The span-order check is the primary oracle for incremental
// reparse regressions: it is independent of tree-shape comparison and
// catches stale or duplicated span numbers even when the shapes agree.
package testkit

import (
	"fmt"

	"vellum/internal/syntax"
)

// SpanViolation reports the first node whose span number falls outside the
// numeric range imposed by its ancestors and left siblings.
type SpanViolation struct {
	Node   *syntax.Node
	Number uint64
	Lo, Hi uint64
}

func (v *SpanViolation) String() string {
	return fmt.Sprintf("wrong span order: %d not in [%d, %d)", v.Number, v.Lo, v.Hi)
}

// Report renders the violation with a dump of the offending subtree.
func (v *SpanViolation) Report() string {
	return fmt.Sprintf("%s\nnode:\n%s", v, syntax.Dump(v.Node))
}

// CheckSpanOrder verifies that every span number in the tree is properly
// ordered (and therefore unique): each node's number lies below all of its
// descendants', and sibling subtrees occupy disjoint ascending ranges.
// It returns the first violation found, or nil.
func CheckSpanOrder(root *syntax.Node) *SpanViolation {
	return CheckSpanOrderIn(root, 0, syntax.MaxNumber)
}

// CheckSpanOrderIn verifies the subtree against an externally imposed
// range [lo, hi). Remaining siblings are not examined once a violation is
// found.
func CheckSpanOrderIn(node *syntax.Node, lo, hi uint64) *SpanViolation {
	num := node.Span().Number()
	if num < lo || num >= hi {
		return &SpanViolation{Node: node, Number: num, Lo: lo, Hi: hi}
	}

	start := num + 1
	children := node.Children()
	for i, child := range children {
		end := hi
		if i+1 < len(children) {
			end = children[i+1].Span().Number()
		}
		if v := CheckSpanOrderIn(child, start, end); v != nil {
			return v
		}
	}
	return nil
}
