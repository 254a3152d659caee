package syntax

import (
	"fmt"
)

// Mismatch describes one structural difference between two trees.
type Mismatch struct {
	Path string // slash-separated child indices from the root
	What string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s", m.Path, m.What)
}

// Compare walks both trees and returns every structural difference.
// Span identity participates in the comparison; callers that only care
// about shape synthesize both trees to Detached first. The comparison is
// pure: formatting and logging are left to the caller.
func Compare(a, b *Node) []Mismatch {
	var out []Mismatch
	compareInto(&out, a, b, "/")
	return out
}

func compareInto(out *[]Mismatch, a, b *Node, path string) {
	if a.kind != b.kind {
		*out = append(*out, Mismatch{path, fmt.Sprintf("kind %s != %s", a.kind, b.kind)})
		return
	}
	if a.span != b.span {
		*out = append(*out, Mismatch{path, fmt.Sprintf("span %d != %d", a.span.Number(), b.span.Number())})
	}
	if a.text != b.text {
		*out = append(*out, Mismatch{path, fmt.Sprintf("text %q != %q", a.text, b.text)})
	}
	if a.length != b.length {
		*out = append(*out, Mismatch{path, fmt.Sprintf("length %d != %d", a.length, b.length)})
	}
	if len(a.children) != len(b.children) {
		*out = append(*out, Mismatch{path, fmt.Sprintf("child count %d != %d", len(a.children), len(b.children))})
		return
	}
	for i := range a.children {
		compareInto(out, a.children[i], b.children[i], fmt.Sprintf("%s%d/", path, i))
	}
}
