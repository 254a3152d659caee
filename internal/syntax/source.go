package syntax

import (
	"strings"
)

// Source owns a text buffer together with its parse tree and supports
// incremental edits that reuse unaffected subtrees. A Source is detached:
// it belongs to no file registry and is discarded after use.
type Source struct {
	text string
	root *Node
}

// NewSource parses the text from scratch.
func NewSource(text string) *Source {
	return &Source{text: text, root: Parse(text)}
}

func (s *Source) Text() string {
	return s.text
}

func (s *Source) Root() *Node {
	return s.root
}

func (s *Source) Len() int {
	return len(s.text)
}

// Edit replaces the byte range [start, end) with the replacement string
// and incrementally reparses. Because every token is line-local, reparsing
// the complete lines touched by the edit and splicing them over the
// affected root children reproduces a from-scratch parse of the edited
// text. Replacement subtrees are numbered into the numeric gap between the
// untouched neighbors; if the gap is too tight the whole tree is
// renumbered.
func (s *Source) Edit(start, end int, replacement string) {
	if start < 0 || end < start || end > len(s.text) {
		return
	}

	// Expand to whole lines. The window begins just after the previous
	// newline and ends just after the first newline at or past the edit.
	ws := strings.LastIndexByte(s.text[:start], '\n') + 1
	we := len(s.text)
	if idx := strings.IndexByte(s.text[end:], '\n'); idx >= 0 {
		we = end + idx + 1
	}

	// Locate the run of root children covering [ws, we). Window edges sit
	// on newline boundaries, which are always child boundaries.
	children := s.root.children
	i, j := 0, len(children)
	off := 0
	for k, c := range children {
		if off >= ws {
			i = k
			break
		}
		off += c.length
		i = k + 1
	}
	off = 0
	for k, c := range children {
		off += c.length
		if off >= we {
			j = k + 1
			break
		}
	}

	window := s.text[ws:start] + replacement + s.text[end:we]
	fresh := parseMarkup(window)

	lo := s.root.span.Number() + 1
	if i > 0 {
		lo = maxSpan(children[i-1]) + 1
	}
	hi := MaxNumber
	if j < len(children) {
		hi = children[j].span.Number()
	}

	spliced := make([]*Node, 0, len(children)-(j-i)+len(fresh))
	spliced = append(spliced, children[:i]...)
	spliced = append(spliced, fresh...)
	spliced = append(spliced, children[j:]...)

	s.text = s.text[:start] + replacement + s.text[end:]
	s.root.children = spliced

	// The root length is derived from the splice, not from the buffer,
	// so a bad splice stays observable as a tree/text length mismatch.
	length := 0
	for _, c := range spliced {
		length += c.length
	}
	s.root.length = length

	total := uint64(0)
	for _, n := range fresh {
		total += subtreeCount(n)
	}
	if total == 0 {
		return
	}
	if hi > lo && hi-lo >= 2*total {
		numberRange(fresh, lo, hi)
	} else {
		NumberTree(s.root)
	}
}

// RangeOf returns the byte range covered by the node with the given span,
// or false if the span does not occur in the tree.
func (s *Source) RangeOf(span Span) (start, end int, ok bool) {
	return findRange(s.root, 0, span)
}

func findRange(n *Node, off int, span Span) (int, int, bool) {
	if n.span == span {
		return off, off + n.length, true
	}
	for _, c := range n.children {
		if start, end, ok := findRange(c, off, span); ok {
			return start, end, ok
		}
		off += c.length
	}
	return 0, 0, false
}
