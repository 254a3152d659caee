package syntax

import (
	"fmt"
	"strings"
)

// Kind discriminates parse-tree nodes.
type Kind uint8

const (
	// KindMarkup is the root node of every parsed document.
	KindMarkup Kind = iota
	// KindText is a run of plain word characters.
	KindText
	// KindSpace is a run of spaces and tabs, never containing a newline.
	KindSpace
	// KindNewline is exactly one "\n". Keeping newlines as their own
	// leaves makes every other token line-local, which is what allows
	// incremental edits to reparse whole lines and splice.
	KindNewline
	// KindComment is a line comment from "//" to the end of the line.
	KindComment
	// KindEscape is a backslash escape such as `\u{12e4}` or `\*`.
	KindEscape
	// KindStrong is emphasized markup delimited by `*`.
	KindStrong
	// KindMath is a math segment delimited by `$`.
	KindMath
	// KindCode is a brace-delimited code group.
	KindCode
	// KindGroup is a parenthesized or bracketed group outside a call.
	KindGroup
	// KindCall is a hash call: `#name`, optionally with args and a body.
	KindCall
	// KindIdent is the `#name` leaf of a call.
	KindIdent
	// KindArgs is the parenthesized argument list of a call.
	KindArgs
	// KindBody is the bracketed content argument of a call.
	KindBody
	// KindStr is a double-quoted string literal.
	KindStr
	// KindNum is a numeric literal, optionally with a unit suffix.
	KindNum
	// KindPunct is a single punctuation character.
	KindPunct
	// KindError is an unterminated construct kept as raw text.
	KindError
)

var kindNames = [...]string{
	KindMarkup:  "Markup",
	KindText:    "Text",
	KindSpace:   "Space",
	KindNewline: "Newline",
	KindComment: "Comment",
	KindEscape:  "Escape",
	KindStrong:  "Strong",
	KindMath:    "Math",
	KindCode:    "Code",
	KindGroup:   "Group",
	KindCall:    "Call",
	KindIdent:   "Ident",
	KindArgs:    "Args",
	KindBody:    "Body",
	KindStr:     "Str",
	KindNum:     "Num",
	KindPunct:   "Punct",
	KindError:   "Error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// Node is one node of an ordered, rooted parse tree. Leaves carry text;
// inner nodes carry children. The byte length is cached on construction.
type Node struct {
	kind     Kind
	span     Span
	text     string
	children []*Node
	length   int
}

// NewLeaf creates a leaf node owning the given text.
func NewLeaf(kind Kind, text string) *Node {
	return &Node{kind: kind, text: text, length: len(text)}
}

// NewInner creates an inner node over the given children.
func NewInner(kind Kind, children []*Node) *Node {
	length := 0
	for _, c := range children {
		length += c.length
	}
	return &Node{kind: kind, children: children, length: length}
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) Span() Span {
	return n.span
}

// Len returns the byte length of the text this subtree covers.
func (n *Node) Len() int {
	return n.length
}

// Text returns the leaf text; inner nodes return "".
func (n *Node) Text() string {
	return n.text
}

func (n *Node) Children() []*Node {
	return n.children
}

// Clone deep-copies the subtree.
func (n *Node) Clone() *Node {
	out := &Node{
		kind:   n.kind,
		span:   n.span,
		text:   n.text,
		length: n.length,
	}
	if len(n.children) > 0 {
		out.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			out.children[i] = c.Clone()
		}
	}
	return out
}

// Synthesize overwrites every span in the subtree with the given one.
// Synthesizing to Detached erases node identity before comparison.
func (n *Node) Synthesize(span Span) {
	n.span = span
	for _, c := range n.children {
		c.Synthesize(span)
	}
}

// Leaves returns all leaf descendants in document order. A childless node
// is its own leaf.
func Leaves(n *Node) []*Node {
	if len(n.children) == 0 {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.children {
		out = append(out, Leaves(c)...)
	}
	return out
}

// Dump renders the subtree in an indented structured form for failure
// reports.
func Dump(n *Node) string {
	var b strings.Builder
	dumpInto(&b, n, 0)
	return b.String()
}

func dumpInto(b *strings.Builder, n *Node, depth int) {
	for range depth {
		b.WriteString("  ")
	}
	if len(n.children) == 0 {
		fmt.Fprintf(b, "%s %d %q\n", n.kind, n.span.Number(), n.text)
		return
	}
	fmt.Fprintf(b, "%s %d len=%d\n", n.kind, n.span.Number(), n.length)
	for _, c := range n.children {
		dumpInto(b, c, depth+1)
	}
}
