package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse builds a freshly numbered parse tree for the given text. The root
// is always a Markup node whose length equals len(text).
func Parse(text string) *Node {
	root := NewInner(KindMarkup, parseMarkup(text))
	NumberTree(root)
	return root
}

// parseMarkup splits the text at newlines and tokenizes each line
// independently. No token other than the root ever crosses a newline, so
// parsing composes over any sequence of complete lines. The incremental
// editor relies on exactly this property.
func parseMarkup(text string) []*Node {
	var nodes []*Node
	i := 0
	for i < len(text) {
		if text[i] == '\n' {
			nodes = append(nodes, NewLeaf(KindNewline, "\n"))
			i++
			continue
		}
		end := strings.IndexByte(text[i:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += i
		}
		nodes = append(nodes, parseInline(text[i:end])...)
		i = end
	}
	return nodes
}

type parser struct {
	src string
	pos int
}

// parseInline tokenizes one newline-free string.
func parseInline(src string) []*Node {
	p := parser{src: src}
	var nodes []*Node
	for p.pos < len(p.src) {
		nodes = append(nodes, p.token())
	}
	return nodes
}

func (p *parser) token() *Node {
	c := p.src[p.pos]
	switch {
	case c == ' ' || c == '\t':
		return p.space()
	case c == '/':
		if p.peekAt(1) == '/' {
			return p.rest(KindComment)
		}
		return p.punct()
	case c == '\\':
		return p.escape()
	case c == '#':
		return p.call()
	case c == '*':
		return p.delimited(KindStrong, '*')
	case c == '$':
		return p.delimited(KindMath, '$')
	case c == '{':
		return p.group(KindCode, '{', '}')
	case c == '[':
		return p.group(KindGroup, '[', ']')
	case c == '(':
		return p.group(KindGroup, '(', ')')
	case c == '"':
		return p.str()
	case c >= '0' && c <= '9':
		return p.number()
	case isPunct(c):
		return p.punct()
	default:
		return p.text()
	}
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

// rest consumes everything up to the end of the line.
func (p *parser) rest(kind Kind) *Node {
	text := p.src[p.pos:]
	p.pos = len(p.src)
	return NewLeaf(kind, text)
}

func (p *parser) space() *Node {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	return NewLeaf(KindSpace, p.src[start:p.pos])
}

func (p *parser) punct() *Node {
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	text := p.src[p.pos : p.pos+size]
	p.pos += size
	return NewLeaf(KindPunct, text)
}

// escape consumes a backslash plus either a `u{...}` sequence or a single
// rune. A trailing lone backslash stays a one-byte escape.
func (p *parser) escape() *Node {
	start := p.pos
	p.pos++
	if p.pos >= len(p.src) {
		return NewLeaf(KindEscape, p.src[start:p.pos])
	}
	if p.src[p.pos] == 'u' && p.peekAt(1) == '{' {
		if close := strings.IndexByte(p.src[p.pos:], '}'); close >= 0 {
			p.pos += close + 1
			return NewLeaf(KindEscape, p.src[start:p.pos])
		}
		p.pos = len(p.src)
		return NewLeaf(KindError, p.src[start:p.pos])
	}
	_, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return NewLeaf(KindEscape, p.src[start:p.pos])
}

// delimited parses `*...*`-style segments. The content stays one raw text
// leaf. An unclosed delimiter degrades to punctuation.
func (p *parser) delimited(kind Kind, delim byte) *Node {
	close := strings.IndexByte(p.src[p.pos+1:], delim)
	if close < 0 {
		return p.punct()
	}
	open := NewLeaf(KindPunct, p.src[p.pos:p.pos+1])
	inner := p.src[p.pos+1 : p.pos+1+close]
	children := []*Node{open}
	if inner != "" {
		children = append(children, NewLeaf(KindText, inner))
	}
	children = append(children, NewLeaf(KindPunct, string(delim)))
	p.pos += close + 2
	return NewInner(kind, children)
}

// group parses a bracketed group with same-pair nesting. An unmatched
// opener degrades to punctuation.
func (p *parser) group(kind Kind, open, close byte) *Node {
	match := matchDelim(p.src, p.pos, open, close)
	if match < 0 {
		return p.punct()
	}
	inner := parseInline(p.src[p.pos+1 : match])
	children := make([]*Node, 0, len(inner)+2)
	children = append(children, NewLeaf(KindPunct, string(open)))
	children = append(children, inner...)
	children = append(children, NewLeaf(KindPunct, string(close)))
	p.pos = match + 1
	return NewInner(kind, children)
}

// matchDelim finds the closer matching the opener at start, honoring
// nesting of the same pair. Returns -1 if the line ends first.
func matchDelim(src string, start int, open, close byte) int {
	depth := 0
	for i := start; i < len(src); i++ {
		switch src[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (p *parser) str() *Node {
	close := strings.IndexByte(p.src[p.pos+1:], '"')
	if close < 0 {
		return p.rest(KindError)
	}
	text := p.src[p.pos : p.pos+close+2]
	p.pos += close + 2
	return NewLeaf(KindStr, text)
}

// number lexes digits, an optional fraction (possibly empty, as in "2."),
// and an optional unit suffix such as "pt" or "cm".
func (p *parser) number() *Node {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	for p.pos < len(p.src) && isASCIILetter(p.src[p.pos]) {
		p.pos++
	}
	return NewLeaf(KindNum, p.src[start:p.pos])
}

// call parses `#name`, an optional argument list, and an optional body.
// A hash without an identifier is plain punctuation; an unclosed argument
// list swallows the rest of the line as an error leaf.
func (p *parser) call() *Node {
	if !isASCIILetter(p.peekAt(1)) {
		return p.punct()
	}
	start := p.pos
	p.pos++
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	children := []*Node{NewLeaf(KindIdent, p.src[start:p.pos])}

	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		match := matchDelim(p.src, p.pos, '(', ')')
		if match < 0 {
			children = append(children, p.rest(KindError))
			return NewInner(KindCall, children)
		}
		inner := parseInline(p.src[p.pos+1 : match])
		args := make([]*Node, 0, len(inner)+2)
		args = append(args, NewLeaf(KindPunct, "("))
		args = append(args, inner...)
		args = append(args, NewLeaf(KindPunct, ")"))
		children = append(children, NewInner(KindArgs, args))
		p.pos = match + 1
	}

	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		if match := matchDelim(p.src, p.pos, '[', ']'); match >= 0 {
			inner := parseInline(p.src[p.pos+1 : match])
			body := make([]*Node, 0, len(inner)+2)
			body = append(body, NewLeaf(KindPunct, "["))
			body = append(body, inner...)
			body = append(body, NewLeaf(KindPunct, "]"))
			children = append(children, NewInner(KindBody, body))
			p.pos = match + 1
		}
	}

	return NewInner(KindCall, children)
}

func (p *parser) text() *Node {
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if isTokenBreak(r) {
			break
		}
		p.pos += size
	}
	if p.pos == start {
		// Guarantees progress even if the break set changes.
		return p.punct()
	}
	return NewLeaf(KindText, p.src[start:p.pos])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isASCIILetter(c) || isDigit(c) || c == '_' || c == '-'
}

func isPunct(c byte) bool {
	switch c {
	case ',', ':', ';', '=', '.', '+', '-', ')', ']', '}', '\'', '`', '<', '>', '!', '?', '&', '|', '%', '@', '~', '^':
		return true
	}
	return false
}

// isTokenBreak reports whether a rune terminates a plain text run.
func isTokenBreak(r rune) bool {
	if r < 0x80 {
		c := byte(r)
		switch c {
		case ' ', '\t', '\n', '#', '*', '$', '(', '{', '[', '"', '\\', '/':
			return true
		}
		return isPunct(c)
	}
	return unicode.IsSpace(r)
}
