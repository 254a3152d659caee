package compile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"vellum/internal/diag"
	"vellum/internal/doc"
	"vellum/internal/source"
	"vellum/internal/syntax"
)

// Deterministic layout metrics. The harness has no font loading; text is
// measured as fixed-advance boxes so rendering stays reproducible.
const (
	charFactor   = 0.5  // text advance per rune, in font sizes
	strongFactor = 0.6  // emphasized text is slightly wider
	spaceFactor  = 0.25 // inter-word gap
	leading      = 1.2  // line height in font sizes
)

// Compile evaluates the world's active unit into a document. Diagnostics
// never abort compilation; the page sequence and the bag are both always
// produced.
func Compile(w *World) (*doc.Document, *diag.Bag) {
	ev := &evaluator{
		world:    w,
		file:     w.Main(),
		bag:      diag.NewBag(),
		width:    w.Library.PageWidth,
		height:   w.Library.PageHeight,
		margin:   w.Library.Margin,
		fontSize: w.Library.FontSize,
	}
	if ev.file == nil {
		return &doc.Document{}, ev.bag
	}

	root := syntax.Parse(ev.file.Text())
	ev.markup(root.Children(), 0)
	ev.flushPage()

	ev.bag.Sort()
	return &doc.Document{Pages: ev.pages}, ev.bag
}

type evaluator struct {
	world *World
	file  *source.File
	bag   *diag.Bag
	pages []doc.Frame

	// Current page setup.
	width, height, margin, fontSize doc.Pt

	// Current page content.
	items   []doc.Item
	x, y    doc.Pt
	bottom  doc.Pt
	started bool
}

func (ev *evaluator) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: ev.file.ID, Start: s, End: e}
}

// markup walks one level of markup children. The offset is the byte
// position of the first child. `#set` consumes following siblings (its
// target word and argument group), so this loop drives an index by hand.
func (ev *evaluator) markup(children []*syntax.Node, off int) {
	i := 0
	for i < len(children) {
		c := children[i]
		if c.Kind() == syntax.KindCall && identOf(c) == "set" {
			consumed := ev.evalSet(children, i, off)
			for ; consumed > 0; consumed-- {
				off += children[i].Len()
				i++
			}
			continue
		}
		ev.node(c, off)
		off += c.Len()
		i++
	}
}

func (ev *evaluator) node(c *syntax.Node, off int) {
	switch c.Kind() {
	case syntax.KindText:
		ev.placeText(c.Text(), charFactor)
	case syntax.KindNum, syntax.KindPunct, syntax.KindStr:
		ev.placeText(c.Text(), charFactor)
	case syntax.KindEscape:
		// One escape renders as a single glyph regardless of length.
		ev.placeBox(ev.fontSize*charFactor, ev.fontSize, doc.ItemText, "")
	case syntax.KindSpace, syntax.KindNewline:
		ev.gap()
	case syntax.KindComment:
		// Not content.
	case syntax.KindStrong:
		for _, part := range c.Children() {
			if part.Kind() == syntax.KindText {
				ev.placeText(part.Text(), strongFactor)
			}
		}
	case syntax.KindMath:
		for _, part := range c.Children() {
			if part.Kind() == syntax.KindText {
				ev.placeText(part.Text(), charFactor)
			}
		}
	case syntax.KindCode, syntax.KindGroup, syntax.KindBody, syntax.KindArgs:
		ev.markup(c.Children(), off)
	case syntax.KindCall:
		ev.evalCall(c, off)
	case syntax.KindError:
		ev.bag.Errorf(ev.span(off, off+c.Len()), "unclosed delimiter")
	}
}

func identOf(call *syntax.Node) string {
	children := call.Children()
	if len(children) == 0 || children[0].Kind() != syntax.KindIdent {
		return ""
	}
	return strings.TrimPrefix(children[0].Text(), "#")
}

// evalSet handles `#set page(width: 10pt, ...)`. It returns how many
// markup siblings were consumed, including the call itself. The
// diagnostic span of a failed set covers the call through its argument
// group, matching what a reader sees as one statement.
func (ev *evaluator) evalSet(children []*syntax.Node, i, off int) int {
	call := children[i]
	consumed := 1
	end := off + call.Len()

	j := i + 1
	if j < len(children) && children[j].Kind() == syntax.KindSpace {
		end += children[j].Len()
		j++
		consumed++
	}

	if j >= len(children) || children[j].Kind() != syntax.KindText {
		ev.bag.Errorf(ev.span(off, end), "set needs a target")
		return consumed
	}
	target := children[j].Text()
	targetEnd := end + children[j].Len()
	end = targetEnd
	j++
	consumed++

	var args []namedArg
	if j < len(children) && children[j].Kind() == syntax.KindGroup {
		args = ev.parseArgs(children[j], targetEnd)
		end += children[j].Len()
		consumed++
	}

	if target != "page" {
		ev.bag.Errorf(ev.span(off, end), "cannot set %q", target)
		return consumed
	}

	width, height, margin := ev.width, ev.height, ev.margin
	for _, a := range args {
		switch a.name {
		case "width":
			width = a.length
		case "height":
			height = a.length
		case "margin":
			margin = a.length
		default:
			ev.bag.Errorf(a.span, "unknown page argument: %s", a.name)
		}
	}

	if width-2*margin < ev.fontSize*charFactor {
		ev.bag.Errorf(ev.span(off, end), "page too small")
		return consumed
	}

	// A page with content keeps its setup; the new setup begins on the
	// next page.
	if ev.started {
		ev.flushPage()
	}
	ev.width, ev.height, ev.margin = width, height, margin
	return consumed
}

func (ev *evaluator) evalCall(call *syntax.Node, off int) {
	name := identOf(call)
	children := call.Children()
	identEnd := off + children[0].Len()

	var args []namedArg
	var body *syntax.Node
	childOff := identEnd
	for _, c := range children[1:] {
		switch c.Kind() {
		case syntax.KindArgs:
			args = ev.parseArgs(c, childOff)
		case syntax.KindBody:
			body = c
		case syntax.KindError:
			ev.bag.Errorf(ev.span(childOff, childOff+c.Len()), "unclosed delimiter")
		}
		childOff += c.Len()
	}

	switch name {
	case "rect":
		w, h := doc.Pt(20), doc.Pt(10)
		for _, a := range args {
			switch a.name {
			case "width":
				w = a.length
			case "height":
				h = a.length
			default:
				ev.bag.Errorf(a.span, "unknown rect argument: %s", a.name)
			}
		}
		ev.placeBox(w, h, doc.ItemRect, "")
	case "link":
		target := ""
		for _, a := range args {
			if a.str != "" && target == "" {
				target = a.str
			}
		}
		if target == "" {
			ev.bag.Errorf(ev.span(off, childOff), "link needs a destination")
			return
		}
		label := target
		if body != nil {
			label = bodyText(body)
		}
		w := ev.fontSize * charFactor * doc.Pt(utf8.RuneCountInString(label))
		ev.placeBox(w, ev.fontSize, doc.ItemLink, target)
	case "pagebreak":
		ev.flushPage()
	default:
		ev.bag.Errorf(ev.span(off, identEnd), "unknown function: %s", name)
	}
}

func bodyText(body *syntax.Node) string {
	var b strings.Builder
	for _, c := range body.Children() {
		switch c.Kind() {
		case syntax.KindText, syntax.KindNum, syntax.KindStr:
			b.WriteString(c.Text())
		case syntax.KindSpace:
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// namedArg is one `name: value` argument. Positional string literals keep
// an empty name and carry their content in str.
type namedArg struct {
	name   string
	length doc.Pt
	str    string
	span   source.Span
}

// parseArgs reads `name: value` pairs and bare string literals from an
// argument group or list. The grammar keeps arguments as raw token runs,
// so malformed input degrades to diagnostics here rather than parse
// errors.
func (ev *evaluator) parseArgs(group *syntax.Node, off int) []namedArg {
	var out []namedArg
	children := group.Children()

	childOff := off
	var pendingName string
	var pendingStart int
	expectValue := false

	for i := 0; i < len(children); i++ {
		c := children[i]
		switch c.Kind() {
		case syntax.KindText:
			if i+1 < len(children) && children[i+1].Kind() == syntax.KindPunct && children[i+1].Text() == ":" {
				pendingName = c.Text()
				pendingStart = childOff
				expectValue = true
			}
		case syntax.KindNum:
			if expectValue {
				length, ok := ev.parseLength(c.Text(), childOff)
				if ok {
					out = append(out, namedArg{
						name:   pendingName,
						length: length,
						span:   ev.span(pendingStart, childOff+c.Len()),
					})
				}
				expectValue = false
			}
		case syntax.KindStr:
			text := strings.Trim(c.Text(), `"`)
			name := ""
			start := childOff
			if expectValue {
				name = pendingName
				start = pendingStart
				expectValue = false
			}
			out = append(out, namedArg{
				name: name,
				str:  text,
				span: ev.span(start, childOff+c.Len()),
			})
		}
		childOff += c.Len()
	}
	return out
}

// parseLength reads a number with an optional pt/cm unit.
func (ev *evaluator) parseLength(text string, off int) (doc.Pt, bool) {
	digits := len(text)
	for i := 0; i < len(text); i++ {
		if c := text[i]; !(c >= '0' && c <= '9' || c == '.') {
			digits = i
			break
		}
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(text[:digits], "."), 64)
	if err != nil {
		ev.bag.Errorf(ev.span(off, off+len(text)), "invalid number: %s", text)
		return 0, false
	}
	switch unit := text[digits:]; unit {
	case "", "pt":
		return doc.Pt(value), true
	case "cm":
		return doc.Cm(value), true
	default:
		ev.bag.Errorf(ev.span(off, off+len(text)), "unknown unit: %s", unit)
		return 0, false
	}
}

// innerWidth is the usable width between the margins.
func (ev *evaluator) innerWidth() doc.Pt {
	return ev.width - 2*ev.margin
}

func (ev *evaluator) placeText(text string, factor float64) {
	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return
	}
	w := ev.fontSize * doc.Pt(factor) * doc.Pt(runes)
	ev.placeBox(w, ev.fontSize, doc.ItemText, "")
}

// placeBox lays one inline box into the flow, wrapping at the inner
// width. A box wider than the whole line is placed anyway and overflows.
func (ev *evaluator) placeBox(w, h doc.Pt, kind doc.ItemKind, target string) {
	if ev.x > 0 && ev.x+w > ev.innerWidth() {
		ev.x = 0
		ev.y += ev.fontSize * leading
	}
	ev.items = append(ev.items, doc.Item{
		Kind:   kind,
		Pos:    doc.Point{X: ev.margin + ev.x, Y: ev.margin + ev.y},
		Size:   doc.Size{W: w, H: h},
		Target: target,
	})
	ev.x += w
	if ev.y+h > ev.bottom {
		ev.bottom = ev.y + h
	}
	ev.started = true
}

func (ev *evaluator) gap() {
	if ev.x > 0 {
		ev.x += ev.fontSize * spaceFactor
	}
}

// flushPage closes the current page. Every compilation produces at least
// one page, so an empty subtest still yields a blank frame.
func (ev *evaluator) flushPage() {
	h := ev.height
	if h == 0 {
		h = ev.bottom + 2*ev.margin
	}
	ev.pages = append(ev.pages, doc.Frame{
		Size:  doc.Size{W: ev.width, H: h},
		Items: ev.items,
	})
	ev.items = nil
	ev.x, ev.y, ev.bottom = 0, 0, 0
	ev.started = false
}
