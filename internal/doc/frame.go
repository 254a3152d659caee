// Package doc is the document model produced by compilation: a sequence
// of laid-out pages (frames) holding positioned items.
package doc

import (
	"fmt"
	"strings"
)

// Pt is a length in typographic points.
type Pt float64

// PerCm is the number of points in one centimeter.
const PerCm Pt = 28.3465

// Cm converts centimeters to points.
func Cm(v float64) Pt {
	return Pt(v) * PerCm
}

type Point struct {
	X, Y Pt
}

type Size struct {
	W, H Pt
}

// ItemKind discriminates frame items.
type ItemKind uint8

const (
	// ItemText is a box of laid-out text.
	ItemText ItemKind = iota
	// ItemRect is an explicit rectangle.
	ItemRect
	// ItemLink is an interactive link region.
	ItemLink
)

func (k ItemKind) String() string {
	switch k {
	case ItemText:
		return "text"
	case ItemRect:
		return "rect"
	case ItemLink:
		return "link"
	}
	return "invalid"
}

// Item is one positioned element of a frame.
type Item struct {
	Kind   ItemKind
	Pos    Point
	Size   Size
	Target string // link destination, if any
}

// Frame is one laid-out page.
type Frame struct {
	Size  Size
	Items []Item
}

// Document is an ordered sequence of rendered pages.
type Document struct {
	Pages []Frame
}

// DumpModel lists the document's items without geometry, for the
// --print-model debug flag.
func DumpModel(d *Document) string {
	var b strings.Builder
	for i, f := range d.Pages {
		fmt.Fprintf(&b, "page %d\n", i)
		for _, item := range f.Items {
			fmt.Fprintf(&b, "  %s", item.Kind)
			if item.Target != "" {
				fmt.Fprintf(&b, " -> %s", item.Target)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// DumpFrames renders the full geometry of every page, for the
// --print-frames debug flag.
func DumpFrames(d *Document) string {
	var b strings.Builder
	for i, f := range d.Pages {
		fmt.Fprintf(&b, "page %d: %.2fpt x %.2fpt\n", i, float64(f.Size.W), float64(f.Size.H))
		for _, item := range f.Items {
			fmt.Fprintf(&b, "  %s @ (%.2f, %.2f) %.2f x %.2f",
				item.Kind, float64(item.Pos.X), float64(item.Pos.Y),
				float64(item.Size.W), float64(item.Size.H))
			if item.Target != "" {
				fmt.Fprintf(&b, " -> %s", item.Target)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
