package render

import (
	"bytes"
	"fmt"

	"vellum/internal/doc"
)

// PDF serializes the document as a minimal PDF 1.7 file: one PDF page
// per frame, items drawn as filled rectangles. Good enough to eyeball a
// failing test in a viewer; not a typesetting-grade export.
func PDF(d *doc.Document) []byte {
	var w pdfWriter
	w.buf.WriteString("%PDF-1.7\n")

	// Object 1 is the catalog, object 2 the page tree. Each page then
	// takes two objects: the page node and its content stream.
	pageCount := len(d.Pages)
	w.obj(1)
	w.buf.WriteString("<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	w.obj(2)
	w.buf.WriteString("<< /Type /Pages /Kids [")
	for i := range d.Pages {
		fmt.Fprintf(&w.buf, " %d 0 R", 3+2*i)
	}
	fmt.Fprintf(&w.buf, " ] /Count %d >>\nendobj\n", pageCount)

	for i, page := range d.Pages {
		pageObj := 3 + 2*i
		contentObj := pageObj + 1

		w.obj(pageObj)
		fmt.Fprintf(&w.buf,
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Contents %d 0 R >>\nendobj\n",
			num(page.Size.W), num(page.Size.H), contentObj)

		content := pageContent(page)
		w.obj(contentObj)
		fmt.Fprintf(&w.buf, "<< /Length %d >>\nstream\n", len(content))
		w.buf.WriteString(content)
		w.buf.WriteString("endstream\nendobj\n")
	}

	w.trailer()
	return w.buf.Bytes()
}

// pageContent draws the frame's items. PDF's origin is the lower-left
// corner, so y coordinates are flipped against the frame height.
func pageContent(page doc.Frame) string {
	var b bytes.Buffer
	for _, item := range page.Items {
		switch item.Kind {
		case doc.ItemRect:
			b.WriteString("0.38 g\n")
		case doc.ItemLink:
			b.WriteString("0.16 0.21 0.39 rg\n")
		default:
			b.WriteString("0.13 g\n")
		}
		y := page.Size.H - item.Pos.Y - item.Size.H
		fmt.Fprintf(&b, "%s %s %s %s re f\n",
			num(item.Pos.X), num(y), num(item.Size.W), num(item.Size.H))
	}
	return b.String()
}

func num(v doc.Pt) string {
	return fmt.Sprintf("%g", float64(v))
}

type pdfWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *pdfWriter) obj(id int) {
	for len(w.offsets) < id {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[id-1] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n", id)
}

func (w *pdfWriter) trailer() {
	start := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", len(w.offsets)+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf,
		"trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets)+1, start)
}
