// Package render rasterizes compiled documents into composite images,
// compares them against golden references, and exports PDFs.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"vellum/internal/doc"
)

const (
	// Scale is the raster resolution in pixels per point.
	Scale = 2.0
	// Pad is the border around and between pages, in points.
	Pad = doc.Pt(5)
	// MaxPageSide is the physical ceiling for one page dimension. A page
	// beyond it signals runaway layout growth, not a cosmetic diff.
	MaxPageSide = 100 * doc.PerCm
)

var (
	background = color.RGBA{0, 0, 0, 255}
	pageFill   = color.RGBA{255, 255, 255, 255}
	textFill   = color.RGBA{32, 32, 32, 255}
	rectFill   = color.RGBA{96, 96, 96, 255}
	// Link regions get a translucent overlay as a debugging aid. It is
	// deterministic, so it is part of the golden image, but it carries
	// no pass/fail meaning of its own.
	linkFill = color.NRGBA{40, 54, 99, 40}
)

func px(v doc.Pt) int {
	return int(math.Round(float64(v) * Scale))
}

// Raster renders every page into one composite canvas: pages stacked
// vertically on a black background, separated and surrounded by Pad.
func Raster(d *doc.Document) (*image.RGBA, error) {
	maxW := doc.Pt(0)
	totalH := Pad
	for i, page := range d.Pages {
		if page.Size.W > MaxPageSide || page.Size.H > MaxPageSide {
			return nil, fmt.Errorf("page %d exceeds maximum size: %gpt x %gpt", i+1, page.Size.W, page.Size.H)
		}
		if page.Size.W > maxW {
			maxW = page.Size.W
		}
		totalH += page.Size.H + Pad
	}

	canvas := image.NewRGBA(image.Rect(0, 0, px(2*Pad+maxW), px(totalH)))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	y := Pad
	for _, page := range d.Pages {
		renderPage(canvas, page, Pad, y)
		y += page.Size.H + Pad
	}
	return canvas, nil
}

func renderPage(canvas *image.RGBA, page doc.Frame, ox, oy doc.Pt) {
	fill(canvas, ox, oy, page.Size.W, page.Size.H, pageFill, draw.Src)

	for _, item := range page.Items {
		c := textFill
		if item.Kind == doc.ItemRect {
			c = rectFill
		}
		fill(canvas, ox+item.Pos.X, oy+item.Pos.Y, item.Size.W, item.Size.H, c, draw.Src)
	}

	// Overlays blend over whatever was drawn underneath.
	for _, item := range page.Items {
		if item.Kind == doc.ItemLink {
			fill(canvas, ox+item.Pos.X, oy+item.Pos.Y, item.Size.W, item.Size.H, linkFill, draw.Over)
		}
	}
}

func fill(canvas *image.RGBA, x, y, w, h doc.Pt, c color.Color, op draw.Op) {
	r := image.Rect(px(x), px(y), px(x+w), px(y+h))
	draw.Draw(canvas, r, image.NewUniform(c), image.Point{}, op)
}
