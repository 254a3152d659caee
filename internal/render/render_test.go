package render

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vellum/internal/doc"
)

func onePage(w, h doc.Pt, items ...doc.Item) *doc.Document {
	return &doc.Document{Pages: []doc.Frame{{Size: doc.Size{W: w, H: h}, Items: items}}}
}

func TestRasterGeometry(t *testing.T) {
	img, err := Raster(onePage(120, 30))
	if err != nil {
		t.Fatal(err)
	}
	// 2*pad + 120 wide, pad + 30 + pad tall, at 2 px/pt.
	if got := img.Bounds().Size(); got != image.Pt(260, 80) {
		t.Fatalf("canvas size = %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("border pixel = %v, want black", got)
	}
	if got := img.RGBAAt(130, 40); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("page center pixel = %v, want white", got)
	}
}

func TestRasterStacksPages(t *testing.T) {
	d := &doc.Document{Pages: []doc.Frame{
		{Size: doc.Size{W: 100, H: 20}},
		{Size: doc.Size{W: 50, H: 40}},
	}}
	img, err := Raster(d)
	if err != nil {
		t.Fatal(err)
	}
	// Width follows the widest page; heights and pads accumulate.
	if got := img.Bounds().Size(); got != image.Pt(220, 150) {
		t.Fatalf("canvas size = %v", got)
	}
	// The gap between the pages stays background.
	if got := img.RGBAAt(20, px(Pad+20+Pad/2)); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("inter-page pixel = %v, want black", got)
	}
}

func TestRasterDrawsItems(t *testing.T) {
	img, err := Raster(onePage(100, 50,
		doc.Item{Kind: doc.ItemText, Pos: doc.Point{X: 10, Y: 10}, Size: doc.Size{W: 20, H: 10}},
		doc.Item{Kind: doc.ItemLink, Pos: doc.Point{X: 10, Y: 30}, Size: doc.Size{W: 20, H: 10}, Target: "x"},
	))
	if err != nil {
		t.Fatal(err)
	}
	if got := img.RGBAAt(px(Pad+15), px(Pad+15)); got != (color.RGBA{32, 32, 32, 255}) {
		t.Errorf("text pixel = %v", got)
	}
	// The link overlay tints the white page, so it is neither pure
	// white nor the overlay color.
	got := img.RGBAAt(px(Pad+15), px(Pad+35))
	if got == (color.RGBA{255, 255, 255, 255}) || got.A != 255 {
		t.Errorf("link pixel = %v, want a tinted opaque pixel", got)
	}
}

func TestRasterRejectsOversizedPage(t *testing.T) {
	_, err := Raster(onePage(doc.Cm(101), 10))
	if err == nil || !strings.Contains(err.Error(), "maximum size") {
		t.Fatalf("err = %v", err)
	}
}

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestEqualTolerance(t *testing.T) {
	a := uniform(200, 100, color.RGBA{100, 100, 100, 255})

	b := uniform(200, 100, color.RGBA{100, 100, 100, 255})
	b.SetRGBA(7, 3, color.RGBA{102, 100, 100, 255})
	if !Equal(a, b) {
		t.Errorf("a 2-level difference is within tolerance")
	}

	c := uniform(200, 100, color.RGBA{100, 100, 100, 255})
	c.SetRGBA(7, 3, color.RGBA{103, 100, 100, 255})
	if Equal(a, c) {
		t.Errorf("a 3-level difference must fail")
	}
}

func TestEqualDimensions(t *testing.T) {
	a := uniform(10, 10, color.RGBA{0, 0, 0, 255})
	b := uniform(10, 11, color.RGBA{0, 0, 0, 255})
	if Equal(a, b) {
		t.Errorf("dimension mismatch must fail")
	}
}

func TestCompareMissingReference(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "ref.png")
	img := uniform(4, 4, color.RGBA{1, 2, 3, 255})

	res, err := Compare(img, ref, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusMismatch || !strings.Contains(res.Reason, "missing reference") {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(ref); !os.IsNotExist(err) {
		t.Fatalf("reference must not be written outside update mode")
	}
}

func TestCompareUpdateWritesAndMatches(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "ref.png")
	img := uniform(4, 4, color.RGBA{1, 2, 3, 255})

	res, err := Compare(img, ref, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusUpdated {
		t.Fatalf("result = %+v", res)
	}

	// A second comparison matches and reports no update.
	res, err = Compare(img, ref, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusMatch {
		t.Fatalf("second run = %+v, want match", res)
	}
}

func TestCompareMismatchThenUpdate(t *testing.T) {
	ref := filepath.Join(t.TempDir(), "ref.png")
	if err := WriteRef(uniform(4, 4, color.RGBA{0, 0, 0, 255}), ref); err != nil {
		t.Fatal(err)
	}
	img := uniform(4, 4, color.RGBA{50, 0, 0, 255})

	res, err := Compare(img, ref, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusMismatch {
		t.Fatalf("result = %+v", res)
	}

	res, err = Compare(img, ref, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusUpdated {
		t.Fatalf("update run = %+v", res)
	}
	res, err = Compare(img, ref, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusMatch {
		t.Fatalf("after update = %+v", res)
	}
}

func TestPDFStructure(t *testing.T) {
	d := &doc.Document{Pages: []doc.Frame{
		{Size: doc.Size{W: 120, H: 30}, Items: []doc.Item{
			{Kind: doc.ItemText, Pos: doc.Point{X: 10, Y: 10}, Size: doc.Size{W: 25, H: 10}},
		}},
		{Size: doc.Size{W: 120, H: 30}},
	}}
	out := PDF(d)

	for _, want := range []string{
		"%PDF-1.7",
		"/Type /Catalog",
		"/Count 2",
		"/MediaBox [0 0 120 30]",
		"re f",
		"startxref",
		"%%EOF",
	} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output missing %q", want)
		}
	}
	// Item at frame y=10, height 10 flips to PDF y=10 on a 30pt page.
	if !bytes.Contains(out, []byte("10 10 25 10 re f")) {
		t.Errorf("flipped rectangle missing:\n%s", out)
	}
}
