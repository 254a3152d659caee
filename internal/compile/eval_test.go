package compile

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vellum/internal/doc"
)

func compileText(t *testing.T, text string) (*doc.Document, []string) {
	t.Helper()
	w := NewWorld(DefaultLibrary())
	w.SetMain("main.vlm", text)
	document, bag := Compile(w)
	var msgs []string
	for _, d := range bag.Items() {
		msgs = append(msgs, d.Message)
	}
	return document, msgs
}

func TestCompilePlainText(t *testing.T) {
	document, msgs := compileText(t, "Hello World")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if len(document.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(document.Pages))
	}

	page := document.Pages[0]
	// Default page: 120pt wide, auto height = font size + two margins.
	wantSize := doc.Size{W: 120, H: 30}
	if diff := cmp.Diff(wantSize, page.Size); diff != "" {
		t.Errorf("page size mismatch (-want +got):\n%s", diff)
	}

	want := []doc.Item{
		{Kind: doc.ItemText, Pos: doc.Point{X: 10, Y: 10}, Size: doc.Size{W: 25, H: 10}},
		{Kind: doc.ItemText, Pos: doc.Point{X: 37.5, Y: 10}, Size: doc.Size{W: 25, H: 10}},
	}
	if diff := cmp.Diff(want, page.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileEmptySource(t *testing.T) {
	document, msgs := compileText(t, "")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if len(document.Pages) != 1 {
		t.Fatalf("empty source must still yield one page, got %d", len(document.Pages))
	}
	if len(document.Pages[0].Items) != 0 {
		t.Fatalf("empty source must yield an empty page")
	}
}

func TestCompileWrapsAtInnerWidth(t *testing.T) {
	// Inner width is 100pt; each 8-rune word is 40pt, so the third word
	// wraps onto a second line.
	document, _ := compileText(t, "aaaaaaaa bbbbbbbb cccccccc")
	items := document.Pages[0].Items
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Pos.Y != items[1].Pos.Y {
		t.Errorf("first two words should share a line: %v vs %v", items[0].Pos, items[1].Pos)
	}
	if items[2].Pos.Y <= items[1].Pos.Y {
		t.Errorf("third word should wrap below: %v", items[2].Pos)
	}
	if items[2].Pos.X != 10 {
		t.Errorf("wrapped word should start at the margin, got %v", items[2].Pos.X)
	}
}

func TestCompilePageTooSmall(t *testing.T) {
	text := "#set page(width: 10pt)\nHello"
	w := NewWorld(DefaultLibrary())
	w.SetMain("main.vlm", text)
	_, bag := Compile(w)

	items := bag.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics = %d, want 1: %v", len(items), items)
	}
	d := items[0]
	if d.Message != "page too small" {
		t.Errorf("message = %q", d.Message)
	}
	if d.Primary.Start != 0 || d.Primary.End != 22 {
		t.Errorf("span = %d-%d, want 0-22", d.Primary.Start, d.Primary.End)
	}
}

func TestCompileSetPage(t *testing.T) {
	document, msgs := compileText(t, "#set page(width: 200pt, height: 40pt, margin: 5pt)\nHi")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	page := document.Pages[0]
	want := doc.Size{W: 200, H: 40}
	if diff := cmp.Diff(want, page.Size); diff != "" {
		t.Errorf("page size mismatch (-want +got):\n%s", diff)
	}
	if len(page.Items) != 1 || page.Items[0].Pos.X != 5 {
		t.Errorf("content should start at the 5pt margin: %+v", page.Items)
	}
}

func TestCompileSetAfterContentStartsNewPage(t *testing.T) {
	document, msgs := compileText(t, "one\n#set page(width: 200pt)\ntwo")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if len(document.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(document.Pages))
	}
	if document.Pages[0].Size.W != 120 || document.Pages[1].Size.W != 200 {
		t.Errorf("page widths = %v, %v", document.Pages[0].Size.W, document.Pages[1].Size.W)
	}
}

func TestCompileCentimeters(t *testing.T) {
	document, msgs := compileText(t, "#set page(width: 2cm)\nx")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if got := document.Pages[0].Size.W; got != doc.Cm(2) {
		t.Errorf("width = %v, want %v", got, doc.Cm(2))
	}
}

func TestCompileRect(t *testing.T) {
	document, msgs := compileText(t, "#rect(width: 30pt, height: 15pt)")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	items := document.Pages[0].Items
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	want := doc.Item{Kind: doc.ItemRect, Pos: doc.Point{X: 10, Y: 10}, Size: doc.Size{W: 30, H: 15}}
	if diff := cmp.Diff(want, items[0]); diff != "" {
		t.Errorf("rect mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileRectDefaults(t *testing.T) {
	document, _ := compileText(t, "#rect()")
	items := document.Pages[0].Items
	if len(items) != 1 || items[0].Size.W != 20 || items[0].Size.H != 10 {
		t.Fatalf("default rect should be 20x10, got %+v", items)
	}
}

func TestCompileLink(t *testing.T) {
	document, msgs := compileText(t, `#link("https://example.org")[hi]`)
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	items := document.Pages[0].Items
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	got := items[0]
	if got.Kind != doc.ItemLink || got.Target != "https://example.org" {
		t.Errorf("link item = %+v", got)
	}
	// Two-rune label at half a font size per rune.
	if got.Size.W != 10 {
		t.Errorf("label width = %v, want 10", got.Size.W)
	}
}

func TestCompileLinkWithoutDestination(t *testing.T) {
	_, msgs := compileText(t, "#link()[hi]")
	if len(msgs) != 1 || msgs[0] != "link needs a destination" {
		t.Fatalf("diagnostics = %v", msgs)
	}
}

func TestCompilePagebreak(t *testing.T) {
	document, msgs := compileText(t, "one\n#pagebreak()\ntwo")
	if len(msgs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", msgs)
	}
	if len(document.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(document.Pages))
	}
	for i, page := range document.Pages {
		if len(page.Items) != 1 {
			t.Errorf("page %d items = %d, want 1", i, len(page.Items))
		}
	}
}

func TestCompileUnknownFunction(t *testing.T) {
	_, bag := Compile(worldWith(t, "#foo"))
	items := bag.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(items))
	}
	if items[0].Message != "unknown function: foo" {
		t.Errorf("message = %q", items[0].Message)
	}
	if items[0].Primary.Start != 0 || items[0].Primary.End != 4 {
		t.Errorf("span = %d-%d, want 0-4", items[0].Primary.Start, items[0].Primary.End)
	}
}

func TestCompileUnclosedArgs(t *testing.T) {
	_, msgs := compileText(t, "#rect(width: 30pt")
	found := false
	for _, m := range msgs {
		if strings.Contains(m, "unclosed delimiter") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unclosed delimiter diagnostic, got %v", msgs)
	}
}

func TestCompileUnknownUnit(t *testing.T) {
	_, msgs := compileText(t, "#rect(width: 30em)")
	if len(msgs) != 1 || msgs[0] != "unknown unit: em" {
		t.Fatalf("diagnostics = %v", msgs)
	}
}

func TestCompileSetUnknownTarget(t *testing.T) {
	_, msgs := compileText(t, "#set par(leading: 5pt)")
	if len(msgs) != 1 || msgs[0] != `cannot set "par"` {
		t.Fatalf("diagnostics = %v", msgs)
	}
}

func TestCompileDiagnosticsNeverAbort(t *testing.T) {
	document, msgs := compileText(t, "#foo\nstill here")
	if len(msgs) != 1 {
		t.Fatalf("diagnostics = %v", msgs)
	}
	if len(document.Pages) != 1 || len(document.Pages[0].Items) != 2 {
		t.Fatalf("content after the error must still be laid out: %+v", document.Pages)
	}
}

func worldWith(t *testing.T, text string) *World {
	t.Helper()
	w := NewWorld(DefaultLibrary())
	w.SetMain("main.vlm", text)
	return w
}
