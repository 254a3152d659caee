// Package compile evaluates parsed markup into laid-out pages. It is the
// compiler side of the harness's `compile(unit) -> (pages, diagnostics)`
// contract.
package compile

import (
	"vellum/internal/doc"
	"vellum/internal/source"
)

// Library holds the immutable style defaults every compilation starts
// from. The harness library mirrors the test setup of the compiler's own
// suite: a 120pt-wide page with 10pt margins, so the inner page is exactly
// 100pt wide, and a 10pt font size for round layout numbers.
type Library struct {
	PageWidth  doc.Pt
	PageHeight doc.Pt // 0 means auto: the page grows with its content
	Margin     doc.Pt
	FontSize   doc.Pt
}

// DefaultLibrary returns the harness's standard style defaults.
func DefaultLibrary() Library {
	return Library{
		PageWidth:  120,
		PageHeight: 0,
		Margin:     10,
		FontSize:   10,
	}
}

// World is the mutable compilation context: the library plus the source
// registry and the currently active main unit. Worlds are never shared
// across goroutines; each parallel worker clones the run's base world.
type World struct {
	Library Library
	Files   *source.FileSet

	main    source.FileID
	hasMain bool
}

// NewWorld creates a world with the given library and an empty registry.
func NewWorld(lib Library) *World {
	return &World{Library: lib, Files: source.NewFileSet()}
}

// Clone deep-copies the world for a parallel worker. The library is a
// value and is shared by copy; the file registry is cloned.
func (w *World) Clone() *World {
	return &World{
		Library: w.Library,
		Files:   w.Files.Clone(),
		main:    w.main,
		hasMain: w.hasMain,
	}
}

// SetMain installs text as the active compilation unit under the given
// path. A path seen before keeps its FileID and has its content replaced,
// so diagnostics from successive subtests of a file stay attributable to
// one unit.
func (w *World) SetMain(path, text string) source.FileID {
	id, ok := w.Files.GetLatest(path)
	if ok {
		w.Files.Replace(id, []byte(text))
	} else {
		id = w.Files.AddVirtual(path, []byte(text))
	}
	w.main = id
	w.hasMain = true
	return id
}

// Main returns the active compilation unit.
func (w *World) Main() *source.File {
	if !w.hasMain {
		return nil
	}
	return w.Files.Get(w.main)
}

// MainID returns the FileID of the active unit.
func (w *World) MainID() source.FileID {
	return w.main
}
