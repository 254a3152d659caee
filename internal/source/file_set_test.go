package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.vlm")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbfa\r\nb"), 0o644); err != nil {
		t.Fatal(err)
	}

	set := NewFileSet()
	id, err := set.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := set.Get(id)
	if string(f.Content) != "a\nb" {
		t.Errorf("content = %q, want %q", f.Content, "a\nb")
	}
	if f.Flags&FileHadBOM == 0 {
		t.Error("BOM flag not recorded")
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Error("CRLF flag not recorded")
	}
}

func TestResolveRuneColumns(t *testing.T) {
	set := NewFileSet()
	id := set.AddVirtual("t.vlm", []byte("héllo\nwörld"))

	// Bytes 8..10 cover "ö" on the second line; columns count runes,
	// not bytes.
	start, end := set.Resolve(Span{File: id, Start: 8, End: 10})
	if start.Line != 2 || start.Col != 2 {
		t.Errorf("start = %d:%d, want 2:2", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 3 {
		t.Errorf("end = %d:%d, want 2:3", end.Line, end.Col)
	}
}
