package source

import (
	"unicode/utf8"
)

// Position helpers used by the annotation matcher and diagnostic printer.
// Lines and columns here are zero-based; columns count runes, not bytes,
// so positions stay stable for fixtures with non-ASCII text.

// LineCount returns the number of lines in the file. An empty file still
// has one line.
func (f *File) LineCount() int {
	return len(f.LineIdx) + 1
}

// LineStart returns the byte offset at which the given zero-based line
// begins, or false if the line does not exist.
func (f *File) LineStart(line int) (int, bool) {
	switch {
	case line < 0 || line >= f.LineCount():
		return 0, false
	case line == 0:
		return 0, true
	default:
		return int(f.LineIdx[line-1]) + 1, true
	}
}

// lineEnd returns the byte offset one past the last byte of the line,
// excluding its terminating newline.
func (f *File) lineEnd(line int) int {
	if line < len(f.LineIdx) {
		return int(f.LineIdx[line])
	}
	return len(f.Content)
}

// LineColToByte resolves a zero-based line and rune column to a byte
// offset. The column may point one past the end of the line.
func (f *File) LineColToByte(line, col int) (int, bool) {
	start, ok := f.LineStart(line)
	if !ok || col < 0 {
		return 0, false
	}
	end := f.lineEnd(line)
	off := start
	for i := 0; i < col; i++ {
		if off >= end {
			return 0, false
		}
		_, size := utf8.DecodeRune(f.Content[off:end])
		off += size
	}
	return off, true
}

// ByteToLine returns the zero-based line containing the byte offset.
func (f *File) ByteToLine(off int) (int, bool) {
	if off < 0 || off > len(f.Content) {
		return 0, false
	}
	lc := toLineCol(f.LineIdx, uint32(off))
	return int(lc.Line) - 1, true
}

// ByteToCol returns the zero-based rune column of the byte offset within
// its line.
func (f *File) ByteToCol(off int) (int, bool) {
	line, ok := f.ByteToLine(off)
	if !ok {
		return 0, false
	}
	start, _ := f.LineStart(line)
	col := 0
	for pos := start; pos < off; col++ {
		_, size := utf8.DecodeRune(f.Content[pos:])
		pos += size
	}
	return col, true
}
