// Package expect parses expected-diagnostic annotations out of fixture
// comments and matches them against what the compiler actually emitted.
package expect

import (
	"fmt"
	"strconv"
	"strings"

	"vellum/internal/source"
)

// Annotation is one expected diagnostic: a half-open byte range in the
// subtest's text and the exact message.
type Annotation struct {
	Start   int
	End     int
	Message string
}

func (a Annotation) String() string {
	return fmt.Sprintf("%d-%d %s", a.Start, a.End, a.Message)
}

// Metadata is everything the annotation comments of one subtest declare.
type Metadata struct {
	Annotations []Annotation

	// Ref is the subtest's reference-comparison override. Nil when the
	// comments leave the file-level default in force.
	Ref *bool
}

const (
	errorPrefix = "// Error: "
	refPrefix   = "// Ref: "
)

// Parse reads annotation comments from the file's text.
//
// Position syntax is `col`, `line:col`, or a `pos-pos` range, all
// one-based. A bare column refers to the first line after the comment
// run containing the annotation; `line:col` counts lines from that same
// point, so annotations stay valid when more comments are inserted
// above them.
func Parse(f *source.File) (Metadata, error) {
	var meta Metadata
	lines := strings.Split(f.Text(), "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if rest, ok := strings.CutPrefix(trimmed, refPrefix); ok {
			ref, err := strconv.ParseBool(strings.TrimSpace(rest))
			if err != nil {
				return meta, fmt.Errorf("line %d: bad ref annotation %q", i+1, trimmed)
			}
			meta.Ref = &ref
			continue
		}

		rest, ok := strings.CutPrefix(trimmed, errorPrefix)
		if !ok {
			continue
		}

		// The annotation's target is the first line after the comment
		// run it belongs to.
		comments := 0
		for _, l := range lines[i:] {
			if !strings.HasPrefix(strings.TrimSpace(l), "//") {
				break
			}
			comments++
		}
		base := i + comments

		s := scanner{src: rest}
		start, err := s.pos(f, base)
		if err != nil {
			return meta, fmt.Errorf("line %d: %w", i+1, err)
		}
		end := start
		if s.eat('-') {
			end, err = s.pos(f, base)
			if err != nil {
				return meta, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		meta.Annotations = append(meta.Annotations, Annotation{
			Start:   start,
			End:     end,
			Message: strings.TrimSpace(s.rest()),
		})
	}

	return meta, nil
}

type scanner struct {
	src string
	i   int
}

func (s *scanner) eat(b byte) bool {
	if s.i < len(s.src) && s.src[s.i] == b {
		s.i++
		return true
	}
	return false
}

func (s *scanner) num() (int, error) {
	start := s.i
	for s.i < len(s.src) && s.src[s.i] >= '0' && s.src[s.i] <= '9' {
		s.i++
	}
	if s.i == start {
		return 0, fmt.Errorf("expected number at %q", s.src[start:])
	}
	return strconv.Atoi(s.src[start:s.i])
}

func (s *scanner) rest() string {
	return s.src[s.i:]
}

// pos resolves one annotation position to a byte offset. base is the
// zero-based line the annotation's line numbers count from.
func (s *scanner) pos(f *source.File, base int) (int, error) {
	first, err := s.num()
	if err != nil {
		return 0, err
	}
	delta, col := 0, first-1
	if s.eat(':') {
		second, err := s.num()
		if err != nil {
			return 0, err
		}
		delta, col = first-1, second-1
	}
	off, ok := f.LineColToByte(base+delta, col)
	if !ok {
		return 0, fmt.Errorf("position %d:%d out of range", base+delta+1, col+1)
	}
	return off, nil
}
