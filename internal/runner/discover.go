package runner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"vellum/internal/expect"
	"vellum/internal/source"
)

// TestExt is the fixture file extension.
const TestExt = ".vlm"

// Subtest is one delimited fragment of a test file.
type Subtest struct {
	// Text is the fragment's source, compiled as its own unit.
	Text string
	// LineOffset is the zero-based line in the file where the fragment
	// starts, for mapping diagnostics back to file positions.
	LineOffset int
	// Index is the fragment's stable position among the file's
	// subtests, used by the --subtest filter.
	Index int
}

// TestFile is one discovered fixture: its subtests plus the file-wide
// reference-comparison default from the header.
type TestFile struct {
	Path       string
	Name       string
	Subtests   []Subtest
	CompareRef bool
}

// ListTestFiles returns the sorted relative names of all fixtures under
// dir.
func ListTestFiles(dir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), TestExt) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// LoadTestFile reads and splits one fixture. Loading goes through a
// FileSet so fixtures get the same BOM and CRLF normalization as every
// other unit.
func LoadTestFile(path, name string) (*TestFile, error) {
	set := source.NewFileSet()
	id, err := set.Load(path)
	if err != nil {
		return nil, err
	}
	raw := set.Get(id).Content
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s: not valid UTF-8", path)
	}
	text := string(raw)

	tf := &TestFile{Path: path, Name: name, CompareRef: true}
	segments := splitSegments(text)

	if len(segments) > 1 && isHeader(segments[0].Text) {
		if ref, ok := headerRef(segments[0].Text); ok {
			tf.CompareRef = ref
		}
		segments = segments[1:]
	}

	for i := range segments {
		segments[i].Index = i
	}
	tf.Subtests = segments
	return tf, nil
}

// splitSegments cuts the file at delimiter lines (lines starting with
// "---"). The delimiter line itself belongs to no segment.
func splitSegments(text string) []Subtest {
	lines := strings.Split(text, "\n")
	var segments []Subtest
	start := 0
	flush := func(end int) {
		segments = append(segments, Subtest{
			Text:       strings.Join(lines[start:end], "\n"),
			LineOffset: start,
		})
	}
	for i, line := range lines {
		if strings.HasPrefix(line, "---") {
			flush(i)
			start = i + 1
		}
	}
	flush(len(lines))
	return segments
}

// isHeader reports whether a leading segment is pure commentary: every
// line a comment or blank. Headers configure the file but never run.
func isHeader(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "//") {
			return false
		}
	}
	return true
}

func headerRef(text string) (bool, bool) {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "// Ref: "); ok {
			return strings.TrimSpace(rest) == "true", true
		}
	}
	return false, false
}

// SelectSubtest resolves a --subtest filter against the subtest count.
// Negative indices wrap modulo the count, so -1 is the last subtest.
func SelectSubtest(n, count int) int {
	if count == 0 {
		return 0
	}
	return ((n % count) + count) % count
}

// matches applies the name filters: substring by default, whole-name
// comparison in exact mode. No filters means everything matches.
func matches(name string, filters []string, exact bool) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if exact && name == f {
			return true
		}
		if !exact && strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// refSetting resolves a subtest's reference-comparison flag from the
// file default and an optional inline override.
func refSetting(tf *TestFile, meta expect.Metadata) bool {
	if meta.Ref != nil {
		return *meta.Ref
	}
	return tf.CompareRef
}
