package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"vellum/internal/compile"
	"vellum/internal/doc"
	"vellum/internal/expect"
	"vellum/internal/fuzz"
	"vellum/internal/render"
	"vellum/internal/source"
	"vellum/internal/syntax"
	"vellum/internal/testkit"
)

// Options configures one harness run.
type Options struct {
	Root   string
	Config Config

	// Filters restrict the run to matching test names; substring match,
	// or whole-name match when Exact is set.
	Filters []string
	Exact   bool

	// Subtest selects a single subtest per file; negative values wrap
	// from the end. Nil runs everything.
	Subtest *int

	// Update rewrites mismatched or missing golden images instead of
	// failing.
	Update bool

	// Jobs caps parallel file workers; zero means one per CPU.
	Jobs int

	// PDF additionally exports each file's pages as a PDF.
	PDF bool

	PrintSyntax bool
	PrintModel  bool
	PrintFrames bool

	NoCache bool

	// Events receives per-file progress notifications when non-nil.
	Events chan<- Event
}

// EventKind tags a progress notification.
type EventKind uint8

const (
	EventStart EventKind = iota
	EventDone
)

// Event is one progress notification for the interactive UI.
type Event struct {
	Kind   EventKind
	Name   string
	OK     bool
	Cached bool
}

// FileResult is the outcome of one test file.
type FileResult struct {
	Name     string
	OK       bool
	Updated  bool
	Cached   bool
	Panicked bool
	Failures []string
	Debug    []string
}

// Summary aggregates a whole run.
type Summary struct {
	Results []FileResult
	Passed  int
	Total   int
	Updated bool
}

func (s *Summary) OK() bool {
	return s.Passed == s.Total
}

// Run executes all matching test files. Files run in parallel, each on
// its own cloned world; subtests within a file run sequentially because
// they share the file's random sequence.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	testsDir := filepath.Join(opts.Root, opts.Config.Paths.Tests)
	selected, err := ListMatching(opts)
	if err != nil {
		return nil, err
	}

	var cache *ResultCache
	if cacheUsable(opts) {
		// A broken cache only costs speed; the run proceeds without it.
		cache, _ = OpenResultCache("vellum")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	base := compile.NewWorld(compile.DefaultLibrary())
	results := make([]FileResult, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(selected), 1)))

	for i, name := range selected {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(opts.Events, Event{Kind: EventStart, Name: name})
			res := runFile(opts, cache, base, testsDir, name)
			results[i] = res
			emit(opts.Events, Event{Kind: EventDone, Name: name, OK: res.OK, Cached: res.Cached})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Results: results, Total: len(results)}
	for _, res := range results {
		if res.OK {
			summary.Passed++
		}
		if res.Updated {
			summary.Updated = true
		}
	}
	return summary, nil
}

// ListMatching returns the names of the test files a run with these
// options would execute.
func ListMatching(opts Options) ([]string, error) {
	names, err := ListTestFiles(filepath.Join(opts.Root, opts.Config.Paths.Tests))
	if err != nil {
		return nil, fmt.Errorf("discover tests: %w", err)
	}
	var selected []string
	for _, name := range names {
		if matches(name, opts.Filters, opts.Exact) {
			selected = append(selected, name)
		}
	}
	return selected, nil
}

func emit(ch chan<- Event, ev Event) {
	if ch != nil {
		ch <- ev
	}
}

// cacheUsable rules the cache out for any run whose outcome depends on
// more than the fixture and its reference image.
func cacheUsable(opts Options) bool {
	return !opts.NoCache && !opts.Update && !opts.PDF && opts.Subtest == nil &&
		!opts.PrintSyntax && !opts.PrintModel && !opts.PrintFrames
}

// runFile executes one test file to completion. A panic anywhere inside
// is caught here so one broken fixture cannot take down the run.
func runFile(opts Options, cache *ResultCache, base *compile.World, testsDir, name string) (res FileResult) {
	res.Name = name
	defer func() {
		if p := recover(); p != nil {
			res.OK = false
			res.Panicked = true
			res.Failures = append(res.Failures, fmt.Sprintf("panic: %v", p))
		}
	}()

	path := filepath.Join(testsDir, filepath.FromSlash(name))
	refPath := filepath.Join(opts.Root, opts.Config.Paths.Refs, strings.TrimSuffix(name, TestExt)+".png")

	var key CacheKey
	if cache != nil {
		fixture, err := os.ReadFile(path)
		if err == nil {
			ref, _ := os.ReadFile(refPath)
			key = NewCacheKey(fixture, ref, "v1")
			if cache.Passed(key) {
				res.OK = true
				res.Cached = true
				return res
			}
		} else {
			cache = nil
		}
	}

	tf, err := LoadTestFile(path, name)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return res
	}

	subtests := tf.Subtests
	if opts.Subtest != nil {
		pick := SelectSubtest(*opts.Subtest, len(subtests))
		for _, st := range subtests {
			if st.Index != pick {
				res.Debug = append(res.Debug, fmt.Sprintf("Skipped subtest %d.", st.Index))
			}
		}
		subtests = subtests[pick:][:1]
	}

	world := base.Clone()
	rng := fuzz.NewLinearShift()

	// Pages from reference-compared subtests accumulate into one
	// composite image per file; PDF export takes the same pages.
	// compareEver records whether any subtest asked for comparison at
	// all; a file whose subtests all opt out skips the golden phase
	// even when a stale reference image lingers on disk.
	var refDoc doc.Document
	compareEver := false

	for _, st := range subtests {
		world.SetMain(name, st.Text)
		file := world.Main()

		meta, err := expect.Parse(file)
		if err != nil {
			res.Failures = append(res.Failures, fmt.Sprintf("Subtest %d: %v", st.Index, err))
			continue
		}

		document, bag := compile.Compile(world)

		mismatches := expect.Match(meta.Annotations, expect.FromDiagnostics(bag, world.MainID()))
		if len(mismatches) > 0 {
			res.Failures = append(res.Failures,
				fmt.Sprintf("Subtest %d does not match expected errors.", st.Index))
			for _, m := range mismatches {
				res.Failures = append(res.Failures, "  "+formatMismatch(world.Files, world.MainID(), st.LineOffset, m))
			}
		}

		root := syntax.Parse(st.Text)
		res.Failures = append(res.Failures, checkSpans(st.Index, root)...)

		fz := fuzz.Reparse(st.Text, rng)
		if !fz.OK() {
			res.Failures = append(res.Failures,
				fmt.Sprintf("Subtest %d incremental reparse failed.", st.Index))
			res.Failures = append(res.Failures, fz.Report())
		}

		if refSetting(tf, meta) {
			compareEver = true
			refDoc.Pages = append(refDoc.Pages, document.Pages...)
		}

		if opts.PrintSyntax {
			res.Debug = append(res.Debug, syntax.Dump(root))
		}
		if opts.PrintModel {
			res.Debug = append(res.Debug, doc.DumpModel(document))
		}
		if opts.PrintFrames {
			res.Debug = append(res.Debug, doc.DumpFrames(document))
		}
	}

	res.Updated = compareGolden(&res, opts, compareEver, &refDoc, refPath)

	if opts.PDF && len(refDoc.Pages) > 0 {
		pdfPath := filepath.Join(opts.Root, opts.Config.Paths.Pdf, strings.TrimSuffix(name, TestExt)+".pdf")
		if err := writePDF(&refDoc, pdfPath); err != nil {
			res.Failures = append(res.Failures, err.Error())
		}
	}

	res.OK = len(res.Failures) == 0
	if res.OK && cache != nil {
		if err := cache.RecordPass(key); err != nil {
			// Not a test failure; the next run just recomputes.
			res.Debug = append(res.Debug, "cache write failed: "+err.Error())
		}
	}
	return res
}

// compareGolden runs the file-level image comparison and reports
// whether the reference was updated. The phase only runs when at least
// one subtest requested comparison; a compared file with pages but no
// reference image fails through the comparator's missing-reference
// branch.
func compareGolden(res *FileResult, opts Options, compareEver bool, refDoc *doc.Document, refPath string) bool {
	if !compareEver {
		return false
	}
	if len(refDoc.Pages) == 0 {
		if _, err := os.Stat(refPath); err != nil {
			return false
		}
	}

	img, err := render.Raster(refDoc)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return false
	}
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
			res.Failures = append(res.Failures, err.Error())
			return false
		}
	}
	cmpRes, err := render.Compare(img, refPath, opts.Update)
	if err != nil {
		res.Failures = append(res.Failures, err.Error())
		return false
	}
	switch cmpRes.Status {
	case render.StatusMismatch:
		res.Failures = append(res.Failures,
			fmt.Sprintf("Does not match reference image: %s (%s)", refPath, cmpRes.Reason))
	case render.StatusUpdated:
		res.Debug = append(res.Debug, "Updated reference image.")
	}
	return cmpRes.Status == render.StatusUpdated
}

// checkSpans verifies preorder span numbering on a subtest's unedited
// tree before the fuzzer starts mutating it.
func checkSpans(index int, root *syntax.Node) []string {
	v := testkit.CheckSpanOrder(root)
	if v == nil {
		return nil
	}
	return []string{
		fmt.Sprintf("Subtest %d violates span ordering.", index),
		v.Report(),
	}
}

func writePDF(d *doc.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, render.PDF(d), 0o644)
}

// formatMismatch renders one annotation mismatch with file-absolute
// one-based positions, so the report points into the fixture file
// rather than the subtest fragment.
func formatMismatch(set *source.FileSet, id source.FileID, lineOffset int, m expect.Mismatch) string {
	a := m.Annotation
	label := "Not annotated"
	if m.Kind == expect.NotEmitted {
		label = "Not emitted"
	}
	start, end := set.Resolve(annotationSpan(id, a))
	shift := safeLineShift(lineOffset)
	return fmt.Sprintf("%s: Error: %d:%d-%d:%d %s",
		label, start.Line+shift, start.Col, end.Line+shift, end.Col, a.Message)
}

func annotationSpan(id source.FileID, a expect.Annotation) source.Span {
	s, err := safecast.Conv[uint32](a.Start)
	if err != nil {
		panic(fmt.Errorf("annotation start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](a.End)
	if err != nil {
		panic(fmt.Errorf("annotation end overflow: %w", err))
	}
	return source.Span{File: id, Start: s, End: e}
}

func safeLineShift(lineOffset int) uint32 {
	shift, err := safecast.Conv[uint32](lineOffset)
	if err != nil {
		panic(fmt.Errorf("line offset overflow: %w", err))
	}
	return shift
}
