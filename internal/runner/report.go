package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	passMark = color.New(color.FgGreen, color.Bold)
	failMark = color.New(color.FgRed, color.Bold)
	dimText  = color.New(color.Faint)
)

// Reporter writes the human-readable run report. With quiet set, only
// failures and the final summary are printed.
type Reporter struct {
	Out   io.Writer
	Quiet bool
}

// File prints the outcome of one test file.
func (r *Reporter) File(res FileResult) {
	switch {
	case res.OK && res.Cached:
		if !r.Quiet {
			fmt.Fprintf(r.Out, "%s %s %s\n", passMark.Sprint("✔"), res.Name, dimText.Sprint("(cached)"))
		}
	case res.OK:
		if !r.Quiet {
			fmt.Fprintf(r.Out, "%s %s\n", passMark.Sprint("✔"), res.Name)
		}
	default:
		fmt.Fprintf(r.Out, "%s %s\n", failMark.Sprint("❌"), res.Name)
		for _, line := range res.Failures {
			fmt.Fprintf(r.Out, "  %s\n", line)
		}
	}
	for _, dump := range res.Debug {
		fmt.Fprintln(r.Out, dump)
	}
}

// Summary prints the final tally and, when golden images differ, how to
// accept them.
func (r *Reporter) Summary(s *Summary, update bool) {
	if s.OK() {
		passMark.Fprintf(r.Out, "ok: %d / %d tests passed.\n", s.Passed, s.Total)
	} else {
		failMark.Fprintf(r.Out, "error: %d / %d tests passed.\n", s.Passed, s.Total)
		if !update {
			fmt.Fprintln(r.Out, "hint: rerun with --update to accept changed golden images")
		}
	}
	if s.Updated {
		fmt.Fprintln(r.Out, "golden images were updated; review and commit them")
	}
}
