package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vellum/internal/runner"
)

// errRunFailed signals a failing test run without printing a second
// error line; the reporter already said everything.
var errRunFailed = errors.New("test run failed")

var (
	flagExact       bool
	flagSubtest     int
	flagUpdate      bool
	flagPDF         bool
	flagJobs        int
	flagNoCache     bool
	flagPrintSyntax bool
	flagPrintModel  bool
	flagPrintFrames bool
	flagUI          = uiAuto
	flagWatch       bool
)

func init() {
	flags := rootCmd.Flags()
	flags.BoolVar(&flagExact, "exact", false, "match filters against whole test names")
	flags.IntVar(&flagSubtest, "subtest", 0, "run a single subtest per file (negative counts from the end)")
	flags.BoolVar(&flagUpdate, "update", false, "write golden images instead of failing on mismatch")
	flags.BoolVar(&flagPDF, "pdf", false, "also export each file's pages as PDF")
	flags.IntVar(&flagJobs, "jobs", 0, "parallel file workers (0 = one per CPU)")
	flags.BoolVar(&flagNoCache, "no-cache", false, "ignore the result cache")
	flags.BoolVar(&flagPrintSyntax, "print-syntax", false, "dump each subtest's syntax tree")
	flags.BoolVar(&flagPrintModel, "print-model", false, "dump each subtest's document model")
	flags.BoolVar(&flagPrintFrames, "print-frames", false, "dump each subtest's laid-out frames")
	flags.Var(&flagUI, "ui", "interactive progress display (auto|on|off)")
	flags.BoolVar(&flagWatch, "watch", false, "rerun matching tests when fixtures change")
}

func runHarness(cmd *cobra.Command, args []string) error {
	applyColorMode(cmd)
	quiet, _ := cmd.Flags().GetBool("quiet")

	cfg, root, err := runner.LoadConfig(".")
	if err != nil {
		return err
	}

	jobs := flagJobs
	if jobs == 0 {
		jobs = cfg.Run.Jobs
	}

	opts := runner.Options{
		Root:        root,
		Config:      cfg,
		Filters:     args,
		Exact:       flagExact,
		Update:      flagUpdate || cfg.Run.Update || os.Getenv("UPDATE_EXPECT") != "",
		Jobs:        jobs,
		PDF:         flagPDF,
		NoCache:     flagNoCache,
		PrintSyntax: flagPrintSyntax,
		PrintModel:  flagPrintModel,
		PrintFrames: flagPrintFrames,
	}
	if cmd.Flags().Changed("subtest") {
		opts.Subtest = &flagSubtest
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagWatch {
		return watchLoop(ctx, cmd, opts, quiet)
	}
	return runOnce(ctx, cmd, opts, quiet)
}

func runOnce(ctx context.Context, cmd *cobra.Command, opts runner.Options, quiet bool) error {
	var summary *runner.Summary
	var err error
	if flagUI.enabled() && !quiet && !hasDebugOutput(opts) {
		summary, err = runWithUI(ctx, opts)
	} else {
		summary, err = runner.Run(ctx, opts)
	}
	if err != nil {
		return err
	}

	reporter := &runner.Reporter{Out: cmd.OutOrStdout(), Quiet: quiet}
	for _, res := range summary.Results {
		reporter.File(res)
	}
	reporter.Summary(summary, opts.Update)

	if !summary.OK() {
		return errRunFailed
	}
	return nil
}

func hasDebugOutput(opts runner.Options) bool {
	return opts.PrintSyntax || opts.PrintModel || opts.PrintFrames
}

func applyColorMode(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		// fatih/color already detects non-terminal output.
	}
}
