package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"vellum/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "vellum [filter...]",
	Short: "Differential regression harness for the vellum compiler",
	Long: `vellum runs the compiler's test fixtures: it fuzzes incremental
reparsing against from-scratch parsing, matches emitted diagnostics
against inline annotations, and diffs rendered pages against golden
images.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runHarness,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		if err != errRunFailed {
			rootCmd.PrintErrln("error:", err)
		}
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
