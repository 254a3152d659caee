package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vellum/internal/compile"
	"vellum/internal/doc"
	"vellum/internal/runner"
	"vellum/internal/syntax"
)

var (
	parseShowModel  bool
	parseShowFrames bool
)

func init() {
	parseCmd.Flags().BoolVar(&parseShowModel, "model", false, "also dump the compiled document model")
	parseCmd.Flags().BoolVar(&parseShowFrames, "frames", false, "also dump the laid-out frames")
}

var parseCmd = &cobra.Command{
	Use:   "parse <fixture>",
	Short: "Dump the syntax tree of a fixture's subtests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tf, err := runner.LoadTestFile(args[0], args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, st := range tf.Subtests {
			if len(tf.Subtests) > 1 {
				fmt.Fprintf(out, "--- subtest %d (line %d)\n", st.Index, st.LineOffset+1)
			}
			fmt.Fprint(out, syntax.Dump(syntax.Parse(st.Text)))

			if parseShowModel || parseShowFrames {
				world := compile.NewWorld(compile.DefaultLibrary())
				world.SetMain(args[0], st.Text)
				document, bag := compile.Compile(world)
				for _, d := range bag.Items() {
					fmt.Fprintf(out, "%s: %s\n", d.Severity, d.Message)
				}
				if parseShowModel {
					fmt.Fprint(out, doc.DumpModel(document))
				}
				if parseShowFrames {
					fmt.Fprint(out, doc.DumpFrames(document))
				}
			}
		}
		return nil
	},
}
