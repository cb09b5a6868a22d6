package main

import (
	"fmt"

	"github.com/bethropolis/blockpatch/internal/buffer"
	"github.com/bethropolis/blockpatch/internal/logger"
	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/bethropolis/blockpatch/internal/plan"
	"github.com/bethropolis/blockpatch/internal/utils"
	"github.com/spf13/cobra"
)

func newLocateCmd(c *cli) *cobra.Command {
	var (
		spec      plan.StageSpec
		startLine int
		endLine   int
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "locate <target>",
		Short: "Resolve a single patch region and print where it is",
		Example: `  blockpatch locate src/Page.jsx --marker "const LATEX_STORE =" --anchor before --strategy brace --terminator ";"
  blockpatch locate notes.txt --strategy lines --start-line 1 --end-line 2`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("start-line") {
				spec.StartLine = &startLine
			}
			if cmd.Flags().Changed("end-line") {
				spec.EndLine = &endLine
			}
			empty := ""
			spec.Replacement = &empty

			pt, err := plan.CompileStage(spec, ".", c.cfg.Occurrence())
			if err != nil {
				return usageError{err}
			}
			f, err := buffer.NewFileStore(c.cfg.Patch.Encoding).Load(args[0])
			if err != nil {
				return err
			}
			region, err := patch.Resolve(f.Document, pt)
			if err != nil {
				return err
			}

			text := f.Document.String()
			start := utils.PositionAt(text, region.Start)
			end := utils.PositionAt(text, region.End)
			logger.DebugTagf("locate", "%s resolved to %s", pt.Strategy.Name(), region)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s-%s %s (%d bytes)\n", args[0], start, end, region, region.Len())
			if !quiet {
				fmt.Fprint(out, f.Document.Slice(region))
				if region.Len() > 0 && text[region.End-1] != '\n' {
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&spec.Marker, "marker", "", "Literal start marker (guard marker for --strategy lines)")
	fl.StringVar(&spec.Anchor, "anchor", "", "Region starts after the marker (after, default) or at it (before)")
	fl.StringVar(&spec.Strategy, "strategy", "", "End rule: literal, brace, lines or insert")
	fl.StringVar(&spec.EndMarker, "end-marker", "", "End marker for --strategy literal")
	fl.BoolVar(&spec.Exclusive, "exclusive", false, "Stop before the end marker instead of after it")
	fl.StringVar(&spec.Open, "open", "", "Opening brace for --strategy brace (default {)")
	fl.StringVar(&spec.Close, "close", "", "Closing brace for --strategy brace (default })")
	fl.StringVar(&spec.Terminator, "terminator", "", "Character swallowed right after the closing brace, e.g. ;")
	fl.IntVar(&startLine, "start-line", 0, "First line, zero-based, for --strategy lines")
	fl.IntVar(&endLine, "end-line", 0, "Last line, inclusive (defaults to --start-line)")
	fl.BoolVarP(&quiet, "quiet", "q", false, "Print only the position, not the region text")
	return cmd
}
