package cli

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/dump"
	"github.com/matzehuels/scatter/pkg/store"
)

// gcCommand creates the gc command.
func (c *CLI) gcCommand() *cobra.Command {
	var (
		lo      loadOptions
		output  string
		entries []string
		keep    []string
		maxIter int
	)

	cmd := &cobra.Command{
		Use:   "gc <dump.json>",
		Short: "Remove unreachable nodes from a dump",
		Long: `Load a dump, collect garbage and write the surviving records.

Without --entry, orphans are disposed repeatedly until none are left; nodes
kept alive only by a reference cycle survive. With --entry, every node not
reachable from the entries is removed, cycles included. Without -o the
removed ids are only reported.`,
		Example: `  # Dispose orphans in place
  scatter gc shop.json -o shop.json

  # Keep only what task1 reaches, plus the settings node
  scatter gc shop.json --entry task1 --keep settings -o small.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := c.loadStore(cmd.Context(), args[0], lo)
			if err != nil {
				return err
			}
			before := s.Len()

			var skips store.Selector
			if len(keep) > 0 {
				skips = store.SelectIDs(keep...)
			}

			var removed []string
			if len(entries) > 0 {
				removed = s.Treeshake(store.TreeshakeOptions{Entries: []any{entries}, Skips: skips})
			} else {
				removed = s.DisposeOrphans(store.OrphanOptions{MaxIterations: maxIter, Skips: skips})
			}

			if output == "-" {
				loggerFromContext(cmd.Context()).Info("collected garbage", "removed", len(removed), "nodes", before)
			} else {
				printSuccess("Removed %d of %d nodes", len(removed), before)
				for _, id := range removed {
					printDetail("%s", id)
				}
			}
			if output == "" {
				printNextStep("Write the result with", "scatter gc "+args[0]+" -o <out.json>")
				return nil
			}

			res := dump.Dump(s, dump.Options{Entries: []any{s.Nodes()}})
			var buf bytes.Buffer
			if err := dump.WriteJSON(res.Records, &buf); err != nil {
				return err
			}
			if err := writeOutput(output, buf.Bytes()); err != nil {
				return err
			}
			if output != "-" {
				printFile(output)
			}
			return nil
		},
	}

	lo.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	cmd.Flags().StringSliceVarP(&entries, "entry", "e", nil, "treeshake from these node ids instead of disposing orphans")
	cmd.Flags().StringSliceVar(&keep, "keep", nil, "node ids to keep even when unreachable")
	cmd.Flags().IntVar(&maxIter, "max-iterations", store.DefaultMaxIterations, "orphan disposal passes")
	return cmd
}
