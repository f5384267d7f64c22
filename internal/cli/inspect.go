package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/store"
	"github.com/matzehuels/scatter/pkg/walk"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		lo      loadOptions
		entries []string
		mode    string
		depth   int
	)

	cmd := &cobra.Command{
		Use:   "inspect <dump.json>",
		Short: "Report the nodes, references and orphans of a dump",
		Long: `Load a dump into a store and report what it holds.

Without --entry, every node is listed with its schema and reference count,
followed by the orphans. With --entry, the graph reachable from the given
nodes is printed as a tree in walk order.`,
		Example: `  # Summary of a dump
  scatter inspect shop.json

  # Depth-first tree below one node
  scatter inspect shop.json --entry task1 --mode dfs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := c.loadStore(cmd.Context(), args[0], lo)
			if err != nil {
				return err
			}

			printSuccess("Loaded %s", args[0])
			printStats(statsOf(s))

			if len(entries) > 0 {
				return printTree(s, entries, walk.ParseMode(mode), depth)
			}
			printNodes(s)
			return nil
		},
	}

	lo.register(cmd)
	cmd.Flags().StringSliceVarP(&entries, "entry", "e", nil, "print the tree reachable from these node ids")
	cmd.Flags().StringVar(&mode, "mode", "bfs", "walk mode for --entry: bfs or dfs")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum tree depth for --entry (0 = unlimited)")
	return cmd
}

func printNodes(s *store.Store) {
	rows := make([][]string, 0, s.Len())
	for _, n := range s.Nodes() {
		kind := "object"
		if n.IsArray() {
			kind = "array"
		}
		rows = append(rows, []string{n.ID(), schemaLabel(n), kind, fmt.Sprint(n.RefCount())})
	}
	printTable([]string{"Node", "Schema", "Kind", "Referrers"}, rows)

	orphans := s.Orphans()
	if len(orphans) == 0 {
		return
	}
	ids := make([]string, len(orphans))
	for i, n := range orphans {
		ids[i] = n.ID()
	}
	printWarning("%d orphans: %s", len(orphans), strings.Join(ids, ", "))
	printNextStep("Collect them with", "scatter gc <dump.json> -o <out.json>")
}

// printTree prints one line per walk step, indented by path depth. Repeat
// visits are marked and not expanded.
func printTree(s *store.Store, entries []string, mode walk.Mode, depth int) error {
	roots := s.NodeInfos(entries)
	if len(roots) != len(entries) {
		return fmt.Errorf("unknown entry in %s", strings.Join(entries, ", "))
	}

	return walk.Walk(s, roots, func(st *walk.Step) (walk.Decision, error) {
		indent := strings.Repeat("  ", len(st.Path))
		key := ""
		if st.Key != "" {
			key = StyleDim.Render(st.Key+":") + " "
		}
		line := indent + key + StyleHighlight.Render(st.NodeID) + " " + StyleDim.Render(schemaLabel(st.Node))
		if st.IsVisited > 0 {
			fmt.Fprintln(stdout, line+" "+StyleDim.Render("(seen)"))
			return walk.SkipChildren, nil
		}
		fmt.Fprintln(stdout, line)
		if depth > 0 && len(st.Path) >= depth {
			return walk.SkipChildren, nil
		}
		return walk.Continue, nil
	}, walk.Options{Mode: mode})
}

func schemaLabel(n *store.Node) string {
	if id := n.Schema().ID(); id != "" {
		return id
	}
	return "(no schema)"
}
