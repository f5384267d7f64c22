package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		lo    loadOptions
		start string
	)

	cmd := &cobra.Command{
		Use:   "browse <dump.json>",
		Short: "Navigate a dump interactively",
		Long: `Load a dump and browse it in the terminal.

The top level lists every node. Enter opens a node and shows its entries;
entering a reference follows it, and backspace goes back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, _, err := c.loadStore(ctx, args[0], lo)
			if err != nil {
				return err
			}

			m := NewNodeBrowserModel(s, nil)
			if start != "" {
				n := s.Get(start)
				if n == nil {
					return fmt.Errorf("unknown node %q", start)
				}
				m = NewNodeBrowserModel(s, n)
			}

			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	lo.register(cmd)
	cmd.Flags().StringVar(&start, "node", "", "open this node first")
	return cmd
}
