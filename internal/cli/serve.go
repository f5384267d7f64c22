package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		lo   loadOptions
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve <dump.json>",
		Short: "Serve a dump through a read-only HTTP API",
		Long: `Load a dump and expose it as JSON until interrupted.

Routes: /health, /stats, /nodes, /nodes/{id}, /nodes/{id}/dump,
/nodes/{id}/snapshot, /orphans, /schemas and /schemas/{id}.`,
		Example: `  scatter serve shop.json --addr :9090
  curl localhost:9090/nodes/task1/dump`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, _, err := c.loadStore(ctx, args[0], lo)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = c.Config.Serve.Addr
			}

			srv := server.New(s, server.Config{Addr: addr, Logger: loggerFromContext(ctx)})
			printNextStep("Press Ctrl+C to stop", "curl http://"+displayAddr(addr)+"/stats")
			return srv.Run(ctx)
		},
	}

	lo.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
