package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/cache"
	"github.com/matzehuels/scatter/pkg/dump"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the record cache",
		Long: `Push and pull node records to the configured cache backend.

Pushed records are stored one per node id, so that "inspect --fetch" and the
other commands can resolve references a dump leaves dangling. Whole dumps can
also be stored under a name and pulled back later.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cachePushCommand())
	cmd.AddCommand(c.cachePullCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the file cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend != backendFile {
				printWarning("Cache backend %q expires entries by itself", c.Config.Cache.Backend)
				return nil
			}
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.fileCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(stdout, dir)
			return nil
		},
	}
}

// cachePushCommand creates the "cache push" subcommand.
func (c *CLI) cachePushCommand() *cobra.Command {
	var (
		name    string
		entries []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "push <dump.json>",
		Short: "Store the records of a dump in the cache",
		Example: `  # Make every record available to --fetch
  scatter cache push shop.json

  # Also keep the dump itself under a name
  scatter cache push shop.json --name shop --entry task1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := dump.ImportJSON(args[0])
			if err != nil {
				return err
			}

			ch, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			err = c.withSpinner(ctx, fmt.Sprintf("Pushing %d records...", len(records)), func(ctx context.Context) error {
				if err := dump.SaveRecords(ctx, ch, c.keyer(), records, ttl); err != nil {
					return err
				}
				if name == "" {
					return nil
				}
				return dump.SaveDump(ctx, ch, c.keyer(), name, entries, records, cache.TTLDump)
			})
			if err != nil {
				return fmt.Errorf("push %s: %w", args[0], err)
			}

			printSuccess("Pushed %d records to the %s cache", len(records), c.Config.Cache.Backend)
			if name != "" {
				printDetail("Dump: %s", name)
				printNextStep("Pull it with", "scatter cache pull "+name+" -o "+name+".json")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "also store the whole dump under this name")
	cmd.Flags().StringSliceVarP(&entries, "entry", "e", nil, "entry ids the named dump was taken from")
	cmd.Flags().DurationVar(&ttl, "ttl", cache.TTLRecord, "record expiry")
	return cmd
}

// cachePullCommand creates the "cache pull" subcommand.
func (c *CLI) cachePullCommand() *cobra.Command {
	var (
		output  string
		entries []string
	)

	cmd := &cobra.Command{
		Use:   "pull <name>",
		Short: "Fetch a named dump from the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ch, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer ch.Close()

			var records []dump.Record
			err = c.withSpinner(ctx, "Pulling "+args[0]+"...", func(ctx context.Context) error {
				var err error
				records, err = dump.FetchDump(ctx, ch, c.keyer(), args[0], entries)
				return err
			})
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := dump.WriteJSON(records, &buf); err != nil {
				return err
			}
			if err := writeOutput(output, buf.Bytes()); err != nil {
				return err
			}
			if output != "" && output != "-" {
				printSuccess("Pulled %d records", len(records))
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringSliceVarP(&entries, "entry", "e", nil, "entry ids given when the dump was pushed")
	return cmd
}

// fileCacheDir is the configured file cache directory or the XDG default.
func (c *CLI) fileCacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// withSpinner runs fn behind a spinner for network backends. The file and
// null caches are fast enough to run bare.
func (c *CLI) withSpinner(ctx context.Context, msg string, fn func(context.Context) error) error {
	switch c.Config.Cache.Backend {
	case backendRedis, backendMongo:
	default:
		return fn(ctx)
	}

	spinner := newSpinnerWithContext(ctx, msg)
	spinner.Start()
	err := fn(ctx)
	spinner.Stop()
	return err
}
