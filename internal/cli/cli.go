package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/buildinfo"
	"github.com/matzehuels/scatter/pkg/dump"
	"github.com/matzehuels/scatter/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "scatter"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration file is read before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Scatter inspects and maintains schema-typed node graphs",
		Long:         `Scatter loads dumps of schema-typed node graphs into an in-memory store to inspect, collect, render, serve and cache them.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+defaultConfigFile+")")

	// Register all subcommands
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.gcCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Store Loading
// =============================================================================

// loadOptions are the flags shared by commands that read a dump file.
type loadOptions struct {
	// fetch resolves references missing from the file through the cache.
	fetch bool
}

func (o *loadOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.fetch, "fetch", false, "resolve missing references from the record cache")
}

// loadStore reads a dump file into a fresh store.
func (c *CLI) loadStore(ctx context.Context, path string, opts loadOptions) (*store.Store, *dump.LoadResult, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	records, err := dump.ImportJSON(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.newStore()
	if err != nil {
		return nil, nil, err
	}

	lo := dump.LoadOptions{Records: records, Store: s}
	if opts.fetch {
		ch, err := c.newCache(ctx, false)
		if err != nil {
			return nil, nil, err
		}
		defer ch.Close()
		lo.Loader = dump.Retrying(dump.CacheLoader(ch, c.keyer()))
	}

	res, err := dump.Load(ctx, lo)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", path, err)
	}
	prog.done(fmt.Sprintf("Loaded %d records from %s", len(res.Loaded), filepath.Base(path)))
	return s, res, nil
}

// statsOf counts nodes, arrays, references and orphans.
func statsOf(s *store.Store) storeStats {
	st := storeStats{Nodes: s.Len(), Orphans: len(s.Orphans())}
	for _, n := range s.Nodes() {
		if n.IsArray() {
			st.Arrays++
		}
		st.Refs += len(n.RefKeys())
	}
	return st
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scatter/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// writeOutput writes data to path, or to stdout for "" and "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
