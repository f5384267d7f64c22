package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scatter/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path (multiple)
	formats  []string // "dot", "svg", "pdf", "png"
	entries  []string // restrict to nodes reachable from these ids
	detailed bool     // schema ids and plain fields in labels
	rankDir  string   // Graphviz rankdir
	scale    float64  // PNG scale factor
	load     loadOptions
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{rankDir: "TB", scale: 2}

	cmd := &cobra.Command{
		Use:   "render <dump.json>",
		Short: "Draw a dump as a node-link diagram",
		Long: `Render the node graph of a dump with Graphviz.

Every node becomes a box and every reference an arrow labelled with its key.
Arrays are filled blue and orphans drawn dashed. PDF and PNG output requires
rsvg-convert from librsvg.`,
		Example: `  # SVG next to the dump
  scatter render shop.json

  # Detailed PNG of what task1 reaches
  scatter render shop.json --entry task1 --detailed -f png -o task1.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	opts.load.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringSliceVarP(&opts.entries, "entry", "e", nil, "only draw nodes reachable from these ids")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show schema ids and fields in labels")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", opts.rankDir, "layout direction: TB, LR, BT, RL")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")

	return cmd
}

// parseFormats parses the --format flag. Empty means svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

var validFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// basePath derives the output path without extension: the input name when
// output is empty, otherwise output with any format extension stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	s, _, err := c.loadStore(ctx, input, opts.load)
	if err != nil {
		return err
	}
	ro := render.Options{Detailed: opts.detailed, RankDir: opts.rankDir}
	if len(opts.entries) > 0 {
		ro.Entries = []any{opts.entries}
	}
	dot := render.ToDOT(s, ro)
	logger.Debug("generated DOT", "nodes", s.Len(), "bytes", len(dot))

	base := basePath(opts.output, input)
	var written []string
	for _, format := range opts.formats {
		data, err := render.Render(ctx, dot, format, opts.scale)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}

		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := writeOutput(path, data); err != nil {
			return err
		}
		written = append(written, path)
	}

	if opts.output == "-" {
		return nil
	}
	printSuccess("Rendered %d nodes", s.Len())
	for _, p := range written {
		printFile(p)
	}
	return nil
}
