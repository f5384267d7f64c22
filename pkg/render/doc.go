// Package render draws store node graphs as node-link diagrams.
//
// [ToDOT] turns the nodes of a store, or the part reachable from a set of
// entries, into Graphviz DOT source. [RenderSVG] lays it out in-process:
//
//	dot := render.ToDOT(s, render.Options{Entries: []any{"task1"}, Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToPDF] and [ToPNG] convert the SVG with the external rsvg-convert tool
// from librsvg; [Render] picks the conversion by format name.
//
// This package uses [github.com/goccy/go-graphviz] for layout.
package render
