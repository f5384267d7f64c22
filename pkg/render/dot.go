package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/scatter/pkg/store"
	"github.com/matzehuels/scatter/pkg/walk"
)

// maxValueLen truncates field values in detailed labels.
const maxValueLen = 32

// Options configures DOT generation.
type Options struct {
	// Entries limits the diagram to nodes reachable from these ids or
	// nodes. Empty means every node of the store.
	Entries []any

	// Detailed adds the schema id and plain fields to node labels.
	Detailed bool

	// RankDir is the Graphviz layout direction. Defaults to "TB".
	RankDir string
}

// ToDOT converts a store's node graph to Graphviz DOT. Each node becomes a
// box and each reference an arrow labelled with its key. Arrays are drawn
// with a blue fill and orphans with a dashed outline.
//
// Node order follows a BFS walk from the entries, or creation order when no
// entries are given, so the output is stable for a given store.
func ToDOT(s *store.Store, opts Options) string {
	nodes := s.Nodes()
	if len(opts.Entries) > 0 {
		nodes = walk.Nodes(s, opts.Entries, walk.Options{})
	}
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		attrs := fmtAttrs(s, n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, key := range n.RefKeys() {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", n.ID(), n.Ref(key).ID(), key)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *store.Node, detailed bool) string {
	if !detailed {
		return n.ID()
	}

	schemaID := n.Schema().ID()
	if schemaID == "" {
		schemaID = "(no schema)"
	}
	parts := []string{n.ID(), schemaID}
	if n.IsArray() {
		parts = append(parts, fmt.Sprintf("length: %d", len(n.Entries())))
		return strings.Join(parts, "\n")
	}
	for _, e := range n.Entries() {
		if n.Ref(e.Key) != nil || e.Value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", e.Key, truncate(fmt.Sprint(e.Value))))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(s *store.Store, n *store.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsArray() {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	if s.IsOrphan(n) {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func truncate(v string) string {
	if len(v) <= maxValueLen {
		return v
	}
	return v[:maxValueLen-3] + "..."
}
