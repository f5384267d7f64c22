package store

import (
	"time"

	"github.com/matzehuels/scatter/pkg/observability"
)

// DefaultMaxIterations bounds DisposeOrphans when no limit is given.
const DefaultMaxIterations = 100

// Selector matches nodes.
type Selector func(n *Node) bool

// SelectIDs matches nodes by id.
func SelectIDs(ids ...string) Selector {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(n *Node) bool {
		_, ok := set[n.id]
		return ok
	}
}

// OrphanOptions configures DisposeOrphans.
type OrphanOptions struct {
	// MaxIterations bounds the number of passes. Zero means 100.
	MaxIterations int

	// Skips keeps matching orphans alive.
	Skips Selector
}

// DisposeOrphans repeatedly disposes unreferenced nodes until a pass
// disposes nothing. Disposing a node releases its children, which may turn
// them into orphans for the next pass. Reference cycles are never orphans
// and therefore survive; use [Store.Treeshake] to collect them.
//
// It returns the ids of the disposed nodes in disposal order.
func (s *Store) DisposeOrphans(opts OrphanOptions) []string {
	start := time.Now()
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var ids []string
	skipped := make(map[*Node]bool)
	for iter := 0; iter < maxIter; iter++ {
		disposed := 0
		for _, n := range s.Orphans() {
			if skipped[n] || n.store != s {
				continue
			}
			if opts.Skips != nil && opts.Skips(n) {
				skipped[n] = true
				continue
			}
			id := n.id
			if err := n.Dispose(false); err != nil {
				continue
			}
			ids = append(ids, id)
			disposed++
		}
		if disposed == 0 {
			break
		}
	}

	dur := time.Since(start)
	s.logger.Debug("disposed orphan nodes", "count", len(ids), "skipped", len(skipped), "remaining", len(s.nodes), "duration", dur)
	observability.GC().OnOrphansDisposed(ids, dur)
	return ids
}

// TreeshakeOptions configures Treeshake.
type TreeshakeOptions struct {
	// Entries are the roots to keep: node ids, nodes or slices of either.
	Entries []any

	// Skips marks additional nodes (and everything they reach) to keep.
	Skips Selector

	// BeforeDispose receives every node about to be removed while its data
	// is still readable.
	BeforeDispose func(nodes []*Node)
}

// Treeshake disposes every node not reachable from the entries.
//
// Marking runs twice: first from the entries, then from unmarked nodes
// matched by Skips. Removed nodes are force-disposed, so cycles are collected
// too. It returns the ids of the removed nodes in creation order.
func (s *Store) Treeshake(opts TreeshakeOptions) []string {
	start := time.Now()

	remove := make(map[*Node]bool, len(s.nodes))
	for _, n := range s.nodes {
		remove[n] = true
	}

	queue := s.NodeInfos(opts.Entries...)
	for pass := 1; pass <= 2; pass++ {
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if !remove[n] {
				continue
			}
			delete(remove, n)
			for _, k := range n.RefKeys() {
				queue = append(queue, n.refs[k])
			}
		}

		if pass == 1 && opts.Skips != nil {
			for _, n := range s.Nodes() {
				if remove[n] && opts.Skips(n) {
					queue = append(queue, n)
				}
			}
		}
	}

	doomed := make([]*Node, 0, len(remove))
	for n := range remove {
		doomed = append(doomed, n)
	}
	sortBySeq(doomed)

	if opts.BeforeDispose != nil {
		opts.BeforeDispose(doomed)
	}

	ids := make([]string, 0, len(doomed))
	for _, n := range doomed {
		ids = append(ids, n.id)
		_ = n.Dispose(true)
	}

	dur := time.Since(start)
	s.logger.Debug("treeshake", "kept", len(s.nodes), "removed", len(ids), "duration", dur)
	observability.GC().OnTreeshake(len(s.nodes), len(ids), dur)
	return ids
}
