package walk

import (
	"slices"
	"strings"

	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

// Mode selects the traversal order.
type Mode int

const (
	// BFS visits nodes level by level. It is the default.
	BFS Mode = iota
	// DFS visits a node's children before its siblings.
	DFS
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == DFS {
		return "DFS"
	}
	return "BFS"
}

// ParseMode accepts "bfs" or "dfs" in any case. Anything else is BFS.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "dfs") {
		return DFS
	}
	return BFS
}

// Options configures Walk.
type Options struct {
	Mode Mode

	// StartPath prefixes the Path of every root step.
	StartPath []string
}

// Step describes one visit.
type Step struct {
	Store  *store.Store
	Node   *store.Node
	Schema *schema.Schema
	NodeID string

	// Path is the chain of keys from the root, after Options.StartPath.
	// Array indices appear in decimal form.
	Path []string

	// Key is the last element of Path, or "" for a root with no start path.
	Key string

	// Ancestors are the steps that led here, root first.
	Ancestors []*Step

	// IsVisited counts the earlier steps for the same node: 0 on the first
	// visit, n on the n-th repeat.
	IsVisited int

	visits *[]*Step
}

// Visits returns every step created for this node so far, in visiting
// order. It grows as the walk reaches the node again.
func (st *Step) Visits() []*Step {
	return slices.Clone(*st.visits)
}

// Parent returns the step this one was reached from, or nil for roots.
func (st *Step) Parent() *Step {
	if len(st.Ancestors) == 0 {
		return nil
	}
	return st.Ancestors[len(st.Ancestors)-1]
}

// KeySelector matches a child reference during expansion.
type KeySelector func(key string, child, parent *store.Node) bool

// Keys matches references stored under any of the given keys.
func Keys(keys ...string) KeySelector {
	return func(key string, _, _ *store.Node) bool {
		return slices.Contains(keys, key)
	}
}

// Decision tells Walk how to continue after a visit. The zero value expands
// every child.
type Decision struct {
	abort    bool
	restrict bool
	only     []KeySelector
	skips    []KeySelector
}

var (
	// Continue expands every child.
	Continue = Decision{}
	// SkipChildren expands nothing below the current node.
	SkipChildren = Decision{restrict: true}
	// AbortAll ends the walk immediately. Queued steps are discarded.
	AbortAll = Decision{abort: true}
)

// Only expands the children matched by at least one selector. With no
// selectors it behaves like SkipChildren.
func Only(sel ...KeySelector) Decision {
	return Decision{restrict: true, only: sel}
}

// Skip expands every child not matched by any selector.
func Skip(sel ...KeySelector) Decision {
	return Decision{skips: sel}
}

// Only restricts d further.
func (d Decision) Only(sel ...KeySelector) Decision {
	d.restrict = true
	d.only = append(slices.Clone(d.only), sel...)
	return d
}

// Skip adds exclusions to d.
func (d Decision) Skip(sel ...KeySelector) Decision {
	d.skips = append(slices.Clone(d.skips), sel...)
	return d
}

func (d Decision) accepts(key string, child, parent *store.Node) bool {
	if d.restrict && !slices.ContainsFunc(d.only, func(fn KeySelector) bool { return fn(key, child, parent) }) {
		return false
	}
	return !slices.ContainsFunc(d.skips, func(fn KeySelector) bool { return fn(key, child, parent) })
}

// Visitor is called once per step. A non-nil error ends the walk and is
// returned by Walk.
type Visitor func(step *Step) (Decision, error)

// Walk traverses reference edges starting from the nodes identified by from
// (a node id, a *store.Node, or a slice of either; unknown entries are
// ignored).
//
// Nodes reachable along several paths are visited once per path, so cyclic
// graphs never terminate unless the visitor stops expanding repeats, for
// instance by returning SkipChildren when IsVisited is non-zero.
//
// Children are expanded in key order. Walk does not notify read listeners.
func Walk(s *store.Store, from any, visit Visitor, opts Options) error {
	w := &walker{
		store:  s,
		dfs:    opts.Mode == DFS,
		visits: make(map[*store.Node]*[]*Step),
	}

	roots := s.NodeInfos(from)
	batch := make([]*Step, 0, len(roots))
	for _, n := range roots {
		batch = append(batch, w.newStep(n, slices.Clone(opts.StartPath), nil))
	}
	w.enqueue(batch)

	for len(w.queue) > 0 {
		head := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]

		d, err := visit(head)
		if err != nil {
			return err
		}
		if d.abort {
			w.queue = nil
			return nil
		}
		w.enqueue(w.children(head, d))
	}
	return nil
}

// Nodes returns the distinct nodes reachable from from, in first-visit
// order.
func Nodes(s *store.Store, from any, opts Options) []*store.Node {
	var out []*store.Node
	_ = Walk(s, from, func(st *Step) (Decision, error) {
		if st.IsVisited > 0 {
			return SkipChildren, nil
		}
		out = append(out, st.Node)
		return Continue, nil
	}, opts)
	return out
}

type walker struct {
	store  *store.Store
	dfs    bool
	queue  []*Step
	visits map[*store.Node]*[]*Step
}

// newStep registers the step in the node's visit records. Records are
// assigned at enqueue time, so IsVisited reflects discovery order.
func (w *walker) newStep(n *store.Node, path []string, ancestors []*Step) *Step {
	visits := w.visits[n]
	if visits == nil {
		visits = new([]*Step)
		w.visits[n] = visits
	}

	st := &Step{
		Store:     w.store,
		Node:      n,
		Schema:    n.Schema(),
		NodeID:    n.ID(),
		Path:      path,
		Ancestors: ancestors,
		IsVisited: len(*visits),
		visits:    visits,
	}
	if len(path) > 0 {
		st.Key = path[len(path)-1]
	}
	*visits = append(*visits, st)
	return st
}

func (w *walker) children(head *Step, d Decision) []*Step {
	n := head.Node
	var out []*Step
	for _, key := range n.RefKeys() {
		child := n.Ref(key)
		if !d.accepts(key, child, n) {
			continue
		}
		ancestors := append(slices.Clip(head.Ancestors), head)
		path := append(slices.Clip(head.Path), key)
		out = append(out, w.newStep(child, path, ancestors))
	}
	return out
}

func (w *walker) enqueue(batch []*Step) {
	if len(batch) == 0 {
		return
	}
	if w.dfs {
		w.queue = append(batch, w.queue...)
		return
	}
	w.queue = append(w.queue, batch...)
}
