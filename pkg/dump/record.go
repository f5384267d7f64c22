package dump

import (
	"slices"
	"strconv"

	"github.com/matzehuels/scatter/pkg/store"
	"github.com/matzehuels/scatter/pkg/walk"
)

// Record is the serialized form of one node.
//
// Value holds the non-reference content: a map for objects, a slice for
// arrays. Array values keep their full length with nil in reference slots.
// Refs maps every reference-bearing key to the target node id.
type Record struct {
	NodeID   string            `json:"nodeId"`
	SchemaID string            `json:"schemaId"`
	Value    any               `json:"value"`
	Refs     map[string]string `json:"refs"`
}

// RefIDs returns the distinct referenced ids in key order.
func (r Record) RefIDs() []string {
	var ids []string
	for _, k := range r.refKeys() {
		if id := r.Refs[k]; !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// refKeys sorts array indices numerically and object keys lexically.
func (r Record) refKeys() []string {
	keys := make([]string, 0, len(r.Refs))
	for k := range r.Refs {
		keys = append(keys, k)
	}
	if _, isArray := r.Value.([]any); isArray {
		slices.SortFunc(keys, func(a, b string) int {
			ia, _ := strconv.Atoi(a)
			ib, _ := strconv.Atoi(b)
			return ia - ib
		})
		return keys
	}
	slices.Sort(keys)
	return keys
}

// DumpOne serializes a single node. Listeners are not notified.
func DumpOne(n *store.Node) Record {
	rec := Record{
		NodeID:   n.ID(),
		SchemaID: n.Schema().ID(),
		Refs:     make(map[string]string),
	}

	if n.IsArray() {
		items := n.Values()
		for _, k := range n.RefKeys() {
			i, _ := strconv.Atoi(k)
			items[i] = nil
			rec.Refs[k] = n.Ref(k).ID()
		}
		rec.Value = items
		return rec
	}

	fields := make(map[string]any)
	for _, e := range n.Entries() {
		if ref := n.Ref(e.Key); ref != nil {
			rec.Refs[e.Key] = ref.ID()
			continue
		}
		fields[e.Key] = e.Value
	}
	rec.Value = fields
	return rec
}

// Options configures Dump.
type Options struct {
	// Entries are the start nodes: ids, nodes or slices of either.
	Entries []any

	// Skips excludes matching nodes. They are listed in Result.Skipped and
	// their children are not followed.
	Skips store.Selector
}

// Result is the output of Dump.
type Result struct {
	Records []Record
	Skipped []string
}

// Dump serializes every node reachable from the entries in BFS order. Each
// node appears once, so the records can be replayed with Load even when the
// graph is cyclic.
func Dump(s *store.Store, opts Options) Result {
	var res Result
	_ = walk.Walk(s, opts.Entries, func(st *walk.Step) (walk.Decision, error) {
		if st.IsVisited > 0 {
			return walk.SkipChildren, nil
		}
		if opts.Skips != nil && opts.Skips(st.Node) {
			res.Skipped = append(res.Skipped, st.NodeID)
			return walk.SkipChildren, nil
		}
		res.Records = append(res.Records, DumpOne(st.Node))
		return walk.Continue, nil
	}, walk.Options{})
	return res
}
