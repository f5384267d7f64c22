package store

import "math"

// CycleRef stands in for a node that is already being copied higher up in a
// Snapshot. It holds the node id.
type CycleRef string

// Snapshot returns a deep plain copy of the node: objects become
// map[string]any and arrays []any. A reference back to a node on the current
// path becomes a CycleRef. A node reachable along several paths is copied
// once and its copy shared, unless that copy holds a CycleRef to one of the
// node's ancestors. Listeners are not notified.
func (n *Node) Snapshot() any {
	sn := &snapshotter{path: make(map[*Node]int), done: make(map[*Node]any)}
	v, _ := sn.copy(n, 0)
	return v
}

type snapshotter struct {
	// path maps the nodes being copied to their depth.
	path map[*Node]int
	done map[*Node]any
}

// copy returns the copy of n and the smallest depth of a node on the path
// that the copy refers to through a CycleRef, or math.MaxInt if none.
func (sn *snapshotter) copy(n *Node, depth int) (any, int) {
	if d, ok := sn.path[n]; ok {
		return CycleRef(n.id), d
	}
	if v, ok := sn.done[n]; ok {
		return v, math.MaxInt
	}
	sn.path[n] = depth
	defer delete(sn.path, n)

	low := math.MaxInt
	copyValue := func(v any) any {
		child, ok := v.(*Node)
		if !ok {
			return v
		}
		cv, l := sn.copy(child, depth+1)
		low = min(low, l)
		return cv
	}

	var out any
	if n.isArray {
		items := make([]any, len(n.items))
		for i, v := range n.items {
			items[i] = copyValue(v)
		}
		out = items
	} else {
		fields := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			fields[k] = copyValue(n.fields[k])
		}
		out = fields
	}

	if low < depth {
		return out, low
	}
	sn.done[n] = out
	return out, math.MaxInt
}
