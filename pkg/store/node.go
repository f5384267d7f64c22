package store

import (
	"strconv"

	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/schema"
)

// Node is a store-managed object or array.
//
// Values are primitives or *Node. A *Node value is always a reference: it
// is counted in the target's RefCount and listed by RefKeys. All accessors
// notify the store's read and write listeners.
//
// A disposed node is detached: reads return zero values without notifying
// and writes fail with ErrCodeNodeDetached.
type Node struct {
	store   *Store
	id      string
	schema  *schema.Schema
	isArray bool
	seq     uint64

	keys   []string
	fields map[string]any
	items  []any

	refs          map[string]*Node
	referredCount int
}

// Entry is a key/value pair of a node's container.
type Entry struct {
	Key   string
	Value any
}

// ID returns the node id, or "" once disposed.
func (n *Node) ID() string { return n.id }

// Schema returns the node schema, which may be nil.
func (n *Node) Schema() *schema.Schema { return n.schema }

// IsArray reports whether the node holds an array.
func (n *Node) IsArray() bool { return n.isArray }

// Store returns the owning store, or nil once disposed.
func (n *Node) Store() *Store { return n.store }

// Disposed reports whether the node has been detached from its store.
func (n *Node) Disposed() bool { return n.store == nil }

// RefCount returns the number of references held by other nodes' keys
// (self references included).
func (n *Node) RefCount() int { return n.referredCount }

// Ref returns the node referenced at key, or nil.
func (n *Node) Ref(key string) *Node { return n.refs[key] }

// RefKeys returns the keys holding references, in container order.
func (n *Node) RefKeys() []string {
	if len(n.refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(n.refs))
	for _, k := range n.containerKeys() {
		if n.refs[k] != nil {
			out = append(out, k)
		}
	}
	return out
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n.store == nil {
		return "<disposed node>"
	}
	return n.id
}

// =============================================================================
// Reads
// =============================================================================

// Get returns the value at key. References are returned as *Node. For
// arrays, "length" returns the item count.
func (n *Node) Get(key string) any {
	if n.store == nil {
		return nil
	}
	n.store.emitRead(n, key)
	return n.value(key)
}

// At returns the array item at i (or the object field named by i).
func (n *Node) At(i int) any {
	return n.Get(strconv.Itoa(i))
}

// Has reports whether key holds a value.
func (n *Node) Has(key string) bool {
	if n.store == nil {
		return false
	}
	n.store.emitRead(n, key)
	if n.isArray {
		if key == "length" {
			return true
		}
		i, ok := parseIndex(key)
		return ok && i < len(n.items)
	}
	_, ok := n.fields[key]
	return ok
}

// Keys returns the object keys in insertion order, or the array indices.
func (n *Node) Keys() []string {
	if n.store == nil {
		return nil
	}
	n.store.emitRead(n, AllKeys)
	return n.containerKeys()
}

// Len returns the number of object keys or array items.
func (n *Node) Len() int {
	if n.store == nil {
		return 0
	}
	n.store.emitRead(n, AllKeys)
	return n.size()
}

// Entries returns the container content without notifying listeners.
func (n *Node) Entries() []Entry {
	out := make([]Entry, 0, n.size())
	for _, k := range n.containerKeys() {
		out = append(out, Entry{Key: k, Value: n.value(k)})
	}
	return out
}

// Values returns the array items, or the object values in key order,
// without notifying listeners.
func (n *Node) Values() []any {
	if n.isArray {
		out := make([]any, len(n.items))
		copy(out, n.items)
		return out
	}
	out := make([]any, len(n.keys))
	for i, k := range n.keys {
		out[i] = n.fields[k]
	}
	return out
}

func (n *Node) value(key string) any {
	if n.isArray {
		if key == "length" {
			return len(n.items)
		}
		if i, ok := parseIndex(key); ok && i < len(n.items) {
			return n.items[i]
		}
		return nil
	}
	return n.fields[key]
}

func (n *Node) size() int {
	if n.isArray {
		return len(n.items)
	}
	return len(n.keys)
}

func (n *Node) containerKeys() []string {
	if n.isArray {
		out := make([]string, len(n.items))
		for i := range n.items {
			out[i] = strconv.Itoa(i)
		}
		return out
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// parseIndex accepts canonical non-negative decimal indices only ("01" and
// "+1" are plain keys).
func parseIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

// =============================================================================
// Identity
// =============================================================================

// SetID renames the node. The new id must be unused.
func (n *Node) SetID(id string) error {
	if id == n.id {
		return nil
	}
	s := n.store
	if s == nil {
		return errors.New(errors.ErrCodeNodeDetached, "cannot rename a disposed node")
	}
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	if _, taken := s.nodes[id]; taken {
		return errors.New(errors.ErrCodeDuplicateID, "node id already exists: %s", id)
	}
	s.nodes[id] = n
	if s.nodes[n.id] == n {
		delete(s.nodes, n.id)
	}
	n.id = id
	return nil
}

// =============================================================================
// Reference counting
// =============================================================================

// setRef replaces the reference at key and returns the previous one. The old
// target is released before the new one is retained, so a node written back
// to its own slot passes through zero.
func (n *Node) setRef(key string, to *Node) *Node {
	old := n.refs[key]
	if old != nil {
		delete(n.refs, key)
		old.release()
	}
	if to != nil {
		if n.refs == nil {
			n.refs = make(map[string]*Node)
		}
		n.refs[key] = to
		to.retain()
	}
	if len(n.refs) == 0 {
		n.refs = nil
	}
	return old
}

func (n *Node) retain() {
	if n.referredCount == 0 && n.store != nil {
		delete(n.store.orphans, n)
	}
	n.referredCount++
}

func (n *Node) release() {
	if n.referredCount == 0 {
		return
	}
	n.referredCount--
	if n.referredCount > 0 || n.store == nil {
		return
	}
	n.store.orphans[n] = struct{}{}
	n.store.emitLost(n)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Clear drops all content and references. The id is kept. No write
// notifications are emitted.
func (n *Node) Clear() {
	for _, k := range n.RefKeys() {
		n.setRef(k, nil)
	}
	n.refs = nil
	if n.isArray {
		clear(n.items)
		n.items = n.items[:0]
	} else {
		n.keys = nil
		clear(n.fields)
	}
}

// Dispose clears the node and detaches it from the store. A node that is
// still referenced can only be disposed with force; its referrers then keep
// pointing at an empty, detached node.
func (n *Node) Dispose(force bool) error {
	s := n.store
	if s == nil {
		return nil
	}
	if !force && n.referredCount > 0 {
		return errors.New(errors.ErrCodeNodeReferenced, "node is referred, cannot be disposed")
	}

	n.Clear()
	if s.nodes[n.id] == n {
		delete(s.nodes, n.id)
	}
	n.id = ""
	delete(s.orphans, n)
	n.store = nil
	n.schema = nil
	return nil
}
