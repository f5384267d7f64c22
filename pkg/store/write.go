package store

import (
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/schema"
)

// Set writes v at key.
//
// A *Node of this store is referenced directly when the key has no declared
// schema or the node's schema fits it. Maps, slices and any other node are
// copied into a new node created with the key's schema. Everything else is
// stored as-is. On arrays, "length" truncates or pads like [Node.SetLen] and
// other keys must be indices.
func (n *Node) Set(key string, v any) error {
	if n.store == nil {
		return errDetached()
	}
	c := n.store.newCopier()
	if err := n.set(c, key, v); err != nil {
		c.discard()
		return err
	}
	return nil
}

func (n *Node) set(c *copier, key string, v any) error {
	if !n.isArray {
		ref, val, err := c.classify(n.schema.DirectChild(key), v)
		if err != nil {
			return err
		}
		n.put(key, val, ref)
		return nil
	}

	if key == "length" {
		l, ok := toLength(v)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "invalid array length %v", v)
		}
		return n.SetLen(l)
	}
	i, ok := parseIndex(key)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid array index %q", key)
	}
	return n.setIndex(c, i, v)
}

// SetAt writes v at index i.
func (n *Node) SetAt(i int, v any) error {
	if i < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid array index %d", i)
	}
	return n.Set(strconv.Itoa(i), v)
}

// Append adds values at the end of an array.
func (n *Node) Append(vs ...any) error {
	if err := n.requireArray("append"); err != nil {
		return err
	}
	for _, v := range vs {
		c := n.store.newCopier()
		if err := n.setIndex(c, len(n.items), v); err != nil {
			c.discard()
			return err
		}
	}
	return nil
}

// SetLen truncates or pads an array. Every discarded index is reported as a
// deleted write, followed by the "length" write.
func (n *Node) SetLen(l int) error {
	if err := n.requireArray("set length of"); err != nil {
		return err
	}
	if l < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid array length %d", l)
	}

	old := len(n.items)
	notify := !n.store.write.empty()
	var discarded []WriteAction
	if notify {
		for i := l; i < old; i++ {
			discarded = append(discarded, WriteAction{
				Existed:   true,
				IsDeleted: true,
				OldRef:    n.refs[strconv.Itoa(i)],
				OldValue:  n.items[i],
			})
		}
	}

	for i := l; i < old; i++ {
		n.setRef(strconv.Itoa(i), nil)
	}
	if l < old {
		clear(n.items[l:])
		n.items = n.items[:l]
	} else {
		n.items = append(n.items, make([]any, l-old)...)
	}

	if notify {
		for i, action := range discarded {
			n.store.emitWrite(n, strconv.Itoa(l+i), action)
		}
		n.store.emitWrite(n, "length", WriteAction{Existed: true, OldValue: old, NewValue: l})
	}
	return nil
}

// Pop removes and returns the last array item.
func (n *Node) Pop() (any, error) {
	if err := n.requireArray("pop"); err != nil {
		return nil, err
	}
	if len(n.items) == 0 {
		return nil, nil
	}
	v := n.items[len(n.items)-1]
	return v, n.SetLen(len(n.items) - 1)
}

// Shift removes and returns the first array item, moving the others down.
// Moved references keep their targets; only the removed one is released.
func (n *Node) Shift() (any, error) {
	if err := n.requireArray("shift"); err != nil {
		return nil, err
	}
	if len(n.items) == 0 {
		return nil, nil
	}
	first := n.items[0]
	for i := 1; i < len(n.items); i++ {
		next := strconv.Itoa(i)
		n.put(strconv.Itoa(i-1), n.items[i], n.refs[next])
	}
	return first, n.SetLen(len(n.items) - 1)
}

// Delete removes key. On arrays the slot is set to nil and the length is
// kept. A write notification is emitted even when key is absent.
func (n *Node) Delete(key string) error {
	if n.store == nil {
		return errDetached()
	}

	var action WriteAction
	if n.isArray {
		if key == "length" {
			return errors.New(errors.ErrCodeInvalidInput, "cannot delete array length")
		}
		i, ok := parseIndex(key)
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "invalid array index %q", key)
		}
		action.Existed = i < len(n.items)
		if action.Existed {
			action.OldValue = n.items[i]
			action.OldRef = n.setRef(key, nil)
			n.items[i] = nil
		}
	} else {
		action.OldValue, action.Existed = n.fields[key]
		action.OldRef = n.setRef(key, nil)
		if action.Existed {
			delete(n.fields, key)
			n.keys = slices.DeleteFunc(n.keys, func(k string) bool { return k == key })
		}
	}
	action.IsDeleted = true
	n.store.emitWrite(n, key, action)
	return nil
}

// Link installs a reference to target at key without copying or schema
// checks. target must belong to the same store; nil stores nil.
func (n *Node) Link(key string, target *Node) error {
	if n.store == nil {
		return errDetached()
	}
	if target != nil && target.store != n.store {
		return errors.New(errors.ErrCodeInvalidInput, "cannot link %s: node belongs to another store", target)
	}
	var val any
	if target != nil {
		val = target
	}
	if !n.isArray {
		n.put(key, val, target)
		return nil
	}
	i, ok := parseIndex(key)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid array index %q", key)
	}
	n.putIndex(i, val, target)
	return nil
}

func (n *Node) requireArray(op string) error {
	if n.store == nil {
		return errDetached()
	}
	if !n.isArray {
		return errors.New(errors.ErrCodeInvalidInput, "cannot %s an object node", op)
	}
	return nil
}

func errDetached() error {
	return errors.New(errors.ErrCodeNodeDetached, "node is disposed")
}

func (n *Node) setIndex(c *copier, i int, v any) error {
	ref, val, err := c.classify(n.schema.Items(), v)
	if err != nil {
		return err
	}
	n.putIndex(i, val, ref)
	return nil
}

// putIndex stores at i. Writing past the end pads with nil and reports the
// length change after the item write.
func (n *Node) putIndex(i int, val any, ref *Node) {
	old := len(n.items)
	if i < old {
		n.put(strconv.Itoa(i), val, ref)
		return
	}

	key := strconv.Itoa(i)
	n.items = append(n.items, make([]any, i+1-old)...)
	oldRef := n.setRef(key, ref)
	n.items[i] = val
	n.store.emitWrite(n, key, WriteAction{OldRef: oldRef, NewRef: ref, NewValue: val})
	n.store.emitWrite(n, "length", WriteAction{Existed: true, OldValue: old, NewValue: len(n.items)})
}

// put is the raw write shared by every mutation: swap the reference, store
// the value and notify. Array slots must already exist.
func (n *Node) put(key string, val any, ref *Node) {
	var action WriteAction
	action.OldRef = n.setRef(key, ref)
	action.NewRef = ref
	action.NewValue = val

	if n.isArray {
		i, _ := parseIndex(key)
		action.Existed = true
		action.OldValue = n.items[i]
		n.items[i] = val
	} else {
		action.OldValue, action.Existed = n.fields[key]
		if !action.Existed {
			n.keys = append(n.keys, key)
		}
		n.fields[key] = val
	}
	n.store.emitWrite(n, key, action)
}

// =============================================================================
// Classification
// =============================================================================

// copier tracks the nodes created while one value is written. A value
// reached twice maps to the same copy, so cyclic sources terminate, and a
// failed write disposes everything it created.
type copier struct {
	store   *Store
	created []*Node
	copies  map[any]*Node
}

func (s *Store) newCopier() *copier {
	return &copier{store: s, copies: make(map[any]*Node)}
}

// node creates a node and records it as a copy of src.
func (c *copier) node(id string, sc *schema.Schema, isArray bool, src any) *Node {
	n := c.store.newNode(id, sc, isArray)
	c.created = append(c.created, n)
	if key, ok := identity(src); ok {
		c.copies[key] = n
	}
	return n
}

// discard disposes every node created so far, newest first.
func (c *copier) discard() {
	for i := len(c.created) - 1; i >= 0; i-- {
		_ = c.created[i].Dispose(true)
	}
	c.created = nil
}

type (
	mapID   uintptr
	sliceID struct {
		ptr uintptr
		len int
	}
)

// identity returns a comparable key for values that can contain themselves:
// nodes, maps and non-empty slices.
func identity(v any) (any, bool) {
	if n, ok := v.(*Node); ok {
		return n, n != nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return mapID(rv.Pointer()), true
	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}
		return sliceID{rv.Pointer(), rv.Len()}, true
	}
	return nil, false
}

// classify decides how v is stored in a slot declared as want: as a direct
// reference, as a reference to a new node holding a copy, or as a plain
// value.
func (c *copier) classify(want *schema.Schema, v any) (*Node, any, error) {
	s := c.store
	if src, ok := v.(*Node); ok {
		if src == nil {
			return nil, nil, nil
		}
		if src.store == s && s.accepts(src.schema, want) {
			return src, src, nil
		}
	}

	shape, ok := containerKind(v)
	if !ok {
		return nil, v, nil
	}

	var sc *schema.Schema
	switch {
	case want == nil, want.Type() == schema.TypeAny:
	case want.IsObject() && shape == kindObject, want.IsArray() && shape == kindArray:
		sc = want
	default:
		return nil, nil, errors.New(errors.ErrCodeTypeMismatch, "cannot store %T in %s (%s)", v, want.ID(), want.Type())
	}

	if key, ok := identity(v); ok {
		if cp := c.copies[key]; cp != nil {
			if sc != nil && !s.accepts(cp.schema, sc) {
				return nil, nil, errors.New(errors.ErrCodeTypeMismatch, "cannot store cyclic %T in %s: its copy is %s", v, sc.ID(), cp.schema)
			}
			return cp, cp, nil
		}
	}

	child := c.node("", sc, shape == kindArray, v)
	if err := c.fill(child, v); err != nil {
		return nil, nil, err
	}
	return child, child, nil
}

// fill writes the entries of a container value into an empty node. Map keys
// are written in sorted order.
func (c *copier) fill(n *Node, v any) error {
	switch v := v.(type) {
	case *Node:
		for _, e := range v.Entries() {
			if err := n.set(c, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			if err := n.set(c, k, v[k]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, item := range v {
			if err := n.setIndex(c, i, item); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		slices.Sort(keys)
		for _, k := range keys {
			elem := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
			if err := n.set(c, k, elem.Interface()); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := n.setIndex(c, i, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

// toLength accepts integral numbers.
func toLength(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, v >= 0
	case int64:
		return int(v), v >= 0
	case int32:
		return int(v), v >= 0
	case uint:
		return int(v), true
	case float64:
		if v >= 0 && v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}
