package store

import "sync"

// AllKeys is the key reported to read listeners when a caller enumerates an
// object's keys or an array's indices.
const AllKeys = "\x00ownKeys"

// WriteAction describes one write on a node key.
//
// Existed reports whether the key held a value before the write. OldRef and
// NewRef are the nodes referenced before and after; OldValue and NewValue
// are the raw stored values (a *Node for references).
type WriteAction struct {
	Existed   bool
	IsDeleted bool
	OldRef    *Node
	NewRef    *Node
	OldValue  any
	NewValue  any
}

// listeners is a copy-on-write list: emission iterates a snapshot, so
// subscribing or unsubscribing from inside a callback never affects the
// current delivery.
type listeners[T any] struct {
	mu      sync.Mutex
	next    int
	entries []listener[T]
}

type listener[T any] struct {
	id int
	fn T
}

func (l *listeners[T]) add(fn T) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	id := l.next
	next := make([]listener[T], len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	l.entries = append(next, listener[T]{id: id, fn: fn})

	return func() { l.remove(id) }
}

func (l *listeners[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id == id {
			next := make([]listener[T], 0, len(l.entries)-1)
			next = append(next, l.entries[:i]...)
			l.entries = append(next, l.entries[i+1:]...)
			return
		}
	}
}

func (l *listeners[T]) get() []listener[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

func (l *listeners[T]) empty() bool {
	return len(l.get()) == 0
}

// OnNodeCreated subscribes to node creation. The callback runs after the
// node is registered and before it is filled.
func (s *Store) OnNodeCreated(fn func(n *Node)) (unsubscribe func()) {
	return s.created.add(fn)
}

// OnNodeLostLastReferrer subscribes to nodes whose reference count drops to
// zero. The node may gain a new referrer later; do not dispose it from the
// callback.
func (s *Store) OnNodeLostLastReferrer(fn func(n *Node)) (unsubscribe func()) {
	return s.lost.add(fn)
}

// OnNodeRead subscribes to reads through the node accessors. Keys and Len
// report [AllKeys] for objects and arrays alike.
func (s *Store) OnNodeRead(fn func(n *Node, key string)) (unsubscribe func()) {
	return s.read.add(fn)
}

// OnNodeWrite subscribes to writes through the node accessors.
func (s *Store) OnNodeWrite(fn func(n *Node, key string, action WriteAction)) (unsubscribe func()) {
	return s.write.add(fn)
}

func (s *Store) emitCreated(n *Node) {
	for _, l := range s.created.get() {
		l.fn(n)
	}
}

func (s *Store) emitLost(n *Node) {
	for _, l := range s.lost.get() {
		l.fn(n)
	}
}

func (s *Store) emitRead(n *Node, key string) {
	for _, l := range s.read.get() {
		l.fn(n, key)
	}
}

func (s *Store) emitWrite(n *Node, key string, action WriteAction) {
	for _, l := range s.write.get() {
		l.fn(n, key, action)
	}
}
