package store

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/schema"
)

// IDGenerator returns the id for a new node. Returning "" falls back to the
// default generator. Collisions are resolved by the store with a numeric
// suffix.
type IDGenerator func(s *Store, sc *schema.Schema) string

// Options configures a [Store].
type Options struct {
	// Registry resolves schema ids for CreateOf. Required.
	Registry *schema.Registry

	// IDGenerator overrides the default "<schemaId>#<prefix><counter>" ids.
	IDGenerator IDGenerator

	// DisallowSubTypeAssign makes writes alias an existing node only when its
	// schema is exactly the declared one. By default a node whose schema
	// extends the declared schema is aliased too.
	DisallowSubTypeAssign bool

	// Logger receives debug summaries of garbage collection.
	// Defaults to log.Default().
	Logger *log.Logger
}

// Store owns a set of nodes, their ids and the orphan set.
//
// A Store is not safe for concurrent use. Callers that share a store across
// goroutines must serialize access, including reads, since reads notify
// listeners.
type Store struct {
	registry    *schema.Registry
	idGenerator IDGenerator
	strict      bool
	logger      *log.Logger

	nodes   map[string]*Node
	orphans map[*Node]struct{}
	seq     uint64

	created listeners[func(*Node)]
	lost    listeners[func(*Node)]
	read    listeners[func(*Node, string)]
	write   listeners[func(*Node, string, WriteAction)]
}

// New creates an empty store.
func New(opts Options) (*Store, error) {
	if opts.Registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "store requires a schema registry")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Store{
		registry:    opts.Registry,
		idGenerator: opts.IDGenerator,
		strict:      opts.DisallowSubTypeAssign,
		logger:      logger,
		nodes:       make(map[string]*Node),
		orphans:     make(map[*Node]struct{}),
	}, nil
}

// Registry returns the schema registry the store was created with.
func (s *Store) Registry() *schema.Registry { return s.registry }

// Logger returns the store's logger.
func (s *Store) Logger() *log.Logger { return s.logger }

// Create makes a node for sc, optionally filled from fill.
//
// The container shape comes from fill when given (a map, slice or *Node),
// otherwise from the schema; a nil schema with no fill yields an object.
// Nested containers in fill become nodes of their own, and *Node values of
// this store are referenced directly when their schema fits.
func (s *Store) Create(sc *schema.Schema, fill any) (*Node, error) {
	return s.create("", sc, fill)
}

// CreateOf is Create with a schema looked up by id or structural path. An
// empty id creates a node without schema.
func (s *Store) CreateOf(schemaID string, fill any) (*Node, error) {
	var sc *schema.Schema
	if schemaID != "" {
		if sc = s.registry.Get(schemaID); sc == nil {
			return nil, errors.New(errors.ErrCodeMissingSchema, "missing schema %q", schemaID)
		}
	}
	return s.create("", sc, fill)
}

// CreateWithID is Create with an explicit node id.
func (s *Store) CreateWithID(id string, sc *schema.Schema, fill any) (*Node, error) {
	if err := errors.ValidateNodeID(id); err != nil {
		return nil, err
	}
	if _, taken := s.nodes[id]; taken {
		return nil, errors.New(errors.ErrCodeDuplicateID, "node id already exists: %s", id)
	}
	return s.create(id, sc, fill)
}

func (s *Store) create(id string, sc *schema.Schema, fill any) (*Node, error) {
	if sc != nil && !sc.IsObject() && !sc.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidSchema, "schema type must be object or array, got %s (%s)", sc.Type(), sc.ID())
	}

	isArray := sc.IsArray()
	if fill != nil {
		shape, ok := containerKind(fill)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "cannot fill a node with %T", fill)
		}
		if sc != nil && (shape == kindArray) != sc.IsArray() {
			return nil, errors.New(errors.ErrCodeTypeMismatch, "cannot fill %s schema %s with %T", sc.Type(), sc.ID(), fill)
		}
		isArray = shape == kindArray
	}

	c := s.newCopier()
	n := c.node(id, sc, isArray, fill)
	if fill != nil {
		if err := c.fill(n, fill); err != nil {
			c.discard()
			return nil, err
		}
	}
	return n, nil
}

func (s *Store) newNode(id string, sc *schema.Schema, isArray bool) *Node {
	s.seq++
	n := &Node{store: s, schema: sc, isArray: isArray, seq: s.seq}
	if !isArray {
		n.fields = make(map[string]any)
	}
	if id == "" {
		id = s.AllocateID(sc)
	}
	n.id = id
	s.nodes[id] = n
	s.orphans[n] = struct{}{}
	s.emitCreated(n)
	return n
}

// Get returns the node registered under id, or nil.
func (s *Store) Get(id string) *Node { return s.nodes[id] }

// Len returns the number of live nodes.
func (s *Store) Len() int { return len(s.nodes) }

// NodeInfo returns the node of this store identified by q: a node id or a
// *Node. Anything else, including nodes of other stores, yields nil.
func (s *Store) NodeInfo(q any) *Node {
	switch q := q.(type) {
	case string:
		return s.nodes[q]
	case *Node:
		if q != nil && q.store == s {
			return q
		}
	}
	return nil
}

// NodeInfos resolves many queries at once. Slices of ids, nodes or mixed
// values are flattened; unresolvable entries are dropped.
func (s *Store) NodeInfos(qs ...any) []*Node {
	var out []*Node
	for _, q := range qs {
		switch q := q.(type) {
		case []string:
			for _, id := range q {
				if n := s.nodes[id]; n != nil {
					out = append(out, n)
				}
			}
		case []*Node:
			out = append(out, s.NodeInfos(anySlice(q)...)...)
		case []any:
			out = append(out, s.NodeInfos(q...)...)
		default:
			if n := s.NodeInfo(q); n != nil {
				out = append(out, n)
			}
		}
	}
	return out
}

// Nodes returns the live nodes in creation order.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sortBySeq(out)
	return out
}

// Orphans returns the nodes without referrers in creation order.
func (s *Store) Orphans() []*Node {
	out := make([]*Node, 0, len(s.orphans))
	for n := range s.orphans {
		out = append(out, n)
	}
	sortBySeq(out)
	return out
}

// IsOrphan reports whether n is in the orphan set.
func (s *Store) IsOrphan(n *Node) bool {
	_, ok := s.orphans[n]
	return ok
}

func sortBySeq(nodes []*Node) {
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.seq, b.seq) })
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// accepts reports whether a node with schema have may be aliased into a slot
// declared as want.
func (s *Store) accepts(have, want *schema.Schema) bool {
	if want == nil {
		return true
	}
	if s.strict {
		return have == want
	}
	return have.IsExtendedFrom(want)
}

type kind int

const (
	kindObject kind = iota
	kindArray
)

// containerKind classifies values that become nodes when written.
func containerKind(v any) (kind, bool) {
	switch v := v.(type) {
	case nil:
		return 0, false
	case *Node:
		if v == nil {
			return 0, false
		}
		if v.isArray {
			return kindArray, true
		}
		return kindObject, true
	case map[string]any:
		return kindObject, true
	case []any:
		return kindArray, true
	case []byte:
		return 0, false
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return kindObject, true
		}
	case reflect.Slice, reflect.Array:
		return kindArray, true
	}
	return 0, false
}
