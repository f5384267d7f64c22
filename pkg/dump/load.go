package dump

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/scatter/pkg/errors"
	"github.com/matzehuels/scatter/pkg/observability"
	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

// DefaultConcurrency bounds parallel loader calls when LoadOptions leaves it
// unset.
const DefaultConcurrency = 4

// LoadOptions configures Load.
type LoadOptions struct {
	Records []Record
	Store   *store.Store

	// Loader resolves referenced ids that are neither in Records nor in the
	// store. Without a loader such references fail with MISSING_NODE.
	Loader Loader

	// Concurrency bounds parallel loader calls. Zero means 4.
	Concurrency int
}

// Renamed reports an existing node that had to give up its id to a loaded
// record with a different schema or shape.
type Renamed struct {
	Node  *store.Node
	OldID string
}

// LoadResult summarizes a Load.
//
// Loaded lists every node written from a record, in record order, including
// those fetched through the loader. Updated is the subset that reused an
// existing node. Renamed lists the displaced nodes, which are not in Loaded.
type LoadResult struct {
	Loaded  []*store.Node
	Updated []*store.Node
	Renamed []Renamed
}

// Load writes records into a store.
//
// It runs in three phases:
//
//  1. Collect. Every referenced id is resolved once: first among the
//     records, then among the store's nodes, then through the loader.
//     Loader calls of one round run concurrently and records they return
//     are resolved in the next round. Records are validated against the
//     registry.
//  2. Materialize. A store node with the record's id is reused (cleared and
//     refilled) when its schema and shape match; otherwise it is renamed
//     and a new node is created under the id.
//  3. Bind. References are linked once every node exists, so self and
//     mutual references resolve regardless of record order.
//
// Failures in the collect phase leave the store untouched. A loader error
// is returned wrapped with the id being fetched.
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	if opts.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "load requires a store")
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	hooks := observability.Load()
	start := time.Now()
	hooks.OnLoadStart(ctx, len(opts.Records))

	l := &loader{
		ctx:      ctx,
		store:    opts.Store,
		fetch:    opts.Loader,
		limit:    limit,
		byID:     make(map[string]*plan),
		external: make(map[string]*store.Node),
		aliases:  make(map[string]string),
	}
	res, err := l.run(opts.Records)

	dur := time.Since(start)
	if err != nil {
		hooks.OnLoadComplete(ctx, 0, 0, 0, dur, err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, len(res.Loaded), len(res.Updated), len(res.Renamed), dur, nil)
	opts.Store.Logger().Debug("loaded records",
		"loaded", len(res.Loaded),
		"updated", len(res.Updated),
		"renamed", len(res.Renamed),
		"fetched", l.fetched,
		"duration", dur)
	return res, nil
}

// plan is a validated record waiting to be materialized.
type plan struct {
	rec     Record
	schema  *schema.Schema
	isArray bool
	node    *store.Node
}

type loader struct {
	ctx   context.Context
	store *store.Store
	fetch Loader
	limit int

	plans    []*plan
	byID     map[string]*plan
	external map[string]*store.Node
	aliases  map[string]string
	fetched  int
}

func (l *loader) run(records []Record) (*LoadResult, error) {
	for _, rec := range records {
		if _, err := l.add(rec); err != nil {
			return nil, err
		}
	}
	if err := l.collect(l.plans); err != nil {
		return nil, err
	}

	res := &LoadResult{}
	for _, p := range l.plans {
		if err := l.materialize(p, res); err != nil {
			return nil, err
		}
	}
	for _, p := range l.plans {
		if err := l.bind(p); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// add validates a record and queues it for materialization.
func (l *loader) add(rec Record) (*plan, error) {
	if err := errors.ValidateNodeID(rec.NodeID); err != nil {
		return nil, err
	}
	if _, dup := l.byID[rec.NodeID]; dup {
		return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate record for node %s", rec.NodeID)
	}

	p := &plan{rec: rec}
	if rec.SchemaID != "" {
		p.schema = l.store.Registry().Get(rec.SchemaID)
		if p.schema == nil {
			return nil, errors.New(errors.ErrCodeMissingSchema, "missing schema %q for node %s", rec.SchemaID, rec.NodeID)
		}
		if !p.schema.IsObject() && !p.schema.IsArray() {
			return nil, errors.New(errors.ErrCodeInvalidSchema, "schema %s of node %s is not an object or array", rec.SchemaID, rec.NodeID)
		}
	}

	switch rec.Value.(type) {
	case nil:
		p.isArray = p.schema.IsArray()
	case map[string]any:
		p.isArray = false
	case []any:
		p.isArray = true
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "node %s: value must be an object or array, got %T", rec.NodeID, rec.Value)
	}
	if p.schema != nil && p.schema.IsArray() != p.isArray {
		return nil, errors.New(errors.ErrCodeTypeMismatch, "node %s: value shape does not match schema %s", rec.NodeID, rec.SchemaID)
	}
	if p.isArray {
		for k := range rec.Refs {
			if i, err := strconv.Atoi(k); err != nil || i < 0 || strconv.Itoa(i) != k {
				return nil, errors.New(errors.ErrCodeInvalidInput, "node %s: invalid array index %q in refs", rec.NodeID, k)
			}
		}
	}

	l.plans = append(l.plans, p)
	l.byID[rec.NodeID] = p
	return p, nil
}

// collect resolves the references of plans, fetching unknown ids in rounds
// until no new records appear.
func (l *loader) collect(plans []*plan) error {
	for pending := l.unresolved(plans); len(pending) > 0; {
		results, err := l.fetchAll(pending)
		if err != nil {
			return err
		}

		var added []*plan
		var aliased []string
		for i, id := range pending {
			r := results[i]
			switch {
			case r.Record != nil:
				if r.Record.NodeID != id {
					return errors.New(errors.ErrCodeInvalidInput, "loader returned node %s when asked for %s", r.Record.NodeID, id)
				}
				p, err := l.add(*r.Record)
				if err != nil {
					return err
				}
				added = append(added, p)
			case r.Node != nil:
				if l.store.NodeInfo(r.Node) == nil {
					return errors.New(errors.ErrCodeInvalidInput, "loader returned a node outside the store for %s", id)
				}
				l.external[id] = r.Node
			case r.ID != "":
				l.aliases[id] = r.ID
				aliased = append(aliased, id)
			default:
				return errors.New(errors.ErrCodeMissingNode, "failed to fetch missing node: %s", id)
			}
		}

		for _, id := range aliased {
			target := l.aliases[id]
			if l.byID[target] != nil {
				continue
			}
			n := l.store.Get(target)
			if n == nil {
				return errors.New(errors.ErrCodeMissingNode, "failed to fetch missing node: %s (resolved as %s)", id, target)
			}
			l.external[target] = n
		}
		pending = l.unresolved(added)
	}
	return nil
}

// unresolved returns the referenced ids that are neither records nor store
// nodes. Store hits are memoized in external.
func (l *loader) unresolved(plans []*plan) []string {
	var out []string
	for _, p := range plans {
		for _, id := range p.rec.RefIDs() {
			if l.byID[id] != nil || l.external[id] != nil || l.aliases[id] != "" || slices.Contains(out, id) {
				continue
			}
			if n := l.store.Get(id); n != nil {
				l.external[id] = n
				continue
			}
			out = append(out, id)
		}
	}
	return out
}

func (l *loader) fetchAll(ids []string) ([]Resolution, error) {
	results := make([]Resolution, len(ids))
	if l.fetch == nil {
		return results, nil
	}

	hooks := observability.Load()
	g, ctx := errgroup.WithContext(l.ctx)
	g.SetLimit(l.limit)
	for i, id := range ids {
		g.Go(func() error {
			start := time.Now()
			r, err := l.fetch(ctx, id)
			hooks.OnFetch(ctx, id, time.Since(start), err)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", id, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.fetched += len(ids)
	return results, nil
}

func (l *loader) materialize(p *plan, res *LoadResult) error {
	s := l.store
	id := p.rec.NodeID

	existing := s.Get(id)
	if existing != nil && existing.Schema() == p.schema && existing.IsArray() == p.isArray {
		existing.Clear()
		p.node = existing
		res.Updated = append(res.Updated, existing)
	} else {
		if existing != nil {
			if err := existing.SetID(s.AllocateID(existing.Schema())); err != nil {
				return err
			}
			res.Renamed = append(res.Renamed, Renamed{Node: existing, OldID: id})
		}
		var shape any = map[string]any{}
		if p.isArray {
			shape = []any{}
		}
		n, err := s.CreateWithID(id, p.schema, shape)
		if err != nil {
			return err
		}
		p.node = n
	}
	res.Loaded = append(res.Loaded, p.node)
	return l.fill(p)
}

// fill writes the plain values. Reference keys of objects get a nil
// placeholder so that keys keep their sorted order once bound.
func (l *loader) fill(p *plan) error {
	n := p.node
	switch v := p.rec.Value.(type) {
	case []any:
		if err := n.SetLen(len(v)); err != nil {
			return err
		}
		for i, item := range v {
			if item == nil {
				continue
			}
			if _, isRef := p.rec.Refs[strconv.Itoa(i)]; isRef {
				continue
			}
			if err := n.SetAt(i, item); err != nil {
				return fmt.Errorf("node %s: %w", p.rec.NodeID, err)
			}
		}
	case map[string]any:
		keys := slices.Sorted(maps.Keys(v))
		for k := range p.rec.Refs {
			if _, ok := v[k]; !ok {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			var val any
			if _, isRef := p.rec.Refs[k]; !isRef {
				val = v[k]
			}
			if err := n.Set(k, val); err != nil {
				return fmt.Errorf("node %s: %w", p.rec.NodeID, err)
			}
		}
	case nil:
		if !p.isArray {
			for _, k := range p.rec.refKeys() {
				if err := n.Set(k, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (l *loader) bind(p *plan) error {
	for _, k := range p.rec.refKeys() {
		target := l.target(p.rec.Refs[k])
		if target == nil {
			return errors.New(errors.ErrCodeInternal, "unresolved reference %s from %s", p.rec.Refs[k], p.rec.NodeID)
		}
		if err := p.node.Link(k, target); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) target(id string) *store.Node {
	if alias, ok := l.aliases[id]; ok {
		id = alias
	}
	if p := l.byID[id]; p != nil {
		return p.node
	}
	return l.external[id]
}
