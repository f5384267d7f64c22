package schema

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/matzehuels/scatter/pkg/errors"
)

// Resolve builds a registry from a LUT.
//
// Ids are processed in sorted order so that generated ids and error messages
// are deterministic. Resolution fails with:
//   - ErrCodeSchemaCycle for alias loops and cycles in extends
//   - ErrCodeMissingSchema for references to unknown ids
//   - ErrCodeInvalidSchema for unknown type tags, arrays without items and
//     invalid pattern properties
func Resolve(lut LUT) (*Registry, error) {
	r := newResolver()
	if err := r.run(lut); err != nil {
		return nil, err
	}
	return &Registry{schemas: r.out}, nil
}

// ResolveFrom resolves lut on top of base. Ids present in both are taken
// from lut; every other schema of base is reused as-is.
func ResolveFrom(lut LUT, base *Registry) (*Registry, error) {
	merged := base.lut()
	maps.Copy(merged, lut)
	return Resolve(merged)
}

// blockedError reports a structural alias that walks into a schema which is
// still pending.
type blockedError struct{ on *Schema }

func (e *blockedError) Error() string { return "blocked on " + e.on.id }

// step is a pending resolution of one schema shell.
type step struct {
	schema    *Schema
	decl      *Declaration
	blockedOn *Schema
}

type resolver struct {
	out    map[string]*Schema
	inline map[*Declaration]*Schema
	queue  []*step
	steps  map[*Schema]*step
}

func newResolver() *resolver {
	return &resolver{
		out:    make(map[string]*Schema),
		inline: make(map[*Declaration]*Schema),
		steps:  make(map[*Schema]*step),
	}
}

func (r *resolver) run(lut LUT) error {
	type alias struct{ id, to string }
	var aliases []alias

	for _, id := range slices.Sorted(maps.Keys(lut)) {
		ref := lut[id]
		switch {
		case ref.alias != "":
			aliases = append(aliases, alias{id, ref.alias})
		case ref.IsZero() || ref.remove:
			return errors.New(errors.ErrCodeInvalidSchema, "schema %q has no declaration", id)
		default:
			s, err := r.get(ref, id)
			if err != nil {
				return err
			}
			r.out[id] = s
		}
	}

	// Aliases into structural paths of pending schemas wait for the worklist.
	var deferred []alias
	for len(aliases) > 0 {
		var rest []alias
		for _, a := range aliases {
			if to, _ := lookup(r.out, a.to); to != nil {
				r.out[a.id] = to
			} else {
				rest = append(rest, a)
			}
		}
		if len(rest) == len(aliases) {
			rest = rest[:0:0]
			for _, a := range aliases {
				_, known := lut[rootID(a.to)]
				switch {
				case !known:
					return errors.New(errors.ErrCodeMissingSchema, "missing schema %q for %q", a.to, a.id)
				case a.to != rootID(a.to):
					deferred = append(deferred, a)
				default:
					rest = append(rest, a)
				}
			}
			if len(rest) > 0 {
				return errors.New(errors.ErrCodeSchemaCycle, "some schema is loop-referenced: %q", rest[0].id)
			}
		}
		aliases = rest
	}

	for len(r.queue) > 0 {
		progress := false
		var blocked []*step
		// the queue may grow while resolving; new steps run in the same pass
		for i := 0; i < len(r.queue); i++ {
			st := r.queue[i]
			done, err := r.resolve(st)
			if b, ok := err.(*blockedError); ok {
				st.blockedOn, done, err = b.on, false, nil
			}
			if err != nil {
				return err
			}
			if done {
				progress = true
			} else {
				blocked = append(blocked, st)
			}
		}
		if !progress {
			return r.cycleError(blocked[0])
		}
		r.queue = blocked
	}

	for _, a := range deferred {
		to, _ := lookup(r.out, a.to)
		if to == nil {
			return errors.New(errors.ErrCodeMissingSchema, "missing schema %q for %q", a.to, a.id)
		}
		r.out[a.id] = to
	}
	return nil
}

// cycleError follows blocked-on edges from st until a schema repeats and
// reports the edge that closes the cycle.
func (r *resolver) cycleError(st *step) error {
	seen := map[*Schema]bool{}
	for {
		seen[st.schema] = true
		next := r.steps[st.blockedOn]
		if next == nil || seen[next.schema] {
			return errors.New(errors.ErrCodeSchemaCycle,
				"cycle-dependencies found when %q extends %q", st.schema.id, st.blockedOn.id)
		}
		st = next
	}
}

// get returns the schema a ref points at, creating a pending shell for inline
// declarations.
func (r *resolver) get(ref Ref, preferredID string) (*Schema, error) {
	switch {
	case ref.schema != nil:
		return ref.schema, nil
	case ref.alias != "":
		s, pending := lookup(r.out, ref.alias)
		if s != nil {
			return s, nil
		}
		if pending != nil {
			return nil, &blockedError{on: pending}
		}
		return nil, errors.New(errors.ErrCodeMissingSchema, "missing schema %q for %s", ref.alias, preferredID)
	case ref.decl != nil:
		if s := r.inline[ref.decl]; s != nil {
			return s, nil
		}
		s := &Schema{id: preferredID}
		r.inline[ref.decl] = s
		st := &step{schema: s, decl: ref.decl}
		r.steps[s] = st
		r.queue = append(r.queue, st)
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidSchema, "missing schema declaration for %s", preferredID)
}

// resolve attempts one step. It reports false while a parent is still pending.
func (r *resolver) resolve(st *step) (bool, error) {
	s, d := st.schema, st.decl

	parents := make([]*Schema, len(d.Extends))
	for i, ref := range d.Extends {
		if ref.IsZero() || ref.remove {
			return false, errors.New(errors.ErrCodeInvalidSchema, "%s/extends/%d is empty", s.id, i)
		}
		p, err := r.get(ref, fmt.Sprintf("%s/extends/%d", s.id, i))
		if err != nil {
			return false, err
		}
		if !p.ready {
			st.blockedOn = p
			return false, nil
		}
		parents[i] = p
	}
	st.blockedOn = nil

	for _, p := range parents {
		if p.typ != "" {
			s.typ = p.typ
		}
		if p.title != "" {
			s.title = p.title
		}
		if p.items != nil {
			s.items = p.items
		}
	}
	if d.Type != "" {
		s.typ = d.Type
	}
	if d.Title != "" {
		s.title = d.Title
	}
	if len(parents) > 0 {
		s.extends = parents
	}

	if !isKnownType(s.typ) {
		return false, errors.New(errors.ErrCodeInvalidSchema, "unknown schema type %q in %s", s.typ, s.id)
	}

	switch s.typ {
	case TypeObject:
		props, err := r.mergeProps(s, parents, d.Properties, "properties", func(p *Schema) map[string]*Schema { return p.props })
		if err != nil {
			return false, err
		}
		s.props = props

		patterns, err := r.mergeProps(s, parents, d.PatternProperties, "patternProperties", patternMap)
		if err != nil {
			return false, err
		}
		for _, pattern := range slices.Sorted(maps.Keys(patterns)) {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false, errors.Wrap(errors.ErrCodeInvalidSchema, err, "invalid pattern property %q in %s", pattern, s.id)
			}
			s.patterns = append(s.patterns, patternProperty{pattern: pattern, re: re, schema: patterns[pattern]})
		}

	case TypeArray:
		if !d.Items.IsZero() && !d.Items.remove {
			items, err := r.get(d.Items, s.id+"/items")
			if err != nil {
				return false, err
			}
			s.items = items
		}
		if s.items == nil {
			return false, errors.New(errors.ErrCodeInvalidSchema, "array must define its items, found in %s", s.id)
		}
	}

	s.ready = true
	return true, nil
}

// mergeProps folds the parents' maps in order, then applies own declarations.
// A zero or remove ref deletes an inherited entry.
func (r *resolver) mergeProps(s *Schema, parents []*Schema, own Props, kind string, of func(*Schema) map[string]*Schema) (map[string]*Schema, error) {
	out := make(map[string]*Schema)
	for _, p := range parents {
		if p.IsObject() {
			maps.Copy(out, of(p))
		}
	}
	for _, name := range slices.Sorted(maps.Keys(own)) {
		ref := own[name]
		if ref.IsZero() || ref.remove {
			delete(out, name)
			continue
		}
		child, err := r.get(ref, s.id+"/"+kind+"/"+name)
		if err != nil {
			return nil, err
		}
		out[name] = child
	}
	return out, nil
}

func patternMap(s *Schema) map[string]*Schema {
	out := make(map[string]*Schema, len(s.patterns))
	for _, p := range s.patterns {
		out[p.pattern] = p.schema
	}
	return out
}
