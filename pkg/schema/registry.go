package schema

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Registry is an immutable id -> schema table.
//
// Extending or merging produces a new registry; schemas already bound into
// node graphs are never mutated.
type Registry struct {
	schemas map[string]*Schema
}

// Get returns the schema registered under query, or walks a structural path
// such as "task/properties/subTasks", "list/items" or "x/extends/0".
// Incomplete or unknown paths return nil.
func (r *Registry) Get(query string) *Schema {
	if r == nil {
		return nil
	}
	s, _ := lookup(r.schemas, query)
	return s
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.schemas))
}

// Len returns the number of registered ids.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.schemas)
}

// Extend resolves lut on top of the receiver. An empty lut returns the
// receiver itself.
func (r *Registry) Extend(lut LUT) (*Registry, error) {
	if len(lut) == 0 {
		return r, nil
	}
	return ResolveFrom(lut, r)
}

// Merge returns a new registry holding the receiver's schemas overwritten by
// other's. Both inputs stay untouched.
func (r *Registry) Merge(other *Registry) *Registry {
	out := &Registry{schemas: make(map[string]*Schema, r.Len()+other.Len())}
	if r != nil {
		maps.Copy(out.schemas, r.schemas)
	}
	if other != nil {
		maps.Copy(out.schemas, other.schemas)
	}
	return out
}

// lut exposes every schema as an Existing ref.
func (r *Registry) lut() LUT {
	out := make(LUT, r.Len())
	if r == nil {
		return out
	}
	for id, s := range r.schemas {
		out[id] = Existing(s)
	}
	return out
}

func rootID(query string) string {
	root, _, _ := strings.Cut(query, "/")
	return root
}

// lookup resolves an id or structural path. When the walk reaches a schema
// that is not resolved yet, it returns that schema as pending.
func lookup(m map[string]*Schema, query string) (found, pending *Schema) {
	if s := m[query]; s != nil {
		return s, nil
	}

	parts := strings.Split(query, "/")
	ptr := m[parts[0]]
	for i := 1; ptr != nil && i < len(parts); i++ {
		if !ptr.ready {
			return nil, ptr
		}
		kind := parts[i]
		if kind == "items" {
			ptr = ptr.items
			continue
		}
		if i+1 >= len(parts) {
			return nil, nil
		}
		i++
		ptr = structuralChild(ptr, kind, parts[i])
	}
	return ptr, nil
}

func structuralChild(s *Schema, kind, key string) *Schema {
	switch kind {
	case "properties":
		return s.props[key]
	case "patternProperties":
		for _, p := range s.patterns {
			if p.pattern == key {
				return p.schema
			}
		}
	case "extends":
		n, err := strconv.Atoi(key)
		if err == nil && n >= 0 && n < len(s.extends) {
			return s.extends[n]
		}
	}
	return nil
}
