package schema

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Built-in type tags.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeAny     = "any"
)

// Schema is a resolved, immutable schema.
//
// Schemas are only created by resolution; the zero value is not usable. All
// query methods accept a nil receiver and then report a miss, which keeps
// path walks free of nil checks.
type Schema struct {
	id       string
	typ      string
	title    string
	extends  []*Schema
	props    map[string]*Schema
	patterns []patternProperty
	items    *Schema

	ready bool
}

type patternProperty struct {
	pattern string
	re      *regexp.Regexp
	schema  *Schema
}

var arrayLength = &Schema{id: "arrayLength", typ: TypeNumber, title: "Array Length", ready: true}

// ArrayLength returns the shared schema describing the "length" key of every
// array schema.
func ArrayLength() *Schema { return arrayLength }

// ID returns the structural identifier, e.g. "task" or "task/properties/subTasks".
func (s *Schema) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Type returns the type tag.
func (s *Schema) Type() string {
	if s == nil {
		return ""
	}
	return s.typ
}

// Title returns the optional human-readable title, possibly inherited.
func (s *Schema) Title() string {
	if s == nil {
		return ""
	}
	return s.title
}

func (s *Schema) IsObject() bool    { return s != nil && s.typ == TypeObject }
func (s *Schema) IsArray() bool     { return s != nil && s.typ == TypeArray }
func (s *Schema) IsPrimitive() bool { return s != nil && !s.IsObject() && !s.IsArray() }

// String implements fmt.Stringer.
func (s *Schema) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.id
}

// Extends returns the direct parent schemas in declaration order.
func (s *Schema) Extends() []*Schema {
	if s == nil {
		return nil
	}
	return slices.Clone(s.extends)
}

// Property returns the effective schema of a named property, ignoring
// pattern properties. Use [Schema.DirectChild] for the full lookup.
func (s *Schema) Property(name string) *Schema {
	if s == nil {
		return nil
	}
	return s.props[name]
}

// PropertyNames returns the effective property names, sorted.
func (s *Schema) PropertyNames() []string {
	if s == nil || len(s.props) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.props))
	for name := range s.props {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PatternProperties returns the effective property patterns in match order.
func (s *Schema) PatternProperties() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = p.pattern
	}
	return out
}

// Items returns the item schema of an array schema, or nil.
func (s *Schema) Items() *Schema {
	if s == nil {
		return nil
	}
	return s.items
}

// DirectChild returns the schema of the value stored under key.
//
// For objects it checks named properties first, then pattern properties in
// order. For arrays, "length" yields [ArrayLength] and any non-negative
// integer key yields the item schema. Everything else returns nil.
func (s *Schema) DirectChild(key string) *Schema {
	switch {
	case s.IsObject():
		if p := s.props[key]; p != nil {
			return p
		}
		for _, p := range s.patterns {
			if p.re.MatchString(key) {
				return p.schema
			}
		}
		return nil

	case s.IsArray():
		if key == "length" {
			return arrayLength
		}
		if i, err := strconv.Atoi(key); err == nil && i >= 0 {
			return s.items
		}
		return nil
	}
	return nil
}

// AtPath walks DirectChild segment by segment and returns nil on any miss.
// The path may be dotted and bracketed ("children[0].father") or a single key.
func (s *Schema) AtPath(path string) *Schema {
	if !strings.ContainsAny(path, ".[") {
		return s.DirectChild(path)
	}
	return s.AtSegments(SplitPath(path)...)
}

// AtSegments is AtPath for a pre-split path.
func (s *Schema) AtSegments(segments ...string) *Schema {
	ptr := s
	for _, seg := range segments {
		if ptr == nil {
			return nil
		}
		ptr = ptr.DirectChild(seg)
	}
	return ptr
}

// IsExtendedFrom reports whether s is other or inherits from it, directly or
// transitively.
func (s *Schema) IsExtendedFrom(other *Schema) bool {
	if s == nil || other == nil {
		return false
	}

	seen := map[*Schema]bool{}
	queue := []*Schema{s}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == other {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, cur.extends...)
	}
	return false
}
