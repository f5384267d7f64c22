package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// LUT maps schema ids to their declarations.
type LUT map[string]Ref

// Props maps property names (or patterns) to declarations.
type Props map[string]Ref

// Declaration is the raw description of a schema before resolution.
//
// Type may be left empty when Extends is set; the last parent's type is
// inherited. Title and Items are inherited the same way.
type Declaration struct {
	Type              string `json:"type,omitempty" yaml:"type,omitempty"`
	Title             string `json:"title,omitempty" yaml:"title,omitempty"`
	Extends           []Ref  `json:"extends,omitempty" yaml:"extends,omitempty"`
	Properties        Props  `json:"properties,omitempty" yaml:"properties,omitempty"`
	PatternProperties Props  `json:"patternProperties,omitempty" yaml:"patternProperties,omitempty"`
	Items             Ref    `json:"items,omitzero" yaml:"items,omitempty"`
}

// Ref points at a schema from inside a declaration: an alias to another id,
// an inline declaration, an already resolved schema, or the remove marker
// used to delete inherited properties. The zero Ref means "not set".
type Ref struct {
	alias  string
	decl   *Declaration
	schema *Schema
	remove bool
}

// Alias refers to another schema by id or structural path.
func Alias(id string) Ref { return Ref{alias: id} }

// Inline wraps a declaration. Passing the same pointer twice yields the same
// resolved schema.
func Inline(d *Declaration) Ref { return Ref{decl: d} }

// Existing reuses an already resolved schema as-is.
func Existing(s *Schema) Ref { return Ref{schema: s} }

// Remove is the marker that deletes an inherited property.
func Remove() Ref { return Ref{remove: true} }

// Object declares an inline object schema, optionally extending parents.
func Object(props Props, extends ...Ref) Ref {
	return Inline(&Declaration{Type: TypeObject, Properties: props, Extends: extends})
}

// ArrayOf declares an inline array schema.
func ArrayOf(items Ref) Ref {
	return Inline(&Declaration{Type: TypeArray, Items: items})
}

// Primitive declares an inline primitive schema.
func Primitive(tag string) Ref {
	return Inline(&Declaration{Type: tag})
}

// IsZero reports whether the ref is unset.
func (r Ref) IsZero() bool {
	return r.alias == "" && r.decl == nil && r.schema == nil && !r.remove
}

// IsRemove reports whether the ref is the remove marker.
func (r Ref) IsRemove() bool { return r.remove }

// AliasID returns the aliased id, or "" if the ref is not an alias.
func (r Ref) AliasID() string { return r.alias }

// Declaration returns the inline declaration, or nil.
func (r Ref) Declaration() *Declaration { return r.decl }

// String implements fmt.Stringer.
func (r Ref) String() string {
	switch {
	case r.remove:
		return "<remove>"
	case r.alias != "":
		return r.alias
	case r.schema != nil:
		return r.schema.ID()
	case r.decl != nil:
		return fmt.Sprintf("<inline %s>", r.decl.Type)
	}
	return "<unset>"
}

// =============================================================================
// JSON
// =============================================================================

// UnmarshalJSON decodes a string as an alias, null (or false) as the remove
// marker and an object as an inline declaration.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*r = Remove()
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Alias(id)
		return nil
	case len(data) > 0 && data[0] == '{':
		var d Declaration
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return err
		}
		*r = Inline(&d)
		return nil
	}
	return fmt.Errorf("schema ref must be a string, an object or null, got %s", data)
}

// MarshalJSON is the inverse of UnmarshalJSON. Resolved schemas encode as
// their id.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch {
	case r.remove:
		return []byte("null"), nil
	case r.alias != "":
		return json.Marshal(r.alias)
	case r.schema != nil:
		return json.Marshal(r.schema.ID())
	case r.decl != nil:
		return json.Marshal(r.decl)
	}
	return []byte("null"), nil
}

// =============================================================================
// TOML
// =============================================================================

// UnmarshalTOML decodes a string as an alias, false as the remove marker and
// a table as an inline declaration. TOML has no null.
func (r *Ref) UnmarshalTOML(v any) error {
	ref, err := refFromValue(v)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

func refFromValue(v any) (Ref, error) {
	switch v := v.(type) {
	case nil:
		return Remove(), nil
	case bool:
		if !v {
			return Remove(), nil
		}
	case string:
		return Alias(v), nil
	case map[string]any:
		d, err := declFromMap(v)
		if err != nil {
			return Ref{}, err
		}
		return Inline(d), nil
	}
	return Ref{}, fmt.Errorf("schema ref must be a string, a table or false, got %T", v)
}

func declFromMap(m map[string]any) (*Declaration, error) {
	d := &Declaration{}
	for k, v := range m {
		switch k {
		case "type", "title":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string, got %T", k, v)
			}
			if k == "type" {
				d.Type = s
			} else {
				d.Title = s
			}
		case "extends":
			var list []any
			switch v := v.(type) {
			case []any:
				list = v
			case []map[string]any:
				for _, item := range v {
					list = append(list, item)
				}
			default:
				return nil, fmt.Errorf("extends must be an array, got %T", v)
			}
			for _, item := range list {
				ref, err := refFromValue(item)
				if err != nil {
					return nil, fmt.Errorf("extends: %w", err)
				}
				d.Extends = append(d.Extends, ref)
			}
		case "properties", "patternProperties":
			table, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s must be a table, got %T", k, v)
			}
			props := make(Props, len(table))
			for name, item := range table {
				ref, err := refFromValue(item)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", k, name, err)
				}
				props[name] = ref
			}
			if k == "properties" {
				d.Properties = props
			} else {
				d.PatternProperties = props
			}
		case "items":
			ref, err := refFromValue(v)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			d.Items = ref
		default:
			return nil, fmt.Errorf("unknown declaration field %q", k)
		}
	}
	return d, nil
}

// =============================================================================
// YAML
// =============================================================================

// UnmarshalYAML decodes a scalar as an alias, null or false as the remove
// marker and a mapping as an inline declaration.
func (r *Ref) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			*r = Remove()
			return nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			if b {
				return fmt.Errorf("line %d: schema ref cannot be true", node.Line)
			}
			*r = Remove()
			return nil
		}
		*r = Alias(node.Value)
		return nil
	case yaml.MappingNode:
		var d Declaration
		if err := node.Decode(&d); err != nil {
			return err
		}
		*r = Inline(&d)
		return nil
	}
	return fmt.Errorf("line %d: schema ref must be a scalar or a mapping", node.Line)
}
