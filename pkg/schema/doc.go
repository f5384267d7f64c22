// Package schema resolves declarative type descriptions into an immutable,
// cross-referenced schema graph.
//
// # Overview
//
// A schema is one of three kinds:
//
//   - object: named properties, optional pattern-matched properties and
//     optional parent schemas (extends)
//   - array: a single item schema
//   - primitive: a tag from an extensible lookup ("string", "number",
//     "boolean" and "any" are pre-registered, see [RegisterPrimitive])
//
// Declarations are collected in a [LUT] keyed by schema id. Each entry is an
// inline [Declaration], an alias to another id, or an already resolved
// [Schema]. [Resolve] turns a LUT into a [Registry]:
//
//	reg, err := schema.Resolve(schema.LUT{
//	    "task": schema.Object(schema.Props{
//	        "name":     schema.Primitive("string"),
//	        "subTasks": schema.ArrayOf(schema.Alias("task")),
//	    }),
//	})
//
// # Inheritance
//
// An object's effective property set is the union of its parents' properties,
// folded in declaration order, overridden by its own declarations. A property
// declared as [Remove] deletes an inherited one. Parents must be fully
// resolved before a child can fold them; resolution is a worklist where a
// pass that makes no progress proves a cycle in extends, which is reported as
// an ErrCodeSchemaCycle error naming both schemas.
//
// # Identifiers
//
// Every resolved schema carries a structural id: the LUT key for top-level
// schemas, and a path like "task/properties/subTasks", "list/items" or
// "child/extends/0" for inline ones. [Registry.Get] accepts both forms.
//
// Registries are immutable. [Registry.Extend] and [ResolveFrom] build new
// registries that reuse existing schemas as-is, so schemas already bound into
// other graphs never change.
package schema
