// Package store implements a schema-typed, reference-counted object graph.
//
// # Overview
//
// A [Store] owns nodes. Each [Node] is an object (ordered string keys) or an
// array, optionally typed by a [schema.Schema]. Values are primitives or
// references to other nodes of the same store:
//
//	s, _ := store.New(store.Options{Registry: reg})
//	task, _ := s.CreateOf("task", nil)
//	_ = task.Set("name", "shopping")
//	_ = task.Set("subTasks", []any{
//	    map[string]any{"name": "flowers"},
//	})
//
// Writing a map or slice never stores it as-is. The store creates a new node
// typed by the key's declared schema, copies the entries into it (recursively
// applying the same rule) and stores a reference. The example above creates
// three nodes: the task, the subTasks array and the "flowers" task.
//
// Writing an existing *Node aliases it instead of copying, provided the key
// has no declared schema or the node's schema extends the declared one. With
// [Options.DisallowSubTypeAssign] only an exact schema match aliases.
//
// # Reference Counting
//
// Every reference is counted on its target. Nodes with a count of zero are
// orphans. [Store.DisposeOrphans] collects orphans iteratively; reference
// cycles are never orphans, so [Store.Treeshake] offers mark-and-sweep
// collection from a set of entry nodes.
//
// # Events
//
// Stores notify listeners synchronously, in subscription order:
//
//   - [Store.OnNodeCreated] after a node is registered, before it is filled
//   - [Store.OnNodeLostLastReferrer] when a count drops to zero
//   - [Store.OnNodeRead] for every accessor read
//   - [Store.OnNodeWrite] for every write, with a [WriteAction]
//
// # Concurrency
//
// A Store is not safe for concurrent use. Even reads mutate listener-visible
// state, so callers must serialize all access.
package store
