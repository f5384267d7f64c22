// Package pkg provides the core libraries for Scatter, an in-process store of
// schema-typed object graphs.
//
// # Overview
//
// Scatter keeps a graph of plain objects and arrays ("nodes") in memory. Every
// node carries a schema from a declaration file, may reference other nodes by
// id, and is reference counted so that unreachable nodes can be found and
// disposed. The pkg directory is organized into these areas:
//
//  1. [schema] - Declaration files, resolution and the schema registry
//  2. [store] - Nodes, accessors, reference counting, orphans and collection
//  3. [walk] - Breadth- and depth-first traversal of the node graph
//  4. [dump] - Serialization of nodes to records and loading them back
//  5. [observe] - Change notification for nodes and values
//  6. [cache] - Record caches backed by files, Redis or MongoDB
//  7. [render] - DOT, SVG, PDF and PNG diagrams of a store
//
// # Architecture
//
// The typical data flow through Scatter:
//
//	schema.yaml
//	     ↓
//	[schema] package (resolve declarations into a registry)
//	     ↓
//	[store] package (create, link and collect nodes)
//	     ↓
//	[dump] package (records ↔ JSON, cache)
//	     ↓
//	[render] package (node-link diagrams)
//
// # Quick Start
//
// Load a registry, build a store and dump a node:
//
//	import (
//	    "github.com/matzehuels/scatter/pkg/dump"
//	    "github.com/matzehuels/scatter/pkg/schema"
//	    "github.com/matzehuels/scatter/pkg/store"
//	)
//
//	reg, _ := schema.LoadRegistry("schema.yaml")
//	s, _ := store.New(store.Options{Registry: reg})
//
//	task, _ := s.CreateOf("task", map[string]any{"name": "shopping"})
//	res, _ := dump.Dump(s, dump.Options{Entries: []any{task}})
//	_ = dump.WriteJSON(res.Records, os.Stdout)
//
// # Supporting packages
//
//   - [errors] - Error codes and user-facing messages
//   - [observability] - Hooks for cache and HTTP metrics
//   - [buildinfo] - Version information set at build time
package pkg
