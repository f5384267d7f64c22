package store_test

import (
	"fmt"

	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

func Example() {
	reg, _ := schema.Resolve(schema.LUT{
		"task": schema.Object(schema.Props{
			"name":     schema.Primitive(schema.TypeString),
			"subTasks": schema.ArrayOf(schema.Alias("task")),
		}),
	})
	s, _ := store.New(store.Options{Registry: reg})

	task, _ := s.CreateOf("task", map[string]any{"name": "shopping"})
	_ = task.Set("subTasks", []any{
		map[string]any{"name": "flowers"},
		map[string]any{"name": "gas"},
	})

	subTasks := task.Get("subTasks").(*store.Node)
	flowers := subTasks.At(0).(*store.Node)
	fmt.Println("nodes:", s.Len())
	fmt.Println("first:", flowers.Get("name"), flowers.Schema())

	_, _ = subTasks.Shift()
	fmt.Println("orphans:", len(s.Orphans()))
	disposed := s.DisposeOrphans(store.OrphanOptions{Skips: store.SelectIDs(task.ID())})
	fmt.Println("disposed:", len(disposed))
	fmt.Println("nodes:", s.Len())
	// Output:
	// nodes: 4
	// first: flowers task
	// orphans: 2
	// disposed: 1
	// nodes: 3
}

func ExampleStore_Treeshake() {
	reg, _ := schema.Resolve(schema.LUT{
		"item": schema.Object(schema.Props{
			"next": schema.Alias("item"),
		}),
	})
	s, _ := store.New(store.Options{Registry: reg})

	root, _ := s.CreateOf("item", nil)
	a, _ := s.CreateOf("item", nil)
	b, _ := s.CreateOf("item", nil)
	_ = a.Set("next", b)
	_ = b.Set("next", a)

	removed := s.Treeshake(store.TreeshakeOptions{Entries: []any{root}})
	fmt.Println("removed:", len(removed))
	fmt.Println("disposed:", a.Disposed(), b.Disposed())
	// Output:
	// removed: 2
	// disposed: true true
}
