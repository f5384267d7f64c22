package walk_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
	"github.com/matzehuels/scatter/pkg/walk"
)

// newFixture builds:
//
//	task1 = {
//	  executor: "lyonbot",
//	  subTasks: [*task1, nil],                 // array1
//	  meta: {hello: "world", task: *task1},    // anonymousObject1
//	}
func newFixture(t *testing.T) *store.Store {
	t.Helper()
	reg, err := schema.Resolve(schema.LUT{
		"task": schema.Object(schema.Props{
			"name":     schema.Primitive(schema.TypeString),
			"executor": schema.Primitive(schema.TypeString),
			"subTasks": schema.ArrayOf(schema.Alias("task")),
		}),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	s, err := store.New(store.Options{Registry: reg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	task1, err := s.CreateWithID("task1", reg.Get("task"), map[string]any{"executor": "lyonbot"})
	if err != nil {
		t.Fatal(err)
	}
	array1, err := s.CreateWithID("array1", reg.Get("task/properties/subTasks"), []any{nil, nil})
	if err != nil {
		t.Fatal(err)
	}
	obj1, err := s.CreateWithID("anonymousObject1", nil, map[string]any{"hello": "world"})
	if err != nil {
		t.Fatal(err)
	}
	for _, link := range []struct {
		from   *store.Node
		key    string
		target *store.Node
	}{
		{task1, "subTasks", array1},
		{task1, "meta", obj1},
		{array1, "0", task1},
		{obj1, "task", task1},
	} {
		if err := link.from.Link(link.key, link.target); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func logStep(log *[]string, st *walk.Step) {
	*log = append(*log, fmt.Sprintf("id=%s path=%q isVisited=%d", st.NodeID, st.Path, st.IsVisited))
}

func TestWalk(t *testing.T) {
	tests := []struct {
		name string
		mode walk.Mode
		want []string
	}{
		{
			name: "BFS",
			mode: walk.BFS,
			want: []string{
				`id=task1 path=["myTask"] isVisited=0`,
				`id=array1 path=["myTask" "subTasks"] isVisited=0`,
				`id=anonymousObject1 path=["myTask" "meta"] isVisited=0`,
				`id=task1 path=["myTask" "subTasks" "0"] isVisited=1`,
				`id=task1 path=["myTask" "meta" "task"] isVisited=2`,
			},
		},
		{
			name: "DFS",
			mode: walk.DFS,
			want: []string{
				`id=task1 path=["myTask"] isVisited=0`,
				`id=array1 path=["myTask" "subTasks"] isVisited=0`,
				`id=task1 path=["myTask" "subTasks" "0"] isVisited=1`,
				`id=anonymousObject1 path=["myTask" "meta"] isVisited=0`,
				`id=task1 path=["myTask" "meta" "task"] isVisited=2`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFixture(t)
			var log []string
			var task1Steps []*walk.Step

			err := walk.Walk(s, "task1", func(st *walk.Step) (walk.Decision, error) {
				logStep(&log, st)
				if st.NodeID == "task1" {
					task1Steps = append(task1Steps, st)
				}
				if st.IsVisited > 0 {
					return walk.SkipChildren, nil
				}
				return walk.Continue, nil
			}, walk.Options{Mode: tt.mode, StartPath: []string{"myTask"}})
			if err != nil {
				t.Fatalf("Walk: %v", err)
			}

			if !reflect.DeepEqual(log, tt.want) {
				t.Errorf("visits:\n%q\nwant:\n%q", log, tt.want)
			}
			if len(task1Steps) != 3 {
				t.Fatalf("task1 visited %d times, want 3", len(task1Steps))
			}
			if got := task1Steps[0].Visits(); !reflect.DeepEqual(got, task1Steps) {
				t.Error("Visits() should list every step of the node in order")
			}
			last := task1Steps[2]
			if last.Key != "task" || last.Parent().NodeID != "anonymousObject1" || len(last.Ancestors) != 2 {
				t.Errorf("last step key=%q ancestors=%d", last.Key, len(last.Ancestors))
			}
			if last.Schema != s.Registry().Get("task") {
				t.Errorf("Schema = %v, want task", last.Schema)
			}
		})
	}
}

func TestWalk_Decisions(t *testing.T) {
	tests := []struct {
		name  string
		from  any
		visit func(st *walk.Step) walk.Decision
		want  []string
	}{
		{
			name: "OnlyAndSkip",
			from: []string{"task1", ""},
			visit: func(st *walk.Step) walk.Decision {
				switch st.NodeID {
				case "task1":
					return walk.Only(walk.Keys("meta"))
				case "anonymousObject1":
					return walk.Skip(walk.Keys("task"))
				}
				return walk.Continue
			},
			want: []string{
				`id=task1 path=[] isVisited=0`,
				`id=anonymousObject1 path=["meta"] isVisited=0`,
			},
		},
		{
			name: "Predicate",
			from: "task1",
			visit: func(st *walk.Step) walk.Decision {
				if st.IsVisited > 0 {
					return walk.SkipChildren
				}
				return walk.Only(func(_ string, child, _ *store.Node) bool {
					return child.IsArray()
				})
			},
			want: []string{
				`id=task1 path=[] isVisited=0`,
				`id=array1 path=["subTasks"] isVisited=0`,
			},
		},
		{
			name: "ChainedSkip",
			from: "task1",
			visit: func(st *walk.Step) walk.Decision {
				if st.IsVisited > 0 {
					return walk.SkipChildren
				}
				return walk.Skip(walk.Keys("subTasks")).Skip(walk.Keys("task"))
			},
			want: []string{
				`id=task1 path=[] isVisited=0`,
				`id=anonymousObject1 path=["meta"] isVisited=0`,
			},
		},
		{
			name: "AbortAll",
			from: "task1",
			visit: func(st *walk.Step) walk.Decision {
				if st.NodeID == "array1" {
					return walk.AbortAll
				}
				return walk.Continue
			},
			want: []string{
				`id=task1 path=[] isVisited=0`,
				`id=array1 path=["subTasks"] isVisited=0`,
			},
		},
		{
			name:  "UnknownStart",
			from:  "missing",
			visit: func(*walk.Step) walk.Decision { return walk.Continue },
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFixture(t)
			var log []string
			err := walk.Walk(s, tt.from, func(st *walk.Step) (walk.Decision, error) {
				logStep(&log, st)
				return tt.visit(st), nil
			}, walk.Options{})
			if err != nil {
				t.Fatalf("Walk: %v", err)
			}
			if !reflect.DeepEqual(log, tt.want) {
				t.Errorf("visits:\n%q\nwant:\n%q", log, tt.want)
			}
		})
	}
}

func TestWalk_VisitorError(t *testing.T) {
	s := newFixture(t)
	bad := errors.New("bad")

	var log []string
	err := walk.Walk(s, "task1", func(st *walk.Step) (walk.Decision, error) {
		logStep(&log, st)
		if st.NodeID == "anonymousObject1" {
			return walk.Continue, bad
		}
		return walk.Continue, nil
	}, walk.Options{})

	if !errors.Is(err, bad) {
		t.Fatalf("Walk() error = %v, want %v", err, bad)
	}
	want := []string{
		`id=task1 path=[] isVisited=0`,
		`id=array1 path=["subTasks"] isVisited=0`,
		`id=anonymousObject1 path=["meta"] isVisited=0`,
	}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("visits:\n%q\nwant:\n%q", log, want)
	}
}

func TestWalk_NoReadEvents(t *testing.T) {
	s := newFixture(t)
	reads := 0
	s.OnNodeRead(func(*store.Node, string) { reads++ })

	if got := len(walk.Nodes(s, "task1", walk.Options{})); got != 3 {
		t.Errorf("Nodes() = %d nodes, want 3", got)
	}
	if reads != 0 {
		t.Errorf("walking emitted %d reads", reads)
	}
}

func TestNodes(t *testing.T) {
	s := newFixture(t)
	tests := []struct {
		mode walk.Mode
		want []string
	}{
		{walk.BFS, []string{"task1", "array1", "anonymousObject1"}},
		{walk.DFS, []string{"task1", "array1", "anonymousObject1"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var ids []string
			for _, n := range walk.Nodes(s, s.Get("task1"), walk.Options{Mode: tt.mode}) {
				ids = append(ids, n.ID())
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Nodes() = %v, want %v", ids, tt.want)
			}
		})
	}

	if got := walk.Nodes(s, "anonymousObject1", walk.Options{}); len(got) != 3 {
		t.Errorf("Nodes(anonymousObject1) = %d nodes, want 3", len(got))
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]walk.Mode{"dfs": walk.DFS, "DFS": walk.DFS, "bfs": walk.BFS, "": walk.BFS, "x": walk.BFS}
	for in, want := range tests {
		if got := walk.ParseMode(in); got != want {
			t.Errorf("ParseMode(%q) = %v, want %v", in, got, want)
		}
	}
}
