package dump

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

func taskRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.Resolve(schema.LUT{
		"task": schema.Object(schema.Props{
			"name":     schema.Primitive(schema.TypeString),
			"executor": schema.Primitive(schema.TypeString),
			"subTasks": schema.ArrayOf(schema.Alias("task")),
		}),
		"note": schema.Object(schema.Props{
			"message": schema.Primitive(schema.TypeString),
		}),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return reg
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Options{Registry: taskRegistry(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// shoppingGraph builds a task with one sub task, a schemaless meta object
// pointing back at the task, and the task listed among its own sub tasks.
func shoppingGraph(t *testing.T) (s *store.Store, task, subTasks, meta, flowers *store.Node) {
	t.Helper()
	s = newTestStore(t)
	task, err := s.CreateOf("task", map[string]any{
		"name":     "shopping",
		"subTasks": []any{map[string]any{"name": "flowers"}},
	})
	if err != nil {
		t.Fatalf("CreateOf: %v", err)
	}
	if err := task.Set("meta", map[string]any{"owner": "me"}); err != nil {
		t.Fatalf("Set(meta): %v", err)
	}
	subTasks = task.Ref("subTasks")
	meta = task.Ref("meta")
	flowers = subTasks.Ref("0")
	if err := meta.Link("task", task); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := subTasks.Append(task); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return s, task, subTasks, meta, flowers
}

func recordIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.NodeID
	}
	return ids
}

func TestDumpOne(t *testing.T) {
	_, task, subTasks, meta, flowers := shoppingGraph(t)

	tests := []struct {
		name string
		node *store.Node
		want Record
	}{
		{
			name: "Object",
			node: task,
			want: Record{
				NodeID:   task.ID(),
				SchemaID: "task",
				Value:    map[string]any{"name": "shopping"},
				Refs:     map[string]string{"subTasks": subTasks.ID(), "meta": meta.ID()},
			},
		},
		{
			name: "Array",
			node: subTasks,
			want: Record{
				NodeID:   subTasks.ID(),
				SchemaID: "task/properties/subTasks",
				Value:    []any{nil, nil},
				Refs:     map[string]string{"0": flowers.ID(), "1": task.ID()},
			},
		},
		{
			name: "NoSchema",
			node: meta,
			want: Record{
				NodeID: meta.ID(),
				Value:  map[string]any{"owner": "me"},
				Refs:   map[string]string{"task": task.ID()},
			},
		},
		{
			name: "Leaf",
			node: flowers,
			want: Record{
				NodeID:   flowers.ID(),
				SchemaID: "task",
				Value:    map[string]any{"name": "flowers"},
				Refs:     map[string]string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DumpOne(tt.node); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DumpOne() = %#v\nwant %#v", got, tt.want)
			}
		})
	}
}

func TestDump(t *testing.T) {
	s, task, subTasks, meta, flowers := shoppingGraph(t)

	res := Dump(s, Options{Entries: []any{task}})
	want := []string{task.ID(), subTasks.ID(), meta.ID(), flowers.ID()}
	if got := recordIDs(res.Records); !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", res.Skipped)
	}
}

func TestDumpSkips(t *testing.T) {
	s, task, subTasks, meta, flowers := shoppingGraph(t)

	res := Dump(s, Options{
		Entries: []any{task.ID()},
		Skips:   store.SelectIDs(meta.ID()),
	})
	want := []string{task.ID(), subTasks.ID(), flowers.ID()}
	if got := recordIDs(res.Records); !reflect.DeepEqual(got, want) {
		t.Errorf("records = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(res.Skipped, []string{meta.ID()}) {
		t.Errorf("Skipped = %v, want [%s]", res.Skipped, meta.ID())
	}
	if res.Records[0].Refs["meta"] != meta.ID() {
		t.Errorf("task record should still reference %s", meta.ID())
	}
}

func TestDumpUnknownEntries(t *testing.T) {
	s, _, _, _, _ := shoppingGraph(t)
	if res := Dump(s, Options{Entries: []any{"nope"}}); len(res.Records) != 0 {
		t.Errorf("records = %v, want none", recordIDs(res.Records))
	}
}

func TestRefIDs(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want []string
	}{
		{"Empty", Record{Value: map[string]any{}}, nil},
		{"ObjectSorted", Record{
			Value: map[string]any{},
			Refs:  map[string]string{"b": "x", "a": "y", "c": "x"},
		}, []string{"y", "x"}},
		{"ArrayNumeric", Record{
			Value: []any{},
			Refs:  map[string]string{"10": "ten", "2": "two", "1": "one"},
		}, []string{"one", "two", "ten"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.RefIDs(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RefIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	s, task, _, _, _ := shoppingGraph(t)
	records := Dump(s, Options{Entries: []any{task}}).Records

	var buf bytes.Buffer
	if err := WriteJSON(records, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"schemaId": "task/properties/subTasks"`) {
		t.Errorf("output misses array schema id:\n%s", buf.String())
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if !reflect.DeepEqual(recordIDs(got), recordIDs(records)) {
		t.Fatalf("ids = %v, want %v", recordIDs(got), recordIDs(records))
	}

	dst := newTestStore(t)
	if _, err := Load(context.Background(), LoadOptions{Records: got, Store: dst}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(dst.Get(task.ID()).Snapshot(), task.Snapshot()) {
		t.Errorf("snapshot = %#v, want %#v", dst.Get(task.ID()).Snapshot(), task.Snapshot())
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(nil, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("WriteJSON(nil) = %q, want []", got)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Malformed", `[{"nodeId": `},
		{"NotArray", `{"nodeId": "a"}`},
		{"MissingID", `[{"schemaId": "task", "value": {}}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadJSON(strings.NewReader(tt.input)); err == nil {
				t.Error("ReadJSON() should fail")
			}
		})
	}
}

func TestExportImportJSON(t *testing.T) {
	s, task, _, _, _ := shoppingGraph(t)
	records := Dump(s, Options{Entries: []any{task}}).Records
	path := filepath.Join(t.TempDir(), "dump.json")

	if err := ExportJSON(records, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(got) != len(records) {
		t.Errorf("imported %d records, want %d", len(got), len(records))
	}

	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportJSON() of a missing file should fail")
	}
}
