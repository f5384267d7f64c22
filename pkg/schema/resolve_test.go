package schema

import (
	"strings"
	"testing"

	"github.com/matzehuels/scatter/pkg/errors"
)

func personLUT() LUT {
	return LUT{
		"person": Object(Props{
			"name":     Primitive(TypeString),
			"father":   Alias("person"),
			"mother":   Alias("person"),
			"children": ArrayOf(Alias("person")),
			"employer": Alias("entrepreneur"),
		}),
		"entrepreneur": Inline(&Declaration{
			Type:    TypeObject,
			Title:   "A person with ambitions!",
			Extends: []Ref{Alias("person")},
			Properties: Props{
				"permissions": ArrayOf(Primitive(TypeString)),
				"employer":    Remove(),
			},
		}),
	}
}

func TestResolveInheritance(t *testing.T) {
	reg, err := Resolve(personLUT())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	person := reg.Get("person")
	ent := reg.Get("entrepreneur")
	if person == nil || ent == nil {
		t.Fatalf("missing schemas: person=%v entrepreneur=%v", person, ent)
	}

	if !ent.IsObject() {
		t.Errorf("entrepreneur type = %q, want object", ent.Type())
	}
	if ent.Title() != "A person with ambitions!" {
		t.Errorf("title = %q", ent.Title())
	}
	if ent.Property("permissions") == nil {
		t.Error("entrepreneur should declare permissions")
	}
	if ent.Property("name") == nil {
		t.Error("entrepreneur should inherit name")
	}
	if ent.Property("employer") != nil {
		t.Error("employer should be removed from entrepreneur")
	}
	if person.Property("permissions") != nil {
		t.Error("person should not have permissions")
	}

	if got := reg.Get("person/properties/father"); got != person {
		t.Errorf("person/properties/father = %v, want person", got)
	}
	if got := person.DirectChild("employer"); got != ent {
		t.Errorf("employer = %v, want entrepreneur", got)
	}
	if got := person.AtPath("children[0].father"); got != person {
		t.Errorf("children[0].father = %v, want person", got)
	}
	if got := person.AtPath("children[0].employer"); got != ent {
		t.Errorf("children[0].employer = %v, want entrepreneur", got)
	}
	if got := person.Property("children").ID(); got != "person/properties/children" {
		t.Errorf("children id = %q", got)
	}
	if !ent.IsExtendedFrom(person) || person.IsExtendedFrom(ent) {
		t.Error("IsExtendedFrom should follow extends only")
	}
}

func TestResolveInheritsTypeAndItems(t *testing.T) {
	reg, err := Resolve(LUT{
		"list":  ArrayOf(Primitive(TypeNumber)),
		"named": Inline(&Declaration{Title: "Named list", Extends: []Ref{Alias("list")}}),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	named := reg.Get("named")
	if !named.IsArray() {
		t.Fatalf("named type = %q, want array", named.Type())
	}
	if named.Items() != reg.Get("list").Items() {
		t.Error("named should inherit items")
	}
	if got := reg.Get("named/extends/0"); got != reg.Get("list") {
		t.Errorf("named/extends/0 = %v, want list", got)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		lut     LUT
		code    errors.Code
		message string
	}{
		{
			name: "AliasLoop",
			lut:  LUT{"foo": Alias("bar"), "bar": Alias("baz"), "baz": Alias("foo")},
			code: errors.ErrCodeSchemaCycle, message: "loop",
		},
		{
			name: "SelfAlias",
			lut:  LUT{"foo": Alias("foo")},
			code: errors.ErrCodeSchemaCycle, message: "loop",
		},
		{
			name: "ExtendsThroughAlias",
			lut: LUT{
				"foo": Inline(&Declaration{Type: TypeBoolean, Extends: []Ref{Alias("bar")}}),
				"bar": Inline(&Declaration{Type: TypeBoolean, Extends: []Ref{Alias("baz")}}),
				"baz": Alias("foo"),
			},
			code: errors.ErrCodeSchemaCycle, message: `cycle-dependencies found when "foo" extends "bar"`,
		},
		{
			name: "ExtendsCycle",
			lut: LUT{
				"foo": Inline(&Declaration{Type: TypeString, Extends: []Ref{Alias("bar")}}),
				"bar": Inline(&Declaration{Type: TypeString, Extends: []Ref{Alias("baz")}}),
				"baz": Inline(&Declaration{Type: TypeString, Extends: []Ref{Alias("foo")}}),
			},
			code: errors.ErrCodeSchemaCycle, message: `cycle-dependencies found when "foo" extends "bar"`,
		},
		{
			name: "MissingItems",
			lut:  LUT{"foo": ArrayOf(Alias("bar"))},
			code: errors.ErrCodeMissingSchema, message: "missing schema",
		},
		{
			name: "MissingAliasTarget",
			lut:  LUT{"foo": Alias("nope")},
			code: errors.ErrCodeMissingSchema, message: "missing schema",
		},
		{
			name: "ArrayWithoutItems",
			lut:  LUT{"foo": Inline(&Declaration{Type: TypeArray})},
			code: errors.ErrCodeInvalidSchema, message: "array must define its items",
		},
		{
			name: "UnknownType",
			lut:  LUT{"foo": Primitive("vector")},
			code: errors.ErrCodeInvalidSchema, message: "unknown schema type",
		},
		{
			name: "BadPattern",
			lut: LUT{"foo": Inline(&Declaration{
				Type:              TypeObject,
				PatternProperties: Props{"([": Primitive(TypeString)},
			})},
			code: errors.ErrCodeInvalidSchema, message: "invalid pattern property",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.lut)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v (%v)", errors.GetCode(err), tt.code, err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q should contain %q", err, tt.message)
			}
		})
	}
}

func TestResolveRegisteredPrimitive(t *testing.T) {
	if err := RegisterPrimitive("date"); err != nil {
		t.Fatalf("RegisterPrimitive: %v", err)
	}
	reg, err := Resolve(LUT{"event": Object(Props{"at": Primitive("date")})})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := reg.Get("event/properties/at").Type(); got != "date" {
		t.Errorf("type = %q, want date", got)
	}
	if err := RegisterPrimitive(TypeObject); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("registering object should fail, got %v", err)
	}
}

func TestResolveSharedInlineDeclaration(t *testing.T) {
	shared := &Declaration{Type: TypeString}
	reg, err := Resolve(LUT{
		"a": Object(Props{"x": Inline(shared)}),
		"b": Object(Props{"y": Inline(shared)}),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if reg.Get("a/properties/x") != reg.Get("b/properties/y") {
		t.Error("same declaration pointer should resolve once")
	}
	if got := reg.Get("b/properties/y").ID(); got != "a/properties/x" {
		t.Errorf("shared id = %q, want first occurrence", got)
	}
}

func TestResolveStructuralAlias(t *testing.T) {
	reg, err := Resolve(LUT{
		"task": Object(Props{
			"subTasks": ArrayOf(Alias("task")),
		}),
		"comment":     Object(Props{"about": Alias("task/properties/subTasks/items")}),
		"subTaskList": Alias("task/properties/subTasks"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	task := reg.Get("task")
	if got := reg.Get("comment").Property("about"); got != task {
		t.Errorf("about = %v, want task", got)
	}
	if got := reg.Get("subTaskList"); got != task.Property("subTasks") {
		t.Errorf("subTaskList = %v, want task/properties/subTasks", got)
	}
}
