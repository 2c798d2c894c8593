package reflectpath

import (
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/scriptref/errors"
)

type vec3 struct {
	X, Y, Z float64
}

type transform struct {
	Translation vec3
	Scale       vec3
	Tags        []string
	Labels      map[string]int
	Parent      *vec3
	Extra       any
	Points      [2]vec3
	Alias       float64 `script:"alias_name"`
	Hidden      int     `script:"-"`
	secret      int
}

func newTransform() *transform {
	return &transform{
		Translation: vec3{1, 2, 3},
		Scale:       vec3{1, 1, 1},
		Tags:        []string{"a", "b"},
		Labels:      map[string]int{"hp": 10},
		Extra:       vec3{7, 8, 9},
		Points:      [2]vec3{{1, 1, 1}, {2, 2, 2}},
	}
}

func cell(v any) reflect.Value {
	return reflect.ValueOf(v).Elem()
}

func TestWalk(t *testing.T) {
	tr := newTransform()
	tr.Parent = &vec3{4, 5, 6}

	tests := []struct {
		name string
		path Path
		want any
	}{
		{"field", Path{Field("Translation"), Field("X")}, 1.0},
		{"case insensitive", Path{Field("translation"), Field("y")}, 2.0},
		{"tag", Path{Field("alias_name")}, 0.0},
		{"slice index", Path{Field("Tags"), Index(1)}, "b"},
		{"tuple index", Path{Field("Scale"), Index(2)}, 1.0},
		{"string map via field", Path{Field("Labels"), Field("hp")}, 10},
		{"map key", Path{Field("Labels"), Key("hp")}, 10},
		{"through pointer", Path{Field("Parent"), Field("Z")}, 6.0},
		{"some", Path{Field("Parent"), Some(), Field("X")}, 4.0},
		{"through interface", Path{Field("Extra"), Field("Y")}, 8.0},
		{"array", Path{Field("Points"), Index(1), Field("X")}, 2.0},
		{"len", Path{Field("Tags"), Len()}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.path.Walk(cell(tr))
			if err != nil {
				t.Fatalf("Walk(%s): %v", tt.path, err)
			}
			if !reflect.DeepEqual(got.Interface(), tt.want) {
				t.Errorf("Walk(%s) = %v, want %v", tt.path, got.Interface(), tt.want)
			}
		})
	}
}

func TestWalkErrors(t *testing.T) {
	tests := []struct {
		name string
		path Path
		kind errors.Kind
		at   string
	}{
		{"missing field", Path{Field("Translation"), Field("W")}, errors.KindInvalidReflectionPath, ".Translation.W"},
		{"unexported", Path{Field("secret")}, errors.KindInvalidReflectionPath, ".secret"},
		{"hidden by tag", Path{Field("Hidden")}, errors.KindInvalidReflectionPath, ".Hidden"},
		{"index out of range", Path{Field("Tags"), Index(5)}, errors.KindInvalidReflectionPath, ".Tags[5]"},
		{"index on float", Path{Field("Translation"), Field("X"), Index(0)}, errors.KindInvalidReflectionPath, ".Translation.X[0]"},
		{"nil pointer", Path{Field("Parent"), Field("X")}, errors.KindInvalidReflectionPath, ".Parent.X"},
		{"empty option", Path{Field("Parent"), Some()}, errors.KindInvalidReflectionPath, ".Parent#some"},
		{"missing key", Path{Field("Labels"), Key("mp")}, errors.KindInvalidReflectionPath, `.Labels{"mp"}`},
		{"key of wrong type", Path{Field("Labels"), Key(3)}, errors.KindInvalidReflectionPath, ".Labels{3}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.path.Walk(cell(newTransform()))
			if err == nil {
				t.Fatalf("Walk(%s) succeeded, want error", tt.path)
			}
			if errors.KindOf(err) != tt.kind {
				t.Fatalf("kind = %q, want %q (%v)", errors.KindOf(err), tt.kind, err)
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("not a structured error: %v", err)
			}
			if got := strings.Join(e.Path, ""); got != tt.at {
				t.Errorf("error path = %q, want %q", got, tt.at)
			}
		})
	}
}

func TestWalkMut(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		set   any
		check func(*transform) any
	}{
		{"field", Path{Field("Translation"), Field("X")}, 5.0, func(tr *transform) any { return tr.Translation.X }},
		{"slice", Path{Field("Tags"), Index(0)}, "z", func(tr *transform) any { return tr.Tags[0] }},
		{"map entry", Path{Field("Labels"), Key("hp")}, 99, func(tr *transform) any { return tr.Labels["hp"] }},
		{"interface contents", Path{Field("Extra"), Field("Z")}, 1.5, func(tr *transform) any { return tr.Extra.(vec3).Z }},
		{"array", Path{Field("Points"), Index(0), Field("Y")}, 3.0, func(tr *transform) any { return tr.Points[0].Y }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTransform()
			target, commit, err := tt.path.WalkMut(cell(tr))
			if err != nil {
				t.Fatalf("WalkMut(%s): %v", tt.path, err)
			}
			target.Set(reflect.ValueOf(tt.set))
			if commit != nil {
				commit()
			}
			if got := tt.check(tr); !reflect.DeepEqual(got, tt.set) {
				t.Errorf("after write got %v, want %v", got, tt.set)
			}
		})
	}
}

func TestWalkMutNestedMapCommit(t *testing.T) {
	root := map[string]map[string]vec3{
		"a": {"b": {1, 2, 3}},
	}
	p := Path{Key("a"), Key("b"), Field("X")}

	target, commit, err := p.WalkMut(cell(&root))
	if err != nil {
		t.Fatalf("WalkMut: %v", err)
	}
	target.SetFloat(42)
	if root["a"]["b"].X != 1 {
		t.Fatalf("map mutated before commit")
	}
	commit()
	if root["a"]["b"].X != 42 {
		t.Errorf("X = %v, want 42", root["a"]["b"].X)
	}
}

func TestWalkMutProvenance(t *testing.T) {
	t.Run("read-only hook", func(t *testing.T) {
		_, _, err := Path{Field("Tags"), Len()}.WalkMut(cell(newTransform()))
		if !errors.Is(err, errors.ErrInsufficientProvenance) {
			t.Fatalf("err = %v, want insufficient provenance", err)
		}
	})

	t.Run("non-settable root", func(t *testing.T) {
		_, _, err := Path{Field("X")}.WalkMut(reflect.ValueOf(vec3{}))
		if !errors.Is(err, errors.ErrInsufficientProvenance) {
			t.Fatalf("err = %v, want insufficient provenance", err)
		}
	})

	t.Run("pointer root is settable", func(t *testing.T) {
		v := &vec3{}
		target, _, err := Path{Field("X")}.WalkMut(reflect.ValueOf(v))
		if err != nil {
			t.Fatalf("WalkMut: %v", err)
		}
		target.SetFloat(2)
		if v.X != 2 {
			t.Errorf("X = %v, want 2", v.X)
		}
	})
}

func TestCustomHook(t *testing.T) {
	double := &Hook{
		ID: "double",
		Get: func(v reflect.Value) (reflect.Value, error) {
			return reflect.ValueOf(v.Float() * 2), nil
		},
	}
	p := Path{Field("Translation"), Field("Z"), Custom(double)}

	got, err := p.Walk(cell(newTransform()))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if got.Float() != 6 {
		t.Errorf("got %v, want 6", got.Float())
	}
	if !p.ReadOnly() {
		t.Error("path with read-only hook should report ReadOnly")
	}
	if _, _, err := p.WalkMut(cell(newTransform())); !errors.Is(err, errors.ErrInsufficientProvenance) {
		t.Errorf("WalkMut err = %v, want insufficient provenance", err)
	}
}

func TestAppendCopies(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = Field("a")

	p1 := base.Append(Field("b"))
	p2 := base.Append(Field("c"))

	if p1.String() != ".a.b" || p2.String() != ".a.c" {
		t.Errorf("paths share storage: %s %s", p1, p2)
	}
	if len(base) != 1 {
		t.Errorf("base modified: %s", base)
	}
}

func TestCustomPanicsWithoutGet(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Custom without Get did not panic")
		}
	}()
	Custom(&Hook{ID: "broken"})
}

func TestWalkUnhashableKey(t *testing.T) {
	type boxed struct{ V any }
	root := map[any]int{"a": 1, boxed{V: 2}: 2}

	for _, key := range []any{[]int{1}, map[string]int{}, boxed{V: []int{1}}} {
		p := Path{Key(key)}
		if _, err := p.Walk(cell(&root)); errors.KindOf(err) != errors.KindInvalidReflectionPath {
			t.Errorf("Walk(%T) err = %v, want invalid path", key, err)
		}
		if _, _, err := p.WalkMut(cell(&root)); errors.KindOf(err) != errors.KindInvalidReflectionPath {
			t.Errorf("WalkMut(%T) err = %v, want invalid path", key, err)
		}
	}

	v, err := Path{Key(boxed{V: 2})}.Walk(cell(&root))
	if err != nil || v.Int() != 2 {
		t.Fatalf("comparable struct key = %v, %v", v, err)
	}
}
