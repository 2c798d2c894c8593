package convert

import (
	"math"
	"reflect"
	"testing"
)

func TestConvertNumericCasts(t *testing.T) {
	tests := []struct {
		name string
		in   Primitive
		to   any
		want any
	}{
		{"wrap 300 to u8", Int(300), uint8(0), uint8(44)},
		{"wrap -1 to u8", Int(-1), uint8(0), uint8(255)},
		{"wrap u64 max to i8", Uint(math.MaxUint64), int8(0), int8(-1)},
		{"truncate 3.9", Float(3.9), int32(0), int32(3)},
		{"truncate -3.9", Float(-3.9), int32(0), int32(-3)},
		{"saturate high", Float(1e20), int8(0), int8(127)},
		{"saturate low", Float(-1e20), int8(0), int8(-128)},
		{"saturate i64", Float(1e30), int64(0), int64(math.MaxInt64)},
		{"negative float to uint", Float(-5), uint16(0), uint16(0)},
		{"saturate uint", Float(1e6), uint16(0), uint16(math.MaxUint16)},
		{"nan", Float(math.NaN()), int(0), int(0)},
		{"inf", Float(math.Inf(1)), int16(0), int16(math.MaxInt16)},
		{"int to float", Int(7), float32(0), float32(7)},
		{"uint to float", Uint(9), float64(0), float64(9)},
		{"widen", Int(-5), int64(0), int64(-5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Convert(tt.in, reflect.TypeOf(tt.to))
			if !ok {
				t.Fatalf("Convert(%s) to %T failed", tt.in, tt.to)
			}
			if got.Interface() != tt.want {
				t.Errorf("Convert(%s) = %v, want %v", tt.in, got.Interface(), tt.want)
			}
		})
	}
}

type label string

type blob []byte

type vec2 struct{ X, Y float64 }

func TestConvertStrict(t *testing.T) {
	tests := []struct {
		name string
		in   Primitive
		to   reflect.Type
		ok   bool
	}{
		{"string to named string", String("a"), reflect.TypeFor[label](), true},
		{"string to bytes", String("a"), reflect.TypeFor[blob](), true},
		{"string to int", String("1"), reflect.TypeFor[int](), false},
		{"int to string", Int(1), reflect.TypeFor[string](), false},
		{"int to bool", Int(1), reflect.TypeFor[bool](), false},
		{"bool to bool", Bool(true), reflect.TypeFor[bool](), true},
		{"unit to empty struct", Unit(), reflect.TypeFor[struct{}](), true},
		{"unit to struct", Unit(), reflect.TypeFor[vec2](), false},
		{"opaque exact", Opaque(reflect.ValueOf(vec2{1, 2})), reflect.TypeFor[vec2](), true},
		{"opaque other", Opaque(reflect.ValueOf(vec2{1, 2})), reflect.TypeFor[struct{ X, Y float64 }](), false},
		{"list to array wrong len", List(Int(1)), reflect.TypeFor[[2]int](), false},
		{"none to pointer", None(), reflect.TypeFor[*int](), true},
		{"int to pointer", Int(1), reflect.TypeFor[*int](), false},
		{"int to any", Int(1), reflect.TypeFor[any](), true},
		{"int to stringer", Int(1), reflect.TypeFor[interface{ String() string }](), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Convert(tt.in, tt.to)
			if ok != tt.ok {
				t.Errorf("Convert(%s, %s) ok = %v, want %v", tt.in, tt.to, ok, tt.ok)
			}
		})
	}
}

func TestConvertContainers(t *testing.T) {
	got, ok := Convert(List(Int(1), Float(2.7), Uint(300)), reflect.TypeFor[[]uint8]())
	if !ok {
		t.Fatal("list conversion failed")
	}
	if want := []uint8{1, 2, 44}; !reflect.DeepEqual(got.Interface(), want) {
		t.Errorf("got %v, want %v", got.Interface(), want)
	}

	m, ok := Convert(Map(Entry{String("a"), Int(1)}), reflect.TypeFor[map[label]float32]())
	if !ok {
		t.Fatal("map conversion failed")
	}
	if want := map[label]float32{"a": 1}; !reflect.DeepEqual(m.Interface(), want) {
		t.Errorf("got %v, want %v", m.Interface(), want)
	}

	p, ok := Convert(Some(Float(2.5)), reflect.TypeFor[*int]())
	if !ok {
		t.Fatal("option conversion failed")
	}
	if *p.Interface().(*int) != 2 {
		t.Errorf("got %v, want 2", *p.Interface().(*int))
	}

	if _, ok := Convert(List(String("x")), reflect.TypeFor[[]int]()); ok {
		t.Error("list with mismatched element converted")
	}
}

func TestToPrimitive(t *testing.T) {
	n := 3
	tests := []struct {
		name string
		in   any
		form Form
		str  string
	}{
		{"int", int16(-4), FormSigned, "-4"},
		{"uint", uint(4), FormUnsigned, "4"},
		{"float", 1.5, FormFloat, "1.5"},
		{"bool", true, FormBool, "true"},
		{"string", label("hi"), FormString, `"hi"`},
		{"bytes", []byte("hi"), FormString, `"hi"`},
		{"unit", struct{}{}, FormUnit, "()"},
		{"list", []int{1, 2}, FormList, "[1, 2]"},
		{"map", map[string]int{"b": 2, "a": 1}, FormMap, `{"a": 1, "b": 2}`},
		{"some", &n, FormOption, "some(3)"},
		{"none", (*int)(nil), FormOption, "none"},
		{"nil", nil, FormOption, "none"},
		{"struct", vec2{1, 2}, FormOpaque, "<convert.vec2 {1 2}>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromAny(tt.in)
			if p.Form() != tt.form {
				t.Errorf("form = %s, want %s", p.Form(), tt.form)
			}
			if p.String() != tt.str {
				t.Errorf("String() = %s, want %s", p.String(), tt.str)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []any{int8(-3), uint32(7), float32(0.5), "s", []string{"a"}, map[string]bool{"k": true}, vec2{1, 2}}
	for _, v := range values {
		got, ok := Convert(FromAny(v), reflect.TypeOf(v))
		if !ok {
			t.Errorf("%T did not convert back", v)
			continue
		}
		if !reflect.DeepEqual(got.Interface(), v) {
			t.Errorf("round trip of %v = %v", v, got.Interface())
		}
	}
}

func TestPrimitiveAccessors(t *testing.T) {
	if f, ok := Int(-2).Float64(); !ok || f != -2 {
		t.Errorf("Float64() = %v, %v", f, ok)
	}
	if i, ok := Float(9.99).Int64(); !ok || i != 9 {
		t.Errorf("Int64() = %v, %v", i, ok)
	}
	if _, ok := String("x").Float64(); ok {
		t.Error("string reported numeric")
	}
	if e, ok := Some(Bool(true)).Elem(); !ok || !e.Bool() {
		t.Error("Some().Elem() lost its value")
	}
	if _, ok := None().Elem(); ok {
		t.Error("None().Elem() reported present")
	}
	if got := List(Int(1), String("a")).Interface(); !reflect.DeepEqual(got, []any{int64(1), "a"}) {
		t.Errorf("Interface() = %#v", got)
	}
}

func TestMustConvertPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustConvert did not panic")
		}
	}()
	MustConvert(String("x"), reflect.TypeFor[int]())
}

func TestArrayKeyedMaps(t *testing.T) {
	p := FromAny(map[[2]int]string{{1, 2}: "a", {3, 4}: "b"})

	natural, ok := p.Interface().(map[any]any)
	if !ok {
		t.Fatalf("Interface() = %T", p.Interface())
	}
	if got := natural[[2]any{int64(1), int64(2)}]; got != "a" {
		t.Errorf("natural map lookup = %v, want a", got)
	}

	m, ok := Convert(p, reflect.TypeFor[map[any]string]())
	if !ok {
		t.Fatal("conversion to interface-keyed map failed")
	}
	if got := m.Interface().(map[any]string)[[2]any{int64(3), int64(4)}]; got != "b" {
		t.Errorf("converted map lookup = %q, want b", got)
	}

	back, ok := Convert(p, reflect.TypeFor[map[[2]int]string]())
	if !ok {
		t.Fatal("conversion back to array keys failed")
	}
	if want := map[[2]int]string{{1, 2}: "a", {3, 4}: "b"}; !reflect.DeepEqual(back.Interface(), want) {
		t.Errorf("got %v, want %v", back.Interface(), want)
	}

	nested := Map(Entry{Key: Map(Entry{Key: String("k"), Value: Int(1)}), Value: Bool(true)})
	if _, ok := nested.Interface().(map[any]any)[`{"k": 1}`]; !ok {
		t.Errorf("map-valued key not rendered: %v", nested.Interface())
	}
}
