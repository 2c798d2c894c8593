package convert

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
)

var bytesType = reflect.TypeOf([]byte(nil))

// ToPrimitive classifies v. Pointers become options, slices and arrays
// become lists, and values with no primitive form are opaque.
func ToPrimitive(v reflect.Value) Primitive {
	if !v.IsValid() {
		return None()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(v.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(v.Float())
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.String:
		return String(v.String())
	case reflect.Struct:
		if v.NumField() == 0 {
			return Unit()
		}
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return Bytes(v.Bytes())
		}
		return listOf(v)
	case reflect.Array:
		return listOf(v)
	case reflect.Map:
		return mapOf(v)
	case reflect.Pointer:
		if v.IsNil() {
			return None()
		}
		return Some(ToPrimitive(v.Elem()))
	case reflect.Interface:
		if v.IsNil() {
			return None()
		}
		return ToPrimitive(v.Elem())
	}
	return Opaque(v)
}

func listOf(v reflect.Value) Primitive {
	items := make([]Primitive, v.Len())
	for i := range items {
		items[i] = ToPrimitive(v.Index(i))
	}
	return List(items...)
}

// mapOf orders entries by rendered key so results are stable.
func mapOf(v reflect.Value) Primitive {
	entries := make([]Entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		entries = append(entries, Entry{Key: ToPrimitive(iter.Key()), Value: ToPrimitive(iter.Value())})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Key.String(), b.Key.String())
	})
	return Map(entries...)
}

// Convert builds a value of type t from p. The result is addressable.
// It returns false when p has no representation in t.
func Convert(p Primitive, t reflect.Type) (reflect.Value, bool) {
	out := reflect.New(t).Elem()
	if !convertInto(p, out) {
		return reflect.Value{}, false
	}
	return out, true
}

// MustConvert is Convert for callers that have already checked the shapes.
func MustConvert(p Primitive, t reflect.Type) reflect.Value {
	v, ok := Convert(p, t)
	if !ok {
		panic(fmt.Sprintf("convert: %s %s cannot be stored as %s", p.form, p, t))
	}
	return v
}

func convertInto(p Primitive, out reflect.Value) bool {
	t := out.Type()

	if p.form == FormOpaque {
		if !p.opaque.IsValid() || p.opaque.Type() != t {
			return false
		}
		out.Set(p.opaque)
		return true
	}

	if t.Kind() == reflect.Interface {
		natural := p.Interface()
		if natural == nil {
			return true
		}
		nv := reflect.ValueOf(natural)
		if !nv.Type().Implements(t) {
			return false
		}
		out.Set(nv)
		return true
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch p.form {
		case FormSigned:
			out.SetInt(p.i)
		case FormUnsigned:
			out.SetInt(int64(p.u))
		case FormFloat:
			out.SetInt(floatToInt(p.f, t.Bits()))
		default:
			return false
		}
		return true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch p.form {
		case FormSigned:
			out.SetUint(uint64(p.i))
		case FormUnsigned:
			out.SetUint(p.u)
		case FormFloat:
			out.SetUint(floatToUint(p.f, t.Bits()))
		default:
			return false
		}
		return true

	case reflect.Float32, reflect.Float64:
		f, ok := p.Float64()
		if !ok {
			return false
		}
		out.SetFloat(f)
		return true

	case reflect.Bool:
		if p.form != FormBool {
			return false
		}
		out.SetBool(p.b)
		return true

	case reflect.String:
		if p.form != FormString {
			return false
		}
		out.SetString(p.s)
		return true

	case reflect.Struct:
		return p.form == FormUnit && t.NumField() == 0

	case reflect.Slice:
		if p.form == FormString && t.Elem().Kind() == reflect.Uint8 {
			out.Set(reflect.ValueOf([]byte(p.s)).Convert(t))
			return true
		}
		if p.form != FormList {
			return false
		}
		s := reflect.MakeSlice(t, len(p.items), len(p.items))
		for i, it := range p.items {
			if !convertInto(it, s.Index(i)) {
				return false
			}
		}
		out.Set(s)
		return true

	case reflect.Array:
		if p.form != FormList || len(p.items) != t.Len() {
			return false
		}
		for i, it := range p.items {
			if !convertInto(it, out.Index(i)) {
				return false
			}
		}
		return true

	case reflect.Map:
		if p.form != FormMap {
			return false
		}
		m := reflect.MakeMapWithSize(t, len(p.entries))
		for _, e := range p.entries {
			k := reflect.New(t.Key()).Elem()
			v := reflect.New(t.Elem()).Elem()
			if !convertKey(e.Key, k) || !convertInto(e.Value, v) {
				return false
			}
			m.SetMapIndex(k, v)
		}
		out.Set(m)
		return true

	case reflect.Pointer:
		if p.form != FormOption {
			return false
		}
		if p.elem == nil {
			return true
		}
		ptr := reflect.New(t.Elem())
		if !convertInto(*p.elem, ptr.Elem()) {
			return false
		}
		out.Set(ptr)
		return true
	}

	return false
}

// convertKey is convertInto for map keys. Interface key types receive the
// hashable Key form, and a key that still cannot be hashed is rejected.
func convertKey(p Primitive, out reflect.Value) bool {
	t := out.Type()
	if t.Kind() == reflect.Interface && p.form != FormOpaque {
		k := p.Key()
		if k != nil {
			kv := reflect.ValueOf(k)
			if !kv.Type().Implements(t) {
				return false
			}
			out.Set(kv)
		}
	} else if !convertInto(p, out) {
		return false
	}
	return out.Comparable()
}

// floatToInt truncates toward zero, saturating at the bounds of a signed
// integer of the given width. NaN is 0.
func floatToInt(f float64, bits int) int64 {
	if math.IsNaN(f) {
		return 0
	}
	lo := -math.Ldexp(1, bits-1)
	hi := math.Ldexp(1, bits-1)
	t := math.Trunc(f)
	switch {
	case t <= lo:
		return math.MinInt64 >> (64 - bits)
	case t >= hi:
		return math.MaxInt64 >> (64 - bits)
	}
	return int64(t)
}

// floatToUint is floatToInt for unsigned widths.
func floatToUint(f float64, bits int) uint64 {
	if math.IsNaN(f) {
		return 0
	}
	t := math.Trunc(f)
	switch {
	case t <= 0:
		return 0
	case t >= math.Ldexp(1, bits):
		return math.MaxUint64 >> (64 - bits)
	}
	return uint64(t)
}
