package convert

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Form classifies a Primitive.
type Form uint8

const (
	FormOpaque Form = iota
	FormSigned
	FormUnsigned
	FormFloat
	FormBool
	FormString
	FormUnit
	FormList
	FormMap
	FormOption
)

var formNames = [...]string{
	FormOpaque:   "opaque",
	FormSigned:   "signed",
	FormUnsigned: "unsigned",
	FormFloat:    "float",
	FormBool:     "bool",
	FormString:   "string",
	FormUnit:     "unit",
	FormList:     "list",
	FormMap:      "map",
	FormOption:   "option",
}

func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return "form(" + strconv.Itoa(int(f)) + ")"
}

// Numeric reports whether the form is one of the number families.
func (f Form) Numeric() bool {
	return f == FormSigned || f == FormUnsigned || f == FormFloat
}

// Entry is one key/value pair of a map primitive.
type Entry struct {
	Key   Primitive
	Value Primitive
}

// Primitive is a host value classified for conversion.
type Primitive struct {
	opaque  reflect.Value
	elem    *Primitive
	s       string
	items   []Primitive
	entries []Entry
	i       int64
	u       uint64
	f       float64
	form    Form
	b       bool
	bytes   bool
}

func Int(v int64) Primitive { return Primitive{form: FormSigned, i: v} }
func Uint(v uint64) Primitive { return Primitive{form: FormUnsigned, u: v} }
func Float(v float64) Primitive { return Primitive{form: FormFloat, f: v} }
func Bool(v bool) Primitive { return Primitive{form: FormBool, b: v} }
func String(v string) Primitive { return Primitive{form: FormString, s: v} }
func Bytes(v []byte) Primitive { return Primitive{form: FormString, s: string(v), bytes: true} }
func Unit() Primitive { return Primitive{form: FormUnit} }
func None() Primitive { return Primitive{form: FormOption} }

// Some wraps p as a present option.
func Some(p Primitive) Primitive {
	return Primitive{form: FormOption, elem: &p}
}

// List builds a list primitive.
func List(items ...Primitive) Primitive {
	return Primitive{form: FormList, items: items}
}

// Map builds a map primitive.
func Map(entries ...Entry) Primitive {
	return Primitive{form: FormMap, entries: entries}
}

// Opaque wraps a value that has no primitive form.
func Opaque(v reflect.Value) Primitive {
	return Primitive{form: FormOpaque, opaque: v}
}

// FromAny classifies a Go value. nil is an empty option.
func FromAny(v any) Primitive {
	return ToPrimitive(reflect.ValueOf(v))
}

func (p Primitive) Form() Form { return p.form }
func (p Primitive) Int() int64 { return p.i }
func (p Primitive) Uint() uint64 { return p.u }
func (p Primitive) Float() float64 { return p.f }
func (p Primitive) Bool() bool { return p.b }
func (p Primitive) Str() string { return p.s }
func (p Primitive) IsBytes() bool { return p.bytes }
func (p Primitive) Items() []Primitive { return p.items }
func (p Primitive) Entries() []Entry { return p.entries }
func (p Primitive) Opaque() reflect.Value {
	return p.opaque
}

// Elem returns the contents of an option and whether it is present.
func (p Primitive) Elem() (Primitive, bool) {
	if p.form != FormOption || p.elem == nil {
		return Primitive{}, false
	}
	return *p.elem, true
}

// Float64 returns any numeric form as a float64.
func (p Primitive) Float64() (float64, bool) {
	switch p.form {
	case FormSigned:
		return float64(p.i), true
	case FormUnsigned:
		return float64(p.u), true
	case FormFloat:
		return p.f, true
	}
	return 0, false
}

// Int64 returns any numeric form as an int64 with cast semantics.
func (p Primitive) Int64() (int64, bool) {
	switch p.form {
	case FormSigned:
		return p.i, true
	case FormUnsigned:
		return int64(p.u), true
	case FormFloat:
		return floatToInt(p.f, 64), true
	}
	return 0, false
}

// Interface returns the natural Go value: int64, uint64, float64, bool,
// string or []byte, struct{}, []any, map[any]any, nil for an empty option,
// or the opaque value itself. Map keys are built by Key.
func (p Primitive) Interface() any {
	switch p.form {
	case FormSigned:
		return p.i
	case FormUnsigned:
		return p.u
	case FormFloat:
		return p.f
	case FormBool:
		return p.b
	case FormString:
		if p.bytes {
			return []byte(p.s)
		}
		return p.s
	case FormUnit:
		return struct{}{}
	case FormList:
		out := make([]any, len(p.items))
		for i, it := range p.items {
			out[i] = it.Interface()
		}
		return out
	case FormMap:
		out := make(map[any]any, len(p.entries))
		for _, e := range p.entries {
			out[e.Key.Key()] = e.Value.Interface()
		}
		return out
	case FormOption:
		if p.elem == nil {
			return nil
		}
		return p.elem.Interface()
	default:
		if !p.opaque.IsValid() || !p.opaque.CanInterface() {
			return nil
		}
		return p.opaque.Interface()
	}
}

var anyType = reflect.TypeFor[any]()

// Key is Interface for use as a map key. Lists become [N]any arrays and
// byte strings become strings, so the result is always hashable. Values
// with no hashable form fall back to their String rendering.
func (p Primitive) Key() any {
	switch p.form {
	case FormString:
		return p.s
	case FormList:
		arr := reflect.New(reflect.ArrayOf(len(p.items), anyType)).Elem()
		for i, it := range p.items {
			if k := it.Key(); k != nil {
				arr.Index(i).Set(reflect.ValueOf(k))
			}
		}
		return arr.Interface()
	case FormOption:
		if p.elem == nil {
			return nil
		}
		return p.elem.Key()
	}
	v := p.Interface()
	if v != nil && !reflect.ValueOf(v).Comparable() {
		return p.String()
	}
	return v
}

func (p Primitive) String() string {
	switch p.form {
	case FormSigned:
		return strconv.FormatInt(p.i, 10)
	case FormUnsigned:
		return strconv.FormatUint(p.u, 10)
	case FormFloat:
		return strconv.FormatFloat(p.f, 'g', -1, 64)
	case FormBool:
		return strconv.FormatBool(p.b)
	case FormString:
		return strconv.Quote(p.s)
	case FormUnit:
		return "()"
	case FormList:
		parts := make([]string, len(p.items))
		for i, it := range p.items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case FormMap:
		parts := make([]string, len(p.entries))
		for i, e := range p.entries {
			parts[i] = e.Key.String() + ": " + e.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case FormOption:
		if p.elem == nil {
			return "none"
		}
		return "some(" + p.elem.String() + ")"
	default:
		if !p.opaque.IsValid() {
			return "<opaque>"
		}
		if p.opaque.CanInterface() {
			return fmt.Sprintf("<%s %v>", p.opaque.Type(), p.opaque.Interface())
		}
		return "<" + p.opaque.Type().String() + ">"
	}
}
