package convert

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"
)

// WITOf maps a Go type to the WIT type a script sees. Structs become
// records, pointers options, slices and arrays lists, and maps lists of
// key/value tuples. Interfaces, funcs, channels and recursive types have
// no mapping.
func WITOf(t reflect.Type) (wit.Type, bool) {
	return witOf(t, map[reflect.Type]bool{})
}

func witOf(t reflect.Type, visiting map[reflect.Type]bool) (wit.Type, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}, true
	case reflect.Int8:
		return wit.S8{}, true
	case reflect.Int16:
		return wit.S16{}, true
	case reflect.Int32:
		return wit.S32{}, true
	case reflect.Int, reflect.Int64:
		return wit.S64{}, true
	case reflect.Uint8:
		return wit.U8{}, true
	case reflect.Uint16:
		return wit.U16{}, true
	case reflect.Uint32:
		return wit.U32{}, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return wit.U64{}, true
	case reflect.Float32:
		return wit.F32{}, true
	case reflect.Float64:
		return wit.F64{}, true
	case reflect.String:
		return wit.String{}, true
	}

	if visiting[t] {
		return nil, false
	}
	visiting[t] = true
	defer delete(visiting, t)

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		elem, ok := witOf(t.Elem(), visiting)
		if !ok {
			return nil, false
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, true

	case reflect.Pointer:
		elem, ok := witOf(t.Elem(), visiting)
		if !ok {
			return nil, false
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, true

	case reflect.Map:
		k, ok := witOf(t.Key(), visiting)
		if !ok {
			return nil, false
		}
		v, ok := witOf(t.Elem(), visiting)
		if !ok {
			return nil, false
		}
		pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{k, v}}}
		return &wit.TypeDef{Kind: &wit.List{Type: pair}}, true

	case reflect.Struct:
		if t.NumField() == 0 {
			return &wit.TypeDef{Kind: &wit.Tuple{}}, true
		}
		var fields []wit.Field
		for _, f := range reflect.VisibleFields(t) {
			if !f.IsExported() || f.Anonymous {
				continue
			}
			name := kebab(f.Name)
			if tag, ok := f.Tag.Lookup("script"); ok {
				tag, _, _ = strings.Cut(tag, ",")
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			ft, ok := witOf(f.Type, visiting)
			if !ok {
				return nil, false
			}
			fields = append(fields, wit.Field{Name: name, Type: ft})
		}
		td := &wit.TypeDef{Kind: &wit.Record{Fields: fields}}
		if t.Name() != "" {
			name := kebab(t.Name())
			td.Name = &name
		}
		return td, true
	}

	return nil, false
}

// TypeOfWIT builds a Go type for a WIT type. Records become structs with
// exported fields tagged with the WIT field name.
func TypeOfWIT(wt wit.Type) (reflect.Type, bool) {
	switch t := wt.(type) {
	case wit.Bool:
		return reflect.TypeFor[bool](), true
	case wit.S8:
		return reflect.TypeFor[int8](), true
	case wit.S16:
		return reflect.TypeFor[int16](), true
	case wit.S32:
		return reflect.TypeFor[int32](), true
	case wit.S64:
		return reflect.TypeFor[int64](), true
	case wit.U8:
		return reflect.TypeFor[uint8](), true
	case wit.U16:
		return reflect.TypeFor[uint16](), true
	case wit.U32:
		return reflect.TypeFor[uint32](), true
	case wit.U64:
		return reflect.TypeFor[uint64](), true
	case wit.F32:
		return reflect.TypeFor[float32](), true
	case wit.F64:
		return reflect.TypeFor[float64](), true
	case wit.Char:
		return reflect.TypeFor[rune](), true
	case wit.String:
		return reflect.TypeFor[string](), true
	case *wit.TypeDef:
		return typeOfDef(t)
	}
	return nil, false
}

func typeOfDef(td *wit.TypeDef) (reflect.Type, bool) {
	switch k := td.Kind.(type) {
	case *wit.List:
		elem, ok := TypeOfWIT(k.Type)
		if !ok {
			return nil, false
		}
		return reflect.SliceOf(elem), true

	case *wit.Option:
		elem, ok := TypeOfWIT(k.Type)
		if !ok {
			return nil, false
		}
		return reflect.PointerTo(elem), true

	case *wit.Tuple:
		fields := make([]reflect.StructField, len(k.Types))
		for i, et := range k.Types {
			ft, ok := TypeOfWIT(et)
			if !ok {
				return nil, false
			}
			fields[i] = reflect.StructField{Name: fmt.Sprintf("F%d", i), Type: ft}
		}
		return reflect.StructOf(fields), true

	case *wit.Record:
		fields := make([]reflect.StructField, len(k.Fields))
		for i, f := range k.Fields {
			ft, ok := TypeOfWIT(f.Type)
			if !ok {
				return nil, false
			}
			fields[i] = reflect.StructField{
				Name: camel(f.Name),
				Type: ft,
				Tag:  reflect.StructTag(`script:"` + f.Name + `"`),
			}
		}
		return reflect.StructOf(fields), true

	case wit.Type:
		return TypeOfWIT(k)
	}
	return nil, false
}

// WITName renders a WIT type the way it is written in WIT source.
func WITName(wt wit.Type) string {
	switch t := wt.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if t.Name != nil {
			return *t.Name
		}
		switch k := t.Kind.(type) {
		case *wit.List:
			return "list<" + WITName(k.Type) + ">"
		case *wit.Option:
			return "option<" + WITName(k.Type) + ">"
		case *wit.Result:
			return "result<" + WITName(k.OK) + ", " + WITName(k.Err) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, et := range k.Types {
				parts[i] = WITName(et)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Record:
			parts := make([]string, len(k.Fields))
			for i, f := range k.Fields {
				parts[i] = f.Name + ": " + WITName(f.Type)
			}
			return "record { " + strings.Join(parts, ", ") + " }"
		case wit.Type:
			return WITName(k)
		}
		return "typedef"
	}
	return fmt.Sprintf("%T", wt)
}

// kebab converts a Go identifier to WIT's kebab case: MaxHP -> max-hp.
func kebab(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) && i > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func camel(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' }) {
		rs := []rune(part)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}
