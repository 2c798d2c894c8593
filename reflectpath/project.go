package reflectpath

import (
	"reflect"
	"strings"
	"sync"

	"github.com/wippyai/scriptref/errors"
)

// Commit writes back copies made while walking mutably.
type Commit func()

func chain(inner, outer Commit) Commit {
	switch {
	case inner == nil:
		return outer
	case outer == nil:
		return inner
	}
	return func() {
		inner()
		outer()
	}
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "<invalid>"
	}
	return v.Type().String()
}

func indirect(v reflect.Value) (reflect.Value, error) {
	for {
		if !v.IsValid() {
			return v, errors.InvalidPath(nil, "", "invalid value")
		}
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface:
			if v.IsNil() {
				return v, errors.InvalidPath(nil, typeName(v), "nil value")
			}
			v = v.Elem()
		default:
			return v, nil
		}
	}
}

// indirectMut follows pointers and interfaces. Interface contents are not
// settable in place, so they are copied and written back by the commit.
func indirectMut(v reflect.Value) (reflect.Value, Commit, error) {
	var commit Commit
	for {
		if !v.IsValid() {
			return v, nil, errors.InvalidPath(nil, "", "invalid value")
		}
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				return v, nil, errors.InvalidPath(nil, typeName(v), "nil value")
			}
			v = v.Elem()
		case reflect.Interface:
			if v.IsNil() {
				return v, nil, errors.InvalidPath(nil, typeName(v), "nil value")
			}
			if !v.CanSet() {
				return v, nil, errors.InsufficientProvenance(nil, "interface value is not settable")
			}
			holder := v
			elem := v.Elem()
			cp := reflect.New(elem.Type()).Elem()
			cp.Set(elem)
			commit = chain(func() { holder.Set(cp) }, commit)
			v = cp
		default:
			return v, commit, nil
		}
	}
}

type fieldKey struct {
	t    reflect.Type
	name string
}

// fieldCache memoizes name lookups per struct type.
var fieldCache sync.Map // key: fieldKey, val: []int (nil when absent)

func fieldOf(v reflect.Value, name string) (reflect.Value, error) {
	switch v.Kind() {
	case reflect.Struct:
		idx := lookupField(v.Type(), name)
		if idx == nil {
			return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "no such field")
		}
		f, err := v.FieldByIndexErr(idx)
		if err != nil {
			return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "nil embedded pointer")
		}
		return f, nil
	case reflect.Map:
		mk, err := nameKey(v, name)
		if err != nil {
			return reflect.Value{}, err
		}
		return entryOf(v, mk, "no such field")
	default:
		return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "no such field")
	}
}

func lookupField(t reflect.Type, name string) []int {
	key := fieldKey{t: t, name: name}
	if v, ok := fieldCache.Load(key); ok {
		return v.([]int)
	}
	idx := findField(t, name)
	fieldCache.Store(key, idx)
	return idx
}

// findField matches, in order: a `script:"name"` tag, the exact Go name,
// and a case-insensitive Go name. Unexported fields and fields tagged
// `script:"-"` are never matched.
func findField(t reflect.Type, name string) []int {
	var exact, folded []int
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		tag, hasTag := scriptTag(f)
		if tag == "-" {
			continue
		}
		if hasTag && tag == name {
			return f.Index
		}
		if f.Name == name && exact == nil {
			exact = f.Index
		}
		if folded == nil && strings.EqualFold(f.Name, name) {
			folded = f.Index
		}
	}
	if exact != nil {
		return exact
	}
	return folded
}

func scriptTag(f reflect.StructField) (string, bool) {
	tag, ok := f.Tag.Lookup("script")
	if !ok {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	return name, name != ""
}

// tupleFields returns the top-level fields reachable by position.
func tupleFields(t reflect.Type) []int {
	var out []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, _ := scriptTag(f); tag == "-" {
			continue
		}
		out = append(out, i)
	}
	return out
}

func indexOf(v reflect.Value, i int) (reflect.Value, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if i < 0 || i >= v.Len() {
			return reflect.Value{}, errors.New(errors.PhasePath, errors.KindInvalidReflectionPath).
				GoType(typeName(v)).
				Value(i).
				Detail("no such element: index %d, length %d", i, v.Len()).
				Build()
		}
		return v.Index(i), nil
	case reflect.Struct:
		fields := tupleFields(v.Type())
		if i < 0 || i >= len(fields) {
			return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "no such element")
		}
		return v.Field(fields[i]), nil
	default:
		return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "not indexable")
	}
}

func nameKey(m reflect.Value, name string) (reflect.Value, error) {
	kt := m.Type().Key()
	if kt.Kind() != reflect.String {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(m), "no such field")
	}
	return reflect.ValueOf(name).Convert(kt), nil
}

// mapKey converts k to m's key type. Numbers convert only when the value
// survives the round trip; strings only to string kinds. Keys that cannot be
// hashed, including comparable types holding slices behind interfaces, are
// rejected before they reach the map.
func mapKey(m reflect.Value, k any) (reflect.Value, error) {
	if m.Kind() != reflect.Map {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(m), "not a map")
	}
	kt := m.Type().Key()
	kv := reflect.ValueOf(k)
	if !kv.IsValid() {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(m), "nil key")
	}
	if !kv.Comparable() {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(m), "key of type "+kv.Type().String()+" is not hashable")
	}
	if kv.Type().AssignableTo(kt) {
		return kv, nil
	}
	if family(kv.Kind()) != 0 && family(kv.Kind()) == family(kt.Kind()) && kv.CanConvert(kt) {
		out := kv.Convert(kt)
		if out.Convert(kv.Type()).Equal(kv) {
			return out, nil
		}
	}
	return reflect.Value{}, errors.New(errors.PhasePath, errors.KindInvalidReflectionPath).
		GoType(typeName(m)).
		Value(k).
		Detail("key of type %s does not fit %s", kv.Type(), kt).
		Build()
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	default:
		return 0
	}
}

func entryOf(m reflect.Value, k reflect.Value, reason string) (reflect.Value, error) {
	e := m.MapIndex(k)
	if !e.IsValid() {
		return reflect.Value{}, errors.New(errors.PhasePath, errors.KindInvalidReflectionPath).
			GoType(typeName(m)).
			Value(k.Interface()).
			Detail(reason).
			Build()
	}
	return e, nil
}

// mapEntryMut projects a settable copy of a map entry and a commit storing it back.
func mapEntryMut(m reflect.Value, k reflect.Value, reason string) (reflect.Value, Commit, error) {
	e, err := entryOf(m, k, reason)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	cp := reflect.New(e.Type()).Elem()
	cp.Set(e)
	return cp, func() { m.SetMapIndex(k, cp) }, nil
}
