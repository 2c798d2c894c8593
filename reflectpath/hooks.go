package reflectpath

import (
	"reflect"

	"github.com/wippyai/scriptref/errors"
)

var (
	someHook = &Hook{
		ID: "some",
		Get: func(v reflect.Value) (reflect.Value, error) {
			return optionArm(v)
		},
		GetMut: func(v reflect.Value) (reflect.Value, error) {
			return optionArm(v)
		},
	}

	lenHook = &Hook{
		ID: "len",
		Get: func(v reflect.Value) (reflect.Value, error) {
			v, err := indirect(v)
			if err != nil {
				return reflect.Value{}, err
			}
			switch v.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
				return reflect.ValueOf(v.Len()), nil
			}
			return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "value has no length")
		},
	}

	derefHook = &Hook{
		ID: "deref",
		Get: func(v reflect.Value) (reflect.Value, error) {
			switch v.Kind() {
			case reflect.Pointer, reflect.Interface:
				if v.IsNil() {
					return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "nil value")
				}
				return v.Elem(), nil
			}
			return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "not a pointer")
		},
		GetMut: func(v reflect.Value) (reflect.Value, error) {
			if v.Kind() == reflect.Interface {
				return reflect.Value{}, errors.InsufficientProvenance(nil, "interface contents are not addressable")
			}
			if v.Kind() != reflect.Pointer {
				return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "not a pointer")
			}
			if v.IsNil() {
				return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "nil value")
			}
			return v.Elem(), nil
		},
	}
)

// Some projects the value behind an optional pointer. An empty option
// fails with errors.KindInvalidReflectionPath.
func Some() Element { return Custom(someHook) }

// Len projects the length of a slice, array, map or string. It is read-only.
func Len() Element { return Custom(lenHook) }

// Deref steps through exactly one pointer or interface.
func Deref() Element { return Custom(derefHook) }

// Builtins returns the built-in hooks by id, for use with ParseWith.
func Builtins() map[string]*Hook {
	return map[string]*Hook{
		someHook.ID:  someHook,
		lenHook.ID:   lenHook,
		derefHook.ID: derefHook,
	}
}

func optionArm(v reflect.Value) (reflect.Value, error) {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Pointer {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "not an option")
	}
	if v.IsNil() {
		return reflect.Value{}, errors.InvalidPath(nil, typeName(v), "option is empty")
	}
	return v.Elem(), nil
}
