package ref

import (
	"reflect"

	"github.com/wippyai/scriptref/convert"
	"github.com/wippyai/scriptref/errors"
)

// Get returns a deep copy of the target as T.
func Get[T any](r *Reference) (T, error) {
	var out T
	want := reflect.TypeFor[T]()
	err := r.Read(func(v reflect.Value) error {
		if !v.Type().AssignableTo(want) {
			return errors.TypeMismatch(errors.PhaseConvert, want.String(), v.Type().String())
		}
		reflect.ValueOf(&out).Elem().Set(convert.Clone(v))
		return nil
	})
	return out, err
}

// SetTyped stores v in a target whose type is exactly T.
func SetTyped[T any](r *Reference, v T) error {
	want := reflect.TypeFor[T]()
	return r.Write(func(target reflect.Value) error {
		if target.Type() != want {
			return errors.TypeMismatch(errors.PhaseConvert, target.Type().String(), want.String())
		}
		target.Set(reflect.ValueOf(&v).Elem())
		return nil
	})
}

// View runs a projector over the target and returns its result.
func View[O any](r *Reference, fn func(reflect.Value) O) (O, error) {
	var out O
	err := r.Read(func(v reflect.Value) error {
		out = fn(v)
		return nil
	})
	return out, err
}

// Update runs fn on the target in place. The target type must be exactly T.
func Update[T any](r *Reference, fn func(*T) error) error {
	want := reflect.TypeFor[T]()
	return r.Write(func(target reflect.Value) error {
		if target.Type() != want {
			return errors.TypeMismatch(errors.PhaseConvert, want.String(), target.Type().String())
		}
		return fn(target.Addr().Interface().(*T))
	})
}
