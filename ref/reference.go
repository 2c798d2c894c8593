package ref

import (
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/convert"
	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/reflectpath"
)

// Reference names a value inside a root. Creating or extending a reference
// never touches the root; all checks happen when it is accessed.
type Reference struct {
	base  Base
	path  reflectpath.Path
	cache cached
	mu    sync.Mutex
}

// cached is the last derived target. It is only valid inside the claim
// whose epoch it records.
type cached struct {
	value   reflect.Value
	epoch   uint64
	mutable bool
}

// New creates a reference to base followed by elems.
func New(base Base, elems ...reflectpath.Element) *Reference {
	return &Reference{base: base, path: reflectpath.Path(nil).Append(elems...)}
}

// Base returns the root of the reference.
func (r *Reference) Base() Base { return r.base }

// Path returns a copy of the path.
func (r *Reference) Path() reflectpath.Path { return r.path.Append() }

// String renders the base followed by the path, e.g. (Transform on 4).translation.x.
func (r *Reference) String() string {
	return r.base.String() + r.path.String()
}

// IsValid reports whether the base can still be resolved. It does not walk
// the path, so a valid reference may still fail with a path error.
func (r *Reference) IsValid() bool {
	return r.base.IsValid()
}

// With returns a reference with elems appended.
func (r *Reference) With(elems ...reflectpath.Element) *Reference {
	return New(r.base, r.path.Append(elems...)...)
}

// Field returns a reference to a named field or string-keyed entry.
func (r *Reference) Field(name string) *Reference {
	return r.With(reflectpath.Field(name))
}

// Key returns a reference to a map entry.
func (r *Reference) Key(k any) *Reference {
	return r.With(reflectpath.Key(k))
}

// Elem returns a reference through one pointer or interface.
func (r *Reference) Elem() *Reference {
	return r.With(reflectpath.Deref())
}

// Index returns a reference one step further down. Integers index
// positionally, strings name fields, path elements are used as given and
// any other key addresses a map entry.
func (r *Reference) Index(key any) *Reference {
	switch k := key.(type) {
	case reflectpath.Element:
		return r.With(k)
	case string:
		return r.Field(k)
	}
	kv := reflect.ValueOf(key)
	switch {
	case kv.CanInt():
		return r.With(reflectpath.Index(int(kv.Int())))
	case kv.CanUint():
		return r.With(reflectpath.Index(int(kv.Uint())))
	}
	return r.Key(key)
}

// Read claims the root shared, walks the path and calls fn with the target.
// fn must not modify the value or retain it after returning. The claim is
// released even if fn panics.
func (r *Reference) Read(fn func(reflect.Value) error) (err error) {
	sc, err := r.base.open(access.Shared)
	if err != nil {
		return r.fail(err)
	}
	defer func() {
		multierr.AppendInto(&err, sc.release())
		err = r.fail(err)
	}()

	target, err := r.derive(sc)
	if err != nil {
		return err
	}
	return fn(target)
}

// Write claims the root exclusively, walks the path for writing and calls fn
// with a settable target. Component and resource roots are marked changed
// once per call, before fn runs. The claim is released even if fn panics.
func (r *Reference) Write(fn func(reflect.Value) error) (err error) {
	sc, err := r.base.open(access.Exclusive)
	if err != nil {
		return r.fail(err)
	}
	defer func() {
		multierr.AppendInto(&err, sc.release())
		err = r.fail(err)
	}()
	return r.writeIn(sc, fn)
}

func (r *Reference) writeIn(sc *scope, fn func(reflect.Value) error) error {
	r.invalidate()
	target, commit, err := r.path.WalkMut(sc.root)
	if err != nil {
		return err
	}
	if sc.mark != nil {
		sc.mark()
	}
	err = fn(target)
	if commit != nil {
		commit()
	}
	return err
}

// derive returns the target for reading, reusing the cache when it was
// filled under the same claim.
func (r *Reference) derive(sc *scope) (reflect.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sc.epoch != 0 && r.cache.epoch == sc.epoch && r.cache.value.IsValid() {
		return r.cache.value, nil
	}
	v, err := r.path.Walk(sc.root)
	if err != nil {
		r.cache = cached{}
		return reflect.Value{}, err
	}
	r.cache = cached{value: v, epoch: sc.epoch, mutable: sc.mode == access.Exclusive}
	return v, nil
}

func (r *Reference) invalidate() {
	r.mu.Lock()
	r.cache = cached{}
	r.mu.Unlock()
}

// Apply copies the current value of other into r. The copy is deep. Values
// of a different type go through the conversion bridge; if that fails the
// result is errors.KindTypeMismatch or errors.KindValueMismatch.
func (r *Reference) Apply(other *Reference) error {
	var snapshot reflect.Value
	err := other.Read(func(v reflect.Value) error {
		snapshot = convert.Clone(v)
		return nil
	})
	if err != nil {
		return err
	}
	return r.Write(func(target reflect.Value) error {
		return assign(target, snapshot)
	})
}

// SetValue stores v in the target, converting it when the types differ.
func (r *Reference) SetValue(v any) error {
	src := reflect.ValueOf(v)
	if src.IsValid() {
		src = convert.Clone(src)
	}
	return r.Write(func(target reflect.Value) error {
		return assign(target, src)
	})
}

// Value returns a deep copy of the target.
func (r *Reference) Value() (any, error) {
	var out any
	err := r.Read(func(v reflect.Value) error {
		if !v.CanInterface() {
			return errors.Unsupported(errors.PhaseConvert, "value of type "+v.Type().String()+" cannot be exposed")
		}
		out = convert.Clone(v).Interface()
		return nil
	})
	return out, err
}

// Primitive returns the target classified for the conversion bridge.
func (r *Reference) Primitive() (convert.Primitive, error) {
	var out convert.Primitive
	err := r.Read(func(v reflect.Value) error {
		out = convert.ToPrimitive(convert.Clone(v))
		return nil
	})
	return out, err
}

// Type returns the Go type of the current target.
func (r *Reference) Type() (reflect.Type, error) {
	var out reflect.Type
	err := r.Read(func(v reflect.Value) error {
		out = v.Type()
		return nil
	})
	return out, err
}

// fail annotates structured errors with the reference's display string.
func (r *Reference) fail(err error) error {
	if err == nil {
		return nil
	}
	e, ok := err.(*errors.Error)
	if !ok {
		return err
	}
	c := *e
	if c.Reference == "" {
		c.Reference = r.base.String()
		if len(c.Path) == 0 {
			c.Path = r.path.Strings()
		}
	}
	Logger().Debug("reference access failed",
		zap.Stringer("ref", r),
		zap.String("kind", string(c.Kind)))
	return &c
}

func assign(target, src reflect.Value) error {
	tt := target.Type()
	if !src.IsValid() {
		switch tt.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			target.SetZero()
			return nil
		}
		return errors.TypeMismatch(errors.PhaseConvert, tt.String(), "nil")
	}
	if src.Type().AssignableTo(tt) {
		target.Set(src)
		return nil
	}

	p := convert.ToPrimitive(src)
	if v, ok := convert.Convert(p, tt); ok {
		target.Set(v)
		return nil
	}
	if sameShape(p.Form(), tt) {
		return errors.ValueMismatch(errors.PhaseConvert, p.String(), tt.String())
	}
	return errors.TypeMismatch(errors.PhaseConvert, tt.String(), src.Type().String())
}

// sameShape reports whether a conversion failed on contents rather than kind.
func sameShape(f convert.Form, t reflect.Type) bool {
	switch f {
	case convert.FormList:
		return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
	case convert.FormMap:
		return t.Kind() == reflect.Map
	case convert.FormOption:
		return t.Kind() == reflect.Pointer
	}
	return false
}
