package handle

import "github.com/wippyai/scriptref/ref"

// Typed is a view of a table whose handles all name values of type T.
type Typed[T any] struct {
	table *Table
}

// NewTyped wraps t.
func NewTyped[T any](t *Table) Typed[T] {
	return Typed[T]{table: t}
}

// Get reads the value behind h as T.
func (v Typed[T]) Get(h Handle) (T, error) {
	r, err := v.table.Borrow(h)
	if err != nil {
		var zero T
		return zero, err
	}
	defer v.table.Return(h)
	return ref.Get[T](r)
}

// Set stores value behind h.
func (v Typed[T]) Set(h Handle, value T) error {
	r, err := v.table.Borrow(h)
	if err != nil {
		return err
	}
	defer v.table.Return(h)
	return ref.SetTyped(r, value)
}

// Each calls fn with every handle whose value can currently be read as a T.
func (v Typed[T]) Each(fn func(Handle, T) bool) {
	v.table.Each(func(h Handle, r *ref.Reference) bool {
		val, err := ref.Get[T](r)
		if err != nil {
			return true
		}
		return fn(h, val)
	})
}
