// Package reflectpath describes and applies navigation steps from a value to
// one of its sub-values.
//
// A Path is an ordered list of Elements:
//
//	Field(name)  struct member, or entry of a string-keyed map
//	Index(i)     slice/array element, or the i-th exported field of a struct
//	Key(k)       map entry by arbitrary key
//	Custom(hook) bespoke projection supplied by the binding layer
//
// Pointers and interfaces are followed transparently before each step.
//
// Walk projects a read-only view. WalkMut projects a settable target; steps
// through storage Go cannot address in place (map entries, interface
// contents) work on a copy, and the returned Commit writes the copies back
// once the caller is done mutating:
//
//	target, commit, err := path.WalkMut(root)
//	if err != nil {
//	    return err
//	}
//	target.SetFloat(5)
//	if commit != nil {
//	    commit()
//	}
//
// Failures are errors.KindInvalidReflectionPath when the value does not have
// the shape a step expects, and errors.KindInsufficientProvenance when a
// mutable walk crosses a step that only supports reading.
package reflectpath
