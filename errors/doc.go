// Package errors provides structured error types for scriptref.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the display string of the reference being accessed, the
// rendered path, the Go type involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePath, errors.KindInvalidReflectionPath).
//		Reference("(Transform on 4)").
//		Path(".translation", ".w").
//		GoType("demo.Vec3").
//		Detail("no such field").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CannotClaim(root.String(), "exclusive claim held")
//	err := errors.InvalidBaseReference(ref, "component missing on entity")
//
// Kinds can be matched without caring about the phase through the sentinels:
//
//	if errors.Is(err, errors.ErrCannotClaimAccess) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
