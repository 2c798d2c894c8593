package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve Phase = "resolve" // root resolution
	PhasePath    Phase = "path"    // path element application
	PhaseAccess  Phase = "access"  // claim acquisition
	PhaseConvert Phase = "convert" // primitive conversion
	PhaseScript  Phase = "script"  // script binding layer
	PhaseHost    Phase = "host"    // host store operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidBaseReference       Kind = "invalid_base_reference"
	KindGarbageCollectedAllocation Kind = "garbage_collected_allocation"
	KindMissingWorld               Kind = "missing_world"
	KindInvalidReflectionPath      Kind = "invalid_reflection_path"
	KindInsufficientProvenance     Kind = "insufficient_provenance"
	KindCannotClaimAccess          Kind = "cannot_claim_access"
	KindTypeMismatch               Kind = "type_mismatch"
	KindValueMismatch              Kind = "value_mismatch"
	KindNotFound                   Kind = "not_found"
	KindInvalidInput               Kind = "invalid_input"
	KindUnsupported                Kind = "unsupported"
)

// Sentinels for errors.Is matching by kind alone.
var (
	ErrInvalidBaseReference       = &Error{Kind: KindInvalidBaseReference}
	ErrGarbageCollectedAllocation = &Error{Kind: KindGarbageCollectedAllocation}
	ErrMissingWorld               = &Error{Kind: KindMissingWorld}
	ErrInvalidReflectionPath      = &Error{Kind: KindInvalidReflectionPath}
	ErrInsufficientProvenance     = &Error{Kind: KindInsufficientProvenance}
	ErrCannotClaimAccess          = &Error{Kind: KindCannotClaimAccess}
	ErrTypeMismatch               = &Error{Kind: KindTypeMismatch}
	ErrValueMismatch              = &Error{Kind: KindValueMismatch}
	ErrNotFound                   = &Error{Kind: KindNotFound}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Reference string
	GoType    string
	Detail    string
	Path      []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Reference != "" || len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(e.Reference)
		if len(e.Path) > 0 {
			b.WriteString(strings.Join(e.Path, ""))
		}
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// WithReference returns a copy of e annotated with the display string of
// the reference it was raised for. Existing annotations are kept.
func (e *Error) WithReference(ref string) *Error {
	if e.Reference != "" {
		return e
	}
	c := *e
	c.Reference = ref
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// As is re-exported so callers do not need to import both packages.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is re-exported so callers do not need to import both packages.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Reference sets the display string of the reference being accessed
func (b *Builder) Reference(ref string) *Builder {
	b.err.Reference = ref
	return b
}

// Path sets the rendered path elements
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidBaseReference creates an error for a root that no longer exists
func InvalidBaseReference(ref, reason string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindInvalidBaseReference,
		Reference: ref,
		Detail:    reason,
	}
}

// GarbageCollected creates an error for a script-owned root whose owner dropped it
func GarbageCollected(ref string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindGarbageCollectedAllocation,
		Reference: ref,
		Detail:    "allocation was dropped by its owner",
	}
}

// MissingWorld creates an error for a store handle that can no longer be upgraded
func MissingWorld(ref string) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindMissingWorld,
		Reference: ref,
		Detail:    "world is no longer available",
	}
}

// InvalidPath creates an error for a path element that does not fit the value shape
func InvalidPath(path []string, goType, reason string) *Error {
	return &Error{
		Phase:  PhasePath,
		Kind:   KindInvalidReflectionPath,
		Path:   path,
		GoType: goType,
		Detail: reason,
	}
}

// InsufficientProvenance creates an error for a mutable access along a read-only path
func InsufficientProvenance(path []string, reason string) *Error {
	return &Error{
		Phase:  PhasePath,
		Kind:   KindInsufficientProvenance,
		Path:   path,
		Detail: reason,
	}
}

// CannotClaim creates an aliasing violation error
func CannotClaim(root, reason string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindCannotClaimAccess,
		Detail: fmt.Sprintf("%s: %s", root, reason),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		GoType: got,
		Detail: fmt.Sprintf("expected %s", want),
	}
}

// ValueMismatch creates an error for a value that cannot be represented in the target
func ValueMismatch(phase Phase, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindValueMismatch,
		Value:  value,
		Detail: fmt.Sprintf("value %v cannot be stored as %s", value, target),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
