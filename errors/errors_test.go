package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhasePath,
				Kind:      KindInvalidReflectionPath,
				Reference: "(Transform on 4)",
				Path:      []string{".translation", ".w"},
				GoType:    "demo.Vec3",
				Detail:    "no such field",
			},
			contains: []string{"[path]", "invalid_reflection_path", "(Transform on 4).translation.w", "demo.Vec3", "no such field"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseAccess,
				Kind:  KindCannotClaimAccess,
			},
			contains: []string{"[access]", "cannot_claim_access"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseScript,
				Kind:   KindInvalidInput,
				Detail: "bad handle",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[script]", "invalid_input", "bad handle", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHost,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseConvert,
		Kind:  KindTypeMismatch,
		Path:  []string{".x"},
	}

	if !err.Is(&Error{Phase: PhaseConvert, Kind: KindTypeMismatch}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePath, Kind: KindTypeMismatch}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseConvert, Kind: KindValueMismatch}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Error("sentinel without phase should match on kind")
	}
	if errors.Is(err, ErrCannotClaimAccess) {
		t.Error("sentinel of a different kind should not match")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrTypeMismatch) {
		t.Error("Is should see through wrapping")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(MissingWorld("(Resource Score)")); got != KindMissingWorld {
		t.Errorf("KindOf = %q, want %q", got, KindMissingWorld)
	}
	if got := KindOf(fmt.Errorf("wrapped: %w", GarbageCollected("(Allocation 1)"))); got != KindGarbageCollectedAllocation {
		t.Errorf("KindOf = %q, want %q", got, KindGarbageCollectedAllocation)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
}

func TestWithReference(t *testing.T) {
	base := InvalidPath([]string{".x"}, "float32", "no such field")
	annotated := base.WithReference("(Transform on 4)")
	if base.Reference != "" {
		t.Error("WithReference must not modify the receiver")
	}
	if annotated.Reference != "(Transform on 4)" {
		t.Errorf("Reference = %q", annotated.Reference)
	}
	if again := annotated.WithReference("(Resource Other)"); again.Reference != "(Transform on 4)" {
		t.Errorf("existing reference was replaced: %q", again.Reference)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhasePath, KindInvalidReflectionPath).
		Reference("(Resource Score)").
		Path(".value", "[2]").
		GoType("int").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "list", "int").
		Build()

	if err.Phase != PhasePath {
		t.Errorf("Phase = %v, want %v", err.Phase, PhasePath)
	}
	if err.Kind != KindInvalidReflectionPath {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidReflectionPath)
	}
	if err.Reference != "(Resource Score)" {
		t.Errorf("Reference = %v", err.Reference)
	}
	if len(err.Path) != 2 || err.Path[0] != ".value" || err.Path[1] != "[2]" {
		t.Errorf("Path = %v, want [.value [2]]", err.Path)
	}
	if err.GoType != "int" {
		t.Errorf("GoType = %v, want 'int'", err.GoType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected list, got int" {
		t.Errorf("Detail = %v, want 'expected list, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"InvalidBaseReference", InvalidBaseReference("(Transform on 1)", "component missing on entity"), KindInvalidBaseReference},
		{"GarbageCollected", GarbageCollected("(Allocation 3)"), KindGarbageCollectedAllocation},
		{"MissingWorld", MissingWorld("(Resource Score)"), KindMissingWorld},
		{"InvalidPath", InvalidPath([]string{"[9]"}, "[]int", "no such element"), KindInvalidReflectionPath},
		{"InsufficientProvenance", InsufficientProvenance([]string{".len"}, "read-only"), KindInsufficientProvenance},
		{"CannotClaim", CannotClaim("resource(1)", "exclusive claim held"), KindCannotClaimAccess},
		{"TypeMismatch", TypeMismatch(PhaseConvert, "float32", "string"), KindTypeMismatch},
		{"ValueMismatch", ValueMismatch(PhaseConvert, "abc", "int"), KindValueMismatch},
		{"NotFound", NotFound(PhaseScript, "component", "Velocity"), KindNotFound},
		{"InvalidInput", InvalidInput(PhaseScript, "empty name"), KindInvalidInput},
		{"Unsupported", Unsupported(PhaseConvert, "channels"), KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Phase == "" {
				t.Error("constructor should set a phase")
			}
		})
	}

	if err := CannotClaim("resource(1)", "exclusive claim held"); !strings.Contains(err.Detail, "resource(1)") {
		t.Errorf("Detail = %q, should name the root", err.Detail)
	}
}
