package reflectpath

import (
	"reflect"
	"strings"

	"github.com/wippyai/scriptref/errors"
)

// Path is an ordered sequence of elements applied from a root value.
type Path []Element

// Append returns a new path with elems appended. The receiver is never shared.
func (p Path) Append(elems ...Element) Path {
	out := make(Path, 0, len(p)+len(elems))
	out = append(out, p...)
	return append(out, elems...)
}

// Len returns the number of elements.
func (p Path) Len() int { return len(p) }

// String renders the path in the syntax accepted by Parse.
func (p Path) String() string {
	var b strings.Builder
	for _, e := range p {
		b.WriteString(e.String())
	}
	return b.String()
}

// Strings renders each element separately.
func (p Path) Strings() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.String()
	}
	return out
}

// ReadOnly reports whether any element forbids mutable projection.
func (p Path) ReadOnly() bool {
	for _, e := range p {
		if e.ReadOnly() {
			return true
		}
	}
	return false
}

// Walk applies every element to root and returns the target.
func (p Path) Walk(root reflect.Value) (reflect.Value, error) {
	v := root
	for i, e := range p {
		next, err := e.Project(v)
		if err != nil {
			return reflect.Value{}, p.annotate(i, err)
		}
		if !next.IsValid() {
			return reflect.Value{}, p.annotate(i, errors.InvalidPath(nil, "", "element produced no value"))
		}
		v = next
	}
	return v, nil
}

// WalkMut applies every element for writing. The target is settable; the
// commit, when not nil, must be called after the target has been modified.
func (p Path) WalkMut(root reflect.Value) (reflect.Value, Commit, error) {
	v := root
	var commit Commit
	for i, e := range p {
		next, c, err := e.ProjectMut(v)
		if err != nil {
			return reflect.Value{}, nil, p.annotate(i, err)
		}
		if !next.IsValid() {
			return reflect.Value{}, nil, p.annotate(i, errors.InvalidPath(nil, "", "element produced no value"))
		}
		commit = chain(c, commit)
		v = next
	}
	if !v.CanSet() {
		return reflect.Value{}, nil, errors.New(errors.PhasePath, errors.KindInsufficientProvenance).
			Path(p.Strings()...).
			GoType(typeName(v)).
			Detail("target is not settable").
			Build()
	}
	return v, commit, nil
}

// annotate attaches the path prefix up to and including element i.
func (p Path) annotate(i int, err error) error {
	prefix := p[:i+1].Strings()
	var e *errors.Error
	if !errors.As(err, &e) {
		return errors.New(errors.PhasePath, errors.KindInvalidReflectionPath).
			Path(prefix...).
			Detail("%s failed", p[i]).
			Cause(err).
			Build()
	}
	if len(e.Path) > 0 {
		return err
	}
	c := *e
	c.Path = prefix
	return &c
}
