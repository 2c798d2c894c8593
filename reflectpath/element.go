package reflectpath

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/wippyai/scriptref/errors"
)

// Kind is the kind of a path element.
type Kind uint8

const (
	KindField Kind = iota + 1
	KindIndex
	KindKey
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindIndex:
		return "index"
	case KindKey:
		return "key"
	case KindCustom:
		return "custom"
	default:
		return "invalid"
	}
}

// Hook is a projection the standard elements cannot express.
// Get and GetMut receive the parent value as is, without following pointers.
// A nil GetMut marks the hook read-only.
type Hook struct {
	Get    func(reflect.Value) (reflect.Value, error)
	GetMut func(reflect.Value) (reflect.Value, error)
	ID     string
}

// Element is one navigation step.
type Element struct {
	hook  *Hook
	key   any
	name  string
	index int
	kind  Kind
}

// Field addresses a struct member or a string-keyed map entry.
func Field(name string) Element {
	return Element{kind: KindField, name: name}
}

// Index addresses a slice or array element, or the i-th exported field of a struct.
func Index(i int) Element {
	return Element{kind: KindIndex, index: i}
}

// Key addresses a map entry. k is converted to the map's key type when
// the conversion is lossless.
func Key(k any) Element {
	return Element{kind: KindKey, key: k}
}

// Custom wraps a hook. It panics if the hook has no Get function.
func Custom(h *Hook) Element {
	if h == nil || h.Get == nil {
		panic("reflectpath: custom element requires a Get function")
	}
	return Element{kind: KindCustom, hook: h}
}

// Kind returns the element kind.
func (e Element) Kind() Kind { return e.kind }

// Name returns the field name of a Field element.
func (e Element) Name() string { return e.name }

// Position returns the index of an Index element.
func (e Element) Position() int { return e.index }

// KeyValue returns the key of a Key element.
func (e Element) KeyValue() any { return e.key }

// Hook returns the hook of a Custom element.
func (e Element) Hook() *Hook { return e.hook }

// ReadOnly reports whether the element can only be projected immutably.
func (e Element) ReadOnly() bool {
	return e.kind == KindCustom && e.hook.GetMut == nil
}

func (e Element) String() string {
	switch e.kind {
	case KindField:
		if isIdent(e.name) {
			return "." + e.name
		}
		return "[" + strconv.Quote(e.name) + "]"
	case KindIndex:
		return "[" + strconv.Itoa(e.index) + "]"
	case KindKey:
		if s, ok := e.key.(string); ok {
			return "{" + strconv.Quote(s) + "}"
		}
		return fmt.Sprintf("{%v}", e.key)
	case KindCustom:
		return "#" + e.hook.ID
	default:
		return "<invalid>"
	}
}

// Project applies the element to v for reading.
func (e Element) Project(v reflect.Value) (reflect.Value, error) {
	if e.kind == KindCustom {
		return e.hook.Get(v)
	}

	v, err := indirect(v)
	if err != nil {
		return reflect.Value{}, err
	}

	switch e.kind {
	case KindField:
		return fieldOf(v, e.name)
	case KindIndex:
		return indexOf(v, e.index)
	case KindKey:
		mk, err := mapKey(v, e.key)
		if err != nil {
			return reflect.Value{}, err
		}
		return entryOf(v, mk, "no such entry")
	default:
		return reflect.Value{}, errors.InvalidPath(nil, "", "invalid path element")
	}
}

// ProjectMut applies the element to v for writing. The returned commit, if
// not nil, must run after the child has been modified.
func (e Element) ProjectMut(v reflect.Value) (reflect.Value, Commit, error) {
	if e.kind == KindCustom {
		if e.hook.GetMut == nil {
			return reflect.Value{}, nil, errors.InsufficientProvenance(nil, "hook "+e.hook.ID+" is read-only")
		}
		child, err := e.hook.GetMut(v)
		return child, nil, err
	}

	v, commit, err := indirectMut(v)
	if err != nil {
		return reflect.Value{}, nil, err
	}

	var (
		child reflect.Value
		inner Commit
	)
	switch e.kind {
	case KindField:
		if v.Kind() == reflect.Map {
			var mk reflect.Value
			if mk, err = nameKey(v, e.name); err == nil {
				child, inner, err = mapEntryMut(v, mk, "no such field")
			}
		} else {
			child, err = fieldOf(v, e.name)
		}
	case KindIndex:
		if v.Kind() == reflect.Array && !v.CanAddr() {
			return reflect.Value{}, nil, errors.InsufficientProvenance(nil, "array is not addressable")
		}
		child, err = indexOf(v, e.index)
	case KindKey:
		var mk reflect.Value
		if mk, err = mapKey(v, e.key); err == nil {
			child, inner, err = mapEntryMut(v, mk, "no such entry")
		}
	default:
		err = errors.InvalidPath(nil, "", "invalid path element")
	}
	if err != nil {
		return reflect.Value{}, nil, err
	}
	return child, chain(inner, commit), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
