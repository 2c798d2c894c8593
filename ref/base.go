package ref

import (
	"fmt"
	"reflect"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/liveness"
	"github.com/wippyai/scriptref/world"
)

// BaseKind identifies the kind of root a reference names.
type BaseKind uint8

const (
	BaseComponent BaseKind = iota + 1
	BaseResource
	BaseAllocation
	BaseStack
)

func (k BaseKind) String() string {
	switch k {
	case BaseComponent:
		return "component"
	case BaseResource:
		return "resource"
	case BaseAllocation:
		return "allocation"
	case BaseStack:
		return "stack"
	default:
		return "invalid"
	}
}

// Base names the root of a reference and carries what is needed to find it
// again. It never keeps the root itself alive.
type Base struct {
	component world.ComponentAccessor
	resource  world.ResourceAccessor
	typ       reflect.Type
	stack     reflect.Value
	alloc     liveness.Weak
	world     world.Handle
	allocID   uint64
	gen       uint64
	entity    world.Entity
	kind      BaseKind
}

// ComponentBase names component c on entity e of w. The base is bound to
// the component currently on e: once it is removed the base stays invalid,
// even if a component of the same type is inserted again. A base created
// while the component is absent is never valid.
func ComponentBase(w *world.World, c world.ComponentAccessor, e world.Entity) Base {
	return Base{
		kind:      BaseComponent,
		world:     w.Handle(),
		component: c,
		entity:    e,
		typ:       c.Type(),
		gen:       w.Generation(c.Root(e)),
	}
}

// ResourceBase names resource r of w, bound like ComponentBase to the
// resource value present now.
func ResourceBase(w *world.World, r world.ResourceAccessor) Base {
	return Base{kind: BaseResource, world: w.Handle(), resource: r, typ: r.Type(), gen: w.Generation(r.Root())}
}

// AllocationBase names a script-owned value. The base observes the
// allocation weakly and fails once it has been dropped.
func AllocationBase(a *liveness.Allocation) Base {
	return Base{kind: BaseAllocation, alloc: a.Weak(), allocID: a.ID(), typ: a.Type()}
}

// StackBase names the value ptr points to. Nothing about it is checked:
// the caller guarantees the pointee outlives every use and is not aliased
// during a write. It panics if ptr is not a non-nil pointer.
func StackBase(ptr any) Base {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		panic(fmt.Sprintf("ref: StackBase requires a non-nil pointer, got %T", ptr))
	}
	return Base{kind: BaseStack, stack: v, typ: v.Type().Elem()}
}

// Kind returns the base kind.
func (b Base) Kind() BaseKind { return b.kind }

// Type returns the Go type of the root value.
func (b Base) Type() reflect.Type { return b.typ }

// Entity returns the entity of a component base.
func (b Base) Entity() world.Entity { return b.entity }

// Root returns the ledger key of the root. Stack bases have none.
func (b Base) Root() access.RootID {
	switch b.kind {
	case BaseComponent:
		return b.component.Root(b.entity)
	case BaseResource:
		return b.resource.Root()
	case BaseAllocation:
		return access.Allocation(b.allocID)
	default:
		return access.RootID{}
	}
}

// IsValid reports whether the root can currently be resolved. It takes no
// claim and does not walk any path.
func (b Base) IsValid() bool {
	switch b.kind {
	case BaseComponent, BaseResource:
		w, ok := b.world.Upgrade()
		return ok && b.current(w)
	case BaseAllocation:
		return b.alloc.Alive()
	case BaseStack:
		return true
	default:
		return false
	}
}

// current reports whether the root b was bound to is still the one in w.
func (b Base) current(w *world.World) bool {
	return b.gen != 0 && w.Generation(b.Root()) == b.gen
}

func (b Base) String() string {
	switch b.kind {
	case BaseComponent:
		return fmt.Sprintf("(%s on %s)", b.component.Name(), b.entity)
	case BaseResource:
		return fmt.Sprintf("(Resource %s)", b.resource.Name())
	case BaseAllocation:
		return fmt.Sprintf("(Allocation %d)", b.allocID)
	case BaseStack:
		return fmt.Sprintf("(Stack %s)", b.stack.Type())
	default:
		return "(invalid)"
	}
}

// scope is an open claim on a resolved root.
type scope struct {
	root    reflect.Value
	release func() error
	mark    func()
	check   func() error
	epoch   uint64
	mode    access.Mode
}

// open resolves the root and claims it. Nothing blocks: a held conflicting
// claim fails with errors.KindCannotClaimAccess.
func (b Base) open(mode access.Mode) (*scope, error) {
	switch b.kind {
	case BaseComponent:
		return b.openComponent(mode)
	case BaseResource:
		return b.openResource(mode)
	case BaseAllocation:
		return b.openAllocation(mode)
	case BaseStack:
		return &scope{
			root:    b.stack.Elem(),
			mode:    mode,
			release: func() error { return nil },
			check:   func() error { return nil },
		}, nil
	default:
		return nil, errors.InvalidBaseReference("", "reference has no base")
	}
}

func (b Base) openComponent(mode access.Mode) (*scope, error) {
	w, ok := b.world.Upgrade()
	if !ok {
		return nil, errors.MissingWorld("")
	}
	c, e := b.component, b.entity
	if mode == access.Exclusive && !c.Writable() {
		return nil, errors.InsufficientProvenance(nil, "component "+c.Name()+" is read-only")
	}

	a, err := w.Begin(c.Root(e), mode)
	if err != nil {
		return nil, err
	}
	var root reflect.Value
	if mode == access.Exclusive {
		root, ok = c.ReflectMut(w, e)
	} else {
		root, ok = c.Reflect(w, e)
	}
	if !ok || !b.current(w) {
		a.Release()
		return nil, errors.InvalidBaseReference("", "component missing on entity")
	}

	return &scope{
		root:    root,
		epoch:   a.Epoch(),
		mode:    mode,
		release: func() error { a.Release(); return nil },
		mark:    func() { c.MarkChanged(w, e) },
		check: func() error {
			if w.Closed() {
				return errors.MissingWorld("")
			}
			if !b.current(w) {
				return errors.InvalidBaseReference("", "component missing on entity")
			}
			return nil
		},
	}, nil
}

func (b Base) openResource(mode access.Mode) (*scope, error) {
	w, ok := b.world.Upgrade()
	if !ok {
		return nil, errors.MissingWorld("")
	}
	r := b.resource
	if mode == access.Exclusive && !r.Writable() {
		return nil, errors.InsufficientProvenance(nil, "resource "+r.Name()+" is read-only")
	}

	a, err := w.Begin(r.Root(), mode)
	if err != nil {
		return nil, err
	}
	var root reflect.Value
	if mode == access.Exclusive {
		root, ok = r.ReflectMut(w)
	} else {
		root, ok = r.Reflect(w)
	}
	if !ok || !b.current(w) {
		a.Release()
		return nil, errors.InvalidBaseReference("", "resource missing")
	}

	return &scope{
		root:    root,
		epoch:   a.Epoch(),
		mode:    mode,
		release: func() error { a.Release(); return nil },
		mark:    func() { r.MarkChanged(w) },
		check: func() error {
			if w.Closed() {
				return errors.MissingWorld("")
			}
			if !b.current(w) {
				return errors.InvalidBaseReference("", "resource missing")
			}
			return nil
		},
	}, nil
}

func (b Base) openAllocation(mode access.Mode) (*scope, error) {
	g, err := b.alloc.Claim(mode)
	if err != nil {
		return nil, err
	}
	return &scope{
		root:    g.Value(),
		epoch:   g.Epoch(),
		mode:    mode,
		release: g.Release,
		check: func() error {
			if !g.Alive() {
				return errors.GarbageCollected("")
			}
			return nil
		},
	}, nil
}
