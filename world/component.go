package world

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

// ComponentID identifies a registered component type. Zero is never assigned.
type ComponentID uint32

// ComponentAccessor is the capability a reference holds to re-derive a
// component root. Reflect and ReflectMut must be called inside an open
// Access on the same world.
type ComponentAccessor interface {
	ID() ComponentID
	Name() string
	Type() reflect.Type

	// Reflect returns the component value on e.
	Reflect(w *World, e Entity) (reflect.Value, bool)

	// ReflectMut returns the component value on e for writing. It reports
	// false for read-only types as well as missing components.
	ReflectMut(w *World, e Entity) (reflect.Value, bool)

	// Writable reports whether ReflectMut can ever succeed.
	Writable() bool

	// MarkChanged records a write to the component on e.
	MarkChanged(w *World, e Entity)

	// Root returns the ledger key of the component on e.
	Root(e Entity) access.RootID
}

type componentInfo struct {
	typ      reflect.Type
	name     string
	id       ComponentID
	readOnly bool
}

func (c *componentInfo) ID() ComponentID    { return c.id }
func (c *componentInfo) Name() string       { return c.name }
func (c *componentInfo) Type() reflect.Type { return c.typ }
func (c *componentInfo) Writable() bool     { return !c.readOnly }

func (c *componentInfo) Root(e Entity) access.RootID {
	return access.Component(uint32(c.id), uint64(e))
}

func (c *componentInfo) Reflect(w *World, e Entity) (reflect.Value, bool) {
	v, ok := w.components[c.id][e]
	return v, ok
}

func (c *componentInfo) ReflectMut(w *World, e Entity) (reflect.Value, bool) {
	if c.readOnly {
		return reflect.Value{}, false
	}
	return c.Reflect(w, e)
}

func (c *componentInfo) MarkChanged(w *World, e Entity) {
	w.MarkChanged(c.Root(e))
}

// ComponentType is the typed accessor for component T.
type ComponentType[T any] struct {
	*componentInfo
}

// RegisterComponent registers T as a component type. Registering the same
// type again returns the existing accessor and ignores opts.
func RegisterComponent[T any](w *World, opts ...TypeOption) ComponentType[T] {
	typ := reflect.TypeFor[T]()

	w.mu.Lock()
	defer w.mu.Unlock()

	if id, ok := w.compByType[typ]; ok {
		return ComponentType[T]{w.compTypes[id-1]}
	}

	cfg := newTypeConfig(typ.Name(), opts)
	info := &componentInfo{
		typ:      typ,
		name:     cfg.name,
		id:       ComponentID(len(w.compTypes) + 1),
		readOnly: cfg.readOnly,
	}
	w.compTypes = append(w.compTypes, info)
	w.compByType[typ] = info.id
	w.compByName[info.name] = info.id
	w.components[info.id] = make(map[Entity]reflect.Value)

	w.log.Debug("component registered",
		zap.String("name", info.name),
		zap.Stringer("type", typ),
		zap.Bool("read_only", info.readOnly))
	return ComponentType[T]{info}
}

// Component looks up a registered component type by name.
func (w *World) Component(name string) (ComponentAccessor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.compByName[name]
	if !ok {
		return nil, false
	}
	return w.compTypes[id-1], true
}

// ComponentNames returns the registered component names in registration order.
func (w *World) ComponentNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, len(w.compTypes))
	for i, c := range w.compTypes {
		names[i] = c.name
	}
	return names
}

// Insert adds or replaces component T on e, registering T if needed.
func Insert[T any](w *World, e Entity, value T) error {
	ct := RegisterComponent[T](w)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed.Load() {
		return errors.MissingWorld("")
	}
	if _, ok := w.entities[e]; !ok {
		return errors.NotFound(errors.PhaseHost, "entity", e.String())
	}
	cell := reflect.New(ct.typ).Elem()
	cell.Set(reflect.ValueOf(&value).Elem())
	w.components[ct.id][e] = cell
	w.markPresent(ct.Root(e))
	w.forgetChanges(ct.Root(e))
	return nil
}

// Remove deletes component T from e.
func Remove[T any](w *World, e Entity) bool {
	ct := RegisterComponent[T](w)

	w.mu.Lock()
	defer w.mu.Unlock()

	store := w.components[ct.id]
	if _, ok := store[e]; !ok {
		return false
	}
	delete(store, e)
	w.present.Delete(ct.Root(e))
	w.forgetChanges(ct.Root(e))
	return true
}

// Get returns a copy of component T on e.
func Get[T any](w *World, e Entity) (T, bool) {
	var zero T
	ct := RegisterComponent[T](w)

	a, err := w.Begin(ct.Root(e), access.Shared)
	if err != nil {
		return zero, false
	}
	defer a.Release()

	v, ok := ct.Reflect(w, e)
	if !ok {
		return zero, false
	}
	return v.Interface().(T), true
}

// Modify runs fn on component T of e under an exclusive claim and marks the
// component changed. It fails like a script write would if the component is
// claimed elsewhere.
func Modify[T any](w *World, e Entity, fn func(*T)) error {
	ct := RegisterComponent[T](w)

	a, err := w.Begin(ct.Root(e), access.Exclusive)
	if err != nil {
		return err
	}
	defer a.Release()

	v, ok := ct.Reflect(w, e)
	if !ok {
		return errors.NotFound(errors.PhaseHost, ct.name+" on entity", e.String())
	}
	fn(v.Addr().Interface().(*T))
	ct.MarkChanged(w, e)
	return nil
}

// Changed returns the change counter of component T on e.
func Changed[T any](w *World, e Entity) uint64 {
	ct := RegisterComponent[T](w)
	return w.Changes(ct.Root(e))
}
