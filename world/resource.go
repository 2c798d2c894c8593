package world

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

// ResourceID identifies a registered resource type. Zero is never assigned.
type ResourceID uint32

// ResourceAccessor is the capability a reference holds to re-derive a
// resource root. Reflect and ReflectMut must be called inside an open
// Access on the same world.
type ResourceAccessor interface {
	ID() ResourceID
	Name() string
	Type() reflect.Type
	Reflect(w *World) (reflect.Value, bool)
	ReflectMut(w *World) (reflect.Value, bool)
	Writable() bool
	MarkChanged(w *World)
	Root() access.RootID
}

type resourceInfo struct {
	typ      reflect.Type
	name     string
	id       ResourceID
	readOnly bool
}

func (r *resourceInfo) ID() ResourceID      { return r.id }
func (r *resourceInfo) Name() string        { return r.name }
func (r *resourceInfo) Type() reflect.Type  { return r.typ }
func (r *resourceInfo) Writable() bool      { return !r.readOnly }
func (r *resourceInfo) Root() access.RootID { return access.Resource(uint32(r.id)) }

func (r *resourceInfo) Reflect(w *World) (reflect.Value, bool) {
	v, ok := w.resources[r.id]
	return v, ok
}

func (r *resourceInfo) ReflectMut(w *World) (reflect.Value, bool) {
	if r.readOnly {
		return reflect.Value{}, false
	}
	return r.Reflect(w)
}

func (r *resourceInfo) MarkChanged(w *World) {
	w.MarkChanged(r.Root())
}

// ResourceType is the typed accessor for resource T.
type ResourceType[T any] struct {
	*resourceInfo
}

// RegisterResource registers T as a resource type. Registering the same
// type again returns the existing accessor and ignores opts.
func RegisterResource[T any](w *World, opts ...TypeOption) ResourceType[T] {
	typ := reflect.TypeFor[T]()

	w.mu.Lock()
	defer w.mu.Unlock()

	if id, ok := w.resByType[typ]; ok {
		return ResourceType[T]{w.resTypes[id-1]}
	}

	cfg := newTypeConfig(typ.Name(), opts)
	info := &resourceInfo{
		typ:      typ,
		name:     cfg.name,
		id:       ResourceID(len(w.resTypes) + 1),
		readOnly: cfg.readOnly,
	}
	w.resTypes = append(w.resTypes, info)
	w.resByType[typ] = info.id
	w.resByName[info.name] = info.id

	w.log.Debug("resource registered",
		zap.String("name", info.name),
		zap.Stringer("type", typ),
		zap.Bool("read_only", info.readOnly))
	return ResourceType[T]{info}
}

// Resource looks up a registered resource type by name.
func (w *World) Resource(name string) (ResourceAccessor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.resByName[name]
	if !ok {
		return nil, false
	}
	return w.resTypes[id-1], true
}

// ResourceNames returns the registered resource names in registration order.
func (w *World) ResourceNames() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, len(w.resTypes))
	for i, r := range w.resTypes {
		names[i] = r.name
	}
	return names
}

// InsertResource adds or replaces resource T, registering T if needed.
func InsertResource[T any](w *World, value T) error {
	rt := RegisterResource[T](w)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed.Load() {
		return errors.MissingWorld("")
	}
	cell := reflect.New(rt.typ).Elem()
	cell.Set(reflect.ValueOf(&value).Elem())
	w.resources[rt.id] = cell
	w.markPresent(rt.Root())
	w.forgetChanges(rt.Root())
	return nil
}

// RemoveResource deletes resource T.
func RemoveResource[T any](w *World) bool {
	rt := RegisterResource[T](w)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.resources[rt.id]; !ok {
		return false
	}
	delete(w.resources, rt.id)
	w.present.Delete(rt.Root())
	w.forgetChanges(rt.Root())
	return true
}

// GetResource returns a copy of resource T.
func GetResource[T any](w *World) (T, bool) {
	var zero T
	rt := RegisterResource[T](w)

	a, err := w.Begin(rt.Root(), access.Shared)
	if err != nil {
		return zero, false
	}
	defer a.Release()

	v, ok := rt.Reflect(w)
	if !ok {
		return zero, false
	}
	return v.Interface().(T), true
}

// ResourceChanged returns the change counter of resource T.
func ResourceChanged[T any](w *World) uint64 {
	rt := RegisterResource[T](w)
	return w.Changes(rt.Root())
}
