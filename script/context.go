package script

import (
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/scriptref/convert"
	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/handle"
	"github.com/wippyai/scriptref/liveness"
	"github.com/wippyai/scriptref/ref"
	"github.com/wippyai/scriptref/world"
)

// Context is the host side of one script: the world it sees, the values it
// owns and the handles it holds. All methods are safe for concurrent use.
type Context struct {
	world   *world.World
	allocs  *liveness.Allocator
	handles *handle.Table
	log     *zap.Logger
	lastErr error
	cfg     Config
	errMu   sync.Mutex
}

// New creates a script context over w.
func New(w *world.World, opts ...Option) *Context {
	o := newOptions(opts)
	return &Context{
		world:   w,
		allocs:  liveness.NewAllocator(),
		handles: handle.NewTable(o.cfg.MaxHandles),
		log:     o.logger,
		cfg:     o.cfg,
	}
}

// World returns the world the context was created over.
func (c *Context) World() *world.World { return c.world }

// Handles returns the handle table.
func (c *Context) Handles() *handle.Table { return c.handles }

// Config returns the effective configuration.
func (c *Context) Config() Config { return c.cfg }

// Bind issues a handle for an existing reference. The handle owns nothing.
func (c *Context) Bind(r *ref.Reference) (handle.Handle, error) {
	return c.handles.Insert(r, nil)
}

// Component issues a handle for the named component on e. The entity is not
// checked until the handle is used.
func (c *Context) Component(e world.Entity, name string) (handle.Handle, error) {
	acc, ok := c.world.Component(name)
	if !ok {
		return 0, errors.NotFound(errors.PhaseScript, "component", name)
	}
	return c.Bind(ref.New(ref.ComponentBase(c.world, acc, e)))
}

// Resource issues a handle for the named resource.
func (c *Context) Resource(name string) (handle.Handle, error) {
	acc, ok := c.world.Resource(name)
	if !ok {
		return 0, errors.NotFound(errors.PhaseScript, "resource", name)
	}
	return c.Bind(ref.New(ref.ResourceBase(c.world, acc)))
}

// Parse issues a handle for a textual reference such as position@3.x.
func (c *Context) Parse(s string) (handle.Handle, error) {
	r, err := ref.Parse(c.world, s)
	if err != nil {
		return 0, err
	}
	return c.Bind(r)
}

// Allocate copies v into a script-owned allocation and returns the handle
// that owns it. Dropping that handle invalidates every reference into the
// allocation.
func (c *Context) Allocate(v any) (handle.Handle, error) {
	if v == nil {
		return 0, errors.InvalidInput(errors.PhaseScript, "cannot allocate nil")
	}
	return c.own(c.allocs.Allocate(v))
}

func (c *Context) own(a *liveness.Allocation) (handle.Handle, error) {
	h, err := c.handles.Insert(ref.New(ref.AllocationBase(a)), a)
	if err != nil {
		return 0, multierr.Append(err, a.Drop())
	}
	c.log.Debug("allocation bound", zap.Stringer("handle", h), zap.Stringer("allocation", a))
	return h, nil
}

// Clone deep-copies the value behind h into a new script-owned allocation.
func (c *Context) Clone(h handle.Handle) (handle.Handle, error) {
	var a *liveness.Allocation
	err := c.with(h, func(r *ref.Reference) error {
		return r.Read(func(v reflect.Value) error {
			a = c.allocs.AllocateValue(convert.Clone(v))
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return c.own(a)
}

// Field issues a handle one named field below h.
func (c *Context) Field(h handle.Handle, name string) (handle.Handle, error) {
	return c.derive(h, func(r *ref.Reference) *ref.Reference { return r.Field(name) })
}

// Index issues a handle one positional element below h.
func (c *Context) Index(h handle.Handle, i int) (handle.Handle, error) {
	return c.derive(h, func(r *ref.Reference) *ref.Reference { return r.Index(i) })
}

// Key issues a handle for the map entry k below h.
func (c *Context) Key(h handle.Handle, k any) (handle.Handle, error) {
	return c.derive(h, func(r *ref.Reference) *ref.Reference { return r.Key(k) })
}

func (c *Context) derive(h handle.Handle, step func(*ref.Reference) *ref.Reference) (handle.Handle, error) {
	var child *ref.Reference
	err := c.with(h, func(r *ref.Reference) error {
		child = step(r)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return c.Bind(child)
}

// Get reads the value behind h.
func (c *Context) Get(h handle.Handle) (convert.Primitive, error) {
	var out convert.Primitive
	err := c.with(h, func(r *ref.Reference) error {
		var err error
		out, err = r.Primitive()
		return err
	})
	return out, err
}

// Set stores v behind h, converting it to the target type. v may be a
// convert.Primitive.
func (c *Context) Set(h handle.Handle, v any) error {
	if p, ok := v.(convert.Primitive); ok {
		v = p.Interface()
	}
	return c.with(h, func(r *ref.Reference) error {
		return r.SetValue(v)
	})
}

// Apply copies the value behind src into dst.
func (c *Context) Apply(dst, src handle.Handle) error {
	return c.with(dst, func(d *ref.Reference) error {
		return c.with(src, func(s *ref.Reference) error {
			return d.Apply(s)
		})
	})
}

// Valid reports whether h is live and its root still resolves.
func (c *Context) Valid(h handle.Handle) bool {
	r, ok := c.handles.Get(h)
	return ok && r.IsValid()
}

// Type returns the Go type of the value behind h.
func (c *Context) Type(h handle.Handle) (reflect.Type, error) {
	var out reflect.Type
	err := c.with(h, func(r *ref.Reference) error {
		var err error
		out, err = r.Type()
		return err
	})
	return out, err
}

// Kind returns the WIT rendering of the type behind h, e.g. "f64" or
// "list<u8>".
func (c *Context) Kind(h handle.Handle) (string, error) {
	t, err := c.Type(h)
	if err != nil {
		return "", err
	}
	wt, ok := convert.WITOf(t)
	if !ok {
		return "", errors.New(errors.PhaseScript, errors.KindUnsupported).
			GoType(t.String()).
			Detail("no script type").
			Build()
	}
	return convert.WITName(wt), nil
}

// Reference returns the reference behind h.
func (c *Context) Reference(h handle.Handle) (*ref.Reference, bool) {
	return c.handles.Get(h)
}

// Release drops h. Dropping an owning handle drops its allocation.
func (c *Context) Release(h handle.Handle) error {
	return c.handles.Drop(h)
}

// LastError returns the last error a host function reported to the guest.
func (c *Context) LastError() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

func (c *Context) record(err error) Status {
	s := StatusOf(err)
	if err != nil {
		c.errMu.Lock()
		c.lastErr = err
		c.errMu.Unlock()
		c.log.Debug("host call failed", zap.Stringer("status", s), zap.Error(err))
	}
	return s
}

// Close drops every handle and allocation.
func (c *Context) Close() error {
	return multierr.Combine(c.handles.Close(), c.allocs.Close())
}

// with borrows h for the duration of fn.
func (c *Context) with(h handle.Handle, fn func(*ref.Reference) error) error {
	r, err := c.handles.Borrow(h)
	if err != nil {
		return err
	}
	defer c.handles.Return(h)
	return fn(r)
}
