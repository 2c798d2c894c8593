package ref

import (
	"reflect"
	"sync/atomic"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

// Held keeps a claim on a reference's root open across several accesses.
// Reads inside it reuse the derived target; the base is still revalidated
// before each access. Release must be called exactly once.
type Held struct {
	ref      *Reference
	sc       *scope
	released atomic.Bool
}

// Hold opens a shared claim.
func (r *Reference) Hold() (*Held, error) {
	return r.hold(access.Shared)
}

// HoldMut opens an exclusive claim.
func (r *Reference) HoldMut() (*Held, error) {
	return r.hold(access.Exclusive)
}

func (r *Reference) hold(mode access.Mode) (*Held, error) {
	sc, err := r.base.open(mode)
	if err != nil {
		return nil, r.fail(err)
	}
	return &Held{ref: r, sc: sc}, nil
}

// Mode returns the mode of the held claim.
func (h *Held) Mode() access.Mode {
	return h.sc.mode
}

// Read calls fn with the target. If fn panics the claim is released before
// the panic continues.
func (h *Held) Read(fn func(reflect.Value) error) error {
	if err := h.usable(); err != nil {
		return h.ref.fail(err)
	}
	defer h.releaseOnPanic()
	target, err := h.ref.derive(h.sc)
	if err == nil {
		err = fn(target)
	}
	return h.ref.fail(err)
}

// Write calls fn with a settable target. The claim must be exclusive. Like
// Read, a panic in fn releases the claim.
func (h *Held) Write(fn func(reflect.Value) error) error {
	if err := h.usable(); err != nil {
		return h.ref.fail(err)
	}
	if h.sc.mode != access.Exclusive {
		return h.ref.fail(errors.CannotClaim(h.ref.base.Root().String(), "held claim is shared"))
	}
	defer h.releaseOnPanic()
	return h.ref.fail(h.ref.writeIn(h.sc, fn))
}

func (h *Held) releaseOnPanic() {
	if p := recover(); p != nil {
		_ = h.Release()
		panic(p)
	}
}

func (h *Held) usable() error {
	if h.released.Load() {
		return errors.InvalidInput(errors.PhaseAccess, "claim already released")
	}
	if err := h.sc.check(); err != nil {
		h.ref.invalidate()
		return err
	}
	return nil
}

// Release ends the claim and drops the cached target.
func (h *Held) Release() error {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return nil
	}
	h.ref.invalidate()
	return h.sc.release()
}
