package liveness

import (
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

// state is shared by every token, weak handle and guard of one value.
// Guards pin the value without keeping it alive: once the last strong
// token is dropped the value is dead, and it is finalized when the last
// pin goes away.
type state struct {
	value  reflect.Value
	lock   access.Lock
	epoch  uint64
	strong int
	pins   int
	mu     sync.Mutex
	dead   bool
}

// Token is a strong handle keeping a value alive.
type Token struct {
	st      *state
	dropped atomic.Bool
}

// NewToken wraps v, which should be addressable if it is going to be written.
func NewToken(v reflect.Value) *Token {
	return &Token{st: &state{value: v, strong: 1}}
}

// Clone returns another strong token for the same value.
// Cloning a dropped token returns nil.
func (t *Token) Clone() *Token {
	if t.dropped.Load() {
		return nil
	}
	tok, ok := t.Weak().Upgrade()
	if !ok {
		return nil
	}
	return tok
}

// Drop releases this strong handle. When the last one goes, the value is
// dead; it is finalized (closed, if it implements io.Closer) as soon as no
// guard pins it. Dropping the same token twice is a no-op.
func (t *Token) Drop() error {
	if !t.dropped.CompareAndSwap(false, true) {
		return nil
	}

	st := t.st
	st.mu.Lock()
	st.strong--
	if st.strong > 0 {
		st.mu.Unlock()
		return nil
	}
	st.dead = true
	v := st.takeIfUnpinned()
	st.mu.Unlock()

	return finalize(v)
}

// Alive reports whether the value is still held by any strong token.
func (t *Token) Alive() bool {
	return t.Weak().Alive()
}

// Weak returns a weak handle on the value.
func (t *Token) Weak() Weak {
	return Weak{st: t.st}
}

// Value returns the tracked value, or the zero Value once it has been finalized.
func (t *Token) Value() reflect.Value {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.st.value
}

// State reports the holders of the value's lock.
func (t *Token) State() (shared int, exclusive bool) {
	return t.st.lock.State()
}

// takeIfUnpinned must be called with st.mu held.
func (st *state) takeIfUnpinned() reflect.Value {
	if !st.dead || st.pins > 0 {
		return reflect.Value{}
	}
	v := st.value
	st.value = reflect.Value{}
	return v
}

func finalize(v reflect.Value) error {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	if v.CanAddr() {
		if c, ok := v.Addr().Interface().(io.Closer); ok {
			return c.Close()
		}
	}
	if c, ok := v.Interface().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Weak observes a value without keeping it alive.
type Weak struct {
	st *state
}

// Upgrade returns a new strong token if the value is still alive.
func (w Weak) Upgrade() (*Token, bool) {
	if w.st == nil {
		return nil, false
	}
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	if w.st.dead {
		return nil, false
	}
	w.st.strong++
	return &Token{st: w.st}, true
}

// Alive reports whether an Upgrade would currently succeed.
func (w Weak) Alive() bool {
	if w.st == nil {
		return false
	}
	w.st.mu.Lock()
	defer w.st.mu.Unlock()
	return !w.st.dead
}

// IsZero reports whether w was never bound to a token.
func (w Weak) IsZero() bool {
	return w.st == nil
}

// Claim takes a non-blocking claim on a live value.
// A dead value yields errors.KindGarbageCollectedAllocation; a conflicting
// claim yields errors.KindCannotClaimAccess.
func (w Weak) Claim(mode access.Mode) (*Guard, error) {
	if w.st == nil {
		return nil, errors.GarbageCollected("")
	}

	st := w.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.dead {
		return nil, errors.GarbageCollected("")
	}

	var ok bool
	if mode == access.Exclusive {
		ok = st.lock.TryExclusive()
	} else {
		ok = st.lock.TryShared()
	}
	if !ok {
		return nil, errors.CannotClaim("allocation", "conflicting "+mode.String()+" claim")
	}

	st.pins++
	st.epoch++
	return &Guard{st: st, mode: mode, epoch: st.epoch}, nil
}

// Guard is a held claim on one script-owned value.
type Guard struct {
	st       *state
	epoch    uint64
	released atomic.Bool
	mode     access.Mode
}

// Value returns the claimed value. It stays valid until Release even if the
// owner drops the value meanwhile.
func (g *Guard) Value() reflect.Value {
	g.st.mu.Lock()
	defer g.st.mu.Unlock()
	return g.st.value
}

// Mode returns the claim mode.
func (g *Guard) Mode() access.Mode {
	return g.mode
}

// Epoch is unique per claim taken on the same value.
func (g *Guard) Epoch() uint64 {
	return g.epoch
}

// Alive reports whether the owner still holds the value.
func (g *Guard) Alive() bool {
	return Weak{st: g.st}.Alive()
}

// Release drops the claim and the pin. If the owner dropped the value
// meanwhile, this finalizes it.
func (g *Guard) Release() error {
	if g == nil || !g.released.CompareAndSwap(false, true) {
		return nil
	}

	st := g.st
	st.mu.Lock()
	if g.mode == access.Exclusive {
		st.lock.ReleaseExclusive()
	} else {
		st.lock.ReleaseShared()
	}
	st.pins--
	v := st.takeIfUnpinned()
	st.mu.Unlock()

	return finalize(v)
}
