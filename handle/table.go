package handle

import (
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/scriptref/errors"
	"github.com/wippyai/scriptref/liveness"
	"github.com/wippyai/scriptref/ref"
)

type slot struct {
	ref     *ref.Reference
	owned   *liveness.Allocation
	borrows uint32
	gen     uint8
	valid   bool
}

// Table issues handles for references. It is safe for concurrent use.
type Table struct {
	slots     []slot
	free      []int
	observers map[uint64]Observer
	nextObs   uint64
	limit     int
	live      int
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates a table holding at most limit live handles. A limit of
// zero means no limit beyond the handle encoding.
func NewTable(limit int) *Table {
	if limit <= 0 || limit > maxSlots {
		limit = maxSlots
	}
	return &Table{
		slots:     make([]slot, 0, 64),
		free:      make([]int, 0, 16),
		observers: make(map[uint64]Observer),
		limit:     limit,
	}
}

// Insert stores r and returns its handle. If owned is not nil the handle
// owns that allocation and drops it when the handle is dropped.
func (t *Table) Insert(r *ref.Reference, owned *liveness.Allocation) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.InvalidInput(errors.PhaseScript, "handle table is closed")
	}
	if t.live >= t.limit {
		t.mu.Unlock()
		return 0, errors.New(errors.PhaseScript, errors.KindInvalidInput).
			Reference(r.String()).
			Detail("handle limit %d reached", t.limit).
			Build()
	}

	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		if len(t.slots) >= maxSlots {
			t.mu.Unlock()
			return 0, errors.InvalidInput(errors.PhaseScript, "handle space exhausted")
		}
		t.slots = append(t.slots, slot{})
		idx = len(t.slots) - 1
	}
	s := &t.slots[idx]
	s.ref = r
	s.owned = owned
	s.borrows = 0
	s.valid = true
	h := makeHandle(idx, s.gen)
	t.live++
	t.mu.Unlock()

	Logger().Debug("handle created", zap.Stringer("handle", h), zap.Stringer("ref", r))
	t.notify(Event{Type: EventCreated, Handle: h, Ref: r.String(), Owned: owned != nil})
	return h, nil
}

// lookup must be called with t.mu held.
func (t *Table) lookup(h Handle) (*slot, bool) {
	i := h.slot()
	if i < 0 || i >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[i]
	if !s.valid || s.gen != h.gen() {
		return nil, false
	}
	return s, true
}

// Get returns the reference behind h.
func (t *Table) Get(h Handle) (*ref.Reference, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.lookup(h)
	if !ok {
		return nil, false
	}
	return s.ref, true
}

// Owned returns the allocation h owns, if any.
func (t *Table) Owned(h Handle) (*liveness.Allocation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.lookup(h)
	if !ok || s.owned == nil {
		return nil, false
	}
	return s.owned, true
}

// Borrow returns the reference behind h and pins the handle until Return.
func (t *Table) Borrow(h Handle) (*ref.Reference, error) {
	t.mu.Lock()
	s, ok := t.lookup(h)
	if !ok {
		t.mu.Unlock()
		return nil, errors.NotFound(errors.PhaseScript, "handle", h.String())
	}
	s.borrows++
	r := s.ref
	t.mu.Unlock()

	t.notify(Event{Type: EventBorrowed, Handle: h, Ref: r.String()})
	return r, nil
}

// Return ends one borrow of h. It reports false if h was not borrowed.
func (t *Table) Return(h Handle) bool {
	t.mu.Lock()
	s, ok := t.lookup(h)
	if !ok || s.borrows == 0 {
		t.mu.Unlock()
		return false
	}
	s.borrows--
	r := s.ref
	t.mu.Unlock()

	t.notify(Event{Type: EventReturned, Handle: h, Ref: r.String()})
	return true
}

// Drop releases h and, if it owns one, its allocation. A borrowed handle
// cannot be dropped.
func (t *Table) Drop(h Handle) error {
	t.mu.Lock()
	s, ok := t.lookup(h)
	if !ok {
		t.mu.Unlock()
		return errors.NotFound(errors.PhaseScript, "handle", h.String())
	}
	if s.borrows > 0 {
		t.mu.Unlock()
		return errors.New(errors.PhaseScript, errors.KindCannotClaimAccess).
			Reference(s.ref.String()).
			Detail("%s has %d outstanding borrows", h, s.borrows).
			Build()
	}
	r, owned := t.release(h.slot())
	t.mu.Unlock()

	return t.finish(h, r, owned)
}

// release must be called with t.mu held.
func (t *Table) release(i int) (*ref.Reference, *liveness.Allocation) {
	s := &t.slots[i]
	r, owned := s.ref, s.owned
	s.ref = nil
	s.owned = nil
	s.borrows = 0
	s.valid = false
	t.live--
	if s.gen == maxGen {
		return r, owned
	}
	s.gen++
	t.free = append(t.free, i)
	return r, owned
}

func (t *Table) finish(h Handle, r *ref.Reference, owned *liveness.Allocation) error {
	var err error
	if owned != nil {
		err = owned.Drop()
	}
	Logger().Debug("handle dropped", zap.Stringer("handle", h), zap.Bool("owned", owned != nil))
	t.notify(Event{Type: EventDropped, Handle: h, Ref: r.String(), Owned: owned != nil})
	return err
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Handles returns the live handles in slot order.
func (t *Table) Handles() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Handle, 0, t.live)
	for i := range t.slots {
		if t.slots[i].valid {
			out = append(out, makeHandle(i, t.slots[i].gen))
		}
	}
	return out
}

// Each calls fn for every live handle until it returns false. fn runs
// without the table lock held.
func (t *Table) Each(fn func(Handle, *ref.Reference) bool) {
	for _, h := range t.Handles() {
		r, ok := t.Get(h)
		if !ok {
			continue
		}
		if !fn(h, r) {
			return
		}
	}
}

// Subscribe registers an observer and returns a function removing it.
func (t *Table) Subscribe(o Observer) (cancel func()) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.nextObs++
	id := t.nextObs
	t.observers[id] = o
	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		delete(t.observers, id)
	}
}

// Clear drops every handle, borrowed or not, and reports allocation drop errors.
func (t *Table) Clear() error {
	type dropped struct {
		r     *ref.Reference
		owned *liveness.Allocation
		h     Handle
	}

	t.mu.Lock()
	var all []dropped
	for i := range t.slots {
		if !t.slots[i].valid {
			continue
		}
		h := makeHandle(i, t.slots[i].gen)
		r, owned := t.release(i)
		all = append(all, dropped{r: r, owned: owned, h: h})
	}
	t.mu.Unlock()

	var err error
	for _, d := range all {
		err = multierr.Append(err, t.finish(d.h, d.r, d.owned))
	}
	return err
}

// Close clears the table and stops it issuing handles.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	return t.Clear()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	obs := make([]Observer, 0, len(t.observers))
	ids := make([]uint64, 0, len(t.observers))
	for id := range t.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		obs = append(obs, t.observers[id])
	}
	t.obsMu.RUnlock()

	for _, o := range obs {
		o.OnHandleEvent(e)
	}
}
