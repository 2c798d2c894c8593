package liveness

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// Allocation is a value owned by the script side.
type Allocation struct {
	token *Token
	owner *Allocator
	typ   reflect.Type
	id    uint64
}

// ID returns the allocation id, unique within its allocator.
func (a *Allocation) ID() uint64 {
	return a.id
}

// Type returns the Go type of the allocated value.
func (a *Allocation) Type() reflect.Type {
	return a.typ
}

// Weak returns a weak handle on the allocated value.
func (a *Allocation) Weak() Weak {
	return a.token.Weak()
}

// Alive reports whether the allocation has not been dropped.
func (a *Allocation) Alive() bool {
	return a.token.Alive()
}

// Drop releases the allocation. Outstanding references fail on their next access.
func (a *Allocation) Drop() error {
	if a.owner != nil {
		a.owner.forget(a.id)
	}
	return a.token.Drop()
}

func (a *Allocation) String() string {
	return fmt.Sprintf("allocation#%d(%s)", a.id, a.typ)
}

// Allocator owns the script-side allocations of one script context.
type Allocator struct {
	live map[uint64]*Allocation
	next uint64
	mu   sync.Mutex
}

// NewAllocator creates an empty allocator. Ids start at 1.
func NewAllocator() *Allocator {
	return &Allocator{
		live: make(map[uint64]*Allocation),
	}
}

// Allocate copies v into a new script-owned allocation.
func (a *Allocator) Allocate(v any) *Allocation {
	return a.AllocateValue(reflect.ValueOf(v))
}

// AllocateValue copies v into a new, addressable script-owned allocation.
func (a *Allocator) AllocateValue(v reflect.Value) *Allocation {
	if !v.IsValid() {
		panic("liveness: cannot allocate an invalid value")
	}
	cell := reflect.New(v.Type()).Elem()
	cell.Set(v)

	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	al := &Allocation{
		token: NewToken(cell),
		owner: a,
		typ:   v.Type(),
		id:    a.next,
	}
	a.live[al.id] = al
	return al
}

// Get returns a live allocation by id.
func (a *Allocator) Get(id uint64) (*Allocation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	al, ok := a.live[id]
	return al, ok
}

// Drop releases the allocation with the given id.
func (a *Allocator) Drop(id uint64) (bool, error) {
	al, ok := a.Get(id)
	if !ok {
		return false, nil
	}
	return true, al.Drop()
}

// Len returns the number of live allocations.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// IDs returns the ids of live allocations in ascending order.
func (a *Allocator) IDs() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]uint64, 0, len(a.live))
	for id := range a.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close drops every live allocation and reports all finalizer errors.
func (a *Allocator) Close() error {
	a.mu.Lock()
	all := make([]*Allocation, 0, len(a.live))
	for _, al := range a.live {
		all = append(all, al)
	}
	a.live = make(map[uint64]*Allocation)
	a.mu.Unlock()

	var err error
	for _, al := range all {
		err = multierr.Append(err, al.token.Drop())
	}
	return err
}

func (a *Allocator) forget(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, id)
}
