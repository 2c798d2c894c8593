package access

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/scriptref/errors"
)

// Ledger tracks claims for many roots.
type Ledger struct {
	entries map[RootID]*entry
	epoch   atomic.Uint64
	mu      sync.Mutex
}

type entry struct {
	shared    int
	exclusive bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[RootID]*entry),
	}
}

// ClaimShared takes a shared claim on id.
func (l *Ledger) ClaimShared(id RootID) (*Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[id]
	if e != nil && e.exclusive {
		Logger().Debug("shared claim refused",
			zap.Stringer("root", id),
			zap.String("held", "exclusive"))
		return nil, errors.CannotClaim(id.String(), "exclusive claim already held")
	}
	if e == nil {
		e = &entry{}
		l.entries[id] = e
	}
	e.shared++

	return l.newClaim(id, Shared), nil
}

// ClaimExclusive takes the exclusive claim on id.
func (l *Ledger) ClaimExclusive(id RootID) (*Claim, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e := l.entries[id]; e != nil {
		held := "exclusive"
		if !e.exclusive {
			held = "shared"
		}
		Logger().Debug("exclusive claim refused",
			zap.Stringer("root", id),
			zap.String("held", held),
			zap.Int("shared", e.shared))
		return nil, errors.CannotClaim(id.String(), held+" claim already held")
	}
	l.entries[id] = &entry{exclusive: true}

	return l.newClaim(id, Exclusive), nil
}

// Claim takes a claim of the given mode.
func (l *Ledger) Claim(id RootID, mode Mode) (*Claim, error) {
	if mode == Exclusive {
		return l.ClaimExclusive(id)
	}
	return l.ClaimShared(id)
}

// State reports the holders of id.
func (l *Ledger) State(id RootID) (shared int, exclusive bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e := l.entries[id]; e != nil {
		return e.shared, e.exclusive
	}
	return 0, false
}

// Len returns the number of roots with at least one claim.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// newClaim must be called with l.mu held.
func (l *Ledger) newClaim(id RootID, mode Mode) *Claim {
	return &Claim{
		ledger: l,
		id:     id,
		mode:   mode,
		epoch:  l.epoch.Add(1),
	}
}

func (l *Ledger) release(id RootID, mode Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[id]
	if e == nil {
		panic("access: release of unknown root " + id.String())
	}
	if mode == Exclusive {
		e.exclusive = false
	} else {
		e.shared--
	}
	if e.shared == 0 && !e.exclusive {
		delete(l.entries, id)
	}
}

// Claim is a scoped permission to dereference one root.
type Claim struct {
	ledger   *Ledger
	id       RootID
	epoch    uint64
	released atomic.Bool
	mode     Mode
}

// Root returns the claimed root.
func (c *Claim) Root() RootID {
	return c.id
}

// Mode returns whether the claim is shared or exclusive.
func (c *Claim) Mode() Mode {
	return c.mode
}

// Epoch is unique per claim issued by a ledger.
func (c *Claim) Epoch() uint64 {
	return c.epoch
}

// Release returns the claim to the ledger. Calling it more than once is a no-op.
func (c *Claim) Release() {
	if c == nil || !c.released.CompareAndSwap(false, true) {
		return
	}
	c.ledger.release(c.id, c.mode)
}

// Released reports whether Release has been called.
func (c *Claim) Released() bool {
	return c.released.Load()
}
