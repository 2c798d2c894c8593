package access

import "sync"

// Lock is a non-blocking reader/writer claim on one root.
// The zero value is unlocked.
type Lock struct {
	mu        sync.Mutex
	shared    int
	exclusive bool
}

// TryShared takes a shared claim. It fails if an exclusive claim is held.
func (l *Lock) TryShared() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exclusive {
		return false
	}
	l.shared++
	return true
}

// TryExclusive takes the exclusive claim. It fails if any claim is held.
func (l *Lock) TryExclusive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exclusive || l.shared > 0 {
		return false
	}
	l.exclusive = true
	return true
}

// ReleaseShared drops one shared claim.
func (l *Lock) ReleaseShared() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shared == 0 {
		panic("access: ReleaseShared without a shared claim")
	}
	l.shared--
}

// ReleaseExclusive drops the exclusive claim.
func (l *Lock) ReleaseExclusive() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.exclusive {
		panic("access: ReleaseExclusive without an exclusive claim")
	}
	l.exclusive = false
}

// State reports the current holders.
func (l *Lock) State() (shared int, exclusive bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shared, l.exclusive
}
