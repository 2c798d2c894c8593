package world

import (
	"reflect"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"go.uber.org/zap"

	"github.com/wippyai/scriptref/access"
	"github.com/wippyai/scriptref/errors"
)

// Entity identifies an entity. Ids are never reused within a world.
type Entity uint64

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// World is the host store.
type World struct {
	ledger     *access.Ledger
	log        *zap.Logger
	entities   map[Entity]struct{}
	components map[ComponentID]map[Entity]reflect.Value
	resources  map[ResourceID]reflect.Value
	changes    map[access.RootID]uint64
	compTypes  []*componentInfo
	resTypes   []*resourceInfo
	compByType map[reflect.Type]ComponentID
	resByType  map[reflect.Type]ResourceID
	compByName map[string]ComponentID
	resByName  map[string]ResourceID
	present    sync.Map // access.RootID -> uint64 generation
	generation atomic.Uint64
	nextEntity uint64
	mu         sync.RWMutex
	changesMu  sync.Mutex
	closed     atomic.Bool
}

// New creates an empty world.
func New(opts ...Option) *World {
	cfg := config{logger: Logger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &World{
		ledger:     access.NewLedger(),
		log:        cfg.logger,
		entities:   make(map[Entity]struct{}),
		components: make(map[ComponentID]map[Entity]reflect.Value),
		resources:  make(map[ResourceID]reflect.Value),
		changes:    make(map[access.RootID]uint64),
		compByType: make(map[reflect.Type]ComponentID),
		resByType:  make(map[reflect.Type]ResourceID),
		compByName: make(map[string]ComponentID),
		resByName:  make(map[string]ResourceID),
	}
}

// Ledger returns the claim ledger shared by every access to this world.
func (w *World) Ledger() *access.Ledger {
	return w.ledger
}

// Spawn creates a new entity.
func (w *World) Spawn() Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextEntity++
	e := Entity(w.nextEntity)
	w.entities[e] = struct{}{}
	return e
}

// Despawn removes e and all its components.
func (w *World) Despawn(e Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entities[e]; !ok {
		return false
	}
	delete(w.entities, e)
	for id, store := range w.components {
		if _, ok := store[e]; ok {
			delete(store, e)
			root := access.Component(uint32(id), uint64(e))
			w.present.Delete(root)
			w.forgetChanges(root)
		}
	}
	w.log.Debug("entity despawned", zap.Stringer("entity", e))
	return true
}

// Alive reports whether e exists.
func (w *World) Alive(e Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.entities[e]
	return ok
}

// Entities returns all entities in ascending order.
func (w *World) Entities() []Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entity, 0, len(w.entities))
	for e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ComponentsOf returns the names of e's components, sorted.
func (w *World) ComponentsOf(e Entity) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var names []string
	for id, store := range w.components {
		if _, ok := store[e]; ok {
			names = append(names, w.compTypes[id-1].name)
		}
	}
	sort.Strings(names)
	return names
}

// Close tears the world down. Handles stop upgrading and every later access
// fails with errors.KindMissingWorld.
func (w *World) Close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = make(map[Entity]struct{})
	w.components = make(map[ComponentID]map[Entity]reflect.Value)
	w.resources = make(map[ResourceID]reflect.Value)
	w.present.Clear()
	w.log.Debug("world closed")
}

// Closed reports whether Close has been called.
func (w *World) Closed() bool {
	return w.closed.Load()
}

// Contains reports whether a component or resource root currently exists.
// It takes no lock, so it is safe to call while an Access is open.
func (w *World) Contains(id access.RootID) bool {
	return w.Generation(id) != 0
}

// Generation returns the insertion generation of a root, or zero when the
// root is absent. A root removed and inserted again gets a new generation;
// replacing a present value keeps it. It takes no lock.
func (w *World) Generation(id access.RootID) uint64 {
	if w.closed.Load() {
		return 0
	}
	g, ok := w.present.Load(id)
	if !ok {
		return 0
	}
	return g.(uint64)
}

// markPresent records id as present, assigning a fresh generation unless it
// already is. Callers hold w.mu.
func (w *World) markPresent(id access.RootID) {
	if _, ok := w.present.Load(id); ok {
		return
	}
	w.present.Store(id, w.generation.Add(1))
}

// Handle returns a weak handle on w.
func (w *World) Handle() Handle {
	return Handle{p: weak.Make(w)}
}

// MarkChanged bumps the change counter of a root.
func (w *World) MarkChanged(id access.RootID) {
	w.changesMu.Lock()
	defer w.changesMu.Unlock()
	w.changes[id]++
}

// Changes returns how many times a root has been marked changed since it
// was inserted.
func (w *World) Changes(id access.RootID) uint64 {
	w.changesMu.Lock()
	defer w.changesMu.Unlock()
	return w.changes[id]
}

func (w *World) forgetChanges(id access.RootID) {
	w.changesMu.Lock()
	defer w.changesMu.Unlock()
	delete(w.changes, id)
}

// Begin opens an access scope on one root. The world lock is held shared and
// the root is claimed on the ledger until Release. Neither step blocks.
func (w *World) Begin(id access.RootID, mode access.Mode) (*Access, error) {
	if w.closed.Load() {
		return nil, errors.MissingWorld("")
	}
	if !w.mu.TryRLock() {
		w.log.Debug("world busy", zap.Stringer("root", id))
		return nil, errors.CannotClaim("world", "world is locked by the host")
	}
	if w.closed.Load() {
		w.mu.RUnlock()
		return nil, errors.MissingWorld("")
	}
	claim, err := w.ledger.Claim(id, mode)
	if err != nil {
		w.mu.RUnlock()
		return nil, err
	}
	return &Access{w: w, claim: claim}, nil
}

// Access is an open access scope. Components and resources looked up through
// accessors stay in place until it is released.
type Access struct {
	w        *World
	claim    *access.Claim
	released atomic.Bool
}

// World returns the world being accessed.
func (a *Access) World() *World {
	return a.w
}

// Epoch is unique per access scope.
func (a *Access) Epoch() uint64 {
	return a.claim.Epoch()
}

// Mode returns the claim mode.
func (a *Access) Mode() access.Mode {
	return a.claim.Mode()
}

// Root returns the claimed root.
func (a *Access) Root() access.RootID {
	return a.claim.Root()
}

// Release ends the scope. Calling it more than once is a no-op.
func (a *Access) Release() {
	if a == nil || !a.released.CompareAndSwap(false, true) {
		return
	}
	a.claim.Release()
	a.w.mu.RUnlock()
}

// Handle is a weak reference to a world.
type Handle struct {
	p weak.Pointer[World]
}

// Upgrade returns the world if it has neither been closed nor collected.
func (h Handle) Upgrade() (*World, bool) {
	w := h.p.Value()
	if w == nil || w.closed.Load() {
		return nil, false
	}
	return w, true
}
