package handle

import "strconv"

// Handle is a script-visible reference handle. The low 24 bits hold the
// slot index plus one, the high 8 bits the slot generation. Handle 0 is
// never issued. A slot whose generation is exhausted is retired rather than
// wrapped, so a dropped handle never matches again.
type Handle uint32

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
	maxSlots  = indexMask
	maxGen    = 1<<(32-indexBits) - 1
)

func makeHandle(slot int, gen uint8) Handle {
	return Handle(uint32(gen)<<indexBits | uint32(slot+1))
}

func (h Handle) slot() int {
	return int(uint32(h)&indexMask) - 1
}

func (h Handle) gen() uint8 {
	return uint8(uint32(h) >> indexBits)
}

func (h Handle) String() string {
	return "handle(" + strconv.FormatUint(uint64(h), 10) + ")"
}

// EventType is the kind of a handle lifecycle event.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventReturned:
		return "returned"
	default:
		return "unknown"
	}
}

// Event describes a handle lifecycle change.
type Event struct {
	Ref    string
	Handle Handle
	Type   EventType
	Owned  bool
}

// Observer receives handle lifecycle events. It is called with no table
// lock held.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }
