package access

import "fmt"

// RootKind identifies the family a root belongs to.
type RootKind uint8

const (
	RootComponent RootKind = iota + 1
	RootResource
	RootAllocation
)

func (k RootKind) String() string {
	switch k {
	case RootComponent:
		return "component"
	case RootResource:
		return "resource"
	case RootAllocation:
		return "allocation"
	default:
		return "unknown"
	}
}

// RootID keys a ledger entry.
// Type is the registered component/resource type; Index is the entity for
// components and the allocation id for script-owned values.
type RootID struct {
	Index uint64
	Type  uint32
	Kind  RootKind
}

// Component returns the id of component type typeID on entity.
func Component(typeID uint32, entity uint64) RootID {
	return RootID{Kind: RootComponent, Type: typeID, Index: entity}
}

// Resource returns the id of resource type typeID.
func Resource(typeID uint32) RootID {
	return RootID{Kind: RootResource, Type: typeID}
}

// Allocation returns the id of a script-owned allocation.
func Allocation(id uint64) RootID {
	return RootID{Kind: RootAllocation, Index: id}
}

func (id RootID) String() string {
	switch id.Kind {
	case RootComponent:
		return fmt.Sprintf("component(%d)@%d", id.Type, id.Index)
	case RootResource:
		return fmt.Sprintf("resource(%d)", id.Type)
	case RootAllocation:
		return fmt.Sprintf("allocation#%d", id.Index)
	default:
		return "unknown"
	}
}

// Mode is the kind of claim held.
type Mode uint8

const (
	Shared Mode = iota + 1
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}
