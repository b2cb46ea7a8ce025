package resource

import "strconv"

// Handle is an opaque reference to a managed value held in a table.
// Handle 0 is reserved and always invalid. The low bits select a slot and
// the high bits carry the slot's generation, so a handle stays invalid after
// its value leaves the table even when the slot is reused. A slot whose
// generation is exhausted is retired instead of wrapping.
type Handle uint32

const (
	slotBits = 20
	slotMask = 1<<slotBits - 1
	genMask  = 1<<(32-slotBits) - 1

	// MaxSlots bounds the slots a table allocates, retired ones included.
	MaxSlots = slotMask
)

func makeHandle(slot int, gen uint32) Handle {
	return Handle(gen<<slotBits | uint32(slot+1))
}

func (h Handle) slot() int {
	return int(uint32(h)&slotMask) - 1
}

func (h Handle) gen() uint32 {
	return uint32(h) >> slotBits
}

// Kind identifies what a handle refers to. Lookups check it so a box handle
// cannot be read as a managed string.
type Kind uint32

const (
	KindAny Kind = iota
	KindBox
	KindManagedString
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindBox:
		return "box"
	case KindManagedString:
		return "managed_string"
	}
	return "kind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// EventType enumerates lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventTaken
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventTaken:
		return "taken"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by values that need cleanup when the
// table destroys them. Values moved out with Take are not dropped.
type Dropper interface {
	Drop()
}
