package heap

import "sync"

// Op is an allocator operation recorded by Tracking.
type Op string

const (
	OpAlloc   Op = "alloc"
	OpFree    Op = "free"
	OpRealloc Op = "realloc"
)

// Event is one recorded allocator call.
type Event struct {
	Op    Op
	Ptr   uint32
	Size  uint32
	Align uint32
	From  uint32 // previous pointer, realloc only
}

// Tracking wraps an allocator and records every call. A realloc that moves
// a block is also recorded as a free of the old pointer.
type Tracking struct {
	inner  Allocator
	mu     sync.Mutex
	events []Event
	live   map[uint32]uint32
	frees  map[uint32]int
}

var _ Allocator = (*Tracking)(nil)

// NewTracking wraps inner.
func NewTracking(inner Allocator) *Tracking {
	return &Tracking{
		inner: inner,
		live:  make(map[uint32]uint32),
		frees: make(map[uint32]int),
	}
}

func (t *Tracking) Alloc(size, align uint32) (uint32, error) {
	ptr, err := t.inner.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	t.events = append(t.events, Event{Op: OpAlloc, Ptr: ptr, Size: size, Align: align})
	t.live[ptr] = size
	t.mu.Unlock()
	return ptr, nil
}

// Free records the call before delegating so a panicking double free is
// still visible in Events.
func (t *Tracking) Free(ptr, size, align uint32) {
	if ptr != 0 {
		t.mu.Lock()
		t.events = append(t.events, Event{Op: OpFree, Ptr: ptr, Size: size, Align: align})
		t.frees[ptr]++
		delete(t.live, ptr)
		t.mu.Unlock()
	}
	t.inner.Free(ptr, size, align)
}

func (t *Tracking) Realloc(ptr, oldSize, align, newSize uint32) (uint32, error) {
	moved, err := t.inner.Realloc(ptr, oldSize, align, newSize)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, Event{Op: OpRealloc, Ptr: moved, Size: newSize, Align: align, From: ptr})
	if ptr != 0 && moved != ptr {
		t.frees[ptr]++
		delete(t.live, ptr)
	}
	if moved != 0 {
		t.live[moved] = newSize
	}
	return moved, nil
}

// Frees returns how many times ptr has been released.
func (t *Tracking) Frees(ptr uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frees[ptr]
}

// Allocs returns the number of successful Alloc calls.
func (t *Tracking) Allocs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events {
		if e.Op == OpAlloc {
			n++
		}
	}
	return n
}

// Live returns the number of blocks not yet released.
func (t *Tracking) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Events returns a copy of the recorded calls.
func (t *Tracking) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Reset forgets recorded events. Live blocks stay live.
func (t *Tracking) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
	t.frees = make(map[uint32]int)
}
