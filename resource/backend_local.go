package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource table closed")
	ErrFull              = errors.New("resource table full")
	ErrStaleHandle       = errors.New("stale or unknown handle")
	ErrKindMismatch      = errors.New("handle refers to a different kind")
	ErrOutstandingBorrow = errors.New("cannot remove resource with outstanding borrows")
)

// LocalBackend is an in-memory slot store with borrow tracking.
type LocalBackend struct {
	entries  []entry
	freeList []int
	retired  int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value   any
	kind    Kind
	gen     uint32
	borrows uint32
	valid   bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(kind Kind, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if n := len(b.freeList); n > 0 {
		slot := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[slot]
		e.gen++
		e.kind = kind
		e.value = value
		e.valid = true
		return makeHandle(slot, e.gen), nil
	}

	if len(b.entries) >= MaxSlots {
		return 0, ErrFull
	}
	b.entries = append(b.entries, entry{kind: kind, value: value, valid: true})
	return makeHandle(len(b.entries)-1, 0), nil
}

// lookup returns the live entry for h. Callers hold b.mu.
func (b *LocalBackend) lookup(h Handle, kind Kind) (*entry, error) {
	slot := h.slot()
	if h == 0 || slot < 0 || slot >= len(b.entries) {
		return nil, ErrStaleHandle
	}
	e := &b.entries[slot]
	if !e.valid || e.gen != h.gen() {
		return nil, ErrStaleHandle
	}
	if kind != KindAny && e.kind != kind {
		return nil, ErrKindMismatch
	}
	return e, nil
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(h Handle, kind Kind) (any, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// Kind returns the kind stored under h.
func (b *LocalBackend) Kind(h Handle) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, err := b.lookup(h, KindAny)
	if err != nil {
		return 0, false
	}
	return e.kind, true
}

// Remove invalidates h and returns its value. It fails while borrows are
// outstanding.
func (b *LocalBackend) Remove(h Handle, kind Kind) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	if e.borrows > 0 {
		return nil, ErrOutstandingBorrow
	}

	value := e.value
	e.valid = false
	e.value = nil
	// A slot whose generation is exhausted is never reused, so no later
	// handle can equal one already given out.
	if e.gen == genMask {
		b.retired++
	} else {
		b.freeList = append(b.freeList, h.slot())
	}
	return value, nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend) Borrow(h Handle, kind Kind) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(h, kind)
	if err != nil {
		return nil, err
	}
	e.borrows++
	return e.value, nil
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(h Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, err := b.lookup(h, KindAny)
	if err != nil || e.borrows == 0 {
		return false
	}
	e.borrows--
	return true
}

// Len returns the number of live values.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries) - len(b.freeList) - b.retired
}

// Each iterates over all live values.
func (b *LocalBackend) Each(fn func(Handle, Kind, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(makeHandle(i, e.gen), e.kind, e.value) {
				break
			}
		}
	}
}

// Close drops every live value and rejects further inserts.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var drop []Dropper
	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				drop = append(drop, d)
			}
		}
	}
	b.entries = nil
	b.freeList = nil
	b.retired = 0
	b.mu.Unlock()

	for _, d := range drop {
		d.Drop()
	}
	return nil
}
