package resource

import (
	"sync"
)

// Table maps handles to managed values and notifies observers about their
// lifecycle. Values leave a table in one of two ways: Take moves the value
// out to a new owner, Drop destroys it (calling Dropper).
type Table struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle, or 0 if the table is closed
// or full.
func (t *Table) Insert(kind Kind, value any) Handle {
	handle, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Kind:   kind,
		Value:  value,
	})

	return handle
}

// Get retrieves a value of the given kind. KindAny matches any kind.
func (t *Table) Get(handle Handle, kind Kind) (any, bool) {
	v, err := t.backend.Get(handle, kind)
	return v, err == nil
}

// Lookup is Get with the reason for a miss.
func (t *Table) Lookup(handle Handle, kind Kind) (any, error) {
	return t.backend.Get(handle, kind)
}

// Borrow pins a value so it cannot be taken or dropped until the returned
// release function runs.
func (t *Table) Borrow(handle Handle, kind Kind) (any, func(), error) {
	v, err := t.backend.Borrow(handle, kind)
	if err != nil {
		return nil, nil, err
	}
	t.notify(Event{Type: EventBorrowed, Handle: handle, Kind: kind, Value: v})

	var once sync.Once
	release := func() {
		once.Do(func() {
			if t.backend.ReturnBorrow(handle) {
				t.notify(Event{Type: EventBorrowReturned, Handle: handle, Kind: kind, Value: v})
			}
		})
	}
	return v, release, nil
}

// Take removes a value and hands it to the caller without dropping it.
func (t *Table) Take(handle Handle, kind Kind) (any, error) {
	actual, _ := t.backend.Kind(handle)
	value, err := t.backend.Remove(handle, kind)
	if err != nil {
		return nil, err
	}

	t.notify(Event{
		Type:   EventTaken,
		Handle: handle,
		Kind:   actual,
		Value:  value,
	})

	return value, nil
}

// Drop removes a value and destroys it.
func (t *Table) Drop(handle Handle, kind Kind) error {
	actual, _ := t.backend.Kind(handle)
	value, err := t.backend.Remove(handle, kind)
	if err != nil {
		return err
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Kind:   actual,
		Value:  value,
	})

	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer. o must be comparable.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live values.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Close drops all values and stops accepting inserts.
func (t *Table) Close() error {
	return t.backend.Close()
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// Typed is a view of a Table restricted to one kind and one Go type.
type Typed[T any] struct {
	table *Table
	kind  Kind
}

// NewTyped returns a typed view over t for values of kind.
func NewTyped[T any](t *Table, kind Kind) *Typed[T] {
	return &Typed[T]{table: t, kind: kind}
}

func (t *Typed[T]) Insert(value T) Handle {
	return t.table.Insert(t.kind, value)
}

func (t *Typed[T]) Get(handle Handle) (T, bool) {
	v, ok := t.table.Get(handle, t.kind)
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

func (t *Typed[T]) Borrow(handle Handle) (T, func(), error) {
	v, release, err := t.table.Borrow(handle, t.kind)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	typed, ok := v.(T)
	if !ok {
		release()
		var zero T
		return zero, nil, ErrKindMismatch
	}
	return typed, release, nil
}

func (t *Typed[T]) Take(handle Handle) (T, error) {
	if err := t.check(handle); err != nil {
		var zero T
		return zero, err
	}
	v, err := t.table.Take(handle, t.kind)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := v.(T)
	return typed, nil
}

func (t *Typed[T]) Drop(handle Handle) error {
	if err := t.check(handle); err != nil {
		return err
	}
	return t.table.Drop(handle, t.kind)
}

// check rejects handles whose value is not a T, so one typed view cannot
// remove another view's value of the same kind.
func (t *Typed[T]) check(handle Handle) error {
	v, err := t.table.Lookup(handle, t.kind)
	if err != nil {
		return err
	}
	if _, ok := v.(T); !ok {
		return ErrKindMismatch
	}
	return nil
}

// Len returns the number of live values of this kind holding a T.
func (t *Typed[T]) Len() int {
	n := 0
	t.Each(func(Handle, T) bool {
		n++
		return true
	})
	return n
}

// Each iterates over the live values of this kind. fn must not modify the
// table.
func (t *Typed[T]) Each(fn func(Handle, T) bool) {
	t.table.backend.Each(func(h Handle, k Kind, v any) bool {
		if k != t.kind {
			return true
		}
		typed, ok := v.(T)
		if !ok {
			return true
		}
		return fn(h, typed)
	})
}
