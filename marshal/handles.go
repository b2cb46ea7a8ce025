package marshal

import (
	stderrors "errors"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/resource"
)

// handles is the shared machinery behind Boxes and ManagedStrings: managed
// values parked in a resource table while native code holds their handle.
type handles[T any] struct {
	typed *resource.Typed[T]
	what  string
}

func newHandles[T any](t *resource.Table, kind resource.Kind, what string) handles[T] {
	return handles[T]{typed: resource.NewTyped[T](t, kind), what: what}
}

func (s handles[T]) insert(v T) (resource.Handle, error) {
	h := s.typed.Insert(v)
	if h == 0 {
		return 0, errors.New(errors.PhaseTransfer, errors.KindAllocation).
			Detail("cannot park %s: resource table closed or full", s.what).
			Build()
	}
	return h, nil
}

func (s handles[T]) borrow(h resource.Handle, op string) (T, func()) {
	v, release, err := s.typed.Borrow(h)
	if err != nil {
		s.custody(op, err)
	}
	return v, release
}

func (s handles[T]) read(h resource.Handle, op string) T {
	v, release := s.borrow(h, op)
	release()
	return v
}

func (s handles[T]) take(h resource.Handle, op string) T {
	v, err := s.typed.Take(h)
	if err != nil {
		s.custody(op, err)
	}
	return v
}

func (s handles[T]) drop(h resource.Handle, op string) {
	if err := s.typed.Drop(h); err != nil {
		s.custody(op, err)
	}
}

func (s handles[T]) live(h resource.Handle) bool {
	_, ok := s.typed.Get(h)
	return ok
}

// custody turns a table miss into the matching panic. A stale handle means
// the value was already taken or dropped.
func (s handles[T]) custody(op string, err error) {
	switch {
	case stderrors.Is(err, resource.ErrStaleHandle):
		useAfterConsume(s.what + "." + op)
	case stderrors.Is(err, resource.ErrKindMismatch):
		violation("%s.%s: handle refers to another kind of value", s.what, op)
	case stderrors.Is(err, resource.ErrOutstandingBorrow):
		violation("%s.%s: value is still borrowed", s.what, op)
	default:
		violation("%s.%s: %v", s.what, op, err)
	}
}
