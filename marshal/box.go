package marshal

import (
	"github.com/wippyai/xbridge/resource"
)

// Box is a managed value on the managed heap that native code holds by
// handle (xb_box). Native code can pass it around and hand it back but never
// looks inside.
type Box[T any] struct {
	h resource.Handle
}

// BoxFromHandle rebuilds a box from the handle native code passed back.
func BoxFromHandle[T any](h uint32) Box[T] {
	return Box[T]{h: resource.Handle(h)}
}

// Handle is the value that crosses the boundary.
func (b Box[T]) Handle() uint32 {
	return uint32(b.h)
}

// Boxes stores the values behind Box handles.
type Boxes[T any] struct {
	handles[T]
}

// NewBoxes keeps boxed values of type T in t.
func NewBoxes[T any](t *resource.Table) *Boxes[T] {
	return &Boxes[T]{handles: newHandles[T](t, resource.KindBox, "Box")}
}

// New boxes v.
func (s *Boxes[T]) New(v T) (Box[T], error) {
	h, err := s.insert(v)
	if err != nil {
		return Box[T]{}, err
	}
	return Box[T]{h: h}, nil
}

// Get reads the boxed value without taking it.
func (s *Boxes[T]) Get(b Box[T]) T {
	return s.read(b.h, "Get")
}

// Borrow pins the box until release runs; Take and Drop on a pinned box
// panic.
func (s *Boxes[T]) Borrow(b Box[T]) (T, func()) {
	return s.borrow(b.h, "Borrow")
}

// Take consumes the box and returns its value.
func (s *Boxes[T]) Take(b Box[T]) T {
	return s.take(b.h, "Take")
}

// Drop consumes the box and destroys its value.
func (s *Boxes[T]) Drop(b Box[T]) {
	s.drop(b.h, "Drop")
}

// Live reports whether b still holds a value.
func (s *Boxes[T]) Live(b Box[T]) bool {
	return s.live(b.h)
}

// Len returns the number of live boxes.
func (s *Boxes[T]) Len() int {
	return s.typed.Len()
}
