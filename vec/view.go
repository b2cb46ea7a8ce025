package vec

import (
	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

// View is a borrowed, read-only window over len elements at ptr. It owns
// nothing and is valid only while the lender keeps the storage alive,
// typically the duration of one call.
type View[T any] struct {
	mem  xbridge.Memory
	elem Elem[T]
	ptr  uint32
	len  uint32
}

// NewView borrows n elements at ptr.
func NewView[T any](mem xbridge.Memory, elem Elem[T], ptr uint32, n int) View[T] {
	if n < 0 || n > MaxLen {
		errors.Violation(errors.PhaseDecode, "view length %d out of range", n)
	}
	if n > 0 && ptr%elem.Align() != 0 {
		errors.Violation(errors.PhaseDecode, "view at 0x%x not aligned to %d", ptr, elem.Align())
	}
	return View[T]{mem: mem, elem: elem, ptr: ptr, len: uint32(n)}
}

func (v View[T]) Len() int {
	return int(v.len)
}

// Ptr returns the address of the first element.
func (v View[T]) Ptr() uint32 {
	return v.ptr
}

func (v View[T]) At(i int) (T, error) {
	if i < 0 || i >= int(v.len) {
		var zero T
		return zero, errors.OutOfBounds(errors.PhaseDecode, nil, i, int(v.len))
	}
	return v.elem.Load(v.mem, v.ptr+uint32(i)*v.elem.Size())
}

// Each calls fn for every element in order and stops at the first error.
func (v View[T]) Each(fn func(i int, x T) error) error {
	size := v.elem.Size()
	for i := uint32(0); i < v.len; i++ {
		x, err := v.elem.Load(v.mem, v.ptr+i*size)
		if err != nil {
			return err
		}
		if err := fn(int(i), x); err != nil {
			return err
		}
	}
	return nil
}

// Items copies the viewed elements into a new slice.
func (v View[T]) Items() ([]T, error) {
	out := make([]T, 0, v.len)
	err := v.Each(func(_ int, x T) error {
		out = append(out, x)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Bytes copies a byte view out in one read.
func Bytes(v View[uint8]) ([]byte, error) {
	if v.len == 0 {
		return []byte{}, nil
	}
	data, err := v.mem.Read(v.ptr, v.len)
	if err != nil {
		return nil, errors.MemoryAccess(errors.PhaseDecode, v.ptr, v.len, err)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
