package vec

import (
	"slices"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/internal/abi"
)

// RawVec is the owned sequence descriptor: the (ptr, len, cap) triple of a
// native vector whose custody now rests with the holder. Exactly one of
// IntoOwned, Lower or Drop ends that custody; afterwards Drop is a no-op and
// every other method panics.
//
// The zero value is not usable; obtain a RawVec from HandOff or Lift.
type RawVec[T any] struct {
	heap     xbridge.Heap
	elem     Elem[T]
	ptr      uint32
	len      uint32
	cap      uint32
	consumed bool
}

// HandOff consumes v and returns the descriptor that now owns its storage.
// v is disarmed: its Drop does nothing and any other use panics.
func HandOff[T any](v *Vec[T]) *RawVec[T] {
	v.mustLive("HandOff")
	r := &RawVec[T]{
		heap: v.heap,
		elem: v.elem,
		ptr:  v.ptr,
		len:  v.len,
		cap:  v.cap,
	}
	v.disarm()
	return r
}

// Lift adopts a triple produced by foreign code. The triple must describe a
// live block from h's allocator, len <= cap, and ptr aligned for elem; a
// triple that breaks these rules panics. cap 0 is the empty sequence and
// its ptr is ignored.
func Lift[T any](h xbridge.Heap, elem Elem[T], ptr, length, capacity uint32) *RawVec[T] {
	if length > capacity {
		errors.Violation(errors.PhaseTransfer, "sequence length %d exceeds capacity %d", length, capacity)
	}
	if capacity > MaxLen {
		errors.Violation(errors.PhaseTransfer, "sequence capacity %d exceeds maximum %d", capacity, MaxLen)
	}
	if _, ok := abi.ByteSize(capacity, elem.Size()); !ok {
		errors.Violation(errors.PhaseTransfer, "sequence of %d elements overflows the heap", capacity)
	}
	if capacity == 0 {
		ptr = 0
	} else {
		if ptr == 0 {
			errors.Violation(errors.PhaseTransfer, "null pointer with capacity %d", capacity)
		}
		if !abi.IsAligned(ptr, elem.Align()) {
			errors.Violation(errors.PhaseTransfer, "sequence at 0x%x not aligned to %d", ptr, elem.Align())
		}
	}
	return &RawVec[T]{heap: h, elem: elem, ptr: ptr, len: length, cap: capacity}
}

// Len returns the element count without touching native memory.
func (r *RawVec[T]) Len() int {
	r.mustLive("Len")
	return int(r.len)
}

// CopyInto appends a copy of every element to dst. The descriptor keeps
// custody; the storage is neither moved nor freed. On error dst is left
// unchanged.
func (r *RawVec[T]) CopyInto(dst *[]T) error {
	r.mustLive("CopyInto")
	tmp := r.reconstruct()
	defer tmp.disarm()

	out := slices.Grow(*dst, int(r.len))
	err := tmp.View().Each(func(_ int, x T) error {
		out = append(out, x)
		return nil
	})
	if err != nil {
		return err
	}
	*dst = out
	return nil
}

// View borrows the elements without ending custody.
func (r *RawVec[T]) View() View[T] {
	r.mustLive("View")
	return View[T]{mem: r.heap, elem: r.elem, ptr: r.ptr, len: r.len}
}

// IntoOwned ends custody by rebuilding the owning vector, exactly once.
func (r *RawVec[T]) IntoOwned() *Vec[T] {
	r.mustLive("IntoOwned")
	r.consumed = true
	return r.reconstruct()
}

// Drop releases the storage if the descriptor still owns it.
func (r *RawVec[T]) Drop() {
	if r.consumed {
		return
	}
	r.consumed = true
	r.reconstruct().Drop()
}

// Lower ends custody by exporting the raw triple to foreign code, which
// becomes responsible for releasing it.
func (r *RawVec[T]) Lower() (ptr, length, capacity uint32) {
	r.mustLive("Lower")
	r.consumed = true
	return r.ptr, r.len, r.cap
}

// Live reports whether the descriptor still has custody.
func (r *RawVec[T]) Live() bool {
	return !r.consumed
}

func (r *RawVec[T]) reconstruct() *Vec[T] {
	return &Vec[T]{heap: r.heap, elem: r.elem, ptr: r.ptr, len: r.len, cap: r.cap}
}

func (r *RawVec[T]) mustLive(op string) {
	if r.consumed {
		errors.UseAfterConsume(errors.PhaseTransfer, "vec.RawVec."+op)
	}
}
