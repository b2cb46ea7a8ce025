package vec

import (
	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/internal/abi"
)

// MaxLen bounds the element count of any sequence.
const MaxLen = abi.MaxListLength

const minGrowCap = 4

type state uint8

const (
	stateLive state = iota
	stateDisarmed
	stateDropped
)

// Vec is a growable array owned by the native side. Its storage lives on a
// native heap and is released by Drop. A Vec that has been handed off is
// disarmed: Drop becomes a no-op and every other method panics.
//
// A Vec is not safe for concurrent use.
type Vec[T any] struct {
	heap  xbridge.Heap
	elem  Elem[T]
	ptr   uint32
	len   uint32
	cap   uint32
	state state
}

// New returns an empty vector. It owns no storage until the first push.
func New[T any](h xbridge.Heap, elem Elem[T]) *Vec[T] {
	return &Vec[T]{heap: h, elem: elem}
}

// WithCapacity returns an empty vector with room for n elements.
func WithCapacity[T any](h xbridge.Heap, elem Elem[T], n int) (*Vec[T], error) {
	v := New(h, elem)
	if err := v.Reserve(n); err != nil {
		return nil, err
	}
	return v, nil
}

// From builds a vector holding items in order.
func From[T any](h xbridge.Heap, elem Elem[T], items ...T) (*Vec[T], error) {
	v, err := WithCapacity(h, elem, len(items))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := v.Push(item); err != nil {
			v.Drop()
			return nil, err
		}
	}
	return v, nil
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int {
	v.mustLive("Len")
	return int(v.len)
}

// Cap returns the number of elements the storage can hold.
func (v *Vec[T]) Cap() int {
	v.mustLive("Cap")
	return int(v.cap)
}

// Push appends x, growing the storage if needed.
func (v *Vec[T]) Push(x T) error {
	v.mustLive("Push")
	if v.len == v.cap {
		if err := v.grow(v.len + 1); err != nil {
			return err
		}
	}
	if err := v.elem.Store(v.heap, v.addr(v.len), x); err != nil {
		return err
	}
	v.len++
	return nil
}

// Reserve makes room for at least n more elements.
func (v *Vec[T]) Reserve(n int) error {
	v.mustLive("Reserve")
	if n < 0 || uint64(v.len)+uint64(n) > MaxLen {
		return errors.New(errors.PhaseAlloc, errors.KindOverflow).
			Detail("cannot reserve %d elements beyond length %d (max %d)", n, v.len, MaxLen).
			Build()
	}
	need := v.len + uint32(n)
	if need <= v.cap {
		return nil
	}
	return v.resize(need)
}

// At returns the element at i.
func (v *Vec[T]) At(i int) (T, error) {
	v.mustLive("At")
	if i < 0 || i >= int(v.len) {
		var zero T
		return zero, errors.OutOfBounds(errors.PhaseDecode, nil, i, int(v.len))
	}
	return v.elem.Load(v.heap, v.addr(uint32(i)))
}

// Set overwrites the element at i.
func (v *Vec[T]) Set(i int, x T) error {
	v.mustLive("Set")
	if i < 0 || i >= int(v.len) {
		return errors.OutOfBounds(errors.PhaseEncode, nil, i, int(v.len))
	}
	return v.elem.Store(v.heap, v.addr(uint32(i)), x)
}

// Items copies every element out of native memory.
func (v *Vec[T]) Items() ([]T, error) {
	v.mustLive("Items")
	return v.View().Items()
}

// View borrows the contents. The view must not outlive the vector or any
// call that may grow it.
func (v *Vec[T]) View() View[T] {
	v.mustLive("View")
	return View[T]{mem: v.heap, elem: v.elem, ptr: v.ptr, len: v.len}
}

// Drop releases the storage. It is a no-op on a dropped or handed-off
// vector.
func (v *Vec[T]) Drop() {
	if v.state != stateLive {
		return
	}
	v.state = stateDropped
	if v.cap == 0 {
		return
	}
	v.heap.Free(v.ptr, v.bytes(v.cap), v.elem.Align())
	v.ptr, v.len, v.cap = 0, 0, 0
}

// Heap returns the heap the storage was allocated from.
func (v *Vec[T]) Heap() xbridge.Heap {
	return v.heap
}

// Live reports whether the vector still owns its storage.
func (v *Vec[T]) Live() bool {
	return v.state == stateLive
}

func (v *Vec[T]) mustLive(op string) {
	if v.state != stateLive {
		errors.UseAfterConsume(errors.PhaseTransfer, "vec.Vec."+op)
	}
}

func (v *Vec[T]) disarm() {
	v.state = stateDisarmed
}

func (v *Vec[T]) addr(i uint32) uint32 {
	return v.ptr + i*v.elem.Size()
}

// bytes is the storage size of n elements; callers have bounded n.
func (v *Vec[T]) bytes(n uint32) uint32 {
	return n * v.elem.Size()
}

func (v *Vec[T]) grow(need uint32) error {
	if need > MaxLen {
		return errors.New(errors.PhaseAlloc, errors.KindOverflow).
			Detail("length %d exceeds maximum %d", need, MaxLen).
			Build()
	}
	newCap := v.cap * 2
	if newCap < minGrowCap {
		newCap = minGrowCap
	}
	if newCap < need {
		newCap = need
	}
	if newCap > MaxLen {
		newCap = MaxLen
	}
	return v.resize(newCap)
}

func (v *Vec[T]) resize(newCap uint32) error {
	size := v.elem.Size()
	align := v.elem.Align()
	newBytes, ok := abi.ByteSize(newCap, size)
	if !ok {
		return errors.New(errors.PhaseAlloc, errors.KindOverflow).
			Detail("%d elements of %d bytes overflow the heap", newCap, size).
			Build()
	}
	oldBytes := v.bytes(v.cap)

	var ptr uint32
	var err error
	if r, ok := v.heap.(xbridge.Reallocator); ok {
		ptr, err = r.Realloc(v.ptr, oldBytes, align, newBytes)
	} else {
		ptr, err = v.heap.Alloc(newBytes, align)
		if err == nil && v.cap > 0 {
			err = copyBlock(v.heap, v.ptr, ptr, v.bytes(v.len))
			if err != nil {
				v.heap.Free(ptr, newBytes, align)
			} else {
				v.heap.Free(v.ptr, oldBytes, align)
			}
		}
	}
	if err != nil {
		return err
	}
	v.ptr, v.cap = ptr, newCap
	return nil
}

func copyBlock(mem xbridge.Memory, from, to, n uint32) error {
	if n == 0 {
		return nil
	}
	data, err := mem.Read(from, n)
	if err != nil {
		return errors.MemoryAccess(errors.PhaseAlloc, from, n, err)
	}
	buf := make([]byte, n)
	copy(buf, data)
	if err := mem.Write(to, buf); err != nil {
		return errors.MemoryAccess(errors.PhaseAlloc, to, n, err)
	}
	return nil
}
