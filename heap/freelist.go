package heap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/internal/abi"
)

const (
	// minAlign is the allocation granule; every block starts and ends on it.
	minAlign = 8
	// reservedLow keeps address 0 (and the first granules) out of circulation
	// so a zero pointer always means "no allocation".
	reservedLow = 16
)

// Allocator is an allocator that can also resize blocks.
type Allocator interface {
	xbridge.Allocator
	xbridge.Reallocator
}

type block struct {
	addr uint32
	size uint32
}

// FreeList is a first-fit allocator with coalescing over a growable memory.
// It plays the role of the native side's malloc/free. Freeing a block that is
// not live is a contract violation and panics. Not safe for concurrent use.
type FreeList struct {
	mem  xbridge.Growable
	live map[uint32]uint32 // ptr -> rounded size
	free []block           // sorted by addr, never adjacent
	top  uint32            // end of the region ever handed out
}

var _ Allocator = (*FreeList)(nil)

// NewFreeList creates an allocator that owns mem from reservedLow upward.
func NewFreeList(mem xbridge.Growable) *FreeList {
	return &FreeList{
		mem:  mem,
		live: make(map[uint32]uint32),
		top:  reservedLow,
	}
}

// Alloc returns a block of at least size bytes aligned to align.
func (f *FreeList) Alloc(size, align uint32) (uint32, error) {
	if size == 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "zero-size allocation")
	}
	if size > abi.MaxAlloc {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, size, align)
	}
	if align&(align-1) != 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "alignment must be a power of two")
	}
	if align < minAlign {
		align = minAlign
	}
	rsize := abi.AlignTo(size, minAlign)

	for i, b := range f.free {
		start := abi.AlignTo(b.addr, align)
		if uint64(start)+uint64(rsize) <= uint64(b.addr)+uint64(b.size) {
			f.carve(i, start, rsize)
			f.live[start] = rsize
			return start, nil
		}
	}

	start := abi.AlignTo(f.top, align)
	end := uint64(start) + uint64(rsize)
	if err := f.ensure(end, size, align); err != nil {
		return 0, err
	}
	if start > f.top {
		f.insertFree(f.top, start-f.top)
	}
	f.top = uint32(end)
	f.live[start] = rsize
	return start, nil
}

// Free releases a block obtained from Alloc or Realloc. A zero ptr is ignored.
func (f *FreeList) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	rsize, ok := f.live[ptr]
	if !ok {
		errors.DoubleFree(ptr, size)
	}
	if abi.AlignTo(size, minAlign) != rsize {
		errors.Violation(errors.PhaseAlloc, "free of block 0x%x with size %d, allocated as %d", ptr, size, rsize)
	}
	delete(f.live, ptr)
	f.insertFree(ptr, rsize)
}

// Realloc resizes a block following cabi_realloc semantics.
func (f *FreeList) Realloc(ptr, oldSize, align, newSize uint32) (uint32, error) {
	if ptr == 0 {
		if newSize == 0 {
			return 0, nil
		}
		return f.Alloc(newSize, align)
	}
	if newSize == 0 {
		f.Free(ptr, oldSize, align)
		return 0, nil
	}
	if newSize > abi.MaxAlloc {
		return 0, errors.AllocationFailed(errors.PhaseAlloc, newSize, align)
	}

	rold, ok := f.live[ptr]
	if !ok {
		errors.DoubleFree(ptr, oldSize)
	}
	rnew := abi.AlignTo(newSize, minAlign)

	switch {
	case rnew == rold:
		return ptr, nil
	case rnew < rold:
		f.live[ptr] = rnew
		f.insertFree(ptr+rnew, rold-rnew)
		return ptr, nil
	}

	end := ptr + rold
	extra := rnew - rold
	if end == f.top {
		if err := f.ensure(uint64(ptr)+uint64(rnew), newSize, align); err != nil {
			return 0, err
		}
		f.top = ptr + rnew
		f.live[ptr] = rnew
		return ptr, nil
	}
	if i, ok := f.freeAt(end); ok && f.free[i].size >= extra {
		f.carve(i, end, extra)
		f.live[ptr] = rnew
		return ptr, nil
	}

	moved, err := f.Alloc(newSize, align)
	if err != nil {
		return 0, err
	}
	keep := oldSize
	if newSize < keep {
		keep = newSize
	}
	if keep > 0 {
		data, err := f.mem.Read(ptr, keep)
		if err != nil {
			f.Free(moved, newSize, align)
			return 0, errors.MemoryAccess(errors.PhaseAlloc, ptr, keep, err)
		}
		if err := f.mem.Write(moved, data); err != nil {
			f.Free(moved, newSize, align)
			return 0, errors.MemoryAccess(errors.PhaseAlloc, moved, keep, err)
		}
	}
	f.Free(ptr, oldSize, align)
	return moved, nil
}

// Live returns the number of outstanding blocks.
func (f *FreeList) Live() int {
	return len(f.live)
}

// InUse returns the number of bytes held by outstanding blocks.
func (f *FreeList) InUse() uint32 {
	var n uint32
	for _, size := range f.live {
		n += size
	}
	return n
}

// ensure grows memory until it holds end bytes.
func (f *FreeList) ensure(end uint64, size, align uint32) error {
	have := uint64(f.mem.Size())
	if end <= have {
		return nil
	}
	pages := (end - have + xbridge.PageSize - 1) / xbridge.PageSize
	if pages > uint64(^uint32(0)) {
		return errors.AllocationFailed(errors.PhaseAlloc, size, align)
	}
	prev, ok := f.mem.Grow(uint32(pages))
	if !ok {
		Logger().Debug("memory grow refused",
			zap.Uint32("pages", prev),
			zap.Uint64("delta", pages),
			zap.Uint32("size", size),
		)
		return errors.AllocationFailed(errors.PhaseAlloc, size, align)
	}
	Logger().Debug("memory grown", zap.Uint32("from_pages", prev), zap.Uint64("delta", pages))
	return nil
}

// carve takes [start, start+size) out of free block i.
func (f *FreeList) carve(i int, start, size uint32) {
	b := f.free[i]
	var parts []block
	if lead := start - b.addr; lead > 0 {
		parts = append(parts, block{addr: b.addr, size: lead})
	}
	if trail := b.addr + b.size - (start + size); trail > 0 {
		parts = append(parts, block{addr: start + size, size: trail})
	}
	f.free = append(f.free[:i], append(parts, f.free[i+1:]...)...)
}

func (f *FreeList) freeAt(addr uint32) (int, bool) {
	i := sort.Search(len(f.free), func(i int) bool { return f.free[i].addr >= addr })
	if i < len(f.free) && f.free[i].addr == addr {
		return i, true
	}
	return 0, false
}

// insertFree returns a range to the free list, merging neighbours and
// lowering top when the range reaches it.
func (f *FreeList) insertFree(addr, size uint32) {
	i := sort.Search(len(f.free), func(i int) bool { return f.free[i].addr >= addr })
	b := block{addr: addr, size: size}

	if i < len(f.free) && b.addr+b.size == f.free[i].addr {
		b.size += f.free[i].size
		f.free = append(f.free[:i], f.free[i+1:]...)
	}
	if i > 0 && f.free[i-1].addr+f.free[i-1].size == b.addr {
		i--
		b.addr = f.free[i].addr
		b.size += f.free[i].size
		f.free = append(f.free[:i], f.free[i+1:]...)
	}

	if b.addr+b.size == f.top {
		f.top = b.addr
		return
	}
	f.free = append(f.free, block{})
	copy(f.free[i+1:], f.free[i:])
	f.free[i] = b
}
