package xbridge

// Memory represents native linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of native linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Growable is linear memory that can be extended by whole 64 KiB pages.
// Grow returns the previous size in pages and false if the limit was hit.
type Growable interface {
	Memory
	MemorySizer
	Grow(deltaPages uint32) (uint32, bool)
}

// Allocator allocates memory in native linear memory
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Reallocator is implemented by allocators that can resize a block,
// following cabi_realloc semantics: the returned block holds the first
// min(oldSize, newSize) bytes of the old one, which must not be used again.
type Reallocator interface {
	Realloc(ptr, oldSize, align, newSize uint32) (uint32, error)
}

// Heap is a native memory together with the allocator that owns it.
type Heap interface {
	Memory
	Allocator
}

// PageSize is the size of one linear memory page.
const PageSize = 65536
