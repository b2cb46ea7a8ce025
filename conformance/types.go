package conformance

import (
	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/marshal"
	"github.com/wippyai/xbridge/vec"
)

// Expected is the value every well-formed test payload carries.
const Expected = 2020

// Shared is the plain struct both sides agree on.
type Shared struct {
	Z uint
}

// SharedElem lays Shared out as a sequence element.
var SharedElem vec.Elem[Shared] = vec.NewRecord(
	vec.FieldOf("z", vec.Usize,
		func(s *Shared) uint { return s.Z },
		func(s *Shared, z uint) { s.Z = z }),
)

// C is the native test object: one uint32 on the native heap, destroyed by
// its owning Unique.
type C struct {
	heap xbridge.Heap
	addr uint32
}

const cSize = 4

func newC(h xbridge.Heap, n uint32) (*marshal.Unique[C], error) {
	addr, err := h.Alloc(cSize, cSize)
	if err != nil {
		return nil, err
	}
	if err := h.WriteU32(addr, n); err != nil {
		h.Free(addr, cSize, cSize)
		return nil, err
	}
	return marshal.NewUnique(&C{heap: h, addr: addr}, destroyC), nil
}

func destroyC(c *C) {
	c.heap.Free(c.addr, cSize, cSize)
}

// Get reads the stored value.
func (c *C) Get() uint32 {
	v, err := c.heap.ReadU32(c.addr)
	if err != nil {
		errors.Violation(errors.PhaseConform, "C at 0x%x unreadable: %v", c.addr, err)
	}
	return v
}
