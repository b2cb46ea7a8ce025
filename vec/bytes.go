package vec

import (
	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

// FromBytes builds a byte vector with one bulk write.
func FromBytes(h xbridge.Heap, data []byte) (*Vec[uint8], error) {
	v, err := WithCapacity(h, U8, len(data))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return v, nil
	}
	if err := h.Write(v.ptr, data); err != nil {
		v.Drop()
		return nil, errors.MemoryAccess(errors.PhaseEncode, v.ptr, uint32(len(data)), err)
	}
	v.len = uint32(len(data))
	return v, nil
}

// AppendBytes appends data to a byte vector.
func AppendBytes(v *Vec[uint8], data []byte) error {
	if err := v.Reserve(len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	at := v.addr(v.len)
	if err := v.heap.Write(at, data); err != nil {
		return errors.MemoryAccess(errors.PhaseEncode, at, uint32(len(data)), err)
	}
	v.len += uint32(len(data))
	return nil
}
