package heap

import (
	"encoding/binary"
	"fmt"

	"github.com/wippyai/xbridge"
)

// DefaultMaxPages bounds an arena when no limit is configured (1 GiB).
const DefaultMaxPages = 16384

// Arena is an in-process linear memory with the same page and bounds
// semantics as a WebAssembly memory. Slices returned by Read alias the
// arena and are invalidated by Grow.
type Arena struct {
	data     []byte
	maxPages uint32
}

var _ xbridge.Growable = (*Arena)(nil)

// NewArena creates an arena of initialPages pages that may grow to maxPages.
// maxPages 0 means DefaultMaxPages.
func NewArena(initialPages, maxPages uint32) *Arena {
	if maxPages == 0 || maxPages > DefaultMaxPages {
		maxPages = DefaultMaxPages
	}
	if initialPages > maxPages {
		initialPages = maxPages
	}
	return &Arena{
		data:     make([]byte, int(initialPages)*xbridge.PageSize),
		maxPages: maxPages,
	}
}

func (a *Arena) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(a.data)) {
		return fmt.Errorf("memory access out of bounds: offset=%d, length=%d, size=%d", offset, length, len(a.data))
	}
	return nil
}

// Read returns length bytes at offset.
func (a *Arena) Read(offset uint32, length uint32) ([]byte, error) {
	if err := a.check(offset, length); err != nil {
		return nil, err
	}
	return a.data[offset : offset+length : offset+length], nil
}

// Write copies data to offset.
func (a *Arena) Write(offset uint32, data []byte) error {
	if err := a.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(a.data[offset:], data)
	return nil
}

func (a *Arena) ReadU8(offset uint32) (uint8, error) {
	if err := a.check(offset, 1); err != nil {
		return 0, err
	}
	return a.data[offset], nil
}

func (a *Arena) ReadU16(offset uint32) (uint16, error) {
	if err := a.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(a.data[offset:]), nil
}

func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	if err := a.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(a.data[offset:]), nil
}

func (a *Arena) ReadU64(offset uint32) (uint64, error) {
	if err := a.check(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(a.data[offset:]), nil
}

func (a *Arena) WriteU8(offset uint32, value uint8) error {
	if err := a.check(offset, 1); err != nil {
		return err
	}
	a.data[offset] = value
	return nil
}

func (a *Arena) WriteU16(offset uint32, value uint16) error {
	if err := a.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(a.data[offset:], value)
	return nil
}

func (a *Arena) WriteU32(offset uint32, value uint32) error {
	if err := a.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a.data[offset:], value)
	return nil
}

func (a *Arena) WriteU64(offset uint32, value uint64) error {
	if err := a.check(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(a.data[offset:], value)
	return nil
}

// Size returns the current size in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.data))
}

// Grow extends the arena by deltaPages and returns the previous page count.
func (a *Arena) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(a.data) / xbridge.PageSize)
	if uint64(prev)+uint64(deltaPages) > uint64(a.maxPages) {
		return prev, false
	}
	if deltaPages == 0 {
		return prev, true
	}
	grown := make([]byte, len(a.data)+int(deltaPages)*xbridge.PageSize)
	copy(grown, a.data)
	a.data = grown
	return prev, true
}
