package marshal

import (
	"unicode/utf8"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

// Str is a borrowed view of UTF-8 bytes in native memory. It owns nothing
// and must not be kept past the call that received it.
type Str struct {
	mem xbridge.Memory
	ptr uint32
	len uint32
}

// NewStr borrows n bytes at ptr after checking that they are in bounds and
// valid UTF-8.
func NewStr(mem xbridge.Memory, ptr, n uint32) (Str, error) {
	if n == 0 {
		return Str{mem: mem}, nil
	}
	data, err := mem.Read(ptr, n)
	if err != nil {
		return Str{}, errors.MemoryAccess(errors.PhaseDecode, ptr, n, err)
	}
	if !utf8.Valid(data) {
		return Str{}, errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return Str{mem: mem, ptr: ptr, len: n}, nil
}

func (s Str) Len() int {
	return int(s.len)
}

// Ptr returns the address of the first byte.
func (s Str) Ptr() uint32 {
	return s.ptr
}

// Bytes copies the viewed bytes.
func (s Str) Bytes() []byte {
	if s.len == 0 {
		return []byte{}
	}
	data, err := s.mem.Read(s.ptr, s.len)
	if err != nil {
		// bounds were checked by NewStr and linear memory never shrinks
		violation("borrowed str at 0x%x no longer readable: %v", s.ptr, err)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// String copies the view into a Go string.
func (s Str) String() string {
	return string(s.Bytes())
}
