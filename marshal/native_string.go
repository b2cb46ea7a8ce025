package marshal

import (
	"unicode/utf8"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/vec"
)

// NativeString is an owned UTF-8 string on the native heap (xb_string). It is
// a byte vector underneath, so custody moves with the same hand-off rules.
type NativeString struct {
	v *vec.Vec[uint8]
}

// NewNativeString copies s onto the native heap.
func NewNativeString(h xbridge.Heap, s string) (*NativeString, error) {
	v, err := vec.FromBytes(h, []byte(s))
	if err != nil {
		return nil, err
	}
	return &NativeString{v: v}, nil
}

// AdoptNativeString takes ownership of a byte vector holding UTF-8. On error
// the vector is left untouched.
func AdoptNativeString(v *vec.Vec[uint8]) (*NativeString, error) {
	data, err := vec.Bytes(v.View())
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return &NativeString{v: v}, nil
}

// LiftNativeString rebuilds a string from a descriptor received across the
// bridge. The descriptor is consumed on success.
func LiftNativeString(raw *vec.RawVec[uint8]) (*NativeString, error) {
	data, err := vec.Bytes(raw.View())
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	return &NativeString{v: raw.IntoOwned()}, nil
}

// Len returns the length in bytes.
func (s *NativeString) Len() int {
	return s.v.Len()
}

// String copies the contents into a Go string.
func (s *NativeString) String() string {
	data, err := vec.Bytes(s.v.View())
	if err != nil {
		violation("native string unreadable: %v", err)
	}
	return string(data)
}

// Str borrows the contents.
func (s *NativeString) Str() Str {
	view := s.v.View()
	return Str{mem: s.v.Heap(), ptr: view.Ptr(), len: uint32(view.Len())}
}

// Push appends more text.
func (s *NativeString) Push(text string) error {
	return vec.AppendBytes(s.v, []byte(text))
}

// Release hands the storage off as a descriptor. The string is consumed.
func (s *NativeString) Release() *vec.RawVec[uint8] {
	return vec.HandOff(s.v)
}

// Drop frees the storage unless it was released. Dropping twice is a no-op.
func (s *NativeString) Drop() {
	s.v.Drop()
}

// Live reports whether the string still owns its storage.
func (s *NativeString) Live() bool {
	return s.v.Live()
}
