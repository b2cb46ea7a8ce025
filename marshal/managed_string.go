package marshal

import (
	"unicode/utf8"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/resource"
)

// ManagedString is a string owned by the managed side and held by native code
// as an opaque handle (xb_managed_string). Native code reads it through
// ManagedStrings and never frees it itself.
type ManagedString struct {
	h resource.Handle
}

// ManagedStringFromHandle rebuilds a string reference from its handle.
func ManagedStringFromHandle(h uint32) ManagedString {
	return ManagedString{h: resource.Handle(h)}
}

func (s ManagedString) Handle() uint32 {
	return uint32(s.h)
}

// ManagedStrings stores the strings behind ManagedString handles.
type ManagedStrings struct {
	handles[string]
}

func NewManagedStrings(t *resource.Table) *ManagedStrings {
	return &ManagedStrings{handles: newHandles[string](t, resource.KindManagedString, "ManagedString")}
}

// New parks s and returns its handle. s must be valid UTF-8.
func (m *ManagedStrings) New(s string) (ManagedString, error) {
	if !utf8.ValidString(s) {
		return ManagedString{}, errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
	}
	h, err := m.insert(s)
	if err != nil {
		return ManagedString{}, err
	}
	return ManagedString{h: h}, nil
}

// Len returns the length in bytes.
func (m *ManagedStrings) Len(s ManagedString) int {
	return len(m.read(s.h, "Len"))
}

// Read returns the contents without consuming the handle.
func (m *ManagedStrings) Read(s ManagedString) string {
	return m.read(s.h, "Read")
}

// Take consumes the handle and returns the string.
func (m *ManagedStrings) Take(s ManagedString) string {
	return m.take(s.h, "Take")
}

// Drop consumes the handle.
func (m *ManagedStrings) Drop(s ManagedString) {
	m.drop(s.h, "Drop")
}

func (m *ManagedStrings) Live(s ManagedString) bool {
	return m.live(s.h)
}
