package atom

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/xbridge/errors"
)

// Atom is one of the fixed built-in scalar kinds shared by both sides.
type Atom uint8

const (
	Bool Atom = iota
	U8
	U16
	U32
	U64
	Usize
	I8
	I16
	I32
	I64
	Isize
	NativeString
	ManagedString

	count // number of atoms; keep last
)

var managedNames = [count]string{
	Bool:          "bool",
	U8:            "uint8",
	U16:           "uint16",
	U32:           "uint32",
	U64:           "uint64",
	Usize:         "uint",
	I8:            "int8",
	I16:           "int16",
	I32:           "int32",
	I64:           "int64",
	Isize:         "int",
	NativeString:  "NativeString",
	ManagedString: "string",
}

var nativeNames = [count]string{
	Bool:          "bool",
	U8:            "uint8_t",
	U16:           "uint16_t",
	U32:           "uint32_t",
	U64:           "uint64_t",
	Usize:         "size_t",
	I8:            "int8_t",
	I16:           "int16_t",
	I32:           "int32_t",
	I64:           "int64_t",
	Isize:         "ssize_t",
	NativeString:  "xb_string",
	ManagedString: "xb_managed_string",
}

// byToken is built from managedNames so the two can never disagree.
var byToken = func() map[string]Atom {
	m := make(map[string]Atom, count)
	for a, name := range managedNames {
		m[name] = Atom(a)
	}
	return m
}()

// Classify returns the atom named by a bridge-definition token.
// It reports false for anything that is not a built-in scalar.
func Classify(name string) (Atom, bool) {
	a, ok := byToken[name]
	return a, ok
}

// All returns every atom in declaration order.
func All() []Atom {
	out := make([]Atom, count)
	for i := range out {
		out[i] = Atom(i)
	}
	return out
}

// Valid reports whether a is one of the enumerated atoms.
func (a Atom) Valid() bool {
	return a < count
}

func (a Atom) String() string {
	if a.Valid() {
		return managedNames[a]
	}
	return "unknown"
}

// Managed returns the Go spelling, which is also the bridge-definition token.
func (a Atom) Managed() string {
	a.mustValid()
	return managedNames[a]
}

// Native returns the spelling a generator emits in native declarations.
func (a Atom) Native() string {
	a.mustValid()
	return nativeNames[a]
}

// NativeSpelling is Native as a free function, for generator tables.
func NativeSpelling(a Atom) string {
	return a.Native()
}

// IsString reports whether a is one of the two string markers.
func (a Atom) IsString() bool {
	return a == NativeString || a == ManagedString
}

// IsInteger reports whether a is a fixed or pointer-width integer.
func (a Atom) IsInteger() bool {
	return a >= U8 && a <= Isize
}

// Signed reports whether a is a signed integer.
func (a Atom) Signed() bool {
	return a >= I8 && a <= Isize
}

// WIT returns the canonical-ABI carrier type for a on wasm32, where the
// pointer-width atoms are 32 bits wide. Distinct atoms may share a carrier.
func (a Atom) WIT() wit.Type {
	switch a {
	case Bool:
		return wit.Bool{}
	case U8:
		return wit.U8{}
	case U16:
		return wit.U16{}
	case U32, Usize:
		return wit.U32{}
	case U64:
		return wit.U64{}
	case I8:
		return wit.S8{}
	case I16:
		return wit.S16{}
	case I32, Isize:
		return wit.S32{}
	case I64:
		return wit.S64{}
	case NativeString, ManagedString:
		return wit.String{}
	}
	a.mustValid()
	return nil
}

// Layout returns the size and alignment of a in native memory.
// Strings are a (ptr, len) pair.
func (a Atom) Layout() (size, align uint32) {
	switch a {
	case Bool, U8, I8:
		return 1, 1
	case U16, I16:
		return 2, 2
	case U32, I32, Usize, Isize:
		return 4, 4
	case U64, I64:
		return 8, 8
	case NativeString, ManagedString:
		return 8, 4
	}
	a.mustValid()
	return 0, 0
}

func (a Atom) mustValid() {
	if !a.Valid() {
		errors.New(errors.PhaseRegistry, errors.KindContractViolation).
			Value(uint8(a)).
			Detail("atom %d is not in the registry", uint8(a)).
			Panic()
	}
}
