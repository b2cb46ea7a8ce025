package abi

import (
	"math"
	"reflect"
)

func SafeMulU32(a, b uint32) (uint32, bool) {
	if b != 0 && a > math.MaxUint32/b {
		return 0, false
	}
	return a * b, true
}

func SafeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// IsAligned reports whether addr is a multiple of align (a power of two).
func IsAligned(addr, align uint32) bool {
	if align <= 1 {
		return true
	}
	return addr&(align-1) == 0
}

const (
	MaxStringSize = 1 << 30 // 1 GB max string size
	MaxListLength = 1 << 27 // 128M max elements
	MaxAlloc      = 1 << 30 // 1 GB max single allocation
)

// ByteSize returns count*elemSize, failing on overflow or when the result
// exceeds MaxAlloc.
func ByteSize(count, elemSize uint32) (uint32, bool) {
	n, ok := SafeMulU32(count, elemSize)
	if !ok || n > MaxAlloc {
		return 0, false
	}
	return n, true
}
