package heap

import (
	"testing"

	"github.com/wippyai/xbridge"
)

func TestArena_ReadWrite(t *testing.T) {
	a := NewArena(1, 2)

	if err := a.WriteU32(8, 0xdeadbeef); err != nil {
		t.Fatalf("WriteU32: %v", err)
	}
	v, err := a.ReadU32(8)
	if err != nil {
		t.Fatalf("ReadU32: %v", err)
	}
	if v != 0xdeadbeef {
		t.Errorf("ReadU32 = 0x%x, want 0xdeadbeef", v)
	}

	b, err := a.Read(8, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if b[0] != 0xef || b[3] != 0xde {
		t.Errorf("not little-endian: %x", b)
	}

	if err := a.WriteU64(16, 1<<40); err != nil {
		t.Fatal(err)
	}
	if got, _ := a.ReadU64(16); got != 1<<40 {
		t.Errorf("ReadU64 = %d", got)
	}
	if err := a.WriteU16(32, 0xbeef); err != nil {
		t.Fatal(err)
	}
	if got, _ := a.ReadU16(32); got != 0xbeef {
		t.Errorf("ReadU16 = 0x%x", got)
	}
	if err := a.WriteU8(40, 7); err != nil {
		t.Fatal(err)
	}
	if got, _ := a.ReadU8(40); got != 7 {
		t.Errorf("ReadU8 = %d", got)
	}
}

func TestArena_Bounds(t *testing.T) {
	a := NewArena(1, 1)

	if _, err := a.Read(xbridge.PageSize-2, 4); err == nil {
		t.Error("read past end should fail")
	}
	if err := a.WriteU32(xbridge.PageSize-2, 1); err == nil {
		t.Error("write past end should fail")
	}
	if _, err := a.ReadU64(^uint32(0)); err == nil {
		t.Error("offset overflow should fail")
	}
	if _, err := a.Read(xbridge.PageSize, 0); err != nil {
		t.Errorf("empty read at end should succeed: %v", err)
	}
}

func TestArena_Grow(t *testing.T) {
	a := NewArena(1, 3)
	if err := a.WriteU8(100, 42); err != nil {
		t.Fatal(err)
	}

	prev, ok := a.Grow(2)
	if !ok || prev != 1 {
		t.Fatalf("Grow(2) = %d, %v; want 1, true", prev, ok)
	}
	if a.Size() != 3*xbridge.PageSize {
		t.Errorf("Size = %d", a.Size())
	}
	if v, _ := a.ReadU8(100); v != 42 {
		t.Error("grow lost contents")
	}
	if _, ok := a.Grow(1); ok {
		t.Error("grow past limit should fail")
	}
}
