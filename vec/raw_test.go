package vec

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/xbridge/errors"
)

func TestRawVec_CopyIntoKeepsCustody(t *testing.T) {
	h, tr := newHeap(t)
	v, err := From(h, U8, 86, 75, 30, 9)
	if err != nil {
		t.Fatal(err)
	}
	raw := HandOff(v)
	ptr := raw.View().Ptr()

	if raw.Len() != 4 {
		t.Errorf("Len = %d, want 4", raw.Len())
	}

	out := []uint8{1}
	if err := raw.CopyInto(&out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]uint8{1, 86, 75, 30, 9}, out); diff != "" {
		t.Errorf("copy (-want +got):\n%s", diff)
	}
	if tr.Frees(ptr) != 0 {
		t.Fatal("CopyInto must not free")
	}

	// The copy is independent of native memory.
	_ = h.WriteU8(ptr, 0)
	if out[1] != 86 {
		t.Error("copied slice aliases native memory")
	}

	var again []uint8
	if err := raw.CopyInto(&again); err != nil {
		t.Fatal(err)
	}
	if len(again) != 4 {
		t.Errorf("second copy len = %d", len(again))
	}

	raw.Drop()
	raw.Drop()
	if tr.Frees(ptr) != 1 {
		t.Errorf("Frees = %d, want exactly 1", tr.Frees(ptr))
	}
	if h.Live() != 0 {
		t.Errorf("Live = %d", h.Live())
	}
}

func TestRawVec_CopyIntoLeavesDstOnError(t *testing.T) {
	h, _ := newHeap(t)
	v, err := From(h, Bool, true, true, false)
	if err != nil {
		t.Fatal(err)
	}
	raw := HandOff(v)
	defer raw.Drop()
	_ = h.WriteU8(raw.View().Ptr()+1, 7)

	out := make([]bool, 1, 8)
	out[0] = false
	if err := raw.CopyInto(&out); err == nil {
		t.Fatal("corrupt element should fail the copy")
	}
	if diff := cmp.Diff([]bool{false}, out); diff != "" {
		t.Errorf("dst changed on error (-want +got):\n%s", diff)
	}

	var empty []bool
	if err := raw.CopyInto(&empty); err == nil || empty != nil {
		t.Errorf("CopyInto into nil = %v, %v", empty, err)
	}
}

func TestRawVec_IntoOwnedSingleFree(t *testing.T) {
	h, tr := newHeap(t)
	v, _ := From(h, sharedElem, shared{1010}, shared{1011})
	raw := HandOff(v)
	ptr := raw.View().Ptr()

	owned := raw.IntoOwned()
	raw.Drop() // no-op after IntoOwned

	var sum uint
	items, err := owned.Items()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range items {
		sum += s.Z
	}
	if sum != 2021 {
		t.Errorf("sum = %d, want 2021", sum)
	}

	owned.Drop()
	if tr.Frees(ptr) != 1 {
		t.Errorf("Frees = %d, want exactly 1", tr.Frees(ptr))
	}
}

func TestRawVec_CustodyExclusivity(t *testing.T) {
	h, _ := newHeap(t)
	v, _ := From(h, U8, 1, 2)
	raw := HandOff(v)

	expectPanic(t, errors.KindUseAfterConsume, func() { HandOff(v) })
	expectPanic(t, errors.KindUseAfterConsume, func() { _ = v.Push(3) })
	expectPanic(t, errors.KindUseAfterConsume, func() { _, _ = v.Items() })
	v.Drop() // disarmed, no-op

	owned := raw.IntoOwned()
	expectPanic(t, errors.KindUseAfterConsume, func() { raw.IntoOwned() })
	expectPanic(t, errors.KindUseAfterConsume, func() { raw.Len() })
	expectPanic(t, errors.KindUseAfterConsume, func() { _ = raw.CopyInto(new([]uint8)) })
	expectPanic(t, errors.KindUseAfterConsume, func() { raw.Lower() })

	if !owned.Live() || raw.Live() || v.Live() {
		t.Error("only the reconstructed vector should be live")
	}
	owned.Drop()
	if h.Live() != 0 {
		t.Errorf("Live = %d", h.Live())
	}
}

func TestRawVec_LowerLift(t *testing.T) {
	h, tr := newHeap(t)
	v, _ := From(h, U16, 7, 8, 9)
	if err := v.Reserve(5); err != nil {
		t.Fatal(err)
	}
	ptr, n, c := HandOff(v).Lower()
	if n != 3 || c != 8 {
		t.Fatalf("triple = (0x%x,%d,%d)", ptr, n, c)
	}
	if tr.Frees(ptr) != 0 {
		t.Fatal("Lower must not free")
	}

	back := Lift(h, U16, ptr, n, c)
	owned := back.IntoOwned()
	if owned.Cap() != 8 {
		t.Errorf("Cap = %d after lift", owned.Cap())
	}
	if err := owned.Push(10); err != nil {
		t.Fatal(err)
	}
	got, _ := owned.Items()
	if diff := cmp.Diff([]uint16{7, 8, 9, 10}, got); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
	owned.Drop()
	if tr.Frees(ptr) != 1 {
		t.Errorf("Frees = %d", tr.Frees(ptr))
	}
}

func TestLift_Violations(t *testing.T) {
	h, _ := newHeap(t)

	tests := []struct {
		name string
		fn   func()
	}{
		{"len exceeds cap", func() { Lift(h, U8, 64, 5, 4) }},
		{"null with capacity", func() { Lift(h, U8, 0, 0, 4) }},
		{"misaligned", func() { Lift(h, U32, 66, 1, 1) }},
		{"capacity too large", func() { Lift(h, U8, 64, 0, MaxLen+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectPanic(t, errors.KindContractViolation, tt.fn)
		})
	}
}

func TestView(t *testing.T) {
	h, _ := newHeap(t)
	v, _ := From(h, U8, 'h', 'i')
	defer v.Drop()

	view := NewView(h, U8, v.View().Ptr(), 2)
	b, err := Bytes(view)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hi" {
		t.Errorf("Bytes = %q", b)
	}
	if _, err := view.At(2); err == nil {
		t.Error("At past the end should fail")
	}

	empty, err := Bytes(NewView(h, U8, 0, 0))
	if err != nil || len(empty) != 0 {
		t.Errorf("empty view = %v, %v", empty, err)
	}

	expectPanic(t, errors.KindContractViolation, func() { NewView(h, U32, 2, 1) })
}
