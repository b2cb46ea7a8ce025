package heap

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	for _, backend := range []Backend{"", BackendArena, BackendWazero} {
		t.Run(backendName(backend), func(t *testing.T) {
			h, err := Open(ctx, &Config{Backend: backend, InitialPages: 1, MemoryLimitPages: 4})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer h.Close(ctx)

			ptr, err := h.Alloc(2*xbridge.PageSize, 8)
			if err != nil {
				t.Fatalf("Alloc: %v", err)
			}
			if err := h.WriteU32(ptr+2*xbridge.PageSize-4, 2020); err != nil {
				t.Fatalf("write at end of grown block: %v", err)
			}
			v, err := h.ReadU32(ptr + 2*xbridge.PageSize - 4)
			if err != nil || v != 2020 {
				t.Fatalf("ReadU32 = %d, %v", v, err)
			}
			h.Free(ptr, 2*xbridge.PageSize, 8)
			if h.Live() != 0 {
				t.Errorf("Live = %d after free", h.Live())
			}

			if _, err := h.Alloc(8*xbridge.PageSize, 8); err == nil {
				t.Error("allocation past the page limit should fail")
			}
		})
	}
}

func TestOpen_Defaults(t *testing.T) {
	h, err := Open(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Size() != xbridge.PageSize {
		t.Errorf("Size = %d, want one page", h.Size())
	}
	if h.Tracker() != nil {
		t.Error("tracking should be off by default")
	}
	if err := h.Close(context.Background()); err != nil {
		t.Error(err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &Config{Backend: "mmap"})
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if e.Phase != errors.PhaseConfigure || e.Kind != errors.KindInvalidInput {
		t.Errorf("got [%s] %s", e.Phase, e.Kind)
	}
}

func TestNewWazero_InitialAboveLimit(t *testing.T) {
	if _, err := NewWazero(context.Background(), 4, 2); err == nil {
		t.Error("initial pages above the limit should fail")
	}
}

func TestTracking(t *testing.T) {
	h, err := Open(context.Background(), &Config{Track: true})
	if err != nil {
		t.Fatal(err)
	}
	tr := h.Tracker()
	if tr == nil || h.Track() != tr {
		t.Fatal("Track should install one recorder")
	}

	a, _ := h.Alloc(8, 4)
	b, _ := h.Alloc(8, 4)
	moved, err := h.Realloc(a, 8, 4, 128)
	if err != nil {
		t.Fatal(err)
	}
	h.Free(b, 8, 4)
	h.Free(moved, 128, 4)

	if got := tr.Allocs(); got != 2 {
		t.Errorf("Allocs = %d, want 2", got)
	}
	if got := tr.Frees(a); got != 1 {
		t.Errorf("Frees(a) = %d, want 1 (moved by realloc)", got)
	}
	if got := tr.Frees(moved); got != 1 {
		t.Errorf("Frees(moved) = %d, want 1", got)
	}
	if tr.Live() != 0 {
		t.Errorf("Live = %d", tr.Live())
	}

	ops := make([]Op, 0, 5)
	for _, e := range tr.Events() {
		ops = append(ops, e.Op)
	}
	want := []Op{OpAlloc, OpAlloc, OpRealloc, OpFree, OpFree}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}

	expectViolation(t, errors.KindDoubleFree, func() { h.Free(b, 8, 4) })
	if got := tr.Frees(b); got != 2 {
		t.Errorf("double free should still be recorded, Frees(b) = %d", got)
	}

	tr.Reset()
	if len(tr.Events()) != 0 || tr.Frees(b) != 0 {
		t.Error("Reset should forget events")
	}
}

func TestMemoryModule(t *testing.T) {
	got := memoryModule(1)
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("module bytes (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]byte{0x80, 0x01}, uleb128(128)); diff != "" {
		t.Errorf("uleb128(128) (-want +got):\n%s", diff)
	}
}
