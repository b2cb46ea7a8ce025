// Package xbridge moves owned values between Go and a native linear-memory heap.
//
// Go is the managed side: its values are garbage collected and the bridge
// types track custody explicitly. The native side is a linear memory (a
// WebAssembly memory hosted by wazero, or an in-process arena) with its own
// allocator. Both sides share one process image, so custody, not address
// space, decides who frees a buffer.
//
// # Architecture Overview
//
//	xbridge/             Root package with Memory, Allocator and Heap interfaces
//	├── atom/            Scalar type registry with native and managed spellings
//	├── vec/             Growable native arrays and the owned sequence descriptor
//	├── heap/            Arena and wazero memories, free-list and tracking allocators
//	├── marshal/         Per-category marshaling rules, results, strings, boxes, handles
//	├── resource/        Handle table backing boxes and managed strings
//	├── conformance/     Bilateral conformance suite (native and managed drivers)
//	├── errors/          Structured error types and contract violations
//	└── cmd/bridgecheck  CLI that runs the suite and prints generated declarations
//
// # Quick Start
//
// Hand a native array to the other side and get it back exactly once:
//
//	h := heap.New(heap.NewArena(1, 0))
//	v, err := vec.From(h, vec.U8, 86, 75, 30, 9)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	raw := vec.HandOff(v) // v is disarmed
//	defer raw.Drop()      // frees at most once
//
//	var out []uint8
//	if err := raw.CopyInto(&out); err != nil {
//	    log.Fatal(err)
//	}
//
// # Custody
//
// Every buffer has exactly one owner. Consuming operations (HandOff,
// IntoOwned, Lower, Release, Take) disarm the source; using a disarmed value
// panics with a contract violation instead of corrupting memory.
//
// # Thread Safety
//
// Bridge values are single-owner and NOT safe for concurrent use. Complete a
// transfer (IntoOwned or CopyInto) before handing data to another goroutine.
package xbridge
