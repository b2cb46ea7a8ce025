// Package heap provides the native side's linear memory and allocator.
//
// Two memories are available: Arena, a byte slice with WebAssembly page
// semantics, and Wazero, a real linear memory exported by a code-free module
// running in a wazero runtime. Either is paired with FreeList, a first-fit
// allocator that refuses to release a block twice:
//
//	h, err := heap.Open(ctx, &heap.Config{Backend: heap.BackendWazero})
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//
//	ptr, err := h.Alloc(16, 4)
//	...
//	h.Free(ptr, 16, 4)
//
// Tracking records allocator traffic; tests use it to count how many times
// a block was released.
package heap
