// Package layout computes native memory layouts for bridged values.
//
// Sizes and alignments follow the Canonical ABI rules for WIT types, which is
// also how a C compiler lays out the equivalent wasm32 structs:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records and tuples: fields laid out sequentially with padding
//   - Strings and borrowed lists: (pointer, length) pair
//   - Owned sequence descriptors: (pointer, length, capacity) triple
//
// # Usage
//
//	info := layout.NewCalculator().Calculate(witType)
//	// info.Size, info.Align, info.Offsets available
package layout
