// Package atom is the registry of scalar types that are represented
// identically on both sides of the bridge.
//
// Every Atom has exactly one managed (Go) spelling, which is also the token
// used in bridge definitions, and exactly one native spelling, which a
// generator must emit verbatim into native declarations:
//
//	Atom           Managed        Native               WIT carrier
//	────────────────────────────────────────────────────────────────
//	Bool           bool           bool                 bool
//	U8             uint8          uint8_t              u8
//	U16            uint16         uint16_t             u16
//	U32            uint32         uint32_t             u32
//	U64            uint64         uint64_t             u64
//	Usize          uint           size_t               u32
//	I8             int8           int8_t               s8
//	I16            int16          int16_t              s16
//	I32            int32          int32_t              s32
//	I64            int64          int64_t              s64
//	Isize          int            ssize_t              s32
//	NativeString   NativeString   xb_string            string
//	ManagedString  string         xb_managed_string    string
//
// Classify is the only way a generator may decide whether a token is a
// built-in scalar. Tokens it does not recognize are user-defined struct,
// opaque or vector element types and are resolved elsewhere.
//
// Both spelling tables are fixed-size arrays indexed by Atom and pinned to
// the enumeration size; the package tests fail if any atom lacks either
// spelling or if two atoms share one.
package atom
