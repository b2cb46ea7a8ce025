// Package vec moves growable arrays across the bridge without copying them.
//
// A Vec lives on the native heap. HandOff turns it into a RawVec, the
// (ptr, len, cap) descriptor that carries custody of the storage to the
// managed side:
//
//	v, _ := vec.From(h, vec.U8, 86, 75, 30, 9)
//	raw := vec.HandOff(v) // v is disarmed
//
//	var out []uint8
//	_ = raw.CopyInto(&out) // copy; raw still owns the storage
//	raw.Drop()             // the one and only free
//
// Custody ends in exactly one of three ways: IntoOwned rebuilds the owning
// Vec, Lower exports the triple to foreign code, and Drop frees the storage.
// Using a descriptor or a handed-off Vec after that panics with a
// use_after_consume error. Drop alone is idempotent.
//
// Elements are encoded by an Elem codec. Codecs exist for every integer and
// bool atom, for floats, and for records built with NewRecord:
//
//	type Shared struct{ Z uint }
//	var SharedElem = vec.NewRecord(
//		vec.FieldOf("z", vec.Usize,
//			func(s *Shared) uint { return s.Z },
//			func(s *Shared, z uint) { s.Z = z }),
//	)
package vec
