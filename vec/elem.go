package vec

import (
	"math"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/atom"
	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/internal/layout"
)

// Elem encodes one element type in native memory.
type Elem[T any] interface {
	Size() uint32
	Align() uint32
	// WIT is the canonical-ABI type the layout is derived from.
	WIT() wit.Type
	Load(mem xbridge.Memory, addr uint32) (T, error)
	Store(mem xbridge.Memory, addr uint32, v T) error
}

type scalar[T any] struct {
	name  string
	typ   wit.Type
	size  uint32
	load  func(xbridge.Memory, uint32) (T, error)
	store func(xbridge.Memory, uint32, T) error
}

func (s scalar[T]) Size() uint32   { return s.size }
func (s scalar[T]) Align() uint32  { return s.size }
func (s scalar[T]) WIT() wit.Type  { return s.typ }
func (s scalar[T]) String() string { return s.name }

func (s scalar[T]) Load(mem xbridge.Memory, addr uint32) (T, error) {
	v, err := s.load(mem, addr)
	if err != nil {
		var zero T
		return zero, wrapAccess(errors.PhaseDecode, addr, s.size, err)
	}
	return v, nil
}

func (s scalar[T]) Store(mem xbridge.Memory, addr uint32, v T) error {
	if err := s.store(mem, addr, v); err != nil {
		return wrapAccess(errors.PhaseEncode, addr, s.size, err)
	}
	return nil
}

// wrapAccess keeps structured errors from the codec and wraps raw memory
// faults.
func wrapAccess(phase errors.Phase, addr, size uint32, err error) error {
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return errors.MemoryAccess(phase, addr, size, err)
}

func atomScalar[T any](a atom.Atom, load func(xbridge.Memory, uint32) (T, error), store func(xbridge.Memory, uint32, T) error) scalar[T] {
	size, _ := a.Layout()
	return scalar[T]{name: a.Native(), typ: a.WIT(), size: size, load: load, store: store}
}

// Element codecs for the integer and bool atoms. Usize and Isize are the
// 32-bit wasm32 widths; storing a Go value that does not fit is an overflow.
var (
	Bool Elem[bool] = atomScalar(atom.Bool,
		func(m xbridge.Memory, a uint32) (bool, error) {
			b, err := m.ReadU8(a)
			if err != nil {
				return false, err
			}
			if b > 1 {
				e := errors.InvalidData(errors.PhaseDecode, nil, "bool byte must be 0 or 1")
				e.NativeType, e.Value = "bool", b
				return false, e
			}
			return b == 1, nil
		},
		func(m xbridge.Memory, a uint32, v bool) error {
			var b uint8
			if v {
				b = 1
			}
			return m.WriteU8(a, b)
		})

	U8 Elem[uint8] = atomScalar(atom.U8,
		func(m xbridge.Memory, a uint32) (uint8, error) { return m.ReadU8(a) },
		func(m xbridge.Memory, a uint32, v uint8) error { return m.WriteU8(a, v) })

	U16 Elem[uint16] = atomScalar(atom.U16,
		func(m xbridge.Memory, a uint32) (uint16, error) { return m.ReadU16(a) },
		func(m xbridge.Memory, a uint32, v uint16) error { return m.WriteU16(a, v) })

	U32 Elem[uint32] = atomScalar(atom.U32,
		func(m xbridge.Memory, a uint32) (uint32, error) { return m.ReadU32(a) },
		func(m xbridge.Memory, a uint32, v uint32) error { return m.WriteU32(a, v) })

	U64 Elem[uint64] = atomScalar(atom.U64,
		func(m xbridge.Memory, a uint32) (uint64, error) { return m.ReadU64(a) },
		func(m xbridge.Memory, a uint32, v uint64) error { return m.WriteU64(a, v) })

	Usize Elem[uint] = atomScalar(atom.Usize,
		func(m xbridge.Memory, a uint32) (uint, error) {
			v, err := m.ReadU32(a)
			return uint(v), err
		},
		func(m xbridge.Memory, a uint32, v uint) error {
			if uint64(v) > math.MaxUint32 {
				return errors.Overflow(errors.PhaseEncode, nil, v, "size_t")
			}
			return m.WriteU32(a, uint32(v))
		})

	I8 Elem[int8] = atomScalar(atom.I8,
		func(m xbridge.Memory, a uint32) (int8, error) {
			v, err := m.ReadU8(a)
			return int8(v), err
		},
		func(m xbridge.Memory, a uint32, v int8) error { return m.WriteU8(a, uint8(v)) })

	I16 Elem[int16] = atomScalar(atom.I16,
		func(m xbridge.Memory, a uint32) (int16, error) {
			v, err := m.ReadU16(a)
			return int16(v), err
		},
		func(m xbridge.Memory, a uint32, v int16) error { return m.WriteU16(a, uint16(v)) })

	I32 Elem[int32] = atomScalar(atom.I32,
		func(m xbridge.Memory, a uint32) (int32, error) {
			v, err := m.ReadU32(a)
			return int32(v), err
		},
		func(m xbridge.Memory, a uint32, v int32) error { return m.WriteU32(a, uint32(v)) })

	I64 Elem[int64] = atomScalar(atom.I64,
		func(m xbridge.Memory, a uint32) (int64, error) {
			v, err := m.ReadU64(a)
			return int64(v), err
		},
		func(m xbridge.Memory, a uint32, v int64) error { return m.WriteU64(a, uint64(v)) })

	Isize Elem[int] = atomScalar(atom.Isize,
		func(m xbridge.Memory, a uint32) (int, error) {
			v, err := m.ReadU32(a)
			return int(int32(v)), err
		},
		func(m xbridge.Memory, a uint32, v int) error {
			if int64(v) < math.MinInt32 || int64(v) > math.MaxInt32 {
				return errors.Overflow(errors.PhaseEncode, nil, v, "ssize_t")
			}
			return m.WriteU32(a, uint32(int32(v)))
		})
)

// Float codecs. Floats are not atoms but appear as vector elements.
var (
	F32 Elem[float32] = scalar[float32]{name: "float", typ: wit.F32{}, size: 4,
		load: func(m xbridge.Memory, a uint32) (float32, error) {
			v, err := m.ReadU32(a)
			return math.Float32frombits(v), err
		},
		store: func(m xbridge.Memory, a uint32, v float32) error {
			return m.WriteU32(a, math.Float32bits(v))
		}}

	F64 Elem[float64] = scalar[float64]{name: "double", typ: wit.F64{}, size: 8,
		load: func(m xbridge.Memory, a uint32) (float64, error) {
			v, err := m.ReadU64(a)
			return math.Float64frombits(v), err
		},
		store: func(m xbridge.Memory, a uint32, v float64) error {
			return m.WriteU64(a, math.Float64bits(v))
		}}
)

// Field is one member of a Record. Build it with FieldOf.
type Field[T any] struct {
	Name  string
	typ   wit.Type
	load  func(mem xbridge.Memory, addr uint32, dst *T) error
	store func(mem xbridge.Memory, addr uint32, src *T) error
}

// FieldOf describes a record member stored with elem and reached through
// get and set.
func FieldOf[T, F any](name string, elem Elem[F], get func(*T) F, set func(*T, F)) Field[T] {
	return Field[T]{
		Name: name,
		typ:  elem.WIT(),
		load: func(mem xbridge.Memory, addr uint32, dst *T) error {
			v, err := elem.Load(mem, addr)
			if err != nil {
				return err
			}
			set(dst, v)
			return nil
		},
		store: func(mem xbridge.Memory, addr uint32, src *T) error {
			return elem.Store(mem, addr, get(src))
		},
	}
}

// Record is the codec of a struct stored by value. Field offsets, size and
// alignment follow the canonical-ABI record rules.
type Record[T any] struct {
	fields []Field[T]
	def    *wit.TypeDef
	info   layout.Info
}

var _ Elem[struct{}] = (*Record[struct{}])(nil)

// NewRecord builds a record codec. A record needs at least one field.
func NewRecord[T any](fields ...Field[T]) *Record[T] {
	if len(fields) == 0 {
		errors.Violation(errors.PhaseDeclare, "record has no fields")
	}
	wf := make([]wit.Field, len(fields))
	for i, f := range fields {
		if f.load == nil || f.store == nil {
			errors.Violation(errors.PhaseDeclare, "record field %q was not built with FieldOf", f.Name)
		}
		wf[i] = wit.Field{Name: f.Name, Type: f.typ}
	}
	def := &wit.TypeDef{Kind: &wit.Record{Fields: wf}}
	return &Record[T]{
		fields: fields,
		def:    def,
		info:   layout.NewCalculator().Calculate(def),
	}
}

func (r *Record[T]) Size() uint32  { return r.info.Size }
func (r *Record[T]) Align() uint32 { return r.info.Align }
func (r *Record[T]) WIT() wit.Type { return r.def }

// Offsets returns the byte offset of each field.
func (r *Record[T]) Offsets() []uint32 {
	out := make([]uint32, len(r.info.Offsets))
	copy(out, r.info.Offsets)
	return out
}

func (r *Record[T]) Load(mem xbridge.Memory, addr uint32) (T, error) {
	var v T
	for i, f := range r.fields {
		if err := f.load(mem, addr+r.info.Offsets[i], &v); err != nil {
			return v, withPath(err, f.Name)
		}
	}
	return v, nil
}

func (r *Record[T]) Store(mem xbridge.Memory, addr uint32, v T) error {
	for i, f := range r.fields {
		if err := f.store(mem, addr+r.info.Offsets[i], &v); err != nil {
			return withPath(err, f.Name)
		}
	}
	return nil
}

func withPath(err error, name string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{name}, e.Path...)
	}
	return err
}
