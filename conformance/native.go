package conformance

import (
	stderrors "errors"
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/marshal"
	"github.com/wippyai/xbridge/vec"
)

// Native is the native test library. Each method is one c_* symbol: the
// Return family hands values to the caller, the Try family is fallible, and
// the Take family receives a value, checks it, and raises the session flag.
type Native struct {
	s *Session
}

// ReturnPrimitive is c_return_primitive.
func (n *Native) ReturnPrimitive() uint {
	return Expected
}

func (n *Native) ReturnShared() Shared {
	return Shared{Z: Expected}
}

// ReturnBox asks the managed side for a box and passes it on.
func (n *Native) ReturnBox() (marshal.Box[uint], error) {
	return n.s.newBox()
}

func (n *Native) ReturnUniquePtr() (*marshal.Unique[C], error) {
	return newC(n.s.Heap, Expected)
}

// ReturnRef returns a reference into the caller's struct.
func (n *Native) ReturnRef(shared *Shared) *uint {
	return &shared.Z
}

// ReturnStr returns a view of static native storage.
func (n *Native) ReturnStr(*Shared) marshal.Str {
	return n.s.str
}

func (n *Native) ReturnManagedString() (marshal.ManagedString, error) {
	return n.s.Strings.New("2020")
}

func (n *Native) ReturnUniquePtrString() (*marshal.Unique[marshal.NativeString], error) {
	return n.uniqueString("2020")
}

func (n *Native) ReturnUniquePtrVectorU8() (*marshal.Unique[vec.RawVec[uint8]], error) {
	return returnSeq(n, vec.U8, 86, 75, 30, 9)
}

func (n *Native) ReturnUniquePtrVectorF64() (*marshal.Unique[vec.RawVec[float64]], error) {
	return returnSeq(n, vec.F64, 86, 75, 30, 9.5)
}

func (n *Native) ReturnUniquePtrVectorShared() (*marshal.Unique[vec.RawVec[Shared]], error) {
	return returnSeq(n, SharedElem, Shared{Z: 1010}, Shared{Z: 1011})
}

// returnSeq builds a vector on the native heap and hands it across.
func returnSeq[T any](n *Native, elem vec.Elem[T], items ...T) (*marshal.Unique[vec.RawVec[T]], error) {
	v, err := vec.From(n.s.Heap, elem, items...)
	if err != nil {
		return nil, err
	}
	return marshal.UniqueSeq(vec.HandOff(v)), nil
}

func (n *Native) uniqueString(text string) (*marshal.Unique[marshal.NativeString], error) {
	s, err := marshal.NewNativeString(n.s.Heap, text)
	if err != nil {
		return nil, err
	}
	return marshal.UniqueString(s), nil
}

func (n *Native) TryReturnVoid() marshal.Result[marshal.Unit] {
	return marshal.TryUnit(func() error { return nil })
}

func (n *Native) TryReturnPrimitive() marshal.Result[uint] {
	return marshal.Try(func() (uint, error) { return Expected, nil })
}

// FailReturnPrimitive throws "logic error".
func (n *Native) FailReturnPrimitive() marshal.Result[uint] {
	return marshal.Try(func() (uint, error) {
		marshal.Throw("logic error")
		return 0, nil
	})
}

func (n *Native) TryReturnString() marshal.Result[*marshal.Unique[marshal.NativeString]] {
	return marshal.Try(func() (*marshal.Unique[marshal.NativeString], error) {
		return n.uniqueString("ok")
	})
}

// FailReturnString reports "logic error getting string" as a returned error.
func (n *Native) FailReturnString() marshal.Result[*marshal.Unique[marshal.NativeString]] {
	return marshal.Try(func() (*marshal.Unique[marshal.NativeString], error) {
		return nil, stderrors.New("logic error getting string")
	})
}

func (n *Native) TryReturnBox() marshal.Result[marshal.Box[uint]] {
	return marshal.Try(n.s.newBox)
}

// TryReturnRef hands back the string it was lent.
func (n *Native) TryReturnRef(s marshal.ManagedString) marshal.Result[marshal.ManagedString] {
	return marshal.Try(func() (marshal.ManagedString, error) {
		n.s.Strings.Read(s)
		return s, nil
	})
}

func (n *Native) TryReturnStr(s marshal.Str) marshal.Result[marshal.Str] {
	return marshal.Try(func() (marshal.Str, error) { return s, nil })
}

func (n *Native) TryReturnManagedString() marshal.Result[marshal.ManagedString] {
	return marshal.Try(n.ReturnManagedString)
}

func (n *Native) TryReturnUniquePtrString() marshal.Result[*marshal.Unique[marshal.NativeString]] {
	return marshal.Try(n.ReturnUniquePtrString)
}

func (n *Native) TakePrimitive(v uint) {
	if v == Expected {
		n.s.SetCorrect()
	}
}

func (n *Native) TakeShared(shared Shared) {
	if shared.Z == Expected {
		n.s.SetCorrect()
	}
}

// TakeBox consumes b.
func (n *Native) TakeBox(b marshal.Box[uint]) {
	if n.s.BoxIsCorrect(b.Handle()) {
		n.s.SetCorrect()
	}
	n.s.Boxes.Drop(b)
}

func (n *Native) TakeRefC(c *C) {
	if c.Get() == Expected {
		n.s.SetCorrect()
	}
}

// TakeUniquePtr consumes u.
func (n *Native) TakeUniquePtr(u *marshal.Unique[C]) {
	defer u.Drop()
	if u.Get().Get() == Expected {
		n.s.SetCorrect()
	}
}

func (n *Native) TakeStr(s marshal.Str) {
	if s.String() == "2020" {
		n.s.SetCorrect()
	}
}

// TakeManagedString consumes s.
func (n *Native) TakeManagedString(s marshal.ManagedString) {
	if n.s.Strings.Take(s) == "2020" {
		n.s.SetCorrect()
	}
}

func (n *Native) TakeUniquePtrString(u *marshal.Unique[marshal.NativeString]) {
	defer u.Drop()
	if u.Get().String() == "2020" {
		n.s.SetCorrect()
	}
}

// TakeUniquePtrVectorU8 reads in place and lets the descriptor free the
// storage.
func (n *Native) TakeUniquePtrVectorU8(u *marshal.Unique[vec.RawVec[uint8]]) {
	raw := u.Release()
	defer raw.Drop()

	var sum uint
	err := raw.View().Each(func(_ int, x uint8) error {
		sum += uint(x)
		return nil
	})
	if n.readOK("c_take_unique_ptr_vector_u8", err) && raw.Len() == 4 && sum == 200 {
		n.s.SetCorrect()
	}
}

// TakeUniquePtrVectorF64 copies out, then drops.
func (n *Native) TakeUniquePtrVectorF64(u *marshal.Unique[vec.RawVec[float64]]) {
	raw := u.Release()
	defer raw.Drop()

	var items []float64
	err := raw.CopyInto(&items)
	var sum float64
	for _, x := range items {
		sum += x
	}
	if n.readOK("c_take_unique_ptr_vector_f64", err) && len(items) == 4 && math.Abs(sum-200.5) < 1e-9 {
		n.s.SetCorrect()
	}
}

// TakeUniquePtrVectorShared takes the vector back into native ownership.
func (n *Native) TakeUniquePtrVectorShared(u *marshal.Unique[vec.RawVec[Shared]]) {
	owned := u.Release().IntoOwned()
	defer owned.Drop()

	items, err := owned.Items()
	var sum uint
	for _, s := range items {
		sum += s.Z
	}
	if n.readOK("c_take_unique_ptr_vector_shared", err) && len(items) == 2 && sum == 2021 {
		n.s.SetCorrect()
	}
}

// TakeVecU8 reads a borrowed sequence.
func (n *Native) TakeVecU8(v vec.View[uint8]) {
	data, err := vec.Bytes(v)
	var sum uint
	for _, b := range data {
		sum += uint(b)
	}
	if n.readOK("c_take_vec_u8", err) && len(data) == 4 && sum == 200 {
		n.s.SetCorrect()
	}
}

func (n *Native) TakeVecShared(v vec.View[Shared]) {
	var sum uint
	err := v.Each(func(_ int, s Shared) error {
		sum += s.Z
		return nil
	})
	if n.readOK("c_take_vec_shared", err) && v.Len() == 2 && sum == 2021 {
		n.s.SetCorrect()
	}
}

func (n *Native) readOK(symbol string, err error) bool {
	if err != nil {
		n.s.log.Debug("read failed", zap.String("symbol", symbol), zap.Error(err))
		return false
	}
	return true
}
