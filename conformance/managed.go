package conformance

import (
	stderrors "errors"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/marshal"
)

// Managed is the managed-side library native code calls back into. Each
// method is one r_* symbol. Take methods report a wrong value as an error
// instead of a flag, since native code is the caller.
type Managed interface {
	ReturnPrimitive() uint
	ReturnShared() Shared
	ReturnBox() (marshal.Box[uint], error)
	ReturnUniquePtr() (*marshal.Unique[C], error)
	ReturnRef(shared *Shared) *uint
	ReturnStr(shared *Shared) string
	ReturnManagedString() (marshal.ManagedString, error)
	ReturnUniquePtrString() (*marshal.Unique[marshal.NativeString], error)

	TakePrimitive(n uint) error
	TakeShared(shared Shared) error
	TakeBox(b marshal.Box[uint]) error
	TakeUniquePtr(u *marshal.Unique[C]) error
	TakeRefR(b marshal.Box[uint]) error
	TakeRefC(c *C) error
	TakeStr(s marshal.Str) error
	TakeManagedString(s marshal.ManagedString) error
	TakeUniquePtrString(u *marshal.Unique[marshal.NativeString]) error

	TryReturnVoid() marshal.Result[marshal.Unit]
	TryReturnPrimitive() marshal.Result[uint]
	FailReturnPrimitive() marshal.Result[uint]
}

// ManagedFailure is the message FailReturnPrimitive fails with.
const ManagedFailure = "managed error"

type managedLib struct {
	s *Session
}

var _ Managed = (*managedLib)(nil)

func (m *managedLib) ReturnPrimitive() uint {
	return Expected
}

func (m *managedLib) ReturnShared() Shared {
	return Shared{Z: Expected}
}

func (m *managedLib) ReturnBox() (marshal.Box[uint], error) {
	return m.s.Boxes.New(Expected)
}

// ReturnUniquePtr asks the native side to build the object.
func (m *managedLib) ReturnUniquePtr() (*marshal.Unique[C], error) {
	return m.s.Native.ReturnUniquePtr()
}

func (m *managedLib) ReturnRef(shared *Shared) *uint {
	return &shared.Z
}

func (m *managedLib) ReturnStr(*Shared) string {
	return "2020"
}

func (m *managedLib) ReturnManagedString() (marshal.ManagedString, error) {
	return m.s.Strings.New("2020")
}

func (m *managedLib) ReturnUniquePtrString() (*marshal.Unique[marshal.NativeString], error) {
	return m.s.Native.ReturnUniquePtrString()
}

func (m *managedLib) TakePrimitive(n uint) error {
	return expectEqual("r_take_primitive", n, uint(Expected))
}

func (m *managedLib) TakeShared(shared Shared) error {
	return expectEqual("r_take_shared", shared.Z, uint(Expected))
}

func (m *managedLib) TakeBox(b marshal.Box[uint]) error {
	return expectEqual("r_take_box", m.s.Boxes.Take(b), uint(Expected))
}

func (m *managedLib) TakeUniquePtr(u *marshal.Unique[C]) error {
	defer u.Drop()
	return expectEqual("r_take_unique_ptr", u.Get().Get(), uint32(Expected))
}

func (m *managedLib) TakeRefR(b marshal.Box[uint]) error {
	return expectEqual("r_take_ref_r", m.s.Boxes.Get(b), uint(Expected))
}

func (m *managedLib) TakeRefC(c *C) error {
	return expectEqual("r_take_ref_c", c.Get(), uint32(Expected))
}

func (m *managedLib) TakeStr(s marshal.Str) error {
	return expectEqual("r_take_str", s.String(), "2020")
}

func (m *managedLib) TakeManagedString(s marshal.ManagedString) error {
	return expectEqual("r_take_managed_string", m.s.Strings.Take(s), "2020")
}

func (m *managedLib) TakeUniquePtrString(u *marshal.Unique[marshal.NativeString]) error {
	defer u.Drop()
	return expectEqual("r_take_unique_ptr_string", u.Get().String(), "2020")
}

func (m *managedLib) TryReturnVoid() marshal.Result[marshal.Unit] {
	return marshal.OkUnit()
}

func (m *managedLib) TryReturnPrimitive() marshal.Result[uint] {
	return marshal.Ok[uint](Expected)
}

func (m *managedLib) FailReturnPrimitive() marshal.Result[uint] {
	return marshal.Try(func() (uint, error) {
		return 0, stderrors.New(ManagedFailure)
	})
}

func expectEqual[T comparable](symbol string, got, want T) error {
	if got == want {
		return nil
	}
	return errors.New(errors.PhaseConform, errors.KindAssertion).
		Path(symbol).
		Detail("got %v, want %v", got, want).
		Build()
}
