package conformance

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/marshal"
)

type step struct {
	expr string
	run  func() (bool, error)
}

// RunTest drives the managed callbacks from the native side. It returns the
// first failure as a message, or "" after raising the session flag.
func (n *Native) RunTest() string {
	for _, st := range n.steps() {
		ok, err := st.run()
		switch {
		case err != nil:
			n.s.log.Debug("run test step failed", zap.String("step", st.expr), zap.Error(err))
			return fmt.Sprintf("%s: %v", st.expr, err)
		case !ok:
			return fmt.Sprintf("Assertion failed: `%s`", st.expr)
		}
	}
	n.s.SetCorrect()
	return ""
}

func (n *Native) steps() []step {
	s := n.s
	r := s.Managed
	shared := Shared{Z: Expected}

	return []step{
		{"r_return_primitive() == 2020", func() (bool, error) {
			return r.ReturnPrimitive() == Expected, nil
		}},
		{"r_return_shared().z == 2020", func() (bool, error) {
			return r.ReturnShared().Z == Expected, nil
		}},
		{"r_is_correct(r_return_box())", func() (bool, error) {
			b, err := r.ReturnBox()
			if err != nil {
				return false, err
			}
			ok := s.BoxIsCorrect(b.Handle())
			s.Boxes.Drop(b)
			return ok, nil
		}},
		{"r_return_unique_ptr()->get() == 2020", func() (bool, error) {
			u, err := r.ReturnUniquePtr()
			if err != nil {
				return false, err
			}
			defer u.Drop()
			return u.Get().Get() == Expected, nil
		}},
		{"r_return_ref(shared) == 2020", func() (bool, error) {
			p := r.ReturnRef(&shared)
			return p == &shared.Z && *p == Expected, nil
		}},
		{`r_return_str(shared) == "2020"`, func() (bool, error) {
			return r.ReturnStr(&shared) == "2020", nil
		}},
		{`r_return_managed_string() == "2020"`, func() (bool, error) {
			ms, err := r.ReturnManagedString()
			if err != nil {
				return false, err
			}
			return s.Strings.Take(ms) == "2020", nil
		}},
		{`*r_return_unique_ptr_string() == "2020"`, func() (bool, error) {
			u, err := r.ReturnUniquePtrString()
			if err != nil {
				return false, err
			}
			defer u.Drop()
			return u.Get().String() == "2020", nil
		}},
		{"r_take_primitive(2020)", func() (bool, error) {
			return true, r.TakePrimitive(Expected)
		}},
		{"r_take_shared(Shared{2020})", func() (bool, error) {
			return true, r.TakeShared(Shared{Z: Expected})
		}},
		{"r_take_box(box)", func() (bool, error) {
			b, err := s.Boxes.New(Expected)
			if err != nil {
				return false, err
			}
			return true, r.TakeBox(b)
		}},
		{"r_take_ref_r(*box)", func() (bool, error) {
			b, err := s.Boxes.New(Expected)
			if err != nil {
				return false, err
			}
			defer s.Boxes.Drop(b)
			return true, r.TakeRefR(b)
		}},
		{"r_take_unique_ptr(new C{2020})", func() (bool, error) {
			u, err := newC(s.Heap, Expected)
			if err != nil {
				return false, err
			}
			return true, r.TakeUniquePtr(u)
		}},
		{"r_take_ref_c(C{2020})", func() (bool, error) {
			u, err := newC(s.Heap, Expected)
			if err != nil {
				return false, err
			}
			defer u.Drop()
			return true, r.TakeRefC(u.Get())
		}},
		{`r_take_str("2020")`, func() (bool, error) {
			return true, r.TakeStr(s.str)
		}},
		{`r_take_managed_string("2020")`, func() (bool, error) {
			ms, err := s.Strings.New("2020")
			if err != nil {
				return false, err
			}
			return true, r.TakeManagedString(ms)
		}},
		{`r_take_unique_ptr_string(new string("2020"))`, func() (bool, error) {
			u, err := n.uniqueString("2020")
			if err != nil {
				return false, err
			}
			return true, r.TakeUniquePtrString(u)
		}},
		{"r_try_return_void()", func() (bool, error) {
			return r.TryReturnVoid().IsOk(), nil
		}},
		{"r_try_return_primitive() == 2020", func() (bool, error) {
			v, ok := r.TryReturnPrimitive().Value()
			return ok && v == Expected, nil
		}},
		{`r_fail_return_primitive() fails with "` + ManagedFailure + `"`, func() (bool, error) {
			res := r.FailReturnPrimitive()
			return failedWith(res, ManagedFailure), nil
		}},
	}
}

func failedWith[T any](r marshal.Result[T], msg string) bool {
	return !r.IsOk() && r.Message() == msg
}
