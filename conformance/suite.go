package conformance

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/marshal"
	"github.com/wippyai/xbridge/vec"
)

// Group is a family of cases.
type Group string

const (
	GroupReturn    Group = "return"
	GroupTryReturn Group = "try_return"
	GroupTake      Group = "take"
	GroupCallR     Group = "call_r"
)

// Groups returns every group in run order.
func Groups() []Group {
	return []Group{GroupReturn, GroupTryReturn, GroupTake, GroupCallR}
}

// Case is one conformance check, named by the native symbol it exercises.
type Case struct {
	Group  Group
	Symbol string
	Run    func(s *Session) error
}

// Outcome is the result of one case.
type Outcome struct {
	Group    Group         `json:"group"`
	Symbol   string        `json:"symbol"`
	Passed   bool          `json:"passed"`
	Message  string        `json:"message,omitempty"`
	Panicked bool          `json:"panicked,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report collects the outcomes of one session.
type Report struct {
	Session  string      `json:"session"`
	Backend  string      `json:"backend"`
	Outcomes []Outcome   `json:"outcomes"`
	Allocs   int         `json:"allocs"`
	Handles  HandleStats `json:"handles"`
	Leaks    Leaks       `json:"leaks"`
}

// Failed returns the outcomes that did not pass.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Passed {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every case passed and nothing leaked.
func (r *Report) OK() bool {
	return len(r.Failed()) == 0 && r.Leaks == (Leaks{})
}

// Select returns the cases of the given groups, or every case when groups
// is empty.
func Select(groups []Group) []Case {
	all := Suite()
	if len(groups) == 0 {
		return all
	}
	want := make(map[Group]bool, len(groups))
	for _, g := range groups {
		want[g] = true
	}
	var out []Case
	for _, c := range all {
		if want[c.Group] {
			out = append(out, c)
		}
	}
	return out
}

// Run opens a session, runs the selected cases, and closes it.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, g := range cfg.Groups {
		if !validGroup(g) {
			return nil, errors.New(errors.PhaseConfigure, errors.KindInvalidInput).
				Detail("unknown case group %q", g).
				Build()
		}
	}

	s, err := NewSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	report := s.Run(Select(cfg.Groups))
	report.Backend = string(cfg.Heap.Backend)
	if report.Backend == "" {
		report.Backend = "arena"
	}
	if err := s.Close(ctx); err != nil {
		return nil, err
	}
	report.Leaks = s.Leaks()
	return report, nil
}

func validGroup(g Group) bool {
	for _, known := range Groups() {
		if g == known {
			return true
		}
	}
	return false
}

// Run executes cases in order on s.
func (s *Session) Run(cases []Case) *Report {
	report := &Report{Session: s.ID}
	for _, c := range cases {
		report.Outcomes = append(report.Outcomes, s.RunCase(c))
	}
	if t := s.Heap.Tracker(); t != nil {
		report.Allocs = t.Allocs()
	}
	report.Handles = s.Handles()
	return report
}

// RunCase runs one case. A panic inside the case, including a contract
// violation, fails the case rather than the run.
func (s *Session) RunCase(c Case) (out Outcome) {
	out = Outcome{Group: c.Group, Symbol: c.Symbol}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if r := recover(); r != nil {
			out.Passed = false
			out.Panicked = true
			out.Message = fmt.Sprint(r)
		}
		level := zap.DebugLevel
		if !out.Passed {
			level = zap.WarnLevel
		}
		s.log.Check(level, "case finished").Write(
			zap.String("symbol", c.Symbol),
			zap.Bool("passed", out.Passed),
			zap.String("message", out.Message),
			zap.Duration("duration", out.Duration),
		)
	}()

	if err := c.Run(s); err != nil {
		out.Message = err.Error()
		return out
	}
	out.Passed = true
	return out
}

func expect(ok bool, expr string) error {
	if ok {
		return nil
	}
	return errors.Assertion(expr)
}

// Suite returns every case. Each one mirrors a native symbol and asserts
// the literal values that symbol must carry across.
func Suite() []Case {
	var cases []Case
	add := func(g Group, symbol string, run func(s *Session) error) {
		cases = append(cases, Case{Group: g, Symbol: symbol, Run: run})
	}

	add(GroupReturn, "c_return_primitive", func(s *Session) error {
		return expect(s.Native.ReturnPrimitive() == Expected, "c_return_primitive() == 2020")
	})
	add(GroupReturn, "c_return_shared", func(s *Session) error {
		return expect(s.Native.ReturnShared().Z == Expected, "c_return_shared().z == 2020")
	})
	add(GroupReturn, "c_return_box", func(s *Session) error {
		b, err := s.Native.ReturnBox()
		if err != nil {
			return err
		}
		defer s.Boxes.Drop(b)
		return expect(s.Boxes.Get(b) == Expected, "*c_return_box() == 2020")
	})
	add(GroupReturn, "c_return_unique_ptr", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtr()
		if err != nil {
			return err
		}
		defer u.Drop()
		return expect(!u.IsNull(), "c_return_unique_ptr() != null")
	})
	add(GroupReturn, "c_return_ref", func(s *Session) error {
		shared := Shared{Z: Expected}
		p := s.Native.ReturnRef(&shared)
		return expect(p == &shared.Z && *p == Expected, "*c_return_ref(shared) == 2020")
	})
	add(GroupReturn, "c_return_str", func(s *Session) error {
		shared := Shared{Z: Expected}
		return expect(s.Native.ReturnStr(&shared).String() == "2020", `c_return_str(shared) == "2020"`)
	})
	add(GroupReturn, "c_return_managed_string", func(s *Session) error {
		ms, err := s.Native.ReturnManagedString()
		if err != nil {
			return err
		}
		return expect(s.Strings.Take(ms) == "2020", `c_return_managed_string() == "2020"`)
	})
	add(GroupReturn, "c_return_unique_ptr_string", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrString()
		if err != nil {
			return err
		}
		defer u.Drop()
		return expect(u.Get().String() == "2020", `*c_return_unique_ptr_string() == "2020"`)
	})
	add(GroupReturn, "c_return_unique_ptr_vector_u8", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorU8()
		if err != nil {
			return err
		}
		defer u.Drop()
		var sum uint
		err = u.Get().View().Each(func(_ int, x uint8) error {
			sum += uint(x)
			return nil
		})
		if err != nil {
			return err
		}
		if err := expect(u.Get().Len() == 4, "c_return_unique_ptr_vector_u8()->size() == 4"); err != nil {
			return err
		}
		return expect(sum == 200, "sum(c_return_unique_ptr_vector_u8()) == 200")
	})
	add(GroupReturn, "c_return_unique_ptr_vector_f64", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorF64()
		if err != nil {
			return err
		}
		defer u.Drop()
		var items []float64
		if err := u.Get().CopyInto(&items); err != nil {
			return err
		}
		var sum float64
		for _, x := range items {
			sum += x
		}
		return expect(math.Abs(sum-200.5) < 1e-9, "sum(c_return_unique_ptr_vector_f64()) == 200.5")
	})
	add(GroupReturn, "c_return_unique_ptr_vector_shared", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorShared()
		if err != nil {
			return err
		}
		defer u.Drop()
		items, err := u.Get().View().Items()
		if err != nil {
			return err
		}
		var sum uint
		for _, x := range items {
			sum += x.Z
		}
		if err := expect(len(items) == 2, "c_return_unique_ptr_vector_shared()->size() == 2"); err != nil {
			return err
		}
		return expect(sum == 2021, "sum(c_return_unique_ptr_vector_shared().z) == 2021")
	})

	add(GroupTryReturn, "c_try_return_void", func(s *Session) error {
		return expect(s.Native.TryReturnVoid().IsOk(), "c_try_return_void() is ok")
	})
	add(GroupTryReturn, "c_try_return_primitive", func(s *Session) error {
		v, ok := s.Native.TryReturnPrimitive().Value()
		return expect(ok && v == Expected, "c_try_return_primitive() == 2020")
	})
	add(GroupTryReturn, "c_fail_return_primitive", func(s *Session) error {
		return expect(failedWith(s.Native.FailReturnPrimitive(), "logic error"),
			`c_fail_return_primitive() fails with "logic error"`)
	})
	add(GroupTryReturn, "c_try_return_string", func(s *Session) error {
		u, ok := s.Native.TryReturnString().Value()
		if !ok {
			return expect(false, "c_try_return_string() is ok")
		}
		defer u.Drop()
		return expect(u.Get().String() == "ok", `*c_try_return_string() == "ok"`)
	})
	add(GroupTryReturn, "c_fail_return_string", func(s *Session) error {
		return expect(failedWith(s.Native.FailReturnString(), "logic error getting string"),
			`c_fail_return_string() fails with "logic error getting string"`)
	})
	add(GroupTryReturn, "c_try_return_box", func(s *Session) error {
		b, ok := s.Native.TryReturnBox().Value()
		if !ok {
			return expect(false, "c_try_return_box() is ok")
		}
		defer s.Boxes.Drop(b)
		return expect(s.Boxes.Get(b) == Expected, "*c_try_return_box() == 2020")
	})
	add(GroupTryReturn, "c_try_return_ref", func(s *Session) error {
		ms, err := s.Strings.New("2020")
		if err != nil {
			return err
		}
		defer s.Strings.Drop(ms)
		got, ok := s.Native.TryReturnRef(ms).Value()
		return expect(ok && got == ms && s.Strings.Read(got) == "2020", `*c_try_return_ref("2020") == "2020"`)
	})
	add(GroupTryReturn, "c_try_return_str", func(s *Session) error {
		ns, err := marshal.NewNativeString(s.Heap, "2020")
		if err != nil {
			return err
		}
		defer ns.Drop()
		got, ok := s.Native.TryReturnStr(ns.Str()).Value()
		return expect(ok && got.String() == "2020", `c_try_return_str("2020") == "2020"`)
	})
	add(GroupTryReturn, "c_try_return_managed_string", func(s *Session) error {
		ms, ok := s.Native.TryReturnManagedString().Value()
		if !ok {
			return expect(false, "c_try_return_managed_string() is ok")
		}
		return expect(s.Strings.Take(ms) == "2020", `c_try_return_managed_string() == "2020"`)
	})
	add(GroupTryReturn, "c_try_return_unique_ptr_string", func(s *Session) error {
		u, ok := s.Native.TryReturnUniquePtrString().Value()
		if !ok {
			return expect(false, "c_try_return_unique_ptr_string() is ok")
		}
		defer u.Drop()
		return expect(u.Get().String() == "2020", `*c_try_return_unique_ptr_string() == "2020"`)
	})

	add(GroupTake, "c_take_primitive", func(s *Session) error {
		return s.Check("c_take_primitive", func() { s.Native.TakePrimitive(Expected) })
	})
	add(GroupTake, "c_take_shared", func(s *Session) error {
		return s.Check("c_take_shared", func() { s.Native.TakeShared(Shared{Z: Expected}) })
	})
	add(GroupTake, "c_take_box", func(s *Session) error {
		h := s.GetBox()
		if h == 0 {
			return errors.New(errors.PhaseConform, errors.KindAllocation).
				Detail("get_box returned the null handle").
				Build()
		}
		return s.Check("c_take_box", func() { s.Native.TakeBox(marshal.BoxFromHandle[uint](h)) })
	})
	add(GroupTake, "c_take_ref_c", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtr()
		if err != nil {
			return err
		}
		defer u.Drop()
		return s.Check("c_take_ref_c", func() { s.Native.TakeRefC(u.Get()) })
	})
	add(GroupTake, "c_take_unique_ptr", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtr()
		if err != nil {
			return err
		}
		return s.Check("c_take_unique_ptr", func() { s.Native.TakeUniquePtr(u) })
	})
	add(GroupTake, "c_take_str", func(s *Session) error {
		ns, err := marshal.NewNativeString(s.Heap, "2020")
		if err != nil {
			return err
		}
		defer ns.Drop()
		return s.Check("c_take_str", func() { s.Native.TakeStr(ns.Str()) })
	})
	add(GroupTake, "c_take_managed_string", func(s *Session) error {
		ms, err := s.Strings.New("2020")
		if err != nil {
			return err
		}
		return s.Check("c_take_managed_string", func() { s.Native.TakeManagedString(ms) })
	})
	add(GroupTake, "c_take_unique_ptr_string", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrString()
		if err != nil {
			return err
		}
		return s.Check("c_take_unique_ptr_string", func() { s.Native.TakeUniquePtrString(u) })
	})
	add(GroupTake, "c_take_unique_ptr_vector_u8", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorU8()
		if err != nil {
			return err
		}
		return s.Check("c_take_unique_ptr_vector_u8", func() { s.Native.TakeUniquePtrVectorU8(u) })
	})
	add(GroupTake, "c_take_unique_ptr_vector_f64", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorF64()
		if err != nil {
			return err
		}
		return s.Check("c_take_unique_ptr_vector_f64", func() { s.Native.TakeUniquePtrVectorF64(u) })
	})
	add(GroupTake, "c_take_unique_ptr_vector_shared", func(s *Session) error {
		u, err := s.Native.ReturnUniquePtrVectorShared()
		if err != nil {
			return err
		}
		return s.Check("c_take_unique_ptr_vector_shared", func() { s.Native.TakeUniquePtrVectorShared(u) })
	})
	add(GroupTake, "c_take_vec_u8", func(s *Session) error {
		v, err := vec.FromBytes(s.Heap, []byte{86, 75, 30, 9})
		if err != nil {
			return err
		}
		defer v.Drop()
		return s.Check("c_take_vec_u8", func() { s.Native.TakeVecU8(v.View()) })
	})
	add(GroupTake, "c_take_vec_shared", func(s *Session) error {
		v, err := vec.From(s.Heap, SharedElem, Shared{Z: 1010}, Shared{Z: 1011})
		if err != nil {
			return err
		}
		defer v.Drop()
		return s.Check("c_take_vec_shared", func() { s.Native.TakeVecShared(v.View()) })
	})

	add(GroupCallR, "run_test", func(s *Session) error {
		var msg string
		err := s.Check("run_test", func() { msg = s.Native.RunTest() })
		if msg != "" {
			return errors.New(errors.PhaseConform, errors.KindAssertion).
				Path("run_test").
				Detail("%s", msg).
				Build()
		}
		return err
	})

	return cases
}
