package conformance

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/heap"
	"github.com/wippyai/xbridge/marshal"
	"github.com/wippyai/xbridge/resource"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func requireOK(t *testing.T, r *Report) {
	t.Helper()
	for _, o := range r.Failed() {
		t.Errorf("%s/%s: %s", o.Group, o.Symbol, o.Message)
	}
	assert.Equal(t, Leaks{}, r.Leaks, "session leaked")
	assert.True(t, r.OK())
}

func TestSuite(t *testing.T) {
	for _, backend := range []heap.Backend{heap.BackendArena, heap.BackendWazero} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := &Config{Heap: heap.Config{Backend: backend, MemoryLimitPages: 4}}
			r, err := Run(context.Background(), cfg)
			require.NoError(t, err)
			requireOK(t, r)
			assert.Len(t, r.Outcomes, len(Suite()))
			assert.Equal(t, string(backend), r.Backend)
			assert.NotZero(t, r.Allocs)
		})
	}
}

func TestSuiteSymbolsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Suite() {
		assert.False(t, seen[c.Symbol], "duplicate case %s", c.Symbol)
		seen[c.Symbol] = true
		assert.Contains(t, Groups(), c.Group)
	}
}

func TestRunGroups(t *testing.T) {
	r, err := Run(context.Background(), &Config{Groups: []Group{GroupTryReturn}})
	require.NoError(t, err)
	requireOK(t, r)
	require.NotEmpty(t, r.Outcomes)
	for _, o := range r.Outcomes {
		assert.Equal(t, GroupTryReturn, o.Group)
	}

	_, err = Run(context.Background(), &Config{Groups: []Group{"nope"}})
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.KindInvalidInput, e.Kind)
}

func TestCheck(t *testing.T) {
	s := newSession(t)

	err := s.Check("noop", func() {})
	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, errors.KindAssertion, e.Kind)
	assert.Equal(t, []string{"noop"}, e.Path)

	assert.NoError(t, s.Check("set", s.SetCorrect))
	assert.Error(t, s.Check("cleared", func() {}), "Check must clear the flag first")
}

func TestNativeTakeRejectsWrongValues(t *testing.T) {
	s := newSession(t)
	assert.Error(t, s.Check("primitive", func() { s.Native.TakePrimitive(7) }))
	assert.Error(t, s.Check("shared", func() { s.Native.TakeShared(Shared{Z: 1}) }))

	b, err := s.Boxes.New(1)
	require.NoError(t, err)
	assert.Error(t, s.Check("box", func() { s.Native.TakeBox(b) }))
	assert.False(t, s.Boxes.Live(b), "TakeBox consumes even a wrong box")
}

func TestFlagsDoNotLeakAcrossSessions(t *testing.T) {
	a, b := newSession(t), newSession(t)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Error(t, b.Check("other", a.SetCorrect))
	assert.NoError(t, a.Check("own", a.SetCorrect))
}

func TestRunParallel(t *testing.T) {
	reports, err := RunParallel(context.Background(), &Config{}, 4)
	require.NoError(t, err)
	require.Len(t, reports, 4)

	ids := make(map[string]bool)
	for _, r := range reports {
		requireOK(t, r)
		ids[r.Session] = true
	}
	assert.Len(t, ids, 4)
}

func TestRunParallelPropagatesErrors(t *testing.T) {
	cfg := &Config{Heap: heap.Config{Backend: "bogus"}}
	_, err := RunParallel(context.Background(), cfg, 3)
	assert.Error(t, err)
}

type wrongPrimitive struct{ Managed }

func (wrongPrimitive) ReturnPrimitive() uint { return 7 }

type failingTake struct{ Managed }

func (failingTake) TakeShared(Shared) error { return stderrors.New("refused") }

func TestRunTestSurfacesFailures(t *testing.T) {
	callR := Select([]Group{GroupCallR})
	require.Len(t, callR, 1)

	t.Run("assertion", func(t *testing.T) {
		s := newSession(t)
		s.Managed = wrongPrimitive{s.Managed}
		msg := s.Native.RunTest()
		assert.Equal(t, "Assertion failed: `r_return_primitive() == 2020`", msg)

		out := s.RunCase(callR[0])
		assert.False(t, out.Passed)
		assert.Contains(t, out.Message, "r_return_primitive() == 2020")
	})

	t.Run("callback error", func(t *testing.T) {
		s := newSession(t)
		s.Managed = failingTake{s.Managed}
		msg := s.Native.RunTest()
		assert.True(t, strings.HasPrefix(msg, "r_take_shared(Shared{2020}): "), msg)
		assert.Contains(t, msg, "refused")
	})

	t.Run("success raises flag", func(t *testing.T) {
		s := newSession(t)
		var msg string
		require.NoError(t, s.Check("run_test", func() { msg = s.Native.RunTest() }))
		assert.Empty(t, msg)
	})
}

func TestRunCaseRecoversPanics(t *testing.T) {
	s := newSession(t)
	out := s.RunCase(Case{Group: GroupTake, Symbol: "null_deref", Run: func(*Session) error {
		marshal.Null[C]().Get()
		return nil
	}})
	assert.False(t, out.Passed)
	assert.True(t, out.Panicked)
	assert.Contains(t, out.Message, "null Unique")
}

func TestSessionReportsLeaks(t *testing.T) {
	s, err := NewSession(context.Background(), nil)
	require.NoError(t, err)

	_, err = s.Heap.Alloc(16, 8)
	require.NoError(t, err)
	_, err = s.Strings.New("kept")
	require.NoError(t, err)

	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, Leaks{Blocks: 1, Handles: 1}, s.Leaks())
	assert.NoError(t, s.Close(context.Background()), "Close is idempotent")
}

func TestSessionObservesHandles(t *testing.T) {
	s := newSession(t)

	b := marshal.BoxFromHandle[uint](s.GetBox())
	_, release := s.Boxes.Borrow(b)
	release()
	ms, err := s.Strings.New("2020")
	require.NoError(t, err)
	assert.Equal(t, "2020", s.Strings.Take(ms))
	s.Boxes.Drop(b)

	assert.Equal(t, HandleStats{Created: 2, Taken: 1, Dropped: 1, Borrowed: 1}, s.Handles())
	assert.Zero(t, s.Handles().Live())

	r := s.Run(Select([]Group{GroupTake}))
	assert.Positive(t, r.Handles.Created)
	assert.Zero(t, r.Handles.Live(), "take cases consume every handle they create")
}

func TestGetBoxRawHandle(t *testing.T) {
	s, err := NewSession(context.Background(), nil)
	require.NoError(t, err)

	h := s.GetBox()
	require.NotZero(t, h)
	assert.True(t, s.BoxIsCorrect(h))
	assert.False(t, s.BoxIsCorrect(0))

	ms, err := s.Strings.New("2020")
	require.NoError(t, err)
	assert.False(t, s.BoxIsCorrect(ms.Handle()), "a string handle is not a box")

	wrong, err := s.Boxes.New(7)
	require.NoError(t, err)
	assert.False(t, s.BoxIsCorrect(wrong.Handle()))

	assert.Equal(t, uint(Expected), s.Boxes.Take(marshal.BoxFromHandle[uint](h)))
	assert.False(t, s.BoxIsCorrect(h), "consumed box")

	require.NoError(t, s.Close(context.Background()))
	assert.Zero(t, s.GetBox(), "closed table hands out the null handle")
}

func TestSessionStopsObservingAfterClose(t *testing.T) {
	s, err := NewSession(context.Background(), nil)
	require.NoError(t, err)
	_, err = s.Strings.New("kept")
	require.NoError(t, err)
	require.NoError(t, s.Close(context.Background()))

	before := s.Handles()
	s.Table.Insert(resource.KindBox, 1)
	assert.Equal(t, before, s.Handles())
	assert.Equal(t, 1, s.Leaks().Handles)
}

func TestC(t *testing.T) {
	s := newSession(t)
	before := s.Heap.Live()

	u, err := newC(s.Heap, Expected)
	require.NoError(t, err)
	assert.Equal(t, uint32(Expected), u.Get().Get())
	assert.Equal(t, before+1, s.Heap.Live())

	u.Drop()
	assert.Equal(t, before, s.Heap.Live())
}

func TestTryFamilyMessages(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, "logic error", s.Native.FailReturnPrimitive().Message())
	assert.Equal(t, "logic error getting string", s.Native.FailReturnString().Message())
	assert.Equal(t, ManagedFailure, s.Managed.FailReturnPrimitive().Message())

	var f *marshal.Failure
	require.True(t, stderrors.As(s.Native.FailReturnPrimitive().Err(), &f))
	assert.Equal(t, "logic error", f.Message)
}

func TestSetLoggerDuringParallelRun(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			SetLogger(zap.NewNop())
		}
	}()
	reports, err := RunParallel(context.Background(), &Config{}, 4)
	<-done
	require.NoError(t, err)
	for _, r := range reports {
		requireOK(t, r)
	}
}
