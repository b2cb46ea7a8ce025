package conformance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/xbridge/errors"
	"github.com/wippyai/xbridge/heap"
	"github.com/wippyai/xbridge/marshal"
	"github.com/wippyai/xbridge/resource"
)

// Config selects what a run exercises and where.
type Config struct {
	// Heap configures the native heap each session opens.
	Heap heap.Config `yaml:"heap"`

	// Groups limits the run to these case groups. Empty runs all.
	Groups []Group `yaml:"groups"`

	// Parallel is the number of independent sessions RunParallel starts.
	Parallel int `yaml:"parallel"`
}

// Session is one test run's worth of state: a native heap, the handle
// tables of the managed side, and the verification flag. A session belongs
// to one goroutine; concurrent runs each open their own, so one run never
// observes another's flag.
type Session struct {
	ID      string
	Heap    *heap.Heap
	Table   *resource.Table
	Strings *marshal.ManagedStrings
	Boxes   *marshal.Boxes[uint]

	// Native is the native test library bound to this session.
	Native *Native
	// Managed receives the callbacks native code makes. Tests may replace
	// it before running the call_r group.
	Managed Managed

	correct bool
	static  uint32
	str     marshal.Str
	leaks   Leaks
	ledger  *ledger
	closed  bool
	log     *zap.Logger
}

// Leaks counts what a session still held when it closed.
type Leaks struct {
	Blocks  int `json:"blocks"`
	Handles int `json:"handles"`
}

// NewSession opens a heap per cfg and prepares the native library's static
// storage. A nil cfg uses defaults.
func NewSession(ctx context.Context, cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	h, err := heap.Open(ctx, &cfg.Heap)
	if err != nil {
		return nil, err
	}
	h.Track()

	table := resource.NewTable()
	s := &Session{
		ID:      uuid.NewString(),
		Heap:    h,
		Table:   table,
		Strings: marshal.NewManagedStrings(table),
		Boxes:   marshal.NewBoxes[uint](table),
	}
	s.log = Logger().With(zap.String("session", s.ID))
	s.ledger = &ledger{log: s.log}
	table.Subscribe(s.ledger)
	s.Native = &Native{s: s}
	s.Managed = &managedLib{s: s}

	if err := s.initStatic(); err != nil {
		_ = h.Close(ctx)
		return nil, err
	}
	s.log.Debug("session opened", zap.String("backend", string(cfg.Heap.Backend)))
	return s, nil
}

// initStatic places the text native code returns by reference. It lives
// until the session closes.
func (s *Session) initStatic() error {
	text := []byte(fmt.Sprint(Expected))
	ptr, err := s.Heap.Alloc(uint32(len(text)), 1)
	if err != nil {
		return err
	}
	if err := s.Heap.Write(ptr, text); err != nil {
		s.Heap.Free(ptr, uint32(len(text)), 1)
		return err
	}
	str, err := marshal.NewStr(s.Heap, ptr, uint32(len(text)))
	if err != nil {
		s.Heap.Free(ptr, uint32(len(text)), 1)
		return err
	}
	s.static, s.str = ptr, str
	return nil
}

// SetCorrect raises the verification flag. Native code calls it once it
// has checked the value it received.
func (s *Session) SetCorrect() {
	s.correct = true
}

// GetBox parks Expected in a fresh box and returns its raw handle, or 0
// when the box table is closed or full.
func (s *Session) GetBox() uint32 {
	b, err := s.newBox()
	if err != nil {
		s.log.Warn("get box failed", zap.Error(err))
		return 0
	}
	return b.Handle()
}

func (s *Session) newBox() (marshal.Box[uint], error) {
	return s.Boxes.New(Expected)
}

// BoxIsCorrect reports whether h names a live box holding Expected.
func (s *Session) BoxIsCorrect(h uint32) bool {
	b := marshal.BoxFromHandle[uint](h)
	return s.Boxes.Live(b) && s.Boxes.Get(b) == Expected
}

// Check clears the flag, runs fn, and fails unless fn raised it.
func (s *Session) Check(name string, fn func()) error {
	s.correct = false
	fn()
	if !s.correct {
		return errors.New(errors.PhaseConform, errors.KindAssertion).
			Path(name).
			Detail("%s did not confirm the value it received", name).
			Build()
	}
	return nil
}

// Handles returns the handle lifecycle counts observed so far.
func (s *Session) Handles() HandleStats {
	return s.ledger.stats
}

// Leaks returns what was still held at Close. It is zero before Close.
func (s *Session) Leaks() Leaks {
	return s.leaks
}

// Close releases the static storage, records leaks, and closes the heap.
func (s *Session) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.Heap.Free(s.static, uint32(s.str.Len()), 1)

	s.Table.Unsubscribe(s.ledger)
	s.leaks = Leaks{Blocks: s.Heap.Live(), Handles: s.ledger.stats.Live()}
	if s.leaks != (Leaks{}) {
		s.log.Warn("session leaked",
			zap.Int("blocks", s.leaks.Blocks),
			zap.Int("handles", s.leaks.Handles),
			zap.Int("open_borrows", s.ledger.borrows),
		)
	}
	if err := s.Table.Close(); err != nil {
		return err
	}
	return s.Heap.Close(ctx)
}
