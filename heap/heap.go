package heap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge"
	"github.com/wippyai/xbridge/errors"
)

// Backend names a linear memory implementation.
type Backend string

const (
	BackendArena  Backend = "arena"
	BackendWazero Backend = "wazero"
)

// Config selects and sizes a heap. The zero value opens a one page arena.
type Config struct {
	// Backend is "arena" (default) or "wazero".
	Backend Backend `yaml:"backend"`

	// InitialPages is the starting size in 64KB pages. 0 means 1.
	InitialPages uint32 `yaml:"initial_pages"`

	// MemoryLimitPages caps growth. 0 means the backend default.
	// 256 = 16MB, 1024 = 64MB
	MemoryLimitPages uint32 `yaml:"memory_limit_pages"`

	// Track wraps the allocator in a Tracking recorder.
	Track bool `yaml:"track"`
}

// Heap is a native heap: a growable linear memory and the allocator that
// owns it. It satisfies xbridge.Heap and xbridge.Reallocator.
type Heap struct {
	xbridge.Growable
	Allocator

	list    *FreeList
	tracker *Tracking
	closer  func(context.Context) error
}

var (
	_ xbridge.Heap        = (*Heap)(nil)
	_ xbridge.Reallocator = (*Heap)(nil)
)

// New builds a heap with a free list allocator over mem.
func New(mem xbridge.Growable) *Heap {
	list := NewFreeList(mem)
	return &Heap{
		Growable:  mem,
		Allocator: list,
		list:      list,
	}
}

// Open creates the backend named by cfg. A nil cfg is the zero Config.
func Open(ctx context.Context, cfg *Config) (*Heap, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	pages := cfg.InitialPages
	if pages == 0 {
		pages = 1
	}

	var h *Heap
	switch cfg.Backend {
	case "", BackendArena:
		h = New(NewArena(pages, cfg.MemoryLimitPages))
	case BackendWazero:
		mem, err := NewWazero(ctx, pages, cfg.MemoryLimitPages)
		if err != nil {
			return nil, err
		}
		h = New(mem)
		h.closer = mem.Close
	default:
		return nil, errors.New(errors.PhaseConfigure, errors.KindInvalidInput).
			Detail("unknown heap backend %q", cfg.Backend).
			Build()
	}

	if cfg.Track {
		h.Track()
	}
	Logger().Debug("heap opened",
		zap.String("backend", backendName(cfg.Backend)),
		zap.Uint32("pages", pages),
		zap.Bool("track", cfg.Track),
	)
	return h, nil
}

// Track installs a Tracking recorder in front of the allocator and returns
// it. Later calls return the same recorder.
func (h *Heap) Track() *Tracking {
	if h.tracker == nil {
		h.tracker = NewTracking(h.Allocator)
		h.Allocator = h.tracker
	}
	return h.tracker
}

// Tracker returns the installed recorder or nil.
func (h *Heap) Tracker() *Tracking {
	return h.tracker
}

// Live returns the number of outstanding blocks.
func (h *Heap) Live() int {
	return h.list.Live()
}

// InUse returns the number of bytes held by outstanding blocks.
func (h *Heap) InUse() uint32 {
	return h.list.InUse()
}

// Close releases the backend. Leaked blocks are reported, not freed.
func (h *Heap) Close(ctx context.Context) error {
	if n := h.list.Live(); n > 0 {
		Logger().Warn("heap closed with live blocks", zap.Int("blocks", n), zap.Uint32("bytes", h.list.InUse()))
	}
	if h.closer == nil {
		return nil
	}
	closer := h.closer
	h.closer = nil
	if err := closer(ctx); err != nil {
		return fmt.Errorf("close heap backend: %w", err)
	}
	return nil
}

func backendName(b Backend) string {
	if b == "" {
		return string(BackendArena)
	}
	return string(b)
}
