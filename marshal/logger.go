package marshal

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/xbridge/errors"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the marshal package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger configures the marshal package's logger. It is safe to call while
// sessions run; nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}

func violation(format string, args ...any) {
	errors.Violation(errors.PhaseBoundary, format, args...)
}

func useAfterConsume(what string) {
	errors.UseAfterConsume(errors.PhaseTransfer, what)
}
