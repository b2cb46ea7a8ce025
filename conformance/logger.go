package conformance

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the conformance package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return nop
}

// SetLogger configures the conformance package's logger. It is safe to call while
// sessions run; nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
