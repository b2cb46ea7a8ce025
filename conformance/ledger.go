package conformance

import (
	"go.uber.org/zap"

	"github.com/wippyai/xbridge/resource"
)

// HandleStats counts handle lifecycle events seen during a session.
type HandleStats struct {
	Created  int `json:"created"`
	Taken    int `json:"taken"`
	Dropped  int `json:"dropped"`
	Borrowed int `json:"borrowed"`
}

// Live is the number of handles created and not yet taken or dropped.
func (h HandleStats) Live() int {
	return h.Created - h.Taken - h.Dropped
}

// ledger observes a session's handle table.
type ledger struct {
	stats   HandleStats
	borrows int
	log     *zap.Logger
}

var _ resource.Observer = (*ledger)(nil)

func (l *ledger) OnResourceEvent(e resource.Event) {
	switch e.Type {
	case resource.EventCreated:
		l.stats.Created++
	case resource.EventTaken:
		l.stats.Taken++
	case resource.EventDropped:
		l.stats.Dropped++
	case resource.EventBorrowed:
		l.stats.Borrowed++
		l.borrows++
	case resource.EventBorrowReturned:
		l.borrows--
	}
	if ce := l.log.Check(zap.DebugLevel, "handle event"); ce != nil {
		ce.Write(
			zap.Stringer("event", e.Type),
			zap.Stringer("kind", e.Kind),
			zap.Uint32("handle", uint32(e.Handle)),
		)
	}
}
