package coarsetimer

import (
	"context"
	"time"
)

// HostTicker drives a Timer's Tick() from a time.Ticker, standing in for
// the periodic hardware interrupt on the host build and in tests. Adapted
// from services/heartbeat's ticker-driven service loop: same
// "select on ctx.Done / tick.C, call into shared state" shape, minus the
// bus-published heartbeat (there is nothing to publish here; Tick()
// mutates the timer's counter directly and is the only side effect).
type HostTicker struct {
	Timer  *Timer
	Period time.Duration // defaults to 100us (one 0.1ms tick) if zero
}

// Run ticks Timer once per Period until ctx is cancelled. Intended to run
// in its own goroutine.
func (h *HostTicker) Run(ctx context.Context) {
	period := h.Period
	if period <= 0 {
		period = 100 * time.Microsecond
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			h.Timer.Tick()
		}
	}
}
