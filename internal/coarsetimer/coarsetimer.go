// Package coarsetimer implements the free-running millisecond-granularity
// timebase of spec §4.1: a counter ticked by a periodic hardware interrupt
// (one tick ~= 0.1ms) plus a wraparound-safe "has this interval elapsed"
// predicate. The transceiver uses it for its RX timeouts and for the
// minimum break-to-break spacing in backoff; the backoff gap itself is
// armed through LineDriver.StartTimer, and rxdemux does not use it.
package coarsetimer

import "sync/atomic"

// Timestamp is an opaque snapshot of the timer's counter.
type Timestamp uint32

// Timer is the counter itself. The zero value is ready to use. Tick is
// meant to be called from the periodic hardware interrupt; Now/HasElapsed
// are safe to call from the main loop even while Tick runs concurrently
// (the counter is a single atomic word, matching spec §5's "writes from
// ISRs are single-word" rule).
type Timer struct {
	ticks atomic.Uint32
}

// Tick advances the counter by one. Called from the periodic ISR.
func (t *Timer) Tick() { t.ticks.Add(1) }

// Now returns the current counter value.
func (t *Timer) Now() Timestamp { return Timestamp(t.ticks.Load()) }

// HasElapsed reports whether at least intervalTenthsMs tenths of a
// millisecond have passed since start, tolerating 32-bit wraparound of the
// underlying counter by comparing the unsigned difference (spec §4.1).
func (t *Timer) HasElapsed(start Timestamp, intervalTenthsMs uint32) bool {
	elapsed := uint32(t.Now()) - uint32(start)
	return elapsed >= intervalTenthsMs
}

// TenthsMsFromMicros converts a microsecond duration to the timer's native
// tenths-of-a-millisecond tick unit, rounding down. Used throughout
// internal/transceiver to turn the documented microsecond timing
// parameters into tick counts.
func TenthsMsFromMicros(us uint32) uint32 {
	return us / 100
}
