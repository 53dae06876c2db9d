// Package linedriver defines the hardware-abstraction trait spec §9 asks
// for in place of inline-assembly-style wire timing: a LineDriver capability
// covering break/mark line state, the UART TX/RX path, interrupt-capture
// timing, and IRQ masking. internal/transceiver is written entirely against
// this interface so it can run host-side against Mock (this package) and on
// real hardware against an adaptor built on tinygo-uartx and machine.Pin.
// Board-specific pin assignment and clock setup are out of scope for this
// core (see spec's external-collaborators list); the real implementation
// therefore lives in cmd/pico-dmx-gateway, the one place that also owns
// those board specifics, rather than in this package.
package linedriver

// IRQKind enumerates the interrupt sources spec §5 says are confined to
// ISRs: timer tick (owned by internal/coarsetimer, not this trait), UART
// TX-empty/RX-available/error, and input-capture.
type IRQKind uint8

const (
	IRQTxEmpty IRQKind = iota
	IRQTxIdle
	IRQRxAvailable
	IRQUARTError
	IRQInputCapture
)

// CaptureEdge is the edge polarity recorded by ReadCapture.
type CaptureEdge uint8

const (
	EdgeFalling CaptureEdge = iota
	EdgeRising
)

// Capture is one input-capture timer reading, delivered when an edge fires
// (spec §4.2.5's 16-bit timer buffering).
type Capture struct {
	Edge CaptureEdge
	Tick uint32 // free-running capture-timer tick at the edge
}

// LineDriver is the hardware trait the transceiver state machine is
// written against (spec §9). All methods must be safe to call from the
// cooperative main loop; methods documented "ISR-safe" may additionally be
// called from an interrupt context.
type LineDriver interface {
	// SetBreak pulls the line low (driving BREAK); SetMark releases it
	// high (idle / MAB). Exactly one of TX or RX is ever enabled at a
	// time per spec §3's invariant; these two calls only make sense while
	// TX is enabled.
	SetBreak()
	SetMark()

	// EnableTX/EnableRX configure the RS-485 direction-enable pins
	// (spec §6): never both enabled at once.
	EnableTX(on bool)
	EnableRX(on bool)

	// StartTimer arms a one-shot timer for the given duration in
	// microseconds; StopTimer cancels it. This is deliberately not the
	// same clock as internal/coarsetimer's free-running tick (100us
	// rounding, used only for the RDM response/DUB-window polling in
	// Transceiver.Tasks): BREAK/MAB timing and the inter-frame backoff
	// gaps need resolution down to a few microseconds, which coarsetimer
	// cannot provide. Expiry is delivered via the TimerExpired callback
	// registered with OnTimerExpired.
	StartTimer(us uint32)
	StopTimer()

	// PushByte enqueues one byte into the UART TX FIFO. ISR-safe.
	// Returns false if the FIFO has no room (should not happen given the
	// TX-empty interrupt discipline of spec §4.2.4).
	PushByte(b byte) bool
	// PopByte dequeues one received byte. ISR-safe. ok is false if the RX
	// FIFO was empty.
	PopByte() (b byte, ok bool)
	// DrainRX discards any buffered RX bytes (spec §4.2.5's "flush any
	// residual RX bytes" on turnaround).
	DrainRX()

	// OnRXByte registers the handler invoked as each received byte becomes
	// available, standing in for the RX-available ISR reading the UART
	// data register (spec §4.2.5's RX_DATA byte accumulation).
	OnRXByte(fn func(b byte))

	// EnableIRQ/DisableIRQ mask or unmask one interrupt source.
	EnableIRQ(kind IRQKind)
	DisableIRQ(kind IRQKind)

	// ReadCapture returns the most recent input-capture reading and
	// whether a new one is available since the last call. ISR-safe.
	ReadCapture() (Capture, bool)

	// OnTimerExpired, OnTXInterrupt, OnUARTError and OnCaptureEdge
	// register the transceiver's ISR-level handlers. Implementations call
	// these synchronously from their own interrupt path (hardware) or
	// from an explicit Fire* method (Mock, for tests).
	OnTimerExpired(fn func())
	OnTXInterrupt(fn func())
	OnUARTError(fn func())
	OnCaptureEdge(fn func(Capture))
}

// String renders an IRQKind for logging.
func (k IRQKind) String() string {
	switch k {
	case IRQTxEmpty:
		return "tx_empty"
	case IRQTxIdle:
		return "tx_idle"
	case IRQRxAvailable:
		return "rx_available"
	case IRQUARTError:
		return "uart_error"
	case IRQInputCapture:
		return "input_capture"
	default:
		return "unknown"
	}
}
