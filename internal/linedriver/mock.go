package linedriver

import "ja-rule-go/x/shmring"

// LineEvent records one observable line-state transition, letting tests
// assert on the exact break/mark/TX-enable sequence the transceiver state
// machine produces (spec §8's end-to-end scenarios).
type LineEvent struct {
	Kind string // "break", "mark", "tx_on", "tx_off", "rx_on", "rx_off"
}

// Mock is an in-memory LineDriver used by every transceiver/rxdemux/
// responder test, and by cmd/host-sim for development without hardware.
// Grounded on the host-simulation-over-the-same-interface
// pattern (services/hal/internal/devices/*/driver_host.go) and built on
// x/shmring for its TX/RX FIFOs (the hardware backing in
// cmd/pico-dmx-gateway uses the uartx UART buffers instead).
type Mock struct {
	tx   *shmring.Ring
	rx   *shmring.Ring
	txH  shmring.Handle
	rxH  shmring.Handle

	txEnabled bool
	rxEnabled bool

	timerArmed bool
	timerUs    uint32

	irqEnabled map[IRQKind]bool

	captures []Capture

	events []LineEvent
	txLog  []byte // every byte ever pushed, for assertions

	onTimerExpired func()
	onTXInterrupt  func()
	onUARTError    func()
	onCaptureEdge  func(Capture)
	onRXByte       func(byte)
}

// NewMock returns a ready-to-use Mock with 256-byte TX/RX FIFOs, registered
// with x/shmring so a diagnostic console can look them up by Handle.
func NewMock() *Mock {
	txH, tx := shmring.NewRegistered(256)
	rxH, rx := shmring.NewRegistered(256)
	return &Mock{
		tx:         tx,
		rx:         rx,
		txH:        txH,
		rxH:        rxH,
		irqEnabled: map[IRQKind]bool{},
	}
}

// Rings returns the registry handles for the TX and RX FIFOs, for
// cmd/host-sim's "rings" console command.
func (m *Mock) Rings() (tx, rx shmring.Handle) { return m.txH, m.rxH }

func (m *Mock) SetBreak() { m.events = append(m.events, LineEvent{Kind: "break"}) }
func (m *Mock) SetMark()  { m.events = append(m.events, LineEvent{Kind: "mark"}) }

func (m *Mock) EnableTX(on bool) {
	m.txEnabled = on
	if on {
		m.events = append(m.events, LineEvent{Kind: "tx_on"})
	} else {
		m.events = append(m.events, LineEvent{Kind: "tx_off"})
	}
}

func (m *Mock) EnableRX(on bool) {
	m.rxEnabled = on
	if on {
		m.events = append(m.events, LineEvent{Kind: "rx_on"})
	} else {
		m.events = append(m.events, LineEvent{Kind: "rx_off"})
	}
}

func (m *Mock) StartTimer(us uint32) {
	m.timerArmed = true
	m.timerUs = us
}

func (m *Mock) StopTimer() {
	m.timerArmed = false
}

func (m *Mock) PushByte(b byte) bool {
	m.txLog = append(m.txLog, b)
	return m.tx.TryWriteFrom([]byte{b}) == 1
}

func (m *Mock) PopByte() (byte, bool) {
	var buf [1]byte
	if m.rx.TryReadInto(buf[:]) == 1 {
		return buf[0], true
	}
	return 0, false
}

func (m *Mock) DrainRX() {
	var buf [64]byte
	for m.rx.Available() > 0 {
		m.rx.TryReadInto(buf[:])
	}
}

func (m *Mock) EnableIRQ(kind IRQKind)  { m.irqEnabled[kind] = true }
func (m *Mock) DisableIRQ(kind IRQKind) { m.irqEnabled[kind] = false }

func (m *Mock) ReadCapture() (Capture, bool) {
	if len(m.captures) == 0 {
		return Capture{}, false
	}
	c := m.captures[0]
	m.captures = m.captures[1:]
	return c, true
}

func (m *Mock) OnTimerExpired(fn func())       { m.onTimerExpired = fn }
func (m *Mock) OnTXInterrupt(fn func())        { m.onTXInterrupt = fn }
func (m *Mock) OnUARTError(fn func())          { m.onUARTError = fn }
func (m *Mock) OnCaptureEdge(fn func(Capture)) { m.onCaptureEdge = fn }
func (m *Mock) OnRXByte(fn func(byte))         { m.onRXByte = fn }

// ---- Test/sim-only driving API (not part of LineDriver) ----

// TimerArmed reports whether StartTimer was called without a matching
// StopTimer, and the microsecond duration it was armed with.
func (m *Mock) TimerArmed() (bool, uint32) { return m.timerArmed, m.timerUs }

// FireTimerExpired invokes the registered timer-expiry handler, as the
// hardware ISR would once the armed duration elapses.
func (m *Mock) FireTimerExpired() {
	m.timerArmed = false
	if m.onTimerExpired != nil {
		m.onTimerExpired()
	}
}

// FireTXInterrupt invokes the registered TX interrupt handler (either
// "FIFO has room" during TX_DATA or "FIFO idle" at end of frame, per spec
// §4.2.4 -- the transceiver itself tracks which phase it's in).
func (m *Mock) FireTXInterrupt() {
	if m.onTXInterrupt != nil {
		m.onTXInterrupt()
	}
}

// FireUARTError invokes the registered UART error handler (framing error /
// line-idle detection used to end a DUB or GET/SET RX wait).
func (m *Mock) FireUARTError() {
	if m.onUARTError != nil {
		m.onUARTError()
	}
}

// FireCaptureEdge appends a capture reading and invokes the registered
// edge handler, simulating an input-capture ISR firing.
func (m *Mock) FireCaptureEdge(edge CaptureEdge, tick uint32) {
	c := Capture{Edge: edge, Tick: tick}
	m.captures = append(m.captures, c)
	if m.onCaptureEdge != nil {
		m.onCaptureEdge(c)
	}
}

// InjectRXByte makes b available to the next PopByte call, simulating a
// byte arriving on the wire while RX is enabled.
func (m *Mock) InjectRXByte(b byte) {
	m.rx.TryWriteFrom([]byte{b})
}

// FireRXByte simulates a byte arriving on the wire and the RX-available
// ISR firing for it: the byte is queued for PopByte and the registered
// OnRXByte handler is invoked immediately, as real interrupt-driven
// byte delivery would.
func (m *Mock) FireRXByte(b byte) {
	m.rx.TryWriteFrom([]byte{b})
	if m.onRXByte != nil {
		m.onRXByte(b)
	}
}

// TXBytes returns every byte ever pushed via PushByte, in order.
func (m *Mock) TXBytes() []byte { return append([]byte(nil), m.txLog...) }

// Events returns the full line-state event log.
func (m *Mock) Events() []LineEvent { return append([]LineEvent(nil), m.events...) }

// TXEnabled/RXEnabled report the current direction-pin state.
func (m *Mock) TXEnabled() bool { return m.txEnabled }
func (m *Mock) RXEnabled() bool { return m.rxEnabled }
