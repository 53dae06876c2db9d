//go:build rp2040 || rp2350

package main

// hwLine adapts a Pico UART + RS485 direction pin + input-capture pin to
// linedriver.LineDriver. Grounded on
// services/hal/internal/platform/factories_rp2xxx.go (uartx.UART0/UART1
// configuration, machine.Pin SetInterrupt for edge capture) -- the one
// place board-specific pin assignment and clock setup belong, per the
// external-collaborators list this core otherwise leaves alone.
//
// tinygo-uartx is devicecode-go's interrupt-driven UART wrapper; this
// adaptor assumes it exposes TX-empty/TX-idle/RX-byte/error callback
// registration (OnTxEmpty/OnTxIdle/OnRxByte/OnError) the way its name
// implies, and a free-running microsecond capture timebase (uartx.Micros)
// alongside the byte-oriented Read/Write path factories_rp2xxx.go uses.

import (
	"machine"

	"ja-rule-go/internal/linedriver"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

type hwLine struct {
	uart *uartx.UART
	dir  machine.Pin // RS485 driver-enable: high = TX, low = RX
	cap  machine.Pin // input-capture: wired to the same RXD line

	irqEnabled map[linedriver.IRQKind]bool

	timerArmed    bool
	timerDeadline uint32 // deadline against uartx.Micros(), not a coarsetimer tick

	lastCapture linedriver.Capture
	haveCapture bool

	onTimerExpired func()
	onTXInterrupt  func()
	onUARTError    func()
	onCaptureEdge  func(linedriver.Capture)
	onRXByte       func(byte)
}

// newHWLine configures uartNum (0 or 1) at 250000 baud/8N2 (spec's DMX512
// line rate) with txPin/rxPin/dirPin as given, and arms dirPin/capPin for
// the RS485 direction and BREAK/MAB edge capture duties.
func newHWLine(uartNum int, txPin, rxPin, dirPin, capPin machine.Pin) *hwLine {
	var u *uartx.UART
	if uartNum == 0 {
		u = uartx.UART0
	} else {
		u = uartx.UART1
	}
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 250000,
		TX:       txPin,
		RX:       rxPin,
		DataBits: 8,
		StopBits: 2,
		Parity:   uartx.ParityNone,
	})

	dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	capPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	h := &hwLine{uart: u, dir: dirPin, cap: capPin, irqEnabled: map[linedriver.IRQKind]bool{}}

	u.OnRxByte(func(b byte) {
		if h.onRXByte != nil {
			h.onRXByte(b)
		}
	})
	u.OnTxEmpty(func() {
		if h.irqEnabled[linedriver.IRQTxEmpty] && h.onTXInterrupt != nil {
			h.onTXInterrupt()
		}
	})
	u.OnTxIdle(func() {
		if h.irqEnabled[linedriver.IRQTxIdle] && h.onTXInterrupt != nil {
			h.onTXInterrupt()
		}
	})
	u.OnError(func() {
		if h.irqEnabled[linedriver.IRQUARTError] && h.onUARTError != nil {
			h.onUARTError()
		}
	})
	capPin.SetInterrupt(machine.PinRising|machine.PinFalling, func(p machine.Pin) {
		if !h.irqEnabled[linedriver.IRQInputCapture] {
			return
		}
		edge := linedriver.EdgeFalling
		if p.Get() {
			edge = linedriver.EdgeRising
		}
		c := linedriver.Capture{Edge: edge, Tick: uartx.Micros()}
		h.lastCapture = c
		h.haveCapture = true
		if h.onCaptureEdge != nil {
			h.onCaptureEdge(c)
		}
	})
	return h
}

func (h *hwLine) SetBreak() { h.uart.SetBreak(true) }
func (h *hwLine) SetMark()  { h.uart.SetBreak(false) }

func (h *hwLine) EnableTX(on bool) { h.dir.Set(on) }
func (h *hwLine) EnableRX(on bool) { h.dir.Set(!on) }

// StartTimer/StopTimer arm a one-shot deadline against uartx's
// free-running microsecond counter -- the same timebase ReadCapture's
// edges are stamped against -- rather than internal/coarsetimer's
// 100us-granularity tick, which cannot resolve the 12-800us BREAK/MAB
// range or the sub-millisecond inter-frame backoff gaps the caller arms
// this timer with. The one-shot deadline is checked from Poll.
func (h *hwLine) StartTimer(us uint32) {
	h.timerDeadline = uartx.Micros() + us
	h.timerArmed = true
}
func (h *hwLine) StopTimer() { h.timerArmed = false }

// Poll fires the armed one-shot timer callback once its deadline has
// passed, comparing unsigned difference the way coarsetimer.Timer does
// to tolerate wraparound. Sub-millisecond StartTimer durations need Poll
// called more often than main.go's 1ms task tick to stay accurate; see
// the remaining caveat in DESIGN.md's "Fixed: LineDriver.StartTimer unit
// mismatch" entry.
func (h *hwLine) Poll() {
	if h.timerArmed && int32(uartx.Micros()-h.timerDeadline) >= 0 {
		h.timerArmed = false
		if h.onTimerExpired != nil {
			h.onTimerExpired()
		}
	}
}

func (h *hwLine) PushByte(b byte) bool {
	return h.uart.WriteByte(b) == nil
}
func (h *hwLine) PopByte() (byte, bool) {
	b, err := h.uart.ReadByte()
	return b, err == nil
}
func (h *hwLine) DrainRX() {
	for h.uart.Buffered() > 0 {
		h.uart.ReadByte()
	}
}

func (h *hwLine) OnRXByte(fn func(b byte)) { h.onRXByte = fn }

func (h *hwLine) EnableIRQ(kind linedriver.IRQKind)  { h.irqEnabled[kind] = true }
func (h *hwLine) DisableIRQ(kind linedriver.IRQKind) { h.irqEnabled[kind] = false }

func (h *hwLine) ReadCapture() (linedriver.Capture, bool) {
	c, ok := h.lastCapture, h.haveCapture
	h.haveCapture = false
	return c, ok
}

func (h *hwLine) OnTimerExpired(fn func()) { h.onTimerExpired = fn }
func (h *hwLine) OnTXInterrupt(fn func())  { h.onTXInterrupt = fn }
func (h *hwLine) OnUARTError(fn func())    { h.onUARTError = fn }
func (h *hwLine) OnCaptureEdge(fn func(linedriver.Capture)) { h.onCaptureEdge = fn }
