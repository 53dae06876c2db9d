// Package transceiver implements the wire-level DMX/RDM state machine of
// spec §4.2: transmit framing (break/mark/data), line turnaround into an
// RDM response window, and the RX state machines for DUB and GET/SET
// replies, including the inter-frame backoff required before a wire
// buffer can be reused. It is written entirely against the
// internal/linedriver.LineDriver trait so it runs identically host-side
// (against linedriver.Mock) and on hardware.
package transceiver

import (
	"ja-rule-go/errcode"
	"ja-rule-go/internal/coarsetimer"
	"ja-rule-go/internal/linedriver"
	"ja-rule-go/types"
)

const (
	breakMinUs = 88
	breakMaxUs = 352
)

// Transceiver drives exactly one queued operation at a time through
// IN_BREAK/IN_MARK/TX_DATA and, where applicable, the RX turnaround states,
// emitting one CompletionEvent per operation via the callback registered
// with OnComplete. There is no internal goroutine: all work happens
// synchronously inside the LineDriver callbacks (ISR context on hardware,
// direct calls from linedriver.Mock's Fire* methods in tests) or inside
// Tasks, which the main loop calls once per iteration for timeout and
// backoff bookkeeping.
type Transceiver struct {
	line  linedriver.LineDriver
	clock *coarsetimer.Timer

	cfg   TimingConfig
	state State

	active   *types.Operation
	next     *types.Operation
	frame    []byte // StartCode + Data of the active operation
	txPos    int

	frameStart coarsetimer.Timestamp
	frameEnd   coarsetimer.Timestamp

	lastBreakAt coarsetimer.Timestamp
	haveLastBreak bool

	timing     types.TimingRecord
	markEndSet bool
	dubStarted bool

	rxBuf []byte

	onComplete func(types.CompletionEvent)
}

// New constructs a Transceiver bound to line and clock, with default
// timing, and wires its handlers onto line's ISR callback slots.
func New(line linedriver.LineDriver, clock *coarsetimer.Timer) *Transceiver {
	t := &Transceiver{
		line:  line,
		clock: clock,
		cfg:   DefaultTimingConfig(),
		state: TXReady,
	}
	line.OnTimerExpired(t.handleTimerExpired)
	line.OnTXInterrupt(t.handleTXInterrupt)
	line.OnUARTError(t.handleUARTError)
	line.OnCaptureEdge(t.handleCaptureEdge)
	line.OnRXByte(t.handleRXByte)
	return t
}

// OnComplete registers the completion callback (spec §4.2.8). It runs from
// the same context as whichever handler drove the operation to COMPLETE:
// the cooperative main loop when reached via Tasks, or inline with the
// triggering ISR/Fire* call otherwise -- callers that need strict main-loop
// delivery should only treat it as advisory and re-dispatch as needed.
func (t *Transceiver) OnComplete(fn func(types.CompletionEvent)) { t.onComplete = fn }

// State returns the current wire state, chiefly for tests and diagnostics.
func (t *Transceiver) State() State { return t.state }

// Config returns a copy of the current timing configuration.
func (t *Transceiver) Config() TimingConfig { return t.cfg }

// Queue places op into the single next slot (spec §4.2.3). Fails with
// BufferFull if a queued operation is already waiting.
func (t *Transceiver) Queue(op *types.Operation) errcode.Code {
	if t.next != nil {
		return errcode.BufferFull
	}
	cp := *op
	cp.Data = append([]byte(nil), op.Data...)
	t.next = &cp
	t.Tasks()
	return errcode.OK
}

// Reset cancels everything in flight, drains timers/interrupts, returns
// the line to MARK, and reinitializes timing to defaults (spec §4.2.3).
// Any operation that was in flight is completed with TX_ERROR so the host
// is never left waiting on a token that will never resolve.
func (t *Transceiver) Reset() {
	t.line.StopTimer()
	t.line.DisableIRQ(linedriver.IRQTxEmpty)
	t.line.DisableIRQ(linedriver.IRQTxIdle)
	t.line.DisableIRQ(linedriver.IRQRxAvailable)
	t.line.DisableIRQ(linedriver.IRQUARTError)
	t.line.DisableIRQ(linedriver.IRQInputCapture)
	t.line.EnableTX(false)
	t.line.EnableRX(false)
	t.line.SetMark()

	if t.active != nil {
		t.emit(types.CompletionEvent{Token: t.active.Token, Op: t.active.Type, Result: types.ResultTXError})
	}

	t.cfg = DefaultTimingConfig()
	t.state = TXReady
	t.active = nil
	t.next = nil
	t.frame = nil
	t.txPos = 0
	t.rxBuf = nil
	t.markEndSet = false
	t.dubStarted = false
	t.haveLastBreak = false
}

// Tasks runs the poll-driven half of the state machine: dequeuing a
// pending operation once TX_READY and backoff-clear, and the coarse-timer
// based RX timeout checks of spec §4.2.6. Call once per main-loop
// iteration.
func (t *Transceiver) Tasks() {
	switch t.state {
	case TXReady:
		t.tryDequeue()
	case RXWaitForBreak:
		// An RDM_BROADCAST op with a configured listen window waits
		// against rdm_broadcast_listen, not rdm_response_timeout; every
		// other op reaching this state (GET/SET, or a broadcast with no
		// listen window -- though that case completes in onTXIdle
		// before ever entering this state) uses rdm_response_timeout.
		if t.clock.HasElapsed(t.frameEnd, coarsetimer.TenthsMsFromMicros(t.rxWaitTimeoutUs())) {
			t.endRX(types.ResultRXTimeout)
		}
	case RXWaitForDUB:
		if t.clock.HasElapsed(t.frameEnd, coarsetimer.TenthsMsFromMicros(t.cfg.RDMResponseTimeout)) {
			t.endRX(types.ResultRXTimeout)
		}
	case RXInDUB:
		if t.clock.HasElapsed(t.frameEnd, coarsetimer.TenthsMsFromMicros(t.cfg.RDMDUBResponseTime)) {
			t.endRX(types.ResultRXInvalid)
		}
	}
}

// rxWaitTimeoutUs picks the RX_WAIT_FOR_BREAK deadline for the active
// operation (spec §4.2.5/§4.2.2): an RDM_BROADCAST op waits against
// RDMBroadcastListen, everything else against RDMResponseTimeout.
func (t *Transceiver) rxWaitTimeoutUs() uint32 {
	if t.active != nil && t.active.Type == types.OpRDMBroadcast {
		return t.cfg.RDMBroadcastListen
	}
	return t.cfg.RDMResponseTimeout
}

func (t *Transceiver) tryDequeue() {
	if t.next == nil || t.active != nil {
		return
	}
	t.active = t.next
	t.next = nil

	frame := make([]byte, 0, 1+len(t.active.Data))
	frame = append(frame, t.active.StartCode)
	frame = append(frame, t.active.Data...)
	t.frame = frame
	t.txPos = 0
	t.timing = types.TimingRecord{}
	t.markEndSet = false
	t.dubStarted = false
	t.rxBuf = nil

	t.frameStart = t.clock.Now()
	t.lastBreakAt = t.frameStart
	t.haveLastBreak = true

	t.line.EnableRX(false)
	t.line.EnableTX(true)
	t.line.SetBreak()
	t.line.StartTimer(t.cfg.BreakTime) // BreakTime is already microseconds
	t.state = InBreak
}

func (t *Transceiver) handleTimerExpired() {
	switch t.state {
	case InBreak:
		t.line.SetMark()
		t.line.StartTimer(t.cfg.MarkTime) // MarkTime is already microseconds
		t.state = InMark
	case InMark:
		t.line.PushByte(t.frame[0])
		t.txPos = 1
		t.line.EnableIRQ(linedriver.IRQTxEmpty)
		t.state = TXData
	case Backoff:
		t.state = TXReady
		t.active = nil
		t.tryDequeue()
	}
}

func (t *Transceiver) handleTXInterrupt() {
	switch t.state {
	case TXData:
		if t.txPos < len(t.frame) {
			t.line.PushByte(t.frame[t.txPos])
			t.txPos++
			return
		}
		t.line.DisableIRQ(linedriver.IRQTxEmpty)
		t.line.EnableIRQ(linedriver.IRQTxIdle)
		t.state = TXDataBufferEmpty
	case TXDataBufferEmpty:
		t.line.DisableIRQ(linedriver.IRQTxIdle)
		t.onTXIdle()
	}
}

func (t *Transceiver) onTXIdle() {
	t.frameEnd = t.clock.Now()

	switch t.active.Type {
	case types.OpTXOnly:
		t.line.EnableTX(false)
		t.complete(types.ResultTXOK)
		return
	case types.OpRDMBroadcast:
		if t.cfg.RDMBroadcastListen == 0 {
			t.line.EnableTX(false)
			t.complete(types.ResultTXOK)
			return
		}
	}

	t.line.EnableTX(false)
	t.line.EnableRX(true)
	t.line.DrainRX()
	t.line.EnableIRQ(linedriver.IRQInputCapture)
	t.line.EnableIRQ(linedriver.IRQUARTError)

	t.line.EnableIRQ(linedriver.IRQRxAvailable)
	if t.active.Type == types.OpRDMDUB {
		t.state = RXWaitForDUB
	} else {
		t.state = RXWaitForBreak
	}
}

func (t *Transceiver) handleCaptureEdge(c linedriver.Capture) {
	switch t.state {
	case RXWaitForDUB:
		if c.Edge == linedriver.EdgeFalling && !t.dubStarted {
			t.timing.IsDUB = true
			t.timing.DUBStart = c.Tick
			t.timing.DUBEnd = c.Tick
			t.dubStarted = true
			t.state = RXInDUB
		}
	case RXInDUB:
		t.timing.DUBEnd = c.Tick
	case RXWaitForBreak:
		if c.Edge == linedriver.EdgeFalling {
			t.timing.BreakStart = c.Tick
			t.state = RXWaitForMark
		}
	case RXWaitForMark:
		if c.Edge != linedriver.EdgeFalling {
			return
		}
		width := c.Tick - t.timing.BreakStart
		if width < breakMinUs {
			t.timing.BreakStart = c.Tick
			return
		}
		if width > breakMaxUs {
			t.endRX(types.ResultRXInvalid)
			return
		}
		t.timing.MarkStart = c.Tick
		t.state = RXData
	case RXData:
		if c.Edge == linedriver.EdgeRising && !t.markEndSet {
			t.timing.MarkEnd = c.Tick
			t.markEndSet = true
		}
	}
}

func (t *Transceiver) handleRXByte(b byte) {
	switch t.state {
	case RXInDUB:
		t.rxBuf = append(t.rxBuf, b)
	case RXData:
		t.rxBuf = append(t.rxBuf, b)
		if len(t.rxBuf) >= 3 {
			pdl := t.rxBuf[2]
			want := int(pdl) + 2
			have := len(t.rxBuf) - 3
			if have >= want {
				t.line.EnableRX(false)
				t.line.SetMark()
				t.endRX(types.ResultRXData)
				return
			}
		}
		if len(t.rxBuf) >= types.MaxSlotData {
			t.endRX(types.ResultRXInvalid)
		}
	}
}

func (t *Transceiver) handleUARTError() {
	switch t.state {
	case RXInDUB:
		result := types.ResultRXInvalid
		if len(t.rxBuf) > 0 {
			result = types.ResultRXData
		}
		t.endRX(result)
	}
}

// endRX finalizes an RX-branch operation (DUB, broadcast listen, or
// GET/SET) with the given result and tears down RX interrupts.
func (t *Transceiver) endRX(result types.OpResult) {
	t.line.DisableIRQ(linedriver.IRQRxAvailable)
	t.line.DisableIRQ(linedriver.IRQUARTError)
	t.line.DisableIRQ(linedriver.IRQInputCapture)
	t.line.EnableRX(false)
	t.line.SetMark()
	t.complete(result)
}

func (t *Transceiver) complete(result types.OpResult) {
	op := t.active
	var data []byte
	if result == types.ResultRXData && len(t.rxBuf) > 0 {
		data = append([]byte(nil), t.rxBuf...)
	}
	timing := t.timing
	t.emit(types.CompletionEvent{
		Token:  op.Token,
		Op:     op.Type,
		Result: result,
		Data:   data,
		Timing: &timing,
	})
	t.enterBackoff(op.Type)
}

func (t *Transceiver) emit(ev types.CompletionEvent) {
	if t.onComplete != nil {
		t.onComplete(ev)
	}
}

func eofGapFor(op types.OpType) uint32 {
	switch op {
	case types.OpTXOnly:
		return eofGapTXOnly
	case types.OpRDMBroadcast:
		return eofGapBroadcast
	case types.OpRDMDUB:
		return eofGapDUB
	case types.OpRDMWithResponse:
		return eofGapWithResponse
	default:
		return eofGapTXOnly
	}
}

func (t *Transceiver) enterBackoff(op types.OpType) {
	t.state = Backoff

	// Both eofGapFor's result and minBreakToBreak are microseconds;
	// deadlineUs is what StartTimer arms, unconverted (spec §4.2.7).
	deadlineUs := eofGapFor(op)

	if t.haveLastBreak {
		sinceBreak := uint32(t.clock.Now()) - uint32(t.lastBreakAt)
		sinceBreakUs := sinceBreak * 100
		if sinceBreakUs < minBreakToBreak {
			if remaining := minBreakToBreak - sinceBreakUs; remaining > deadlineUs {
				deadlineUs = remaining
			}
		}
	}

	t.line.StartTimer(deadlineUs)
}
