package transceiver

import (
	"testing"

	"ja-rule-go/internal/coarsetimer"
	"ja-rule-go/internal/linedriver"
	"ja-rule-go/types"
)

func newTestTransceiver() (*Transceiver, *linedriver.Mock, *coarsetimer.Timer) {
	line := linedriver.NewMock()
	clock := &coarsetimer.Timer{}
	tx := New(line, clock)
	return tx, line, clock
}

// runTXSequence drives a queued operation from TX_READY through TX_DATA,
// returning once the data phase is idle (TX_DATA_BUFFER_EMPTY handled).
func runTXSequence(t *testing.T, tx *Transceiver, line *linedriver.Mock, frameLen int) {
	t.Helper()
	if tx.State() != InBreak {
		t.Fatalf("expected IN_BREAK after queue, got %s", tx.State())
	}
	line.FireTimerExpired() // break -> mark
	if tx.State() != InMark {
		t.Fatalf("expected IN_MARK, got %s", tx.State())
	}
	line.FireTimerExpired() // mark -> tx_data, pushes byte 0
	if tx.State() != TXData {
		t.Fatalf("expected TX_DATA, got %s", tx.State())
	}
	for i := 1; i < frameLen; i++ {
		line.FireTXInterrupt()
	}
	line.FireTXInterrupt() // final push exhausts frame -> TX_DATA_BUFFER_EMPTY
	if tx.State() != TXDataBufferEmpty {
		t.Fatalf("expected TX_DATA_BUFFER_EMPTY, got %s", tx.State())
	}
	line.FireTXInterrupt() // idle signal
}

func TestTXOnlyCompletesAndBackoffs(t *testing.T) {
	tx, line, _ := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	op := &types.Operation{Token: 5, Type: types.OpTXOnly, StartCode: 0x00, Data: []byte{1, 2, 3}}
	if code := tx.Queue(op); code != "ok" {
		t.Fatalf("queue failed: %v", code)
	}

	runTXSequence(t, tx, line, 4)

	if got == nil {
		t.Fatal("expected a completion event")
	}
	if got.Result != types.ResultTXOK {
		t.Fatalf("expected TX_OK, got %s", got.Result)
	}
	if tx.State() != Backoff {
		t.Fatalf("expected BACKOFF after completion, got %s", tx.State())
	}
	armed, _ := line.TimerArmed()
	if !armed {
		t.Fatal("expected backoff timer armed")
	}

	line.FireTimerExpired() // backoff -> TX_READY
	if tx.State() != TXReady {
		t.Fatalf("expected TX_READY after backoff, got %s", tx.State())
	}
}

func TestQueueRejectsWhenNextOccupied(t *testing.T) {
	tx, _, _ := newTestTransceiver()
	op := &types.Operation{Token: 1, Type: types.OpTXOnly, Data: []byte{1}}
	if code := tx.Queue(op); code != "ok" {
		t.Fatalf("first queue failed: %v", code)
	}
	// first op was already dequeued into active by Queue's Tasks() call,
	// so a second queue should succeed into next...
	if code := tx.Queue(op); code != "ok" {
		t.Fatalf("second queue failed: %v", code)
	}
	// ...but a third, with next still occupied, must fail.
	if code := tx.Queue(op); code == "ok" {
		t.Fatal("expected buffer_full when next slot occupied")
	}
}

func TestRDMWithResponseRoundTrip(t *testing.T) {
	tx, line, _ := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	op := &types.Operation{Token: 9, Type: types.OpRDMWithResponse, StartCode: 0xCC, Data: []byte{0xAA}}
	tx.Queue(op)
	runTXSequence(t, tx, line, 2)

	if tx.State() != RXWaitForBreak {
		t.Fatalf("expected RX_WAIT_FOR_BREAK, got %s", tx.State())
	}

	line.FireCaptureEdge(linedriver.EdgeFalling, 1000) // break_start
	if tx.State() != RXWaitForMark {
		t.Fatalf("expected RX_WAIT_FOR_MARK, got %s", tx.State())
	}
	line.FireCaptureEdge(linedriver.EdgeFalling, 1200) // mark_start, width 200us is in-range
	if tx.State() != RXData {
		t.Fatalf("expected RX_DATA, got %s", tx.State())
	}

	resp := []byte{0xCC, 0x01, 0x02, 0xAB, 0xCD, 0x00, 0x00}
	for _, b := range resp {
		line.FireRXByte(b)
	}

	if got == nil {
		t.Fatal("expected completion")
	}
	if got.Result != types.ResultRXData {
		t.Fatalf("expected RX_DATA, got %s", got.Result)
	}
	if string(got.Data) != string(resp) {
		t.Fatalf("unexpected received data: %v", got.Data)
	}
}

func TestRDMWithResponseRejectsShortBreak(t *testing.T) {
	tx, line, _ := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	op := &types.Operation{Token: 2, Type: types.OpRDMWithResponse, Data: []byte{0x01}}
	tx.Queue(op)
	runTXSequence(t, tx, line, 2)

	line.FireCaptureEdge(linedriver.EdgeFalling, 1000)
	line.FireCaptureEdge(linedriver.EdgeFalling, 1010) // width 10us, below 88us minimum

	if tx.State() != RXWaitForMark {
		t.Fatalf("expected to remain RX_WAIT_FOR_MARK after spurious short pulse, got %s", tx.State())
	}

	line.FireCaptureEdge(linedriver.EdgeFalling, 1300) // now 290us since the reused edge, valid
	if tx.State() != RXData {
		t.Fatalf("expected RX_DATA after valid break, got %s", tx.State())
	}
	_ = got
}

func TestRDMResponseTimeout(t *testing.T) {
	tx, line, clock := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	op := &types.Operation{Token: 3, Type: types.OpRDMWithResponse, Data: []byte{0x01}}
	tx.Queue(op)
	runTXSequence(t, tx, line, 2)

	for i := 0; i < 40; i++ {
		clock.Tick()
	}
	tx.Tasks()

	if got == nil {
		t.Fatal("expected timeout completion")
	}
	if got.Result != types.ResultRXTimeout {
		t.Fatalf("expected RX_TIMEOUT, got %s", got.Result)
	}
}

func TestRDMBroadcastUsesBroadcastListenNotResponseTimeout(t *testing.T) {
	tx, line, clock := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	cfg := tx.Config()
	if code := cfg.SetRDMBroadcastListen(1000); code != "ok" {
		t.Fatalf("set broadcast listen failed: %v", code)
	}
	tx.cfg = cfg
	if tx.cfg.RDMBroadcastListen == tx.cfg.RDMResponseTimeout {
		t.Fatal("test requires RDMBroadcastListen to differ from RDMResponseTimeout")
	}

	op := &types.Operation{Token: 4, Type: types.OpRDMBroadcast, Data: []byte{0x01}}
	tx.Queue(op)
	runTXSequence(t, tx, line, 2)

	if tx.State() != RXWaitForBreak {
		t.Fatalf("expected RX_WAIT_FOR_BREAK, got %s", tx.State())
	}

	// 1200us elapsed: past the 1000us broadcast-listen window but well
	// short of the 2800us default response timeout. Only a correct
	// per-op timeout picks RDMBroadcastListen here.
	for i := 0; i < 12; i++ {
		clock.Tick()
	}
	tx.Tasks()

	if got == nil {
		t.Fatal("expected timeout completion using RDMBroadcastListen, got none")
	}
	if got.Result != types.ResultRXTimeout {
		t.Fatalf("expected RX_TIMEOUT, got %s", got.Result)
	}
}

func TestDUBRoundTrip(t *testing.T) {
	tx, line, _ := newTestTransceiver()
	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })

	op := &types.Operation{Token: 7, Type: types.OpRDMDUB, StartCode: 0x00, Data: nil}
	tx.Queue(op)
	runTXSequence(t, tx, line, 1)

	if tx.State() != RXWaitForDUB {
		t.Fatalf("expected RX_WAIT_FOR_DUB, got %s", tx.State())
	}

	line.FireCaptureEdge(linedriver.EdgeFalling, 500)
	if tx.State() != RXInDUB {
		t.Fatalf("expected RX_IN_DUB, got %s", tx.State())
	}
	reply := []byte{0xFE, 0xFE, 0xFE, 0xAA}
	for _, b := range reply {
		line.FireRXByte(b)
		line.FireCaptureEdge(linedriver.EdgeRising, 600)
	}
	line.FireUARTError()

	if got == nil {
		t.Fatal("expected completion")
	}
	if got.Result != types.ResultRXData {
		t.Fatalf("expected RX_DATA for DUB reply, got %s", got.Result)
	}
	if got.Timing == nil || !got.Timing.IsDUB {
		t.Fatal("expected DUB timing record")
	}
}

func TestReset(t *testing.T) {
	tx, line, _ := newTestTransceiver()
	op := &types.Operation{Token: 1, Type: types.OpTXOnly, Data: []byte{1}}
	tx.Queue(op)

	var got *types.CompletionEvent
	tx.OnComplete(func(ev types.CompletionEvent) { got = &ev })
	tx.Reset()

	if got == nil || got.Result != types.ResultTXError {
		t.Fatal("expected in-flight op to complete with TX_ERROR on reset")
	}
	if tx.State() != TXReady {
		t.Fatalf("expected TX_READY after reset, got %s", tx.State())
	}
	if line.TXEnabled() || line.RXEnabled() {
		t.Fatal("expected both TX and RX disabled after reset")
	}
	cfg := tx.Config()
	if cfg != DefaultTimingConfig() {
		t.Fatal("expected timing reset to defaults")
	}
}

func TestTimingConfigValidation(t *testing.T) {
	cfg := DefaultTimingConfig()
	if code := cfg.SetBreakTime(10); code != "bad_param" {
		t.Fatal("expected bad_param for out-of-range break time")
	}
	if cfg.BreakTime != 176 {
		t.Fatal("rejected write must not change the value")
	}
	if code := cfg.SetBreakTime(200); code != "ok" {
		t.Fatalf("expected ok, got %v", code)
	}
	if cfg.BreakTime != 200 {
		t.Fatal("valid write should apply")
	}
}
