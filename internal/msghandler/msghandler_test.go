package msghandler

import (
	"bytes"
	"testing"

	"ja-rule-go/errcode"
	"ja-rule-go/internal/coarsetimer"
	"ja-rule-go/internal/flags"
	"ja-rule-go/internal/linedriver"
	"ja-rule-go/internal/transceiver"
	"ja-rule-go/internal/transport"
	"ja-rule-go/types"
)

// loopback is an io.ReadWriter whose Read drains what Write produced,
// enough to drive transport.Link end to end inside one test.
type loopback struct {
	buf bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.buf.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.buf.Write(p) }

func newTestHandler() (*Handler, *linedriver.Mock, *loopback) {
	line := linedriver.NewMock()
	clock := &coarsetimer.Timer{}
	tx := transceiver.New(line, clock)
	lb := &loopback{}
	link := transport.New(lb)
	flg := flags.New(nil)
	h := New(tx, link, flg, nil, Identity{
		UID: func() types.UID { return types.NewUID(0x7A52, 1) },
	})
	return h, line, lb
}

func TestEchoRoundTrip(t *testing.T) {
	h, _, _ := newTestHandler()
	resp, ok := h.handle(types.Request{Token: 3, Command: types.CmdEcho, Payload: []byte{1, 2, 3}})
	if !ok {
		t.Fatal("expected immediate response")
	}
	if resp.ReturnCode != rcByte(errcode.OK) || !bytes.Equal(resp.Payload, []byte{1, 2, 3}) {
		t.Fatalf("got %+v", resp)
	}
}

func TestGetUID(t *testing.T) {
	h, _, _ := newTestHandler()
	resp, ok := h.handle(types.Request{Token: 1, Command: types.CmdGetUID})
	if !ok || len(resp.Payload) != 6 {
		t.Fatalf("got %+v, ok=%v", resp, ok)
	}
}

func TestGetFlagsClearsOnlyAfterSend(t *testing.T) {
	h, _, _ := newTestHandler()
	h.flg.Set(flags.TxDrop)

	resp, ok := h.handle(types.Request{Token: 9, Command: types.CmdGetFlags})
	if !ok || resp.Payload[0] != flags.TxDrop {
		t.Fatalf("got %+v", resp)
	}
	if h.flg.Value() == 0 {
		t.Fatal("flags must not clear before the send completes")
	}

	h.send(resp)
	if h.flg.Value() != 0 {
		t.Fatal("expected flags cleared after a successful GET_FLAGS send")
	}
}

func TestSetBreakTimeValidatesRange(t *testing.T) {
	h, _, _ := newTestHandler()
	resp, ok := h.handle(types.Request{Token: 1, Command: types.CmdSetBreakTime, Payload: le16(1000)})
	if !ok || resp.ReturnCode != rcByte(errcode.BadParam) {
		t.Fatalf("expected BadParam, got %+v", resp)
	}

	resp, ok = h.handle(types.Request{Token: 2, Command: types.CmdSetBreakTime, Payload: le16(200)})
	if !ok || resp.ReturnCode != rcByte(errcode.OK) {
		t.Fatalf("expected OK, got %+v", resp)
	}
	if h.tx.Config().BreakTime != 200 {
		t.Fatalf("break time not applied: %d", h.tx.Config().BreakTime)
	}
}

func TestTxDMXDefersResponseUntilCompletion(t *testing.T) {
	h, line, lb := newTestHandler()

	resp, immediate := h.handle(types.Request{Token: 4, Command: types.CmdTxDMX, Payload: []byte{1, 2}})
	if immediate {
		t.Fatalf("expected deferred response, got %+v", resp)
	}
	if lb.buf.Len() != 0 {
		t.Fatal("expected no bytes written before the operation completes")
	}

	line.FireTimerExpired() // break -> mark
	line.FireTimerExpired() // mark -> tx_data, pushes the start code byte
	line.FireTXInterrupt()  // push payload byte 0
	line.FireTXInterrupt()  // push payload byte 1
	line.FireTXInterrupt()  // frame exhausted -> TX_DATA_BUFFER_EMPTY
	line.FireTXInterrupt()  // idle -> complete

	if lb.buf.Len() == 0 {
		t.Fatal("expected a response frame written on completion")
	}
}

func TestUnknownCommand(t *testing.T) {
	h, _, _ := newTestHandler()
	resp, ok := h.handle(types.Request{Token: 1, Command: types.Command(0xBEEF)})
	if !ok || resp.ReturnCode != rcByte(errcode.Unknown) {
		t.Fatalf("got %+v", resp)
	}
}

func TestCompletionCodeTranslation(t *testing.T) {
	cases := []struct {
		op     types.OpType
		result types.OpResult
		want   errcode.Code
	}{
		{types.OpTXOnly, types.ResultTXOK, errcode.OK},
		{types.OpTXOnly, types.ResultTXError, errcode.TxError},
		{types.OpRDMWithResponse, types.ResultRXTimeout, errcode.RDMTimeout},
		{types.OpRDMWithResponse, types.ResultRXInvalid, errcode.RDMInvalidResponse},
		{types.OpRDMBroadcast, types.ResultTXOK, errcode.OK},
		{types.OpRDMBroadcast, types.ResultRXData, errcode.RDMBcastResponse},
	}
	for _, c := range cases {
		if got := completionCode(c.op, c.result); got != c.want {
			t.Errorf("completionCode(%v, %v) = %v, want %v", c.op, c.result, got, c.want)
		}
	}
}
