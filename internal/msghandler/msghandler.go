// Package msghandler implements the command dispatcher of spec §4.6: it
// maps every inbound types.Request to a transceiver or responder action,
// formats the reply, and emits it via internal/transport. Grounded on the
// teacher's single-select dispatch loop (services/hal/internal/core/loop.go,
// now deleted -- see DESIGN.md) and its unified reply-building helper.
package msghandler

import (
	"encoding/binary"

	"ja-rule-go/bus"
	"ja-rule-go/errcode"
	"ja-rule-go/internal/flags"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/transceiver"
	"ja-rule-go/internal/transport"
	"ja-rule-go/types"
)

// EventTopic carries every transceiver completion the handler has relayed,
// for any other component (the host-sim console, logging) that wants to
// observe it; see DESIGN.md's note on why the transceiver itself cannot
// publish this directly.
func EventTopic() bus.Topic { return bus.T("transceiver", "event") }

// Identity supplies the device facts the handler needs but does not own.
type Identity struct {
	UID      func() types.UID
	SetMode  func(types.Mode)
	ResetAll func()
}

// Handler wires one transceiver, one transport link and the sticky flags
// word into spec §4.6's command table.
type Handler struct {
	tx   *transceiver.Transceiver
	link *transport.Link
	flg  *flags.Flags
	conn *bus.Connection
	id   Identity
}

// New builds a Handler and installs the transceiver completion adapter
// (tx.OnComplete -> bus publish -> response send) described in DESIGN.md.
func New(tx *transceiver.Transceiver, link *transport.Link, flg *flags.Flags, conn *bus.Connection, id Identity) *Handler {
	h := &Handler{tx: tx, link: link, flg: flg, conn: conn, id: id}
	tx.OnComplete(h.onCompletion)
	return h
}

// Serve reads and handles one inbound frame. Callers run it in the main
// loop's tasks() cadence (or a host-sim goroutine); it blocks on
// link.ReadFrame.
func (h *Handler) Serve() error {
	in, err := h.link.ReadFrame()
	if err != nil {
		return err
	}
	h.dispatch(types.Request{Token: in.Token, Command: types.Command(in.Command), Payload: in.Payload})
	return nil
}

func (h *Handler) dispatch(req types.Request) {
	resp, ok := h.handle(req)
	if ok {
		h.send(resp)
	}
}

// handle builds the synchronous reply to req. ok is false for the four
// queueing commands when the queue accepted the operation: their reply is
// deferred to onCompletion, per spec §4.6's "later: ...".
func (h *Handler) handle(req types.Request) (types.Response, bool) {
	resp := types.Response{Token: req.Token, Command: req.Command}

	switch req.Command {
	case types.CmdEcho:
		resp.Payload = req.Payload
		return ok(resp, errcode.OK), true

	case types.CmdTxDMX:
		return h.queue(req, types.OpTXOnly)
	case types.CmdRDMDUBRequest:
		return h.queue(req, types.OpRDMDUB)
	case types.CmdRDMRequest:
		return h.queue(req, types.OpRDMWithResponse)
	case types.CmdRDMBroadcastRequest:
		return h.queue(req, types.OpRDMBroadcast)

	case types.CmdGetFlags:
		resp.Payload = []byte{h.flg.Value()}
		return ok(resp, errcode.OK), true

	case types.CmdResetDevice:
		if h.id.ResetAll != nil {
			h.id.ResetAll()
		}
		h.tx.Reset()
		return ok(resp, errcode.OK), true

	case types.CmdSetMode:
		if len(req.Payload) != 1 {
			return ok(resp, errcode.BadParam), true
		}
		if h.id.SetMode != nil {
			h.id.SetMode(types.Mode(req.Payload[0]))
		}
		return ok(resp, errcode.OK), true

	case types.CmdGetUID:
		if h.id.UID != nil {
			u := h.id.UID()
			resp.Payload = append([]byte(nil), u[:]...)
		}
		return ok(resp, errcode.OK), true

	case types.CmdSetBreakTime:
		return ok(resp, h.setU16(req.Payload, h.tx.SetBreakTime)), true
	case types.CmdGetBreakTime:
		resp.Payload = le16(h.tx.Config().BreakTime)
		return ok(resp, errcode.OK), true
	case types.CmdSetMarkTime:
		return ok(resp, h.setU16(req.Payload, h.tx.SetMarkTime)), true
	case types.CmdGetMarkTime:
		resp.Payload = le16(h.tx.Config().MarkTime)
		return ok(resp, errcode.OK), true
	case types.CmdSetRDMBroadcastListen:
		return ok(resp, h.setU16(req.Payload, h.tx.SetRDMBroadcastListen)), true
	case types.CmdGetRDMBroadcastListen:
		resp.Payload = le16(h.tx.Config().RDMBroadcastListen)
		return ok(resp, errcode.OK), true
	case types.CmdSetRDMResponseTimeout:
		return ok(resp, h.setU16(req.Payload, h.tx.SetRDMResponseTimeout)), true
	case types.CmdGetRDMResponseTimeout:
		resp.Payload = le16(h.tx.Config().RDMResponseTimeout)
		return ok(resp, errcode.OK), true
	case types.CmdSetRDMDUBResponseTime:
		return ok(resp, h.setU16(req.Payload, h.tx.SetRDMDUBResponseTime)), true
	case types.CmdGetRDMDUBResponseTime:
		resp.Payload = le16(h.tx.Config().RDMDUBResponseTime)
		return ok(resp, errcode.OK), true

	default:
		return ok(resp, errcode.Unknown), true
	}
}

// queue builds the Operation for a TX_DMX/RDM_* command and hands it to
// the transceiver. TX_DMX carries the DMX null start code; every RDM
// operation carries the RDM start code, with req.Payload holding the
// frame body from the sub-start-code on (rdmframe.Marshal()'s output less
// its leading start-code byte) so the transceiver never double-prepends
// one.
func (h *Handler) queue(req types.Request, opType types.OpType) (types.Response, bool) {
	startCode := byte(rdmframe.StartCodeDMX)
	if opType != types.OpTXOnly {
		startCode = rdmframe.StartCodeRDM
	}
	op := &types.Operation{Token: req.Token, Type: opType, StartCode: startCode, Data: req.Payload}
	if c := h.tx.Queue(op); c != errcode.OK {
		return ok(types.Response{Token: req.Token, Command: req.Command}, c), true
	}
	return types.Response{}, false
}

func (h *Handler) setU16(payload []byte, setter func(uint32) errcode.Code) errcode.Code {
	if len(payload) != 2 {
		return errcode.BadParam
	}
	return setter(uint32(binary.LittleEndian.Uint16(payload)))
}

func le16(v uint32) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

// ok stamps an errcode.Code onto resp's return code.
func ok(resp types.Response, c errcode.Code) types.Response {
	resp.ReturnCode = rcByte(c)
	return resp
}

// onCompletion is installed on the transceiver; it runs in whatever
// context delivered the completion (see transceiver.Transceiver.OnComplete):
// inline with the LineDriver callback that finished the operation, or from
// Tasks. It is not re-dispatched onto the main loop. It translates the
// (op, result) pair per spec §4.6, and sends the deferred reply.
func (h *Handler) onCompletion(ev types.CompletionEvent) {
	if h.conn != nil {
		h.conn.Publish(h.conn.NewMessage(EventTopic(), ev, false))
	}

	resp := types.Response{Token: ev.Token, Command: completionCommand(ev.Op)}
	resp.ReturnCode = rcByte(completionCode(ev.Op, ev.Result))
	resp.Payload = append(resp.Payload, marshalTiming(ev.Timing)...)
	resp.Payload = append(resp.Payload, ev.Data...)
	h.send(resp)
}

func completionCommand(op types.OpType) types.Command {
	switch op {
	case types.OpTXOnly:
		return types.CmdTxDMX
	case types.OpRDMDUB:
		return types.CmdRDMDUBRequest
	case types.OpRDMWithResponse:
		return types.CmdRDMRequest
	case types.OpRDMBroadcast:
		return types.CmdRDMBroadcastRequest
	default:
		return 0
	}
}

// completionCode implements spec §4.6's result-translation table.
func completionCode(op types.OpType, result types.OpResult) errcode.Code {
	switch op {
	case types.OpTXOnly:
		if result == types.ResultTXOK {
			return errcode.OK
		}
		return errcode.TxError
	case types.OpRDMWithResponse, types.OpRDMDUB:
		switch result {
		case types.ResultRXData, types.ResultTXOK:
			return errcode.OK
		case types.ResultRXTimeout:
			return errcode.RDMTimeout
		case types.ResultRXInvalid:
			return errcode.RDMInvalidResponse
		default:
			return errcode.Unknown
		}
	case types.OpRDMBroadcast:
		switch result {
		case types.ResultTXOK:
			return errcode.OK
		case types.ResultRXData, types.ResultRXInvalid:
			return errcode.RDMBcastResponse
		default:
			return errcode.Unknown
		}
	default:
		return errcode.Unknown
	}
}

// marshalTiming is the wire encoding for a TimingRecord: a one-byte kind
// tag (0 = DUB pair, 1 = break/mark triple) followed by the relevant
// little-endian uint32 fields. nil timing marshals to nothing.
func marshalTiming(t *types.TimingRecord) []byte {
	if t == nil {
		return nil
	}
	if t.IsDUB {
		out := make([]byte, 9)
		out[0] = 0
		binary.LittleEndian.PutUint32(out[1:5], t.DUBStart)
		binary.LittleEndian.PutUint32(out[5:9], t.DUBEnd)
		return out
	}
	out := make([]byte, 13)
	out[0] = 1
	binary.LittleEndian.PutUint32(out[1:5], t.BreakStart)
	binary.LittleEndian.PutUint32(out[5:9], t.MarkStart)
	binary.LittleEndian.PutUint32(out[9:13], t.MarkEnd)
	return out
}

// send writes resp via the transport link. GET_FLAGS only clears the
// sticky word once the send itself has actually succeeded, per spec §4.7.
func (h *Handler) send(resp types.Response) {
	wasGetFlags := resp.Command == types.CmdGetFlags
	out := transport.Outbound{
		Token:        resp.Token,
		Command:      uint16(resp.Command),
		ReturnCode:   resp.ReturnCode,
		FlagsChanged: h.flg.Value() != 0,
		Payload:      resp.Payload,
	}
	if h.link.Send(out) == errcode.OK && wasGetFlags {
		h.flg.ClearOnGet()
	}
}

var rcTable = []errcode.Code{
	errcode.OK,
	errcode.Unknown,
	errcode.BufferFull,
	errcode.BadParam,
	errcode.TxError,
	errcode.RDMTimeout,
	errcode.RDMBcastResponse,
	errcode.RDMInvalidResponse,
}

// rcByte encodes c as the wire return-code byte index of spec §6's list;
// anything unrecognized (there should be nothing left, since every
// transceiver/transport code above is named in that list) maps to UNKNOWN.
func rcByte(c errcode.Code) byte {
	for i, rc := range rcTable {
		if rc == c {
			return byte(i)
		}
	}
	return 1 // UNKNOWN
}
