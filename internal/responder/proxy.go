package responder

import (
	"ja-rule-go/bus"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

// AckTimerDelay is the 1-tenth-second delay (E1.20 units: 100ms ticks) the
// proxy reports in its ACK_TIMER reply, per spec §4.4.5.
const AckTimerDelay = 1

// ProxyBuffer is the proxy's single-slot would-be-response cache (spec
// §4.4.5). The zero value is empty and ready to use.
type ProxyBuffer struct {
	resp *rdmframe.Frame
}

// Full reports whether a response is currently buffered.
func (b *ProxyBuffer) Full() bool { return b.resp != nil }

// QueuedChangedTopic carries the proxy's queued-message count every time a
// response is buffered or collected, so anything watching proxy state (the
// host-sim console, a future status poller) can observe it without
// re-deriving it from ProxyBuffer directly.
func QueuedChangedTopic() bus.Topic { return bus.T("proxy", "queued_changed") }

// DispatchProxyChild implements spec §4.4.5's child-responder handoff: a
// request addressed to a proxied child either goes straight into the
// single-slot buffer (with an ACK_TIMER reply to the real requester) or,
// for QUEUED_MESSAGE itself, drains (or peeks) that buffer.
func DispatchProxyChild(def *types.ResponderDefinition, proxy, child *types.Responder, buf *ProxyBuffer, conn *bus.Connection, req rdmframe.Frame) rdmframe.Frame {
	if rdmframe.PID(req.PID) == rdmframe.PIDQueuedMessage && req.CommandClass == types.CCGet {
		return dispatchQueuedMessage(proxy, child, buf, conn, req)
	}

	if buf.Full() {
		return nackFrame(proxy, req, ccResp(req.CommandClass), rdmframe.NackProxyBufferFull)
	}

	resp := Dispatch(def, child, req)
	buf.resp = &resp
	child.QueuedMessageCount++
	publishQueuedChanged(conn, child)

	return rdmframe.Frame{
		DestUID:           req.SrcUID,
		SrcUID:            proxy.UID,
		TransactionNumber: req.TransactionNumber,
		PortOrResponse:    uint8(types.ResponseAckTimer),
		SubDevice:         req.SubDevice,
		CommandClass:      ccResp(req.CommandClass),
		PID:               req.PID,
		ParamData:         []byte{0, AckTimerDelay},
	}
}

func dispatchQueuedMessage(proxy, child *types.Responder, buf *ProxyBuffer, conn *bus.Connection, req rdmframe.Frame) rdmframe.Frame {
	peekOnly := len(req.ParamData) == 1 && req.ParamData[0] == rdmframe.StatusGetLastMessage

	if !buf.Full() {
		return ackFrame(child, req, types.CCGetResp, nil)
	}

	resp := *buf.resp
	if !peekOnly {
		buf.resp = nil
		if child.QueuedMessageCount > 0 {
			child.QueuedMessageCount--
		}
		publishQueuedChanged(conn, child)
	}
	return resp
}

func publishQueuedChanged(conn *bus.Connection, child *types.Responder) {
	if conn == nil {
		return
	}
	conn.Publish(conn.NewMessage(QueuedChangedTopic(), child.QueuedMessageCount, true))
}
