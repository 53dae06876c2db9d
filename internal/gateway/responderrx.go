package gateway

import (
	"ja-rule-go/internal/linedriver"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/rxdemux"
	"ja-rule-go/types"
)

// ResponderRX drives internal/rxdemux from a LineDriver's received bytes
// while the gateway is in responder mode, and turns each complete,
// checksum-valid RDM frame into a HandleInboundRDM dispatch -- replying
// over the same line, in place, when the active model answers unicast.
//
// internal/transceiver's wire state machine is written controller-side
// only (see the package doc comment on Gateway); it has no BREAK/MAB
// detection path that runs while the line is configured for RX-only
// listening. ResponderRX fills exactly the gap HandleInboundRDM was built
// to be driven by: StartFrame must be called once per incoming BREAK
// (wired to the LineDriver's input-capture edge in cmd/pico-dmx-gateway),
// and every subsequently received byte flows through OnRXByte into
// ContinueByte. It does not yet arm the strict RDM responder turnaround
// budget (ACK_TIMER notwithstanding, spec's own responder timing table is
// about unicast replies within a couple of milliseconds of EOM) -- bytes
// are written back to back as soon as the active model answers, with no
// inter-byte pacing beyond what PushByte/the UART FIFO already provide.
type ResponderRX struct {
	gw   *Gateway
	line linedriver.LineDriver
	dmx  rxdemux.Demux
}

// NewResponderRX wires a rxdemux.Demux to line's RX byte stream and
// registers the completed-frame handler that dispatches into gw.
func NewResponderRX(gw *Gateway, line linedriver.LineDriver) *ResponderRX {
	r := &ResponderRX{gw: gw, line: line}
	r.dmx.OnRDMFrame(r.handleFrame)
	line.OnRXByte(r.onByte)
	return r
}

// StartFrame signals that a new frame's BREAK/MAB has just completed.
func (r *ResponderRX) StartFrame() { r.dmx.StartFrame() }

func (r *ResponderRX) onByte(b byte) {
	if r.gw.Mode() != types.ModeResponder {
		return
	}
	r.dmx.ContinueByte(b)
}

// Counters exposes the demultiplexer's frame/error counters for the
// host-facing diagnostic commands spec §4.3 calls for.
func (r *ResponderRX) Counters() rxdemux.Counters { return r.dmx.Counters() }

// ResetCounters zeroes the counter group.
func (r *ResponderRX) ResetCounters() { r.dmx.ResetCounters() }

func (r *ResponderRX) handleFrame(raw []byte) {
	req, err := rdmframe.Unmarshal(raw)
	if err != nil {
		return
	}
	resp, ok := r.gw.HandleInboundRDM(req)
	if !ok {
		return
	}
	out := rdmframe.Marshal(resp)
	r.line.EnableTX(true)
	r.line.EnableRX(false)
	for _, b := range out {
		r.line.PushByte(b)
	}
	r.line.EnableTX(false)
	r.line.EnableRX(true)
}
