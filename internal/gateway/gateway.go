// Package gateway ties the pieces spec §4.4.6 names ("the gateway") into
// one runtime object: the responder model registry, the active mode
// (controller vs responder), and the msghandler.Identity callbacks the
// host-transport command dispatch needs.
//
// internal/transceiver's wire state machine (spec §4.1/§4.2) is built
// controller-side: every queued Operation is "transmit, then listen for a
// reply"; it has no passive-listening state for responder mode. Gateway
// therefore exposes the dispatch step (HandleInboundRDM) separately, and
// ResponderRX (responderrx.go) drives it from LineDriver RX bytes outside
// the transceiver, writing any unicast reply back without the break/mark
// turnaround pacing the transceiver applies (see DESIGN.md).
package gateway

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/registry"
	"ja-rule-go/types"
)

// Gateway holds the mutable "which model, which mode" state a running
// core needs alongside its transceiver and msghandler.
type Gateway struct {
	Registry *registry.Registry
	mode     types.Mode
	uid      types.UID
}

// New builds a Gateway bound to the responder's UID, starting in
// controller mode (spec §4.6's SET_MODE default) with reg already
// populated via Registry.Register.
func New(reg *registry.Registry, uid types.UID) *Gateway {
	return &Gateway{Registry: reg, mode: types.ModeController, uid: uid}
}

// Mode returns the current operating mode.
func (g *Gateway) Mode() types.Mode { return g.mode }

// SetMode implements msghandler.Identity.SetMode: switching into
// responder mode has no effect unless a model has been activated via
// Registry.Activate first.
func (g *Gateway) SetMode(m types.Mode) { g.mode = m }

// UID implements msghandler.Identity.UID.
func (g *Gateway) UID() types.UID { return g.uid }

// ResetAll implements msghandler.Identity.ResetAll: returns to controller
// mode and deactivates any active model, as spec §4.6's RESET_DEVICE
// does for the gateway's own state (responder models reset themselves via
// their own Activate/Deactivate).
func (g *Gateway) ResetAll() {
	g.mode = types.ModeController
	if active := g.Registry.Active(); active != nil {
		active.Deactivate()
	}
}

// HandleInboundRDM dispatches a decoded request frame to the active
// responder model, if any, and mode is ModeResponder. Returns ok=false
// when there is no active model, the mode is wrong, or the model itself
// declines to answer (broadcast/vendorcast side effect only).
func (g *Gateway) HandleInboundRDM(req rdmframe.Frame) (rdmframe.Frame, bool) {
	if g.mode != types.ModeResponder {
		return rdmframe.Frame{}, false
	}
	active := g.Registry.Active()
	if active == nil {
		return rdmframe.Frame{}, false
	}
	return active.HandleRequest(req)
}
