// Package responder implements the generic RDM responder dispatch of spec
// §4.4: the PID descriptor table walk, the discovery trio
// (DISC_UNIQUE_BRANCH/DISC_MUTE/DISC_UN_MUTE), sub-device/SUBDEVICE_ALL
// fan-out, the proxy single-slot buffer, and the five generic
// Bool/UInt8/UInt32/String/Sensor handler constructors every concrete
// model in internal/responder/models builds its PID table from. Grounded
// on registry.go's lookup-by-key shape applied to a
// sorted-but-linearly-walked table, per SPEC_FULL.md's open question 2.
package responder

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

// DiscoveryResult is what HandleDiscovery produced for the caller
// (HandleStandalone, or a model's own HandleRequest such as the dimmer's)
// to turn into a reply.
type DiscoveryResult struct {
	// Respond is true if a reply must be transmitted at all (DISC_MUTE and
	// DISC_UN_MUTE always reply when addressed to this UID; DISC_UNIQUE_BRANCH
	// replies only when this UID falls within the queried range).
	Respond bool
	// DUBReply holds the 24-byte encoded DUB wire reply; only set for
	// DISC_UNIQUE_BRANCH.
	DUBReply []byte
	// MuteReply holds a normal (unencoded) ack body for DISC_MUTE/DISC_UN_MUTE:
	// the two-byte control field, always 0x0000; no binding UID is included.
	MuteReply []byte
}

// HandleDiscovery implements spec §4.4.3: DISC_UNIQUE_BRANCH replies (with
// the DUB wire encoding) only when r is unmuted and its UID falls within
// the queried [lowerBound, upperBound] range; DISC_MUTE/DISC_UN_MUTE
// always reply when individually addressed (never to broadcast/vendorcast
// -- RequiresResponse already encodes that distinction) and flip r.Mute.
func HandleDiscovery(r *types.Responder, frame rdmframe.Frame) (DiscoveryResult, bool) {
	if frame.CommandClass != types.CCDiscovery {
		return DiscoveryResult{}, false
	}

	switch rdmframe.PID(frame.PID) {
	case rdmframe.PIDDiscUniqueBranch:
		if r.Mute || len(frame.ParamData) != 12 {
			return DiscoveryResult{}, true
		}
		var lo, hi types.UID
		copy(lo[:], frame.ParamData[0:6])
		copy(hi[:], frame.ParamData[6:12])
		if !r.UID.Within(lo, hi) {
			return DiscoveryResult{}, true
		}
		return DiscoveryResult{Respond: true, DUBReply: rdmframe.EncodeDUBResponse(r.UID)}, true

	case rdmframe.PIDDiscMute, rdmframe.PIDDiscUnMute:
		if !r.UID.RequiresAction(frame.DestUID) {
			return DiscoveryResult{}, true
		}
		r.Mute = rdmframe.PID(frame.PID) == rdmframe.PIDDiscMute
		if !r.UID.RequiresResponse(frame.DestUID) {
			return DiscoveryResult{}, true
		}
		// Control field: bit 0 = managed proxy flag, always clear here (this
		// core has no RDM sub-network proxying beyond the RDM proxy model
		// itself, spec §4.4.5). No binding UID reported.
		return DiscoveryResult{Respond: true, MuteReply: []byte{0x00, 0x00}}, true

	default:
		return DiscoveryResult{}, true
	}
}

// DiscoveryReply turns a DiscoveryResult into the frame HandleRequest
// should hand back, for the common case of a standalone (non-proxied,
// non-subdevice) responder.
func DiscoveryReply(r *types.Responder, req rdmframe.Frame, res DiscoveryResult) rdmframe.Frame {
	if res.DUBReply != nil {
		return rdmframe.Frame{CommandClass: types.CCDiscoveryResp, SrcUID: r.UID, ParamData: res.DUBReply}
	}
	return rdmframe.Frame{
		DestUID:      req.SrcUID,
		SrcUID:       r.UID,
		CommandClass: types.CCDiscoveryResp,
		PID:          req.PID,
		ParamData:    res.MuteReply,
	}
}

// HandleStandalone implements the request-handling shape shared by every
// non-sub-device, non-proxied model (spec §4.4.6): try discovery first,
// then the generic PID table walk, respecting RequiresAction/
// RequiresResponse throughout.
func HandleStandalone(def *types.ResponderDefinition, r *types.Responder, req rdmframe.Frame) (rdmframe.Frame, bool) {
	if res, handled := HandleDiscovery(r, req); handled {
		if !res.Respond {
			return rdmframe.Frame{}, false
		}
		return DiscoveryReply(r, req, res), true
	}
	if !r.UID.RequiresAction(req.DestUID) {
		return rdmframe.Frame{}, false
	}
	resp := Dispatch(def, r, req)
	if !r.UID.RequiresResponse(req.DestUID) {
		return rdmframe.Frame{}, false
	}
	return resp, true
}
