package responder

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

// Dispatch implements spec §4.4.2's GET/SET dispatch against a responder's
// PID descriptor table. Callers are expected to have already established
// that r.RequiresAction(req.DestUID) holds (see types.UID.RequiresAction);
// Dispatch always builds a reply frame (so SET side effects run even for
// a broadcast/vendorcast request), and it is the caller's job to decide,
// via r.RequiresResponse, whether the reply actually goes on the wire.
func Dispatch(def *types.ResponderDefinition, r *types.Responder, req rdmframe.Frame) rdmframe.Frame {
	switch req.CommandClass {
	case types.CCGet:
		return dispatchGet(def, r, req)
	case types.CCSet:
		return dispatchSet(def, r, req)
	default:
		return nackFrame(r, req, types.CCGetResp, rdmframe.NackUnsupportedCommandClass)
	}
}

func findPID(def *types.ResponderDefinition, pid uint16) (types.PIDDescriptor, bool) {
	for _, d := range def.PIDTable {
		if d.PID == pid {
			return d, true
		}
	}
	return types.PIDDescriptor{}, false
}

func dispatchGet(def *types.ResponderDefinition, r *types.Responder, req rdmframe.Frame) rdmframe.Frame {
	d, found := findPID(def, req.PID)
	if !found {
		return nackFrame(r, req, types.CCGetResp, rdmframe.NackUnknownPID)
	}
	if d.Get == nil {
		return nackFrame(r, req, types.CCGetResp, rdmframe.NackUnsupportedCommandClass)
	}
	if d.GetParamSize >= 0 && len(req.ParamData) != d.GetParamSize {
		return nackFrame(r, req, types.CCGetResp, rdmframe.NackFormatError)
	}
	resp, nack, hasNack := d.Get(req.ParamData)
	if hasNack {
		return nackFrame(r, req, types.CCGetResp, rdmframe.NackReason(nack))
	}
	return ackFrame(r, req, types.CCGetResp, resp)
}

func dispatchSet(def *types.ResponderDefinition, r *types.Responder, req rdmframe.Frame) rdmframe.Frame {
	d, found := findPID(def, req.PID)
	if !found {
		return nackFrame(r, req, types.CCSetResp, rdmframe.NackUnknownPID)
	}
	if d.Set == nil {
		return nackFrame(r, req, types.CCSetResp, rdmframe.NackUnsupportedCommandClass)
	}
	resp, nack, hasNack := d.Set(req.ParamData)
	if hasNack {
		return nackFrame(r, req, types.CCSetResp, rdmframe.NackReason(nack))
	}
	return ackFrame(r, req, types.CCSetResp, resp)
}

func ackFrame(r *types.Responder, req rdmframe.Frame, cc types.CommandClass, payload []byte) rdmframe.Frame {
	return rdmframe.Frame{
		DestUID:           req.SrcUID,
		SrcUID:            r.UID,
		TransactionNumber: req.TransactionNumber,
		PortOrResponse:    uint8(types.ResponseAck),
		SubDevice:         req.SubDevice,
		CommandClass:      cc,
		PID:               req.PID,
		ParamData:         payload,
	}
}

func nackFrame(r *types.Responder, req rdmframe.Frame, cc types.CommandClass, reason rdmframe.NackReason) rdmframe.Frame {
	return rdmframe.Frame{
		DestUID:           req.SrcUID,
		SrcUID:            r.UID,
		TransactionNumber: req.TransactionNumber,
		PortOrResponse:    uint8(types.ResponseNackReason),
		SubDevice:         req.SubDevice,
		CommandClass:      cc,
		PID:               req.PID,
		ParamData:         []byte{byte(reason >> 8), byte(reason)},
	}
}
