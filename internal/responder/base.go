package responder

import (
	"golang.org/x/exp/slices"

	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

// ProtocolVersionMajor/Minor is the RDM protocol version DEVICE_INFO
// reports (E1.20 §3, currently 1.0).
const (
	ProtocolVersionMajor = 1
	ProtocolVersionMinor = 0
)

// BuildTable assembles a sorted PID descriptor table from the base rows
// every model shares (CommonPIDs) plus a model's own rows, per SPEC_FULL.md
// open question 2: the table ships sorted ascending by PID even though
// dispatch walks it linearly.
func BuildTable(def *types.ResponderDefinition, r *types.Responder, extra []types.PIDDescriptor) []types.PIDDescriptor {
	rows := append(CommonPIDs(def, r), extra...)
	slices.SortFunc(rows, func(a, b types.PIDDescriptor) int { return int(a.PID) - int(b.PID) })
	return rows
}

// CommonPIDs builds the PID rows spec §4.4.4's "RDM responder base" shares
// across every concrete model: DEVICE_INFO, SUPPORTED_PARAMETERS,
// SOFTWARE_VERSION_LABEL, MANUFACTURER_LABEL, DEVICE_MODEL_DESCRIPTION,
// PRODUCT_DETAIL_ID_LIST, DEVICE_LABEL, IDENTIFY_DEVICE, DMX_START_ADDRESS
// and, when the definition carries any, DMX_PERSONALITY(_DESCRIPTION).
func CommonPIDs(def *types.ResponderDefinition, r *types.Responder) []types.PIDDescriptor {
	rows := []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDDeviceInfo), GetParamSize: 0, Get: deviceInfoHandler(def, r)},
		{PID: uint16(rdmframe.PIDSupportedParameters), GetParamSize: 0, Get: supportedParamsHandler(def)},
		{PID: uint16(rdmframe.PIDSoftwareVersionLabel), GetParamSize: 0, Get: constStringHandler(def.SoftwareVersionLabel)},
		{PID: uint16(rdmframe.PIDManufacturerLabel), GetParamSize: 0, Get: constStringHandler(def.ManufacturerLabel)},
		{PID: uint16(rdmframe.PIDDeviceModelDescription), GetParamSize: 0, Get: constStringHandler(def.ModelDescription)},
		{PID: uint16(rdmframe.PIDProductDetailIDList), GetParamSize: 0, Get: productDetailHandler(def)},
		{PID: uint16(rdmframe.PIDDMXStartAddress), GetParamSize: 0, Get: dmxStartAddressGet(r), Set: dmxStartAddressSet(def, r)},
	}

	labelGet, labelSet := StringHandlers(r.DeviceLabel[:])
	rows = append(rows, types.PIDDescriptor{PID: uint16(rdmframe.PIDDeviceLabel), Get: labelGet, Set: labelSet})

	identGet, identSet := BoolHandlers(func() bool { return r.Identify }, func(v bool) { r.Identify = v })
	rows = append(rows, types.PIDDescriptor{PID: uint16(rdmframe.PIDIdentifyDevice), GetParamSize: 0, Get: identGet, Set: identSet})

	if len(def.Personalities) > 0 {
		rows = append(rows, personalityPIDs(def, r)...)
	}

	return rows
}

func deviceInfoHandler(def *types.ResponderDefinition, r *types.Responder) types.PIDHandler {
	return func(_ []byte) ([]byte, uint16, bool) {
		footprint := uint16(0)
		personalityCount := uint8(len(def.Personalities))
		if r.PersonalityIndex >= 1 && int(r.PersonalityIndex) <= len(def.Personalities) {
			footprint = def.Personalities[r.PersonalityIndex-1].Footprint
		}
		out := []byte{
			ProtocolVersionMajor, ProtocolVersionMinor,
			byte(def.ModelID >> 8), byte(def.ModelID),
			byte(def.ProductCategory >> 8), byte(def.ProductCategory),
			byte(def.SoftwareVersion >> 24), byte(def.SoftwareVersion >> 16), byte(def.SoftwareVersion >> 8), byte(def.SoftwareVersion),
			byte(footprint >> 8), byte(footprint),
			r.PersonalityIndex, personalityCount,
			byte(r.DMXStartAddress >> 8), byte(r.DMXStartAddress),
			byte(r.SubDeviceCount >> 8), byte(r.SubDeviceCount),
			uint8(len(r.Sensors)),
		}
		return out, 0, false
	}
}

func supportedParamsHandler(def *types.ResponderDefinition) types.PIDHandler {
	return func(_ []byte) ([]byte, uint16, bool) {
		var out []byte
		for _, d := range def.PIDTable {
			switch rdmframe.PID(d.PID) {
			case rdmframe.PIDDeviceInfo, rdmframe.PIDSupportedParameters, rdmframe.PIDSoftwareVersionLabel,
				rdmframe.PIDManufacturerLabel, rdmframe.PIDDeviceModelDescription, rdmframe.PIDProductDetailIDList,
				rdmframe.PIDDeviceLabel, rdmframe.PIDIdentifyDevice, rdmframe.PIDDMXStartAddress:
				continue // never listed: every responder supports these (E1.20 §3)
			}
			out = append(out, byte(d.PID>>8), byte(d.PID))
		}
		return out, 0, false
	}
}

func constStringHandler(s string) types.PIDHandler {
	return func(_ []byte) ([]byte, uint16, bool) { return []byte(s), 0, false }
}

func productDetailHandler(def *types.ResponderDefinition) types.PIDHandler {
	return func(_ []byte) ([]byte, uint16, bool) {
		out := make([]byte, 0, len(def.ProductDetailIDs)*2)
		for _, id := range def.ProductDetailIDs {
			out = append(out, byte(id>>8), byte(id))
		}
		return out, 0, false
	}
}

func dmxStartAddressGet(r *types.Responder) types.PIDHandler {
	return func(_ []byte) ([]byte, uint16, bool) {
		return []byte{byte(r.DMXStartAddress >> 8), byte(r.DMXStartAddress)}, 0, false
	}
}

func dmxStartAddressSet(def *types.ResponderDefinition, r *types.Responder) types.PIDHandler {
	return func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 2 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		addr := uint16(params[0])<<8 | uint16(params[1])
		footprint := currentFootprint(def, r)
		if addr < 1 || (footprint > 0 && int(addr)+int(footprint)-1 > 512) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		r.DMXStartAddress = addr
		return nil, 0, false
	}
}

func currentFootprint(def *types.ResponderDefinition, r *types.Responder) uint16 {
	if r.PersonalityIndex < 1 || int(r.PersonalityIndex) > len(def.Personalities) {
		return 0
	}
	return def.Personalities[r.PersonalityIndex-1].Footprint
}

func personalityPIDs(def *types.ResponderDefinition, r *types.Responder) []types.PIDDescriptor {
	get := func(_ []byte) ([]byte, uint16, bool) {
		return []byte{r.PersonalityIndex, uint8(len(def.Personalities))}, 0, false
	}
	set := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		idx := params[0]
		if idx < 1 || int(idx) > len(def.Personalities) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		r.PersonalityIndex = idx
		r.DMXStartAddress = 1
		return nil, 0, false
	}
	describe := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		idx := int(params[0])
		if idx < 1 || idx > len(def.Personalities) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		p := def.Personalities[idx-1]
		out := []byte{byte(idx), byte(p.Footprint >> 8), byte(p.Footprint)}
		return append(out, []byte(p.Description)...), 0, false
	}
	return []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDDMXPersonality), GetParamSize: 0, Get: get, Set: set},
		{PID: uint16(rdmframe.PIDDMXPersonalityDescription), GetParamSize: 1, Get: describe},
	}
}
