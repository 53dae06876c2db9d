// Package dimmer implements spec §4.4.6's two-channel dimmer: a root
// responder plus two sub-devices that share block addressing via
// DMX_BLOCK_ADDRESS, grounded on firmware/src/dimmer_model.c.
package dimmer

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID          = 0x0102
	ProductCategory  = 0x0101 // FIXTURE_FIXED
	SubDeviceCount   = 2
	channelFootprint = 1
)

// Model is the two-channel dimmer.
type Model struct {
	def  *types.ResponderDefinition
	root *types.Responder
	subs []*types.Responder
}

// New builds a dimmer model bound to uid, with sub-device UIDs derived the
// same way the proxy model derives child UIDs (low byte = index + 1).
func New(uid types.UID) *Model {
	m := &Model{}
	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "1.0.0",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "2-Channel Dimmer",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0x01000000,
		Personalities: []types.Personality{
			{Footprint: channelFootprint, Description: "1 Channel"},
		},
	}
	m.root = &types.Responder{UID: uid, DMXStartAddress: types.InvalidAddress, SubDeviceCount: SubDeviceCount}

	blockGet := func(_ []byte) ([]byte, uint16, bool) {
		addr := m.blockAddress()
		return []byte{byte(SubDeviceCount >> 8), SubDeviceCount, byte(addr >> 8), byte(addr)}, 0, false
	}
	blockSet := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 2 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		addr := uint16(params[0])<<8 | uint16(params[1])
		if !m.setBlockAddress(addr) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		return nil, 0, false
	}
	m.def.PIDTable = responder.BuildTable(m.def, m.root, []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDDMXBlockAddress), GetParamSize: 0, Get: blockGet, Set: blockSet},
	})
	m.root.Definition = m.def

	m.subs = make([]*types.Responder, SubDeviceCount)
	for i := 0; i < SubDeviceCount; i++ {
		subUID := uid
		subUID[5] = byte(i + 1)
		m.subs[i] = &types.Responder{
			UID:              subUID,
			IsSubDevice:      true,
			DMXStartAddress:  uint16(1 + i),
			PersonalityIndex: 1,
			Definition:       m.def,
		}
	}
	return m
}

// blockAddress is the lowest sub-device start address (the sub-devices
// start at addresses 1 and 2, so it is never InvalidAddress).
func (m *Model) blockAddress() uint16 {
	lowest := m.subs[0].DMXStartAddress
	for _, s := range m.subs {
		if s.DMXStartAddress < lowest {
			lowest = s.DMXStartAddress
		}
	}
	return lowest
}

// setBlockAddress assigns consecutive start addresses to every sub-device
// starting at addr, rejecting an assignment that would run past slot 512.
func (m *Model) setBlockAddress(addr uint16) bool {
	if addr < 1 || int(addr)+len(m.subs)*channelFootprint-1 > 512 {
		return false
	}
	for i, s := range m.subs {
		s.DMXStartAddress = addr + uint16(i)
	}
	return true
}

func (m *Model) Name() string { return "dimmer" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "block_address" {
		return m.blockAddress(), nil
	}
	return nil, nil
}

func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	if res, handled := responder.HandleDiscovery(m.root, req); handled {
		if !res.Respond {
			return rdmframe.Frame{}, false
		}
		return responder.DiscoveryReply(m.root, req, res), true
	}
	if !m.root.UID.RequiresAction(req.DestUID) {
		// requests reach a sub-device through the root's UID plus the
		// SubDevice field (spec §3); the sub-devices' own UIDs are only
		// used as the source UID of their replies and are not matched
		// against DestUID here.
		return rdmframe.Frame{}, false
	}
	resp := responder.DispatchSubDevice(m.def, m.root, m.subs, req)
	if !m.root.UID.RequiresResponse(req.DestUID) {
		return rdmframe.Frame{}, false
	}
	return resp, true
}

func (m *Model) Tasks() {}
