// Package proxy implements spec §4.4.5's RDM proxy: a first-class
// responder that additionally fronts a fixed set of child responders,
// buffering their replies behind ACK_TIMER/QUEUED_MESSAGE the way
// internal/responder/proxy.go implements. Child UIDs are synthesized from
// the proxy's own UID by overwriting the low byte with child_index+1
// (SPEC_FULL.md open question 4: a fixed convention, not generalized).
package proxy

import (
	"ja-rule-go/bus"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0105
	ProductCategory = 0x0901 // OTHER (a proxy has no single physical category)
	ChildCount      = 2
)

// Model is the proxy responder.
type Model struct {
	def      *types.ResponderDefinition
	r        *types.Responder
	children []*types.Responder
	buffers  []responder.ProxyBuffer
	conn     *bus.Connection
}

// New builds a proxy model bound to uid, fronting ChildCount basic
// children whose UIDs derive from uid per the fixed low-byte convention.
func New(uid types.UID, conn *bus.Connection) *Model {
	m := &Model{conn: conn}
	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "1.0.0",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "RDM Proxy",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0x01000000,
	}
	m.r = &types.Responder{UID: uid, DMXStartAddress: types.InvalidAddress}
	m.def.PIDTable = responder.BuildTable(m.def, m.r, []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDProxiedDeviceCount), GetParamSize: 0, Get: m.getProxiedDeviceCount},
		{PID: uint16(rdmframe.PIDProxiedDevices), GetParamSize: 0, Get: m.getProxiedDevices},
	})
	m.r.Definition = m.def

	childDef := &types.ResponderDefinition{
		SoftwareVersionLabel: "1.0.0",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "Proxied Child",
		ModelID:              ModelID,
		ProductCategory:      0x0101,
		SoftwareVersion:      0x01000000,
	}

	m.children = make([]*types.Responder, ChildCount)
	m.buffers = make([]responder.ProxyBuffer, ChildCount)
	for i := 0; i < ChildCount; i++ {
		childUID := uid
		childUID[5] = byte(i + 1)
		child := &types.Responder{UID: childUID, IsProxiedDevice: true, DMXStartAddress: types.InvalidAddress}
		child.Definition = childDef
		if childDef.PIDTable == nil {
			childDef.PIDTable = responder.BuildTable(childDef, child, nil)
		}
		m.children[i] = child
	}
	return m
}

func (m *Model) getProxiedDeviceCount(_ []byte) ([]byte, uint16, bool) {
	return []byte{0, byte(len(m.children)), 0}, 0, false
}

func (m *Model) getProxiedDevices(_ []byte) ([]byte, uint16, bool) {
	var out []byte
	for _, c := range m.children {
		out = append(out, c.UID[:]...)
	}
	return out, 0, false
}

func (m *Model) childIndex(uid types.UID) int {
	for i, c := range m.children {
		if c.UID == uid {
			return i
		}
	}
	return -1
}

func (m *Model) Name() string { return "proxy" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "child_uids" {
		uids := make([]types.UID, len(m.children))
		for i, c := range m.children {
			uids[i] = c.UID
		}
		return uids, nil
	}
	return nil, nil
}

// HandleRequest routes a request to the proxy itself, or -- if addressed
// to one of its children -- through the single-slot ACK_TIMER buffer
// (spec §4.4.5).
func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	if idx := m.childIndex(req.DestUID); idx >= 0 {
		resp := responder.DispatchProxyChild(m.children[idx].Definition, m.r, m.children[idx], &m.buffers[idx], m.conn, req)
		return resp, true
	}
	return responder.HandleStandalone(m.def, m.r, req)
}

func (m *Model) Tasks() {}
