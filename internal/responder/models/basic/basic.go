// Package basic implements spec §4.4.6's simplest responder model: the
// shared PID base (internal/responder.CommonPIDs) and nothing else. It
// exists to exercise the registry/dispatch path with no model-specific
// state, the way services/hal keeps a "noop" driver around
// to validate the registry itself.
package basic

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0100
	ProductCategory = 0x0101 // FIXTURE_FIXED
)

// Model is the basic responder: one Responder, no sub-devices, no sensors.
type Model struct {
	def *types.ResponderDefinition
	r   *types.Responder
}

// New builds a basic responder model bound to uid.
func New(uid types.UID) *Model {
	m := &Model{
		def: &types.ResponderDefinition{
			SoftwareVersionLabel: "1.0.0",
			ManufacturerLabel:    "Ja Rule",
			ModelDescription:     "Basic RDM Responder",
			ModelID:              ModelID,
			ProductCategory:      ProductCategory,
			SoftwareVersion:      0x01000000,
		},
		r: &types.Responder{UID: uid, DMXStartAddress: 1},
	}
	m.def.PIDTable = responder.BuildTable(m.def, m.r, nil)
	m.r.Definition = m.def
	return m
}

func (m *Model) Name() string { return "basic" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	switch cmd {
	case "uid":
		return m.r.UID, nil
	default:
		return nil, nil
	}
}

// HandleRequest dispatches a request: discovery first (spec §4.4.3), then
// the generic GET/SET table walk (spec §4.4.2). Returns ok=false for a
// broadcast/vendorcast request this responder must act on but never
// answer on the wire.
func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	return responder.HandleStandalone(m.def, m.r, req)
}

func (m *Model) Tasks() {}
