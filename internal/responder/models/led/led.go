// Package led implements spec §4.4.6's LED fixture model: a pixel
// count/type pair on top of the shared responder base, using manufacturer
// PIDs the way firmware/src/led_model.c does (grounded via
// internal/responder's generic handler constructors).
package led

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0101
	ProductCategory = 0x0202 // FIXTURE_MOVING_YOKE (closest stock category for an LED pixel bar)

	// PIDPixelCount/PIDPixelType are manufacturer-specific PIDs (top bit of
	// the 0x8000 manufacturer range set), spec §4.4.6.
	PIDPixelCount uint16 = 0x8000
	PIDPixelType  uint16 = 0x8001
)

// PixelType enumerates the simulated LED chip families this model reports.
type PixelType uint8

const (
	PixelTypeRGB  PixelType = 0
	PixelTypeRGBW PixelType = 1
	PixelTypeRGBA PixelType = 2
)

// Model is the LED fixture responder.
type Model struct {
	def        *types.ResponderDefinition
	r          *types.Responder
	pixelCount uint16
	pixelType  PixelType
}

// New builds an LED model bound to uid with an initial pixel count.
func New(uid types.UID, pixelCount uint16) *Model {
	m := &Model{pixelCount: pixelCount, pixelType: PixelTypeRGB}
	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "1.0.0",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "LED Pixel Bar",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0x01000000,
		Personalities: []types.Personality{
			{Footprint: pixelCount * 3, Description: "RGB"},
			{Footprint: pixelCount * 4, Description: "RGBW"},
		},
	}
	m.r = &types.Responder{UID: uid, DMXStartAddress: 1, PersonalityIndex: 1}

	countGet, countSet := responder.UInt8Handlers(
		func() uint8 { return uint8(m.pixelCount) },
		func(v uint8) bool { m.pixelCount = uint16(v); return true },
	)
	typeGet, typeSet := responder.UInt8Handlers(
		func() uint8 { return uint8(m.pixelType) },
		func(v uint8) bool {
			if v > uint8(PixelTypeRGBA) {
				return false
			}
			m.pixelType = PixelType(v)
			return true
		},
	)

	m.def.PIDTable = responder.BuildTable(m.def, m.r, []types.PIDDescriptor{
		{PID: PIDPixelCount, GetParamSize: 0, Get: countGet, Set: countSet},
		{PID: PIDPixelType, GetParamSize: 0, Get: typeGet, Set: typeSet},
	})
	m.r.Definition = m.def
	return m
}

func (m *Model) Name() string { return "led" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "pixel_count" {
		return m.pixelCount, nil
	}
	return nil, nil
}

func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	return responder.HandleStandalone(m.def, m.r, req)
}

func (m *Model) Tasks() {}
