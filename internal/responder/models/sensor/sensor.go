// Package sensor implements spec §4.4.6's sensor responder: three
// simulated sensors, one of which always NACKs with HARDWARE_FAULT,
// built entirely from internal/responder's generic sensor handler
// constructors.
package sensor

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0106
	ProductCategory = 0x0701 // SENSOR

	// SensorCount is the fixed number of simulated sensors (spec §4.4.6).
	SensorCount = 3
	// faultySensorIndex is the sensor that always NACKs HARDWARE_FAULT.
	faultySensorIndex = 1
)

// Model is the sensor responder.
type Model struct {
	def     *types.ResponderDefinition
	r       *types.Responder
	sensors []types.SensorData
}

// New builds a sensor model bound to uid with SensorCount simulated
// sensors, the second of which (index 1) always NACKs HARDWARE_FAULT.
func New(uid types.UID) *Model {
	m := &Model{
		sensors: make([]types.SensorData, SensorCount),
	}
	for i := range m.sensors {
		m.sensors[i] = types.SensorData{SupportsRecord: true, Lowest: 20, Highest: 20, Recorded: 20}
	}
	m.sensors[faultySensorIndex] = types.SensorData{
		ShouldNack: true,
		NackReason: uint16(rdmframe.NackHardwareFault),
	}

	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "1.0.0",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "Sensor Responder",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0x01000000,
		Sensors: []types.SensorDefinition{
			{Type: 0x00, Unit: 0x00, Prefix: 0x00, RangeMin: -40, RangeMax: 100, NormalMin: 0, NormalMax: 60, RecordedSupported: true, Description: "Ambient Temperature"},
			{Type: 0x00, Unit: 0x00, Prefix: 0x00, RangeMin: -40, RangeMax: 100, NormalMin: 0, NormalMax: 60, RecordedSupported: true, Description: "Faulty Sensor"},
			{Type: 0x04, Unit: 0x04, Prefix: 0x00, RangeMin: 0, RangeMax: 100, NormalMin: 0, NormalMax: 80, RecordedSupported: true, Description: "Humidity"},
		},
	}
	m.r = &types.Responder{UID: uid, DMXStartAddress: types.InvalidAddress}

	valueGet, valueSet := responder.SensorValueHandlers(m.sensors)
	recordHandler := responder.RecordSensorsHandler(m.sensors, func(idx int) int16 { return m.sensors[idx].Recorded })

	m.def.PIDTable = responder.BuildTable(m.def, m.r, []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDSensorDefinition), GetParamSize: 1, Get: m.getSensorDefinition},
		{PID: uint16(rdmframe.PIDSensorValue), GetParamSize: 1, Get: valueGet, Set: valueSet},
		{PID: uint16(rdmframe.PIDRecordSensors), Set: recordHandler},
	})
	m.r.Definition = m.def
	return m
}

func (m *Model) getSensorDefinition(params []byte) ([]byte, uint16, bool) {
	if len(params) != 1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	idx := int(params[0])
	if idx < 0 || idx >= len(m.def.Sensors) {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	d := m.def.Sensors[idx]
	out := []byte{
		byte(idx), d.Type, d.Unit, d.Prefix,
		byte(uint16(d.RangeMin) >> 8), byte(uint16(d.RangeMin)),
		byte(uint16(d.RangeMax) >> 8), byte(uint16(d.RangeMax)),
		byte(uint16(d.NormalMin) >> 8), byte(uint16(d.NormalMin)),
		byte(uint16(d.NormalMax) >> 8), byte(uint16(d.NormalMax)),
		boolByte(d.RecordedSupported),
	}
	return append(out, []byte(d.Description)...), 0, false
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (m *Model) Name() string { return "sensor" }
func (m *Model) Activate()    {}
func (m *Model) Deactivate()  {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "uid" {
		return m.r.UID, nil
	}
	return nil, nil
}

func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	return responder.HandleStandalone(m.def, m.r, req)
}

func (m *Model) Tasks() {}
