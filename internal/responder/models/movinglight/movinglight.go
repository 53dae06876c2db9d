// Package movinglight implements spec §4.4.6's moving-light fixture: a
// lamp state machine with a 5s strike delay, pan/tilt invert/swap, and
// power state, grounded on firmware/src/moving_light.c (carried whole per
// SPEC_FULL.md §3, including the ON->STRIKE->ON timing and lamp-strike
// counting the distillation only summarized).
package movinglight

import (
	"ja-rule-go/internal/coarsetimer"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/responder"
	"ja-rule-go/types"
)

const (
	ModelID         = 0x0103
	ProductCategory = 0x0203 // FIXTURE_MOVING_MIRROR

	// lampStrikeDelayTenthsMs is the 5s LAMP_STRIKE_DELAY from
	// firmware/src/moving_light.c (there expressed in the firmware's own
	// coarse-timer units; here in internal/coarsetimer's tenths-of-a-
	// millisecond ticks: 5s = 50000 tenths-of-ms).
	lampStrikeDelayTenthsMs = 50000
)

// LampState mirrors firmware/src/moving_light.h's lamp_state enum.
type LampState uint8

const (
	LampOff    LampState = 0
	LampOn     LampState = 1
	LampStrike LampState = 2
)

// LampOnMode mirrors lamp_on_mode.
type LampOnMode uint8

const (
	LampOnModeOff        LampOnMode = 0
	LampOnModeDMX        LampOnMode = 1
	LampOnModeOn         LampOnMode = 2
	LampOnModeOnAfterCal LampOnMode = 3
)

// PowerState mirrors E1.20's POWER_STATE values.
type PowerState uint8

const (
	PowerStateFullOff PowerState = 0
	PowerStateShutoff PowerState = 1
	PowerStateStandby PowerState = 2
	PowerStateNormal  PowerState = 3
)

// DisplayInvert mirrors display_invert.
type DisplayInvert uint8

const (
	DisplayInvertOff  DisplayInvert = 0
	DisplayInvertOn   DisplayInvert = 1
	DisplayInvertAuto DisplayInvert = 2
)

type state struct {
	deviceHours       uint32
	lampHours         uint32
	lampStrikes       uint32
	devicePowerCycles uint32
	lampStrikeTime    coarsetimer.Timestamp
	lampState         LampState
	lampOnMode        LampOnMode
	displayLevel      uint8
	displayInvert     DisplayInvert
	powerState        PowerState
	panInvert         bool
	tiltInvert        bool
	panTiltSwap       bool
}

// Model is the moving-light responder.
type Model struct {
	def   *types.ResponderDefinition
	r     *types.Responder
	clock *coarsetimer.Timer
	st    state
}

// New builds a moving-light model bound to uid, ticked by clock (spec
// §4.4.6's 5s lamp strike delay is measured against clock, not wall time).
func New(uid types.UID, clock *coarsetimer.Timer) *Model {
	m := &Model{
		clock: clock,
		st: state{
			lampOnMode:   LampOnModeOn,
			displayLevel: 255,
			powerState:   PowerStateNormal,
		},
	}
	m.def = &types.ResponderDefinition{
		SoftwareVersionLabel: "Alpha",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "Ja Rule Moving Light",
		DefaultDeviceLabel:   "Default Label",
		ModelID:              ModelID,
		ProductCategory:      ProductCategory,
		SoftwareVersion:      0,
		ProductDetailIDs:     []uint16{0x0001, 0x0004, 0x0006}, // TEST, CHANGEOVER_MANUAL, LED
	}
	m.r = &types.Responder{UID: uid, DMXStartAddress: types.InvalidAddress}

	m.def.PIDTable = responder.BuildTable(m.def, m.r, m.pidRows())
	rdmframe.CopyLabel(m.r.DeviceLabel[:], []byte(m.def.DefaultDeviceLabel))
	m.r.Definition = m.def
	return m
}

func (m *Model) pidRows() []types.PIDDescriptor {
	u32 := func(get func() uint32, set func(uint32)) (types.PIDHandler, types.PIDHandler) {
		return responder.UInt32Handlers(get, func(v uint32) bool { set(v); return true })
	}
	deviceHoursGet, deviceHoursSet := u32(func() uint32 { return m.st.deviceHours }, func(v uint32) { m.st.deviceHours = v })
	lampHoursGet, lampHoursSet := u32(func() uint32 { return m.st.lampHours }, func(v uint32) { m.st.lampHours = v })
	lampStrikesGet, lampStrikesSet := u32(func() uint32 { return m.st.lampStrikes }, func(v uint32) { m.st.lampStrikes = v })
	powerCyclesGet, powerCyclesSet := u32(func() uint32 { return m.st.devicePowerCycles }, func(v uint32) { m.st.devicePowerCycles = v })

	displayLevelGet, displayLevelSet := responder.UInt8Handlers(
		func() uint8 { return m.st.displayLevel },
		func(v uint8) bool { m.st.displayLevel = v; return true },
	)
	panInvertGet, panInvertSet := responder.BoolHandlers(func() bool { return m.st.panInvert }, func(v bool) { m.st.panInvert = v })
	tiltInvertGet, tiltInvertSet := responder.BoolHandlers(func() bool { return m.st.tiltInvert }, func(v bool) { m.st.tiltInvert = v })
	panTiltSwapGet, panTiltSwapSet := responder.BoolHandlers(func() bool { return m.st.panTiltSwap }, func(v bool) { m.st.panTiltSwap = v })

	return []types.PIDDescriptor{
		{PID: uint16(rdmframe.PIDDeviceHours), GetParamSize: 0, Get: deviceHoursGet, Set: deviceHoursSet},
		{PID: pidLampHours, GetParamSize: 0, Get: lampHoursGet, Set: lampHoursSet},
		{PID: pidLampStrikes, GetParamSize: 0, Get: lampStrikesGet, Set: lampStrikesSet},
		{PID: pidDevicePowerCycles, GetParamSize: 0, Get: powerCyclesGet, Set: powerCyclesSet},
		{PID: pidLampState, GetParamSize: 0, Get: func(_ []byte) ([]byte, uint16, bool) {
			return []byte{uint8(m.st.lampState)}, 0, false
		}, Set: m.setLampState},
		{PID: pidLampOnMode, GetParamSize: 0, Get: func(_ []byte) ([]byte, uint16, bool) {
			return []byte{uint8(m.st.lampOnMode)}, 0, false
		}, Set: m.setLampOnMode},
		{PID: pidDisplayInvert, GetParamSize: 0, Get: func(_ []byte) ([]byte, uint16, bool) {
			return []byte{uint8(m.st.displayInvert)}, 0, false
		}, Set: m.setDisplayInvert},
		{PID: pidDisplayLevel, GetParamSize: 0, Get: displayLevelGet, Set: displayLevelSet},
		{PID: pidPanInvert, GetParamSize: 0, Get: panInvertGet, Set: panInvertSet},
		{PID: pidTiltInvert, GetParamSize: 0, Get: tiltInvertGet, Set: tiltInvertSet},
		{PID: pidPanTiltSwap, GetParamSize: 0, Get: panTiltSwapGet, Set: panTiltSwapSet},
		{PID: uint16(rdmframe.PIDPowerState), GetParamSize: 0, Get: func(_ []byte) ([]byte, uint16, bool) {
			return []byte{uint8(m.st.powerState)}, 0, false
		}, Set: m.setPowerState},
	}
}

// Manufacturer-specific PIDs not in the standard table (spec §4.4.6; the
// original firmware assigns these from its own manufacturer ID range).
const (
	pidLampHours         uint16 = 0x8100
	pidLampStrikes       uint16 = 0x8101
	pidDevicePowerCycles uint16 = 0x8102
	pidLampState         uint16 = 0x8103
	pidLampOnMode        uint16 = 0x8104
	pidDisplayInvert     uint16 = 0x8105
	pidDisplayLevel      uint16 = 0x8106
	pidPanInvert         uint16 = 0x8107
	pidTiltInvert        uint16 = 0x8108
	pidPanTiltSwap       uint16 = 0x8109
)

func (m *Model) setLampState(params []byte) ([]byte, uint16, bool) {
	if len(params) != 1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	if params[0] > uint8(LampStrike) {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	if m.st.lampState == LampOff && LampState(params[0]) == LampOn {
		m.st.lampStrikes++
	}
	m.st.lampState = LampState(params[0])
	if m.st.lampState == LampStrike {
		m.st.lampStrikeTime = m.clock.Now()
	}
	return nil, 0, false
}

func (m *Model) setLampOnMode(params []byte) ([]byte, uint16, bool) {
	if len(params) != 1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	if params[0] > uint8(LampOnModeOnAfterCal) {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.st.lampOnMode = LampOnMode(params[0])
	return nil, 0, false
}

func (m *Model) setDisplayInvert(params []byte) ([]byte, uint16, bool) {
	if len(params) != 1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	if params[0] > uint8(DisplayInvertAuto) {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.st.displayInvert = DisplayInvert(params[0])
	return nil, 0, false
}

func (m *Model) setPowerState(params []byte) ([]byte, uint16, bool) {
	if len(params) != 1 {
		return nil, uint16(rdmframe.NackFormatError), true
	}
	if params[0] > uint8(PowerStateNormal) {
		return nil, uint16(rdmframe.NackDataOutOfRange), true
	}
	m.st.powerState = PowerState(params[0])
	return nil, 0, false
}

func (m *Model) Name() string { return "movinglight" }

func (m *Model) Activate() {
	m.st.panInvert = false
	m.st.tiltInvert = false
	m.st.panTiltSwap = false
}

func (m *Model) Deactivate() {}

func (m *Model) Ioctl(cmd string, arg any) (any, error) {
	if cmd == "uid" {
		return m.r.UID, nil
	}
	return nil, nil
}

func (m *Model) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	return responder.HandleStandalone(m.def, m.r, req)
}

// Tasks advances the lamp strike timer: once lampStrikeDelayTenthsMs has
// elapsed since entering LampStrike, the lamp settles to LampOn.
func (m *Model) Tasks() {
	if m.st.lampState == LampStrike && m.clock.HasElapsed(m.st.lampStrikeTime, lampStrikeDelayTenthsMs) {
		m.st.lampState = LampOn
		m.st.lampStrikes++
	}
}
