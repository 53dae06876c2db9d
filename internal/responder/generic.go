package responder

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

// BoolHandlers builds a GET/SET pair for a single-byte boolean PID (spec
// §4.4.4): GET ignores its (empty) parameter and returns 0x00/0x01; SET
// requires exactly one byte holding 0x00 or 0x01.
func BoolHandlers(get func() bool, set func(bool)) (types.PIDHandler, types.PIDHandler) {
	g := func(_ []byte) ([]byte, uint16, bool) {
		if get() {
			return []byte{1}, 0, false
		}
		return []byte{0}, 0, false
	}
	s := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		if params[0] > 1 {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		set(params[0] != 0)
		return nil, 0, false
	}
	return g, s
}

// UInt8Handlers builds a GET/SET pair for a single-byte integer PID. set
// returns false to reject an out-of-range value, leaving the field
// unchanged.
func UInt8Handlers(get func() uint8, set func(uint8) bool) (types.PIDHandler, types.PIDHandler) {
	g := func(_ []byte) ([]byte, uint16, bool) { return []byte{get()}, 0, false }
	s := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		if !set(params[0]) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		return nil, 0, false
	}
	return g, s
}

// UInt32Handlers builds a GET/SET pair for a 4-byte big-endian integer PID.
func UInt32Handlers(get func() uint32, set func(uint32) bool) (types.PIDHandler, types.PIDHandler) {
	g := func(_ []byte) ([]byte, uint16, bool) {
		v := get()
		return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}, 0, false
	}
	s := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 4 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		v := uint32(params[0])<<24 | uint32(params[1])<<16 | uint32(params[2])<<8 | uint32(params[3])
		if !set(v) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		return nil, 0, false
	}
	return g, s
}

// StringHandlers builds a GET/SET pair for a bounded label/description PID
// backed by a fixed-size buffer (spec §4.4.4, firmware/src/rdm_util.c's
// bounded label copy). GET trims the buffer at its first zero byte
// (matching what CopyLabel leaves behind for a shorter-than-max write);
// SET never requires or adds a NUL.
func StringHandlers(buf []byte) (types.PIDHandler, types.PIDHandler) {
	g := func(_ []byte) ([]byte, uint16, bool) {
		n := 0
		for n < len(buf) && buf[n] != 0 {
			n++
		}
		return append([]byte(nil), buf[:n]...), 0, false
	}
	s := func(params []byte) ([]byte, uint16, bool) {
		if len(params) > len(buf) {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		rdmframe.CopyLabel(buf, params)
		return nil, 0, false
	}
	return g, s
}

// SensorValueHandlers builds the GET/SET pair for SENSOR_VALUE (spec
// §4.4.4, E1.20 §10.7.2). GET requires a single valid sensor index and
// returns {index, present(int16 BE), lowest, highest, recorded}; an index
// out of range NACKs DATA_OUT_OF_RANGE, and a valid index whose sensor has
// ShouldNack set NACKs with that sensor's NackReason (spec's
// simulated-fault sensor). SET NACKs with the first faulted sensor's
// NackReason whenever any sensor has ShouldNack set, before the index is
// examined. Otherwise SET's index 0xFF resets every sensor whose
// SupportsRecord allows it; any other index resets just that sensor, each
// obeying the same mask.
func SensorValueHandlers(sensors []types.SensorData) (types.PIDHandler, types.PIDHandler) {
	faulted := func() (uint16, bool) {
		for _, s := range sensors {
			if s.ShouldNack {
				return s.NackReason, true
			}
		}
		return 0, false
	}
	// types.SensorData has no separate "live reading" field distinct from
	// Recorded -- models sample directly into Recorded from their Tasks()
	// tick, so present_value and recorded_value are reported identically.
	encode := func(idx int, s types.SensorData) []byte {
		return []byte{
			byte(idx),
			byte(uint16(s.Recorded) >> 8), byte(uint16(s.Recorded)),
			byte(uint16(s.Lowest) >> 8), byte(uint16(s.Lowest)),
			byte(uint16(s.Highest) >> 8), byte(uint16(s.Highest)),
			byte(uint16(s.Recorded) >> 8), byte(uint16(s.Recorded)),
		}
	}
	g := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		idx := int(params[0])
		if idx < 0 || idx >= len(sensors) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		if sensors[idx].ShouldNack {
			return nil, sensors[idx].NackReason, true
		}
		return encode(idx, sensors[idx]), 0, false
	}
	s := func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		if reason, bad := faulted(); bad {
			return nil, reason, true
		}
		idx := int(params[0])
		if idx == 0xFF {
			for i := range sensors {
				if sensors[i].SupportsRecord {
					resetSensor(&sensors[i])
				}
			}
			return nil, 0, false
		}
		if idx < 0 || idx >= len(sensors) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		if sensors[idx].SupportsRecord {
			resetSensor(&sensors[idx])
		}
		return encode(idx, sensors[idx]), 0, false
	}
	return g, s
}

func resetSensor(s *types.SensorData) {
	s.Lowest = s.Recorded
	s.Highest = s.Recorded
}

// RecordSensorsHandler implements RECORD_SENSORS (E1.20 §10.7.3): sample
// the present value into the recorded slot for every sensor whose mask
// allows it, or just one sensor for a specific index.
func RecordSensorsHandler(sensors []types.SensorData, sample func(idx int) int16) types.PIDHandler {
	return func(params []byte) ([]byte, uint16, bool) {
		if len(params) != 1 {
			return nil, uint16(rdmframe.NackFormatError), true
		}
		idx := int(params[0])
		if idx == 0xFF {
			for i := range sensors {
				if sensors[i].SupportsRecord {
					sensors[i].Recorded = sample(i)
				}
			}
			return nil, 0, false
		}
		if idx < 0 || idx >= len(sensors) {
			return nil, uint16(rdmframe.NackDataOutOfRange), true
		}
		if sensors[idx].SupportsRecord {
			sensors[idx].Recorded = sample(idx)
		}
		return nil, 0, false
	}
}
