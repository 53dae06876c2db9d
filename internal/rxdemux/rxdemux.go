// Package rxdemux implements the responder-mode inbound byte demultiplexer
// of spec §4.3: a byte-level Mealy machine, separate from the
// transceiver's own RX path, that classifies each incoming frame as DMX,
// RDM, or "alternate start code" (ASC) and validates RDM frames
// incrementally as bytes arrive.
package rxdemux

import (
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/x/mathx"
)

// State is one node of the byte-level receive state machine (spec §4.3).
type State uint8

const (
	StartCode State = iota
	DMXData
	RDMSubStartCode
	RDMMessageLength
	RDMBody
	RDMChecksumLo
	RDMChecksumHi
	Discard
)

func (s State) String() string {
	switch s {
	case StartCode:
		return "START_CODE"
	case DMXData:
		return "DMX_DATA"
	case RDMSubStartCode:
		return "RDM_SUB_START_CODE"
	case RDMMessageLength:
		return "RDM_MESSAGE_LENGTH"
	case RDMBody:
		return "RDM_BODY"
	case RDMChecksumLo:
		return "RDM_CHECKSUM_LO"
	case RDMChecksumHi:
		return "RDM_CHECKSUM_HI"
	case Discard:
		return "DISCARD"
	default:
		return "UNKNOWN"
	}
}

// Counters holds the group-resettable frame and error counters spec §4.3
// requires be exposed to the host.
type Counters struct {
	DMXFrames uint32
	ASCFrames uint32
	RDMFrames uint32

	RDMSubStartCodeInvalid  uint32
	RDMMsgLenInvalid        uint32
	RDMParamDataLenInvalid  uint32
	RDMChecksumInvalid      uint32

	LastDMXChecksum byte
	MinSlotCount    int
	MaxSlotCount    int
	LastSlotCount   int
}

// Demux is the receive demultiplexer. The zero value is ready to use.
type Demux struct {
	state State

	rdmBuf    []byte // sub-start-code byte onward, header+body+checksum
	msgLen    int
	checksum  uint16

	dmxChecksum   byte
	dmxSlotCount  int
	haveDMXFrame  bool

	counters Counters

	onRDMFrame func(frame []byte)
}

// OnRDMFrame registers the handler invoked with a complete, checksum-valid
// RDM frame (start code through checksum inclusive).
func (d *Demux) OnRDMFrame(fn func(frame []byte)) { d.onRDMFrame = fn }

// Counters returns a copy of the current counter set.
func (d *Demux) Counters() Counters { return d.counters }

// ResetCounters zeroes every counter as a group (spec §4.3).
func (d *Demux) ResetCounters() { d.counters = Counters{} }

// StartFrame signals RX_START_FRAME: a new incoming frame's start code is
// about to be delivered. Per spec §4.3, a DMX frame's slot count is only
// knowable once the *next* frame starts (DMX has no end-of-frame marker),
// so this is where the previous DMX frame's min/max/last counters are
// finalized.
func (d *Demux) StartFrame() {
	if d.haveDMXFrame {
		d.finalizeDMXFrame()
	}
	d.state = StartCode
	d.rdmBuf = d.rdmBuf[:0]
	d.msgLen = 0
	d.checksum = 0
}

func (d *Demux) finalizeDMXFrame() {
	d.counters.LastDMXChecksum = d.dmxChecksum
	d.counters.LastSlotCount = d.dmxSlotCount
	if d.counters.MinSlotCount == 0 || d.dmxSlotCount < d.counters.MinSlotCount {
		d.counters.MinSlotCount = d.dmxSlotCount
	}
	d.counters.MaxSlotCount = mathx.Max(d.counters.MaxSlotCount, d.dmxSlotCount)
	d.haveDMXFrame = false
	d.dmxChecksum = 0
	d.dmxSlotCount = 0
}

// ContinueByte delivers RX_CONTINUE_FRAME: one more byte of the
// in-progress frame.
func (d *Demux) ContinueByte(b byte) {
	switch d.state {
	case StartCode:
		switch b {
		case rdmframe.StartCodeDMX:
			d.counters.DMXFrames++
			d.haveDMXFrame = true
			d.dmxChecksum = 0
			d.dmxSlotCount = 0
			d.state = DMXData
		case rdmframe.StartCodeRDM:
			d.counters.RDMFrames++
			d.checksum = uint16(b)
			d.state = RDMSubStartCode
		default:
			d.counters.ASCFrames++
			d.state = Discard
		}

	case DMXData:
		d.dmxChecksum += b
		d.dmxSlotCount++

	case RDMSubStartCode:
		if b != rdmframe.SubStartCode {
			d.counters.RDMSubStartCodeInvalid++
			d.state = Discard
			return
		}
		d.rdmBuf = append(d.rdmBuf, b)
		d.checksum += uint16(b)
		d.state = RDMMessageLength

	case RDMMessageLength:
		if int(b) < rdmframe.MinMessageLength {
			d.counters.RDMMsgLenInvalid++
			d.state = Discard
			return
		}
		d.msgLen = int(b)
		d.rdmBuf = append(d.rdmBuf, b)
		d.checksum += uint16(b)
		d.state = RDMBody

	case RDMBody:
		d.rdmBuf = append(d.rdmBuf, b)
		d.checksum += uint16(b)
		// body = sub-start-code + message_length + (header-2) bytes +
		// param_data; the param-data-length byte sits at offset
		// HeaderSize-2 within rdmBuf (0-indexed: [sub_start, msg_len, ...]).
		if len(d.rdmBuf) == rdmframe.HeaderSize-1 {
			pdl := int(b)
			want := d.msgLen - rdmframe.HeaderSize
			if pdl != want {
				d.counters.RDMParamDataLenInvalid++
				d.state = Discard
				return
			}
		}
		if len(d.rdmBuf) == d.msgLen-1 {
			d.state = RDMChecksumHi
		}

	case RDMChecksumHi:
		d.rdmBuf = append(d.rdmBuf, b)
		d.state = RDMChecksumLo

	case RDMChecksumLo:
		d.rdmBuf = append(d.rdmBuf, b)
		got := uint16(d.rdmBuf[len(d.rdmBuf)-2])<<8 | uint16(b)
		if got != d.checksum {
			d.counters.RDMChecksumInvalid++
			d.state = Discard
			return
		}
		if d.onRDMFrame != nil {
			frame := append([]byte{rdmframe.StartCodeRDM}, d.rdmBuf...)
			d.onRDMFrame(frame)
		}
		d.state = Discard

	case Discard:
		// absorb until the next StartFrame
	}
}

// State returns the current byte-machine state, for tests and diagnostics.
func (d *Demux) State() State { return d.state }
