// Package transport implements the host-facing framed byte protocol of
// spec §4.5: SOM/token/command/length/payload/EOM over a USB bulk pipe,
// with the single-in-flight send discipline spec §7 requires. Adapted
// from services/bridge's link-supervision shape (pluggable
// Transport.Open dial, length-prefixed framedReader/framedWriter) with
// the MQTT-ish pub/sub frame types replaced by the fixed binary framing
// this protocol actually uses.
package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"ja-rule-go/errcode"
	"ja-rule-go/internal/streamdecoder"
)

// Wire framing constants (spec §4.5).
const (
	som byte = 0x5A
	eom byte = 0xA5

	// MaxPayload bounds an inbound or outbound frame's payload: one start
	// code byte plus up to 512 DMX slots (spec §3's MaxSlotData).
	MaxPayload = 513
)

// Inbound is one fully-framed request read from the host.
type Inbound struct {
	Token   byte
	Command uint16
	Payload []byte
}

// Outbound is one response frame to write back to the host.
type Outbound struct {
	Token        byte
	Command      uint16
	ReturnCode   byte
	FlagsChanged bool
	Payload      []byte
}

// Link owns one framed connection's read/write state: an injected
// io.ReadWriter (the "USB bulk pipe" of spec §1) plus the single-in-flight
// send discipline of spec §4.5/§7. Inbound reassembly is delegated to
// internal/streamdecoder's byte-Mealy machine, fed byte by byte from
// blocking rw.Read calls; the hardware build (over machine.Serial) and the
// host build use this same path.
type Link struct {
	rw   io.ReadWriter
	dec  *streamdecoder.Decoder
	buf  [256]byte
	pend []byte // unconsumed bytes left over from the last rw.Read

	mu      sync.Mutex
	sending bool
}

// New wraps rw (typically a USB CDC/bulk endpoint pair) as a Link.
func New(rw io.ReadWriter) *Link {
	return &Link{rw: rw, dec: &streamdecoder.Decoder{}}
}

// Reconfigure clears in-flight send state and any partially reassembled
// inbound frame, as spec §4.5 requires on USB reconfiguration (the host
// endpoint was torn down and re-enumerated, so any pending send or
// in-progress frame can never complete).
func (l *Link) Reconfigure(rw io.ReadWriter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rw = rw
	l.dec = &streamdecoder.Decoder{}
	l.pend = nil
	l.sending = false
}

// ReadFrame blocks, reading raw bytes from rw and feeding them through
// streamdecoder byte by byte, until one complete inbound frame has been
// reassembled. Bytes read past the frame's end (the start of the next
// one, already in the same underlying Read) are held in l.pend for the
// following call, since rw.Read is not guaranteed to hand back exactly
// one frame's worth of bytes.
func (l *Link) ReadFrame() (Inbound, error) {
	var out *Inbound
	var discardReason string
	l.dec.OnFrame(func(f streamdecoder.Frame) {
		out = &Inbound{Token: f.Token, Command: f.Command, Payload: f.Payload}
	})
	l.dec.OnDiscard(func(reason string) { discardReason = reason })

	for {
		if len(l.pend) == 0 {
			n, err := l.rw.Read(l.buf[:])
			if err != nil {
				return Inbound{}, err
			}
			l.pend = l.buf[:n]
		}
		for len(l.pend) > 0 {
			b := l.pend[0]
			l.pend = l.pend[1:]
			l.dec.PushByte(b)
			if discardReason != "" {
				reason := discardReason
				if reason == "payload_too_large" {
					return Inbound{}, ErrPayloadTooLarge
				}
				return Inbound{}, ErrBadFraming
			}
			if out != nil {
				return *out, nil
			}
		}
	}
}

// ErrBadFraming and ErrPayloadTooLarge are returned by ReadFrame.
var (
	ErrBadFraming      = errors.New("transport: bad SOM/EOM framing")
	ErrPayloadTooLarge = errors.New("transport: payload exceeds maximum")
)

// Send writes one outbound frame. It fails with errcode.Busy if another
// send is already in flight (spec §4.5: "only one outbound transfer may
// be in flight at a time").
func (l *Link) Send(out Outbound) errcode.Code {
	l.mu.Lock()
	if l.sending {
		l.mu.Unlock()
		return errcode.Busy
	}
	l.sending = true
	rw := l.rw
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.sending = false
		l.mu.Unlock()
	}()

	n := len(out.Payload)
	if n > MaxPayload {
		return errcode.BadParam
	}

	buf := make([]byte, 0, 8+n+1)
	buf = append(buf, som, out.Token)
	var cmdBuf [2]byte
	binary.LittleEndian.PutUint16(cmdBuf[:], out.Command)
	buf = append(buf, cmdBuf[:]...)
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(n))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, out.ReturnCode)
	flagsByte := byte(0)
	if out.FlagsChanged {
		flagsByte = 1
	}
	buf = append(buf, flagsByte)
	buf = append(buf, out.Payload...)
	buf = append(buf, eom)

	if _, err := rw.Write(buf); err != nil {
		return errcode.TxError
	}
	return errcode.OK
}
