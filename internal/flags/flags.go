// Package flags implements the sticky single-bit host indicators of spec
// §4.7: log_overflow, tx_drop and tx_error. Any change is published on the
// bus so internal/msghandler knows to set the transport header's
// "flags changed" bit; the word itself is only cleared once a GET_FLAGS
// response has been successfully transmitted.
package flags

import "ja-rule-go/bus"

// Bit positions within the flags byte (spec §4.7, §6).
const (
	LogOverflow uint8 = 1 << iota
	TxDrop
	TxError
)

// Topic carries the current flags byte every time it changes.
func Topic() bus.Topic { return bus.T("flags", "changed") }

// Flags is the sticky flag word. The zero value is ready to use.
type Flags struct {
	conn *bus.Connection
	bits uint8
}

// New returns a Flags that publishes changes on conn (nil is allowed --
// useful for tests that don't care about the bus side effect).
func New(conn *bus.Connection) *Flags {
	return &Flags{conn: conn}
}

// Set raises bit and publishes the new value if it changed.
func (f *Flags) Set(bit uint8) {
	if f.bits&bit == bit {
		return
	}
	f.bits |= bit
	f.publish()
}

// Value returns the current flags byte without clearing it.
func (f *Flags) Value() uint8 { return f.bits }

// ClearOnGet zeroes the word, as spec §4.7 requires once a GET_FLAGS
// response has been successfully sent. Returns the value as it stood
// immediately before clearing, which is what the response should carry.
func (f *Flags) ClearOnGet() uint8 {
	v := f.bits
	if v != 0 {
		f.bits = 0
		f.publish()
	}
	return v
}

func (f *Flags) publish() {
	if f.conn == nil {
		return
	}
	f.conn.Publish(f.conn.NewMessage(Topic(), f.bits, true))
}
