// Package types holds the wire and data-model structs shared across the
// transceiver, responder and host-transport layers: the RDM UID, operation
// tokens, timing records and command/response envelopes. Kept alongside
// small-value-type methods the way devicecode-go's types.Kind/types.Link do.
package types

import "ja-rule-go/x/conv"

// UID is a 48-bit RDM device identifier: a 16-bit manufacturer ID followed
// by a 32-bit device ID. Ordering is lexicographic over the six bytes.
type UID [6]byte

// Broadcast is the all-0xFF UID; it and any Vendorcast address must never
// be responded to (only acted upon as a side effect).
var Broadcast = UID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// NewUID builds a UID from a manufacturer ID and device ID.
func NewUID(manufacturer uint16, device uint32) UID {
	return UID{
		byte(manufacturer >> 8), byte(manufacturer),
		byte(device >> 24), byte(device >> 16), byte(device >> 8), byte(device),
	}
}

func (u UID) Manufacturer() uint16 {
	return uint16(u[0])<<8 | uint16(u[1])
}

func (u UID) Device() uint32 {
	return uint32(u[2])<<24 | uint32(u[3])<<16 | uint32(u[4])<<8 | uint32(u[5])
}

// Vendorcast returns the vendorcast address for this UID's manufacturer:
// the manufacturer ID unchanged, device ID all 0xFF.
func (u UID) Vendorcast() UID {
	return NewUID(u.Manufacturer(), 0xFFFFFFFF)
}

// IsBroadcast reports whether u is the all-0xFF broadcast address.
func (u UID) IsBroadcast() bool { return u == Broadcast }

// IsVendorcast reports whether u addresses "every device of some
// manufacturer": device ID all 0xFF, manufacturer ID anything (including,
// degenerately, the broadcast UID itself -- callers that care about the
// distinction should check IsBroadcast first).
func (u UID) IsVendorcast() bool {
	return u.Device() == 0xFFFFFFFF
}

// Compare returns -1, 0 or 1 comparing u to v lexicographically over the
// six address bytes, matching spec §3's ordering rule.
func (u UID) Compare(v UID) int {
	for i := 0; i < 6; i++ {
		if u[i] != v[i] {
			if u[i] < v[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Within reports whether u lies in the inclusive range [lo, hi], used by
// DISC_UNIQUE_BRANCH (spec §4.4.3).
func (u UID) Within(lo, hi UID) bool {
	return u.Compare(lo) >= 0 && u.Compare(hi) <= 0
}

// RequiresAction implements spec §8's quantified invariant: a request
// addressed to `dest` requires this responder (whose address is `self`) to
// act, either because dest is an exact match, the broadcast address, or
// this responder's vendorcast address.
func (self UID) RequiresAction(dest UID) bool {
	if dest == self {
		return true
	}
	if dest.IsBroadcast() {
		return true
	}
	if dest.IsVendorcast() && dest.Manufacturer() == self.Manufacturer() {
		return true
	}
	return false
}

// RequiresResponse reports whether a reply should actually be placed on
// the wire for a request addressed to dest: true only for an exact match.
// Broadcast and vendorcast requests may still trigger a side effect (see
// spec §4.4.1) but must never themselves provoke a wire response.
func (self UID) RequiresResponse(dest UID) bool {
	return dest == self
}

func (u UID) String() string {
	var buf [8]byte
	man := conv.U32Hex(buf[:], uint32(u.Manufacturer()))
	var buf2 [8]byte
	dev := conv.U32Hex(buf2[:], u.Device())
	out := make([]byte, 0, len(man)+1+len(dev))
	out = append(out, man[4:]...) // manufacturer is only 16 bits: last 4 hex digits
	out = append(out, ':')
	out = append(out, dev...)
	return string(out)
}
