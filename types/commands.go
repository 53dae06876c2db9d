package types

// Command is a 16-bit host command identifier (spec §4.6).
type Command uint16

const (
	CmdEcho                 Command = 0x0000
	CmdTxDMX                Command = 0x0001
	CmdGetFlags             Command = 0x0002
	CmdResetDevice          Command = 0x0003
	CmdSetMode              Command = 0x0004
	CmdGetUID               Command = 0x0005
	CmdRDMDUBRequest        Command = 0x0006
	CmdRDMRequest           Command = 0x0007
	CmdRDMBroadcastRequest  Command = 0x0008
	CmdSetBreakTime         Command = 0x0010
	CmdGetBreakTime         Command = 0x0011
	CmdSetMarkTime          Command = 0x0012
	CmdGetMarkTime          Command = 0x0013
	CmdSetRDMBroadcastListen Command = 0x0014
	CmdGetRDMBroadcastListen Command = 0x0015
	CmdSetRDMResponseTimeout Command = 0x0016
	CmdGetRDMResponseTimeout Command = 0x0017
	CmdSetRDMDUBResponseTime Command = 0x0018
	CmdGetRDMDUBResponseTime Command = 0x0019
)

// Mode selects whether the gateway acts as a DMX/RDM controller (relays
// host requests onto the wire) or an RDM responder (answers on the wire
// itself). Spec §4.6, SET_MODE.
type Mode uint8

const (
	ModeController Mode = 0
	ModeResponder  Mode = 1
)

// Request is one decoded inbound host message (after stream-decoder
// reassembly), ready for the message handler.
type Request struct {
	Token   byte
	Command Command
	Payload []byte
}

// Response is one outbound host message, ready for transport framing.
type Response struct {
	Token        byte
	Command      Command
	ReturnCode   byte // one of errcode's Code values, encoded as a byte index
	FlagsChanged bool
	Payload      []byte
}
