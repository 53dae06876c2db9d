package rdmframe

// NackReason is the 16-bit reason code carried in a SET/GET NACK response
// (spec §4.4.2, §7).
type NackReason uint16

const (
	NackUnknownPID               NackReason = 0x0000
	NackFormatError              NackReason = 0x0001
	NackHardwareFault            NackReason = 0x0002
	NackProxyRejected            NackReason = 0x0003
	NackWriteProtect             NackReason = 0x0004
	NackUnsupportedCommandClass  NackReason = 0x0005
	NackDataOutOfRange           NackReason = 0x0006
	NackBufferFull               NackReason = 0x0007
	NackPacketSizeUnsupported    NackReason = 0x0008
	NackSubDeviceOutOfRange      NackReason = 0x0009
	NackProxyBufferFull          NackReason = 0x000A
	NackActionNotSupported       NackReason = 0x000B
)
