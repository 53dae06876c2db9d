package errcode

// Code is a stable, host-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. OK plus the transport/command return codes of spec §6/§7.
const (
	OK     Code = "ok"
	Busy   Code = "busy"
	Error  Code = "error" // generic fallback
	Unknown Code = "unknown"

	// BufferFull is returned when a queue (transceiver op queue, transport
	// in-flight slot, proxy buffer) was full and the request was dropped.
	BufferFull Code = "buffer_full"
	// BadParam is returned when a timing configuration write was rejected;
	// the previous value is left intact.
	BadParam Code = "bad_param"
	// TxError is returned when a TX_ONLY operation's UART reported an error.
	TxError Code = "tx_error"
	// RDMTimeout is returned when an RDM_WITH_RESPONSE/RDM_DUB operation's
	// RX-wait timed out with no response observed.
	RDMTimeout Code = "rdm_timeout"
	// RDMBcastResponse flags that bytes arrived during a broadcast listen
	// window even though no reply was formally expected.
	RDMBcastResponse Code = "rdm_bcast_response"
	// RDMInvalidResponse is returned on checksum/length/collision failures
	// in a received RDM (or DUB) response.
	RDMInvalidResponse Code = "rdm_invalid_response"

	InvalidTopic Code = "invalid_topic"
	Timeout      Code = "timeout"
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
