package transceiver

import (
	"ja-rule-go/errcode"
	"ja-rule-go/x/mathx"
)

// TimingConfig holds the five host-adjustable timing parameters of spec
// §4.2.2, all in microseconds. The zero value is not valid; use
// DefaultTimingConfig.
type TimingConfig struct {
	BreakTime           uint32
	MarkTime             uint32
	RDMBroadcastListen   uint32
	RDMResponseTimeout   uint32
	RDMDUBResponseTime   uint32
}

// DefaultTimingConfig returns the documented default timing values.
func DefaultTimingConfig() TimingConfig {
	return TimingConfig{
		BreakTime:         176,
		MarkTime:          12,
		RDMBroadcastListen: 2800,
		RDMResponseTimeout: 2800,
		RDMDUBResponseTime: 2900,
	}
}

func setValidated(dst *uint32, v, lo, hi uint32) errcode.Code {
	if !mathx.Between(v, lo, hi) {
		return errcode.BadParam
	}
	*dst = v
	return errcode.OK
}

// SetBreakTime validates against [44, 800]us before writing; an
// out-of-range value leaves the previous setting intact.
func (c *TimingConfig) SetBreakTime(us uint32) errcode.Code {
	return setValidated(&c.BreakTime, us, 44, 800)
}

// SetMarkTime validates against [4, 800]us.
func (c *TimingConfig) SetMarkTime(us uint32) errcode.Code {
	return setValidated(&c.MarkTime, us, 4, 800)
}

// SetRDMBroadcastListen validates against [0, 5000]us.
func (c *TimingConfig) SetRDMBroadcastListen(us uint32) errcode.Code {
	return setValidated(&c.RDMBroadcastListen, us, 0, 5000)
}

// SetRDMResponseTimeout validates against [1000, 5000]us.
func (c *TimingConfig) SetRDMResponseTimeout(us uint32) errcode.Code {
	return setValidated(&c.RDMResponseTimeout, us, 1000, 5000)
}

// SetRDMDUBResponseTime validates against [1000, 3500]us.
func (c *TimingConfig) SetRDMDUBResponseTime(us uint32) errcode.Code {
	return setValidated(&c.RDMDUBResponseTime, us, 1000, 3500)
}

// SetBreakTime, SetMarkTime, SetRDMBroadcastListen, SetRDMResponseTimeout
// and SetRDMDUBResponseTime apply the matching TimingConfig setter to the
// transceiver's live configuration, for internal/msghandler's SET_*
// command handlers.
func (t *Transceiver) SetBreakTime(us uint32) errcode.Code { return t.cfg.SetBreakTime(us) }
func (t *Transceiver) SetMarkTime(us uint32) errcode.Code  { return t.cfg.SetMarkTime(us) }
func (t *Transceiver) SetRDMBroadcastListen(us uint32) errcode.Code {
	return t.cfg.SetRDMBroadcastListen(us)
}
func (t *Transceiver) SetRDMResponseTimeout(us uint32) errcode.Code {
	return t.cfg.SetRDMResponseTimeout(us)
}
func (t *Transceiver) SetRDMDUBResponseTime(us uint32) errcode.Code {
	return t.cfg.SetRDMDUBResponseTime(us)
}

// Inter-frame backoff constants (spec §4.2.7), fixed and not host-adjustable.
const (
	minBreakToBreak   = 1300 // global minimum, all operation types
	eofGapTXOnly      = 176
	eofGapBroadcast   = 176
	eofGapDUB         = 5800
	eofGapWithResponse = 3000
)
