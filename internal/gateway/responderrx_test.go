package gateway

import (
	"testing"

	"ja-rule-go/internal/linedriver"
	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/internal/registry"
	"ja-rule-go/types"
)

type echoModel struct {
	uid types.UID
}

func (m *echoModel) Name() string { return "echo" }
func (m *echoModel) Activate()    {}
func (m *echoModel) Deactivate()  {}
func (m *echoModel) Ioctl(string, any) (any, error) { return nil, nil }
func (m *echoModel) HandleRequest(req rdmframe.Frame) (rdmframe.Frame, bool) {
	resp := req
	resp.DestUID, resp.SrcUID = req.SrcUID, m.uid
	resp.PortOrResponse = uint8(types.ResponseAck)
	resp.ParamData = nil
	return resp, true
}
func (m *echoModel) Tasks() {}

func TestResponderRXDispatchesCompleteFrame(t *testing.T) {
	respUID := types.NewUID(0x7a52, 1)
	reqUID := types.NewUID(0x7a52, 2)

	reg := registry.New()
	reg.Register(&echoModel{uid: respUID})
	reg.Activate("echo")

	g := New(reg, respUID)
	g.SetMode(types.ModeResponder)

	mock := linedriver.NewMock()
	rx := NewResponderRX(g, mock)

	req := rdmframe.Frame{
		DestUID:           respUID,
		SrcUID:            reqUID,
		TransactionNumber: 7,
		PortOrResponse:    1,
		SubDevice:         0,
		CommandClass:      types.CCGet,
		PID:               0x0060, // SUPPORTED_PARAMETERS, arbitrary for this test
	}
	raw := rdmframe.Marshal(req)

	rx.StartFrame()
	for _, b := range raw {
		mock.FireRXByte(b)
	}

	if got := rx.Counters().RDMFrames; got != 1 {
		t.Fatalf("expected 1 classified RDM frame, got %d", got)
	}

	out := mock.TXBytes()
	if len(out) == 0 {
		t.Fatal("expected a reply to be pushed onto the line")
	}
	gotResp, err := rdmframe.Unmarshal(out)
	if err != nil {
		t.Fatalf("reply did not parse: %v", err)
	}
	if gotResp.SrcUID != respUID || gotResp.DestUID != reqUID {
		t.Fatalf("reply addressed wrong: src=%v dest=%v", gotResp.SrcUID, gotResp.DestUID)
	}
}

func TestResponderRXIgnoresBytesInControllerMode(t *testing.T) {
	respUID := types.NewUID(0x7a52, 1)
	reg := registry.New()
	reg.Register(&echoModel{uid: respUID})
	reg.Activate("echo")

	g := New(reg, respUID) // starts in controller mode
	mock := linedriver.NewMock()
	rx := NewResponderRX(g, mock)

	rx.StartFrame()
	mock.FireRXByte(rdmframe.StartCodeRDM)

	if got := rx.Counters().RDMFrames; got != 0 {
		t.Fatalf("expected no classification while in controller mode, got %d", got)
	}
}
