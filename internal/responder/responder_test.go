package responder

import (
	"testing"

	"ja-rule-go/internal/rdmframe"
	"ja-rule-go/types"
)

func testUID(n byte) types.UID { return types.NewUID(0x7A52, uint32(n)) }

func TestHandleDiscoveryUniqueBranchRespondsWhenInRange(t *testing.T) {
	r := &types.Responder{UID: testUID(5)}
	lo, hi := testUID(1), testUID(10)
	req := rdmframe.Frame{
		CommandClass: types.CCDiscovery,
		PID:          uint16(rdmframe.PIDDiscUniqueBranch),
		ParamData:    append(append([]byte{}, lo[:]...), hi[:]...),
	}
	res, handled := HandleDiscovery(r, req)
	if !handled {
		t.Fatal("expected discovery to be handled")
	}
	if !res.Respond || len(res.DUBReply) != rdmframe.DUBResponseLength {
		t.Fatalf("got %+v", res)
	}
}

func TestHandleDiscoveryUniqueBranchSilentOutOfRange(t *testing.T) {
	r := &types.Responder{UID: testUID(50)}
	lo, hi := testUID(1), testUID(10)
	req := rdmframe.Frame{
		CommandClass: types.CCDiscovery,
		PID:          uint16(rdmframe.PIDDiscUniqueBranch),
		ParamData:    append(append([]byte{}, lo[:]...), hi[:]...),
	}
	res, handled := HandleDiscovery(r, req)
	if !handled {
		t.Fatal("expected discovery to be handled")
	}
	if res.Respond {
		t.Fatal("expected no reply for an out-of-range responder")
	}
}

func TestHandleDiscoveryMutedSkipsUniqueBranch(t *testing.T) {
	r := &types.Responder{UID: testUID(5), Mute: true}
	lo, hi := testUID(1), testUID(10)
	req := rdmframe.Frame{
		CommandClass: types.CCDiscovery,
		PID:          uint16(rdmframe.PIDDiscUniqueBranch),
		ParamData:    append(append([]byte{}, lo[:]...), hi[:]...),
	}
	res, _ := HandleDiscovery(r, req)
	if res.Respond {
		t.Fatal("a muted responder must never answer DISC_UNIQUE_BRANCH")
	}
}

func TestHandleDiscoveryMute(t *testing.T) {
	self := testUID(5)
	r := &types.Responder{UID: self}
	req := rdmframe.Frame{
		CommandClass: types.CCDiscovery,
		DestUID:      self,
		PID:          uint16(rdmframe.PIDDiscMute),
	}
	res, handled := HandleDiscovery(r, req)
	if !handled || !res.Respond {
		t.Fatalf("expected a mute ack, got %+v handled=%v", res, handled)
	}
	if !r.Mute {
		t.Fatal("expected responder muted")
	}
}

func basicDef() *types.ResponderDefinition {
	label := make([]byte, 32)
	get, set := StringHandlers(label)
	return &types.ResponderDefinition{
		PIDTable: []types.PIDDescriptor{
			{PID: uint16(rdmframe.PIDDeviceLabel), Get: get, GetParamSize: 0, Set: set},
		},
	}
}

func TestDispatchGetUnknownPIDNacks(t *testing.T) {
	def := basicDef()
	r := &types.Responder{UID: testUID(1)}
	req := rdmframe.Frame{CommandClass: types.CCGet, PID: 0xBEEF}
	resp := Dispatch(def, r, req)
	if resp.PortOrResponse != uint8(types.ResponseNackReason) {
		t.Fatalf("expected NACK, got %+v", resp)
	}
	if rdmframe.NackReason(uint16(resp.ParamData[0])<<8|uint16(resp.ParamData[1])) != rdmframe.NackUnknownPID {
		t.Fatalf("expected UNKNOWN_PID, got %+v", resp.ParamData)
	}
}

func TestDispatchSetThenGetDeviceLabel(t *testing.T) {
	def := basicDef()
	r := &types.Responder{UID: testUID(1)}

	setReq := rdmframe.Frame{CommandClass: types.CCSet, PID: uint16(rdmframe.PIDDeviceLabel), ParamData: []byte("gateway")}
	setResp := Dispatch(def, r, setReq)
	if setResp.PortOrResponse != uint8(types.ResponseAck) {
		t.Fatalf("expected ACK on set, got %+v", setResp)
	}

	getReq := rdmframe.Frame{CommandClass: types.CCGet, PID: uint16(rdmframe.PIDDeviceLabel)}
	getResp := Dispatch(def, r, getReq)
	if string(getResp.ParamData) != "gateway" {
		t.Fatalf("got %q", getResp.ParamData)
	}
}

func TestDispatchSubDeviceAllGetNacks(t *testing.T) {
	def := basicDef()
	root := &types.Responder{UID: testUID(1)}
	subs := []*types.Responder{{UID: testUID(2)}, {UID: testUID(3)}}
	req := rdmframe.Frame{CommandClass: types.CCGet, SubDevice: types.SubDeviceAll, PID: uint16(rdmframe.PIDDeviceLabel)}
	resp := DispatchSubDevice(def, root, subs, req)
	if resp.PortOrResponse != uint8(types.ResponseNackReason) {
		t.Fatalf("expected NACK for GET SUBDEVICE_ALL, got %+v", resp)
	}
}

func TestDispatchSubDeviceAllSetAppliesToEveryoneAndReturnsLast(t *testing.T) {
	def := basicDef()
	root := &types.Responder{UID: testUID(1)}
	subs := []*types.Responder{{UID: testUID(2)}, {UID: testUID(3)}}
	req := rdmframe.Frame{CommandClass: types.CCSet, SubDevice: types.SubDeviceAll, PID: uint16(rdmframe.PIDDeviceLabel), ParamData: []byte("x")}
	resp := DispatchSubDevice(def, root, subs, req)
	if resp.SrcUID != subs[1].UID {
		t.Fatalf("expected the last sub-device's reply, got src=%v", resp.SrcUID)
	}
}

func TestProxyBuffersChildResponseWithAckTimer(t *testing.T) {
	def := basicDef()
	proxy := &types.Responder{UID: testUID(1)}
	child := &types.Responder{UID: testUID(2)}
	var buf ProxyBuffer

	req := rdmframe.Frame{CommandClass: types.CCGet, PID: uint16(rdmframe.PIDDeviceLabel)}
	resp := DispatchProxyChild(def, proxy, child, &buf, nil, req)
	if resp.PortOrResponse != uint8(types.ResponseAckTimer) {
		t.Fatalf("expected ACK_TIMER, got %+v", resp)
	}
	if !buf.Full() {
		t.Fatal("expected a response buffered")
	}
	if child.QueuedMessageCount != 1 {
		t.Fatalf("expected queued count 1, got %d", child.QueuedMessageCount)
	}

	second := DispatchProxyChild(def, proxy, child, &buf, nil, req)
	if second.PortOrResponse != uint8(types.ResponseNackReason) {
		t.Fatalf("expected PROXY_BUFFER_FULL nack on a second concurrent request, got %+v", second)
	}

	qmReq := rdmframe.Frame{CommandClass: types.CCGet, PID: uint16(rdmframe.PIDQueuedMessage), ParamData: []byte{0x00}}
	got := dispatchQueuedMessage(proxy, child, &buf, nil, qmReq)
	if buf.Full() {
		t.Fatal("expected a plain GET QUEUED_MESSAGE to drain the buffer")
	}
	if child.QueuedMessageCount != 0 {
		t.Fatalf("expected queued count decremented, got %d", child.QueuedMessageCount)
	}
	_ = got
}

func TestProxyQueuedMessageStatusGetLastDoesNotClear(t *testing.T) {
	def := basicDef()
	proxy := &types.Responder{UID: testUID(1)}
	child := &types.Responder{UID: testUID(2)}
	var buf ProxyBuffer

	req := rdmframe.Frame{CommandClass: types.CCGet, PID: uint16(rdmframe.PIDDeviceLabel)}
	DispatchProxyChild(def, proxy, child, &buf, nil, req)

	qmReq := rdmframe.Frame{CommandClass: types.CCGet, PID: uint16(rdmframe.PIDQueuedMessage), ParamData: []byte{rdmframe.StatusGetLastMessage}}
	dispatchQueuedMessage(proxy, child, &buf, nil, qmReq)
	if !buf.Full() {
		t.Fatal("STATUS_GET_LAST_MESSAGE must not clear the buffer")
	}
}

func TestSensorValueHandlersHardwareFault(t *testing.T) {
	sensors := []types.SensorData{{ShouldNack: true, NackReason: uint16(rdmframe.NackHardwareFault)}}
	get, _ := SensorValueHandlers(sensors)
	_, nack, hasNack := get([]byte{0})
	if !hasNack || rdmframe.NackReason(nack) != rdmframe.NackHardwareFault {
		t.Fatalf("expected HARDWARE_FAULT nack, got nack=%d hasNack=%v", nack, hasNack)
	}
}

func TestSensorValueResetAll(t *testing.T) {
	sensors := []types.SensorData{
		{Recorded: 42, SupportsRecord: true, Lowest: 0, Highest: 100},
		{Recorded: 7, SupportsRecord: false, Lowest: 0, Highest: 100},
	}
	_, set := SensorValueHandlers(sensors)
	if _, _, hasNack := set([]byte{0xFF}); hasNack {
		t.Fatal("unexpected nack on reset-all")
	}
	if sensors[0].Lowest != 42 || sensors[0].Highest != 42 {
		t.Fatalf("expected sensor 0 reset, got %+v", sensors[0])
	}
	if sensors[1].Lowest != 0 || sensors[1].Highest != 100 {
		t.Fatalf("expected sensor 1 untouched (no record support), got %+v", sensors[1])
	}
}
