package streamdecoder

import (
	"bytes"
	"testing"
)

func frame(token byte, cmd uint16, payload []byte) []byte {
	buf := []byte{som, token, byte(cmd), byte(cmd >> 8), byte(len(payload)), byte(len(payload) >> 8)}
	buf = append(buf, payload...)
	return append(buf, eom)
}

func TestDecodesOneFrame(t *testing.T) {
	var got []Frame
	d := &Decoder{}
	d.OnFrame(func(f Frame) { got = append(got, f) })

	for _, b := range frame(5, 0x0102, []byte{1, 2, 3}) {
		d.PushByte(b)
	}
	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
	if got[0].Token != 5 || got[0].Command != 0x0102 || !bytes.Equal(got[0].Payload, []byte{1, 2, 3}) {
		t.Fatalf("got %+v", got[0])
	}
	if d.State() != WaitSOM {
		t.Fatalf("state = %v, want WaitSOM", d.State())
	}
}

func TestFragmentedAcrossPushes(t *testing.T) {
	var got []Frame
	d := &Decoder{}
	d.OnFrame(func(f Frame) { got = append(got, f) })

	whole := frame(9, 0x03, []byte{0xAA, 0xBB})
	for _, b := range whole {
		d.PushByte(b)
	}
	if len(got) != 1 || got[0].Token != 9 {
		t.Fatalf("got %+v", got)
	}
}

func TestLeadingGarbageIsSkippedUntilSOM(t *testing.T) {
	var got []Frame
	d := &Decoder{}
	d.OnFrame(func(f Frame) { got = append(got, f) })

	d.PushByte(0x00)
	d.PushByte(0xFF)
	for _, b := range frame(1, 0x00, nil) {
		d.PushByte(b)
	}
	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
}

func TestBadEOMDiscardsAndResyncs(t *testing.T) {
	var reasons []string
	var got []Frame
	d := &Decoder{}
	d.OnDiscard(func(r string) { reasons = append(reasons, r) })
	d.OnFrame(func(f Frame) { got = append(got, f) })

	bad := frame(1, 0x00, []byte{1})
	bad[len(bad)-1] = 0x00
	for _, b := range bad {
		d.PushByte(b)
	}
	if len(reasons) != 1 || reasons[0] != "bad_eom" {
		t.Fatalf("reasons = %v", reasons)
	}

	for _, b := range frame(2, 0x00, nil) {
		d.PushByte(b)
	}
	if len(got) != 1 || got[0].Token != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestOversizedLengthDiscarded(t *testing.T) {
	var reasons []string
	d := &Decoder{}
	d.OnDiscard(func(r string) { reasons = append(reasons, r) })

	d.PushByte(som)
	d.PushByte(1)
	d.PushByte(0x00)
	d.PushByte(0x00)
	d.PushByte(byte((MaxPayload + 1) & 0xFF))
	d.PushByte(byte((MaxPayload + 1) >> 8))

	if len(reasons) != 1 || reasons[0] != "payload_too_large" {
		t.Fatalf("reasons = %v", reasons)
	}
	if d.State() != WaitSOM {
		t.Fatalf("state = %v, want WaitSOM after discard", d.State())
	}
}
