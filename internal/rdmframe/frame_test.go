package rdmframe

import (
	"testing"

	"ja-rule-go/types"
)

func sampleFrame() Frame {
	return Frame{
		DestUID:           types.NewUID(0x7a70, 0x00001000),
		SrcUID:            types.NewUID(0x7a70, 0x00000001),
		TransactionNumber: 1,
		PortOrResponse:    1,
		MessageCount:      0,
		SubDevice:         types.SubDeviceRoot,
		CommandClass:      types.CCGet,
		PID:               0x0060, // DEVICE_INFO
		ParamData:         nil,
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	f := sampleFrame()
	f.ParamData = []byte{1, 2, 3, 4, 5}

	buf := Marshal(f)
	if got := int(buf[2]); got != f.MessageLength() {
		t.Fatalf("message_length = %d, want %d", got, f.MessageLength())
	}

	got, err := Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.DestUID != f.DestUID || got.SrcUID != f.SrcUID {
		t.Fatalf("uid mismatch: %+v", got)
	}
	if got.PID != f.PID || got.CommandClass != f.CommandClass {
		t.Fatalf("pid/cc mismatch: %+v", got)
	}
	if string(got.ParamData) != string(f.ParamData) {
		t.Fatalf("param data mismatch: %v", got.ParamData)
	}
}

func TestMessageLengthInvariant(t *testing.T) {
	for _, pdl := range []int{0, 1, 231} {
		f := sampleFrame()
		f.ParamData = make([]byte, pdl)
		if f.MessageLength() != HeaderSize+pdl {
			t.Fatalf("pdl=%d: message_length=%d", pdl, f.MessageLength())
		}
		buf := Marshal(f)
		if _, err := Unmarshal(buf); err != nil {
			t.Fatalf("pdl=%d: unmarshal failed: %v", pdl, err)
		}
	}
}

func TestChecksumMismatchRejected(t *testing.T) {
	f := sampleFrame()
	buf := Marshal(f)
	buf[len(buf)-1] ^= 0xFF
	if _, err := Unmarshal(buf); err != ErrBadChecksum {
		t.Fatalf("expected ErrBadChecksum, got %v", err)
	}
}

func TestParamDataLengthMismatchRejected(t *testing.T) {
	f := sampleFrame()
	f.ParamData = []byte{1, 2, 3}
	buf := Marshal(f)
	// Corrupt the message_length byte so it no longer matches the encoded
	// param_data_length; checksum still covers the original bytes so this
	// must be caught by the length check, not silently accepted.
	buf[2] = byte(f.MessageLength() + 1)
	if _, err := Unmarshal(buf); err == nil {
		t.Fatalf("expected an error for inconsistent message_length")
	}
}

func TestUIDMatchClasses(t *testing.T) {
	self := types.NewUID(0x7a70, 1)
	other := types.NewUID(0x7a71, 1)

	if !self.RequiresAction(self) {
		t.Fatal("exact match must require action")
	}
	if !self.RequiresAction(types.Broadcast) {
		t.Fatal("broadcast must require action")
	}
	if !self.RequiresAction(self.Vendorcast()) {
		t.Fatal("own vendorcast must require action")
	}
	if self.RequiresAction(other.Vendorcast()) {
		t.Fatal("other manufacturer's vendorcast must not require action")
	}
	if self.RequiresResponse(types.Broadcast) {
		t.Fatal("broadcast must never get a wire response")
	}
	if self.RequiresResponse(self.Vendorcast()) {
		t.Fatal("vendorcast must never get a wire response")
	}
}

func TestDUBEncodeDecodeRoundTrip(t *testing.T) {
	uid := types.NewUID(0x7a70, 0x12345678)
	buf := EncodeDUBResponse(uid)
	if len(buf) != DUBResponseLength {
		t.Fatalf("len=%d, want %d", len(buf), DUBResponseLength)
	}
	for i := 0; i < dubPreambleLen; i++ {
		if buf[i] != dubPreamble {
			t.Fatalf("preamble byte %d = %#x", i, buf[i])
		}
	}
	if buf[dubPreambleLen] != dubDelimiter {
		t.Fatalf("delimiter = %#x", buf[dubPreambleLen])
	}

	got, ok := DecodeDUBResponse(buf[dubPreambleLen+1:])
	if !ok {
		t.Fatal("checksum failed to verify")
	}
	if got != uid {
		t.Fatalf("decoded uid = %v, want %v", got, uid)
	}
}

func TestCopyLabelBoundedNoNUL(t *testing.T) {
	dst := make([]byte, 8)
	for i := range dst {
		dst[i] = 0xAA
	}
	n := CopyLabel(dst, []byte("hello world, this is long"))
	if n != 8 {
		t.Fatalf("n=%d", n)
	}
	if string(dst) != "hello wo" {
		t.Fatalf("dst=%q", dst)
	}

	n = CopyLabel(dst, []byte("hi"))
	if n != 2 {
		t.Fatalf("n=%d", n)
	}
	want := append([]byte("hi"), make([]byte, 6)...)
	if string(dst) != string(want) {
		t.Fatalf("dst=%q", dst)
	}
}
