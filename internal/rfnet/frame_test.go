package rfnet

import (
	"bytes"
	"testing"
)

func TestFrameWireLayout(t *testing.T) {
	f := NewFrame(Header{
		SrcNode:  0o12,
		DstNode:  CoordinatorAddress,
		ID:       0x0102,
		Type:     TypeAddrConfirm,
		Reserved: 7,
	}, PutAddr(0o12))

	b, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}

	// Little-endian: src, dst, id, type, reserved, then payload.
	want := []byte{0x0A, 0x00, 0x00, 0x00, 0x02, 0x01, 129, 7, 0x0A, 0x00}
	if !bytes.Equal(b, want) {
		t.Fatalf("wire=%v want %v", b, want)
	}

	back, err := ParseFrame(b)
	if err != nil {
		t.Fatalf("ParseFrame err=%v", err)
	}
	if back.Header != f.Header {
		t.Fatalf("header=%+v want %+v", back.Header, f.Header)
	}
	if back.PayloadAddr() != 0o12 {
		t.Fatalf("payload addr=%s want 012", back.PayloadAddr())
	}
}

func TestParseFrameShort(t *testing.T) {
	if _, err := ParseFrame([]byte{1, 2, 3}); err != ErrShortFrame {
		t.Fatalf("err=%v want ErrShortFrame", err)
	}
}

func TestMarshalOversizePayload(t *testing.T) {
	f := NewFrame(Header{}, make([]byte, MaxPayloadSize+1))
	if _, err := f.Marshal(); err != ErrPayloadSize {
		t.Fatalf("err=%v want ErrPayloadSize", err)
	}
}

func TestPayloadInt16Negative(t *testing.T) {
	f := NewFrame(Header{Type: TypeAddrLookup}, PutInt16(-2))
	if got := f.PayloadInt16(); got != -2 {
		t.Fatalf("PayloadInt16=%d want -2", got)
	}
}
