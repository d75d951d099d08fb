// internal/rfnet/uart/bridge_test.go
package uart

import (
	"bytes"
	"testing"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// scripted is an in-memory command channel: commands written by the
// bridge accumulate in sent, replies are served from a pre-loaded queue.
type scripted struct {
	sent    bytes.Buffer
	replies bytes.Buffer
	closed  bool
}

func (s *scripted) Write(p []byte) (int, error) { return s.sent.Write(p) }
func (s *scripted) Read(p []byte) (int, error)  { return s.replies.Read(p) }
func (s *scripted) Close() error                { s.closed = true; return nil }

// queue frames one reply into the script.
func (s *scripted) queue(t *testing.T, op uint8, args []byte) {
	t.Helper()
	if err := writeCommand(&s.replies, op, args); err != nil {
		t.Fatalf("queue reply: %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCommand(&buf, opWrite, []byte{1, 2, 3}); err != nil {
		t.Fatalf("writeCommand err=%v", err)
	}

	op, args, err := readReply(&buf)
	if err != nil {
		t.Fatalf("readReply err=%v", err)
	}
	if op != opWrite {
		t.Fatalf("op=0x%02x want 0x%02x", op, opWrite)
	}
	if !bytes.Equal(args, []byte{1, 2, 3}) {
		t.Fatalf("args=%v want [1 2 3]", args)
	}
}

func TestCodecRejectsCorruptChecksum(t *testing.T) {
	var buf bytes.Buffer
	writeCommand(&buf, opPoll, nil)
	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xFF

	if _, _, err := readReply(bytes.NewReader(raw)); err != errBadChecksum {
		t.Fatalf("err=%v want checksum mismatch", err)
	}
}

func TestCodecRejectsBadSOF(t *testing.T) {
	raw := []byte{0x55, 1, opPoll, opPoll ^ 1}
	if _, _, err := readReply(bytes.NewReader(raw)); err != errBadSOF {
		t.Fatalf("err=%v want bad SOF", err)
	}
}

func TestBeginCarriesRouteTimeout(t *testing.T) {
	s := &scripted{}
	s.queue(t, evAck, []byte{ackOK, 75, 0}) // status + timeout LE

	b := NewBridge(s)
	if err := b.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax); err != nil {
		t.Fatalf("Begin err=%v", err)
	}
	if b.RouteTimeout() != 75 {
		t.Fatalf("RouteTimeout=%d want 75", b.RouteTimeout())
	}

	// The command on the wire carries channel, address, rate, power.
	op, args, err := readReply(&s.sent)
	if err != nil || op != opBegin {
		t.Fatalf("sent op=0x%02x err=%v want begin", op, err)
	}
	want := []byte{97, 0x24, 0x09, uint8(rfnet.Rate1Mbps), uint8(rfnet.PowerMax)}
	if !bytes.Equal(args, want) {
		t.Fatalf("begin args=%v want %v", args, want)
	}
}

func TestUpdateParsesFrame(t *testing.T) {
	s := &scripted{}
	fr := rfnet.Frame{
		Header:  rfnet.Header{SrcNode: 0o1, DstNode: 0, Type: rfnet.TypeAddrConfirm, Reserved: 7},
		Payload: []byte{0xAB},
	}
	raw, err := fr.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s.queue(t, evFrame, raw)

	b := NewBridge(s)
	if got := b.Update(); got != rfnet.TypeAddrConfirm {
		t.Fatalf("Update=%s want ADDR_CONFIRM", got)
	}
	got := b.Frame()
	if got.SrcNode != 0o1 || got.Reserved != 7 || len(got.Payload) != 1 || got.Payload[0] != 0xAB {
		t.Fatalf("frame=%+v", got)
	}
}

func TestUpdateIdle(t *testing.T) {
	s := &scripted{}
	s.queue(t, evIdle, nil)

	b := NewBridge(s)
	if got := b.Update(); got != rfnet.TypeNone {
		t.Fatalf("Update=%s want NONE", got)
	}
}

func TestWriteRejected(t *testing.T) {
	s := &scripted{}
	s.queue(t, evAck, []byte{1}) // non-zero status

	b := NewBridge(s)
	h := rfnet.Header{SrcNode: 0o1, DstNode: 0, Type: rfnet.TypePing}
	if err := b.Write(h, nil); err == nil {
		t.Fatalf("expected write rejection")
	}
}

func TestStatusBits(t *testing.T) {
	s := &scripted{}
	s.queue(t, evStatus, []byte{0b01, 0b0011})
	s.queue(t, evStatus, []byte{0b10, 0b0011})
	s.queue(t, evStatus, []byte{0, 0b0011})

	b := NewBridge(s)
	if !b.Available() {
		t.Fatalf("Available should be true")
	}
	if !b.RxFifoFull() {
		t.Fatalf("RxFifoFull should be true")
	}
	if mask := b.ChildBitField(); mask != 0b0011 {
		t.Fatalf("mask=%b want 11", mask)
	}
}

func TestFlagsCacheTracksAcks(t *testing.T) {
	s := &scripted{}
	s.queue(t, evAck, []byte{ackOK})
	s.queue(t, evAck, []byte{ackOK})

	b := NewBridge(s)
	b.RaiseFlags(rfnet.FlagBypassHolds)
	if b.Flags() != rfnet.FlagBypassHolds {
		t.Fatalf("flags=%b want bypass-holds", b.Flags())
	}
	b.ClearFlags(rfnet.FlagBypassHolds)
	if b.Flags() != 0 {
		t.Fatalf("flags=%b want 0", b.Flags())
	}
}
