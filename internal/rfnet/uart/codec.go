// internal/rfnet/uart/codec.go
package uart

import (
	"errors"
	"fmt"
	"io"
)

// Wire envelope, host <-> co-processor, both directions:
//
//	SOF(1=0xAA) LEN(1) OP(1) ARGS(LEN-1) SUM(1)
//
// SUM is the XOR of LEN, OP and ARGS. LEN counts OP plus ARGS and must
// fit a command for one radio frame, so the envelope stays tiny.
const (
	sof        = 0xAA
	maxBodyLen = 48
)

// Command opcodes (host -> co-processor).
const (
	opBegin      = 0x01
	opWrite      = 0x02
	opWriteDir   = 0x03
	opMulticast  = 0x04
	opSetAddress = 0x05
	opSetFlags   = 0x06
	opSetChannel = 0x07
	opListen     = 0x08
	opPoll       = 0x09
	opStatus     = 0x0A
	opReturnSys  = 0x0B
)

// Reply opcodes (co-processor -> host). Every command produces exactly
// one reply.
const (
	evAck    = 0x80 // args: status(1), optional extra
	evFrame  = 0x81 // args: marshalled frame
	evIdle   = 0x82 // args: none
	evStatus = 0x83 // args: bits(1: 1=available 2=rx-fifo-full), child mask(1)
)

const ackOK = 0

var (
	errBadSOF      = errors.New("uart: bad start-of-frame byte")
	errBadChecksum = errors.New("uart: checksum mismatch")
	errBodyLen     = errors.New("uart: body length out of range")
)

func checksum(length uint8, body []byte) uint8 {
	sum := length
	for _, b := range body {
		sum ^= b
	}
	return sum
}

// writeCommand frames and sends one command.
func writeCommand(w io.Writer, op uint8, args []byte) error {
	body := append([]byte{op}, args...)
	if len(body) > maxBodyLen {
		return errBodyLen
	}
	length := uint8(len(body))

	buf := make([]byte, 0, 3+len(body))
	buf = append(buf, sof, length)
	buf = append(buf, body...)
	buf = append(buf, checksum(length, body))

	_, err := w.Write(buf)
	return err
}

// readReply reads one framed reply, verifying the checksum.
func readReply(r io.Reader) (op uint8, args []byte, err error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}
	if head[0] != sof {
		return 0, nil, errBadSOF
	}
	length := head[1]
	if length == 0 || length > maxBodyLen {
		return 0, nil, errBodyLen
	}

	body := make([]byte, int(length)+1) // body + checksum byte
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	sum := body[length]
	body = body[:length]
	if checksum(length, body) != sum {
		return 0, nil, errBadChecksum
	}
	return body[0], body[1:], nil
}

// expectAck reads a reply that must be an evAck and checks its status.
func expectAck(r io.Reader) ([]byte, error) {
	op, args, err := readReply(r)
	if err != nil {
		return nil, err
	}
	if op != evAck {
		return nil, fmt.Errorf("uart: unexpected reply 0x%02x, want ack", op)
	}
	if len(args) < 1 {
		return nil, errors.New("uart: ack without status byte")
	}
	if args[0] != ackOK {
		return nil, fmt.Errorf("uart: command rejected, status=%d", args[0])
	}
	return args[1:], nil
}
