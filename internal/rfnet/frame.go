package rfnet

import (
	"encoding/binary"
	"errors"
)

// Frame geometry. The radio's physical payload is 32 bytes; the header
// claims 8 of them. All multi-byte fields are little-endian on the wire.
const (
	HeaderSize     = 8
	MaxFrameSize   = 32
	MaxPayloadSize = MaxFrameSize - HeaderSize
)

var (
	ErrShortFrame   = errors.New("rfnet: buffer shorter than header")
	ErrPayloadSize  = errors.New("rfnet: payload exceeds frame capacity")
	ErrFrameTooLong = errors.New("rfnet: buffer exceeds frame capacity")
)

// Header is the routed portion of every frame.
//
// The Reserved byte is owned by the mesh layer: during address
// assignment it carries the joiner's node ID end to end.
type Header struct {
	SrcNode  Addr
	DstNode  Addr
	ID       uint16 // frame sequence number, assigned by the routing layer
	Type     MessageType
	Reserved uint8
}

// MarshalHeader packs the header into wire form.
func (h Header) MarshalHeader() [HeaderSize]byte {
	var b [HeaderSize]byte
	binary.LittleEndian.PutUint16(b[0:2], uint16(h.SrcNode))
	binary.LittleEndian.PutUint16(b[2:4], uint16(h.DstNode))
	binary.LittleEndian.PutUint16(b[4:6], h.ID)
	b[6] = uint8(h.Type)
	b[7] = h.Reserved
	return b
}

// ParseHeader decodes a header from the front of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrShortFrame
	}
	return Header{
		SrcNode:  Addr(binary.LittleEndian.Uint16(b[0:2])),
		DstNode:  Addr(binary.LittleEndian.Uint16(b[2:4])),
		ID:       binary.LittleEndian.Uint16(b[4:6]),
		Type:     MessageType(b[6]),
		Reserved: b[7],
	}, nil
}

// Frame is one routed message: header plus raw payload bytes.
type Frame struct {
	Header
	Payload []byte
}

// NewFrame copies payload so the frame owns its bytes.
func NewFrame(h Header, payload []byte) Frame {
	f := Frame{Header: h}
	if len(payload) > 0 {
		f.Payload = append([]byte(nil), payload...)
	}
	return f
}

// Marshal packs the frame into wire form.
func (f Frame) Marshal() ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, ErrPayloadSize
	}
	b := make([]byte, 0, HeaderSize+len(f.Payload))
	h := f.MarshalHeader()
	b = append(b, h[:]...)
	return append(b, f.Payload...), nil
}

// ParseFrame decodes a complete frame. The payload is copied out of b.
func ParseFrame(b []byte) (Frame, error) {
	if len(b) > MaxFrameSize {
		return Frame{}, ErrFrameTooLong
	}
	h, err := ParseHeader(b)
	if err != nil {
		return Frame{}, err
	}
	return NewFrame(h, b[HeaderSize:]), nil
}

// PayloadAddr reads a little-endian address from the front of the payload.
func (f Frame) PayloadAddr() Addr {
	if len(f.Payload) < 2 {
		return 0
	}
	return Addr(binary.LittleEndian.Uint16(f.Payload[0:2]))
}

// PayloadInt16 reads a little-endian signed 16-bit value from the front
// of the payload. Lookup responses use it for the -1/-2 result encoding.
func (f Frame) PayloadInt16() int16 {
	if len(f.Payload) < 2 {
		return -1
	}
	return int16(binary.LittleEndian.Uint16(f.Payload[0:2]))
}

// PutAddr encodes an address in wire byte order.
func PutAddr(a Addr) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(a))
	return b
}

// PutInt16 encodes a signed 16-bit value in wire byte order.
func PutInt16(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}
