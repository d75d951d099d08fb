// internal/rfnet/uart/bridge.go

// Package uart drives a co-processor that runs the radio driver and the
// tree-routing layer, over a serial line. The host side implements the
// rfnet Network and Radio interfaces by exchanging framed commands; the
// co-processor answers every command with exactly one reply.
package uart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// Config is minimal transport config.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Bridge implements rfnet.Network and rfnet.Radio over a serial command
// channel. Commands are strictly request/reply, guarded by a mutex, so
// the bridge is safe for the pump-plus-diagnostics goroutine pattern.
type Bridge struct {
	mu    sync.Mutex
	rw    io.ReadWriteCloser
	start time.Time

	addr         rfnet.Addr
	flags        rfnet.Flags
	last         rfnet.Frame
	routeTimeout uint32
}

// Open connects to the co-processor on a serial port.
func Open(cfg Config) (*Bridge, error) {
	if cfg.Port == "" {
		return nil, errors.New("uart: port required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", cfg.Port, err)
	}
	return NewBridge(port), nil
}

// NewBridge wraps an already-open command channel. Split out from Open
// so tests can run the codec against an in-memory transport.
func NewBridge(rw io.ReadWriteCloser) *Bridge {
	return &Bridge{
		rw:    rw,
		start: time.Now(),
		addr:  rfnet.DefaultAddress,
	}
}

// Close closes the serial port.
func (b *Bridge) Close() error {
	if b == nil || b.rw == nil {
		return nil
	}
	return b.rw.Close()
}

// roundTrip sends one command and reads its ack under the lock.
func (b *Bridge) roundTrip(op uint8, args []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := writeCommand(b.rw, op, args); err != nil {
		return nil, err
	}
	return expectAck(b.rw)
}

// ---- rfnet.Network ----

func (b *Bridge) Begin(channel uint8, addr rfnet.Addr, rate rfnet.DataRate, power rfnet.PowerLevel) error {
	args := make([]byte, 5)
	args[0] = channel
	binary.LittleEndian.PutUint16(args[1:3], uint16(addr))
	args[3] = uint8(rate)
	args[4] = uint8(power)

	extra, err := b.roundTrip(opBegin, args)
	if err != nil {
		return err
	}
	// The begin ack carries the routing layer's route timeout.
	if len(extra) >= 2 {
		b.routeTimeout = uint32(binary.LittleEndian.Uint16(extra))
	}
	b.addr = addr
	return nil
}

func (b *Bridge) Update() rfnet.MessageType {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := writeCommand(b.rw, opPoll, nil); err != nil {
		return rfnet.TypeNone
	}
	op, args, err := readReply(b.rw)
	if err != nil || op != evFrame {
		return rfnet.TypeNone
	}
	fr, err := rfnet.ParseFrame(args)
	if err != nil {
		return rfnet.TypeNone
	}
	b.last = fr
	return fr.Type
}

func (b *Bridge) Frame() rfnet.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Bridge) Write(h rfnet.Header, payload []byte) error {
	raw, err := rfnet.Frame{Header: h, Payload: payload}.Marshal()
	if err != nil {
		return err
	}
	_, err = b.roundTrip(opWrite, raw)
	return err
}

func (b *Bridge) WriteDirect(h rfnet.Header, payload []byte, to rfnet.Addr) error {
	raw, err := rfnet.Frame{Header: h, Payload: payload}.Marshal()
	if err != nil {
		return err
	}
	args := append(rfnet.PutAddr(to), raw...)
	_, err = b.roundTrip(opWriteDir, args)
	return err
}

func (b *Bridge) Multicast(h rfnet.Header, payload []byte, level uint8) error {
	raw, err := rfnet.Frame{Header: h, Payload: payload}.Marshal()
	if err != nil {
		return err
	}
	args := append([]byte{level}, raw...)
	_, err = b.roundTrip(opMulticast, args)
	return err
}

func (b *Bridge) SetAddress(a rfnet.Addr) error {
	if _, err := b.roundTrip(opSetAddress, rfnet.PutAddr(a)); err != nil {
		return err
	}
	b.addr = a
	return nil
}

func (b *Bridge) Address() rfnet.Addr {
	return b.addr
}

func (b *Bridge) IsValidAddress(a rfnet.Addr) bool {
	return a.IsValid()
}

func (b *Bridge) ChildBitField() uint8 {
	_, mask, _ := b.status()
	return mask
}

func (b *Bridge) RaiseFlags(f rfnet.Flags) {
	b.setFlags(b.flags | f)
}

func (b *Bridge) ClearFlags(f rfnet.Flags) {
	b.setFlags(b.flags &^ f)
}

func (b *Bridge) Flags() rfnet.Flags {
	return b.flags
}

func (b *Bridge) setFlags(f rfnet.Flags) {
	if _, err := b.roundTrip(opSetFlags, []byte{uint8(f)}); err == nil {
		b.flags = f
	}
}

func (b *Bridge) RouteTimeout() uint32 {
	return b.routeTimeout
}

func (b *Bridge) ReturnSystemMessages(on bool) {
	arg := byte(0)
	if on {
		arg = 1
	}
	b.roundTrip(opReturnSys, []byte{arg})
}

// ---- rfnet.Radio ----

// Millis is the host monotonic clock; the co-processor's own tick never
// crosses the wire.
func (b *Bridge) Millis() uint32 {
	return uint32(time.Since(b.start) / time.Millisecond)
}

func (b *Bridge) Delay(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// status queries the co-processor's receive state.
func (b *Bridge) status() (bits uint8, childMask uint8, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := writeCommand(b.rw, opStatus, nil); err != nil {
		return 0, 0, err
	}
	op, args, err := readReply(b.rw)
	if err != nil {
		return 0, 0, err
	}
	if op != evStatus || len(args) < 2 {
		return 0, 0, fmt.Errorf("uart: unexpected status reply 0x%02x", op)
	}
	return args[0], args[1], nil
}

func (b *Bridge) Available() bool {
	bits, _, err := b.status()
	return err == nil && bits&1 != 0
}

func (b *Bridge) RxFifoFull() bool {
	bits, _, err := b.status()
	return err == nil && bits&2 != 0
}

func (b *Bridge) StartListening() {
	b.roundTrip(opListen, []byte{1})
}

func (b *Bridge) StopListening() {
	b.roundTrip(opListen, []byte{0})
}

func (b *Bridge) SetChannel(ch uint8) error {
	_, err := b.roundTrip(opSetChannel, []byte{ch})
	return err
}
