// Package rfnet defines the contract between the mesh core and the
// tree-routing layer it sits on: logical addresses, the 8-byte frame
// header, system message types, and the Network/Radio interfaces.
// These values define the wire protocol and MUST NOT be configurable.
package rfnet

import (
	"fmt"
	"strconv"
)

// Addr is a logical (octal) network address. Each 3-bit digit, LSB first,
// names a child slot at one tree level. Address 0 is the coordinator.
type Addr uint16

// NodeID is the operator-assigned stable node name. 0 is the coordinator.
type NodeID uint8

// MessageType is the frame type byte carried in the header.
type MessageType uint8

// ---- RESERVED ADDRESSES ----

// CoordinatorAddress is the root of the routing tree.
const CoordinatorAddress Addr = 0

// DefaultAddress marks an unconfigured node. Nodes hold it from power-on
// until the coordinator assigns a real address.
const DefaultAddress Addr = 0o4444

// MulticastAddress is the routing layer's multicast destination.
const MulticastAddress Addr = 0o100

// BlankID is a 16-bit sentinel meaning "no identifier supplied". It is
// used in API surfaces only and never appears on the type wire byte.
const BlankID uint16 = 65535

// ---- SYSTEM MESSAGE TYPES ----

// Types above MaxUserType are reserved for the network and mesh layers.
// The routing layer acknowledges AddrConfirm and Ping; the rest ride
// unacknowledged.
const (
	TypeNone MessageType = 0

	// MaxUserType is the highest application-defined type.
	MaxUserType MessageType = 127

	TypeAddrResponse MessageType = 128
	TypeAddrConfirm  MessageType = 129
	TypePing         MessageType = 130
	TypePoll         MessageType = 194
	TypeReqAddress   MessageType = 195
	TypeAddrLookup   MessageType = 196
	TypeAddrRelease  MessageType = 197
	TypeIDLookup     MessageType = 198
)

func (t MessageType) String() string {
	switch t {
	case TypeNone:
		return "NONE"
	case TypeAddrResponse:
		return "ADDR_RESPONSE"
	case TypeAddrConfirm:
		return "ADDR_CONFIRM"
	case TypePing:
		return "PING"
	case TypePoll:
		return "POLL"
	case TypeReqAddress:
		return "REQ_ADDRESS"
	case TypeAddrLookup:
		return "ADDR_LOOKUP"
	case TypeAddrRelease:
		return "ADDR_RELEASE"
	case TypeIDLookup:
		return "ID_LOOKUP"
	default:
		return fmt.Sprintf("USER(%d)", uint8(t))
	}
}

// IsAckType reports whether the routing layer acknowledges this type.
func (t MessageType) IsAckType() bool {
	if t > TypeNone && t <= MaxUserType {
		return t > 64
	}
	return t == TypeAddrConfirm || t == TypePing
}

// octalShift is the bit width of one address digit.
const octalShift = 3

const octalMask Addr = 0o7

// Level returns the tree depth of the address: the number of non-zero
// octal digits. The coordinator is level 0.
func (a Addr) Level() uint8 {
	var level uint8
	for a != 0 {
		a >>= octalShift
		level++
	}
	return level
}

// Parent returns the address with the deepest digit stripped. The
// coordinator is its own parent.
func (a Addr) Parent() Addr {
	if a == 0 {
		return 0
	}
	shift := octalShift * (a.Level() - 1)
	return a &^ (octalMask << shift)
}

// IsValid reports whether the address can exist in the routing tree:
// every digit names a child slot 1..5. The default and multicast
// addresses are accepted as special cases.
func (a Addr) IsValid() bool {
	if a == CoordinatorAddress || a == DefaultAddress || a == MulticastAddress {
		return true
	}
	for a != 0 {
		digit := a & octalMask
		if digit == 0 || digit > 5 {
			return false
		}
		a >>= octalShift
	}
	return true
}

// String formats the address in octal with a leading zero, the notation
// used everywhere in mesh logs and diagnostics.
func (a Addr) String() string {
	return "0" + strconv.FormatUint(uint64(a), 8)
}

// ---- NETWORK FLAGS ----

// Flags is the routing layer's behavior bit field.
type Flags uint8

const (
	// FlagHoldIncoming pauses inbound processing while buffers drain.
	FlagHoldIncoming Flags = 1 << iota
	// FlagBypassHolds forces traffic through despite holds. Set during
	// address renewal, where data loss is preferable to blocking.
	FlagBypassHolds
	// FlagFastFrag enables back-to-back fragment transmission.
	FlagFastFrag
	// FlagNoPoll stops this node answering discovery polls, which
	// prevents new children from attaching.
	FlagNoPoll
)
