package rfnet

// DataRate selects the radio's air data rate.
type DataRate uint8

const (
	Rate250Kbps DataRate = iota
	Rate1Mbps
	Rate2Mbps
)

// PowerLevel selects the radio's transmit amplifier setting.
type PowerLevel uint8

const (
	PowerMin PowerLevel = iota
	PowerLow
	PowerHigh
	PowerMax
)

// Network is the tree-routing layer the mesh core drives. Implementations
// route unicast frames along the octal tree, deliver multicasts by tree
// level, answer discovery polls on behalf of addressed nodes, and forward
// address requests upward annotating the child bit field.
//
// Update must be pumped regularly; it processes at most one inbound frame
// per call and returns its type (TypeNone when idle). Frame returns a
// parsed snapshot of the last frame Update surfaced; the snapshot is only
// meaningful until the next Update call.
type Network interface {
	Begin(channel uint8, addr Addr, rate DataRate, power PowerLevel) error
	Update() MessageType
	Frame() Frame

	// Write routes a frame toward h.DstNode. For acknowledged types the
	// returned error reflects delivery failure.
	Write(h Header, payload []byte) error
	// WriteDirect transmits to a physical neighbor, skipping tree routing.
	WriteDirect(h Header, payload []byte, to Addr) error
	// Multicast transmits to every node at the given tree level.
	Multicast(h Header, payload []byte, level uint8) error

	SetAddress(a Addr) error
	Address() Addr
	IsValidAddress(a Addr) bool

	// ChildBitField reports occupied child slots: bit i set means slot
	// i+1 is taken.
	ChildBitField() uint8

	RaiseFlags(f Flags)
	ClearFlags(f Flags)
	Flags() Flags

	// RouteTimeout is the layer's bound, in milliseconds, on a routed
	// round trip. The coordinator waits this long for join confirmations.
	RouteTimeout() uint32

	// ReturnSystemMessages makes Update surface system frames to the
	// caller instead of consuming them internally.
	ReturnSystemMessages(on bool)
}

// Radio is the slice of the radio driver the mesh core observes. The
// driver may be interrupt-based internally; the core only ever sees it
// through these synchronous calls.
type Radio interface {
	// Millis is the driver's millisecond tick. It is the only clock the
	// core uses, which keeps every wait loop testable.
	Millis() uint32
	Delay(ms uint32)

	Available() bool
	RxFifoFull() bool

	StartListening()
	StopListening()

	SetChannel(ch uint8) error
}
