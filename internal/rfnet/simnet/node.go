package simnet

import (
	"runtime"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// Node is one simulated radio+routing stack. It satisfies both
// rfnet.Network and rfnet.Radio.
type Node struct {
	f    *Fabric
	name string

	addr      rfnet.Addr
	channel   uint8
	flags     rfnet.Flags
	listening bool
	began     bool
	returnSys bool

	queue []rfnet.Frame
	last  rfnet.Frame
}

// ---- rfnet.Network ----

func (n *Node) Begin(channel uint8, addr rfnet.Addr, _ rfnet.DataRate, _ rfnet.PowerLevel) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.channel = channel
	n.began = true
	n.listening = true
	n.setAddressLocked(addr)
	return nil
}

// Update pops at most one queued frame, performing the routing layer's
// own duties first: answering discovery polls, forwarding address
// requests upward with the child mask annotated, and relaying address
// responses down to the unaddressed joiner. Each call advances the
// fabric clock by one millisecond so bounded waits make progress.
func (n *Node) Update() rfnet.MessageType {
	n.f.clock.Add(1)

	n.f.mu.Lock()
	if len(n.queue) == 0 {
		n.f.mu.Unlock()
		runtime.Gosched()
		return rfnet.TypeNone
	}
	fr := n.queue[0]
	n.queue = n.queue[1:]
	n.last = fr

	addressed := n.addr != rfnet.DefaultAddress

	switch {
	case fr.Type == rfnet.TypePoll && fr.DstNode == rfnet.MulticastAddress:
		// A joiner is looking for a parent. Answer unless children are
		// disallowed here.
		if addressed && n.flags&rfnet.FlagNoPoll == 0 {
			reply := rfnet.Frame{Header: rfnet.Header{
				SrcNode: n.addr,
				DstNode: fr.SrcNode,
				ID:      n.f.nextSeqLocked(),
				Type:    rfnet.TypePoll,
			}}
			n.f.sendDirectLocked(n, reply, fr.SrcNode)
		}

	case fr.Type == rfnet.TypeReqAddress && addressed && n.addr != rfnet.CoordinatorAddress:
		// Relay duty: annotate our child mask when we are the named
		// parent candidate, stamp our address as the source, and route
		// the request up to the coordinator.
		fwd := rfnet.NewFrame(fr.Header, fr.Payload)
		if fwd.PayloadAddr() == n.addr && len(fwd.Payload) >= 4 {
			fwd.Payload[3] = n.childBitFieldLocked()
		}
		fwd.SrcNode = n.addr
		fwd.DstNode = rfnet.CoordinatorAddress
		n.f.sendRoutedLocked(n, fwd)

	case fr.Type == rfnet.TypeAddrResponse && addressed && fr.DstNode == n.addr:
		// The coordinator answered through us; hand the response to the
		// joiner, which is still on the default address.
		relay := rfnet.NewFrame(fr.Header, fr.Payload)
		relay.DstNode = rfnet.DefaultAddress
		n.f.sendDirectLocked(n, relay, rfnet.DefaultAddress)
	}

	n.f.mu.Unlock()
	runtime.Gosched()
	return fr.Type
}

func (n *Node) Frame() rfnet.Frame {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return rfnet.NewFrame(n.last.Header, n.last.Payload)
}

func (n *Node) Write(h rfnet.Header, payload []byte) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.listening = true
	fr := rfnet.NewFrame(h, payload)
	fr.ID = n.f.nextSeqLocked()
	err := n.f.sendRoutedLocked(n, fr)
	if err != nil && !h.Type.IsAckType() {
		// Unacknowledged types are fire-and-forget; loss is silent, as
		// it would be on air.
		return nil
	}
	return err
}

// WriteDirect is a single physical transmission; the hop's hardware
// auto-ack reports delivery for every type, so no IsAckType gate here.
func (n *Node) WriteDirect(h rfnet.Header, payload []byte, to rfnet.Addr) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.listening = true
	fr := rfnet.NewFrame(h, payload)
	fr.ID = n.f.nextSeqLocked()
	return n.f.sendDirectLocked(n, fr, to)
}

func (n *Node) Multicast(h rfnet.Header, payload []byte, level uint8) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.listening = true
	fr := rfnet.NewFrame(h, payload)
	fr.ID = n.f.nextSeqLocked()
	for _, peer := range n.f.nodes {
		if peer == n || !peer.began || peer.addr == rfnet.DefaultAddress {
			continue
		}
		if peer.addr.Level() != level || !n.f.linkUp(n, peer) {
			continue
		}
		n.f.deliverLocked(peer, fr)
	}
	return nil
}

func (n *Node) SetAddress(a rfnet.Addr) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.setAddressLocked(a)
	return nil
}

func (n *Node) setAddressLocked(a rfnet.Addr) {
	if n.addr != rfnet.DefaultAddress {
		delete(n.f.byAddr, n.addr)
	}
	n.addr = a
	if a != rfnet.DefaultAddress {
		n.f.byAddr[a] = n
	}
	n.listening = true
}

func (n *Node) Address() rfnet.Addr {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.addr
}

func (n *Node) IsValidAddress(a rfnet.Addr) bool {
	return a.IsValid()
}

func (n *Node) ChildBitField() uint8 {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.childBitFieldLocked()
}

func (n *Node) childBitFieldLocked() uint8 {
	var mask uint8
	shift := uint(n.addr.Level()) * 3
	for slot := rfnet.Addr(1); slot <= 5; slot++ {
		child := n.addr | slot<<shift
		if _, ok := n.f.byAddr[child]; ok {
			mask |= 1 << (slot - 1)
		}
	}
	return mask
}

func (n *Node) RaiseFlags(f rfnet.Flags) {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.flags |= f
}

func (n *Node) ClearFlags(f rfnet.Flags) {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.flags &^= f
}

func (n *Node) Flags() rfnet.Flags {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return n.flags
}

func (n *Node) RouteTimeout() uint32 {
	return routeTimeoutMS
}

func (n *Node) ReturnSystemMessages(on bool) {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.returnSys = on
}

// ---- rfnet.Radio ----

func (n *Node) Millis() uint32 {
	return n.f.clock.Load()
}

func (n *Node) Delay(ms uint32) {
	n.f.clock.Add(ms)
	runtime.Gosched()
}

func (n *Node) Available() bool {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return len(n.queue) > 0
}

func (n *Node) RxFifoFull() bool {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	return len(n.queue) >= fifoFullDepth
}

func (n *Node) StartListening() {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.listening = true
}

func (n *Node) StopListening() {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.listening = false
}

func (n *Node) SetChannel(ch uint8) error {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	n.channel = ch
	return nil
}
