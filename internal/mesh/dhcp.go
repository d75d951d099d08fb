package mesh

import "github.com/tamzrod/rfmesh/internal/rfnet"

// DHCP processes any address request snapshotted by Update. The embedder
// calls it right after Update on the coordinator; it is a no-op anywhere
// else and when no request is pending.
func (m *Mesh) DHCP() {
	if !m.processDHCP {
		return
	}
	m.processDHCP = false

	if m.role != RoleCoordinator {
		// Members only relay; the routing layer already forwarded it.
		return
	}
	m.assignAddress(m.dhcpFrame)
}

// assignAddress serves one address request: pick a child slot under the
// requested parent, answer the joiner, and bind once it confirms.
func (m *Mesh) assignAddress(req rfnet.Frame) {
	id := rfnet.NodeID(req.Reserved)
	if id == 0 {
		m.log.Warn("address request with blank id dropped")
		return
	}

	// An unforwarded request (source still unconfigured) attaches to the
	// coordinator itself; a relayed one names its parent in the payload
	// and carries the parent's child mask in byte 3.
	var (
		parent rfnet.Addr
		mask   uint8
	)
	if req.SrcNode == rfnet.DefaultAddress {
		parent = m.addr
		mask = m.net.ChildBitField()
	} else {
		parent = req.PayloadAddr()
		if len(req.Payload) >= 4 {
			mask = req.Payload[3]
		}
	}

	newAddr := m.allocateAddress(parent, mask, id)
	if newAddr == EmptyAddress {
		m.log.WithFields(map[string]interface{}{
			"parent": parent,
			"id":     id,
		}).Warn("no free child slot")
		return
	}

	resp := rfnet.Header{
		SrcNode:  m.addr,
		DstNode:  req.SrcNode,
		Type:     rfnet.TypeAddrResponse,
		Reserved: req.Reserved,
	}
	m.radio.Delay(10)

	var err error
	if req.SrcNode != rfnet.DefaultAddress {
		// Routed request: the reply retraces the tree to the relay.
		err = m.net.Write(resp, rfnet.PutAddr(newAddr))
	} else {
		err = m.net.WriteDirect(resp, rfnet.PutAddr(newAddr), resp.DstNode)
	}
	if err != nil {
		m.fail(FailedWrite)
		return
	}

	// Track the offer and wait, bounded by the routing layer's round-trip
	// budget, for the joiner to confirm from its new address. A racing
	// joiner overwrites the pending pair; the earlier offer is lost.
	m.lastID = id
	m.lastAddr = newAddr

	timer := m.radio.Millis()
	for {
		if m.net.Update() == rfnet.TypeAddrConfirm && m.net.Frame().SrcNode == newAddr {
			break
		}
		if m.radio.Millis()-timer > m.net.RouteTimeout() {
			m.fail(Timeout)
			return
		}
	}

	m.table.Set(id, newAddr)
	m.log.WithFields(map[string]interface{}{
		"id":   id,
		"addr": newAddr,
	}).Info("address assigned")
}

// serveLookup answers a member's id or address lookup from the table.
// Results ride as little-endian int16: -1 means the key was never bound,
// -2 means the id exists but its lease is currently released.
func (m *Mesh) serveLookup(t rfnet.MessageType, req rfnet.Frame) {
	resp := rfnet.Header{
		SrcNode: m.addr,
		DstNode: req.SrcNode,
		Type:    t,
	}

	var result int16 = -1
	if t == rfnet.TypeAddrLookup {
		if len(req.Payload) < 1 {
			return
		}
		addr, ok := m.table.AddrOf(rfnet.NodeID(req.Payload[0]))
		switch {
		case !ok:
			result = -1
		case addr == EmptyAddress:
			result = -2
		default:
			result = int16(addr)
		}
	} else {
		if id, ok := m.table.IDOf(req.PayloadAddr()); ok {
			result = int16(id)
		}
	}

	if err := m.net.Write(resp, rfnet.PutInt16(result)); err != nil {
		m.log.WithField("dst", resp.DstNode).Debug("lookup reply failed")
	}
}
