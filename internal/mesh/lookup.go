package mesh

import (
	"errors"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// GetAddress translates an identifier to its network address. On the
// coordinator this is a table read; members ask the coordinator and block
// for up to 150 ms. AddressUnknown means the coordinator answered and did
// not know; other failures are communication problems worth retrying.
func (m *Mesh) GetAddress(id rfnet.NodeID) (rfnet.Addr, error) {
	m.clearErr()

	if m.role == RoleCoordinator {
		addr, ok := m.table.AddrOf(id)
		if !ok {
			return EmptyAddress, m.fail(NotConfigured)
		}
		if addr == EmptyAddress {
			return EmptyAddress, m.fail(AddressUnknown)
		}
		return addr, nil
	}

	if m.addr == rfnet.DefaultAddress {
		return EmptyAddress, m.fail(NotConfigured)
	}
	if id == 0 {
		// The coordinator's address is fixed; asking for it is a misuse.
		return rfnet.CoordinatorAddress, m.fail(InvalidParam)
	}

	req := rfnet.Header{
		SrcNode: m.addr,
		DstNode: rfnet.CoordinatorAddress,
		Type:    rfnet.TypeAddrLookup,
	}
	if err := m.net.Write(req, []byte{uint8(id)}); err != nil {
		return EmptyAddress, m.fail(FailedWrite)
	}

	timer := m.radio.Millis()
	for m.net.Update() != rfnet.TypeAddrLookup {
		if m.radio.Millis()-timer > addrLookupWaitMS {
			return EmptyAddress, m.fail(FailedAddrLookup)
		}
	}

	result := m.net.Frame().PayloadInt16()
	if result < 0 {
		return EmptyAddress, m.fail(AddressUnknown)
	}
	return rfnet.Addr(result), nil
}

// GetNodeID translates a network address back to an identifier, the
// inverse lookup used for diagnostics. Passing BlankID returns this
// node's own identifier without any traffic.
func (m *Mesh) GetNodeID(addr rfnet.Addr) (rfnet.NodeID, error) {
	m.clearErr()

	if addr == rfnet.Addr(rfnet.BlankID) {
		return m.cfg.NodeID, nil
	}
	if addr == rfnet.CoordinatorAddress {
		return 0, nil
	}

	if m.role == RoleCoordinator {
		if id, ok := m.table.IDOf(addr); ok {
			return id, nil
		}
		return 0, m.fail(AddressUnknown)
	}

	if m.addr == rfnet.DefaultAddress {
		return 0, m.fail(NotConfigured)
	}

	req := rfnet.Header{
		SrcNode: m.addr,
		DstNode: rfnet.CoordinatorAddress,
		Type:    rfnet.TypeIDLookup,
	}
	if err := m.net.Write(req, rfnet.PutAddr(addr)); err != nil {
		return 0, m.fail(FailedWrite)
	}

	timer := m.radio.Millis()
	for m.net.Update() != rfnet.TypeIDLookup {
		if m.radio.Millis()-timer > idLookupWaitMS {
			return 0, m.fail(Timeout)
		}
	}

	result := m.net.Frame().PayloadInt16()
	if result < 0 {
		return 0, m.fail(AddressUnknown)
	}
	return rfnet.NodeID(result), nil
}

// Write sends application data addressed by identifier. id 0 targets the
// coordinator directly; anything else is looked up first, retrying with a
// widening delay until the lookup timeout elapses or the coordinator
// authoritatively does not know the id.
func (m *Mesh) Write(data []byte, t rfnet.MessageType, id rfnet.NodeID) error {
	m.clearErr()
	if m.addr == rfnet.DefaultAddress {
		return m.fail(NotConfigured)
	}

	var to rfnet.Addr
	if id != 0 {
		deadline := m.radio.Millis() + m.cfg.LookupTimeoutMS
		retryDelay := uint32(lookupRetryStepMS)
		for {
			addr, err := m.GetAddress(id)
			if err == nil {
				to = addr
				break
			}
			if errors.Is(err, AddressUnknown) || m.radio.Millis() > deadline {
				return err
			}
			retryDelay += lookupRetryStepMS
			m.radio.Delay(retryDelay)
		}
	}
	return m.WriteTo(to, data, t)
}

// WriteTo sends application data to an explicit network address.
func (m *Mesh) WriteTo(addr rfnet.Addr, data []byte, t rfnet.MessageType) error {
	if m.addr == rfnet.DefaultAddress {
		return m.fail(NotConfigured)
	}

	h := rfnet.Header{
		SrcNode: m.addr,
		DstNode: addr,
		Type:    t,
	}
	if err := m.net.Write(h, data); err != nil {
		return m.fail(FailedWrite)
	}
	return nil
}
