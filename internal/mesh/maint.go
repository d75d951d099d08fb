package mesh

import "github.com/tamzrod/rfmesh/internal/rfnet"

// CheckConnection probes reachability to the coordinator: up to three
// attempts of pump, liveness check, ping. On total failure the radio is
// put into standby; the node will not receive again until its address is
// renewed.
func (m *Mesh) CheckConnection() bool {
	result := false

	for attempts := 3; attempts > 0 && m.addr != rfnet.DefaultAddress; attempts-- {
		m.Update()

		if m.incomingTrafficObserved() {
			return true
		}

		ping := rfnet.Header{
			SrcNode: m.addr,
			DstNode: rfnet.CoordinatorAddress,
			Type:    rfnet.TypePing,
		}
		if m.net.Write(ping, nil) == nil {
			result = true
			break
		}
		m.radio.Delay(103)
	}

	if !result {
		m.log.Warn("mesh unreachable, radio to standby")
		m.radio.StopListening()
	}
	return result
}

// incomingTrafficObserved treats a full RX FIFO or a raised incoming-hold
// flag as proof the mesh is alive, without draining either. Inherited
// keep-alive tolerance.
func (m *Mesh) incomingTrafficObserved() bool {
	return m.radio.RxFifoFull() || m.net.Flags()&rfnet.FlagHoldIncoming != 0
}

// RenewAddress drops the current address and re-runs the join protocol
// until it succeeds or timeoutMS expires. Poll levels rotate 0..3 between
// attempts with a growing backoff. On failure the returned address is the
// BlankID sentinel.
func (m *Mesh) RenewAddress(timeoutMS uint32) (rfnet.Addr, error) {
	m.clearErr()

	// The radio should be drained before we tear the address down.
	if m.radio.Available() {
		return rfnet.Addr(rfnet.BlankID), m.fail(PendingData)
	}

	m.radio.StopListening()

	// Holds must not block the renewal; losing a little data beats
	// staying unaddressed.
	m.net.RaiseFlags(rfnet.FlagBypassHolds)
	defer m.net.ClearFlags(rfnet.FlagBypassHolds)
	m.radio.Delay(10)

	m.net.SetAddress(rfnet.DefaultAddress)
	m.setAddr(rfnet.DefaultAddress)

	var reqCounter, totalReqs uint8
	start := m.radio.Millis()
	for m.requestAddress(reqCounter) != nil {
		if m.radio.Millis()-start > timeoutMS {
			m.fail(Timeout)
			m.log.Warn("address renewal timed out")
			return rfnet.Addr(rfnet.BlankID), Timeout
		}

		m.radio.Delay(50 + uint32(totalReqs+1)*uint32(reqCounter+1)*2)
		reqCounter = (reqCounter + 1) % 4
		totalReqs = (totalReqs + 1) % 10
	}

	return m.addr, nil
}

// ReleaseAddress hands the lease back to the coordinator and reverts to
// the unconfigured address. The release itself is unacknowledged.
func (m *Mesh) ReleaseAddress() error {
	m.clearErr()
	if m.addr == rfnet.DefaultAddress {
		return m.fail(NotConfigured)
	}

	h := rfnet.Header{
		SrcNode: m.addr,
		DstNode: rfnet.CoordinatorAddress,
		Type:    rfnet.TypeAddrRelease,
	}
	if err := m.net.Write(h, nil); err != nil {
		return m.fail(FailedWrite)
	}

	m.net.SetAddress(rfnet.DefaultAddress)
	m.setAddr(rfnet.DefaultAddress)
	m.log.Info("address released")
	return nil
}
