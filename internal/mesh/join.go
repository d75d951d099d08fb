package mesh

import "github.com/tamzrod/rfmesh/internal/rfnet"

// requestAddress runs one member-side join attempt at the given poll
// level: multicast a poll, collect contacts, ask each in turn to relay an
// address request, validate the coordinator's response, and confirm it.
func (m *Mesh) requestAddress(level uint8) error {
	m.log.WithField("level", level).Debug("polling for contacts")

	poll := rfnet.Header{
		SrcNode: m.net.Address(),
		DstNode: rfnet.MulticastAddress,
		Type:    rfnet.TypePoll,
	}
	if err := m.net.Multicast(poll, nil, level); err != nil {
		return m.fail(FailedWrite)
	}

	// Collect unicast poll replies. Order is kept; duplicates are fine.
	contacts := make([]rfnet.Addr, 0, maxPolls)
	start := m.radio.Millis()
	for {
		if m.net.Update() == rfnet.TypePoll {
			contacts = append(contacts, m.net.Frame().SrcNode)
		}
		if m.radio.Millis()-start > pollTimeoutMS || len(contacts) >= maxPolls {
			break
		}
	}
	if len(contacts) == 0 {
		m.log.WithField("level", level).Debug("no poll replies")
		return m.fail(PollFailed)
	}
	m.log.WithField("contacts", len(contacts)).Debug("poll ok")

	// Ask each contact to forward a request up to the coordinator.
	var (
		resp rfnet.Frame
		got  bool
	)
	for _, contact := range contacts {
		if !m.net.IsValidAddress(contact) {
			continue
		}

		req := rfnet.Header{
			SrcNode:  m.net.Address(),
			DstNode:  contact,
			Type:     rfnet.TypeReqAddress,
			Reserved: uint8(m.cfg.NodeID),
		}
		// Payload: parent candidate, spare, child mask slot for the
		// contact to fill in while forwarding.
		payload := append(rfnet.PutAddr(contact), 0, 0)
		if err := m.net.WriteDirect(req, payload, contact); err != nil {
			continue
		}
		m.log.WithField("contact", contact).Debug("requested address")

		timer := m.radio.Millis()
		for m.radio.Millis()-timer < responseWaitMS {
			if m.net.Update() == rfnet.TypeAddrResponse {
				resp = m.net.Frame()
				got = true
				break
			}
		}
		if got {
			break
		}
		m.radio.Delay(5)
	}
	if !got {
		return m.fail(NoResponse)
	}

	newAddr := resp.PayloadAddr()
	if newAddr == 0 || resp.Reserved != uint8(m.cfg.NodeID) {
		m.log.WithFields(map[string]interface{}{
			"addr": newAddr,
			"id":   resp.Reserved,
		}).Debug("response discarded")
		return m.fail(FailedAddrRequest)
	}

	// Take the address, then prove receipt to the coordinator.
	m.radio.StopListening()
	m.radio.Delay(10)
	if err := m.net.SetAddress(newAddr); err != nil {
		return m.fail(FailedInit)
	}
	m.setAddr(newAddr)

	confirm := rfnet.Header{
		SrcNode:  m.addr,
		DstNode:  rfnet.CoordinatorAddress,
		Type:     rfnet.TypeAddrConfirm,
		Reserved: uint8(m.cfg.NodeID),
	}
	attempts := 0
	for m.net.Write(confirm, nil) != nil {
		attempts++
		if attempts >= confirmRetries {
			m.net.SetAddress(rfnet.DefaultAddress)
			m.setAddr(rfnet.DefaultAddress)
			return m.fail(FailedAddrConfirm)
		}
		m.radio.Delay(confirmSpacingMS)
	}

	m.log.WithField("addr", m.addr).Info("joined mesh")
	return nil
}
