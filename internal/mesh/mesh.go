// Package mesh implements the address-management core of the wireless
// mesh: the coordinator's binding table and allocator, the member join
// protocol, the id/address lookup service, and connectivity maintenance.
// The routing layer and radio driver are external collaborators reached
// through the rfnet interfaces.
package mesh

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// Role is the node's part in the protocol, fixed by its identifier.
type Role uint8

const (
	RoleMember Role = iota
	RoleCoordinator
)

func (r Role) String() string {
	if r == RoleCoordinator {
		return "coordinator"
	}
	return "member"
}

// Protocol timing. Values are milliseconds and are part of the protocol,
// not configuration.
const (
	DefaultChannel          = 97
	DefaultRenewalTimeoutMS = 60000
	DefaultLookupTimeoutMS  = 3000

	pollTimeoutMS     = 150
	maxPolls          = 4
	responseWaitMS    = 225
	confirmRetries    = 6
	confirmSpacingMS  = 3
	addrLookupWaitMS  = 150
	idLookupWaitMS    = 500
	lookupRetryStepMS = 50
)

// Config carries the per-node settings. Zero values for the timeouts and
// channel select the defaults.
type Config struct {
	NodeID   rfnet.NodeID // 0 makes this node the coordinator
	Channel  uint8
	DataRate rfnet.DataRate
	Power    rfnet.PowerLevel

	// RenewalTimeoutMS bounds Begin's join attempt on members.
	RenewalTimeoutMS uint32
	// LookupTimeoutMS bounds Write's id-to-address retry loop.
	LookupTimeoutMS uint32

	Logger log.FieldLogger
}

// Mesh is one node's view of the mesh. A coordinator additionally owns
// the binding table. Protocol methods must be called from a single
// goroutine; the protocol is cooperative and has no background workers.
// Address, ErrorCode and Bindings are safe to read from other goroutines
// (the diagnostics server does) and are guarded accordingly.
type Mesh struct {
	radio rfnet.Radio
	net   rfnet.Network
	cfg   Config
	role  Role
	log   log.FieldLogger

	// stateMu guards addr and lastErr against cross-goroutine reads.
	// Writes happen only on the protocol goroutine.
	stateMu sync.RWMutex
	addr    rfnet.Addr
	lastErr ErrorKind

	channel uint8

	// Coordinator state.
	table    BindingTable
	lastID   rfnet.NodeID
	lastAddr rfnet.Addr

	// DHCP work snapshotted by Update for DHCP to process.
	dhcpFrame   rfnet.Frame
	processDHCP bool
}

// New assembles a mesh node over the given radio and routing layer.
func New(radio rfnet.Radio, network rfnet.Network, cfg Config) (*Mesh, error) {
	if radio == nil {
		return nil, errors.New("mesh: radio required")
	}
	if network == nil {
		return nil, errors.New("mesh: network required")
	}
	if cfg.Channel == 0 {
		cfg.Channel = DefaultChannel
	}
	if cfg.RenewalTimeoutMS == 0 {
		cfg.RenewalTimeoutMS = DefaultRenewalTimeoutMS
	}
	if cfg.LookupTimeoutMS == 0 {
		cfg.LookupTimeoutMS = DefaultLookupTimeoutMS
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	m := &Mesh{
		radio:   radio,
		net:     network,
		cfg:     cfg,
		channel: cfg.Channel,
		addr:    rfnet.DefaultAddress,
		log:     logger.WithField("node_id", cfg.NodeID),
	}
	if cfg.NodeID == 0 {
		m.role = RoleCoordinator
	}
	return m, nil
}

// Begin starts the routing layer and, on members, joins the mesh. The
// coordinator takes address 0 immediately.
func (m *Mesh) Begin() error {
	m.clearErr()

	if err := m.net.Begin(m.channel, rfnet.DefaultAddress, m.cfg.DataRate, m.cfg.Power); err != nil {
		return m.fail(FailedInit)
	}
	m.net.ReturnSystemMessages(true)

	if m.role == RoleCoordinator {
		m.log.Info("starting coordinator")
		m.setAddr(rfnet.CoordinatorAddress)
		if err := m.net.SetAddress(m.addr); err != nil {
			return m.fail(FailedInit)
		}
		return nil
	}

	m.log.Info("starting member, acquiring address")
	_, err := m.RenewAddress(m.cfg.RenewalTimeoutMS)
	return err
}

// Update is the single pump the embedder calls from its main loop. It
// drives the routing layer once, snapshots address-management frames for
// DHCP, dispatches coordinator system frames inline, and returns the
// received frame's type for the embedder's own logic.
func (m *Mesh) Update() rfnet.MessageType {
	t := m.net.Update()
	if m.addr == rfnet.DefaultAddress {
		return t
	}

	if t == rfnet.TypeReqAddress {
		m.dhcpFrame = m.net.Frame()
		m.processDHCP = true
	}

	if m.role == RoleCoordinator {
		switch t {
		case rfnet.TypeAddrLookup, rfnet.TypeIDLookup:
			m.serveLookup(t, m.net.Frame())
		case rfnet.TypeAddrRelease:
			f := m.net.Frame()
			m.log.WithField("addr", f.SrcNode).Info("address released")
			m.table.ReleaseAddr(f.SrcNode)
		case rfnet.TypeAddrConfirm:
			// Late confirmation arriving outside the DHCP wait window.
			if f := m.net.Frame(); f.SrcNode == m.lastAddr {
				m.table.Set(m.lastID, m.lastAddr)
			}
		}
	}
	return t
}

// setAddr records a new logical address under the state lock.
func (m *Mesh) setAddr(a rfnet.Addr) {
	m.stateMu.Lock()
	m.addr = a
	m.stateMu.Unlock()
}

// Address returns the node's current logical address. DefaultAddress
// means "not joined".
func (m *Mesh) Address() rfnet.Addr {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.addr
}

// NodeID returns this node's own identifier.
func (m *Mesh) NodeID() rfnet.NodeID {
	return m.cfg.NodeID
}

// Role returns whether this node is the coordinator or a member.
func (m *Mesh) Role() Role {
	return m.role
}

// ErrorCode returns the kind recorded by the most recent operation.
func (m *Mesh) ErrorCode() ErrorKind {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.lastErr
}

// SetBinding installs an id/address pair by hand on the coordinator.
func (m *Mesh) SetBinding(id rfnet.NodeID, addr rfnet.Addr) error {
	m.clearErr()
	if m.role != RoleCoordinator {
		return m.fail(InvalidParam)
	}
	m.table.Set(id, addr)
	return nil
}

// Bindings snapshots the coordinator's table for diagnostics.
func (m *Mesh) Bindings() []Binding {
	return m.table.Snapshot()
}

// SetChannel retunes the radio after the mesh has started.
func (m *Mesh) SetChannel(ch uint8) error {
	m.clearErr()
	m.channel = ch
	if err := m.radio.SetChannel(ch); err != nil {
		return m.fail(InvalidParam)
	}
	m.radio.StartListening()
	return nil
}

// SetChild controls whether joiners may discover and attach to this node.
func (m *Mesh) SetChild(allow bool) {
	if allow {
		m.net.ClearFlags(rfnet.FlagNoPoll)
	} else {
		m.net.RaiseFlags(rfnet.FlagNoPoll)
	}
}
