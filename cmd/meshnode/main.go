// cmd/meshnode/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/rfmesh/internal/config"
	"github.com/tamzrod/rfmesh/internal/diag"
	"github.com/tamzrod/rfmesh/internal/mesh"
	"github.com/tamzrod/rfmesh/internal/rfnet"
	"github.com/tamzrod/rfmesh/internal/rfnet/simnet"
	"github.com/tamzrod/rfmesh/internal/rfnet/uart"
)

// checkIntervalMS is how often a member probes its uplink.
const checkIntervalMS = 10000

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: meshnode <config.yaml>")
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Transport
	// --------------------

	var (
		network rfnet.Network
		radio   rfnet.Radio
	)
	switch cfg.Transport.Mode {
	case "uart":
		bridge, err := uart.Open(uart.Config{
			Port:     cfg.Transport.Port,
			BaudRate: cfg.Transport.BaudRate,
		})
		if err != nil {
			log.Fatalf("uart open failed: %v", err)
		}
		defer bridge.Close()
		network, radio = bridge, bridge
	case "sim":
		// A one-node fabric: useful for exercising the daemon without
		// hardware. Peers can only exist inside one process, so a sim
		// member will keep retrying its join until the timeout.
		node := simnet.NewFabric().NewNode("local")
		network, radio = node, node
	}

	// --------------------
	// Mesh node
	// --------------------

	m, err := mesh.New(radio, network, mesh.Config{
		NodeID:           rfnet.NodeID(cfg.Node.ID),
		Channel:          cfg.Node.Channel,
		DataRate:         dataRate(cfg.Node.DataRate),
		Power:            power(cfg.Node.Power),
		RenewalTimeoutMS: cfg.Node.RenewalTimeoutMs,
		LookupTimeoutMS:  cfg.Node.LookupTimeoutMs,
	})
	if err != nil {
		log.Fatalf("mesh setup failed: %v", err)
	}
	if err := m.Begin(); err != nil {
		log.Fatalf("mesh begin failed: %v", err)
	}
	log.WithFields(log.Fields{
		"node_id": m.NodeID(),
		"address": m.Address(),
		"role":    m.Role(),
	}).Info("mesh node up")

	// --------------------
	// Diagnostics (coordinator only)
	// --------------------

	if cfg.Diag.Listen != "" {
		d := diag.New(cfg.Diag.Listen, m, log.StandardLogger())
		go func() {
			if err := d.Run(); err != nil {
				log.Errorf("diagnostics server failed: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			d.Shutdown(sctx)
		}()
	}

	// --------------------
	// Pump loop
	// --------------------

	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	lastCheck := radio.Millis()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			if m.Role() == mesh.RoleMember && m.Address() != rfnet.DefaultAddress {
				m.ReleaseAddress()
			}
			return
		case <-ticker.C:
		}

		m.Update()

		if m.Role() == mesh.RoleCoordinator {
			m.DHCP()
			continue
		}

		if radio.Millis()-lastCheck < checkIntervalMS {
			continue
		}
		lastCheck = radio.Millis()
		if !m.CheckConnection() {
			log.Warn("uplink lost, renewing address")
			if addr, err := m.RenewAddress(cfg.Node.RenewalTimeoutMs); err != nil {
				log.Errorf("address renewal failed: %v", err)
			} else {
				log.WithField("address", addr).Info("address renewed")
			}
		}
	}
}

func dataRate(s string) rfnet.DataRate {
	switch s {
	case "250kbps":
		return rfnet.Rate250Kbps
	case "2mbps":
		return rfnet.Rate2Mbps
	default:
		return rfnet.Rate1Mbps
	}
}

func power(s string) rfnet.PowerLevel {
	switch s {
	case "min":
		return rfnet.PowerMin
	case "low":
		return rfnet.PowerLow
	case "high":
		return rfnet.PowerHigh
	default:
		return rfnet.PowerMax
	}
}
