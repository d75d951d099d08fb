// Package simnet is an in-memory stand-in for the radio and the
// tree-routing layer. It implements rfnet.Network and rfnet.Radio over a
// shared fabric with a fake millisecond clock, modelling the routing
// behaviors the mesh core's contract relies on: octal tree routing,
// discovery-poll auto-reply, address-request forwarding with child-mask
// annotation, and address-response relay to the unaddressed joiner.
//
// Links between node pairs can be severed to simulate topology changes.
// At most one node should be unaddressed (joining) at a time.
package simnet

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

const (
	queueDepth     = 16
	fifoFullDepth  = 3
	routeTimeoutMS = 75
)

var errUnreachable = errors.New("simnet: destination unreachable")

// Fabric ties the simulated nodes together and owns the shared clock.
type Fabric struct {
	mu      sync.Mutex
	clock   atomic.Uint32
	nodes   []*Node
	byAddr  map[rfnet.Addr]*Node
	severed map[[2]*Node]bool
	seq     uint16
}

func NewFabric() *Fabric {
	return &Fabric{
		byAddr:  make(map[rfnet.Addr]*Node),
		severed: make(map[[2]*Node]bool),
	}
}

// NewNode creates a node attached to the fabric. It starts unaddressed
// and silent until Begin is called.
func (f *Fabric) NewNode(name string) *Node {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &Node{f: f, name: name, addr: rfnet.DefaultAddress}
	f.nodes = append(f.nodes, n)
	return n
}

// Sever cuts the physical link between two nodes in both directions.
func (f *Fabric) Sever(a, b *Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.severed[[2]*Node{a, b}] = true
	f.severed[[2]*Node{b, a}] = true
}

// Restore re-establishes a severed link.
func (f *Fabric) Restore(a, b *Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.severed, [2]*Node{a, b})
	delete(f.severed, [2]*Node{b, a})
}

// Millis exposes the fabric clock for tests.
func (f *Fabric) Millis() uint32 {
	return f.clock.Load()
}

func (f *Fabric) linkUp(a, b *Node) bool {
	return !f.severed[[2]*Node{a, b}]
}

// nodeAtLocked resolves an address to a node. DefaultAddress resolves to
// the currently unaddressed joiner.
func (f *Fabric) nodeAtLocked(a rfnet.Addr) *Node {
	if a == rfnet.DefaultAddress {
		for _, n := range f.nodes {
			if n.began && n.addr == rfnet.DefaultAddress {
				return n
			}
		}
		return nil
	}
	return f.byAddr[a]
}

func (f *Fabric) nextSeqLocked() uint16 {
	f.seq++
	return f.seq
}

// ancestorChain lists a and every ancestor up to the root, in order.
func ancestorChain(a rfnet.Addr) []rfnet.Addr {
	chain := []rfnet.Addr{a}
	for a != 0 {
		a = a.Parent()
		chain = append(chain, a)
	}
	return chain
}

// routePath returns the hop sequence from src to dst through the tree,
// both endpoints included.
func routePath(src, dst rfnet.Addr) []rfnet.Addr {
	up := ancestorChain(src)
	down := ancestorChain(dst)

	common := 0
	lookup := make(map[rfnet.Addr]int, len(down))
	for i, a := range down {
		lookup[a] = i
	}
	path := make([]rfnet.Addr, 0, len(up)+len(down))
	for _, a := range up {
		path = append(path, a)
		if i, ok := lookup[a]; ok {
			common = i
			break
		}
	}
	for i := common - 1; i >= 0; i-- {
		path = append(path, down[i])
	}
	return path
}

// deliverLocked enqueues a frame at its destination, copying the payload
// so later annotation cannot alias it. Frames to deaf or full nodes are
// dropped, as they would be on air.
func (f *Fabric) deliverLocked(to *Node, fr rfnet.Frame) {
	if to == nil || !to.listening || len(to.queue) >= queueDepth {
		return
	}
	to.queue = append(to.queue, rfnet.NewFrame(fr.Header, fr.Payload))
}

// sendDirectLocked models a single physical transmission to a neighbor.
func (f *Fabric) sendDirectLocked(from *Node, fr rfnet.Frame, to rfnet.Addr) error {
	dst := f.nodeAtLocked(to)
	if dst == nil || !f.linkUp(from, dst) {
		return errUnreachable
	}
	f.deliverLocked(dst, fr)
	return nil
}

// sendRoutedLocked walks the tree path hop by hop. Every hop must exist
// and be reachable; acknowledged types surface the failure as an error.
func (f *Fabric) sendRoutedLocked(from *Node, fr rfnet.Frame) error {
	if fr.DstNode == rfnet.DefaultAddress {
		return f.sendDirectLocked(from, fr, rfnet.DefaultAddress)
	}

	cur := from
	for _, hop := range routePath(from.addr, fr.DstNode)[1:] {
		next := f.nodeAtLocked(hop)
		if next == nil || !f.linkUp(cur, next) {
			return errUnreachable
		}
		cur = next
	}
	f.deliverLocked(cur, fr)
	return nil
}
