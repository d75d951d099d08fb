package mesh

import "github.com/tamzrod/rfmesh/internal/rfnet"

// MaxChildren bounds the child slots a parent hands out. The octal digit
// could hold 5, but 4 keeps a slot clear for statically addressed nodes.
const MaxChildren = 4

// allocateAddress picks the child address for a joiner under parent.
//
// childMask is the parent's occupancy bit field (bit i set = slot i+1
// taken). Slots are probed lowest first; a slot whose address the table
// already binds to a different identifier is skipped, so a re-joining
// node can land back on its own old slot. Returns EmptyAddress when the
// parent is full.
func (m *Mesh) allocateAddress(parent rfnet.Addr, childMask uint8, id rfnet.NodeID) rfnet.Addr {
	shift := uint(parent.Level()) * 3

	for slot := rfnet.Addr(1); slot <= MaxChildren; slot++ {
		if childMask&(1<<(slot-1)) != 0 {
			continue
		}

		addr := parent | (slot&0o7)<<shift
		if addr == 0 || addr == rfnet.DefaultAddress {
			continue
		}
		if m.table.Taken(addr, id) {
			continue
		}
		return addr
	}
	return EmptyAddress
}
