package mesh

import (
	"sync"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

// EmptyAddress marks a released binding. The row stays in the table so the
// same identifier can be re-bound on re-join without disturbing readers
// that located it by position.
const EmptyAddress rfnet.Addr = 0

// Binding is the coordinator's record that an identifier currently holds
// a network address.
type Binding struct {
	ID   rfnet.NodeID
	Addr rfnet.Addr
}

// Released reports whether the binding's lease has been given back.
func (b Binding) Released() bool {
	return b.Addr == EmptyAddress
}

// BindingTable maps identifiers to network addresses on the coordinator.
// Rows are appended in assignment order and searched linearly; an
// identifier appears at most once. The mutex exists for the diagnostics
// snapshot only; the protocol itself is single-threaded.
type BindingTable struct {
	mu      sync.RWMutex
	entries []Binding
}

// AddrOf returns the address bound to id.
func (t *BindingTable) AddrOf(id rfnet.NodeID) (rfnet.Addr, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.entries {
		if b.ID == id {
			return b.Addr, true
		}
	}
	return EmptyAddress, false
}

// IDOf returns the identifier bound to addr. Released rows never match.
func (t *BindingTable) IDOf(addr rfnet.Addr) (rfnet.NodeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.entries {
		if !b.Released() && b.Addr == addr {
			return b.ID, true
		}
	}
	return 0, false
}

// Taken reports whether addr is bound to an identifier other than id.
// The allocator uses it to skip occupied child slots.
func (t *BindingTable) Taken(addr rfnet.Addr, id rfnet.NodeID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, b := range t.entries {
		if b.Addr == addr && b.ID != id {
			return true
		}
	}
	return false
}

// Set binds id to addr, overwriting the row if id is already present and
// appending otherwise.
func (t *BindingTable) Set(id rfnet.NodeID, addr rfnet.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].ID == id {
			t.entries[i].Addr = addr
			return
		}
	}
	t.entries = append(t.entries, Binding{ID: id, Addr: addr})
}

// ReleaseAddr clears every row holding addr. The table does not shrink.
func (t *BindingTable) ReleaseAddr(addr rfnet.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Addr == addr {
			t.entries[i].Addr = EmptyAddress
		}
	}
}

// Len returns the number of rows, released rows included.
func (t *BindingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Snapshot copies the table in insertion order, for diagnostics only.
func (t *BindingTable) Snapshot() []Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Binding(nil), t.entries...)
}
