package mesh

import "testing"

func TestTableRoundTrip(t *testing.T) {
	var tab BindingTable
	tab.Set(7, 0o1)
	tab.Set(8, 0o2)

	if addr, ok := tab.AddrOf(7); !ok || addr != 0o1 {
		t.Fatalf("AddrOf(7)=%s,%v want 01", addr, ok)
	}
	if id, ok := tab.IDOf(0o2); !ok || id != 8 {
		t.Fatalf("IDOf(02)=%d,%v want 8", id, ok)
	}
	if _, ok := tab.AddrOf(9); ok {
		t.Fatalf("AddrOf(9) should miss")
	}
}

func TestTableUniqueIDs(t *testing.T) {
	var tab BindingTable
	tab.Set(7, 0o1)
	tab.Set(7, 0o3)

	if tab.Len() != 1 {
		t.Fatalf("len=%d want 1", tab.Len())
	}
	if addr, _ := tab.AddrOf(7); addr != 0o3 {
		t.Fatalf("AddrOf(7)=%s want 03", addr)
	}
	if _, ok := tab.IDOf(0o1); ok {
		t.Fatalf("old address should be unbound")
	}
}

func TestTableReleaseKeepsRow(t *testing.T) {
	var tab BindingTable
	tab.Set(7, 0o1)
	tab.Set(8, 0o2)

	tab.ReleaseAddr(0o1)

	if tab.Len() != 2 {
		t.Fatalf("len=%d want 2", tab.Len())
	}
	if _, ok := tab.IDOf(0o1); ok {
		t.Fatalf("IDOf(01) should miss after release")
	}
	// The id slot survives for re-assignment.
	if addr, ok := tab.AddrOf(7); !ok || addr != EmptyAddress {
		t.Fatalf("AddrOf(7)=%s,%v want empty row", addr, ok)
	}

	tab.Set(7, 0o3)
	if tab.Len() != 2 {
		t.Fatalf("len=%d after re-bind, want 2", tab.Len())
	}
	if addr, _ := tab.AddrOf(7); addr != 0o3 {
		t.Fatalf("AddrOf(7)=%s want 03", addr)
	}
}

func TestTableTaken(t *testing.T) {
	var tab BindingTable
	tab.Set(7, 0o1)

	if !tab.Taken(0o1, 8) {
		t.Fatalf("01 should be taken for id 8")
	}
	if tab.Taken(0o1, 7) {
		t.Fatalf("01 should be free for its own id")
	}
	if tab.Taken(0o2, 8) {
		t.Fatalf("02 should be free")
	}
}

func TestTableSnapshotOrder(t *testing.T) {
	var tab BindingTable
	tab.Set(7, 0o1)
	tab.Set(8, 0o2)
	tab.Set(9, 0o3)

	snap := tab.Snapshot()
	want := []Binding{{7, 0o1}, {8, 0o2}, {9, 0o3}}
	if len(snap) != len(want) {
		t.Fatalf("snapshot len=%d want %d", len(snap), len(want))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Fatalf("snapshot[%d]=%+v want %+v", i, snap[i], want[i])
		}
	}
}
