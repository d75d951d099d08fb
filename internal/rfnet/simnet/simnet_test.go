package simnet

import (
	"testing"

	"github.com/tamzrod/rfmesh/internal/rfnet"
)

func TestRoutePath(t *testing.T) {
	cases := []struct {
		src, dst rfnet.Addr
		want     []rfnet.Addr
	}{
		{0o1, 0, []rfnet.Addr{0o1, 0}},
		{0, 0o12, []rfnet.Addr{0, 0o2, 0o12}},
		{0o12, 0o1, []rfnet.Addr{0o12, 0o2, 0, 0o1}},
		{0o12, 0o2, []rfnet.Addr{0o12, 0o2}},
	}
	for _, c := range cases {
		got := routePath(c.src, c.dst)
		if len(got) != len(c.want) {
			t.Fatalf("routePath(%s,%s)=%v want %v", c.src, c.dst, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("routePath(%s,%s)=%v want %v", c.src, c.dst, got, c.want)
			}
		}
	}
}

func TestChildBitField(t *testing.T) {
	f := NewFabric()
	root := f.NewNode("root")
	if err := root.Begin(97, rfnet.CoordinatorAddress, rfnet.Rate1Mbps, rfnet.PowerMax); err != nil {
		t.Fatalf("Begin err=%v", err)
	}

	if mask := root.ChildBitField(); mask != 0 {
		t.Fatalf("mask=%b want 0", mask)
	}

	c1 := f.NewNode("c1")
	c1.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	c1.SetAddress(0o1)
	c3 := f.NewNode("c3")
	c3.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	c3.SetAddress(0o3)

	if mask := root.ChildBitField(); mask != 0b101 {
		t.Fatalf("mask=%b want 101", mask)
	}
}

func TestRoutedWriteFailsAcrossSeveredLink(t *testing.T) {
	f := NewFabric()
	root := f.NewNode("root")
	root.Begin(97, rfnet.CoordinatorAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	child := f.NewNode("child")
	child.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	child.SetAddress(0o1)

	h := rfnet.Header{SrcNode: 0o1, DstNode: 0, Type: rfnet.TypePing}
	if err := child.Write(h, nil); err != nil {
		t.Fatalf("Write err=%v", err)
	}

	f.Sever(root, child)
	if err := child.Write(h, nil); err == nil {
		t.Fatalf("expected unreachable after sever")
	}

	f.Restore(root, child)
	if err := child.Write(h, nil); err != nil {
		t.Fatalf("Write after restore err=%v", err)
	}
}

func TestUnackedWriteLossIsSilent(t *testing.T) {
	f := NewFabric()
	root := f.NewNode("root")
	root.Begin(97, rfnet.CoordinatorAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	child := f.NewNode("child")
	child.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	child.SetAddress(0o1)

	f.Sever(root, child)

	h := rfnet.Header{SrcNode: 0o1, DstNode: 0, Type: 50} // unacked user type
	if err := child.Write(h, nil); err != nil {
		t.Fatalf("unacked write err=%v want silent loss", err)
	}

	h.Type = rfnet.TypePing
	if err := child.Write(h, nil); err == nil {
		t.Fatalf("acked write should report the severed link")
	}
}

func TestPollAutoReply(t *testing.T) {
	f := NewFabric()
	root := f.NewNode("root")
	root.Begin(97, rfnet.CoordinatorAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	joiner := f.NewNode("joiner")
	joiner.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)

	poll := rfnet.Header{SrcNode: rfnet.DefaultAddress, DstNode: rfnet.MulticastAddress, Type: rfnet.TypePoll}
	if err := joiner.Multicast(poll, nil, 0); err != nil {
		t.Fatalf("Multicast err=%v", err)
	}

	if got := root.Update(); got != rfnet.TypePoll {
		t.Fatalf("root Update=%s want POLL", got)
	}
	if got := joiner.Update(); got != rfnet.TypePoll {
		t.Fatalf("joiner Update=%s want POLL reply", got)
	}
	if src := joiner.Frame().SrcNode; src != rfnet.CoordinatorAddress {
		t.Fatalf("reply src=%s want 00", src)
	}
}

func TestNoPollSuppressesReply(t *testing.T) {
	f := NewFabric()
	root := f.NewNode("root")
	root.Begin(97, rfnet.CoordinatorAddress, rfnet.Rate1Mbps, rfnet.PowerMax)
	root.RaiseFlags(rfnet.FlagNoPoll)
	joiner := f.NewNode("joiner")
	joiner.Begin(97, rfnet.DefaultAddress, rfnet.Rate1Mbps, rfnet.PowerMax)

	poll := rfnet.Header{SrcNode: rfnet.DefaultAddress, DstNode: rfnet.MulticastAddress, Type: rfnet.TypePoll}
	joiner.Multicast(poll, nil, 0)
	root.Update()

	if got := joiner.Update(); got != rfnet.TypeNone {
		t.Fatalf("joiner Update=%s want NONE", got)
	}
}
