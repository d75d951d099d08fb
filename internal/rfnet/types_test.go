package rfnet

import "testing"

func TestAddrLevel(t *testing.T) {
	cases := []struct {
		addr Addr
		want uint8
	}{
		{0, 0},
		{0o1, 1},
		{0o5, 1},
		{0o12, 2},
		{0o345, 3},
	}
	for _, c := range cases {
		if got := c.addr.Level(); got != c.want {
			t.Fatalf("Level(%s)=%d want %d", c.addr, got, c.want)
		}
	}
}

func TestAddrParent(t *testing.T) {
	cases := []struct {
		addr, want Addr
	}{
		{0, 0},
		{0o3, 0},
		{0o12, 0o2},
		{0o345, 0o45},
	}
	for _, c := range cases {
		if got := c.addr.Parent(); got != c.want {
			t.Fatalf("Parent(%s)=%s want %s", c.addr, got, c.want)
		}
	}
}

func TestAddrIsValid(t *testing.T) {
	valid := []Addr{CoordinatorAddress, DefaultAddress, MulticastAddress, 0o1, 0o5, 0o12, 0o555}
	for _, a := range valid {
		if !a.IsValid() {
			t.Fatalf("expected %s valid", a)
		}
	}
	invalid := []Addr{0o6, 0o7, 0o60, 0o17, 0o700}
	for _, a := range invalid {
		if a.IsValid() {
			t.Fatalf("expected %s invalid", a)
		}
	}
}

func TestAddrString(t *testing.T) {
	if got := Addr(0o12).String(); got != "012" {
		t.Fatalf("String=%q want %q", got, "012")
	}
}

func TestMessageTypeAck(t *testing.T) {
	acked := []MessageType{65, 127, TypeAddrConfirm, TypePing}
	for _, mt := range acked {
		if !mt.IsAckType() {
			t.Fatalf("expected %s acked", mt)
		}
	}
	unacked := []MessageType{1, 64, TypePoll, TypeReqAddress, TypeAddrResponse, TypeAddrLookup, TypeAddrRelease, TypeIDLookup}
	for _, mt := range unacked {
		if mt.IsAckType() {
			t.Fatalf("expected %s unacked", mt)
		}
	}
}
