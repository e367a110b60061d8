package hub

import (
	"testing"

	"github.com/park285/chess-hub/internal/hub/hubtest"
)

func TestRegistrySendAndBroadcast(t *testing.T) {
	r := NewRegistry()
	a, b := hubtest.NewConn("a"), hubtest.NewConn("b")
	r.Register(a)
	r.Register(b)
	if r.Len() != 2 {
		t.Fatalf("expected 2 conns, got %d", r.Len())
	}

	r.Send(a, map[string]string{"type": "hello"})
	if got := a.Next(t)["type"]; got != "hello" {
		t.Fatalf("unexpected frame: %v", got)
	}
	if p := b.Pending(); len(p) != 0 {
		t.Fatalf("b should not receive a direct send: %v", p)
	}

	r.Broadcast(map[string]string{"type": "all"})
	a.Expect(t, "all")
	b.Expect(t, "all")
}

func TestRegistryUnregisterOnce(t *testing.T) {
	r := NewRegistry()
	a := hubtest.NewConn("a")
	r.Register(a)
	if !r.Unregister(a) {
		t.Fatalf("first unregister should report true")
	}
	if r.Unregister(a) {
		t.Fatalf("second unregister should report false")
	}
	r.Broadcast(map[string]string{"type": "all"})
	if p := a.Pending(); len(p) != 0 {
		t.Fatalf("unregistered conn received %v", p)
	}
}

func TestBroadcastSkipsDeadConn(t *testing.T) {
	r := NewRegistry()
	a, dead := hubtest.NewConn("a"), hubtest.NewConn("dead")
	dead.Close()
	r.Register(a)
	r.Register(dead)
	r.Broadcast(map[string]string{"type": "all"})
	a.Expect(t, "all")
}
