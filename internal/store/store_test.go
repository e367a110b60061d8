package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	r, err := NewRedis(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestRedisReserveOnce(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	ok, err := r.Reserve(ctx, "game", "abc")
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	ok, err = r.Reserve(ctx, "game", "abc")
	if err != nil || ok {
		t.Fatalf("second reserve should fail: ok=%v err=%v", ok, err)
	}
	ok, _ = r.Reserve(ctx, "tournament", "abc")
	if !ok {
		t.Fatalf("kinds must not collide")
	}
	if ttl := mr.TTL("id:game:abc"); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}
}

func TestRedisPublishLobby(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	sub := r.rdb.Subscribe(ctx, LobbyChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payload := []byte(`{"type":"lobbyData","games":[],"tournaments":[]}`)
	if err := r.PublishLobby(ctx, payload); err != nil {
		t.Fatalf("PublishLobby: %v", err)
	}
	got, err := mr.Get(LobbySnapshotKey)
	if err != nil || got != string(payload) {
		t.Fatalf("snapshot key: %q err=%v", got, err)
	}
	select {
	case msg := <-sub.Channel():
		if msg.Payload != string(payload) {
			t.Fatalf("unexpected payload %q", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no lobby publish received")
	}
}

func TestMemoryReserveOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if ok, _ := m.Reserve(ctx, "game", "x"); !ok {
		t.Fatalf("first reserve should succeed")
	}
	if ok, _ := m.Reserve(ctx, "game", "x"); ok {
		t.Fatalf("second reserve should fail")
	}
	_ = m.PublishLobby(ctx, []byte("snap"))
	if string(m.LastLobby()) != "snap" {
		t.Fatalf("memory mirror not kept")
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}
