// Package hubtest provides a recording hub.Conn for tests.
package hubtest

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type Conn struct {
	id     string
	frames chan []byte

	mu     sync.Mutex
	closed bool
}

func NewConn(id string) *Conn {
	return &Conn{id: id, frames: make(chan []byte, 512)}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.frames <- frame:
		return true
	default:
		return false
	}
}

// Close makes further Enqueue calls fail, like a dead socket.
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Next returns the next frame decoded as a generic map.
func (c *Conn) Next(t testing.TB) map[string]any {
	t.Helper()
	select {
	case raw := <-c.frames:
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("%s: bad frame %q: %v", c.id, raw, err)
		}
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: timed out waiting for a frame", c.id)
		return nil
	}
}

// Expect skips frames until one with the given type arrives.
func (c *Conn) Expect(t testing.TB, typ string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw := <-c.frames:
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				t.Fatalf("%s: bad frame %q: %v", c.id, raw, err)
			}
			if m["type"] == typ {
				return m
			}
		case <-deadline:
			t.Fatalf("%s: timed out waiting for %q", c.id, typ)
			return nil
		}
	}
}

// Drain discards everything queued so far.
func (c *Conn) Drain() {
	for {
		select {
		case <-c.frames:
		default:
			return
		}
	}
}

// Pending returns queued frame types without blocking.
func (c *Conn) Pending() []string {
	var out []string
	for {
		select {
		case raw := <-c.frames:
			var m map[string]any
			_ = json.Unmarshal(raw, &m)
			s, _ := m["type"].(string)
			out = append(out, s)
		default:
			return out
		}
	}
}

// Frames drains and decodes everything queued so far.
func (c *Conn) Frames() []map[string]any {
	var out []map[string]any
	for {
		select {
		case raw := <-c.frames:
			var m map[string]any
			_ = json.Unmarshal(raw, &m)
			out = append(out, m)
		default:
			return out
		}
	}
}
