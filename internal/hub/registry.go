package hub

import (
	"encoding/json"
	"sync"

	"github.com/park285/chess-hub/internal/obslog"
	"go.uber.org/zap"
)

// Conn is a live client channel. Identity is the value itself.
// Enqueue must not block; it reports false when the frame was dropped.
type Conn interface {
	ID() string
	Enqueue(frame []byte) bool
}

// Registry is the set of live connections. Delivery is best effort.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[Conn]struct{})}
}

func (r *Registry) Register(c Conn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.conns[c] = struct{}{}
	n := len(r.conns)
	r.mu.Unlock()
	obslog.L().Debug("conn_register", zap.String("conn_id", c.ID()), zap.Int("total", n))
}

// Unregister reports whether c was registered, so teardown runs once.
func (r *Registry) Unregister(c Conn) bool {
	if c == nil {
		return false
	}
	r.mu.Lock()
	_, ok := r.conns[c]
	delete(r.conns, c)
	n := len(r.conns)
	r.mu.Unlock()
	if ok {
		obslog.L().Debug("conn_unregister", zap.String("conn_id", c.ID()), zap.Int("total", n))
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Send delivers v to one connection.
func (r *Registry) Send(c Conn, v any) {
	if c == nil {
		return
	}
	frame, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("send_marshal_error", zap.String("conn_id", c.ID()), zap.Error(err))
		return
	}
	if !c.Enqueue(frame) {
		obslog.L().Debug("send_dropped", zap.String("conn_id", c.ID()))
	}
}

// Broadcast delivers v to every connection registered at call time.
func (r *Registry) Broadcast(v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("broadcast_marshal_error", zap.Error(err))
		return
	}
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if !c.Enqueue(frame) {
			dropped++
		}
	}
	if dropped > 0 {
		obslog.L().Debug("broadcast_dropped", zap.Int("targets", len(targets)), zap.Int("dropped", dropped))
	}
}
