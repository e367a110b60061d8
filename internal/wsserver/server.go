// Package wsserver accepts websocket clients and pumps frames between them and the dispatcher.
package wsserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/obslog"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

type Dispatcher interface {
	Connect(c hub.Conn)
	Disconnect(c hub.Conn)
	Handle(ctx context.Context, c hub.Conn, frame []byte)
}

type Options struct {
	// OriginPatterns restricts cross-origin upgrades; empty accepts any origin.
	OriginPatterns  []string
	SendBuffer      int
	MaxMessageBytes int64
	PingInterval    time.Duration
	WriteTimeout    time.Duration
}

func (o *Options) defaults() {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4096
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
}

type Server struct {
	d    Dispatcher
	opts Options

	live     atomic.Int64
	wg       sync.WaitGroup
	quit     chan struct{}
	quitOnce sync.Once
}

func New(d Dispatcher, opts Options) *Server {
	opts.defaults()
	return &Server{d: d, opts: opts, quit: make(chan struct{})}
}

// Live reports the number of open websocket clients.
func (s *Server) Live() int64 { return s.live.Load() }

// ServeHTTP upgrades the request and blocks until the client goes away.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.quit:
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     s.opts.OriginPatterns,
		InsecureSkipVerify: len(s.opts.OriginPatterns) == 0,
		CompressionMode:    websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageBytes)

	s.wg.Add(1)
	defer s.wg.Done()
	s.live.Add(1)
	defer s.live.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	c := newClient(conn, s.opts.SendBuffer)
	s.d.Connect(c)
	go c.writePump(ctx, s.opts.PingInterval, s.opts.WriteTimeout)

	reason := c.readLoop(ctx, s.d)
	c.shutdown()
	s.d.Disconnect(c)
	_ = conn.Close(websocket.StatusNormalClosure, "")
	obslog.L().Debug("ws_closed", zap.String("conn_id", c.id), zap.String("reason", reason))
}

// Healthz answers with the live client count.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "ok %d\n", s.Live())
}

// Shutdown disconnects every client and waits for their teardown.
func (s *Server) Shutdown(ctx context.Context) error {
	s.quitOnce.Do(func() { close(s.quit) })
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	done     chan struct{}
	doneOnce sync.Once
}

func newClient(conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *client) ID() string { return c.id }

// Enqueue never blocks; a full queue or a closed client drops the frame.
func (c *client) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		obslog.L().Warn("ws_send_overflow", zap.String("conn_id", c.id), zap.Int("queued", len(c.send)))
		return false
	}
}

func (c *client) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *client) readLoop(ctx context.Context, d Dispatcher) string {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				return status.String()
			}
			return err.Error()
		}
		d.Handle(ctx, c, data)
	}
}

func (c *client) writePump(ctx context.Context, pingInterval, writeTimeout time.Duration) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case frame := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_write_error", zap.String("conn_id", c.id), zap.Error(err))
				_ = c.conn.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				obslog.L().Debug("ws_ping_error", zap.String("conn_id", c.id), zap.Error(err))
				_ = c.conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}
