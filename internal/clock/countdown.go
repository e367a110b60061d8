// Package clock runs the per-game countdown for both sides.
//
// A Countdown has no lock of its own. It is guarded by the Locker handed to
// New, which must be the same lock the owner holds while mutating the game;
// every method except the tick goroutine expects that lock to be held.
// The tick goroutine takes the lock itself, so a tick is serialized against
// Switch, Stop and game destruction, and a generation counter discards ticks
// from a countdown that was stopped in the meantime.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/park285/chess-hub/internal/board"
)

const TickInterval = time.Second

// Event is emitted with the lock held after every tick.
// Expired is true exactly once, on the tick that reaches zero.
type Event struct {
	Side     board.Side
	TimeLeft int
	Expired  bool
}

type Countdown struct {
	lock      sync.Locker
	clk       clockwork.Clock
	notify    func(Event)
	remaining [2]int
	increment int

	running bool
	active  board.Side
	gen     uint64
	stop    chan struct{}
}

// New creates a stopped countdown with initial seconds per side.
func New(lock sync.Locker, clk clockwork.Clock, initial, increment int, notify func(Event)) *Countdown {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if increment < 0 {
		increment = 0
	}
	if notify == nil {
		notify = func(Event) {}
	}
	return &Countdown{
		lock:      lock,
		clk:       clk,
		notify:    notify,
		remaining: [2]int{initial, initial},
		increment: increment,
	}
}

// Start begins counting down side unless it is already running or has no time left.
// The caller must make sure the other side is stopped; Switch does that.
func (c *Countdown) Start(side board.Side) {
	if !side.Valid() {
		return
	}
	if c.running && c.active == side {
		return
	}
	if c.remaining[side.Index()] <= 0 {
		return
	}
	c.gen++
	c.running = true
	c.active = side
	c.stop = make(chan struct{})

	t := c.clk.NewTicker(TickInterval)
	go c.run(t, c.gen, c.stop)
}

// Switch stops whichever side is running and starts side.
// Calling it again with the same side is a no-op.
func (c *Countdown) Switch(side board.Side) {
	if !side.Valid() {
		return
	}
	if c.running && c.active == side {
		return
	}
	if c.running {
		mover := c.active
		c.halt()
		c.remaining[mover.Index()] += c.increment
	}
	c.Start(side)
}

// Stop halts the running side, if any. No tick of the stopped countdown fires afterwards.
func (c *Countdown) Stop() {
	if c.running {
		c.halt()
	}
}

func (c *Countdown) halt() {
	c.gen++
	c.running = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Running reports the active side.
func (c *Countdown) Running() (board.Side, bool) {
	return c.active, c.running
}

// Remaining reports seconds left for side.
func (c *Countdown) Remaining(side board.Side) int {
	if !side.Valid() {
		return 0
	}
	return c.remaining[side.Index()]
}

func (c *Countdown) run(t clockwork.Ticker, gen uint64, stop <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.Chan():
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick reports whether the goroutine should keep running.
func (c *Countdown) tick(gen uint64) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if gen != c.gen || !c.running {
		return false
	}
	side := c.active
	i := side.Index()
	c.remaining[i]--
	if c.remaining[i] <= 0 {
		c.remaining[i] = 0
		c.halt()
		c.notify(Event{Side: side, TimeLeft: 0, Expired: true})
		return false
	}
	c.notify(Event{Side: side, TimeLeft: c.remaining[i]})
	return true
}
