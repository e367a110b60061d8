package session

import (
	"context"
	"errors"
	"time"

	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/clock"
	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/hub"
)

var (
	ErrInvalidTimeControl = errors.New("invalid time control")
	ErrIDCollision        = errors.New("game id already in use")
	ErrSamePlayer         = errors.New("a game needs two distinct players")
)

// Sender delivers one outbound message to one connection without blocking.
type Sender interface {
	Send(c hub.Conn, v any)
}

// ResultSink receives at most one result per game.
type ResultSink interface {
	SaveResult(ctx context.Context, r *domain.GameResult) error
}

// State of a game as seen from outside.
type State string

const (
	StateWaiting  State = "WAITING"
	StateActive   State = "ACTIVE"
	StateFinished State = "FINISHED"
)

type player struct {
	conn hub.Conn
	side board.Side
}

type game struct {
	id           string
	tournamentID string
	seq          uint64
	board        board.Game
	players      []player
	tc           domain.TimeControl
	clock        *clock.Countdown

	whiteID   string
	blackID   string
	createdAt time.Time
	startedAt time.Time
	movesSAN  []string

	started  bool
	over     bool
	reported bool
}

func (g *game) indexOf(c hub.Conn) int {
	for i, p := range g.players {
		if p.conn == c {
			return i
		}
	}
	return -1
}

func (g *game) state() State {
	switch {
	case g.over:
		return StateFinished
	case g.started:
		return StateActive
	default:
		return StateWaiting
	}
}

// View is a read-only copy of a game's state.
type View struct {
	ID           string
	TournamentID string
	State        State
	PlayerIDs    []string
	Sides        []board.Side
	FEN          string
	TimeControl  domain.TimeControl
	ClockSide    board.Side
	ClockRunning bool
	WhiteLeft    int
	BlackLeft    int
	MovesSAN     []string
}
