package board

import "errors"

// Side identifies the player to move. JSON form is "white" / "black".
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// Index maps a side onto a two-slot array.
func (s Side) Index() int {
	if s == White {
		return 0
	}
	return 1
}

func (s Side) Valid() bool { return s == White || s == Black }

// Result values mirror PGN result tokens.
const (
	ResultNone  = "*"
	ResultWhite = "1-0"
	ResultBlack = "0-1"
	ResultDraw  = "1/2-1/2"
)

// Outcome describes how a game ended. Result is ResultNone while the game is in progress.
type Outcome struct {
	Result string
	Method string
}

func (o Outcome) Decided() bool { return o.Result != "" && o.Result != ResultNone }

var ErrIllegalMove = errors.New("illegal move")

// Engine creates fresh positions.
type Engine interface {
	NewGame() Game
}

// Game is a single board owned by exactly one session.
// Implementations are not safe for concurrent use; callers serialize access.
type Game interface {
	// Move applies a move in UCI or SAN notation and returns its SAN form.
	// On ErrIllegalMove the position is left unchanged.
	Move(notation string) (string, error)
	FEN() string
	Turn() Side
	Outcome() Outcome
}
