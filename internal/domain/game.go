package domain

import (
	"math"
	"time"
)

// TimeControl is the per-side budget of a game.
type TimeControl struct {
	Minutes   float64 `json:"minutes"`
	Increment int     `json:"increment"`
}

// InitialSeconds returns the starting clock value for each side.
func (tc TimeControl) InitialSeconds() int {
	return int(math.Round(tc.Minutes * 60))
}

// Valid reports whether the control yields at least one second per side.
func (tc TimeControl) Valid() bool {
	return !math.IsNaN(tc.Minutes) && !math.IsInf(tc.Minutes, 0) && tc.Minutes > 0 && tc.InitialSeconds() >= 1
}

// GameResult is what a finished (or flagged, or abandoned) game reports to result sinks.
type GameResult struct {
	GameID       string      `json:"gameId"`
	TournamentID string      `json:"tournamentId,omitempty"`
	WhiteID      string      `json:"whiteId"`
	BlackID      string      `json:"blackId"`
	TimeControl  TimeControl `json:"timeControl"`
	Result       string      `json:"result"` // PGN token: 1-0, 0-1, 1/2-1/2, *
	Method       string      `json:"method"` // checkmate, stalemate, timeout, abandonment, ...
	MovesSAN     []string    `json:"movesSan"`
	FEN          string      `json:"fen"`
	StartedAt    time.Time   `json:"startedAt"`
	EndedAt      time.Time   `json:"endedAt"`
}

// Duration is the wall time between start and end, never negative.
func (r *GameResult) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}
