package protocol

import "encoding/json"

// TimeControlIn keeps pointers so a missing field can be told apart from zero.
type TimeControlIn struct {
	Minutes   *float64 `json:"minutes"`
	Increment *float64 `json:"increment"`
}

type CreateGame struct {
	TimeControl *TimeControlIn `json:"timeControl"`
}

type JoinGame struct {
	GameID string `json:"gameId"`
}

type Move struct {
	GameID string          `json:"gameId"`
	Move   json.RawMessage `json:"move"`
}

// CreateTournament.Name is loose: any non-string value falls back to the default name.
type CreateTournament struct {
	Name any `json:"name"`
}

type JoinTournament struct {
	TournamentID string `json:"tournamentId"`
}
