package protocol

import (
	"encoding/json"

	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/domain"
)

type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(message string) Error { return Error{Type: TypeError, Message: message} }

type LobbyGame struct {
	ID          string             `json:"id"`
	PlayerCount int                `json:"playerCount"`
	TimeControl domain.TimeControl `json:"timeControl"`
}

type LobbyTournament struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	PlayerCount int                 `json:"playerCount"`
	Started     bool                `json:"started"`
	TimeControl *domain.TimeControl `json:"timeControl,omitempty"`
}

type LobbyData struct {
	Type        string            `json:"type"`
	Games       []LobbyGame       `json:"games"`
	Tournaments []LobbyTournament `json:"tournaments"`
}

func NewLobbyData(games []LobbyGame, tournaments []LobbyTournament) LobbyData {
	if games == nil {
		games = []LobbyGame{}
	}
	if tournaments == nil {
		tournaments = []LobbyTournament{}
	}
	return LobbyData{Type: TypeLobbyData, Games: games, Tournaments: tournaments}
}

type GameCreated struct {
	Type   string     `json:"type"`
	GameID string     `json:"gameId"`
	Side   board.Side `json:"side"`
}

func NewGameCreated(gameID string, side board.Side) GameCreated {
	return GameCreated{Type: TypeGameCreated, GameID: gameID, Side: side}
}

type OpponentJoined struct {
	Type   string     `json:"type"`
	GameID string     `json:"gameId"`
	Side   board.Side `json:"side"`
}

func NewOpponentJoined(gameID string, side board.Side) OpponentJoined {
	return OpponentJoined{Type: TypeOpponentJoined, GameID: gameID, Side: side}
}

// GameStart.Side is set only for tournament pairings.
type GameStart struct {
	Type   string     `json:"type"`
	GameID string     `json:"gameId"`
	FEN    string     `json:"fen"`
	Side   board.Side `json:"side,omitempty"`
}

func NewGameStart(gameID, fen string, side board.Side) GameStart {
	return GameStart{Type: TypeGameStart, GameID: gameID, FEN: fen, Side: side}
}

// MovePlayed echoes the move exactly as the sender wrote it.
type MovePlayed struct {
	Type   string          `json:"type"`
	GameID string          `json:"gameId"`
	FEN    string          `json:"fen"`
	Move   json.RawMessage `json:"move"`
}

func NewMovePlayed(gameID, fen string, move json.RawMessage) MovePlayed {
	return MovePlayed{Type: TypeMove, GameID: gameID, FEN: fen, Move: move}
}

type TimeOut struct {
	Type   string     `json:"type"`
	GameID string     `json:"gameId"`
	Side   board.Side `json:"side"`
}

func NewTimeOut(gameID string, side board.Side) TimeOut {
	return TimeOut{Type: TypeTimeOut, GameID: gameID, Side: side}
}

type TimeUpdate struct {
	Type     string     `json:"type"`
	GameID   string     `json:"gameId"`
	Side     board.Side `json:"side"`
	TimeLeft int        `json:"timeLeft"`
}

func NewTimeUpdate(gameID string, side board.Side, left int) TimeUpdate {
	return TimeUpdate{Type: TypeTimeUpdate, GameID: gameID, Side: side, TimeLeft: left}
}

type GameOver struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
	Result string `json:"result"`
	Method string `json:"method"`
}

func NewGameOver(gameID, result, method string) GameOver {
	return GameOver{Type: TypeGameOver, GameID: gameID, Result: result, Method: method}
}

type TournamentCreated struct {
	Type         string `json:"type"`
	TournamentID string `json:"tournamentId"`
	Name         string `json:"name"`
}

func NewTournamentCreated(id, name string) TournamentCreated {
	return TournamentCreated{Type: TypeTournamentCreated, TournamentID: id, Name: name}
}

type TournamentJoined struct {
	Type         string `json:"type"`
	TournamentID string `json:"tournamentId"`
}

func NewTournamentJoined(id string) TournamentJoined {
	return TournamentJoined{Type: TypeTournamentJoined, TournamentID: id}
}
