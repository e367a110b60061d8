// Package dispatch decodes client frames and routes them to the game and tournament managers.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"

	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/msgcat"
	"github.com/park285/chess-hub/internal/obslog"
	"github.com/park285/chess-hub/internal/session"
	"github.com/park285/chess-hub/pkg/protocol"
	"go.uber.org/zap"
)

// maxIncrement caps the per-move bonus at one hour.
const maxIncrement = 3600

type Registry interface {
	Register(c hub.Conn)
	Unregister(c hub.Conn) bool
	Send(c hub.Conn, v any)
}

type Games interface {
	CreateGame(ctx context.Context, creator hub.Conn, tc domain.TimeControl) (string, error)
	JoinGame(c hub.Conn, gameID string) (board.Side, bool)
	ApplyMove(c hub.Conn, gameID string, move json.RawMessage) bool
	RemoveConnection(c hub.Conn) bool
}

type Tournaments interface {
	CreateTournament(ctx context.Context, creator hub.Conn, name any) (string, error)
	JoinTournament(ctx context.Context, c hub.Conn, tournamentID string) bool
	RemoveConnection(c hub.Conn) bool
}

type Lobby interface {
	Broadcast()
	SendTo(c hub.Conn)
}

// Dispatcher handles one message or disconnect at a time, so each state change and
// the lobby broadcast that follows it form a single step.
type Dispatcher struct {
	mu          sync.Mutex
	reg         Registry
	games       Games
	tournaments Tournaments
	lobby       Lobby
	cat         *msgcat.Catalog
}

func New(reg Registry, games Games, tournaments Tournaments, lobby Lobby, cat *msgcat.Catalog) *Dispatcher {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &Dispatcher{reg: reg, games: games, tournaments: tournaments, lobby: lobby, cat: cat}
}

// Connect registers a freshly accepted connection.
func (d *Dispatcher) Connect(c hub.Conn) {
	d.reg.Register(c)
	obslog.L().Info("conn_open", zap.String("conn_id", c.ID()))
}

// Disconnect purges c from every game and tournament and broadcasts the lobby once.
// Calls after the first are no-ops.
func (d *Dispatcher) Disconnect(c hub.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.reg.Unregister(c) {
		return
	}
	tournaments := d.tournaments.RemoveConnection(c)
	games := d.games.RemoveConnection(c)
	obslog.L().Info("conn_close",
		zap.String("conn_id", c.ID()),
		zap.Bool("left_games", games),
		zap.Bool("left_tournaments", tournaments),
	)
	d.lobby.Broadcast()
}

// Handle processes one inbound frame from c.
func (d *Dispatcher) Handle(ctx context.Context, c hub.Conn, frame []byte) {
	var probe any
	if err := json.Unmarshal(frame, &probe); err != nil {
		obslog.L().Debug("dispatch_bad_json", zap.String("conn_id", c.ID()), zap.Error(err))
		d.fail(c, msgcat.KeyInvalidJSON, "Invalid JSON format.", nil)
		return
	}
	obj, _ := probe.(map[string]any)
	typ, isString := obj["type"].(string)
	if obj == nil || !isString {
		d.fail(c, msgcat.KeyInvalidType, "Missing or invalid message type.", nil)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch typ {
	case protocol.TypeFetchLobby:
		d.lobby.SendTo(c)
	case protocol.TypeCreateGame:
		d.createGame(ctx, c, frame)
	case protocol.TypeJoinGame:
		var msg protocol.JoinGame
		if !decode(c, typ, frame, &msg) {
			return
		}
		if _, ok := d.games.JoinGame(c, msg.GameID); ok {
			d.lobby.Broadcast()
		}
	case protocol.TypeMove:
		var msg protocol.Move
		if !decode(c, typ, frame, &msg) {
			return
		}
		d.games.ApplyMove(c, msg.GameID, msg.Move)
	case protocol.TypeCreateTournament:
		var msg protocol.CreateTournament
		if !decode(c, typ, frame, &msg) {
			return
		}
		if _, err := d.tournaments.CreateTournament(ctx, c, msg.Name); err != nil {
			obslog.L().Error("tournament_create_error", zap.String("conn_id", c.ID()), zap.Error(err))
			d.fail(c, msgcat.KeyCreateFailed, "Could not create tournament. Please try again.", map[string]any{"Kind": "tournament"})
			return
		}
		d.lobby.Broadcast()
	case protocol.TypeJoinTournament:
		var msg protocol.JoinTournament
		if !decode(c, typ, frame, &msg) {
			return
		}
		if d.tournaments.JoinTournament(ctx, c, msg.TournamentID) {
			d.lobby.Broadcast()
		}
	default:
		obslog.L().Debug("dispatch_unknown_type", zap.String("conn_id", c.ID()), zap.String("type", typ))
	}
}

func (d *Dispatcher) createGame(ctx context.Context, c hub.Conn, frame []byte) {
	var msg protocol.CreateGame
	if err := json.Unmarshal(frame, &msg); err != nil {
		// fields decoded before the mismatch are kept; a bad increment becomes 0
		obslog.L().Debug("dispatch_bad_fields", zap.String("conn_id", c.ID()), zap.String("type", protocol.TypeCreateGame), zap.Error(err))
	}
	tc, ok := timeControl(msg.TimeControl)
	if !ok {
		d.fail(c, msgcat.KeyInvalidTimeControl, "Missing or invalid timeControl. Expected format: { minutes: <number> }", nil)
		return
	}
	if _, err := d.games.CreateGame(ctx, c, tc); err != nil {
		if errors.Is(err, session.ErrInvalidTimeControl) {
			d.fail(c, msgcat.KeyInvalidTimeControl, "Missing or invalid timeControl. Expected format: { minutes: <number> }", nil)
			return
		}
		obslog.L().Error("game_create_error", zap.String("conn_id", c.ID()), zap.Error(err))
		d.fail(c, msgcat.KeyCreateFailed, "Could not create game. Please try again.", map[string]any{"Kind": "game"})
		return
	}
	d.lobby.Broadcast()
}

func (d *Dispatcher) fail(c hub.Conn, key, fallback string, data any) {
	d.reg.Send(c, protocol.NewError(d.cat.Text(key, data, fallback)))
}

// decode fills msg; a shape mismatch is treated like an unknown id and ignored.
func decode(c hub.Conn, typ string, frame []byte, msg any) bool {
	if err := json.Unmarshal(frame, msg); err != nil {
		obslog.L().Debug("dispatch_bad_fields", zap.String("conn_id", c.ID()), zap.String("type", typ), zap.Error(err))
		return false
	}
	return true
}

func timeControl(in *protocol.TimeControlIn) (domain.TimeControl, bool) {
	if in == nil || in.Minutes == nil {
		return domain.TimeControl{}, false
	}
	tc := domain.TimeControl{Minutes: *in.Minutes}
	if in.Increment != nil && *in.Increment > 0 {
		tc.Increment = int(math.Round(math.Min(*in.Increment, maxIncrement)))
	}
	return tc, tc.Valid()
}
