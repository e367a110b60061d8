package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/clock"
	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/ids"
	"github.com/park285/chess-hub/internal/obslog"
	"github.com/park285/chess-hub/pkg/protocol"
	"go.uber.org/zap"
)

const sinkTimeout = 5 * time.Second

// Manager owns every in-progress game. A single mutex guards the registry,
// each game's players and board, and each game's countdown.
type Manager struct {
	mu     sync.Mutex
	engine board.Engine
	out    Sender
	clk    clockwork.Clock
	ids    *ids.Allocator
	sinks  []ResultSink
	games  map[string]*game
	seq    uint64
}

type Option func(*Manager)

func WithClock(clk clockwork.Clock) Option { return func(m *Manager) { m.clk = clk } }

func WithIDs(a *ids.Allocator) Option { return func(m *Manager) { m.ids = a } }

func WithResultSinks(sinks ...ResultSink) Option {
	return func(m *Manager) {
		for _, s := range sinks {
			if s != nil {
				m.sinks = append(m.sinks, s)
			}
		}
	}
}

func NewManager(engine board.Engine, out Sender, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		out:    out,
		clk:    clockwork.NewRealClock(),
		games:  make(map[string]*game),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ids == nil {
		m.ids = ids.NewAllocator(nil)
	}
	return m
}

// CreateGame opens a game with the creator as white. No clock runs until an opponent joins.
func (m *Manager) CreateGame(ctx context.Context, creator hub.Conn, tc domain.TimeControl) (string, error) {
	if !tc.Valid() {
		return "", ErrInvalidTimeControl
	}
	if tc.Increment < 0 {
		tc.Increment = 0
	}
	id, err := m.ids.Next(ctx, ids.KindGame, m.exists)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.games[id]; dup {
		return "", ErrIDCollision
	}
	g := m.newGameLocked(id, tc)
	g.players = []player{{conn: creator, side: board.White}}
	g.whiteID = creator.ID()
	m.games[id] = g

	m.out.Send(creator, protocol.NewGameCreated(id, board.White))
	obslog.L().Info("game_create",
		zap.String("game_id", id),
		zap.String("conn_id", creator.ID()),
		zap.Float64("minutes", tc.Minutes),
		zap.Int("increment", tc.Increment),
	)
	return id, nil
}

// JoinGame seats c on the free side, black for a fresh game. Unknown or full games are ignored.
func (m *Manager) JoinGame(c hub.Conn, gameID string) (board.Side, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok || len(g.players) >= 2 {
		obslog.L().Debug("game_join_ignored", zap.String("game_id", gameID), zap.String("conn_id", c.ID()))
		return "", false
	}
	// one connection on both seats would pass every turn check
	if g.indexOf(c) >= 0 {
		obslog.L().Debug("game_join_self", zap.String("game_id", gameID), zap.String("conn_id", c.ID()))
		return "", false
	}

	// the seat left open is the one the remaining player does not hold
	side := board.Black
	if len(g.players) == 1 {
		side = g.players[0].side.Opponent()
	}
	g.players = append(g.players, player{conn: c, side: side})
	if side == board.White {
		g.whiteID = c.ID()
	} else {
		g.blackID = c.ID()
	}

	m.out.Send(c, protocol.NewOpponentJoined(g.id, side))
	fen := g.board.FEN()
	for _, p := range g.players {
		m.out.Send(p.conn, protocol.NewGameStart(g.id, fen, ""))
	}
	// a replacement inherits the running clock
	if !g.started {
		g.started = true
		g.startedAt = m.clk.Now()
		g.clock.Start(board.White)
	}

	obslog.L().Info("game_join",
		zap.String("game_id", g.id),
		zap.String("side", string(side)),
		zap.String("white_id", g.whiteID),
		zap.String("black_id", g.blackID),
	)
	return side, true
}

// StartPairedGame creates an already-full game for two seated players and starts white's clock.
// Each player is told its side in gameStart.
func (m *Manager) StartPairedGame(ctx context.Context, white, black hub.Conn, tc domain.TimeControl, tournamentID string) (string, error) {
	if white == black {
		return "", ErrSamePlayer
	}
	if !tc.Valid() {
		return "", ErrInvalidTimeControl
	}
	id, err := m.ids.Next(ctx, ids.KindGame, m.exists)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.games[id]; dup {
		return "", ErrIDCollision
	}
	g := m.newGameLocked(id, tc)
	g.tournamentID = tournamentID
	g.players = []player{{conn: white, side: board.White}, {conn: black, side: board.Black}}
	g.whiteID, g.blackID = white.ID(), black.ID()
	g.started = true
	g.startedAt = m.clk.Now()
	m.games[id] = g

	fen := g.board.FEN()
	for _, p := range g.players {
		m.out.Send(p.conn, protocol.NewGameStart(id, fen, p.side))
	}
	g.clock.Start(board.White)

	obslog.L().Info("game_pair",
		zap.String("game_id", id),
		zap.String("tournament_id", tournamentID),
		zap.String("white_id", g.whiteID),
		zap.String("black_id", g.blackID),
	)
	return id, nil
}

// ApplyMove plays move for c. Anything but a legal move by the side to move is a silent no-op.
func (m *Manager) ApplyMove(c hub.Conn, gameID string, move json.RawMessage) bool {
	notation, ok := board.DecodeMove(move)
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok || !g.started || g.over {
		return false
	}
	i := g.indexOf(c)
	if i < 0 || g.players[i].side != g.board.Turn() {
		obslog.L().Debug("game_move_out_of_turn", zap.String("game_id", gameID), zap.String("conn_id", c.ID()))
		return false
	}
	san, err := g.board.Move(notation)
	if err != nil {
		obslog.L().Debug("game_move_illegal", zap.String("game_id", gameID), zap.String("move", notation))
		return false
	}
	g.movesSAN = append(g.movesSAN, san)

	fen := g.board.FEN()
	for _, p := range g.players {
		m.out.Send(p.conn, protocol.NewMovePlayed(g.id, fen, move))
	}

	out := g.board.Outcome()
	if out.Decided() {
		g.over = true
		g.clock.Stop()
		for _, p := range g.players {
			m.out.Send(p.conn, protocol.NewGameOver(g.id, out.Result, out.Method))
		}
		m.reportLocked(g, out.Result, out.Method)
	} else {
		g.clock.Switch(g.board.Turn())
	}

	obslog.L().Info("game_move",
		zap.String("game_id", g.id),
		zap.String("conn_id", c.ID()),
		zap.String("san", san),
		zap.String("turn", string(g.board.Turn())),
		zap.String("result", out.Result),
	)
	return true
}

// RemoveConnection drops c from every game it plays in and destroys games left empty.
// It reports whether anything changed.
func (m *Manager) RemoveConnection(c hub.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for id, g := range m.games {
		i := g.indexOf(c)
		if i < 0 {
			continue
		}
		changed = true
		left := g.players[i].side
		g.players = append(g.players[:i], g.players[i+1:]...)

		if g.started && !g.over && len(g.players) == 1 {
			m.reportLocked(g, winnerToken(left.Opponent()), "abandonment")
		}
		if len(g.players) == 0 {
			g.clock.Stop()
			g.board = nil
			delete(m.games, id)
			obslog.L().Info("game_destroy", zap.String("game_id", id), zap.String("state", string(g.state())))
			continue
		}
		obslog.L().Info("game_leave", zap.String("game_id", id), zap.String("conn_id", c.ID()), zap.String("side", string(left)))
	}
	return changed
}

// Snapshot lists every game in creation order.
func (m *Manager) Snapshot() []protocol.LobbyGame {
	m.mu.Lock()
	list := make([]*game, 0, len(m.games))
	for _, g := range m.games {
		list = append(list, g)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	out := make([]protocol.LobbyGame, 0, len(list))
	for _, g := range list {
		out = append(out, protocol.LobbyGame{ID: g.id, PlayerCount: len(g.players), TimeControl: g.tc})
	}
	m.mu.Unlock()
	return out
}

// Game returns a copy of one game's state.
func (m *Manager) Game(id string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return View{}, false
	}
	v := View{
		ID:           g.id,
		TournamentID: g.tournamentID,
		State:        g.state(),
		FEN:          g.board.FEN(),
		TimeControl:  g.tc,
		WhiteLeft:    g.clock.Remaining(board.White),
		BlackLeft:    g.clock.Remaining(board.Black),
		MovesSAN:     append([]string(nil), g.movesSAN...),
	}
	v.ClockSide, v.ClockRunning = g.clock.Running()
	for _, p := range g.players {
		v.PlayerIDs = append(v.PlayerIDs, p.conn.ID())
		v.Sides = append(v.Sides, p.side)
	}
	return v, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

func (m *Manager) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.games[id]
	return ok
}

func (m *Manager) newGameLocked(id string, tc domain.TimeControl) *game {
	m.seq++
	g := &game{
		id:        id,
		seq:       m.seq,
		board:     m.engine.NewGame(),
		tc:        tc,
		createdAt: m.clk.Now(),
	}
	g.clock = clock.New(&m.mu, m.clk, tc.InitialSeconds(), tc.Increment, func(e clock.Event) { m.onTickLocked(g, e) })
	return g
}

// onTickLocked runs from the countdown goroutine with m.mu held.
func (m *Manager) onTickLocked(g *game, e clock.Event) {
	if e.Expired {
		for _, p := range g.players {
			m.out.Send(p.conn, protocol.NewTimeOut(g.id, e.Side))
		}
		obslog.L().Info("clock_timeout", zap.String("game_id", g.id), zap.String("side", string(e.Side)))
		if g.started && !g.over {
			m.reportLocked(g, winnerToken(e.Side.Opponent()), "timeout")
		}
		return
	}
	for _, p := range g.players {
		m.out.Send(p.conn, protocol.NewTimeUpdate(g.id, e.Side, e.TimeLeft))
	}
}

// reportLocked hands the result to sinks in the background, once per game.
func (m *Manager) reportLocked(g *game, result, method string) {
	if g.reported {
		return
	}
	g.reported = true
	if len(m.sinks) == 0 {
		return
	}
	r := &domain.GameResult{
		GameID:       g.id,
		TournamentID: g.tournamentID,
		WhiteID:      g.whiteID,
		BlackID:      g.blackID,
		TimeControl:  g.tc,
		Result:       result,
		Method:       method,
		MovesSAN:     append([]string(nil), g.movesSAN...),
		StartedAt:    g.startedAt,
		EndedAt:      m.clk.Now(),
	}
	if g.board != nil {
		r.FEN = g.board.FEN()
	}
	sinks := append([]ResultSink(nil), m.sinks...)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()
		for _, s := range sinks {
			if err := s.SaveResult(ctx, r); err != nil {
				obslog.L().Error("game_result_sink_error", zap.String("game_id", r.GameID), zap.String("sink", fmt.Sprintf("%T", s)), zap.Error(err))
			}
		}
	}()
}

func winnerToken(s board.Side) string {
	if s == board.White {
		return board.ResultWhite
	}
	return board.ResultBlack
}
