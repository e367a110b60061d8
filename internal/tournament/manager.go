// Package tournament groups players into tournaments and pairs them into games.
package tournament

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/ids"
	"github.com/park285/chess-hub/internal/msgcat"
	"github.com/park285/chess-hub/internal/obslog"
	"github.com/park285/chess-hub/pkg/protocol"
	"go.uber.org/zap"
)

const DefaultStartAt = 2

var DefaultTimeControl = domain.TimeControl{Minutes: 10}

// Games creates the paired games when a tournament starts.
type Games interface {
	StartPairedGame(ctx context.Context, white, black hub.Conn, tc domain.TimeControl, tournamentID string) (string, error)
}

type Sender interface {
	Send(c hub.Conn, v any)
}

type tournament struct {
	id           string
	name         string
	seq          uint64
	participants []hub.Conn
	started      bool
	gameIDs      []string
}

func (t *tournament) has(c hub.Conn) bool {
	for _, p := range t.participants {
		if p == c {
			return true
		}
	}
	return false
}

// View is a read-only copy of a tournament.
type View struct {
	ID           string
	Name         string
	Participants []string
	Started      bool
	GameIDs      []string
}

// Manager owns every tournament. Its lock is taken before the game manager's.
type Manager struct {
	mu          sync.Mutex
	games       Games
	out         Sender
	ids         *ids.Allocator
	cat         *msgcat.Catalog
	startAt     int
	tc          domain.TimeControl
	tournaments map[string]*tournament
	seq         uint64
}

type Option func(*Manager)

func WithIDs(a *ids.Allocator) Option { return func(m *Manager) { m.ids = a } }

func WithCatalog(c *msgcat.Catalog) Option { return func(m *Manager) { m.cat = c } }

// WithStartAt sets the participant count that starts a tournament. Values below 2 are ignored.
func WithStartAt(n int) Option {
	return func(m *Manager) {
		if n >= 2 {
			m.startAt = n
		}
	}
}

func WithTimeControl(tc domain.TimeControl) Option {
	return func(m *Manager) {
		if tc.Valid() {
			m.tc = tc
		}
	}
}

func NewManager(games Games, out Sender, opts ...Option) *Manager {
	m := &Manager{
		games:       games,
		out:         out,
		startAt:     DefaultStartAt,
		tc:          DefaultTimeControl,
		tournaments: make(map[string]*tournament),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ids == nil {
		m.ids = ids.NewAllocator(nil)
	}
	return m
}

// CreateTournament registers a tournament with creator as its only participant.
// A missing or blank name is replaced by the catalog default.
func (m *Manager) CreateTournament(ctx context.Context, creator hub.Conn, name any) (string, error) {
	id, err := m.ids.Next(ctx, ids.KindTournament, m.exists)
	if err != nil {
		return "", err
	}
	title, _ := name.(string)
	title = strings.TrimSpace(title)
	if title == "" {
		title = m.cat.Text(msgcat.KeyTournamentName, map[string]any{"ID": id}, "Tournament "+id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.tournaments[id] = &tournament{
		id:           id,
		name:         title,
		seq:          m.seq,
		participants: []hub.Conn{creator},
	}
	m.out.Send(creator, protocol.NewTournamentCreated(id, title))
	obslog.L().Info("tournament_create", zap.String("tournament_id", id), zap.String("name", title), zap.String("conn_id", creator.ID()))
	return id, nil
}

// JoinTournament adds c and starts the tournament once enough players are in.
// Unknown or started tournaments and repeat joins are ignored.
func (m *Manager) JoinTournament(ctx context.Context, c hub.Conn, tournamentID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tournaments[tournamentID]
	if !ok || t.started || t.has(c) {
		obslog.L().Debug("tournament_join_ignored", zap.String("tournament_id", tournamentID), zap.String("conn_id", c.ID()))
		return false
	}
	t.participants = append(t.participants, c)
	m.out.Send(c, protocol.NewTournamentJoined(t.id))
	obslog.L().Info("tournament_join", zap.String("tournament_id", t.id), zap.String("conn_id", c.ID()), zap.Int("participants", len(t.participants)))

	if len(t.participants) >= m.startAt {
		m.startLocked(ctx, t)
	}
	return true
}

// startLocked pairs participants 0-1, 2-3, ... An odd last participant gets no game.
func (m *Manager) startLocked(ctx context.Context, t *tournament) {
	t.started = true
	for i := 0; i+1 < len(t.participants); i += 2 {
		white, black := t.participants[i], t.participants[i+1]
		gameID, err := m.games.StartPairedGame(ctx, white, black, m.tc, t.id)
		if err != nil {
			obslog.L().Error("tournament_pair_error", zap.String("tournament_id", t.id), zap.Int("pair", i/2), zap.Error(err))
			continue
		}
		t.gameIDs = append(t.gameIDs, gameID)
	}
	obslog.L().Info("tournament_start",
		zap.String("tournament_id", t.id),
		zap.Int("participants", len(t.participants)),
		zap.Int("games", len(t.gameIDs)),
	)
}

// RemoveConnection prunes c from every tournament and deletes tournaments left empty.
func (m *Manager) RemoveConnection(c hub.Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := false
	for id, t := range m.tournaments {
		kept := t.participants[:0]
		for _, p := range t.participants {
			if p != c {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(t.participants) {
			continue
		}
		changed = true
		for i := len(kept); i < len(t.participants); i++ {
			t.participants[i] = nil
		}
		t.participants = kept
		if len(kept) == 0 {
			delete(m.tournaments, id)
			obslog.L().Info("tournament_destroy", zap.String("tournament_id", id))
		}
	}
	return changed
}

// Snapshot lists every tournament in creation order.
func (m *Manager) Snapshot() []protocol.LobbyTournament {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]*tournament, 0, len(m.tournaments))
	for _, t := range m.tournaments {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	out := make([]protocol.LobbyTournament, 0, len(list))
	for _, t := range list {
		tc := m.tc
		out = append(out, protocol.LobbyTournament{
			ID:          t.id,
			Name:        t.name,
			PlayerCount: len(t.participants),
			Started:     t.started,
			TimeControl: &tc,
		})
	}
	return out
}

func (m *Manager) Tournament(id string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tournaments[id]
	if !ok {
		return View{}, false
	}
	v := View{ID: t.id, Name: t.name, Started: t.started, GameIDs: append([]string(nil), t.gameIDs...)}
	for _, p := range t.participants {
		v.Participants = append(v.Participants, p.ID())
	}
	return v, true
}

func (m *Manager) exists(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tournaments[id]
	return ok
}
