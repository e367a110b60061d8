// Package lobby pushes the global list of games and tournaments to clients.
package lobby

import (
	"context"
	"encoding/json"
	"time"

	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/obslog"
	"github.com/park285/chess-hub/pkg/protocol"
	"go.uber.org/zap"
)

const mirrorTimeout = 2 * time.Second

type GameLister interface {
	Snapshot() []protocol.LobbyGame
}

type TournamentLister interface {
	Snapshot() []protocol.LobbyTournament
}

// Registry is the delivery side of the connection registry.
type Registry interface {
	Send(c hub.Conn, v any)
	Broadcast(v any)
}

// Mirror receives every broadcast snapshot, e.g. store.Redis.
type Mirror interface {
	PublishLobby(ctx context.Context, payload []byte) error
}

type Broadcaster struct {
	reg         Registry
	games       GameLister
	tournaments TournamentLister
	mirror      Mirror
}

// New wires a broadcaster; mirror may be nil.
func New(reg Registry, games GameLister, tournaments TournamentLister, mirror Mirror) *Broadcaster {
	return &Broadcaster{reg: reg, games: games, tournaments: tournaments, mirror: mirror}
}

func (b *Broadcaster) Snapshot() protocol.LobbyData {
	return protocol.NewLobbyData(b.games.Snapshot(), b.tournaments.Snapshot())
}

// Broadcast sends the current snapshot to every registered connection.
func (b *Broadcaster) Broadcast() {
	data := b.Snapshot()
	b.reg.Broadcast(data)
	if b.mirror != nil {
		go b.publish(data)
	}
}

// SendTo sends the current snapshot to c only.
func (b *Broadcaster) SendTo(c hub.Conn) {
	b.reg.Send(c, b.Snapshot())
}

func (b *Broadcaster) publish(data protocol.LobbyData) {
	payload, err := json.Marshal(data)
	if err != nil {
		obslog.L().Error("lobby_mirror_marshal_error", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := b.mirror.PublishLobby(ctx, payload); err != nil {
		obslog.L().Warn("lobby_mirror_error", zap.Error(err))
	}
}
