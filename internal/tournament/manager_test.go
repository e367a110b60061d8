package tournament

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/domain"
	"github.com/park285/chess-hub/internal/hub"
	"github.com/park285/chess-hub/internal/hub/hubtest"
	"github.com/park285/chess-hub/internal/msgcat"
	"github.com/park285/chess-hub/internal/session"
	"github.com/park285/chess-hub/pkg/protocol"
)

type pairing struct {
	white, black string
	tc           domain.TimeControl
	tournamentID string
}

type fakeGames struct {
	pairs []pairing
	fail  bool
}

func (f *fakeGames) StartPairedGame(_ context.Context, white, black hub.Conn, tc domain.TimeControl, tid string) (string, error) {
	if f.fail {
		return "", errors.New("boom")
	}
	f.pairs = append(f.pairs, pairing{white: white.ID(), black: black.ID(), tc: tc, tournamentID: tid})
	return fmt.Sprintf("g%d", len(f.pairs)), nil
}

func conns(n int) []*hubtest.Conn {
	out := make([]*hubtest.Conn, n)
	for i := range out {
		out[i] = hubtest.NewConn(fmt.Sprintf("p%d", i))
	}
	return out
}

func TestCreateTournament(t *testing.T) {
	m := NewManager(&fakeGames{}, hub.NewRegistry(), WithCatalog(msgcat.Default()))
	c := hubtest.NewConn("a")

	id, err := m.CreateTournament(context.Background(), c, "Spring Open")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f := c.Next(t)
	if f["type"] != protocol.TypeTournamentCreated || f["tournamentId"] != id || f["name"] != "Spring Open" {
		t.Fatalf("unexpected frame %v", f)
	}
	v, _ := m.Tournament(id)
	if len(v.Participants) != 1 || v.Participants[0] != "a" || v.Started {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestCreateTournamentDefaultName(t *testing.T) {
	m := NewManager(&fakeGames{}, hub.NewRegistry(), WithCatalog(msgcat.Default()))
	for _, name := range []any{nil, "   ", 42} {
		id, err := m.CreateTournament(context.Background(), hubtest.NewConn("a"), name)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		v, _ := m.Tournament(id)
		if v.Name != "Tournament "+id {
			t.Fatalf("name %v: got %q", name, v.Name)
		}
	}
}

func TestJoinStartsAtThreshold(t *testing.T) {
	games := &fakeGames{}
	m := NewManager(games, hub.NewRegistry())
	p := conns(2)
	id, _ := m.CreateTournament(context.Background(), p[0], "")

	if !m.JoinTournament(context.Background(), p[1], id) {
		t.Fatalf("join failed")
	}
	if f := p[1].Next(t); f["type"] != protocol.TypeTournamentJoined || f["tournamentId"] != id {
		t.Fatalf("unexpected frame %v", f)
	}
	if len(games.pairs) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games.pairs))
	}
	got := games.pairs[0]
	if got.white != "p0" || got.black != "p1" || got.tournamentID != id || got.tc != DefaultTimeControl {
		t.Fatalf("unexpected pairing %+v", got)
	}
	v, _ := m.Tournament(id)
	if !v.Started || len(v.GameIDs) != 1 {
		t.Fatalf("unexpected view %+v", v)
	}
	if m.JoinTournament(context.Background(), hubtest.NewConn("late"), id) {
		t.Fatalf("joined a started tournament")
	}
}

func TestPairingOddCount(t *testing.T) {
	for n := 2; n <= 7; n++ {
		games := &fakeGames{}
		m := NewManager(games, hub.NewRegistry(), WithStartAt(n))
		p := conns(n)
		id, _ := m.CreateTournament(context.Background(), p[0], "")
		for _, c := range p[1:] {
			m.JoinTournament(context.Background(), c, id)
		}
		if len(games.pairs) != n/2 {
			t.Fatalf("n=%d: expected %d games, got %d", n, n/2, len(games.pairs))
		}
		for i, pr := range games.pairs {
			if pr.white != p[2*i].ID() || pr.black != p[2*i+1].ID() {
				t.Fatalf("n=%d: pair %d is %+v", n, i, pr)
			}
			if n%2 == 1 && (pr.white == p[n-1].ID() || pr.black == p[n-1].ID()) {
				t.Fatalf("n=%d: last participant was paired", n)
			}
		}
	}
}

func TestJoinIgnored(t *testing.T) {
	games := &fakeGames{}
	m := NewManager(games, hub.NewRegistry(), WithStartAt(3))
	p := conns(2)
	id, _ := m.CreateTournament(context.Background(), p[0], "")
	p[0].Drain()

	if m.JoinTournament(context.Background(), p[1], "missing") {
		t.Fatalf("joined unknown tournament")
	}
	if m.JoinTournament(context.Background(), p[0], id) {
		t.Fatalf("creator joined twice")
	}
	if got := p[0].Pending(); len(got) != 0 {
		t.Fatalf("ignored join sent %v", got)
	}
	v, _ := m.Tournament(id)
	if len(v.Participants) != 1 {
		t.Fatalf("unexpected participants %v", v.Participants)
	}
}

func TestPairingFailureStillStarts(t *testing.T) {
	m := NewManager(&fakeGames{fail: true}, hub.NewRegistry())
	p := conns(2)
	id, _ := m.CreateTournament(context.Background(), p[0], "")
	m.JoinTournament(context.Background(), p[1], id)
	v, _ := m.Tournament(id)
	if !v.Started || len(v.GameIDs) != 0 {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestRemoveConnection(t *testing.T) {
	m := NewManager(&fakeGames{}, hub.NewRegistry(), WithStartAt(5))
	p := conns(2)
	id, _ := m.CreateTournament(context.Background(), p[0], "")
	m.JoinTournament(context.Background(), p[1], id)

	if !m.RemoveConnection(p[0]) {
		t.Fatalf("expected change")
	}
	v, _ := m.Tournament(id)
	if len(v.Participants) != 1 || v.Participants[0] != "p1" {
		t.Fatalf("unexpected participants %v", v.Participants)
	}
	m.RemoveConnection(p[1])
	if _, ok := m.Tournament(id); ok {
		t.Fatalf("empty tournament survived")
	}
	if m.RemoveConnection(p[1]) {
		t.Fatalf("no-op removal reported a change")
	}
}

func TestSnapshot(t *testing.T) {
	tc := domain.TimeControl{Minutes: 3, Increment: 2}
	m := NewManager(&fakeGames{}, hub.NewRegistry(), WithTimeControl(tc))
	a, _ := m.CreateTournament(context.Background(), hubtest.NewConn("a"), "A")
	b, _ := m.CreateTournament(context.Background(), hubtest.NewConn("b"), "B")
	m.JoinTournament(context.Background(), hubtest.NewConn("c"), b)

	got := m.Snapshot()
	if len(got) != 2 || got[0].ID != a || got[1].ID != b {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Started || !got[1].Started || got[1].PlayerCount != 2 {
		t.Fatalf("unexpected entries %+v", got)
	}
	if got[0].TimeControl == nil || *got[0].TimeControl != tc {
		t.Fatalf("unexpected time control %+v", got[0].TimeControl)
	}
}

func TestTournamentWithSessionManager(t *testing.T) {
	reg := hub.NewRegistry()
	games := session.NewManager(board.NewChess(), reg)
	m := NewManager(games, reg)
	a, b := hubtest.NewConn("a"), hubtest.NewConn("b")
	defer games.RemoveConnection(a)
	defer games.RemoveConnection(b)

	id, _ := m.CreateTournament(context.Background(), a, nil)
	m.JoinTournament(context.Background(), b, id)

	fa := a.Expect(t, protocol.TypeGameStart)
	fb := b.Expect(t, protocol.TypeGameStart)
	if fa["side"] != "white" || fb["side"] != "black" || fa["gameId"] != fb["gameId"] {
		t.Fatalf("unexpected frames %v %v", fa, fb)
	}
	gid, _ := fa["gameId"].(string)
	v, ok := games.Game(gid)
	if !ok || v.TournamentID != id || v.ClockSide != board.White || !v.ClockRunning {
		t.Fatalf("unexpected game %+v", v)
	}
	if n := len(games.Snapshot()); n != 1 {
		t.Fatalf("expected one game, got %d", n)
	}
}
