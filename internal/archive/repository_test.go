package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-hub/internal/domain"
)

func TestBuildPGN(t *testing.T) {
	g := &domain.GameResult{
		GameID:      "abcd1234",
		WhiteID:     `al"ice`,
		BlackID:     "bob",
		TimeControl: domain.TimeControl{Minutes: 3, Increment: 2},
		Result:      "0-1",
		Method:      "Checkmate",
		MovesSAN:    []string{"f3", "e5", "g4", "Qh4#"},
		EndedAt:     time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	pgn := BuildPGN(g)
	for _, want := range []string{
		`[Event "Casual game"]`,
		`[Date "2026.03.09"]`,
		`[White "al'ice"]`,
		`[Result "0-1"]`,
		`[TimeControl "180+2"]`,
		`[Termination "checkmate"]`,
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("missing %s in\n%s", want, pgn)
		}
	}
	if !strings.HasSuffix(pgn, "1. f3 e5 2. g4 Qh4# 0-1") {
		t.Fatalf("unexpected movetext:\n%s", pgn)
	}
}

func TestBuildPGNOddMovesAndUnknownResult(t *testing.T) {
	g := &domain.GameResult{
		TournamentID: "t1",
		TimeControl:  domain.TimeControl{Minutes: 10},
		Result:       "white",
		MovesSAN:     []string{"e4", "e5", "Nf3"},
	}
	pgn := BuildPGN(g)
	if !strings.Contains(pgn, `[Event "Tournament t1"]`) || !strings.Contains(pgn, `[TimeControl "600"]`) {
		t.Fatalf("unexpected headers:\n%s", pgn)
	}
	if !strings.HasSuffix(pgn, "1. e4 e5 2. Nf3 *") {
		t.Fatalf("unexpected movetext:\n%s", pgn)
	}
	if strings.Contains(pgn, "Termination") {
		t.Fatalf("empty method rendered:\n%s", pgn)
	}
	if BuildPGN(nil) != "" {
		t.Fatalf("nil result rendered")
	}
}

func TestOpenRequiresURL(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err != ErrNoDatabaseURL {
		t.Fatalf("expected ErrNoDatabaseURL, got %v", err)
	}
	var r *Repository
	if err := r.SaveResult(context.Background(), &domain.GameResult{}); err != nil {
		t.Fatalf("nil repository: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}
