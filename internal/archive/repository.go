// Package archive stores finished game results in PostgreSQL.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/park285/chess-hub/internal/board"
	"github.com/park285/chess-hub/internal/domain"
)

var ErrNoDatabaseURL = errors.New("DATABASE_URL is required")

const schema = `CREATE TABLE IF NOT EXISTS game_results (
    game_id       TEXT PRIMARY KEY,
    tournament_id TEXT NOT NULL DEFAULT '',
    white_id      TEXT NOT NULL,
    black_id      TEXT NOT NULL,
    time_control  TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    moves_san     JSONB NOT NULL,
    final_fen     TEXT NOT NULL,
    pgn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
)`

const upsert = `INSERT INTO game_results (
    game_id, tournament_id, white_id, black_id, time_control,
    result, result_method, moves_san, final_fen, pgn,
    started_at, ended_at, duration_ms
  ) VALUES (
    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
  ) ON CONFLICT (game_id) DO UPDATE SET
    tournament_id=EXCLUDED.tournament_id,
    white_id=EXCLUDED.white_id,
    black_id=EXCLUDED.black_id,
    time_control=EXCLUDED.time_control,
    result=EXCLUDED.result,
    result_method=EXCLUDED.result_method,
    moves_san=EXCLUDED.moves_san,
    final_fen=EXCLUDED.final_fen,
    pgn=EXCLUDED.pgn,
    started_at=EXCLUDED.started_at,
    ended_at=EXCLUDED.ended_at,
    duration_ms=EXCLUDED.duration_ms`

type Repository struct {
	db *sql.DB
}

// Open connects, pings and makes sure the results table exists.
func Open(ctx context.Context, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(pctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished game.
func (r *Repository) SaveResult(ctx context.Context, g *domain.GameResult) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	movesRaw, err := json.Marshal(g.MovesSAN)
	if err != nil {
		return err
	}
	if g.MovesSAN == nil {
		movesRaw = []byte("[]")
	}
	var started any
	if !g.StartedAt.IsZero() {
		started = g.StartedAt
	}
	_, err = r.db.ExecContext(ctx, upsert,
		g.GameID, g.TournamentID, g.WhiteID, g.BlackID, timeControlTag(g.TimeControl),
		g.Result, strings.TrimSpace(g.Method), string(movesRaw), g.FEN, BuildPGN(g),
		started, g.EndedAt, g.Duration().Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("save result %s: %w", g.GameID, err)
	}
	return nil
}

// timeControlTag renders the PGN TimeControl form, seconds[+increment].
func timeControlTag(tc domain.TimeControl) string {
	s := fmt.Sprintf("%d", tc.InitialSeconds())
	if tc.Increment > 0 {
		s += fmt.Sprintf("+%d", tc.Increment)
	}
	return s
}

// BuildPGN renders a minimal PGN with the seven-tag roster and numbered SAN moves.
func BuildPGN(g *domain.GameResult) string {
	if g == nil {
		return ""
	}
	result := g.Result
	switch result {
	case board.ResultWhite, board.ResultBlack, board.ResultDraw:
	default:
		result = board.ResultNone
	}
	date := g.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	event := "Casual game"
	if g.TournamentID != "" {
		event = "Tournament " + g.TournamentID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[Event \"%s\"]\n", sanitizePGN(event))
	b.WriteString("[Site \"chess-hub\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	b.WriteString("[Round \"-\"]\n")
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(g.WhiteID))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(g.BlackID))
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	fmt.Fprintf(&b, "[TimeControl \"%s\"]\n", timeControlTag(g.TimeControl))
	if m := strings.TrimSpace(g.Method); m != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m)))
	}
	b.WriteString("\n")

	for i := 0; i < len(g.MovesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(g.MovesSAN[i]))
		if i+1 < len(g.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(g.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
