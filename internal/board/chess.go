package board

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Chess is the Engine backed by corentings/chess.
type Chess struct{}

func NewChess() Chess { return Chess{} }

func (Chess) NewGame() Game { return &chessGame{g: nchess.NewGame()} }

type chessGame struct {
	g *nchess.Game
}

func (c *chessGame) Move(notation string) (string, error) {
	raw := strings.TrimSpace(notation)
	if raw == "" {
		return "", ErrIllegalMove
	}
	pos := c.g.Position()

	// UCI first (e2e4, e7e8q), then SAN (Nf3, O-O)
	if err := c.g.PushNotationMove(strings.ToLower(raw), nchess.UCINotation{}, nil); err != nil {
		if err := c.g.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil); err != nil {
			return "", fmt.Errorf("%w: %s", ErrIllegalMove, raw)
		}
	}
	last := lastMove(c.g)
	if last == nil {
		return "", ErrIllegalMove
	}
	return nchess.AlgebraicNotation{}.Encode(pos, last), nil
}

func (c *chessGame) FEN() string { return c.g.FEN() }

func (c *chessGame) Turn() Side {
	if c.g.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

func (c *chessGame) Outcome() Outcome {
	switch c.g.Outcome() {
	case nchess.WhiteWon:
		return Outcome{Result: ResultWhite, Method: methodName(c.g.Method())}
	case nchess.BlackWon:
		return Outcome{Result: ResultBlack, Method: methodName(c.g.Method())}
	case nchess.Draw:
		return Outcome{Result: ResultDraw, Method: methodName(c.g.Method())}
	default:
		return Outcome{Result: ResultNone}
	}
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

func methodName(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Resignation:
		return "resignation"
	case nchess.DrawOffer:
		return "draw_offer"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.ThreefoldRepetition:
		return "threefold_repetition"
	case nchess.FivefoldRepetition:
		return "fivefold_repetition"
	case nchess.FiftyMoveRule:
		return "fifty_move_rule"
	case nchess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case nchess.InsufficientMaterial:
		return "insufficient_material"
	default:
		return ""
	}
}
