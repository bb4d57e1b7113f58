package board

import (
	"fmt"

	"github.com/corentings/chess/v2"
	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/movecodec/internal/move"
)

// SAN converts a legal move to standard algebraic notation, including
// disambiguation and check/mate suffixes.
func (p *Position) SAN(m move.Move) (string, error) {
	return SAN(p, m)
}

// SAN renders m against any oracle's position.
func SAN(o Oracle, m move.Move) (string, error) {
	if !Contains(o.LegalMoves(), m) {
		return "", fmt.Errorf("san: illegal move %s", m.UCI())
	}
	opt, err := chess.FEN(o.FEN())
	if err != nil {
		return "", fmt.Errorf("san: %w", err)
	}
	g := chess.NewGame(opt)
	promo := toChessPromo(m.Promotion)
	for _, cm := range g.ValidMoves() {
		if int(cm.S1()) == int(m.From) && int(cm.S2()) == int(m.To) && cm.Promo() == promo {
			return chess.AlgebraicNotation{}.Encode(g.Position(), &cm), nil
		}
	}
	return "", fmt.Errorf("san: move %s not generated in %s", m.UCI(), o.FEN())
}

func toChessPromo(k move.PieceKind) chess.PieceType {
	switch k {
	case move.Knight:
		return chess.Knight
	case move.Bishop:
		return chess.Bishop
	case move.Rook:
		return chess.Rook
	case move.Queen:
		return chess.Queen
	}
	return chess.NoPieceType
}

// MoveFromSAN finds the legal move written as san. Check, mate and
// annotation suffixes are ignored.
func (p *Position) MoveFromSAN(san string) (move.Move, error) {
	return MoveFromSAN(p, san)
}

// MoveFromSAN resolves san against any oracle's position.
func MoveFromSAN(o Oracle, san string) (move.Move, error) {
	gs, err := pgn.NewGame(o.FEN())
	if err != nil {
		return move.Move{}, fmt.Errorf("san %q: %w", san, err)
	}
	mv, err := pgn.ParseSAN(gs, san)
	if err != nil {
		return move.Move{}, fmt.Errorf("san %q: %w", san, err)
	}
	return FromPGN(o, mv)
}

// FromPGN finds the oracle's legal move for a pgn move. Castling is accepted
// as either the king's two-square step or king-takes-rook.
func FromPGN(o Oracle, mv pgn.Mv) (move.Move, error) {
	from, to := move.Square(mv.From), move.Square(mv.To)
	promo := move.NoPiece
	switch mv.Promo {
	case pgn.PromoQueen:
		promo = move.Queen
	case pgn.PromoRook:
		promo = move.Rook
	case pgn.PromoBishop:
		promo = move.Bishop
	case pgn.PromoKnight:
		promo = move.Knight
	}
	legal := o.LegalMoves()
	if m, ok := FindMove(legal, from, to, promo); ok {
		return m, nil
	}
	if kind, _ := o.PieceAt(from); kind == move.King && from.Rank() == to.Rank() {
		kingTo := from - 2
		if to > from {
			kingTo = from + 2
		}
		if m, ok := FindMove(legal, from, kingTo, move.NoPiece); ok {
			return m, nil
		}
	}
	return move.Move{}, fmt.Errorf("move %s%s is not legal in %s", from, to, o.FEN())
}
