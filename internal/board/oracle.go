// Package board defines the board oracle consumed by the move codecs and an
// implementation backed by the goosemg move generator.
package board

import "github.com/freeeve/movecodec/internal/move"

// Oracle answers the position questions the codecs need. Encoders and
// decoders only read from it; the same oracle state must be presented to
// both sides of a round trip.
type Oracle interface {
	// Turn returns the side to move.
	Turn() move.Color
	// LegalMoves returns every legal move for the side to move.
	LegalMoves() []move.Move
	// PseudoLegalMoves returns moves obeying piece movement rules that may
	// leave the mover's king in check.
	PseudoLegalMoves() []move.Move
	// Occupied returns the squares holding pieces of color c.
	Occupied(c move.Color) uint64
	// PieceAt returns the piece standing on sq, or NoPiece.
	PieceAt(sq move.Square) (move.PieceKind, move.Color)
	// PotentialDestinations returns the empty-board reach of the piece on sq.
	PotentialDestinations(sq move.Square) uint64
	// SAN renders a legal move in standard algebraic notation.
	SAN(m move.Move) (string, error)
	// FEN returns the position in Forsyth-Edwards notation.
	FEN() string
}

// IsPromotionPush reports whether moving the piece on from to to is a pawn
// reaching its last rank.
func IsPromotionPush(o Oracle, from, to move.Square) bool {
	kind, color := o.PieceAt(from)
	if kind != move.Pawn {
		return false
	}
	if color == move.White {
		return to.Rank() == 7
	}
	return to.Rank() == 0
}

// FindMove returns the move in moves matching from, to and promotion.
// A NoPiece promotion also matches a queen promotion, which is how codecs
// that omit the promotion piece spell queening.
func FindMove(moves []move.Move, from, to move.Square, promo move.PieceKind) (move.Move, bool) {
	var queen move.Move
	found := false
	for _, m := range moves {
		if m.From != from || m.To != to {
			continue
		}
		if m.Promotion == promo {
			return m, true
		}
		if promo == move.NoPiece && m.Promotion == move.Queen {
			queen, found = m, true
		}
	}
	return queen, found
}

// Contains reports whether m (compared by squares and promotion) is in moves.
func Contains(moves []move.Move, m move.Move) bool {
	for _, c := range moves {
		if c.From == m.From && c.To == m.To && c.Promotion == m.Promotion {
			return true
		}
	}
	return false
}
