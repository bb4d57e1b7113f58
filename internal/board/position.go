package board

import (
	"fmt"
	"strings"

	"github.com/Oliverans/GooseEngineMG/goosemg"

	"github.com/freeeve/movecodec/internal/move"
)

// StartFEN is the standard starting position.
const StartFEN = goosemg.FENStartPos

// Position is an Oracle over a goosemg board. Read methods do not mutate the
// board, so a Position may be shared by concurrent readers; Play must not run
// concurrently with anything else.
type Position struct {
	b *goosemg.Board
}

var _ Oracle = (*Position)(nil)

// Start returns the starting position.
func Start() *Position {
	p, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

// FromFEN parses a FEN string.
func FromFEN(fen string) (*Position, error) {
	b, err := goosemg.ParseFEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &Position{b: b}, nil
}

// FEN returns the position in FEN.
func (p *Position) FEN() string { return p.b.ToFEN() }

// Clone returns an independent copy.
func (p *Position) Clone() *Position {
	cp := *p.b
	return &Position{b: &cp}
}

func toColor(c goosemg.Color) move.Color {
	if c == goosemg.White {
		return move.White
	}
	return move.Black
}

func fromColor(c move.Color) goosemg.Color {
	if c == move.White {
		return goosemg.White
	}
	return goosemg.Black
}

func toKind(pt goosemg.PieceType) move.PieceKind {
	switch pt {
	case goosemg.PieceTypePawn:
		return move.Pawn
	case goosemg.PieceTypeKnight:
		return move.Knight
	case goosemg.PieceTypeBishop:
		return move.Bishop
	case goosemg.PieceTypeRook:
		return move.Rook
	case goosemg.PieceTypeQueen:
		return move.Queen
	case goosemg.PieceTypeKing:
		return move.King
	}
	return move.NoPiece
}

func (p *Position) convert(gm []goosemg.Move) []move.Move {
	turn := p.Turn()
	out := make([]move.Move, len(gm))
	for i, m := range gm {
		out[i] = move.Move{
			From:      move.Square(m.From()),
			To:        move.Square(m.To()),
			Promotion: toKind(m.PromotionPieceType()),
			Color:     turn,
		}
	}
	return out
}

// Turn returns the side to move.
func (p *Position) Turn() move.Color { return toColor(p.b.SideToMove()) }

// LegalMoves returns all legal moves.
func (p *Position) LegalMoves() []move.Move {
	return p.convert(p.b.GenerateLegalMoves())
}

// PseudoLegalMoves returns moves without the king-safety filter.
func (p *Position) PseudoLegalMoves() []move.Move {
	return p.convert(p.b.GeneratePseudoMoves())
}

// Occupied returns the occupancy bitboard of color c.
func (p *Position) Occupied(c move.Color) uint64 {
	return p.b.ColorOccupancy(fromColor(c))
}

// PieceAt returns the piece on sq.
func (p *Position) PieceAt(sq move.Square) (move.PieceKind, move.Color) {
	pc := p.b.PieceAt(goosemg.Square(sq))
	if pc == goosemg.NoPiece {
		return move.NoPiece, move.White
	}
	return toKind(pc.Type()), toColor(pc.Color())
}

// PotentialDestinations returns the empty-board reach of the piece on sq, or 0
// for an empty square.
func (p *Position) PotentialDestinations(sq move.Square) uint64 {
	kind, color := p.PieceAt(sq)
	return Reach(kind, color, sq)
}

// find returns the goosemg legal move matching m.
func (p *Position) find(m move.Move) (goosemg.Move, bool) {
	for _, gm := range p.b.GenerateLegalMoves() {
		if move.Square(gm.From()) == m.From && move.Square(gm.To()) == m.To &&
			toKind(gm.PromotionPieceType()) == m.Promotion {
			return gm, true
		}
	}
	return 0, false
}

// Play applies a legal move.
func (p *Position) Play(m move.Move) error {
	gm, ok := p.find(m)
	if !ok {
		return fmt.Errorf("illegal move %s in %s", m.UCI(), p.FEN())
	}
	if ok, _ := p.b.MakeMove(gm); !ok {
		return fmt.Errorf("make move %s rejected in %s", m.UCI(), p.FEN())
	}
	return nil
}
