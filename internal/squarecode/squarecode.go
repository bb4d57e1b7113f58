// Package squarecode encodes a single square as its rank within a mask
// derived from the board, using ceil(log2(popcount)) bits.
package squarecode

import (
	"fmt"

	"github.com/freeeve/movecodec/internal/bitboard"
	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/move"
)

// Context is the board state a square is encoded against. From is only
// meaningful for to-square encoders.
type Context struct {
	Board board.Oracle
	From  move.Square
}

// Encoder writes and reads one square. Decode must see the same Context
// the square was encoded with.
type Encoder interface {
	Name() string
	Mask(ctx Context) uint64
	Encode(w *bitio.Writer, sq move.Square, ctx Context) error
	Decode(r *bitio.Reader, ctx Context) (move.Square, error)
}

type maskEncoder struct {
	name string
	mask func(Context) uint64
}

func (e maskEncoder) Name() string { return e.name }

func (e maskEncoder) Mask(ctx Context) uint64 { return e.mask(ctx) }

func (e maskEncoder) Encode(w *bitio.Writer, sq move.Square, ctx Context) error {
	mask := e.mask(ctx)
	idx, err := bitboard.IndexOf(mask, int(sq))
	if err != nil {
		return fmt.Errorf("%s: encode %s: %w", e.name, sq, err)
	}
	w.WriteBits(uint64(idx), bitboard.Width(mask))
	return nil
}

func (e maskEncoder) Decode(r *bitio.Reader, ctx Context) (move.Square, error) {
	mask := e.mask(ctx)
	v, err := r.ReadBits(bitboard.Width(mask))
	if err != nil {
		return move.NoSquare, fmt.Errorf("%s: %w", e.name, err)
	}
	bit, err := bitboard.BitAt(mask, int(v))
	if err != nil {
		return move.NoSquare, fmt.Errorf("%s: decode: %w", e.name, err)
	}
	return move.Square(bit), nil
}

func fromSquares(moves []move.Move) uint64 {
	var m uint64
	for _, mv := range moves {
		m |= mv.From.Bit()
	}
	return m
}

func toSquares(moves []move.Move) uint64 {
	var m uint64
	for _, mv := range moves {
		m |= mv.To.Bit()
	}
	return m
}

// OccupiedIndex ranks the from-square among the mover's pieces.
func OccupiedIndex() Encoder {
	return maskEncoder{name: "occupied_index", mask: func(c Context) uint64 {
		return c.Board.Occupied(c.Board.Turn())
	}}
}

// FromMaskLegal ranks the from-square among squares with a legal move.
func FromMaskLegal() Encoder {
	return maskEncoder{name: "mask_legal", mask: func(c Context) uint64 {
		return fromSquares(c.Board.LegalMoves())
	}}
}

// FromMaskPseudoLegal ranks the from-square among squares with a
// pseudo-legal move.
func FromMaskPseudoLegal() Encoder {
	return maskEncoder{name: "mask_pseudo_legal", mask: func(c Context) uint64 {
		return fromSquares(c.Board.PseudoLegalMoves())
	}}
}

// SquareIndex writes the raw square in 6 bits.
func SquareIndex() Encoder {
	return maskEncoder{name: "square_index", mask: func(Context) uint64 { return ^uint64(0) }}
}

// ToMaskPotentialLegal ranks the to-square within the empty-board reach of
// the piece on From.
func ToMaskPotentialLegal() Encoder {
	return maskEncoder{name: "mask_potential_legal", mask: func(c Context) uint64 {
		return c.Board.PotentialDestinations(c.From)
	}}
}

// ToMaskLegal ranks the to-square among the destinations of every legal move.
func ToMaskLegal() Encoder {
	return maskEncoder{name: "mask_legal", mask: func(c Context) uint64 {
		return toSquares(c.Board.LegalMoves())
	}}
}

// ToMaskPseudoLegal ranks the to-square among the destinations of every
// pseudo-legal move.
func ToMaskPseudoLegal() Encoder {
	return maskEncoder{name: "mask_pseudo_legal", mask: func(c Context) uint64 {
		return toSquares(c.Board.PseudoLegalMoves())
	}}
}

// Width returns how many bits e writes for ctx.
func Width(e Encoder, ctx Context) int {
	return bitboard.Width(e.Mask(ctx))
}
