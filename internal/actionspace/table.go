// Package actionspace maps moves onto chess's fixed discrete action space of
// 1924 move shapes and folds that space into reflection classes.
//
// The space holds every (from, to) pair a queen or knight could play on an
// empty board (1792 shapes) plus the 132 underpromotion shapes. Queen
// promotions share the shape of the plain pawn move on the same squares; the
// board tells the two apart.
//
// Indices are laid out by 4-fold reflection class: for class c, the member
// whose from-square lies on files e-h has bit 1 set and the member whose
// from-square lies on ranks 5-8 has bit 0 set, so
//
//	index = 4*c + 2*fileBit + rankBit
//
// and index>>1 is the rank-mirror pair, index>>2 the 4-fold class.
package actionspace

import (
	"fmt"
	"sync"

	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/move"
)

const (
	// Size is the number of shapes in the action space.
	Size = 1924
	// Width is the fixed code width of a full index, ceil(log2(Size)).
	Width = 11
)

// Shape is a move stripped of board context. Promotion is NoPiece for plain
// moves and queen promotions, or Knight, Bishop or Rook for underpromotions.
type Shape struct {
	From      move.Square
	To        move.Square
	Promotion move.PieceKind
}

// FlipRank mirrors the shape about the 4th/5th rank line.
func (s Shape) FlipRank() Shape {
	return Shape{From: s.From.FlipRank(), To: s.To.FlipRank(), Promotion: s.Promotion}
}

// FlipFile mirrors the shape about the d/e file line.
func (s Shape) FlipFile() Shape {
	return Shape{From: s.From.FlipFile(), To: s.To.FlipFile(), Promotion: s.Promotion}
}

// IsUnderpromotion reports whether the shape is an underpromotion.
func (s Shape) IsUnderpromotion() bool { return s.Promotion.IsUnderpromotion() }

// Color returns the side that can play an underpromotion shape.
// ok is false for every other shape.
func (s Shape) Color() (c move.Color, ok bool) {
	if !s.IsUnderpromotion() {
		return move.White, false
	}
	if s.To.Rank() == 7 {
		return move.White, true
	}
	return move.Black, true
}

func (s Shape) String() string {
	return s.From.String() + s.To.String() + s.Promotion.String()
}

// Entry is one index/shape pair of the table.
type Entry struct {
	Index int
	Shape Shape
}

// UnrepresentableMoveError is returned for moves outside the action space.
type UnrepresentableMoveError struct {
	Move move.Move
}

func (e *UnrepresentableMoveError) Error() string {
	return fmt.Sprintf("move %s is not in the action space", e.Move.UCI())
}

// promoSlot maps a promotion kind to its lookup slot; queens share slot 0.
func promoSlot(k move.PieceKind) int {
	switch k {
	case move.Knight:
		return 1
	case move.Bishop:
		return 2
	case move.Rook:
		return 3
	}
	return 0
}

// Table is the immutable bijection between shapes and indices 0..Size-1.
// It is safe for concurrent use.
type Table struct {
	shapes [Size]Shape
	lookup [64][64][4]int16
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the process-wide table, building it on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = Build()
	})
	return defaultTable
}

// enumerate lists every shape in (from, to, promotion) order.
func enumerate() []Shape {
	shapes := make([]Shape, 0, Size)
	for from := move.Square(0); from < 64; from++ {
		reach := board.QueenReach(from) | board.KnightReach(from)
		for to := move.Square(0); to < 64; to++ {
			if reach&to.Bit() != 0 {
				shapes = append(shapes, Shape{From: from, To: to})
			}
		}
	}
	for from := move.Square(0); from < 64; from++ {
		var toRank int
		switch from.Rank() {
		case 6:
			toRank = 7
		case 1:
			toRank = 0
		default:
			continue
		}
		for df := -1; df <= 1; df++ {
			file := from.File() + df
			if file < 0 || file > 7 {
				continue
			}
			to := move.NewSquare(file, toRank)
			for _, promo := range []move.PieceKind{move.Knight, move.Bishop, move.Rook} {
				shapes = append(shapes, Shape{From: from, To: to, Promotion: promo})
			}
		}
	}
	return shapes
}

// Build constructs the table. Prefer Default unless an owned copy is needed.
func Build() *Table {
	t := &Table{}
	for f := range t.lookup {
		for to := range t.lookup[f] {
			for p := range t.lookup[f][to] {
				t.lookup[f][to][p] = -1
			}
		}
	}

	class := 0
	for _, s := range enumerate() {
		// Canonical member: from-square in the a1-d4 quadrant.
		if s.From.File() >= 4 || s.From.Rank() >= 4 {
			continue
		}
		members := [4]Shape{s, s.FlipRank(), s.FlipFile(), s.FlipFile().FlipRank()}
		for bit, m := range members {
			idx := class*4 + bit
			t.shapes[idx] = m
			t.lookup[m.From][m.To][promoSlot(m.Promotion)] = int16(idx)
		}
		class++
	}
	if class*4 != Size {
		panic(fmt.Sprintf("actionspace: built %d classes, want %d", class, Size/4))
	}
	return t
}

// Len returns Size.
func (t *Table) Len() int { return Size }

// EncodeShape returns the index of s.
func (t *Table) EncodeShape(s Shape) (int, bool) {
	if s.From > 63 || s.To > 63 {
		return 0, false
	}
	idx := t.lookup[s.From][s.To][promoSlot(s.Promotion)]
	if idx < 0 {
		return 0, false
	}
	return int(idx), true
}

// Encode returns the index of m's shape. Queen promotions map to the
// shape of the underlying pawn move.
func (t *Table) Encode(m move.Move) (int, error) {
	s := ShapeOf(m)
	idx, ok := t.EncodeShape(s)
	if !ok {
		return 0, &UnrepresentableMoveError{Move: m}
	}
	return idx, nil
}

// Decode returns the shape at index i.
func (t *Table) Decode(i int) (Shape, error) {
	if i < 0 || i >= Size {
		return Shape{}, fmt.Errorf("action index %d out of range [0,%d)", i, Size)
	}
	return t.shapes[i], nil
}

// Entries returns every entry in index order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, Size)
	for i, s := range t.shapes {
		out[i] = Entry{Index: i, Shape: s}
	}
	return out
}

// ShapeOf strips board context from m.
func ShapeOf(m move.Move) Shape {
	s := Shape{From: m.From, To: m.To}
	if m.Promotion.IsUnderpromotion() {
		s.Promotion = m.Promotion
	}
	return s
}

// Resolve turns a decoded shape back into the matching legal move.
func Resolve(s Shape, legal []move.Move) (move.Move, bool) {
	return board.FindMove(legal, s.From, s.To, s.Promotion)
}
