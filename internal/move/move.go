// Package move defines squares, colors, piece kinds and moves, with UCI
// parsing and formatting.
package move

import "fmt"

// Square is a board square index 0-63 (A1=0, B1=1, ..., H8=63).
type Square uint8

// NoSquare marks an absent square.
const NoSquare Square = 64

// File returns the file index (0=a ... 7=h).
func (s Square) File() int { return int(s) % 8 }

// Rank returns the rank index (0=rank 1 ... 7=rank 8).
func (s Square) Rank() int { return int(s) / 8 }

// Bit returns the single-bit mask for the square.
func (s Square) Bit() uint64 { return 1 << uint(s) }

// FlipRank mirrors the square about the 4th/5th rank line.
func (s Square) FlipRank() Square { return s ^ 56 }

// FlipFile mirrors the square about the d/e file line.
func (s Square) FlipFile() Square { return s ^ 7 }

// String returns algebraic notation ("e4").
func (s Square) String() string {
	if s >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// NewSquare builds a square from file and rank indices.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation ("e4").
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}
	return NewSquare(file, rank), nil
}

// Color is the side owning a piece or the side to move.
type Color uint8

const (
	White Color = 0
	Black Color = 1
)

// Other returns the opposing color.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceKind is a colorless piece type. The zero value means no piece / no promotion.
type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceChars = [...]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Char returns the lowercase UCI letter of the piece, or 0 for NoPiece.
func (k PieceKind) Char() byte {
	if int(k) >= len(pieceChars) {
		return 0
	}
	return pieceChars[k]
}

func (k PieceKind) String() string {
	if k == NoPiece {
		return ""
	}
	return string(k.Char())
}

// IsUnderpromotion reports whether k is a legal promotion target other than a queen.
func (k PieceKind) IsUnderpromotion() bool {
	return k == Knight || k == Bishop || k == Rook
}

// Move is a single move as produced by the board oracle or a decoder.
// Color is the side making the move.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
	Color     Color
}

// New returns a move without promotion.
func New(from, to Square, color Color) Move {
	return Move{From: from, To: to, Color: color}
}

// IsPromotion reports whether the move carries a promotion piece.
func (m Move) IsPromotion() bool { return m.Promotion != NoPiece }

// UCI converts a Move to UCI notation (e.g., "e2e4", "e7e8q").
func (m Move) UCI() string {
	uci := m.From.String() + m.To.String()
	if m.Promotion != NoPiece {
		uci += string(m.Promotion.Char())
	}
	return uci
}

func (m Move) String() string { return m.UCI() }

// FromUCI parses a UCI move string. The color is not part of UCI and is
// supplied by the caller (usually the side to move).
// Examples: "e2e4", "e7e8q", "a1h8"
func FromUCI(uci string, color Color) (Move, error) {
	if len(uci) < 4 || len(uci) > 5 {
		return Move{}, fmt.Errorf("invalid UCI move length: %q", uci)
	}
	from, err := ParseSquare(uci[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from square in UCI %q: %w", uci, err)
	}
	to, err := ParseSquare(uci[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to square in UCI %q: %w", uci, err)
	}

	promo := NoPiece
	if len(uci) == 5 {
		switch uci[4] {
		case 'q', 'Q':
			promo = Queen
		case 'r', 'R':
			promo = Rook
		case 'b', 'B':
			promo = Bishop
		case 'n', 'N':
			promo = Knight
		default:
			return Move{}, fmt.Errorf("invalid promotion piece: %c", uci[4])
		}
	}
	return Move{From: from, To: to, Promotion: promo, Color: color}, nil
}
