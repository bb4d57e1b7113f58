package board

import "github.com/freeeve/movecodec/internal/move"

// Empty-board reach tables. A set bit marks a square the piece could reach
// (move or capture) from the indexed square with no other pieces present.
var (
	knightReach [64]uint64
	kingReach   [64]uint64
	rookReach   [64]uint64
	bishopReach [64]uint64
	pawnReach   [2][64]uint64
)

func init() {
	initReach()
}

func step(sq, df, dr int) (int, bool) {
	f, r := sq%8+df, sq/8+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return 0, false
	}
	return r*8 + f, true
}

func ray(sq, df, dr int) uint64 {
	var bb uint64
	for cur, ok := step(sq, df, dr); ok; cur, ok = step(cur, df, dr) {
		bb |= 1 << uint(cur)
	}
	return bb
}

func initReach() {
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps := [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

	for sq := 0; sq < 64; sq++ {
		for _, d := range knightSteps {
			if to, ok := step(sq, d[0], d[1]); ok {
				knightReach[sq] |= 1 << uint(to)
			}
		}
		for _, d := range kingSteps {
			if to, ok := step(sq, d[0], d[1]); ok {
				kingReach[sq] |= 1 << uint(to)
			}
		}
		rookReach[sq] = ray(sq, 1, 0) | ray(sq, -1, 0) | ray(sq, 0, 1) | ray(sq, 0, -1)
		bishopReach[sq] = ray(sq, 1, 1) | ray(sq, -1, 1) | ray(sq, 1, -1) | ray(sq, -1, -1)

		// Pawns never stand on their own back rank; ranks 1 and 8 stay empty.
		rank := sq / 8
		if rank > 0 && rank < 7 {
			for color, dr := range [2]int{1, -1} {
				if to, ok := step(sq, 0, dr); ok {
					pawnReach[color][sq] |= 1 << uint(to)
				}
				if (color == 0 && rank == 1) || (color == 1 && rank == 6) {
					to, _ := step(sq, 0, 2*dr)
					pawnReach[color][sq] |= 1 << uint(to)
				}
				for _, df := range [2]int{-1, 1} {
					if to, ok := step(sq, df, dr); ok {
						pawnReach[color][sq] |= 1 << uint(to)
					}
				}
			}
		}
	}
}

// QueenReach returns the empty-board queen destinations from sq.
func QueenReach(sq move.Square) uint64 { return rookReach[sq] | bishopReach[sq] }

// KnightReach returns the knight destinations from sq.
func KnightReach(sq move.Square) uint64 { return knightReach[sq] }

// Reach returns the empty-board destinations of a piece of the given kind
// and color standing on sq. Kings on their home square include the
// castling destinations.
func Reach(kind move.PieceKind, color move.Color, sq move.Square) uint64 {
	switch kind {
	case move.Pawn:
		return pawnReach[color][sq]
	case move.Knight:
		return knightReach[sq]
	case move.Bishop:
		return bishopReach[sq]
	case move.Rook:
		return rookReach[sq]
	case move.Queen:
		return rookReach[sq] | bishopReach[sq]
	case move.King:
		bb := kingReach[sq]
		if (color == move.White && sq == 4) || (color == move.Black && sq == 60) {
			bb |= (1 << uint(sq+2)) | (1 << uint(sq-2))
		}
		return bb
	}
	return 0
}
