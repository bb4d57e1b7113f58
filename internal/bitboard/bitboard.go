// Package bitboard maps squares to their ordinal among the set bits of a
// 64-bit mask and back.
package bitboard

import (
	"fmt"
	"math/bits"
)

// InvalidBitError is returned when the requested bit is not set in the mask.
type InvalidBitError struct {
	Mask uint64
	Bit  int
}

func (e *InvalidBitError) Error() string {
	return fmt.Sprintf("bit %d not set in mask %#016x", e.Bit, e.Mask)
}

// RankOutOfRangeError is returned when a rank exceeds the mask's popcount.
type RankOutOfRangeError struct {
	Mask uint64
	Rank int
}

func (e *RankOutOfRangeError) Error() string {
	return fmt.Sprintf("rank %d out of range for mask %#016x (popcount %d)", e.Rank, e.Mask, bits.OnesCount64(e.Mask))
}

// IndexOf returns the number of set bits in mask strictly below bit.
func IndexOf(mask uint64, bit int) (int, error) {
	if bit < 0 || bit > 63 || mask&(1<<uint(bit)) == 0 {
		return 0, &InvalidBitError{Mask: mask, Bit: bit}
	}
	below := mask & (1<<uint(bit) - 1)
	return bits.OnesCount64(below), nil
}

// BitAt returns the position of the rank-th set bit, counting from the LSB.
func BitAt(mask uint64, rank int) (int, error) {
	if rank < 0 || rank >= bits.OnesCount64(mask) {
		return 0, &RankOutOfRangeError{Mask: mask, Rank: rank}
	}
	// Clear the lowest set bit rank times.
	for i := 0; i < rank; i++ {
		mask &= mask - 1
	}
	return bits.TrailingZeros64(mask), nil
}

// Width returns the number of bits needed to address every set bit of mask:
// ceil(log2(popcount)), and 0 when at most one bit is set.
func Width(mask uint64) int {
	n := bits.OnesCount64(mask)
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Popcount returns the number of set bits.
func Popcount(mask uint64) int {
	return bits.OnesCount64(mask)
}
