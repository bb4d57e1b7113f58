// Package bitio provides MSB-first bit sequences, writers and readers.
package bitio

import (
	"errors"
	"fmt"
	"strings"
)

// MaxCodeLen is the longest sequence a Code can hold.
const MaxCodeLen = 64

var (
	ErrUnexpectedEOF = errors.New("bitio: unexpected end of bits")
	ErrCodeOverflow  = errors.New("bitio: code longer than 64 bits")
)

// Code is a bit sequence of Len bits stored in the low bits of Bits,
// most significant (first written) bit first.
type Code struct {
	Bits uint64
	Len  int
}

// NewCode returns the n-bit code holding v. Bits of v above n are dropped.
func NewCode(v uint64, n int) Code {
	if n < MaxCodeLen {
		v &= 1<<uint(n) - 1
	}
	return Code{Bits: v, Len: n}
}

// Bit returns the i-th bit (0 = first).
func (c Code) Bit(i int) uint {
	return uint(c.Bits>>uint(c.Len-1-i)) & 1
}

// Append returns c followed by o.
func (c Code) Append(o Code) (Code, error) {
	if c.Len+o.Len > MaxCodeLen {
		return Code{}, ErrCodeOverflow
	}
	if o.Len == MaxCodeLen {
		return o, nil
	}
	return Code{Bits: c.Bits<<uint(o.Len) | o.Bits, Len: c.Len + o.Len}, nil
}

// HasPrefix reports whether p is a prefix of c.
func (c Code) HasPrefix(p Code) bool {
	if p.Len > c.Len {
		return false
	}
	if p.Len == 0 {
		return true
	}
	return c.Bits>>uint(c.Len-p.Len) == p.Bits
}

// String renders the code as a string of '0' and '1'.
func (c Code) String() string {
	var sb strings.Builder
	sb.Grow(c.Len)
	for i := 0; i < c.Len; i++ {
		sb.WriteByte(byte('0' + c.Bit(i)))
	}
	return sb.String()
}

// ParseCode parses a string of '0' and '1'.
func ParseCode(s string) (Code, error) {
	if len(s) > MaxCodeLen {
		return Code{}, ErrCodeOverflow
	}
	var c Code
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0', '1':
			c.Bits = c.Bits<<1 | uint64(s[i]-'0')
			c.Len++
		default:
			return Code{}, fmt.Errorf("bitio: invalid bit %q at %d", s[i], i)
		}
	}
	return c, nil
}

// Writer accumulates bits into a byte slice, MSB first.
type Writer struct {
	buf   []byte
	nbits int
}

// NewWriter creates a writer with capacity for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(b uint) {
	if w.nbits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b&1 != 0 {
		w.buf[len(w.buf)-1] |= 0x80 >> uint(w.nbits%8)
	}
	w.nbits++
}

// WriteBits appends the low n bits of v, most significant first.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(uint(v>>uint(i)) & 1)
	}
}

// WriteCode appends every bit of c.
func (w *Writer) WriteCode(c Code) {
	w.WriteBits(c.Bits, c.Len)
}

// Len returns the number of bits written.
func (w *Writer) Len() int { return w.nbits }

// Bytes returns the written bits padded with zeros to a whole byte.
func (w *Writer) Bytes() []byte { return w.buf }

// Code returns the written bits as a Code. It fails past 64 bits.
func (w *Writer) Code() (Code, error) {
	if w.nbits > MaxCodeLen {
		return Code{}, ErrCodeOverflow
	}
	r := NewReader(w.buf, w.nbits)
	v, err := r.ReadBits(w.nbits)
	if err != nil {
		return Code{}, err
	}
	return Code{Bits: v, Len: w.nbits}, nil
}

// Reset clears the writer, keeping its buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.nbits = 0
}

// Reader reads bits from a byte slice, MSB first.
type Reader struct {
	data   []byte
	nbits  int // total readable bits
	offset int // bit offset
}

// NewReader reads the first nbits bits of data. A negative nbits means all of data.
func NewReader(data []byte, nbits int) *Reader {
	if nbits < 0 || nbits > len(data)*8 {
		nbits = len(data) * 8
	}
	return &Reader{data: data, nbits: nbits}
}

// NewCodeReader reads the bits of c.
func NewCodeReader(c Code) *Reader {
	w := NewWriter(8)
	w.WriteCode(c)
	return NewReader(w.Bytes(), w.Len())
}

// ReadBit reads one bit.
func (r *Reader) ReadBit() (uint, error) {
	if r.offset >= r.nbits {
		return 0, ErrUnexpectedEOF
	}
	b := uint(r.data[r.offset/8]>>uint(7-r.offset%8)) & 1
	r.offset++
	return b, nil
}

// ReadBits reads n bits (n ≤ 64) into the low bits of the result.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n > MaxCodeLen {
		return 0, ErrCodeOverflow
	}
	if r.offset+n > r.nbits {
		return 0, ErrUnexpectedEOF
	}
	var v uint64
	for i := 0; i < n; i++ {
		b, _ := r.ReadBit()
		v = v<<1 | uint64(b)
	}
	return v, nil
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int { return r.nbits - r.offset }

// Offset returns the number of bits consumed so far.
func (r *Reader) Offset() int { return r.offset }
