// Package gamefile stores codec-encoded games in a zstd-compressed archive.
//
// An archive starts with a header naming the codec configuration (and, for
// Huffman codecs, the trained table) followed by one record per game.
package gamefile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/move"
)

const (
	archiveMagic   = "MCGA"
	archiveVersion = uint32(1)
	// maxField bounds any length read from an archive.
	maxField = 1 << 28
)

// Header describes how the records were encoded.
type Header struct {
	Config  codec.Config
	Huffman *huffman.Table // nil unless the codec is Huffman based
}

// Record is one encoded game.
type Record struct {
	FEN   string // starting position; empty for the standard start
	Plies int
	NBits int
	Bits  []byte
}

func startPosition(fen string) (*board.Position, error) {
	if fen == "" {
		return board.Start(), nil
	}
	return board.FromFEN(fen)
}

// EncodeGame encodes moves played from the record's starting position.
func EncodeGame(c *codec.Codec, fen string, moves []move.Move) (Record, error) {
	rec := Record{FEN: fen, Plies: len(moves)}
	pos, err := startPosition(fen)
	if err != nil {
		return Record{}, err
	}
	w := bitio.NewWriter(len(moves) * 2)
	for ply, m := range moves {
		if err := c.EncodeTo(w, m, pos); err != nil {
			return Record{}, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		if err := pos.Play(m); err != nil {
			return Record{}, fmt.Errorf("ply %d: %w", ply+1, err)
		}
	}
	rec.NBits = w.Len()
	rec.Bits = append([]byte(nil), w.Bytes()...)
	return rec, nil
}

// DecodeGame replays a record and returns its moves. Every bit must be used.
func DecodeGame(c *codec.Codec, rec Record) ([]move.Move, error) {
	pos, err := startPosition(rec.FEN)
	if err != nil {
		return nil, err
	}
	r := bitio.NewReader(rec.Bits, rec.NBits)
	// Plies comes from the archive; a move takes at least one bit in all but
	// forced positions, so the bit count bounds the preallocation.
	moves := make([]move.Move, 0, min(rec.Plies, rec.NBits+1))
	for ply := 0; ply < rec.Plies; ply++ {
		m, err := c.DecodeFrom(r, pos)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		if err := pos.Play(m); err != nil {
			return nil, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		moves = append(moves, m)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bits after ply %d", codec.ErrTrailingBits, r.Remaining(), rec.Plies)
	}
	return moves, nil
}

// Writer appends records to an archive. It is not safe for concurrent use.
type Writer struct {
	zw      *zstd.Encoder
	scratch [binary.MaxVarintLen64]byte
	n       int64
}

// NewWriter writes the header to w and returns a writer for records.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if err := h.Config.Validate(); err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	aw := &Writer{zw: zw}

	var hdr bytes.Buffer
	hdr.WriteString(archiveMagic)
	if err := binary.Write(&hdr, binary.BigEndian, archiveVersion); err != nil {
		return nil, fmt.Errorf("write version: %w", err)
	}
	if _, err := zw.Write(hdr.Bytes()); err != nil {
		return nil, err
	}
	for _, s := range []string{string(h.Config.Move), string(h.Config.From), string(h.Config.To)} {
		if err := aw.writeBytes([]byte(s)); err != nil {
			return nil, err
		}
	}
	var table []byte
	if h.Huffman != nil {
		var buf bytes.Buffer
		if _, err := h.Huffman.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("write huffman table: %w", err)
		}
		table = buf.Bytes()
	}
	if err := aw.writeBytes(table); err != nil {
		return nil, err
	}
	return aw, nil
}

func (w *Writer) writeUvarint(v uint64) error {
	_, err := w.zw.Write(w.scratch[:binary.PutUvarint(w.scratch[:], v)])
	return err
}

func (w *Writer) writeBytes(b []byte) error {
	if err := w.writeUvarint(uint64(len(b))); err != nil {
		return err
	}
	_, err := w.zw.Write(b)
	return err
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if rec.NBits > len(rec.Bits)*8 {
		return fmt.Errorf("record claims %d bits in %d bytes", rec.NBits, len(rec.Bits))
	}
	if err := w.writeBytes([]byte(rec.FEN)); err != nil {
		return err
	}
	if err := w.writeUvarint(uint64(rec.Plies)); err != nil {
		return err
	}
	if err := w.writeUvarint(uint64(rec.NBits)); err != nil {
		return err
	}
	if _, err := w.zw.Write(rec.Bits[:(rec.NBits+7)/8]); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int64 { return w.n }

// Close flushes the compressed stream. It does not close the underlying writer.
func (w *Writer) Close() error { return w.zw.Close() }

// Reader reads records from an archive.
type Reader struct {
	zr     *zstd.Decoder
	br     *bufio.Reader
	header Header
}

// ErrNotArchive is returned when the stream does not start with an archive header.
var ErrNotArchive = errors.New("gamefile: not a game archive")

// NewReader reads the header from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	ar := &Reader{zr: zr, br: bufio.NewReader(zr)}
	if err := ar.readHeader(); err != nil {
		zr.Close()
		return nil, err
	}
	return ar, nil
}

func (r *Reader) readHeader() error {
	magic := make([]byte, len(archiveMagic))
	if _, err := io.ReadFull(r.br, magic); err != nil || string(magic) != archiveMagic {
		return ErrNotArchive
	}
	var version uint32
	if err := binary.Read(r.br, binary.BigEndian, &version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if version != archiveVersion {
		return fmt.Errorf("gamefile: unsupported archive version %d", version)
	}
	var fields [3]string
	for i := range fields {
		b, err := r.readBytes()
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		fields[i] = string(b)
	}
	r.header.Config = codec.Config{
		Move: codec.MoveEncodingOption(fields[0]),
		From: codec.FromSquareEncodingOption(fields[1]),
		To:   codec.ToSquareEncodingOption(fields[2]),
	}
	if err := r.header.Config.Validate(); err != nil {
		return fmt.Errorf("archive config: %w", err)
	}
	table, err := r.readBytes()
	if err != nil {
		return fmt.Errorf("read huffman table: %w", err)
	}
	if len(table) > 0 {
		t, err := huffman.ReadTable(bytes.NewReader(table))
		if err != nil {
			return err
		}
		r.header.Huffman = t
	}
	return nil
}

func (r *Reader) readUvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.br)
	if err != nil {
		return 0, err
	}
	if v > maxField {
		return 0, fmt.Errorf("gamefile: field length %d too large", v)
	}
	return v, nil
}

func (r *Reader) readBytes() ([]byte, error) {
	n, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.br, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Header returns the archive header.
func (r *Reader) Header() Header { return r.header }

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	if _, err := r.br.Peek(1); err == io.EOF {
		return Record{}, io.EOF
	}
	fen, err := r.readBytes()
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", unexpected(err))
	}
	plies, err := r.readUvarint()
	if err != nil {
		return Record{}, fmt.Errorf("read plies: %w", unexpected(err))
	}
	nbits, err := r.readUvarint()
	if err != nil {
		return Record{}, fmt.Errorf("read bit length: %w", unexpected(err))
	}
	bits := make([]byte, (nbits+7)/8)
	if _, err := io.ReadFull(r.br, bits); err != nil {
		return Record{}, fmt.Errorf("read bits: %w", unexpected(err))
	}
	return Record{FEN: string(fen), Plies: int(plies), NBits: int(nbits), Bits: bits}, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Close releases the decoder.
func (r *Reader) Close() { r.zr.Close() }

// Codec builds the codec described by the header. table overrides the
// embedded Huffman table when non-nil.
func (h Header) Codec(table *huffman.Table) (*codec.Codec, error) {
	if table == nil {
		table = h.Huffman
	}
	b := codec.NewBuilder(h.Config)
	if table != nil {
		b.UseHuffmanTable(table)
	}
	return b.Build()
}
