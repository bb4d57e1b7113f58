// Package codec turns a chess move into a compact bit sequence against a
// board and back. A Builder collects the configuration and any trained
// tables; Build publishes an immutable Codec that is safe for concurrent use.
package codec

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/freeeve/movecodec/internal/actionspace"
	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/move"
)

var (
	// ErrIllegalMove is returned for moves that are not legal on the board,
	// including decoded bits that name no legal move.
	ErrIllegalMove = errors.New("codec: illegal move")
	// ErrNotBuilt is returned by a Codec that did not come from Build or Naive.
	ErrNotBuilt = errors.New("codec: not built")
	// ErrTrailingBits is returned by Decode when bits remain after the move.
	ErrTrailingBits = errors.New("codec: trailing bits after move")
	// ErrMissingHuffmanTable is returned by Build for Huffman options
	// without a table.
	ErrMissingHuffmanTable = errors.New("codec: huffman option needs a trained table")
)

// Builder holds a configuration until Build. It is not safe for concurrent use.
type Builder struct {
	cfg     Config
	huffman *huffman.Table
	actions *actionspace.Table
	log     zerolog.Logger
}

// NewBuilder starts an unconfigured codec with cfg.
func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg, log: zerolog.Nop()}
}

// SetLogger attaches a logger.
func (b *Builder) SetLogger(l zerolog.Logger) *Builder {
	b.log = l
	return b
}

// UseHuffmanTable supplies a trained table for the Huffman options.
func (b *Builder) UseHuffmanTable(t *huffman.Table) *Builder {
	b.huffman = t
	return b
}

// UseActionSpace supplies the action space table; Default is used otherwise.
func (b *Builder) UseActionSpace(t *actionspace.Table) *Builder {
	b.actions = t
	return b
}

// TrainHuffman builds the Huffman table from src. On error the builder
// keeps whatever table it had before.
func (b *Builder) TrainHuffman(ctx context.Context, src huffman.Source) error {
	t, err := huffman.BuildFromSource(ctx, src, b.log)
	if err != nil {
		return fmt.Errorf("train huffman: %w", err)
	}
	b.huffman = t
	return nil
}

// Build validates the configuration and returns the codec.
func (b *Builder) Build() (*Codec, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	actions := b.actions
	if actions == nil {
		actions = actionspace.Default()
	}

	var s strategy
	switch b.cfg.Move {
	case FromUCI:
		s = naive{}
	case HuffmanCodeUCI, HuffmanCodeSAN:
		if b.huffman == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingHuffmanTable, b.cfg.Move)
		}
		var tok tokenizer = uciTokens{}
		if b.cfg.Move == HuffmanCodeSAN {
			tok = sanTokens{}
		}
		s = huffmanCode{table: b.huffman, tok: tok}
	case MapToActionSpace:
		s = actionIndex{table: actions}
	case MapToActionSpace2FoldSymmetry, MapToActionSpace4FoldSymmetry:
		fold := 2
		if b.cfg.Move == MapToActionSpace4FoldSymmetry {
			fold = 4
		}
		f, err := actionspace.NewFolder(actions, fold)
		if err != nil {
			return nil, err
		}
		s = symmetric{folder: f}
	case HandleFromToSquaresSeparately:
		s = separate{from: fromEncoder(b.cfg.From), to: toEncoder(b.cfg.To)}
	}

	ev := b.log.Debug().Str("config", b.cfg.String())
	if b.huffman != nil && b.cfg.Move.NeedsHuffmanTable() {
		ev = ev.Int("huffman_tokens", b.huffman.Len())
	}
	ev.Msg("codec built")
	return &Codec{cfg: b.cfg, s: s, huffman: b.huffman}, nil
}

// Codec encodes and decodes moves with one fixed strategy. The zero value
// is unbuilt and fails every call with ErrNotBuilt.
type Codec struct {
	cfg     Config
	s       strategy
	huffman *huffman.Table
}

// Naive returns the from_uci codec, which needs no build step.
func Naive() *Codec {
	return &Codec{cfg: Config{Move: FromUCI}, s: naive{}}
}

// Config returns the codec's configuration.
func (c *Codec) Config() Config { return c.cfg }

// HuffmanTable returns the trained table, or nil.
func (c *Codec) HuffmanTable() *huffman.Table { return c.huffman }

// Encode returns the code of m on b. m must be legal on b.
func (c *Codec) Encode(m move.Move, b board.Oracle) (bitio.Code, error) {
	if c == nil || c.s == nil {
		return bitio.Code{}, ErrNotBuilt
	}
	if !board.Contains(b.LegalMoves(), m) {
		return bitio.Code{}, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
	}
	w := bitio.NewWriter(2)
	if err := c.s.encode(w, m, b); err != nil {
		return bitio.Code{}, fmt.Errorf("encode %s: %w", m.UCI(), err)
	}
	return w.Code()
}

// EncodeTo appends the code of m to w. Nothing is written on failure.
func (c *Codec) EncodeTo(w *bitio.Writer, m move.Move, b board.Oracle) error {
	code, err := c.Encode(m, b)
	if err != nil {
		return err
	}
	w.WriteCode(code)
	return nil
}

// Decode returns the move spelled by code on b. Every bit must be used.
func (c *Codec) Decode(code bitio.Code, b board.Oracle) (move.Move, error) {
	r := bitio.NewCodeReader(code)
	m, err := c.DecodeFrom(r, b)
	if err != nil {
		return move.Move{}, err
	}
	if r.Remaining() != 0 {
		return move.Move{}, fmt.Errorf("%w: %d left", ErrTrailingBits, r.Remaining())
	}
	return m, nil
}

// DecodeFrom reads one move from r.
func (c *Codec) DecodeFrom(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	if c == nil || c.s == nil {
		return move.Move{}, ErrNotBuilt
	}
	m, err := c.s.decode(r, b)
	if err != nil {
		return move.Move{}, fmt.Errorf("decode %s: %w", c.cfg.Move, err)
	}
	return m, nil
}
