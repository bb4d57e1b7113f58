package codec

import (
	"fmt"

	"github.com/freeeve/movecodec/internal/actionspace"
	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/move"
	"github.com/freeeve/movecodec/internal/squarecode"
)

// strategy is one move encoding. encode sees only legal moves; decode
// returns a legal move of b or an error.
type strategy interface {
	encode(w *bitio.Writer, m move.Move, b board.Oracle) error
	decode(r *bitio.Reader, b board.Oracle) (move.Move, error)
}

// resolve finds the legal move for the decoded squares.
func resolve(b board.Oracle, from, to move.Square, promo move.PieceKind) (move.Move, error) {
	m, ok := board.FindMove(b.LegalMoves(), from, to, promo)
	if !ok {
		return move.Move{}, fmt.Errorf("%w: decoded %s%s%s", ErrIllegalMove, from, to, promo)
	}
	return m, nil
}

// Promotion pieces in two bits.
var promoCodes = [4]move.PieceKind{move.Queen, move.Rook, move.Bishop, move.Knight}

func promoBits(k move.PieceKind) (uint64, error) {
	for i, p := range promoCodes {
		if p == k {
			return uint64(i), nil
		}
	}
	return 0, fmt.Errorf("%w: promotion to %q", ErrIllegalMove, k.String())
}

func promoFromBits(v uint64) (move.PieceKind, error) {
	if v >= uint64(len(promoCodes)) {
		return move.NoPiece, fmt.Errorf("invalid promotion code %d", v)
	}
	return promoCodes[v], nil
}

// promotingPawn reports whether the side to move has a pawn on from that
// can only move to its last rank, and which rank that is.
func promotingPawn(b board.Oracle, from move.Square) (lastRank int, ok bool) {
	kind, color := b.PieceAt(from)
	if kind != move.Pawn || color != b.Turn() {
		return 0, false
	}
	if color == move.White && from.Rank() == 6 {
		return 7, true
	}
	if color == move.Black && from.Rank() == 1 {
		return 0, true
	}
	return 0, false
}

// naive writes 6 bits of from-square and 6 bits of to-square, rank first.
// A promoting pawn's to-rank is implied, so its 3 rank bits carry the
// promotion piece instead.
type naive struct{}

func (naive) encode(w *bitio.Writer, m move.Move, b board.Oracle) error {
	w.WriteBits(uint64(m.From), 6)
	if _, ok := promotingPawn(b, m.From); ok {
		p, err := promoBits(m.Promotion)
		if err != nil {
			return err
		}
		w.WriteBits(p, 3)
		w.WriteBits(uint64(m.To.File()), 3)
		return nil
	}
	w.WriteBits(uint64(m.To), 6)
	return nil
}

func (naive) decode(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	v, err := r.ReadBits(6)
	if err != nil {
		return move.Move{}, err
	}
	from := move.Square(v)
	if lastRank, ok := promotingPawn(b, from); ok {
		p, err := r.ReadBits(3)
		if err != nil {
			return move.Move{}, err
		}
		promo, err := promoFromBits(p)
		if err != nil {
			return move.Move{}, err
		}
		file, err := r.ReadBits(3)
		if err != nil {
			return move.Move{}, err
		}
		return resolve(b, from, move.NewSquare(int(file), lastRank), promo)
	}
	to, err := r.ReadBits(6)
	if err != nil {
		return move.Move{}, err
	}
	return resolve(b, from, move.Square(to), move.NoPiece)
}

// tokenizer renders a move as a Huffman token and back.
type tokenizer interface {
	token(m move.Move, b board.Oracle) (string, error)
	parse(token string, b board.Oracle) (move.Move, error)
}

type uciTokens struct{}

func (uciTokens) token(m move.Move, _ board.Oracle) (string, error) { return m.UCI(), nil }

func (uciTokens) parse(token string, b board.Oracle) (move.Move, error) {
	m, err := move.FromUCI(token, b.Turn())
	if err != nil {
		return move.Move{}, err
	}
	return resolve(b, m.From, m.To, m.Promotion)
}

type sanTokens struct{}

func (sanTokens) token(m move.Move, b board.Oracle) (string, error) { return b.SAN(m) }

func (sanTokens) parse(token string, b board.Oracle) (move.Move, error) {
	m, err := board.MoveFromSAN(b, token)
	if err != nil {
		return move.Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return m, nil
}

type huffmanCode struct {
	table *huffman.Table
	tok   tokenizer
}

func (h huffmanCode) encode(w *bitio.Writer, m move.Move, b board.Oracle) error {
	t, err := h.tok.token(m, b)
	if err != nil {
		return err
	}
	c, err := h.table.Encode(t)
	if err != nil {
		return err
	}
	w.WriteCode(c)
	return nil
}

func (h huffmanCode) decode(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	t, err := h.table.Decode(r)
	if err != nil {
		return move.Move{}, err
	}
	return h.tok.parse(t, b)
}

// actionIndex writes the full action space index.
type actionIndex struct {
	table *actionspace.Table
}

func (a actionIndex) encode(w *bitio.Writer, m move.Move, _ board.Oracle) error {
	idx, err := a.table.Encode(m)
	if err != nil {
		return err
	}
	w.WriteBits(uint64(idx), actionspace.Width)
	return nil
}

func (a actionIndex) decode(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	v, err := r.ReadBits(actionspace.Width)
	if err != nil {
		return move.Move{}, err
	}
	return resolveIndex(a.table, int(v), b)
}

func resolveIndex(t *actionspace.Table, idx int, b board.Oracle) (move.Move, error) {
	s, err := t.Decode(idx)
	if err != nil {
		return move.Move{}, err
	}
	m, ok := actionspace.Resolve(s, b.LegalMoves())
	if !ok {
		return move.Move{}, fmt.Errorf("%w: decoded shape %s", ErrIllegalMove, s)
	}
	return m, nil
}

// symmetric writes the folded class code of the move, widened as needed.
type symmetric struct {
	folder *actionspace.Folder
}

func (s symmetric) encode(w *bitio.Writer, m move.Move, b board.Oracle) error {
	t := s.folder.Table()
	idx, err := t.Encode(m)
	if err != nil {
		return err
	}
	p, err := t.PlayableSet(b.LegalMoves())
	if err != nil {
		return err
	}
	c, err := s.folder.Encode(idx, p)
	if err != nil {
		return err
	}
	w.WriteCode(c)
	return nil
}

func (s symmetric) decode(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	t := s.folder.Table()
	p, err := t.PlayableSet(b.LegalMoves())
	if err != nil {
		return move.Move{}, err
	}
	idx, err := s.folder.Decode(r, p)
	if err != nil {
		return move.Move{}, err
	}
	return resolveIndex(t, idx, b)
}

// separate composes a from-square and a to-square encoder, adding two
// promotion bits when the pair is a pawn reaching its last rank.
type separate struct {
	from squarecode.Encoder
	to   squarecode.Encoder
}

func (s separate) encode(w *bitio.Writer, m move.Move, b board.Oracle) error {
	if err := s.from.Encode(w, m.From, squarecode.Context{Board: b}); err != nil {
		return err
	}
	if err := s.to.Encode(w, m.To, squarecode.Context{Board: b, From: m.From}); err != nil {
		return err
	}
	if board.IsPromotionPush(b, m.From, m.To) {
		p, err := promoBits(m.Promotion)
		if err != nil {
			return err
		}
		w.WriteBits(p, 2)
	}
	return nil
}

func (s separate) decode(r *bitio.Reader, b board.Oracle) (move.Move, error) {
	from, err := s.from.Decode(r, squarecode.Context{Board: b})
	if err != nil {
		return move.Move{}, err
	}
	to, err := s.to.Decode(r, squarecode.Context{Board: b, From: from})
	if err != nil {
		return move.Move{}, err
	}
	promo := move.NoPiece
	if board.IsPromotionPush(b, from, to) {
		v, err := r.ReadBits(2)
		if err != nil {
			return move.Move{}, err
		}
		promo, _ = promoFromBits(v)
	}
	return resolve(b, from, to, promo)
}

func fromEncoder(o FromSquareEncodingOption) squarecode.Encoder {
	switch o {
	case OccupiedIndex:
		return squarecode.OccupiedIndex()
	case FromMaskLegal:
		return squarecode.FromMaskLegal()
	case FromMaskPseudoLegal:
		return squarecode.FromMaskPseudoLegal()
	}
	return squarecode.SquareIndex()
}

func toEncoder(o ToSquareEncodingOption) squarecode.Encoder {
	switch o {
	case ToMaskLegal:
		return squarecode.ToMaskLegal()
	case ToMaskPseudoLegal:
		return squarecode.ToMaskPseudoLegal()
	}
	return squarecode.ToMaskPotentialLegal()
}
