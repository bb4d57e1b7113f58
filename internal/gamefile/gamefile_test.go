package gamefile_test

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/gamefile"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/move"
)

func parseGame(t *testing.T, fen string, ucis ...string) []move.Move {
	t.Helper()
	pos := board.Start()
	if fen != "" {
		var err error
		pos, err = board.FromFEN(fen)
		require.NoError(t, err)
	}
	out := make([]move.Move, 0, len(ucis))
	for _, u := range ucis {
		m, err := move.FromUCI(u, pos.Turn())
		require.NoError(t, err)
		require.NoError(t, pos.Play(m))
		out = append(out, m)
	}
	return out
}

type game struct {
	fen   string
	moves []move.Move
}

func sampleGames(t *testing.T) []game {
	return []game{
		{"", parseGame(t, "", "e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "e1g1")},
		{"", parseGame(t, "", "d2d4", "d7d5", "c2c4", "e7e6")},
		{"8/1P6/8/8/8/7K/6p1/k7 w - - 0 1", parseGame(t, "8/1P6/8/8/8/7K/6p1/k7 w - - 0 1", "b7b8n", "g2g1r")},
		{"", nil},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	configs := []codec.Config{
		{Move: codec.FromUCI},
		{Move: codec.MapToActionSpace4FoldSymmetry},
		{Move: codec.HandleFromToSquaresSeparately, From: codec.FromMaskLegal, To: codec.MaskPieceSquareActionSpace},
		{Move: codec.HuffmanCodeUCI},
	}
	games := sampleGames(t)

	hb := huffman.NewBuilder()
	for _, g := range games {
		for _, m := range g.moves {
			hb.Add(m.UCI())
		}
	}
	table, err := hb.Build()
	require.NoError(t, err)

	for _, cfg := range configs {
		t.Run(cfg.String(), func(t *testing.T) {
			b := codec.NewBuilder(cfg)
			h := gamefile.Header{Config: cfg}
			if cfg.Move.NeedsHuffmanTable() {
				b.UseHuffmanTable(table)
				h.Huffman = table
			}
			c, err := b.Build()
			require.NoError(t, err)

			var buf bytes.Buffer
			w, err := gamefile.NewWriter(&buf, h)
			require.NoError(t, err)
			for _, g := range games {
				rec, err := gamefile.EncodeGame(c, g.fen, g.moves)
				require.NoError(t, err)
				require.NoError(t, w.Write(rec))
			}
			require.NoError(t, w.Close())
			assert.EqualValues(t, len(games), w.Count())

			r, err := gamefile.NewReader(&buf)
			require.NoError(t, err)
			defer r.Close()
			assert.Equal(t, cfg, r.Header().Config)

			dc, err := r.Header().Codec(nil)
			require.NoError(t, err)
			for _, g := range games {
				rec, err := r.Next()
				require.NoError(t, err)
				assert.Equal(t, g.fen, rec.FEN)
				moves, err := gamefile.DecodeGame(dc, rec)
				require.NoError(t, err)
				assert.Equal(t, len(g.moves), len(moves))
				for i := range g.moves {
					assert.Equal(t, g.moves[i], moves[i])
				}
			}
			_, err = r.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestDecodeGameTrailingBits(t *testing.T) {
	c := codec.Naive()
	rec, err := gamefile.EncodeGame(c, "", parseGame(t, "", "e2e4", "e7e5"))
	require.NoError(t, err)
	rec.Plies = 1
	_, err = gamefile.DecodeGame(c, rec)
	assert.ErrorIs(t, err, codec.ErrTrailingBits)
}

func TestNotArchive(t *testing.T) {
	_, err := gamefile.NewReader(bytes.NewReader([]byte("plain text")))
	assert.True(t, errors.Is(err, gamefile.ErrNotArchive), "got %v", err)
}

func TestDecodeGameCorruptPlyCount(t *testing.T) {
	c := codec.Naive()
	rec, err := gamefile.EncodeGame(c, "", parseGame(t, "", "e2e4", "e7e5"))
	require.NoError(t, err)
	rec.Plies = 1 << 28

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = gamefile.DecodeGame(c, rec)
	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, bitio.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20), "preallocation follows the bit count")
}
