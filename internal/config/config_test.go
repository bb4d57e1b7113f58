package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/config"
)

const profileYAML = `
codec:
  move: handle_from_to_squares_separately
  from_square: occupied_index
  to_square: mask_potential_legal
corpus:
  rating_min: 1800
encode:
  workers: 8
log:
  level: debug
`

func TestParse(t *testing.T) {
	p, err := config.Parse([]byte(profileYAML))
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	assert.Equal(t, codec.Config{
		Move: codec.HandleFromToSquaresSeparately,
		From: codec.OccupiedIndex,
		To:   codec.MaskPieceSquareActionSpace,
	}, p.Codec)
	assert.Equal(t, 8, p.Encode.Workers)
	assert.Equal(t, 1024, p.Encode.BatchSize, "unset fields keep defaults")
	assert.Equal(t, 1800, p.CorpusConfig().RatingMin)
	assert.Equal(t, "debug", p.Log.Level)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse([]byte("codec:\n  move: from_uci\n  fold: 8\n"))
	assert.Error(t, err)
}

func TestEmptyProfileIsDefault(t *testing.T) {
	p, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Profile)
	}{
		{"unknown move", func(p *config.Profile) { p.Codec.Move = "map_to_action_space_8fold_symmetry" }},
		{"huffman without table", func(p *config.Profile) { p.Codec.Move = codec.HuffmanCodeSAN }},
		{"no workers", func(p *config.Profile) { p.Encode.Workers = 0 }},
		{"negative max games", func(p *config.Profile) { p.Corpus.MaxGames = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := config.Default()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o644))

	t.Setenv("MOVECODEC_MOVE", "huffman_code_uci")
	t.Setenv("MOVECODEC_HUFFMAN_TABLE", "uci.hft")
	t.Setenv("MOVECODEC_WORKERS", "2")
	p, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, codec.HuffmanCodeUCI, p.Codec.Move)
	assert.Equal(t, "uci.hft", p.Huffman.Table)
	assert.Equal(t, 2, p.Encode.Workers)

	t.Setenv("MOVECODEC_WORKERS", "many")
	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestApplyEnvLookup(t *testing.T) {
	env := map[string]string{"MOVECODEC_TO_SQUARE": "mask_legal", "MOVECODEC_MAX_GAMES": "10"}
	p := config.Default()
	require.NoError(t, p.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, codec.ToMaskLegal, p.Codec.To)
	assert.Equal(t, 10, p.Corpus.MaxGames)
}
