// Package config loads codec profiles for the command-line tools from YAML,
// with MOVECODEC_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/corpus"
)

// Profile is one encoding setup.
type Profile struct {
	Codec   codec.Config `yaml:"codec"`
	Huffman Huffman      `yaml:"huffman"`
	Corpus  Corpus       `yaml:"corpus"`
	Encode  Encode       `yaml:"encode"`
	Log     Log          `yaml:"log"`
}

// Huffman locates the trained table for Huffman codecs.
type Huffman struct {
	Table string `yaml:"table"`
}

// Corpus filters the PGN input.
type Corpus struct {
	RatingMin int `yaml:"rating_min"`
	MaxGames  int `yaml:"max_games"`
}

// Encode tunes the encoder worker pool.
type Encode struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Log configures logging.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the naive codec profile.
func Default() Profile {
	return Profile{
		Codec:  codec.Config{Move: codec.FromUCI},
		Encode: Encode{Workers: 4, BatchSize: 1024},
		Log:    Log{Level: "info"},
	}
}

// CorpusConfig returns the corpus filter.
func (p Profile) CorpusConfig() corpus.Config {
	return corpus.Config{RatingMin: p.Corpus.RatingMin, MaxGames: p.Corpus.MaxGames}
}

// Validate checks the codec options and pool sizes.
func (p Profile) Validate() error {
	if err := p.Codec.Validate(); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	if p.Codec.Move.NeedsHuffmanTable() && p.Huffman.Table == "" {
		return fmt.Errorf("codec %s needs huffman.table", p.Codec.Move)
	}
	if p.Encode.Workers < 1 {
		return fmt.Errorf("encode.workers must be at least 1, got %d", p.Encode.Workers)
	}
	if p.Encode.BatchSize < 1 {
		return fmt.Errorf("encode.batch_size must be at least 1, got %d", p.Encode.BatchSize)
	}
	if p.Corpus.RatingMin < 0 || p.Corpus.MaxGames < 0 {
		return fmt.Errorf("corpus limits must not be negative")
	}
	return nil
}

// Parse decodes a YAML profile over the defaults. Unknown keys are errors.
func Parse(data []byte) (Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// Load reads path (or only the defaults when path is empty), applies the
// environment overrides and validates the result.
func Load(path string) (Profile, error) {
	p := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("read profile: %w", err)
		}
		if p, err = Parse(data); err != nil {
			return Profile{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := p.ApplyEnv(os.LookupEnv); err != nil {
		return Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// ApplyEnv overrides fields from MOVECODEC_* variables found by lookup.
func (p *Profile) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("MOVECODEC_MOVE"); ok {
		p.Codec.Move = codec.MoveEncodingOption(v)
	}
	if v, ok := lookup("MOVECODEC_FROM_SQUARE"); ok {
		p.Codec.From = codec.FromSquareEncodingOption(v)
	}
	if v, ok := lookup("MOVECODEC_TO_SQUARE"); ok {
		p.Codec.To = codec.ToSquareEncodingOption(v)
	}
	if v, ok := lookup("MOVECODEC_HUFFMAN_TABLE"); ok {
		p.Huffman.Table = v
	}
	if v, ok := lookup("MOVECODEC_LOG_LEVEL"); ok {
		p.Log.Level = v
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"MOVECODEC_WORKERS", &p.Encode.Workers},
		{"MOVECODEC_BATCH_SIZE", &p.Encode.BatchSize},
		{"MOVECODEC_RATING_MIN", &p.Corpus.RatingMin},
		{"MOVECODEC_MAX_GAMES", &p.Corpus.MaxGames},
	}
	for _, e := range ints {
		v, ok := lookup(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.name, err)
		}
		*e.dst = n
	}
	return nil
}
