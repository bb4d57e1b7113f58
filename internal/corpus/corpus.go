// Package corpus streams PGN games and replays them into moves and
// UCI or SAN tokens for Huffman training and archive encoding.
package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"

	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/move"
)

// Alphabet names a token notation.
type Alphabet string

const (
	UCI Alphabet = "uci"
	SAN Alphabet = "san"
)

// ParseAlphabet accepts "uci" or "san".
func ParseAlphabet(s string) (Alphabet, error) {
	switch Alphabet(s) {
	case UCI, SAN:
		return Alphabet(s), nil
	}
	return "", fmt.Errorf("unknown alphabet %q (want uci or san)", s)
}

// Config filters the games read from a file.
type Config struct {
	RatingMin int // both players must be rated at least this; 0 keeps all games
	MaxGames  int // stop after this many accepted games; 0 means unlimited
}

// Game is a replayed game. SAN[i] is the notation of Moves[i].
type Game struct {
	Tags  map[string]string
	FEN   string // starting position; empty for the standard start
	Moves []move.Move
	SAN   []string
}

// Start returns the game's starting position.
func (g *Game) Start() (*board.Position, error) {
	if g.FEN == "" {
		return board.Start(), nil
	}
	return board.FromFEN(g.FEN)
}

// Tokens renders the game's moves in alphabet a.
func (g *Game) Tokens(a Alphabet) []string {
	if a == SAN {
		return append([]string(nil), g.SAN...)
	}
	out := make([]string, len(g.Moves))
	for i, m := range g.Moves {
		out[i] = m.UCI()
	}
	return out
}

// Stats summarizes one file read.
type Stats struct {
	Games   int64
	Skipped int64
	Moves   int64
}

// Replay converts a parsed game into legal moves, checking each against the
// board oracle.
func Replay(g *pgn.Game) (*Game, error) {
	out := &Game{Tags: g.Tags, FEN: g.Tags["FEN"]}
	pos, err := out.Start()
	if err != nil {
		return nil, err
	}
	out.Moves = make([]move.Move, 0, len(g.Moves))
	out.SAN = make([]string, 0, len(g.Moves))
	for ply, mv := range g.Moves {
		m, err := board.FromPGN(pos, mv)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		san, err := pos.SAN(m)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		if err := pos.Play(m); err != nil {
			return nil, fmt.Errorf("ply %d: %w", ply+1, err)
		}
		out.Moves = append(out.Moves, m)
		out.SAN = append(out.SAN, san)
	}
	return out, nil
}

func parseRating(s string) int {
	if s == "" || s == "?" || s == "-" {
		return 0
	}
	r, _ := strconv.Atoi(s)
	return r
}

// ReadFile streams the games of a PGN file (plain or .zst) to fn in file
// order. It stops early when ctx is done, fn fails, or MaxGames is reached.
func ReadFile(ctx context.Context, path string, cfg Config, log zerolog.Logger, fn func(*Game) error) (Stats, error) {
	var st Stats
	if err := ctx.Err(); err != nil {
		return st, err
	}
	startTime := time.Now()
	lastLog := time.Now()

	parser := pgn.Games(path)

	stopped := false
	var fnErr error
	for game := range parser.Games {
		if ctx.Err() != nil || (cfg.MaxGames > 0 && st.Games >= int64(cfg.MaxGames)) {
			parser.Stop()
			stopped = true
			break
		}
		if cfg.RatingMin > 0 &&
			(parseRating(game.Tags["WhiteElo"]) < cfg.RatingMin || parseRating(game.Tags["BlackElo"]) < cfg.RatingMin) {
			st.Skipped++
			continue
		}
		g, err := Replay(game)
		if err != nil {
			log.Debug().Err(err).Str("file", filepath.Base(path)).Msg("skipping unreplayable game")
			st.Skipped++
			continue
		}
		if fnErr = fn(g); fnErr != nil {
			parser.Stop()
			stopped = true
			break
		}
		st.Games++
		st.Moves += int64(len(g.Moves))

		if time.Since(lastLog) > 10*time.Second {
			elapsed := time.Since(startTime)
			log.Info().
				Str("file", filepath.Base(path)).
				Int64("games", st.Games).
				Int64("skipped", st.Skipped).
				Int64("moves", st.Moves).
				Float64("games_per_sec", float64(st.Games)/elapsed.Seconds()).
				Msg("corpus progress")
			lastLog = time.Now()
		}
	}

	if fnErr != nil {
		return st, fnErr
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}
	if err := parser.Err(); err != nil && !stopped {
		return st, fmt.Errorf("parse %s: %w", path, err)
	}
	log.Info().
		Str("file", filepath.Base(path)).
		Int64("games", st.Games).
		Int64("skipped", st.Skipped).
		Int64("moves", st.Moves).
		Dur("elapsed", time.Since(startTime)).
		Msg("corpus file complete")
	return st, nil
}

// Source yields the tokens of every game in Paths, file by file, so the
// token order (and any table built from it) is reproducible.
type Source struct {
	Paths    []string
	Alphabet Alphabet
	Config   Config
	Log      zerolog.Logger
}

// Tokens implements huffman.Source. MaxGames applies across all files.
func (s *Source) Tokens(ctx context.Context, fn func(string) error) error {
	cfg := s.Config
	for _, path := range s.Paths {
		st, err := ReadFile(ctx, path, cfg, s.Log, func(g *Game) error {
			for _, tok := range g.Tokens(s.Alphabet) {
				if err := fn(tok); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if cfg.MaxGames > 0 {
			cfg.MaxGames -= int(st.Games)
			if cfg.MaxGames <= 0 {
				return nil
			}
		}
	}
	return nil
}
