package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/config"
	"github.com/freeeve/movecodec/internal/corpus"
	"github.com/freeeve/movecodec/internal/gamefile"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/logx"
)

func main() {
	var (
		pgnPaths    = flag.String("pgn", "", "Comma-separated PGN files (supports .zst)")
		profilePath = flag.String("config", os.Getenv("MOVECODEC_CONFIG"), "YAML codec profile")
		outPath     = flag.String("out", "games.mcz", "Output game archive")
		workers     = flag.Int("workers", 0, "Encoder goroutines (0 = profile value)")
	)
	flag.Parse()

	if *pgnPaths == "" {
		fmt.Fprintln(os.Stderr, "Usage: encode --pgn <file.pgn[.zst],...> [--config profile.yaml] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	profile, err := config.Load(*profilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *workers > 0 {
		profile.Encode.Workers = *workers
	}
	logger, err := logx.NewLogger(logx.Options{Level: profile.Log.Level, JSON: profile.Log.JSON})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	builder := codec.NewBuilder(profile.Codec).SetLogger(logger)
	header := gamefile.Header{Config: profile.Codec}
	if profile.Codec.Move.NeedsHuffmanTable() {
		table, err := huffman.LoadFile(profile.Huffman.Table)
		if err != nil {
			logger.Fatal().Err(err).Str("table", profile.Huffman.Table).Msg("load huffman table")
		}
		builder.UseHuffmanTable(table)
		header.Huffman = table
	}
	c, err := builder.Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("build codec")
	}

	paths := strings.Split(*pgnPaths, ",")
	logger.Info().
		Strs("pgn", paths).
		Str("codec", profile.Codec.String()).
		Int("workers", profile.Encode.Workers).
		Int("batch_size", profile.Encode.BatchSize).
		Str("out", *outPath).
		Msg("starting encode")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out, err := os.Create(*outPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("create archive")
	}
	defer out.Close()
	buf := bufio.NewWriter(out)
	w, err := gamefile.NewWriter(buf, header)
	if err != nil {
		logger.Fatal().Err(err).Msg("write archive header")
	}

	enc := &encoder{codec: c, out: w, workers: profile.Encode.Workers, log: logger}
	if err := enc.run(ctx, paths, profile); err != nil {
		logger.Fatal().Err(err).Msg("encode")
	}
	if err := w.Close(); err != nil {
		logger.Fatal().Err(err).Msg("close archive")
	}
	if err := buf.Flush(); err != nil {
		logger.Fatal().Err(err).Msg("flush archive")
	}

	elapsed := time.Since(enc.start)
	logger.Info().
		Int64("games", w.Count()).
		Int64("moves", enc.moves).
		Int64("bits", enc.bits).
		Float64("bits_per_move", ratio(enc.bits, enc.moves)).
		Dur("elapsed", elapsed).
		Msg("encode complete")
}

// encoder encodes games in batches. Each batch is spread over the worker
// pool and then written in input order.
type encoder struct {
	codec   *codec.Codec
	out     *gamefile.Writer
	workers int
	log     zerolog.Logger

	batch   []*corpus.Game
	start   time.Time
	lastLog time.Time
	moves   int64
	bits    int64
	failed  int64
}

func (e *encoder) run(ctx context.Context, paths []string, profile config.Profile) error {
	e.start = time.Now()
	e.lastLog = e.start
	cfg := profile.CorpusConfig()
	size := profile.Encode.BatchSize

	for _, path := range paths {
		st, err := corpus.ReadFile(ctx, path, cfg, e.log, func(g *corpus.Game) error {
			e.batch = append(e.batch, g)
			if len(e.batch) < size {
				return nil
			}
			return e.flush(ctx)
		})
		if err != nil {
			return err
		}
		if cfg.MaxGames > 0 {
			if cfg.MaxGames -= int(st.Games); cfg.MaxGames <= 0 {
				break
			}
		}
	}
	return e.flush(ctx)
}

func (e *encoder) flush(ctx context.Context) error {
	if len(e.batch) == 0 {
		return nil
	}
	records := make([]gamefile.Record, len(e.batch))
	errs := make([]error, len(e.batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, game := range e.batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], errs[i] = gamefile.EncodeGame(e.codec, game.FEN, game.Moves)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, rec := range records {
		if errs[i] != nil {
			// Replayed games are legal, but a Huffman table trained on
			// another corpus may lack some of their tokens.
			e.failed++
			e.log.Warn().
				Err(errs[i]).
				Str("reason", failureReason(errs[i])).
				Str("fen", e.batch[i].FEN).
				Msg("skipping unencodable game")
			continue
		}
		if err := e.out.Write(rec); err != nil {
			return err
		}
		e.moves += int64(rec.Plies)
		e.bits += int64(rec.NBits)
	}
	e.batch = e.batch[:0]

	if time.Since(e.lastLog) > 10*time.Second {
		e.log.Info().
			Int64("games", e.out.Count()).
			Int64("failed", e.failed).
			Float64("bits_per_move", ratio(e.bits, e.moves)).
			Float64("games_per_sec", float64(e.out.Count())/time.Since(e.start).Seconds()).
			Msg("encode progress")
		e.lastLog = time.Now()
	}
	return nil
}

func failureReason(err error) string {
	var unknown *huffman.UnknownTokenError
	switch {
	case errors.As(err, &unknown):
		return "unknown_token"
	case errors.Is(err, codec.ErrIllegalMove):
		return "illegal_move"
	}
	return "codec"
}

func ratio(bits, moves int64) float64 {
	if moves == 0 {
		return 0
	}
	return float64(bits) / float64(moves)
}
