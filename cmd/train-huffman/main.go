package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/freeeve/movecodec/internal/corpus"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/logx"
)

func main() {
	defaultAlphabet := "uci"
	if env := os.Getenv("MOVECODEC_ALPHABET"); env != "" {
		defaultAlphabet = env
	}
	defaultRatingMin := 0
	if env := os.Getenv("MOVECODEC_RATING_MIN"); env != "" {
		if rating, err := strconv.Atoi(env); err == nil {
			defaultRatingMin = rating
		}
	}

	var (
		pgnPaths  = flag.String("pgn", "", "Comma-separated PGN files (supports .zst)")
		alphabet  = flag.String("alphabet", defaultAlphabet, "Token alphabet: uci or san")
		outPath   = flag.String("out", "table.hft", "Output Huffman table file")
		maxGames  = flag.Int("max-games", 0, "Maximum games to read (0 = unlimited)")
		ratingMin = flag.Int("rating-min", defaultRatingMin, "Rating floor for games")
		logLevel  = flag.String("log-level", os.Getenv("MOVECODEC_LOG_LEVEL"), "Log level")
	)
	flag.Parse()

	if *pgnPaths == "" {
		fmt.Fprintln(os.Stderr, "Usage: train-huffman --pgn <file.pgn[.zst],...> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, err := logx.NewLogger(logx.Options{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	alpha, err := corpus.ParseAlphabet(*alphabet)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid alphabet")
	}

	paths := strings.Split(*pgnPaths, ",")
	logger.Info().
		Strs("pgn", paths).
		Str("alphabet", string(alpha)).
		Int("max_games", *maxGames).
		Int("rating_min", *ratingMin).
		Msg("starting huffman training")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	startTime := time.Now()
	src := &corpus.Source{
		Paths:    paths,
		Alphabet: alpha,
		Config:   corpus.Config{RatingMin: *ratingMin, MaxGames: *maxGames},
		Log:      logger,
	}
	table, err := huffman.BuildFromSource(ctx, src, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build huffman table")
	}
	if err := table.SaveFile(*outPath); err != nil {
		logger.Fatal().Err(err).Msg("save huffman table")
	}

	logger.Info().
		Str("out", *outPath).
		Int("tokens", table.Len()).
		Dur("elapsed", time.Since(startTime)).
		Msg("huffman table written")
}
