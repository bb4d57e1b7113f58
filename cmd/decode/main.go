package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/freeeve/movecodec/internal/gamefile"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/logx"
)

func main() {
	var (
		inPath      = flag.String("in", "", "Game archive to decode")
		huffmanPath = flag.String("huffman", os.Getenv("MOVECODEC_HUFFMAN_TABLE"), "Huffman table overriding the embedded one")
		maxGames    = flag.Int("max-games", 0, "Maximum games to print (0 = all)")
		logLevel    = flag.String("log-level", os.Getenv("MOVECODEC_LOG_LEVEL"), "Log level")
	)
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: decode --in <games.mcz> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger, err := logx.NewLogger(logx.Options{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f, err := os.Open(*inPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open archive")
	}
	defer f.Close()

	r, err := gamefile.NewReader(bufio.NewReader(f))
	if err != nil {
		logger.Fatal().Err(err).Msg("read archive header")
	}
	defer r.Close()

	var table *huffman.Table
	if *huffmanPath != "" {
		if table, err = huffman.LoadFile(*huffmanPath); err != nil {
			logger.Fatal().Err(err).Msg("load huffman table")
		}
	}
	c, err := r.Header().Codec(table)
	if err != nil {
		logger.Fatal().Err(err).Msg("build codec")
	}
	logger.Info().Str("in", *inPath).Str("codec", c.Config().String()).Msg("decoding archive")

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	var games, moves int64
	for *maxGames == 0 || games < int64(*maxGames) {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Fatal().Err(err).Int64("game", games+1).Msg("read record")
		}
		played, err := gamefile.DecodeGame(c, rec)
		if err != nil {
			logger.Fatal().Err(err).Int64("game", games+1).Msg("decode game")
		}
		ucis := make([]string, len(played))
		for i, m := range played {
			ucis[i] = m.UCI()
		}
		if rec.FEN != "" {
			fmt.Fprintf(out, "[%s] ", rec.FEN)
		}
		fmt.Fprintln(out, strings.Join(ucis, " "))
		games++
		moves += int64(len(played))
	}

	logger.Info().
		Int64("games", games).
		Int64("moves", moves).
		Msg("decode complete")
}
