package main

import (
	"fmt"
	"testing"

	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/codec"
	"github.com/freeeve/movecodec/internal/gamefile"
	"github.com/freeeve/movecodec/internal/huffman"
	"github.com/freeeve/movecodec/internal/move"
)

func TestFailureReason(t *testing.T) {
	hb := huffman.NewBuilder()
	hb.AddAll([]string{"e2e4", "e7e5"})
	table, err := hb.Build()
	if err != nil {
		t.Fatal(err)
	}
	c, err := codec.NewBuilder(codec.Config{Move: codec.HuffmanCodeUCI}).UseHuffmanTable(table).Build()
	if err != nil {
		t.Fatal(err)
	}
	d4, err := move.FromUCI("d2d4", board.Start().Turn())
	if err != nil {
		t.Fatal(err)
	}
	_, unknown := gamefile.EncodeGame(c, "", []move.Move{d4})
	if unknown == nil {
		t.Fatal("encoding a token missing from the table succeeded")
	}

	tests := []struct {
		err  error
		want string
	}{
		{unknown, "unknown_token"},
		{fmt.Errorf("ply 3: %w", codec.ErrIllegalMove), "illegal_move"},
		{codec.ErrTrailingBits, "codec"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.want {
			t.Errorf("failureReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
