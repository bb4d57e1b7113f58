package board_test

import (
	"math/rand"
	"testing"

	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/movecodec/internal/board"
	"github.com/freeeve/movecodec/internal/move"
)

// Every legal move along a few random games must render to SAN and parse
// back to itself.
func TestSANRoundTripRandomGames(t *testing.T) {
	for seed := int64(1); seed <= 6; seed++ {
		rng := rand.New(rand.NewSource(seed))
		p := board.Start()
		for ply := 0; ply < 60; ply++ {
			legal := p.LegalMoves()
			if len(legal) == 0 {
				break
			}
			for _, m := range legal {
				san, err := p.SAN(m)
				if err != nil {
					t.Fatalf("seed %d ply %d: SAN(%s): %v", seed, ply, m.UCI(), err)
				}
				back, err := board.MoveFromSAN(p, san)
				if err != nil {
					t.Fatalf("seed %d ply %d: MoveFromSAN(%s) in %s: %v", seed, ply, san, p.FEN(), err)
				}
				if back != m {
					t.Fatalf("seed %d ply %d: %s -> %s -> %s", seed, ply, m.UCI(), san, back.UCI())
				}
			}
			if err := p.Play(legal[rng.Intn(len(legal))]); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestMoveFromSANAnnotations(t *testing.T) {
	p := board.Start()
	for _, san := range []string{"Nf3", "Nf3!?", "Nf3+"} {
		m, err := p.MoveFromSAN(san)
		if err != nil {
			t.Fatalf("MoveFromSAN(%q): %v", san, err)
		}
		if m.UCI() != "g1f3" {
			t.Errorf("MoveFromSAN(%q) = %s, want g1f3", san, m.UCI())
		}
	}
	for _, san := range []string{"", "Ke2", "Nf6", "z9"} {
		if _, err := p.MoveFromSAN(san); err == nil {
			t.Errorf("MoveFromSAN(%q) succeeded on the start position", san)
		}
	}
}

func TestSANIllegalMove(t *testing.T) {
	p := board.Start()
	if _, err := p.SAN(move.New(12, 36, move.White)); err == nil {
		t.Error("SAN(e2e5) succeeded")
	}
}

func TestFromPGNKingTakesRook(t *testing.T) {
	p := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	tests := []struct {
		mv   pgn.Mv
		want string
	}{
		{pgn.Mv{From: pgn.SqE1, To: pgn.SqG1}, "e1g1"},
		{pgn.Mv{From: pgn.SqE1, To: pgn.SqH1}, "e1g1"},
		{pgn.Mv{From: pgn.SqE1, To: pgn.SqA1}, "e1c1"},
	}
	for _, tt := range tests {
		m, err := board.FromPGN(p, tt.mv)
		if err != nil {
			t.Fatalf("FromPGN(%s): %v", tt.mv, err)
		}
		if m.UCI() != tt.want {
			t.Errorf("FromPGN(%s) = %s, want %s", tt.mv, m.UCI(), tt.want)
		}
	}
	if _, err := board.FromPGN(p, pgn.Mv{From: pgn.SqE1, To: pgn.SqE2 + 8}); err == nil {
		t.Error("FromPGN(e1e3) succeeded")
	}
}
