package actionspace_test

import (
	"errors"
	"testing"

	"github.com/freeeve/movecodec/internal/actionspace"
	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/move"
)

func uci(t *testing.T, s string) move.Move {
	t.Helper()
	m, err := move.FromUCI(s, move.White)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTableBijection(t *testing.T) {
	table := actionspace.Default()
	seen := make(map[actionspace.Shape]bool, actionspace.Size)
	for _, e := range table.Entries() {
		if seen[e.Shape] {
			t.Fatalf("shape %s appears twice", e.Shape)
		}
		seen[e.Shape] = true
		idx, ok := table.EncodeShape(e.Shape)
		if !ok || idx != e.Index {
			t.Fatalf("EncodeShape(%s) = %d, %v; want %d", e.Shape, idx, ok, e.Index)
		}
		back, err := table.Decode(e.Index)
		if err != nil || back != e.Shape {
			t.Fatalf("Decode(%d) = %s, %v; want %s", e.Index, back, err, e.Shape)
		}
	}
	if len(seen) != actionspace.Size {
		t.Errorf("distinct shapes = %d, want %d", len(seen), actionspace.Size)
	}
}

func TestUnderpromotionCount(t *testing.T) {
	n := 0
	for _, e := range actionspace.Default().Entries() {
		if e.Shape.IsUnderpromotion() {
			n++
		}
	}
	if n != 132 {
		t.Errorf("underpromotion shapes = %d, want 132", n)
	}
}

func TestPromotionShapesDiffer(t *testing.T) {
	table := actionspace.Default()
	queen, err := table.Encode(uci(t, "b7b8q"))
	if err != nil {
		t.Fatal(err)
	}
	knight, err := table.Encode(uci(t, "b7b8n"))
	if err != nil {
		t.Fatal(err)
	}
	if queen == knight {
		t.Errorf("queen and knight promotion share index %d", queen)
	}
	plain, err := table.Encode(uci(t, "b7b8"))
	if err != nil {
		t.Fatal(err)
	}
	if plain != queen {
		t.Errorf("queen promotion index %d differs from plain shape %d", queen, plain)
	}
}

func TestUnrepresentableMove(t *testing.T) {
	_, err := actionspace.Default().Encode(uci(t, "a1b4"))
	var ue *actionspace.UnrepresentableMoveError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnrepresentableMoveError, got %v", err)
	}
	// Knight underpromotion from the wrong rank.
	if _, err := actionspace.Default().Encode(uci(t, "b6b7n")); !errors.As(err, &ue) {
		t.Errorf("expected UnrepresentableMoveError for b6b7n, got %v", err)
	}
	if _, err := actionspace.Default().Decode(actionspace.Size); err == nil {
		t.Error("expected error decoding out-of-range index")
	}
}

func TestUnderpromotionColor(t *testing.T) {
	s := actionspace.ShapeOf(uci(t, "b7b8n"))
	if c, ok := s.Color(); !ok || c != move.White {
		t.Errorf("b7b8n color = %v, %v", c, ok)
	}
	s = actionspace.ShapeOf(uci(t, "g2h1r"))
	if c, ok := s.Color(); !ok || c != move.Black {
		t.Errorf("g2h1r color = %v, %v", c, ok)
	}
	if _, ok := actionspace.ShapeOf(uci(t, "e2e4")).Color(); ok {
		t.Error("plain shape reported a color")
	}
}

func TestIndexLayout(t *testing.T) {
	table := actionspace.Default()
	for _, e := range table.Entries() {
		s := e.Shape
		fileBit := 0
		if s.From.File() >= 4 {
			fileBit = 1
		}
		rankBit := 0
		if s.From.Rank() >= 4 {
			rankBit = 1
		}
		if e.Index&3 != fileBit<<1|rankBit {
			t.Fatalf("index %d (%s) has member bits %02b, want %d%d", e.Index, s, e.Index&3, fileBit, rankBit)
		}
		mirror, ok := table.EncodeShape(s.FlipRank())
		if !ok || mirror != e.Index^1 {
			t.Fatalf("rank mirror of %s at %d, want %d", s, mirror, e.Index^1)
		}
		mirror, ok = table.EncodeShape(s.FlipFile())
		if !ok || mirror != e.Index^2 {
			t.Fatalf("file mirror of %s at %d, want %d", s, mirror, e.Index^2)
		}
	}
}

func TestFolderPartition(t *testing.T) {
	for _, fold := range []int{2, 4} {
		f, err := actionspace.NewFolder(actionspace.Default(), fold)
		if err != nil {
			t.Fatal(err)
		}
		owner := make(map[int]int)
		for _, c := range f.Classes() {
			if len(c.Members) != fold {
				t.Fatalf("fold %d: class %d has %d members", fold, c.ID, len(c.Members))
			}
			for _, m := range c.Members {
				if prev, dup := owner[m]; dup {
					t.Fatalf("fold %d: index %d in classes %d and %d", fold, m, prev, c.ID)
				}
				owner[m] = c.ID
				if f.ClassOf(m) != c.ID {
					t.Fatalf("fold %d: ClassOf(%d) = %d, want %d", fold, m, f.ClassOf(m), c.ID)
				}
			}
		}
		if len(owner) != actionspace.Size {
			t.Errorf("fold %d: classes cover %d indices, want %d", fold, len(owner), actionspace.Size)
		}
	}
	if _, err := actionspace.NewFolder(actionspace.Default(), 8); err == nil {
		t.Error("expected error for 8-fold folder")
	}
}

func TestFolderWidths(t *testing.T) {
	table := actionspace.Default()
	tests := []struct {
		name     string
		playable []string
		width2   int
		width4   int
	}{
		{"alone", []string{"e2e4"}, 10, 9},
		{"file mirror playable", []string{"e2e4", "d2d4"}, 10, 10},
		{"rank mirror playable", []string{"e2e4", "e7e5"}, 11, 10},
		{"diagonal mirror playable", []string{"e2e4", "d7d5"}, 10, 10},
		{"three playable", []string{"e2e4", "d2d4", "e7e5"}, 11, 11},
		{"all four playable", []string{"e2e4", "d2d4", "e7e5", "d7d5"}, 11, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			moves := make([]move.Move, len(tt.playable))
			for i, s := range tt.playable {
				moves[i] = uci(t, s)
			}
			p, err := table.PlayableSet(moves)
			if err != nil {
				t.Fatal(err)
			}
			for _, fw := range []struct{ fold, want int }{{2, tt.width2}, {4, tt.width4}} {
				f, _ := actionspace.NewFolder(table, fw.fold)
				for i, m := range moves {
					idx, _ := table.Encode(m)
					code, err := f.Encode(idx, p)
					if err != nil {
						t.Fatalf("fold %d: Encode(%s): %v", fw.fold, m, err)
					}
					// Widths are stated for the first move; the rest only round trip.
					if i == 0 && code.Len != fw.want {
						t.Errorf("fold %d: Encode(%s) width = %d, want %d", fw.fold, m, code.Len, fw.want)
					}
					got, err := f.Decode(bitio.NewCodeReader(code), p)
					if err != nil {
						t.Fatalf("fold %d: Decode(%s): %v", fw.fold, code, err)
					}
					if got != idx {
						t.Errorf("fold %d: Decode(%s) = %d, want %d", fw.fold, code, got, idx)
					}
				}
			}
		})
	}
}

func TestFolderTenBitsMatchTwoFoldIndex(t *testing.T) {
	table := actionspace.Default()
	p, _ := table.PlayableSet([]move.Move{uci(t, "e2e4"), uci(t, "d2d4")})
	f4, _ := actionspace.NewFolder(table, 4)
	idx, _ := table.Encode(uci(t, "e2e4"))
	code, err := f4.Encode(idx, p)
	if err != nil {
		t.Fatal(err)
	}
	if code.Bits != uint64(idx>>1) {
		t.Errorf("10-bit code %d, want 2-fold index %d", code.Bits, idx>>1)
	}
}

func TestFolderErrors(t *testing.T) {
	table := actionspace.Default()
	f, _ := actionspace.NewFolder(table, 4)
	p, _ := table.PlayableSet([]move.Move{uci(t, "e2e4")})

	idx, _ := table.Encode(uci(t, "g1f3"))
	if _, err := f.Encode(idx, p); !errors.Is(err, actionspace.ErrNotPlayable) {
		t.Errorf("expected ErrNotPlayable, got %v", err)
	}

	nf3 := bitio.NewCode(uint64(f.ClassOf(idx)), f.ClassWidth())
	if _, err := f.Decode(bitio.NewCodeReader(nf3), p); !errors.Is(err, actionspace.ErrNoPlayableMember) {
		t.Errorf("expected ErrNoPlayableMember, got %v", err)
	}
	if _, err := f.Decode(bitio.NewCodeReader(bitio.NewCode(0, 4)), p); !errors.Is(err, bitio.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}
