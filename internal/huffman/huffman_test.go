package huffman_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/huffman"
)

func build(t *testing.T, counts map[string]uint64, order []string) *huffman.Table {
	t.Helper()
	b := huffman.NewBuilder()
	for _, tok := range order {
		b.AddN(tok, counts[tok])
	}
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestCanonicalCodes(t *testing.T) {
	table := build(t, map[string]uint64{"a": 5, "b": 2, "c": 1, "d": 1}, []string{"a", "b", "c", "d"})
	want := map[string]string{"a": "0", "b": "10", "c": "110", "d": "111"}
	for tok, bits := range want {
		c, err := table.Encode(tok)
		if err != nil {
			t.Fatal(err)
		}
		if c.String() != bits {
			t.Errorf("Encode(%s) = %s, want %s", tok, c, bits)
		}
	}
}

func TestTiesFollowInsertionOrder(t *testing.T) {
	counts := map[string]uint64{"x": 1, "y": 1, "z": 1, "w": 1}
	first := build(t, counts, []string{"x", "y", "z", "w"})
	second := build(t, counts, []string{"w", "z", "y", "x"})
	cx, _ := first.Encode("x")
	cw, _ := second.Encode("w")
	if cx.String() != "00" || cw.String() != "00" {
		t.Errorf("first-inserted token codes = %s, %s; want 00", cx, cw)
	}
	again := build(t, counts, []string{"x", "y", "z", "w"})
	for _, tok := range []string{"x", "y", "z", "w"} {
		a, _ := first.Encode(tok)
		b, _ := again.Encode(tok)
		if a != b {
			t.Errorf("rebuild changed code of %s: %s vs %s", tok, a, b)
		}
	}
}

func TestPrefixFree(t *testing.T) {
	b := huffman.NewBuilder()
	tokens := []string{"e2e4", "d2d4", "g1f3", "c2c4", "e7e5", "c7c5", "e7e6", "g8f6", "b1c3", "f1b5", "a7a6"}
	for i, tok := range tokens {
		b.AddN(tok, uint64(1+i*i%7))
	}
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	codes := make([]bitio.Code, 0, len(tokens))
	for _, tok := range table.Tokens() {
		c, _ := table.Encode(tok)
		codes = append(codes, c)
	}
	for i, a := range codes {
		for j, c := range codes {
			if i != j && c.HasPrefix(a) {
				t.Fatalf("code %s is a prefix of %s", a, c)
			}
		}
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	corpus := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Ba4", "Nf6", "O-O", "Be7", "e4", "Nf3", "e4"}
	b := huffman.NewBuilder()
	b.AddAll(corpus)
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	w := bitio.NewWriter(16)
	for _, tok := range corpus {
		c, err := table.Encode(tok)
		if err != nil {
			t.Fatal(err)
		}
		w.WriteCode(c)
	}
	r := bitio.NewReader(w.Bytes(), w.Len())
	for i, want := range corpus {
		got, err := table.Decode(r)
		if err != nil {
			t.Fatalf("Decode #%d: %v", i, err)
		}
		if got != want {
			t.Errorf("Decode #%d = %s, want %s", i, got, want)
		}
	}
	if r.Remaining() != 0 {
		t.Errorf("%d bits left over", r.Remaining())
	}
}

func TestSingleToken(t *testing.T) {
	b := huffman.NewBuilder()
	b.Add("e2e4")
	b.Add("e2e4")
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	c, _ := table.Encode("e2e4")
	if c.String() != "0" {
		t.Errorf("single token code = %s, want 0", c)
	}
	_, err = table.Decode(bitio.NewCodeReader(bitio.NewCode(1, 1)))
	var mce *huffman.MalformedCodeError
	if !errors.As(err, &mce) {
		t.Errorf("expected MalformedCodeError for unassigned branch, got %v", err)
	}
}

func TestErrors(t *testing.T) {
	if _, err := huffman.NewBuilder().Build(); !errors.Is(err, huffman.ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}

	table := build(t, map[string]uint64{"a": 5, "b": 2, "c": 1, "d": 1}, []string{"a", "b", "c", "d"})
	var ute *huffman.UnknownTokenError
	if _, err := table.Encode("z"); !errors.As(err, &ute) || ute.Token != "z" {
		t.Errorf("expected UnknownTokenError for z, got %v", err)
	}

	truncated, _ := bitio.ParseCode("11")
	var mce *huffman.MalformedCodeError
	if _, err := table.Decode(bitio.NewCodeReader(truncated)); !errors.As(err, &mce) {
		t.Errorf("expected MalformedCodeError for truncated code, got %v", err)
	}
}

func TestCodeTooLong(t *testing.T) {
	// Fibonacci counts give a maximally skewed tree: n tokens, depth n-1.
	b := huffman.NewBuilder()
	x, y := uint64(1), uint64(1)
	for i := 0; i < 70; i++ {
		b.AddN(string(rune('A'+i)), x)
		x, y = y, x+y
	}
	if _, err := b.Build(); !errors.Is(err, huffman.ErrCodeTooLong) {
		t.Errorf("expected ErrCodeTooLong, got %v", err)
	}
}

func TestTableFileRoundTrip(t *testing.T) {
	b := huffman.NewBuilder()
	b.AddAll([]string{"e2e4", "e2e4", "e2e4", "d2d4", "d2d4", "g1f3", "c2c4", "b7b8n"})
	table, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := table.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := huffman.ReadTable(&buf)
	if err != nil {
		t.Fatal(err)
	}
	assertSameCodes(t, table, back)

	path := filepath.Join(t.TempDir(), "table.hft")
	if err := table.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := huffman.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	assertSameCodes(t, table, loaded)

	if _, err := huffman.ReadTable(bytes.NewReader([]byte("not a table"))); err == nil {
		t.Error("expected error reading garbage")
	}
}

func assertSameCodes(t *testing.T, want, got *huffman.Table) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("Len = %d, want %d", got.Len(), want.Len())
	}
	for _, tok := range want.Tokens() {
		a, _ := want.Encode(tok)
		b, err := got.Encode(tok)
		if err != nil || a != b {
			t.Errorf("code of %s = %s (%v), want %s", tok, b, err, a)
		}
	}
}

func TestBuildFromSource(t *testing.T) {
	src := huffman.SliceSource{"e4", "e5", "e4"}
	table, err := huffman.BuildFromSource(context.Background(), src, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	c, _ := table.Encode("e4")
	if c.String() != "0" {
		t.Errorf("most frequent token code = %s, want 0", c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table, err = huffman.BuildFromSource(ctx, src, zerolog.Nop())
	if !errors.Is(err, context.Canceled) || table != nil {
		t.Errorf("cancelled build = %v, %v; want nil, context.Canceled", table, err)
	}
}
