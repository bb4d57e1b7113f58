// Package huffman builds prefix-free canonical codes from token frequencies
// and persists them as zstd-compressed tables.
package huffman

import (
	"container/heap"
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/freeeve/movecodec/internal/bitio"
)

var (
	// ErrEmptyCorpus is returned when building from zero tokens.
	ErrEmptyCorpus = errors.New("huffman: empty corpus")
	// ErrCodeTooLong is returned when a code would exceed 64 bits.
	ErrCodeTooLong = errors.New("huffman: code longer than 64 bits")
)

// Builder accumulates token counts. It is owned by a single goroutine;
// dropping it discards the partial state.
type Builder struct {
	index  map[string]int
	tokens []string
	counts []uint64
	log    zerolog.Logger
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int), log: zerolog.Nop()}
}

// SetLogger attaches a logger for build statistics.
func (b *Builder) SetLogger(l zerolog.Logger) { b.log = l }

// Add counts one occurrence of token.
func (b *Builder) Add(token string) { b.AddN(token, 1) }

// AddN counts n occurrences of token.
func (b *Builder) AddN(token string, n uint64) {
	i, ok := b.index[token]
	if !ok {
		i = len(b.tokens)
		b.index[token] = i
		b.tokens = append(b.tokens, token)
		b.counts = append(b.counts, 0)
	}
	b.counts[i] += n
}

// AddAll counts every token in tokens.
func (b *Builder) AddAll(tokens []string) {
	for _, t := range tokens {
		b.Add(t)
	}
}

// Len returns the number of distinct tokens seen.
func (b *Builder) Len() int { return len(b.tokens) }

// Count returns how often token was added.
func (b *Builder) Count(token string) uint64 {
	if i, ok := b.index[token]; ok {
		return b.counts[i]
	}
	return 0
}

// node is a Huffman tree node. Leaves carry the token's insertion index;
// internal nodes have leaf == -1. seq orders equal counts: leaves by first
// insertion, internal nodes after every leaf in creation order.
type node struct {
	count       uint64
	seq         int
	leaf        int
	left, right *node
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].count != h[j].count {
		return h[i].count < h[j].count
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// codeLengths merges the two lightest nodes until one tree remains and
// returns each token's depth.
func (b *Builder) codeLengths() []int {
	lengths := make([]int, len(b.tokens))
	if len(b.tokens) == 1 {
		lengths[0] = 1
		return lengths
	}

	h := make(nodeHeap, len(b.tokens))
	for i, c := range b.counts {
		h[i] = &node{count: c, seq: i, leaf: i}
	}
	heap.Init(&h)
	seq := len(b.tokens)
	for h.Len() > 1 {
		x := heap.Pop(&h).(*node)
		y := heap.Pop(&h).(*node)
		heap.Push(&h, &node{count: x.count + y.count, seq: seq, leaf: -1, left: x, right: y})
		seq++
	}

	var walk func(n *node, depth int)
	walk = func(n *node, depth int) {
		if n.leaf >= 0 {
			lengths[n.leaf] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(h[0], 0)
	return lengths
}

// Build computes code lengths from the counts and assigns canonical codes
// ordered by (length, first insertion).
func (b *Builder) Build() (*Table, error) {
	if len(b.tokens) == 0 {
		return nil, ErrEmptyCorpus
	}
	lengths := b.codeLengths()
	maxLen := 0
	for _, l := range lengths {
		if l > bitio.MaxCodeLen {
			return nil, ErrCodeTooLong
		}
		maxLen = max(maxLen, l)
	}
	t, err := newTable(b.tokens, lengths)
	if err != nil {
		return nil, err
	}

	var total uint64
	for _, c := range b.counts {
		total += c
	}
	b.log.Debug().
		Int("tokens", len(b.tokens)).
		Uint64("occurrences", total).
		Int("max_len", maxLen).
		Msg("huffman table built")
	return t, nil
}

// Source yields tokens to fn until exhausted, fn fails, or ctx is done.
type Source interface {
	Tokens(ctx context.Context, fn func(token string) error) error
}

// SliceSource is a Source over an in-memory token list.
type SliceSource []string

// Tokens implements Source.
func (s SliceSource) Tokens(ctx context.Context, fn func(string) error) error {
	for _, t := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// BuildFromSource counts every token of src and builds a table. A cancelled
// context or failing source yields an error and no table.
func BuildFromSource(ctx context.Context, src Source, log zerolog.Logger) (*Table, error) {
	b := NewBuilder()
	b.SetLogger(log)
	err := src.Tokens(ctx, func(token string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Add(token)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Build()
}
