package huffman

import (
	"fmt"
	"sort"

	"github.com/freeeve/movecodec/internal/bitio"
)

// UnknownTokenError is returned when encoding a token the table never saw.
type UnknownTokenError struct {
	Token string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("huffman: unknown token %q", e.Token)
}

// MalformedCodeError is returned when the bits at Offset do not spell a code.
type MalformedCodeError struct {
	Offset int
	Reason string
}

func (e *MalformedCodeError) Error() string {
	return fmt.Sprintf("huffman: malformed code at bit %d: %s", e.Offset, e.Reason)
}

type trieNode struct {
	child [2]int32 // 0 means absent; the root is node 0
	token int32    // -1 for internal nodes
}

// Table maps tokens to canonical codes and back. It is immutable and safe
// for concurrent use.
type Table struct {
	tokens []string // canonical order
	codes  map[string]bitio.Code
	trie   []trieNode
}

// newTable assigns canonical codes: tokens sorted by code length, ties kept
// in the given order, each code one more than the previous shifted to the
// new length.
func newTable(tokens []string, lengths []int) (*Table, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyCorpus
	}
	if len(tokens) != len(lengths) {
		return nil, fmt.Errorf("huffman: %d tokens but %d lengths", len(tokens), len(lengths))
	}
	order := make([]int, len(tokens))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return lengths[order[a]] < lengths[order[b]] })

	t := &Table{
		tokens: make([]string, 0, len(tokens)),
		codes:  make(map[string]bitio.Code, len(tokens)),
		trie:   []trieNode{{token: -1}},
	}
	var code uint64
	prevLen := 0
	for k, i := range order {
		l := lengths[i]
		if l < 1 || l > bitio.MaxCodeLen {
			return nil, fmt.Errorf("huffman: token %q has invalid code length %d", tokens[i], l)
		}
		if k > 0 {
			code++
			if code == 0 {
				return nil, fmt.Errorf("huffman: code space exhausted at token %q", tokens[i])
			}
		}
		code <<= uint(l - prevLen)
		prevLen = l
		if l < bitio.MaxCodeLen && code >= 1<<uint(l) {
			return nil, fmt.Errorf("huffman: code lengths over-subscribe %d bits", l)
		}
		if _, dup := t.codes[tokens[i]]; dup {
			return nil, fmt.Errorf("huffman: duplicate token %q", tokens[i])
		}
		c := bitio.NewCode(code, l)
		t.codes[tokens[i]] = c
		t.insert(c, int32(len(t.tokens)))
		t.tokens = append(t.tokens, tokens[i])
	}
	return t, nil
}

func (t *Table) insert(c bitio.Code, token int32) {
	n := int32(0)
	for i := 0; i < c.Len; i++ {
		b := c.Bit(i)
		next := t.trie[n].child[b]
		if next == 0 {
			next = int32(len(t.trie))
			t.trie = append(t.trie, trieNode{token: -1})
			t.trie[n].child[b] = next
		}
		n = next
	}
	t.trie[n].token = token
}

// Len returns the number of tokens.
func (t *Table) Len() int { return len(t.tokens) }

// Tokens returns the tokens in canonical code order.
func (t *Table) Tokens() []string {
	return append([]string(nil), t.tokens...)
}

// Encode returns the code of token.
func (t *Table) Encode(token string) (bitio.Code, error) {
	c, ok := t.codes[token]
	if !ok {
		return bitio.Code{}, &UnknownTokenError{Token: token}
	}
	return c, nil
}

// Decode reads exactly one code from r and returns its token.
func (t *Table) Decode(r *bitio.Reader) (string, error) {
	start := r.Offset()
	n := int32(0)
	for {
		b, err := r.ReadBit()
		if err != nil {
			return "", &MalformedCodeError{Offset: start, Reason: "bits ran out inside a code"}
		}
		next := t.trie[n].child[b]
		if next == 0 {
			return "", &MalformedCodeError{Offset: start, Reason: "unassigned code"}
		}
		n = next
		if tok := t.trie[n].token; tok >= 0 {
			return t.tokens[tok], nil
		}
	}
}
