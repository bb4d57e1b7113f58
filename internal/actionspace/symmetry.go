package actionspace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/freeeve/movecodec/internal/bitio"
	"github.com/freeeve/movecodec/internal/move"
)

var (
	// ErrNotPlayable is returned when encoding an index absent from the playable set.
	ErrNotPlayable = errors.New("actionspace: move is not playable on this board")
	// ErrNoPlayableMember is returned when a decoded class has no playable member.
	ErrNoPlayableMember = errors.New("actionspace: decoded class has no playable member")
)

// AmbiguousSymmetryError reports that a folded code cannot identify the move
// because other members of its class are playable. Folder.Encode resolves it
// by falling back to a wider tier; callers never see it.
type AmbiguousSymmetryError struct {
	Index int
	Live  int
	Width int
}

func (e *AmbiguousSymmetryError) Error() string {
	return fmt.Sprintf("action %d: %d playable class members at %d bits", e.Index, e.Live, e.Width)
}

// Playable is the set of action indices legal in one position.
type Playable struct {
	words [(Size + 63) / 64]uint64
}

// Has reports whether index i is playable.
func (p *Playable) Has(i int) bool {
	return i >= 0 && i < Size && p.words[i/64]&(1<<uint(i%64)) != 0
}

func (p *Playable) add(i int) { p.words[i/64] |= 1 << uint(i%64) }

// PlayableSet indexes the given legal moves.
func (t *Table) PlayableSet(legal []move.Move) (*Playable, error) {
	p := &Playable{}
	for _, m := range legal {
		idx, err := t.Encode(m)
		if err != nil {
			return nil, err
		}
		p.add(idx)
	}
	return p, nil
}

// Class is one reflection class of the action space.
type Class struct {
	ID      int
	Members []int
}

// Folder groups the action space into 2-fold (rank mirror) or 4-fold
// (rank and file mirror) classes.
type Folder struct {
	table *Table
	fold  int
	shift int
}

// NewFolder returns a folder for fold 2 or 4.
func NewFolder(t *Table, fold int) (*Folder, error) {
	switch fold {
	case 2:
		return &Folder{table: t, fold: 2, shift: 1}, nil
	case 4:
		return &Folder{table: t, fold: 4, shift: 2}, nil
	}
	return nil, fmt.Errorf("actionspace: unsupported fold %d", fold)
}

// Fold returns 2 or 4.
func (f *Folder) Fold() int { return f.fold }

// Table returns the underlying action space.
func (f *Folder) Table() *Table { return f.table }

// NumClasses returns the number of classes.
func (f *Folder) NumClasses() int { return Size >> f.shift }

// ClassWidth is the code width of a class index: 10 for 2-fold, 9 for 4-fold.
func (f *Folder) ClassWidth() int { return Width - f.shift }

// ClassOf returns the class containing index i.
func (f *Folder) ClassOf(i int) int { return i >> f.shift }

// Members returns the indices of class c in ascending order.
func (f *Folder) Members(c int) []int {
	out := make([]int, f.fold)
	for k := range out {
		out[k] = c<<f.shift | k
	}
	return out
}

// Classes returns every class in ID order.
func (f *Folder) Classes() []Class {
	out := make([]Class, f.NumClasses())
	for c := range out {
		out[c] = Class{ID: c, Members: f.Members(c)}
	}
	return out
}

// live returns the playable members of class c in ascending order.
func (f *Folder) live(c int, p *Playable) []int {
	out := make([]int, 0, f.fold)
	for _, m := range f.Members(c) {
		if p.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

type tier func(idx int, live []int) (bitio.Code, error)

// tiers returns the encoding tiers from narrowest to widest.
func (f *Folder) tiers() []tier {
	short := func(idx int, live []int) (bitio.Code, error) {
		if len(live) > 1 {
			return bitio.Code{}, &AmbiguousSymmetryError{Index: idx, Live: len(live), Width: f.ClassWidth()}
		}
		return bitio.NewCode(uint64(f.ClassOf(idx)), f.ClassWidth()), nil
	}
	full := func(idx int, live []int) (bitio.Code, error) {
		return bitio.NewCode(uint64(idx), Width), nil
	}
	if f.fold == 2 {
		return []tier{short, full}
	}
	pair := func(idx int, live []int) (bitio.Code, error) {
		if len(live) > 2 {
			return bitio.Code{}, &AmbiguousSymmetryError{Index: idx, Live: len(live), Width: f.ClassWidth() + 1}
		}
		sel := uint64(sort.SearchInts(live, idx))
		return bitio.NewCode(uint64(f.ClassOf(idx))<<1|sel, f.ClassWidth()+1), nil
	}
	return []tier{short, pair, full}
}

// Encode returns the narrowest code that identifies idx given the playable
// set: one playable class member gives ClassWidth bits, and each further
// ambiguity widens the code by one tier up to the full Width bits.
func (f *Folder) Encode(idx int, p *Playable) (bitio.Code, error) {
	if !p.Has(idx) {
		return bitio.Code{}, ErrNotPlayable
	}
	live := f.live(f.ClassOf(idx), p)
	var amb *AmbiguousSymmetryError
	for _, t := range f.tiers() {
		code, err := t(idx, live)
		if errors.As(err, &amb) {
			continue
		}
		return code, err
	}
	return bitio.Code{}, fmt.Errorf("actionspace: no tier encodes action %d", idx)
}

// Decode reads a code written by Encode against the same playable set.
func (f *Folder) Decode(r *bitio.Reader, p *Playable) (int, error) {
	v, err := r.ReadBits(f.ClassWidth())
	if err != nil {
		return 0, err
	}
	c := int(v)
	if c >= f.NumClasses() {
		return 0, fmt.Errorf("actionspace: class %d out of range", c)
	}
	live := f.live(c, p)
	switch {
	case len(live) == 0:
		return 0, ErrNoPlayableMember
	case len(live) == 1:
		return live[0], nil
	case len(live) == 2 && f.fold == 4:
		sel, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		return live[sel], nil
	}
	rest, err := r.ReadBits(f.shift)
	if err != nil {
		return 0, err
	}
	idx := c<<f.shift | int(rest)
	if !p.Has(idx) {
		return 0, ErrNoPlayableMember
	}
	return idx, nil
}
