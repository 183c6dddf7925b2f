/*
Copyright 2014 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package packedseq implements the packed-sequence collaborator described
// at spec §6.1: a contiguous, self-describing byte container holding a
// sorted run of fixed-arity entries, with O(1) cursor traversal and a
// cached midpoint hint. The byte framing is CBOR (github.com/fxamacker/cbor/v2);
// spec §1 treats the codec as an opaque external library, so this package
// plays the role the teacher's pkg/sorted/mem.go backend plays for
// sorted.KeyValue: the one concrete realization the core tiers are built
// and tested against.
package packedseq

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/dstore-go/tieredmap/pkg/tiered/element"
)

// Entry is one fixed-arity row: element count is constant across every
// Seq belonging to the same map (spec §3.2 invariant 2).
type Entry []element.Element

// CompareFunc compares a fixed target (captured by closure, usually by the
// tier implementation binding in a key or full entry plus an
// element.Resolver) against an existing entry read from a Seq. Negative
// means the target sorts before existing, zero means equal (in whatever
// sense the closure defines: key-only or full-width), positive means
// after. This is the Go realization of the "compareKeyElementOnly" /
// full-width toggle in the spec §6.1 contract.
type CompareFunc func(existing Entry) int

// Seq is a contiguous packed sequence of sorted entries.
type Seq struct {
	arity int
	buf   []byte
	offs  []int // len(offs) == count+1; offs[i]..offs[i+1] bounds entry i
	mid   int   // cached index of the midpoint entry
}

// New returns an empty packed sequence of the given per-entry arity.
func New(arity int) *Seq {
	return &Seq{arity: arity, offs: []int{0}}
}

// Free releases s's storage and poisons it: Count reports -1 afterwards,
// and decoding an entry through a cursor into s panics rather than
// silently reading stale data.
func (s *Seq) Free() {
	*s = Seq{offs: nil}
}

// Duplicate returns a deep copy of s.
func (s *Seq) Duplicate() *Seq {
	cp := &Seq{arity: s.arity, mid: s.mid}
	cp.buf = append([]byte(nil), s.buf...)
	cp.offs = append([]int(nil), s.offs...)
	return cp
}

// Count returns the number of entries in s.
func (s *Seq) Count() int { return len(s.offs) - 1 }

// Bytes returns the packed byte size of s.
func (s *Seq) Bytes() int { return len(s.buf) }

// Arity returns the fixed element count per entry.
func (s *Seq) Arity() int { return s.arity }

// Cursor is a position descriptor into one Seq.
type Cursor struct {
	seq *Seq
	idx int
}

// Valid reports whether c refers to an in-range entry.
func (c Cursor) Valid() bool { return c.seq != nil && c.idx >= 0 && c.idx < c.seq.Count() }

// Index returns the entry index the cursor refers to.
func (c Cursor) Index() int { return c.idx }

func (s *Seq) cursor(i int) (Cursor, bool) {
	if i < 0 || i >= s.Count() {
		return Cursor{}, false
	}
	return Cursor{seq: s, idx: i}, true
}

// Head returns a cursor to the first entry.
func (s *Seq) Head() (Cursor, bool) { return s.cursor(0) }

// Tail returns a cursor to the last entry.
func (s *Seq) Tail() (Cursor, bool) { return s.cursor(s.Count() - 1) }

// At returns a cursor to the entry at the given 0-based offset.
func (s *Seq) At(i int) (Cursor, bool) { return s.cursor(i) }

// Next returns the cursor one entry forward, or false at the end.
func (c Cursor) Next() (Cursor, bool) { return c.seq.cursor(c.idx + 1) }

// Prev returns the cursor one entry back, or false at the start.
func (c Cursor) Prev() (Cursor, bool) { return c.seq.cursor(c.idx - 1) }

// RefreshMiddle recomputes the cached midpoint hint. Per spec §9 Open
// Question 3, exact centering is best-effort: any index that keeps
// FindSorted reachable by bisection is acceptable, so this is simply
// Count()/2.
func (s *Seq) RefreshMiddle() {
	s.mid = s.Count() / 2
}

// Middle returns a cursor to the cached midpoint entry.
func (s *Seq) Middle() (Cursor, bool) { return s.cursor(s.mid) }

// Get decodes and returns the entry at c.
func (c Cursor) Get() Entry {
	s := c.seq
	raw := s.buf[s.offs[c.idx]:s.offs[c.idx+1]]
	var e Entry
	if err := cbor.Unmarshal(raw, &e); err != nil {
		panic(fmt.Sprintf("packedseq: corrupt entry at index %d: %v", c.idx, err))
	}
	return e
}

// Key returns the first element (the key) of the entry at c. It decodes
// the whole entry to do so.
func (c Cursor) Key() element.Element {
	entry := c.Get()
	return entry[0]
}

func encodeEntry(e Entry) []byte {
	raw, err := cbor.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("packedseq: encode entry: %v", err))
	}
	return raw
}

// entries decodes the full sequence; used by split/merge/bulk paths where
// every entry is visited anyway.
func (s *Seq) entries() []Entry {
	out := make([]Entry, s.Count())
	for i := range out {
		c, _ := s.cursor(i)
		out[i] = c.Get()
	}
	return out
}

func (s *Seq) rebuild(entries []Entry) {
	s.buf = s.buf[:0]
	s.offs = s.offs[:0]
	s.offs = append(s.offs, 0)
	for _, e := range entries {
		s.buf = append(s.buf, encodeEntry(e)...)
		s.offs = append(s.offs, len(s.buf))
	}
	s.RefreshMiddle()
}

// FindSorted performs a binary search over the sorted sequence using cmp,
// returning the matching cursor when cmp reports 0 for some entry. When no
// entry matches, it returns the cursor of the first entry that sorts after
// the target, and false — the spec §4.4.1-style "insertion point".
func (s *Seq) FindSorted(cmp CompareFunc) (at Cursor, found bool) {
	idx, equal := s.insertionPoint(cmp)
	c, _ := s.cursor(idx)
	return c, equal
}

// insertionPoint returns the index at which an entry comparing via cmp
// belongs, and whether an equal entry already occupies that index. It uses
// sort.Search rather than a hand-rolled loop: cmp is monotonic over the
// sorted sequence (cmp(existing) <= 0 is false-then-true as existing
// advances), exactly the precondition sort.Search documents.
func (s *Seq) insertionPoint(cmp CompareFunc) (idx int, equal bool) {
	n := s.Count()
	idx = sort.Search(n, func(i int) bool {
		c, _ := s.cursor(i)
		return cmp(c.Get()) <= 0
	})
	if idx < n {
		c, _ := s.cursor(idx)
		if cmp(c.Get()) == 0 {
			return idx, true
		}
	}
	return idx, false
}

// InsertReplaceSorted inserts entry in sorted position according to cmp.
// If mapIsSet is true and cmp reports an existing entry equal, that entry
// is replaced in place and replaced=true is returned; otherwise entry is
// inserted and replaced=false. When mapIsSet is false, duplicates (by
// cmp's notion of equality) are inserted adjacent to existing matches
// rather than replacing them.
func (s *Seq) InsertReplaceSorted(entry Entry, cmp CompareFunc, mapIsSet bool) (replaced bool) {
	idx, equal := s.insertionPoint(cmp)
	all := s.entries()
	if equal && mapIsSet {
		all[idx] = entry
		s.rebuild(all)
		return true
	}
	if equal && !mapIsSet {
		idx++ // list mode: insert after the run of equal keys' first match
	}
	all = append(all, nil)
	copy(all[idx+1:], all[idx:])
	all[idx] = entry
	s.rebuild(all)
	return false
}

// Seek returns the smallest index idx such that cmp reports strictly
// negative for the entry at idx (i.e. that entry sorts after whatever cmp
// is probing for); every entry before idx compares >= 0. It is the
// upper-bound half of spec §4.4.6's bulk prefix delete: entries
// [0, idx) are the run to discard.
func (s *Seq) Seek(cmp CompareFunc) int {
	return sort.Search(s.Count(), func(i int) bool {
		c, _ := s.cursor(i)
		return cmp(c.Get()) < 0
	})
}

// DeleteAt removes the entry at c.
func (s *Seq) DeleteAt(c Cursor) {
	all := s.entries()
	all = append(all[:c.idx], all[c.idx+1:]...)
	s.rebuild(all)
}

// DeleteUpToInclusive removes every entry up to and including c — the
// bulk-prefix-delete primitive spec §4.4.6 needs.
func (s *Seq) DeleteUpToInclusive(c Cursor) {
	all := s.entries()
	s.rebuild(all[c.idx+1:])
}

// SplitMiddle splits s at its cached midpoint: s retains the lower half in
// place, and the upper half is returned as a new Seq (the splitMiddle ->
// newHigherSeq operation of spec §6.1).
func (s *Seq) SplitMiddle() *Seq {
	all := s.entries()
	mid := s.mid
	if mid <= 0 {
		mid = len(all) / 2
	}
	high := New(s.arity)
	high.rebuild(append([]Entry(nil), all[mid:]...))
	s.rebuild(append([]Entry(nil), all[:mid]...))
	return high
}

// BulkAppend appends src's entries after dst's, in place. Used by Full's
// post-delete merge step (spec §4.4.4).
func BulkAppend(dst, src *Seq) {
	all := append(dst.entries(), src.entries()...)
	dst.rebuild(all)
}
