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

package tiered

import (
	"github.com/dstore-go/tieredmap/pkg/tiered/element"
	"github.com/dstore-go/tieredmap/pkg/tiered/packedseq"
)

// Iterator walks the logical global sorted order of a Handle across
// tier/sub-sequence boundaries (spec §4.5). It holds a position
// {sub-sequence index, cursor, direction} rather than a tagged tier pointer
// — the tier distinction only matters for numSubsequences/subsequence,
// both already uniform across Small/Medium/Full.
//
// Iterators are stable under concurrent no-op reads and are invalidated by
// any mutation on the same Handle made after the iterator was created —
// spec §4.5/§5 place that obligation on the caller; this type does not
// detect it.
type Iterator struct {
	h        *Handle
	resolver element.Resolver
	sub      int
	cur      packedseq.Cursor
	forward  bool
	done     bool
}

// NewIterator returns an iterator positioned before the first entry
// (forward=true) or after the last entry (forward=false); call Next to
// land on the first/last entry.
func NewIterator(h *Handle, resolver element.Resolver, forward bool) *Iterator {
	it := &Iterator{h: h, resolver: resolver, forward: forward}
	if forward {
		it.sub = -1
	} else {
		it.sub = h.body.numSubsequences()
	}
	it.done = h.body.count() == 0
	return it
}

// landOn positions it so that the very next call to Next() yields the
// entry at (subIdx, idx) — one step "before" that entry in the iteration
// direction, matching Next()'s advance-from-cur convention (the same
// convention NewIterator's sentinel establishes for the very first entry).
func (it *Iterator) landOn(subIdx, idx int) {
	seq := it.h.body.subsequence(subIdx)
	if it.forward {
		if idx == 0 {
			it.sub = subIdx - 1
			it.cur = packedseq.Cursor{}
			return
		}
		it.sub = subIdx
		it.cur, _ = seq.At(idx - 1)
		return
	}
	if idx == seq.Count()-1 {
		it.sub = subIdx + 1
		it.cur = packedseq.Cursor{}
		return
	}
	it.sub = subIdx
	it.cur, _ = seq.At(idx + 1)
}

// prevNonEmpty returns the largest index < i holding a non-empty
// sub-sequence, or -1 if none exists.
func (it *Iterator) prevNonEmpty(i int) int {
	for j := i - 1; j >= 0; j-- {
		if it.h.body.subsequence(j).Count() > 0 {
			return j
		}
	}
	return -1
}

// lastNonEmpty returns the largest index holding a non-empty sub-sequence,
// or -1 if the map is entirely empty.
func (it *Iterator) lastNonEmpty() int {
	n := it.h.body.numSubsequences()
	for j := n - 1; j >= 0; j-- {
		if it.h.body.subsequence(j).Count() > 0 {
			return j
		}
	}
	return -1
}

// InitAt lands the iterator at the first entry with key >= key (forward)
// or <= key (backward). It visits the sub-sequences in order, comparing key
// against each one's tail, and binary-searches only inside the sub-sequence
// that can hold key (FindSorted/Seek); the Full tier's range-key search is
// not used, so finding that sub-sequence is linear in their number.
func InitAt(h *Handle, resolver element.Resolver, key element.Element, forward bool) *Iterator {
	it := &Iterator{h: h, resolver: resolver, forward: forward}
	cmp := keyCompareFunc(key, resolver)

	n := h.body.numSubsequences()
	for i := 0; i < n; i++ {
		seq := h.body.subsequence(i)
		if seq.Count() == 0 {
			continue
		}
		if c, found := seq.FindSorted(cmp); found {
			it.landOn(i, c.Index())
			return it
		}
		tail, _ := seq.Tail()
		if element.Compare(key, tail.Key(), resolver) <= 0 {
			// No entry in this sub-sequence equals key (FindSorted just
			// reported that), so Seek's upper-bound and the lower-bound
			// landing spot we actually want coincide here: the first
			// entry that sorts strictly after key. tail satisfies that
			// already (we're in this branch because key <= tail, and
			// there's no exact match, so key < tail), so idx never runs
			// off the end of this sub-sequence.
			idx := seq.Seek(cmp)
			if forward {
				it.landOn(i, idx)
				return it
			}
			// backward: land one entry before the ">= key" spot, which
			// may live in an earlier (possibly non-adjacent, if some
			// sub-sequences are empty) sub-sequence.
			if idx == 0 {
				j := it.prevNonEmpty(i)
				if j < 0 {
					it.done = true
					return it
				}
				it.landOn(j, h.body.subsequence(j).Count()-1)
				return it
			}
			it.landOn(i, idx-1)
			return it
		}
	}
	// key sorts after every stored entry.
	if forward {
		it.done = true
		return it
	}
	j := it.lastNonEmpty()
	if j < 0 {
		it.done = true
		return it
	}
	it.landOn(j, h.body.subsequence(j).Count()-1)
	return it
}

// Next advances the iterator and returns the entry now under it.
func (it *Iterator) Next() (packedseq.Entry, bool) {
	if it.done {
		return nil, false
	}
	if it.cur.Valid() {
		if it.forward {
			if c, ok := it.cur.Next(); ok {
				it.cur = c
				return it.cur.Get(), true
			}
		} else {
			if c, ok := it.cur.Prev(); ok {
				it.cur = c
				return it.cur.Get(), true
			}
		}
		return it.advanceSub()
	}
	return it.advanceSub()
}

func (it *Iterator) advanceSub() (packedseq.Entry, bool) {
	n := it.h.body.numSubsequences()
	step := 1
	if !it.forward {
		step = -1
	}
	for {
		it.sub += step
		if it.sub < 0 || it.sub >= n {
			it.done = true
			return nil, false
		}
		seq := it.h.body.subsequence(it.sub)
		var c packedseq.Cursor
		var ok bool
		if it.forward {
			c, ok = seq.Head()
		} else {
			c, ok = seq.Tail()
		}
		if ok {
			it.cur = c
			return c.Get(), true
		}
	}
}
