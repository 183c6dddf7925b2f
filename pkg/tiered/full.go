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
	"sort"

	"github.com/dstore-go/tieredmap/pkg/tiered/element"
	"github.com/dstore-go/tieredmap/pkg/tiered/packedseq"
)

// fullTier is N packed sub-sequences plus N-1 materialized range keys
// (spec §3.2, §4.4 — "the heart of the core"). rangeKey[j] is always
// first_key(seqs[j+1]); seqs[0] carries no range key of its own.
type fullTier struct {
	cfg       Config
	seqs      []*packedseq.Seq
	rangeKeys []element.Element
}

// newFullTier seeds Full from Medium's two sub-sequences (spec §4.1
// promotion: "seed Full with those two sub-sequences").
func newFullTier(cfg Config, lo, hi *packedseq.Seq, resolver element.Resolver) *fullTier {
	t := &fullTier{cfg: cfg, seqs: []*packedseq.Seq{lo, hi}, rangeKeys: make([]element.Element, 1)}
	t.fixRangeKeyAt(1, resolver)
	return t
}

func (t *fullTier) kindOf() tierKind     { return tierFull }
func (t *fullTier) numSubsequences() int { return len(t.seqs) }
func (t *fullTier) subsequence(i int) *packedseq.Seq { return t.seqs[i] }

func (t *fullTier) count() int {
	n := 0
	for _, s := range t.seqs {
		n += s.Count()
	}
	return n
}

func (t *fullTier) bytes() int {
	n := 0
	for _, s := range t.seqs {
		n += s.Bytes()
	}
	return n
}

// partitionForKey is the §4.4.1 range-key binary search (key-only): the
// partition index is the count of range keys not exceeding key, found via
// sort.Search over rangeKeys rather than a hand-rolled loop.
func (t *fullTier) partitionForKey(key element.Element, resolver element.Resolver) int {
	return sort.Search(len(t.rangeKeys), func(j int) bool {
		return element.Compare(t.rangeKeys[j], key, resolver) > 0
	})
}

// partitionForEntry is the §4.4.2 full-width binary search: it starts from
// the key-only guess and walks toward whichever neighbor actually owns the
// full entry, comparing against real partition heads rather than range
// keys (range keys only carry the key column).
func (t *fullTier) partitionForEntry(entry packedseq.Entry, resolver element.Resolver) int {
	i := t.partitionForKey(entry[0], resolver)
	for i > 0 {
		head, ok := t.seqs[i].Head()
		if !ok || entryCompare(entry, head.Get(), resolver) < 0 {
			i--
			continue
		}
		break
	}
	for i+1 < len(t.seqs) {
		head, ok := t.seqs[i+1].Head()
		if !ok {
			break
		}
		if entryCompare(entry, head.Get(), resolver) >= 0 {
			i++
			continue
		}
		break
	}
	return i
}

func (t *fullTier) partitionFor(target packedseq.Entry, resolver element.Resolver, fullWidth bool) int {
	if fullWidth {
		return t.partitionForEntry(target, resolver)
	}
	return t.partitionForKey(target[0], resolver)
}

// fixRangeKeyAt recomputes rangeKeys[i-1] (the boundary below seqs[i]) from
// seqs[i]'s current head, the idempotent "recompute, don't track deltas"
// strategy used throughout this file to keep the bookkeeping simple and
// always self-consistent. A no-op when seqs[i] has no head yet (it will be
// fixed once that partition receives its first entry) or when i is not an
// interior boundary.
func (t *fullTier) fixRangeKeyAt(i int, resolver element.Resolver) {
	if i <= 0 || i-1 >= len(t.rangeKeys) {
		return
	}
	head, ok := t.seqs[i].Head()
	if !ok {
		return
	}
	t.rangeKeys[i-1] = materialize(head.Get()[0], resolver, t.cfg.IsSurrogate)
}

// insertPartitionAt splices a (non-empty) new sub-sequence into position
// idx, following the three cases of spec §4.4.5.
func (t *fullTier) insertPartitionAt(idx int, seq *packedseq.Seq, resolver element.Resolver) {
	t.seqs = append(t.seqs, nil)
	copy(t.seqs[idx+1:], t.seqs[idx:len(t.seqs)-1])
	t.seqs[idx] = seq

	t.rangeKeys = append(t.rangeKeys, element.Element{})
	switch {
	case idx == 0:
		copy(t.rangeKeys[1:], t.rangeKeys[0:len(t.rangeKeys)-1])
		t.fixRangeKeyAt(1, resolver) // rangeKeys[0] = first_key(seqs[1]), the old seqs[0]
	default:
		copy(t.rangeKeys[idx:], t.rangeKeys[idx-1:len(t.rangeKeys)-1])
		t.fixRangeKeyAt(idx, resolver) // rangeKeys[idx-1] = first_key(seqs[idx]), the new partition
	}
}

func (t *fullTier) removePartitionAt(i int) {
	t.seqs[i].Free()
	t.seqs = append(t.seqs[:i], t.seqs[i+1:]...)
	switch {
	case i > 0:
		t.rangeKeys = append(t.rangeKeys[:i-1], t.rangeKeys[i:]...)
	default:
		if len(t.rangeKeys) > 0 {
			t.rangeKeys = t.rangeKeys[1:]
		}
	}
}

func (t *fullTier) insert(entry packedseq.Entry, resolver element.Resolver, cfg Config, fullWidth bool) bool {
	i := t.partitionFor(entry, resolver, fullWidth)
	seq := t.seqs[i]
	cmp := compareFuncFor(entry, resolver, fullWidth)

	if seq.Bytes() <= t.cfg.MaxSize || seq.Count() == 0 {
		replaced := seq.InsertReplaceSorted(entry, cmp, cfg.MapIsSet)
		seq.RefreshMiddle()
		t.fixRangeKeyAt(i, resolver)
		return replaced
	}

	if seq.Count() == 1 {
		// Singleton oversize: don't split a one-entry partition (§4.4.3.a).
		existingHead, _ := seq.Head()
		if cfg.MapIsSet && cmp(existingHead.Get()) == 0 {
			// Equal on the comparison domain: replace the singleton in place.
			replaced := seq.InsertReplaceSorted(entry, cmp, true)
			seq.RefreshMiddle()
			t.fixRangeKeyAt(i, resolver)
			return replaced
		}
		newSeq := packedseq.New(seq.Arity())
		newSeq.InsertReplaceSorted(entry, cmp, cfg.MapIsSet)
		newSeq.RefreshMiddle()

		var newIdx int
		if element.Compare(entry[0], existingHead.Key(), resolver) < 0 {
			newIdx = i
		} else {
			newIdx = i + 1
		}
		t.insertPartitionAt(newIdx, newSeq, resolver)
		return false
	}

	// Split map[i] at its midpoint (§4.4.3.b).
	high := seq.SplitMiddle()
	t.insertPartitionAt(i+1, high, resolver)
	seq.RefreshMiddle()

	var target *packedseq.Seq
	var targetIdx int
	if element.Compare(entry[0], t.rangeKeys[i], resolver) < 0 {
		target, targetIdx = seq, i
	} else {
		target, targetIdx = high, i+1
	}
	replaced := target.InsertReplaceSorted(entry, cmp, cfg.MapIsSet)
	target.RefreshMiddle()
	t.fixRangeKeyAt(targetIdx, resolver)
	return replaced
}

func (t *fullTier) findEntry(target packedseq.Entry, resolver element.Resolver, fullWidth bool) (packedseq.Entry, bool) {
	i := t.partitionFor(target, resolver, fullWidth)
	cmp := compareFuncFor(target, resolver, fullWidth)
	c, found := t.seqs[i].FindSorted(cmp)
	if !found {
		return nil, false
	}
	return c.Get(), true
}

func (t *fullTier) deleteEntry(target packedseq.Entry, resolver element.Resolver, fullWidth bool) bool {
	i := t.partitionFor(target, resolver, fullWidth)
	seq := t.seqs[i]
	cmp := compareFuncFor(target, resolver, fullWidth)

	c, found := seq.FindSorted(cmp)
	if !found {
		return false
	}
	seq.DeleteAt(c)
	seq.RefreshMiddle()
	t.fixRangeKeyAt(i, resolver)

	switch {
	case len(t.seqs) > 1 && seq.Count() == 0:
		t.removePartitionAt(i)
	case i+1 < len(t.seqs) && seq.Bytes()+t.seqs[i+1].Bytes() <= t.cfg.MaxSize:
		t.mergeAt(i, resolver)
	}
	return true
}

// mergeAt absorbs seqs[i+1] into seqs[i] (spec §4.4.4 step 4).
func (t *fullTier) mergeAt(i int, resolver element.Resolver) {
	packedseq.BulkAppend(t.seqs[i], t.seqs[i+1])
	t.seqs[i].RefreshMiddle()
	t.seqs[i+1].Free()
	t.seqs = append(t.seqs[:i+1], t.seqs[i+2:]...)
	if i < len(t.rangeKeys) {
		t.rangeKeys = append(t.rangeKeys[:i], t.rangeKeys[i+1:]...)
	}
	t.fixRangeKeyAt(i, resolver)
}

func (t *fullTier) first() (packedseq.Entry, bool) {
	c, ok := t.seqs[0].Head()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

func (t *fullTier) last() (packedseq.Entry, bool) {
	last := t.seqs[len(t.seqs)-1]
	c, ok := last.Tail()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

// deleteLessEqual implements the §4.4.6 bulk prefix delete: whole
// partitions below the pivot's partition are dropped without traversal,
// and only the pivot's own partition is scanned for its cut point.
func (t *fullTier) deleteLessEqual(pivot element.Element, resolver element.Resolver) {
	i := t.partitionForKey(pivot, resolver)
	for j := 0; j < i; j++ {
		t.seqs[j].Free()
	}
	t.seqs = append([]*packedseq.Seq{}, t.seqs[i:]...)
	cut := i
	if cut > len(t.rangeKeys) {
		cut = len(t.rangeKeys)
	}
	t.rangeKeys = append([]element.Element{}, t.rangeKeys[cut:]...)

	cmp := keyCompareFunc(pivot, resolver)
	head := t.seqs[0]
	cutIdx := head.Seek(cmp)
	if cutIdx > 0 {
		if c, ok := head.At(cutIdx - 1); ok {
			head.DeleteUpToInclusive(c)
		}
	}
	head.RefreshMiddle()
	if head.Count() == 0 && len(t.seqs) > 1 {
		// Every key of the pivot's partition was <= pivot: drop it too, so
		// seqs[0] is never an empty lowest partition in front of others.
		t.removePartitionAt(0)
	}
}
