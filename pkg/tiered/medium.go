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

// mediumTier is exactly two packed sequences, map[0] <= map[1] (spec §4.3).
// The boundary between them is implicit — head(map[1]) — rather than a
// materialized range key; Full is where range keys first appear.
type mediumTier struct {
	seq [2]*packedseq.Seq
}

func newMediumTier(lo, hi *packedseq.Seq) *mediumTier {
	return &mediumTier{seq: [2]*packedseq.Seq{lo, hi}}
}

func (t *mediumTier) kindOf() tierKind { return tierMedium }
func (t *mediumTier) count() int       { return t.seq[0].Count() + t.seq[1].Count() }
func (t *mediumTier) bytes() int       { return t.seq[0].Bytes() + t.seq[1].Bytes() }
func (t *mediumTier) numSubsequences() int { return 2 }
func (t *mediumTier) subsequence(i int) *packedseq.Seq { return t.seq[i] }

// partitionFor implements the §4.3 binary-partition rule: a candidate
// compares against head(map[1]) using whatever ordering cmp encodes
// (key-only or full-width "two-finger scan"); ties and anything sorting
// at-or-after the head belong in map[1].
func (t *mediumTier) partitionFor(cmp packedseq.CompareFunc) int {
	if t.seq[1].Count() == 0 {
		return 0
	}
	head, _ := t.seq[1].Head()
	if cmp(head.Get()) >= 0 {
		return 1
	}
	return 0
}

func (t *mediumTier) insert(entry packedseq.Entry, resolver element.Resolver, cfg Config, fullWidth bool) bool {
	cmp := compareFuncFor(entry, resolver, fullWidth)
	idx := t.partitionFor(cmp)
	replaced := t.seq[idx].InsertReplaceSorted(entry, cmp, cfg.MapIsSet)
	t.seq[idx].RefreshMiddle()
	return replaced
}

func (t *mediumTier) find(cmp packedseq.CompareFunc) (packedseq.Entry, bool) {
	idx := t.partitionFor(cmp)
	c, found := t.seq[idx].FindSorted(cmp)
	if !found {
		return nil, false
	}
	return c.Get(), true
}

func (t *mediumTier) delete(cmp packedseq.CompareFunc) bool {
	idx := t.partitionFor(cmp)
	c, found := t.seq[idx].FindSorted(cmp)
	if !found {
		return false
	}
	t.seq[idx].DeleteAt(c)
	t.seq[idx].RefreshMiddle()
	t.conform()
	return true
}

// conform applies the §4.3 post-delete rule: map[0] is never empty while
// map[1] holds entries.
func (t *mediumTier) conform() {
	if t.seq[0].Count() == 0 && t.seq[1].Count() > 0 {
		t.seq[0], t.seq[1] = t.seq[1], t.seq[0]
	}
}

func (t *mediumTier) first() (packedseq.Entry, bool) {
	c, ok := t.seq[0].Head()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

func (t *mediumTier) last() (packedseq.Entry, bool) {
	if t.seq[1].Count() > 0 {
		c, _ := t.seq[1].Tail()
		return c.Get(), true
	}
	c, ok := t.seq[0].Tail()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

func (t *mediumTier) deleteLessEqual(pivot element.Element, resolver element.Resolver) {
	cmp := keyCompareFunc(pivot, resolver)
	for idx := 0; idx < 2; idx++ {
		s := t.seq[idx]
		cut := s.Seek(cmp)
		if cut == 0 {
			continue
		}
		c, ok := s.At(cut - 1)
		if !ok {
			continue
		}
		s.DeleteUpToInclusive(c)
		s.RefreshMiddle()
	}
	t.conform()
}
