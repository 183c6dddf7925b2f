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

// smallTier is exactly one packed sequence (spec §3.2, §4.2).
type smallTier struct {
	seq *packedseq.Seq
}

func newSmallTier(arity int) *smallTier {
	return &smallTier{seq: packedseq.New(arity)}
}

func (t *smallTier) kindOf() tierKind    { return tierSmall }
func (t *smallTier) count() int          { return t.seq.Count() }
func (t *smallTier) bytes() int          { return t.seq.Bytes() }
func (t *smallTier) numSubsequences() int { return 1 }
func (t *smallTier) subsequence(i int) *packedseq.Seq { return t.seq }

func (t *smallTier) insert(entry packedseq.Entry, resolver element.Resolver, cfg Config, fullWidth bool) bool {
	cmp := compareFuncFor(entry, resolver, fullWidth)
	replaced := t.seq.InsertReplaceSorted(entry, cmp, cfg.MapIsSet)
	t.seq.RefreshMiddle()
	return replaced
}

func (t *smallTier) find(cmp packedseq.CompareFunc) (packedseq.Entry, bool) {
	c, found := t.seq.FindSorted(cmp)
	if !found {
		return nil, false
	}
	return c.Get(), true
}

func (t *smallTier) delete(cmp packedseq.CompareFunc) bool {
	c, found := t.seq.FindSorted(cmp)
	if !found {
		return false
	}
	t.seq.DeleteAt(c)
	t.seq.RefreshMiddle()
	return true
}

func (t *smallTier) first() (packedseq.Entry, bool) {
	c, ok := t.seq.Head()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

func (t *smallTier) last() (packedseq.Entry, bool) {
	c, ok := t.seq.Tail()
	if !ok {
		return nil, false
	}
	return c.Get(), true
}

// deleteLessEqual truncates every entry with key <= pivot (spec §4.4.6,
// trivially realized with a single sub-sequence).
func (t *smallTier) deleteLessEqual(pivot element.Element, resolver element.Resolver) {
	cmp := keyCompareFunc(pivot, resolver)
	cut := t.seq.Seek(cmp)
	if cut == 0 {
		return
	}
	c, ok := t.seq.At(cut - 1)
	if !ok {
		return
	}
	t.seq.DeleteUpToInclusive(c)
	t.seq.RefreshMiddle()
}
