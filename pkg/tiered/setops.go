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

// stackEntryElems is the small-arity scratch size set ops keep inline
// before falling back to a heap slice (spec §4.6 / §9: "stack-buffer-up-to-N
// / heap-fallback pattern" in place of the source's VLAs).
const stackEntryElems = 8

// scratchEntry allocates the per-iterator scratch row set ops copy entries
// into before comparing/inserting them. Go's escape analysis decides the
// actual placement once the slice is returned, so this doesn't buy a true
// stack allocation the way the source's VLA did; the fixed-size branch is
// kept anyway because it bounds the allocation size for the common small
// arities instead of always taking the variable-length make() path.
func scratchEntry(arity int) packedseq.Entry {
	if arity <= stackEntryElems {
		var buf [stackEntryElems]element.Element
		return packedseq.Entry(buf[:arity])
	}
	return make(packedseq.Entry, arity)
}

// Key comparisons below always resolve through resolverA. Spec §4.6 only
// requires a and b to share ElementsPerEntry, not a resolver; in practice
// set ops only make sense over maps drawn from the same key universe, so a
// single resolver for both sides is the supported case (mixing surrogate
// domains across a and b is not).
func checkArity(a, b *Handle) {
	if a.cfg.ElementsPerEntry != b.cfg.ElementsPerEntry {
		arityMismatch(int(a.cfg.ElementsPerEntry), int(b.cfg.ElementsPerEntry))
	}
}

// zipAdvance pulls the next entry from it, copying it into a reusable
// scratch buffer so callers don't retain a live reference into a
// sub-sequence that might be mutated by the destination map in the same
// call (Intersect/Difference/SymmetricDifference build into a fresh dst,
// so this is conservative rather than strictly required, but it matches
// the "copy before further use" discipline element.CopyOf documents).
func zipAdvance(it *Iterator, scratch packedseq.Entry) (packedseq.Entry, bool) {
	e, ok := it.Next()
	if !ok {
		return nil, false
	}
	copy(scratch, e)
	return scratch, true
}

// Intersect populates dst with every entry whose key appears in both a and
// b (spec §4.6 "zipper: advance the smaller; on equal keys emit and
// advance both").
func Intersect(dst *Handle, a, b *Handle, resolverA, resolverB, resolverDst element.Resolver) {
	checkArity(a, b)
	checkArity(a, dst)
	arity := int(a.cfg.ElementsPerEntry)

	itA := NewIterator(a, resolverA, true)
	itB := NewIterator(b, resolverB, true)
	scratchA, scratchB := scratchEntry(arity), scratchEntry(arity)

	ea, okA := zipAdvance(itA, scratchA)
	eb, okB := zipAdvance(itB, scratchB)
	for okA && okB {
		c := element.Compare(ea[0], eb[0], resolverA)
		switch {
		case c < 0:
			ea, okA = zipAdvance(itA, scratchA)
		case c > 0:
			eb, okB = zipAdvance(itB, scratchB)
		default:
			dst.insert(append(packedseq.Entry(nil), ea...), resolverDst, false)
			ea, okA = zipAdvance(itA, scratchA)
			eb, okB = zipAdvance(itB, scratchB)
		}
	}
}

// Difference populates dst with every entry of a whose key does not appear
// in b (spec §4.6 "asymmetric difference").
func Difference(dst *Handle, a, b *Handle, resolverA, resolverB, resolverDst element.Resolver) {
	checkArity(a, b)
	checkArity(a, dst)
	arity := int(a.cfg.ElementsPerEntry)

	itA := NewIterator(a, resolverA, true)
	itB := NewIterator(b, resolverB, true)
	scratchA, scratchB := scratchEntry(arity), scratchEntry(arity)

	ea, okA := zipAdvance(itA, scratchA)
	eb, okB := zipAdvance(itB, scratchB)
	for okA {
		if !okB {
			dst.insert(append(packedseq.Entry(nil), ea...), resolverDst, false)
			ea, okA = zipAdvance(itA, scratchA)
			continue
		}
		c := element.Compare(ea[0], eb[0], resolverA)
		switch {
		case c < 0:
			dst.insert(append(packedseq.Entry(nil), ea...), resolverDst, false)
			ea, okA = zipAdvance(itA, scratchA)
		case c > 0:
			eb, okB = zipAdvance(itB, scratchB)
		default:
			ea, okA = zipAdvance(itA, scratchA)
			eb, okB = zipAdvance(itB, scratchB)
		}
	}
}

// SymmetricDifference populates dst with every entry whose key appears in
// exactly one of a, b (spec §4.6: like Difference but also draining the
// remainder of b).
func SymmetricDifference(dst *Handle, a, b *Handle, resolverA, resolverB, resolverDst element.Resolver) {
	checkArity(a, b)
	checkArity(a, dst)
	arity := int(a.cfg.ElementsPerEntry)

	itA := NewIterator(a, resolverA, true)
	itB := NewIterator(b, resolverB, true)
	scratchA, scratchB := scratchEntry(arity), scratchEntry(arity)

	ea, okA := zipAdvance(itA, scratchA)
	eb, okB := zipAdvance(itB, scratchB)
	for okA || okB {
		switch {
		case okA && !okB:
			dst.insert(append(packedseq.Entry(nil), ea...), resolverDst, false)
			ea, okA = zipAdvance(itA, scratchA)
		case !okA && okB:
			dst.insert(append(packedseq.Entry(nil), eb...), resolverDst, false)
			eb, okB = zipAdvance(itB, scratchB)
		default:
			c := element.Compare(ea[0], eb[0], resolverA)
			switch {
			case c < 0:
				dst.insert(append(packedseq.Entry(nil), ea...), resolverDst, false)
				ea, okA = zipAdvance(itA, scratchA)
			case c > 0:
				dst.insert(append(packedseq.Entry(nil), eb...), resolverDst, false)
				eb, okB = zipAdvance(itB, scratchB)
			default:
				ea, okA = zipAdvance(itA, scratchA)
				eb, okB = zipAdvance(itB, scratchB)
			}
		}
	}
}

// UnionCopy inserts every entry of src into dst; duplicates are absorbed
// by dst's own replacement semantics (spec §4.6 "Union (Copy)").
func UnionCopy(dst *Handle, src *Handle, resolverSrc, resolverDst element.Resolver) {
	checkArity(src, dst)
	arity := int(src.cfg.ElementsPerEntry)

	it := NewIterator(src, resolverSrc, true)
	scratch := scratchEntry(arity)
	for {
		e, ok := zipAdvance(it, scratch)
		if !ok {
			break
		}
		dst.insert(append(packedseq.Entry(nil), e...), resolverDst, false)
	}
}
