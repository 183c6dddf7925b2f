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

// Package tiered implements the tiering state machine of an embeddable
// ordered multi-column map: a single map grows through three
// representations — Small, Medium, Full — as it accumulates entries,
// trading the cost of a wider binary search for a bound on the size of any
// one contiguous packed sequence it has to rewrite on mutation.
package tiered

import (
	"github.com/dstore-go/tieredmap/pkg/tiered/element"
	"github.com/dstore-go/tieredmap/pkg/tiered/packedseq"
)

// tierKind discriminates which representation a Handle currently holds.
// Spec §3.1/§9 describe this as a pointer-tag in the low 2 bits of an
// aligned allocation; Go has no portable equivalent (and no need for one —
// a tagged interface value dispatches through a single indirect call
// either way), so the tag is the concrete type held in Handle.body, reported
// by its kindOf method, and dispatch goes through the tierBody interface
// below (plus type switches where a tier-specific path is needed) rather
// than a bit-tagged pointer and a switch on the tag.
type tierKind uint8

const (
	tierSmall tierKind = iota + 1
	tierMedium
	tierFull
)

func (k tierKind) String() string {
	switch k {
	case tierSmall:
		return "small"
	case tierMedium:
		return "medium"
	case tierFull:
		return "full"
	default:
		return "unknown"
	}
}

// tierBody is the polymorphic dispatch contract spec §4.1 assigns to the
// handle: every tier implements it, and Handle never needs to know which
// concrete tier it is holding except to decide whether to promote.
type tierBody interface {
	kindOf() tierKind
	count() int
	numSubsequences() int
	subsequence(i int) *packedseq.Seq
	insert(entry packedseq.Entry, resolver element.Resolver, cfg Config, fullWidth bool) bool
	first() (packedseq.Entry, bool)
	last() (packedseq.Entry, bool)
	deleteLessEqual(pivot element.Element, resolver element.Resolver)
}

// Handle is a tiered map: the single type a caller holds regardless of
// which tier currently backs it.
type Handle struct {
	cfg  Config
	body tierBody
}

// New creates an empty map in the Small tier (spec §3.3).
func New(cfg Config) *Handle {
	return &Handle{cfg: cfg, body: newSmallTier(int(cfg.ElementsPerEntry))}
}

// Tier reports which representation currently backs h.
func (h *Handle) Tier() string { return h.body.kindOf().String() }

// Count returns the number of entries currently stored.
func (h *Handle) Count() int { return h.body.count() }

// Bytes returns the total packed byte size across every sub-sequence.
func (h *Handle) Bytes() int {
	n := 0
	for i := 0; i < h.body.numSubsequences(); i++ {
		n += h.body.subsequence(i).Bytes()
	}
	return n
}

func (h *Handle) newEntry(cols ...element.Element) packedseq.Entry {
	if len(cols) != int(h.cfg.ElementsPerEntry) {
		panic("tiered: entry arity does not match Config.ElementsPerEntry")
	}
	return packedseq.Entry(cols)
}

// Insert performs a key-only sorted insert/replace (spec §4.2 Insert /
// §4.4.3). replaced reports whether an existing entry with an equal key
// was overwritten (only possible when cfg.MapIsSet). In list mode
// (!cfg.MapIsSet), a second Insert for a key already present is placed
// adjacent to the run of existing entries sharing that key, ordered only
// by the key column — not by the remaining columns. Callers that need
// several distinct payloads under one key, findable and deletable
// independently by full entry, should use InsertFullWidth for all of
// them (including the first) rather than mixing Insert and
// InsertFullWidth under the same key: ExistsFullWidth/DeleteFullWidth
// binary-search on the assumption that same-key entries are also
// ordered by their remaining columns, which only InsertFullWidth
// maintains.
func (h *Handle) Insert(resolver element.Resolver, cols ...element.Element) (replaced bool) {
	return h.insert(h.newEntry(cols...), resolver, false)
}

// InsertFullWidth compares on every column, permitting duplicate keys with
// distinct payloads (spec §4.2 InsertFullWidth / §4.4.2). Use it for every
// insert under a key that will carry more than one payload; see Insert's
// doc comment for why mixing the two under the same key is unsafe.
func (h *Handle) InsertFullWidth(resolver element.Resolver, cols ...element.Element) (replaced bool) {
	return h.insert(h.newEntry(cols...), resolver, true)
}

func (h *Handle) insert(entry packedseq.Entry, resolver element.Resolver, fullWidth bool) bool {
	replaced := h.body.insert(entry, resolver, h.cfg, fullWidth)
	h.promoteIfNeeded(resolver)
	return replaced
}

// promoteIfNeeded applies spec §4.1's promotion guards. Promotion never
// demotes and never runs on a failed guard — the tier is simply retained,
// oversize, until the next insert re-checks.
func (h *Handle) promoteIfNeeded(resolver element.Resolver) {
	switch t := h.body.(type) {
	case *smallTier:
		if t.bytes() > h.cfg.MaxSize && t.count() >= 2*int(h.cfg.ElementsPerEntry) {
			high := t.seq.SplitMiddle()
			t.seq.RefreshMiddle()
			h.body = newMediumTier(t.seq, high)
		}
	case *mediumTier:
		if t.seq[0].Count() > 0 && t.seq[1].Count() > 0 &&
			t.seq[0].Bytes()+t.seq[1].Bytes() > 3*h.cfg.MaxSize {
			h.body = newFullTier(h.cfg, t.seq[0], t.seq[1], resolver)
		}
	}
}

// Exists reports whether an entry with the given key is stored.
func (h *Handle) Exists(resolver element.Resolver, key element.Element) bool {
	_, ok := h.findByKey(resolver, key)
	return ok
}

// Lookup returns the full entry for key, if present.
func (h *Handle) Lookup(resolver element.Resolver, key element.Element) (packedseq.Entry, bool) {
	return h.findByKey(resolver, key)
}

// ExistsFullWidth reports whether the exact full entry (every column) is
// stored — distinct from Exists when duplicate keys carry distinct
// payloads.
func (h *Handle) ExistsFullWidth(resolver element.Resolver, cols ...element.Element) bool {
	_, ok := h.findEntry(h.newEntry(cols...), resolver, true)
	return ok
}

func (h *Handle) findByKey(resolver element.Resolver, key element.Element) (packedseq.Entry, bool) {
	probe := make(packedseq.Entry, h.cfg.ElementsPerEntry)
	probe[0] = key
	return h.findEntry(probe, resolver, false)
}

func (h *Handle) findEntry(target packedseq.Entry, resolver element.Resolver, fullWidth bool) (packedseq.Entry, bool) {
	cmp := compareFuncFor(target, resolver, fullWidth)
	switch t := h.body.(type) {
	case *smallTier:
		return t.find(cmp)
	case *mediumTier:
		return t.find(cmp)
	case *fullTier:
		return t.findEntry(target, resolver, fullWidth)
	default:
		panic("tiered: unknown tier body")
	}
}

// Delete removes the entry with the given key, if present.
func (h *Handle) Delete(resolver element.Resolver, key element.Element) bool {
	probe := make(packedseq.Entry, h.cfg.ElementsPerEntry)
	probe[0] = key
	return h.deleteEntry(probe, resolver, false)
}

// DeleteFullWidth removes the exact full entry, if present.
func (h *Handle) DeleteFullWidth(resolver element.Resolver, cols ...element.Element) bool {
	return h.deleteEntry(h.newEntry(cols...), resolver, true)
}

func (h *Handle) deleteEntry(target packedseq.Entry, resolver element.Resolver, fullWidth bool) bool {
	cmp := compareFuncFor(target, resolver, fullWidth)
	switch t := h.body.(type) {
	case *smallTier:
		return t.delete(cmp)
	case *mediumTier:
		return t.delete(cmp)
	case *fullTier:
		return t.deleteEntry(target, resolver, fullWidth)
	default:
		panic("tiered: unknown tier body")
	}
}

// DeleteLessEqual bulk-deletes every entry whose key is <= pivot (spec
// §4.4.6). On Small/Medium it degrades to a truncation of the one or two
// sub-sequences; the O(N + prefix-bytes) complexity bound is specific to
// Full, where whole partitions below the pivot are dropped untouched.
func (h *Handle) DeleteLessEqual(resolver element.Resolver, pivot element.Element) {
	h.body.deleteLessEqual(pivot, resolver)
}

// First returns the entry with the smallest key.
func (h *Handle) First() (packedseq.Entry, bool) { return h.body.first() }

// Last returns the entry with the largest key.
func (h *Handle) Last() (packedseq.Entry, bool) { return h.body.last() }

// Rank returns the 0-based position of key in ascending order, and whether
// key is present. This is a supplemented positional accessor (not part of
// spec §4's core contract, which explicitly excludes fractional-rank
// lookups) built generically atop numSubsequences/subsequence so it works
// unchanged across tier transitions.
func (h *Handle) Rank(resolver element.Resolver, key element.Element) (int, bool) {
	rank := 0
	for i := 0; i < h.body.numSubsequences(); i++ {
		seq := h.body.subsequence(i)
		if seq.Count() == 0 {
			continue
		}
		cmp := keyCompareFunc(key, resolver)
		c, found := seq.FindSorted(cmp)
		if found {
			return rank + c.Index(), true
		}
		tail, _ := seq.Tail()
		if element.Compare(key, tail.Key(), resolver) > 0 {
			rank += seq.Count()
			continue
		}
		return 0, false
	}
	return 0, false
}

// Reset discards all entries and returns the map to an empty Small tier.
// Spec §9 Open Question 1 preserves the source's "no automatic demotion"
// behavior; Reset is the explicit, caller-requested escape hatch it
// reserves.
func (h *Handle) Reset() {
	for i := 0; i < h.body.numSubsequences(); i++ {
		h.body.subsequence(i).Free()
	}
	h.body = newSmallTier(int(h.cfg.ElementsPerEntry))
}
