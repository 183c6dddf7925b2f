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
	"testing"

	"github.com/dstore-go/tieredmap/pkg/tiered/element"
)

// forceFull builds a Handle that is guaranteed to have promoted all the
// way to the Full tier by inserting enough distinct keys under a small
// maxSize.
func forceFull(t *testing.T, maxSize int, n int) *Handle {
	t.Helper()
	h := New(mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: maxSize}))
	for k := int64(0); k < int64(n); k++ {
		h.Insert(nil, element.IntElement(k), element.IntElement(k))
	}
	if h.Tier() != "full" {
		t.Fatalf("setup: tier = %q, want full", h.Tier())
	}
	return h
}

func TestFullTierRangeKeysStayConsistentWithPartitionHeads(t *testing.T) {
	h := forceFull(t, 64, 400)
	ft := h.body.(*fullTier)
	if len(ft.seqs) < 2 {
		t.Fatalf("expected multiple partitions, got %d", len(ft.seqs))
	}
	if len(ft.rangeKeys) != len(ft.seqs)-1 {
		t.Fatalf("len(rangeKeys) = %d, want %d (len(seqs)-1)", len(ft.rangeKeys), len(ft.seqs)-1)
	}
	for i, rk := range ft.rangeKeys {
		head, ok := ft.seqs[i+1].Head()
		if !ok {
			t.Fatalf("partition %d unexpectedly empty", i+1)
		}
		if element.Compare(rk, head.Key(), nil) != 0 {
			t.Fatalf("rangeKeys[%d] = %v, want first_key(seqs[%d]) = %v", i, rk, i+1, head.Key())
		}
	}
}

func TestFullTierPartitionsAreOrdered(t *testing.T) {
	h := forceFull(t, 64, 400)
	ft := h.body.(*fullTier)
	for i := 0; i < len(ft.seqs)-1; i++ {
		tail, ok := ft.seqs[i].Tail()
		if !ok {
			continue
		}
		head, ok := ft.seqs[i+1].Head()
		if !ok {
			continue
		}
		if tail.Key().Int() >= head.Key().Int() {
			t.Fatalf("partition %d tail (%d) >= partition %d head (%d)", i, tail.Key().Int(), i+1, head.Key().Int())
		}
	}
}

func TestFullTierFindAcrossAllPartitions(t *testing.T) {
	h := forceFull(t, 64, 400)
	for k := int64(0); k < 400; k++ {
		entry, ok := h.Lookup(nil, element.IntElement(k))
		if !ok || entry[1].Int() != k {
			t.Fatalf("Lookup(%d) = %v, %v, want %d, true", k, entry, ok, k)
		}
	}
	if h.Exists(nil, element.IntElement(-1)) {
		t.Fatal("Exists(-1) should be false: never inserted")
	}
	if h.Exists(nil, element.IntElement(400)) {
		t.Fatal("Exists(400) should be false: never inserted")
	}
}

// TestFullTierSingletonPartitionInsert shrinks a Full map down to scattered
// small (often one-entry) partitions via heavy deletion, then inserts around
// them. Its int entries are far smaller than maxSize, so no partition is
// oversize here and the oversize-singleton branch of fullTier.insert is not
// reached.
func TestFullTierSingletonPartitionInsert(t *testing.T) {
	h := forceFull(t, 32, 300)
	// Thin the map out to every 10th key, which tends to leave several
	// partitions holding just one surviving entry.
	for k := int64(0); k < 300; k++ {
		if k%10 != 0 {
			h.Delete(nil, element.IntElement(k))
		}
	}
	if h.Tier() != "full" {
		t.Fatalf("tier after thinning = %q, want full (no automatic demotion)", h.Tier())
	}
	// Now insert a new key between two of the thinned survivors and
	// confirm both old and new entries remain findable.
	h.Insert(nil, element.IntElement(5), element.IntElement(-5))
	if entry, ok := h.Lookup(nil, element.IntElement(5)); !ok || entry[1].Int() != -5 {
		t.Fatalf("Lookup(5) = %v, %v, want -5, true", entry, ok)
	}
	if entry, ok := h.Lookup(nil, element.IntElement(0)); !ok || entry[1].Int() != 0 {
		t.Fatalf("Lookup(0) = %v, %v, want 0, true", entry, ok)
	}
	if entry, ok := h.Lookup(nil, element.IntElement(10)); !ok || entry[1].Int() != 10 {
		t.Fatalf("Lookup(10) = %v, %v, want 10, true", entry, ok)
	}
}

func TestFullTierDeleteLessEqualDropsWholePartitions(t *testing.T) {
	h := forceFull(t, 64, 400)
	ft := h.body.(*fullTier)
	partitionsBefore := len(ft.seqs)

	h.DeleteLessEqual(nil, element.IntElement(199))

	if got := h.Count(); got != 200 {
		t.Fatalf("Count() = %d, want 200", got)
	}
	ft = h.body.(*fullTier)
	if len(ft.seqs) >= partitionsBefore {
		t.Fatalf("expected fewer partitions after bulk delete: before=%d, after=%d", partitionsBefore, len(ft.seqs))
	}
	for k := int64(0); k <= 199; k++ {
		if h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("key %d should have been dropped", k)
		}
	}
	for k := int64(200); k < 400; k++ {
		if !h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("key %d should have survived", k)
		}
	}
}

func TestFullTierFullWidthDuplicatesPartitionCorrectly(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: 64})
	cfg.MapIsSet = false
	h := New(cfg)
	// Build enough bulk to force promotion to Full, then add duplicate keys
	// with distinct full-width payloads and confirm each is independently
	// addressable via ExistsFullWidth/DeleteFullWidth.
	for k := int64(0); k < 300; k++ {
		h.Insert(nil, element.IntElement(k), element.IntElement(k))
	}
	if h.Tier() != "full" {
		t.Fatalf("tier = %q, want full", h.Tier())
	}
	for i := int64(0); i < 5; i++ {
		h.InsertFullWidth(nil, element.IntElement(150), element.IntElement(1000+i))
	}
	for i := int64(0); i < 5; i++ {
		if !h.ExistsFullWidth(nil, element.IntElement(150), element.IntElement(1000+i)) {
			t.Fatalf("ExistsFullWidth(150, %d) = false, want true", 1000+i)
		}
	}
	for i := int64(0); i < 5; i++ {
		if !h.DeleteFullWidth(nil, element.IntElement(150), element.IntElement(1000+i)) {
			t.Fatalf("DeleteFullWidth(150, %d) failed", 1000+i)
		}
	}
	// The original (150, 150) entry, inserted via key-only Insert, must
	// still be present.
	if !h.ExistsFullWidth(nil, element.IntElement(150), element.IntElement(150)) {
		t.Fatal("original (150, 150) entry should be unaffected by the duplicates' lifecycle")
	}
}
