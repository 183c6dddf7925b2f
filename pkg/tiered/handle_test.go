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
	"fmt"
	"math"
	"testing"

	"github.com/dstore-go/tieredmap/pkg/blob"
	"github.com/dstore-go/tieredmap/pkg/tiered/element"
)

func mustConfig(t *testing.T, cfg Config) Config {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid config: %v", err)
	}
	return cfg
}

// TestTierPromotionChain is spec scenario S1: inserting 0..500 under a
// small maxSize drives the handle through Small -> Medium -> Full, and
// every key remains independently findable throughout.
func TestTierPromotionChain(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: 64})
	h := New(cfg)

	seenTiers := map[string]bool{}
	const n = 500
	for k := int64(0); k < n; k++ {
		h.Insert(nil, element.IntElement(k), element.IntElement(k*2))
		seenTiers[h.Tier()] = true
	}

	for _, want := range []string{"small", "medium", "full"} {
		if !seenTiers[want] {
			t.Errorf("tier %q was never observed during promotion chain", want)
		}
	}
	if got := h.Count(); got != n {
		t.Fatalf("Count() = %d, want %d", got, n)
	}
	for k := int64(0); k < n; k++ {
		entry, ok := h.Lookup(nil, element.IntElement(k))
		if !ok {
			t.Fatalf("Lookup(%d) not found", k)
		}
		if got := entry[1].Int(); got != k*2 {
			t.Fatalf("Lookup(%d) = %d, want %d", k, got, k*2)
		}
	}

	it := NewIterator(h, nil, true)
	for k := int64(0); k < n; k++ {
		e, ok := it.Next()
		if !ok {
			t.Fatalf("iterator exhausted early at k=%d", k)
		}
		if e[0].Int() != k || e[1].Int() != k*2 {
			t.Fatalf("iterator entry %d = (%d, %d), want (%d, %d)", k, e[0].Int(), e[1].Int(), k, k*2)
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatal("iterator should be exhausted after 500 entries")
	}
}

// TestDuplicateKeyReplacement is spec scenario S2.
func TestDuplicateKeyReplacement(t *testing.T) {
	cfg := mustConfig(t, DefaultConfig())
	cfg.MapIsSet = true
	h := New(cfg)

	if replaced := h.Insert(nil, element.IntElement(42), element.IntElement(100)); replaced {
		t.Fatal("first insert should report replaced=false")
	}
	if h.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", h.Count())
	}
	if replaced := h.Insert(nil, element.IntElement(42), element.IntElement(200)); !replaced {
		t.Fatal("second insert of the same key should report replaced=true")
	}
	if h.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after replace", h.Count())
	}
	entry, ok := h.Lookup(nil, element.IntElement(42))
	if !ok || entry[1].Int() != 200 {
		t.Fatalf("Lookup(42) = %v, %v, want 200, true", entry, ok)
	}
}

// TestFullWidthDuplicates is spec scenario S3.
func TestFullWidthDuplicates(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: defaultTestMaxSize})
	cfg.MapIsSet = false
	h := New(cfg)

	const n = 100
	for i := int64(0); i < n; i++ {
		h.InsertFullWidth(nil, element.IntElement(10), element.IntElement(i))
	}
	if got := h.Count(); got != n {
		t.Fatalf("Count() = %d, want %d", got, n)
	}
	for i := int64(0); i < n; i++ {
		if !h.ExistsFullWidth(nil, element.IntElement(10), element.IntElement(i)) {
			t.Fatalf("ExistsFullWidth(10, %d) = false, want true", i)
		}
	}
	for i := int64(0); i < n; i++ {
		if !h.DeleteFullWidth(nil, element.IntElement(10), element.IntElement(i)) {
			t.Fatalf("DeleteFullWidth(10, %d) failed", i)
		}
	}
	if got := h.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0 after deleting every duplicate", got)
	}
}

const defaultTestMaxSize = 2048

// TestBoundaryIntegers is spec scenario S4.
func TestBoundaryIntegers(t *testing.T) {
	cfg := mustConfig(t, DefaultConfig())
	h := New(cfg)

	keys := []int64{math.MinInt64, math.MinInt64 + 1, -1, 0, 1, math.MaxInt64 - 1, math.MaxInt64}
	for i, k := range keys {
		h.Insert(nil, element.IntElement(k), element.IntElement(int64(i)))
	}
	for i, k := range keys {
		if !h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("Exists(%d) = false, want true", k)
		}
		entry, ok := h.Lookup(nil, element.IntElement(k))
		if !ok || entry[1].Int() != int64(i) {
			t.Fatalf("Lookup(%d) = %v, %v, want %d, true", k, entry, ok, i)
		}
	}

	order := []int{3, 0, 6, 2, 5, 1, 4}
	for _, idx := range order {
		if !h.Delete(nil, element.IntElement(keys[idx])) {
			t.Fatalf("Delete(%d) failed", keys[idx])
		}
	}
	if got := h.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0 after deleting every key", got)
	}
}

// TestDeleteCausingMerge is spec scenario S5.
func TestDeleteCausingMerge(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: 256})
	h := New(cfg)

	const n = 500
	for k := int64(0); k < n; k++ {
		h.Insert(nil, element.IntElement(k), element.IntElement(k))
	}
	if h.Tier() != "full" {
		t.Fatalf("tier = %q, want full after 500 inserts at maxSize=256", h.Tier())
	}

	for k := int64(0); k < n-10; k++ {
		if !h.Delete(nil, element.IntElement(k)) {
			t.Fatalf("Delete(%d) failed", k)
		}
	}
	if got := h.Count(); got != 10 {
		t.Fatalf("Count() = %d, want 10", got)
	}
	for k := int64(n - 10); k < n; k++ {
		if !h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("Exists(%d) = false, want true for a surviving key", k)
		}
	}
}

func TestFirstLast(t *testing.T) {
	h := New(mustConfig(t, DefaultConfig()))
	if _, ok := h.First(); ok {
		t.Fatal("First() on empty map should report ok=false")
	}
	for _, k := range []int64{5, 1, 9, 3} {
		h.Insert(nil, element.IntElement(k), element.VoidElement())
	}
	first, ok := h.First()
	if !ok || first[0].Int() != 1 {
		t.Fatalf("First() = %v, %v, want key 1", first, ok)
	}
	last, ok := h.Last()
	if !ok || last[0].Int() != 9 {
		t.Fatalf("Last() = %v, %v, want key 9", last, ok)
	}
}

func TestDeleteLessEqual(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: 128})
	h := New(cfg)
	const n = 200
	for k := int64(0); k < n; k++ {
		h.Insert(nil, element.IntElement(k), element.IntElement(k))
	}
	h.DeleteLessEqual(nil, element.IntElement(99))
	if got := h.Count(); got != n-100 {
		t.Fatalf("Count() = %d, want %d after DeleteLessEqual(99)", got, n-100)
	}
	for k := int64(0); k <= 99; k++ {
		if h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("key %d should have been dropped by DeleteLessEqual", k)
		}
	}
	for k := int64(100); k < n; k++ {
		if !h.Exists(nil, element.IntElement(k)) {
			t.Fatalf("key %d should have survived DeleteLessEqual", k)
		}
	}
}

func TestRankAndReset(t *testing.T) {
	h := New(mustConfig(t, DefaultConfig()))
	for _, k := range []int64{10, 20, 30, 40} {
		h.Insert(nil, element.IntElement(k), element.VoidElement())
	}
	rank, ok := h.Rank(nil, element.IntElement(30))
	if !ok || rank != 2 {
		t.Fatalf("Rank(30) = %d, %v, want 2, true", rank, ok)
	}
	if _, ok := h.Rank(nil, element.IntElement(25)); ok {
		t.Fatal("Rank(25) should report not found")
	}

	h.Reset()
	if h.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 after Reset", h.Count())
	}
	if h.Tier() != "small" {
		t.Fatalf("Tier() = %q, want small after Reset", h.Tier())
	}
}

func TestSurrogateKeysResolveThroughResolver(t *testing.T) {
	cfg := mustConfig(t, Config{ElementsPerEntry: 2, MaxSize: defaultTestMaxSize, IsSurrogate: true})
	h := New(cfg)
	r := fakeResolver{}
	idA := r.put(element.IntElement(1))
	idB := r.put(element.IntElement(2))

	h.Insert(r, element.RefElement(idA), element.BytesElement([]byte("one")))
	h.Insert(r, element.RefElement(idB), element.BytesElement([]byte("two")))

	entry, ok := h.Lookup(r, element.IntElement(1))
	if !ok {
		t.Fatal("Lookup by resolved key value should find the surrogate entry")
	}
	if string(entry[1].Bytes()) != "one" {
		t.Fatalf("Lookup value = %q, want %q", entry[1].Bytes(), "one")
	}
}

type fakeResolver map[element.AtomID]element.Element

func (f fakeResolver) put(v element.Element) element.AtomID {
	id := blob.RefFromString(fmt.Sprintf("atom-%d", len(f)))
	f[id] = v
	return id
}

func (f fakeResolver) Resolve(id element.AtomID) (element.Element, bool) {
	v, ok := f[id]
	return v, ok
}
