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

package packedseq

import (
	"testing"

	"github.com/dstore-go/tieredmap/pkg/tiered/element"
)

func entryOf(key int64, val string) Entry {
	return Entry{element.IntElement(key), element.BytesElement([]byte(val))}
}

func keyCmp(target int64) CompareFunc {
	return func(e Entry) int {
		k := e[0].Int()
		switch {
		case target < k:
			return -1
		case target > k:
			return 1
		default:
			return 0
		}
	}
}

func TestInsertReplaceSortedOrdersEntries(t *testing.T) {
	s := New(2)
	for _, k := range []int64{5, 1, 3, 2, 4} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	if s.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", s.Count())
	}
	for i := 0; i < s.Count(); i++ {
		c, _ := s.At(i)
		if got := c.Key().Int(); got != int64(i+1) {
			t.Errorf("entry %d key = %d, want %d", i, got, i+1)
		}
	}
}

func TestInsertReplaceSortedMapIsSet(t *testing.T) {
	s := New(2)
	s.InsertReplaceSorted(entryOf(1, "first"), keyCmp(1), true)
	replaced := s.InsertReplaceSorted(entryOf(1, "second"), keyCmp(1), true)
	if !replaced {
		t.Fatal("expected replaced=true for duplicate key under MapIsSet")
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 after replace", s.Count())
	}
	c, _ := s.Head()
	if string(c.Get()[1].Bytes()) != "second" {
		t.Fatalf("value = %q, want %q", c.Get()[1].Bytes(), "second")
	}
}

func TestInsertReplaceSortedListMode(t *testing.T) {
	s := New(2)
	s.InsertReplaceSorted(entryOf(1, "a"), keyCmp(1), false)
	replaced := s.InsertReplaceSorted(entryOf(1, "b"), keyCmp(1), false)
	if replaced {
		t.Fatal("expected replaced=false when MapIsSet is false")
	}
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 duplicate entries retained", s.Count())
	}
}

func TestFindSorted(t *testing.T) {
	s := New(2)
	for _, k := range []int64{10, 20, 30, 40} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	c, found := s.FindSorted(keyCmp(30))
	if !found || c.Key().Int() != 30 {
		t.Fatalf("FindSorted(30) = %v, %v", c, found)
	}
	_, found = s.FindSorted(keyCmp(25))
	if found {
		t.Fatal("FindSorted(25) should report not found")
	}
}

func TestDeleteAt(t *testing.T) {
	s := New(2)
	for _, k := range []int64{1, 2, 3} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	c, _ := s.FindSorted(keyCmp(2))
	s.DeleteAt(c)
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 after delete", s.Count())
	}
	if _, found := s.FindSorted(keyCmp(2)); found {
		t.Fatal("key 2 should be gone")
	}
}

func TestDeleteUpToInclusive(t *testing.T) {
	s := New(2)
	for _, k := range []int64{1, 2, 3, 4, 5} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	c, _ := s.FindSorted(keyCmp(3))
	s.DeleteUpToInclusive(c)
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	head, _ := s.Head()
	if head.Key().Int() != 4 {
		t.Fatalf("head key = %d, want 4", head.Key().Int())
	}
}

func TestSeek(t *testing.T) {
	s := New(2)
	for _, k := range []int64{10, 20, 30, 40} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	// Seek returns the first index whose entry sorts strictly after the
	// probe: seeking "at or before 25" should land just past key 20.
	pivot := int64(25)
	idx := s.Seek(func(e Entry) int {
		k := e[0].Int()
		switch {
		case k <= pivot:
			return 1
		default:
			return -1
		}
	})
	if idx != 2 {
		t.Fatalf("Seek = %d, want 2", idx)
	}
}

func TestSplitMiddle(t *testing.T) {
	s := New(2)
	for _, k := range []int64{1, 2, 3, 4, 5, 6} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	s.RefreshMiddle()
	high := s.SplitMiddle()
	if s.Count()+high.Count() != 6 {
		t.Fatalf("split lost entries: %d + %d != 6", s.Count(), high.Count())
	}
	lowTail, _ := s.Tail()
	highHead, _ := high.Head()
	if lowTail.Key().Int() >= highHead.Key().Int() {
		t.Fatalf("split not ordered: low tail %d >= high head %d", lowTail.Key().Int(), highHead.Key().Int())
	}
}

func TestBulkAppend(t *testing.T) {
	a := New(2)
	b := New(2)
	for _, k := range []int64{1, 2, 3} {
		a.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	for _, k := range []int64{4, 5} {
		b.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	BulkAppend(a, b)
	if a.Count() != 5 {
		t.Fatalf("Count() = %d, want 5 after BulkAppend", a.Count())
	}
	tail, _ := a.Tail()
	if tail.Key().Int() != 5 {
		t.Fatalf("tail key = %d, want 5", tail.Key().Int())
	}
}

func TestCursorNextPrev(t *testing.T) {
	s := New(2)
	for _, k := range []int64{1, 2, 3} {
		s.InsertReplaceSorted(entryOf(k, "v"), keyCmp(k), true)
	}
	c, _ := s.Head()
	c, ok := c.Next()
	if !ok || c.Key().Int() != 2 {
		t.Fatalf("Next() landed on %v, %v", c, ok)
	}
	c, ok = c.Prev()
	if !ok || c.Key().Int() != 1 {
		t.Fatalf("Prev() landed on %v, %v", c, ok)
	}
	_, ok = c.Prev()
	if ok {
		t.Fatal("Prev() before head should fail")
	}
}

func TestFreePoisons(t *testing.T) {
	s := New(2)
	s.InsertReplaceSorted(entryOf(1, "v"), keyCmp(1), true)
	s.Free()
	if s.Count() != -1 {
		// After Free, offs is nil so Count() = len(nil)-1 = -1: this is the
		// documented poisoned state, not a valid empty sequence.
		t.Fatalf("Count() after Free = %d, want -1 (poisoned)", s.Count())
	}
}
