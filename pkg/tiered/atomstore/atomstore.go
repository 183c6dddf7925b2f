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

// Package atomstore implements the atom/reference container collaborator
// of spec §6.2: a map from atom id to (payload, refcount) used only by
// surrogate-keyed tiered maps. An atom id is content-addressed exactly the
// way a blob is in pkg/blob — an AtomID is a blob.Ref over the atom's
// packed-sequence encoding — so Put is idempotent on equal values the same
// way re-uploading an identical blob is a no-op beyond a refcount bump.
package atomstore

import (
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/dstore-go/tieredmap/pkg/blob"
	"github.com/dstore-go/tieredmap/pkg/lru"
	"github.com/dstore-go/tieredmap/pkg/tiered/element"
)

type record struct {
	val      element.Element
	refcount int
}

// Store is an in-memory, refcounted atom container. It implements
// element.Resolver so it can be borrowed directly by tiered-map
// operations in surrogate mode.
type Store struct {
	mu      sync.Mutex
	records map[element.AtomID]*record

	// cache holds a bounded set of recently resolved atoms, avoiding the
	// map+mutex round trip on the hot compare path for repeatedly probed
	// ids. It never changes Resolve's answer, only its latency — grounded
	// on pkg/lru.Cache, the teacher's container/list-backed LRU.
	cache *lru.Cache
}

// New returns an empty atom store. cacheSize bounds the hot-resolve cache;
// 0 disables it.
func New(cacheSize int) *Store {
	s := &Store{records: make(map[element.AtomID]*record)}
	if cacheSize > 0 {
		s.cache = lru.New(cacheSize)
	}
	return s
}

// idFor computes the content address of v: the atom id any two equal
// values hash to, so Put is naturally idempotent.
func idFor(v element.Element) element.AtomID {
	raw, err := cbor.Marshal(v)
	if err != nil {
		// v came from the element package, which always encodes known
		// kinds; a failure here is a programmer error (unknown kind).
		panic("atomstore: cannot encode element for content-addressing: " + err.Error())
	}
	return blob.RefFromString(string(raw))
}

// Put stores v (incrementing its refcount if already present) and returns
// its atom id.
func (s *Store) Put(v element.Element) element.AtomID {
	id := idFor(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		r = &record{val: v}
		s.records[id] = r
	}
	r.refcount++
	if s.cache != nil {
		s.cache.Add(id.String(), v)
	}
	return id
}

// Retain increments id's refcount. The caller must already hold a
// reference (e.g. from Put or a prior Retain); refcount maintenance
// beyond Resolve is the caller's responsibility per spec §6.2.
func (s *Store) Retain(id element.AtomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		r.refcount++
	}
}

// Release decrements id's refcount, removing the record (and returning
// true) when it reaches zero.
func (s *Store) Release(id element.AtomID) (removed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return false
	}
	r.refcount--
	if r.refcount <= 0 {
		delete(s.records, id)
		if s.cache != nil {
			s.cache.Remove(id.String())
		}
		return true
	}
	return false
}

// Resolve implements element.Resolver.
func (s *Store) Resolve(id element.AtomID) (element.Element, bool) {
	if s.cache != nil {
		if v, ok := s.cache.Get(id.String()); ok {
			return v.(element.Element), true
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return element.Element{}, false
	}
	if s.cache != nil {
		s.cache.Add(id.String(), r.val)
	}
	return r.val, true
}

// RefCount reports id's current refcount, or 0 if unknown. Diagnostic
// only; not part of the tiered-map operation surface.
func (s *Store) RefCount(id element.AtomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return r.refcount
	}
	return 0
}

// Len reports the number of distinct atoms currently stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
