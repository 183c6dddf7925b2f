/*
Copyright 2013 The Camlistore Authors

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

package sorted

import (
	"fmt"
	"sync"

	"github.com/dstore-go/tieredmap/pkg/jsonconfig"
	"github.com/dstore-go/tieredmap/pkg/tiered"
	"github.com/dstore-go/tieredmap/pkg/tiered/element"
	"github.com/dstore-go/tieredmap/pkg/tiered/packedseq"
)

func init() {
	RegisterKeyValue("memory", newMemoryKeyValueFromConfig)
}

func newMemoryKeyValueFromConfig(cfg jsonconfig.Obj) (KeyValue, error) {
	return NewMemoryKeyValue(), nil
}

// memKeyValue is a sorted.KeyValue backed directly by a tiered.Handle: the
// same map this module exists to implement, here playing the role the
// teacher's leveldb-go memdb once did — the in-memory reference backend
// every other KeyValue implementation is tested against. Keys and values
// are stored as the two byte-string columns of a (key, value) entry; Set's
// overwrite-on-duplicate-key semantics map directly onto a key-only,
// mapIsSet tiered map.
type memKeyValue struct {
	mu sync.RWMutex
	h  *tiered.Handle
}

var _ KeyValue = (*memKeyValue)(nil)

// NewMemoryKeyValue returns an empty, in-memory sorted.KeyValue.
func NewMemoryKeyValue() *memKeyValue {
	cfg := tiered.DefaultConfig()
	cfg.ElementsPerEntry = 2
	cfg.MapIsSet = true
	return &memKeyValue{h: tiered.New(cfg)}
}

func keyElem(s string) element.Element { return element.BytesElement([]byte(s)) }

func (m *memKeyValue) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.h.Lookup(nil, keyElem(key))
	if !ok {
		return "", ErrNotFound
	}
	return string(entry[1].Bytes()), nil
}

func (m *memKeyValue) Set(key, value string) error {
	if err := CheckSizes(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.h.Insert(nil, keyElem(key), keyElem(value))
	return nil
}

func (m *memKeyValue) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.h.Delete(nil, keyElem(key))
	return nil
}

func (m *memKeyValue) BeginBatch() BatchMutation {
	return NewBatchMutation()
}

func (m *memKeyValue) CommitBatch(bm BatchMutation) error {
	b, ok := bm.(*batch)
	if !ok {
		return fmt.Errorf("sorted: unexpected BatchMutation type %T", bm)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mut := range b.Mutations() {
		if mut.IsDelete() {
			m.h.Delete(nil, keyElem(mut.Key()))
			continue
		}
		if err := CheckSizes(mut.Key(), mut.Value()); err != nil {
			return err
		}
		m.h.Insert(nil, keyElem(mut.Key()), keyElem(mut.Value()))
	}
	return nil
}

func (m *memKeyValue) Close() error { return nil }

func (m *memKeyValue) Find(start, end string) Iterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var it *tiered.Iterator
	if start == "" {
		it = tiered.NewIterator(m.h, nil, true)
	} else {
		it = tiered.InitAt(m.h, nil, keyElem(start), true)
	}
	return &memIter{it: it, end: end}
}

// memIter adapts a tiered.Iterator (which walks the whole map) to
// sorted.Iterator's half-open [start, end) window by stopping the first
// time a key lands at or past end.
type memIter struct {
	it  *tiered.Iterator
	end string
	cur packedseq.Entry
}

func (it *memIter) Next() bool {
	e, ok := it.it.Next()
	if !ok {
		return false
	}
	if it.end != "" && string(e[0].Bytes()) >= it.end {
		return false
	}
	it.cur = e
	return true
}

func (it *memIter) Key() string        { return string(it.cur[0].Bytes()) }
func (it *memIter) Value() string      { return string(it.cur[1].Bytes()) }
func (it *memIter) KeyBytes() []byte   { return it.cur[0].Bytes() }
func (it *memIter) ValueBytes() []byte { return it.cur[1].Bytes() }
func (it *memIter) Close() error       { return nil }
