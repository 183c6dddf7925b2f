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

// entryCompare compares two entries of equal arity element-by-element,
// left to right, returning the first nonzero column comparison — the
// full-width ordering spec §4.2 describes as a "two-finger scan".
func entryCompare(a, b packedseq.Entry, resolver element.Resolver) int {
	for i := range a {
		if c := element.Compare(a[i], b[i], resolver); c != 0 {
			return c
		}
	}
	return 0
}

// keyCompareFunc builds a packedseq.CompareFunc comparing only the key
// (first) column of target against each probed entry.
func keyCompareFunc(target element.Element, resolver element.Resolver) packedseq.CompareFunc {
	return func(existing packedseq.Entry) int {
		return element.Compare(target, existing[0], resolver)
	}
}

// entryCompareFunc builds a packedseq.CompareFunc comparing every column
// of target against each probed entry (full-width / set-of-tuples mode).
func entryCompareFunc(target packedseq.Entry, resolver element.Resolver) packedseq.CompareFunc {
	return func(existing packedseq.Entry) int {
		return entryCompare(target, existing, resolver)
	}
}

// compareFuncFor picks the key-only or full-width comparator depending on
// fullWidth, both built against entry.
func compareFuncFor(entry packedseq.Entry, resolver element.Resolver, fullWidth bool) packedseq.CompareFunc {
	if fullWidth {
		return entryCompareFunc(entry, resolver)
	}
	return keyCompareFunc(entry[0], resolver)
}

// materialize returns a deep, resolved copy of e suitable for storing as a
// Full-tier range key (spec §3.2 invariant 3): if e is a surrogate Ref, it
// is dereferenced through resolver and the underlying value is copied; a
// direct element is simply copied.
func materialize(e element.Element, resolver element.Resolver, isSurrogate bool) element.Element {
	if isSurrogate && e.IsRef() {
		v, ok := resolver.Resolve(e.Ref())
		if !ok {
			panic("tiered: range-key source atom id did not resolve")
		}
		return v.CopyOf()
	}
	return e.CopyOf()
}
