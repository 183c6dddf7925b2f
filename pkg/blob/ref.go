/*
Copyright 2013 Google Inc.

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

// Package blob implements a content-addressed reference type: a value that
// names a piece of content by its SHA-1 digest, in Camlistore's
// "sha1-<hex>" string form. pkg/tiered/atomstore uses it as the id space
// for the atoms it stores; pkg/tiered/element uses it as the comparable,
// map-keyable surrogate (AtomID) a Ref element carries.
package blob

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// digestSize is the width of a SHA-1 digest.
const digestSize = sha1.Size

// Ref is a content-addressed reference. It is a value type: comparable
// with ==, and safe to use as a map key.
type Ref struct {
	digest [digestSize]byte
	valid  bool
}

// Valid reports whether r holds a digest (the zero Ref does not).
func (r Ref) Valid() bool { return r.valid }

// String returns r's "sha1-<hex>" form.
func (r Ref) String() string {
	if !r.valid {
		return "<invalid-blob.Ref>"
	}
	return "sha1-" + hex.EncodeToString(r.digest[:])
}

// Parse parses s as a "sha1-<hex>" ref and reports whether it was
// well-formed.
func Parse(s string) (ref Ref, ok bool) {
	const prefix = "sha1-"
	if !strings.HasPrefix(s, prefix) {
		return Ref{}, false
	}
	hexPart := s[len(prefix):]
	if len(hexPart) != digestSize*2 {
		return Ref{}, false
	}
	var buf [digestSize]byte
	if _, err := hex.Decode(buf[:], []byte(hexPart)); err != nil {
		return Ref{}, false
	}
	return Ref{digest: buf, valid: true}, true
}

// RefFromString returns the content-addressed ref of s's SHA-1 digest.
func RefFromString(s string) Ref {
	return Ref{digest: sha1.Sum([]byte(s)), valid: true}
}
