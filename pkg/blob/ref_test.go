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

package blob

import "testing"

func TestRefFromStringIsDeterministic(t *testing.T) {
	a := RefFromString("hello")
	b := RefFromString("hello")
	if a != b {
		t.Fatalf("RefFromString(%q) not deterministic: %v != %v", "hello", a, b)
	}
	if RefFromString("hello") == RefFromString("world") {
		t.Fatal("distinct content produced the same ref")
	}
}

func TestRefFromStringKnownDigest(t *testing.T) {
	// Content-address of the empty string, the standard SHA-1 test vector.
	got := RefFromString("").String()
	want := "sha1-da39a3ee5e6b4b0d3255bfef95601890afd80709"
	if got != want {
		t.Fatalf("RefFromString(\"\").String() = %q, want %q", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	want := RefFromString("round trip me")
	ref, ok := Parse(want.String())
	if !ok {
		t.Fatalf("Parse(%q) failed", want.String())
	}
	if ref != want {
		t.Fatalf("Parse(%q) = %v, want %v", want.String(), ref, want)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"sha1-",
		"sha1-tooshort",
		"sha1-0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a3g", // non-hex trailing char
		"md5-0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33",  // unsupported digest name
		"0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33",      // missing "sha1-" prefix
	}
	for _, in := range cases {
		if _, ok := Parse(in); ok {
			t.Errorf("Parse(%q) succeeded, want failure", in)
		}
	}
}

func TestZeroRefIsInvalid(t *testing.T) {
	var zero Ref
	if zero.Valid() {
		t.Fatal("zero Ref reports Valid() = true")
	}
	if zero.String() != "<invalid-blob.Ref>" {
		t.Fatalf("zero Ref.String() = %q", zero.String())
	}
}

// TestRefAsMapKey exercises the property pkg/tiered/atomstore.Store relies
// on: Ref is a comparable value type usable directly as a map key.
func TestRefAsMapKey(t *testing.T) {
	m := map[Ref]int{}
	a := RefFromString("atom-a")
	b := RefFromString("atom-b")
	m[a] = 1
	m[b] = 2
	if m[a] != 1 || m[b] != 2 {
		t.Fatalf("map keyed by Ref misbehaved: %v", m)
	}
	if m[RefFromString("atom-a")] != 1 {
		t.Fatal("a freshly recomputed ref for the same content did not hit the same map entry")
	}
}
