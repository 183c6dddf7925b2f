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

package element

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/dstore-go/tieredmap/pkg/blob"
)

func TestCompareTypeClasses(t *testing.T) {
	elems := []Element{
		VoidElement(),
		BoolElement(false),
		IntElement(-5),
		DoubleElement(3.25),
		BytesElement([]byte("z")),
	}
	for i := 0; i < len(elems); i++ {
		for j := i + 1; j < len(elems); j++ {
			if c := Compare(elems[i], elems[j], nil); c >= 0 {
				t.Errorf("Compare(%v, %v) = %d, want < 0 (type class order)", elems[i].Kind(), elems[j].Kind(), c)
			}
		}
	}
}

func TestCompareNumericCoercion(t *testing.T) {
	cases := []struct {
		a, b Element
		want int
	}{
		{IntElement(1), UintElement(2), -1},
		{UintElement(5), IntElement(5), 0},
		{IntElement(-1), IntElement(1), -1},
		{DoubleElement(1.5), IntElement(1), 1},
		{IntElement(2), DoubleElement(2.0), 0},
		{IntElement(-10), UintElement(0), -1},
	}
	for _, c := range cases {
		got := Compare(c.a, c.b, nil)
		if sign(got) != sign(c.want) {
			t.Errorf("Compare(%+v, %+v) = %d, want sign %d", c.a, c.b, got, c.want)
		}
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

func TestCompareBytesLexicographic(t *testing.T) {
	a := BytesElement([]byte("abc"))
	b := BytesElement([]byte("abd"))
	if Compare(a, b, nil) >= 0 {
		t.Fatalf("Compare(abc, abd) should be negative")
	}
	if !Equal(a, BytesElement([]byte("abc")), nil) {
		t.Fatalf("Equal should report equal byte strings as equal")
	}
}

type fakeResolver map[AtomID]Element

func (f fakeResolver) Resolve(id AtomID) (Element, bool) {
	v, ok := f[id]
	return v, ok
}

func TestCompareThroughResolver(t *testing.T) {
	id := blob.RefFromString("hello")
	resolver := fakeResolver{id: IntElement(42)}
	ref := RefElement(id)
	if Compare(ref, IntElement(42), resolver) != 0 {
		t.Fatalf("surrogate element should compare equal to its resolved value")
	}
	if Compare(ref, IntElement(43), resolver) >= 0 {
		t.Fatalf("surrogate element should compare via its resolved value")
	}
}

func TestCompareUnresolvedRefPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic comparing a Ref with no resolver")
		}
	}()
	Compare(RefElement(blob.RefFromString("x")), IntElement(1), nil)
}

func TestCopyOfDetachesBytes(t *testing.T) {
	orig := []byte("mutate-me")
	e := BytesElement(orig)
	cp := e.CopyOf()
	orig[0] = 'X'
	if cp.Bytes()[0] == 'X' {
		t.Fatal("CopyOf should have taken a deep copy of the byte slice")
	}
}

func TestCBORRoundTrip(t *testing.T) {
	cases := []Element{
		VoidElement(),
		BoolElement(true),
		BoolElement(false),
		IntElement(-123456789),
		UintElement(123456789),
		DoubleElement(3.14159),
		HalfElement(float16.Fromfloat32(1.5)),
		BytesElement([]byte("round trip me")),
		RefElement(blob.RefFromString("atom-value")),
	}
	for _, e := range cases {
		raw, err := cbor.Marshal(e)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", e.Kind(), err)
		}
		var got Element
		if err := cbor.Unmarshal(raw, &got); err != nil {
			t.Fatalf("Unmarshal(%v): %v", e.Kind(), err)
		}
		if got.Kind() != e.Kind() {
			t.Fatalf("round trip kind = %v, want %v", got.Kind(), e.Kind())
		}
		if e.Kind() == Ref {
			if got.Ref() != e.Ref() {
				t.Errorf("round trip Ref: got %v, want %v", got.Ref(), e.Ref())
			}
		} else if !Equal(got, e, nil) {
			t.Errorf("round trip %v: got %+v, want %+v", e.Kind(), got, e)
		}
	}
}
