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

// Package element defines the typed, totally-ordered value stored in each
// column of a tiered-map entry, and the external-reference (atom)
// indirection used by surrogate-keyed maps.
package element

import (
	"bytes"
	"fmt"

	"github.com/x448/float16"

	"github.com/dstore-go/tieredmap/pkg/blob"
)

// Kind discriminates the representation held by an Element.
type Kind uint8

const (
	// Void is the zero Kind: an element carrying no value, used as a
	// placeholder payload column.
	Void Kind = iota
	Bool
	Int    // signed integer
	Uint   // unsigned integer
	Double // 64-bit float
	Half   // 16-bit float
	Bytes
	Ref // atom id: the real value lives behind an external Resolver
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Double:
		return "double"
	case Half:
		return "half"
	case Bytes:
		return "bytes"
	case Ref:
		return "ref"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// AtomID is a surrogate key: a content address for a value stored outside
// the tiered map, resolved through a Resolver at compare time. It is
// the same shape as blob.Ref — a fixed-width comparable value usable as a
// map key — because an atom, like a blob, is identified by the content it
// stands in for.
type AtomID = blob.Ref

// Element is a typed, self-describing value with a total order. The zero
// Element is Void.
type Element struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	half float16.Float16
	b    []byte
	ref  AtomID
}

// VoidElement returns the void element.
func VoidElement() Element { return Element{kind: Void} }

// BoolElement wraps a boolean.
func BoolElement(v bool) Element {
	var i int64
	if v {
		i = 1
	}
	return Element{kind: Bool, i: i}
}

// IntElement wraps a signed integer.
func IntElement(v int64) Element { return Element{kind: Int, i: v} }

// UintElement wraps an unsigned integer.
func UintElement(v uint64) Element { return Element{kind: Uint, u: v} }

// DoubleElement wraps a 64-bit float.
func DoubleElement(v float64) Element { return Element{kind: Double, f: v} }

// HalfElement wraps a 16-bit float.
func HalfElement(v float16.Float16) Element { return Element{kind: Half, half: v} }

// BytesElement wraps a byte string. The slice is retained, not copied;
// callers that need an owned copy should use CopyOf.
func BytesElement(v []byte) Element { return Element{kind: Bytes, b: v} }

// RefElement wraps an atom id (surrogate key).
func RefElement(id AtomID) Element { return Element{kind: Ref, ref: id} }

// Kind returns the element's representation tag.
func (e Element) Kind() Kind { return e.kind }

// IsRef reports whether the element is a surrogate atom id requiring
// resolution before it can be compared or inspected.
func (e Element) IsRef() bool { return e.kind == Ref }

// Ref returns the atom id. Only valid when Kind() == Ref.
func (e Element) Ref() AtomID { return e.ref }

// Bool returns the boolean value. Only valid when Kind() == Bool.
func (e Element) Bool() bool { return e.i != 0 }

// Int returns the signed integer value. Only valid when Kind() == Int.
func (e Element) Int() int64 { return e.i }

// Uint returns the unsigned integer value. Only valid when Kind() == Uint.
func (e Element) Uint() uint64 { return e.u }

// Double returns the float64 value. Only valid when Kind() == Double.
func (e Element) Double() float64 { return e.f }

// Half returns the float16 value. Only valid when Kind() == Half.
func (e Element) Half() float16.Float16 { return e.half }

// Bytes returns the byte-string value. Only valid when Kind() == Bytes.
func (e Element) Bytes() []byte { return e.b }

// CopyOf returns a deep copy of e; used for range-key materialization
// (spec §3.2 invariant 3), where the copy must outlive the original
// packed sequence entry it was taken from.
func (e Element) CopyOf() Element {
	if e.kind != Bytes || e.b == nil {
		return e
	}
	cp := make([]byte, len(e.b))
	copy(cp, e.b)
	e.b = cp
	return e
}

// Resolver dereferences an atom id to its underlying element. It is a
// borrowed collaborator: the tiered map never owns it and never mutates
// through it (spec §6.2).
type Resolver interface {
	Resolve(id AtomID) (Element, bool)
}

// typeClass groups element kinds into the ordering classes required by
// spec §3.1(a)/(b): Void, then Bool, then the numeric kinds compared by
// coercion, then Bytes. Ref is resolved away before classification; a Ref
// reaching typeClass is a programmer error (an unresolved surrogate
// compared without a Resolver).
func typeClass(k Kind) int {
	switch k {
	case Void:
		return 0
	case Bool:
		return 1
	case Int, Uint, Double, Half:
		return 2
	case Bytes:
		return 3
	default:
		panic(fmt.Sprintf("element: unresolved or unknown kind %v in compare", k))
	}
}

// resolve follows e through resolver if it's a Ref, panicking (a
// programmer error, not a runtime one — see spec §7) if e is a Ref and no
// resolver was supplied, or the id doesn't resolve.
func resolve(e Element, resolver Resolver) Element {
	if e.kind != Ref {
		return e
	}
	if resolver == nil {
		panic("element: compared a surrogate (Ref) element with a nil Resolver")
	}
	v, ok := resolver.Resolve(e.ref)
	if !ok {
		panic(fmt.Sprintf("element: atom id %v did not resolve", e.ref))
	}
	return v
}

// asFloat64 widens any numeric kind to float64 for the common-numeric
// comparison rule of spec §3.1(b). This is an approximation where exact
// int64/uint64 values near the float64 mantissa limit lose precision;
// exactInt below is tried first to avoid that for the common case of two
// integer-kinded elements.
func asFloat64(e Element) float64 {
	switch e.kind {
	case Int:
		return float64(e.i)
	case Uint:
		return float64(e.u)
	case Double:
		return e.f
	case Half:
		return float64(e.half.Float32())
	default:
		panic("element: asFloat64 on non-numeric kind " + e.kind.String())
	}
}

// exactInt reports whether e is an Int or Uint and returns its value
// widened losslessly into a pair (neg, mag): neg is true iff the value is
// negative, mag is its absolute value as a uint64 (safe since
// |math.MinInt64| fits in uint64).
func exactInt(e Element) (neg bool, mag uint64, ok bool) {
	switch e.kind {
	case Int:
		if e.i < 0 {
			return true, uint64(-(e.i + 1)) + 1, true
		}
		return false, uint64(e.i), true
	case Uint:
		return false, e.u, true
	default:
		return false, 0, false
	}
}

// numericCompare implements §3.1(b): within the numeric class, integers
// are compared exactly when both sides are integer-kinded; otherwise both
// sides are widened to float64.
func numericCompare(a, b Element) int {
	aNeg, aMag, aOK := exactInt(a)
	bNeg, bMag, bOK := exactInt(b)
	if aOK && bOK {
		switch {
		case aNeg && !bNeg:
			return -1
		case !aNeg && bNeg:
			return 1
		case !aNeg && !bNeg:
			return cmpUint64(aMag, bMag)
		default: // both negative: larger magnitude sorts first (more negative)
			return cmpUint64(bMag, aMag)
		}
	}
	af, bf := asFloat64(a), asFloat64(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Compare orders two elements under the total order of spec §3.1. resolver
// may be nil when neither element is a Ref (direct / non-surrogate mode);
// it must be non-nil otherwise.
func Compare(a, b Element, resolver Resolver) int {
	a = resolve(a, resolver)
	b = resolve(b, resolver)

	ca, cb := typeClass(a.kind), typeClass(b.kind)
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case 0: // Void
		return 0
	case 1: // Bool
		switch {
		case a.Bool() == b.Bool():
			return 0
		case !a.Bool():
			return -1
		default:
			return 1
		}
	case 2: // numeric
		return numericCompare(a, b)
	case 3: // bytes
		return bytes.Compare(a.b, b.b)
	default:
		panic("unreachable")
	}
}

// Equal reports whether a and b compare equal under Compare.
func Equal(a, b Element, resolver Resolver) bool {
	return Compare(a, b, resolver) == 0
}
