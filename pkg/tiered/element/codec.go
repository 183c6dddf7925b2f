package element

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/dstore-go/tieredmap/pkg/blob"
)

// wireElement is the on-the-wire shape of an Element: a discriminant plus
// whichever value field the discriminant says is live. Sharing one float64
// field between Double and Half lets the shared encMode's ShortestFloat
// setting do the framing work: a half-precision-representable value is
// written as CBOR major-type-7 float16 (via the same x448/float16 machinery
// that backs the in-memory Half element), a true double stays a float64.
type wireElement struct {
	K Kind
	I int64   `cbor:",omitempty"`
	U uint64  `cbor:",omitempty"`
	F float64 `cbor:",omitempty"`
	B []byte  `cbor:",omitempty"`
	R string  `cbor:",omitempty"`
}

var encMode = func() cbor.EncMode {
	opts := cbor.CoreDetEncOptions()
	opts.ShortestFloat = cbor.ShortestFloat16
	m, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// MarshalCBOR implements cbor.Marshaler, making Element self-describing
// within any packed sequence that encodes entries with encoding/cbor.
func (e Element) MarshalCBOR() ([]byte, error) {
	w := wireElement{K: e.kind}
	switch e.kind {
	case Void:
	case Bool:
		w.I = e.i
	case Int:
		w.I = e.i
	case Uint:
		w.U = e.u
	case Double:
		w.F = e.f
	case Half:
		w.F = float64(e.half.Float32())
	case Bytes:
		w.B = e.b
	case Ref:
		w.R = e.ref.String()
	default:
		return nil, fmt.Errorf("element: cannot marshal unknown kind %v", e.kind)
	}
	return encMode.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (e *Element) UnmarshalCBOR(data []byte) error {
	var w wireElement
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Element{kind: w.K}
	switch w.K {
	case Void:
	case Bool:
		out.i = w.I
	case Int:
		out.i = w.I
	case Uint:
		out.u = w.U
	case Double:
		out.f = w.F
	case Half:
		out.half = float16.Fromfloat32(float32(w.F))
	case Bytes:
		out.b = w.B
	case Ref:
		ref, ok := blob.Parse(w.R)
		if !ok {
			return fmt.Errorf("element: invalid ref string %q", w.R)
		}
		out.ref = ref
	default:
		return fmt.Errorf("element: cannot unmarshal unknown kind %v", w.K)
	}
	*e = out
	return nil
}
