// Package codec converts tier values to bytes and back.
//
// A disk tier treats the encoded form as opaque: there is no framing,
// versioning or checksum around it. Bytes that fail to decode are a miss.
package codec

// Codec serializes values of type V.
// Implementations must be safe for concurrent use.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
}

// Funcs adapts a pair of functions to Codec.
type Funcs[V any] struct {
	EncodeFunc func(V) ([]byte, error)
	DecodeFunc func([]byte) (V, error)
}

func (f Funcs[V]) Encode(v V) ([]byte, error) { return f.EncodeFunc(v) }
func (f Funcs[V]) Decode(b []byte) (V, error) { return f.DecodeFunc(b) }

// Raw passes byte slices through unchanged. Decode copies its input.
func Raw() Codec[[]byte] {
	return Funcs[[]byte]{
		EncodeFunc: func(b []byte) ([]byte, error) { return b, nil },
		DecodeFunc: func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil },
	}
}
