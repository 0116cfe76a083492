package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type msgpackCodec[V any] struct{}

// Msgpack encodes values with MessagePack. It is the default codec of the
// disk tier: compact, schema-less and handles most Go types including
// structs with `msgpack:"..."` tags.
func Msgpack[V any]() Codec[V] { return msgpackCodec[V]{} }

func (msgpackCodec[V]) Encode(v V) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return b, nil
}

func (msgpackCodec[V]) Decode(b []byte) (V, error) {
	var v V
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("msgpack decode: %w", err)
	}
	return v, nil
}
