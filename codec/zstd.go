package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec[V any] struct {
	inner   Codec[V]
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Zstd compresses the output of inner. Encoder and decoder are created once
// and shared; EncodeAll/DecodeAll are safe for concurrent use.
func Zstd[V any](inner Codec[V], opts ...zstd.EOption) (Codec[V], error) {
	encoder, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdCodec[V]{inner: inner, encoder: encoder, decoder: decoder}, nil
}

func (z *zstdCodec[V]) Encode(v V) ([]byte, error) {
	raw, err := z.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return z.encoder.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

func (z *zstdCodec[V]) Decode(b []byte) (V, error) {
	raw, err := z.decoder.DecodeAll(b, nil)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("zstd decode: %w", err)
	}
	return z.inner.Decode(raw)
}
