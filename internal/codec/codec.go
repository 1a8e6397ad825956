// Package codec compresses cached player snapshots with zstd.
package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec holds a reusable zstd encoder and decoder. EncodeAll and DecodeAll are
// safe for concurrent use, so one Codec is shared by a store.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func New() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Codec{encoder: encoder, decoder: decoder}, nil
}

func (c *Codec) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))
}

func (c *Codec) Decompress(data []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

func (c *Codec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
