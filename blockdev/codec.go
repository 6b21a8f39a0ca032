package blockdev

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCodecCorrupt is returned when an encoded block cannot be decoded back
// to exactly one block.
var ErrCodecCorrupt = errors.New("blockdev: corrupt encoded block")

// Codec compresses block payloads for at-rest storage. Object-store devices
// apply a Codec per block; fixed-offset devices cannot, since encoded blocks
// are variable length.
type Codec interface {
	// Name identifies the codec, e.g. for object metadata.
	Name() string
	// Encode returns the encoded form of one block payload.
	Encode(src []byte) ([]byte, error)
	// Decode reverses Encode. The result must be exactly blockSize bytes.
	Decode(src []byte, blockSize int) ([]byte, error)
}

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Zstd returns a zstd Codec. The encoder and decoder are shared and safe for
// concurrent EncodeAll/DecodeAll use.
func Zstd() (Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("blockdev: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("blockdev: create zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) Name() string { return "zstd" }

func (c *zstdCodec) Encode(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

func (c *zstdCodec) Decode(src []byte, blockSize int) ([]byte, error) {
	out, err := c.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodecCorrupt, err)
	}
	if len(out) != blockSize {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrCodecCorrupt, len(out), blockSize)
	}
	return out, nil
}

// lz4HeaderSize prefixes each encoded block with its original length.
const lz4HeaderSize = 4

type lz4Codec struct{}

// LZ4 returns an LZ4 block Codec. Incompressible blocks are stored raw
// behind the same header.
func LZ4() Codec { return lz4Codec{} }

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) Encode(src []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	dst := make([]byte, lz4HeaderSize+bound)
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))

	n, err := lz4.CompressBlock(src, dst[lz4HeaderSize:], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(src) {
		// Incompressible: a stored body the same length as the original
		// marks the raw form for Decode.
		return append(dst[:lz4HeaderSize], src...), nil
	}
	return dst[:lz4HeaderSize+n], nil
}

func (lz4Codec) Decode(src []byte, blockSize int) ([]byte, error) {
	if len(src) < lz4HeaderSize {
		return nil, fmt.Errorf("%w: short header", ErrCodecCorrupt)
	}
	origLen := int(binary.LittleEndian.Uint32(src))
	if origLen != blockSize {
		return nil, fmt.Errorf("%w: encoded length %d, want %d", ErrCodecCorrupt, origLen, blockSize)
	}

	body := src[lz4HeaderSize:]
	out := make([]byte, origLen)
	if len(body) == origLen {
		copy(out, body)
		return out, nil
	}

	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodecCorrupt, err)
	}
	if n != origLen {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", ErrCodecCorrupt, n, origLen)
	}
	return out, nil
}
