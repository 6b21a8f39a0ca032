package blockdev

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/blockcache/internal/testutil"
)

func codecs(t *testing.T) map[string]Codec {
	t.Helper()

	zs, err := Zstd()
	require.NoError(t, err)

	return map[string]Codec{
		"zstd": zs,
		"lz4":  LZ4(),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	const blockSize = 4096
	rng := testutil.NewRNG(3)

	payloads := map[string][]byte{
		"zeroes":         make([]byte, blockSize),
		"repetitive":     bytes.Repeat([]byte("blockcache"), blockSize/10+1)[:blockSize],
		"incompressible": rng.Block(blockSize),
	}

	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			for kind, src := range payloads {
				t.Run(kind, func(t *testing.T) {
					enc, err := codec.Encode(src)
					require.NoError(t, err)

					dec, err := codec.Decode(enc, blockSize)
					require.NoError(t, err)
					assert.Equal(t, src, dec)
				})
			}
		})
	}
}

func TestCodec_CompressesRepetitiveBlocks(t *testing.T) {
	const blockSize = 4096
	src := make([]byte, blockSize)

	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			enc, err := codec.Encode(src)
			require.NoError(t, err)
			assert.Less(t, len(enc), blockSize)
		})
	}
}

func TestCodec_DecodeRejectsCorruptInput(t *testing.T) {
	const blockSize = 4096

	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode([]byte{0x01, 0x02}, blockSize)
			assert.ErrorIs(t, err, ErrCodecCorrupt)
		})
	}
}

func TestCodec_DecodeRejectsWrongBlockSize(t *testing.T) {
	const blockSize = 4096
	rng := testutil.NewRNG(4)

	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			enc, err := codec.Encode(rng.Block(blockSize))
			require.NoError(t, err)

			_, err = codec.Decode(enc, blockSize*2)
			assert.ErrorIs(t, err, ErrCodecCorrupt)
		})
	}
}

func TestCodec_Name(t *testing.T) {
	for name, codec := range codecs(t) {
		assert.Equal(t, name, codec.Name())
	}
}
