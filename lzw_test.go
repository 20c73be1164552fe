package gifstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenox7/gifstream/internal/testfixtures"
)

func TestLZWRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0, 0, 0, 0},
		testfixtures.Image1,
		testfixtures.Image2x2,
		testfixtures.Image3x3,
		testfixtures.Image4x4,
		bytes256(),
	}
	for _, data := range cases {
		comp := NewCompressor(2)
		var packed []byte
		comp.Compress(data, &packed)

		decomp := NewDecompressor(2)
		var out []byte
		require.NoError(t, decomp.Decompress(packed, &out))
		require.NoError(t, decomp.DecompressFinish(&out))
		assert.Equal(t, data, out)
	}
}

func bytes256() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i % 4)
	}
	return b
}

// TestLZWKwKwK exercises the classic "code equal to next_code" ambiguity
// by round-tripping a repeating pattern long enough to force the decoder
// to resolve a code it has not yet assigned a dictionary entry for.
func TestLZWKwKwK(t *testing.T) {
	data := []byte{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2}
	comp := NewCompressor(3)
	var packed []byte
	comp.Compress(data, &packed)

	decomp := NewDecompressor(3)
	var out []byte
	require.NoError(t, decomp.Decompress(packed, &out))
	require.NoError(t, decomp.DecompressFinish(&out))
	assert.Equal(t, data, out)
}
