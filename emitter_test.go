package gifstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnknownBlockRoundTrip exercises an unrecognized extension label,
// ensuring the synthetic leading entry Unknown.SubBlocks[0] (which
// records the extension label for ext_id-style access) is not
// re-emitted as a real sub-block payload.
func TestUnknownBlockRoundTrip(t *testing.T) {
	var src bytes.Buffer
	src.WriteString("GIF89a")
	src.Write([]byte{1, 0, 1, 0, 0, 0, 0}) // 1x1 screen, no global color table
	src.Write([]byte{0x21, 0x05})          // unrecognized extension label 0x05
	src.Write([]byte{3})
	src.WriteString("abc")
	src.Write([]byte{2})
	src.WriteString("xy")
	src.Write([]byte{0}) // terminator
	src.Write([]byte{0x3B})

	r := NewBlockReader(bytes.NewReader(src.Bytes()), 0)

	_, err := r.Next() // Header
	require.NoError(t, err)
	_, err = r.Next() // LogicalScreenDesc
	require.NoError(t, err)

	block, err := r.Next()
	require.NoError(t, err)
	unk, ok := block.(*Unknown)
	require.True(t, ok)
	assert.EqualValues(t, 0x05, unk.Label)
	assert.Equal(t, [][]byte{{'a', 'b', 'c'}, {'x', 'y'}}, unk.SubBlocks[1:])

	var out bytes.Buffer
	w := NewBlockWriter(&out)
	require.NoError(t, w.Write(unk))

	assert.Equal(t, []byte{
		0x21, 0x05,
		3, 'a', 'b', 'c',
		2, 'x', 'y',
		0,
	}, out.Bytes())
}
