package gifstream

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paletted2x2Diagonal() *image.Paletted {
	pal := color.Palette{
		color.RGBA{G: 0xFF, A: 0xFF},             // index 0: green
		color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF},    // index 1: cyan
	}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	img.SetColorIndex(0, 0, 1)
	img.SetColorIndex(1, 0, 0)
	img.SetColorIndex(0, 1, 0)
	img.SetColorIndex(1, 1, 1)
	return img
}

func TestEncodeDecodeRoundTrip2x2(t *testing.T) {
	img := paletted2x2Diagonal()
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{})
	require.NoError(t, enc.WriteStep(img, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	step, err := dec.Steps().Next()
	require.NoError(t, err)
	require.NotNil(t, step)

	assert.Equal(t, color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}, step.Image.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, step.Image.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, step.Image.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}, step.Image.RGBAAt(1, 1))

	step, err = dec.Steps().Next()
	require.NoError(t, err)
	assert.Nil(t, step)
}

func TestEncodeDecodeLoopCountRoundTrip(t *testing.T) {
	img := paletted2x2Diagonal()
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{NonZeroLoopCount: true, LoopCount: 5})
	require.NoError(t, enc.WriteStep(img, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	_, err := dec.Steps().Next()
	require.NoError(t, err)

	loop, ok := dec.Steps().LoopCount()
	require.True(t, ok)
	assert.EqualValues(t, 5, loop)
}

func TestEncodeDecodeForeverLoop(t *testing.T) {
	img := paletted2x2Diagonal()
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{NonZeroLoopCount: true, LoopCount: 0})
	require.NoError(t, enc.WriteStep(img, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	_, err := dec.Steps().Next()
	require.NoError(t, err)

	loop, ok := dec.Steps().LoopCount()
	require.True(t, ok)
	assert.EqualValues(t, 0, loop)
}

// TestDisposalBackground checks that a Background-disposal frame's region
// is cleared to transparent (not painted with the background color)
// before the next frame is drawn, using a second frame whose region is
// a disjoint corner so its own drawing cannot account for the restored
// pixel.
func TestDisposalBackground(t *testing.T) {
	pal := color.Palette{
		color.RGBA{A: 0xFF},          // 0: black (background)
		color.RGBA{R: 0xFF, A: 0xFF}, // 1: red
		color.RGBA{B: 0xFF, A: 0xFF}, // 2: blue
	}
	frame1 := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	for i := 0; i < 4; i++ {
		frame1.Pix[i] = 1 // whole 2x2 canvas red
	}
	frame2 := image.NewPaletted(image.Rect(1, 1, 2, 2), pal)
	frame2.SetColorIndex(1, 1, 2) // only the bottom-right pixel, blue

	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{})
	require.NoError(t, enc.WriteStep(frame1, 0, DisposalBackground, 0, false))
	require.NoError(t, enc.WriteStep(frame2, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	first, err := dec.Steps().Next()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, first.Image.RGBAAt(0, 0))

	second, err := dec.Steps().Next()
	require.NoError(t, err)
	// frame1's whole region was cleared to transparent before frame2
	// drew; frame2 only touched (1,1), so (0,0) proves disposal happened.
	assert.Equal(t, color.RGBA{}, second.Image.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{B: 0xFF, A: 0xFF}, second.Image.RGBAAt(1, 1))
}

// TestDisposalBackgroundIgnoresNonZeroBackgroundIndex checks that
// Background disposal clears to transparent even when the logical
// screen descriptor's background color index resolves to an opaque,
// non-black color in the global color table: disposal must not paint
// that color into the raster.
func TestDisposalBackgroundIgnoresNonZeroBackgroundIndex(t *testing.T) {
	pal := color.Palette{
		color.RGBA{A: 0xFF},                            // 0: black
		color.RGBA{R: 0xFF, A: 0xFF},                    // 1: red
		color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}, // 2: white (background)
	}
	frame1 := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	for i := 0; i < 4; i++ {
		frame1.Pix[i] = 1 // whole 2x2 canvas red
	}
	frame2 := image.NewPaletted(image.Rect(1, 1, 2, 2), pal)
	frame2.SetColorIndex(1, 1, 1) // only the bottom-right pixel, red again

	table := paletteToTable(pal)
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{
		GlobalColorTable:   table,
		BackgroundColorIdx: 2, // white
	})
	require.NoError(t, enc.WriteStep(frame1, 0, DisposalBackground, 0, false))
	require.NoError(t, enc.WriteStep(frame2, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	_, err := dec.Steps().Next()
	require.NoError(t, err)

	second, err := dec.Steps().Next()
	require.NoError(t, err)
	// (0,0) must be transparent, not the white background color.
	assert.Equal(t, color.RGBA{}, second.Image.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, second.Image.RGBAAt(1, 1))
}

func TestLoopingStepReaderRepeatsUpToLoopCount(t *testing.T) {
	img := paletted2x2Diagonal()
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{NonZeroLoopCount: true, LoopCount: 2})
	require.NoError(t, enc.WriteStep(img, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	loop := dec.LoopingSteps()

	var got int
	for {
		step, err := loop.Next()
		require.NoError(t, err)
		if step == nil {
			break
		}
		got++
		assert.Equal(t, color.RGBA{G: 0xFF, B: 0xFF, A: 0xFF}, step.Image.RGBAAt(0, 0))
	}
	// one first pass plus two re-drives, one step per pass
	assert.Equal(t, 3, got)
}

func TestLoopingStepReaderPlaysOnceWithoutLoopExtension(t *testing.T) {
	img := paletted2x2Diagonal()
	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{})
	require.NoError(t, enc.WriteStep(img, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	loop := dec.LoopingSteps()

	var got int
	for {
		step, err := loop.Next()
		require.NoError(t, err)
		if step == nil {
			break
		}
		got++
	}
	assert.Equal(t, 1, got)
}

// TestDisposalPrevious checks that a Previous-disposal frame's region is
// restored to its pre-frame content (not the background color) before
// the next frame is drawn.
func TestDisposalPrevious(t *testing.T) {
	pal := color.Palette{
		color.RGBA{A: 0xFF},          // 0: black (background)
		color.RGBA{R: 0xFF, A: 0xFF}, // 1: red
		color.RGBA{B: 0xFF, A: 0xFF}, // 2: blue
	}
	base := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	for i := 0; i < 4; i++ {
		base.Pix[i] = 1 // whole 2x2 canvas red
	}
	overlay := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
	for i := 0; i < 4; i++ {
		overlay.Pix[i] = 2 // whole 2x2 canvas blue, disposed after display
	}
	corner := image.NewPaletted(image.Rect(1, 1, 2, 2), pal)
	corner.SetColorIndex(1, 1, 1) // re-paint only the corner, red again

	var buf bytes.Buffer
	enc := NewStepEncoder(&buf, 2, 2, StepEncoderConfig{})
	require.NoError(t, enc.WriteStep(base, 0, DisposalKeep, 0, false))
	require.NoError(t, enc.WriteStep(overlay, 0, DisposalPrevious, 0, false))
	require.NoError(t, enc.WriteStep(corner, 0, DisposalNoAction, 0, false))
	require.NoError(t, enc.Finish())

	dec := NewDecoder(&buf, DecoderConfig{})
	_, err := dec.Steps().Next() // base: all red
	require.NoError(t, err)
	_, err = dec.Steps().Next() // overlay: all blue
	require.NoError(t, err)
	third, err := dec.Steps().Next()
	require.NoError(t, err)
	// overlay's region was restored to the pre-overlay content (red)
	// before corner drew, and corner only touched (1,1).
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, third.Image.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, third.Image.RGBAAt(1, 1))
}
