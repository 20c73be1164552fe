package gifstream

import (
	"image"
	"image/color"
	"io"
)

// DecoderConfig tunes a Decoder's resource limits. The zero value imposes
// no cap, matching the original crate's default of trusting the caller.
type DecoderConfig struct {
	// MaxImageSize rejects any single frame whose width*height exceeds
	// this many pixels, before any LZW decoding is attempted. Zero means
	// unlimited.
	MaxImageSize int
}

// Decoder reads a GIF byte stream and exposes it at three levels of
// assembly: raw Blocks, assembled Frames, and composited Steps. Grounded
// on original_source/src/private.rs, which layers the same three views
// over one underlying reader.
type Decoder struct {
	cfg    DecoderConfig
	blocks *BlockReader
	frames *FrameReader
	steps  *StepReader
}

// NewDecoder wraps r for block/frame/step decoding.
func NewDecoder(r io.Reader, cfg DecoderConfig) *Decoder {
	d := &Decoder{cfg: cfg}
	d.blocks = NewBlockReader(r, cfg.MaxImageSize)
	d.frames = NewFrameReader(d.blocks)
	d.steps = NewStepReader(d.frames)
	return d
}

// Blocks returns the raw block-level iterator. Do not mix calls to
// Blocks, Frames, and Steps on the same Decoder: they share one
// underlying reader and are mutually exclusive views of it.
func (d *Decoder) Blocks() *BlockReader { return d.blocks }

// Frames returns the frame-level iterator.
func (d *Decoder) Frames() *FrameReader { return d.frames }

// Steps returns the fully composited, disposal/transparency/interlace
// aware step iterator, playing the animation once through.
func (d *Decoder) Steps() *StepReader { return d.steps }

// LoopingSteps returns a step iterator that re-drives playback up to
// the preamble's loop count (0 = infinite), buffering steps from the
// first pass since the underlying reader cannot be rewound. Do not
// call both Steps and LoopingSteps on the same Decoder.
func (d *Decoder) LoopingSteps() *LoopingStepReader { return NewLoopingStepReader(d.steps) }

// Encoder is the top-level GIF encoding façade, exposing block, frame,
// and step sinks over one underlying writer. Grounded on
// original_source/src/private.rs::Encoder (into_block_enc/into_frame_enc/
// into_raster_enc).
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w for block/frame/step encoding.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Blocks returns a block-level sink.
func (e *Encoder) Blocks() *BlockWriter { return NewBlockWriter(e.w) }

// Frames returns a frame-level sink.
func (e *Encoder) Frames() *FrameWriter { return NewFrameWriter(NewBlockWriter(e.w)) }

// Steps returns a step-level sink for the given logical screen size.
func (e *Encoder) Steps(width, height int, cfg StepEncoderConfig) *StepEncoder {
	return NewStepEncoder(e.w, width, height, cfg)
}

// StepEncoderConfig configures a StepEncoder.
type StepEncoderConfig struct {
	// LoopCount, when NonZeroLoopCount is true or LoopCount is nonzero,
	// emits a NETSCAPE2.0 looping application extension with this count
	// (0 means forever).
	LoopCount        uint16
	NonZeroLoopCount bool
	// GlobalColorTable, if non-nil, is written once as the shared
	// palette; steps may still carry their own local tables.
	GlobalColorTable []byte
	// BackgroundColorIdx is recorded in the logical screen descriptor.
	BackgroundColorIdx uint8
}

// StepEncoder accepts already-indexed frames and serializes them as a
// disposal-aware GIF animation. Grounded on
// original_source/src/encode.rs::StepEnc (encode_indexed_raster,
// make_color_table, next_high_bit), layered on FrameWriter the same way
// StepEnc holds a FrameEnc.
type StepEncoder struct {
	frames   *FrameWriter
	cfg      StepEncoderConfig
	width    int
	height   int
	wroteHdr bool
}

// NewStepEncoder creates an encoder for the given logical screen size.
func NewStepEncoder(w io.Writer, width, height int, cfg StepEncoderConfig) *StepEncoder {
	return &StepEncoder{frames: NewFrameWriter(NewBlockWriter(w)), cfg: cfg, width: width, height: height}
}

func (e *StepEncoder) writeHeader() error {
	tbl := ColorTableConfig{Existence: ColorTableAbsent}
	var gct *GlobalColorTable
	if e.cfg.GlobalColorTable != nil {
		g := NewGlobalColorTable(e.cfg.GlobalColorTable)
		gct = &g
		tbl = NewColorTableConfig(ColorTablePresent, ColorTableNotSorted, gct.Len())
	}
	lsd := LogicalScreenDesc{
		ScreenWidth:        uint16(e.width),
		ScreenHeight:       uint16(e.height),
		BackgroundColorIdx: e.cfg.BackgroundColorIdx,
	}
	lsd = lsd.WithColorTableConfig(tbl)

	var loopExt *Application
	if e.cfg.NonZeroLoopCount || e.cfg.LoopCount != 0 {
		app := NewLoopCountApplication(e.cfg.LoopCount)
		loopExt = &app
	}

	preamble := Preamble{
		Header:            DefaultHeader(),
		LogicalScreenDesc: lsd,
		GlobalColorTable:  gct,
		LoopCountExt:      loopExt,
	}
	if err := e.frames.WritePreamble(preamble); err != nil {
		return err
	}
	e.wroteHdr = true
	return nil
}

// WriteStep writes img as the next animation frame. img must already be
// an indexed raster; this codec does no quantization or dithering of
// its own. img.Bounds() gives the frame's region within the logical
// screen (its Min is the frame's Left/Top), so callers can encode only
// the sub-rectangle that changed rather than a full-screen raster every
// step. When the encoder was not given a GlobalColorTable, img.Palette
// is encoded as a per-frame local color table (original_source's
// make_color_table / next_high_bit, ported to read a palette that the
// caller supplies rather than one this package computes).
func (e *StepEncoder) WriteStep(img *image.Paletted, delayTimeCs uint16, disposal DisposalMethod, transparent uint8, hasTransparent bool) error {
	if !e.wroteHdr {
		if err := e.writeHeader(); err != nil {
			return err
		}
	}
	table := e.cfg.GlobalColorTable
	var local *LocalColorTable
	if table == nil {
		built := paletteToTable(img.Palette)
		lc := NewLocalColorTable(built)
		local = &lc
		table = built
	}

	gc := &GraphicControl{}
	gc.SetDisposalMethod(disposal)
	gc.SetTransparentColor(transparent, hasTransparent)
	gc.DelayTimeCs = delayTimeCs

	bounds := img.Bounds()
	desc := ImageDesc{
		Left:   uint16(bounds.Min.X),
		Top:    uint16(bounds.Min.Y),
		Width:  uint16(bounds.Dx()),
		Height: uint16(bounds.Dy()),
	}
	tblCfg := ColorTableConfig{Existence: ColorTableAbsent}
	if local != nil {
		tblCfg = NewColorTableConfig(ColorTablePresent, ColorTableNotSorted, local.Len())
	}
	desc = desc.WithColorTableConfig(tblCfg)

	indices := make([]byte, len(img.Pix))
	copy(indices, img.Pix)
	minCodeSize := nextHighBit(len(table) / channels)
	id := NewImageData(len(indices), minCodeSize)
	id.AddData(indices)

	frame := Frame{
		GraphicControlExt: gc,
		ImageDesc:         desc,
		LocalColorTable:   local,
		ImageData:         id,
	}
	return e.frames.WriteFrame(frame)
}

// paletteToTable converts a color.Palette into a packed RGB color table,
// dropping alpha since GIF color tables carry none.
func paletteToTable(p color.Palette) []byte {
	out := make([]byte, 0, len(p)*channels)
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		out = append(out, byte(r>>8), byte(g>>8), byte(b>>8))
	}
	return out
}

// Finish writes the GIF trailer.
func (e *StepEncoder) Finish() error {
	if !e.wroteHdr {
		if err := e.writeHeader(); err != nil {
			return err
		}
	}
	return e.frames.WriteTrailer()
}

// nextHighBit returns the smallest n in [2, 8] such that 2^n >= colors,
// the LZW minimum code size for a palette of that many entries.
func nextHighBit(colors int) uint8 {
	n := uint8(2)
	for (1 << n) < colors {
		n++
	}
	if n > 8 {
		n = 8
	}
	return n
}
