package gifstream

import "io"

// BlockWriter serializes Blocks to their byte-stream form, framing
// sub-block payloads into the 255-byte-chunked encoding GIF requires.
// Grounded on original_source/src/encode.rs::BlockEnc, with the
// sub-block chunker itself adapted from tenox7/gip's blockWriter in
// gif.go.
type BlockWriter struct {
	w    io.Writer
	comp *Compressor
}

// NewBlockWriter wraps w for block-at-a-time GIF serialization.
func NewBlockWriter(w io.Writer) *BlockWriter {
	return &BlockWriter{w: w}
}

// Write emits one block. Callers must supply blocks in the order the
// GIF grammar requires; this writer does not validate sequencing,
// matching the original encoder's trust-the-caller design.
func (e *BlockWriter) Write(block Block) error {
	switch v := block.(type) {
	case Header:
		return e.writeAll(append([]byte("GIF"), v.Version[:]...))
	case LogicalScreenDesc:
		buf := []byte{
			byte(v.ScreenWidth), byte(v.ScreenWidth >> 8),
			byte(v.ScreenHeight), byte(v.ScreenHeight >> 8),
			v.Flags, v.BackgroundColorIdx, v.PixelAspectRatio,
		}
		return e.writeAll(buf)
	case GlobalColorTable:
		return e.writeAll(padColorTable(v.Colors))
	case LocalColorTable:
		return e.writeAll(padColorTable(v.Colors))
	case *PlainText:
		if err := e.writeAll([]byte{0x21, 0x01}); err != nil {
			return err
		}
		return e.writeSubBlocks(v.SubBlocks)
	case *GraphicControl:
		if err := e.writeAll([]byte{0x21, 0xF9, 4, v.Flags, byte(v.DelayTimeCs), byte(v.DelayTimeCs >> 8), v.TransparentColorIdx, 0}); err != nil {
			return err
		}
		return nil
	case *Comment:
		if err := e.writeAll([]byte{0x21, 0xFE}); err != nil {
			return err
		}
		return e.writeSubBlocks(v.Comments)
	case *Application:
		if err := e.writeAll([]byte{0x21, 0xFF}); err != nil {
			return err
		}
		return e.writeSubBlocks(v.AppData)
	case *Unknown:
		if err := e.writeAll([]byte{0x21, v.Label}); err != nil {
			return err
		}
		if len(v.SubBlocks) <= 1 {
			return e.writeAll([]byte{0})
		}
		// SubBlocks[0] is the synthetic leading entry recording the
		// extension label (already written above); only what follows
		// is real sub-block payload.
		return e.writeSubBlocks(v.SubBlocks[1:])
	case ImageDesc:
		buf := []byte{
			0x2C,
			byte(v.Left), byte(v.Left >> 8),
			byte(v.Top), byte(v.Top >> 8),
			byte(v.Width), byte(v.Width >> 8),
			byte(v.Height), byte(v.Height >> 8),
			v.Flags,
		}
		return e.writeAll(buf)
	case *ImageData:
		return e.writeImageData(v)
	case Trailer:
		return e.writeAll([]byte{0x3B})
	default:
		return newErr(KindInvalidBlockCode, "unknown block type")
	}
}

// padColorTable extends colors with zero triples up to the power-of-two
// entry count (2 to 256) that NewColorTableConfig declares for it.
func padColorTable(colors []byte) []byte {
	n := nextPowerOfTwo(len(colors) / channels)
	if n < 2 {
		n = 2
	}
	if n > 256 {
		n = 256
	}
	if len(colors) >= n*channels {
		return colors
	}
	out := make([]byte, n*channels)
	copy(out, colors)
	return out
}

func (e *BlockWriter) writeAll(b []byte) error {
	_, err := e.w.Write(b)
	if err != nil {
		return wrapIOErr(err)
	}
	return nil
}

// writeSubBlocks frames a list of already-chunked (<256 byte) payloads,
// one length-prefix per payload, ending with the zero terminator.
func (e *BlockWriter) writeSubBlocks(chunks [][]byte) error {
	for _, c := range chunks {
		if err := e.writeAll([]byte{byte(len(c))}); err != nil {
			return err
		}
		if err := e.writeAll(c); err != nil {
			return err
		}
	}
	return e.writeAll([]byte{0})
}

// writeImageData emits the minimum-code-size byte, compresses the image's
// index bytes, and frames the result into 255-byte sub-blocks followed by
// the terminator.
func (e *BlockWriter) writeImageData(id *ImageData) error {
	if err := e.writeAll([]byte{id.minCodeSize}); err != nil {
		return err
	}
	comp := NewCompressor(id.minCodeSize)
	var packed []byte
	comp.Compress(id.data, &packed)
	for len(packed) > 0 {
		n := len(packed)
		if n > 255 {
			n = 255
		}
		if err := e.writeAll([]byte{byte(n)}); err != nil {
			return err
		}
		if err := e.writeAll(packed[:n]); err != nil {
			return err
		}
		packed = packed[n:]
	}
	return e.writeAll([]byte{0})
}
