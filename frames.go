package gifstream

// FrameReader assembles the flat Block stream into a Preamble followed by
// a sequence of Frames, grounded on original_source/src/decode.rs::Frames.
// It buffers loose blocks (a GraphicControl, Comments, an Application
// extension) until they can be attached to the Frame or Preamble they
// belong to.
type FrameReader struct {
	blocks *BlockReader

	preamble    Preamble
	gotPreamble bool

	pendingGC       *GraphicControl
	inProgressDesc  *ImageDesc
	inProgressTable *LocalColorTable
	sawFrame        bool
	done            bool
}

// NewFrameReader wraps a BlockReader.
func NewFrameReader(blocks *BlockReader) *FrameReader {
	return &FrameReader{blocks: blocks}
}

// Preamble returns the header/screen/global-table tuple. It is only valid
// after the first call to Next.
func (f *FrameReader) Preamble() Preamble {
	return f.preamble
}

// Next returns the next assembled Frame, or (Frame{}, false, nil) at the
// trailer. An error aborts the stream permanently.
func (f *FrameReader) Next() (Frame, bool, error) {
	if f.done {
		return Frame{}, false, nil
	}
	if !f.gotPreamble {
		if err := f.readPreamble(); err != nil {
			f.done = true
			return Frame{}, false, err
		}
		f.gotPreamble = true
	}
	for {
		block, err := f.blocks.Next()
		if err != nil {
			f.done = true
			return Frame{}, false, err
		}
		if block == nil {
			f.done = true
			return Frame{}, false, nil
		}
		frame, ready, err := f.handleBlock(block)
		if err != nil {
			f.done = true
			return Frame{}, false, err
		}
		if ready {
			return frame, true, nil
		}
	}
}

func (f *FrameReader) readPreamble() error {
	header, err := f.blocks.Next()
	if err != nil {
		return err
	}
	hdr, ok := header.(Header)
	if !ok {
		return newErr(KindInvalidBlockSequence, "expected header")
	}
	f.preamble.Header = hdr

	lsd, err := f.blocks.Next()
	if err != nil {
		return err
	}
	screen, ok := lsd.(LogicalScreenDesc)
	if !ok {
		return newErr(KindInvalidBlockSequence, "expected logical screen descriptor")
	}
	f.preamble.LogicalScreenDesc = screen

	if screen.ColorTableConfig().Len() > 0 {
		gct, err := f.blocks.Next()
		if err != nil {
			return err
		}
		table, ok := gct.(GlobalColorTable)
		if !ok {
			return newErr(KindInvalidBlockSequence, "expected global color table")
		}
		f.preamble.GlobalColorTable = &table
	}
	return nil
}

// frameStarted reports whether a frame-shaping block (graphic control,
// image descriptor, or local color table) is already staged, mirroring
// original_source/src/decode.rs::Frames::has_frame.
func (f *FrameReader) frameStarted() bool {
	return f.pendingGC != nil || f.inProgressDesc != nil || f.inProgressTable != nil
}

// FrameWriter is the frame-level sink: callers hand it a Preamble once,
// then a sequence of Frames, then close with a trailer, and it expands
// each into the Block sequence the GIF grammar requires. Grounded on
// original_source/src/encode.rs::FrameEnc.
type FrameWriter struct {
	blocks      *BlockWriter
	hasPreamble bool
	hasTrailer  bool
}

// NewFrameWriter wraps a BlockWriter for frame-at-a-time GIF encoding.
func NewFrameWriter(blocks *BlockWriter) *FrameWriter {
	return &FrameWriter{blocks: blocks}
}

// WritePreamble writes the header/screen/global-table/loop-count/comment
// blocks that must appear before any frame. Must be called exactly once,
// before any call to WriteFrame.
func (fw *FrameWriter) WritePreamble(preamble Preamble) error {
	if fw.hasPreamble {
		return newErr(KindInvalidBlockSequence, "preamble already written")
	}
	if err := fw.blocks.Write(preamble.Header); err != nil {
		return err
	}
	if err := fw.blocks.Write(preamble.LogicalScreenDesc); err != nil {
		return err
	}
	if preamble.GlobalColorTable != nil {
		if err := fw.blocks.Write(*preamble.GlobalColorTable); err != nil {
			return err
		}
	}
	if preamble.LoopCountExt != nil {
		if err := fw.blocks.Write(preamble.LoopCountExt); err != nil {
			return err
		}
	}
	for i := range preamble.Comments {
		if err := fw.blocks.Write(&preamble.Comments[i]); err != nil {
			return err
		}
	}
	fw.hasPreamble = true
	return nil
}

// WriteFrame writes one Frame's blocks. Must be called after
// WritePreamble and before WriteTrailer.
func (fw *FrameWriter) WriteFrame(frame Frame) error {
	if fw.hasTrailer || !fw.hasPreamble {
		return newErr(KindInvalidBlockSequence, "frame written out of order")
	}
	if frame.GraphicControlExt != nil {
		if err := fw.blocks.Write(frame.GraphicControlExt); err != nil {
			return err
		}
	}
	if err := fw.blocks.Write(frame.ImageDesc); err != nil {
		return err
	}
	if frame.LocalColorTable != nil {
		if err := fw.blocks.Write(*frame.LocalColorTable); err != nil {
			return err
		}
	}
	return fw.blocks.Write(&frame.ImageData)
}

// WriteTrailer writes the GIF trailer. Must be called exactly once,
// last, after WritePreamble and any WriteFrame calls.
func (fw *FrameWriter) WriteTrailer() error {
	if fw.hasTrailer || !fw.hasPreamble {
		return newErr(KindInvalidBlockSequence, "trailer written out of order")
	}
	if err := fw.blocks.Write(Trailer{}); err != nil {
		return err
	}
	fw.hasTrailer = true
	return nil
}

// handleBlock folds one block into frame/preamble accumulation state,
// returning a completed Frame when an ImageData block finishes an image.
func (f *FrameReader) handleBlock(block Block) (Frame, bool, error) {
	switch v := block.(type) {
	case *GraphicControl:
		if f.frameStarted() {
			return Frame{}, false, newErr(KindInvalidBlockSequence, "")
		}
		f.pendingGC = v
		return Frame{}, false, nil
	case *Comment:
		if !f.sawFrame {
			f.preamble.Comments = append(f.preamble.Comments, *v)
		}
		return Frame{}, false, nil
	case *Application:
		if _, ok := v.LoopCount(); ok {
			f.preamble.LoopCountExt = v
		}
		return Frame{}, false, nil
	case *PlainText, *Unknown:
		return Frame{}, false, nil
	case ImageDesc:
		if f.inProgressDesc != nil {
			return Frame{}, false, newErr(KindInvalidBlockSequence, "")
		}
		f.inProgressDesc = &v
		return Frame{}, false, nil
	case LocalColorTable:
		f.inProgressTable = &v
		return Frame{}, false, nil
	case *ImageData:
		frame := Frame{
			GraphicControlExt: f.pendingGC,
			ImageDesc:         *f.inProgressDesc,
			LocalColorTable:   f.inProgressTable,
			ImageData:         *v,
		}
		f.pendingGC = nil
		f.inProgressDesc = nil
		f.inProgressTable = nil
		f.sawFrame = true
		return frame, true, nil
	case Trailer:
		return Frame{}, false, nil
	default:
		return Frame{}, false, newErr(KindInvalidBlockSequence, "")
	}
}
