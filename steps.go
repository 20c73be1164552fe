package gifstream

import (
	"image"
	"image/color"
)

// Step is one fully composed frame of animation: the entire logical
// screen rendered as RGBA, ready to display, plus its delay.
type Step struct {
	Image       *image.RGBA
	DelayTimeCs uint16
	UserInput   bool
}

// StepReader composites the Frame stream into a sequence of full-screen
// Steps, applying disposal methods, transparency, and interlace
// deinterleaving. Grounded on original_source/src/decode.rs::Steps
// (apply_frame / update_raster / update_frame).
type StepReader struct {
	frames *FrameReader

	preamble Preamble
	raster   *image.RGBA
	saved    *image.RGBA
	savedReg image.Rectangle

	pendingDisposal DisposalMethod
	pendingRegion   image.Rectangle
	havePending     bool

	started bool
	done    bool
}

// NewStepReader wraps a FrameReader.
func NewStepReader(frames *FrameReader) *StepReader {
	return &StepReader{frames: frames}
}

// LoopCount returns the animation's loop count and whether a loop-count
// application extension was present at all (0 means loop forever).
func (s *StepReader) LoopCount() (uint16, bool) {
	if s.preamble.LoopCountExt == nil {
		return 0, false
	}
	return s.preamble.LoopCountExt.LoopCount()
}

func (s *StepReader) init() error {
	s.preamble = s.frames.Preamble()
	width := int(s.preamble.LogicalScreenDesc.ScreenWidth)
	height := int(s.preamble.LogicalScreenDesc.ScreenHeight)
	// image.NewRGBA is already zero-valued, i.e. fully transparent; the
	// screen starts cleared rather than painted with the background
	// color.
	s.raster = image.NewRGBA(image.Rect(0, 0, width, height))
	s.started = true
	return nil
}

// Next composites and returns the next Step, or (nil, nil) once the
// animation's frames are exhausted.
func (s *StepReader) Next() (*Step, error) {
	if s.done {
		return nil, nil
	}
	frame, ok, err := s.frames.Next()
	if err != nil {
		s.done = true
		return nil, err
	}
	if !ok {
		s.done = true
		return nil, nil
	}
	if !s.started {
		if err := s.init(); err != nil {
			s.done = true
			return nil, err
		}
	}
	return s.applyFrame(frame)
}

// applyFrame disposes of the previous step's region, draws the new
// frame, snapshots for a future Previous disposal if needed, and returns
// a clone of the raster as this step's image.
func (s *StepReader) applyFrame(frame Frame) (*Step, error) {
	if err := s.disposePending(); err != nil {
		return nil, err
	}

	left, top, width, height := frame.Region()
	region := image.Rect(left, top, left+width, top+height)
	if !region.In(s.raster.Bounds()) {
		return nil, newErr(KindInvalidFrameDimensions, "")
	}

	if frame.DisposalMethod() == DisposalPrevious {
		s.saved = cloneRegion(s.raster, region)
		s.savedReg = region
	}

	table, err := s.colorTableFor(frame)
	if err != nil {
		return nil, err
	}
	transparent, hasTransparent := frame.TransparentColor()

	if err := s.drawFrame(frame, region, table, transparent, hasTransparent); err != nil {
		return nil, err
	}

	s.pendingDisposal = frame.DisposalMethod()
	s.pendingRegion = region
	s.havePending = true

	out := image.NewRGBA(s.raster.Bounds())
	copy(out.Pix, s.raster.Pix)

	step := &Step{Image: out}
	if frame.GraphicControlExt != nil {
		step.DelayTimeCs = frame.GraphicControlExt.DelayTimeCs
		step.UserInput = frame.GraphicControlExt.UserInput()
	}
	return step, nil
}

func (s *StepReader) disposePending() error {
	if !s.havePending {
		return nil
	}
	switch s.pendingDisposal {
	case DisposalBackground:
		// Matches original_source/src/decode.rs::apply_frame: the
		// disposed region is cleared to transparent, not painted with
		// the logical screen descriptor's background color.
		fillRect(s.raster, s.pendingRegion, color.RGBA{})
	case DisposalPrevious:
		if s.saved != nil {
			drawRegion(s.raster, s.savedReg, s.saved)
		}
	default: // NoAction, Keep, Reserved: leave the raster as-is.
	}
	s.havePending = false
	return nil
}

func (s *StepReader) colorTableFor(frame Frame) ([]byte, error) {
	if frame.LocalColorTable != nil {
		return frame.LocalColorTable.Colors, nil
	}
	if s.preamble.GlobalColorTable != nil {
		return s.preamble.GlobalColorTable.Colors, nil
	}
	return nil, newErr(KindMissingColorTable, "")
}

func (s *StepReader) drawFrame(frame Frame, region image.Rectangle, table []byte, transparent uint8, hasTransparent bool) error {
	indices := frame.ImageData.Data()
	width := region.Dx()
	height := region.Dy()
	if len(indices) != width*height {
		return newErr(KindIncompleteImageData, "")
	}

	rowOrder := []int{}
	if frame.ImageDesc.Interlaced() {
		rowOrder = deinterlaceRows(height)
	}

	for srcRow := 0; srcRow < height; srcRow++ {
		dstRow := srcRow
		if frame.ImageDesc.Interlaced() {
			dstRow = rowOrder[srcRow]
		}
		for col := 0; col < width; col++ {
			idx := indices[srcRow*width+col]
			if hasTransparent && idx == transparent {
				// Matches original_source/src/decode.rs::update_frame: a
				// transparent pixel overwrites with SRgba8::default()
				// rather than leaving the prior raster content in place.
				s.raster.SetRGBA(region.Min.X+col, region.Min.Y+dstRow, color.RGBA{})
				continue
			}
			if int(idx) >= len(table)/channels {
				return newErr(KindInvalidColorIndex, "")
			}
			c := lookupColor(table, int(idx))
			s.raster.SetRGBA(region.Min.X+col, region.Min.Y+dstRow, c)
		}
	}
	return nil
}

func lookupColor(table []byte, idx int) color.RGBA {
	off := idx * channels
	if off < 0 || off+2 >= len(table) {
		return color.RGBA{A: 0xFF}
	}
	return color.RGBA{R: table[off], G: table[off+1], B: table[off+2], A: 0xFF}
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func cloneRegion(img *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			out.SetRGBA(x-r.Min.X, y-r.Min.Y, img.RGBAAt(x, y))
		}
	}
	return out
}

func drawRegion(img *image.RGBA, r image.Rectangle, src *image.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, src.RGBAAt(x-r.Min.X, y-r.Min.Y))
		}
	}
}

// LoopingStepReader re-drives a StepReader's frame sequence up to the
// preamble's loop count, buffering steps from the first pass since the
// underlying reader cannot be rewound. A loop count of 0 repeats
// forever; a stream with no loop-count extension plays once.
type LoopingStepReader struct {
	steps *StepReader

	buffered      []*Step
	firstPassDone bool

	loopCount     uint16
	haveLoopCount bool
	replaysDone   uint16
	pos           int
}

// NewLoopingStepReader wraps a StepReader for loop-aware playback.
func NewLoopingStepReader(steps *StepReader) *LoopingStepReader {
	return &LoopingStepReader{steps: steps}
}

// Next returns the next Step, re-driving from the start once the
// underlying stream is exhausted, up to the loop count. It returns
// (nil, nil) once the animation has played its last loop.
func (l *LoopingStepReader) Next() (*Step, error) {
	if !l.firstPassDone {
		step, err := l.steps.Next()
		if err != nil {
			return nil, err
		}
		if step != nil {
			l.buffered = append(l.buffered, step)
			return step, nil
		}
		l.firstPassDone = true
		l.loopCount, l.haveLoopCount = l.steps.LoopCount()
	}
	if len(l.buffered) == 0 || !l.haveLoopCount {
		return nil, nil
	}
	if l.loopCount != 0 && l.replaysDone >= l.loopCount {
		return nil, nil
	}
	step := cloneStep(l.buffered[l.pos])
	l.pos++
	if l.pos == len(l.buffered) {
		l.pos = 0
		l.replaysDone++
	}
	return step, nil
}

func cloneStep(s *Step) *Step {
	img := image.NewRGBA(s.Image.Bounds())
	copy(img.Pix, s.Image.Pix)
	return &Step{Image: img, DelayTimeCs: s.DelayTimeCs, UserInput: s.UserInput}
}
