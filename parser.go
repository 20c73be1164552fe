package gifstream

import (
	"io"
)

// blockKind identifies the block about to be parsed, driving the
// context-sensitive "expected next" state the GIF grammar requires,
// mirroring original_source/src/block.rs::BlockCode.
type blockKind int

const (
	bkHeader blockKind = iota
	bkLogicalScreenDesc
	bkGlobalColorTable
	bkLocalColorTable
	bkImageData
)

type expectation struct {
	kind blockKind
	size int
}

// BlockReader is a pull iterator over the blocks of a GIF byte stream. It
// reads exactly enough bytes to produce one Block per Next call, mirroring
// original_source/src/decode.rs::Blocks.
type BlockReader struct {
	r          io.Reader
	maxImageSz int // 0 means unlimited
	expected   *expectation
	imageSz    int
	decomp     *Decompressor
	done       bool
}

// NewBlockReader creates a block reader with the given size cap (0 means
// unlimited).
func NewBlockReader(r io.Reader, maxImageSz int) *BlockReader {
	return &BlockReader{
		r:          r,
		maxImageSz: maxImageSz,
		expected:   &expectation{kind: bkHeader, size: 6},
	}
}

// Next reads and returns the next block. After a Trailer is returned, or
// after an error, every subsequent call returns (nil, nil) signaling
// end-of-stream.
func (b *BlockReader) Next() (Block, error) {
	if b.done {
		return nil, nil
	}
	block, err := b.nextBlock()
	if err != nil {
		b.done = true
		return nil, err
	}
	if _, ok := block.(Trailer); ok {
		b.done = true
	}
	return block, nil
}

func (b *BlockReader) nextBlock() (Block, error) {
	block, err := b.decodeBlock()
	if err != nil {
		return nil, err
	}
	if hasSubBlocks(block) {
		for {
			more, err := b.decodeSubBlock(&block)
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
		}
	}
	if err := b.checkBlockEnd(&block); err != nil {
		return nil, err
	}
	return block, nil
}

func hasSubBlocks(block Block) bool {
	switch block.(type) {
	case *PlainText, *GraphicControl, *Comment, *Application, *Unknown, *ImageData:
		return true
	default:
		return false
	}
}

func (b *BlockReader) decodeBlock() (Block, error) {
	var block Block
	var err error
	if b.expected != nil {
		block, err = b.parseExpected(b.expected.kind, b.expected.size)
	} else {
		block, err = b.parseIntroduced()
	}
	if err != nil {
		return nil, err
	}
	b.expected = b.expectedNext(block)
	return block, nil
}

func (b *BlockReader) parseExpected(kind blockKind, sz int) (Block, error) {
	switch kind {
	case bkHeader:
		return b.parseHeader()
	case bkLogicalScreenDesc:
		return b.parseLogicalScreenDesc()
	case bkGlobalColorTable:
		return b.parseGlobalColorTable(sz)
	case bkLocalColorTable:
		return b.parseLocalColorTable(sz)
	case bkImageData:
		return b.parseImageData()
	default:
		return nil, newErr(KindInvalidBlockCode, "")
	}
}

func (b *BlockReader) parseHeader() (Block, error) {
	buf := make([]byte, 6)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	if string(buf[:3]) != "GIF" {
		return nil, newErr(KindMalformedHeader, "missing GIF signature")
	}
	var version [3]byte
	copy(version[:], buf[3:6])
	switch string(version[:]) {
	case "87a", "89a":
		return Header{Version: version}, nil
	default:
		return nil, &Error{Kind: KindUnsupportedVersion, Detail: string(version[:])}
	}
}

func (b *BlockReader) parseLogicalScreenDesc() (Block, error) {
	buf := make([]byte, 7)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	return LogicalScreenDesc{
		ScreenWidth:        le16(buf[0], buf[1]),
		ScreenHeight:       le16(buf[2], buf[3]),
		Flags:              buf[4],
		BackgroundColorIdx: buf[5],
		PixelAspectRatio:   buf[6],
	}, nil
}

func (b *BlockReader) parseGlobalColorTable(sz int) (Block, error) {
	buf := make([]byte, sz)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	return NewGlobalColorTable(buf), nil
}

func (b *BlockReader) parseLocalColorTable(sz int) (Block, error) {
	buf := make([]byte, sz)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	return NewLocalColorTable(buf), nil
}

func (b *BlockReader) parseImageData() (Block, error) {
	buf := make([]byte, 1)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	minCodeBits := buf[0]
	if minCodeBits < 2 || minCodeBits > 12 {
		return nil, newErr(KindInvalidLzwCodeSize, "")
	}
	b.decomp = NewDecompressor(minCodeBits)
	id := NewImageData(b.imageSz, minCodeBits)
	return &id, nil
}

func (b *BlockReader) parseIntroduced() (Block, error) {
	buf := make([]byte, 1)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	switch buf[0] {
	case 0x21:
		return b.parseExtension()
	case 0x2C:
		return b.parseImageDesc()
	case 0x3B:
		return Trailer{}, nil
	default:
		return nil, newErr(KindInvalidBlockCode, "")
	}
}

func (b *BlockReader) parseExtension() (Block, error) {
	buf := make([]byte, 1)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	switch buf[0] {
	case 0x01:
		return &PlainText{}, nil
	case 0xF9:
		return &GraphicControl{}, nil
	case 0xFE:
		return &Comment{}, nil
	case 0xFF:
		return &Application{}, nil
	default:
		return &Unknown{Label: buf[0], SubBlocks: [][]byte{{buf[0]}}}, nil
	}
}

func (b *BlockReader) parseImageDesc() (Block, error) {
	buf := make([]byte, 9)
	if err := b.fillBuffer(buf); err != nil {
		return nil, err
	}
	desc := ImageDesc{
		Left:   le16(buf[0], buf[1]),
		Top:    le16(buf[2], buf[3]),
		Width:  le16(buf[4], buf[5]),
		Height: le16(buf[6], buf[7]),
		Flags:  buf[8],
	}
	b.imageSz = desc.ImageSz()
	if b.maxImageSz > 0 && b.imageSz > b.maxImageSz {
		return nil, newErr(KindTooLargeImage, "")
	}
	return desc, nil
}

// fillBuffer reads exactly len(buf) bytes, continuing across short reads.
// A read that returns zero bytes with io.EOF or no error is
// UnexpectedEndOfFile; any other error is returned as an I/O error.
// Modeled on original_source/src/decode.rs::fill_buffer.
func (b *BlockReader) fillBuffer(buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := b.r.Read(buf[n:])
		if m > 0 {
			n += m
			continue
		}
		if err == io.EOF || err == nil {
			return newErr(KindUnexpectedEndOfFile, "")
		}
		return wrapIOErr(err)
	}
	return nil
}

// expectedNext computes the expectation that follows a just-parsed block.
func (b *BlockReader) expectedNext(block Block) *expectation {
	switch v := block.(type) {
	case Header:
		return &expectation{kind: bkLogicalScreenDesc, size: 7}
	case LogicalScreenDesc:
		sz := v.ColorTableConfig().SizeBytes()
		if sz > 0 {
			return &expectation{kind: bkGlobalColorTable, size: sz}
		}
		return nil
	case ImageDesc:
		sz := v.ColorTableConfig().SizeBytes()
		if sz > 0 {
			return &expectation{kind: bkLocalColorTable, size: sz}
		}
		return &expectation{kind: bkImageData, size: 1}
	case LocalColorTable:
		return &expectation{kind: bkImageData, size: 1}
	case Trailer:
		return &expectation{kind: bkHeader, size: 6}
	default:
		return nil
	}
}

func (b *BlockReader) checkBlockEnd(block *Block) error {
	id, ok := (*block).(*ImageData)
	if !ok {
		return nil
	}
	dec := b.decomp
	b.decomp = nil
	if err := dec.DecompressFinish(&id.data); err != nil {
		return err
	}
	if len(id.data) > id.capacity {
		logTruncatedImageData(id.data[id.capacity:])
		id.data = id.data[:id.capacity]
	}
	if len(id.data) != id.capacity {
		return newErr(KindIncompleteImageData, "")
	}
	return nil
}

func (b *BlockReader) decodeSubBlock(block *Block) (bool, error) {
	var lenBuf [1]byte
	if err := b.fillBuffer(lenBuf[:]); err != nil {
		return false, err
	}
	length := int(lenBuf[0])
	if length == 0 {
		return false, nil
	}
	buf := make([]byte, length)
	if err := b.fillBuffer(buf); err != nil {
		return false, err
	}
	if err := b.parseSubBlock(block, buf); err != nil {
		return false, err
	}
	return true, nil
}

func (b *BlockReader) parseSubBlock(block *Block, bytes []byte) error {
	switch v := (*block).(type) {
	case *PlainText:
		v.AddSubBlock(bytes)
	case *GraphicControl:
		if len(bytes) != 4 {
			return newErr(KindMalformedGraphicControlExtension, "")
		}
		v.Flags = bytes[0]
		v.DelayTimeCs = le16(bytes[1], bytes[2])
		v.TransparentColorIdx = bytes[3]
	case *Comment:
		v.AddComment(bytes)
	case *Application:
		v.AddAppData(bytes)
	case *Unknown:
		v.AddSubBlock(bytes)
	case *ImageData:
		if err := b.decomp.Decompress(bytes, &v.data); err != nil {
			return err
		}
	default:
		return newErr(KindInvalidBlockCode, "unexpected sub-block owner")
	}
	return nil
}

func le16(lo, hi byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
