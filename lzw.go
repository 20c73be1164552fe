package gifstream

// maxCodeBits is the largest code width GIF LZW allows: at most 4096 codes.
const maxCodeBits = 12

// clampBits clamps a code-width value to [0, maxCodeBits].
func clampBits(bits uint8) uint8 {
	if bits > maxCodeBits {
		return maxCodeBits
	}
	return bits
}

func bitsEntries(bits uint8) uint16 {
	return 1 << uint16(bits)
}

func bitsMask(bits uint8) uint32 {
	return (1 << uint32(bits)) - 1
}

// code is an LZW dictionary code.
type code = uint16

// cnode is a compressor dictionary node: a ternary search tree keyed by
// (parent, byte), ordered equal/less/greater by byte value.
type cnode struct {
	next, left, right int32 // -1 means absent; otherwise a code
	data              uint8
}

func newCnode(next int32, data uint8) cnode {
	return cnode{next: next, left: -1, right: -1, data: data}
}

func (n *cnode) link(ordering int) int32 {
	switch {
	case ordering < 0:
		return n.left
	case ordering > 0:
		return n.right
	default:
		return n.next
	}
}

func (n *cnode) setLink(ordering int, c code) {
	switch {
	case ordering < 0:
		n.left = int32(c)
	case ordering > 0:
		n.right = int32(c)
	default:
		n.next = int32(c)
	}
}

// Compressor is a streaming LZW encoder with a trie-backed dictionary,
// mirroring original_source/src/lzw.rs::Compressor.
type Compressor struct {
	table       []cnode
	minCodeBits uint8
	codeBits    uint8
	code        uint32
	nBits       uint8
}

// NewCompressor creates a compressor for the given minimum code size
// (2-8 in practice, since the encoder never emits a global color table
// larger than 256 entries).
func NewCompressor(minCodeBits uint8) *Compressor {
	c := &Compressor{
		minCodeBits: minCodeBits,
		codeBits:    clampBits(minCodeBits + 1),
	}
	c.resetTable()
	return c
}

func (c *Compressor) clearCode() code   { return 1 << c.minCodeBits }
func (c *Compressor) endCode() code     { return c.clearCode() + 1 }
func (c *Compressor) nextCode() code    { return code(len(c.table)) }

func (c *Compressor) resetTable() {
	c.table = c.table[:0]
	for data := uint16(0); data < c.clearCode(); data++ {
		c.pushNode(-1, uint8(data))
	}
	c.pushNode(-1, 0) // clear code
	c.pushNode(-1, 0) // end code
}

func (c *Compressor) pushNode(next int32, data uint8) {
	c.table = append(c.table, newCnode(next, data))
}

// pack appends a code into the output buffer, LSB-first.
func (c *Compressor) pack(cd code, buffer *[]byte) {
	c.code |= uint32(cd) << c.nBits
	c.nBits += c.codeBits
	for c.nBits >= 8 {
		*buffer = append(*buffer, byte(c.code))
		c.code >>= 8
		c.nBits -= 8
	}
}

// Compress appends the LZW encoding of bytes (including the leading clear
// code and trailing end code) to buffer.
func (c *Compressor) Compress(bytes []byte, buffer *[]byte) {
	c.pack(c.clearCode(), buffer)
	var cur code
	have := false
	for _, data := range bytes {
		var next code
		found := false
		if have {
			next, found = c.insertNode(cur, data)
		} else {
			next, found = code(data), true
		}
		if found {
			cur, have = next, true
		} else {
			c.pack(cur, buffer)
			cur, have = code(data), true
		}
		nextCode := c.nextCode()
		if nextCode > bitsEntries(c.codeBits) {
			if nextCode <= bitsEntries(maxCodeBits) {
				c.codeBits = clampBits(c.codeBits + 1)
			} else {
				c.pack(c.clearCode(), buffer)
				c.resetTable()
				c.codeBits = clampBits(c.minCodeBits + 1)
			}
		}
	}
	if have {
		c.pack(cur, buffer)
	}
	c.pack(c.endCode(), buffer)
	// Flush a trailing partial byte when it still holds bits of a data
	// code; bits belonging only to the end code are left unwritten.
	if c.nBits > c.codeBits {
		*buffer = append(*buffer, byte(c.code))
	}
}

// insertNode searches for (parent, data) in the trie; if found, returns its
// code. Otherwise it inserts a new node and returns (0, false).
func (c *Compressor) insertNode(parent code, data uint8) (code, bool) {
	nextCode := c.nextCode()
	idx := int32(parent)
	ordering := 0
	for {
		linked := c.table[idx].link(ordering)
		if linked < 0 {
			break
		}
		idx = linked
		if data < c.table[idx].data {
			ordering = -1
		} else if data > c.table[idx].data {
			ordering = 1
		} else {
			return code(idx), true
		}
	}
	c.table[idx].setLink(ordering, nextCode)
	c.pushNode(-1, data)
	return 0, false
}

// dnode is a decompressor dictionary node: a single parent pointer plus
// the byte value appended at this node.
type dnode struct {
	parent int32 // -1 means no parent (this code is a literal byte)
	data   uint8
}

// Decompressor is a streaming LZW decoder with a trie-backed dictionary,
// mirroring original_source/src/lzw.rs::Decompressor.
type Decompressor struct {
	table       []dnode
	minCodeBits uint8
	codeBits    uint8
	last        int32 // -1 means none
	code        uint32
	nBits       uint8
}

// NewDecompressor creates a decompressor for the given minimum code size
// (2-12 is tolerated on decode; the format only requires encoders stay
// at 2-8).
func NewDecompressor(minCodeBits uint8) *Decompressor {
	d := &Decompressor{
		minCodeBits: minCodeBits,
		codeBits:    clampBits(minCodeBits + 1),
		last:        -1,
	}
	d.resetTable()
	return d
}

func (d *Decompressor) clearCode() code { return 1 << d.minCodeBits }
func (d *Decompressor) endCode() code   { return d.clearCode() + 1 }
func (d *Decompressor) nextCode() code  { return code(len(d.table)) }

func (d *Decompressor) resetTable() {
	d.table = d.table[:0]
	for data := uint16(0); data < d.clearCode(); data++ {
		d.pushNode(-1, uint8(data))
	}
	d.pushNode(-1, 0) // clear code
	d.pushNode(-1, 0) // end code
}

func (d *Decompressor) pushNode(parent int32, data uint8) {
	d.table = append(d.table, dnode{parent: parent, data: data})
}

// lookup walks parent links to find the terminal (first) byte of a code.
func (d *Decompressor) lookup(c code) uint8 {
	n := d.table[c]
	for n.parent >= 0 {
		n = d.table[n.parent]
	}
	return n.data
}

// unpack extracts one code from the head of buf, LSB-first, returning the
// code (if a full width was available) and the number of bytes consumed.
func (d *Decompressor) unpack(buf []byte) (code, bool, int) {
	consumed := 0
	for _, b := range buf {
		if d.nBits >= d.codeBits {
			break
		}
		d.code |= uint32(b) << d.nBits
		d.nBits += 8
		consumed++
	}
	if d.nBits >= d.codeBits {
		c := code(d.code & bitsMask(d.codeBits))
		d.code >>= d.codeBits
		d.nBits -= d.codeBits
		return c, true, consumed
	}
	return 0, false, consumed
}

// Decompress feeds bytes through the decoder, appending decoded output
// bytes to buffer. It may be called repeatedly as sub-blocks arrive.
func (d *Decompressor) Decompress(bytes []byte, buffer *[]byte) error {
	for {
		c, ok, consumed := d.unpack(bytes)
		if !ok {
			return nil
		}
		if err := d.decompressCode(c, buffer); err != nil {
			return err
		}
		bytes = bytes[consumed:]
	}
}

// DecompressFinish flushes any bits remaining in the bit buffer after the
// sub-block terminator; the GIF stream may end mid-code when the encoder
// packed its final flush byte-aligned.
func (d *Decompressor) DecompressFinish(buffer *[]byte) error {
	for d.nBits >= d.codeBits {
		c := code(d.code & bitsMask(d.codeBits))
		d.code >>= d.codeBits
		d.nBits -= d.codeBits
		if err := d.decompressCode(c, buffer); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decompressor) decompressCode(c code, buffer *[]byte) error {
	switch {
	case c == d.clearCode():
		d.resetTable()
		d.codeBits = clampBits(d.minCodeBits + 1)
		d.last = -1
		return nil
	case c == d.endCode():
		// Drop the padding bits that follow the end code.
		d.code, d.nBits = 0, 0
		return nil
	default:
		start := len(*buffer)
		if err := d.decompressReversed(c, buffer); err != nil {
			return err
		}
		reverseTail(*buffer, start)
		d.last = int32(c)
		return nil
	}
}

func (d *Decompressor) decompressReversed(c code, buffer *[]byte) error {
	nextCode := d.nextCode()
	switch {
	case c > nextCode:
		return newErr(KindInvalidLzwData, "code exceeds next assignable code")
	case d.last >= 0 && c < nextCode:
		d.decompressBuffer(c, buffer)
		data := (*buffer)[len(*buffer)-1]
		d.pushNode(d.last, data)
	case d.last >= 0 && c == nextCode:
		// KwKwK: the code being decoded is exactly the next code about to
		// be assigned. Synthesize it from the previous code plus its own
		// first byte before resolving it.
		d.pushNode(d.last, d.lookup(code(d.last)))
		d.decompressBuffer(c, buffer)
	default: // d.last < 0: first code after a clear
		*buffer = append(*buffer, uint8(c))
	}
	if nextCode+1 == bitsEntries(d.codeBits) && d.codeBits < maxCodeBits {
		d.codeBits++
	}
	return nil
}

// decompressBuffer appends the byte sequence for code c to buffer, in
// reverse order (terminal byte first); the caller reverses the tail back
// into forward order.
func (d *Decompressor) decompressBuffer(c code, buffer *[]byte) {
	n := d.table[c]
	for n.parent >= 0 {
		*buffer = append(*buffer, n.data)
		n = d.table[n.parent]
	}
	*buffer = append(*buffer, n.data)
}

func reverseTail(buf []byte, start int) {
	tail := buf[start:]
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}
}
