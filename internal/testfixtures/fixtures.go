// Package testfixtures holds GIF fixtures shared across this module's
// test files. GIF1 and Image1 are ported byte-for-byte from the original
// Rust crate's decode.rs test module.
package testfixtures

// GIF1 is a 10x10, single-frame, 89a GIF with a graphic control
// extension and a 2-bit (4 entry) global color table.
var GIF1 = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x0A, 0x00, 0x0A, 0x00, 0x91, 0x00,
	0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00,
	0x00, 0x21, 0xF9, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x2C, 0x00, 0x00,
	0x00, 0x00, 0x0A, 0x00, 0x0A, 0x00, 0x00, 0x02, 0x16, 0x8C, 0x2D, 0x99,
	0x87, 0x2A, 0x1C, 0xDC, 0x33, 0xA0, 0x02, 0x75, 0xEC, 0x95, 0xFA, 0xA8,
	0xDE, 0x60, 0x8C, 0x04, 0x91, 0x4C, 0x01, 0x00, 0x3B,
}

// GIF1Colors is GIF1's global color table: white, red, blue, black.
var GIF1Colors = []byte{
	0xFF, 0xFF, 0xFF,
	0xFF, 0x00, 0x00,
	0x00, 0x00, 0xFF,
	0x00, 0x00, 0x00,
}

// Image1 is GIF1's decoded 10x10 index raster.
var Image1 = []byte{
	1, 1, 1, 1, 1, 2, 2, 2, 2, 2,
	1, 1, 1, 1, 1, 2, 2, 2, 2, 2,
	1, 1, 1, 1, 1, 2, 2, 2, 2, 2,
	1, 1, 1, 0, 0, 0, 0, 2, 2, 2,
	1, 1, 1, 0, 0, 0, 0, 2, 2, 2,
	2, 2, 2, 0, 0, 0, 0, 1, 1, 1,
	2, 2, 2, 0, 0, 0, 0, 1, 1, 1,
	2, 2, 2, 2, 2, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 1, 1, 1, 1, 1,
}

// TruncatedHeader is a 6-byte GIF header with an unsupported version
// ("89" followed by 0x60 instead of 'a'), used to exercise
// UnsupportedVersion without a full file.
var TruncatedHeader = []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x60}

// Image2x2 is an arbitrary 2x2 index raster used as an LZW round-trip
// payload: a diagonal of index 1 over a background of index 0.
var Image2x2 = []byte{1, 0, 0, 1}

// Image3x3 is an arbitrary 3x3 index raster used as an LZW round-trip
// payload.
var Image3x3 = []byte{
	1, 0, 0,
	0, 2, 0,
	3, 0, 3,
}

// Image4x4 is an arbitrary 4x4 index raster used as an LZW round-trip
// payload: a diagonal of index 1.
var Image4x4 = []byte{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}
