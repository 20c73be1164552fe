package gifstream

// interlacePasses gives the four Adam7-style GIF interlace passes as
// (start row, row stride) pairs, in the order rows actually arrive in an
// interlaced image's data stream.
var interlacePasses = [4]struct {
	start, stride int
}{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

// deinterlaceRows returns the destination row index for the n-th row as
// it appears in an interlaced image's raw pixel stream, for an image of
// the given height.
func deinterlaceRows(height int) []int {
	order := make([]int, 0, height)
	for _, pass := range interlacePasses {
		for row := pass.start; row < height; row += pass.stride {
			order = append(order, row)
		}
	}
	return order
}
