package gifstream

import (
	"fmt"
	"os"
)

// logTruncatedImageData reports excess LZW-decoded bytes beyond a frame's
// declared width*height. This is a warning, not a decode error: the
// image raster is still usable once the extra bytes are dropped. No
// third-party structured logging library appears anywhere in the
// retrieved example corpus (hailam-genfile, the closest ambient-stack
// donor, logs with plain fmt.Fprintf(os.Stderr, ...) throughout its
// adapters and CLI), so this follows the same convention.
func logTruncatedImageData(extra []byte) {
	fmt.Fprintf(os.Stderr, "gifstream: extra image data: %d byte(s) discarded\n", len(extra))
}
