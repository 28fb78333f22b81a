package tables

import (
	"bytes"
	"fmt"

	"vimagination.zapto.org/byteio"
)

// slice returns data[offset:offset+length], failing with ErrMalformedBinary
// (wrapped with the offending filename) if that range falls outside data.
// Every offset/length pulled out of a file header or section descriptor
// must be run through this before being read, per spec §4.1/§9.
func slice(data []byte, filename string, offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)

	if end > uint64(len(data)) {
		return nil, fmt.Errorf("%s: %w: range [%d,%d) exceeds %d bytes",
			filename, ErrMalformedBinary, offset, end, len(data))
	}

	return data[offset:offset+length], nil
}

// bigEndianReader wraps a bounds-checked byte slice with a
// byteio.StickyBigEndianReader, per spec §4.1's "big-endian integers
// throughout" and §9's "reverse byte order explicitly for every field"
// (DESIGN.md: grounded on the teacher's own little-endian use of this same
// module in db/guta.go/db/dguta.go).
func bigEndianReader(b []byte) *byteio.StickyBigEndianReader {
	return &byteio.StickyBigEndianReader{Reader: bytes.NewReader(b)}
}

func readFixedString(r *byteio.StickyBigEndianReader, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = r.ReadUint8()
	}

	return trimNUL(buf)
}

func trimNUL(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 && b[i] != ' ' {
		i++
	}

	return string(b[:i])
}

func skip(r *byteio.StickyBigEndianReader, n int) {
	for i := 0; i < n; i++ {
		r.ReadUint8()
	}
}
