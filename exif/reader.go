package exif

import (
	"encoding/binary"
	"fmt"
)

// blobReader is a bounds-checked cursor over an in-memory byte blob,
// parameterized by byte order. All multi-byte reads honor the order detected
// from the TIFF header; every read reports truncation as an error instead of
// panicking on hostile offsets.
type blobReader struct {
	data []byte
	pos  int
	bo   binary.ByteOrder
}

func newBlobReader(data []byte, bo binary.ByteOrder) *blobReader {
	return &blobReader{data: data, bo: bo}
}

func (r *blobReader) len() int { return len(r.data) }

func (r *blobReader) seek(off int64) error {
	if off < 0 || off > int64(len(r.data)) {
		return formatErrorf("seek to %d outside %d-byte block", off, len(r.data))
	}
	r.pos = int(off)
	return nil
}

func (r *blobReader) remaining() int { return len(r.data) - r.pos }

func (r *blobReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, formatErrorf("truncated block: need %d bytes at offset %d", n, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *blobReader) u8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *blobReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint16(b), nil
}

func (r *blobReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint32(b), nil
}

func (r *blobReader) skip(n int) error {
	_, err := r.bytes(n)
	return err
}

// byteOrderOf maps the TIFF endianness marker to a binary.ByteOrder.
func byteOrderOf(marker uint16) (binary.ByteOrder, error) {
	switch marker {
	case 0x4949: // "II"
		return binary.LittleEndian, nil
	case 0x4D4D: // "MM"
		return binary.BigEndian, nil
	}
	return nil, formatErrorf("invalid byte order marker %#04x", marker)
}

func describeEntry(tagID uint16, f DataFormat, count uint32) string {
	return fmt.Sprintf("tag %#04x format %s count %d", tagID, f, count)
}
