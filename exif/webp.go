package exif

import (
	"bytes"
	"encoding/binary"
	"io"
)

// RIFF/WebP constants. Chunk sizes are little-endian; an odd-length payload
// carries one pad byte not counted in the declared size.
const (
	webpHeaderSize = 12

	vp8xFlagICC   = 1 << 5
	vp8xFlagAlpha = 1 << 4
	vp8xFlagEXIF  = 1 << 3
	vp8xFlagXMP   = 1 << 2
	vp8xFlagAnim  = 1 << 1
)

// webpChunkRank encodes the canonical chunk ordering:
// VP8X < ICCP < ANIM < image chunks < EXIF < XMP. Chunks outside the table
// are not order-constrained.
func webpChunkRank(fourCC string) (int, bool) {
	switch fourCC {
	case "VP8X":
		return 0, true
	case "ICCP":
		return 1, true
	case "ANIM":
		return 2, true
	case "ALPH", "VP8 ", "VP8L", "ANMF":
		return 3, true
	case "EXIF":
		return 4, true
	case "XMP ":
		return 5, true
	}
	return 0, false
}

func isWebPImageChunk(fourCC string) bool {
	r, ok := webpChunkRank(fourCC)
	return ok && r == 3
}

// webpChunk is one RIFF sub-chunk: start is the offset of the fourCC, end
// one past the payload including any pad byte.
type webpChunk struct {
	fourCC     string
	start, end int
	data       []byte
}

// parseWebPChunks validates the RIFF+WEBP header and the canonical chunk
// ordering, returning the chunk list. An ordering violation is fatal.
func parseWebPChunks(data []byte) ([]webpChunk, error) {
	if len(data) < webpHeaderSize ||
		!bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WEBP")) {
		return nil, formatErrorf("missing RIFF/WEBP signature")
	}
	var chunks []webpChunk
	maxRank := -1
	pos := webpHeaderSize
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, formatErrorf("truncated chunk header at offset %d", pos)
		}
		fourCC := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		padded := size + size%2
		if pos+8+padded > len(data) {
			return nil, formatErrorf("invalid %q chunk size %d at offset %d", fourCC, size, pos)
		}
		if rank, ok := webpChunkRank(fourCC); ok {
			if rank < maxRank {
				return nil, formatErrorf("%q chunk out of order", fourCC)
			}
			maxRank = rank
		}
		chunks = append(chunks, webpChunk{
			fourCC: fourCC,
			start:  pos,
			end:    pos + 8 + padded,
			data:   data[pos+8 : pos+8+size],
		})
		pos += 8 + padded
	}
	return chunks, nil
}

// parseWebP scans the chunk list for metadata. The VP8X extension flags
// dictate which metadata chunks are looked for at all; without VP8X the
// format has no room for them.
func (m *Metadata) parseWebP(data []byte) error {
	chunks, err := parseWebPChunks(data)
	if err != nil {
		return err
	}
	var (
		hasVP8X bool
		flags   byte
	)
	for _, c := range chunks {
		switch c.fourCC {
		case "VP8X":
			if len(c.data) < 10 {
				return formatErrorf("short VP8X chunk")
			}
			hasVP8X = true
			flags = c.data[0]
		case "EXIF":
			if !hasVP8X || flags&vp8xFlagEXIF == 0 {
				continue
			}
			payload := c.data
			base := int64(c.start + 8)
			if bytes.HasPrefix(payload, exifIdentifier) {
				payload = payload[len(exifIdentifier):]
				base += int64(len(exifIdentifier))
			}
			m.tiffBase = base
			if err := m.parseTIFF(payload, base, false); err != nil {
				return err
			}
		case "XMP ":
			if !hasVP8X || flags&vp8xFlagXMP == 0 {
				continue
			}
			if !m.hasRaw(GroupPrimary, "Xmp") {
				a := newByteAttr(append([]byte(nil), c.data...))
				a.sourceOffset = int64(c.start + 8)
				m.setRaw(GroupPrimary, "Xmp", a)
				m.xmpSeparateMarker = true
			}
		case "ICCP":
			if hasVP8X && flags&vp8xFlagICC != 0 {
				m.hasICCProfile = true
			}
		}
	}
	return nil
}

// webpFrameSize extracts width and height from the first image-bearing
// chunk. VP8 carries a 3-byte frame tag and a 3-byte signature before the
// packed dimensions; VP8L packs 14-bit width-1/height-1 plus an alpha bit
// after its 1-byte signature.
func webpFrameSize(c webpChunk) (width, height uint32, alpha bool, err error) {
	switch c.fourCC {
	case "VP8 ":
		if len(c.data) < 10 || c.data[3] != 0x9D || c.data[4] != 0x01 || c.data[5] != 0x2A {
			return 0, 0, false, formatErrorf("malformed VP8 frame header")
		}
		width = uint32(binary.LittleEndian.Uint16(c.data[6:]) & 0x3FFF)
		height = uint32(binary.LittleEndian.Uint16(c.data[8:]) & 0x3FFF)
		return width, height, false, nil
	case "VP8L":
		if len(c.data) < 5 || c.data[0] != 0x2F {
			return 0, 0, false, formatErrorf("malformed VP8L header")
		}
		bits := binary.LittleEndian.Uint32(c.data[1:])
		width = (bits & 0x3FFF) + 1
		height = ((bits >> 14) & 0x3FFF) + 1
		alpha = (bits>>28)&1 != 0
		return width, height, alpha, nil
	}
	return 0, 0, false, formatErrorf("chunk %q carries no frame size", c.fourCC)
}

func writeWebPChunk(w io.Writer, fourCC string, data []byte) error {
	var hdr [8]byte
	copy(hdr[:], fourCC)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if len(data)%2 == 1 {
		_, err := w.Write([]byte{0})
		return err
	}
	return nil
}

// spliceWebP rewrites src with a fresh EXIF chunk. With a pre-existing VP8X
// the EXIF flag is set and the chunk placed at its canonical position; with
// none, a VP8X is synthesized from the first image chunk's dimensions and
// the EXIF chunk appended after the last image-bearing chunk.
func spliceWebP(src []byte, exifPayload []byte, w io.Writer) error {
	chunks, err := parseWebPChunks(src)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	var hasVP8X bool
	for _, c := range chunks {
		if c.fourCC == "VP8X" {
			hasVP8X = true
		}
	}

	if hasVP8X {
		exifWritten := false
		for _, c := range chunks {
			switch {
			case c.fourCC == "VP8X":
				patched := append([]byte(nil), c.data...)
				patched[0] |= vp8xFlagEXIF
				if err := writeWebPChunk(&body, "VP8X", patched); err != nil {
					return err
				}
			case c.fourCC == "EXIF":
				if err := writeWebPChunk(&body, "EXIF", exifPayload); err != nil {
					return err
				}
				exifWritten = true
			case c.fourCC == "XMP " && !exifWritten:
				if err := writeWebPChunk(&body, "EXIF", exifPayload); err != nil {
					return err
				}
				exifWritten = true
				fallthrough
			default:
				body.Write(src[c.start:c.end])
			}
		}
		if !exifWritten {
			if err := writeWebPChunk(&body, "EXIF", exifPayload); err != nil {
				return err
			}
		}
	} else {
		firstImage := -1
		lastImage := -1
		for i, c := range chunks {
			if isWebPImageChunk(c.fourCC) {
				if firstImage < 0 {
					firstImage = i
				}
				lastImage = i
			}
		}
		if firstImage < 0 {
			return formatErrorf("no image chunk to anchor VP8X")
		}
		width, height, alpha, err := webpFrameSize(chunks[firstImage])
		if err != nil {
			return err
		}
		vp8x := make([]byte, 10)
		vp8x[0] = vp8xFlagEXIF
		if alpha {
			vp8x[0] |= vp8xFlagAlpha
		}
		putUint24(vp8x[4:], width-1)
		putUint24(vp8x[7:], height-1)

		for i, c := range chunks {
			if i == firstImage {
				if err := writeWebPChunk(&body, "VP8X", vp8x); err != nil {
					return err
				}
			}
			body.Write(src[c.start:c.end])
			if i == lastImage {
				if err := writeWebPChunk(&body, "EXIF", exifPayload); err != nil {
					return err
				}
			}
		}
	}

	return writeWebPFile(w, body.Bytes())
}

// stripWebP copies src to w with EXIF, XMP and ICCP chunks removed and the
// matching VP8X flags cleared. A non-nil orientationPayload is spliced back
// in afterwards.
func stripWebP(src []byte, orientationPayload []byte, w io.Writer) error {
	chunks, err := parseWebPChunks(src)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	for _, c := range chunks {
		switch c.fourCC {
		case "EXIF", "XMP ", "ICCP":
			continue
		case "VP8X":
			patched := append([]byte(nil), c.data...)
			patched[0] &^= vp8xFlagEXIF | vp8xFlagXMP | vp8xFlagICC
			if err := writeWebPChunk(&body, "VP8X", patched); err != nil {
				return err
			}
		default:
			body.Write(src[c.start:c.end])
		}
	}
	if orientationPayload == nil {
		return writeWebPFile(w, body.Bytes())
	}
	var stripped bytes.Buffer
	if err := writeWebPFile(&stripped, body.Bytes()); err != nil {
		return err
	}
	return spliceWebP(stripped.Bytes(), orientationPayload, w)
}

// writeWebPFile emits the RIFF header with the recomputed total size in
// front of the chunk body.
func writeWebPFile(w io.Writer, body []byte) error {
	var hdr [webpHeaderSize]byte
	copy(hdr[:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:], uint32(4+len(body)))
	copy(hdr[8:12], "WEBP")
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
