package exif

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var xmpKeyword = []byte("XML:com.adobe.xmp")

// pngChunk is one chunk located in the source bytes: start is the offset of
// the length field, end one past the CRC.
type pngChunk struct {
	typ        string
	start, end int
	data       []byte
	crc        uint32
}

// walkPNGChunks iterates the length-prefixed, CRC-suffixed chunks. The first
// chunk must be IHDR; iteration ends after IEND.
func walkPNGChunks(data []byte, fn func(c pngChunk) (stop bool, err error)) error {
	if !bytes.HasPrefix(data, pngSignature) {
		return formatErrorf("missing PNG signature")
	}
	pos := len(pngSignature)
	first := true
	for pos < len(data) {
		if pos+8 > len(data) {
			return formatErrorf("truncated chunk header at offset %d", pos)
		}
		length := int(binary.BigEndian.Uint32(data[pos:]))
		if length < 0 || pos+12+length > len(data) {
			return formatErrorf("invalid chunk length %d at offset %d", length, pos)
		}
		c := pngChunk{
			typ:   string(data[pos+4 : pos+8]),
			start: pos,
			end:   pos + 12 + length,
			data:  data[pos+8 : pos+8+length],
			crc:   binary.BigEndian.Uint32(data[pos+8+length:]),
		}
		if first && c.typ != "IHDR" {
			return formatErrorf("first chunk is %q, want IHDR", c.typ)
		}
		first = false
		stop, err := fn(c)
		if err != nil {
			return err
		}
		if stop || c.typ == "IEND" {
			return nil
		}
		pos = c.end
	}
	return formatErrorf("missing IEND chunk")
}

func pngChunkCRC(typ string, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return crc.Sum32()
}

func verifyPNGChunk(c pngChunk) error {
	if pngChunkCRC(c.typ, c.data) != c.crc {
		return formatErrorf("CRC mismatch in %s chunk at offset %d", c.typ, c.start)
	}
	return nil
}

// parsePNG scans the chunk stream for an eXIf chunk (parsed as TIFF), an
// ICC profile chunk, and an XMP iTXt chunk. CRCs of the metadata chunks are
// verified; a mismatch is fatal since the payload cannot be trusted.
func (m *Metadata) parsePNG(data []byte) error {
	return walkPNGChunks(data, func(c pngChunk) (bool, error) {
		switch c.typ {
		case "eXIf":
			if err := verifyPNGChunk(c); err != nil {
				return false, err
			}
			payload := c.data
			base := int64(c.start + 8)
			if bytes.HasPrefix(payload, exifIdentifier) {
				payload = payload[len(exifIdentifier):]
				base += int64(len(exifIdentifier))
			}
			m.tiffBase = base
			m.pngExifChunkOffset = c.start
			if err := m.parseTIFF(payload, base, false); err != nil {
				return false, err
			}
		case "iCCP":
			if err := verifyPNGChunk(c); err != nil {
				return false, err
			}
			m.hasICCProfile = true
		case "iTXt":
			if !bytes.HasPrefix(c.data, xmpKeyword) {
				break
			}
			if err := verifyPNGChunk(c); err != nil {
				return false, err
			}
			if !m.hasRaw(GroupPrimary, "Xmp") {
				if payload := itxtText(c.data); payload != nil {
					a := newByteAttr(append([]byte(nil), payload...))
					m.setRaw(GroupPrimary, "Xmp", a)
					m.xmpSeparateMarker = true
				}
			}
		}
		return false, nil
	})
}

// itxtText returns the text field of an iTXt chunk: keyword, two flag
// bytes, language tag and translated keyword precede it, the string fields
// NUL-terminated.
func itxtText(data []byte) []byte {
	i := bytes.IndexByte(data, 0)
	if i < 0 || len(data) < i+3 {
		return nil
	}
	rest := data[i+3:] // keyword NUL + compression flag + method
	for k := 0; k < 2; k++ { // language tag, translated keyword
		j := bytes.IndexByte(rest, 0)
		if j < 0 {
			return nil
		}
		rest = rest[j+1:]
	}
	return rest
}

func writePNGChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(data)))
	copy(hdr[4:], typ)
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], pngChunkCRC(typ, data))
	_, err := w.Write(tail[:])
	return err
}

// splicePNG rewrites src with a fresh eXIf chunk: at the original chunk's
// position when one existed, otherwise right after IHDR. All other chunks
// are copied verbatim; only the new chunk's CRC is computed.
func splicePNG(src []byte, exifPayload []byte, hadExifAt int, w io.Writer) error {
	if _, err := w.Write(pngSignature); err != nil {
		return err
	}
	return walkPNGChunks(src, func(c pngChunk) (bool, error) {
		switch {
		case c.typ == "eXIf":
			return false, writePNGChunk(w, "eXIf", exifPayload)
		case c.typ == "IHDR" && hadExifAt < 0:
			if _, err := w.Write(src[c.start:c.end]); err != nil {
				return false, err
			}
			return false, writePNGChunk(w, "eXIf", exifPayload)
		}
		_, err := w.Write(src[c.start:c.end])
		return false, err
	})
}

// stripPNG copies src to w with eXIf, iCCP and XMP iTXt chunks removed,
// optionally re-inserting a minimal orientation-only eXIf after IHDR.
func stripPNG(src []byte, orientationPayload []byte, w io.Writer) error {
	if _, err := w.Write(pngSignature); err != nil {
		return err
	}
	return walkPNGChunks(src, func(c pngChunk) (bool, error) {
		switch {
		case c.typ == "eXIf" || c.typ == "iCCP":
			return false, nil
		case c.typ == "iTXt" && bytes.HasPrefix(c.data, xmpKeyword):
			return false, nil
		case c.typ == "IHDR" && orientationPayload != nil:
			if _, err := w.Write(src[c.start:c.end]); err != nil {
				return false, err
			}
			return false, writePNGChunk(w, "eXIf", orientationPayload)
		}
		_, err := w.Write(src[c.start:c.end])
		return false, err
	})
}
