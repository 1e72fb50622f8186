package exif

import (
	"bytes"
	"encoding/binary"
	"io"
)

// JPEG marker bytes. Marker segments are big-endian length-prefixed; the
// length field counts itself.
const (
	jpegMarkerPrefix = 0xFF
	markerSOI        = 0xD8
	markerEOI        = 0xD9
	markerSOS        = 0xDA
	markerAPP1       = 0xE1
	markerAPP2       = 0xE2
	markerAPP13      = 0xED
	markerCOM        = 0xFE
)

var (
	xmpIdentifier         = []byte("http://ns.adobe.com/xap/1.0/\x00")
	extendedXMPIdentifier = []byte("http://ns.adobe.com/xmp/extension/\x00")
	iccIdentifier         = []byte("ICC_PROFILE\x00")
	photoshopIdentifier   = []byte("Photoshop 3.0\x00")
)

func isSOFMarker(marker byte) bool {
	switch marker {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7,
		0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}
	return false
}

// jpegSegment is one marker segment located in the source bytes. start is
// the offset of the 0xFF prefix, end the offset one past the segment's last
// byte; data excludes the length field.
type jpegSegment struct {
	marker     byte
	start, end int
	data       []byte
}

// walkJPEGSegments calls fn for every marker segment between SOI and the
// scan terminator (SOS or EOI). It mirrors the libjpeg-style leniency of the
// stock marker walk: fill bytes before a marker are accepted.
func walkJPEGSegments(data []byte, fn func(seg jpegSegment) error) error {
	if len(data) < 2 || data[0] != jpegMarkerPrefix || data[1] != markerSOI {
		return formatErrorf("missing SOI marker")
	}
	pos := 2
	for {
		if pos+2 > len(data) {
			return formatErrorf("truncated segment at offset %d", pos)
		}
		if data[pos] != jpegMarkerPrefix {
			return formatErrorf("invalid marker byte %#02x at offset %d", data[pos], pos)
		}
		start := pos
		marker := data[pos+1]
		pos += 2
		for marker == jpegMarkerPrefix {
			// Fill bytes before a marker are allowed.
			if pos >= len(data) {
				return formatErrorf("truncated marker at offset %d", pos)
			}
			marker = data[pos]
			pos++
		}
		if marker == markerSOS || marker == markerEOI {
			return fn(jpegSegment{marker: marker, start: start, end: len(data)})
		}
		if pos+2 > len(data) {
			return formatErrorf("truncated segment length at offset %d", pos)
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return formatErrorf("invalid segment length %d at offset %d", segLen, pos)
		}
		seg := jpegSegment{marker: marker, start: start, end: pos + segLen, data: data[pos+2 : pos+segLen]}
		pos += segLen
		if err := fn(seg); err != nil {
			return err
		}
	}
}

// parseJPEG scans the marker segments for metadata: the Exif APP1 blob, a
// standalone XMP APP1, ICC and Photoshop presence, comment segments and the
// frame dimensions. baseOffset is the file-absolute position of data, zero
// for a top-level file and the blob offset when the JPEG is embedded inside
// a RAW container. sofGroup is the directory group that receives the frame
// dimensions: the primary group for a top-level file, the preview group for
// an embedded one.
func (m *Metadata) parseJPEG(data []byte, baseOffset int64, sofGroup GroupID) error {
	return walkJPEGSegments(data, func(seg jpegSegment) error {
		switch {
		case seg.marker == markerAPP1 && bytes.HasPrefix(seg.data, exifIdentifier):
			tiff := seg.data[len(exifIdentifier):]
			base := baseOffset + int64(seg.end-len(seg.data)+len(exifIdentifier))
			m.tiffBase = base
			if err := m.parseTIFF(tiff, base, false); err != nil {
				return err
			}
		case seg.marker == markerAPP1 && bytes.HasPrefix(seg.data, xmpIdentifier):
			if !m.hasRaw(GroupPrimary, "Xmp") {
				payload := seg.data[len(xmpIdentifier):]
				a := newByteAttr(append([]byte(nil), payload...))
				a.sourceOffset = baseOffset + int64(seg.end-len(payload))
				m.setRaw(GroupPrimary, "Xmp", a)
				// Re-emitted as its own APP1 on save rather than folded
				// into the Exif blob.
				m.xmpSeparateMarker = true
			}
		case seg.marker == markerAPP2 && bytes.HasPrefix(seg.data, iccIdentifier):
			m.hasICCProfile = true
		case seg.marker == markerAPP13 && bytes.HasPrefix(seg.data, photoshopIdentifier):
			m.hasPhotoshop = true
		case seg.marker == markerCOM:
			if !m.hasRaw(GroupExif, "UserComment") {
				m.setRaw(GroupExif, "UserComment", newStringAttr(string(seg.data)))
			}
		case isSOFMarker(seg.marker):
			if len(seg.data) >= 5 {
				height := uint32(binary.BigEndian.Uint16(seg.data[1:]))
				width := uint32(binary.BigEndian.Uint16(seg.data[3:]))
				m.setRaw(sofGroup, "ImageLength", newULongAttr(m.byteOrder(), height))
				m.setRaw(sofGroup, "ImageWidth", newULongAttr(m.byteOrder(), width))
			}
		}
		return nil
	})
}

// maxJPEGSegmentPayload is the largest payload a marker segment can carry:
// the 16-bit length field counts itself.
const maxJPEGSegmentPayload = 0xFFFF - 2

func writeJPEGSegment(w io.Writer, marker byte, payload []byte) error {
	if len(payload) > maxJPEGSegmentPayload {
		return unsupportedf("metadata payload of %d bytes exceeds the JPEG segment limit", len(payload))
	}
	hdr := [4]byte{jpegMarkerPrefix, marker}
	binary.BigEndian.PutUint16(hdr[2:], uint16(len(payload)+2))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// spliceJPEG rewrites src with fresh metadata: the old Exif APP1 and the old
// separate XMP APP1 are dropped, and their replacements go immediately after
// SOI, Exif first. Every other byte of every other segment is copied
// verbatim.
func spliceJPEG(src []byte, exifPayload, xmpPayload []byte, w io.Writer) error {
	if _, err := w.Write([]byte{jpegMarkerPrefix, markerSOI}); err != nil {
		return err
	}
	if exifPayload != nil {
		if err := writeJPEGSegment(w, markerAPP1, exifPayload); err != nil {
			return err
		}
	}
	if xmpPayload != nil {
		payload := append(append([]byte(nil), xmpIdentifier...), xmpPayload...)
		if err := writeJPEGSegment(w, markerAPP1, payload); err != nil {
			return err
		}
	}
	return walkJPEGSegments(src, func(seg jpegSegment) error {
		if seg.marker == markerSOS || seg.marker == markerEOI {
			_, err := w.Write(src[seg.start:])
			return err
		}
		if seg.marker == markerAPP1 &&
			(bytes.HasPrefix(seg.data, exifIdentifier) || bytes.HasPrefix(seg.data, xmpIdentifier)) {
			return nil
		}
		_, err := w.Write(src[seg.start:seg.end])
		return err
	})
}

// stripJPEG copies src to w with Exif, XMP, extended XMP, ICC and Photoshop
// resource segments removed. A non-nil orientationPayload is re-inserted
// after SOI as a minimal Exif APP1.
func stripJPEG(src []byte, orientationPayload []byte, w io.Writer) error {
	if _, err := w.Write([]byte{jpegMarkerPrefix, markerSOI}); err != nil {
		return err
	}
	if orientationPayload != nil {
		if err := writeJPEGSegment(w, markerAPP1, orientationPayload); err != nil {
			return err
		}
	}
	return walkJPEGSegments(src, func(seg jpegSegment) error {
		if seg.marker == markerSOS || seg.marker == markerEOI {
			_, err := w.Write(src[seg.start:])
			return err
		}
		switch {
		case seg.marker == markerAPP1 && (bytes.HasPrefix(seg.data, exifIdentifier) ||
			bytes.HasPrefix(seg.data, xmpIdentifier) ||
			bytes.HasPrefix(seg.data, extendedXMPIdentifier)):
			return nil
		case seg.marker == markerAPP2 && bytes.HasPrefix(seg.data, iccIdentifier):
			return nil
		case seg.marker == markerAPP13 && bytes.HasPrefix(seg.data, photoshopIdentifier):
			return nil
		}
		_, err := w.Write(src[seg.start:seg.end])
		return err
	})
}
