package exif

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func appendSegment(dst []byte, marker byte, payload []byte) []byte {
	dst = append(dst, jpegMarkerPrefix, marker)
	var n [2]byte
	binary.BigEndian.PutUint16(n[:], uint16(len(payload)+2))
	dst = append(dst, n[:]...)
	return append(dst, payload...)
}

func TestWalkJPEGSegments(t *testing.T) {
	jpg := []byte{jpegMarkerPrefix, markerSOI}
	jpg = appendSegment(jpg, markerCOM, []byte("hello"))
	jpg = appendSegment(jpg, 0xC0, []byte{8, 0, 120, 0, 160, 3})
	jpg = append(jpg, jpegMarkerPrefix, markerEOI)

	var markers []byte
	err := walkJPEGSegments(jpg, func(seg jpegSegment) error {
		markers = append(markers, seg.marker)
		if seg.marker == markerCOM {
			require.Equal(t, []byte("hello"), seg.data)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte{markerCOM, 0xC0, markerEOI}, markers)
}

func TestWalkJPEGSegmentsTruncated(t *testing.T) {
	err := walkJPEGSegments([]byte{0x00, 0x11}, func(jpegSegment) error { return nil })
	require.ErrorIs(t, err, ErrFormat)

	jpg := []byte{jpegMarkerPrefix, markerSOI, jpegMarkerPrefix, markerCOM, 0x00}
	err = walkJPEGSegments(jpg, func(jpegSegment) error { return nil })
	require.ErrorIs(t, err, ErrFormat)
}

func TestWriteJPEGSegmentLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJPEGSegment(&buf, markerAPP1, make([]byte, maxJPEGSegmentPayload)))
	require.Equal(t, 4+maxJPEGSegmentPayload, buf.Len())

	err := writeJPEGSegment(&buf, markerAPP1, make([]byte, maxJPEGSegmentPayload+1))
	require.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestParseJPEGComment(t *testing.T) {
	jpg := []byte{jpegMarkerPrefix, markerSOI}
	jpg = appendSegment(jpg, markerCOM, []byte("shot on tripod"))
	jpg = appendSegment(jpg, 0xC0, []byte{8, 0, 120, 0, 160, 3})
	jpg = append(jpg, jpegMarkerPrefix, markerEOI)

	m := newTestSession()
	require.NoError(t, m.parseJPEG(jpg, 0, GroupPrimary))

	c, ok := m.GetAttribute("UserComment")
	require.True(t, ok)
	require.Equal(t, "shot on tripod", c)
	require.Equal(t, 160, m.GetAttributeInt("ImageWidth", 0))
	require.Equal(t, 120, m.GetAttributeInt("ImageLength", 0))
}

func TestSpliceJPEGSeparateXMP(t *testing.T) {
	xmp := []byte("<x:xmpmeta/>")
	jpg := []byte{jpegMarkerPrefix, markerSOI}
	jpg = appendSegment(jpg, markerAPP1, append(append([]byte(nil), xmpIdentifier...), xmp...))
	jpg = append(jpg, jpegMarkerPrefix, markerEOI)

	m := newTestSession()
	m.container = ContainerJPEG
	require.NoError(t, m.parseJPEG(jpg, 0, GroupPrimary))
	require.True(t, m.xmpSeparateMarker)
	require.Equal(t, xmp, m.raw(GroupPrimary, "Xmp").Value)

	m.setRaw(GroupPrimary, "Orientation", newUShortAttr(m.byteOrder(), 3))
	out, err := m.encodeContainer(jpg)
	require.NoError(t, err)

	// The XMP attribute is restored after the splice.
	require.NotNil(t, m.raw(GroupPrimary, "Xmp"))

	re := newTestSession()
	require.NoError(t, re.parseJPEG(out, 0, GroupPrimary))
	require.True(t, re.xmpSeparateMarker)
	require.Equal(t, xmp, re.raw(GroupPrimary, "Xmp").Value)
	require.Equal(t, 3, re.GetAttributeInt("Orientation", 0))

	// Exactly one XMP marker must survive the rewrite.
	var xmpMarkers int
	require.NoError(t, walkJPEGSegments(out, func(seg jpegSegment) error {
		if seg.marker == markerAPP1 && bytes.HasPrefix(seg.data, xmpIdentifier) {
			xmpMarkers++
		}
		return nil
	}))
	require.Equal(t, 1, xmpMarkers)
}
