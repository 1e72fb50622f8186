package exif

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildRAF assembles a Fujifilm file: magic, the offset table at its fixed
// position, an embedded JPEG and a CFA block with the dimension tag.
func buildRAF(t *testing.T) []byte {
	t.Helper()

	jpg := []byte{jpegMarkerPrefix, markerSOI}
	jpg = appendSegment(jpg, 0xC0, []byte{8, 0, 120, 0, 160, 3})
	jpg = append(jpg, jpegMarkerPrefix, markerEOI)

	cfa := make([]byte, 4, 16)
	binary.BigEndian.PutUint32(cfa, 1) // one tag
	var tag [8]byte
	binary.BigEndian.PutUint16(tag[0:], rafTagImageSize)
	binary.BigEndian.PutUint16(tag[2:], 4)
	binary.BigEndian.PutUint16(tag[4:], 3000) // height
	binary.BigEndian.PutUint16(tag[6:], 4000) // width
	cfa = append(cfa, tag[:]...)

	jpegOffset := 120
	data := make([]byte, jpegOffset+len(jpg)+len(cfa))
	copy(data, "FUJIFILMCCD-RAW ")
	binary.BigEndian.PutUint32(data[rafJPEGOffsetPos:], uint32(jpegOffset))
	binary.BigEndian.PutUint32(data[rafJPEGOffsetPos+4:], uint32(len(jpg)))
	binary.BigEndian.PutUint32(data[rafJPEGOffsetPos+8:], uint32(jpegOffset+len(jpg)))
	binary.BigEndian.PutUint32(data[rafJPEGOffsetPos+12:], uint32(len(cfa)))
	copy(data[jpegOffset:], jpg)
	copy(data[jpegOffset+len(jpg):], cfa)
	return data
}

func TestParseRAF(t *testing.T) {
	data := buildRAF(t)
	require.Equal(t, ContainerRAF, sniffContainer(data[:sniffLen]))

	m := newTestSession()
	require.NoError(t, m.parseRAF(data))

	// CFA dimensions land in the primary group, the embedded JPEG's frame
	// size in the preview group.
	require.Equal(t, 4000, m.GetAttributeInt("ImageWidth", 0))
	require.Equal(t, 3000, m.GetAttributeInt("ImageLength", 0))

	w, ok := m.raw(GroupPreview, "ImageWidth").uintAt(m.byteOrder(), 0)
	require.True(t, ok)
	require.Equal(t, uint32(160), w)
}

func TestFixupDNG(t *testing.T) {
	m := newTestSession()
	m.container = ContainerDNG
	bo := m.byteOrder()
	m.setRaw(GroupPrimary, "ImageWidth", newULongAttr(bo, 4096))
	m.setRaw(GroupPrimary, "ImageLength", newULongAttr(bo, 3072))

	crop := newURationalAttr(bo, Rational{4000, 1}, Rational{3000, 1})
	m.setRaw(GroupPrimary, "DefaultCropSize", crop)
	m.fixupDNG()

	require.Equal(t, 4000, m.GetAttributeInt("ImageWidth", 0))
	require.Equal(t, 3000, m.GetAttributeInt("ImageLength", 0))

	// Integer-typed crop sizes are accepted too.
	m.setRaw(GroupPrimary, "DefaultCropSize", newUShortAttr(bo, 2048, 1536))
	m.fixupDNG()
	require.Equal(t, 2048, m.GetAttributeInt("ImageWidth", 0))
	require.Equal(t, 1536, m.GetAttributeInt("ImageLength", 0))
}

func TestFixupRW2(t *testing.T) {
	jpg := []byte{jpegMarkerPrefix, markerSOI}
	jpg = appendSegment(jpg, 0xC0, []byte{8, 0, 120, 0, 160, 3})
	jpg = append(jpg, jpegMarkerPrefix, markerEOI)

	m := newTestSession()
	m.container = ContainerRW2
	bo := m.byteOrder()
	m.setRaw(GroupPrimary, "JpgFromRaw", newUndefinedAttr(jpg))
	m.setRaw(GroupPrimary, "ISO", newUShortAttr(bo, 200))
	m.applyVendorFixups(nil)

	require.True(t, m.HasThumbnail())
	require.Equal(t, CompressionJPEG, m.Thumbnail().Compression)
	require.Equal(t, jpg, m.ThumbnailBytes())
	require.Equal(t, 200, m.GetAttributeInt("PhotographicSensitivity", 0))
}

// olympusNote builds an OLYMP maker note whose image-processing directory
// carries a portrait aspect frame.
func olympusNote() []byte {
	note := make([]byte, 52)
	copy(note, "OLYMP\x00")

	bo := binary.BigEndian
	bo.PutUint16(note[8:], 1) // maker note directory
	bo.PutUint16(note[10:], tagOlympusImageProc)
	bo.PutUint16(note[12:], uint16(FormatULong))
	bo.PutUint32(note[14:], 1)
	bo.PutUint32(note[18:], 26)

	bo.PutUint16(note[26:], 1) // image processing directory
	bo.PutUint16(note[28:], tagOlympusAspectFrame)
	bo.PutUint16(note[30:], uint16(FormatUShort))
	bo.PutUint32(note[32:], 4)
	bo.PutUint32(note[36:], 44)

	for i, v := range []uint16{0, 0, 2999, 3999} {
		bo.PutUint16(note[44+2*i:], v)
	}
	return note
}

func TestFixupORFAspectSwap(t *testing.T) {
	m := newTestSession()
	m.container = ContainerORF
	m.setRaw(GroupExif, "MakerNote", newUndefinedAttr(olympusNote()))
	m.fixupORF()

	// The larger extent becomes the width even for portrait frames.
	require.Equal(t, 4000, m.GetAttributeInt("ImageWidth", 0))
	require.Equal(t, 3000, m.GetAttributeInt("ImageLength", 0))
}

func TestFixupORFNoMakerNote(t *testing.T) {
	m := newTestSession()
	m.container = ContainerORF
	m.fixupORF()
	require.False(t, m.HasAttribute("ImageWidth"))
}
