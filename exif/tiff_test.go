package exif

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imgmeta/exifedit/internal/logger"
)

func newTestSession() *Metadata {
	return newMetadata([]Option{WithLogger(logger.Discard())})
}

func TestTIFFRoundTrip(t *testing.T) {
	src := newTestSession()
	bo := src.byteOrder()
	src.setRaw(GroupPrimary, "Make", newStringAttr("ACME Optics"))
	src.setRaw(GroupPrimary, "Orientation", newUShortAttr(bo, 6))
	src.setRaw(GroupExif, "FNumber", newURationalAttr(bo, Rational{14, 5}))
	src.setRaw(GroupExif, "PhotographicSensitivity", newUShortAttr(bo, 400))
	src.setRaw(GroupGPS, "GPSLatitudeRef", newStringAttr("N"))
	src.setRaw(GroupGPS, "GPSLatitude", newURationalAttr(bo,
		Rational{37, 1}, Rational{46, 1}, Rational{262992000, 10000000}))

	blob, err := src.encodeTIFF()
	require.NoError(t, err)

	dst := newTestSession()
	require.NoError(t, dst.parseTIFF(blob, 0, false))

	require.Equal(t, "ACME Optics", dst.raw(GroupPrimary, "Make").text())
	v, ok := dst.raw(GroupPrimary, "Orientation").uintAt(dst.byteOrder(), 0)
	require.True(t, ok)
	require.Equal(t, uint32(6), v)

	f, err := dst.raw(GroupExif, "FNumber").Float(dst.byteOrder())
	require.NoError(t, err)
	require.InDelta(t, 2.8, f, 1e-9)

	lat := dst.raw(GroupGPS, "GPSLatitude")
	require.NotNil(t, lat)
	require.Equal(t, uint32(3), lat.Count)
	require.Equal(t, "N", dst.raw(GroupGPS, "GPSLatitudeRef").text())

	// Pointer tags must have been regenerated, not inherited.
	require.NotNil(t, dst.raw(GroupPrimary, "ExifIFDPointer"))
	require.NotNil(t, dst.raw(GroupPrimary, "GPSInfoIFDPointer"))
}

func TestTIFFRoundTripThumbnail(t *testing.T) {
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xD9, 0x01, 0x02, 0x03}

	src := newTestSession()
	src.setRaw(GroupPrimary, "Orientation", newUShortAttr(src.byteOrder(), 1))
	src.thumbnailBytes = append([]byte(nil), thumb...)
	src.thumbnail = ThumbnailDescriptor{
		HasThumbnail:     true,
		Compression:      CompressionJPEG,
		StripsContiguous: true,
	}

	blob, err := src.encodeTIFF()
	require.NoError(t, err)

	dst := newTestSession()
	require.NoError(t, dst.parseTIFF(blob, 0, false))
	dst.resolveThumbnail(blob)

	require.True(t, dst.HasThumbnail())
	require.Equal(t, thumb, dst.ThumbnailBytes())
	require.Equal(t, CompressionJPEG, dst.Thumbnail().Compression)

	off, n, err := dst.ThumbnailRange()
	require.NoError(t, err)
	require.Equal(t, int64(len(thumb)), n)
	require.Equal(t, thumb, blob[off:off+n])
}

func TestTIFFLittleEndian(t *testing.T) {
	src := newTestSession()
	src.bo = binary.LittleEndian
	src.setRaw(GroupPrimary, "ImageWidth", newULongAttr(src.bo, 4032))

	blob, err := src.encodeTIFF()
	require.NoError(t, err)
	require.Equal(t, byte('I'), blob[0])

	dst := newTestSession()
	require.NoError(t, dst.parseTIFF(blob, 0, false))
	require.Equal(t, 4032, dst.GetAttributeInt("ImageWidth", 0))
}

// buildTIFF assembles a big-endian block with a single primary directory.
// entries are raw 12-byte entry bodies; next is the trailing directory link.
func buildTIFF(entries [][12]byte, next uint32, extra []byte) []byte {
	blob := make([]byte, 0, 64)
	blob = append(blob, 'M', 'M', 0x00, 0x2A, 0, 0, 0, 8)
	var cnt [2]byte
	binary.BigEndian.PutUint16(cnt[:], uint16(len(entries)))
	blob = append(blob, cnt[:]...)
	for _, e := range entries {
		blob = append(blob, e[:]...)
	}
	var nx [4]byte
	binary.BigEndian.PutUint32(nx[:], next)
	blob = append(blob, nx[:]...)
	return append(blob, extra...)
}

func entry(tag uint16, format DataFormat, count uint32, value [4]byte) [12]byte {
	var e [12]byte
	binary.BigEndian.PutUint16(e[0:], tag)
	binary.BigEndian.PutUint16(e[2:], uint16(format))
	binary.BigEndian.PutUint32(e[4:], count)
	copy(e[8:], value[:])
	return e
}

func TestPreviewPromotionRenamesTags(t *testing.T) {
	// Primary directory with a sub-IFD pointer to a small preview
	// directory; the preview qualifies for thumbnail promotion.
	preview := []byte{0x00, 0x02}
	we := entry(tagImageWidth, FormatUShort, 1, [4]byte{0, 100, 0, 0})
	he := entry(tagImageLength, FormatUShort, 1, [4]byte{0, 80, 0, 0})
	preview = append(preview, we[:]...)
	preview = append(preview, he[:]...)
	preview = append(preview, 0, 0, 0, 0)

	blob := buildTIFF([][12]byte{
		entry(tagOrientation, FormatUShort, 1, [4]byte{0, 1, 0, 0}),
		entry(tagSubIFDPointer, FormatULong, 1, [4]byte{0, 0, 0, 38}),
	}, 0, preview)

	m := newTestSession()
	require.NoError(t, m.parseTIFF(blob, 0, false))
	m.resolveThumbnail(blob)

	// Promotion renames the dimension tags into the thumbnail registry.
	require.Nil(t, m.raw(GroupThumbnail, "ImageWidth"))
	w, ok := m.raw(GroupThumbnail, "ThumbnailImageWidth").uintAt(m.byteOrder(), 0)
	require.True(t, ok)
	require.Equal(t, uint32(100), w)

	out, err := m.encodeTIFF()
	require.NoError(t, err)

	re := newTestSession()
	require.NoError(t, re.parseTIFF(out, 0, false))
	h, ok := re.raw(GroupThumbnail, "ThumbnailImageLength").uintAt(re.byteOrder(), 0)
	require.True(t, ok)
	require.Equal(t, uint32(80), h)
}

func TestTIFFDirectoryCycle(t *testing.T) {
	// The trailing link points back at the directory itself.
	blob := buildTIFF([][12]byte{
		entry(tagOrientation, FormatUShort, 1, [4]byte{0, 6, 0, 0}),
	}, 8, nil)

	m := newTestSession()
	require.NoError(t, m.parseTIFF(blob, 0, false))
	require.Equal(t, 6, m.GetAttributeInt("Orientation", 0))
}

func TestTIFFIncompatibleFormatSkipped(t *testing.T) {
	// Orientation stored as RATIONAL: entry dropped, parse succeeds.
	blob := buildTIFF([][12]byte{
		entry(tagOrientation, FormatURational, 1, [4]byte{0, 0, 0, 26}),
	}, 0, []byte{0, 0, 0, 1, 0, 0, 0, 1})

	m := newTestSession()
	require.NoError(t, m.parseTIFF(blob, 0, false))
	require.False(t, m.HasAttribute("Orientation"))
}

func TestTIFFNarrowerFormatAccepted(t *testing.T) {
	// ImageWidth declares LONG but is stored as SHORT.
	blob := buildTIFF([][12]byte{
		entry(tagImageWidth, FormatUShort, 1, [4]byte{0x0F, 0xC0, 0, 0}),
	}, 0, nil)

	m := newTestSession()
	require.NoError(t, m.parseTIFF(blob, 0, false))
	require.Equal(t, 4032, m.GetAttributeInt("ImageWidth", 0))
}

func TestTIFFValueBeyondBlockSkipped(t *testing.T) {
	blob := buildTIFF([][12]byte{
		entry(tagImageWidth, FormatULong, 1, [4]byte{0, 0, 0, 40}),
		entry(0x8298, FormatString, 4096, [4]byte{0, 0, 0xFF, 0x00}),
	}, 0, nil)
	// First entry is inline, the second claims a value far past the block.

	m := newTestSession()
	require.NoError(t, m.parseTIFF(blob, 0, false))
	require.Equal(t, 40, m.GetAttributeInt("ImageWidth", 0))
}

func TestTIFFBadHeader(t *testing.T) {
	m := newTestSession()
	err := m.parseTIFF([]byte("XX\x00\x2A\x00\x00\x00\x08"), 0, false)
	require.ErrorIs(t, err, ErrFormat)

	err = m.parseTIFF([]byte("MM\x00\x55\x00\x00\x00\x08"), 0, false)
	require.ErrorIs(t, err, ErrFormat)

	// Lax mode admits vendor start codes.
	err = m.parseTIFF([]byte{'M', 'M', 0x00, 0x55, 0, 0, 0, 8, 0, 0}, 0, true)
	require.NoError(t, err)
}
