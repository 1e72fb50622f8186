package exif

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func appendWebPChunk(dst []byte, fourCC string, data []byte) []byte {
	var hdr [8]byte
	copy(hdr[:], fourCC)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(data)))
	dst = append(dst, hdr[:]...)
	dst = append(dst, data...)
	if len(data)%2 == 1 {
		dst = append(dst, 0)
	}
	return dst
}

func webpFile(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := make([]byte, 0, webpHeaderSize+len(body))
	out = append(out, "RIFF"...)
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(4+len(body)))
	out = append(out, n[:]...)
	out = append(out, "WEBP"...)
	return append(out, body...)
}

// vp8Frame builds a minimal VP8 bitstream header carrying the dimensions.
func vp8Frame(width, height uint16) []byte {
	data := make([]byte, 10)
	data[3], data[4], data[5] = 0x9D, 0x01, 0x2A
	binary.LittleEndian.PutUint16(data[6:], width)
	binary.LittleEndian.PutUint16(data[8:], height)
	return data
}

func TestWebPChunkOrdering(t *testing.T) {
	vp8x := make([]byte, 10)
	vp8x[0] = vp8xFlagEXIF | vp8xFlagICC

	// ICCP after EXIF violates the canonical order.
	bad := webpFile(
		appendWebPChunk(nil, "VP8X", vp8x),
		appendWebPChunk(nil, "EXIF", []byte{1, 2}),
		appendWebPChunk(nil, "ICCP", []byte{3, 4}),
	)
	_, err := parseWebPChunks(bad)
	require.ErrorIs(t, err, ErrFormat)

	good := webpFile(
		appendWebPChunk(nil, "VP8X", vp8x),
		appendWebPChunk(nil, "ICCP", []byte{3, 4}),
		appendWebPChunk(nil, "VP8 ", vp8Frame(160, 120)),
		appendWebPChunk(nil, "EXIF", []byte{1, 2}),
	)
	chunks, err := parseWebPChunks(good)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
}

func TestWebPFrameSize(t *testing.T) {
	w, h, alpha, err := webpFrameSize(webpChunk{fourCC: "VP8 ", data: vp8Frame(320, 240)})
	require.NoError(t, err)
	require.False(t, alpha)
	require.Equal(t, uint32(320), w)
	require.Equal(t, uint32(240), h)

	// VP8L: 1-byte signature, then 14-bit width-1 / height-1 plus flags.
	bits := uint32(319) | uint32(239)<<14 | 1<<28
	data := make([]byte, 5)
	data[0] = 0x2F
	binary.LittleEndian.PutUint32(data[1:], bits)
	w, h, alpha, err = webpFrameSize(webpChunk{fourCC: "VP8L", data: data})
	require.NoError(t, err)
	require.True(t, alpha)
	require.Equal(t, uint32(320), w)
	require.Equal(t, uint32(240), h)

	_, _, _, err = webpFrameSize(webpChunk{fourCC: "ANIM"})
	require.ErrorIs(t, err, ErrFormat)
}

func TestSpliceWebPSynthesizesVP8X(t *testing.T) {
	src := webpFile(appendWebPChunk(nil, "VP8 ", vp8Frame(160, 120)))

	payload := newTestSession()
	payload.setRaw(GroupPrimary, "Orientation", newUShortAttr(payload.byteOrder(), 6))
	tiff, err := payload.encodeTIFF()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, spliceWebP(src, tiff, &buf))

	chunks, err := parseWebPChunks(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "VP8X", chunks[0].fourCC)
	require.NotZero(t, chunks[0].data[0]&vp8xFlagEXIF)

	m := newTestSession()
	require.NoError(t, m.parseWebP(buf.Bytes()))
	require.Equal(t, 6, m.GetAttributeInt("Orientation", 0))
}

func TestSpliceWebPExistingVP8X(t *testing.T) {
	vp8x := make([]byte, 10)
	putUint24(vp8x[4:], 159)
	putUint24(vp8x[7:], 119)
	src := webpFile(
		appendWebPChunk(nil, "VP8X", vp8x),
		appendWebPChunk(nil, "VP8 ", vp8Frame(160, 120)),
		appendWebPChunk(nil, "XMP ", []byte("<x/>")),
	)

	payload := newTestSession()
	payload.setRaw(GroupPrimary, "Orientation", newUShortAttr(payload.byteOrder(), 3))
	tiff, err := payload.encodeTIFF()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, spliceWebP(src, tiff, &buf))

	chunks, err := parseWebPChunks(buf.Bytes())
	require.NoError(t, err)
	var order []string
	for _, c := range chunks {
		order = append(order, c.fourCC)
	}
	require.Equal(t, []string{"VP8X", "VP8 ", "EXIF", "XMP "}, order)
}

func TestStripWebP(t *testing.T) {
	vp8x := make([]byte, 10)
	vp8x[0] = vp8xFlagEXIF
	putUint24(vp8x[4:], 159)
	putUint24(vp8x[7:], 119)

	payload := newTestSession()
	payload.setRaw(GroupPrimary, "Orientation", newUShortAttr(payload.byteOrder(), 6))
	tiff, err := payload.encodeTIFF()
	require.NoError(t, err)

	src := webpFile(
		appendWebPChunk(nil, "VP8X", vp8x),
		appendWebPChunk(nil, "VP8 ", vp8Frame(160, 120)),
		appendWebPChunk(nil, "EXIF", tiff),
	)

	var buf bytes.Buffer
	require.NoError(t, stripWebP(src, nil, &buf))

	m := newTestSession()
	require.NoError(t, m.parseWebP(buf.Bytes()))
	require.False(t, m.HasAttribute("Orientation"))

	chunks, err := parseWebPChunks(buf.Bytes())
	require.NoError(t, err)
	for _, c := range chunks {
		require.NotEqual(t, "EXIF", c.fourCC)
	}
}
