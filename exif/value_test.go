package exif

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttributeString(t *testing.T) {
	bo := binary.BigEndian

	require.Equal(t, "hello", newStringAttr("hello").String(bo))
	require.Equal(t, "1,6,3,8", newUShortAttr(bo, 1, 6, 3, 8).String(bo))
	require.Equal(t, "14/5", newURationalAttr(bo, Rational{14, 5}).String(bo))
	require.Equal(t, "-1/3", newSRationalAttr(bo, SRational{-1, 3}).String(bo))
	require.Equal(t, "2.5", newDoubleAttr(bo, 2.5).String(bo))
}

func TestAttributeFromString(t *testing.T) {
	bo := binary.BigEndian
	table := groupTables[GroupExif]

	a, err := attributeFromString(table.byName["FNumber"], "14/5", bo)
	require.NoError(t, err)
	require.Equal(t, FormatURational, a.Format)
	f, err := a.Float(bo)
	require.NoError(t, err)
	require.InDelta(t, 2.8, f, 1e-9)

	// Integers are promoted to rationals for rational tags.
	a, err = attributeFromString(table.byName["ExposureTime"], "1", bo)
	require.NoError(t, err)
	require.Equal(t, FormatURational, a.Format)

	// Floats go through the continued-fraction approximation.
	a, err = attributeFromString(table.byName["DigitalZoomRatio"], "1.5", bo)
	require.NoError(t, err)
	n, d, ok := a.rationalAt(bo, 0)
	require.True(t, ok)
	require.Equal(t, int64(3), n)
	require.Equal(t, int64(2), d)

	// A text value cannot become a SHORT.
	_, err = attributeFromString(table.byName["MeteringMode"], "spot", bo)
	require.Error(t, err)

	// Multi-component values.
	a, err = attributeFromString(groupTables[GroupGPS].byName["GPSTimeStamp"], "11/1,5/1,32/1", bo)
	require.NoError(t, err)
	require.Equal(t, uint32(3), a.Count)
}

func TestAttributeIntFromString(t *testing.T) {
	bo := binary.BigEndian
	a := newStringAttr("250")
	v, err := a.Int(bo)
	require.NoError(t, err)
	require.Equal(t, 250, v)

	_, err = newStringAttr("abc").Int(bo)
	require.Error(t, err)
}

func TestDecodeUserComment(t *testing.T) {
	ascii := append(append([]byte(nil), userCommentASCII...), "hello world"...)
	s, ok := decodeUserComment(newUndefinedAttr(ascii))
	require.True(t, ok)
	require.Equal(t, "hello world", s)

	utf16 := append(append([]byte(nil), userCommentUnicode...),
		0x00, 'h', 0x00, 'i', 0x00, '!')
	s, ok = decodeUserComment(newUndefinedAttr(utf16))
	require.True(t, ok)
	require.Equal(t, "hi!", s)

	// Unknown prefix: not decodable.
	_, ok = decodeUserComment(newUndefinedAttr([]byte("XXXXXXXXdata")))
	require.False(t, ok)

	// Too short for any prefix.
	_, ok = decodeUserComment(newUndefinedAttr([]byte("hi")))
	require.False(t, ok)
}
