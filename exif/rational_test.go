package exif

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApproxRational(t *testing.T) {
	cases := []struct {
		in       float64
		num, den uint32
	}{
		{0, 0, 1},
		{-1.5, 0, 1},
		{0.5, 1, 2},
		{2.8, 14, 5},
		{0.008, 1, 125},
		{3, 3, 1},
		{10.5, 21, 2},
	}
	for _, tc := range cases {
		r := approxRational(tc.in)
		require.Equal(t, tc.num, r.Num, "approxRational(%v)", tc.in)
		require.Equal(t, tc.den, r.Den, "approxRational(%v)", tc.in)
	}
}

func TestApproxRationalPrecision(t *testing.T) {
	for _, v := range []float64{1.0 / 3, 0.1, 29.97, 1e-6, 123456.789} {
		r := approxRational(v)
		require.NotZero(t, r.Den)
		require.InEpsilon(t, v, r.Float(), 1e-7, "approxRational(%v) = %s", v, r)
	}
}

func TestParseRational(t *testing.T) {
	r, err := parseRational("14/5")
	require.NoError(t, err)
	require.Equal(t, Rational{14, 5}, r)

	r, err = parseRational("42")
	require.NoError(t, err)
	require.Equal(t, Rational{42, 1}, r)

	_, err = parseRational("-3/5")
	require.Error(t, err)

	s, err := parseSRational("-3/5")
	require.NoError(t, err)
	require.Equal(t, SRational{-3, 5}, s)
	require.Equal(t, "-3/5", s.String())
}
