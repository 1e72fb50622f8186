package exif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rational is an unsigned numerator/denominator pair, EXIF's native
// fixed-ratio numeric encoding.
type Rational struct {
	Num, Den uint32
}

// SRational is the signed variant used by tags such as ExposureBiasValue.
type SRational struct {
	Num, Den int32
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r SRational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r SRational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// approxRational converts a non-negative decimal value to a rational using
// continued-fraction expansion. The loop stops once the relative error drops
// below 1e-8 or a term no longer fits in uint32.
func approxRational(v float64) Rational {
	const relTol = 1e-8

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Rational{0, 1}
	}
	if v > math.MaxUint32 {
		return Rational{math.MaxUint32, 1}
	}

	var (
		h0, h1 = uint64(0), uint64(1)
		k0, k1 = uint64(1), uint64(0)
		x      = v
	)
	for i := 0; i < 64; i++ {
		a := uint64(math.Floor(x))
		h0, h1 = h1, a*h1+h0
		k0, k1 = k1, a*k1+k0
		if h1 > math.MaxUint32 || k1 > math.MaxUint32 || k1 == 0 {
			return Rational{uint32(h0), uint32(k0)}
		}
		approx := float64(h1) / float64(k1)
		if math.Abs(approx-v) <= relTol*v {
			break
		}
		frac := x - float64(a)
		if frac == 0 {
			break
		}
		x = 1 / frac
	}
	if k1 == 0 {
		return Rational{0, 1}
	}
	return Rational{uint32(h1), uint32(k1)}
}

// parseRational accepts the "num/den" textual form, or a bare integer which
// is read as num/1.
func parseRational(s string) (Rational, error) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, err := strconv.ParseUint(strings.TrimSpace(s[:i]), 10, 32)
		if err != nil {
			return Rational{}, err
		}
		den, err := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 10, 32)
		if err != nil {
			return Rational{}, err
		}
		return Rational{uint32(num), uint32(den)}, nil
	}
	num, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return Rational{}, err
	}
	return Rational{uint32(num), 1}, nil
}

func parseSRational(s string) (SRational, error) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, err := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 32)
		if err != nil {
			return SRational{}, err
		}
		den, err := strconv.ParseInt(strings.TrimSpace(s[i+1:]), 10, 32)
		if err != nil {
			return SRational{}, err
		}
		return SRational{int32(num), int32(den)}, nil
	}
	num, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return SRational{}, err
	}
	return SRational{int32(num), 1}, nil
}
