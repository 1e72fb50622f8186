package exif

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attribute is one decoded tag value: its wire format, component count and
// raw byte form in the session's byte order.
//
// sourceOffset is the file-absolute offset of the value bytes, kept only
// while the owning file has not been rewritten; -1 means the value was
// created or modified in memory.
type Attribute struct {
	Format DataFormat
	Count  uint32
	Value  []byte

	sourceOffset int64
}

func (a *Attribute) size() uint32 {
	return uint32(len(a.Value))
}

func newAttribute(f DataFormat, count uint32, value []byte) *Attribute {
	return &Attribute{Format: f, Count: count, Value: value, sourceOffset: -1}
}

func newUShortAttr(bo binary.ByteOrder, vals ...uint16) *Attribute {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		bo.PutUint16(buf[2*i:], v)
	}
	return newAttribute(FormatUShort, uint32(len(vals)), buf)
}

func newULongAttr(bo binary.ByteOrder, vals ...uint32) *Attribute {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		bo.PutUint32(buf[4*i:], v)
	}
	return newAttribute(FormatULong, uint32(len(vals)), buf)
}

func newSLongAttr(bo binary.ByteOrder, vals ...int32) *Attribute {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		bo.PutUint32(buf[4*i:], uint32(v))
	}
	return newAttribute(FormatSLong, uint32(len(vals)), buf)
}

func newURationalAttr(bo binary.ByteOrder, vals ...Rational) *Attribute {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		bo.PutUint32(buf[8*i:], v.Num)
		bo.PutUint32(buf[8*i+4:], v.Den)
	}
	return newAttribute(FormatURational, uint32(len(vals)), buf)
}

func newSRationalAttr(bo binary.ByteOrder, vals ...SRational) *Attribute {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		bo.PutUint32(buf[8*i:], uint32(v.Num))
		bo.PutUint32(buf[8*i+4:], uint32(v.Den))
	}
	return newAttribute(FormatSRational, uint32(len(vals)), buf)
}

func newDoubleAttr(bo binary.ByteOrder, vals ...float64) *Attribute {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		bo.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return newAttribute(FormatDouble, uint32(len(vals)), buf)
}

// newStringAttr serializes s as a NUL-terminated ASCII value.
func newStringAttr(s string) *Attribute {
	buf := append([]byte(s), 0)
	return newAttribute(FormatString, uint32(len(buf)), buf)
}

func newUndefinedAttr(b []byte) *Attribute {
	return newAttribute(FormatUndefined, uint32(len(b)), b)
}

func newByteAttr(b []byte) *Attribute {
	return newAttribute(FormatByte, uint32(len(b)), b)
}

// uintAt returns the i-th component widened to uint32. Only meaningful for
// the integer formats.
func (a *Attribute) uintAt(bo binary.ByteOrder, i int) (uint32, bool) {
	switch a.Format {
	case FormatByte, FormatUndefined:
		if i >= len(a.Value) {
			return 0, false
		}
		return uint32(a.Value[i]), true
	case FormatUShort:
		if 2*i+2 > len(a.Value) {
			return 0, false
		}
		return uint32(bo.Uint16(a.Value[2*i:])), true
	case FormatULong, FormatIFDPointer:
		if 4*i+4 > len(a.Value) {
			return 0, false
		}
		return bo.Uint32(a.Value[4*i:]), true
	}
	return 0, false
}

func (a *Attribute) intAt(bo binary.ByteOrder, i int) (int64, bool) {
	switch a.Format {
	case FormatSByte:
		if i >= len(a.Value) {
			return 0, false
		}
		return int64(int8(a.Value[i])), true
	case FormatSShort:
		if 2*i+2 > len(a.Value) {
			return 0, false
		}
		return int64(int16(bo.Uint16(a.Value[2*i:]))), true
	case FormatSLong:
		if 4*i+4 > len(a.Value) {
			return 0, false
		}
		return int64(int32(bo.Uint32(a.Value[4*i:]))), true
	}
	if u, ok := a.uintAt(bo, i); ok {
		return int64(u), true
	}
	return 0, false
}

func (a *Attribute) rationalAt(bo binary.ByteOrder, i int) (num, den int64, ok bool) {
	if 8*i+8 > len(a.Value) {
		return 0, 0, false
	}
	switch a.Format {
	case FormatURational:
		return int64(bo.Uint32(a.Value[8*i:])), int64(bo.Uint32(a.Value[8*i+4:])), true
	case FormatSRational:
		return int64(int32(bo.Uint32(a.Value[8*i:]))), int64(int32(bo.Uint32(a.Value[8*i+4:]))), true
	}
	return 0, 0, false
}

func (a *Attribute) floatAt(bo binary.ByteOrder, i int) (float64, bool) {
	switch a.Format {
	case FormatSingle:
		if 4*i+4 > len(a.Value) {
			return 0, false
		}
		return float64(math.Float32frombits(bo.Uint32(a.Value[4*i:]))), true
	case FormatDouble:
		if 8*i+8 > len(a.Value) {
			return 0, false
		}
		return math.Float64frombits(bo.Uint64(a.Value[8*i:])), true
	}
	return 0, false
}

// Int returns the first component as an integer.
func (a *Attribute) Int(bo binary.ByteOrder) (int, error) {
	if a.Format == FormatString {
		v, err := strconv.Atoi(a.text())
		if err != nil {
			return 0, fmt.Errorf("exif: attribute is not numeric: %w", err)
		}
		return v, nil
	}
	if v, ok := a.intAt(bo, 0); ok {
		return int(v), nil
	}
	return 0, fmt.Errorf("exif: cannot read %s attribute as int", a.Format)
}

// Float returns the first component as a float, dividing rationals.
func (a *Attribute) Float(bo binary.ByteOrder) (float64, error) {
	if num, den, ok := a.rationalAt(bo, 0); ok {
		if den == 0 {
			return 0, fmt.Errorf("exif: rational with zero denominator")
		}
		return float64(num) / float64(den), nil
	}
	if v, ok := a.floatAt(bo, 0); ok {
		return v, nil
	}
	if v, ok := a.intAt(bo, 0); ok {
		return float64(v), nil
	}
	if a.Format == FormatString {
		v, err := strconv.ParseFloat(a.text(), 64)
		if err != nil {
			return 0, fmt.Errorf("exif: attribute is not numeric: %w", err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("exif: cannot read %s attribute as float", a.Format)
}

func (a *Attribute) text() string {
	s := string(a.Value)
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, " ")
}

// String renders the value in the textual form the attribute API exchanges:
// ASCII values verbatim, numeric arrays comma-joined, rationals as "n/d".
func (a *Attribute) String(bo binary.ByteOrder) string {
	switch a.Format {
	case FormatString:
		return a.text()
	case FormatUndefined:
		return string(a.Value)
	case FormatURational, FormatSRational:
		parts := make([]string, 0, a.Count)
		for i := 0; i < int(a.Count); i++ {
			num, den, ok := a.rationalAt(bo, i)
			if !ok {
				break
			}
			parts = append(parts, fmt.Sprintf("%d/%d", num, den))
		}
		return strings.Join(parts, ",")
	case FormatSingle, FormatDouble:
		parts := make([]string, 0, a.Count)
		for i := 0; i < int(a.Count); i++ {
			v, ok := a.floatAt(bo, i)
			if !ok {
				break
			}
			parts = append(parts, strconv.FormatFloat(v, 'f', -1, 64))
		}
		return strings.Join(parts, ",")
	default:
		parts := make([]string, 0, a.Count)
		for i := 0; i < int(a.Count); i++ {
			v, ok := a.intAt(bo, i)
			if !ok {
				break
			}
			parts = append(parts, strconv.FormatInt(v, 10))
		}
		return strings.Join(parts, ",")
	}
}

// attributeFromString converts the textual form back into a typed attribute,
// choosing among the formats the tag accepts. Integer lists are promoted to
// rationals (x/1) or doubles when the tag stores those.
func attributeFromString(tag *Tag, value string, bo binary.ByteOrder) (*Attribute, error) {
	kind := classifyValue(value)

	for _, f := range []DataFormat{tag.Format, tag.AltFormat} {
		if f == 0 {
			continue
		}
		if a, err := encodeAs(f, kind, value, bo); err == nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("exif: value %q not representable as %s", value, tag.Format)
}

type valueKind int

const (
	kindText valueKind = iota
	kindInt
	kindRational
	kindFloat
)

func classifyValue(s string) valueKind {
	if s == "" {
		return kindText
	}
	isInt, isRat, isFloat := true, true, true
	for _, part := range strings.Split(s, ",") {
		if _, err := strconv.ParseInt(part, 10, 64); err != nil {
			isInt = false
		}
		if _, err := parseSRational(part); err != nil || !strings.Contains(part, "/") {
			isRat = false
		}
		if _, err := strconv.ParseFloat(part, 64); err != nil {
			isFloat = false
		}
	}
	switch {
	case isInt:
		return kindInt
	case isRat:
		return kindRational
	case isFloat:
		return kindFloat
	}
	return kindText
}

func encodeAs(f DataFormat, kind valueKind, value string, bo binary.ByteOrder) (*Attribute, error) {
	parts := strings.Split(value, ",")

	switch f {
	case FormatString:
		return newStringAttr(value), nil
	case FormatUndefined:
		return newUndefinedAttr([]byte(value)), nil
	case FormatByte:
		if kind != kindInt {
			return nil, errBadKind(f)
		}
		buf := make([]byte, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 10, 8)
			if err != nil {
				return nil, err
			}
			buf[i] = byte(v)
		}
		return newByteAttr(buf), nil
	case FormatUShort:
		if kind != kindInt {
			return nil, errBadKind(f)
		}
		vals := make([]uint16, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 10, 16)
			if err != nil {
				return nil, err
			}
			vals[i] = uint16(v)
		}
		return newUShortAttr(bo, vals...), nil
	case FormatULong, FormatIFDPointer:
		if kind != kindInt {
			return nil, errBadKind(f)
		}
		vals := make([]uint32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				return nil, err
			}
			vals[i] = uint32(v)
		}
		a := newULongAttr(bo, vals...)
		a.Format = f
		return a, nil
	case FormatSLong:
		if kind != kindInt {
			return nil, errBadKind(f)
		}
		vals := make([]int32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseInt(p, 10, 32)
			if err != nil {
				return nil, err
			}
			vals[i] = int32(v)
		}
		return newSLongAttr(bo, vals...), nil
	case FormatURational:
		switch kind {
		case kindRational, kindInt:
			vals := make([]Rational, len(parts))
			for i, p := range parts {
				v, err := parseRational(p)
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return newURationalAttr(bo, vals...), nil
		case kindFloat:
			vals := make([]Rational, len(parts))
			for i, p := range parts {
				v, err := strconv.ParseFloat(p, 64)
				if err != nil {
					return nil, err
				}
				vals[i] = approxRational(v)
			}
			return newURationalAttr(bo, vals...), nil
		}
		return nil, errBadKind(f)
	case FormatSRational:
		if kind != kindRational && kind != kindInt {
			return nil, errBadKind(f)
		}
		vals := make([]SRational, len(parts))
		for i, p := range parts {
			v, err := parseSRational(p)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return newSRationalAttr(bo, vals...), nil
	case FormatDouble:
		if kind != kindFloat && kind != kindInt && kind != kindRational {
			return nil, errBadKind(f)
		}
		vals := make([]float64, len(parts))
		for i, p := range parts {
			if r, err := parseSRational(p); err == nil && strings.Contains(p, "/") {
				vals[i] = r.Float()
				continue
			}
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return newDoubleAttr(bo, vals...), nil
	}
	return nil, errBadKind(f)
}

func errBadKind(f DataFormat) error {
	return fmt.Errorf("exif: value does not match format %s", f)
}
