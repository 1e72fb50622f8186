// Package exif reads and rewrites image metadata: the TIFF directory
// structure embedded in JPEG, PNG and WebP files, the TIFF-structured RAW
// variants (ORF, RW2, PEF, DNG and plain TIFF), Fujifilm RAF and standalone
// Exif blobs.
//
// A Metadata session is a mutable snapshot: parsing materializes every
// directory into typed attributes, edits happen in memory, and
// SaveAttributes re-encodes the whole block back into the container.
package exif

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	"github.com/imgmeta/exifedit/internal/logger"
)

// Metadata is one open session over a single image file or stream.
// It is not safe for concurrent use.
type Metadata struct {
	container Container
	bo        binary.ByteOrder
	groups    [groupCount]map[string]*Attribute

	path string
	file *os.File
	src  []byte

	// tiffBase is the file-absolute offset of the TIFF header inside the
	// container; source offsets of attributes are absolute already.
	tiffBase int64

	// pngExifChunkOffset is the start of the original eXIf chunk, or -1,
	// so a save can splice the replacement at the same position.
	pngExifChunkOffset int

	thumbnail      ThumbnailDescriptor
	thumbnailBytes []byte

	xmpSeparateMarker bool
	separateXMP       []byte
	hasICCProfile     bool
	hasPhotoshop      bool
	sawDNGVersion     bool

	// stale flips once the backing file has been rewritten; every recorded
	// source offset is invalid from then on.
	stale bool

	log *logger.Logger
}

// Option configures a session at open time.
type Option func(*Metadata)

// WithLogger routes parse diagnostics to l instead of the default
// stderr warning logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Metadata) { m.log = l }
}

func newMetadata(opts []Option) *Metadata {
	m := &Metadata{
		bo:                 binary.BigEndian,
		pngExifChunkOffset: -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Default()
	}
	return m
}

// Open reads the file at path and parses its metadata. A structurally
// broken metadata block is not fatal: the session opens with whatever
// attributes could be extracted, matching how viewers treat damaged files.
// Only attribute rewriting requires a path; Decode covers pure streams.
func Open(path string, opts ...Option) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exif: %w", err)
	}
	m := newMetadata(opts)
	m.path = path
	if err := m.parse(data); err != nil {
		return nil, err
	}
	return m, nil
}

// OpenFile parses metadata from an already open file, reading from the
// start regardless of the handle's current position. The handle stays
// owned by the caller and must remain open for the session's lifetime;
// SaveAttributes rewrites through it in place, so it needs write access
// for saves to succeed.
func OpenFile(f *os.File, opts ...Option) (*Metadata, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("exif: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("exif: %w", err)
	}
	m := newMetadata(opts)
	m.file = f
	if err := m.parse(data); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode parses metadata from a stream. The resulting session supports
// every read operation; SaveAttributes needs a file and reports
// ErrUnsupportedOperation.
func Decode(r io.Reader, opts ...Option) (*Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("exif: %w", err)
	}
	m := newMetadata(opts)
	if err := m.parse(data); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metadata) parse(data []byte) error {
	m.src = data
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	m.container = sniffContainer(head)

	var err error
	switch m.container {
	case ContainerJPEG:
		err = m.parseJPEG(data, 0, GroupPrimary)
	case ContainerPNG:
		err = m.parsePNG(data)
	case ContainerWebP:
		err = m.parseWebP(data)
	case ContainerRAF:
		err = m.parseRAF(data)
	case ContainerTIFF, ContainerORF, ContainerRW2:
		lax := m.container != ContainerTIFF
		err = m.parseTIFF(data, 0, lax)
		if err == nil {
			m.refineTIFFContainer()
			m.applyVendorFixups(data)
		}
	case ContainerStandaloneExif:
		m.tiffBase = int64(len(exifIdentifier))
		err = m.parseTIFF(data[len(exifIdentifier):], m.tiffBase, false)
	case ContainerHEIF:
		return unsupportedf("HEIF containers are not handled")
	default:
		return formatErrorf("unrecognized container signature")
	}

	if err != nil {
		if !errors.Is(err, ErrFormat) {
			return err
		}
		// Damaged metadata yields an empty-but-usable session.
		m.log.Warnf("exif: no usable metadata: %v", err)
	}
	m.resolveThumbnail(data)
	return nil
}

// refineTIFFContainer upgrades a generic TIFF classification using the
// camera make, since PEF files carry a perfectly ordinary TIFF signature.
func (m *Metadata) refineTIFFContainer() {
	if m.container != ContainerTIFF {
		return
	}
	if mk := m.raw(GroupPrimary, "Make"); mk != nil && strings.HasPrefix(mk.text(), "PENTAX") {
		m.container = ContainerPEF
	}
}

// Container reports the detected host format.
func (m *Metadata) Container() Container { return m.container }

func (m *Metadata) byteOrder() binary.ByteOrder {
	if m.bo == nil {
		return binary.BigEndian
	}
	return m.bo
}

func (m *Metadata) setRaw(g GroupID, name string, a *Attribute) {
	if m.groups[g] == nil {
		m.groups[g] = map[string]*Attribute{}
	}
	m.groups[g][name] = a
}

func (m *Metadata) raw(g GroupID, name string) *Attribute {
	return m.groups[g][name]
}

func (m *Metadata) hasRaw(g GroupID, name string) bool {
	return m.groups[g][name] != nil
}

// lookup resolves name across all groups in fixed priority order.
func (m *Metadata) lookup(name string) (*Attribute, GroupID) {
	for _, g := range groupSearchOrder {
		if a := m.groups[g][name]; a != nil {
			return a, g
		}
	}
	return nil, GroupPrimary
}

// ISOSpeedRatings was renamed PhotographicSensitivity in Exif 2.3; both
// names address the same tag.
const legacyISOTag = "ISOSpeedRatings"

func canonicalName(name string) string {
	if name == legacyISOTag {
		return "PhotographicSensitivity"
	}
	return name
}

// compatDecimalTags are exchanged as decimal strings even though they are
// stored as rationals, because callers overwhelmingly treat them as plain
// numbers.
var compatDecimalTags = map[string]struct{}{
	"ExposureTime":     {},
	"FNumber":          {},
	"SubjectDistance":  {},
	"DigitalZoomRatio": {},
}

// HasAttribute reports whether any group holds the named attribute.
func (m *Metadata) HasAttribute(name string) bool {
	a, _ := m.lookup(canonicalName(name))
	return a != nil
}

// GetAttribute returns the named attribute rendered as text: ASCII values
// verbatim, numeric arrays comma-joined, rationals as "n/d". A handful of
// rational tags render as decimal strings instead, and GPSTimeStamp as
// "HH:MM:SS".
func (m *Metadata) GetAttribute(name string) (string, bool) {
	name = canonicalName(name)
	a, _ := m.lookup(name)
	if a == nil {
		return "", false
	}
	bo := m.byteOrder()

	switch {
	case name == "GPSTimeStamp":
		if a.Count >= 3 {
			var hms [3]int64
			for i := range hms {
				num, den, ok := a.rationalAt(bo, i)
				if !ok || den == 0 {
					return a.String(bo), true
				}
				hms[i] = num / den
			}
			return fmt.Sprintf("%02d:%02d:%02d", hms[0], hms[1], hms[2]), true
		}
	case name == "UserComment":
		if s, ok := decodeUserComment(a); ok {
			return s, true
		}
	default:
		if _, ok := compatDecimalTags[name]; ok {
			if v, err := a.Float(bo); err == nil {
				return strconv.FormatFloat(v, 'f', -1, 64), true
			}
		}
	}
	return a.String(bo), true
}

// GetAttributeInt returns the named attribute as an integer, or def when it
// is absent or not numeric.
func (m *Metadata) GetAttributeInt(name string, def int) int {
	a, _ := m.lookup(canonicalName(name))
	if a == nil {
		return def
	}
	v, err := a.Int(m.byteOrder())
	if err != nil {
		return def
	}
	return v
}

// GetAttributeDouble returns the named attribute as a float, dividing
// rationals, or def when it is absent or not numeric.
func (m *Metadata) GetAttributeDouble(name string, def float64) float64 {
	a, _ := m.lookup(canonicalName(name))
	if a == nil {
		return def
	}
	v, err := a.Float(m.byteOrder())
	if err != nil {
		return def
	}
	return v
}

// Attributes returns every attribute rendered as text, keyed by name.
// When a name occurs in several groups the highest-priority group wins.
func (m *Metadata) Attributes() map[string]string {
	out := make(map[string]string)
	for _, g := range groupSearchOrder {
		for name := range m.groups[g] {
			if _, seen := out[name]; seen {
				continue
			}
			if v, ok := m.GetAttribute(name); ok {
				out[name] = v
			}
		}
	}
	return out
}

var (
	// Canonical colon-separated date-times plus the dashed legacy form;
	// both separators must match.
	dateTimePattern  = regexp.MustCompile(`^\d{4}(:\d{2}:|-\d{2}-)\d{2} \d{2}:\d{2}:\d{2}$`)
	gpsTimePattern   = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)
	plainNumberRe    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	dateTimeTagNames = map[string]struct{}{
		"DateTime": {}, "DateTimeOriginal": {}, "DateTimeDigitized": {},
	}
)

// SetAttribute stores the named attribute from its textual form, applying
// the same conversions GetAttribute reverses. Date-time values accept
// dashed dates and are normalized to colons. An unknown name or an
// unrepresentable value leaves the session unchanged.
func (m *Metadata) SetAttribute(name, value string) error {
	name = canonicalName(name)

	if _, isDate := dateTimeTagNames[name]; isDate {
		if !dateTimePattern.MatchString(value) {
			return fmt.Errorf("exif: invalid date-time %q", value)
		}
		value = strings.ReplaceAll(value, "-", ":")
	}
	if name == "GPSTimeStamp" {
		mm := gpsTimePattern.FindStringSubmatch(value)
		if mm == nil {
			return fmt.Errorf("exif: invalid GPS timestamp %q", value)
		}
		value = fmt.Sprintf("%s/1,%s/1,%s/1", mm[1], mm[2], mm[3])
	}
	if _, ok := compatDecimalTags[name]; ok && plainNumberRe.MatchString(value) {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("exif: invalid number %q", value)
		}
		// These tags are unsigned rationals on the wire.
		if v < 0 {
			return fmt.Errorf("exif: negative value %q for %s", value, name)
		}
		r := approxRational(v)
		value = fmt.Sprintf("%d/%d", r.Num, r.Den)
	}

	home := GroupID(-1)
	for _, g := range groupSearchOrder {
		if groupTables[g].byName[name] != nil {
			home = g
			break
		}
	}
	if home < 0 {
		return fmt.Errorf("exif: unknown attribute %q", name)
	}

	bo := m.byteOrder()
	for _, g := range groupSearchOrder {
		tag := groupTables[g].byName[name]
		if tag == nil {
			continue
		}
		if g != home && len(m.groups[g]) == 0 {
			continue
		}
		a, err := attributeFromString(tag, value, bo)
		if err != nil {
			return err
		}
		m.setRaw(g, name, a)
	}
	return nil
}

// ClearAttribute removes the named attribute from every group.
func (m *Metadata) ClearAttribute(name string) {
	name = canonicalName(name)
	for g := range m.groups {
		delete(m.groups[g], name)
	}
}

// AttributeRange returns the file-absolute byte range of the attribute's
// value as recorded at parse time. Fails for attributes created or modified
// in memory, and for every attribute once the file has been rewritten.
func (m *Metadata) AttributeRange(name string) (offset, length int64, err error) {
	if m.stale {
		return 0, 0, ErrStaleOffsets
	}
	a, _ := m.lookup(canonicalName(name))
	if a == nil || a.sourceOffset < 0 {
		return 0, 0, ErrNoSuchChunk
	}
	return a.sourceOffset, int64(len(a.Value)), nil
}

// User comment character-code prefixes, 8 bytes each.
var (
	userCommentASCII   = []byte("ASCII\x00\x00\x00")
	userCommentJIS     = []byte("JIS\x00\x00\x00\x00\x00")
	userCommentUnicode = []byte("UNICODE\x00")
)

func decodeUserComment(a *Attribute) (string, bool) {
	if a.Format != FormatUndefined || len(a.Value) < 8 {
		return "", false
	}
	body := a.Value[8:]
	switch {
	case strings.HasPrefix(string(a.Value), string(userCommentASCII)):
		return strings.TrimRight(string(body), "\x00 "), true
	case strings.HasPrefix(string(a.Value), string(userCommentUnicode)):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		s, err := dec.String(string(body))
		if err != nil {
			return "", false
		}
		return strings.TrimRight(s, "\x00"), true
	case strings.HasPrefix(string(a.Value), string(userCommentJIS)):
		s, err := japanese.ISO2022JP.NewDecoder().String(string(body))
		if err != nil {
			return "", false
		}
		return strings.TrimRight(s, "\x00"), true
	}
	return "", false
}

// Orientation ---------------------------------------------------------------

// rotationOrder and flippedRotationOrder are the two 4-cycles of the
// orientation lattice; rotating by 90 degrees steps forward within the
// cycle the current value belongs to.
var (
	rotationOrder        = [4]int{OrientationNormal, OrientationRotate90, OrientationRotate180, OrientationRotate270}
	flippedRotationOrder = [4]int{OrientationFlipHorizontal, OrientationTransverse, OrientationFlipVertical, OrientationTranspose}
)

func (m *Metadata) orientation() int {
	return m.GetAttributeInt("Orientation", OrientationNormal)
}

func (m *Metadata) setOrientation(v int) {
	m.setRaw(GroupPrimary, "Orientation", newUShortAttr(m.byteOrder(), uint16(v)))
}

// ResetOrientation sets the orientation back to normal.
func (m *Metadata) ResetOrientation() {
	m.setOrientation(OrientationNormal)
}

// Rotate adjusts the orientation by the given clockwise degrees, which must
// be a multiple of 90. Flipped orientations stay flipped.
func (m *Metadata) Rotate(degrees int) error {
	if degrees%90 != 0 {
		return fmt.Errorf("exif: rotation %d is not a multiple of 90", degrees)
	}
	steps := degrees / 90 % 4
	if steps < 0 {
		steps += 4
	}
	cur := m.orientation()
	for i, v := range rotationOrder {
		if v == cur {
			m.setOrientation(rotationOrder[(i+steps)%4])
			return nil
		}
	}
	for i, v := range flippedRotationOrder {
		if v == cur {
			m.setOrientation(flippedRotationOrder[(i+steps)%4])
			return nil
		}
	}
	// Unknown or missing orientation counts as normal.
	m.setOrientation(rotationOrder[steps])
	return nil
}

// FlipHorizontally mirrors the orientation across the vertical axis.
func (m *Metadata) FlipHorizontally() {
	m.setOrientation(flipHorizontalMap(m.orientation()))
}

// FlipVertically mirrors the orientation across the horizontal axis.
func (m *Metadata) FlipVertically() {
	m.setOrientation(flipVerticalMap(m.orientation()))
}

func flipHorizontalMap(o int) int {
	switch o {
	case OrientationNormal:
		return OrientationFlipHorizontal
	case OrientationFlipHorizontal:
		return OrientationNormal
	case OrientationRotate180:
		return OrientationFlipVertical
	case OrientationFlipVertical:
		return OrientationRotate180
	case OrientationRotate90:
		return OrientationTransverse
	case OrientationTransverse:
		return OrientationRotate90
	case OrientationRotate270:
		return OrientationTranspose
	case OrientationTranspose:
		return OrientationRotate270
	}
	return OrientationNormal
}

func flipVerticalMap(o int) int {
	switch o {
	case OrientationNormal:
		return OrientationFlipVertical
	case OrientationFlipVertical:
		return OrientationNormal
	case OrientationRotate180:
		return OrientationFlipHorizontal
	case OrientationFlipHorizontal:
		return OrientationRotate180
	case OrientationRotate90:
		return OrientationTranspose
	case OrientationTranspose:
		return OrientationRotate90
	case OrientationRotate270:
		return OrientationTransverse
	case OrientationTransverse:
		return OrientationRotate270
	}
	return OrientationNormal
}

// IsFlipped reports whether the orientation mirrors the image.
func (m *Metadata) IsFlipped() bool {
	switch m.orientation() {
	case OrientationFlipHorizontal, OrientationFlipVertical,
		OrientationTranspose, OrientationTransverse:
		return true
	}
	return false
}

// RotationDegrees returns the clockwise rotation the orientation encodes,
// ignoring any mirroring.
func (m *Metadata) RotationDegrees() int {
	switch m.orientation() {
	case OrientationRotate90, OrientationTransverse:
		return 90
	case OrientationRotate180, OrientationFlipVertical:
		return 180
	case OrientationRotate270, OrientationTranspose:
		return 270
	}
	return 0
}

// GPS ------------------------------------------------------------------------

// dmsDenominator is the seconds denominator used when encoding decimal
// degrees, good for centimeter-level precision.
const dmsDenominator = 10000000

// LatLong returns the decoded GPS position. ok is false when either
// coordinate or its reference is missing or malformed.
func (m *Metadata) LatLong() (lat, lng float64, ok bool) {
	lat, ok1 := m.coordinate("GPSLatitude", "GPSLatitudeRef", "S")
	lng, ok2 := m.coordinate("GPSLongitude", "GPSLongitudeRef", "W")
	return lat, lng, ok1 && ok2
}

func (m *Metadata) coordinate(tag, refTag, negRef string) (float64, bool) {
	a, _ := m.lookup(tag)
	ref, _ := m.lookup(refTag)
	if a == nil || ref == nil || a.Count < 3 {
		return 0, false
	}
	bo := m.byteOrder()
	var parts [3]float64
	for i := range parts {
		num, den, ok := a.rationalAt(bo, i)
		if !ok || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}
	v := parts[0] + parts[1]/60 + parts[2]/3600
	if ref.text() == negRef {
		v = -v
	}
	return v, true
}

// SetLatLong stores the GPS position. Latitude must lie in [-90, 90] and
// longitude in [-180, 180].
func (m *Metadata) SetLatLong(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("exif: latitude %v out of range", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("exif: longitude %v out of range", lng)
	}
	bo := m.byteOrder()

	latRef, lngRef := "N", "E"
	if lat < 0 {
		latRef = "S"
	}
	if lng < 0 {
		lngRef = "W"
	}
	m.setRaw(GroupGPS, "GPSLatitude", newURationalAttr(bo, decimalToDMS(math.Abs(lat))...))
	m.setRaw(GroupGPS, "GPSLatitudeRef", newStringAttr(latRef))
	m.setRaw(GroupGPS, "GPSLongitude", newURationalAttr(bo, decimalToDMS(math.Abs(lng))...))
	m.setRaw(GroupGPS, "GPSLongitudeRef", newStringAttr(lngRef))
	return nil
}

func decimalToDMS(v float64) []Rational {
	deg := math.Floor(v)
	rem := (v - deg) * 60
	min := math.Floor(rem)
	sec := (rem - min) * 60
	return []Rational{
		{Num: uint32(deg), Den: 1},
		{Num: uint32(min), Den: 1},
		{Num: uint32(math.Round(sec * dmsDenominator)), Den: dmsDenominator},
	}
}

// Altitude returns the GPS altitude in meters, negative below sea level,
// or def when absent.
func (m *Metadata) Altitude(def float64) float64 {
	a, _ := m.lookup("GPSAltitude")
	if a == nil {
		return def
	}
	v, err := a.Float(m.byteOrder())
	if err != nil {
		return def
	}
	if ref, _ := m.lookup("GPSAltitudeRef"); ref != nil {
		if r, ok := ref.uintAt(m.byteOrder(), 0); ok && r == 1 {
			v = -v
		}
	}
	return v
}

// SetAltitude stores the GPS altitude; the sign lands in the reference tag.
func (m *Metadata) SetAltitude(meters float64) error {
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return fmt.Errorf("exif: invalid altitude %v", meters)
	}
	bo := m.byteOrder()
	ref := byte(0)
	if meters < 0 {
		ref = 1
	}
	m.setRaw(GroupGPS, "GPSAltitude", newURationalAttr(bo, approxRational(math.Abs(meters))))
	m.setRaw(GroupGPS, "GPSAltitudeRef", newByteAttr([]byte{ref}))
	return nil
}

// Location is a GPS fix for SetGPSInfo. Speed is in meters per second;
// Time, when non-zero, yields the UTC GPS timestamp tags.
type Location struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64
	Provider  string
	Time      time.Time
}

// SetGPSInfo stores a complete GPS fix in one call.
func (m *Metadata) SetGPSInfo(loc Location) error {
	if err := m.SetLatLong(loc.Latitude, loc.Longitude); err != nil {
		return err
	}
	if err := m.SetAltitude(loc.Altitude); err != nil {
		return err
	}
	bo := m.byteOrder()
	if loc.Speed != 0 {
		// Stored in km/h.
		m.setRaw(GroupGPS, "GPSSpeedRef", newStringAttr("K"))
		m.setRaw(GroupGPS, "GPSSpeed", newURationalAttr(bo, approxRational(loc.Speed*3.6)))
	}
	if loc.Provider != "" {
		val := append(append([]byte(nil), userCommentASCII...), loc.Provider...)
		m.setRaw(GroupGPS, "GPSProcessingMethod", newUndefinedAttr(val))
	}
	if !loc.Time.IsZero() {
		utc := loc.Time.UTC()
		m.setRaw(GroupGPS, "GPSTimeStamp", newURationalAttr(bo,
			Rational{uint32(utc.Hour()), 1},
			Rational{uint32(utc.Minute()), 1},
			Rational{uint32(utc.Second()), 1},
		))
		m.setRaw(GroupGPS, "GPSDateStamp", newStringAttr(utc.Format("2006:01:02")))
	}
	return nil
}

// Date-time ------------------------------------------------------------------

const exifTimeLayout = "2006:01:02 15:04:05"

// DateTime returns the modification timestamp with sub-second precision
// applied, in the local time zone unless an offset tag pins it.
func (m *Metadata) DateTime() (time.Time, bool) {
	return m.dateTime("DateTime", "SubSecTime", "OffsetTime")
}

// DateTimeOriginal returns the capture timestamp.
func (m *Metadata) DateTimeOriginal() (time.Time, bool) {
	return m.dateTime("DateTimeOriginal", "SubSecTimeOriginal", "OffsetTimeOriginal")
}

// DateTimeDigitized returns the digitization timestamp.
func (m *Metadata) DateTimeDigitized() (time.Time, bool) {
	return m.dateTime("DateTimeDigitized", "SubSecTimeDigitized", "OffsetTimeDigitized")
}

func (m *Metadata) dateTime(dateTag, subSecTag, offsetTag string) (time.Time, bool) {
	v, ok := m.GetAttribute(dateTag)
	if !ok {
		return time.Time{}, false
	}
	loc := time.Local
	if off, ok := m.GetAttribute(offsetTag); ok {
		if z, err := time.Parse("-07:00", off); err == nil {
			loc = z.Location()
		}
	}
	t, err := time.ParseInLocation(exifTimeLayout, v, loc)
	if err != nil {
		return time.Time{}, false
	}
	if sub, ok := m.GetAttribute(subSecTag); ok {
		t = t.Add(subSecDuration(sub))
	}
	return t, true
}

// subSecDuration interprets the SubSecTime digit string as a decimal
// fraction of a second.
func subSecDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 9 {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	frac := float64(n) / math.Pow10(len(s))
	return time.Duration(frac * float64(time.Second))
}

// SetDateTime stores the modification timestamp, splitting sub-second
// precision into the companion tag.
func (m *Metadata) SetDateTime(t time.Time) {
	m.setRaw(GroupPrimary, "DateTime", newStringAttr(t.Format(exifTimeLayout)))
	if ms := t.Nanosecond() / int(time.Millisecond); ms > 0 {
		m.setRaw(GroupExif, "SubSecTime", newStringAttr(fmt.Sprintf("%03d", ms)))
	}
}

// GPSDateTime combines the GPS date and time stamps into a UTC timestamp.
func (m *Metadata) GPSDateTime() (time.Time, bool) {
	date, ok1 := m.GetAttribute("GPSDateStamp")
	clock, ok2 := m.GetAttribute("GPSTimeStamp")
	if !ok1 || !ok2 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(exifTimeLayout, date+" "+clock, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
