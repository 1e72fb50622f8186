package exif

import (
	"bytes"
	"encoding/binary"
)

// Vendor maker-note headers. Offsets inside a maker note are relative to
// the note's own first byte.
var (
	orfMakerNoteHeader1 = []byte("OLYMP\x00")     // 8-byte header
	orfMakerNoteHeader2 = []byte("OLYMPUS\x00II") // 12-byte header
	pefMakerNoteHeader  = []byte("AOC\x00")       // 6-byte header
)

const (
	orfHeader1Size = 8
	orfHeader2Size = 12
	pefHeaderSize  = 6
)

// parseMakerNote decodes a vendor maker note as a nested directory rooted
// at group, with entry offsets relative to the note blob itself. Failures
// are quiet: a broken maker note must not cost the standard tags.
func (m *Metadata) parseMakerNote(note *Attribute, start uint32, group GroupID) {
	r := newBlobReader(note.Value, m.byteOrder())
	d := &tiffDecoder{
		r:       r,
		m:       m,
		base:    note.sourceOffset,
		visited: make(map[uint32]struct{}),
		log:     m.log,
	}
	if err := d.decodeIFD(start, group); err != nil {
		m.log.Warnf("exif: ignoring maker note: %v", err)
	}
}

// applyVendorFixups runs the container-specific post-processing after a
// TIFF-structured RAW parse.
func (m *Metadata) applyVendorFixups(data []byte) {
	if m.sawDNGVersion {
		m.container = ContainerDNG
	}
	switch m.container {
	case ContainerORF:
		m.fixupORF()
	case ContainerRW2:
		m.fixupRW2(data)
	case ContainerPEF:
		m.fixupPEF()
	}
	if m.container == ContainerDNG {
		m.fixupDNG()
	}
}

// fixupORF recovers the preview range and the true frame size from the
// Olympus maker note.
func (m *Metadata) fixupORF() {
	note := m.raw(GroupExif, "MakerNote")
	if note == nil {
		return
	}
	switch {
	case bytes.HasPrefix(note.Value, orfMakerNoteHeader2):
		m.parseMakerNote(note, orfHeader2Size, GroupOlympusMakerNote)
	case bytes.HasPrefix(note.Value, orfMakerNoteHeader1):
		m.parseMakerNote(note, orfHeader1Size, GroupOlympusMakerNote)
	default:
		return
	}

	bo := m.byteOrder()
	if start := m.raw(GroupOlympusCameraSettings, "PreviewImageStart"); start != nil {
		if length := m.raw(GroupOlympusCameraSettings, "PreviewImageLength"); length != nil {
			off, _ := start.uintAt(bo, 0)
			n, _ := length.uintAt(bo, 0)
			if off > 0 && n > 0 {
				m.setRaw(GroupThumbnail, "JPEGInterchangeFormat", newULongAttr(bo, off))
				m.setRaw(GroupThumbnail, "JPEGInterchangeFormatLength", newULongAttr(bo, n))
			}
		}
	}

	// The aspect frame rectangle yields the displayed dimensions. The
	// larger extent always becomes the width, matching vendor behavior
	// even for portrait frames.
	frame := m.raw(GroupOlympusImageProcessing, "AspectFrame")
	if frame == nil || frame.Count < 4 {
		return
	}
	var v [4]uint32
	for i := range v {
		v[i], _ = frame.uintAt(bo, i)
	}
	dx, dy := v[2]-v[0], v[3]-v[1]
	if v[2] < v[0] || v[3] < v[1] {
		return
	}
	width, height := dx+1, dy+1
	if width < height {
		width, height = height, width
	}
	if width > 0 && height > 0 {
		m.setRaw(GroupPrimary, "ImageWidth", newULongAttr(bo, width))
		m.setRaw(GroupPrimary, "ImageLength", newULongAttr(bo, height))
	}
}

// fixupRW2 promotes the embedded JPEG blob to preview/thumbnail data and
// mirrors the vendor ISO tag into the standard sensitivity tag.
func (m *Metadata) fixupRW2(data []byte) {
	if jpg := m.raw(GroupPrimary, "JpgFromRaw"); jpg != nil && len(jpg.Value) > 4 {
		base := jpg.sourceOffset
		if base < 0 {
			base = 0
		}
		if err := m.parseJPEG(jpg.Value, base, GroupPreview); err != nil {
			m.log.Warnf("exif: ignoring embedded RW2 JPEG: %v", err)
		} else {
			m.thumbnailBytes = append([]byte(nil), jpg.Value...)
			m.thumbnail = ThumbnailDescriptor{
				HasThumbnail: true,
				Compression:  CompressionJPEG,
				Offset:       jpg.sourceOffset,
				Length:       int64(len(jpg.Value)),
			}
		}
	}
	if iso := m.raw(GroupPrimary, "ISO"); iso != nil && !m.hasRaw(GroupExif, "PhotographicSensitivity") {
		v, ok := iso.uintAt(m.byteOrder(), 0)
		if ok {
			m.setRaw(GroupExif, "PhotographicSensitivity", newUShortAttr(m.byteOrder(), uint16(v)))
		}
	}
}

// fixupPEF copies the vendor color-space tag from the Pentax maker note
// into the standard tag.
func (m *Metadata) fixupPEF() {
	note := m.raw(GroupExif, "MakerNote")
	if note == nil || !bytes.HasPrefix(note.Value, pefMakerNoteHeader) {
		return
	}
	m.parseMakerNote(note, pefHeaderSize, GroupPentax)

	if cs := m.raw(GroupPentax, "PentaxColorSpace"); cs != nil && !m.hasRaw(GroupExif, "ColorSpace") {
		if v, ok := cs.uintAt(m.byteOrder(), 0); ok {
			m.setRaw(GroupExif, "ColorSpace", newUShortAttr(m.byteOrder(), uint16(v)))
		}
	}
}

// fixupDNG corrects width/height from the crop-size tag, which appears as
// rational pairs in some writers and integer pairs in others.
func (m *Metadata) fixupDNG() {
	crop := m.raw(GroupPrimary, "DefaultCropSize")
	if crop == nil || crop.Count < 2 {
		return
	}
	bo := m.byteOrder()
	var width, height uint32
	if crop.Format == FormatURational {
		wn, wd, ok1 := crop.rationalAt(bo, 0)
		hn, hd, ok2 := crop.rationalAt(bo, 1)
		if !ok1 || !ok2 || wd == 0 || hd == 0 {
			return
		}
		width = uint32(wn / wd)
		height = uint32(hn / hd)
	} else {
		w, ok1 := crop.uintAt(bo, 0)
		h, ok2 := crop.uintAt(bo, 1)
		if !ok1 || !ok2 {
			return
		}
		width, height = w, h
	}
	if width > 0 && height > 0 {
		m.setRaw(GroupPrimary, "ImageWidth", newULongAttr(bo, width))
		m.setRaw(GroupPrimary, "ImageLength", newULongAttr(bo, height))
	}
}

// RAF layout: a fixed ASCII magic, then big-endian offset/length fields for
// the embedded JPEG and the CFA metadata block.
const (
	rafJPEGOffsetPos = 84
	rafTagImageSize  = 0x0100
)

// parseRAF reads the Fujifilm header, parses the embedded JPEG (whose
// directories land in the preview group) and scans the proprietary CFA tag
// list for the primary frame size. All CFA tags but the dimension tag are
// skipped by length.
func (m *Metadata) parseRAF(data []byte) error {
	if len(data) < rafJPEGOffsetPos+16 {
		return formatErrorf("truncated RAF header")
	}
	jpegOffset := int64(binary.BigEndian.Uint32(data[rafJPEGOffsetPos:]))
	jpegLength := int64(binary.BigEndian.Uint32(data[rafJPEGOffsetPos+4:]))
	cfaOffset := int64(binary.BigEndian.Uint32(data[rafJPEGOffsetPos+8:]))
	cfaLength := int64(binary.BigEndian.Uint32(data[rafJPEGOffsetPos+12:]))

	if jpegOffset > 0 && jpegLength > 0 && jpegOffset+jpegLength <= int64(len(data)) {
		if err := m.parseJPEG(data[jpegOffset:jpegOffset+jpegLength], jpegOffset, GroupPreview); err != nil {
			m.log.Warnf("exif: ignoring embedded RAF JPEG: %v", err)
		}
	}

	if cfaOffset <= 0 || cfaLength <= 0 || cfaOffset+cfaLength > int64(len(data)) {
		return nil
	}
	cfa := data[cfaOffset : cfaOffset+cfaLength]
	if len(cfa) < 4 {
		return nil
	}
	count := int(binary.BigEndian.Uint32(cfa))
	pos := 4
	for i := 0; i < count && pos+4 <= len(cfa); i++ {
		tagID := binary.BigEndian.Uint16(cfa[pos:])
		payloadLen := int(binary.BigEndian.Uint16(cfa[pos+2:]))
		pos += 4
		if pos+payloadLen > len(cfa) {
			break
		}
		if tagID == rafTagImageSize && payloadLen >= 4 {
			height := uint32(binary.BigEndian.Uint16(cfa[pos:]))
			width := uint32(binary.BigEndian.Uint16(cfa[pos+2:]))
			bo := m.byteOrder()
			m.setRaw(GroupPrimary, "ImageLength", newULongAttr(bo, height))
			m.setRaw(GroupPrimary, "ImageWidth", newULongAttr(bo, width))
		}
		pos += payloadLen
	}
	return nil
}
