package exif

// ThumbnailCompression classifies the embedded thumbnail encoding.
type ThumbnailCompression int

const (
	CompressionNone ThumbnailCompression = iota
	CompressionJPEG
	CompressionUncompressed
)

// Compression tag values with thumbnail significance.
const (
	compressionValueNone        = 1
	compressionValueJPEG        = 6
	compressionValueOldJPEG     = 7
	compressionValuePackedJPEG  = 99
	photometricBlackIsZero      = 1
	photometricRGB              = 2
	photometricYCbCr            = 6
	previewPromotionMaxDim      = 512
)

// ThumbnailDescriptor captures presence, kind and byte range of the
// embedded thumbnail. Offset is file-absolute and valid only until the file
// is rewritten.
type ThumbnailDescriptor struct {
	HasThumbnail     bool
	Compression      ThumbnailCompression
	Offset           int64
	Length           int64
	MultiStrip       bool
	StripsContiguous bool
}

// resolveThumbnail fills the descriptor from the thumbnail directory: the
// JFIF offset/length pair wins, otherwise a supported uncompressed strip
// layout is concatenated. When neither exists but the preview image is
// small enough, the preview directory is promoted.
func (m *Metadata) resolveThumbnail(data []byte) {
	if m.thumbnail.HasThumbnail {
		// Already resolved by a vendor fixup (RW2 embedded JPEG).
		return
	}
	if m.resolveThumbnailIn(data, GroupThumbnail) {
		return
	}
	if m.promotePreview() {
		m.resolveThumbnailIn(data, GroupThumbnail)
	}
}

func (m *Metadata) resolveThumbnailIn(data []byte, g GroupID) bool {
	bo := m.byteOrder()

	offAttr := m.raw(g, "JPEGInterchangeFormat")
	lenAttr := m.raw(g, "JPEGInterchangeFormatLength")
	if offAttr != nil && lenAttr != nil {
		off, ok1 := offAttr.uintAt(bo, 0)
		n, ok2 := lenAttr.uintAt(bo, 0)
		if !ok1 || !ok2 || n == 0 {
			return false
		}
		start := m.tiffBase + int64(off)
		end := start + int64(n)
		if start < 0 || end > int64(len(data)) {
			m.log.Warnf("exif: thumbnail range [%d,%d) outside file", start, end)
			return false
		}
		m.thumbnailBytes = append([]byte(nil), data[start:end]...)
		m.thumbnail = ThumbnailDescriptor{
			HasThumbnail:     true,
			Compression:      CompressionJPEG,
			Offset:           start,
			Length:           int64(n),
			StripsContiguous: true,
		}
		return true
	}

	return m.resolveStrips(data, g)
}

// resolveStrips concatenates an uncompressed strip layout. Contiguity of
// the original strips is tracked separately: only a contiguous layout can
// answer a single-range byte-offset query later.
func (m *Metadata) resolveStrips(data []byte, g GroupID) bool {
	bo := m.byteOrder()
	offsets := m.raw(g, "StripOffsets")
	counts := m.raw(g, "StripByteCounts")
	if offsets == nil || counts == nil || offsets.Count == 0 || offsets.Count != counts.Count {
		return false
	}
	if !m.supportedStripLayout(g) {
		return false
	}

	var (
		buf        []byte
		contiguous = true
		total      int64
	)
	for i := 0; i < int(offsets.Count); i++ {
		off, ok1 := offsets.uintAt(bo, i)
		n, ok2 := counts.uintAt(bo, i)
		if !ok1 || !ok2 {
			return false
		}
		start := m.tiffBase + int64(off)
		end := start + int64(n)
		if start < 0 || end > int64(len(data)) {
			m.log.Warnf("exif: thumbnail strip %d outside file", i)
			return false
		}
		if i > 0 {
			prevOff, _ := offsets.uintAt(bo, i-1)
			prevN, _ := counts.uintAt(bo, i-1)
			if prevOff+prevN != off {
				contiguous = false
			}
		}
		buf = append(buf, data[start:end]...)
		total += int64(n)
	}

	firstOff, _ := offsets.uintAt(bo, 0)
	m.thumbnailBytes = buf
	m.thumbnail = ThumbnailDescriptor{
		HasThumbnail:     true,
		Compression:      CompressionUncompressed,
		Offset:           m.tiffBase + int64(firstOff),
		Length:           total,
		MultiStrip:       offsets.Count > 1,
		StripsContiguous: contiguous,
	}
	return true
}

// supportedStripLayout accepts plain 3x8-bit RGB, plus the grayscale and
// YCbCr layouts DNG previews use.
func (m *Metadata) supportedStripLayout(g GroupID) bool {
	bo := m.byteOrder()
	bits := m.raw(g, "BitsPerSample")
	if bits != nil && bits.Count == 3 {
		ok := true
		for i := 0; i < 3; i++ {
			if v, valid := bits.uintAt(bo, i); !valid || v != 8 {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	if m.container != ContainerDNG {
		return false
	}
	photo := m.raw(g, "PhotometricInterpretation")
	if photo == nil {
		return false
	}
	v, ok := photo.uintAt(bo, 0)
	if !ok {
		return false
	}
	switch v {
	case photometricBlackIsZero:
		return bits != nil && bits.Count == 1
	case photometricYCbCr:
		return true
	}
	return false
}

// promotePreview moves the preview directory into the empty thumbnail slot
// when the preview image is small enough to serve as one. Attribute names
// are translated through the thumbnail registry, which renames the
// dimension and orientation tags.
func (m *Metadata) promotePreview() bool {
	if len(m.groups[GroupThumbnail]) != 0 || len(m.groups[GroupPreview]) == 0 {
		return false
	}
	bo := m.byteOrder()
	w := m.raw(GroupPreview, "ImageWidth")
	h := m.raw(GroupPreview, "ImageLength")
	if w == nil || h == nil {
		return false
	}
	wv, ok1 := w.uintAt(bo, 0)
	hv, ok2 := h.uintAt(bo, 0)
	if !ok1 || !ok2 || wv > previewPromotionMaxDim || hv > previewPromotionMaxDim {
		return false
	}

	previewTable := groupTables[GroupPreview]
	thumbTable := groupTables[GroupThumbnail]
	dst := make(map[string]*Attribute, len(m.groups[GroupPreview]))
	for name, a := range m.groups[GroupPreview] {
		tag := previewTable.byName[name]
		if tag == nil {
			continue
		}
		if renamed := thumbTable.byID[tag.ID]; renamed != nil {
			dst[renamed.Name] = a
		}
	}
	m.groups[GroupThumbnail] = dst
	m.groups[GroupPreview] = nil
	return true
}

// HasThumbnail reports whether the parsed file carries a thumbnail.
func (m *Metadata) HasThumbnail() bool {
	return m.thumbnail.HasThumbnail
}

// Thumbnail returns the descriptor resolved at parse time.
func (m *Metadata) Thumbnail() ThumbnailDescriptor {
	return m.thumbnail
}

// ThumbnailBytes returns the thumbnail data, concatenated across strips for
// uncompressed layouts. The slice stays valid after save.
func (m *Metadata) ThumbnailBytes() []byte {
	return m.thumbnailBytes
}

// ThumbnailRange returns the file-absolute byte range of the thumbnail.
// It fails once the file has been rewritten, or when the thumbnail strips
// were not contiguous in the source file.
func (m *Metadata) ThumbnailRange() (offset, length int64, err error) {
	if m.stale {
		return 0, 0, ErrStaleOffsets
	}
	if !m.thumbnail.HasThumbnail {
		return 0, 0, ErrNoSuchChunk
	}
	if !m.thumbnail.StripsContiguous {
		return 0, 0, unsupportedf("thumbnail strips are not contiguous")
	}
	return m.thumbnail.Offset, m.thumbnail.Length, nil
}
