package exif

import (
	"encoding/binary"
	"sort"
)

var exifIdentifier = []byte("Exif\x00\x00")

// encodedGroups is the fixed emission order of the writable directory
// groups. Vendor groups only occur in RAW containers, which are never
// rewritten, so they are not part of the output layout.
var encodedGroups = [...]GroupID{
	GroupPrimary, GroupExif, GroupGPS, GroupInterop, GroupThumbnail,
}

type groupLayout struct {
	names  []string // attribute names sorted by tag id
	offset uint32   // group block offset relative to the TIFF header
	size   uint32   // 2 + 12n + 4 + overflow
}

// encodeTIFF re-emits the directory graph as a fresh TIFF block: byte-order
// marker, start code, then one contiguous block per non-empty group, with
// all child offsets recomputed. Thumbnail bytes, when present, land after
// the last group block.
func (m *Metadata) encodeTIFF() ([]byte, error) {
	bo := m.bo
	if bo == nil {
		bo = binary.BigEndian
		m.bo = bo
	}

	m.syncPointerTags()

	layouts := make(map[GroupID]*groupLayout)
	offset := uint32(tiffHeaderSize)
	for _, g := range encodedGroups {
		group := m.groups[g]
		if len(group) == 0 {
			continue
		}
		l := &groupLayout{offset: offset}
		for name := range group {
			l.names = append(l.names, name)
		}
		table := groupTables[g]
		sort.Slice(l.names, func(i, j int) bool {
			return table.byName[l.names[i]].ID < table.byName[l.names[j]].ID
		})
		l.size = 2 + uint32(len(l.names))*ifdEntrySize + 4
		for _, name := range l.names {
			if n := group[name].size(); n > inlineValueSize {
				l.size += n
			}
		}
		layouts[g] = l
		offset += l.size
	}

	if layouts[GroupPrimary] == nil {
		// A file with only a thumbnail directory still needs a primary
		// block to anchor the next-directory chain.
		m.groups[GroupPrimary] = map[string]*Attribute{}
		layouts[GroupPrimary] = &groupLayout{offset: tiffHeaderSize, size: 2 + 4}
		for _, g := range encodedGroups[1:] {
			if l := layouts[g]; l != nil {
				l.offset += 2 + 4
			}
		}
		offset += 2 + 4
	}

	thumbDataOffset := offset
	total := offset + uint32(len(m.thumbnailBytes))

	// Patch pointer and thumbnail-range tags with the freshly computed
	// offsets before any bytes are written.
	if l := layouts[GroupExif]; l != nil {
		m.setRaw(GroupPrimary, "ExifIFDPointer", pointerAttr(bo, l.offset))
	}
	if l := layouts[GroupGPS]; l != nil {
		m.setRaw(GroupPrimary, "GPSInfoIFDPointer", pointerAttr(bo, l.offset))
	}
	if l := layouts[GroupInterop]; l != nil {
		m.setRaw(GroupExif, "InteroperabilityIFDPointer", pointerAttr(bo, l.offset))
	}
	if len(m.thumbnailBytes) > 0 {
		if m.thumbnail.Compression == CompressionJPEG {
			m.setRaw(GroupThumbnail, "JPEGInterchangeFormat", newULongAttr(bo, thumbDataOffset))
			m.setRaw(GroupThumbnail, "JPEGInterchangeFormatLength", newULongAttr(bo, uint32(len(m.thumbnailBytes))))
		} else {
			m.setRaw(GroupThumbnail, "StripOffsets", newULongAttr(bo, thumbDataOffset))
			m.setRaw(GroupThumbnail, "StripByteCounts", newULongAttr(bo, uint32(len(m.thumbnailBytes))))
		}
	}

	buf := make([]byte, total)
	if bo == binary.LittleEndian {
		buf[0], buf[1] = 'I', 'I'
	} else {
		buf[0], buf[1] = 'M', 'M'
	}
	bo.PutUint16(buf[2:], tiffStartCode)
	bo.PutUint32(buf[4:], layouts[GroupPrimary].offset)

	for _, g := range encodedGroups {
		l := layouts[g]
		if l == nil {
			continue
		}
		m.encodeGroup(buf, g, l, layouts)
	}
	copy(buf[thumbDataOffset:], m.thumbnailBytes)

	return buf, nil
}

func (m *Metadata) encodeGroup(buf []byte, g GroupID, l *groupLayout, layouts map[GroupID]*groupLayout) {
	bo := m.bo
	group := m.groups[g]
	table := groupTables[g]

	pos := l.offset
	bo.PutUint16(buf[pos:], uint16(len(l.names)))
	pos += 2

	overflow := l.offset + 2 + uint32(len(l.names))*ifdEntrySize + 4
	for _, name := range l.names {
		a := group[name]
		tag := table.byName[name]
		bo.PutUint16(buf[pos:], tag.ID)
		bo.PutUint16(buf[pos+2:], uint16(wireFormat(a.Format)))
		bo.PutUint32(buf[pos+4:], a.Count)
		if a.size() <= inlineValueSize {
			copy(buf[pos+8:pos+12], a.Value)
		} else {
			bo.PutUint32(buf[pos+8:], overflow)
			copy(buf[overflow:], a.Value)
			overflow += a.size()
		}
		pos += ifdEntrySize
	}

	// The primary group's trailing offset links the thumbnail directory;
	// everything else terminates the chain.
	var next uint32
	if g == GroupPrimary {
		if l := layouts[GroupThumbnail]; l != nil {
			next = l.offset
		}
	}
	bo.PutUint32(buf[pos:], next)
}

// wireFormat maps the internal pointer pseudo-format to its on-disk type.
func wireFormat(f DataFormat) DataFormat {
	if f == FormatIFDPointer {
		return FormatULong
	}
	return f
}

func pointerAttr(bo binary.ByteOrder, offset uint32) *Attribute {
	a := newULongAttr(bo, offset)
	a.Format = FormatIFDPointer
	return a
}

// syncPointerTags inserts placeholder pointer tags for populated child
// groups and drops the ones whose target group is empty or not part of the
// output layout.
func (m *Metadata) syncPointerTags() {
	bo := m.bo

	ensure := func(parent GroupID, name string, child GroupID) {
		if len(m.groups[child]) > 0 {
			if m.groups[parent] == nil {
				m.groups[parent] = map[string]*Attribute{}
			}
			if _, ok := m.groups[parent][name]; !ok {
				m.setRaw(parent, name, pointerAttr(bo, 0))
			}
		} else {
			delete(m.groups[parent], name)
		}
	}
	ensure(GroupPrimary, "ExifIFDPointer", GroupExif)
	ensure(GroupPrimary, "GPSInfoIFDPointer", GroupGPS)
	ensure(GroupExif, "InteroperabilityIFDPointer", GroupInterop)

	// The preview sub-IFD is not re-emitted; a dangling pointer would
	// reference freed space.
	delete(m.groups[GroupPrimary], "SubIFDPointer")

	// Thumbnail range tags are recomputed during layout; stale ones from
	// the source file must not survive. When thumbnail data is carried
	// over, placeholders are inserted here so the layout pass counts them.
	for _, name := range []string{
		"JPEGInterchangeFormat", "JPEGInterchangeFormatLength",
		"StripOffsets", "StripByteCounts",
	} {
		delete(m.groups[GroupThumbnail], name)
	}
	if len(m.thumbnailBytes) > 0 {
		if m.thumbnail.Compression == CompressionJPEG {
			m.setRaw(GroupThumbnail, "JPEGInterchangeFormat", newULongAttr(bo, 0))
			m.setRaw(GroupThumbnail, "JPEGInterchangeFormatLength", newULongAttr(bo, 0))
		} else {
			m.setRaw(GroupThumbnail, "StripOffsets", newULongAttr(bo, 0))
			m.setRaw(GroupThumbnail, "StripByteCounts", newULongAttr(bo, 0))
		}
	}
}

// encodeExifPayload produces the container-ready blob: the Exif identifier
// followed by the TIFF block.
func (m *Metadata) encodeExifPayload() ([]byte, error) {
	tiff, err := m.encodeTIFF()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(exifIdentifier)+len(tiff))
	out = append(out, exifIdentifier...)
	return append(out, tiff...), nil
}
