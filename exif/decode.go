package exif

import (
	"math"

	"github.com/imgmeta/exifedit/internal/logger"
)

const (
	tiffStartCode   = 0x002A
	tiffHeaderSize  = 8
	ifdEntrySize    = 12
	inlineValueSize = 4
)

// tiffDecoder walks one TIFF directory graph inside an in-memory blob.
// Directory-entry anomalies (unknown tags, incompatible formats, absurd
// counts, out-of-range offsets, pointer cycles) are quiet, non-fatal
// degradations: the entry is skipped and the walk continues, because
// real-world files routinely carry vendor or malformed entries that must not
// abort extraction of everything else.
type tiffDecoder struct {
	r    *blobReader
	m    *Metadata
	base int64 // file-absolute offset of the TIFF header

	// visited holds every directory offset already decoded during this
	// top-level call. It is scoped to one decode, never shared between
	// sessions, and guards against pointer cycles in hostile input.
	visited map[uint32]struct{}

	log *logger.Logger
}

// parseTIFF decodes the TIFF block in data into the session's directory
// store. base is the file-absolute offset of the block, used to record
// attribute source offsets for raw byte-range queries. laxStartCode skips
// the 0x2A check for the RAW variants that deliberately use another code.
func (m *Metadata) parseTIFF(data []byte, base int64, laxStartCode bool) error {
	if len(data) < tiffHeaderSize {
		return formatErrorf("TIFF block of %d bytes is shorter than the header", len(data))
	}
	bo, err := byteOrderOf(uint16(data[0])<<8 | uint16(data[1]))
	if err != nil {
		return err
	}
	m.bo = bo

	r := newBlobReader(data, bo)
	if err := r.seek(2); err != nil {
		return err
	}
	startCode, err := r.u16()
	if err != nil {
		return err
	}
	if !laxStartCode && startCode != tiffStartCode {
		return formatErrorf("invalid TIFF start code %#04x", startCode)
	}
	firstIFD, err := r.u32()
	if err != nil {
		return err
	}
	if int64(firstIFD) >= int64(len(data)) {
		return formatErrorf("first IFD offset %d outside %d-byte block", firstIFD, len(data))
	}

	d := &tiffDecoder{
		r:       r,
		m:       m,
		base:    base,
		visited: make(map[uint32]struct{}),
		log:     m.log,
	}
	return d.decodeIFD(firstIFD, GroupPrimary)
}

func (d *tiffDecoder) decodeIFD(offset uint32, group GroupID) error {
	if _, seen := d.visited[offset]; seen {
		d.log.Warnf("exif: directory cycle at offset %d, leaving %s unpopulated", offset, group)
		return nil
	}
	d.visited[offset] = struct{}{}

	if err := d.r.seek(int64(offset)); err != nil {
		return err
	}
	count, err := d.r.u16()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if int(count)*ifdEntrySize+4 > d.r.remaining() {
		return formatErrorf("%s directory claims %d entries beyond block end", group, count)
	}

	table := groupTables[group]
	for i := 0; i < int(count); i++ {
		entryOffset := int64(offset) + 2 + int64(i)*ifdEntrySize
		if err := d.r.seek(entryOffset); err != nil {
			return err
		}
		d.decodeEntry(group, table)
	}

	// Trailing next-directory offset. Directories linked solely through it
	// carry embedded thumbnail data first, preview data second.
	if err := d.r.seek(int64(offset) + 2 + int64(count)*ifdEntrySize); err != nil {
		return err
	}
	next, err := d.r.u32()
	if err != nil {
		return err
	}
	if next > 0 {
		if _, seen := d.visited[next]; seen {
			d.log.Warnf("exif: next-directory offset %d already visited, stopping chain", next)
			return nil
		}
		switch {
		case len(d.m.groups[GroupThumbnail]) == 0:
			if err := d.decodeIFD(next, GroupThumbnail); err != nil {
				d.log.Warnf("exif: skipping thumbnail directory: %v", err)
			}
		case len(d.m.groups[GroupPreview]) == 0:
			if err := d.decodeIFD(next, GroupPreview); err != nil {
				d.log.Warnf("exif: skipping preview directory: %v", err)
			}
		}
	}
	return nil
}

// decodeEntry reads one 12-byte directory entry at the current cursor. Any
// failure is confined to this entry.
func (d *tiffDecoder) decodeEntry(group GroupID, table *tagTable) {
	tagID, err := d.r.u16()
	if err != nil {
		return
	}
	formatCode, err := d.r.u16()
	if err != nil {
		return
	}
	count, err := d.r.u32()
	if err != nil {
		return
	}

	format := DataFormat(formatCode)
	if !format.valid() || format == FormatIFDPointer {
		d.log.Debugf("exif: %s: skipping entry with bad format (%s)",
			group, describeEntry(tagID, format, count))
		return
	}
	tag, ok := table.byID[tagID]
	if !ok {
		d.log.Debugf("exif: %s: skipping unknown %s", group, describeEntry(tagID, format, count))
		return
	}
	if !tag.accepts(format) {
		d.log.Debugf("exif: %s: %s does not accept %s",
			group, tag.Name, describeEntry(tagID, format, count))
		return
	}
	unit := format.unitSize()
	if count > math.MaxUint32/unit || uint64(count)*uint64(unit) > uint64(d.r.len()) {
		d.log.Debugf("exif: %s: absurd component count in %s",
			group, describeEntry(tagID, format, count))
		return
	}

	byteLen := count * unit
	valueFieldPos := int64(d.r.pos)

	var value []byte
	var srcOffset int64
	if byteLen <= inlineValueSize {
		b, err := d.r.bytes(int(byteLen))
		if err != nil {
			return
		}
		value = b
		srcOffset = d.base + valueFieldPos
	} else {
		valOffset, err := d.r.u32()
		if err != nil {
			return
		}
		if int64(valOffset)+int64(byteLen) > int64(d.r.len()) {
			d.log.Debugf("exif: %s: value of %s at offset %d runs past block end",
				group, tag.Name, valOffset)
			return
		}
		value = d.r.data[valOffset : valOffset+byteLen]
		srcOffset = d.base + int64(valOffset)
	}

	attr := &Attribute{
		Format:       format,
		Count:        count,
		Value:        append([]byte(nil), value...),
		sourceOffset: srcOffset,
	}
	d.m.setRaw(group, tag.Name, attr)

	if group == GroupPrimary && tagID == tagDNGVersion {
		d.m.sawDNGVersion = true
	}

	if tag.Format == FormatIFDPointer {
		d.recurse(tagID, attr)
	}
}

func (d *tiffDecoder) recurse(tagID uint16, attr *Attribute) {
	child, ok := pointerTargets[tagID]
	if !ok {
		return
	}
	childOffset, ok := attr.uintAt(d.r.bo, 0)
	if !ok || childOffset == 0 {
		return
	}
	if _, seen := d.visited[childOffset]; seen {
		d.log.Warnf("exif: pointer tag %#04x targets visited offset %d, leaving %s unpopulated",
			tagID, childOffset, child)
		return
	}
	if err := d.decodeIFD(childOffset, child); err != nil {
		d.log.Warnf("exif: skipping %s directory: %v", child, err)
	}
}
