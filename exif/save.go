package exif

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveAttributes re-encodes the directory graph and rewrites the backing
// file in place. Only JPEG, PNG and WebP files opened by path or by handle
// can be rewritten; everything else reports ErrUnsupportedOperation.
//
// For a path session the rewrite is atomic: the new file is assembled next
// to the original and renamed over it only when complete, so a failed save
// leaves the original untouched. A handle session is rewritten through the
// handle itself. A successful save invalidates every recorded byte offset.
func (m *Metadata) SaveAttributes() error {
	if m.path == "" && m.file == nil {
		return unsupportedf("session has no backing file")
	}
	if !m.container.rewritable() {
		return unsupportedf("%s files cannot be rewritten", m.container)
	}
	if m.thumbnail.HasThumbnail && !m.thumbnail.StripsContiguous {
		return unsupportedf("thumbnail strips are not contiguous")
	}

	out, err := m.encodeContainer(m.src)
	if err != nil {
		return err
	}
	if m.file != nil {
		err = rewriteHandle(m.file, out)
	} else {
		err = replaceFile(m.path, out)
	}
	if err != nil {
		return err
	}

	m.src = out
	m.stale = true
	return nil
}

// encodeContainer splices the freshly encoded metadata block into a copy of
// src using the container's adapter.
func (m *Metadata) encodeContainer(src []byte) ([]byte, error) {
	restore := m.popSeparateXMP()
	defer restore()

	var buf bytes.Buffer
	switch m.container {
	case ContainerJPEG:
		payload, err := m.encodeExifPayload()
		if err != nil {
			return nil, err
		}
		var xmp []byte
		if m.xmpSeparateMarker {
			xmp = m.separateXMP
		}
		if err := spliceJPEG(src, payload, xmp, &buf); err != nil {
			return nil, err
		}
	case ContainerPNG:
		// The eXIf chunk carries the bare TIFF block.
		tiff, err := m.encodeTIFF()
		if err != nil {
			return nil, err
		}
		if err := splicePNG(src, tiff, m.pngExifChunkOffset, &buf); err != nil {
			return nil, err
		}
	case ContainerWebP:
		tiff, err := m.encodeTIFF()
		if err != nil {
			return nil, err
		}
		if err := spliceWebP(src, tiff, &buf); err != nil {
			return nil, err
		}
	default:
		return nil, unsupportedf("%s files cannot be rewritten", m.container)
	}
	return buf.Bytes(), nil
}

// popSeparateXMP temporarily removes the XMP attribute when it originated
// from its own container chunk: the chunk is preserved (JPEG) or left in
// place (PNG, WebP) by the splice, and embedding a second copy into the
// TIFF block would duplicate it.
func (m *Metadata) popSeparateXMP() func() {
	if !m.xmpSeparateMarker {
		return func() {}
	}
	a := m.raw(GroupPrimary, "Xmp")
	if a == nil {
		return func() {}
	}
	m.separateXMP = a.Value
	delete(m.groups[GroupPrimary], "Xmp")
	return func() {
		m.setRaw(GroupPrimary, "Xmp", a)
	}
}

// rewriteHandle replaces the contents of an open file through its handle.
// The caller-owned handle offers no scratch file to rename over, so a
// mid-write failure can leave the file truncated.
func rewriteHandle(f *os.File, data []byte) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("exif: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("exif: %w", err)
	}
	if err := f.Truncate(int64(len(data))); err != nil {
		return fmt.Errorf("exif: %w", err)
	}
	return nil
}

// replaceFile writes data to a scratch file in the target's directory and
// renames it into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("exif: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("exif: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("exif: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("exif: %w", err)
	}
	return nil
}

// StripMetadata copies the image at srcPath to dstPath with all metadata
// removed: Exif, XMP, ICC profiles and Photoshop resources. With
// preserveOrientation, a minimal block holding only the orientation tag is
// re-inserted so the image still displays upright.
func StripMetadata(srcPath, dstPath string, preserveOrientation bool) error {
	m, err := Open(srcPath)
	if err != nil {
		return err
	}
	if !m.container.rewritable() {
		return unsupportedf("%s files cannot be rewritten", m.container)
	}

	var payload []byte
	if preserveOrientation {
		if o := m.GetAttributeInt("Orientation", 0); o != 0 {
			withIdentifier := m.container == ContainerJPEG
			payload, err = orientationPayload(o, withIdentifier)
			if err != nil {
				return err
			}
		}
	}

	var buf bytes.Buffer
	switch m.container {
	case ContainerJPEG:
		err = stripJPEG(m.src, payload, &buf)
	case ContainerPNG:
		err = stripPNG(m.src, payload, &buf)
	case ContainerWebP:
		err = stripWebP(m.src, payload, &buf)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(dstPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("exif: %w", err)
	}
	return nil
}

// orientationPayload builds a minimal metadata block carrying only the
// orientation tag.
func orientationPayload(orientation int, withIdentifier bool) ([]byte, error) {
	t := &Metadata{bo: binary.BigEndian}
	t.setOrientation(orientation)
	if withIdentifier {
		return t.encodeExifPayload()
	}
	return t.encodeTIFF()
}
