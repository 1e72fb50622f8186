package exif

import (
	"bytes"
	"strings"

	"github.com/imgmeta/exifedit/pkg/table"
)

// Container identifies the host file format wrapping the metadata. It is
// resolved once at open time from the signature bytes.
type Container int

const (
	ContainerUnknown Container = iota
	ContainerJPEG
	ContainerPNG
	ContainerWebP
	ContainerHEIF
	ContainerTIFF // generic TIFF, including unrecognized RAW
	ContainerORF
	ContainerRW2
	ContainerPEF
	ContainerRAF
	ContainerDNG
	ContainerStandaloneExif
)

var containerNames = map[Container]string{
	ContainerUnknown:        "unknown",
	ContainerJPEG:           "jpeg",
	ContainerPNG:            "png",
	ContainerWebP:           "webp",
	ContainerHEIF:           "heif",
	ContainerTIFF:           "tiff",
	ContainerORF:            "orf",
	ContainerRW2:            "rw2",
	ContainerPEF:            "pef",
	ContainerRAF:            "raf",
	ContainerDNG:            "dng",
	ContainerStandaloneExif: "exif",
}

func (c Container) String() string { return containerNames[c] }

// seekable reports whether the adapter requires random access. The
// TIFF-structured variants and standalone blobs are parsed in place at
// arbitrary offsets; JPEG, PNG, WebP and RAF stream forward.
func (c Container) seekable() bool {
	switch c {
	case ContainerTIFF, ContainerORF, ContainerRW2, ContainerPEF,
		ContainerDNG, ContainerStandaloneExif:
		return true
	}
	return false
}

// rewritable reports whether SaveAttributes supports the container.
func (c Container) rewritable() bool {
	switch c {
	case ContainerJPEG, ContainerPNG, ContainerWebP:
		return true
	}
	return false
}

// sniffLen is how many leading bytes signature resolution needs.
const sniffLen = 16

var signatures *table.PrefixTable[Container]

func init() {
	signatures = table.New[Container]()
	signatures.Insert([]byte{0xFF, 0xD8, 0xFF}, ContainerJPEG)
	signatures.Insert([]byte("\x89PNG\r\n\x1a\n"), ContainerPNG)
	signatures.Insert([]byte("FUJIFILMCCD-RAW"), ContainerRAF)
	signatures.Insert([]byte("Exif\x00\x00"), ContainerStandaloneExif)

	// TIFF byte-order marker plus start code. The RAW variants replace the
	// 0x2A start code with vendor codes of their own.
	signatures.Insert([]byte("II\x2A\x00"), ContainerTIFF)
	signatures.Insert([]byte("MM\x00\x2A"), ContainerTIFF)
	signatures.Insert([]byte("IIRO"), ContainerORF)
	signatures.Insert([]byte("IIRS"), ContainerORF)
	signatures.Insert([]byte("MMOR"), ContainerORF)
	signatures.Insert([]byte("IIU\x00"), ContainerRW2)
}

// sniffContainer resolves the container kind from the file's head bytes.
// RIFF and ISO-BMFF need a second look past the first field, which a pure
// prefix match cannot anchor.
func sniffContainer(head []byte) Container {
	kind := ContainerUnknown
	signatures.Walk(head, func(c Container) bool {
		kind = c
		return true
	})
	if kind != ContainerUnknown {
		return kind
	}
	if len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")) {
		return ContainerWebP
	}
	if len(head) >= 8 && bytes.Equal(head[4:8], []byte("ftyp")) {
		return ContainerHEIF
	}
	return ContainerUnknown
}

// IsSupportedMimeType reports whether files of the given MIME type can be
// opened for metadata access.
func IsSupportedMimeType(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg",
		"image/png",
		"image/webp",
		"image/heic",
		"image/heif",
		"image/heic-sequence",
		"image/heif-sequence",
		"image/tiff",
		"image/x-adobe-dng",
		"image/x-fuji-raf",
		"image/x-olympus-orf",
		"image/x-panasonic-rw2",
		"image/x-pentax-pef":
		return true
	}
	return false
}
