package exif

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports a malformed container or TIFF structure: bad
	// signature, bad byte-order marker, truncated segment or chunk, CRC
	// mismatch, or a chunk-order violation. During the initial parse it is
	// swallowed and treated as "no metadata found"; during save it is fatal.
	ErrFormat = errors.New("exif: invalid format")

	// ErrUnsupportedOperation reports an operation the backing source or
	// container kind cannot perform, such as saving a RAW file or mutating
	// a forward-only stream.
	ErrUnsupportedOperation = errors.New("exif: unsupported operation")

	// ErrStaleOffsets reports a byte-range query issued after the file has
	// been rewritten. All offsets recorded during parsing are invalid once
	// SaveAttributes succeeds.
	ErrStaleOffsets = errors.New("exif: offsets stale after save")

	// ErrNoSuchChunk reports a requested byte range that is not present,
	// e.g. a thumbnail range query on a file without a thumbnail.
	ErrNoSuchChunk = errors.New("exif: no such data")
)

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}
