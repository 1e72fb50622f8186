package exif

// DataFormat enumerates the TIFF entry value encodings. The numeric values
// are the on-disk format codes.
type DataFormat uint16

const (
	FormatByte      DataFormat = 1
	FormatString    DataFormat = 2
	FormatUShort    DataFormat = 3
	FormatULong     DataFormat = 4
	FormatURational DataFormat = 5
	FormatSByte     DataFormat = 6
	FormatUndefined DataFormat = 7
	FormatSShort    DataFormat = 8
	FormatSLong     DataFormat = 9
	FormatSRational DataFormat = 10
	FormatSingle    DataFormat = 11
	FormatDouble    DataFormat = 12

	// FormatIFDPointer is not a wire format. Tags whose value is a byte
	// offset to a child directory carry it so the decoder knows to recurse.
	FormatIFDPointer DataFormat = 13
)

// formatSize holds the per-component byte width, indexed by format code.
// Index 0 is unused.
var formatSize = [...]uint32{
	0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8, 4,
}

func (f DataFormat) valid() bool {
	return f >= FormatByte && f <= FormatIFDPointer
}

func (f DataFormat) unitSize() uint32 {
	if !f.valid() {
		return 0
	}
	return formatSize[f]
}

func (f DataFormat) String() string {
	switch f {
	case FormatByte:
		return "BYTE"
	case FormatString:
		return "ASCII"
	case FormatUShort:
		return "SHORT"
	case FormatULong:
		return "LONG"
	case FormatURational:
		return "RATIONAL"
	case FormatSByte:
		return "SBYTE"
	case FormatUndefined:
		return "UNDEFINED"
	case FormatSShort:
		return "SSHORT"
	case FormatSLong:
		return "SLONG"
	case FormatSRational:
		return "SRATIONAL"
	case FormatSingle:
		return "FLOAT"
	case FormatDouble:
		return "DOUBLE"
	case FormatIFDPointer:
		return "IFD"
	}
	return "UNKNOWN"
}

// compatible reports whether a stored on-disk format is acceptable for a tag
// that declares the accepted format. Besides exact matches, a tag declaring
// UNDEFINED accepts anything, and a narrower integer or float stored in the
// slot of a wider accepted one is admitted (SHORT under LONG, SSHORT under
// SLONG, FLOAT under DOUBLE). Non-conforming writers rely on this; dropping
// it silently loses their tags.
func compatible(stored, accepted DataFormat) bool {
	if stored == accepted || accepted == FormatUndefined {
		return true
	}
	switch accepted {
	case FormatULong:
		return stored == FormatUShort
	case FormatIFDPointer:
		return stored == FormatUShort || stored == FormatULong
	case FormatSLong:
		return stored == FormatSShort
	case FormatDouble:
		return stored == FormatSingle
	}
	return false
}
