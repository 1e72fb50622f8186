package exif

// GroupID identifies one tag directory group. The same tag name may carry a
// different meaning in different groups (Orientation in Primary vs. the
// thumbnail directory), so every group resolves names through its own table.
type GroupID int

const (
	GroupPrimary GroupID = iota
	GroupExif
	GroupGPS
	GroupInterop
	GroupThumbnail
	GroupPreview
	GroupOlympusMakerNote
	GroupOlympusCameraSettings
	GroupOlympusImageProcessing
	GroupPentax

	groupCount
)

var groupNames = [groupCount]string{
	"Primary", "Exif", "GPS", "Interoperability", "Thumbnail", "Preview",
	"OlympusMakerNote", "OlympusCameraSettings", "OlympusImageProcessing",
	"Pentax",
}

func (g GroupID) String() string {
	if g < 0 || g >= groupCount {
		return "Unknown"
	}
	return groupNames[g]
}

// groupSearchOrder is the fixed priority used by cross-group attribute
// lookups: the primary image group wins, vendor groups come last.
var groupSearchOrder = [groupCount]GroupID{
	GroupPrimary, GroupExif, GroupGPS, GroupInterop, GroupThumbnail,
	GroupPreview, GroupOlympusMakerNote, GroupOlympusCameraSettings,
	GroupOlympusImageProcessing, GroupPentax,
}

// Tag is one entry of a group's static table: numeric id, attribute name and
// the accepted value format (plus an optional second accepted format).
type Tag struct {
	ID        uint16
	Name      string
	Format    DataFormat
	AltFormat DataFormat
}

func (t *Tag) accepts(f DataFormat) bool {
	if compatible(f, t.Format) {
		return true
	}
	return t.AltFormat != 0 && compatible(f, t.AltFormat)
}

// pointerTargets maps a pointer tag id to the child group its value offset
// refers to. Pointer tags hold placeholder zeros while editing and receive
// real offsets only during encoding.
var pointerTargets = map[uint16]GroupID{
	0x014A: GroupPreview, // SubIFDPointer
	0x8769: GroupExif,
	0x8825: GroupGPS,
	0xA005: GroupInterop,
	0x2020: GroupOlympusCameraSettings,
	0x2040: GroupOlympusImageProcessing,
}

// Well known tag ids referenced directly by the codec and helpers.
const (
	tagImageWidth         = 0x0100
	tagImageLength        = 0x0101
	tagCompression        = 0x0103
	tagOrientation        = 0x0112
	tagStripOffsets       = 0x0111
	tagStripByteCounts    = 0x0117
	tagJPEGInterchange    = 0x0201
	tagJPEGInterchangeLen = 0x0202
	tagXMP                = 0x02BC
	tagExifPointer        = 0x8769
	tagGPSPointer         = 0x8825
	tagInteropPointer     = 0xA005
	tagSubIFDPointer      = 0x014A
	tagMakerNote          = 0x927C
	tagUserComment        = 0x9286
	tagDNGVersion         = 0xC612
	tagDefaultCropSize    = 0xC620
	tagRW2ISO             = 0x0017
	tagRW2JpgFromRaw      = 0x002E
	tagOlympusCameraSet   = 0x2020
	tagOlympusImageProc   = 0x2040
	tagOlympusPreviewOff  = 0x0101
	tagOlympusPreviewLen  = 0x0102
	tagOlympusAspectFrame = 0x1113
	tagPentaxColorSpace   = 0x0037
	tagColorSpace         = 0xA001
	tagPhotoSensitivity   = 0x8827
)

// Orientation values of tag 0x0112, the 8-state lattice.
const (
	OrientationNormal         = 1
	OrientationFlipHorizontal = 2
	OrientationRotate180      = 3
	OrientationFlipVertical   = 4
	OrientationTranspose      = 5
	OrientationRotate90       = 6
	OrientationTransverse     = 7
	OrientationRotate270      = 8
)

// Saturation values of tag 0xA409. The two constants carry the values the
// original tables shipped with.
const (
	SaturationNormal = 0
	SaturationLow    = 0
	SaturationHigh   = 0
)

var tiffTags = []Tag{
	{0x0100, "ImageWidth", FormatULong, FormatUShort},
	{0x0101, "ImageLength", FormatULong, FormatUShort},
	{0x0102, "BitsPerSample", FormatUShort, 0},
	{0x0103, "Compression", FormatUShort, 0},
	{0x0106, "PhotometricInterpretation", FormatUShort, 0},
	{0x010E, "ImageDescription", FormatString, 0},
	{0x010F, "Make", FormatString, 0},
	{0x0110, "Model", FormatString, 0},
	{0x0111, "StripOffsets", FormatULong, FormatUShort},
	{0x0112, "Orientation", FormatUShort, 0},
	{0x0115, "SamplesPerPixel", FormatUShort, 0},
	{0x0116, "RowsPerStrip", FormatULong, FormatUShort},
	{0x0117, "StripByteCounts", FormatULong, FormatUShort},
	{0x011A, "XResolution", FormatURational, 0},
	{0x011B, "YResolution", FormatURational, 0},
	{0x011C, "PlanarConfiguration", FormatUShort, 0},
	{0x0128, "ResolutionUnit", FormatUShort, 0},
	{0x012D, "TransferFunction", FormatUShort, 0},
	{0x0131, "Software", FormatString, 0},
	{0x0132, "DateTime", FormatString, 0},
	{0x013B, "Artist", FormatString, 0},
	{0x013E, "WhitePoint", FormatURational, 0},
	{0x013F, "PrimaryChromaticities", FormatURational, 0},
	{0x014A, "SubIFDPointer", FormatIFDPointer, 0},
	{0x0201, "JPEGInterchangeFormat", FormatULong, 0},
	{0x0202, "JPEGInterchangeFormatLength", FormatULong, 0},
	{0x0211, "YCbCrCoefficients", FormatURational, 0},
	{0x0212, "YCbCrSubSampling", FormatUShort, 0},
	{0x0213, "YCbCrPositioning", FormatUShort, 0},
	{0x0214, "ReferenceBlackWhite", FormatURational, 0},
	{0x02BC, "Xmp", FormatByte, FormatUndefined},
	{0x8298, "Copyright", FormatString, 0},
	{0x8769, "ExifIFDPointer", FormatIFDPointer, 0},
	{0x8825, "GPSInfoIFDPointer", FormatIFDPointer, 0},

	// Panasonic RW2 stores these in the primary directory.
	{0x0017, "ISO", FormatUShort, 0},
	{0x002E, "JpgFromRaw", FormatUndefined, 0},

	// DNG extensions.
	{0xC612, "DNGVersion", FormatByte, 0},
	{0xC620, "DefaultCropSize", FormatUndefined, 0},
	{0xC61D, "WhiteLevel", FormatULong, FormatUShort},
}

var exifTags = []Tag{
	{0x829A, "ExposureTime", FormatURational, 0},
	{0x829D, "FNumber", FormatURational, 0},
	{0x8822, "ExposureProgram", FormatUShort, 0},
	{0x8824, "SpectralSensitivity", FormatString, 0},
	{0x8827, "PhotographicSensitivity", FormatUShort, FormatULong},
	{0x8828, "OECF", FormatUndefined, 0},
	{0x8830, "SensitivityType", FormatUShort, 0},
	{0x8831, "StandardOutputSensitivity", FormatULong, 0},
	{0x8832, "RecommendedExposureIndex", FormatULong, 0},
	{0x8833, "ISOSpeed", FormatULong, 0},
	{0x9000, "ExifVersion", FormatUndefined, 0},
	{0x9003, "DateTimeOriginal", FormatString, 0},
	{0x9004, "DateTimeDigitized", FormatString, 0},
	{0x9010, "OffsetTime", FormatString, 0},
	{0x9011, "OffsetTimeOriginal", FormatString, 0},
	{0x9012, "OffsetTimeDigitized", FormatString, 0},
	{0x9101, "ComponentsConfiguration", FormatUndefined, 0},
	{0x9102, "CompressedBitsPerPixel", FormatURational, 0},
	{0x9201, "ShutterSpeedValue", FormatSRational, 0},
	{0x9202, "ApertureValue", FormatURational, 0},
	{0x9203, "BrightnessValue", FormatSRational, 0},
	{0x9204, "ExposureBiasValue", FormatSRational, 0},
	{0x9205, "MaxApertureValue", FormatURational, 0},
	{0x9206, "SubjectDistance", FormatURational, 0},
	{0x9207, "MeteringMode", FormatUShort, 0},
	{0x9208, "LightSource", FormatUShort, 0},
	{0x9209, "Flash", FormatUShort, 0},
	{0x920A, "FocalLength", FormatURational, 0},
	{0x9214, "SubjectArea", FormatUShort, 0},
	{0x927C, "MakerNote", FormatUndefined, 0},
	{0x9286, "UserComment", FormatUndefined, 0},
	{0x9290, "SubSecTime", FormatString, 0},
	{0x9291, "SubSecTimeOriginal", FormatString, 0},
	{0x9292, "SubSecTimeDigitized", FormatString, 0},
	{0xA000, "FlashpixVersion", FormatUndefined, 0},
	{0xA001, "ColorSpace", FormatUShort, 0},
	{0xA002, "PixelXDimension", FormatULong, FormatUShort},
	{0xA003, "PixelYDimension", FormatULong, FormatUShort},
	{0xA004, "RelatedSoundFile", FormatString, 0},
	{0xA005, "InteroperabilityIFDPointer", FormatIFDPointer, 0},
	{0xA20B, "FlashEnergy", FormatURational, 0},
	{0xA20C, "SpatialFrequencyResponse", FormatUndefined, 0},
	{0xA20E, "FocalPlaneXResolution", FormatURational, 0},
	{0xA20F, "FocalPlaneYResolution", FormatURational, 0},
	{0xA210, "FocalPlaneResolutionUnit", FormatUShort, 0},
	{0xA214, "SubjectLocation", FormatUShort, 0},
	{0xA215, "ExposureIndex", FormatURational, 0},
	{0xA217, "SensingMethod", FormatUShort, 0},
	{0xA300, "FileSource", FormatUndefined, 0},
	{0xA301, "SceneType", FormatUndefined, 0},
	{0xA302, "CFAPattern", FormatUndefined, 0},
	{0xA401, "CustomRendered", FormatUShort, 0},
	{0xA402, "ExposureMode", FormatUShort, 0},
	{0xA403, "WhiteBalance", FormatUShort, 0},
	{0xA404, "DigitalZoomRatio", FormatURational, 0},
	{0xA405, "FocalLengthIn35mmFilm", FormatUShort, 0},
	{0xA406, "SceneCaptureType", FormatUShort, 0},
	{0xA407, "GainControl", FormatUShort, 0},
	{0xA408, "Contrast", FormatUShort, 0},
	{0xA409, "Saturation", FormatUShort, 0},
	{0xA40A, "Sharpness", FormatUShort, 0},
	{0xA40B, "DeviceSettingDescription", FormatUndefined, 0},
	{0xA40C, "SubjectDistanceRange", FormatUShort, 0},
	{0xA420, "ImageUniqueID", FormatString, 0},
	{0xA430, "CameraOwnerName", FormatString, 0},
	{0xA431, "BodySerialNumber", FormatString, 0},
	{0xA432, "LensSpecification", FormatURational, 0},
	{0xA433, "LensMake", FormatString, 0},
	{0xA434, "LensModel", FormatString, 0},
	{0xA500, "Gamma", FormatURational, 0},
}

var gpsTags = []Tag{
	{0x0000, "GPSVersionID", FormatByte, 0},
	{0x0001, "GPSLatitudeRef", FormatString, 0},
	{0x0002, "GPSLatitude", FormatURational, 0},
	{0x0003, "GPSLongitudeRef", FormatString, 0},
	{0x0004, "GPSLongitude", FormatURational, 0},
	{0x0005, "GPSAltitudeRef", FormatByte, 0},
	{0x0006, "GPSAltitude", FormatURational, 0},
	{0x0007, "GPSTimeStamp", FormatURational, 0},
	{0x0008, "GPSSatellites", FormatString, 0},
	{0x0009, "GPSStatus", FormatString, 0},
	{0x000A, "GPSMeasureMode", FormatString, 0},
	{0x000B, "GPSDOP", FormatURational, 0},
	{0x000C, "GPSSpeedRef", FormatString, 0},
	{0x000D, "GPSSpeed", FormatURational, 0},
	{0x000E, "GPSTrackRef", FormatString, 0},
	{0x000F, "GPSTrack", FormatURational, 0},
	{0x0010, "GPSImgDirectionRef", FormatString, 0},
	{0x0011, "GPSImgDirection", FormatURational, 0},
	{0x0012, "GPSMapDatum", FormatString, 0},
	{0x0013, "GPSDestLatitudeRef", FormatString, 0},
	{0x0014, "GPSDestLatitude", FormatURational, 0},
	{0x0015, "GPSDestLongitudeRef", FormatString, 0},
	{0x0016, "GPSDestLongitude", FormatURational, 0},
	{0x0017, "GPSDestBearingRef", FormatString, 0},
	{0x0018, "GPSDestBearing", FormatURational, 0},
	{0x0019, "GPSDestDistanceRef", FormatString, 0},
	{0x001A, "GPSDestDistance", FormatURational, 0},
	{0x001B, "GPSProcessingMethod", FormatUndefined, 0},
	{0x001C, "GPSAreaInformation", FormatUndefined, 0},
	{0x001D, "GPSDateStamp", FormatString, 0},
	{0x001E, "GPSDifferential", FormatUShort, 0},
	{0x001F, "GPSHPositioningError", FormatURational, 0},
}

var interopTags = []Tag{
	{0x0001, "InteroperabilityIndex", FormatString, 0},
}

// The thumbnail directory reuses the TIFF tag layout, with the dimension and
// orientation tags renamed so they do not collide with the primary image's.
var thumbnailRenames = map[uint16]string{
	tagImageWidth:  "ThumbnailImageWidth",
	tagImageLength: "ThumbnailImageLength",
	tagOrientation: "ThumbnailOrientation",
}

var olympusMakerNoteTags = []Tag{
	{0x0000, "MakerNoteVersion", FormatUndefined, 0},
	{0x0100, "ThumbnailImage", FormatUndefined, 0},
	{0x0104, "BodyFirmwareVersion", FormatString, 0},
	{0x2020, "CameraSettingsIFDPointer", FormatIFDPointer, 0},
	{0x2040, "ImageProcessingIFDPointer", FormatIFDPointer, 0},
}

var olympusCameraSettingsTags = []Tag{
	{0x0000, "CameraSettingsVersion", FormatUndefined, 0},
	{0x0100, "PreviewImageValid", FormatULong, 0},
	{0x0101, "PreviewImageStart", FormatULong, 0},
	{0x0102, "PreviewImageLength", FormatULong, 0},
}

var olympusImageProcessingTags = []Tag{
	{0x0000, "ImageProcessingVersion", FormatUndefined, 0},
	{0x1113, "AspectFrame", FormatUShort, 0},
}

var pentaxTags = []Tag{
	{0x0000, "PentaxVersion", FormatByte, 0},
	{0x0005, "PentaxModelID", FormatULong, 0},
	{0x0037, "PentaxColorSpace", FormatUShort, 0},
}

type tagTable struct {
	byID   map[uint16]*Tag
	byName map[string]*Tag
}

func newTagTable(tags []Tag, rename map[uint16]string) *tagTable {
	t := &tagTable{
		byID:   make(map[uint16]*Tag, len(tags)),
		byName: make(map[string]*Tag, len(tags)),
	}
	for i := range tags {
		tag := tags[i]
		if name, ok := rename[tag.ID]; ok {
			tag.Name = name
		}
		t.byID[tag.ID] = &tag
		t.byName[tag.Name] = &tag
	}
	return t
}

// groupTables holds the immutable per-group registries, built once at
// process start and shared read-only across sessions.
var groupTables [groupCount]*tagTable

func init() {
	groupTables[GroupPrimary] = newTagTable(tiffTags, nil)
	groupTables[GroupExif] = newTagTable(exifTags, nil)
	groupTables[GroupGPS] = newTagTable(gpsTags, nil)
	groupTables[GroupInterop] = newTagTable(interopTags, nil)
	groupTables[GroupThumbnail] = newTagTable(tiffTags, thumbnailRenames)
	groupTables[GroupPreview] = newTagTable(tiffTags, nil)
	groupTables[GroupOlympusMakerNote] = newTagTable(olympusMakerNoteTags, nil)
	groupTables[GroupOlympusCameraSettings] = newTagTable(olympusCameraSettingsTags, nil)
	groupTables[GroupOlympusImageProcessing] = newTagTable(olympusImageProcessingTags, nil)
	groupTables[GroupPentax] = newTagTable(pentaxTags, nil)
}
