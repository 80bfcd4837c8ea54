package container

// Tag identifies a TIFF field (TIFF 6.0, section 8 and the extension sections).
type Tag uint16

// Tags understood by the container.
const (
	TagSubfileType      Tag = 254
	TagImageWidth       Tag = 256
	TagImageLength      Tag = 257
	TagBitsPerSample    Tag = 258
	TagCompression      Tag = 259
	TagPhotometric      Tag = 262
	TagFillOrder        Tag = 266
	TagStripOffsets     Tag = 273
	TagOrientation      Tag = 274
	TagSamplesPerPixel  Tag = 277
	TagRowsPerStrip     Tag = 278
	TagStripByteCounts  Tag = 279
	TagPlanarConfig     Tag = 284
	TagSoftware         Tag = 305
	TagDateTime         Tag = 306
	TagYCbCrSubSampling Tag = 530
)

// Photometric interpretation values.
const (
	PhotometricMinIsBlack = 1
	PhotometricRGB        = 2
	PhotometricSeparated  = 5
	PhotometricYCbCr      = 6
)

// Planar configuration values.
const (
	PlanarContig   = 1
	PlanarSeparate = 2
)

// Values for the remaining fixed-meaning tags.
const (
	FileTypePage       = 2 // SubfileType: one page of a multi-page file
	OrientationTopLeft = 1
	FillOrderMSB2LSB   = 1
	CompressionNone    = 1
)

// DateTimeLayout is the time.Format layout of the DateTime tag.
const DateTimeLayout = "2006:01:02 15:04:05"

// Data types (TIFF 6.0, p. 15-16).
type dataType uint16

const (
	dtByte  dataType = 1
	dtASCII dataType = 2
	dtShort dataType = 3
	dtLong  dataType = 4
)

// The length of one instance of each data type in bytes.
var typeLengths = [...]uint32{0, 1, 1, 2, 4}

const ifdEntryLen = 12

// tagTypes is the type each writable tag is stored with.
var tagTypes = map[Tag]dataType{
	TagSubfileType:      dtLong,
	TagImageWidth:       dtLong,
	TagImageLength:      dtLong,
	TagBitsPerSample:    dtShort,
	TagCompression:      dtShort,
	TagPhotometric:      dtShort,
	TagFillOrder:        dtShort,
	TagStripOffsets:     dtLong,
	TagOrientation:      dtShort,
	TagSamplesPerPixel:  dtShort,
	TagRowsPerStrip:     dtLong,
	TagStripByteCounts:  dtLong,
	TagPlanarConfig:     dtShort,
	TagSoftware:         dtASCII,
	TagDateTime:         dtASCII,
	TagYCbCrSubSampling: dtShort,
}

// managed tags are computed by the container and cannot be set by callers.
func managed(tag Tag) bool {
	return tag == TagStripOffsets || tag == TagStripByteCounts
}
