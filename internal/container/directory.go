package container

import "math"

// defaultStripBytes is the target strip size used by DefaultStripSize.
const defaultStripBytes = 8192

// directory is one page: its tag values and, when writing, the strips
// appended so far.
type directory struct {
	fields  map[Tag][]uint32
	strings map[Tag]string
	strips  map[uint32]stripRef
}

type stripRef struct {
	offset uint32
	count  uint32
}

func newDirectory() *directory {
	return &directory{
		fields:  make(map[Tag][]uint32),
		strings: make(map[Tag]string),
		strips:  make(map[uint32]stripRef),
	}
}

func (d *directory) empty() bool {
	return len(d.fields) == 0 && len(d.strings) == 0 && len(d.strips) == 0
}

// value returns the first value of tag, or def when the tag is absent.
func (d *directory) value(tag Tag, def uint32) uint32 {
	if v, ok := d.fields[tag]; ok && len(v) > 0 {
		return v[0]
	}
	return def
}

// numberOfStrips follows TIFFNumberOfStrips: a missing RowsPerStrip means the
// whole image is one strip, and separate planes multiply the count by the
// number of samples per pixel.
func (d *directory) numberOfStrips() uint32 {
	if offsets, ok := d.fields[TagStripOffsets]; ok {
		return uint32(len(offsets))
	}
	length := d.value(TagImageLength, 0)
	if length == 0 {
		return 0
	}
	rows := d.value(TagRowsPerStrip, math.MaxUint32)
	n := uint32(1)
	if rows != 0 && rows < length {
		n = (length-1)/rows + 1
	}
	if d.value(TagPlanarConfig, PlanarContig) == PlanarSeparate {
		n *= d.value(TagSamplesPerPixel, 1)
	}
	return n
}

// scanlineSize returns the byte size of one row of the raster. Subsampled
// YCbCr rows are measured as a share of one row of sampling blocks.
func (d *directory) scanlineSize() uint64 {
	width := uint64(d.value(TagImageWidth, 0))
	bps := uint64(d.value(TagBitsPerSample, 1))
	spp := uint64(d.value(TagSamplesPerPixel, 1))

	if d.value(TagPlanarConfig, PlanarContig) == PlanarSeparate {
		return (width*bps + 7) / 8
	}

	if d.value(TagPhotometric, 0) == PhotometricYCbCr && spp == 3 {
		xf, yf := uint64(2), uint64(2)
		if sub, ok := d.fields[TagYCbCrSubSampling]; ok && len(sub) == 2 {
			xf, yf = uint64(sub[0]), uint64(sub[1])
		}
		if xf == 0 {
			xf = 1
		}
		if yf == 0 {
			yf = 1
		}
		blocks := (width + xf - 1) / xf
		rowSamples := blocks * (xf*yf + 2)
		return (rowSamples*bps + 7) / 8 / yf
	}

	return (width*spp*bps + 7) / 8
}

// defaultStripSize mirrors TIFFDefaultStripSize: a positive request is used
// as-is, otherwise enough rows to fill about 8 KiB, and never less than one.
func (d *directory) defaultStripSize(request uint32) uint32 {
	if request > 0 {
		return request
	}
	scanline := d.scanlineSize()
	if scanline == 0 {
		return 1
	}
	rows := defaultStripBytes / scanline
	if rows == 0 {
		return 1
	}
	return uint32(rows)
}
