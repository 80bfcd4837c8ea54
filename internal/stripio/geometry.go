package stripio

// Rows per strip forced for subsamplings whose chroma blocks are taller than
// one row, so no block is split between strips.
const (
	rowsPerStrip420 = 16
	rowsPerStrip410 = 32
)

// ChromaFactors returns the chroma block width and height of a subsampling.
// Unknown values yield 1x1.
func ChromaFactors(s Subsampling) (xfactor, yfactor int) {
	switch s {
	case YUV422:
		return 2, 1
	case YUV420:
		return 2, 2
	case YUV411:
		return 4, 1
	case YUV410:
		return 4, 4
	default:
		return 1, 1
	}
}

// PaddedDims rounds width and height up to whole multiples of their factors.
func PaddedDims(width, height, xfactor, yfactor int) (paddedWidth, paddedHeight int) {
	return roundUp(width, xfactor), roundUp(height, yfactor)
}

func roundUp(n, factor int) int {
	if factor <= 1 {
		return n
	}
	return (n + factor - 1) / factor * factor
}

// StripRows is the number of rows of the strip starting at row y.
func StripRows(y, rowsPerStrip, height int) int {
	if y+rowsPerStrip > height {
		return height - y
	}
	return rowsPerStrip
}

// StripByteSize is the number of samples in a packed strip of nrows rows. For
// YUV that is the luma samples plus one U and one V sample per chroma block;
// for every other colour model it is one sample per component per pixel.
// Multiply by the sample width for a size in bytes.
func StripByteSize(nrows, paddedWidth, xfactor, yfactor, components int, color ColorModel) int {
	if color == YUV {
		return nrows*paddedWidth + (nrows/yfactor)*(paddedWidth/xfactor)*2
	}
	return nrows * paddedWidth * components
}

// RowsPerStripPolicy returns the rows per strip a YUV image must use. ok is
// false when the container's default strip size should be used instead.
func RowsPerStripPolicy(color ColorModel, s Subsampling) (rows int, ok bool) {
	if color != YUV {
		return 0, false
	}
	switch s {
	case YUV420:
		return rowsPerStrip420, true
	case YUV410:
		return rowsPerStrip410, true
	default:
		return 0, false
	}
}
