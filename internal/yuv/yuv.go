// Package yuv converts between separate Y, U and V planes and the packed,
// block-interleaved layout that YUV strips are written in.
//
// The packed layout walks chroma blocks in raster order. Each block holds its
// xfactor*yfactor luma samples in raster order, then one U sample and one V
// sample:
//
//	4:2:0 (2x2 blocks):  Y00 Y01 Y10 Y11 U V | Y02 Y03 Y12 Y13 U V | ...
//
// Luma planes are width*height samples (the true image size). Chroma planes
// are chromaWidth*chromaHeight samples, the padded image size divided by the
// block size. Luma positions in the padding area are packed as 0.
package yuv

import (
	"fmt"

	"github.com/ironsheep/tiffstrip/internal/stripio"
)

// Size is the number of samples in the packed form of a YUV image.
func Size(d stripio.Descriptor) int {
	g := d.Geometry()
	return g.PaddedWidth*g.PaddedHeight + g.ChromaWidth*g.ChromaHeight*2
}

func checkDescriptor(d stripio.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Color != stripio.YUV {
		return fmt.Errorf("%w: packing needs a YUV image, got %s", stripio.ErrConfiguration, d.Color)
	}
	return nil
}

// Pack interleaves the Y, U and V planes of d into a new packed buffer.
func Pack[T stripio.Sample](y, u, v []T, d stripio.Descriptor) ([]T, error) {
	if err := checkDescriptor(d); err != nil {
		return nil, err
	}
	g := d.Geometry()
	width, height := int(d.Width), int(d.Height)
	chroma := g.ChromaWidth * g.ChromaHeight

	if len(y) < width*height {
		return nil, fmt.Errorf("%w: Y plane holds %d samples, want %d", stripio.ErrConfiguration, len(y), width*height)
	}
	if len(u) < chroma || len(v) < chroma {
		return nil, fmt.Errorf("%w: chroma planes hold %d and %d samples, want %d",
			stripio.ErrConfiguration, len(u), len(v), chroma)
	}

	out := make([]T, Size(d))
	n := 0
	for by, cy := 0, 0; by < g.PaddedHeight; by, cy = by+g.YFactor, cy+1 {
		for bx, cx := 0, 0; bx < g.PaddedWidth; bx, cx = bx+g.XFactor, cx+1 {
			for ly := 0; ly < g.YFactor; ly++ {
				py := by + ly
				for lx := 0; lx < g.XFactor; lx++ {
					px := bx + lx
					if py < height && px < width {
						out[n] = y[width*py+px]
					}
					n++
				}
			}
			out[n] = u[g.ChromaWidth*cy+cx]
			out[n+1] = v[g.ChromaWidth*cy+cx]
			n += 2
		}
	}
	return out, nil
}

// Split is the inverse of Pack. The returned Y plane covers the padded image
// (paddedWidth*paddedHeight samples, row stride paddedWidth); the U and V
// planes are chromaWidth*chromaHeight samples.
func Split[T stripio.Sample](packed []T, d stripio.Descriptor) (y, u, v []T, err error) {
	if err := checkDescriptor(d); err != nil {
		return nil, nil, nil, err
	}
	if size := Size(d); len(packed) < size {
		return nil, nil, nil, fmt.Errorf("%w: packed buffer holds %d samples, want %d",
			stripio.ErrConfiguration, len(packed), size)
	}
	g := d.Geometry()

	y = make([]T, g.PaddedWidth*g.PaddedHeight)
	u = make([]T, g.ChromaWidth*g.ChromaHeight)
	v = make([]T, g.ChromaWidth*g.ChromaHeight)

	n := 0
	for by, cy := 0, 0; by < g.PaddedHeight; by, cy = by+g.YFactor, cy+1 {
		for bx, cx := 0, 0; bx < g.PaddedWidth; bx, cx = bx+g.XFactor, cx+1 {
			for ly := 0; ly < g.YFactor; ly++ {
				row := g.PaddedWidth * (by + ly)
				for lx := 0; lx < g.XFactor; lx++ {
					y[row+bx+lx] = packed[n]
					n++
				}
			}
			u[g.ChromaWidth*cy+cx] = packed[n]
			v[g.ChromaWidth*cy+cx] = packed[n+1]
			n += 2
		}
	}
	return y, u, v, nil
}

// Crop copies the width x height image region out of a padded Y plane
// returned by Split.
func Crop[T stripio.Sample](padded []T, d stripio.Descriptor) []T {
	g := d.Geometry()
	width, height := int(d.Width), int(d.Height)
	out := make([]T, width*height)
	for row := 0; row < height; row++ {
		copy(out[row*width:(row+1)*width], padded[row*g.PaddedWidth:])
	}
	return out
}
