package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/tiffstrip/internal/stripio"
	"github.com/ironsheep/tiffstrip/internal/yuv"
)

// Components returns the number of components Encode and Decode handle for
// colour model c, or 0 for the error variant.
func Components(c stripio.ColorModel) uint16 {
	switch c {
	case stripio.Mono:
		return 1
	case stripio.RGB, stripio.YUV:
		return 3
	case stripio.CMYK:
		return 4
	}
	return 0
}

func checkModel(d stripio.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if want := Components(d.Color); d.Components != want {
		return fmt.Errorf("%w: %s images need %d components, got %d",
			stripio.ErrConfiguration, d.Color, want, d.Components)
	}
	return nil
}

// BufferLengths returns the length of each buffer Encode produces and Decode
// consumes for d.
func BufferLengths(d stripio.Descriptor) []int {
	pixels := int(d.Width) * int(d.Height)
	if d.Plane == stripio.Planar {
		lengths := make([]int, d.Components)
		for i := range lengths {
			lengths[i] = pixels
		}
		return lengths
	}
	if d.Color == stripio.YUV {
		return []int{yuv.Size(d)}
	}
	return []int{pixels * int(d.Components)}
}

// sampler reads 16-bit RGB from a source image with its origin moved to 0,0.
// Images stored at 8 bits or less are flattened to RGBA once and read from the
// pixel slice.
type sampler struct {
	rgba *image.RGBA
	img  image.Image
	min  image.Point
}

func newSampler(img image.Image, depth uint16) sampler {
	s := sampler{img: img, min: img.Bounds().Min}
	if depth <= 8 {
		s.rgba = clone.AsRGBA(img)
		s.min = s.rgba.Bounds().Min
	}
	return s
}

func (s sampler) rgb(x, y int) (r, g, b uint16) {
	if s.rgba != nil {
		i := s.rgba.PixOffset(x+s.min.X, y+s.min.Y)
		p := s.rgba.Pix[i : i+3 : i+3]
		return uint16(p[0]) * 0x101, uint16(p[1]) * 0x101, uint16(p[2]) * 0x101
	}
	r32, g32, b32, _ := s.img.At(x+s.min.X, y+s.min.Y).RGBA()
	return uint16(r32), uint16(g32), uint16(b32)
}

// narrow scales a 16-bit value down to depth bits.
func narrow[T stripio.Sample](v uint16, depth uint16) T {
	return T(v >> (16 - depth))
}

// widen scales a depth-bit value up to 16 bits. Values above the depth's
// maximum saturate.
func widen[T stripio.Sample](v T, depth uint16) uint16 {
	max := uint32(1)<<depth - 1
	x := uint32(v)
	if x > max {
		x = max
	}
	return uint16(x * 0xffff / max)
}

func clamp16(f float64) uint16 {
	switch {
	case f <= 0:
		return 0
	case f >= 0xffff:
		return 0xffff
	}
	return uint16(math.Round(f))
}

// luminance is the relative luminance of an sRGB colour, companded back to
// sRGB.
func luminance(r, g, b uint16) uint16 {
	c, _ := colorful.MakeColor(color.RGBA64{R: r, G: g, B: b, A: 0xffff})
	lr, lg, lb := c.LinearRgb()
	l := 0.2126*lr + 0.7152*lg + 0.0722*lb
	return clamp16(colorful.LinearRgb(l, l, l).R * 0xffff)
}

func rgbToCMYK(r, g, b uint16) (c, m, y, k uint16) {
	w := max(r, g, b)
	if w == 0 {
		return 0, 0, 0, 0xffff
	}
	c = uint16((uint32(w) - uint32(r)) * 0xffff / uint32(w))
	m = uint16((uint32(w) - uint32(g)) * 0xffff / uint32(w))
	y = uint16((uint32(w) - uint32(b)) * 0xffff / uint32(w))
	return c, m, y, 0xffff - w
}

func cmykToRGB(c, m, y, k uint16) (r, g, b uint16) {
	w := uint32(0xffff - k)
	return uint16(uint32(0xffff-c) * w / 0xffff),
		uint16(uint32(0xffff-m) * w / 0xffff),
		uint16(uint32(0xffff-y) * w / 0xffff)
}

// Full-range BT.601 on 16-bit values, chroma centred on 0x8000.
func rgbToYCbCr(r, g, b uint16) (yy, cb, cr uint16) {
	fr, fg, fb := float64(r), float64(g), float64(b)
	yy = clamp16(0.299*fr + 0.587*fg + 0.114*fb)
	cb = clamp16(0x8000 - 0.168736*fr - 0.331264*fg + 0.5*fb)
	cr = clamp16(0x8000 + 0.5*fr - 0.418688*fg - 0.081312*fb)
	return yy, cb, cr
}

func yCbCrToRGB(yy, cb, cr uint16) (r, g, b uint16) {
	fy, fcb, fcr := float64(yy), float64(cb)-0x8000, float64(cr)-0x8000
	return clamp16(fy + 1.402*fcr),
		clamp16(fy - 0.344136*fcb - 0.714136*fcr),
		clamp16(fy + 1.772*fcb)
}

// Encode converts img into the buffers a transfer of d moves. The image must
// be exactly d.Width x d.Height.
func Encode[T stripio.Sample](img image.Image, d stripio.Descriptor) ([][]T, error) {
	if err := checkModel(d); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() != int(d.Width) || bounds.Dy() != int(d.Height) {
		return nil, fmt.Errorf("%w: image is %dx%d, descriptor is %dx%d",
			stripio.ErrConfiguration, bounds.Dx(), bounds.Dy(), d.Width, d.Height)
	}

	src := newSampler(img, d.Depth)
	width, height := int(d.Width), int(d.Height)
	comps := int(d.Components)

	if d.Color == stripio.YUV {
		return encodeYUV[T](src, d)
	}

	pixel := func(x, y int, out []uint16) {
		r, g, b := src.rgb(x, y)
		switch d.Color {
		case stripio.Mono:
			out[0] = luminance(r, g, b)
		case stripio.RGB:
			out[0], out[1], out[2] = r, g, b
		case stripio.CMYK:
			out[0], out[1], out[2], out[3] = rgbToCMYK(r, g, b)
		}
	}

	lengths := BufferLengths(d)
	buffers := make([][]T, len(lengths))
	for i, n := range lengths {
		buffers[i] = make([]T, n)
	}

	values := make([]uint16, comps)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel(x, y, values)
			i := y*width + x
			for c, v := range values {
				if d.Plane == stripio.Planar {
					buffers[c][i] = narrow[T](v, d.Depth)
				} else {
					buffers[0][i*comps+c] = narrow[T](v, d.Depth)
				}
			}
		}
	}
	return buffers, nil
}

func encodeYUV[T stripio.Sample](src sampler, d stripio.Descriptor) ([][]T, error) {
	width, height := int(d.Width), int(d.Height)
	yp := make([]T, width*height)
	cb := make([]uint16, width*height)
	cr := make([]uint16, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			var yy uint16
			yy, cb[i], cr[i] = rgbToYCbCr(src.rgb(x, y))
			yp[i] = narrow[T](yy, d.Depth)
		}
	}

	if d.Plane == stripio.Planar {
		u := make([]T, len(cb))
		v := make([]T, len(cr))
		for i := range cb {
			u[i] = narrow[T](cb[i], d.Depth)
			v[i] = narrow[T](cr[i], d.Depth)
		}
		return [][]T{yp, u, v}, nil
	}

	g := d.Geometry()
	u := make([]T, g.ChromaWidth*g.ChromaHeight)
	v := make([]T, g.ChromaWidth*g.ChromaHeight)
	for cy := 0; cy < g.ChromaHeight; cy++ {
		for cx := 0; cx < g.ChromaWidth; cx++ {
			var sumB, sumR, n uint64
			for y := cy * g.YFactor; y < (cy+1)*g.YFactor && y < height; y++ {
				for x := cx * g.XFactor; x < (cx+1)*g.XFactor && x < width; x++ {
					sumB += uint64(cb[y*width+x])
					sumR += uint64(cr[y*width+x])
					n++
				}
			}
			if n == 0 {
				// Block entirely in the padding: neutral chroma.
				sumB, sumR, n = 0x8000, 0x8000, 1
			}
			i := cy*g.ChromaWidth + cx
			u[i] = narrow[T](uint16((sumB+n/2)/n), d.Depth)
			v[i] = narrow[T](uint16((sumR+n/2)/n), d.Depth)
		}
	}

	packed, err := yuv.Pack(yp, u, v, d)
	if err != nil {
		return nil, err
	}
	return [][]T{packed}, nil
}

// Decode is the inverse of Encode. Mono images decode to *image.Gray16, every
// other colour model to *image.NRGBA64.
func Decode[T stripio.Sample](buffers [][]T, d stripio.Descriptor) (image.Image, error) {
	if err := checkModel(d); err != nil {
		return nil, err
	}
	lengths := BufferLengths(d)
	if len(buffers) != len(lengths) {
		return nil, fmt.Errorf("%w: got %d buffers, want %d", stripio.ErrConfiguration, len(buffers), len(lengths))
	}
	for i, n := range lengths {
		if len(buffers[i]) < n {
			return nil, fmt.Errorf("%w: buffer %d holds %d samples, want %d",
				stripio.ErrConfiguration, i, len(buffers[i]), n)
		}
	}

	width, height := int(d.Width), int(d.Height)
	comps := int(d.Components)
	rect := image.Rect(0, 0, width, height)

	// at returns component c of pixel i widened to 16 bits.
	at := func(c, i int) uint16 {
		if d.Plane == stripio.Planar {
			return widen(buffers[c][i], d.Depth)
		}
		return widen(buffers[0][i*comps+c], d.Depth)
	}

	if d.Color == stripio.Mono {
		out := image.NewGray16(rect)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				out.SetGray16(x, y, color.Gray16{Y: at(0, y*width+x)})
			}
		}
		return out, nil
	}

	out := image.NewNRGBA64(rect)
	set := func(x, y int, r, g, b uint16) {
		out.SetNRGBA64(x, y, color.NRGBA64{R: r, G: g, B: b, A: 0xffff})
	}

	if d.Color == stripio.YUV && d.Plane == stripio.Packed {
		yp, u, v, err := yuv.Split(buffers[0], d)
		if err != nil {
			return nil, err
		}
		yp = yuv.Crop(yp, d)
		geo := d.Geometry()
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				ci := (y/geo.YFactor)*geo.ChromaWidth + x/geo.XFactor
				r, g, b := yCbCrToRGB(
					widen(yp[y*width+x], d.Depth),
					widen(u[ci], d.Depth),
					widen(v[ci], d.Depth))
				set(x, y, r, g, b)
			}
		}
		return out, nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			var r, g, b uint16
			switch d.Color {
			case stripio.RGB:
				r, g, b = at(0, i), at(1, i), at(2, i)
			case stripio.CMYK:
				r, g, b = cmykToRGB(at(0, i), at(1, i), at(2, i), at(3, i))
			case stripio.YUV:
				r, g, b = yCbCrToRGB(at(0, i), at(1, i), at(2, i))
			}
			set(x, y, r, g, b)
		}
	}
	return out, nil
}
