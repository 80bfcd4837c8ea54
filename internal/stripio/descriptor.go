package stripio

import (
	"fmt"
	"math"
	"strings"
)

// FileKind tells whether an image is a standalone file or one page of a
// multi-page file.
type FileKind int

const (
	FileKindError FileKind = iota
	Single
	Multi
)

// ColorModel is the photometric interpretation of the samples.
type ColorModel int

const (
	ColorError ColorModel = iota
	Mono
	RGB
	CMYK
	YUV
)

// PlaneLayout tells whether components are interleaved per pixel (Packed) or
// stored as separate planes (Planar).
type PlaneLayout int

const (
	PlaneError PlaneLayout = iota
	Packed
	Planar
)

// Subsampling is the chroma subsampling of a YUV image.
type Subsampling int

const (
	SubsamplingError Subsampling = iota
	YUV444
	YUV422
	YUV420
	YUV411
	YUV410
)

var (
	fileKindNames    = []string{"error", "single", "multi"}
	colorModelNames  = []string{"error", "mono", "rgb", "cmyk", "yuv"}
	planeLayoutNames = []string{"error", "packed", "planar"}
	subsamplingNames = []string{"error", "444", "422", "420", "411", "410"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return names[0]
	}
	return names[v]
}

// parseEnum finds text among names, skipping the error name at index 0.
func parseEnum(names []string, kind string, text []byte) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i := 1; i < len(names); i++ {
		if names[i] == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (want one of %s)", kind, text, strings.Join(names[1:], ", "))
}

func (k FileKind) String() string    { return enumName(fileKindNames, int(k)) }
func (c ColorModel) String() string  { return enumName(colorModelNames, int(c)) }
func (p PlaneLayout) String() string { return enumName(planeLayoutNames, int(p)) }
func (s Subsampling) String() string { return enumName(subsamplingNames, int(s)) }

func (k FileKind) MarshalText() ([]byte, error)    { return []byte(k.String()), nil }
func (c ColorModel) MarshalText() ([]byte, error)  { return []byte(c.String()), nil }
func (p PlaneLayout) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
func (s Subsampling) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (k *FileKind) UnmarshalText(text []byte) error {
	v, err := parseEnum(fileKindNames, "file kind", text)
	*k = FileKind(v)
	return err
}

func (c *ColorModel) UnmarshalText(text []byte) error {
	v, err := parseEnum(colorModelNames, "color model", text)
	*c = ColorModel(v)
	return err
}

func (p *PlaneLayout) UnmarshalText(text []byte) error {
	v, err := parseEnum(planeLayoutNames, "plane layout", text)
	*p = PlaneLayout(v)
	return err
}

func (s *Subsampling) UnmarshalText(text []byte) error {
	v, err := parseEnum(subsamplingNames, "subsampling", text)
	*s = Subsampling(v)
	return err
}

// Descriptor is the parameter set of one image.
//
// The zero Descriptor is invalid in every field. NewDescriptor returns the
// usual starting point: a single, packed image with 4:4:4 sampling and no
// colour model yet.
type Descriptor struct {
	Kind        FileKind    `json:"kind" yaml:"kind"`
	Width       uint32      `json:"width" yaml:"width"`
	Height      uint32      `json:"height" yaml:"height"`
	Depth       uint16      `json:"depth" yaml:"depth"`
	Components  uint16      `json:"components" yaml:"components"`
	Color       ColorModel  `json:"color" yaml:"color"`
	Plane       PlaneLayout `json:"plane" yaml:"plane"`
	Subsampling Subsampling `json:"subsampling" yaml:"subsampling"`
}

// NewDescriptor returns a Descriptor with the default file kind, plane layout
// and subsampling set.
func NewDescriptor() Descriptor {
	return Descriptor{
		Kind:        Single,
		Plane:       Packed,
		Subsampling: YUV444,
	}
}

// MaxDepth is the largest supported bit depth.
const MaxDepth = 16

// Validate checks that d can drive tag writes and strip transfers.
func (d Descriptor) Validate() error {
	switch {
	case d.Kind != Single && d.Kind != Multi:
		return fmt.Errorf("%w: file kind is not set", ErrConfiguration)
	case d.Width == 0:
		return fmt.Errorf("%w: width is zero", ErrConfiguration)
	case d.Height == 0:
		return fmt.Errorf("%w: height is zero", ErrConfiguration)
	case d.Depth == 0 || d.Depth > MaxDepth:
		return fmt.Errorf("%w: bit depth %d outside 1..%d", ErrConfiguration, d.Depth, MaxDepth)
	case d.Components == 0:
		return fmt.Errorf("%w: component count is zero", ErrConfiguration)
	case d.Color < Mono || d.Color > YUV:
		return fmt.Errorf("%w: color model is not set", ErrConfiguration)
	case d.Plane != Packed && d.Plane != Planar:
		return fmt.Errorf("%w: plane layout is not set", ErrConfiguration)
	case d.Color == YUV && (d.Subsampling < YUV444 || d.Subsampling > YUV410):
		return fmt.Errorf("%w: YUV image without subsampling", ErrConfiguration)
	}
	if n := d.rasterBytes(); n > MaxImageBytes {
		return fmt.Errorf("%w: %dx%d image with %d components needs more than %d bytes",
			ErrConfiguration, d.Width, d.Height, d.Components, uint64(MaxImageBytes))
	}
	return nil
}

// MaxImageBytes bounds the raster of one image: classic TIFF addresses strips
// with 32-bit offsets.
const MaxImageBytes = math.MaxUint32

// rasterBytes is the size of the buffer a full pass over d transfers. Sizes
// that cannot fit are reported as MaxImageBytes+1.
func (d Descriptor) rasterBytes() uint64 {
	const tooLarge = MaxImageBytes + 1
	if uint64(d.Width)*uint64(d.Height) > MaxImageBytes {
		return tooLarge
	}

	var samples uint64
	comps := uint64(d.Components)
	if d.Plane == Planar {
		samples = uint64(d.Width) * uint64(d.Height) * comps
	} else {
		g := d.Geometry()
		luma := uint64(g.PaddedWidth) * uint64(g.PaddedHeight)
		if d.Color == YUV {
			samples = luma + uint64(g.ChromaWidth)*uint64(g.ChromaHeight)*2
		} else {
			samples = luma * comps
		}
	}
	if d.Depth > 8 {
		samples *= 2
	}
	return samples
}

// ChromaFactors returns the horizontal and vertical chroma block size. Images
// that are not YUV always use 1x1 blocks.
func (d Descriptor) ChromaFactors() (xfactor, yfactor int) {
	if d.Color != YUV {
		return 1, 1
	}
	return ChromaFactors(d.Subsampling)
}

// Geometry is the block-aligned size of an image.
type Geometry struct {
	XFactor      int `json:"xfactor"`
	YFactor      int `json:"yfactor"`
	PaddedWidth  int `json:"padded_width"`
	PaddedHeight int `json:"padded_height"`
	ChromaWidth  int `json:"chroma_width"`
	ChromaHeight int `json:"chroma_height"`
}

// Geometry derives the padded and chroma dimensions of d. It is recomputed on
// every call, so it always reflects the Descriptor's current fields.
func (d Descriptor) Geometry() Geometry {
	xf, yf := d.ChromaFactors()
	pw, ph := PaddedDims(int(d.Width), int(d.Height), xf, yf)
	return Geometry{
		XFactor:      xf,
		YFactor:      yf,
		PaddedWidth:  pw,
		PaddedHeight: ph,
		ChromaWidth:  pw / xf,
		ChromaHeight: ph / yf,
	}
}
