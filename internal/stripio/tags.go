package stripio

import (
	"fmt"

	"github.com/ironsheep/tiffstrip/internal/container"
)

var photometricByColor = map[ColorModel]uint32{
	Mono: container.PhotometricMinIsBlack,
	RGB:  container.PhotometricRGB,
	CMYK: container.PhotometricSeparated,
	YUV:  container.PhotometricYCbCr,
}

var planarByPlane = map[PlaneLayout]uint32{
	Packed: container.PlanarContig,
	Planar: container.PlanarSeparate,
}

var subfileTypeByKind = map[FileKind]uint32{
	Single: 0,
	Multi:  container.FileTypePage,
}

var subsamplingByFactors = map[[2]uint32]Subsampling{
	{1, 1}: YUV444,
	{2, 1}: YUV422,
	{2, 2}: YUV420,
	{4, 1}: YUV411,
	{4, 4}: YUV410,
}

// lookup inverts one of the tables above. Values missing from the table map
// to the zero (error) variant.
func lookup[K comparable](table map[K]uint32, v uint32) K {
	for k, tv := range table {
		if tv == v {
			return k
		}
	}
	var zero K
	return zero
}

// SetTags validates the Descriptor and writes it, plus the fixed orientation,
// fill order, compression, software, timestamp and rows-per-strip tags, to
// the current page. It stops at the first tag the container rejects.
func (s *Session) SetTags() error {
	if err := s.validate(); err != nil {
		return err
	}
	d := s.desc

	set := func(name string, tag container.Tag, values ...uint32) error {
		if err := s.c.SetField(tag, values...); err != nil {
			return fmt.Errorf("%w: set %s: %w", ErrContainer, name, err)
		}
		return nil
	}

	if err := set("image width", container.TagImageWidth, d.Width); err != nil {
		return err
	}
	if err := set("image length", container.TagImageLength, d.Height); err != nil {
		return err
	}
	if err := set("bits per sample", container.TagBitsPerSample, uint32(d.Depth)); err != nil {
		return err
	}
	if err := set("samples per pixel", container.TagSamplesPerPixel, uint32(d.Components)); err != nil {
		return err
	}
	if err := set("photometric", container.TagPhotometric, photometricByColor[d.Color]); err != nil {
		return err
	}
	if err := set("planar config", container.TagPlanarConfig, planarByPlane[d.Plane]); err != nil {
		return err
	}
	if d.Color == YUV {
		xf, yf := ChromaFactors(d.Subsampling)
		if err := set("ycbcr subsampling", container.TagYCbCrSubSampling, uint32(xf), uint32(yf)); err != nil {
			return err
		}
	}
	if d.Kind == Multi {
		if err := set("subfile type", container.TagSubfileType, container.FileTypePage); err != nil {
			return err
		}
	}
	if err := set("orientation", container.TagOrientation, container.OrientationTopLeft); err != nil {
		return err
	}
	if err := set("fill order", container.TagFillOrder, container.FillOrderMSB2LSB); err != nil {
		return err
	}
	if err := set("compression", container.TagCompression, container.CompressionNone); err != nil {
		return err
	}
	if err := s.c.SetString(container.TagSoftware, s.Software); err != nil {
		return fmt.Errorf("%w: set software: %w", ErrContainer, err)
	}
	if err := s.c.SetString(container.TagDateTime, s.now().Format(container.DateTimeLayout)); err != nil {
		return fmt.Errorf("%w: set date time: %w", ErrContainer, err)
	}

	rows, ok := RowsPerStripPolicy(d.Color, d.Subsampling)
	if !ok {
		rows = int(s.c.DefaultStripSize(0))
	}
	return set("rows per strip", container.TagRowsPerStrip, uint32(rows))
}

// GetTags reads the current page's tags into the session's Descriptor and
// validates the result. Tag values with no Descriptor equivalent become the
// error variant of the matching enum, which validation then rejects; the
// Descriptor is updated either way.
func (s *Session) GetTags() error {
	if s.c == nil {
		return fmt.Errorf("%w: no open container", ErrConfiguration)
	}

	get := func(name string, tag container.Tag) (uint32, error) {
		v, ok := s.c.Field(tag)
		if !ok || len(v) == 0 {
			return 0, fmt.Errorf("%w: %s tag missing", ErrContainer, name)
		}
		return v[0], nil
	}

	d := s.desc

	width, err := get("image width", container.TagImageWidth)
	if err != nil {
		return err
	}
	d.Width = width

	height, err := get("image length", container.TagImageLength)
	if err != nil {
		return err
	}
	d.Height = height

	depth, err := get("bits per sample", container.TagBitsPerSample)
	if err != nil {
		return err
	}
	d.Depth = uint16(depth)

	comps, err := get("samples per pixel", container.TagSamplesPerPixel)
	if err != nil {
		return err
	}
	d.Components = uint16(comps)

	photometric, err := get("photometric", container.TagPhotometric)
	if err != nil {
		return err
	}
	d.Color = lookup(photometricByColor, photometric)

	// TIFF 6.0 defaults: contiguous planes, 2x2 chroma blocks, full images.
	planar := uint32(container.PlanarContig)
	if v, ok := s.c.Field(container.TagPlanarConfig); ok && len(v) > 0 {
		planar = v[0]
	}
	d.Plane = lookup(planarByPlane, planar)

	if d.Color == YUV {
		factors := [2]uint32{2, 2}
		if v, ok := s.c.Field(container.TagYCbCrSubSampling); ok && len(v) == 2 {
			factors = [2]uint32{v[0], v[1]}
		}
		d.Subsampling = subsamplingByFactors[factors]
	} else {
		d.Subsampling = YUV444
	}

	var subfile uint32
	if v, ok := s.c.Field(container.TagSubfileType); ok && len(v) > 0 {
		subfile = v[0]
	}
	d.Kind = lookup(subfileTypeByKind, subfile)

	s.desc = d
	return s.validate()
}
