package stripio

import (
	"encoding/binary"
	"fmt"

	"github.com/ironsheep/tiffstrip/internal/container"
)

// Sample is the element type of an image buffer: 8-bit samples for depths up
// to 8, 16-bit samples for depths up to 16.
type Sample interface {
	~uint8 | ~uint16
}

// Strip is one transfer of a full-image pass.
type Strip struct {
	Index     int `json:"index"`
	Row       int `json:"row"`
	Rows      int `json:"rows"`
	Samples   int `json:"samples"`
	Component int `json:"component"`
}

// MaxStrips bounds the strips of one plan.
const MaxStrips = 1 << 20

// Plan lists, in transfer order, the strips a full pass over d visits. For
// Planar images only the strips of component are listed; component is
// ignored for Packed images.
func Plan(d Descriptor, rowsPerStrip, numberOfStrips, component int) ([]Strip, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if rowsPerStrip <= 0 {
		return nil, fmt.Errorf("%w: rows per strip must be positive, got %d", ErrConfiguration, rowsPerStrip)
	}
	height := int(d.Height)
	if d.Plane == Packed {
		height = d.Geometry().PaddedHeight
	}
	if n := (height-1)/rowsPerStrip + 1; n > MaxStrips {
		return nil, fmt.Errorf("%w: %d rows per strip gives %d strips, more than %d", ErrConfiguration, rowsPerStrip, n, MaxStrips)
	}

	var strips []Strip

	if d.Plane == Packed {
		g := d.Geometry()
		for y, index := 0, 0; y < g.PaddedHeight; y, index = y+rowsPerStrip, index+1 {
			nrows := StripRows(y, rowsPerStrip, g.PaddedHeight)
			strips = append(strips, Strip{
				Index:   index,
				Row:     y,
				Rows:    nrows,
				Samples: StripByteSize(nrows, g.PaddedWidth, g.XFactor, g.YFactor, int(d.Components), d.Color),
			})
		}
		return strips, nil
	}

	comps := int(d.Components)
	if component < 0 || component >= comps {
		return nil, fmt.Errorf("%w: component %d of %d", ErrConfiguration, component, comps)
	}
	perComponent := numberOfStrips / comps
	width := int(d.Width)
	for y, local := 0, 0; y < height; y, local = y+rowsPerStrip, local+1 {
		nrows := StripRows(y, rowsPerStrip, height)
		strips = append(strips, Strip{
			Index:     perComponent*component + local,
			Row:       y,
			Rows:      nrows,
			Samples:   nrows * width,
			Component: component,
		})
	}
	return strips, nil
}

// PlanSamples is the number of buffer elements a plan consumes.
func PlanSamples(strips []Strip) int {
	n := 0
	for _, st := range strips {
		n += st.Samples
	}
	return n
}

// Plan returns the strips Write or Read would visit for component.
func (s *Session) Plan(component int) ([]Strip, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	rows, err := s.RowsPerStrip()
	if err != nil {
		return nil, err
	}
	return Plan(s.desc, rows, int(s.c.NumberOfStrips()), component)
}

// Write stores data as the session's current page, one strip at a time, and
// returns the number of bytes written. Packed data holds the whole padded
// image (for YUV, as produced by yuv.Pack); Planar data holds the plane of
// one component. If a strip fails, the strips before it stay in the file.
func Write[T Sample](s *Session, data []T, component int) (int, error) {
	return transfer(s, data, component, container.Write)
}

// Read fills data from the session's current page and returns the number of
// bytes read. The layout of data is the same as for Write.
func Read[T Sample](s *Session, data []T, component int) (int, error) {
	return transfer(s, data, component, container.Read)
}

func transfer[T Sample](s *Session, data []T, component int, dir container.Direction) (int, error) {
	strips, err := s.Plan(component)
	if err != nil {
		return 0, err
	}

	var zero T
	size := binary.Size(zero)
	if depth := int(s.desc.Depth); depth > 8*size {
		return 0, fmt.Errorf("%w: %d-bit samples do not fit %d-bit elements", ErrConfiguration, depth, 8*size)
	}
	if need := PlanSamples(strips); len(data) < need {
		return 0, fmt.Errorf("%w: buffer holds %d samples, transfer needs %d", ErrConfiguration, len(data), need)
	}

	order := s.c.ByteOrder()
	var scratch []byte
	total, cursor := 0, 0

	for _, st := range strips {
		elems := data[cursor : cursor+st.Samples]

		buf, direct := any(elems).([]byte)
		if !direct {
			if cap(scratch) < st.Samples*size {
				scratch = make([]byte, st.Samples*size)
			}
			buf = scratch[:st.Samples*size]
			if dir == container.Write {
				encodeSamples(buf, elems, order)
			}
		}

		n, err := s.c.TransferStrip(uint32(st.Index), buf, dir)
		if err != nil {
			return total, fmt.Errorf("%w: strip %d: %w", ErrContainer, st.Index, err)
		}
		if n < 0 {
			return total, fmt.Errorf("%w: strip %d returned %d", ErrTruncated, st.Index, n)
		}
		if dir == container.Read && !direct {
			decodeSamples(elems[:n/size], buf[:n], order)
		}

		total += n
		cursor += n / size
		if n < len(buf) {
			return total, fmt.Errorf("%w: strip %d moved %d of %d bytes", ErrTruncated, st.Index, n, len(buf))
		}
	}

	return total, nil
}

func encodeSamples[T Sample](dst []byte, src []T, order binary.ByteOrder) {
	if len(dst) == len(src) {
		for i, v := range src {
			dst[i] = byte(v)
		}
		return
	}
	for i, v := range src {
		order.PutUint16(dst[2*i:], uint16(v))
	}
}

func decodeSamples[T Sample](dst []T, src []byte, order binary.ByteOrder) {
	if len(dst) == len(src) {
		for i, b := range src {
			dst[i] = T(b)
		}
		return
	}
	for i := range dst {
		dst[i] = T(order.Uint16(src[2*i:]))
	}
}
