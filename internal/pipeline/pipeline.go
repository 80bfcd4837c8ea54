// Package pipeline runs whole images through a strip session: encode the
// image into sample buffers, write them strip by strip, and the reverse.
package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/zeebo/blake3"

	"github.com/ironsheep/tiffstrip/internal/imaging"
	"github.com/ironsheep/tiffstrip/internal/stripio"
)

// Page is one image and the Descriptor it is stored with.
type Page struct {
	Image      image.Image
	Descriptor stripio.Descriptor
}

// Options controls a Write.
type Options struct {
	Software string // Software tag; stripio.DefaultSoftware when empty
}

// PageSummary describes how one page is laid out in strips.
type PageSummary struct {
	Descriptor   stripio.Descriptor `json:"descriptor"`
	Geometry     stripio.Geometry   `json:"geometry"`
	RowsPerStrip int                `json:"rows_per_strip"`
	Strips       int                `json:"strips"`
	Bytes        int                `json:"bytes"`
	Digest       string             `json:"digest"` // BLAKE3 of the samples in transfer order
}

// Result holds the output of a Write or Inspect.
type Result struct {
	Path  string        `json:"path"`
	Pages []PageSummary `json:"pages"`
}

// Write stores pages in a new file at path. With more than one page every
// Descriptor is switched to stripio.Multi.
func Write(path string, pages []Page, opts Options) (*Result, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to write", stripio.ErrConfiguration)
	}

	s, err := stripio.Create(path)
	if err != nil {
		return nil, err
	}
	if opts.Software != "" {
		s.Software = opts.Software
	}

	res := &Result{Path: path}
	for i, p := range pages {
		d := p.Descriptor
		if len(pages) > 1 {
			d.Kind = stripio.Multi
		}
		if i > 0 {
			if err := s.NextPage(); err != nil {
				s.Close()
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
		}
		s.SetDescriptor(d)
		if err := s.SetTags(); err != nil {
			s.Close()
			return nil, fmt.Errorf("page %d: %w", i, err)
		}

		var sum *PageSummary
		if d.Depth <= 8 {
			sum, err = writeSamples[uint8](s, p.Image)
		} else {
			sum, err = writeSamples[uint16](s, p.Image)
		}
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		res.Pages = append(res.Pages, *sum)
	}

	if err := s.Close(); err != nil {
		return nil, err
	}
	return res, nil
}

func writeSamples[T stripio.Sample](s *stripio.Session, img image.Image) (*PageSummary, error) {
	buffers, err := imaging.Encode[T](img, s.Descriptor())
	if err != nil {
		return nil, err
	}
	total := 0
	for c, buf := range buffers {
		n, err := stripio.Write(s, buf, c)
		total += n
		if err != nil {
			return nil, err
		}
	}
	return summarize(s, buffers, total)
}

// Inspect reads every page of the file at path and summarises it.
func Inspect(path string) (*Result, error) {
	s, err := stripio.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	res := &Result{Path: path}
	for i := 0; i < s.PageCount(); i++ {
		sum, _, err := readPage(s, i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		res.Pages = append(res.Pages, *sum)
	}
	return res, nil
}

// Read decodes page n of the file at path.
func Read(path string, n int) (image.Image, *PageSummary, error) {
	s, err := stripio.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	sum, img, err := readPage(s, n, true)
	if err != nil {
		return nil, nil, err
	}
	return img, sum, nil
}

// readPage loads page n and summarises it; with decode set it also converts
// the samples back to an image.
func readPage(s *stripio.Session, n int, decode bool) (*PageSummary, image.Image, error) {
	if n < 0 || n >= s.PageCount() {
		return nil, nil, fmt.Errorf("%w: page %d of %d", stripio.ErrConfiguration, n, s.PageCount())
	}
	if err := s.SetPage(n); err != nil {
		return nil, nil, err
	}
	if s.Descriptor().Depth <= 8 {
		return readSamples[uint8](s, decode)
	}
	return readSamples[uint16](s, decode)
}

func readSamples[T stripio.Sample](s *stripio.Session, decode bool) (*PageSummary, image.Image, error) {
	d := s.Descriptor()
	lengths := imaging.BufferLengths(d)
	buffers := make([][]T, len(lengths))
	total := 0
	for c, length := range lengths {
		buffers[c] = make([]T, length)
		n, err := stripio.Read(s, buffers[c], c)
		total += n
		if err != nil {
			return nil, nil, err
		}
	}

	sum, err := summarize(s, buffers, total)
	if err != nil || !decode {
		return sum, nil, err
	}
	img, err := imaging.Decode(buffers, d)
	if err != nil {
		return nil, nil, err
	}
	return sum, img, nil
}

func summarize[T stripio.Sample](s *stripio.Session, buffers [][]T, total int) (*PageSummary, error) {
	d := s.Descriptor()
	rows, err := s.RowsPerStrip()
	if err != nil {
		return nil, err
	}
	strips := 0
	for c := range buffers {
		plan, err := s.Plan(c)
		if err != nil {
			return nil, err
		}
		strips += len(plan)
	}
	return &PageSummary{
		Descriptor:   d,
		Geometry:     d.Geometry(),
		RowsPerStrip: rows,
		Strips:       strips,
		Bytes:        total,
		Digest:       Digest(buffers),
	}, nil
}

// Digest hashes sample buffers in order with BLAKE3. 16-bit samples are
// hashed little-endian, so the digest does not depend on a file's byte order.
func Digest[T stripio.Sample](buffers [][]T) string {
	h := blake3.New()
	var word [2]byte
	for _, buf := range buffers {
		if b, ok := any(buf).([]byte); ok {
			h.Write(b)
			continue
		}
		for _, v := range buf {
			binary.LittleEndian.PutUint16(word[:], uint16(v))
			h.Write(word[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
