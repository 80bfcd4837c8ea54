package stripio

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ironsheep/tiffstrip/internal/container"
)

// DefaultSoftware is written to the Software tag unless a Session overrides it.
const DefaultSoftware = "tiffstrip"

// Container is the part of an image container a Session drives.
// *container.File implements it.
type Container interface {
	SetField(tag container.Tag, values ...uint32) error
	SetString(tag container.Tag, s string) error
	Field(tag container.Tag) ([]uint32, bool)
	DefaultStripSize(request uint32) uint32
	NumberOfStrips() uint32
	TransferStrip(strip uint32, buf []byte, dir container.Direction) (int, error)
	ByteOrder() binary.ByteOrder
	Close() error
}

// Pager is implemented by containers that hold more than one page.
type Pager interface {
	WriteDirectory() error
	SetDirectory(n int) error
	DirectoryCount() int
}

// Session is one open image container plus the Descriptor of the page being
// written or read. A Session must not be copied; pass *Session around and
// Close it exactly once when done.
type Session struct {
	c    Container
	desc Descriptor

	// Software is the Software tag value written by SetTags.
	Software string

	now func() time.Time
}

// NewSession wraps an already open container.
func NewSession(c Container) *Session {
	return &Session{
		c:        c,
		desc:     NewDescriptor(),
		Software: DefaultSoftware,
		now:      time.Now,
	}
}

// Create creates the TIFF file at path and returns a Session writing to it.
func Create(path string) (*Session, error) {
	c, err := container.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainer, err)
	}
	return NewSession(c), nil
}

// Open opens the TIFF file at path for reading. Call GetTags to load the
// Descriptor of the first page.
func Open(path string) (*Session, error) {
	c, err := container.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContainer, err)
	}
	return NewSession(c), nil
}

// Close closes the container. The Descriptor stays readable; every other
// operation fails afterwards. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.c == nil {
		return nil
	}
	err := s.c.Close()
	s.c = nil
	if err != nil {
		return fmt.Errorf("%w: %w", ErrContainer, err)
	}
	return nil
}

// Descriptor returns a copy of the session's Descriptor.
func (s *Session) Descriptor() Descriptor {
	return s.desc
}

// SetDescriptor replaces the session's Descriptor. It is validated by the
// next SetTags, Write or Read.
func (s *Session) SetDescriptor(d Descriptor) {
	s.desc = d
}

// validate is the gate in front of every tag write and strip transfer.
func (s *Session) validate() error {
	if s.c == nil {
		return fmt.Errorf("%w: no open container", ErrConfiguration)
	}
	return s.desc.Validate()
}

// RowsPerStrip returns the rows per strip of the current page. A container
// without the tag stores the whole image in one strip per plane, and a value
// larger than the image is clipped to it (the padded height for packed
// images).
func (s *Session) RowsPerStrip() (int, error) {
	if s.c == nil {
		return 0, fmt.Errorf("%w: no open container", ErrConfiguration)
	}
	height := int(s.desc.Height)
	if s.desc.Plane == Packed {
		height = s.desc.Geometry().PaddedHeight
	}
	v, ok := s.c.Field(container.TagRowsPerStrip)
	if !ok || len(v) == 0 || v[0] == 0 || int64(v[0]) > int64(height) {
		if height == 0 {
			return 0, fmt.Errorf("%w: height is zero", ErrConfiguration)
		}
		return height, nil
	}
	return int(v[0]), nil
}

// NextPage finishes the page being written and starts a new one. Set the new
// page's Descriptor (Kind Multi) and call SetTags before writing its strips.
func (s *Session) NextPage() error {
	p, err := s.pager()
	if err != nil {
		return err
	}
	if err := p.WriteDirectory(); err != nil {
		return fmt.Errorf("%w: %w", ErrContainer, err)
	}
	return nil
}

// SetPage selects page n of a file being read and loads its tags.
func (s *Session) SetPage(n int) error {
	p, err := s.pager()
	if err != nil {
		return err
	}
	if err := p.SetDirectory(n); err != nil {
		return fmt.Errorf("%w: %w", ErrContainer, err)
	}
	return s.GetTags()
}

// PageCount returns the number of pages in the container, or 1 when the
// container has no notion of pages.
func (s *Session) PageCount() int {
	p, err := s.pager()
	if err != nil {
		return 1
	}
	return p.DirectoryCount()
}

func (s *Session) pager() (Pager, error) {
	if s.c == nil {
		return nil, fmt.Errorf("%w: no open container", ErrConfiguration)
	}
	p, ok := s.c.(Pager)
	if !ok {
		return nil, fmt.Errorf("%w: container does not support pages", ErrContainer)
	}
	return p, nil
}
