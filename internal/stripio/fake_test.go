package stripio

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ironsheep/tiffstrip/internal/container"
)

var errInjected = errors.New("injected failure")

// fakeContainer records tags and strips in memory.
type fakeContainer struct {
	fields  map[container.Tag][]uint32
	strings map[container.Tag]string
	strips  map[uint32][]byte

	// transfers lists every strip index passed to TransferStrip, in order.
	transfers []uint32
	sizes     []int

	failAt   int // strip index whose transfer fails, -1 for none
	negAt    int // strip index whose transfer reports -1 bytes, -1 for none
	shortBy  int // bytes each transfer comes up short by
	failTags map[container.Tag]bool
	closed   bool
}

func newFakeContainer() *fakeContainer {
	return &fakeContainer{
		fields:   make(map[container.Tag][]uint32),
		strings:  make(map[container.Tag]string),
		strips:   make(map[uint32][]byte),
		failAt:   -1,
		negAt:    -1,
		failTags: make(map[container.Tag]bool),
	}
}

func (f *fakeContainer) SetField(tag container.Tag, values ...uint32) error {
	if f.failTags[tag] {
		return errInjected
	}
	f.fields[tag] = append([]uint32(nil), values...)
	return nil
}

func (f *fakeContainer) SetString(tag container.Tag, s string) error {
	if f.failTags[tag] {
		return errInjected
	}
	f.strings[tag] = s
	return nil
}

func (f *fakeContainer) Field(tag container.Tag) ([]uint32, bool) {
	v, ok := f.fields[tag]
	return v, ok
}

func (f *fakeContainer) value(tag container.Tag, def uint32) uint32 {
	if v, ok := f.fields[tag]; ok {
		return v[0]
	}
	return def
}

// DefaultStripSize returns a deliberately awkward odd row count so tests can
// tell it apart from the YUV overrides.
func (f *fakeContainer) DefaultStripSize(request uint32) uint32 {
	if request > 0 {
		return request
	}
	return 27
}

func (f *fakeContainer) NumberOfStrips() uint32 {
	length := f.value(container.TagImageLength, 0)
	rows := f.value(container.TagRowsPerStrip, math.MaxUint32)
	n := uint32(1)
	if rows < length {
		n = (length-1)/rows + 1
	}
	if f.value(container.TagPlanarConfig, container.PlanarContig) == container.PlanarSeparate {
		n *= f.value(container.TagSamplesPerPixel, 1)
	}
	return n
}

func (f *fakeContainer) TransferStrip(strip uint32, buf []byte, dir container.Direction) (int, error) {
	f.transfers = append(f.transfers, strip)
	f.sizes = append(f.sizes, len(buf))
	if int(strip) == f.failAt {
		return 0, errInjected
	}
	if int(strip) == f.negAt {
		return -1, nil
	}
	n := len(buf) - f.shortBy
	if n < 0 {
		n = 0
	}
	if dir == container.Write {
		f.strips[strip] = append([]byte(nil), buf[:n]...)
		return n, nil
	}
	return copy(buf[:n], f.strips[strip]), nil
}

func (f *fakeContainer) ByteOrder() binary.ByteOrder {
	return binary.LittleEndian
}

func (f *fakeContainer) Close() error {
	f.closed = true
	return nil
}
