package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
)

// Direction selects whether a file, or a single strip transfer, moves data
// into the file or out of it.
type Direction int

const (
	Read Direction = iota
	Write
)

func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

var (
	// ErrClosed is returned by every operation on a closed file.
	ErrClosed = errors.New("container: file is closed")
	// ErrMode is returned when an operation does not match the open mode.
	ErrMode = errors.New("container: operation not allowed in this mode")
	// ErrStripIndex is returned for a strip index outside the directory.
	ErrStripIndex = errors.New("container: strip index out of range")
	// ErrDirectory is returned for a directory index outside the file.
	ErrDirectory = errors.New("container: directory index out of range")
	// ErrTag is returned when a tag cannot be set.
	ErrTag = errors.New("container: unsupported tag")
	// ErrFormat is returned when a file is not a readable TIFF.
	ErrFormat = errors.New("container: malformed TIFF")
	// ErrTooLarge is returned when a write would move data past the 4 GiB
	// that 32-bit TIFF offsets can address.
	ErrTooLarge = errors.New("container: file exceeds 4 GiB")
)

const (
	leHeader = "II\x2A\x00"
	beHeader = "MM\x00\x2A"

	// maxDirectories bounds the IFD chain walk so that a looping chain in a
	// corrupt file cannot hang Open.
	maxDirectories = 4096
)

// File is an open TIFF container.
type File struct {
	mode   Direction
	f      *os.File
	order  binary.ByteOrder
	dirs   []*directory
	cur    int
	closed bool

	// Read mode only: file size, bounding every offset found in the file.
	size int64

	// Write mode only: next free byte, and where the pointer to the next IFD
	// must be patched once that IFD is written.
	end      int64
	nextLink int64
}

// Create creates (or truncates) the file at path and opens it for writing.
func Create(path string) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	header := make([]byte, 8)
	copy(header, leHeader)
	if _, err := f.WriteAt(header, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return &File{
		mode:     Write,
		f:        f,
		order:    binary.LittleEndian,
		dirs:     []*directory{newDirectory()},
		end:      8,
		nextLink: 4,
	}, nil
}

// Open opens the file at path for reading and parses all of its directories.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat container: %w", err)
	}

	c := &File{mode: Read, f: f, size: stat.Size()}
	if err := c.parse(); err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// Mode reports whether the file was opened for reading or writing.
func (c *File) Mode() Direction {
	return c.mode
}

// ByteOrder is the byte order of multi-byte samples stored in the file.
func (c *File) ByteOrder() binary.ByteOrder {
	return c.order
}

// Close finishes the current directory (when writing) and closes the file.
// Closing an already closed file is a no-op.
func (c *File) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var flushErr error
	if c.mode == Write {
		if d := c.dirs[c.cur]; !d.empty() {
			flushErr = c.writeIFD(d)
		}
	}
	if err := c.f.Close(); err != nil && flushErr == nil {
		flushErr = fmt.Errorf("failed to close container: %w", err)
	}
	return flushErr
}

// SetField sets a numeric tag on the current directory.
func (c *File) SetField(tag Tag, values ...uint32) error {
	if err := c.check(Write); err != nil {
		return err
	}
	typ, ok := tagTypes[tag]
	if !ok || typ == dtASCII || managed(tag) {
		return fmt.Errorf("%w: %d", ErrTag, tag)
	}
	if len(values) == 0 {
		return fmt.Errorf("%w: %d has no values", ErrTag, tag)
	}
	c.dirs[c.cur].fields[tag] = append([]uint32(nil), values...)
	return nil
}

// SetString sets an ASCII tag on the current directory.
func (c *File) SetString(tag Tag, s string) error {
	if err := c.check(Write); err != nil {
		return err
	}
	if tagTypes[tag] != dtASCII {
		return fmt.Errorf("%w: %d is not an ASCII tag", ErrTag, tag)
	}
	c.dirs[c.cur].strings[tag] = s
	return nil
}

// Field returns the values of a numeric tag of the current directory.
func (c *File) Field(tag Tag) ([]uint32, bool) {
	if c.closed {
		return nil, false
	}
	v, ok := c.dirs[c.cur].fields[tag]
	return v, ok
}

// String returns the value of an ASCII tag of the current directory.
func (c *File) String(tag Tag) (string, bool) {
	if c.closed {
		return "", false
	}
	s, ok := c.dirs[c.cur].strings[tag]
	return s, ok
}

// DefaultStripSize returns the rows per strip to use when the caller has no
// preference: request itself when positive, otherwise about 8 KiB worth of
// rows for the tags set so far.
func (c *File) DefaultStripSize(request uint32) uint32 {
	return c.dirs[c.cur].defaultStripSize(request)
}

// NumberOfStrips returns the number of strips of the current directory.
func (c *File) NumberOfStrips() uint32 {
	return c.dirs[c.cur].numberOfStrips()
}

// TransferStrip moves one strip between buf and the file. Writing stores all
// of buf as the strip's data; reading fills at most len(buf) bytes. The number
// of bytes moved is returned.
func (c *File) TransferStrip(strip uint32, buf []byte, dir Direction) (int, error) {
	if err := c.check(dir); err != nil {
		return 0, err
	}
	d := c.dirs[c.cur]
	if n := d.numberOfStrips(); strip >= n {
		return 0, fmt.Errorf("%w: %d of %d", ErrStripIndex, strip, n)
	}

	if dir == Write {
		if c.end+int64(len(buf)) > math.MaxUint32 {
			return 0, fmt.Errorf("%w: strip %d ends at %d", ErrTooLarge, strip, c.end+int64(len(buf)))
		}
		if _, err := c.f.WriteAt(buf, c.end); err != nil {
			return 0, fmt.Errorf("failed to write strip %d: %w", strip, err)
		}
		d.strips[strip] = stripRef{offset: uint32(c.end), count: uint32(len(buf))}
		c.end += int64(len(buf))
		return len(buf), nil
	}

	offset := d.fields[TagStripOffsets][strip]
	count := int(d.fields[TagStripByteCounts][strip])
	if count > len(buf) {
		count = len(buf)
	}
	n, err := c.f.ReadAt(buf[:count], int64(offset))
	if err != nil && !(errors.Is(err, io.EOF) && n == count) {
		return n, fmt.Errorf("failed to read strip %d: %w", strip, err)
	}
	return n, nil
}

// WriteDirectory finishes the current page and starts a new, empty one.
func (c *File) WriteDirectory() error {
	if err := c.check(Write); err != nil {
		return err
	}
	if err := c.writeIFD(c.dirs[c.cur]); err != nil {
		return err
	}
	c.dirs = append(c.dirs, newDirectory())
	c.cur++
	return nil
}

// DirectoryCount returns the number of directories in the file. When writing,
// the page in progress is included.
func (c *File) DirectoryCount() int {
	return len(c.dirs)
}

// SetDirectory selects the page that tag queries and strip reads refer to.
func (c *File) SetDirectory(n int) error {
	if err := c.check(Read); err != nil {
		return err
	}
	if n < 0 || n >= len(c.dirs) {
		return fmt.Errorf("%w: %d of %d", ErrDirectory, n, len(c.dirs))
	}
	c.cur = n
	return nil
}

func (c *File) check(mode Direction) error {
	if c.closed {
		return ErrClosed
	}
	if c.mode != mode {
		return fmt.Errorf("%w: %s on a file opened for %s", ErrMode, mode, c.mode)
	}
	return nil
}

type ifdEntry struct {
	tag    Tag
	typ    dataType
	count  uint32
	values []byte
}

// writeIFD appends d's directory to the file and links it into the chain.
func (c *File) writeIFD(d *directory) error {
	nstrips := d.numberOfStrips()
	offsets := make([]uint32, nstrips)
	counts := make([]uint32, nstrips)
	for i, ref := range d.strips {
		if i < nstrips {
			offsets[i] = ref.offset
			counts[i] = ref.count
		}
	}

	var entries []ifdEntry
	for tag, v := range d.fields {
		if tag == TagBitsPerSample && len(v) == 1 {
			// One BitsPerSample value per sample.
			spp := d.value(TagSamplesPerPixel, 1)
			for uint32(len(v)) < spp {
				v = append(v, v[0])
			}
		}
		entries = append(entries, c.numericEntry(tag, tagTypes[tag], v))
	}
	for tag, s := range d.strings {
		values := append([]byte(s), 0)
		entries = append(entries, ifdEntry{tag: tag, typ: dtASCII, count: uint32(len(values)), values: values})
	}
	entries = append(entries,
		c.numericEntry(TagStripOffsets, dtLong, offsets),
		c.numericEntry(TagStripByteCounts, dtLong, counts),
	)
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	ifdSize := int64(2 + ifdEntryLen*len(entries) + 4)
	for _, e := range entries {
		if len(e.values) > 4 {
			ifdSize += int64(len(e.values) + len(e.values)%2)
		}
	}
	if end := c.end + c.end%2 + ifdSize; end > math.MaxUint32 {
		return fmt.Errorf("%w: directory ends at %d", ErrTooLarge, end)
	}

	// IFDs begin on a word boundary.
	if c.end%2 == 1 {
		if _, err := c.f.WriteAt([]byte{0}, c.end); err != nil {
			return fmt.Errorf("failed to write directory: %w", err)
		}
		c.end++
	}

	ifdOffset := c.end
	dataOffset := ifdOffset + int64(2+ifdEntryLen*len(entries)+4)

	var ifd, extra bytes.Buffer
	c.put16(&ifd, uint16(len(entries)))
	for _, e := range entries {
		c.put16(&ifd, uint16(e.tag))
		c.put16(&ifd, uint16(e.typ))
		c.put32(&ifd, e.count)
		if len(e.values) <= 4 {
			var inline [4]byte
			copy(inline[:], e.values)
			ifd.Write(inline[:])
			continue
		}
		c.put32(&ifd, uint32(dataOffset)+uint32(extra.Len()))
		extra.Write(e.values)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	nextLink := ifdOffset + int64(ifd.Len())
	c.put32(&ifd, 0)

	if _, err := c.f.WriteAt(append(ifd.Bytes(), extra.Bytes()...), ifdOffset); err != nil {
		return fmt.Errorf("failed to write directory: %w", err)
	}

	link := make([]byte, 4)
	c.order.PutUint32(link, uint32(ifdOffset))
	if _, err := c.f.WriteAt(link, c.nextLink); err != nil {
		return fmt.Errorf("failed to link directory: %w", err)
	}

	c.nextLink = nextLink
	c.end = dataOffset + int64(extra.Len())
	return nil
}

func (c *File) numericEntry(tag Tag, typ dataType, v []uint32) ifdEntry {
	var buf bytes.Buffer
	for _, x := range v {
		switch typ {
		case dtByte:
			buf.WriteByte(byte(x))
		case dtShort:
			c.put16(&buf, uint16(x))
		default:
			c.put32(&buf, x)
		}
	}
	return ifdEntry{tag: tag, typ: typ, count: uint32(len(v)), values: buf.Bytes()}
}

func (c *File) put16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	c.order.PutUint16(b[:], v)
	buf.Write(b[:])
}

func (c *File) put32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	c.order.PutUint32(b[:], v)
	buf.Write(b[:])
}

// parse reads the header and every directory in the chain.
func (c *File) parse() error {
	header := make([]byte, 8)
	if _, err := c.f.ReadAt(header, 0); err != nil {
		return fmt.Errorf("%w: short header", ErrFormat)
	}
	switch string(header[:4]) {
	case leHeader:
		c.order = binary.LittleEndian
	case beHeader:
		c.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: bad header", ErrFormat)
	}

	seen := make(map[uint32]bool)
	next := c.order.Uint32(header[4:8])
	for next != 0 {
		if seen[next] || len(c.dirs) >= maxDirectories {
			return fmt.Errorf("%w: directory chain loops", ErrFormat)
		}
		seen[next] = true

		d, link, err := c.parseIFD(next)
		if err != nil {
			return err
		}
		c.dirs = append(c.dirs, d)
		next = link
	}
	if len(c.dirs) == 0 {
		return fmt.Errorf("%w: no image directory", ErrFormat)
	}
	return nil
}

// within reports whether n bytes starting at offset lie inside the file.
func (c *File) within(offset, n uint64) bool {
	return offset <= uint64(c.size) && n <= uint64(c.size)-offset
}

func (c *File) parseIFD(offset uint32) (*directory, uint32, error) {
	if !c.within(uint64(offset), 2) {
		return nil, 0, fmt.Errorf("%w: directory at %d is past the end of the file", ErrFormat, offset)
	}
	var countBuf [2]byte
	if _, err := c.f.ReadAt(countBuf[:], int64(offset)); err != nil {
		return nil, 0, fmt.Errorf("%w: directory at %d: %v", ErrFormat, offset, err)
	}
	n := int(c.order.Uint16(countBuf[:]))
	if !c.within(uint64(offset)+2, uint64(n*ifdEntryLen+4)) {
		return nil, 0, fmt.Errorf("%w: directory at %d with %d entries is past the end of the file", ErrFormat, offset, n)
	}

	raw := make([]byte, n*ifdEntryLen+4)
	if _, err := c.f.ReadAt(raw, int64(offset)+2); err != nil {
		return nil, 0, fmt.Errorf("%w: directory at %d: %v", ErrFormat, offset, err)
	}

	d := newDirectory()
	for i := 0; i < n; i++ {
		p := raw[i*ifdEntryLen : (i+1)*ifdEntryLen]
		tag := Tag(c.order.Uint16(p[0:2]))
		typ := dataType(c.order.Uint16(p[2:4]))
		count := c.order.Uint32(p[4:8])
		if typ == 0 || int(typ) >= len(typeLengths) {
			// Types the container does not use (rationals, signed, ...).
			continue
		}

		size := uint64(count) * uint64(typeLengths[typ])
		var data []byte
		if size <= 4 {
			data = p[8 : 8+size]
		} else {
			at := c.order.Uint32(p[8:12])
			if !c.within(uint64(at), size) {
				return nil, 0, fmt.Errorf("%w: tag %d: %d values at %d are past the end of the file", ErrFormat, tag, count, at)
			}
			data = make([]byte, size)
			if _, err := c.f.ReadAt(data, int64(at)); err != nil {
				return nil, 0, fmt.Errorf("%w: tag %d: %v", ErrFormat, tag, err)
			}
		}

		if typ == dtASCII {
			d.strings[tag] = strings.TrimRight(string(data), "\x00")
			continue
		}
		values := make([]uint32, count)
		for j := range values {
			switch typ {
			case dtByte:
				values[j] = uint32(data[j])
			case dtShort:
				values[j] = uint32(c.order.Uint16(data[2*j:]))
			default:
				values[j] = c.order.Uint32(data[4*j:])
			}
		}
		d.fields[tag] = values
	}

	offsets, ok := d.fields[TagStripOffsets]
	if !ok {
		return nil, 0, fmt.Errorf("%w: directory at %d has no strips", ErrFormat, offset)
	}
	if counts := d.fields[TagStripByteCounts]; len(counts) != len(offsets) {
		return nil, 0, fmt.Errorf("%w: %d strip offsets but %d byte counts", ErrFormat, len(offsets), len(counts))
	}

	return d, c.order.Uint32(raw[n*ifdEntryLen:]), nil
}
