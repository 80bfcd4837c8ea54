package stripio

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/tiffstrip/internal/container"
)

func TestWrite_RGBSample(t *testing.T) {
	s, fc := newFakeSession(rgbDescriptor())
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}

	image := make([]byte, 100*100*3)
	for i := range image {
		image[i] = byte(i)
	}

	n, err := Write(s, image, 0)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 30000 {
		t.Errorf("bytes written: got %d, want 30000", n)
	}

	// ceil(100 / 27) strips
	if diff := cmp.Diff([]uint32{0, 1, 2, 3}, fc.transfers); diff != "" {
		t.Errorf("strip order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{8100, 8100, 8100, 5700}, fc.sizes); diff != "" {
		t.Errorf("strip sizes (-want +got):\n%s", diff)
	}
	if got := fc.strips[3][0]; got != image[81*300] {
		t.Errorf("strip 3 starts with %d, want %d", got, image[81*300])
	}
}

func TestWrite_YUVStripsHoldWholeChromaBlocks(t *testing.T) {
	tests := []struct {
		s          Subsampling
		width      uint32
		height     uint32
		wantRows   []int
		wantSizes  []int
		wantSample int
	}{
		// 4:2:0, 8 wide, 40 rows: strips of 16, 16, 8.
		{YUV420, 8, 40, []int{16, 16, 8}, []int{192, 192, 96}, 480},
		// 4:1:0, 6x33 pads to 8x36: strips of 32 and 4.
		{YUV410, 6, 33, []int{32, 4}, []int{256 + 32, 32 + 4}, 324},
	}

	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			d := rgbDescriptor()
			d.Width, d.Height, d.Color, d.Subsampling = tt.width, tt.height, YUV, tt.s
			s, fc := newFakeSession(d)
			if err := s.SetTags(); err != nil {
				t.Fatalf("SetTags failed: %v", err)
			}

			plan, err := s.Plan(0)
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			var rows []int
			for _, st := range plan {
				rows = append(rows, st.Rows)
			}
			if diff := cmp.Diff(tt.wantRows, rows); diff != "" {
				t.Errorf("rows (-want +got):\n%s", diff)
			}
			if got := PlanSamples(plan); got != tt.wantSample {
				t.Errorf("PlanSamples: got %d, want %d", got, tt.wantSample)
			}

			n, err := Write(s, make([]byte, tt.wantSample), 0)
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if n != tt.wantSample {
				t.Errorf("bytes written: got %d, want %d", n, tt.wantSample)
			}
			if diff := cmp.Diff(tt.wantSizes, fc.sizes); diff != "" {
				t.Errorf("strip sizes (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_PlanarStripIndices(t *testing.T) {
	d := rgbDescriptor()
	d.Plane = Planar
	s, fc := newFakeSession(d)
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}
	// 4 strips per component, 12 in total.
	if n := fc.NumberOfStrips(); n != 12 {
		t.Fatalf("NumberOfStrips: got %d, want 12", n)
	}

	plane := make([]byte, 100*100)
	for comp := 0; comp < 3; comp++ {
		fc.transfers, fc.sizes = nil, nil
		n, err := Write(s, plane, comp)
		if err != nil {
			t.Fatalf("Write(comp %d) failed: %v", comp, err)
		}
		if n != 10000 {
			t.Errorf("comp %d: wrote %d bytes, want 10000", comp, n)
		}
		base := uint32(4 * comp)
		want := []uint32{base, base + 1, base + 2, base + 3}
		if diff := cmp.Diff(want, fc.transfers); diff != "" {
			t.Errorf("comp %d strip indices (-want +got):\n%s", comp, diff)
		}
		if diff := cmp.Diff([]int{2700, 2700, 2700, 1900}, fc.sizes); diff != "" {
			t.Errorf("comp %d strip sizes (-want +got):\n%s", comp, diff)
		}
	}

	if _, err := Write(s, plane, 3); !errors.Is(err, ErrConfiguration) {
		t.Errorf("component 3 of 3: got %v, want ErrConfiguration", err)
	}
}

func TestWrite_PlanarIgnoresSubsampling(t *testing.T) {
	d := rgbDescriptor()
	d.Width, d.Height = 7, 5
	d.Color, d.Subsampling, d.Plane = YUV, YUV420, Planar

	strips, err := Plan(d, 16, 3, 1)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	want := []Strip{{Index: 1, Row: 0, Rows: 5, Samples: 35, Component: 1}}
	if diff := cmp.Diff(want, strips); diff != "" {
		t.Errorf("plan (-want +got):\n%s", diff)
	}
}

func TestWrite_AbortsOnFailedStrip(t *testing.T) {
	s, fc := newFakeSession(rgbDescriptor())
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}
	fc.failAt = 2

	n, err := Write(s, make([]byte, 30000), 0)
	if !errors.Is(err, ErrContainer) || !errors.Is(err, errInjected) {
		t.Fatalf("got %v, want ErrContainer wrapping the strip error", err)
	}
	if n != 16200 {
		t.Errorf("bytes reported before the failure: got %d, want 16200", n)
	}
	if diff := cmp.Diff([]uint32{0, 1, 2}, fc.transfers); diff != "" {
		t.Errorf("transfers (-want +got):\n%s", diff)
	}
	// Strips before the failure are left in place.
	if len(fc.strips) != 2 {
		t.Errorf("strips kept: got %d, want 2", len(fc.strips))
	}
}

func TestTransfer_NegativeCountAborts(t *testing.T) {
	for _, dir := range []container.Direction{container.Write, container.Read} {
		t.Run(dir.String(), func(t *testing.T) {
			s, fc := newFakeSession(rgbDescriptor())
			if err := s.SetTags(); err != nil {
				t.Fatalf("SetTags failed: %v", err)
			}
			if dir == container.Read {
				if _, err := Write(s, make([]byte, 30000), 0); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				fc.transfers = nil
			}
			fc.negAt = 1

			var n int
			var err error
			if dir == container.Write {
				n, err = Write(s, make([]byte, 30000), 0)
			} else {
				n, err = Read(s, make([]byte, 30000), 0)
			}
			if !errors.Is(err, ErrTruncated) {
				t.Fatalf("got %v, want ErrTruncated", err)
			}
			if n != 8100 {
				t.Errorf("bytes reported before the failure: got %d, want 8100", n)
			}
			if diff := cmp.Diff([]uint32{0, 1}, fc.transfers); diff != "" {
				t.Errorf("transfers (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_ShortStripIsTruncation(t *testing.T) {
	s, fc := newFakeSession(rgbDescriptor())
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}
	fc.shortBy = 1

	_, err := Read(s, make([]byte, 30000), 0)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("got %v, want ErrTruncated", err)
	}
	if len(fc.transfers) != 1 {
		t.Errorf("transfers after truncation: got %d, want 1", len(fc.transfers))
	}
}

func TestWrite_BufferChecks(t *testing.T) {
	s, _ := newFakeSession(rgbDescriptor())
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}
	if _, err := Write(s, make([]byte, 29999), 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("short buffer: got %v, want ErrConfiguration", err)
	}

	d := rgbDescriptor()
	d.Depth = 12
	s, _ = newFakeSession(d)
	if err := s.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}
	if _, err := Write(s, make([]byte, 30000), 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("12-bit samples in bytes: got %v, want ErrConfiguration", err)
	}
}

func TestPlan_Rejects(t *testing.T) {
	if _, err := Plan(rgbDescriptor(), 0, 1, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero rows per strip: got %v, want ErrConfiguration", err)
	}
	if _, err := Plan(Descriptor{}, 16, 1, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("zero descriptor: got %v, want ErrConfiguration", err)
	}

	tall := NewDescriptor()
	tall.Width, tall.Height, tall.Depth, tall.Components, tall.Color = 1, MaxStrips+1, 8, 1, Mono
	if _, err := Plan(tall, 1, MaxStrips+1, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("%d one-row strips: got %v, want ErrConfiguration", MaxStrips+1, err)
	}
	strips, err := Plan(tall, 2, MaxStrips/2+1, 0)
	if err != nil {
		t.Fatalf("two-row strips: %v", err)
	}
	if len(strips) != MaxStrips/2+1 {
		t.Errorf("two-row strips: got %d, want %d", len(strips), MaxStrips/2+1)
	}
	if _, err := Plan(rgbDescriptor(), math.MaxInt, 1, 0); err != nil {
		t.Errorf("huge rows per strip: %v", err)
	}
}

func TestWriteRead_ThroughFile(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
	}{
		{"rgb8 packed", rgbDescriptor()},
		{"mono16", Descriptor{Kind: Single, Width: 33, Height: 21, Depth: 16, Components: 1, Color: Mono, Plane: Packed, Subsampling: YUV444}},
		{"cmyk planar", Descriptor{Kind: Single, Width: 13, Height: 300, Depth: 8, Components: 4, Color: CMYK, Plane: Planar, Subsampling: YUV444}},
		{"yuv420", Descriptor{Kind: Single, Width: 9, Height: 35, Depth: 8, Components: 3, Color: YUV, Plane: Packed, Subsampling: YUV420}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "image.tif")
			if tt.d.Depth > 8 {
				roundTrip[uint16](t, path, tt.d)
			} else {
				roundTrip[uint8](t, path, tt.d)
			}
		})
	}
}

func roundTrip[T Sample](t *testing.T, path string, d Descriptor) {
	t.Helper()

	planes := 1
	if d.Plane == Planar {
		planes = int(d.Components)
	}

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.SetDescriptor(d)
	if err := w.SetTags(); err != nil {
		t.Fatalf("SetTags failed: %v", err)
	}

	var written [][]T
	for comp := 0; comp < planes; comp++ {
		plan, err := w.Plan(comp)
		if err != nil {
			t.Fatalf("Plan failed: %v", err)
		}
		data := make([]T, PlanSamples(plan))
		for i := range data {
			data[i] = T(i*31 + comp*7)
		}
		if _, err := Write(w, data, comp); err != nil {
			t.Fatalf("Write(comp %d) failed: %v", comp, err)
		}
		written = append(written, data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if err := r.GetTags(); err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}

	for comp := 0; comp < planes; comp++ {
		got := make([]T, len(written[comp]))
		n, err := Read(r, got, comp)
		if err != nil {
			t.Fatalf("Read(comp %d) failed: %v", comp, err)
		}
		var zero T
		if want := len(got) * binarySize(zero); n != want {
			t.Errorf("comp %d: read %d bytes, want %d", comp, n, want)
		}
		if diff := cmp.Diff(written[comp], got); diff != "" {
			t.Errorf("comp %d data (-want +got):\n%s", comp, diff)
		}
	}
}

func binarySize[T Sample](v T) int {
	if _, ok := any(v).(uint16); ok {
		return 2
	}
	return 1
}

func TestSession_MultiPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.tif")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for page := 0; page < 2; page++ {
		if page > 0 {
			if err := w.NextPage(); err != nil {
				t.Fatalf("NextPage failed: %v", err)
			}
		}
		d := rgbDescriptor()
		d.Kind = Multi
		d.Width = uint32(10 + page)
		w.SetDescriptor(d)
		if err := w.SetTags(); err != nil {
			t.Fatalf("SetTags failed: %v", err)
		}
		data := make([]byte, int(d.Width)*100*3)
		for i := range data {
			data[i] = byte(page + 1)
		}
		if _, err := Write(w, data, 0); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if n := r.PageCount(); n != 2 {
		t.Fatalf("PageCount: got %d, want 2", n)
	}
	for page := 0; page < 2; page++ {
		if err := r.SetPage(page); err != nil {
			t.Fatalf("SetPage(%d) failed: %v", page, err)
		}
		d := r.Descriptor()
		if d.Kind != Multi || d.Width != uint32(10+page) {
			t.Errorf("page %d: got kind %s width %d", page, d.Kind, d.Width)
		}
		data := make([]byte, int(d.Width)*100*3)
		if _, err := Read(r, data, 0); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if data[len(data)-1] != byte(page+1) {
			t.Errorf("page %d: last sample %d, want %d", page, data[len(data)-1], page+1)
		}
	}
	if err := r.SetPage(2); !errors.Is(err, ErrContainer) || !errors.Is(err, container.ErrDirectory) {
		t.Errorf("SetPage(2): got %v, want ErrContainer wrapping ErrDirectory", err)
	}
}
