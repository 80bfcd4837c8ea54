package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreview(t *testing.T) {
	img := gradientImage(100, 100)

	result, err := Preview(img, &Region{0, 0, 50, 40}, 1.0)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if result.Width != 50 || result.Height != 40 {
		t.Errorf("dimensions: got %dx%d, want 50x40", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 40 {
		t.Errorf("png bounds: got %v, want 50x40", decoded.Bounds())
	}
}

func TestPreview_WholeImageScaled(t *testing.T) {
	img := solidImage(100, 60, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name  string
		scale float64
		w, h  int
	}{
		{"unscaled", 1.0, 100, 60},
		{"zero scale keeps size", 0, 100, 60},
		{"up 2x", 2.0, 200, 120},
		{"down 0.5x", 0.5, 50, 30},
		{"tiny never collapses", 0.001, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Preview(img, nil, tt.scale)
			if err != nil {
				t.Fatalf("Preview failed: %v", err)
			}
			if result.Width != tt.w || result.Height != tt.h {
				t.Errorf("dimensions: got %dx%d, want %dx%d", result.Width, result.Height, tt.w, tt.h)
			}
		})
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	img := solidImage(100, 100, color.White)

	tests := []struct {
		name   string
		region Region
	}{
		{"x1 negative", Region{-1, 0, 50, 50}},
		{"y1 negative", Region{0, -1, 50, 50}},
		{"x2 too large", Region{0, 0, 101, 50}},
		{"y2 too large", Region{0, 0, 50, 101}},
		{"empty", Region{10, 10, 10, 20}},
		{"inverted", Region{50, 50, 10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Crop(img, &tt.region, 1.0); err == nil {
				t.Error("Crop should fail")
			}
		})
	}
}

func TestCrop_KeepsPixels(t *testing.T) {
	img := gradientImage(20, 20)

	out, err := Crop(img, &Region{5, 6, 9, 10}, 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("bounds: got %v, want 4x4", out.Bounds())
	}
	assertClose(t, 0, 0, img.At(5, 6), out.At(0, 0), 0)
	assertClose(t, 3, 3, img.At(8, 9), out.At(3, 3), 0)
}

func TestNamedRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)

	tests := []struct {
		name string
		want Region
	}{
		{"", Region{0, 0, 100, 80}},
		{"full", Region{0, 0, 100, 80}},
		{"top-left", Region{0, 0, 50, 40}},
		{"top-right", Region{50, 0, 100, 40}},
		{"bottom-left", Region{0, 40, 50, 80}},
		{"bottom-right", Region{50, 40, 100, 80}},
		{"top-half", Region{0, 0, 100, 40}},
		{"bottom-half", Region{0, 40, 100, 80}},
		{"center", Region{25, 20, 75, 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NamedRegion(bounds, tt.name)
			if err != nil {
				t.Fatalf("NamedRegion failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	if _, err := NamedRegion(bounds, "middle-ish"); err == nil {
		t.Error("unknown region should fail")
	}
}

func TestNamedRegion_OffsetBounds(t *testing.T) {
	got, err := NamedRegion(image.Rect(10, 20, 110, 100), "top-left")
	if err != nil {
		t.Fatalf("NamedRegion failed: %v", err)
	}
	if want := (Region{10, 20, 60, 60}); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Save(solidImage(7, 5, color.Black), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	back, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	if back.Bounds().Dx() != 7 || back.Bounds().Dy() != 5 {
		t.Errorf("bounds: got %v, want 7x5", back.Bounds())
	}

	if err := Save(solidImage(1, 1, color.Black), filepath.Join(t.TempDir(), "out.unknown")); err == nil {
		t.Error("unknown extension should fail")
	}
}
