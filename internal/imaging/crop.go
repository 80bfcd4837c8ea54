package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Region is a rectangle in image coordinates, X2 and Y2 exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// PreviewResult contains a PNG rendering of (part of) a decoded page
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// NamedRegion resolves a region name such as "top-left" or "center" against
// bounds. The empty name and "full" select the whole image.
func NamedRegion(bounds image.Rectangle, name string) (Region, error) {
	w, h := bounds.Dx(), bounds.Dy()
	midX, midY := w/2, h/2

	var r Region
	switch name {
	case "", "full":
		r = Region{0, 0, w, h}
	case "top-left":
		r = Region{0, 0, midX, midY}
	case "top-right":
		r = Region{midX, 0, w, midY}
	case "bottom-left":
		r = Region{0, midY, midX, h}
	case "bottom-right":
		r = Region{midX, midY, w, h}
	case "top-half":
		r = Region{0, 0, w, midY}
	case "bottom-half":
		r = Region{0, midY, w, h}
	case "center":
		r = Region{w / 4, h / 4, w - w/4, h - h/4}
	default:
		return Region{}, fmt.Errorf("unknown region: %s", name)
	}

	r.X1 += bounds.Min.X
	r.X2 += bounds.Min.X
	r.Y1 += bounds.Min.Y
	r.Y2 += bounds.Min.Y
	return r, nil
}

// Crop cuts region out of img and scales it. A nil region keeps the whole
// image; a scale of 1 or any non-positive scale keeps the size.
func Crop(img image.Image, region *Region, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	if region != nil {
		if region.X1 < bounds.Min.X || region.Y1 < bounds.Min.Y || region.X2 > bounds.Max.X || region.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
		}
		img = imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
	}

	if scale != 1.0 && scale > 0 {
		b := img.Bounds()
		newWidth := max(1, int(float64(b.Dx())*scale))
		newHeight := max(1, int(float64(b.Dy())*scale))
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}
	return img, nil
}

// Preview crops and scales img and encodes the result as base64 PNG.
func Preview(img image.Image, region *Region, scale float64) (*PreviewResult, error) {
	out, err := Crop(img, region, scale)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &PreviewResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
