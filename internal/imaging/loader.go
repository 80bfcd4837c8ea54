package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/ironsheep/tiffstrip/internal/stripio"
)

// ImageCache keeps decoded source images keyed by path.
//
// An entry is reused only while the file's size and modification time are
// unchanged, so a source that is rewritten on disk is decoded again on the
// next Load.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	img     image.Image
	size    int64
	modTime time.Time
}

// NewImageCache creates an empty cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[string]cacheEntry),
	}
}

// Load returns the decoded image at path. PNG, JPEG, GIF, BMP, WebP and
// baseline TIFF sources are supported. EXIF orientation is not applied.
func (c *ImageCache) Load(path string) (image.Image, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && e.size == stat.Size() && e.modTime.Equal(stat.ModTime()) {
		return e.img, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{img: img, size: stat.Size(), modTime: stat.ModTime()}
	c.mu.Unlock()

	return img, nil
}

// Evict drops path from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SourceInfo describes a source image and the Descriptor that stores it
// without losing information.
type SourceInfo struct {
	Width     int                `json:"width"`
	Height    int                `json:"height"`
	Format    string             `json:"format"`
	Suggested stripio.Descriptor `json:"suggested"`
}

// Describe loads the image at path and suggests a Descriptor for it.
func Describe(cache *ImageCache, path string) (*SourceInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".webp":
		format = "webp"
	case ".tif", ".tiff":
		format = "tiff"
	}

	bounds := img.Bounds()
	return &SourceInfo{
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Format:    format,
		Suggested: SuggestDescriptor(img),
	}, nil
}

// SuggestDescriptor picks the colour model, depth and subsampling that match
// the concrete type of img: grey images become Mono, JPEG-style YCbCr images
// keep their chroma subsampling, 16-bit images keep 16 bits.
func SuggestDescriptor(img image.Image) stripio.Descriptor {
	bounds := img.Bounds()
	d := stripio.NewDescriptor()
	d.Width = uint32(bounds.Dx())
	d.Height = uint32(bounds.Dy())
	d.Depth = 8
	d.Components = 3
	d.Color = stripio.RGB

	switch src := img.(type) {
	case *image.Gray:
		d.Components, d.Color = 1, stripio.Mono
	case *image.Gray16:
		d.Components, d.Color, d.Depth = 1, stripio.Mono, 16
	case *image.RGBA64, *image.NRGBA64:
		d.Depth = 16
	case *image.CMYK:
		d.Components, d.Color = 4, stripio.CMYK
	case *image.YCbCr:
		d.Color = stripio.YUV
		switch src.SubsampleRatio {
		case image.YCbCrSubsampleRatio444:
			d.Subsampling = stripio.YUV444
		case image.YCbCrSubsampleRatio422:
			d.Subsampling = stripio.YUV422
		case image.YCbCrSubsampleRatio411:
			d.Subsampling = stripio.YUV411
		default:
			d.Subsampling = stripio.YUV420
		}
	}
	return d
}
