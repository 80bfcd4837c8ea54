// Package imaging bridges Go's image.Image world and the sample buffers that
// strip transfers move.
//
// Encode turns a decoded source image into the buffers a stripio transfer of a
// given Descriptor expects, and Decode turns buffers read back from a file into
// an image.Image again. Both work on 8-bit and 16-bit sample types.
//
// # Buffer Layout
//
// A Packed Descriptor yields exactly one buffer:
//   - Mono, RGB, CMYK: components interleaved per pixel, rows top to bottom
//   - YUV: chroma blocks interleaved as produced by yuv.Pack
//
// A Planar Descriptor yields one buffer per component, each width*height
// samples. Planar YUV planes are full resolution; subsampling is only applied
// to packed YUV.
//
// # Colour Conversion
//
// Sources are read as 16-bit RGB and scaled to the Descriptor's bit depth:
//   - Mono: relative luminance of the linear RGB values, re-companded to sRGB
//   - CMYK: naive complement with black extraction
//   - YUV: full-range BT.601 (JFIF) YCbCr; packed chroma is the mean over the
//     block's pixels inside the image
//
// The conversions exist to feed the sample driver and the server; the strip
// core itself never converts colour.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Encode, Decode and Preview are
// stateless.
package imaging
