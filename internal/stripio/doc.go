// Package stripio maps a logical image onto the strips of a TIFF container.
//
// A Descriptor carries the image parameters: dimensions, bit depth, number of
// components, colour model, plane layout, chroma subsampling and whether the
// image is a standalone file or one page of a multi-page file. It is a plain
// value that callers fill in field by field and copy freely.
//
// A Session owns one open container. SetTags validates the session's
// Descriptor and writes it as TIFF tags; GetTags does the reverse. Write and
// Read move a whole image (or, for planar images, one component plane) through
// the container one strip at a time.
//
// # Strip Geometry
//
// Packed images are walked over their padded height: each dimension is rounded
// up to a whole number of chroma blocks, so a YUV 4:2:0 image that is 7 rows
// tall is transferred as 8 rows. A packed YUV strip holds nrows*paddedWidth
// luma samples plus two chroma samples per chroma block. Other colour models
// hold nrows*width*components samples.
//
// Planar images are transferred one component at a time. The container's
// strips are split evenly between components and each component strip holds
// nrows*width samples of that component. Chroma subsampling is not applied to
// planar transfers.
//
// Rows per strip are forced to 16 for YUV 4:2:0 and 32 for YUV 4:1:0 so that a
// chroma block never straddles two strips. Other images use the container's
// default strip size.
//
// # Errors
//
// Failures wrap one of three sentinels: ErrConfiguration for a Descriptor or
// buffer that cannot be used, ErrContainer when the container rejects a call,
// and ErrTruncated when a strip moves fewer bytes than its size. None of them
// are retried. A failed Write leaves the strips already written in the file:
// the container has no multi-strip transaction, so a write failure may leave a
// partially written file behind.
//
// # Thread Safety
//
// A Session is owned by one goroutine for its whole life. Descriptors are
// values and may be shared freely.
package stripio
