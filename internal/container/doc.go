// Package container implements the image container that strip transfers are
// addressed against: a baseline, uncompressed TIFF file made of one or more
// image file directories (IFDs, one per page), each describing a raster stored
// as independently addressable strips.
//
// The package deliberately knows nothing about how pixels are laid out inside
// a strip. Callers set and query numeric and ASCII tags, ask how many strips a
// directory holds, and move whole strips in and out of the file. Geometry,
// chroma packing and parameter validation live in the stripio package.
//
// # Writing
//
// A file opened with Create accepts tags and strips in any order. Strip data is
// appended to the file as it arrives; the directory itself (including the
// StripOffsets and StripByteCounts arrays) is written when the page is finished
// with WriteDirectory or when the file is closed. Output is always little-endian.
//
// # Reading
//
// Open parses every directory in the file up front. Both byte orders are
// accepted. SetDirectory selects the page that subsequent tag queries and strip
// reads refer to.
//
// # Thread Safety
//
// A File is not safe for concurrent use. Callers that share a file between
// goroutines must serialize access themselves.
package container
