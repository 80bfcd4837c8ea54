// Package server implements the MCP (Model Context Protocol) server that exposes
// strip TIFF writing and inspection as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - tiff_source_info: size, format and lossless layout of a source image
//   - tiff_write: convert source images into a (multi-page) strip TIFF
//   - tiff_info: parameters, chroma geometry, strip layout and digest per page
//   - tiff_strip_plan: strip sequence of an image without writing it
//   - tiff_export: render a page (or a region of it) as PNG
//
// Image parameters are passed by name, e.g. "color": "yuv",
// "subsampling": "420", "plane": "planar".
//
// # Image Caching
//
// Source images are cached by path for the lifetime of the process. A cached
// image is decoded again when its file changes on disk.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the Go error string
//
// # Logging
//
// Requests that cannot be parsed are logged to stderr. With
// TIFFSTRIP_LOG_LEVEL=debug every tool call and its failure is logged too.
package server
