// Package export turns a raster buffer into a transport-safe image payload.
//
// The pipeline is crop, scale, encode: an optional region of the canvas is
// clamped to the buffer bounds and cropped; an optional target size is
// applied with center-inside semantics (aspect ratio preserved, output
// bounded by the target, never padded or stretched); the result is encoded
// as PNG and base64. Alongside the pixels, the result reports the original
// and final dimensions and exactly which transforms ran, so callers can
// map coordinates between the export and the source canvas.
//
// # Coordinate System
//
// Region coordinates are source pixels with (0,0) at the top-left corner.
// Negative origins and oversized regions are legal; they clip to the
// canvas. Only a region with no overlap at all is rejected.
//
// # Encoding Robustness
//
// Encoding tries a primary PNG encoder and falls back to a second
// implementation before reporting failure, so a single encoder bug cannot
// make the canvas unexportable.
package export
