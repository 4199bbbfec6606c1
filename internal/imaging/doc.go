// Package imaging provides the pixel-level operations behind raster template
// extraction and template previews.
//
// This package implements page image loading (with a shared cache),
// greyscale conversion, Sobel gradients, edge-mask encoding, label cropping
// and template overlays. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// Pixel coordinates are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Template coordinates are in PDF points. Functions that combine a template
// with a page raster take the raster resolution in DPI and map points to
// pixels by dpi/72.
//
// # Buffers
//
// Greyscale images and gradients are row-major [][]float64 buffers indexed
// [y][x], with luminance in [0, 1] (0 = black ink, 1 = white paper).
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Performance Considerations
//
// Page rasters at print resolution are large. Use ImageCache to avoid
// redundant disk reads, and Evict() pages once they are no longer needed.
package imaging
