// Package render is the boundary between label templates and the documents
// they are detected in.
//
// A Document exposes, per page, the physical page size, the vector drawings
// (each a bounding rectangle plus the path primitives that drew it) and a
// rasterised bitmap at a requested resolution. Two sources are supported:
//
//   - Image files (PNG, JPEG, GIF, TIFF, BMP): a single page whose size in
//     points is the pixel size scaled by 72/dpi. They carry no drawings.
//   - Page descriptions (YAML or JSON): pages of vector drawings in PDF
//     point coordinates, rasterised in-process with golang.org/x/image/vector.
//
// PDF files are reported as ErrUnsupportedFormat; an external renderer is
// expected to turn them into one of the formats above.
//
// Coordinates use the PDF-page convention: origin at the top-left, x to the
// right, y down, 72 points per inch.
package render
