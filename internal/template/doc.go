// Package template defines the label template data model shared by the
// detectors and the circle lattice synthesizer.
//
// A Template describes a repeating label layout on a single page: the page
// size, the grid (rows, columns, pitch), the label shape and size, two
// registration anchors and the ordered label centers. All geometry is in PDF
// points (1/72 inch) with the origin at the top-left corner of the page, X
// increasing rightward and Y increasing downward.
//
// # Construction
//
// Templates are built with New, which validates every component and sorts the
// centers row-major (Y ascending, then X ascending). Construction is
// all-or-nothing: New either returns a complete, valid Template or an error
// wrapping ErrInvalidTemplate. A Template is never modified after
// construction; accessors return copies.
//
// # Negative Results
//
// Detectors that find no usable grid return ErrNoTemplate. It marks the
// legitimate absence of a template, not a failure, and callers typically
// react by trying another detector. Fatal conditions (bad parameters, missing
// files, out-of-range pages) use other errors.
//
// # Coordinate Spaces
//
// Centers can be exported in four coordinate spaces:
//   - points: raw PDF points
//   - inches: points / 72
//   - mm: points * 25.4 / 72
//   - percent_width: points * 100 / page width (both axes)
//
// All conversions are linear and invertible; see ToSpace and FromSpace.
package template
