// Package detection infers rectangular label templates from rendered or
// vector page content.
//
// Two detectors share the grid inference engine in package grid and differ
// in how candidates are found:
//
//   - DetectVector reads the bounding rectangles of vector drawings. It is
//     exact and also estimates the corner radius of rounded labels.
//   - DetectRaster finds label outlines in a bitmap with Sobel gradients,
//     morphology and connected components. It works on scans and on sources
//     that carry no vector content.
//
// Both return an error wrapping template.ErrNoTemplate when the page holds
// nothing that looks like a label grid. Callers treat that as a negative
// result and may try the other detector.
//
// # Raster Pipeline
//
//  1. Greyscale: per-source luminance weights (see imaging.Luma).
//  2. Gradients: 3x3 Sobel with edge-replicated borders.
//  3. Threshold: magnitude at or above max(p92, mean+std), never against a zero threshold.
//  4. Morphology: two dilations, two erosions, one dilation.
//  5. Components: 4-connected, at least MinComponentPixels pixels.
//  6. Refinement: box edges snap to gradient peaks.
//  7. Scaling and outlier filtering, then grid inference.
//
// # Coordinate System
//
// Pixel boxes use (row, column) with the origin at the top-left. Candidates
// and templates are in PDF points (1/72 inch), also top-left origin with Y
// increasing downward.
package detection
