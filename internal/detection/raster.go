package detection

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/label-templator/internal/grid"
	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/render"
	"github.com/ironsheep/label-templator/internal/template"
)

const (
	// minLabelPt is the smallest label side, in points, kept after scaling.
	minLabelPt = 4.0

	// Boxes outside [sizeBandLow, sizeBandHigh] times the median width or
	// height are dropped as outliers.
	sizeBandLow  = 0.6
	sizeBandHigh = 1.4
)

// EdgeMask computes the cleaned binary edge mask of a greyscale page and
// returns it with the gradient it was derived from.
//
// The magnitude is thresholded with EdgeThreshold, then closed (two
// dilations, two erosions) and dilated once more to bridge small gaps in
// label outlines.
func EdgeMask(gray [][]float64) ([][]bool, *imaging.Gradient) {
	g := imaging.Sobel(gray)
	mask := Threshold(g.Magnitude, EdgeThreshold(g.Magnitude))
	mask = Erode(Dilate(mask, 2), 2)
	return Dilate(mask, 1), g
}

// DetectRaster infers a rectangular label template from a rendered page.
//
// Parameters:
//   - page: Rendered page with its DPI and physical size.
//
// Returns:
//   - *template.Template: The inferred template with metadata
//     extraction=raster and dpi.
//   - error: Wraps template.ErrNoTemplate when no label outlines are found.
//     Any other error is fatal.
//
// # Algorithm
//
//  1. Greyscale and Sobel gradients (see EdgeMask).
//  2. Threshold, morphological closing and dilation.
//  3. 4-connected components of at least MinComponentPixels pixels.
//  4. Each component box is snapped to the strongest gradient columns and
//     rows in its left/right and top/bottom halves.
//  5. Boxes are converted to points; sides under 4pt are dropped.
//  6. Boxes outside 0.6 to 1.4 times the median size are dropped, unless
//     that would drop them all.
//  7. Grid inference with grid.RasterTolerance.
func DetectRaster(page *render.RasterPage) (*template.Template, error) {
	candidates, err := RasterCandidates(page)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no label outlines found in raster", template.ErrNoTemplate)
	}

	layout, err := grid.Infer(candidates, grid.RasterTolerance)
	if err != nil {
		return nil, err
	}

	return layout.Template(page.Page, map[string]string{
		"extraction": "raster",
		"dpi":        strconv.FormatFloat(page.DPI, 'f', -1, 64),
	})
}

// RasterCandidates runs the raster pipeline up to grid inference and returns
// the surviving candidates in points.
func RasterCandidates(page *render.RasterPage) ([]grid.Candidate, error) {
	if page == nil || page.Image == nil {
		return nil, fmt.Errorf("%w: raster page has no image", template.ErrInvalidParameter)
	}
	if page.DPI <= 0 {
		return nil, fmt.Errorf("%w: dpi must be positive, got %g", template.ErrInvalidParameter, page.DPI)
	}
	if err := page.Page.Validate(); err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(page.Image, page.Luma)
	mask, g := EdgeMask(gray)

	scale := page.Scale()
	var candidates []grid.Candidate
	for _, box := range Components(mask, MinComponentPixels) {
		c, ok := toCandidate(Refine(box, g), scale)
		if ok {
			candidates = append(candidates, c)
		}
	}
	return FilterBySize(candidates), nil
}

// Refine snaps a component box to the label outline: the left and right
// edges move to the columns of strongest horizontal gradient in each half
// of the box, and likewise for the top and bottom rows. A box with no
// gradient in either direction is returned unchanged.
func Refine(box Box, g *imaging.Gradient) Box {
	colProfile := make([]float64, box.Width())
	rowProfile := make([]float64, box.Height())

	for r := box.MinRow; r <= box.MaxRow; r++ {
		for c := box.MinCol; c <= box.MaxCol; c++ {
			gx := math.Abs(g.X[r][c])
			gy := math.Abs(g.Y[r][c])
			colProfile[c-box.MinCol] = math.Max(colProfile[c-box.MinCol], gx)
			rowProfile[r-box.MinRow] = math.Max(rowProfile[r-box.MinRow], gy)
		}
	}

	if floats.Max(colProfile) <= 0 || floats.Max(rowProfile) <= 0 {
		return box
	}

	left, right := splitPeaks(colProfile)
	top, bottom := splitPeaks(rowProfile)
	return Box{
		MinRow: box.MinRow + top,
		MinCol: box.MinCol + left,
		MaxRow: box.MinRow + bottom,
		MaxCol: box.MinCol + right,
	}
}

// splitPeaks returns the index of the first maximum in the leading half of
// profile (middle element included) and in the trailing half.
func splitPeaks(profile []float64) (lo, hi int) {
	mid := len(profile) / 2
	lo = floats.MaxIdx(profile[:max(1, mid+1)])
	hi = floats.MaxIdx(profile[mid:]) + mid
	return lo, hi
}

// toCandidate converts a pixel box to a candidate in points. Boxes a single
// pixel wide or tall, and boxes under minLabelPt on either side, are
// rejected.
func toCandidate(box Box, scale float64) (grid.Candidate, bool) {
	wpx, hpx := box.Width(), box.Height()
	if wpx <= 1 || hpx <= 1 {
		return grid.Candidate{}, false
	}

	w := float64(wpx) * scale
	h := float64(hpx) * scale
	if w < minLabelPt || h < minLabelPt {
		return grid.Candidate{}, false
	}

	return grid.Candidate{
		Center: template.Point{
			X: float64(box.MinCol+box.MaxCol+1) / 2 * scale,
			Y: float64(box.MinRow+box.MaxRow+1) / 2 * scale,
		},
		Width:  w,
		Height: h,
	}, true
}

// FilterBySize keeps candidates within 0.6 to 1.4 times the median width and
// height. If no candidate qualifies the input is returned unchanged.
func FilterBySize(candidates []grid.Candidate) []grid.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	widths := make([]float64, len(candidates))
	heights := make([]float64, len(candidates))
	for i, c := range candidates {
		widths[i] = c.Width
		heights[i] = c.Height
	}
	mw, mh := grid.Median(widths), grid.Median(heights)

	var kept []grid.Candidate
	for _, c := range candidates {
		if c.Width >= sizeBandLow*mw && c.Width <= sizeBandHigh*mw &&
			c.Height >= sizeBandLow*mh && c.Height <= sizeBandHigh*mh {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}
