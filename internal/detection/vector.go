package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/label-templator/internal/grid"
	"github.com/ironsheep/label-templator/internal/render"
	"github.com/ironsheep/label-templator/internal/template"
)

// radiusEpsilon is the smallest endpoint offset treated as a corner radius.
const radiusEpsilon = 1e-6

// VectorOptions tunes the vector detector.
type VectorOptions struct {
	// DedupeTolerancePt drops a drawing whose bounding box matches an
	// earlier drawing on all four edges within this distance, so a label
	// drawn twice (stroke pass plus fill pass) yields one candidate.
	// Zero or negative disables deduplication.
	DedupeTolerancePt float64
}

// DefaultVectorOptions deduplicates drawings within half a point.
var DefaultVectorOptions = VectorOptions{DedupeTolerancePt: 0.5}

// DetectVector infers a rectangular label template from the vector drawings
// of a page.
//
// Parameters:
//   - page: Page size and drawings from a render.Document.
//   - opts: Detector options; see DefaultVectorOptions.
//
// Returns:
//   - *template.Template: The inferred template with metadata
//     extraction=vector and corner_radius_pt (median over all cells).
//   - error: Wraps template.ErrNoTemplate when the page has no usable
//     drawings. Any other error is fatal.
//
// # Algorithm
//
//  1. Candidates: every drawing with path items and a bounding rectangle
//     of positive width and height. Its corner radius is estimated from
//     the path (see CornerRadius).
//  2. Deduplication: repeated drawings of the same rectangle are dropped.
//  3. Grid inference with grid.VectorTolerance.
func DetectVector(page *render.VectorPage, opts VectorOptions) (*template.Template, error) {
	if err := page.Page.Validate(); err != nil {
		return nil, err
	}

	candidates := VectorCandidates(page.Drawings)
	if opts.DedupeTolerancePt > 0 {
		candidates = Dedupe(candidates, opts.DedupeTolerancePt)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no rectangular drawings on page", template.ErrNoTemplate)
	}

	layout, err := grid.Infer(candidates, grid.VectorTolerance)
	if err != nil {
		return nil, err
	}

	radii := make([]float64, len(candidates))
	for i, c := range candidates {
		radii[i] = c.CornerRadius
	}

	return layout.Template(page.Page, map[string]string{
		"extraction":       "vector",
		"corner_radius_pt": fmt.Sprintf("%.6f", grid.Median(radii)),
	})
}

// VectorCandidates converts drawings into candidate rectangles, skipping
// drawings with no path items or a degenerate bounding rectangle.
func VectorCandidates(drawings []render.Drawing) []grid.Candidate {
	var out []grid.Candidate
	for _, d := range drawings {
		if len(d.Items) == 0 {
			continue
		}
		w, h := d.Rect.Width(), d.Rect.Height()
		if w <= 0 || h <= 0 {
			continue
		}

		radius := 0.0
		if d.Items[0].Op != render.OpRect {
			radius = CornerRadius(d.Items, d.Rect)
		}

		out = append(out, grid.Candidate{
			Center:       d.Rect.Center(),
			Width:        w,
			Height:       h,
			CornerRadius: radius,
		})
	}
	return out
}

// CornerRadius estimates the corner radius of a rounded rectangle from the
// endpoints of its straight segments.
//
// For a rounded rectangle the straight edges stop short of the corners by
// the radius, so every line endpoint sits at distance r from the two
// perpendicular sides. Offsets from each side strictly between 0 and half
// the shorter side are collected per axis; the estimate is the mean of the
// horizontal and vertical medians, or whichever axis has candidates. Paths
// with no such offsets (plain rectangles) return 0.
func CornerRadius(items []render.PathItem, rect template.Rect) float64 {
	w, h := rect.Width(), rect.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	limit := math.Min(w, h)/2 + radiusEpsilon

	var xs, ys []float64
	inRange := func(v float64) bool { return v > radiusEpsilon && v < limit }

	for _, it := range items {
		if it.Op != render.OpLine {
			continue
		}
		for _, p := range it.Points {
			for _, dx := range []float64{p.X - rect.X0, rect.X1 - p.X} {
				if inRange(dx) {
					xs = append(xs, dx)
				}
			}
			for _, dy := range []float64{p.Y - rect.Y0, rect.Y1 - p.Y} {
				if inRange(dy) {
					ys = append(ys, dy)
				}
			}
		}
	}

	switch {
	case len(xs) > 0 && len(ys) > 0:
		return (grid.Median(xs) + grid.Median(ys)) / 2
	case len(xs) > 0:
		return grid.Median(xs)
	case len(ys) > 0:
		return grid.Median(ys)
	default:
		return 0
	}
}

// Dedupe removes candidates whose bounding box matches an earlier kept
// candidate on all four edges within tol. The first occurrence is kept and
// input order is preserved.
func Dedupe(candidates []grid.Candidate, tol float64) []grid.Candidate {
	kept := make([]grid.Candidate, 0, len(candidates))
	for _, c := range candidates {
		dup := false
		for _, k := range kept {
			if sameBox(c, k, tol) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

func sameBox(a, b grid.Candidate, tol float64) bool {
	ax0, ax1 := a.Center.X-a.Width/2, a.Center.X+a.Width/2
	ay0, ay1 := a.Center.Y-a.Height/2, a.Center.Y+a.Height/2
	bx0, bx1 := b.Center.X-b.Width/2, b.Center.X+b.Width/2
	by0, by1 := b.Center.Y-b.Height/2, b.Center.Y+b.Height/2
	return math.Abs(ax0-bx0) <= tol && math.Abs(ax1-bx1) <= tol &&
		math.Abs(ay0-by0) <= tol && math.Abs(ay1-by1) <= tol
}
