// Package grid infers a row/column label layout from unordered candidate
// rectangles.
//
// The engine is shared by the vector and raster detectors, which differ only
// in how tightly candidates must agree vertically to share a row. That
// difference is captured by Tolerance.
package grid

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/label-templator/internal/template"
)

// Candidate is a detected rectangle prior to row clustering.
type Candidate struct {
	Center template.Point
	Width  float64
	Height float64

	// CornerRadius is the estimated corner radius for vector detections.
	// Zero for square corners and for raster detections.
	CornerRadius float64
}

// Tolerance controls row clustering: a candidate joins a row when its
// vertical center lies within max(HeightFactor*medianHeight, MinPt) of the
// row's running mean.
type Tolerance struct {
	HeightFactor float64
	MinPt        float64
}

var (
	// VectorTolerance suits exact vector geometry.
	VectorTolerance = Tolerance{HeightFactor: 0.25, MinPt: 0.5}

	// RasterTolerance allows for the coarser localisation of raster boxes.
	RasterTolerance = Tolerance{HeightFactor: 0.3, MinPt: 0.75}
)

// rowTolerance returns the clustering distance for the given candidates.
func (t Tolerance) rowTolerance(candidates []Candidate) float64 {
	heights := make([]float64, len(candidates))
	for i, c := range candidates {
		heights[i] = c.Height
	}
	tol := Median(heights) * t.HeightFactor
	if tol < t.MinPt {
		tol = t.MinPt
	}
	return tol
}

// Layout is the inferred grid: candidates grouped into rows (each sorted by
// X, rows sorted by mean Y) plus the derived metrics.
type Layout struct {
	Rows [][]Candidate

	LabelWidth  float64
	LabelHeight float64
	DeltaX      float64
	DeltaY      float64

	// Columns is the longest row length.
	Columns int

	// ColumnsPerRow is nil when every row has the same length.
	ColumnsPerRow []int

	TopLeft    template.Point
	BottomLeft template.Point
}

// Infer clusters candidates into rows and derives the grid metrics.
// It returns template.ErrNoTemplate when no rows can be formed.
func Infer(candidates []Candidate, tol Tolerance) (*Layout, error) {
	rows := ClusterRows(candidates, tol)
	if len(rows) == 0 {
		return nil, template.ErrNoTemplate
	}

	var widths, heights []float64
	for _, row := range rows {
		for _, c := range row {
			widths = append(widths, c.Width)
			heights = append(heights, c.Height)
		}
	}

	l := &Layout{
		Rows:        rows,
		LabelWidth:  Median(widths),
		LabelHeight: Median(heights),
	}

	rowMeans := make([]float64, len(rows))
	counts := make([]int, len(rows))
	uniform := true
	for i, row := range rows {
		rowMeans[i] = meanY(row)
		counts[i] = len(row)
		if counts[i] > l.Columns {
			l.Columns = counts[i]
		}
		if counts[i] != counts[0] {
			uniform = false
		}
	}
	if !uniform {
		l.ColumnsPerRow = counts
	}

	var dy []float64
	for i := 1; i < len(rowMeans); i++ {
		dy = append(dy, rowMeans[i]-rowMeans[i-1])
	}
	l.DeltaY = medianOr(dy, l.LabelHeight)

	var dx []float64
	for _, row := range rows {
		for i := 1; i < len(row); i++ {
			dx = append(dx, row[i].Center.X-row[i-1].Center.X)
		}
	}
	l.DeltaX = medianOr(dx, l.LabelWidth)

	l.TopLeft = rows[0][0].Center
	l.BottomLeft = rows[len(rows)-1][0].Center
	return l, nil
}

// ClusterRows groups candidates into rows with a single greedy pass over the
// candidates sorted by vertical center. Each candidate joins the first
// existing row whose running mean Y is within tolerance, otherwise it starts
// a new row. Rows are returned sorted by mean Y, each sorted by X.
func ClusterRows(candidates []Candidate, tol Tolerance) [][]Candidate {
	if len(candidates) == 0 {
		return nil
	}

	rowTol := tol.rowTolerance(candidates)

	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Center.Y < sorted[j].Center.Y
	})

	var rows [][]Candidate
	for _, c := range sorted {
		if i := firstCompatibleRow(rows, c.Center.Y, rowTol); i >= 0 {
			rows[i] = append(rows[i], c)
		} else {
			rows = append(rows, []Candidate{c})
		}
	}

	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool {
			return row[i].Center.X < row[j].Center.X
		})
	}

	means := make(map[int]float64, len(rows))
	idx := make([]int, len(rows))
	for i, row := range rows {
		idx[i] = i
		means[i] = meanY(row)
	}
	sort.SliceStable(idx, func(a, b int) bool { return means[idx[a]] < means[idx[b]] })

	out := make([][]Candidate, len(rows))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// firstCompatibleRow returns the index of the earliest-created row whose
// running mean Y lies within tol of y, or -1.
func firstCompatibleRow(rows [][]Candidate, y, tol float64) int {
	for i := range rows {
		if abs(y-meanY(rows[i])) <= tol {
			return i
		}
	}
	return -1
}

// Ordered returns the candidates flattened in row-major order.
func (l *Layout) Ordered() []Candidate {
	var out []Candidate
	for _, row := range l.Rows {
		out = append(out, row...)
	}
	return out
}

// Centers returns the candidate centers in row-major order.
func (l *Layout) Centers() []template.Point {
	ordered := l.Ordered()
	out := make([]template.Point, len(ordered))
	for i, c := range ordered {
		out[i] = c.Center
	}
	return out
}

// Metrics converts the layout into rectangular grid metrics.
func (l *Layout) Metrics() template.GridMetrics {
	return template.GridMetrics{
		Kind:          template.GridRectangular,
		Rows:          len(l.Rows),
		Columns:       l.Columns,
		DeltaXPt:      l.DeltaX,
		DeltaYPt:      l.DeltaY,
		ColumnsPerRow: append([]int(nil), l.ColumnsPerRow...),
	}
}

// Template builds a rectangular label template from the layout.
func (l *Layout) Template(page template.PageMetrics, metadata map[string]string) (*template.Template, error) {
	return template.New(
		page,
		l.Metrics(),
		template.LabelGeometry{Shape: template.ShapeRectangle, WidthPt: l.LabelWidth, HeightPt: l.LabelHeight},
		template.AnchorPoints{TopLeftPt: l.TopLeft, BottomLeftPt: l.BottomLeft},
		l.Centers(),
		metadata,
	)
}

func meanY(row []Candidate) float64 {
	ys := make([]float64, len(row))
	for i, c := range row {
		ys[i] = c.Center.Y
	}
	return stat.Mean(ys, nil)
}

// medianOr returns the median of values, or fallback when values is empty or
// the median is not a usable pitch.
func medianOr(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	m := Median(values)
	if m <= 0 {
		return fallback
	}
	return m
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
