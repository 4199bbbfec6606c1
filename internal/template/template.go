package template

import (
	"fmt"
	"math"
	"sort"
)

// circleTolerance is the maximum width/height mismatch accepted for circles.
const circleTolerance = 1e-6

// Point is a 2D position in PDF points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in PDF points.
// (X0, Y0) is the top-left corner and (X1, Y1) the bottom-right corner.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2}
}

// PageMetrics is the physical page size in points.
type PageMetrics struct {
	WidthPt  float64 `json:"width_pt"`
	HeightPt float64 `json:"height_pt"`
}

// Validate checks that both page dimensions are positive.
func (p PageMetrics) Validate() error {
	if p.WidthPt <= 0 || p.HeightPt <= 0 {
		return fmt.Errorf("%w: page dimensions must be positive, got width=%g height=%g",
			ErrInvalidTemplate, p.WidthPt, p.HeightPt)
	}
	return nil
}

// GridKind identifies how the label grid was produced.
type GridKind string

const (
	GridRectangular  GridKind = "rectangular"
	GridCircleSimple GridKind = "circle_simple"
	GridCircleClose  GridKind = "circle_close"
)

// GridMetrics describes the row/column structure of a template.
type GridMetrics struct {
	Kind     GridKind
	Rows     int
	Columns  int // max over rows for ragged grids
	DeltaXPt float64
	DeltaYPt float64

	// RowOffsetsPt holds one horizontal offset per row (hexagonal packing).
	// Empty when no offsets apply.
	RowOffsetsPt []float64

	// ColumnsPerRow is set only when rows have differing lengths.
	ColumnsPerRow []int
}

// Validate checks grid dimensions, pitch and per-row metadata lengths.
func (g GridMetrics) Validate() error {
	switch g.Kind {
	case GridRectangular, GridCircleSimple, GridCircleClose:
	default:
		return fmt.Errorf("%w: unknown grid kind %q", ErrInvalidTemplate, g.Kind)
	}
	if g.Rows <= 0 || g.Columns <= 0 {
		return fmt.Errorf("%w: grid rows and columns must be positive, got rows=%d columns=%d",
			ErrInvalidTemplate, g.Rows, g.Columns)
	}
	if g.DeltaXPt <= 0 || g.DeltaYPt <= 0 {
		return fmt.Errorf("%w: grid spacing must be positive, got delta_x=%g delta_y=%g",
			ErrInvalidTemplate, g.DeltaXPt, g.DeltaYPt)
	}
	if len(g.RowOffsetsPt) > 0 && len(g.RowOffsetsPt) != g.Rows {
		return fmt.Errorf("%w: %d row offsets for %d rows",
			ErrInvalidTemplate, len(g.RowOffsetsPt), g.Rows)
	}
	if g.ColumnsPerRow != nil {
		if len(g.ColumnsPerRow) != g.Rows {
			return fmt.Errorf("%w: %d columns-per-row entries for %d rows",
				ErrInvalidTemplate, len(g.ColumnsPerRow), g.Rows)
		}
		for _, c := range g.ColumnsPerRow {
			if c <= 0 || c > g.Columns {
				return fmt.Errorf("%w: columns-per-row value %d outside 1..%d",
					ErrInvalidTemplate, c, g.Columns)
			}
		}
	}
	return nil
}

// CellCount returns the number of label cells described by the grid.
func (g GridMetrics) CellCount() int {
	if g.ColumnsPerRow == nil {
		return g.Rows * g.Columns
	}
	total := 0
	for _, c := range g.ColumnsPerRow {
		total += c
	}
	return total
}

// LabelShape is the outline of a single label.
type LabelShape string

const (
	ShapeRectangle LabelShape = "rectangle"
	ShapeCircle    LabelShape = "circle"
)

// LabelGeometry is the size and shape of an individual label in points.
type LabelGeometry struct {
	Shape    LabelShape
	WidthPt  float64
	HeightPt float64
}

// Validate checks label dimensions and the circle width/height constraint.
func (l LabelGeometry) Validate() error {
	if l.Shape != ShapeRectangle && l.Shape != ShapeCircle {
		return fmt.Errorf("%w: unknown label shape %q", ErrInvalidTemplate, l.Shape)
	}
	if l.WidthPt <= 0 || l.HeightPt <= 0 {
		return fmt.Errorf("%w: label dimensions must be positive, got width=%g height=%g",
			ErrInvalidTemplate, l.WidthPt, l.HeightPt)
	}
	if l.Shape == ShapeCircle && math.Abs(l.WidthPt-l.HeightPt) > circleTolerance {
		return fmt.Errorf("%w: circle requires equal width and height, got width=%g height=%g",
			ErrInvalidTemplate, l.WidthPt, l.HeightPt)
	}
	return nil
}

// Diameter returns the circle diameter. ok is false for non-circular labels.
func (l LabelGeometry) Diameter() (d float64, ok bool) {
	if l.Shape != ShapeCircle {
		return 0, false
	}
	return l.WidthPt, true
}

// Radius returns the circle radius. ok is false for non-circular labels.
func (l LabelGeometry) Radius() (r float64, ok bool) {
	d, ok := l.Diameter()
	return d / 2, ok
}

// AnchorPoints are the registration anchors used by downstream renderers:
// the first center of the first row and the first center of the last row.
type AnchorPoints struct {
	TopLeftPt    Point
	BottomLeftPt Point
}

// Template is a complete, validated label template. Use New to build one.
type Template struct {
	page     PageMetrics
	grid     GridMetrics
	label    LabelGeometry
	anchors  AnchorPoints
	centers  []Point
	metadata map[string]string
}

// New validates the components and returns a Template with centers sorted
// row-major. The inputs are copied; the caller keeps ownership of them.
func New(page PageMetrics, grid GridMetrics, label LabelGeometry, anchors AnchorPoints,
	centers []Point, metadata map[string]string) (*Template, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := label.Validate(); err != nil {
		return nil, err
	}
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: templates must contain at least one center", ErrInvalidTemplate)
	}
	if n := grid.CellCount(); n != len(centers) {
		return nil, fmt.Errorf("%w: grid describes %d cells but %d centers were given",
			ErrInvalidTemplate, n, len(centers))
	}
	for _, c := range centers {
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsInf(c.X, 0) || math.IsInf(c.Y, 0) {
			return nil, fmt.Errorf("%w: non-finite center (%g, %g)", ErrInvalidTemplate, c.X, c.Y)
		}
	}

	ordered := make([]Point, len(centers))
	copy(ordered, centers)
	SortRowMajor(ordered)

	grid.RowOffsetsPt = append([]float64(nil), grid.RowOffsetsPt...)
	if grid.ColumnsPerRow != nil {
		grid.ColumnsPerRow = append([]int(nil), grid.ColumnsPerRow...)
	}

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	return &Template{
		page:     page,
		grid:     grid,
		label:    label,
		anchors:  anchors,
		centers:  ordered,
		metadata: meta,
	}, nil
}

// SortRowMajor sorts points by Y ascending, then X ascending.
func SortRowMajor(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})
}

// IsRowMajor reports whether points are non-decreasing in (Y, X).
func IsRowMajor(points []Point) bool {
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
			return false
		}
	}
	return true
}

// Page returns the page metrics.
func (t *Template) Page() PageMetrics { return t.page }

// Grid returns a copy of the grid metrics.
func (t *Template) Grid() GridMetrics {
	g := t.grid
	g.RowOffsetsPt = append([]float64(nil), t.grid.RowOffsetsPt...)
	if t.grid.ColumnsPerRow != nil {
		g.ColumnsPerRow = append([]int(nil), t.grid.ColumnsPerRow...)
	}
	return g
}

// Label returns the label geometry.
func (t *Template) Label() LabelGeometry { return t.label }

// Anchors returns the registration anchors.
func (t *Template) Anchors() AnchorPoints { return t.anchors }

// Centers returns a copy of the row-major ordered centers in points.
func (t *Template) Centers() []Point {
	return append([]Point(nil), t.centers...)
}

// CenterCount returns the number of label centers.
func (t *Template) CenterCount() int { return len(t.centers) }

// Metadata returns a copy of the free-form metadata.
func (t *Template) Metadata() map[string]string {
	m := make(map[string]string, len(t.metadata))
	for k, v := range t.metadata {
		m[k] = v
	}
	return m
}

// MetadataValue returns a single metadata entry.
func (t *Template) MetadataValue(key string) (string, bool) {
	v, ok := t.metadata[key]
	return v, ok
}

// LabelRect returns the placement rectangle of the label centered on
// center i, for renderers that draw into each cell.
func (t *Template) LabelRect(i int) (Rect, error) {
	if i < 0 || i >= len(t.centers) {
		return Rect{}, fmt.Errorf("%w: label index %d outside 0..%d",
			ErrInvalidParameter, i, len(t.centers)-1)
	}
	c := t.centers[i]
	hw, hh := t.label.WidthPt/2, t.label.HeightPt/2
	return Rect{X0: c.X - hw, Y0: c.Y - hh, X1: c.X + hw, Y1: c.Y + hh}, nil
}

// CentersIn returns the centers converted into the given coordinate space.
func (t *Template) CentersIn(space CoordSpace) ([]Point, error) {
	out := make([]Point, len(t.centers))
	for i, c := range t.centers {
		p, err := ToSpace(c, space, t.page.WidthPt)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
