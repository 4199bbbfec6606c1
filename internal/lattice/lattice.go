// Package lattice synthesizes circular label templates on square or
// hexagonal close-packed lattices.
//
// Centers are generated analytically from the page size, circle diameter,
// gap and margins, then checked by an explicit validation pass: every center
// must lie inside the margin-inset page and no two circles may overlap.
package lattice

import (
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/label-templator/internal/template"
)

// epsilon absorbs floating-point error at lattice boundaries.
const epsilon = 1e-9

// Layout selects the lattice arrangement.
type Layout string

const (
	// Simple is a square grid: vertical pitch equals horizontal pitch.
	Simple Layout = "simple"
	// Close is hexagonal close packing: rows are sqrt(3)/2 pitch apart and
	// odd rows are shifted by half a pitch.
	Close Layout = "close"
)

// ParseLayout validates a layout name (case-insensitive).
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(s)) {
	case Simple:
		return Simple, nil
	case Close:
		return Close, nil
	default:
		return "", fmt.Errorf("%w: unsupported circle layout %q, expected %q or %q",
			template.ErrInvalidParameter, s, Simple, Close)
	}
}

// Margins are page insets in points.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins returns equal margins on all four sides.
func UniformMargins(m float64) Margins {
	return Margins{Top: m, Right: m, Bottom: m, Left: m}
}

// Params describes a circle lattice request. MaxCols and MaxRows of zero
// mean unlimited.
type Params struct {
	Layout     Layout
	PageWidth  float64
	PageHeight float64
	Diameter   float64
	Gap        float64
	Margins    Margins
	MaxCols    int
	MaxRows    int
}

// Pitch is the center-to-center spacing of a lattice.
type Pitch struct {
	X         float64
	Y         float64
	RowOffset float64 // applied to odd rows only
}

// PitchFor returns the lattice pitch for a layout, diameter and gap.
func PitchFor(layout Layout, diameter, gap float64) (Pitch, error) {
	if diameter <= 0 {
		return Pitch{}, fmt.Errorf("%w: circle diameter must be positive, got %g", template.ErrInvalidParameter, diameter)
	}
	if gap < 0 {
		return Pitch{}, fmt.Errorf("%w: circle gap must be non-negative, got %g", template.ErrInvalidParameter, gap)
	}
	px := diameter + gap
	switch layout {
	case Simple:
		return Pitch{X: px, Y: px}, nil
	case Close:
		return Pitch{X: px, Y: math.Sqrt(3) * px / 2, RowOffset: px / 2}, nil
	default:
		return Pitch{}, fmt.Errorf("%w: unsupported circle layout %q", template.ErrInvalidParameter, layout)
	}
}

func (p Params) validate() error {
	if p.PageWidth <= 0 || p.PageHeight <= 0 {
		return fmt.Errorf("%w: page dimensions must be positive, got %gx%g",
			template.ErrInvalidParameter, p.PageWidth, p.PageHeight)
	}
	m := p.Margins
	for _, side := range []struct {
		name string
		v    float64
	}{{"top", m.Top}, {"right", m.Right}, {"bottom", m.Bottom}, {"left", m.Left}} {
		if side.v < 0 {
			return fmt.Errorf("%w: margin %s must be non-negative, got %g", template.ErrInvalidParameter, side.name, side.v)
		}
	}
	if p.MaxCols < 0 {
		return fmt.Errorf("%w: max columns must be positive when provided, got %d", template.ErrInvalidParameter, p.MaxCols)
	}
	if p.MaxRows < 0 {
		return fmt.Errorf("%w: max rows must be positive when provided, got %d", template.ErrInvalidParameter, p.MaxRows)
	}
	if usable := p.PageWidth - m.Left - m.Right; usable < p.Diameter-epsilon {
		return fmt.Errorf("%w: margins leave no usable width for the diameter: usable=%g diameter=%g",
			template.ErrInvalidParameter, usable, p.Diameter)
	}
	if usable := p.PageHeight - m.Top - m.Bottom; usable < p.Diameter-epsilon {
		return fmt.Errorf("%w: margins leave no usable height for the diameter: usable=%g diameter=%g",
			template.ErrInvalidParameter, usable, p.Diameter)
	}
	return nil
}

// rowPlan is one generated lattice row.
type rowPlan struct {
	offset  float64
	columns int
}

// Synthesize generates a circular template for the given parameters. Any
// invalid parameter, an empty result or a failed post-generation check
// returns an error wrapping template.ErrInvalidParameter.
func Synthesize(p Params) (*template.Template, error) {
	pitch, err := PitchFor(p.Layout, p.Diameter, p.Gap)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	centers, rows := generate(p, pitch)
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: no circle centers fit the provided configuration", template.ErrInvalidParameter)
	}

	grid := template.GridMetrics{
		Kind:     gridKind(p.Layout),
		Rows:     len(rows),
		DeltaXPt: pitch.X,
		DeltaYPt: pitch.Y,
	}
	counts := make([]int, len(rows))
	uniform := true
	for i, r := range rows {
		grid.RowOffsetsPt = append(grid.RowOffsetsPt, r.offset)
		counts[i] = r.columns
		if r.columns > grid.Columns {
			grid.Columns = r.columns
		}
		if r.columns != rows[0].columns {
			uniform = false
		}
	}
	if !uniform {
		grid.ColumnsPerRow = counts
	}

	lastRowStart := len(centers) - rows[len(rows)-1].columns
	anchors := template.AnchorPoints{TopLeftPt: centers[0], BottomLeftPt: centers[lastRowStart]}

	tpl, err := template.New(
		template.PageMetrics{WidthPt: p.PageWidth, HeightPt: p.PageHeight},
		grid,
		template.LabelGeometry{Shape: template.ShapeCircle, WidthPt: p.Diameter, HeightPt: p.Diameter},
		anchors,
		centers,
		map[string]string{
			"layout": string(p.Layout),
			"gap_pt": fmt.Sprintf("%.6f", p.Gap),
		},
	)
	if err != nil {
		return nil, err
	}

	if err := Validate(tpl, p.Margins); err != nil {
		return nil, err
	}
	return tpl, nil
}

// generate walks the lattice rows and columns inside the margin-inset page.
func generate(p Params, pitch Pitch) ([]template.Point, []rowPlan) {
	radius := p.Diameter / 2
	startX := p.Margins.Left + radius
	maxX := p.PageWidth - p.Margins.Right - radius
	startY := p.Margins.Top + radius
	maxY := p.PageHeight - p.Margins.Bottom - radius

	var centers []template.Point
	var rows []rowPlan

	for row := 0; ; row++ {
		y := startY + float64(row)*pitch.Y
		if y > maxY+epsilon {
			break
		}

		offset := 0.0
		if p.Layout == Close && row%2 == 1 {
			offset = pitch.RowOffset
		}

		x0 := startX + offset
		available := maxX - x0
		if available < -epsilon {
			continue
		}

		cols := int(math.Floor((available+epsilon)/pitch.X)) + 1
		if p.MaxCols > 0 && cols > p.MaxCols {
			cols = p.MaxCols
		}
		if cols <= 0 {
			continue
		}

		for c := 0; c < cols; c++ {
			centers = append(centers, template.Point{X: x0 + float64(c)*pitch.X, Y: y})
		}
		rows = append(rows, rowPlan{offset: offset, columns: cols})

		if p.MaxRows > 0 && len(rows) >= p.MaxRows {
			break
		}
	}
	return centers, rows
}

// Validate checks that every center of a circular template lies within the
// margin-inset page and that no two circles overlap.
func Validate(tpl *template.Template, m Margins) error {
	diameter, ok := tpl.Label().Diameter()
	if !ok {
		return fmt.Errorf("%w: lattice validation requires circular labels", template.ErrInvalidParameter)
	}
	radius := diameter / 2
	page := tpl.Page()

	minX := m.Left + radius - epsilon
	maxX := page.WidthPt - m.Right - radius + epsilon
	minY := m.Top + radius - epsilon
	maxY := page.HeightPt - m.Bottom - radius + epsilon

	centers := tpl.Centers()
	for _, c := range centers {
		if c.X < minX || c.X > maxX || c.Y < minY || c.Y > maxY {
			return fmt.Errorf("%w: center (%g, %g) outside allowed bounds (%g, %g)-(%g, %g)",
				template.ErrInvalidParameter, c.X, c.Y, minX, minY, maxX, maxY)
		}
	}

	minDist := diameter - epsilon
	for i := range centers {
		for j := i + 1; j < len(centers); j++ {
			// Centers are row-major; once rows are a diameter apart no later
			// center can be closer.
			if centers[j].Y-centers[i].Y >= minDist {
				break
			}
			d := math.Hypot(centers[j].X-centers[i].X, centers[j].Y-centers[i].Y)
			if d < minDist {
				return fmt.Errorf("%w: centers overlap: distance=%g required>=%g",
					template.ErrInvalidParameter, d, minDist)
			}
		}
	}
	return nil
}

func gridKind(l Layout) template.GridKind {
	if l == Close {
		return template.GridCircleClose
	}
	return template.GridCircleSimple
}
