package render

import (
	"fmt"
	"math"

	"github.com/ironsheep/label-templator/internal/template"
)

// kappa places cubic control points to approximate a quarter circle.
const kappa = 0.5522847498

// GridSpec describes a synthetic rectangular label sheet.
type GridSpec struct {
	PageWidth    float64 `yaml:"page_width" json:"page_width"`
	PageHeight   float64 `yaml:"page_height" json:"page_height"`
	Rows         int     `yaml:"rows" json:"rows"`
	Columns      int     `yaml:"columns" json:"columns"`
	LabelWidth   float64 `yaml:"label_width" json:"label_width"`
	LabelHeight  float64 `yaml:"label_height" json:"label_height"`
	StartX       float64 `yaml:"start_x" json:"start_x"`
	StartY       float64 `yaml:"start_y" json:"start_y"`
	PitchX       float64 `yaml:"pitch_x" json:"pitch_x"`
	PitchY       float64 `yaml:"pitch_y" json:"pitch_y"`
	CornerRadius float64 `yaml:"corner_radius,omitempty" json:"corner_radius,omitempty"`
	StrokeWidth  float64 `yaml:"stroke_width,omitempty" json:"stroke_width,omitempty"`
}

// Validate checks that the grid is well formed and fits on the page.
func (g GridSpec) Validate() error {
	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return fmt.Errorf("%w: page dimensions must be positive", template.ErrInvalidParameter)
	case g.Rows <= 0 || g.Columns <= 0:
		return fmt.Errorf("%w: rows and columns must be positive", template.ErrInvalidParameter)
	case g.LabelWidth <= 0 || g.LabelHeight <= 0:
		return fmt.Errorf("%w: label dimensions must be positive", template.ErrInvalidParameter)
	case g.PitchX < g.LabelWidth || g.PitchY < g.LabelHeight:
		return fmt.Errorf("%w: pitch (%g, %g) smaller than label (%g, %g)",
			template.ErrInvalidParameter, g.PitchX, g.PitchY, g.LabelWidth, g.LabelHeight)
	case g.CornerRadius < 0 || g.StrokeWidth < 0:
		return fmt.Errorf("%w: corner radius and stroke width must be non-negative", template.ErrInvalidParameter)
	}
	right := g.StartX + float64(g.Columns-1)*g.PitchX + g.LabelWidth
	bottom := g.StartY + float64(g.Rows-1)*g.PitchY + g.LabelHeight
	if g.StartX < 0 || g.StartY < 0 || right > g.PageWidth || bottom > g.PageHeight {
		return fmt.Errorf("%w: grid extends outside the page", template.ErrInvalidParameter)
	}
	return nil
}

// Cells returns the label rectangles in row-major order.
func (g GridSpec) Cells() []template.Rect {
	var out []template.Rect
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Columns; c++ {
			x0 := g.StartX + float64(c)*g.PitchX
			y0 := g.StartY + float64(r)*g.PitchY
			out = append(out, template.Rect{X0: x0, Y0: y0, X1: x0 + g.LabelWidth, Y1: y0 + g.LabelHeight})
		}
	}
	return out
}

// Page builds a single page description with one drawing per label.
// Square labels use a native rectangle primitive; rounded labels are drawn
// as four lines joined by cubic corner arcs.
func (g GridSpec) Page() (PageDescription, error) {
	if err := g.Validate(); err != nil {
		return PageDescription{}, err
	}
	page := PageDescription{WidthPt: g.PageWidth, HeightPt: g.PageHeight}
	for _, cell := range g.Cells() {
		page.Drawings = append(page.Drawings, DrawingDescription{
			Rect:        []float64{cell.X0, cell.Y0, cell.X1, cell.Y1},
			StrokeWidth: g.StrokeWidth,
			Items:       cellItems(cell, g.CornerRadius),
		})
	}
	return page, nil
}

// Description wraps Page into a one-page description document.
func (g GridSpec) Description() (Description, error) {
	page, err := g.Page()
	if err != nil {
		return Description{}, err
	}
	return Description{Pages: []PageDescription{page}}, nil
}

func cellItems(r template.Rect, radius float64) []ItemDescription {
	radius = math.Min(radius, math.Min(r.Width(), r.Height())/2)
	if radius <= 0 {
		return []ItemDescription{{Op: string(OpRect), Points: [][2]float64{{r.X0, r.Y0}, {r.X1, r.Y1}}}}
	}

	k := radius * kappa
	line := func(x0, y0, x1, y1 float64) ItemDescription {
		return ItemDescription{Op: string(OpLine), Points: [][2]float64{{x0, y0}, {x1, y1}}}
	}
	curve := func(pts ...[2]float64) ItemDescription {
		return ItemDescription{Op: string(OpCurve), Points: pts}
	}

	return []ItemDescription{
		line(r.X0+radius, r.Y0, r.X1-radius, r.Y0),
		curve([2]float64{r.X1 - radius, r.Y0}, [2]float64{r.X1 - radius + k, r.Y0},
			[2]float64{r.X1, r.Y0 + radius - k}, [2]float64{r.X1, r.Y0 + radius}),
		line(r.X1, r.Y0+radius, r.X1, r.Y1-radius),
		curve([2]float64{r.X1, r.Y1 - radius}, [2]float64{r.X1, r.Y1 - radius + k},
			[2]float64{r.X1 - radius + k, r.Y1}, [2]float64{r.X1 - radius, r.Y1}),
		line(r.X1-radius, r.Y1, r.X0+radius, r.Y1),
		curve([2]float64{r.X0 + radius, r.Y1}, [2]float64{r.X0 + radius - k, r.Y1},
			[2]float64{r.X0, r.Y1 - radius + k}, [2]float64{r.X0, r.Y1 - radius}),
		line(r.X0, r.Y1-radius, r.X0, r.Y0+radius),
		curve([2]float64{r.X0, r.Y0 + radius}, [2]float64{r.X0, r.Y0 + radius - k},
			[2]float64{r.X0 + radius - k, r.Y0}, [2]float64{r.X0 + radius, r.Y0}),
	}
}
