package render

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/ironsheep/label-templator/internal/template"
)

// curveSteps is the number of line segments a cubic Bezier is flattened to.
const curveSteps = 8

// Rasterize renders the drawings of a page as black strokes on a white
// greyscale bitmap at the given resolution. Coverage is anti-aliased.
//
// Every segment is emitted as its own quad (with square caps) wound in the
// same direction, so overlapping strokes accumulate instead of cancelling.
func Rasterize(page template.PageMetrics, drawings []Drawing, dpi float64) *image.Gray {
	scale := dpi / template.PointsPerInch
	w := int(math.Ceil(page.WidthPt * scale))
	h := int(math.Ceil(page.HeightPt * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	z := vector.NewRasterizer(w, h)
	for _, d := range drawings {
		hw := d.StrokeWidth / 2 * scale
		if hw <= 0 {
			continue
		}
		for _, seg := range segments(d.Items) {
			strokeSegment(z, seg[0].X*scale, seg[0].Y*scale, seg[1].X*scale, seg[1].Y*scale, hw)
		}
	}

	coverage := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})

	out := image.NewGray(coverage.Bounds())
	for i, a := range coverage.Pix {
		out.Pix[i] = 255 - a
	}
	return out
}

// segments flattens path items into straight line segments.
func segments(items []PathItem) [][2]template.Point {
	var out [][2]template.Point
	for _, it := range items {
		p := it.Points
		switch it.Op {
		case OpLine:
			out = append(out, [2]template.Point{p[0], p[1]})
		case OpRect:
			tl, br := p[0], p[1]
			tr := template.Point{X: br.X, Y: tl.Y}
			bl := template.Point{X: tl.X, Y: br.Y}
			out = append(out, [2]template.Point{tl, tr}, [2]template.Point{tr, br},
				[2]template.Point{br, bl}, [2]template.Point{bl, tl})
		case OpQuad:
			for i := 0; i < 4; i++ {
				out = append(out, [2]template.Point{p[i], p[(i+1)%4]})
			}
		case OpCurve:
			prev := p[0]
			for i := 1; i <= curveSteps; i++ {
				next := cubicAt(p[0], p[1], p[2], p[3], float64(i)/curveSteps)
				out = append(out, [2]template.Point{prev, next})
				prev = next
			}
		}
	}
	return out
}

func cubicAt(p0, p1, p2, p3 template.Point, t float64) template.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return template.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// strokeSegment adds a quad covering the segment (x0,y0)-(x1,y1) widened by
// hw on each side and extended by hw at both ends.
func strokeSegment(z *vector.Rasterizer, x0, y0, x1, y1, hw float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length*hw, dy/length*hw // along the segment
	nx, ny := -uy, ux                    // normal

	z.MoveTo(float32(x0-ux+nx), float32(y0-uy+ny))
	z.LineTo(float32(x1+ux+nx), float32(y1+uy+ny))
	z.LineTo(float32(x1+ux-nx), float32(y1+uy-ny))
	z.LineTo(float32(x0-ux-nx), float32(y0-uy-ny))
	z.ClosePath()
}
