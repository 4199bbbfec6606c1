package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/label-templator/internal/template"
)

// OverlayResult contains a page image with the template drawn over it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Labels      int    `json:"labels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// DefaultOverlayColor is semi-transparent red.
const DefaultOverlayColor = "#FF000080"

// DrawOverlay draws every label outline of a template onto a copy of the
// page raster, with a cross at each center and the label index beside it.
// Rectangular labels are outlined as boxes, circular labels as circles.
//
// Parameters:
//   - page: Page raster the template was extracted from.
//   - tpl: Template whose coordinates are in points.
//   - dpi: Resolution of page, used to map points to pixels.
//   - colorHex: Outline colour as "#RRGGBB" or "#RRGGBBAA". Invalid values
//     fall back to DefaultOverlayColor.
func DrawOverlay(page image.Image, tpl *template.Template, dpi float64, colorHex string) (*image.NRGBA, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %g", dpi)
	}

	outline, err := parseHexColor(colorHex)
	if err != nil {
		outline, _ = parseHexColor(DefaultOverlayColor)
	}

	result := imaging.Clone(page)
	px := dpi / template.PointsPerInch

	label := tpl.Label()
	labelColor := color.RGBA{255, 255, 255, 255}
	bgColor := color.RGBA{0, 0, 0, 180}

	for i, c := range tpl.Centers() {
		cx, cy := c.X*px, c.Y*px
		if r, ok := label.Radius(); ok {
			drawCircle(result, cx, cy, r*px, outline)
		} else {
			rect, _ := tpl.LabelRect(i)
			drawRect(result, rect.X0*px, rect.Y0*px, rect.X1*px, rect.Y1*px, outline)
		}
		drawCross(result, int(math.Round(cx)), int(math.Round(cy)), 3, outline)
		drawLabel(result, int(math.Round(cx))+4, int(math.Round(cy))+4, strconv.Itoa(i), labelColor, bgColor)
	}
	return result, nil
}

// Overlay draws the template over the page and encodes the result.
func Overlay(page image.Image, tpl *template.Template, dpi float64, colorHex string) (*OverlayResult, error) {
	img, err := DrawOverlay(page, tpl, dpi, colorHex)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		Labels:      tpl.CenterCount(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func drawRect(img *image.NRGBA, x0, y0, x1, y1 float64, c color.RGBA) {
	ix0, iy0 := int(math.Round(x0)), int(math.Round(y0))
	ix1, iy1 := int(math.Round(x1)), int(math.Round(y1))
	for x := ix0; x <= ix1; x++ {
		blend(img, x, iy0, c)
		blend(img, x, iy1, c)
	}
	for y := iy0 + 1; y < iy1; y++ {
		blend(img, ix0, y, c)
		blend(img, ix1, y, c)
	}
}

func drawCircle(img *image.NRGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	// One step per pixel of circumference keeps the outline unbroken.
	steps := int(math.Ceil(2*math.Pi*r)) + 1
	last := image.Point{X: math.MinInt32}
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		p := image.Point{X: int(math.Round(cx + r*math.Cos(a))), Y: int(math.Round(cy + r*math.Sin(a)))}
		if p != last {
			blend(img, p.X, p.Y, c)
			last = p
		}
	}
}

func drawCross(img *image.NRGBA, x, y, arm int, c color.RGBA) {
	for d := -arm; d <= arm; d++ {
		blend(img, x+d, y, c)
		if d != 0 {
			blend(img, x, y+d, c)
		}
	}
}

// blend composites c over the pixel at (x, y). Out-of-bounds writes are
// ignored.
func blend(img *image.NRGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	a := float64(c.A) / 255
	dst := img.NRGBAAt(x, y)
	mix := func(s, d uint8) uint8 {
		return uint8(math.Round(float64(s)*a + float64(d)*(1-a)))
	}
	img.SetNRGBA(x, y, color.NRGBA{
		R: mix(c.R, dst.R),
		G: mix(c.G, dst.G),
		B: mix(c.B, dst.B),
		A: uint8(math.Max(float64(dst.A), float64(c.A))),
	})
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws a label index in a 3x5 pixel digit font on a filled
// background box.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			blend(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					blend(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
