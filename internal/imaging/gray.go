package imaging

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Luma selects the RGB weights used for greyscale conversion.
type Luma int

const (
	// LumaBT601 uses ITU-R BT.601 weights (0.299, 0.587, 0.114), matching
	// the conversion applied to scanned image files.
	LumaBT601 Luma = iota

	// LumaRec709 uses ITU-R BT.709 weights (0.2126, 0.7152, 0.0722), used
	// for pages rendered from vector content.
	LumaRec709
)

func (l Luma) weights() (r, g, b float64) {
	if l == LumaRec709 {
		return 0.2126, 0.7152, 0.0722
	}
	return 0.299, 0.587, 0.114
}

// Grayscale converts an image to a row-major luminance buffer with values
// in [0, 1]. Fully transparent pixels are treated as white paper.
func Grayscale(img image.Image, luma Luma) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	wr, wg, wb := luma.weights()

	// Single-channel images need no weighting.
	if g, ok := img.(*image.Gray); ok {
		gray := make([][]float64, height)
		for y := 0; y < height; y++ {
			gray[y] = make([]float64, width)
			row := g.Pix[y*g.Stride : y*g.Stride+width]
			for x, v := range row {
				gray[y][x] = float64(v) / 255.0
			}
		}
		return gray
	}

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				gray[y][x] = 1
				continue
			}
			gray[y][x] = clamp01(wr*c.R + wg*c.G + wb*c.B)
		}
	}
	return gray
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
