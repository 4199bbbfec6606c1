package imaging

import (
	"image"
	"image/color"
	"math"
)

// Gradient holds the per-pixel Sobel response of a greyscale buffer.
type Gradient struct {
	X         [][]float64
	Y         [][]float64
	Magnitude [][]float64
}

// Width returns the number of columns in the gradient buffers.
func (g *Gradient) Width() int {
	if len(g.Magnitude) == 0 {
		return 0
	}
	return len(g.Magnitude[0])
}

// Height returns the number of rows in the gradient buffers.
func (g *Gradient) Height() int { return len(g.Magnitude) }

// Sobel computes horizontal and vertical gradients of a greyscale buffer.
//
// # Algorithm
//
// Each pixel is convolved with the 3x3 kernels
//
//	Kx = [[1, 0, -1],     Ky = Kx transposed
//	      [2, 0, -2],
//	      [1, 0, -1]]
//
// using edge-replicated borders (out-of-range neighbours take the value of
// the nearest border pixel). Magnitude is the Euclidean norm of the two
// responses. A uniform image therefore has zero gradient everywhere,
// including its borders.
func Sobel(gray [][]float64) *Gradient {
	height := len(gray)
	width := 0
	if height > 0 {
		width = len(gray[0])
	}

	kernelX := [3][3]float64{
		{1, 0, -1},
		{2, 0, -2},
		{1, 0, -1},
	}

	g := &Gradient{
		X:         make([][]float64, height),
		Y:         make([][]float64, height),
		Magnitude: make([][]float64, height),
	}

	for y := 0; y < height; y++ {
		g.X[y] = make([]float64, width)
		g.Y[y] = make([]float64, width)
		g.Magnitude[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					v := gray[py][px]
					gx += v * kernelX[ky+1][kx+1]
					gy += v * kernelX[kx+1][ky+1]
				}
			}
			g.X[y][x] = gx
			g.Y[y][x] = gy
			g.Magnitude[y][x] = math.Hypot(gx, gy)
		}
	}
	return g
}

// MaskImage converts a binary mask into a greyscale image with set pixels
// white (255) and clear pixels black (0).
func MaskImage(mask [][]bool) *image.Gray {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y, row := range mask {
		for x, on := range row {
			if on {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// EdgeMapResult contains a binary edge mask encoded as base64 PNG.
//
// White pixels (255) are edge pixels and black pixels (0) are background.
type EdgeMapResult struct {
	// Width of the mask in pixels (same as the page raster).
	Width int `json:"width"`

	// Height of the mask in pixels (same as the page raster).
	Height int `json:"height"`

	// EdgePixels is the number of set pixels in the mask.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the mask encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodeEdgeMap renders a binary mask as a base64 PNG result.
func EncodeEdgeMap(mask [][]bool) (*EdgeMapResult, error) {
	img := MaskImage(mask)
	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, row := range mask {
		for _, on := range row {
			if on {
				count++
			}
		}
	}

	return &EdgeMapResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		EdgePixels:  count,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
