package detection

// Morphology on binary masks with a 3x3 square structuring element. Pixels
// outside the mask count as unset, so erosion clears the one-pixel border.

// Dilate sets every pixel with at least one set pixel in its 3x3
// neighbourhood, repeated iterations times.
func Dilate(mask [][]bool, iterations int) [][]bool {
	for i := 0; i < iterations; i++ {
		mask = morph(mask, true)
	}
	return mask
}

// Erode keeps only pixels whose whole 3x3 neighbourhood is set, repeated
// iterations times.
func Erode(mask [][]bool, iterations int) [][]bool {
	for i := 0; i < iterations; i++ {
		mask = morph(mask, false)
	}
	return mask
}

// morph applies one dilation (dilate=true) or erosion step.
func morph(mask [][]bool, dilate bool) [][]bool {
	height := len(mask)
	out := make([][]bool, height)
	for y := 0; y < height; y++ {
		width := len(mask[y])
		out[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			out[y][x] = window(mask, x, y, dilate)
		}
	}
	return out
}

// window reports whether any (dilate) or all (erode) pixels of the 3x3
// neighbourhood of (x, y) are set.
func window(mask [][]bool, x, y int, dilate bool) bool {
	for dy := -1; dy <= 1; dy++ {
		yy := y + dy
		for dx := -1; dx <= 1; dx++ {
			xx := x + dx
			set := yy >= 0 && yy < len(mask) && xx >= 0 && xx < len(mask[yy]) && mask[yy][xx]
			if dilate && set {
				return true
			}
			if !dilate && !set {
				return false
			}
		}
	}
	return !dilate
}
