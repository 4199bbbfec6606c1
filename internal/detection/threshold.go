package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// edgePercentile is the magnitude percentile used as the base threshold.
const edgePercentile = 92

// EdgeThreshold returns the gradient magnitude at or above which a pixel
// counts as an edge: the larger of the 92nd percentile and mean plus one
// population standard deviation of all magnitudes.
//
// On a uniform page both terms are zero. Threshold never marks pixels against
// a zero threshold, so a blank page yields an empty mask.
func EdgeThreshold(magnitude [][]float64) float64 {
	flat := flatten(magnitude)
	if len(flat) == 0 {
		return 0
	}

	mean, std := stat.PopMeanStdDev(flat, nil)
	sort.Float64s(flat)
	return math.Max(percentile(flat, edgePercentile), mean+std)
}

// Threshold marks every pixel whose magnitude reaches t. A non-positive t
// marks nothing.
func Threshold(magnitude [][]float64, t float64) [][]bool {
	mask := make([][]bool, len(magnitude))
	for y, row := range magnitude {
		mask[y] = make([]bool, len(row))
		for x, v := range row {
			mask[y][x] = t > 0 && v >= t
		}
	}
	return mask
}

// percentile returns the p-th percentile of sorted values, interpolating
// linearly between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

func flatten(buf [][]float64) []float64 {
	n := 0
	for _, row := range buf {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range buf {
		out = append(out, row...)
	}
	return out
}
