package grid

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/label-templator/internal/template"
)

// gridCandidates lays out rows x cols candidates of size w x h starting at
// (x0, y0) (top-left of the first cell) with the given pitch.
func gridCandidates(rows, cols int, x0, y0, w, h, dx, dy float64) []Candidate {
	var out []Candidate
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, Candidate{
				Center: template.Point{X: x0 + float64(c)*dx + w/2, Y: y0 + float64(r)*dy + h/2},
				Width:  w,
				Height: h,
			})
		}
	}
	return out
}

func TestInfer_UniformGrid(t *testing.T) {
	cands := gridCandidates(3, 4, 50, 70, 80, 40, 92, 58)
	rand.New(rand.NewSource(1)).Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	l, err := Infer(cands, VectorTolerance)
	require.NoError(t, err)

	assert.Len(t, l.Rows, 3)
	assert.Equal(t, 4, l.Columns)
	assert.Nil(t, l.ColumnsPerRow)
	assert.InDelta(t, 92.0, l.DeltaX, 1e-9)
	assert.InDelta(t, 58.0, l.DeltaY, 1e-9)
	assert.Equal(t, 80.0, l.LabelWidth)
	assert.Equal(t, 40.0, l.LabelHeight)
	assert.Equal(t, template.Point{X: 90, Y: 90}, l.TopLeft)
	assert.Equal(t, template.Point{X: 90, Y: 206}, l.BottomLeft)

	want := gridCandidates(3, 4, 50, 70, 80, 40, 92, 58)
	var wantCenters []template.Point
	for _, c := range want {
		wantCenters = append(wantCenters, c.Center)
	}
	if diff := cmp.Diff(wantCenters, l.Centers(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("centers mismatch (-want +got):\n%s", diff)
	}
}

func TestInfer_Empty(t *testing.T) {
	l, err := Infer(nil, RasterTolerance)
	assert.Nil(t, l)
	assert.ErrorIs(t, err, template.ErrNoTemplate)
}

func TestInfer_RaggedRows(t *testing.T) {
	cands := gridCandidates(1, 3, 0, 0, 10, 10, 12, 12)
	cands = append(cands, gridCandidates(1, 2, 0, 12, 10, 10, 12, 12)...)

	l, err := Infer(cands, VectorTolerance)
	require.NoError(t, err)

	assert.Equal(t, 3, l.Columns)
	assert.Equal(t, []int{3, 2}, l.ColumnsPerRow)

	m := l.Metrics()
	assert.Equal(t, 5, m.CellCount())
}

func TestInfer_SingleCellFallsBackToLabelSize(t *testing.T) {
	l, err := Infer([]Candidate{{Center: template.Point{X: 10, Y: 10}, Width: 8, Height: 6}}, VectorTolerance)
	require.NoError(t, err)
	assert.Equal(t, 8.0, l.DeltaX)
	assert.Equal(t, 6.0, l.DeltaY)
}

func TestClusterRows_JitterWithinTolerance(t *testing.T) {
	// Raster-like jitter of +/-1pt on 40pt-high labels stays in one row
	// (tolerance = 0.3 * 40 = 12pt).
	cands := []Candidate{
		{Center: template.Point{X: 300, Y: 101}, Width: 80, Height: 40},
		{Center: template.Point{X: 100, Y: 99}, Width: 80, Height: 40},
		{Center: template.Point{X: 200, Y: 100}, Width: 80, Height: 40},
		{Center: template.Point{X: 100, Y: 160}, Width: 80, Height: 40},
	}

	rows := ClusterRows(cands, RasterTolerance)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 3)
	assert.Equal(t, []float64{100, 200, 300}, []float64{rows[0][0].Center.X, rows[0][1].Center.X, rows[0][2].Center.X})
	assert.Len(t, rows[1], 1)
}

func TestClusterRows_MinimumTolerance(t *testing.T) {
	// Tiny labels fall back to the absolute minimum tolerance.
	cands := []Candidate{
		{Center: template.Point{X: 0, Y: 10}, Width: 1, Height: 1},
		{Center: template.Point{X: 2, Y: 10.4}, Width: 1, Height: 1},
		{Center: template.Point{X: 4, Y: 10.9}, Width: 1, Height: 1},
	}
	assert.Len(t, ClusterRows(cands, VectorTolerance), 2)
	assert.Len(t, ClusterRows(cands, RasterTolerance), 1)
}

func TestFirstCompatibleRow(t *testing.T) {
	row := func(ys ...float64) []Candidate {
		var out []Candidate
		for _, y := range ys {
			out = append(out, Candidate{Center: template.Point{Y: y}, Width: 10, Height: 10})
		}
		return out
	}
	// Means 10 and 14: y=12 is within 2.5 of both.
	rows := [][]Candidate{row(9, 11), row(14)}

	tests := []struct {
		name string
		y    float64
		want int
	}{
		{"compatible with both binds to the earliest", 12, 0},
		{"boundary is inclusive", 7.5, 0},
		{"only the later row", 16, 1},
		{"neither", 30, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstCompatibleRow(rows, tt.y, 2.5))
		})
	}
	assert.Equal(t, -1, firstCompatibleRow(nil, 12, 2.5))
}

func TestClusterRows_BoundaryJoinsEarlierRow(t *testing.T) {
	// Tolerance 0.25 * 10 = 2.5. The candidate at y=12.5 sits exactly on the
	// boundary of the first row and joins it instead of starting a new one.
	cands := []Candidate{
		{Center: template.Point{X: 0, Y: 10}, Width: 10, Height: 10},
		{Center: template.Point{X: 20, Y: 12.5}, Width: 10, Height: 10},
		{Center: template.Point{X: 0, Y: 30}, Width: 10, Height: 10},
	}

	rows := ClusterRows(cands, VectorTolerance)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 2)
	assert.Len(t, rows[1], 1)
}

func TestLayoutOrdered(t *testing.T) {
	cands := gridCandidates(2, 3, 0, 0, 10, 10, 12, 12)
	rand.New(rand.NewSource(7)).Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })

	l, err := Infer(cands, VectorTolerance)
	require.NoError(t, err)

	ordered := l.Ordered()
	require.Len(t, ordered, 6)
	centers := l.Centers()
	for i, c := range ordered {
		assert.Equal(t, c.Center, centers[i])
	}
	assert.True(t, template.IsRowMajor(centers))
	assert.Equal(t, template.Point{X: 5, Y: 5}, ordered[0].Center)
	assert.Equal(t, template.Point{X: 29, Y: 17}, ordered[5].Center)
}

func TestInfer_Deterministic(t *testing.T) {
	cands := gridCandidates(5, 7, 10, 10, 30, 20, 33.3, 21.7)
	a, err := Infer(cands, RasterTolerance)
	require.NoError(t, err)
	b, err := Infer(cands, RasterTolerance)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLayoutTemplate(t *testing.T) {
	l, err := Infer(gridCandidates(2, 3, 0, 0, 10, 5, 12, 7), VectorTolerance)
	require.NoError(t, err)

	tpl, err := l.Template(template.PageMetrics{WidthPt: 100, HeightPt: 100}, map[string]string{"extraction": "vector"})
	require.NoError(t, err)

	assert.Equal(t, 6, tpl.CenterCount())
	assert.Equal(t, template.GridRectangular, tpl.Grid().Kind)
	assert.Equal(t, template.ShapeRectangle, tpl.Label().Shape)
	assert.True(t, template.IsRowMajor(tpl.Centers()))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}
