package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGrid() GridMetrics {
	return GridMetrics{Kind: GridRectangular, Rows: 2, Columns: 2, DeltaXPt: 100, DeltaYPt: 50}
}

func validLabel() LabelGeometry {
	return LabelGeometry{Shape: ShapeRectangle, WidthPt: 80, HeightPt: 40}
}

func TestNew_SortsCentersRowMajor(t *testing.T) {
	centers := []Point{{X: 150, Y: 75}, {X: 50, Y: 75}, {X: 150, Y: 25}, {X: 50, Y: 25}}

	tpl, err := New(PageMetrics{WidthPt: 300, HeightPt: 200}, validGrid(), validLabel(),
		AnchorPoints{TopLeftPt: Point{X: 50, Y: 25}, BottomLeftPt: Point{X: 50, Y: 75}}, centers, nil)
	require.NoError(t, err)

	assert.Equal(t, []Point{{X: 50, Y: 25}, {X: 150, Y: 25}, {X: 50, Y: 75}, {X: 150, Y: 75}}, tpl.Centers())
	assert.True(t, IsRowMajor(tpl.Centers()))

	// Caller's slice is untouched.
	assert.Equal(t, Point{X: 150, Y: 75}, centers[0])
}

func TestNew_RejectsInvalidComponents(t *testing.T) {
	page := PageMetrics{WidthPt: 300, HeightPt: 200}
	centers := []Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 2}, {X: 2, Y: 2}}

	tests := []struct {
		name    string
		page    PageMetrics
		grid    GridMetrics
		label   LabelGeometry
		centers []Point
	}{
		{"zero page width", PageMetrics{WidthPt: 0, HeightPt: 200}, validGrid(), validLabel(), centers},
		{"zero rows", page, GridMetrics{Kind: GridRectangular, Rows: 0, Columns: 2, DeltaXPt: 1, DeltaYPt: 1}, validLabel(), centers},
		{"negative pitch", page, GridMetrics{Kind: GridRectangular, Rows: 2, Columns: 2, DeltaXPt: -1, DeltaYPt: 1}, validLabel(), centers},
		{"unknown kind", page, GridMetrics{Kind: "hex", Rows: 2, Columns: 2, DeltaXPt: 1, DeltaYPt: 1}, validLabel(), centers},
		{"offset length mismatch", page, GridMetrics{Kind: GridCircleClose, Rows: 2, Columns: 2, DeltaXPt: 1, DeltaYPt: 1, RowOffsetsPt: []float64{0}}, validLabel(), centers},
		{"columns per row mismatch", page, GridMetrics{Kind: GridRectangular, Rows: 2, Columns: 2, DeltaXPt: 1, DeltaYPt: 1, ColumnsPerRow: []int{2}}, validLabel(), centers},
		{"non-circular circle", page, validGrid(), LabelGeometry{Shape: ShapeCircle, WidthPt: 10, HeightPt: 11}, centers},
		{"zero label height", page, validGrid(), LabelGeometry{Shape: ShapeRectangle, WidthPt: 10, HeightPt: 0}, centers},
		{"no centers", page, validGrid(), validLabel(), nil},
		{"count mismatch", page, validGrid(), validLabel(), centers[:3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := New(tt.page, tt.grid, tt.label, AnchorPoints{}, tt.centers, nil)
			require.Error(t, err)
			assert.Nil(t, tpl)
			assert.True(t, errors.Is(err, ErrInvalidTemplate))
			assert.False(t, IsNoTemplate(err))
		})
	}
}

func TestNew_RaggedGrid(t *testing.T) {
	grid := GridMetrics{Kind: GridCircleClose, Rows: 2, Columns: 3, DeltaXPt: 10, DeltaYPt: 8.66,
		RowOffsetsPt: []float64{0, 5}, ColumnsPerRow: []int{3, 2}}
	centers := []Point{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 25, Y: 5}, {X: 10, Y: 13.66}, {X: 20, Y: 13.66}}

	tpl, err := New(PageMetrics{WidthPt: 30, HeightPt: 20}, grid,
		LabelGeometry{Shape: ShapeCircle, WidthPt: 10, HeightPt: 10}, AnchorPoints{}, centers, map[string]string{"layout": "close"})
	require.NoError(t, err)

	g := tpl.Grid()
	assert.Equal(t, 5, g.CellCount())
	assert.Equal(t, []int{3, 2}, g.ColumnsPerRow)

	// Accessors return copies.
	g.ColumnsPerRow[0] = 99
	assert.Equal(t, []int{3, 2}, tpl.Grid().ColumnsPerRow)

	m := tpl.Metadata()
	m["layout"] = "mutated"
	v, ok := tpl.MetadataValue("layout")
	assert.True(t, ok)
	assert.Equal(t, "close", v)

	d, ok := tpl.Label().Diameter()
	assert.True(t, ok)
	assert.Equal(t, 10.0, d)
}

func TestLabelRect(t *testing.T) {
	tpl, err := New(PageMetrics{WidthPt: 300, HeightPt: 200},
		GridMetrics{Kind: GridRectangular, Rows: 1, Columns: 1, DeltaXPt: 80, DeltaYPt: 40},
		validLabel(), AnchorPoints{}, []Point{{X: 100, Y: 50}}, nil)
	require.NoError(t, err)

	r, err := tpl.LabelRect(0)
	require.NoError(t, err)
	assert.Equal(t, Rect{X0: 60, Y0: 30, X1: 140, Y1: 70}, r)
	assert.Equal(t, Point{X: 100, Y: 50}, r.Center())

	_, err = tpl.LabelRect(1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestLabelGeometry_DiameterForRectangle(t *testing.T) {
	_, ok := validLabel().Diameter()
	assert.False(t, ok)
	_, ok = validLabel().Radius()
	assert.False(t, ok)
}
