package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/label-templator/internal/template"
)

func buildTemplate(t *testing.T) *template.Template {
	t.Helper()
	tpl, err := template.New(
		template.PageMetrics{WidthPt: 200, HeightPt: 300},
		template.GridMetrics{Kind: template.GridRectangular, Rows: 2, Columns: 2, DeltaXPt: 100, DeltaYPt: 100},
		template.LabelGeometry{Shape: template.ShapeRectangle, WidthPt: 90, HeightPt: 80},
		template.AnchorPoints{TopLeftPt: template.Point{X: 10, Y: 20}, BottomLeftPt: template.Point{X: 10, Y: 220}},
		[]template.Point{{X: 110, Y: 120}, {X: 10, Y: 20}, {X: 110, Y: 20}, {X: 10, Y: 120}},
		map[string]string{"extraction": "vector"},
	)
	require.NoError(t, err)
	return tpl
}

func TestWriteJSON_PercentWidth(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildTemplate(t), template.SpacePercentWidth, DefaultIndent))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "percent_width", doc.CentersCoordSpace)
	assert.Equal(t, [][2]float64{{5, 10}, {55, 10}, {5, 60}, {55, 60}}, doc.Centers)
	assert.Equal(t, [2]float64{5, 10}, doc.TopLeftPercentWidth)
	assert.Equal(t, [2]float64{5, 110}, doc.Anchors.PercentWidth.BottomLeft)
	assert.Equal(t, [2]float64{10, 220}, doc.Anchors.Points.BottomLeft)
	assert.Equal(t, "rectangular", doc.Grid.Kind)
	assert.Nil(t, doc.Grid.ColumnsPerRow)
	assert.Equal(t, map[string]string{"extraction": "vector"}, doc.Metadata)
}

func TestWriteJSON_SortedKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildTemplate(t), template.SpacePoints, DefaultIndent))
	out := buf.String()

	keys := []string{`"anchors"`, `"centers"`, `"centers_coord_space"`, `"grid"`, `"label"`, `"metadata"`, `"page"`, `"top_left_percent_width"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, "\n  "+k)
		require.GreaterOrEqual(t, i, 0, "missing key %s", k)
		assert.Greater(t, i, last, "key %s out of order", k)
		last = i
	}
	assert.NotContains(t, out, "row_offsets_pt")
	assert.NotContains(t, out, "columns_per_row")
}

func TestJSON_RoundTrip(t *testing.T) {
	tpl := buildTemplate(t)
	approx := cmpopts.EquateApprox(0, 1e-6)

	for _, space := range template.CoordSpaces {
		t.Run(string(space), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteJSON(&buf, tpl, space, 0))

			got, err := ReadJSON(&buf)
			require.NoError(t, err)

			if diff := cmp.Diff(tpl.Centers(), got.Centers(), approx); diff != "" {
				t.Errorf("centers mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tpl.Grid(), got.Grid())
			assert.Equal(t, tpl.Label(), got.Label())
			assert.Equal(t, tpl.Anchors(), got.Anchors())
			assert.Equal(t, tpl.Metadata(), got.Metadata())
		})
	}
}

func TestJSON_RoundTripCirclesWithOffsets(t *testing.T) {
	tpl, err := template.New(
		template.PageMetrics{WidthPt: 100, HeightPt: 100},
		template.GridMetrics{
			Kind: template.GridCircleClose, Rows: 2, Columns: 2, DeltaXPt: 30, DeltaYPt: 25.980762,
			RowOffsetsPt: []float64{0, 15}, ColumnsPerRow: []int{2, 1},
		},
		template.LabelGeometry{Shape: template.ShapeCircle, WidthPt: 20, HeightPt: 20},
		template.AnchorPoints{TopLeftPt: template.Point{X: 20, Y: 20}, BottomLeftPt: template.Point{X: 35, Y: 45.980762}},
		[]template.Point{{X: 20, Y: 20}, {X: 50, Y: 20}, {X: 35, Y: 45.980762}},
		nil,
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tpl, template.SpaceMM, DefaultIndent))
	assert.Contains(t, buf.String(), `"row_offsets_pt"`)
	assert.Contains(t, buf.String(), `"columns_per_row"`)

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, got.Grid().ColumnsPerRow)
	assert.Equal(t, []float64{0, 15}, got.Grid().RowOffsetsPt)
	d, ok := got.Label().Diameter()
	assert.True(t, ok)
	assert.Equal(t, 20.0, d)
}

func TestReadJSON_Invalid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, buildTemplate(t), template.SpacePoints, 0))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	badSpace := doc
	badSpace.CentersCoordSpace = "furlongs"
	_, err := badSpace.Template()
	assert.ErrorIs(t, err, template.ErrInvalidParameter)

	missing := doc
	missing.Centers = missing.Centers[:3]
	_, err = missing.Template()
	assert.ErrorIs(t, err, template.ErrInvalidTemplate)

	_, err = ReadJSON(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, buildTemplate(t), template.SpacePoints))

	want := "x,y,coord_space\n" +
		"10.000000,20.000000,points\n" +
		"110.000000,20.000000,points\n" +
		"10.000000,120.000000,points\n" +
		"110.000000,120.000000,points\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Inches(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, buildTemplate(t), template.SpaceInches))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "0.138889,0.277778,inches", lines[1])
}

func TestWriteCSV_InvalidSpace(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, buildTemplate(t), template.CoordSpace("cubits"))
	assert.ErrorIs(t, err, template.ErrInvalidParameter)
	assert.Zero(t, buf.Len())
}

func TestSave_CreatesDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	tpl := buildTemplate(t)

	jsonPath := filepath.Join(dir, "template.json")
	csvPath := filepath.Join(dir, "centers.csv")
	require.NoError(t, SaveJSON(jsonPath, tpl, template.SpacePercentWidth, DefaultIndent))
	require.NoError(t, SaveCSV(csvPath, tpl, template.SpacePercentWidth))

	loaded, err := LoadJSON(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, tpl.CenterCount(), loaded.CenterCount())

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "x,y,coord_space\n5.000000,10.000000,percent_width\n"))
}
