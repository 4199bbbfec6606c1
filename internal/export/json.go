package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ironsheep/label-templator/internal/template"
)

// DefaultIndent is the JSON indentation width.
const DefaultIndent = 2

// Document is the serialised form of a template. Fields are declared in
// alphabetical key order so the encoded object has sorted keys.
type Document struct {
	Anchors             AnchorsDoc        `json:"anchors"`
	Centers             [][2]float64      `json:"centers"`
	CentersCoordSpace   string            `json:"centers_coord_space"`
	Grid                GridDoc           `json:"grid"`
	Label               LabelDoc          `json:"label"`
	Metadata            map[string]string `json:"metadata"`
	Page                PageDoc           `json:"page"`
	TopLeftPercentWidth [2]float64        `json:"top_left_percent_width"`
}

// AnchorsDoc holds the registration anchors in points and in percent of
// page width.
type AnchorsDoc struct {
	PercentWidth AnchorPair `json:"percent_width"`
	Points       AnchorPair `json:"points"`
}

// AnchorPair is a top-left / bottom-left anchor pair.
type AnchorPair struct {
	BottomLeft [2]float64 `json:"bottom_left"`
	TopLeft    [2]float64 `json:"top_left"`
}

// GridDoc is the serialised grid. RowOffsetsPt and ColumnsPerRow are
// omitted when they do not apply.
type GridDoc struct {
	Columns       int       `json:"columns"`
	ColumnsPerRow []int     `json:"columns_per_row,omitempty"`
	DeltaXPt      float64   `json:"delta_x_pt"`
	DeltaYPt      float64   `json:"delta_y_pt"`
	Kind          string    `json:"kind"`
	RowOffsetsPt  []float64 `json:"row_offsets_pt,omitempty"`
	Rows          int       `json:"rows"`
}

// LabelDoc is the serialised label geometry.
type LabelDoc struct {
	HeightPt float64 `json:"height_pt"`
	Shape    string  `json:"shape"`
	WidthPt  float64 `json:"width_pt"`
}

// PageDoc is the serialised page size.
type PageDoc struct {
	HeightPt float64 `json:"height_pt"`
	WidthPt  float64 `json:"width_pt"`
}

func pair(p template.Point) [2]float64 { return [2]float64{p.X, p.Y} }

// NewDocument converts a template into its serialised form with centers in
// the given coordinate space.
func NewDocument(tpl *template.Template, space template.CoordSpace) (*Document, error) {
	if _, err := template.ParseCoordSpace(string(space)); err != nil {
		return nil, err
	}

	page := tpl.Page()
	centers, err := tpl.CentersIn(space)
	if err != nil {
		return nil, err
	}
	template.SortRowMajor(centers)

	anchors := tpl.Anchors()
	topLeft, err := template.PercentOfWidth(anchors.TopLeftPt, page.WidthPt)
	if err != nil {
		return nil, err
	}
	bottomLeft, err := template.PercentOfWidth(anchors.BottomLeftPt, page.WidthPt)
	if err != nil {
		return nil, err
	}

	g := tpl.Grid()
	label := tpl.Label()

	doc := &Document{
		Anchors: AnchorsDoc{
			PercentWidth: AnchorPair{TopLeft: pair(topLeft), BottomLeft: pair(bottomLeft)},
			Points:       AnchorPair{TopLeft: pair(anchors.TopLeftPt), BottomLeft: pair(anchors.BottomLeftPt)},
		},
		Centers:           make([][2]float64, len(centers)),
		CentersCoordSpace: string(space),
		Grid: GridDoc{
			Columns:       g.Columns,
			ColumnsPerRow: g.ColumnsPerRow,
			DeltaXPt:      g.DeltaXPt,
			DeltaYPt:      g.DeltaYPt,
			Kind:          string(g.Kind),
			RowOffsetsPt:  g.RowOffsetsPt,
			Rows:          g.Rows,
		},
		Label:               LabelDoc{HeightPt: label.HeightPt, Shape: string(label.Shape), WidthPt: label.WidthPt},
		Metadata:            tpl.Metadata(),
		Page:                PageDoc{HeightPt: page.HeightPt, WidthPt: page.WidthPt},
		TopLeftPercentWidth: pair(topLeft),
	}
	for i, c := range centers {
		doc.Centers[i] = pair(c)
	}
	return doc, nil
}

// Template rebuilds a validated template from the document, converting the
// centers from their stored coordinate space back into points.
func (d *Document) Template() (*template.Template, error) {
	space, err := template.ParseCoordSpace(d.CentersCoordSpace)
	if err != nil {
		return nil, err
	}

	page := template.PageMetrics{WidthPt: d.Page.WidthPt, HeightPt: d.Page.HeightPt}
	centers := make([]template.Point, len(d.Centers))
	for i, c := range d.Centers {
		p, err := template.FromSpace(template.Point{X: c[0], Y: c[1]}, space, page.WidthPt)
		if err != nil {
			return nil, err
		}
		centers[i] = p
	}

	return template.New(
		page,
		template.GridMetrics{
			Kind:          template.GridKind(d.Grid.Kind),
			Rows:          d.Grid.Rows,
			Columns:       d.Grid.Columns,
			DeltaXPt:      d.Grid.DeltaXPt,
			DeltaYPt:      d.Grid.DeltaYPt,
			RowOffsetsPt:  d.Grid.RowOffsetsPt,
			ColumnsPerRow: d.Grid.ColumnsPerRow,
		},
		template.LabelGeometry{
			Shape:    template.LabelShape(d.Label.Shape),
			WidthPt:  d.Label.WidthPt,
			HeightPt: d.Label.HeightPt,
		},
		template.AnchorPoints{
			TopLeftPt:    template.Point{X: d.Anchors.Points.TopLeft[0], Y: d.Anchors.Points.TopLeft[1]},
			BottomLeftPt: template.Point{X: d.Anchors.Points.BottomLeft[0], Y: d.Anchors.Points.BottomLeft[1]},
		},
		centers,
		d.Metadata,
	)
}

// WriteJSON encodes a template to w. indent is the number of spaces per
// nesting level; zero writes compact JSON.
func WriteJSON(w io.Writer, tpl *template.Template, space template.CoordSpace, indent int) error {
	doc, err := NewDocument(tpl, space)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	return nil
}

// SaveJSON writes a template JSON file, creating parent directories.
func SaveJSON(path string, tpl *template.Template, space template.CoordSpace, indent int) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJSON(w, tpl, space, indent)
	})
}

// ReadJSON decodes a template document and rebuilds the template.
func ReadJSON(r io.Reader) (*template.Template, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	return doc.Template()
}

// LoadJSON reads a template JSON file.
func LoadJSON(path string) (*template.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}
