package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/template"
)

// DefaultStrokeWidth is the line width used for drawings that omit one.
const DefaultStrokeWidth = 1.0

// Description is a page description document: pages of vector drawings
// in PDF point coordinates (origin top-left, y down). JSON is accepted as
// well since it is a subset of YAML.
//
//	pages:
//	  - width_pt: 612
//	    height_pt: 792
//	    drawings:
//	      - rect: [36, 36, 216, 108]
//	        stroke_width: 0.5
//	        items:
//	          - op: re
//	            points: [[36, 36], [216, 108]]
type Description struct {
	Pages []PageDescription `yaml:"pages" json:"pages"`
}

// PageDescription is one page of a Description.
type PageDescription struct {
	WidthPt  float64              `yaml:"width_pt" json:"width_pt"`
	HeightPt float64              `yaml:"height_pt" json:"height_pt"`
	Drawings []DrawingDescription `yaml:"drawings" json:"drawings"`
}

// DrawingDescription is one drawing operation. Rect may be omitted, in
// which case the bounds of the item points are used.
type DrawingDescription struct {
	Rect        []float64         `yaml:"rect,omitempty" json:"rect,omitempty"`
	StrokeWidth float64           `yaml:"stroke_width,omitempty" json:"stroke_width,omitempty"`
	Items       []ItemDescription `yaml:"items" json:"items"`
}

// ItemDescription is one path primitive.
type ItemDescription struct {
	Op     string       `yaml:"op" json:"op"`
	Points [][2]float64 `yaml:"points" json:"points"`
}

// descriptionDocument serves vector drawings from a parsed description
// and rasterises them on demand.
type descriptionDocument struct {
	pages []VectorPage
}

// OpenDescription reads a page description file.
func OpenDescription(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page description: %w", err)
	}
	defer f.Close()
	return ReadDescription(f)
}

// ReadDescription parses a page description from r.
func ReadDescription(r io.Reader) (Document, error) {
	var desc Description
	if err := yaml.NewDecoder(r).Decode(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode page description: %w", err)
	}
	return NewDescriptionDocument(desc)
}

// NewDescriptionDocument validates an in-memory description.
func NewDescriptionDocument(desc Description) (Document, error) {
	if len(desc.Pages) == 0 {
		return nil, fmt.Errorf("page description contains no pages")
	}
	doc := &descriptionDocument{}
	for i, p := range desc.Pages {
		page, err := p.vectorPage()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		doc.pages = append(doc.pages, *page)
	}
	return doc, nil
}

// SaveDescription writes a description as JSON when path ends in .json and
// as YAML otherwise.
func SaveDescription(path string, desc Description) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create page description: %w", err)
	}
	if err := WriteDescription(f, desc, strings.EqualFold(filepath.Ext(path), ".json")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDescription encodes a description to w.
func WriteDescription(w io.Writer, desc Description, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(desc); err != nil {
			return fmt.Errorf("failed to encode page description: %w", err)
		}
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(desc); err != nil {
		return fmt.Errorf("failed to encode page description: %w", err)
	}
	return enc.Close()
}

func (p PageDescription) vectorPage() (*VectorPage, error) {
	metrics := template.PageMetrics{WidthPt: p.WidthPt, HeightPt: p.HeightPt}
	if err := metrics.Validate(); err != nil {
		return nil, err
	}
	vp := &VectorPage{Page: metrics}
	for j, d := range p.Drawings {
		drawing, err := d.drawing()
		if err != nil {
			return nil, fmt.Errorf("drawing %d: %w", j, err)
		}
		vp.Drawings = append(vp.Drawings, drawing)
	}
	return vp, nil
}

func (d DrawingDescription) drawing() (Drawing, error) {
	out := Drawing{StrokeWidth: d.StrokeWidth}
	if out.StrokeWidth == 0 {
		out.StrokeWidth = DefaultStrokeWidth
	}
	if out.StrokeWidth < 0 {
		return Drawing{}, fmt.Errorf("negative stroke width %g", d.StrokeWidth)
	}

	for k, it := range d.Items {
		op := Op(it.Op)
		want, ok := pointCount[op]
		if !ok {
			return Drawing{}, fmt.Errorf("item %d: unknown op %q", k, it.Op)
		}
		if len(it.Points) != want {
			return Drawing{}, fmt.Errorf("item %d: op %q needs %d points, got %d", k, it.Op, want, len(it.Points))
		}
		item := PathItem{Op: op}
		for _, pt := range it.Points {
			item.Points = append(item.Points, template.Point{X: pt[0], Y: pt[1]})
		}
		out.Items = append(out.Items, item)
	}

	switch len(d.Rect) {
	case 4:
		out.Rect = template.Rect{X0: d.Rect[0], Y0: d.Rect[1], X1: d.Rect[2], Y1: d.Rect[3]}
	case 0:
		out.Rect = itemBounds(out.Items)
	default:
		return Drawing{}, fmt.Errorf("rect needs 4 values, got %d", len(d.Rect))
	}
	return out, nil
}

// itemBounds returns the bounding box of all item points.
func itemBounds(items []PathItem) template.Rect {
	r := template.Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, it := range items {
		for _, p := range it.Points {
			r.X0 = math.Min(r.X0, p.X)
			r.Y0 = math.Min(r.Y0, p.Y)
			r.X1 = math.Max(r.X1, p.X)
			r.Y1 = math.Max(r.Y1, p.Y)
		}
	}
	if math.IsInf(r.X0, 1) {
		return template.Rect{}
	}
	return r
}

func (d *descriptionDocument) PageCount() int { return len(d.pages) }

func (d *descriptionDocument) Vector(page int) (*VectorPage, error) {
	if err := checkPage(page, len(d.pages)); err != nil {
		return nil, err
	}
	vp := d.pages[page]
	vp.Drawings = append([]Drawing(nil), vp.Drawings...)
	return &vp, nil
}

func (d *descriptionDocument) Raster(page int, dpi float64) (*RasterPage, error) {
	if err := checkPage(page, len(d.pages)); err != nil {
		return nil, err
	}
	if err := checkDPI(dpi); err != nil {
		return nil, err
	}
	vp := d.pages[page]
	return &RasterPage{
		Image: Rasterize(vp.Page, vp.Drawings, dpi),
		DPI:   dpi,
		Page:  vp.Page,
		Luma:  imaging.LumaRec709,
	}, nil
}

func (d *descriptionDocument) Close() error { return nil }
