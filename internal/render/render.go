package render

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/template"
)

// DefaultDPI is the rasterisation resolution used when none is given.
const DefaultDPI = 200

var (
	// ErrPageOutOfRange is returned for a page index outside the document.
	ErrPageOutOfRange = errors.New("page index out of range")

	// ErrUnsupportedFormat is returned for sources no renderer can open.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// Op identifies a path primitive within a drawing.
type Op string

const (
	// OpRect is a native rectangle: Points holds the top-left and
	// bottom-right corners.
	OpRect Op = "re"
	// OpLine is a straight segment between two points.
	OpLine Op = "l"
	// OpCurve is a cubic Bezier: start, two control points, end.
	OpCurve Op = "c"
	// OpQuad is a closed quadrilateral given by its four corners.
	OpQuad Op = "qu"
)

// pointCount is the number of points each primitive carries.
var pointCount = map[Op]int{OpRect: 2, OpLine: 2, OpCurve: 4, OpQuad: 4}

// PathItem is a single primitive of a drawing path.
type PathItem struct {
	Op     Op
	Points []template.Point
}

// Drawing is one vector drawing operation on a page: the bounding
// rectangle plus the raw primitives that drew it.
type Drawing struct {
	Rect        template.Rect
	Items       []PathItem
	StrokeWidth float64
}

// VectorPage is the vector content of a page.
type VectorPage struct {
	Page     template.PageMetrics
	Drawings []Drawing
}

// RasterPage is a rendered page bitmap with its physical size.
type RasterPage struct {
	Image image.Image
	DPI   float64
	Page  template.PageMetrics

	// Luma selects the greyscale weights appropriate for the source.
	Luma imaging.Luma
}

// Scale returns the points-per-pixel factor of the raster.
func (r *RasterPage) Scale() float64 {
	return template.PointsPerInch / r.DPI
}

// Document is a multi-page source the detectors can read.
type Document interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// Vector returns the page size and vector drawings of a page. Sources
	// without vector content return an empty drawing list.
	Vector(page int) (*VectorPage, error)

	// Raster renders a page at the given resolution.
	Raster(page int, dpi float64) (*RasterPage, error)

	// Close releases any resources held by the document.
	Close() error
}

// Options configures Open.
type Options struct {
	// DPI is the resolution used to size image pages in points.
	// Zero means DefaultDPI.
	DPI float64

	// Cache, when set, is used to load image files.
	Cache *imaging.ImageCache
}

// Open opens a document by file extension. Missing files return an error
// wrapping fs.ErrNotExist.
func Open(path string, opts Options) (Document, error) {
	if opts.DPI == 0 {
		opts.DPI = DefaultDPI
	}
	if opts.DPI < 0 {
		return nil, fmt.Errorf("%w: dpi must be positive, got %g", template.ErrInvalidParameter, opts.DPI)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("the provided path does not exist: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imaging.IsImageExt(ext):
		return openImage(path, opts)
	case ext == ".yaml" || ext == ".yml" || ext == ".json":
		return OpenDescription(path)
	case ext == ".pdf":
		return nil, fmt.Errorf("%w: %s: render PDF pages to an image or page description first", ErrUnsupportedFormat, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func checkPage(page, count int) error {
	if page < 0 || page >= count {
		return fmt.Errorf("%w: requested page index %d outside range 0..%d", ErrPageOutOfRange, page, count-1)
	}
	return nil
}

func checkDPI(dpi float64) error {
	if dpi <= 0 {
		return fmt.Errorf("%w: dpi must be positive, got %g", template.ErrInvalidParameter, dpi)
	}
	return nil
}
