package render

import (
	"fmt"
	"image"

	"github.com/ironsheep/label-templator/internal/imaging"
	"github.com/ironsheep/label-templator/internal/template"
)

// imageDocument is a single-page document backed by a raster image file.
// Its physical size depends on the resolution the pixels are taken at.
type imageDocument struct {
	img image.Image
	dpi float64
}

func openImage(path string, opts Options) (Document, error) {
	cache := opts.Cache
	if cache == nil {
		cache = imaging.NewImageCache()
	}
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return NewImageDocument(img, opts.DPI)
}

// NewImageDocument wraps an in-memory image as a single-page document.
func NewImageDocument(img image.Image, dpi float64) (Document, error) {
	if err := checkDPI(dpi); err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("input image is empty")
	}
	return &imageDocument{img: img, dpi: dpi}, nil
}

func (d *imageDocument) PageCount() int { return 1 }

func (d *imageDocument) checkPage(page int) error {
	if page != 0 {
		return fmt.Errorf("%w: image sources support only page index 0, got %d", ErrPageOutOfRange, page)
	}
	return nil
}

func (d *imageDocument) pageAt(dpi float64) template.PageMetrics {
	b := d.img.Bounds()
	scale := template.PointsPerInch / dpi
	return template.PageMetrics{
		WidthPt:  float64(b.Dx()) * scale,
		HeightPt: float64(b.Dy()) * scale,
	}
}

// Vector returns the page size with no drawings: raster images carry no
// vector content.
func (d *imageDocument) Vector(page int) (*VectorPage, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	return &VectorPage{Page: d.pageAt(d.dpi)}, nil
}

// Raster returns the image itself. The dpi only determines the physical
// page size; the pixels are never resampled.
func (d *imageDocument) Raster(page int, dpi float64) (*RasterPage, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if err := checkDPI(dpi); err != nil {
		return nil, err
	}
	return &RasterPage{
		Image: d.img,
		DPI:   dpi,
		Page:  d.pageAt(dpi),
		Luma:  imaging.LumaBT601,
	}, nil
}

func (d *imageDocument) Close() error { return nil }
