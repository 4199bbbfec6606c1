package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/label-templator/internal/template"
)

// CropResult contains the cropped image data
type CropResult struct {
	Index       int           `json:"index"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	RectPt      template.Rect `json:"rect_pt"`
	ImageBase64 string        `json:"image_base64"`
	MimeType    string        `json:"mime_type"`
}

// Crop extracts a rectangular pixel region from an image, optionally
// resampling it by scale.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (image.Image, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %g reduces the crop to nothing", scale)
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// CropLabel extracts the cell of label i from a page raster.
//
// The label rectangle (in points) is converted to pixels at dpi and clipped
// to the raster, so labels bleeding off the page still crop cleanly.
func CropLabel(page image.Image, tpl *template.Template, i int, dpi, scale float64) (*CropResult, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %g", dpi)
	}
	rect, err := tpl.LabelRect(i)
	if err != nil {
		return nil, err
	}

	px := dpi / template.PointsPerInch
	b := page.Bounds()
	x1 := clamp(int(math.Floor(rect.X0*px)), 0, b.Dx()) + b.Min.X
	y1 := clamp(int(math.Floor(rect.Y0*px)), 0, b.Dy()) + b.Min.Y
	x2 := clamp(int(math.Ceil(rect.X1*px)), 0, b.Dx()) + b.Min.X
	y2 := clamp(int(math.Ceil(rect.Y1*px)), 0, b.Dy()) + b.Min.Y

	cropped, err := Crop(page, x1, y1, x2, y2, scale)
	if err != nil {
		return nil, fmt.Errorf("label %d: %w", i, err)
	}

	encoded, err := EncodePNGBase64(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Index:       i,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		RectPt:      rect,
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
